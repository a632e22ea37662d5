package jsonapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
)

// Ensure Adapter implements the interfaces.
var (
	_ driven.SourceAdapter = (*Adapter)(nil)
	_ driven.QueryBuilder  = (*Adapter)(nil)
)

// Adapter reads listings from a JSON search endpoint.
// An Adapter serves a single job.
type Adapter struct {
	name   string
	config *Config

	// token is set by Authenticate when the source uses token_param.
	token string
}

// New creates a JSON API adapter.
func New(name string, cfg *Config) *Adapter {
	return &Adapter{name: name, config: cfg}
}

// Build creates an adapter from a source descriptor. The source must be
// queried by URL; there is no form to refine.
func Build(source domain.SourceDescriptor) (driven.SourceAdapter, error) {
	if !source.Capabilities.QueryByURL {
		return nil, fmt.Errorf("%w (source %s)", ErrQueryByURLRequired, source.Name)
	}
	cfg, err := ParseConfig(source)
	if err != nil {
		return nil, err
	}
	return New(source.Name, cfg), nil
}

// Name returns the source name.
func (a *Adapter) Name() string {
	return a.name
}

// Authenticate keeps a token for the query or performs a form login.
func (a *Adapter) Authenticate(ctx context.Context, ec driven.ExecutionContext, creds domain.Credentials) error {
	if !a.config.RequiresAuth() {
		return nil
	}
	if creds.Secret == "" {
		return fmt.Errorf("%w: %s: no credentials configured", domain.ErrAuth, a.name)
	}

	if a.config.TokenParam != "" {
		a.token = creds.Secret
	}
	if a.config.LoginURL == "" {
		return nil
	}

	session, ok := ec.(driven.HTTPContext)
	if !ok {
		return ErrNotHTTPContext
	}

	form := url.Values{}
	form.Set(a.config.UsernameField, creds.Username)
	form.Set(a.config.PasswordField, creds.Secret)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.LoginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("building login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := session.Do(req)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, URL: a.config.LoginURL}
		if IsUnauthorized(apiErr) {
			return fmt.Errorf("%w: %w", domain.ErrAuth, apiErr)
		}
		return apiErr
	}
	return nil
}

// BuildQuery expands the endpoint template for the criteria.
func (a *Adapter) BuildQuery(criteria domain.SearchCriteria) (string, error) {
	if !a.config.servesMake(criteria.Make) {
		return "", fmt.Errorf("%w: make %s not served by %s", domain.ErrRefinementUnavailable, criteria.Make, a.name)
	}
	if !a.config.servesModel(criteria.Model) {
		return "", fmt.Errorf("%w: model %s not served by %s", domain.ErrRefinementUnavailable, criteria.Model, a.name)
	}

	values := criteria.Values()
	if a.config.Strict {
		if missing := unexpressed(a.config.Endpoint, values); len(missing) > 0 {
			return "", fmt.Errorf("%w: %s cannot filter by %s", domain.ErrRefinementUnavailable,
				a.name, strings.Join(missing, ", "))
		}
	}
	if a.config.Lowercase {
		for _, key := range []string{"make", "model"} {
			if v, ok := values[key]; ok {
				values[key] = strings.ToLower(v)
			}
		}
	}

	locator, err := expand(a.config.Endpoint, values)
	if err != nil {
		return "", err
	}
	if a.token == "" {
		return locator, nil
	}

	u, err := url.Parse(locator)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	q := u.Query()
	q.Set(a.config.TokenParam, a.token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ApplyRefinements always fails: reaching it means the source was not
// configured with query_by_url, which is a setup error rather than a skip.
func (a *Adapter) ApplyRefinements(
	_ context.Context,
	_ driven.ExecutionContext,
	_ domain.SearchCriteria,
) (driven.Refinement, error) {
	return driven.Refinement{}, fmt.Errorf("%w (source %s)", ErrQueryByURLRequired, a.name)
}

// ExtractItems decodes the listings from the loaded response.
func (a *Adapter) ExtractItems(_ context.Context, ec driven.ExecutionContext) ([]domain.Listing, error) {
	session, ok := ec.(driven.HTTPContext)
	if !ok {
		return nil, ErrNotHTTPContext
	}

	items, err := decodeItems(session.Body(), a.config.ItemsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExtraction, err)
	}

	base, _ := url.Parse(session.Location())
	listings := make([]domain.Listing, 0, len(items))
	for _, item := range items {
		listing, ok := a.mapListing(item, base)
		if !ok {
			continue
		}
		listings = append(listings, listing)
	}
	return listings, nil
}
