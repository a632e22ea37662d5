package webpage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
)

// ErrNotScriptContext indicates the adapter was given a non-browser execution context.
var ErrNotScriptContext = errors.New("webpage: execution context is not scriptable")

// optionPoll is the interval between dropdown option checks.
const optionPoll = 200 * time.Millisecond

// Ensure Adapter implements the interfaces.
var (
	_ driven.SourceAdapter = (*Adapter)(nil)
	_ driven.Lander        = (*Adapter)(nil)
)

// Adapter refines a search form in a browser tab and reads its result cards.
type Adapter struct {
	name   string
	config *Config
}

// New creates a web page adapter.
func New(name string, cfg *Config) *Adapter {
	return &Adapter{name: name, config: cfg}
}

// Build creates an adapter from a source descriptor.
func Build(source domain.SourceDescriptor) (driven.SourceAdapter, error) {
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

// LandingPage returns the search page.
func (a *Adapter) LandingPage() string {
	return a.config.Landing
}

// Authenticate fills the sign-in form when the source has one.
func (a *Adapter) Authenticate(ctx context.Context, ec driven.ExecutionContext, creds domain.Credentials) error {
	if a.config.LoginURL == "" {
		return nil
	}
	if creds.IsEmpty() {
		return fmt.Errorf("%w: %s: no credentials configured", domain.ErrAuth, a.name)
	}
	tab, ok := ec.(driven.ScriptContext)
	if !ok {
		return ErrNotScriptContext
	}

	if err := tab.Navigate(ctx, a.config.LoginURL); err != nil {
		return fmt.Errorf("opening login page: %w", err)
	}
	if err := tab.WaitVisible(ctx, a.config.LoginUsername); err != nil {
		return fmt.Errorf("waiting for login form: %w", err)
	}
	if err := tab.SetValue(ctx, a.config.LoginUsername, creds.Username); err != nil {
		return fmt.Errorf("entering username: %w", err)
	}
	if err := tab.SetValue(ctx, a.config.LoginPassword, creds.Secret); err != nil {
		return fmt.Errorf("entering password: %w", err)
	}
	if err := tab.Click(ctx, a.config.LoginSubmit); err != nil {
		return fmt.Errorf("submitting login: %w", err)
	}
	if a.config.LoginSuccess == "" {
		return nil
	}
	if err := tab.WaitVisible(ctx, a.config.LoginSuccess); err != nil {
		return fmt.Errorf("%w: %s: sign-in not confirmed: %w", domain.ErrAuth, a.name, err)
	}
	return nil
}

// ApplyRefinements sets the form controls for the criteria and submits the form.
// A value missing from a dropdown skips the job.
func (a *Adapter) ApplyRefinements(
	ctx context.Context,
	ec driven.ExecutionContext,
	criteria domain.SearchCriteria,
) (driven.Refinement, error) {
	tab, ok := ec.(driven.ScriptContext)
	if !ok {
		return driven.Refinement{}, ErrNotScriptContext
	}
	values := criteria.Values()

	if reason := a.uncontrolled(values); reason != "" {
		return driven.SkipRefinement(reason), nil
	}

	for _, key := range a.config.selectKeys() {
		want, ok := values[key]
		if !ok {
			continue
		}
		sel := a.config.Selects[key]
		value, err := a.findOption(ctx, tab, sel, want)
		if err != nil {
			return driven.Refinement{}, err
		}
		if value == "" {
			return driven.SkipRefinement(fmt.Sprintf("%s %s not offered by %s", key, want, a.name)), nil
		}
		if err := a.setAndNotify(ctx, tab, sel, value); err != nil {
			return driven.Refinement{}, fmt.Errorf("setting %s: %w", key, err)
		}
	}

	for _, key := range sortedKeys(a.config.Inputs) {
		want, ok := values[key]
		if !ok {
			continue
		}
		if err := a.setAndNotify(ctx, tab, a.config.Inputs[key], want); err != nil {
			return driven.Refinement{}, fmt.Errorf("setting %s: %w", key, err)
		}
	}

	if a.config.Submit != "" {
		if err := tab.Click(ctx, a.config.Submit); err != nil {
			return driven.Refinement{}, fmt.Errorf("submitting search: %w", err)
		}
	}
	return driven.Refined(), nil
}

// ExtractItems waits for the results and reads every result card.
func (a *Adapter) ExtractItems(ctx context.Context, ec driven.ExecutionContext) ([]domain.Listing, error) {
	tab, ok := ec.(driven.ScriptContext)
	if !ok {
		return nil, ErrNotScriptContext
	}
	if err := tab.WaitVisible(ctx, a.config.Results); err != nil {
		return nil, fmt.Errorf("%w: waiting for results: %w", domain.ErrExtraction, err)
	}

	script, err := extractScript(extractSpec{Item: a.config.Item, Fields: a.config.Fields, Extra: a.config.Extra})
	if err != nil {
		return nil, err
	}
	var cards []extractedItem
	if err := tab.Evaluate(ctx, script, &cards); err != nil {
		return nil, fmt.Errorf("%w: reading results: %w", domain.ErrExtraction, err)
	}

	listings := make([]domain.Listing, 0, len(cards))
	for _, card := range cards {
		if card.Fields["url"] == "" {
			continue
		}
		listing := domain.Listing{
			URL:          card.Fields["url"],
			ImageURL:     card.Fields["image"],
			Title:        card.Fields["title"],
			Price:        card.Fields["price"],
			Location:     card.Fields["location"],
			Registration: card.Fields["registration"],
			Mileage:      card.Fields["mileage"],
			Year:         card.Fields["year"],
			SourceName:   a.name,
		}
		for k, v := range card.Extra {
			if v == "" {
				continue
			}
			if listing.Extra == nil {
				listing.Extra = make(map[string]string)
			}
			listing.Extra[k] = v
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

// uncontrolled explains why criteria cannot be applied, or returns "".
// A model always needs a control; other criteria only in strict mode.
func (a *Adapter) uncontrolled(values map[string]string) string {
	var missing []string
	for _, key := range sortedKeys(values) {
		if _, ok := a.config.Selects[key]; ok {
			continue
		}
		if _, ok := a.config.Inputs[key]; ok {
			continue
		}
		if key == "model" || a.config.Strict {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return ""
	}
	return fmt.Sprintf("%s cannot filter by %s", a.name, strings.Join(missing, ", "))
}

// findOption polls a dropdown until it offers want or OptionWait elapses.
// Returns "" when the value is never offered.
func (a *Adapter) findOption(ctx context.Context, tab driven.ScriptContext, sel, want string) (string, error) {
	deadline := time.Now().Add(a.config.OptionWait)
	for {
		var match optionMatch
		if err := tab.Evaluate(ctx, optionScript(sel, want), &match); err != nil {
			return "", fmt.Errorf("reading options of %s: %w", sel, err)
		}
		if match.Value != "" {
			return match.Value, nil
		}
		if !time.Now().Before(deadline) {
			if !match.Found {
				return "", fmt.Errorf("%w: %s: control %s not found", domain.ErrNavigation, a.name, sel)
			}
			return "", nil
		}

		timer := time.NewTimer(optionPoll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", context.Cause(ctx)
		case <-timer.C:
		}
	}
}

func (a *Adapter) setAndNotify(ctx context.Context, tab driven.ScriptContext, sel, value string) error {
	if err := tab.SetValue(ctx, sel, value); err != nil {
		return err
	}
	var fired bool
	return tab.Evaluate(ctx, changeScript(sel), &fired)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
