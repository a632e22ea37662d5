package credentials

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
)

// Provider resolves the part of a reference after its scheme.
type Provider interface {
	Resolve(ctx context.Context, value string) (domain.Credentials, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, value string) (domain.Credentials, error)

// Resolve calls f.
func (f ProviderFunc) Resolve(ctx context.Context, value string) (domain.Credentials, error) {
	return f(ctx, value)
}

// Ensure Resolver implements the interface.
var _ driven.CredentialResolver = (*Resolver)(nil)

// Resolver dispatches "scheme:value" references to the provider for scheme.
type Resolver struct {
	providers map[string]Provider
}

// NewResolver creates a resolver with the env and file providers registered.
func NewResolver() *Resolver {
	r := &Resolver{providers: make(map[string]Provider)}
	r.Register("env", NewEnvProvider())
	r.Register("file", NewFileProvider())
	return r
}

// Register adds or replaces the provider for scheme.
func (r *Resolver) Register(scheme string, p Provider) {
	r.providers[scheme] = p
}

// Schemes returns the registered schemes, sorted.
func (r *Resolver) Schemes() []string {
	schemes := make([]string, 0, len(r.providers))
	for s := range r.providers {
		schemes = append(schemes, s)
	}
	sort.Strings(schemes)
	return schemes
}

// Resolve returns the credentials for ref. An empty ref needs no credentials.
func (r *Resolver) Resolve(ctx context.Context, ref string) (domain.Credentials, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.Credentials{}, nil
	}

	scheme, value, ok := strings.Cut(ref, ":")
	if !ok || value == "" {
		return domain.Credentials{}, fmt.Errorf("%w: malformed reference %q", domain.ErrCredentialUnavailable, ref)
	}

	p, ok := r.providers[scheme]
	if !ok {
		return domain.Credentials{}, fmt.Errorf("%w: unknown scheme %q", domain.ErrCredentialUnavailable, scheme)
	}

	creds, err := p.Resolve(ctx, value)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("%w: %s: %w", domain.ErrCredentialUnavailable, scheme, err)
	}
	return creds, nil
}

// parse splits resolved material into credentials.
// One line is a secret; two lines are a username then a secret.
func parse(raw string) (domain.Credentials, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.Credentials{}, errors.New("empty credential")
	}
	user, secret, found := strings.Cut(raw, "\n")
	if !found {
		return domain.Credentials{Secret: raw}, nil
	}
	return domain.Credentials{
		Username: strings.TrimSpace(user),
		Secret:   strings.TrimSpace(secret),
	}, nil
}
