package driven

import (
	"context"

	"github.com/custodia-labs/carsweep/internal/core/domain"
)

// SourceCatalogue provides the configured source descriptors.
type SourceCatalogue interface {
	// List returns every configured source in catalogue order.
	// The returned slice is a snapshot the caller may keep for a whole run.
	List(ctx context.Context) ([]domain.SourceDescriptor, error)
}

// CredentialResolver turns a credential reference into secret material.
type CredentialResolver interface {
	// Resolve returns the credentials for ref.
	// An empty ref resolves to empty credentials.
	// Returns an error wrapping domain.ErrCredentialUnavailable on failure.
	Resolve(ctx context.Context, ref string) (domain.Credentials, error)
}
