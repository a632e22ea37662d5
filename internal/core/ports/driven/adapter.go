package driven

import (
	"context"

	"github.com/custodia-labs/carsweep/internal/core/domain"
)

// SourceAdapter drives one listing source through a single job.
// A new adapter is built for every job; implementations must not retain
// state between jobs. Every method runs against the job's own execution context.
type SourceAdapter interface {
	// Name returns the source name the adapter was built for.
	Name() string

	// Authenticate signs in to the source.
	// Sources without authentication return nil.
	Authenticate(ctx context.Context, ec ExecutionContext, creds domain.Credentials) error

	// ApplyRefinements narrows the current page to the criteria.
	// It is only called when the source is not queried by URL.
	// Criteria the source cannot satisfy are reported with SkipRefinement,
	// or by returning an error wrapping domain.ErrRefinementUnavailable.
	ApplyRefinements(ctx context.Context, ec ExecutionContext, criteria domain.SearchCriteria) (Refinement, error)

	// ExtractItems reads listings from the current page.
	ExtractItems(ctx context.Context, ec ExecutionContext) ([]domain.Listing, error)
}

// QueryBuilder is implemented by adapters that can express the criteria as
// a navigable locator. It is used when the source has QueryByURL set.
type QueryBuilder interface {
	// BuildQuery returns the locator for the criteria.
	// Returns an error wrapping domain.ErrRefinementUnavailable when the
	// criteria cannot be expressed, e.g. an unknown model.
	BuildQuery(criteria domain.SearchCriteria) (string, error)
}

// Lander is implemented by adapters that refine through a UI and need the
// execution context placed on a landing page first.
type Lander interface {
	// LandingPage returns the locator to open before refinement.
	LandingPage() string
}

// Refinement is the result of ApplyRefinements.
type Refinement struct {
	// Skipped means the criteria cannot be satisfied by this source.
	Skipped bool

	// Reason explains a skip.
	Reason string
}

// Refined reports that the refinements were applied.
func Refined() Refinement {
	return Refinement{}
}

// SkipRefinement reports that the source cannot satisfy the criteria.
func SkipRefinement(reason string) Refinement {
	return Refinement{Skipped: true, Reason: reason}
}

// AdapterBuilder creates a SourceAdapter from a descriptor.
type AdapterBuilder func(source domain.SourceDescriptor) (SourceAdapter, error)

// AdapterFactory creates adapters from source configuration.
// It maintains a registry of adapter types and their builders.
type AdapterFactory interface {
	// Create returns a fresh adapter for the given source.
	// Returns ErrUnsupportedType if the source type is unknown.
	Create(source domain.SourceDescriptor) (SourceAdapter, error)

	// Register adds an adapter builder for the given type.
	Register(adapterType string, builder AdapterBuilder)

	// SupportedTypes returns all registered adapter types.
	SupportedTypes() []string
}
