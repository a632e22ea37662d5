package driven

import (
	"context"

	"github.com/custodia-labs/carsweep/internal/core/domain"
)

// ListingProcessor cleans or filters the listings one source returned.
// It runs after extraction, before the outcome is reported.
type ListingProcessor interface {
	// Name returns the processor identifier used in configuration.
	Name() string

	// Process returns the processed listings. It may drop items but must
	// not reorder the ones it keeps.
	Process(ctx context.Context, source domain.SourceDescriptor, items []domain.Listing) ([]domain.Listing, error)
}

// ListingPipeline runs a chain of processors over one job's listings.
type ListingPipeline interface {
	Process(ctx context.Context, source domain.SourceDescriptor, items []domain.Listing) ([]domain.Listing, error)
}
