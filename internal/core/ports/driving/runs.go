package driving

import (
	"context"

	"github.com/custodia-labs/carsweep/internal/core/domain"
)

// RunHistoryService exposes stored runs.
type RunHistoryService interface {
	// List returns the most recent runs first.
	List(ctx context.Context, limit int) ([]domain.RunSummary, error)

	// Get retrieves a stored aggregate.
	Get(ctx context.Context, runID string) (*domain.AggregateResult, error)

	// Delete removes a stored run.
	Delete(ctx context.Context, runID string) error
}
