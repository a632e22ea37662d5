package driven

import (
	"context"

	"github.com/custodia-labs/carsweep/internal/core/domain"
)

// RunStore persists aggregates for later inspection.
type RunStore interface {
	// SaveRun stores a completed aggregate.
	SaveRun(ctx context.Context, result *domain.AggregateResult) error

	// GetRun retrieves an aggregate by run ID.
	// Returns domain.ErrNotFound if the run does not exist.
	GetRun(ctx context.Context, runID string) (*domain.AggregateResult, error)

	// ListRuns returns the most recent runs first.
	ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error)

	// DeleteRun removes a run and its listings.
	DeleteRun(ctx context.Context, runID string) error
}
