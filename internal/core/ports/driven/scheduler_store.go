package driven

import (
	"context"

	"github.com/custodia-labs/carsweep/internal/core/domain"
)

// SweepStore persists saved sweeps and their execution history.
type SweepStore interface {
	// GetSweep retrieves a sweep by ID.
	// Returns nil and no error if the sweep does not exist.
	GetSweep(ctx context.Context, sweepID string) (*domain.Sweep, error)

	// ListSweeps returns all sweeps.
	ListSweeps(ctx context.Context) ([]domain.Sweep, error)

	// SaveSweep persists a sweep's state.
	// Creates or updates the sweep based on ID.
	SaveSweep(ctx context.Context, sweep *domain.Sweep) error

	// DeleteSweep removes a sweep from storage.
	DeleteSweep(ctx context.Context, sweepID string) error

	// RecordResult logs a sweep execution result.
	RecordResult(ctx context.Context, result *domain.SweepResult) error

	// GetSweepHistory returns recent results for a sweep.
	// Results are ordered by start time descending (most recent first).
	GetSweepHistory(ctx context.Context, sweepID string, limit int) ([]domain.SweepResult, error)

	// PruneHistory removes old results beyond the retention limit.
	// Keeps the most recent 'keep' results per sweep.
	PruneHistory(ctx context.Context, keep int) error
}
