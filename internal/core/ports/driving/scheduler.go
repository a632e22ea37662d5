package driving

import (
	"context"

	"github.com/custodia-labs/carsweep/internal/core/domain"
)

// Scheduler runs saved sweeps in the background.
type Scheduler interface {
	// Start begins running due sweeps.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops the loop and waits for running sweeps.
	Stop() error
}

// SweepService manages saved sweeps.
type SweepService interface {
	// Add validates and stores a new sweep.
	Add(ctx context.Context, sweep domain.Sweep) (*domain.Sweep, error)

	// List returns all sweeps.
	List(ctx context.Context) ([]domain.Sweep, error)

	// Remove deletes a sweep.
	Remove(ctx context.Context, sweepID string) error

	// RunNow executes a sweep immediately and records the result.
	RunNow(ctx context.Context, sweepID string) (*domain.SweepResult, error)

	// History returns recent results for a sweep.
	History(ctx context.Context, sweepID string, limit int) ([]domain.SweepResult, error)
}
