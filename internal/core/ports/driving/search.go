package driving

import (
	"context"

	"github.com/custodia-labs/carsweep/internal/core/domain"
)

// ProgressFunc receives one event per completed job, in completion order.
// It is called from a single goroutine and never concurrently with itself.
type ProgressFunc func(event domain.ProgressEvent)

// SearchService runs searches across every configured source.
type SearchService interface {
	// Plan validates the request and snapshots the sources it will run.
	// Errors returned here abort the run before any job is scheduled.
	Plan(ctx context.Context, req domain.RunRequest) (*domain.RunPlan, error)

	// Execute runs a plan to completion. onProgress may be nil.
	// Source failures never surface as an error; they are reported per source.
	Execute(ctx context.Context, plan *domain.RunPlan, onProgress ProgressFunc) (*domain.AggregateResult, error)

	// Run plans and executes in one call.
	Run(ctx context.Context, req domain.RunRequest, onProgress ProgressFunc) (*domain.AggregateResult, error)

	// Sources returns the enabled sources a run would use.
	Sources(ctx context.Context) ([]domain.SourceDescriptor, error)
}
