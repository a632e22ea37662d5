package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/logger"
)

// CompletionFunc is called once per job, in completion order, from the
// dispatching goroutine. It is never called concurrently with itself.
type CompletionFunc func(job domain.Job, outcome domain.JobOutcome)

// BatchScheduler runs a plan's jobs with bounded concurrency.
type BatchScheduler struct {
	runner jobRunner
}

// NewBatchScheduler creates a scheduler over a job runner.
func NewBatchScheduler(runner jobRunner) *BatchScheduler {
	return &BatchScheduler{runner: runner}
}

// Dispatch runs every job in the plan and calls onDone for each outcome.
// It returns once every job has completed and onDone has returned for it.
//
// With the barrier strategy, jobs are split into consecutive groups of
// plan.Concurrency in submission order and a group starts only after the
// previous group has fully finished. With the pool strategy, up to
// plan.Concurrency workers pull jobs in submission order.
func (b *BatchScheduler) Dispatch(ctx context.Context, plan *domain.RunPlan, onDone CompletionFunc) error {
	limit := plan.Concurrency
	if limit < 1 {
		return fmt.Errorf("%w: concurrency must be positive, got %d", domain.ErrInvalidInput, limit)
	}
	if onDone == nil {
		onDone = func(domain.Job, domain.JobOutcome) {}
	}

	switch plan.Strategy {
	case domain.StrategyPool:
		b.dispatchPool(ctx, plan.ID, plan.Jobs, limit, onDone)
	case domain.StrategyBarrier, "":
		b.dispatchBarrier(ctx, plan.ID, plan.Jobs, limit, onDone)
	default:
		return fmt.Errorf("%w: unknown strategy %q", domain.ErrInvalidInput, plan.Strategy)
	}
	return nil
}

type completion struct {
	job     domain.Job
	outcome domain.JobOutcome
}

func (b *BatchScheduler) dispatchBarrier(ctx context.Context, runID string, jobs []domain.Job, limit int, onDone CompletionFunc) {
	for start := 0; start < len(jobs); start += limit {
		end := min(start+limit, len(jobs))
		group := jobs[start:end]
		logger.Debug("run %s: starting group %d (%d jobs)", runID, start/limit+1, len(group))

		done := make(chan completion, len(group))
		for _, job := range group {
			go func(job domain.Job) {
				done <- completion{job: job, outcome: b.safeRun(ctx, runID, job)}
			}(job)
		}

		// Drain the whole group before admitting the next one.
		for range group {
			c := <-done
			onDone(c.job, c.outcome)
		}
	}
}

func (b *BatchScheduler) dispatchPool(ctx context.Context, runID string, jobs []domain.Job, limit int, onDone CompletionFunc) {
	workers := min(limit, len(jobs))
	queue := make(chan domain.Job)
	done := make(chan completion)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				done <- completion{job: job, outcome: b.safeRun(ctx, runID, job)}
			}
		}()
	}

	go func() {
		for _, job := range jobs {
			queue <- job
		}
		close(queue)
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	for c := range done {
		onDone(c.job, c.outcome)
	}
}

// safeRun guarantees an outcome even if the runner itself panics.
func (b *BatchScheduler) safeRun(ctx context.Context, runID string, job domain.Job) (outcome domain.JobOutcome) {
	defer func() {
		if rec := recover(); rec != nil {
			outcome = domain.Failed(job.Source.Name, &domain.JobError{
				Source: job.Source.Name,
				Stage:  domain.StageSetup,
				Err:    fmt.Errorf("%w: %v", domain.ErrAdapterPanic, rec),
			})
		}
	}()
	outcome = b.runner.Run(ctx, runID, job)
	if outcome.Source == "" {
		outcome.Source = job.Source.Name
	}
	return outcome
}
