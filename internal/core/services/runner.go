package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
	"github.com/custodia-labs/carsweep/internal/logger"
)

// jobRunner runs one job to a terminal outcome.
type jobRunner interface {
	Run(ctx context.Context, runID string, job domain.Job) domain.JobOutcome
}

// Ensure JobRunner satisfies the scheduler's runner contract.
var _ jobRunner = (*JobRunner)(nil)

// releaseGrace bounds how long a timed-out or cancelled job waits for its
// adapter to return before the execution context is released.
const releaseGrace = 2 * time.Second

// JobRunner drives one adapter through authenticate, navigate or refine,
// and extract. It is the only place adapter results are interpreted, and it
// never lets an adapter error or panic escape.
type JobRunner struct {
	factory     driven.AdapterFactory
	pools       driven.ContextPools
	credentials driven.CredentialResolver
	processors  driven.ListingPipeline
	timeout     time.Duration
	grace       time.Duration
	now         func() time.Time
}

// NewJobRunner creates a job runner.
// A zero timeout disables the per-job wall-clock ceiling.
// credentials may be nil when no source needs authentication.
func NewJobRunner(
	factory driven.AdapterFactory,
	pools driven.ContextPools,
	credentials driven.CredentialResolver,
	timeout time.Duration,
) *JobRunner {
	return &JobRunner{
		factory:     factory,
		pools:       pools,
		credentials: credentials,
		timeout:     timeout,
		grace:       releaseGrace,
		now:         time.Now,
	}
}

// WithProcessors sets the pipeline applied to every successful extraction.
func (r *JobRunner) WithProcessors(p driven.ListingPipeline) *JobRunner {
	r.processors = p
	return r
}

// Run executes the job and always returns an outcome.
// The execution context is released on every path before Run returns.
func (r *JobRunner) Run(ctx context.Context, runID string, job domain.Job) (outcome domain.JobOutcome) {
	name := job.Source.Name
	log := logger.Job(runID, name)
	started := r.now()
	defer func() {
		outcome = outcome.WithDuration(r.now().Sub(started))
		log.Info("finished: %s in %s", outcome.Status, outcome.Duration.Round(time.Millisecond))
	}()

	jobCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeoutCause(ctx, r.timeout, domain.ErrJobTimeout)
		defer cancel()
	}

	// 1. Build a fresh adapter for this job
	if r.factory == nil {
		return domain.Failed(name, &domain.JobError{Source: name, Stage: domain.StageSetup,
			Err: errors.New("adapter factory not configured")})
	}
	adapter, err := r.factory.Create(job.Source)
	if err != nil {
		return domain.Failed(name, &domain.JobError{Source: name, Stage: domain.StageSetup,
			Err: fmt.Errorf("create adapter: %w", err)})
	}

	// 2. Resolve credentials (read-only, shared)
	creds, err := r.resolveCredentials(jobCtx, job.Source.Credential)
	if err != nil {
		return domain.Failed(name, &domain.JobError{Source: name, Stage: domain.StageSetup, Err: err})
	}

	// 3. Acquire an isolated execution context
	pool, err := r.pools.For(job.Source.ContextKind())
	if err != nil {
		return domain.Failed(name, domain.NewJobError(name, domain.StageAcquire, err))
	}
	ec, err := pool.Acquire(jobCtx)
	if err != nil {
		return domain.Failed(name, domain.NewJobError(name, domain.StageAcquire, r.timeoutAware(jobCtx, err)))
	}
	defer func() {
		if relErr := pool.Release(ec); relErr != nil {
			log.Warn("release context %s: %v", ec.ID(), relErr)
		}
	}()
	log.Debug("acquired %s context %s", ec.Kind(), ec.ID())

	// 4. Drive the adapter, bounded by the job context
	var stage atomic.Value
	stage.Store(domain.StageAuth)
	done := make(chan domain.JobOutcome, 1)
	go func() {
		done <- r.drive(jobCtx, log, adapter, ec, job, creds, &stage)
	}()

	select {
	case out := <-done:
		return out
	case <-jobCtx.Done():
		err := r.timeoutAware(jobCtx, context.Cause(jobCtx))
		st, _ := stage.Load().(domain.JobStage)
		// drive may still be using ec. Give it the grace period to see the
		// cancelled context; past that, ec is released under a running
		// adapter and that goroutine outlives the job.
		select {
		case <-done:
		case <-time.After(r.grace):
			log.Warn("adapter still running %s after %v; releasing context %s", st, r.grace, ec.ID())
		}
		return domain.Failed(name, &domain.JobError{Source: name, Stage: st, Err: err})
	}
}

// drive runs the adapter steps. Panics are converted into a failed outcome.
func (r *JobRunner) drive(
	ctx context.Context,
	log logger.Scope,
	adapter driven.SourceAdapter,
	ec driven.ExecutionContext,
	job domain.Job,
	creds domain.Credentials,
	stage *atomic.Value,
) (outcome domain.JobOutcome) {
	name := job.Source.Name

	enter := func(s domain.JobStage) { stage.Store(s) }
	fail := func(s domain.JobStage, err error) domain.JobOutcome {
		return domain.Failed(name, domain.NewJobError(name, s, r.timeoutAware(ctx, err)))
	}

	defer func() {
		if rec := recover(); rec != nil {
			st, _ := stage.Load().(domain.JobStage)
			outcome = domain.Failed(name, &domain.JobError{Source: name, Stage: st,
				Err: fmt.Errorf("%w: %v", domain.ErrAdapterPanic, rec)})
		}
	}()

	// Authenticate
	enter(domain.StageAuth)
	if err := adapter.Authenticate(ctx, ec, creds); err != nil {
		return fail(domain.StageAuth, err)
	}

	// Navigate by query locator, or refine through the UI
	builder, canBuild := adapter.(driven.QueryBuilder)
	if job.Source.Capabilities.QueryByURL && canBuild {
		enter(domain.StageRefine)
		locator, err := builder.BuildQuery(job.Criteria)
		if errors.Is(err, domain.ErrRefinementUnavailable) {
			return domain.Skipped(name, err.Error())
		}
		if err != nil {
			return fail(domain.StageRefine, err)
		}

		enter(domain.StageNavigate)
		log.Debug("navigating to %s", locator)
		if err := ec.Navigate(ctx, locator); err != nil {
			return fail(domain.StageNavigate, err)
		}
	} else {
		if lander, ok := adapter.(driven.Lander); ok && lander.LandingPage() != "" {
			enter(domain.StageNavigate)
			if err := ec.Navigate(ctx, lander.LandingPage()); err != nil {
				return fail(domain.StageNavigate, err)
			}
		}

		enter(domain.StageRefine)
		refinement, err := adapter.ApplyRefinements(ctx, ec, job.Criteria)
		if errors.Is(err, domain.ErrRefinementUnavailable) {
			return domain.Skipped(name, err.Error())
		}
		if err != nil {
			return fail(domain.StageRefine, err)
		}
		if refinement.Skipped {
			return domain.Skipped(name, refinement.Reason)
		}
	}

	// Extract
	enter(domain.StageExtract)
	items, err := adapter.ExtractItems(ctx, ec)
	if err != nil {
		return fail(domain.StageExtract, err)
	}

	now := r.now().UTC()
	for i := range items {
		if items[i].SourceName == "" {
			items[i].SourceName = name
		}
		if items[i].Timestamp.IsZero() {
			items[i].Timestamp = now
		}
	}

	if r.processors != nil {
		extracted := len(items)
		items, err = r.processors.Process(ctx, job.Source, items)
		if err != nil {
			return fail(domain.StageExtract, err)
		}
		if dropped := extracted - len(items); dropped > 0 {
			log.Debug("post-processing dropped %d of %d listings", dropped, extracted)
		}
	}
	return domain.Succeeded(name, items)
}

func (r *JobRunner) resolveCredentials(ctx context.Context, ref string) (domain.Credentials, error) {
	if ref == "" {
		return domain.Credentials{}, nil
	}
	if r.credentials == nil {
		return domain.Credentials{}, fmt.Errorf("%w: no resolver for %q", domain.ErrCredentialUnavailable, ref)
	}
	return r.credentials.Resolve(ctx, ref)
}

// timeoutAware marks err as a timeout when the job context hit its ceiling.
func (r *JobRunner) timeoutAware(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(context.Cause(ctx), domain.ErrJobTimeout) && !errors.Is(err, domain.ErrJobTimeout) {
		return fmt.Errorf("%w after %s: %w", domain.ErrJobTimeout, r.timeout, err)
	}
	if errors.Is(err, domain.ErrJobTimeout) {
		return fmt.Errorf("%w after %s", domain.ErrJobTimeout, r.timeout)
	}
	return err
}
