package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
	"github.com/custodia-labs/carsweep/internal/core/ports/driving"
	"github.com/custodia-labs/carsweep/internal/logger"
)

// Ensure SearchOrchestrator implements the interface.
var _ driving.SearchService = (*SearchOrchestrator)(nil)

// SearchOrchestrator runs one search across every selected source and
// merges the outcomes into a single aggregate.
type SearchOrchestrator struct {
	catalogue driven.SourceCatalogue
	batch     *BatchScheduler
	runStore  driven.RunStore
	config    domain.SearchConfig

	newID func() string
	now   func() time.Time
}

// NewSearchOrchestrator creates a search orchestrator.
// runStore is optional; when nil, aggregates are not persisted.
func NewSearchOrchestrator(
	catalogue driven.SourceCatalogue,
	runner jobRunner,
	runStore driven.RunStore,
	config domain.SearchConfig,
) *SearchOrchestrator {
	return &SearchOrchestrator{
		catalogue: catalogue,
		batch:     NewBatchScheduler(runner),
		runStore:  runStore,
		config:    config.WithDefaults(),
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// Sources returns the enabled sources a run would use, in catalogue order.
func (o *SearchOrchestrator) Sources(ctx context.Context) ([]domain.SourceDescriptor, error) {
	if o.catalogue == nil {
		return nil, fmt.Errorf("list sources: %w", domain.ErrNoSources)
	}
	all, err := o.catalogue.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	enabled := make([]domain.SourceDescriptor, 0, len(all))
	for _, src := range all {
		if !src.Disabled {
			enabled = append(enabled, src)
		}
	}
	return enabled, nil
}

// Plan validates the request and snapshots the sources it will run.
func (o *SearchOrchestrator) Plan(ctx context.Context, req domain.RunRequest) (*domain.RunPlan, error) {
	// 1. Criteria
	criteria := req.Criteria.Normalise()
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	// 2. Concurrency
	concurrency := req.Concurrency
	if concurrency == 0 {
		concurrency = o.config.Concurrency
	}
	if concurrency < 1 {
		return nil, fmt.Errorf("%w: concurrency must be at least 1, got %d", domain.ErrInvalidInput, concurrency)
	}

	// 3. Source snapshot
	sources, err := o.Sources(ctx)
	if err != nil {
		return nil, err
	}
	selected, err := selectSources(sources, req.Sources)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, domain.ErrNoSources
	}

	// 4. One job per source, in submission order
	jobs := make([]domain.Job, len(selected))
	for i, src := range selected {
		jobs[i] = domain.Job{Index: i, Source: src, Criteria: criteria}
	}

	return &domain.RunPlan{
		ID:          o.newID(),
		Criteria:    criteria,
		Jobs:        jobs,
		Concurrency: concurrency,
		Strategy:    o.config.Strategy,
		CreatedAt:   o.now().UTC(),
	}, nil
}

// Execute runs a plan to completion.
// Source failures are reported per source and never returned as an error.
func (o *SearchOrchestrator) Execute(
	ctx context.Context,
	plan *domain.RunPlan,
	onProgress driving.ProgressFunc,
) (*domain.AggregateResult, error) {
	if plan == nil || len(plan.Jobs) == 0 {
		return nil, domain.ErrNoSources
	}

	logger.Section("Run " + plan.ID)
	logger.Info("searching %d sources for %s (concurrency %d, %s)",
		plan.TotalJobs(), plan.Criteria, plan.Concurrency, plan.Strategy)

	started := o.now().UTC()
	state := NewRunState(plan)
	emitter := NewProgressEmitter(plan.ID, plan.TotalJobs(), onProgress)

	var recordErr error
	err := o.batch.Dispatch(ctx, plan, func(job domain.Job, outcome domain.JobOutcome) {
		ordinal, err := state.Record(outcome)
		if err != nil {
			recordErr = errors.Join(recordErr, err)
			return
		}
		emitter.Emit(ordinal, outcome)
	})
	if err != nil {
		return nil, fmt.Errorf("dispatch run %s: %w", plan.ID, err)
	}
	if recordErr != nil {
		return nil, fmt.Errorf("record run %s: %w", plan.ID, recordErr)
	}

	result, err := state.Result(started, o.now().UTC())
	if err != nil {
		return nil, err
	}

	logger.Info("run %s %s: %d listings (%d success, %d empty, %d failed)",
		plan.ID, result.State, result.ItemCount(), result.Counts.Success, result.Counts.Empty, result.Counts.Failed)

	if o.runStore != nil {
		// Saved even when the caller has gone away.
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := o.runStore.SaveRun(saveCtx, result); err != nil {
			logger.Warn("save run %s: %v", plan.ID, err)
		}
	}

	return result, nil
}

// Run plans and executes in one call.
func (o *SearchOrchestrator) Run(
	ctx context.Context,
	req domain.RunRequest,
	onProgress driving.ProgressFunc,
) (*domain.AggregateResult, error) {
	plan, err := o.Plan(ctx, req)
	if err != nil {
		return nil, err
	}
	return o.Execute(ctx, plan, onProgress)
}

// selectSources keeps catalogue order and rejects unknown or duplicate names.
func selectSources(sources []domain.SourceDescriptor, names []string) ([]domain.SourceDescriptor, error) {
	seen := make(map[string]bool, len(sources))
	for _, src := range sources {
		if seen[src.Name] {
			return nil, fmt.Errorf("%w: duplicate source %q", domain.ErrInvalidInput, src.Name)
		}
		seen[src.Name] = true
	}
	if len(names) == 0 {
		return sources, nil
	}

	want := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !seen[name] {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSource, name)
		}
		want[name] = true
	}

	selected := make([]domain.SourceDescriptor, 0, len(want))
	for _, src := range sources {
		if want[src.Name] {
			selected = append(selected, src)
		}
	}
	return selected, nil
}
