package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
)

type searchFixture struct {
	orch    *SearchOrchestrator
	pool    *mockContextPool
	factory *mockAdapterFactory
	store   *mockRunStore
}

func newSearchFixture(sources []domain.SourceDescriptor, adapters ...driven.SourceAdapter) *searchFixture {
	pool := &mockContextPool{}
	factory := newMockAdapterFactory()
	for _, a := range adapters {
		factory.add(a)
	}
	store := newMockRunStore()
	runner := NewJobRunner(factory, mockPools(pool), nil, time.Second)
	orch := NewSearchOrchestrator(&mockCatalogue{sources: sources}, runner, store, domain.SearchConfig{})

	seq := 0
	orch.newID = func() string {
		seq++
		return fmt.Sprintf("run-%d", seq)
	}
	return &searchFixture{orch: orch, pool: pool, factory: factory, store: store}
}

func sources(names ...string) []domain.SourceDescriptor {
	out := make([]domain.SourceDescriptor, len(names))
	for i, n := range names {
		out[i] = source(n)
	}
	return out
}

func TestSearchOrchestrator_FordFocusScenario(t *testing.T) {
	fx := newSearchFixture(
		sources("autotrader", "gumtree", "motors", "pistonheads", "ebay"),
		&mockAdapter{name: "autotrader", items: listings("autotrader", 3)},
		&mockAdapter{name: "gumtree", items: listings("gumtree", 2)},
		&mockAdapter{name: "motors", refinement: driven.SkipRefinement("model FOCUS not offered")},
		&mockAdapter{name: "pistonheads", refineErr: fmt.Errorf("%w: FOCUS", domain.ErrRefinementUnavailable)},
		&mockAdapter{name: "ebay", extractErr: errors.New("results grid not found")},
	)

	var events []domain.ProgressEvent
	result, err := fx.orch.Run(context.Background(),
		domain.RunRequest{Criteria: domain.SearchCriteria{Make: "ford", Model: "focus"}, Concurrency: 2},
		func(ev domain.ProgressEvent) { events = append(events, ev) })
	require.NoError(t, err)

	// Items are the union of the two successful sources.
	assert.Len(t, result.Items, 5)
	bySource := map[string]int{}
	for _, item := range result.Items {
		bySource[item.SourceName]++
	}
	assert.Equal(t, map[string]int{"autotrader": 3, "gumtree": 2}, bySource)

	// One status per source.
	require.Len(t, result.PerSourceStatus, 5)
	assert.Equal(t, domain.RunCounts{Success: 2, Empty: 2, Failed: 1}, result.Counts)
	assert.Equal(t, domain.OutcomeFailed, result.PerSourceStatus["ebay"].Status)
	assert.Contains(t, result.PerSourceStatus["ebay"].Error, "results grid not found")
	assert.Equal(t, domain.OutcomeEmpty, result.PerSourceStatus["motors"].Status)
	assert.Equal(t, domain.OutcomeEmpty, result.PerSourceStatus["pistonheads"].Status)

	// Five progress events, unique ordinals 1..5.
	require.Len(t, events, 5)
	ordinals := make([]int, len(events))
	for i, ev := range events {
		assert.Equal(t, 5, ev.TotalJobs)
		assert.Equal(t, result.RunID, ev.RunID)
		ordinals[i] = ev.Completed
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ordinals)

	assert.Equal(t, "FORD", result.Criteria.Make)
	assert.Equal(t, "FOCUS", result.Criteria.Model)
}

func TestSearchOrchestrator_FailureIsolation(t *testing.T) {
	fx := newSearchFixture(
		sources("a", "b", "c"),
		&mockAdapter{name: "a", items: listings("a", 1)},
		&mockAdapter{name: "b", authErr: errors.New("captcha")},
		&mockAdapter{name: "c", refinement: driven.SkipRefinement("no vans")},
	)

	result, err := fx.orch.Run(context.Background(), domain.RunRequest{Criteria: fordFocus()}, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeSuccess, result.PerSourceStatus["a"].Status)
	assert.Equal(t, domain.OutcomeEmpty, result.PerSourceStatus["c"].Status)
	failed := result.PerSourceStatus["b"]
	assert.Equal(t, domain.OutcomeFailed, failed.Status)
	assert.Equal(t, domain.StageAuth, failed.Stage)
	assert.Contains(t, failed.Error, "captcha")
	assert.Equal(t, domain.RunPartial, result.State)
	assert.EqualValues(t, 3, fx.pool.released.Load())
}

func TestSearchOrchestrator_Idempotent(t *testing.T) {
	fx := newSearchFixture(
		sources("a", "b", "c"),
		&mockAdapter{name: "a", items: listings("a", 2)},
		&mockAdapter{name: "b", items: listings("b", 1)},
		&mockAdapter{name: "c", refinement: driven.SkipRefinement("none")},
	)
	req := domain.RunRequest{Criteria: fordFocus(), Concurrency: 2}

	first, err := fx.orch.Run(context.Background(), req, nil)
	require.NoError(t, err)
	second, err := fx.orch.Run(context.Background(), req, nil)
	require.NoError(t, err)

	urls := func(r *domain.AggregateResult) []string {
		out := make([]string, len(r.Items))
		for i, item := range r.Items {
			out[i] = item.URL
		}
		sort.Strings(out)
		return out
	}
	statuses := func(r *domain.AggregateResult) map[string]domain.OutcomeStatus {
		out := map[string]domain.OutcomeStatus{}
		for name, st := range r.PerSourceStatus {
			out[name] = st.Status
		}
		return out
	}

	assert.Equal(t, urls(first), urls(second))
	assert.Equal(t, statuses(first), statuses(second))
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestSearchOrchestrator_ProgressSubscriberDoesNotChangeResult(t *testing.T) {
	build := func() *searchFixture {
		return newSearchFixture(
			sources("a", "b"),
			&mockAdapter{name: "a", items: listings("a", 2)},
			&mockAdapter{name: "b", extractErr: errors.New("boom")},
		)
	}

	silent, err := build().orch.Run(context.Background(), domain.RunRequest{Criteria: fordFocus()}, nil)
	require.NoError(t, err)
	noisy, err := build().orch.Run(context.Background(), domain.RunRequest{Criteria: fordFocus()},
		func(domain.ProgressEvent) { panic("subscriber crashed") })
	require.NoError(t, err)

	assert.Equal(t, silent.Counts, noisy.Counts)
	assert.Equal(t, silent.ItemCount(), noisy.ItemCount())
}

func TestSearchOrchestrator_PersistsRun(t *testing.T) {
	fx := newSearchFixture(sources("a"), &mockAdapter{name: "a", items: listings("a", 1)})

	result, err := fx.orch.Run(context.Background(), domain.RunRequest{Criteria: fordFocus()}, nil)
	require.NoError(t, err)

	stored, err := fx.store.GetRun(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, result.ItemCount(), stored.ItemCount())
}

func TestSearchOrchestrator_StoreFailureDoesNotFailRun(t *testing.T) {
	fx := newSearchFixture(sources("a"), &mockAdapter{name: "a", items: listings("a", 1)})
	fx.store.saveErr = errors.New("disk full")

	result, err := fx.orch.Run(context.Background(), domain.RunRequest{Criteria: fordFocus()}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ItemCount())
}

func TestSearchOrchestrator_PlanValidation(t *testing.T) {
	fx := newSearchFixture(sources("a", "b"))
	ctx := context.Background()

	_, err := fx.orch.Plan(ctx, domain.RunRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidCriteria)

	_, err = fx.orch.Plan(ctx, domain.RunRequest{Criteria: fordFocus(), Concurrency: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = fx.orch.Plan(ctx, domain.RunRequest{Criteria: fordFocus(), Sources: []string{"a", "zzz"}})
	assert.ErrorIs(t, err, domain.ErrUnknownSource)

	plan, err := fx.orch.Plan(ctx, domain.RunRequest{Criteria: fordFocus()})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConcurrency, plan.Concurrency)
	assert.Equal(t, domain.StrategyBarrier, plan.Strategy)
	assert.Equal(t, []string{"a", "b"}, plan.SourceNames())
	assert.Equal(t, 1, plan.Jobs[1].Index)
}

func TestSearchOrchestrator_PlanSelectsSourcesInCatalogueOrder(t *testing.T) {
	fx := newSearchFixture(sources("a", "b", "c"))

	plan, err := fx.orch.Plan(context.Background(),
		domain.RunRequest{Criteria: fordFocus(), Sources: []string{"c", "a"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, plan.SourceNames())
}

func TestSearchOrchestrator_DisabledSourcesExcluded(t *testing.T) {
	srcs := sources("a", "b")
	srcs[1].Disabled = true
	fx := newSearchFixture(srcs)

	plan, err := fx.orch.Plan(context.Background(), domain.RunRequest{Criteria: fordFocus()})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, plan.SourceNames())

	_, err = fx.orch.Plan(context.Background(), domain.RunRequest{Criteria: fordFocus(), Sources: []string{"b"}})
	assert.ErrorIs(t, err, domain.ErrUnknownSource)
}

func TestSearchOrchestrator_NoSources(t *testing.T) {
	fx := newSearchFixture(nil)

	_, err := fx.orch.Run(context.Background(), domain.RunRequest{Criteria: fordFocus()}, nil)
	assert.ErrorIs(t, err, domain.ErrNoSources)
}

func TestSearchOrchestrator_DuplicateSourceNames(t *testing.T) {
	fx := newSearchFixture(sources("a", "a"))

	_, err := fx.orch.Plan(context.Background(), domain.RunRequest{Criteria: fordFocus()})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchOrchestrator_CatalogueError(t *testing.T) {
	runner := NewJobRunner(newMockAdapterFactory(), mockPools(&mockContextPool{}), nil, time.Second)
	orch := NewSearchOrchestrator(&mockCatalogue{err: errors.New("bad toml")}, runner, nil, domain.SearchConfig{})

	_, err := orch.Run(context.Background(), domain.RunRequest{Criteria: fordFocus()}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad toml")
}

func TestSearchOrchestrator_EveryJobFailing(t *testing.T) {
	fx := newSearchFixture(
		sources("a", "b"),
		&mockAdapter{name: "a", authErr: errors.New("nope")},
		&mockAdapter{name: "b", extractErr: errors.New("nope")},
	)

	result, err := fx.orch.Run(context.Background(), domain.RunRequest{Criteria: fordFocus()}, nil)
	require.NoError(t, err, "source failures never fail the run")
	assert.Equal(t, domain.RunFailed, result.State)
	assert.Len(t, result.PerSourceStatus, 2)
}

func TestSearchOrchestrator_ExecuteNilPlan(t *testing.T) {
	fx := newSearchFixture(sources("a"))
	_, err := fx.orch.Execute(context.Background(), nil, nil)
	assert.ErrorIs(t, err, domain.ErrNoSources)
}

func TestSearchOrchestrator_Sources(t *testing.T) {
	srcs := sources("a", "b", "c")
	srcs[0].Disabled = true
	fx := newSearchFixture(srcs)

	got, err := fx.orch.Sources(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Name)
}

func TestSearchOrchestrator_CancelledRunStillReportsEverySource(t *testing.T) {
	fx := newSearchFixture(
		sources("a", "b", "c"),
		&mockAdapter{name: "a", delay: time.Second},
		&mockAdapter{name: "b", delay: time.Second},
		&mockAdapter{name: "c", delay: time.Second},
	)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	result, err := fx.orch.Run(ctx, domain.RunRequest{Criteria: fordFocus(), Concurrency: 2}, nil)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), time.Second)
	assert.Len(t, result.PerSourceStatus, 3)
	assert.Equal(t, 3, result.Counts.Failed)
}
