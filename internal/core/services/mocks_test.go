package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
	"github.com/custodia-labs/carsweep/internal/core/ports/driving"
)

// --- Execution contexts ---

// mockExecContext implements driven.ExecutionContext for testing.
type mockExecContext struct {
	id       string
	navErr   error
	mu       sync.Mutex
	visited  []string
	released bool
}

func (c *mockExecContext) ID() string               { return c.id }
func (c *mockExecContext) Kind() domain.ContextKind { return domain.ContextHTTP }

func (c *mockExecContext) Navigate(ctx context.Context, locator string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.navErr != nil {
		return c.navErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visited = append(c.visited, locator)
	return nil
}

func (c *mockExecContext) Location() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.visited) == 0 {
		return ""
	}
	return c.visited[len(c.visited)-1]
}

// mockContextPool implements driven.ContextPool for testing.
type mockContextPool struct {
	acquireErr error
	releaseErr error
	navErr     error

	seq      atomic.Int64
	acquired atomic.Int64
	released atomic.Int64

	mu       sync.Mutex
	contexts []*mockExecContext
}

func (p *mockContextPool) Acquire(ctx context.Context) (driven.ExecutionContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	ec := &mockExecContext{id: fmt.Sprintf("ctx-%d", p.seq.Add(1)), navErr: p.navErr}
	p.acquired.Add(1)
	p.mu.Lock()
	p.contexts = append(p.contexts, ec)
	p.mu.Unlock()
	return ec, nil
}

func (p *mockContextPool) Release(ec driven.ExecutionContext) error {
	p.released.Add(1)
	if mec, ok := ec.(*mockExecContext); ok {
		mec.mu.Lock()
		mec.released = true
		mec.mu.Unlock()
	}
	return p.releaseErr
}

func (p *mockContextPool) Close() error { return nil }

func mockPools(pool *mockContextPool) driven.ContextPools {
	return driven.ContextPools{domain.ContextHTTP: pool}
}

// --- Adapters ---

// mockAdapter implements driven.SourceAdapter with scripted behaviour.
type mockAdapter struct {
	name       string
	authErr    error
	refinement driven.Refinement
	refineErr  error
	items      []domain.Listing
	extractErr error
	delay      time.Duration
	panicIn    domain.JobStage
	landing    string

	refineCalls atomic.Int32
}

func (a *mockAdapter) Name() string { return a.name }

func (a *mockAdapter) Authenticate(ctx context.Context, _ driven.ExecutionContext, _ domain.Credentials) error {
	if a.panicIn == domain.StageAuth {
		panic("auth exploded")
	}
	return a.authErr
}

func (a *mockAdapter) ApplyRefinements(
	_ context.Context,
	_ driven.ExecutionContext,
	_ domain.SearchCriteria,
) (driven.Refinement, error) {
	a.refineCalls.Add(1)
	if a.panicIn == domain.StageRefine {
		panic("refine exploded")
	}
	return a.refinement, a.refineErr
}

func (a *mockAdapter) ExtractItems(ctx context.Context, _ driven.ExecutionContext) ([]domain.Listing, error) {
	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if a.panicIn == domain.StageExtract {
		panic("extract exploded")
	}
	if a.extractErr != nil {
		return nil, a.extractErr
	}
	out := make([]domain.Listing, len(a.items))
	copy(out, a.items)
	return out, nil
}

// stubbornAdapter ignores cancellation during extraction and records
// whether its execution context had been released when it finished.
type stubbornAdapter struct {
	*mockAdapter
	hold time.Duration

	finished         chan struct{}
	releasedAtFinish atomic.Bool
}

func (a *stubbornAdapter) ExtractItems(_ context.Context, ec driven.ExecutionContext) ([]domain.Listing, error) {
	defer close(a.finished)
	time.Sleep(a.hold)
	if mec, ok := ec.(*mockExecContext); ok {
		mec.mu.Lock()
		a.releasedAtFinish.Store(mec.released)
		mec.mu.Unlock()
	}
	return nil, nil
}

// mockLandingAdapter adds a landing page to mockAdapter.
type mockLandingAdapter struct {
	*mockAdapter
}

func (a mockLandingAdapter) LandingPage() string { return a.landing }

// mockQueryAdapter adds query building to mockAdapter.
type mockQueryAdapter struct {
	*mockAdapter
	query    string
	queryErr error
}

func (a mockQueryAdapter) BuildQuery(_ domain.SearchCriteria) (string, error) {
	return a.query, a.queryErr
}

// mockAdapterFactory hands out scripted adapters by source name.
type mockAdapterFactory struct {
	mu        sync.Mutex
	adapters  map[string]driven.SourceAdapter
	createErr error
	created   int
}

func newMockAdapterFactory() *mockAdapterFactory {
	return &mockAdapterFactory{adapters: make(map[string]driven.SourceAdapter)}
}

func (f *mockAdapterFactory) add(a driven.SourceAdapter) *mockAdapterFactory {
	f.adapters[a.Name()] = a
	return f
}

func (f *mockAdapterFactory) Create(source domain.SourceDescriptor) (driven.SourceAdapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	a, ok := f.adapters[source.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, source.Name)
	}
	f.created++
	return a, nil
}

func (f *mockAdapterFactory) Register(_ string, _ driven.AdapterBuilder) {}

func (f *mockAdapterFactory) SupportedTypes() []string { return []string{"mock"} }

// --- Catalogue and credentials ---

type mockCatalogue struct {
	sources []domain.SourceDescriptor
	err     error
}

func (c *mockCatalogue) List(_ context.Context) ([]domain.SourceDescriptor, error) {
	if c.err != nil {
		return nil, c.err
	}
	out := make([]domain.SourceDescriptor, len(c.sources))
	copy(out, c.sources)
	return out, nil
}

type mockCredentials struct {
	creds map[string]domain.Credentials
}

func (m *mockCredentials) Resolve(_ context.Context, ref string) (domain.Credentials, error) {
	c, ok := m.creds[ref]
	if !ok {
		return domain.Credentials{}, fmt.Errorf("%w: %s", domain.ErrCredentialUnavailable, ref)
	}
	return c, nil
}

// --- Runners ---

// scriptedRunner implements jobRunner without adapters, recording
// start and end events and the peak number of in-flight jobs.
type scriptedRunner struct {
	delay    time.Duration
	delays   map[string]time.Duration
	outcomes map[string]domain.JobOutcome
	panicOn  string

	mu       sync.Mutex
	events   []string
	inFlight int
	peak     int
}

func (r *scriptedRunner) Run(_ context.Context, _ string, job domain.Job) domain.JobOutcome {
	name := job.Source.Name
	r.mu.Lock()
	r.events = append(r.events, "start:"+name)
	r.inFlight++
	if r.inFlight > r.peak {
		r.peak = r.inFlight
	}
	r.mu.Unlock()

	d := r.delay
	if v, ok := r.delays[name]; ok {
		d = v
	}
	time.Sleep(d)

	r.mu.Lock()
	r.events = append(r.events, "end:"+name)
	r.inFlight--
	r.mu.Unlock()

	if name == r.panicOn {
		panic("runner exploded")
	}
	if out, ok := r.outcomes[name]; ok {
		return out
	}
	return domain.Succeeded(name, []domain.Listing{{URL: "https://example.test/" + name, SourceName: name}})
}

func (r *scriptedRunner) eventLog() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.events...)
}

// --- Stores ---

// mockRunStore implements driven.RunStore for testing.
type mockRunStore struct {
	mu      sync.Mutex
	runs    map[string]*domain.AggregateResult
	saveErr error
}

func newMockRunStore() *mockRunStore {
	return &mockRunStore{runs: make(map[string]*domain.AggregateResult)}
}

func (m *mockRunStore) SaveRun(_ context.Context, result *domain.AggregateResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.runs[result.RunID] = result
	return nil
}

func (m *mockRunStore) GetRun(_ context.Context, runID string) (*domain.AggregateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[runID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

func (m *mockRunStore) ListRuns(_ context.Context, limit int) ([]domain.RunSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.RunSummary, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockRunStore) DeleteRun(_ context.Context, runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[runID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.runs, runID)
	return nil
}

// mockSweepStore implements driven.SweepStore for testing.
type mockSweepStore struct {
	mu       sync.RWMutex
	sweeps   map[string]*domain.Sweep
	results  map[string][]domain.SweepResult
	listErr  error
	pruned   int
	pruneErr error
}

func newMockSweepStore() *mockSweepStore {
	return &mockSweepStore{
		sweeps:  make(map[string]*domain.Sweep),
		results: make(map[string][]domain.SweepResult),
	}
}

func (m *mockSweepStore) GetSweep(_ context.Context, sweepID string) (*domain.Sweep, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sweeps[sweepID]
	if !ok {
		return nil, nil
	}
	sweepCopy := *s
	return &sweepCopy, nil
}

func (m *mockSweepStore) ListSweeps(_ context.Context) ([]domain.Sweep, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.Sweep, 0, len(m.sweeps))
	for _, s := range m.sweeps {
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockSweepStore) SaveSweep(_ context.Context, sweep *domain.Sweep) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sweepCopy := *sweep
	m.sweeps[sweep.ID] = &sweepCopy
	return nil
}

func (m *mockSweepStore) DeleteSweep(_ context.Context, sweepID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sweeps, sweepID)
	delete(m.results, sweepID)
	return nil
}

func (m *mockSweepStore) RecordResult(_ context.Context, result *domain.SweepResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[result.SweepID] = append([]domain.SweepResult{*result}, m.results[result.SweepID]...)
	return nil
}

func (m *mockSweepStore) GetSweepHistory(_ context.Context, sweepID string, limit int) ([]domain.SweepResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	results := m.results[sweepID]
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (m *mockSweepStore) PruneHistory(_ context.Context, keep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruned = keep
	return m.pruneErr
}

func (m *mockSweepStore) resultCount(sweepID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.results[sweepID])
}

// mockSearchService implements driving.SearchService for scheduler tests.
type mockSearchService struct {
	mu    sync.Mutex
	calls int
	err   error
	items int
}

func (m *mockSearchService) Plan(_ context.Context, _ domain.RunRequest) (*domain.RunPlan, error) {
	return &domain.RunPlan{}, nil
}

func (m *mockSearchService) Execute(
	_ context.Context,
	_ *domain.RunPlan,
	_ driving.ProgressFunc,
) (*domain.AggregateResult, error) {
	return &domain.AggregateResult{}, nil
}

func (m *mockSearchService) Run(
	_ context.Context,
	_ domain.RunRequest,
	_ driving.ProgressFunc,
) (*domain.AggregateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	items := make([]domain.Listing, m.items)
	return &domain.AggregateResult{RunID: fmt.Sprintf("run-%d", m.calls), Items: items}, nil
}

func (m *mockSearchService) Sources(_ context.Context) ([]domain.SourceDescriptor, error) {
	return nil, nil
}

func (m *mockSearchService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Ensure mocks implement interfaces
var (
	_ driven.ContextPool        = (*mockContextPool)(nil)
	_ driven.AdapterFactory     = (*mockAdapterFactory)(nil)
	_ driven.QueryBuilder       = mockQueryAdapter{}
	_ driven.Lander             = mockLandingAdapter{}
	_ driven.SourceCatalogue    = (*mockCatalogue)(nil)
	_ driven.CredentialResolver = (*mockCredentials)(nil)
	_ driven.RunStore           = (*mockRunStore)(nil)
	_ driven.SweepStore         = (*mockSweepStore)(nil)
	_ driving.SearchService     = (*mockSearchService)(nil)
	_ jobRunner                 = (*scriptedRunner)(nil)
)

// --- Helpers ---

func source(name string) domain.SourceDescriptor {
	return domain.SourceDescriptor{Name: name, Type: "mock"}
}

func fordFocus() domain.SearchCriteria {
	return domain.SearchCriteria{Make: "FORD", Model: "FOCUS"}
}

func listings(src string, n int) []domain.Listing {
	out := make([]domain.Listing, n)
	for i := range out {
		out[i] = domain.Listing{
			URL:   fmt.Sprintf("https://%s.test/listing/%d", src, i),
			Title: fmt.Sprintf("Ford Focus %d", i),
			Price: fmt.Sprintf("£%d", 5000+i*100),
		}
	}
	return out
}

func planFor(jobs int, concurrency int, strategy domain.Strategy) *domain.RunPlan {
	plan := &domain.RunPlan{ID: "run-test", Concurrency: concurrency, Strategy: strategy, Criteria: fordFocus()}
	for i := 0; i < jobs; i++ {
		plan.Jobs = append(plan.Jobs, domain.Job{Index: i, Source: source(fmt.Sprintf("src%d", i)), Criteria: fordFocus()})
	}
	return plan
}
