package cli

import (
	"context"
	"time"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driving"
)

// MockSearchService implements driving.SearchService for testing.
type MockSearchService struct {
	RunFunc     func(ctx context.Context, req domain.RunRequest, onProgress driving.ProgressFunc) (*domain.AggregateResult, error)
	SourcesFunc func(ctx context.Context) ([]domain.SourceDescriptor, error)

	LastRequest domain.RunRequest
}

func (m *MockSearchService) Plan(_ context.Context, req domain.RunRequest) (*domain.RunPlan, error) {
	return &domain.RunPlan{ID: "run-1", Criteria: req.Criteria}, nil
}

func (m *MockSearchService) Execute(
	ctx context.Context, _ *domain.RunPlan, onProgress driving.ProgressFunc,
) (*domain.AggregateResult, error) {
	return m.Run(ctx, domain.RunRequest{}, onProgress)
}

func (m *MockSearchService) Run(
	ctx context.Context, req domain.RunRequest, onProgress driving.ProgressFunc,
) (*domain.AggregateResult, error) {
	m.LastRequest = req
	if m.RunFunc != nil {
		return m.RunFunc(ctx, req, onProgress)
	}
	if onProgress != nil {
		onProgress(domain.ProgressEvent{
			RunID: "run-1", Source: "dealer", Status: domain.OutcomeSuccess,
			Items: testAggregate().Items, TotalJobs: 2, Completed: 1,
		})
		onProgress(domain.ProgressEvent{
			RunID: "run-1", Source: "auction", Status: domain.OutcomeFailed,
			Error: "navigation failed", TotalJobs: 2, Completed: 2,
		})
	}
	return testAggregate(), nil
}

func (m *MockSearchService) Sources(ctx context.Context) ([]domain.SourceDescriptor, error) {
	if m.SourcesFunc != nil {
		return m.SourcesFunc(ctx)
	}
	return []domain.SourceDescriptor{
		{Name: "dealer", Type: "jsonapi", Capabilities: domain.SourceCapabilities{QueryByURL: true}},
		{Name: "auction", Type: "webpage", Context: domain.ContextBrowser, Credential: "auction"},
	}, nil
}

// MockHistoryService implements driving.RunHistoryService for testing.
type MockHistoryService struct {
	ListFunc   func(ctx context.Context, limit int) ([]domain.RunSummary, error)
	GetFunc    func(ctx context.Context, runID string) (*domain.AggregateResult, error)
	DeleteFunc func(ctx context.Context, runID string) error
}

func (m *MockHistoryService) List(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit)
	}
	return []domain.RunSummary{testAggregate().Summary()}, nil
}

func (m *MockHistoryService) Get(ctx context.Context, runID string) (*domain.AggregateResult, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, runID)
	}
	if runID != "run-1" {
		return nil, domain.ErrNotFound
	}
	return testAggregate(), nil
}

func (m *MockHistoryService) Delete(ctx context.Context, runID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, runID)
	}
	return nil
}

// MockSweepService implements driving.SweepService for testing.
type MockSweepService struct {
	Sweeps  []domain.Sweep
	Results []domain.SweepResult
	RunErr  error
	Added   *domain.Sweep
	Removed string
}

func (m *MockSweepService) Add(_ context.Context, sweep domain.Sweep) (*domain.Sweep, error) {
	sweep.ID = "sweep-1"
	sweep.NextRun = time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC)
	m.Added = &sweep
	return &sweep, nil
}

func (m *MockSweepService) List(_ context.Context) ([]domain.Sweep, error) {
	return m.Sweeps, nil
}

func (m *MockSweepService) Remove(_ context.Context, sweepID string) error {
	if sweepID != "sweep-1" {
		return domain.ErrNotFound
	}
	m.Removed = sweepID
	return nil
}

func (m *MockSweepService) RunNow(_ context.Context, sweepID string) (*domain.SweepResult, error) {
	if m.RunErr != nil {
		return nil, m.RunErr
	}
	start := time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC)
	return &domain.SweepResult{
		SweepID:    sweepID,
		RunID:      "run-9",
		StartedAt:  start,
		EndedAt:    start.Add(1500 * time.Millisecond),
		Success:    true,
		ItemsFound: 3,
	}, nil
}

func (m *MockSweepService) History(_ context.Context, _ string, limit int) ([]domain.SweepResult, error) {
	if limit > 0 && len(m.Results) > limit {
		return m.Results[:limit], nil
	}
	return m.Results, nil
}

// MockAdapterRegistry implements driving.AdapterRegistry for testing.
type MockAdapterRegistry struct {
	Invalid map[string]error
}

func (m *MockAdapterRegistry) List() []domain.AdapterType {
	return []domain.AdapterType{{
		ID:          "jsonapi",
		Name:        "JSON API",
		Description: "Builds a query URL and reads listings from JSON",
		Context:     domain.ContextHTTP,
		Options: []domain.OptionKey{
			{Key: "endpoint", Description: "search endpoint URL", Required: true},
			{Key: "page_size", Description: "listings per page", Default: "50"},
		},
	}}
}

func (m *MockAdapterRegistry) Get(id string) (*domain.AdapterType, error) {
	for _, t := range m.List() {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, domain.ErrUnsupportedType
}

func (m *MockAdapterRegistry) ValidateSource(source domain.SourceDescriptor) error {
	return m.Invalid[source.Name]
}

// MockScheduler implements driving.Scheduler for testing.
type MockScheduler struct {
	started chan struct{}
	stopped bool
}

func (m *MockScheduler) Start(ctx context.Context) error {
	close(m.started)
	<-ctx.Done()
	return nil
}

func (m *MockScheduler) Stop() error {
	m.stopped = true
	return nil
}

// MockWatcher implements CatalogueWatcher for testing.
type MockWatcher struct {
	watching chan struct{}
}

func (m *MockWatcher) Watch(ctx context.Context, _ func(error)) error {
	close(m.watching)
	<-ctx.Done()
	return nil
}

func testAggregate() *domain.AggregateResult {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &domain.AggregateResult{
		RunID:    "run-1",
		Criteria: domain.SearchCriteria{Make: "FORD", Model: "FOCUS", Price: domain.Range{Max: 8000}},
		Items: []domain.Listing{
			{URL: "https://dealer.test/1", Title: "Ford Focus 1.6 Zetec", Price: "£4,995", Year: "2014", SourceName: "dealer"},
			{URL: "https://dealer.test/2", Title: "Ford Focus ST", Price: "£7,250", Year: "2016", SourceName: "dealer"},
		},
		PerSourceStatus: map[string]domain.SourceStatus{
			"dealer":  {Status: domain.OutcomeSuccess, ItemCount: 2, Ordinal: 1, DurationMS: 1200},
			"auction": {Status: domain.OutcomeFailed, Error: "navigation failed", Stage: domain.StageNavigate, Ordinal: 2},
		},
		CompletionOrder: []string{"dealer", "auction"},
		TotalJobs:       2,
		Counts:          domain.RunCounts{Success: 1, Failed: 1},
		State:           domain.RunPartial,
		StartedAt:       started,
		FinishedAt:      started.Add(2 * time.Second),
	}
}

// setupTestServices installs mock services and returns a cleanup that
// restores the previous ones and resets flag state.
func setupTestServices() func() {
	prev := Services{
		Search:          searchService,
		History:         historyService,
		Sweeps:          sweepService,
		Scheduler:       scheduler,
		Adapters:        adapterRegistry,
		Catalogue:       catalogueWatcher,
		Config:          configStore,
		SchedulerConfig: schedulerConfig,
		ServerAddr:      serverAddr,
	}

	SetServices(&Services{
		Search:   &MockSearchService{},
		History:  &MockHistoryService{},
		Sweeps:   &MockSweepService{},
		Adapters: &MockAdapterRegistry{},
	})

	return func() {
		SetServices(&prev)
		resetFlags()
	}
}

func resetFlags() {
	searchPriceMin, searchPriceMax = 0, 0
	searchMileageMin, searchMileageMax = 0, 0
	searchAgeMin, searchAgeMax = 0, 0
	searchColour, searchCategory = "", ""
	searchSources = nil
	searchConcurrency, searchLimit = 0, 0
	searchJSON = false
	runsLimit, runsJSON = 20, false
	sourcesJSON = false
	sweepEvery = 24 * time.Hour
	sweepHistoryLimit = 10
	mcpAddr = ""
	configList = false
	versionJSON = false
}
