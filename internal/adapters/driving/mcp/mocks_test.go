package mcp

import (
	"context"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	result   *domain.AggregateResult
	sources  []domain.SourceDescriptor
	err      error
	received domain.RunRequest
}

func (m *mockSearchService) Plan(_ context.Context, req domain.RunRequest) (*domain.RunPlan, error) {
	m.received = req
	if m.err != nil {
		return nil, m.err
	}
	return &domain.RunPlan{ID: "run-1", Criteria: req.Criteria}, nil
}

func (m *mockSearchService) Execute(
	_ context.Context,
	_ *domain.RunPlan,
	_ driving.ProgressFunc,
) (*domain.AggregateResult, error) {
	return m.result, m.err
}

func (m *mockSearchService) Run(
	ctx context.Context,
	req domain.RunRequest,
	onProgress driving.ProgressFunc,
) (*domain.AggregateResult, error) {
	plan, err := m.Plan(ctx, req)
	if err != nil {
		return nil, err
	}
	return m.Execute(ctx, plan, onProgress)
}

func (m *mockSearchService) Sources(_ context.Context) ([]domain.SourceDescriptor, error) {
	return m.sources, m.err
}

// mockHistoryService is a mock implementation of driving.RunHistoryService.
type mockHistoryService struct {
	runs   []domain.RunSummary
	result *domain.AggregateResult
	err    error
}

func (m *mockHistoryService) List(_ context.Context, _ int) ([]domain.RunSummary, error) {
	return m.runs, m.err
}

func (m *mockHistoryService) Get(_ context.Context, _ string) (*domain.AggregateResult, error) {
	return m.result, m.err
}

func (m *mockHistoryService) Delete(_ context.Context, _ string) error {
	return m.err
}

// mockAdapterRegistry is a mock implementation of driving.AdapterRegistry.
type mockAdapterRegistry struct {
	types []domain.AdapterType
}

func (m *mockAdapterRegistry) List() []domain.AdapterType {
	return m.types
}

func (m *mockAdapterRegistry) Get(id string) (*domain.AdapterType, error) {
	for i := range m.types {
		if m.types[i].ID == id {
			return &m.types[i], nil
		}
	}
	return nil, domain.ErrUnsupportedType
}

func (m *mockAdapterRegistry) ValidateSource(_ domain.SourceDescriptor) error {
	return nil
}
