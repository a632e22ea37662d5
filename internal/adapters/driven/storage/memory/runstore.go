package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

// RunStore is an in-memory implementation of driven.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]domain.AggregateResult
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]domain.AggregateResult),
	}
}

// SaveRun stores or replaces an aggregate.
func (s *RunStore) SaveRun(_ context.Context, result *domain.AggregateResult) error {
	if result == nil || result.RunID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[result.RunID] = cloneAggregate(*result)
	return nil
}

// GetRun retrieves an aggregate by run ID.
func (s *RunStore) GetRun(_ context.Context, runID string) (*domain.AggregateResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := cloneAggregate(run)
	return &clone, nil
}

// ListRuns returns summaries with the most recent run first.
func (s *RunStore) ListRuns(_ context.Context, limit int) ([]domain.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.RunSummary, 0, len(s.runs))
	for _, run := range s.runs {
		result = append(result, run.Summary())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// DeleteRun removes a run.
func (s *RunStore) DeleteRun(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[runID]; !ok {
		return domain.ErrNotFound
	}
	delete(s.runs, runID)
	return nil
}

func cloneAggregate(r domain.AggregateResult) domain.AggregateResult {
	r.Items = append([]domain.Listing{}, r.Items...)
	r.CompletionOrder = append([]string{}, r.CompletionOrder...)
	statuses := make(map[string]domain.SourceStatus, len(r.PerSourceStatus))
	for k, v := range r.PerSourceStatus {
		statuses[k] = v
	}
	r.PerSourceStatus = statuses
	return r
}
