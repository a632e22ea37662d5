package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
)

// Ensure SweepStore implements the interface.
var _ driven.SweepStore = (*SweepStore)(nil)

// SweepStore is an in-memory implementation of driven.SweepStore.
type SweepStore struct {
	mu      sync.RWMutex
	sweeps  map[string]domain.Sweep
	history map[string][]domain.SweepResult // newest last
}

// NewSweepStore creates a new in-memory sweep store.
func NewSweepStore() *SweepStore {
	return &SweepStore{
		sweeps:  make(map[string]domain.Sweep),
		history: make(map[string][]domain.SweepResult),
	}
}

// GetSweep retrieves a sweep by ID. Returns nil and no error if missing.
func (s *SweepStore) GetSweep(_ context.Context, sweepID string) (*domain.Sweep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sweep, ok := s.sweeps[sweepID]
	if !ok {
		return nil, nil
	}
	return &sweep, nil
}

// ListSweeps returns all sweeps ordered by name.
func (s *SweepStore) ListSweeps(_ context.Context) ([]domain.Sweep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Sweep, 0, len(s.sweeps))
	for _, sweep := range s.sweeps {
		result = append(result, sweep)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// SaveSweep creates or updates a sweep.
func (s *SweepStore) SaveSweep(_ context.Context, sweep *domain.Sweep) error {
	if sweep == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweeps[sweep.ID] = *sweep
	return nil
}

// DeleteSweep removes a sweep and its history.
func (s *SweepStore) DeleteSweep(_ context.Context, sweepID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sweeps, sweepID)
	delete(s.history, sweepID)
	return nil
}

// RecordResult appends a sweep execution result.
func (s *SweepStore) RecordResult(_ context.Context, result *domain.SweepResult) error {
	if result == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[result.SweepID] = append(s.history[result.SweepID], *result)
	return nil
}

// GetSweepHistory returns up to limit results, most recent first.
func (s *SweepStore) GetSweepHistory(_ context.Context, sweepID string, limit int) ([]domain.SweepResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.history[sweepID]
	result := make([]domain.SweepResult, 0, len(entries))
	for i := len(entries) - 1; i >= 0 && (limit <= 0 || len(result) < limit); i-- {
		result = append(result, entries[i])
	}
	return result, nil
}

// PruneHistory keeps the most recent keep results per sweep.
func (s *SweepStore) PruneHistory(_ context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, entries := range s.history {
		if len(entries) > keep {
			s.history[id] = append([]domain.SweepResult{}, entries[len(entries)-keep:]...)
		}
	}
	return nil
}
