package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
	"github.com/custodia-labs/carsweep/internal/core/ports/driving"
)

// Ensure RunHistory implements the interface.
var _ driving.RunHistoryService = (*RunHistory)(nil)

// RunHistory exposes stored aggregates.
type RunHistory struct {
	store driven.RunStore
}

// NewRunHistory creates a run history service.
func NewRunHistory(store driven.RunStore) *RunHistory {
	return &RunHistory{store: store}
}

// List returns the most recent runs first.
func (h *RunHistory) List(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	runs, err := h.store.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Get retrieves a stored aggregate.
func (h *RunHistory) Get(ctx context.Context, runID string) (*domain.AggregateResult, error) {
	if runID == "" {
		return nil, domain.ErrInvalidInput
	}
	return h.store.GetRun(ctx, runID)
}

// Delete removes a stored run.
func (h *RunHistory) Delete(ctx context.Context, runID string) error {
	if runID == "" {
		return domain.ErrInvalidInput
	}
	return h.store.DeleteRun(ctx, runID)
}
