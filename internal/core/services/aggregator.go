package services

import (
	"fmt"
	"time"

	"github.com/custodia-labs/carsweep/internal/core/domain"
)

// RunState accumulates job outcomes into an aggregate.
// It has a single writer: the batch coordinator calls Record from one
// goroutine, so no locking is needed.
type RunState struct {
	runID    string
	criteria domain.SearchCriteria
	planned  map[string]bool
	total    int

	items    []domain.Listing
	statuses map[string]domain.SourceStatus
	order    []string
	counts   domain.RunCounts
}

// NewRunState creates the accumulator for a plan.
func NewRunState(plan *domain.RunPlan) *RunState {
	planned := make(map[string]bool, len(plan.Jobs))
	for _, job := range plan.Jobs {
		planned[job.Source.Name] = true
	}
	return &RunState{
		runID:    plan.ID,
		criteria: plan.Criteria,
		planned:  planned,
		total:    len(plan.Jobs),
		items:    []domain.Listing{},
		statuses: make(map[string]domain.SourceStatus, len(plan.Jobs)),
		order:    make([]string, 0, len(plan.Jobs)),
	}
}

// Record folds one outcome into the state and returns its 1-based
// completion ordinal. Each planned source may be recorded exactly once.
func (s *RunState) Record(outcome domain.JobOutcome) (int, error) {
	if !s.planned[outcome.Source] {
		return 0, fmt.Errorf("%w: %q is not part of run %s", domain.ErrUnknownSource, outcome.Source, s.runID)
	}
	if _, seen := s.statuses[outcome.Source]; seen {
		return 0, fmt.Errorf("%w: outcome for %q already recorded", domain.ErrAlreadyExists, outcome.Source)
	}
	if !outcome.Status.IsValid() {
		return 0, fmt.Errorf("%w: outcome status %q", domain.ErrInvalidInput, outcome.Status)
	}

	s.order = append(s.order, outcome.Source)
	ordinal := len(s.order)

	status := domain.SourceStatus{
		Status:     outcome.Status,
		Ordinal:    ordinal,
		DurationMS: outcome.Duration.Milliseconds(),
	}

	switch outcome.Status {
	case domain.OutcomeSuccess:
		s.items = append(s.items, outcome.Items...)
		status.ItemCount = len(outcome.Items)
		s.counts.Success++
	case domain.OutcomeEmpty:
		status.SkipReason = outcome.SkipReason
		s.counts.Empty++
	case domain.OutcomeFailed:
		status.Error = outcome.ErrorMessage()
		status.Stage = domain.StageOf(outcome.Err)
		s.counts.Failed++
	}

	s.statuses[outcome.Source] = status
	return ordinal, nil
}

// Done reports whether every planned job has been recorded.
func (s *RunState) Done() bool {
	return len(s.order) == s.total
}

// Result finalises the aggregate.
// It fails if any planned source has no recorded outcome.
func (s *RunState) Result(startedAt, finishedAt time.Time) (*domain.AggregateResult, error) {
	if !s.Done() {
		return nil, fmt.Errorf("run %s incomplete: %d of %d outcomes recorded", s.runID, len(s.order), s.total)
	}

	statuses := make(map[string]domain.SourceStatus, len(s.statuses))
	for name, st := range s.statuses {
		statuses[name] = st
	}

	return &domain.AggregateResult{
		RunID:           s.runID,
		Criteria:        s.criteria,
		Items:           append([]domain.Listing{}, s.items...),
		PerSourceStatus: statuses,
		CompletionOrder: append([]string{}, s.order...),
		TotalJobs:       s.total,
		Counts:          s.counts,
		State:           s.counts.State(),
		StartedAt:       startedAt,
		FinishedAt:      finishedAt,
	}, nil
}
