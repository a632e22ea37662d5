package services

import (
	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driving"
	"github.com/custodia-labs/carsweep/internal/logger"
)

// ProgressEmitter delivers one event per completed job to a subscriber.
// A nil subscriber turns every Emit into a no-op.
type ProgressEmitter struct {
	runID     string
	totalJobs int
	fn        driving.ProgressFunc
}

// NewProgressEmitter creates an emitter for a run.
func NewProgressEmitter(runID string, totalJobs int, fn driving.ProgressFunc) *ProgressEmitter {
	return &ProgressEmitter{runID: runID, totalJobs: totalJobs, fn: fn}
}

// Emit reports the outcome recorded with the given completion ordinal.
// Subscriber panics are logged and swallowed so that a faulty consumer
// cannot stop the run.
func (e *ProgressEmitter) Emit(ordinal int, outcome domain.JobOutcome) {
	if e == nil || e.fn == nil {
		return
	}

	event := domain.ProgressEvent{
		RunID:      e.runID,
		Source:     outcome.Source,
		Status:     outcome.Status,
		Items:      []domain.Listing{},
		Error:      outcome.ErrorMessage(),
		SkipReason: outcome.SkipReason,
		TotalJobs:  e.totalJobs,
		Completed:  ordinal,
	}
	if outcome.Status == domain.OutcomeSuccess {
		event.Items = append(event.Items, outcome.Items...)
	}

	defer func() {
		if rec := recover(); rec != nil {
			logger.Warn("progress subscriber panicked on %s: %v", outcome.Source, rec)
		}
	}()
	e.fn(event)
}
