package domain

import (
	"fmt"
	"strings"
	"time"
)

// Sweep is a saved search that the scheduler runs on an interval.
type Sweep struct {
	// ID is the unique identifier for the sweep.
	ID string

	// Name is a human-readable name for the sweep.
	Name string

	// Request is the run request executed on every tick.
	Request RunRequest

	// Interval defines how often the sweep should run.
	Interval time.Duration

	// LastRun is when the sweep last ran.
	LastRun time.Time

	// NextRun is when the sweep should run next.
	NextRun time.Time

	// LastError contains the last error message, if any.
	LastError string

	// LastSuccess is when the sweep last completed without an orchestration error.
	LastSuccess time.Time

	// Enabled indicates whether the sweep is active.
	Enabled bool
}

// IsDue reports whether the sweep should run at now.
func (s *Sweep) IsDue(now time.Time) bool {
	if !s.Enabled {
		return false
	}
	return s.NextRun.IsZero() || !s.NextRun.After(now)
}

// Validate checks the sweep is runnable.
func (s *Sweep) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: sweep id is required", ErrInvalidInput)
	}
	if s.Interval < time.Minute {
		return fmt.Errorf("%w: sweep interval must be at least a minute", ErrInvalidInput)
	}
	return s.Request.Criteria.Validate()
}

// SweepResult represents the outcome of one scheduled execution.
type SweepResult struct {
	// SweepID identifies which sweep was run.
	SweepID string

	// RunID links to the stored aggregate, when the run produced one.
	RunID string

	// StartedAt is when the sweep started.
	StartedAt time.Time

	// EndedAt is when the sweep completed.
	EndedAt time.Time

	// Success indicates whether the orchestration call returned an aggregate.
	Success bool

	// Error contains the error message if Success is false.
	Error string

	// ItemsFound is the number of listings in the aggregate.
	ItemsFound int
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	// Enabled is the master switch for the scheduler.
	Enabled bool

	// Tick is how often due sweeps are checked.
	Tick time.Duration

	// HistoryLimit is how many results are kept per sweep.
	HistoryLimit int
}

// DefaultSchedulerConfig returns sensible defaults for the scheduler.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:      true,
		Tick:         time.Minute,
		HistoryLimit: 100,
	}
}
