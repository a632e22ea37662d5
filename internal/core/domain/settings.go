package domain

import (
	"fmt"
	"time"
)

// Strategy selects how the batch scheduler admits jobs.
type Strategy string

// Available scheduling strategies.
const (
	// StrategyBarrier runs jobs in sequential groups of the concurrency limit.
	// A group must finish entirely before the next group starts.
	StrategyBarrier Strategy = "barrier"

	// StrategyPool runs a fixed number of workers pulling from a shared queue.
	StrategyPool Strategy = "pool"
)

// IsValid returns true if the strategy is recognised.
func (s Strategy) IsValid() bool {
	return s == StrategyBarrier || s == StrategyPool
}

// String returns the string representation.
func (s Strategy) String() string {
	return string(s)
}

// Default search settings.
const (
	DefaultConcurrency = 2
	DefaultJobTimeout  = 3 * time.Minute
	DefaultStrategy    = StrategyBarrier
)

// SearchConfig holds orchestration settings.
type SearchConfig struct {
	// Concurrency is the default number of simultaneous jobs.
	Concurrency int

	// JobTimeout is the wall-clock ceiling for one job. Zero disables it.
	JobTimeout time.Duration

	// Strategy selects barrier or pool scheduling.
	Strategy Strategy
}

// DefaultSearchConfig returns sensible defaults.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Concurrency: DefaultConcurrency,
		JobTimeout:  DefaultJobTimeout,
		Strategy:    DefaultStrategy,
	}
}

// WithDefaults fills unset fields from DefaultSearchConfig.
func (c SearchConfig) WithDefaults() SearchConfig {
	d := DefaultSearchConfig()
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.JobTimeout < 0 {
		c.JobTimeout = 0
	}
	if c.Strategy == "" {
		c.Strategy = d.Strategy
	}
	return c
}

// Validate checks the configuration.
func (c SearchConfig) Validate() error {
	if c.Concurrency <= 0 {
		return fmt.Errorf("%w: concurrency must be positive", ErrInvalidInput)
	}
	if !c.Strategy.IsValid() {
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidInput, c.Strategy)
	}
	return nil
}
