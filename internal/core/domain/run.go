package domain

import "time"

// RunRequest is what a caller asks the orchestrator to do.
type RunRequest struct {
	// Criteria is applied to every selected source.
	Criteria SearchCriteria `json:"criteria"`

	// Concurrency bounds simultaneous jobs. Zero uses the configured default.
	Concurrency int `json:"concurrency,omitempty"`

	// Sources restricts the run to the named sources. Empty selects every enabled source.
	Sources []string `json:"sources,omitempty"`
}

// RunPlan is a validated request ready for execution.
// Jobs are listed in submission order.
type RunPlan struct {
	ID          string
	Criteria    SearchCriteria
	Jobs        []Job
	Concurrency int
	Strategy    Strategy
	CreatedAt   time.Time
}

// TotalJobs returns the number of jobs in the plan.
func (p *RunPlan) TotalJobs() int {
	return len(p.Jobs)
}

// SourceNames returns the planned source names in submission order.
func (p *RunPlan) SourceNames() []string {
	names := make([]string, len(p.Jobs))
	for i := range p.Jobs {
		names[i] = p.Jobs[i].Source.Name
	}
	return names
}

// ProgressEvent is emitted once per completed job, in completion order.
type ProgressEvent struct {
	RunID      string        `json:"runId"`
	Source     string        `json:"source"`
	Status     OutcomeStatus `json:"status"`
	Items      []Listing     `json:"items"`
	Error      string        `json:"error,omitempty"`
	SkipReason string        `json:"skipReason,omitempty"`

	// TotalJobs is the number of jobs in the run.
	TotalJobs int `json:"totalJobs"`

	// Completed is the 1-based completion ordinal of this job.
	Completed int `json:"completed"`
}

// SourceStatus is the per-source line of an aggregate.
type SourceStatus struct {
	Status     OutcomeStatus `json:"status"`
	Error      string        `json:"error,omitempty"`
	Stage      JobStage      `json:"stage,omitempty"`
	SkipReason string        `json:"skipReason,omitempty"`
	ItemCount  int           `json:"itemCount"`
	Ordinal    int           `json:"ordinal"`
	DurationMS int64         `json:"durationMs"`
}

// RunState summarises how a run ended as a whole.
type RunState string

// Run states. A run always completes; the state only describes source outcomes.
const (
	// RunComplete means no source failed.
	RunComplete RunState = "complete"

	// RunPartial means at least one source failed and at least one did not.
	RunPartial RunState = "partial"

	// RunFailed means every source failed.
	RunFailed RunState = "failed"
)

// RunCounts tallies outcomes by variant.
type RunCounts struct {
	Success int `json:"success"`
	Empty   int `json:"empty"`
	Failed  int `json:"failed"`
}

// Total returns the number of counted outcomes.
func (c RunCounts) Total() int {
	return c.Success + c.Empty + c.Failed
}

// State derives the run state from the counts.
func (c RunCounts) State() RunState {
	switch {
	case c.Failed == 0:
		return RunComplete
	case c.Failed == c.Total():
		return RunFailed
	default:
		return RunPartial
	}
}

// AggregateResult is the final merged result of one run.
type AggregateResult struct {
	RunID    string         `json:"runId"`
	Criteria SearchCriteria `json:"criteria"`

	// Items concatenates successful sources' listings in completion order.
	Items []Listing `json:"items"`

	// PerSourceStatus has exactly one entry per planned source.
	PerSourceStatus map[string]SourceStatus `json:"perSourceStatus"`

	// CompletionOrder lists source names in the order they finished.
	CompletionOrder []string `json:"completionOrder"`

	TotalJobs  int       `json:"totalJobs"`
	Counts     RunCounts `json:"counts"`
	State      RunState  `json:"state"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// ItemCount returns the number of aggregated listings.
func (r *AggregateResult) ItemCount() int {
	return len(r.Items)
}

// RunSummary is a compact view of a stored run for listings.
type RunSummary struct {
	RunID      string
	Criteria   SearchCriteria
	TotalJobs  int
	ItemCount  int
	Counts     RunCounts
	State      RunState
	StartedAt  time.Time
	FinishedAt time.Time
}

// Summary returns the compact view of the aggregate.
func (r *AggregateResult) Summary() RunSummary {
	return RunSummary{
		RunID:      r.RunID,
		Criteria:   r.Criteria,
		TotalJobs:  r.TotalJobs,
		ItemCount:  len(r.Items),
		Counts:     r.Counts,
		State:      r.State,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}
