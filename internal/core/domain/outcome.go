package domain

import "time"

// OutcomeStatus is the variant tag of a JobOutcome.
type OutcomeStatus string

// Outcome variants.
const (
	// OutcomeSuccess means the adapter returned listings (possibly none).
	OutcomeSuccess OutcomeStatus = "success"

	// OutcomeEmpty means the source could not satisfy the criteria and was skipped.
	OutcomeEmpty OutcomeStatus = "empty"

	// OutcomeFailed means the job ended with an error.
	OutcomeFailed OutcomeStatus = "failed"
)

// IsValid returns true if the status is one of the three variants.
func (s OutcomeStatus) IsValid() bool {
	switch s {
	case OutcomeSuccess, OutcomeEmpty, OutcomeFailed:
		return true
	default:
		return false
	}
}

// Job is one (source, criteria) execution unit.
type Job struct {
	// Index is the submission position, 0-based.
	Index    int
	Source   SourceDescriptor
	Criteria SearchCriteria
}

// JobOutcome is the terminal result of one job.
// Exactly one of Items, SkipReason or Err is meaningful, selected by Status.
// Construct with Succeeded, Skipped or Failed; outcomes are never mutated afterwards.
type JobOutcome struct {
	Source     string
	Status     OutcomeStatus
	Items      []Listing
	SkipReason string
	Err        error
	Duration   time.Duration
}

// Succeeded returns a success outcome carrying items.
func Succeeded(source string, items []Listing) JobOutcome {
	if items == nil {
		items = []Listing{}
	}
	return JobOutcome{Source: source, Status: OutcomeSuccess, Items: items}
}

// Skipped returns an empty outcome for criteria the source cannot satisfy.
func Skipped(source, reason string) JobOutcome {
	return JobOutcome{Source: source, Status: OutcomeEmpty, SkipReason: reason}
}

// Failed returns a failure outcome carrying err.
func Failed(source string, err error) JobOutcome {
	return JobOutcome{Source: source, Status: OutcomeFailed, Err: err}
}

// WithDuration returns a copy of the outcome with its duration set.
func (o JobOutcome) WithDuration(d time.Duration) JobOutcome {
	o.Duration = d
	return o
}

// ErrorMessage returns the failure message, or empty for non-failures.
func (o JobOutcome) ErrorMessage() string {
	if o.Status != OutcomeFailed || o.Err == nil {
		return ""
	}
	return o.Err.Error()
}
