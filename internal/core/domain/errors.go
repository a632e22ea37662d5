package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown adapter or pool type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Orchestration Errors.
	// These abort a run before any job is scheduled.

	// ErrInvalidCriteria indicates the search criteria were rejected.
	ErrInvalidCriteria = errors.New("invalid search criteria")

	// ErrUnknownSource indicates a run selected a source that is not configured.
	ErrUnknownSource = errors.New("unknown source")

	// ErrNoSources indicates the source catalogue is empty.
	ErrNoSources = errors.New("no sources configured")

	// Job Errors.
	// These never abort a run; the job runner converts them into a failed outcome.

	// ErrAuth indicates an adapter could not authenticate against its source.
	ErrAuth = errors.New("authentication failed")

	// ErrRefinementUnavailable indicates the criteria cannot be satisfied by a source.
	// It is not a failure: the job ends as an empty, skipped outcome.
	ErrRefinementUnavailable = errors.New("refinement unavailable")

	// ErrNavigation indicates the execution context could not load a locator.
	ErrNavigation = errors.New("navigation failed")

	// ErrExtraction indicates an adapter's extraction step failed.
	ErrExtraction = errors.New("extraction failed")

	// ErrContextAcquisition indicates the execution context pool could not provide a context.
	ErrContextAcquisition = errors.New("execution context unavailable")

	// ErrJobTimeout indicates a job exceeded its wall-clock ceiling.
	ErrJobTimeout = errors.New("job timed out")

	// ErrAdapterPanic indicates an adapter panicked while running a job.
	ErrAdapterPanic = errors.New("adapter panicked")

	// ErrPoolClosed indicates the execution context pool has been closed.
	ErrPoolClosed = errors.New("pool closed")

	// ErrCredentialUnavailable indicates a credential reference could not be resolved.
	ErrCredentialUnavailable = errors.New("credential unavailable")
)

// JobStage names the step of a job in which an error occurred.
type JobStage string

// Job stages in execution order.
const (
	StageSetup    JobStage = "setup"
	StageAcquire  JobStage = "acquire"
	StageAuth     JobStage = "auth"
	StageNavigate JobStage = "navigate"
	StageRefine   JobStage = "refine"
	StageExtract  JobStage = "extract"
)

// JobError records which source and stage produced a job failure.
type JobError struct {
	Source string
	Stage  JobStage
	Err    error
}

// Error implements the error interface.
func (e *JobError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *JobError) Unwrap() error {
	return e.Err
}

// NewJobError wraps err with source and stage context.
// The stage sentinel is attached when err does not already carry one,
// so callers can always match with errors.Is.
func NewJobError(source string, stage JobStage, err error) *JobError {
	if sentinel := stageSentinel(stage); sentinel != nil && !errors.Is(err, sentinel) &&
		!errors.Is(err, ErrJobTimeout) && !errors.Is(err, ErrAdapterPanic) {
		err = fmt.Errorf("%w: %w", sentinel, err)
	}
	return &JobError{Source: source, Stage: stage, Err: err}
}

func stageSentinel(stage JobStage) error {
	switch stage {
	case StageAcquire:
		return ErrContextAcquisition
	case StageAuth:
		return ErrAuth
	case StageNavigate:
		return ErrNavigation
	case StageExtract:
		return ErrExtraction
	default:
		return nil
	}
}

// StageOf returns the stage recorded on err, or an empty stage.
func StageOf(err error) JobStage {
	var je *JobError
	if errors.As(err, &je) {
		return je.Stage
	}
	return ""
}
