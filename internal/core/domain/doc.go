// Package domain holds the types every other layer agrees on: what a
// search asks for (SearchCriteria, RunRequest), where it is asked
// (SourceDescriptor, ContextKind), what one source answers (JobOutcome:
// Success, Empty or Failure) and what a whole run produces
// (AggregateResult with its per-source status lines and counts).
//
// It also defines the sentinel errors and JobError, which records the
// stage a source failed at.
//
// domain imports only the standard library.
package domain
