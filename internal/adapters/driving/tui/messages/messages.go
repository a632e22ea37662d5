// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/carsweep/internal/core/domain"
)

// SearchRequested is a command to run a search.
type SearchRequested struct {
	Request domain.RunRequest
}

// SearchStarted is sent once a run is planned. Updates delivers one
// ProgressReceived per source followed by a single SearchCompleted, then closes.
type SearchStarted struct {
	RunID     string
	TotalJobs int
	Sources   []string
	Updates   <-chan tea.Msg
}

// ProgressReceived carries one source outcome as it completes.
type ProgressReceived struct {
	Event domain.ProgressEvent
}

// SearchCompleted carries the aggregate back to the model.
type SearchCompleted struct {
	Result *domain.AggregateResult
	Err    error
}

// ResultSelected is sent when a listing is selected.
type ResultSelected struct {
	Index int
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the search input, progress and results view.
	ViewSearch
	// ViewSources lists the enabled sources.
	ViewSources
	// ViewRuns lists stored runs.
	ViewRuns
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewSources:
		return "sources"
	case ViewRuns:
		return "runs"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// SourcesLoaded carries the enabled sources.
type SourcesLoaded struct {
	Sources []domain.SourceDescriptor
	Err     error
}

// RunsLoaded carries stored run summaries, most recent first.
type RunsLoaded struct {
	Runs []domain.RunSummary
	Err  error
}

// RunSelected asks for a stored run to be opened.
type RunSelected struct {
	RunID string
}

// RunLoaded carries a stored aggregate.
type RunLoaded struct {
	Result *domain.AggregateResult
	Err    error
}

// RunDeleted signals a stored run was removed.
type RunDeleted struct {
	RunID string
	Err   error
}
