// Package status renders the one-line run status at the bottom of the
// search view.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/carsweep/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/carsweep/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/carsweep/internal/core/domain"
)

// gaugeCells is the width of the source progress gauge.
const gaugeCells = 10

// Bar shows where the current run is and which keys apply.
type Bar struct {
	styles *styles.Styles
	keys   *keymap.KeyMap
	width  int

	mode      keymap.Mode
	completed int
	total     int
	listings  int
	counts    domain.RunCounts
	note      string
	err       error
}

// NewBar creates a bar in query mode.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keys: km, width: 80, mode: keymap.ModeQuery}
}

// Begin switches to the searching state for a run of total jobs.
func (b *Bar) Begin(total int) {
	b.Reset()
	b.mode = keymap.ModeSearching
	b.total = total
}

// Advance records a source outcome as it arrives.
func (b *Bar) Advance(completed int, outcome domain.OutcomeStatus, items int) {
	b.completed = completed
	b.listings += items
	switch outcome {
	case domain.OutcomeSuccess:
		b.counts.Success++
	case domain.OutcomeEmpty:
		b.counts.Empty++
	case domain.OutcomeFailed:
		b.counts.Failed++
	}
}

// Finish shows the summary of a completed aggregate.
func (b *Bar) Finish(result *domain.AggregateResult) {
	b.mode = keymap.ModeResults
	b.err = nil
	b.note = ""
	b.total = result.TotalJobs
	b.completed = result.TotalJobs
	b.listings = result.ItemCount()
	b.counts = result.Counts
}

// Fail shows err until the next Begin or Reset.
func (b *Bar) Fail(err error) {
	b.err = err
	if b.mode == keymap.ModeSearching {
		b.mode = keymap.ModeQuery
	}
}

// Note shows a transient message, such as "cancelling".
func (b *Bar) Note(msg string) {
	b.note = msg
}

// Reset returns the bar to query mode.
func (b *Bar) Reset() {
	*b = Bar{styles: b.styles, keys: b.keys, width: b.width, mode: keymap.ModeQuery}
}

// Mode returns the current mode.
func (b *Bar) Mode() keymap.Mode { return b.mode }

// Err returns the error being shown, if any.
func (b *Bar) Err() error { return b.err }

// Message returns the transient message, if any.
func (b *Bar) Message() string { return b.note }

// Progress returns the completed and total job counts.
func (b *Bar) Progress() (completed, total int) { return b.completed, b.total }

// Listings returns the listing count shown.
func (b *Bar) Listings() int { return b.listings }

// SetWidth sets the rendered width.
func (b *Bar) SetWidth(width int) { b.width = width }

// View renders the bar.
func (b *Bar) View() string {
	left := b.summary()
	right := b.hints()

	gap := max(b.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (b *Bar) summary() string {
	if b.err != nil {
		return b.styles.Error.Render("Error: " + b.err.Error())
	}

	var parts []string
	switch b.mode {
	case keymap.ModeSearching:
		parts = append(parts, b.gauge(), fmt.Sprintf("%d/%d sources", b.completed, b.total))
	case keymap.ModeResults:
		parts = append(parts, b.styles.Normal.Render(fmt.Sprintf("%d listings", b.listings)))
	default:
		return b.styles.Muted.Render("Ready")
	}

	if b.counts.Failed > 0 {
		parts = append(parts, b.styles.Outcome(string(domain.OutcomeFailed)).
			Render(fmt.Sprintf("%d failed", b.counts.Failed)))
	}
	if b.counts.Empty > 0 {
		parts = append(parts, b.styles.Outcome(string(domain.OutcomeEmpty)).
			Render(fmt.Sprintf("%d skipped", b.counts.Empty)))
	}
	if b.note != "" {
		parts = append(parts, b.styles.Muted.Render(b.note))
	}
	return strings.Join(parts, "  ")
}

// gauge draws completed/total as a row of filled and empty cells.
func (b *Bar) gauge() string {
	filled := 0
	if b.total > 0 {
		filled = b.completed * gaugeCells / b.total
	}
	return b.styles.Outcome(string(domain.OutcomeSuccess)).Render(strings.Repeat("▰", filled)) +
		b.styles.Muted.Render(strings.Repeat("▱", gaugeCells-filled))
}

func (b *Bar) hints() string {
	bindings := b.keys.Hints(b.mode)
	hints := make([]string, 0, len(bindings))
	for _, k := range bindings {
		h := k.Help()
		hints = append(hints, h.Key+" "+h.Desc)
	}
	return b.styles.Help.Render(strings.Join(hints, " · "))
}
