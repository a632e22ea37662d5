// Package runs provides the stored run history view for the TUI.
package runs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/carsweep/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/carsweep/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driving"
)

// Limit is how many runs the view lists.
const Limit = 50

// ErrNoHistory is returned when run history is not configured.
var ErrNoHistory = errors.New("run history not available")

// View lists stored runs, newest first.
type View struct {
	styles  *styles.Styles
	history driving.RunHistoryService
	ctx     context.Context

	runs     []domain.RunSummary
	selected int
	width    int
	height   int
	ready    bool
	loading  bool
	err      error
}

// NewView creates a new runs view.
func NewView(s *styles.Styles, history driving.RunHistoryService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:  s,
		history: history,
		ctx:     context.Background(),
		width:   80,
		height:  24,
	}
}

// WithContext sets the context used for history calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the run list.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.loadRuns()
}

func (v *View) loadRuns() tea.Cmd {
	history, ctx := v.history, v.ctx
	return func() tea.Msg {
		if history == nil {
			return messages.RunsLoaded{Err: ErrNoHistory}
		}
		runs, err := history.List(ctx, Limit)
		return messages.RunsLoaded{Runs: runs, Err: err}
	}
}

func (v *View) deleteRun(runID string) tea.Cmd {
	history, ctx := v.history, v.ctx
	return func() tea.Msg {
		if history == nil {
			return messages.RunDeleted{RunID: runID, Err: ErrNoHistory}
		}
		return messages.RunDeleted{RunID: runID, Err: history.Delete(ctx, runID)}
	}
}

// Update handles messages for the runs view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.RunsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.runs = msg.Runs
		if v.selected >= len(v.runs) {
			v.selected = max(len(v.runs)-1, 0)
		}
		return v, nil

	case messages.RunDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.loading = true
		return v, v.loadRuns()
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(v.runs)-1 {
			v.selected++
		}
	case "enter":
		if run := v.SelectedRun(); run != nil {
			runID := run.RunID
			return v, func() tea.Msg {
				return messages.RunSelected{RunID: runID}
			}
		}
	case "d", "delete":
		if run := v.SelectedRun(); run != nil {
			return v, v.deleteRun(run.RunID)
		}
	case "r":
		v.loading = true
		return v, v.loadRuns()
	}
	return v, nil
}

// View renders the run list.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Runs"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading runs..."))
		b.WriteString("\n\n")
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	case len(v.runs) == 0:
		b.WriteString(v.styles.Muted.Render("No runs stored yet."))
		b.WriteString("\n\n")
	default:
		for i := range v.runs {
			b.WriteString(v.renderRun(i, &v.runs[i]))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(v.styles.Help.Render("[enter] open  [d] delete  [r] reload  [esc] back"))
	return b.String()
}

func (v *View) renderRun(index int, run *domain.RunSummary) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	query := strings.TrimSpace(run.Criteria.Make + " " + run.Criteria.Model)
	when := run.StartedAt.Local().Format("2006-01-02 15:04")
	counts := fmt.Sprintf("%d listings  %d/%d ok", run.ItemCount, run.Counts.Success+run.Counts.Empty, run.TotalJobs)

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%s  %-24s %-8s %s", indicator, when, query, run.State, counts))
	}
	return v.styles.Normal.Render(fmt.Sprintf("%s%s  %-24s ", indicator, when, query)) +
		v.stateStyle(run.State).Render(fmt.Sprintf("%-8s ", run.State)) +
		v.styles.Muted.Render(counts)
}

func (v *View) stateStyle(state domain.RunState) lipgloss.Style {
	switch state {
	case domain.RunComplete:
		return v.styles.Outcome(string(domain.OutcomeSuccess))
	case domain.RunPartial:
		return v.styles.Outcome(string(domain.OutcomeEmpty))
	default:
		return v.styles.Outcome(string(domain.OutcomeFailed))
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Runs returns the listed runs.
func (v *View) Runs() []domain.RunSummary {
	return v.runs
}

// SelectedRun returns the run under the cursor, or nil.
func (v *View) SelectedRun() *domain.RunSummary {
	if v.selected < 0 || v.selected >= len(v.runs) {
		return nil
	}
	return &v.runs[v.selected]
}

// SelectedIndex returns the cursor position.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
