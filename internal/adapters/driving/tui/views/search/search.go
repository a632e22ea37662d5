// Package search provides the main search view for the TUI.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/carsweep/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/carsweep/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/carsweep/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/carsweep/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/carsweep/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/carsweep/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driving"
)

// statusPending marks a source whose outcome has not arrived yet.
const statusPending = "pending"

// sourceRow is one line of the per-source progress panel.
type sourceRow struct {
	Name    string
	Status  string
	Items   int
	Ordinal int
	Detail  string
}

// View represents the search view with input, per-source progress,
// listings and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	list      *list.ListingList
	statusbar *status.Bar
	spinner   spinner.Model

	searchService driving.SearchService
	ctx           context.Context
	cancel        context.CancelFunc

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool // true = input mode (typing), false = results mode (navigating)
	searching  bool

	runID   string
	rows    []sourceRow
	result  *domain.AggregateResult
	updates <-chan tea.Msg
}

// NewView creates a new search view.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	searchService driving.SearchService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = s.Subtitle

	return &View{
		styles:        s,
		keymap:        km,
		input:         input.NewQueryInput(s, validateQuery),
		list:          list.NewListingList(s),
		statusbar:     status.NewBar(s, km),
		spinner:       sp,
		searchService: searchService,
		ctx:           context.Background(),
		width:         80,
		height:        24,
		focusInput:    true,
	}
}

// WithContext sets the context for the view. Searches derive from it.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchStarted:
		return v, v.handleSearchStarted(msg)

	case messages.ProgressReceived:
		return v, v.handleProgress(msg)

	case messages.SearchCompleted:
		v.handleSearchCompleted(msg)
		return v, nil

	case spinner.TickMsg:
		if !v.searching {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case messages.ErrorOccurred:
		v.stopSearch()
		v.err = msg.Err
		v.statusbar.Fail(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	if v.focusInput {
		v.input, cmd = v.input.Update(msg)
	}
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if key.Matches(msg, v.keymap.Cancel, v.keymap.Back) {
		// Esc cancels a running search; the run still reports every source.
		if v.searching {
			v.cancel()
			v.statusbar.Note("cancelling")
			return v, nil
		}
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if key.Matches(msg, v.keymap.Submit) && v.focusInput && !v.searching {
		text := strings.TrimSpace(v.input.Value())
		if text == "" {
			return v, nil
		}
		req, err := ParseQuery(text)
		if err != nil {
			v.err = err
			v.statusbar.Fail(err)
			return v, nil
		}
		v.input.Remember(text)
		return v, v.startSearch(req)
	}

	if v.focusInput {
		v.input, _ = v.input.Update(msg)
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keymap.Up):
		v.list.MoveUp()
	case key.Matches(msg, v.keymap.Down):
		v.list.MoveDown()
	case key.Matches(msg, v.keymap.NewSearch):
		if v.searching {
			return v, nil
		}
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	}

	return v, nil
}

// startSearch switches to the running state and plans the run.
func (v *View) startSearch(req domain.RunRequest) tea.Cmd {
	runCtx, cancel := context.WithCancel(v.ctx)
	v.cancel = cancel
	v.searching = true
	v.focusInput = false
	v.input.Blur()
	v.err = nil
	v.result = nil
	v.runID = ""
	v.rows = nil
	v.list.SetListings(nil)
	v.statusbar.Begin(0)

	return tea.Batch(v.spinner.Tick, startRun(runCtx, v.searchService, req))
}

// startRun plans a run and executes it in the background. Outcomes are
// delivered on the Updates channel of the returned SearchStarted.
func startRun(ctx context.Context, svc driving.SearchService, req domain.RunRequest) tea.Cmd {
	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoSearchService}
		}

		plan, err := svc.Plan(ctx, req)
		if err != nil {
			return messages.SearchCompleted{Err: err}
		}

		// One slot per source plus the completion, so Execute never blocks on the UI.
		updates := make(chan tea.Msg, plan.TotalJobs()+1)
		go func() {
			defer close(updates)
			result, err := svc.Execute(ctx, plan, func(ev domain.ProgressEvent) {
				updates <- messages.ProgressReceived{Event: ev}
			})
			updates <- messages.SearchCompleted{Result: result, Err: err}
		}()

		return messages.SearchStarted{
			RunID:     plan.ID,
			TotalJobs: plan.TotalJobs(),
			Sources:   plan.SourceNames(),
			Updates:   updates,
		}
	}
}

// waitForUpdate reads the next message of a running search.
func waitForUpdate(updates <-chan tea.Msg) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-updates
		if !ok {
			return nil
		}
		return msg
	}
}

func (v *View) handleSearchStarted(msg messages.SearchStarted) tea.Cmd {
	v.runID = msg.RunID
	v.updates = msg.Updates
	v.rows = make([]sourceRow, len(msg.Sources))
	for i, name := range msg.Sources {
		v.rows[i] = sourceRow{Name: name, Status: statusPending}
	}
	v.statusbar.Begin(msg.TotalJobs)
	return waitForUpdate(v.updates)
}

func (v *View) handleProgress(msg messages.ProgressReceived) tea.Cmd {
	ev := msg.Event
	if ev.RunID != v.runID {
		return nil
	}

	detail := ev.Error
	if ev.Status == domain.OutcomeEmpty {
		detail = ev.SkipReason
	}
	v.setRow(sourceRow{
		Name:    ev.Source,
		Status:  string(ev.Status),
		Items:   len(ev.Items),
		Ordinal: ev.Completed,
		Detail:  detail,
	})
	v.list.Append(ev.Items...)
	v.statusbar.Advance(ev.Completed, ev.Status, len(ev.Items))
	return waitForUpdate(v.updates)
}

func (v *View) setRow(row sourceRow) {
	for i := range v.rows {
		if v.rows[i].Name == row.Name {
			v.rows[i] = row
			return
		}
	}
	v.rows = append(v.rows, row)
}

// handleSearchCompleted processes the final aggregate.
func (v *View) handleSearchCompleted(msg messages.SearchCompleted) {
	// Completions of abandoned runs are dropped.
	if !v.searching || (msg.Result != nil && msg.Result.RunID != v.runID) {
		return
	}
	v.stopSearch()

	if msg.Err != nil {
		v.err = msg.Err
		v.statusbar.Fail(msg.Err)
		return
	}

	v.err = nil
	v.showResult(msg.Result)
}

// ShowResult displays a finished aggregate, such as a stored run.
func (v *View) ShowResult(result *domain.AggregateResult) {
	v.stopSearch()
	v.err = nil
	v.input.SetValue(criteriaQuery(result.Criteria))
	v.showResult(result)
}

func (v *View) showResult(result *domain.AggregateResult) {
	if result == nil {
		return
	}
	v.result = result
	v.runID = result.RunID

	v.rows = v.rows[:0]
	for _, name := range result.CompletionOrder {
		st := result.PerSourceStatus[name]
		detail := st.Error
		if st.Status == domain.OutcomeEmpty {
			detail = st.SkipReason
		}
		v.rows = append(v.rows, sourceRow{
			Name:    name,
			Status:  string(st.Status),
			Items:   st.ItemCount,
			Ordinal: st.Ordinal,
			Detail:  detail,
		})
	}

	v.list.SetListings(result.Items)
	v.statusbar.Finish(result)

	v.focusInput = false
	v.input.Blur()
}

func (v *View) stopSearch() {
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.searching = false
	v.updates = nil
}

// criteriaQuery renders criteria back into the query syntax.
func criteriaQuery(c domain.SearchCriteria) string {
	parts := []string{strings.ToLower(c.Make)}
	if c.Model != "" {
		parts = append(parts, strings.ToLower(c.Model))
	}
	for _, r := range []struct {
		name string
		rng  domain.Range
	}{{"price", c.Price}, {"mileage", c.Mileage}, {"age", c.Age}} {
		if r.rng.Min != 0 {
			parts = append(parts, fmt.Sprintf("%s>%d", r.name, r.rng.Min))
		}
		if r.rng.Max != 0 {
			parts = append(parts, fmt.Sprintf("%s<%d", r.name, r.rng.Max))
		}
	}
	if c.Colour != "" {
		parts = append(parts, "colour="+c.Colour)
	}
	if c.Category != "" {
		parts = append(parts, "category="+c.Category)
	}
	return strings.Join(parts, " ")
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 12)

	sections = append(sections, v.styles.Title.Render("carsweep"), "")
	sections = append(sections, v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if len(v.rows) > 0 {
		sections = append(sections, v.renderRows(), "")
	}

	sections = append(sections, v.list.View())

	sections = append(sections, "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderRows renders the per-source progress panel.
func (v *View) renderRows() string {
	nameWidth := 0
	for i := range v.rows {
		nameWidth = max(nameWidth, len(v.rows[i].Name))
	}

	lines := make([]string, 0, len(v.rows))
	for i := range v.rows {
		row := &v.rows[i]
		style := v.styles.Outcome(row.Status)

		var marker, summary string
		switch row.Status {
		case string(domain.OutcomeSuccess):
			marker = "✓"
			summary = fmt.Sprintf("%d listings", row.Items)
		case string(domain.OutcomeEmpty):
			marker = "–"
			summary = "skipped: " + row.Detail
		case string(domain.OutcomeFailed):
			marker = "✗"
			summary = "failed: " + row.Detail
		default:
			marker = "·"
			if v.searching {
				marker = v.spinner.View()
			}
			summary = "waiting"
		}

		line := fmt.Sprintf("%s %-*s  %s", marker, nameWidth, row.Name, summary)
		lines = append(lines, style.Render(line))
	}
	return strings.Join(lines, "\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	// Reserve space for header, input, progress panel and status.
	v.list.SetDimensions(width, max(height-10-len(v.rows), 4))
	v.statusbar.SetWidth(width)
}

// Width returns the current width.
func (v *View) Width() int {
	return v.width
}

// Height returns the current height.
func (v *View) Height() int {
	return v.height
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Query returns the current query text.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the query text.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Listings returns the listings shown so far.
func (v *View) Listings() []domain.Listing {
	return v.list.Listings()
}

// SelectedIndex returns the index of the selected listing.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// SelectedListing returns the currently selected listing.
func (v *View) SelectedListing() *domain.Listing {
	return v.list.SelectedListing()
}

// Result returns the last completed aggregate, if any.
func (v *View) Result() *domain.AggregateResult {
	return v.result
}

// RunID returns the identifier of the current or last run.
func (v *View) RunID() string {
	return v.runID
}

// Searching reports whether a run is in progress.
func (v *View) Searching() bool {
	return v.searching
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// ClearError clears the current error.
func (v *View) ClearError() {
	v.err = nil
	v.statusbar.Fail(nil)
}

// Reset cancels any running search and returns to input mode.
func (v *View) Reset() {
	v.stopSearch()
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.list.SetListings(nil)
	v.rows = nil
	v.result = nil
	v.runID = ""
	v.err = nil
	v.statusbar.Reset()
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}
