package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/carsweep/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/carsweep/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/carsweep/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/carsweep/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/carsweep/internal/adapters/driving/tui/views/runs"
	"github.com/custodia-labs/carsweep/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/carsweep/internal/adapters/driving/tui/views/sources"
	"github.com/custodia-labs/carsweep/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation. Searches derive from it.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	// keys is shared by the views and the help page.
	keys *keymap.KeyMap

	// menuView is the main navigation menu.
	menuView *menu.View

	// searchView runs searches and shows live per-source progress.
	searchView *search.View

	// sourcesView lists the enabled sources.
	sourcesView *sources.View

	// runsView lists stored runs.
	runsView *runs.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keys:        km,
		menuView:    menu.NewView(s, km),
		searchView:  search.NewView(s, km, ports.Search),
		sourcesView: sources.NewView(s, ports.Search),
		runsView:    runs.NewView(s, ports.History),
		currentView: messages.ViewMenu,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	a.sourcesView.WithContext(ctx)
	a.runsView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
// It runs initial commands when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("carsweep - car listing search"),
	)
}

// Update implements tea.Model.
// It handles messages and updates the model state.
//
//nolint:gocyclo,funlen // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		// Global quit with ctrl+c
		if msg.String() == "ctrl+c" {
			a.searchView.Reset()
			return a, tea.Quit
		}
		return a.handleKeyMsg(msg)

	// A running search owns these regardless of the active view.
	case messages.SearchStarted, messages.ProgressReceived, messages.SearchCompleted, spinner.TickMsg:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = a.searchView.Err()
		return a, cmd

	case messages.ViewChanged:
		return a, a.switchView(msg.View)

	case messages.SourcesLoaded:
		a.sourcesView, cmd = a.sourcesView.Update(msg)
		return a, cmd

	case messages.RunsLoaded, messages.RunDeleted:
		a.runsView, cmd = a.runsView.Update(msg)
		return a, cmd

	case messages.RunSelected:
		return a, a.loadRun(msg.RunID)

	case messages.RunLoaded:
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		a.err = nil
		a.searchView.ShowResult(msg.Result)
		a.currentView = messages.ViewSearch
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		if a.currentView == messages.ViewSearch {
			a.searchView, cmd = a.searchView.Update(msg)
		}
		return a, cmd

	case messages.Quit:
		a.searchView.Reset()
		return a, tea.Quit
	}

	// Forward other messages to active view
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewSources:
		a.sourcesView, cmd = a.sourcesView.Update(msg)
	case messages.ViewRuns:
		a.runsView, cmd = a.runsView.Update(msg)
	case messages.ViewHelp:
		// Help view doesn't need to handle other messages
	}

	return a, cmd
}

// handleKeyMsg forwards keys to the active view. Esc leaves every view
// except search, which decides for itself.
func (a *App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)

	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = a.searchView.Err()

	case messages.ViewSources:
		if key.Matches(msg, a.keys.Back) {
			a.currentView = messages.ViewMenu
			return a, nil
		}
		a.sourcesView, cmd = a.sourcesView.Update(msg)

	case messages.ViewRuns:
		if key.Matches(msg, a.keys.Back) {
			a.currentView = messages.ViewMenu
			return a, nil
		}
		a.runsView, cmd = a.runsView.Update(msg)

	case messages.ViewHelp:
		if key.Matches(msg, a.keys.Back) {
			a.currentView = messages.ViewMenu
		}
	}

	return a, cmd
}

// switchView activates a view and runs its initial command.
func (a *App) switchView(view messages.ViewType) tea.Cmd {
	previous := a.currentView
	a.currentView = view

	switch view {
	case messages.ViewSearch:
		// Coming from the menu starts a fresh query.
		if previous == messages.ViewMenu && !a.searchView.Searching() {
			a.searchView.Reset()
		}
		return a.searchView.Init()
	case messages.ViewSources:
		return a.sourcesView.Init()
	case messages.ViewRuns:
		return a.runsView.Init()
	case messages.ViewMenu, messages.ViewHelp:
	}
	return nil
}

// loadRun returns a command that fetches a stored aggregate.
func (a *App) loadRun(runID string) tea.Cmd {
	history, ctx := a.ports.History, a.ctx
	return func() tea.Msg {
		if history == nil {
			return messages.RunLoaded{Err: runs.ErrNoHistory}
		}
		result, err := history.Get(ctx, runID)
		return messages.RunLoaded{Result: result, Err: err}
	}
}

// View implements tea.Model.
// It renders the current view as a string.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewSources:
		return a.sourcesView.View()
	case messages.ViewRuns:
		view := a.runsView.View()
		if a.err != nil {
			view += "\n\n" + a.styles.Error.Render("Error: "+a.err.Error())
		}
		return view
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

// viewHelp renders the key reference from the keymap.
func (a *App) viewHelp() string {
	lines := []string{
		a.styles.Title.Render("Help"),
		"",
		a.styles.Muted.Render("Query: ford focus price<8000 mileage<60000 colour=blue source=dealer"),
	}
	for _, section := range a.keys.Sections() {
		lines = append(lines, "", a.styles.Subtitle.Render(section.Title))
		for _, b := range section.Bindings {
			h := b.Help()
			lines = append(lines, fmt.Sprintf("  %-10s %s", h.Key, h.Desc))
		}
	}
	lines = append(lines, "", a.styles.Help.Render("[esc] back to menu"))
	return strings.Join(lines, "\n")
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// Query returns the current search query.
func (a *App) Query() string {
	return a.searchView.Query()
}

// Listings returns the listings currently shown.
func (a *App) Listings() []domain.Listing {
	return a.searchView.Listings()
}

// Result returns the aggregate currently shown, if any.
func (a *App) Result() *domain.AggregateResult {
	return a.searchView.Result()
}

// SelectedIndex returns the currently selected listing index.
func (a *App) SelectedIndex() int {
	return a.searchView.SelectedIndex()
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.sourcesView.SetDimensions(width, height)
	a.runsView.SetDimensions(width, height)
}
