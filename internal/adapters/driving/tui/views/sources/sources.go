// Package sources provides the sources view component for the TUI.
package sources

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/carsweep/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/carsweep/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driving"
)

// ErrNoSearchService is returned when the view has no service to list from.
var ErrNoSearchService = errors.New("search service not available")

// View lists the sources a search would query.
type View struct {
	styles        *styles.Styles
	searchService driving.SearchService
	ctx           context.Context

	sources  []domain.SourceDescriptor
	selected int
	expanded bool
	width    int
	height   int
	ready    bool
	err      error
	loading  bool
}

// NewView creates a new sources view.
func NewView(s *styles.Styles, searchService driving.SearchService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:        s,
		searchService: searchService,
		ctx:           context.Background(),
		width:         80,
		height:        24,
	}
}

// WithContext sets the context used for loading.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view and loads sources.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.loadSources()
}

// loadSources returns a command that loads sources from the service.
func (v *View) loadSources() tea.Cmd {
	svc, ctx := v.searchService, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.SourcesLoaded{Err: ErrNoSearchService}
		}
		sources, err := svc.Sources(ctx)
		return messages.SourcesLoaded{Sources: sources, Err: err}
	}
}

// Update handles messages for the sources view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SourcesLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.sources = msg.Sources
		v.err = nil
		if v.selected >= len(v.sources) {
			v.selected = max(len(v.sources)-1, 0)
		}
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(v.sources)-1 {
			v.selected++
		}
	case "enter":
		if len(v.sources) > 0 {
			v.expanded = !v.expanded
		}
	case "r":
		v.loading = true
		return v, v.loadSources()
	}

	return v, nil
}

// View renders the sources view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Sources"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading sources..."))
		b.WriteString("\n\n")
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	case len(v.sources) == 0:
		b.WriteString(v.styles.Muted.Render("No sources enabled. Add [[source]] tables to sources.toml."))
		b.WriteString("\n\n")
	default:
		for i := range v.sources {
			b.WriteString(v.renderSource(i, &v.sources[i]))
			b.WriteString("\n")
			if i == v.selected && v.expanded {
				b.WriteString(v.renderDetail(&v.sources[i]))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(v.styles.Help.Render("[enter] details  [r] reload  [esc] back  [q] quit"))
	return b.String()
}

// renderSource renders a single source line.
func (v *View) renderSource(index int, source *domain.SourceDescriptor) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	typeStr := fmt.Sprintf("[%s]", source.Type)
	mode := "ui"
	if source.Capabilities.QueryByURL {
		mode = "url"
	}
	name := source.Name
	maxNameLen := max(v.width-len(typeStr)-24, 10)
	if len(name) > maxNameLen {
		name = name[:maxNameLen-3] + "..."
	}
	suffix := fmt.Sprintf("  %s/%s", source.ContextKind(), mode)

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%-10s %s%s", indicator, typeStr, name, suffix))
	}
	return v.styles.Normal.Render(indicator) +
		v.styles.Subtitle.Render(fmt.Sprintf("%-10s ", typeStr)) +
		v.styles.Normal.Render(name) +
		v.styles.Muted.Render(suffix)
}

// renderDetail renders the options of the selected source.
func (v *View) renderDetail(source *domain.SourceDescriptor) string {
	var b strings.Builder
	line := func(key, value string) {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("      %-12s %s", key, value)))
		b.WriteString("\n")
	}

	if source.Credential != "" {
		line("credential", source.Credential)
	}

	keys := make([]string, 0, len(source.Options))
	for k := range source.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		line(k, source.Options[k])
	}
	if b.Len() == 0 {
		line("options", "none")
	}
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Sources returns the current list of sources.
func (v *View) Sources() []domain.SourceDescriptor {
	return v.sources
}

// SelectedIndex returns the currently selected source index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Expanded reports whether the selected source shows its options.
func (v *View) Expanded() bool {
	return v.expanded
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
