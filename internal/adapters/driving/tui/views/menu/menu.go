// Package menu is the landing view: a short list of destinations, each
// reachable with the arrow keys or its shortcut letter.
package menu

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/carsweep/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/carsweep/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/carsweep/internal/adapters/driving/tui/styles"
)

// Item is one destination.
type Item struct {
	Label    string
	Shortcut string
	Hint     string
	View     messages.ViewType
	Quit     bool
}

// View is the menu.
type View struct {
	styles   *styles.Styles
	keys     *keymap.KeyMap
	items    []Item
	selected int
	width    int
	height   int
	ready    bool
}

// NewView creates the menu with the cursor on Search.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles: s,
		keys:   km,
		items: []Item{
			{Label: "Search", Shortcut: "s", Hint: "Query every enabled source and watch results arrive", View: messages.ViewSearch},
			{Label: "Sources", Shortcut: "o", Hint: "Configured listing sources and their adapters", View: messages.ViewSources},
			{Label: "Runs", Shortcut: "r", Hint: "Stored results of earlier searches and sweeps", View: messages.ViewRuns},
			{Label: "Help", Shortcut: "?", Hint: "Keyboard shortcuts", View: messages.ViewHelp},
			{Label: "Quit", Shortcut: "q", Quit: true},
		},
		width:  80,
		height: 24,
	}
}

// Init implements the view contract; the menu has nothing to start.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update moves the cursor, wrapping at both ends, and activates items.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Up):
			v.selected = (v.selected - 1 + len(v.items)) % len(v.items)
			return v, nil
		case key.Matches(msg, v.keys.Down):
			v.selected = (v.selected + 1) % len(v.items)
			return v, nil
		case key.Matches(msg, v.keys.Open):
			return v, v.activate(v.selected)
		}

		for i, item := range v.items {
			if msg.String() == item.Shortcut {
				v.selected = i
				return v, v.activate(i)
			}
		}
	}

	return v, nil
}

func (v *View) activate(i int) tea.Cmd {
	item := v.items[i]
	if item.Quit {
		return tea.Quit
	}
	return func() tea.Msg {
		return messages.ViewChanged{View: item.View}
	}
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	lines := []string{
		v.styles.Title.Render("carsweep"),
		v.styles.Muted.Render("Search every listing source at once"),
		"",
	}

	for i, item := range v.items {
		shortcut := v.styles.Help.Render(fmt.Sprintf("[%s]", item.Shortcut))
		if i == v.selected {
			lines = append(lines, "> "+v.styles.Selected.Render(item.Label)+" "+shortcut)
			continue
		}
		lines = append(lines, "  "+v.styles.Normal.Render(item.Label)+" "+shortcut)
	}

	if hint := v.items[v.selected].Hint; hint != "" {
		lines = append(lines, "", v.styles.Muted.Render(hint))
	}

	lines = append(lines, "", v.styles.Help.Render("↑/↓ move · enter open · letter jumps"))
	return strings.Join(lines, "\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the cursor index.
func (v *View) Selected() int {
	return v.selected
}

// SelectedItem returns the item under the cursor.
func (v *View) SelectedItem() Item {
	return v.items[v.selected]
}
