package menu

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/carsweep/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/carsweep/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/carsweep/internal/adapters/driving/tui/styles"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewView(t *testing.T) {
	view := NewView(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, view)
	assert.Equal(t, 0, view.Selected())
	assert.Nil(t, view.Init())

	labels := make([]string, 0, len(view.items))
	for _, item := range view.items {
		labels = append(labels, item.Label)
		assert.NotEmpty(t, item.Shortcut)
	}
	assert.Equal(t, []string{"Search", "Sources", "Runs", "Help", "Quit"}, labels)
	assert.True(t, view.items[4].Quit)
}

func TestNewView_Defaults(t *testing.T) {
	view := NewView(nil, nil)

	assert.NotNil(t, view.styles)
	assert.NotNil(t, view.keys)
}

func TestView_Update_WindowSize(t *testing.T) {
	view := NewView(nil, nil)

	updated, cmd := view.Update(tea.WindowSizeMsg{Width: 100, Height: 50})

	assert.Same(t, view, updated)
	assert.Nil(t, cmd)
	assert.True(t, view.ready)
	assert.Equal(t, 100, view.width)
}

func TestView_Update_NavigationWraps(t *testing.T) {
	view := NewView(nil, nil)

	view.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 4, view.Selected(), "up from the top wraps to the bottom")

	view.Update(runes("j"))
	assert.Equal(t, 0, view.Selected(), "down from the bottom wraps to the top")

	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	view.Update(runes("j"))
	assert.Equal(t, 2, view.Selected())

	view.Update(runes("k"))
	assert.Equal(t, 1, view.Selected())
}

func TestView_Update_Enter(t *testing.T) {
	tests := []struct {
		selected int
		want     messages.ViewType
	}{
		{selected: 0, want: messages.ViewSearch},
		{selected: 1, want: messages.ViewSources},
		{selected: 2, want: messages.ViewRuns},
		{selected: 3, want: messages.ViewHelp},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			view := NewView(nil, nil)
			view.selected = tt.selected

			_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

			require.NotNil(t, cmd)
			assert.Equal(t, messages.ViewChanged{View: tt.want}, cmd())
		})
	}
}

func TestView_Update_Shortcuts(t *testing.T) {
	tests := []struct {
		key  string
		want messages.ViewType
		idx  int
	}{
		{"s", messages.ViewSearch, 0},
		{"o", messages.ViewSources, 1},
		{"r", messages.ViewRuns, 2},
		{"?", messages.ViewHelp, 3},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			view := NewView(nil, nil)

			_, cmd := view.Update(runes(tt.key))

			require.NotNil(t, cmd)
			assert.Equal(t, messages.ViewChanged{View: tt.want}, cmd())
			assert.Equal(t, tt.idx, view.Selected())
		})
	}
}

func TestView_Update_UnknownKeyIgnored(t *testing.T) {
	view := NewView(nil, nil)

	_, cmd := view.Update(runes("x"))

	assert.Nil(t, cmd)
	assert.Equal(t, 0, view.Selected())
}

func TestView_Update_Quit(t *testing.T) {
	view := NewView(nil, nil)
	view.selected = 4

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = NewView(nil, nil).Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestView_View(t *testing.T) {
	view := NewView(nil, nil)
	assert.Contains(t, view.View(), "Initialising")

	view.SetDimensions(80, 24)
	output := view.View()

	assert.Contains(t, output, "carsweep")
	for _, label := range []string{"Search", "Sources", "Runs", "Help", "Quit"} {
		assert.Contains(t, output, label)
	}
	assert.Contains(t, output, "> Search")
	assert.Contains(t, output, "[o]")
	assert.Contains(t, output, "Query every enabled source")
}

func TestView_View_HintFollowsSelection(t *testing.T) {
	view := NewView(nil, nil)
	view.SetDimensions(80, 24)
	view.selected = 2

	output := view.View()

	assert.Contains(t, output, "Stored results of earlier searches")
	assert.NotContains(t, output, "Query every enabled source")
	assert.Equal(t, "Runs", view.SelectedItem().Label)
}
