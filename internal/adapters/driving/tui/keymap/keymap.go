// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// Mode is what the user is currently doing; it selects the hints shown.
type Mode int

const (
	// ModeQuery is typing criteria.
	ModeQuery Mode = iota
	// ModeSearching is waiting on a running search.
	ModeSearching
	// ModeResults is browsing the listings of a finished run.
	ModeResults
	// ModeRuns is browsing stored runs.
	ModeRuns
)

// KeyMap holds every binding the views react to.
type KeyMap struct {
	Quit key.Binding
	Help key.Binding
	Back key.Binding

	// Query mode.
	Submit key.Binding
	Older  key.Binding
	Newer  key.Binding

	// Searching.
	Cancel key.Binding

	// Results and lists.
	Up        key.Binding
	Down      key.Binding
	Open      key.Binding
	NewSearch key.Binding
	Reload    key.Binding
	Delete    key.Binding
}

// Section is a titled group of bindings for the help page.
type Section struct {
	Title    string
	Bindings []key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Back: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),

		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search all sources")),
		Older:  key.NewBinding(key.WithKeys("up", "ctrl+p"), key.WithHelp("↑/ctrl+p", "older query")),
		Newer:  key.NewBinding(key.WithKeys("down", "ctrl+n"), key.WithHelp("↓/ctrl+n", "newer query")),

		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel run")),

		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open run")),
		NewSearch: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new search")),
		Reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Delete:    key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete run")),
	}
}

// Hints returns the bindings worth showing in the status bar for mode.
func (k *KeyMap) Hints(mode Mode) []key.Binding {
	switch mode {
	case ModeSearching:
		return []key.Binding{k.Cancel}
	case ModeResults:
		return []key.Binding{k.NewSearch, k.Up, k.Down, k.Back}
	case ModeRuns:
		return []key.Binding{k.Open, k.Reload, k.Delete, k.Back}
	default:
		return []key.Binding{k.Submit, k.Older, k.Back}
	}
}

// Sections groups all bindings for the help page.
func (k *KeyMap) Sections() []Section {
	return []Section{
		{Title: "Search", Bindings: []key.Binding{k.Submit, k.Older, k.Newer, k.Cancel}},
		{Title: "Results", Bindings: []key.Binding{k.Up, k.Down, k.NewSearch}},
		{Title: "Runs", Bindings: []key.Binding{k.Open, k.Delete, k.Reload}},
		{Title: "Anywhere", Bindings: []key.Binding{k.Back, k.Help, k.Quit}},
	}
}
