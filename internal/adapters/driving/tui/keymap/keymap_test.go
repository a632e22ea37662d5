package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap_Bindings(t *testing.T) {
	km := DefaultKeyMap()
	require.NotNil(t, km)

	tests := []struct {
		name    string
		msg     tea.KeyMsg
		binding key.Binding
	}{
		{"submit", tea.KeyMsg{Type: tea.KeyEnter}, km.Submit},
		{"older query", tea.KeyMsg{Type: tea.KeyCtrlP}, km.Older},
		{"newer query", tea.KeyMsg{Type: tea.KeyCtrlN}, km.Newer},
		{"cancel", tea.KeyMsg{Type: tea.KeyEsc}, km.Cancel},
		{"vim up", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}}, km.Up},
		{"vim down", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}, km.Down},
		{"new search", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}}, km.NewSearch},
		{"delete", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}}, km.Delete},
		{"quit", tea.KeyMsg{Type: tea.KeyCtrlC}, km.Quit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, key.Matches(tt.msg, tt.binding))
		})
	}
}

func TestDefaultKeyMap_QueryKeysDoNotQuit(t *testing.T) {
	km := DefaultKeyMap()

	for _, r := range "qjkn" {
		assert.False(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}, km.Quit))
	}
}

func TestKeyMap_Hints(t *testing.T) {
	km := DefaultKeyMap()

	assert.Equal(t, []key.Binding{km.Cancel}, km.Hints(ModeSearching))
	assert.Contains(t, km.Hints(ModeResults), km.NewSearch)
	assert.Contains(t, km.Hints(ModeRuns), km.Delete)
	assert.Contains(t, km.Hints(ModeQuery), km.Submit)
}

func TestKeyMap_Sections(t *testing.T) {
	km := DefaultKeyMap()

	sections := km.Sections()
	require.Len(t, sections, 4)

	titles := make([]string, 0, len(sections))
	total := 0
	for _, s := range sections {
		titles = append(titles, s.Title)
		total += len(s.Bindings)
		for _, b := range s.Bindings {
			assert.NotEmpty(t, b.Help().Key)
			assert.NotEmpty(t, b.Help().Desc)
		}
	}
	assert.Equal(t, []string{"Search", "Results", "Runs", "Anywhere"}, titles)
	assert.Equal(t, 13, total)
}
