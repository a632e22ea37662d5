package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPalette_OutcomeColoursDistinct(t *testing.T) {
	p := DefaultPalette()

	seen := map[lipgloss.AdaptiveColor]bool{}
	for _, c := range []lipgloss.AdaptiveColor{p.Good, p.Caution, p.Bad, p.Subtle} {
		require.NotEmpty(t, c.Light)
		require.NotEmpty(t, c.Dark)
		assert.False(t, seen[c], "duplicate colour %v", c)
		seen[c] = true
	}
}

func TestNewStyles_KeepsPalette(t *testing.T) {
	p := DefaultPalette()
	p.Accent = lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}

	s := NewStyles(p)

	assert.Equal(t, p, s.Palette())
	assert.Equal(t, p.Accent, s.Title.GetForeground())
}

func TestStyles_Outcome(t *testing.T) {
	s := DefaultStyles()

	tests := []struct {
		status string
		want   lipgloss.Style
	}{
		{"success", s.Success},
		{"empty", s.Warning},
		{"failed", s.Error},
		{"pending", s.Muted},
		{"", s.Muted},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want.GetForeground(), s.Outcome(tt.status).GetForeground())
		})
	}
}

func TestStyles_RenderKeepsText(t *testing.T) {
	s := DefaultStyles()

	assert.Contains(t, s.Title.Render("carsweep"), "carsweep")
	assert.Contains(t, s.InputField.Render("ford"), "ford")
}
