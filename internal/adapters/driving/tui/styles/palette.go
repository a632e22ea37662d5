// Package styles holds the colours and lipgloss styles shared by the TUI
// views.
package styles

import "github.com/charmbracelet/lipgloss"

// Palette is the set of colours the styles are built from. Each colour
// adapts to light and dark terminals.
type Palette struct {
	Accent  lipgloss.AdaptiveColor
	Info    lipgloss.AdaptiveColor
	Text    lipgloss.AdaptiveColor
	Subtle  lipgloss.AdaptiveColor
	Good    lipgloss.AdaptiveColor
	Caution lipgloss.AdaptiveColor
	Bad     lipgloss.AdaptiveColor
	Line    lipgloss.AdaptiveColor
	Bar     lipgloss.AdaptiveColor
}

// DefaultPalette is a muted palette with one warm accent for prices and
// titles.
func DefaultPalette() Palette {
	return Palette{
		Accent:  lipgloss.AdaptiveColor{Light: "#C2410C", Dark: "#FB923C"},
		Info:    lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#22D3EE"},
		Text:    lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#E5E7EB"},
		Subtle:  lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"},
		Good:    lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#4ADE80"},
		Caution: lipgloss.AdaptiveColor{Light: "#A16207", Dark: "#FACC15"},
		Bad:     lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"},
		Line:    lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#4B5563"},
		Bar:     lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#111827"},
	}
}

// Styles are the rendered styles used by every view.
type Styles struct {
	palette Palette

	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Normal     lipgloss.Style
	Muted      lipgloss.Style
	Selected   lipgloss.Style
	Help       lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// NewStyles builds styles from p.
func NewStyles(p Palette) *Styles {
	return &Styles{
		palette: p,

		Title:    lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		Subtitle: lipgloss.NewStyle().Bold(true).Foreground(p.Info),
		Normal:   lipgloss.NewStyle().Foreground(p.Text),
		Muted:    lipgloss.NewStyle().Foreground(p.Subtle),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		Help:     lipgloss.NewStyle().Foreground(p.Subtle).Italic(true),
		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Line).
			Padding(0, 1),
		StatusBar: lipgloss.NewStyle().Foreground(p.Subtle).Background(p.Bar).Padding(0, 1),

		Success: lipgloss.NewStyle().Foreground(p.Good),
		Warning: lipgloss.NewStyle().Foreground(p.Caution),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(p.Bad),
	}
}

// DefaultStyles returns styles built from DefaultPalette.
func DefaultStyles() *Styles {
	return NewStyles(DefaultPalette())
}

// Palette returns the colours the styles were built from.
func (s *Styles) Palette() Palette {
	return s.palette
}

// Outcome returns the style for a source outcome status: success, empty or
// failed. Anything else, such as a pending source, renders muted.
func (s *Styles) Outcome(status string) lipgloss.Style {
	switch status {
	case "success":
		return s.Success
	case "empty":
		return s.Warning
	case "failed":
		return s.Error
	default:
		return s.Muted
	}
}
