// Package styles holds the palette and lipgloss styles for the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
)

// Theme is the colour palette. Answer states map onto Ok, Caution and
// Alert so panels read like annunciator lights.
type Theme struct {
	Accent  lipgloss.Color
	Heading lipgloss.Color
	Text    lipgloss.Color
	Dim     lipgloss.Color
	Frame   lipgloss.Color
	Bar     lipgloss.Color

	Ok      lipgloss.Color
	Caution lipgloss.Color
	Alert   lipgloss.Color
}

// DefaultTheme returns the dark palette.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:  lipgloss.Color("#5EA1FF"),
		Heading: lipgloss.Color("#9CDCFE"),
		Text:    lipgloss.Color("#D8DEE9"),
		Dim:     lipgloss.Color("#6B7280"),
		Frame:   lipgloss.Color("#3B4252"),
		Bar:     lipgloss.Color("#11151C"),
		Ok:      lipgloss.Color("#4ADE80"),
		Caution: lipgloss.Color("#FBBF24"),
		Alert:   lipgloss.Color("#F87171"),
	}
}

// Styles are the rendered styles built from a Theme.
type Styles struct {
	theme *Theme

	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Normal     lipgloss.Style
	Muted      lipgloss.Style
	Selected   lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	// Panel frames one branch answer. Use PanelFor to tint the frame by
	// outcome.
	Panel lipgloss.Style
}

// NewStyles builds styles from theme, or from DefaultTheme when nil.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	framed := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Frame).
		Padding(0, 1)

	return &Styles{
		theme:      theme,
		Title:      fg(theme.Accent).Bold(true),
		Subtitle:   fg(theme.Heading).Bold(true),
		Normal:     fg(theme.Text),
		Muted:      fg(theme.Dim),
		Selected:   fg(theme.Bar).Background(theme.Accent).Bold(true),
		InputField: framed,
		StatusBar:  fg(theme.Dim).Background(theme.Bar).Padding(0, 1),
		Success:    fg(theme.Ok),
		Warning:    fg(theme.Caution),
		Error:      fg(theme.Alert),
		Panel:      framed,
	}
}

// DefaultStyles returns styles for the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// ForStatus returns the style used to label a branch outcome.
func (s *Styles) ForStatus(status domain.Status) lipgloss.Style {
	switch status {
	case domain.StatusSuccess:
		return s.Success
	case domain.StatusNoResults:
		return s.Warning
	case domain.StatusTimeout, domain.StatusUnknownError:
		return s.Error
	default:
		return s.Muted
	}
}

// PanelFor returns the panel style with its frame tinted by status. A
// pending branch keeps the neutral frame.
func (s *Styles) PanelFor(status domain.Status) lipgloss.Style {
	switch status {
	case domain.StatusSuccess:
		return s.Panel.BorderForeground(s.theme.Ok)
	case domain.StatusNoResults:
		return s.Panel.BorderForeground(s.theme.Caution)
	case domain.StatusTimeout, domain.StatusUnknownError:
		return s.Panel.BorderForeground(s.theme.Alert)
	default:
		return s.Panel
	}
}
