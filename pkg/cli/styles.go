package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the terminal color scheme.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Dim     lipgloss.Color // Dimmed/help text color
	Err     lipgloss.Color // Failure color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
	Err:     lipgloss.Color("#ff5f5f"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title lipgloss.Style
	Label lipgloss.Style
	Value lipgloss.Style
	Help  lipgloss.Style
	Err   lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Label: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Value: lipgloss.NewStyle(),
		Help:  lipgloss.NewStyle().Foreground(t.Dim),
		Err:   lipgloss.NewStyle().Bold(true).Foreground(t.Err),
	}
}

// DefaultStyles are the styles of the default theme.
var DefaultStyles = NewStyles(DefaultTheme)

// Field renders a "label: value" line for terminal display.
func (s Styles) Field(label, value string) string {
	return s.Label.Render(label+":") + " " + s.Value.Render(value)
}
