// Package styles provides colour themes and styling for the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colour palette for the TUI.
type Theme struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
	Border     lipgloss.Color
	Bar        lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#2F80ED"),
		Secondary:  lipgloss.Color("#27AE9F"),
		Foreground: lipgloss.Color("#E0E4EA"),
		Muted:      lipgloss.Color("#7A8494"),
		Success:    lipgloss.Color("#6FCF97"),
		Warning:    lipgloss.Color("#F2C94C"),
		Error:      lipgloss.Color("#EB5757"),
		Border:     lipgloss.Color("#3D4452"),
		Bar:        lipgloss.Color("#1B1F27"),
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Normal     lipgloss.Style
	Muted      lipgloss.Style
	Selected   lipgloss.Style
	Error      lipgloss.Style
	Success    lipgloss.Style
	Warning    lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Help       lipgloss.Style
	Border     lipgloss.Style

	// FileHeader marks the "[File: ...]" lines of retrieved context.
	FileHeader lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme:      theme,
		Title:      lipgloss.NewStyle().Bold(true).Foreground(theme.Primary),
		Subtitle:   lipgloss.NewStyle().Bold(true).Foreground(theme.Secondary),
		Normal:     lipgloss.NewStyle().Foreground(theme.Foreground),
		Muted:      lipgloss.NewStyle().Foreground(theme.Muted),
		Selected:   lipgloss.NewStyle().Bold(true).Foreground(theme.Foreground).Background(theme.Primary),
		Error:      lipgloss.NewStyle().Foreground(theme.Error),
		Success:    lipgloss.NewStyle().Foreground(theme.Success),
		Warning:    lipgloss.NewStyle().Foreground(theme.Warning),
		InputField: lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(theme.Border).Padding(0, 1),
		StatusBar:  lipgloss.NewStyle().Foreground(theme.Muted).Background(theme.Bar).Padding(0, 1),
		Help:       lipgloss.NewStyle().Foreground(theme.Muted),
		Border:     lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(theme.Border),
		FileHeader: lipgloss.NewStyle().Bold(true).Foreground(theme.Secondary),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// Score picks a style for a relevance score: success at 0.7 and above,
// warning from 0.4, error below.
func (s *Styles) Score(score float64) lipgloss.Style {
	switch {
	case score >= 0.7:
		return s.Success
	case score >= 0.4:
		return s.Warning
	default:
		return s.Error
	}
}
