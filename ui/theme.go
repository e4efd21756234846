package ui

import "github.com/charmbracelet/lipgloss"

// Theme is the color scheme of the console.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Text    lipgloss.Color
	Dim     lipgloss.Color
	Success lipgloss.Color
	Busy    lipgloss.Color
	Error   lipgloss.Color
}

var DarkTheme = Theme{
	Name:    "dark",
	Primary: lipgloss.Color("#00ff9f"),
	Text:    lipgloss.Color("#e6edf3"),
	Dim:     lipgloss.Color("#6e7681"),
	Success: lipgloss.Color("#3fb950"),
	Busy:    lipgloss.Color("#d29922"),
	Error:   lipgloss.Color("#f85149"),
}

var LightTheme = Theme{
	Name:    "light",
	Primary: lipgloss.Color("#0969da"),
	Text:    lipgloss.Color("#1f2328"),
	Dim:     lipgloss.Color("#8c959f"),
	Success: lipgloss.Color("#1a7f37"),
	Busy:    lipgloss.Color("#9a6700"),
	Error:   lipgloss.Color("#cf222e"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title    lipgloss.Style
	Label    lipgloss.Style
	Text     lipgloss.Style
	Help     lipgloss.Style
	Disabled lipgloss.Style
	Section  lipgloss.Style

	Info    lipgloss.Style
	Busy    lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Label:    lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Width(10),
		Text:     lipgloss.NewStyle().Foreground(t.Text),
		Help:     lipgloss.NewStyle().Foreground(t.Dim),
		Disabled: lipgloss.NewStyle().Foreground(t.Dim).Faint(true),
		Section: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Dim).
			Padding(0, 1),

		Info:    lipgloss.NewStyle().Foreground(t.Text),
		Busy:    lipgloss.NewStyle().Foreground(t.Busy).Italic(true),
		Success: lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(t.Error).Bold(true),
	}
}

func nextTheme(t Theme) Theme {
	if t.Name == DarkTheme.Name {
		return LightTheme
	}
	return DarkTheme
}
