package prompt

import "github.com/charmbracelet/lipgloss"

// Theme styles the messages the runner prints between prompts.
type Theme struct {
	Title   lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Muted   lipgloss.Style
}

// DefaultTheme uses the 16-color palette so it reads on light and dark
// terminals.
func DefaultTheme() Theme {
	return Theme{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// PlainTheme renders text unchanged.
func PlainTheme() Theme {
	return Theme{
		Title:   lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Success: lipgloss.NewStyle(),
		Muted:   lipgloss.NewStyle(),
	}
}
