package dialog

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor = lipgloss.Color("212")
	dangerColor  = lipgloss.Color("196")
	mutedColor   = lipgloss.Color("241")
)

var (
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	titleStyle = lipgloss.NewStyle().Bold(true)

	hintStyle = lipgloss.NewStyle().Foreground(mutedColor)

	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("238")).
			Padding(0, 2)

	buttonFocusedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("255")).
				Background(primaryColor).
				Bold(true).
				Padding(0, 2)

	buttonDangerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("238")).
				Padding(0, 2)

	buttonDangerFocusedStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("255")).
					Background(dangerColor).
					Bold(true).
					Padding(0, 2)
)
