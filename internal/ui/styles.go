package ui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor = lipgloss.Color("212")
	errorColor   = lipgloss.Color("196")
	mutedColor   = lipgloss.Color("241")
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	countStyle = lipgloss.NewStyle().Foreground(mutedColor)

	columnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("250"))

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("255")).
				Background(lipgloss.Color("236"))

	inactiveRowStyle = lipgloss.NewStyle().Foreground(mutedColor)

	roleAdminStyle      = lipgloss.NewStyle().Foreground(errorColor)
	roleInstructorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	roleStudentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("117"))

	statusStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	errStyle     = lipgloss.NewStyle().Foreground(errorColor)
	spinnerStyle = lipgloss.NewStyle().Foreground(primaryColor)

	hintBarStyle = lipgloss.NewStyle().Foreground(mutedColor)

	emptyStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)
)
