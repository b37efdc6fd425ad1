package repl

import "github.com/charmbracelet/lipgloss"

var (
	// errorStyle for evaluation failures
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// dimStyle for muted session messages
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// shadowStyle for shadow binding results
	shadowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81"))
)
