package cli

import "github.com/charmbracelet/lipgloss"

var (
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
)

// FormatError styles err for the terminal.
func FormatError(err error) string {
	return errorStyle.Render("Error: " + err.Error())
}
