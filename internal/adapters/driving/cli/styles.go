package cli

import "github.com/charmbracelet/lipgloss"

// Styles for terminal output. Kept minimal: headings, status marks and
// muted detail text.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	headingStyle = lipgloss.NewStyle().
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#A6E3A1"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F38BA8"))
)

// statusMark renders a coloured ok/failed marker.
func statusMark(ok bool) string {
	if ok {
		return okStyle.Render("ok")
	}
	return failStyle.Render("failed")
}
