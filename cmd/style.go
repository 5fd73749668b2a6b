package cmd

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Width(18)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#DDDDDD"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	okStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3FB950"))
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
)

type summaryLine struct {
	label string
	value string
}

func renderLines(lines []summaryLine) string {
	rows := make([]string, len(lines))
	for i, l := range lines {
		rows[i] = lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(l.label), valueStyle.Render(l.value))
	}
	return strings.Join(rows, "\n")
}

// renderBanner is printed before a command starts work.
func renderBanner(title string, lines []summaryLine) string {
	body := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), renderLines(lines))
	return boxStyle.Render(body)
}

// renderSummary is printed after the log files are written.
func renderSummary(lines []summaryLine, ok bool) string {
	status := okStyle.Render("Completed without errors")
	if !ok {
		status = failStyle.Render("Completed with errors, see the error log")
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, status, renderLines(lines)))
}
