package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Width(16)

	statsBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(0, 2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)
)

// stat is one line of the run summary
type stat struct {
	label string
	value string
}

func renderSummary(title string, stats []stat) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	for _, s := range stats {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(s.label))
		b.WriteString(s.value)
	}
	return statsBoxStyle.Render(b.String())
}

func statf(label, format string, args ...any) stat {
	return stat{label: label, value: fmt.Sprintf(format, args...)}
}
