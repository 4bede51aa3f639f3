package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"sentiboard/internal/chart"
)

// Styles.
var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	tabStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Background(lipgloss.Color("4"))
	activeTabStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	disabledStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	controlStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	valueStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	positiveStyle  = lipgloss.NewStyle().Bold(true).Foreground(chart.PositiveColor)
	negativeStyle  = lipgloss.NewStyle().Bold(true).Foreground(chart.NegativeColor)
	neutralStyle   = lipgloss.NewStyle().Bold(true).Foreground(chart.NeutralColor)
	cardStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	snapshotStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("3")) // black on yellow

	toastStyles = map[toastKind]lipgloss.Style{
		toastSuccess: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10")),
		toastError:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("9")),
		toastInfo:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("12")),
	}
)

// sentimentStyle picks the colour for a sentiment label.
func sentimentStyle(label string) lipgloss.Style {
	switch strings.ToLower(label) {
	case "positive":
		return positiveStyle
	case "negative":
		return negativeStyle
	case "neutral":
		return neutralStyle
	default:
		return valueStyle
	}
}

// padOrTrunc pads s with spaces to width, or truncates if longer.
func padOrTrunc(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}
