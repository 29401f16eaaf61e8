package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"issueboard/internal/domain"
)

var (
	cPurple     = lipgloss.Color("99")
	cCyan       = lipgloss.Color("39")
	cNeonGreen  = lipgloss.Color("118")
	cRed        = lipgloss.Color("203")
	cOrange     = lipgloss.Color("208")
	cGold       = lipgloss.Color("220")
	cGray       = lipgloss.Color("240")
	cBrightGray = lipgloss.Color("246")
	cLightGray  = lipgloss.Color("250")
	cWhite      = lipgloss.Color("255")
	cHighlight  = lipgloss.Color("57")
	cField      = lipgloss.Color("63")

	styleStatsDim = lipgloss.NewStyle().Foreground(cBrightGray)
	styleID       = lipgloss.NewStyle().Foreground(cGold).Bold(true)
	styleLocal    = lipgloss.NewStyle().Foreground(cCyan).Italic(true)

	styleAppHeader = lipgloss.NewStyle().
			Foreground(cWhite).
			Background(cPurple).
			Bold(true).
			Padding(0, 1)

	styleFilterInfo = lipgloss.NewStyle().
			Foreground(cLightGray).
			Background(cPurple)

	stylePane = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(cGray)

	stylePaneFocused = lipgloss.NewStyle().
				Border(lipgloss.ThickBorder()).
				BorderForeground(cPurple)

	styleCard = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true, false, false, false)

	styleCardSelected = lipgloss.NewStyle().
				Padding(0, 1).
				Background(cHighlight).
				Foreground(cWhite).
				Border(lipgloss.RoundedBorder(), true, false, false, false)

	styleField = lipgloss.NewStyle().
			Foreground(cField).
			Bold(true)

	styleTag = lipgloss.NewStyle().
			Foreground(cWhite).
			Background(cGray).
			Padding(0, 1)

	styleEmpty = lipgloss.NewStyle().Foreground(cGray).Italic(true)

	styleUndoBanner = lipgloss.NewStyle().
			Foreground(cWhite).
			Background(cOrange).
			Bold(true).
			Padding(0, 1)

	styleErrorText = lipgloss.NewStyle().Foreground(cRed)
	styleHelp      = lipgloss.NewStyle().Foreground(cLightGray)

	styleSuccessToast = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(cNeonGreen).
				Padding(0, 1)

	styleErrorToast = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(cRed).
			Foreground(cRed).
			Padding(0, 1)

	styleInfoToast = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(cCyan).
			Padding(0, 1)
)

// statusColor matches the card accent used for each column.
func statusColor(s domain.Status) lipgloss.Color {
	switch s {
	case domain.StatusDone:
		return cNeonGreen
	case domain.StatusInProgress:
		return cOrange
	default:
		return cRed
	}
}

func priorityStyle(p domain.Priority) lipgloss.Style {
	switch p {
	case domain.PriorityHigh:
		return lipgloss.NewStyle().Foreground(cRed).Bold(true)
	case domain.PriorityMedium:
		return lipgloss.NewStyle().Foreground(cGold)
	default:
		return lipgloss.NewStyle().Foreground(cBrightGray)
	}
}

func buildMarkdownRenderer(format string, width int) func(string) string {
	fallback := func(input string) string {
		return wordwrap.String(input, width)
	}

	style := strings.ToLower(strings.TrimSpace(format))
	if style == "" || style == "rich" || style == "dark" {
		style = "dark"
	}
	if style == "plain" {
		return fallback
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fallback
	}
	return func(input string) string {
		out, err := renderer.Render(input)
		if err != nil {
			return fallback(input)
		}
		return strings.TrimSpace(out)
	}
}
