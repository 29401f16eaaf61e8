package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

func (m *App) renderSidebar(height int) string {
	lines := []string{styleField.Render("Recently viewed")}
	if len(m.recentList) == 0 {
		lines = append(lines, styleEmpty.Render("No issues viewed yet"))
	}
	inner := sidebarWidth - 4
	// Newest first.
	for i := len(m.recentList) - 1; i >= 0; i-- {
		iss := m.recentList[i]
		bullet := lipgloss.NewStyle().Foreground(statusColor(iss.Status)).Render("●")
		lines = append(lines, bullet+" "+ansi.Truncate(iss.Title, inner-2, "…"))
		lines = append(lines, "  "+styleID.Render(iss.ID)+" "+styleStatsDim.Render(string(iss.Status)))
	}
	return stylePane.Width(sidebarWidth - 2).Height(height - 2).Render(strings.Join(lines, "\n"))
}
