package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"issueboard/internal/domain"
)

func (m *App) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	banner := m.renderUndoBanner()

	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if banner != "" {
		bodyHeight -= lipgloss.Height(banner)
	}
	bodyHeight = max(bodyHeight, 5)

	var body string
	switch m.mode {
	case viewDetail:
		body = stylePaneFocused.Width(max(m.width-2, minColumnWidth)).Render(m.viewport.View())
	case viewSettings:
		body = m.viewSettings()
	default:
		body = m.viewBoard(bodyHeight)
	}

	parts := []string{header}
	if banner != "" {
		parts = append(parts, banner)
	}
	parts = append(parts, body, footer)
	frame := strings.Join(parts, "\n")

	if len(m.toasts) == 0 {
		return frame
	}
	blocks := make([]string, 0, len(m.toasts))
	for i := len(m.toasts) - 1; i >= 0; i-- {
		blocks = append(blocks, m.toasts[i].render())
	}
	return overlayBottomRight(frame, m.width, m.height, lipgloss.Height(footer), blocks...)
}

func (m *App) renderHeader() string {
	title := "ISSUEBOARD"
	if m.version != "" {
		title = fmt.Sprintf("ISSUEBOARD v%s", m.version)
	}
	counts := make([]string, 0, len(domain.Statuses))
	for _, status := range domain.Statuses {
		n := 0
		for _, iss := range m.issues {
			if iss.Status == status {
				n++
			}
		}
		counts = append(counts, fmt.Sprintf("%d %s", n, status))
	}
	status := fmt.Sprintf("Issues: %d • %s", len(m.issues), strings.Join(counts, " • "))

	if last := m.store.LastReconciled(); !last.IsZero() {
		status += " " + styleStatsDim.Render("synced "+FormatRelativeTime(last))
	}
	if m.refreshInFlight {
		status += " " + m.spin.View() + styleStatsDim.Render("syncing")
	}
	if pending := len(m.store.Pending()); pending > 0 {
		status += " " + styleStatsDim.Render(fmt.Sprintf("(%d pending)", pending))
	}
	if filter := m.filterLabel(); filter != "" {
		status += " " + styleFilterInfo.Render(filter)
	}
	if m.searching {
		status += " " + m.searchInput.View()
	}
	return styleAppHeader.Render(title) + " " + status
}

func (m *App) filterLabel() string {
	var parts []string
	if s := strings.TrimSpace(m.filter.Search); s != "" {
		parts = append(parts, fmt.Sprintf("search: %s", s))
	}
	if m.filter.Priority != "" {
		parts = append(parts, fmt.Sprintf("priority: %s", m.filter.Priority))
	}
	if len(parts) == 0 {
		return ""
	}
	return "Filter: " + strings.Join(parts, ", ")
}

func (m *App) renderUndoBanner() string {
	mutation, ok := m.pendingMutation()
	if !ok {
		return ""
	}
	remaining := max(int(mutation.CommitAt.Sub(timeNow()).Seconds()+0.999), 0)
	text := fmt.Sprintf("%s: %s  [ u ] Undo (%ds)", mutation.ID, mutation.Patch, remaining)
	return styleUndoBanner.Render(text)
}

func (m *App) renderFooter() string {
	var bindings []string
	switch m.mode {
	case viewDetail:
		bindings = []string{"[ esc ] Back", "[ c ] Copy ID"}
		if m.admin {
			bindings = append(bindings, "[ R ] Resolve", "[ p ] Priority")
		}
	case viewSettings:
		bindings = []string{"[ enter ] Save", "[ esc ] Cancel"}
	default:
		bindings = []string{
			"[ ⏎ ] Detail", "[ H/L ] Move", "[ u ] Undo", "[ / ] Search",
			"[ f ] Priority", "[ b ] Recent", "[ S ] Settings", "[ r ] Refresh", "[ q ] Quit",
		}
	}
	return styleHelp.Render(" " + strings.Join(bindings, "  "))
}
