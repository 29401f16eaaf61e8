package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"issueboard/internal/domain"
)

func (m *App) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.updateSearch(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.rows[m.col]--
		m.clampCursor()
	case key.Matches(msg, m.keys.Down):
		m.rows[m.col]++
		m.clampCursor()
	case key.Matches(msg, m.keys.Left):
		m.col--
		m.clampCursor()
	case key.Matches(msg, m.keys.Right):
		m.col++
		m.clampCursor()
	case key.Matches(msg, m.keys.MovePrev):
		return m, m.moveSelected(-1)
	case key.Matches(msg, m.keys.MoveNext):
		return m, m.moveSelected(1)
	case key.Matches(msg, m.keys.Undo):
		return m, m.undo()
	case key.Matches(msg, m.keys.Open):
		if iss, ok := m.selected(); ok {
			return m, m.openDetail(iss.ID)
		}
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.searchInput.SetValue(m.filter.Search)
		m.searchInput.CursorEnd()
		return m, m.searchInput.Focus()
	case key.Matches(msg, m.keys.PriorityFilter):
		m.filter.Priority = nextPriorityFilter(m.filter.Priority)
		m.rebuildColumns()
	case key.Matches(msg, m.keys.ClearFilter):
		if !m.filter.IsZero() {
			m.filter = domain.Filter{}
			m.searchInput.Reset()
			m.rebuildColumns()
		}
	case key.Matches(msg, m.keys.Settings):
		return m, m.openSettings()
	case key.Matches(msg, m.keys.Sidebar):
		m.showSidebar = !m.showSidebar && m.recents != nil
	case key.Matches(msg, m.keys.Refresh):
		if m.refresh != nil && !m.refreshInFlight {
			m.refreshInFlight = true
			return m, tea.Batch(refreshCmd(m.refresh), m.spin.Tick)
		}
	}
	return m, nil
}

func (m *App) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		m.searchInput.Blur()
		m.searchInput.Reset()
		m.filter.Search = ""
		m.rebuildColumns()
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.filter.Search = m.searchInput.Value()
	m.rebuildColumns()
	return m, cmd
}

// moveSelected moves the selected card one column left or right.
func (m *App) moveSelected(delta int) tea.Cmd {
	iss, ok := m.selected()
	if !ok {
		return nil
	}
	target := iss.Status.Next()
	if delta < 0 {
		target = iss.Status.Prev()
	}
	if target == iss.Status {
		return nil
	}
	return m.beginMutation(iss.ID, domain.StatusPatch(target))
}

// nextPriorityFilter cycles all -> low -> medium -> high -> all.
func nextPriorityFilter(p domain.Priority) domain.Priority {
	if p == "" {
		return domain.Priorities[0]
	}
	for i, candidate := range domain.Priorities {
		if candidate == p && i+1 < len(domain.Priorities) {
			return domain.Priorities[i+1]
		}
	}
	return ""
}

func (m *App) viewBoard(bodyHeight int) string {
	boardWidth := m.width
	var sidebar string
	if m.showSidebar && m.width >= sidebarWidth+3*minColumnWidth {
		sidebar = m.renderSidebar(bodyHeight)
		boardWidth -= lipgloss.Width(sidebar)
	}

	colWidth := max(boardWidth/len(domain.Statuses)-2, minColumnWidth)
	cols := make([]string, len(domain.Statuses))
	for i, status := range domain.Statuses {
		cols[i] = m.renderColumn(i, status, colWidth, bodyHeight)
	}
	board := lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	if sidebar == "" {
		return board
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, board)
}

func (m *App) renderColumn(idx int, status domain.Status, width, height int) string {
	style := stylePane
	if idx == m.col {
		style = stylePaneFocused
	}
	header := lipgloss.NewStyle().Foreground(statusColor(status)).Bold(true).
		Render(fmt.Sprintf("%s (%d)", status, len(m.columns[idx])))

	inner := width - 2
	lines := []string{header}
	used := 1
	column := m.columns[idx]
	if len(column) == 0 {
		lines = append(lines, styleEmpty.Render("No matching issues"))
	}

	// Scroll so the selected card stays visible.
	start := 0
	if idx == m.col {
		const cardHeight = 5
		visible := max((height-2)/cardHeight, 1)
		if m.rows[idx] >= visible {
			start = m.rows[idx] - visible + 1
		}
	}
	for r := start; r < len(column); r++ {
		card := m.renderCard(column[r], inner, idx == m.col && r == m.rows[idx])
		h := lipgloss.Height(card)
		if used+h > height-2 {
			break
		}
		lines = append(lines, card)
		used += h
	}
	return style.Width(width).Height(height - 2).Render(strings.Join(lines, "\n"))
}

func (m *App) renderCard(iss domain.Issue, width int, selected bool) string {
	style := styleCard.BorderForeground(statusColor(iss.Status))
	if selected {
		style = styleCardSelected.BorderForeground(statusColor(iss.Status))
	}
	inner := max(width-2, 4)

	title := ansi.Truncate(iss.Title, inner, "…")
	if iss.Local {
		title = ansi.Truncate(iss.Title, max(inner-2, 1), "…") + " " + styleLocal.Render("*")
	}
	meta := fmt.Sprintf("%s  sev %d  score %d",
		priorityStyle(iss.Priority).Render(string(iss.Priority)), iss.Severity, iss.Score)
	assignee := styleStatsDim.Render(ansi.Truncate(iss.Assignee, inner, "…"))
	tags := ansi.Truncate(renderTags(iss.Tags), inner, "…")

	return style.Width(width).Render(strings.Join([]string{title, meta, assignee, tags}, "\n"))
}

func renderTags(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		parts = append(parts, styleTag.Render(t))
	}
	return strings.Join(parts, " ")
}
