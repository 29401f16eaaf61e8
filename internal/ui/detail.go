package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"issueboard/internal/debug"
	"issueboard/internal/domain"
)

// openDetail switches to the detail view and records the visit.
func (m *App) openDetail(id string) tea.Cmd {
	iss, ok := m.store.Get(id)
	if !ok {
		return m.pushToast(toastError, "Issue not found", errorToastDuration)
	}
	m.mode = viewDetail
	m.detailID = id
	m.viewport.GotoTop()
	m.updateDetailContent()

	if m.recents != nil {
		if _, err := m.recents.Add(iss); err != nil {
			debug.Logf("ui: recording recent %s: %v", id, err)
		}
	}
	return nil
}

func (m *App) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = viewBoard
		m.focusIssue(m.detailID)
		return m, nil
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Undo):
		return m, m.undo()
	case key.Matches(msg, m.keys.Copy):
		id := m.detailID
		return m, func() tea.Msg {
			return copyResultMsg{id: id, err: clipboard.WriteAll(id)}
		}
	case key.Matches(msg, m.keys.Resolve):
		if !m.admin {
			return m, m.pushToast(toastError, "Only admins can resolve issues", errorToastDuration)
		}
		iss, ok := m.store.Get(m.detailID)
		if !ok || iss.Status == domain.StatusDone {
			return m, nil
		}
		return m, m.beginMutation(m.detailID, domain.StatusPatch(domain.StatusDone))
	case key.Matches(msg, m.keys.Priority):
		if !m.admin {
			return m, m.pushToast(toastError, "Only admins can change priority", errorToastDuration)
		}
		iss, ok := m.store.Get(m.detailID)
		if !ok {
			return m, nil
		}
		return m, m.beginMutation(m.detailID, domain.PriorityPatch(iss.Priority.Cycle()))
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *App) updateDetailContent() {
	if m.mode != viewDetail || m.detailID == "" {
		return
	}
	iss, ok := m.store.Get(m.detailID)
	if !ok {
		m.viewport.SetContent(styleEmpty.Render("Issue not found"))
		return
	}
	render := m.renderMD
	if render == nil {
		render = buildMarkdownRenderer("plain", max(m.viewport.Width-2, 40))
	}
	m.viewport.SetContent(render(detailMarkdown(iss, m.admin)))
}

func detailMarkdown(iss domain.Issue, admin bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", iss.Title)
	fmt.Fprintf(&b, "| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| ID | `%s` |\n", iss.ID)
	fmt.Fprintf(&b, "| Status | %s |\n", iss.Status)
	fmt.Fprintf(&b, "| Priority | %s |\n", iss.Priority)
	fmt.Fprintf(&b, "| Severity | %d |\n", iss.Severity)
	fmt.Fprintf(&b, "| Assignee | %s |\n", iss.Assignee)
	fmt.Fprintf(&b, "| Created | %s (%s) |\n", iss.CreatedAt.Format("2006-01-02 15:04"), FormatRelativeTime(iss.CreatedAt))
	if len(iss.Tags) > 0 {
		fmt.Fprintf(&b, "| Tags | %s |\n", strings.Join(iss.Tags, ", "))
	}
	if iss.Local {
		b.WriteString("\n_Created locally; waiting for the next sync._\n")
	}
	if admin {
		b.WriteString("\n**Admin:** `R` mark resolved · `p` cycle priority\n")
	}
	return b.String()
}
