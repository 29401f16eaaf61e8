package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"issueboard/internal/config"
	appErrors "issueboard/internal/errors"
)

func (m *App) openSettings() tea.Cmd {
	m.mode = viewSettings
	m.settingsErr = ""
	current := ""
	if m.poller != nil {
		if secs := int(m.poller.Interval().Seconds()); secs > 0 {
			current = strconv.Itoa(secs)
		}
	}
	m.settingsInput.SetValue(current)
	m.settingsInput.CursorEnd()
	return m.settingsInput.Focus()
}

func (m *App) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.closeSettings()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		seconds, err := parsePollInterval(m.settingsInput.Value())
		if err == nil && m.savePoll != nil {
			err = m.savePoll(seconds)
		}
		if err != nil {
			// The running schedule is left untouched.
			m.settingsErr = err.Error()
			return m, nil
		}
		if m.poller != nil {
			m.poller.SetInterval(seconds)
		}
		m.closeSettings()
		return m, m.pushToast(toastSuccess, fmt.Sprintf("Polling every %ds", seconds), toastDuration)
	}

	var cmd tea.Cmd
	m.settingsInput, cmd = m.settingsInput.Update(msg)
	m.settingsErr = ""
	return m, cmd
}

func (m *App) closeSettings() {
	m.mode = viewBoard
	m.settingsInput.Blur()
	m.settingsErr = ""
}

func parsePollInterval(raw string) (int, error) {
	seconds, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, appErrors.Validation("poll interval must be a whole number of seconds")
	}
	if err := config.ValidatePollInterval(seconds); err != nil {
		return 0, err
	}
	return seconds, nil
}

func (m *App) viewSettings() string {
	var b strings.Builder
	b.WriteString(styleField.Render("Settings"))
	b.WriteString("\n\n")
	b.WriteString(m.settingsInput.View())
	b.WriteString("\n")
	if m.settingsErr != "" {
		b.WriteString(styleErrorText.Render(m.settingsErr))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styleHelp.Render("[ enter ] Save  [ esc ] Cancel"))
	return stylePaneFocused.Width(max(m.width-2, minColumnWidth)).Render(b.String())
}
