package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type toastKind int

const (
	toastInfo toastKind = iota
	toastSuccess
	toastError
)

type toast struct {
	id   int
	kind toastKind
	text string
}

const maxToasts = 3

// pushToast queues a notification and schedules its removal.
func (m *App) pushToast(kind toastKind, text string, d time.Duration) tea.Cmd {
	m.nextToastID++
	t := toast{id: m.nextToastID, kind: kind, text: text}
	m.toasts = append(m.toasts, t)
	if len(m.toasts) > maxToasts {
		m.toasts = m.toasts[len(m.toasts)-maxToasts:]
	}
	return scheduleToastExpiry(t.id, d)
}

func (m *App) dropToast(id int) {
	for i, t := range m.toasts {
		if t.id == id {
			m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
			return
		}
	}
}

func (t toast) render() string {
	switch t.kind {
	case toastError:
		return styleErrorToast.Render("⚠ " + t.text)
	case toastSuccess:
		return styleSuccessToast.Render("✓ " + t.text)
	default:
		return styleInfoToast.Render(t.text)
	}
}
