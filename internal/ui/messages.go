package ui

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"issueboard/internal/debug"
	"issueboard/internal/domain"
	"issueboard/internal/optimistic"
	"issueboard/internal/store"
)

type storeChangedMsg struct {
	change store.Change
}

type recentChangedMsg struct{}

type committedMsg struct {
	mutation optimistic.Mutation
}

type rolledBackMsg struct {
	mutation optimistic.Mutation
	err      error
}

type supersededMsg struct {
	mutation optimistic.Mutation
}

type pollFailedMsg struct {
	err error
}

type refreshCompleteMsg struct {
	err error
}

type toastExpiredMsg struct {
	id int
}

type undoTickMsg struct{}

type copyResultMsg struct {
	id  string
	err error
}

// waitForStoreChange blocks on the store subscription and turns the next
// change into a message. A closed channel ends the loop.
func waitForStoreChange(ch <-chan store.Change) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		change, ok := <-ch
		if !ok {
			return nil
		}
		return storeChangedMsg{change: change}
	}
}

func waitForRecentChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return recentChangedMsg{}
	}
}

func scheduleToastExpiry(id int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

func scheduleUndoTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return undoTickMsg{}
	})
}

func refreshCmd(refresh func(context.Context) error) tea.Cmd {
	if refresh == nil {
		return nil
	}
	return func() tea.Msg {
		return refreshCompleteMsg{err: refresh(context.Background())}
	}
}

// Notifier carries events raised on background goroutines (commit timers,
// poll cycles) into the Bubble Tea loop. Its methods match the hook
// signatures of the optimistic controller and the poll scheduler.
type Notifier struct {
	ch        chan tea.Msg
	done      chan struct{}
	closeOnce sync.Once
}

// NewNotifier creates a notifier with a bounded queue.
func NewNotifier() *Notifier {
	return &Notifier{
		ch:   make(chan tea.Msg, 64),
		done: make(chan struct{}),
	}
}

// Close releases failure notices still waiting for queue space. Call it
// once the program has exited.
func (n *Notifier) Close() {
	n.closeOnce.Do(func() { close(n.done) })
}

// Committed is an optimistic.OnCommitted hook.
func (n *Notifier) Committed(m optimistic.Mutation, _ domain.Issue) {
	n.send(committedMsg{mutation: m})
}

// RolledBack is an optimistic.OnRolledBack hook.
func (n *Notifier) RolledBack(m optimistic.Mutation, err error) {
	n.deliver(rolledBackMsg{mutation: m, err: err})
}

// Superseded is an optimistic.OnSuperseded hook.
func (n *Notifier) Superseded(m optimistic.Mutation) {
	n.send(supersededMsg{mutation: m})
}

// PollFailed is a poll.OnError hook.
func (n *Notifier) PollFailed(err error) {
	n.deliver(pollFailedMsg{err: err})
}

// send drops msg when the queue is full.
func (n *Notifier) send(msg tea.Msg) {
	select {
	case n.ch <- msg:
	default:
		debug.Logf("ui: notification queue full, dropped %T", msg)
	}
}

// deliver never drops msg. When the queue is full it waits for space on its
// own goroutine, since the caller may be the Bubble Tea loop that drains it.
func (n *Notifier) deliver(msg tea.Msg) {
	select {
	case n.ch <- msg:
		return
	default:
	}
	debug.Logf("ui: notification queue full, queuing %T", msg)
	go func() {
		select {
		case n.ch <- msg:
		case <-n.done:
			debug.Logf("ui: notifier closed before %T was shown", msg)
		}
	}()
}

func (n *Notifier) listen() tea.Cmd {
	if n == nil {
		return nil
	}
	return func() tea.Msg {
		return <-n.ch
	}
}
