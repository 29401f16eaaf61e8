package ui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"issueboard/internal/domain"
	"issueboard/internal/optimistic"
	"issueboard/internal/recent"
	"issueboard/internal/remote"
	"issueboard/internal/store"
)

var baseDate = time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

type fakeTimer struct {
	f       func()
	mu      sync.Mutex
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

type fakePoller struct {
	seconds int
	calls   int
}

func (p *fakePoller) SetInterval(seconds int) {
	p.seconds = seconds
	p.calls++
}

func (p *fakePoller) Interval() time.Duration {
	return time.Duration(p.seconds) * time.Second
}

type harness struct {
	app    *App
	board  *store.Store
	client *remote.MockClient
	ctrl   *optimistic.Controller
	timers []*fakeTimer
	poller *fakePoller
	saved  []int
	recent *recent.Store
}

func newHarness(t *testing.T, admin bool) *harness {
	t.Helper()
	h := &harness{
		board:  store.New(store.WithClock(func() time.Time { return baseDate })),
		client: remote.NewMockClient(),
		poller: &fakePoller{seconds: 10},
	}
	h.board.Reconcile([]domain.Issue{
		{ID: "1", Title: "Fix login bug", Status: domain.StatusBacklog, Priority: domain.PriorityHigh, Severity: 3, CreatedAt: baseDate, Assignee: "Alice", Tags: []string{"auth"}},
		{ID: "2", Title: "Improve dashboard", Status: domain.StatusInProgress, Priority: domain.PriorityMedium, Severity: 2, CreatedAt: baseDate, Assignee: "Bob"},
		{ID: "3", Title: "Update docs", Status: domain.StatusDone, Priority: domain.PriorityLow, Severity: 1, CreatedAt: baseDate},
	})

	notifier := NewNotifier()
	h.ctrl = optimistic.New(h.board, h.client,
		optimistic.WithAfterFunc(func(_ time.Duration, f func()) optimistic.Timer {
			tm := &fakeTimer{f: f}
			h.timers = append(h.timers, tm)
			return tm
		}),
		optimistic.WithClock(func() time.Time { return baseDate }),
		optimistic.OnCommitted(notifier.Committed),
		optimistic.OnRolledBack(notifier.RolledBack),
		optimistic.OnSuperseded(notifier.Superseded),
	)

	rs, err := recent.Open(filepath.Join(t.TempDir(), recent.FileName))
	if err != nil {
		t.Fatalf("open recent: %v", err)
	}
	h.recent = rs

	app, err := NewApp(Config{
		Store:    h.board,
		Mutator:  h.ctrl,
		Recent:   rs,
		Poller:   h.poller,
		Notifier: notifier,
		SavePollInterval: func(seconds int) error {
			h.saved = append(h.saved, seconds)
			return nil
		},
		Admin:        admin,
		OutputFormat: "plain",
		Version:      "test",
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(app.Close)
	app.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	h.app = app
	return h
}

func (h *harness) press(keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = h.app.Update(keyMsg(k))
	}
	return cmd
}

// drain delivers the next queued background notification to the model.
func (h *harness) drain(t *testing.T) {
	t.Helper()
	select {
	case msg := <-h.app.notifier.ch:
		h.app.Update(msg)
	default:
		t.Fatalf("expected a queued notification")
	}
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func columnIDs(column []domain.Issue) []string {
	return domain.IDs(column)
}

func TestNewAppRequiresStore(t *testing.T) {
	if _, err := NewApp(Config{}); err == nil {
		t.Fatalf("expected error without a store")
	}
}

func TestColumnsGroupIssuesByStatus(t *testing.T) {
	h := newHarness(t, true)
	want := [][]string{{"1"}, {"2"}, {"3"}}
	for i, column := range h.app.columns {
		got := columnIDs(column)
		if strings.Join(got, ",") != strings.Join(want[i], ",") {
			t.Fatalf("column %d: expected %v, got %v", i, want[i], got)
		}
	}
}

func TestMoveRight(t *testing.T) {
	t.Run("appliesOptimisticallyAndCommits", func(t *testing.T) {
		h := newHarness(t, true)
		h.press("L")

		iss, _ := h.board.Get("1")
		if iss.Status != domain.StatusInProgress {
			t.Fatalf("expected optimistic status In Progress, got %s", iss.Status)
		}
		if _, ok := h.app.pendingMutation(); !ok {
			t.Fatalf("expected a pending mutation")
		}
		if h.app.col != 1 {
			t.Fatalf("expected cursor to follow the issue, got column %d", h.app.col)
		}
		if len(h.timers) != 1 {
			t.Fatalf("expected one commit timer, got %d", len(h.timers))
		}

		h.timers[0].f()
		h.drain(t)

		if h.ctrl.LastOutcome() != optimistic.Committed {
			t.Fatalf("expected committed, got %s", h.ctrl.LastOutcome())
		}
		if len(h.app.toasts) != 1 || h.app.toasts[0].kind != toastSuccess {
			t.Fatalf("expected a success toast, got %+v", h.app.toasts)
		}
	})

	t.Run("failureRollsBackAndToasts", func(t *testing.T) {
		h := newHarness(t, true)
		h.client.UpdateFn = func(context.Context, string, domain.Patch) (domain.Issue, error) {
			return domain.Issue{}, errors.New("boom")
		}
		h.press("L")
		h.timers[0].f()
		h.drain(t)

		iss, _ := h.board.Get("1")
		if iss.Status != domain.StatusBacklog {
			t.Fatalf("expected rollback to Backlog, got %s", iss.Status)
		}
		if len(h.app.toasts) != 1 || h.app.toasts[0].text != "Something went wrong" {
			t.Fatalf("expected error toast, got %+v", h.app.toasts)
		}
	})

	t.Run("lastColumnIsNoop", func(t *testing.T) {
		h := newHarness(t, true)
		h.press("l", "l", "L")
		if len(h.timers) != 0 {
			t.Fatalf("expected no mutation from the last column")
		}
	})
}

func TestUndoRestoresBoard(t *testing.T) {
	h := newHarness(t, true)
	h.press("L", "u")

	iss, _ := h.board.Get("1")
	if iss.Status != domain.StatusBacklog {
		t.Fatalf("expected undo to restore Backlog, got %s", iss.Status)
	}
	if _, ok := h.app.pendingMutation(); ok {
		t.Fatalf("expected no pending mutation after undo")
	}
	if h.client.UpdateCallCount != 0 {
		t.Fatalf("undo must not reach the remote")
	}
	if h.app.col != 0 {
		t.Fatalf("expected cursor back on Backlog, got %d", h.app.col)
	}
}

func TestPriorityFilterCycles(t *testing.T) {
	h := newHarness(t, true)
	h.press("f")
	if h.app.filter.Priority != domain.PriorityLow {
		t.Fatalf("expected low filter, got %q", h.app.filter.Priority)
	}
	if len(h.app.columns[0]) != 0 || len(h.app.columns[2]) != 1 {
		t.Fatalf("unexpected filtered columns: %v", h.app.columns)
	}
	h.press("f", "f", "f")
	if h.app.filter.Priority != "" {
		t.Fatalf("expected filter to wrap to all, got %q", h.app.filter.Priority)
	}
}

func TestSearchFiltersColumns(t *testing.T) {
	h := newHarness(t, true)
	h.press("/")
	if !h.app.searching {
		t.Fatalf("expected search mode")
	}
	h.press("d", "a", "s", "h", "enter")
	if h.app.searching {
		t.Fatalf("expected enter to leave search mode")
	}
	if got := len(h.app.columns[0]) + len(h.app.columns[1]) + len(h.app.columns[2]); got != 1 {
		t.Fatalf("expected one match, got %d", got)
	}
	h.press("esc")
	if !h.app.filter.IsZero() {
		t.Fatalf("expected esc to clear the filter")
	}
}

func TestDetailView(t *testing.T) {
	t.Run("openRecordsRecent", func(t *testing.T) {
		h := newHarness(t, true)
		h.press("enter")
		if h.app.mode != viewDetail || h.app.detailID != "1" {
			t.Fatalf("expected detail for 1, got mode %d id %q", h.app.mode, h.app.detailID)
		}
		if ids := domain.IDs(h.recent.List()); len(ids) != 1 || ids[0] != "1" {
			t.Fatalf("expected recents [1], got %v", ids)
		}
		if !strings.Contains(ansi.Strip(h.app.View()), "Fix login bug") {
			t.Fatalf("detail view missing title")
		}
		h.press("esc")
		if h.app.mode != viewBoard {
			t.Fatalf("expected esc to return to the board")
		}
	})

	t.Run("adminResolves", func(t *testing.T) {
		h := newHarness(t, true)
		h.press("enter", "R")
		iss, _ := h.board.Get("1")
		if iss.Status != domain.StatusDone {
			t.Fatalf("expected Done, got %s", iss.Status)
		}
	})

	t.Run("adminCyclesPriority", func(t *testing.T) {
		h := newHarness(t, true)
		h.press("enter", "p")
		iss, _ := h.board.Get("1")
		if iss.Priority != domain.PriorityLow {
			t.Fatalf("expected high to cycle to low, got %s", iss.Priority)
		}
	})

	t.Run("viewerCannotEdit", func(t *testing.T) {
		h := newHarness(t, false)
		h.press("enter", "R", "p")
		iss, _ := h.board.Get("1")
		if iss.Status != domain.StatusBacklog || iss.Priority != domain.PriorityHigh {
			t.Fatalf("viewer edit leaked: %+v", iss)
		}
		if len(h.app.toasts) != 2 {
			t.Fatalf("expected two denial toasts, got %d", len(h.app.toasts))
		}
	})
}

func TestSettings(t *testing.T) {
	t.Run("rejectsOutOfRange", func(t *testing.T) {
		h := newHarness(t, true)
		h.press("S")
		h.app.settingsInput.SetValue("0")
		h.press("enter")
		if h.app.settingsErr == "" {
			t.Fatalf("expected a validation error")
		}
		if h.app.mode != viewSettings {
			t.Fatalf("expected to stay in settings")
		}
		if h.poller.calls != 0 || len(h.saved) != 0 {
			t.Fatalf("invalid interval must not reschedule or save")
		}
	})

	t.Run("rejectsNonNumeric", func(t *testing.T) {
		h := newHarness(t, true)
		h.press("S")
		h.app.settingsInput.SetValue("soon")
		h.press("enter")
		if h.app.settingsErr == "" {
			t.Fatalf("expected a validation error")
		}
	})

	t.Run("appliesAndSaves", func(t *testing.T) {
		h := newHarness(t, true)
		h.press("S")
		if got := h.app.settingsInput.Value(); got != "10" {
			t.Fatalf("expected current interval prefilled, got %q", got)
		}
		h.app.settingsInput.SetValue("30")
		h.press("enter")
		if h.poller.seconds != 30 || len(h.saved) != 1 || h.saved[0] != 30 {
			t.Fatalf("expected interval 30 applied and saved, got %d %v", h.poller.seconds, h.saved)
		}
		if h.app.mode != viewBoard {
			t.Fatalf("expected to return to the board")
		}
	})
}

func TestStoreChangesReachTheBoard(t *testing.T) {
	h := newHarness(t, true)
	if err := h.board.AddPending(domain.Issue{
		ID: "local-1000", Title: "New Issue #1000", Status: domain.StatusBacklog,
		Priority: domain.PriorityLow, Severity: 1, CreatedAt: baseDate, Local: true,
	}); err != nil {
		t.Fatalf("add pending: %v", err)
	}
	msg := waitForStoreChange(h.app.storeCh)()
	h.app.Update(msg)
	if len(h.app.columns[0]) != 1 {
		t.Fatalf("pending issue must stay hidden until reconcile, got %v", columnIDs(h.app.columns[0]))
	}
	if !strings.Contains(ansi.Strip(h.app.View()), "(1 pending)") {
		t.Fatalf("expected pending count in header")
	}

	h.board.Reconcile(nil)
	msg = waitForStoreChange(h.app.storeCh)()
	if _, ok := msg.(storeChangedMsg); !ok {
		t.Fatalf("expected storeChangedMsg, got %T", msg)
	}
	h.app.Update(msg)
	if len(h.app.columns[0]) != 2 {
		t.Fatalf("expected the reconciled issue on the board, got %v", columnIDs(h.app.columns[0]))
	}
}

func TestPollFailureToasts(t *testing.T) {
	h := newHarness(t, true)
	h.app.notifier.PollFailed(errors.New("offline"))
	h.drain(t)
	if len(h.app.toasts) != 1 || h.app.toasts[0].text != "Failed to load issues" {
		t.Fatalf("expected load failure toast, got %+v", h.app.toasts)
	}
	h.app.Update(toastExpiredMsg{id: h.app.toasts[0].id})
	if len(h.app.toasts) != 0 {
		t.Fatalf("expected toast to expire")
	}
}

func TestViewRendersBoard(t *testing.T) {
	h := newHarness(t, true)
	h.press("L")
	out := ansi.Strip(h.app.View())
	for _, want := range []string{"ISSUEBOARD vtest", "Backlog (0)", "In Progress (2)", "Undo", "Improve dashboard"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}

func TestViewBeforeSize(t *testing.T) {
	board := store.New()
	app, err := NewApp(Config{Store: board})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer app.Close()
	if got := app.View(); got != "Initializing..." {
		t.Fatalf("expected placeholder, got %q", got)
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2025, 8, 31, 12, 0, 0, 0, time.UTC)
	orig := timeNow
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = orig })

	cases := []struct {
		in   time.Time
		want string
	}{
		{time.Time{}, ""},
		{now.Add(-10 * time.Second), "now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-2 * 24 * time.Hour), "2d ago"},
		{now.Add(-30 * 24 * time.Hour), "Aug 1"},
		{time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC), "Mar '23"},
	}
	for _, tc := range cases {
		if got := FormatRelativeTime(tc.in); got != tc.want {
			t.Fatalf("FormatRelativeTime(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestManualRefresh(t *testing.T) {
	h := newHarness(t, true)
	calls := 0
	h.app.refresh = func(context.Context) error {
		calls++
		return errors.New("offline")
	}

	if cmd := h.press("r"); cmd == nil {
		t.Fatalf("expected a refresh command")
	}
	if !h.app.refreshInFlight {
		t.Fatalf("expected refresh to be in flight")
	}
	if !strings.Contains(ansi.Strip(h.app.View()), "syncing") {
		t.Fatalf("expected syncing indicator")
	}
	if cmd := h.press("r"); cmd != nil {
		t.Fatalf("second refresh must wait for the first")
	}

	h.app.Update(refreshCmd(h.app.refresh)())
	if calls != 1 {
		t.Fatalf("expected one refresh call, got %d", calls)
	}
	if h.app.refreshInFlight {
		t.Fatalf("expected refresh to complete")
	}
	if len(h.app.toasts) != 1 || h.app.toasts[0].kind != toastError {
		t.Fatalf("expected an error toast, got %+v", h.app.toasts)
	}
}
