package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"issueboard/internal/debug"
	"issueboard/internal/domain"
	"issueboard/internal/optimistic"
	"issueboard/internal/recent"
	"issueboard/internal/store"
)

const (
	minColumnWidth     = 18
	sidebarWidth       = 30
	toastDuration      = 5 * time.Second
	errorToastDuration = 8 * time.Second
)

type viewMode int

const (
	viewBoard viewMode = iota
	viewDetail
	viewSettings
)

// IntervalSetter is the part of the poll scheduler the settings view drives.
type IntervalSetter interface {
	SetInterval(seconds int)
	Interval() time.Duration
}

// Config wires the board to the core components.
type Config struct {
	Store    *store.Store
	Mutator  *optimistic.Controller
	Recent   *recent.Store
	Poller   IntervalSetter
	Notifier *Notifier

	// Refresh runs one poll cycle on demand.
	Refresh func(context.Context) error
	// SavePollInterval validates and persists a new poll interval.
	SavePollInterval func(seconds int) error

	Admin        bool
	OutputFormat string
	Version      string
}

// App implements the Bubble Tea model for the issue board.
type App struct {
	store    *store.Store
	mutator  *optimistic.Controller
	recents  *recent.Store
	poller   IntervalSetter
	notifier *Notifier
	refresh  func(context.Context) error
	savePoll func(int) error

	storeCh     <-chan store.Change
	unsubStore  func()
	recentCh    <-chan struct{}
	unsubRecent func()

	keys    KeyMap
	mode    viewMode
	issues  []domain.Issue
	columns [][]domain.Issue
	col     int
	rows    []int

	filter      domain.Filter
	searchInput textinput.Model
	searching   bool

	detailID   string
	viewport   viewport.Model
	renderMD   func(string) string
	outputFmt  string
	copiedID   string
	recentList []domain.Issue

	settingsInput textinput.Model
	settingsErr   string

	spin            spinner.Model
	showSidebar     bool
	toasts          []toast
	nextToastID     int
	undoTicking     bool
	refreshInFlight bool
	admin           bool
	version         string

	width  int
	height int
	ready  bool
}

// NewApp creates the board model. Subscriptions are opened immediately and
// released by Close.
func NewApp(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("ui: store is required")
	}

	search := textinput.New()
	search.Placeholder = "title, assignee or tag"
	search.Prompt = "/"

	settings := textinput.New()
	settings.Placeholder = "seconds (1-100)"
	settings.Prompt = "Poll interval: "
	settings.CharLimit = 3

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styleStatsDim

	m := &App{
		store:         cfg.Store,
		mutator:       cfg.Mutator,
		recents:       cfg.Recent,
		poller:        cfg.Poller,
		notifier:      cfg.Notifier,
		refresh:       cfg.Refresh,
		savePoll:      cfg.SavePollInterval,
		keys:          DefaultKeyMap(),
		searchInput:   search,
		settingsInput: settings,
		spin:          spin,
		outputFmt:     cfg.OutputFormat,
		admin:         cfg.Admin,
		version:       cfg.Version,
		rows:          make([]int, len(domain.Statuses)),
		showSidebar:   cfg.Recent != nil,
	}
	m.storeCh, m.unsubStore = cfg.Store.Subscribe()
	if cfg.Recent != nil {
		m.recentCh, m.unsubRecent = cfg.Recent.Subscribe()
		m.recentList = cfg.Recent.List()
	}
	m.reload()
	return m, nil
}

// Close releases the store and recency subscriptions.
func (m *App) Close() {
	if m.unsubStore != nil {
		m.unsubStore()
	}
	if m.unsubRecent != nil {
		m.unsubRecent()
	}
}

func (m *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		waitForStoreChange(m.storeCh),
		waitForRecentChange(m.recentCh),
		m.notifier.listen(),
	}
	return tea.Batch(cmds...)
}

func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.viewport.Width = max(msg.Width-4, minColumnWidth)
		m.viewport.Height = max(msg.Height-6, 3)
		m.renderMD = buildMarkdownRenderer(m.outputFmt, max(m.viewport.Width-2, 10))
		m.updateDetailContent()
		return m, nil

	case storeChangedMsg:
		m.reload()
		return m, waitForStoreChange(m.storeCh)

	case recentChangedMsg:
		if m.recents != nil {
			m.recentList = m.recents.List()
		}
		return m, waitForRecentChange(m.recentCh)

	case committedMsg:
		return m, tea.Batch(m.notifier.listen(),
			m.pushToast(toastSuccess, fmt.Sprintf("Saved %s: %s", msg.mutation.ID, msg.mutation.Patch), toastDuration))

	case rolledBackMsg:
		cmds := []tea.Cmd{m.notifier.listen()}
		if msg.err != nil {
			debug.Logf("ui: rollback for %s: %v", msg.mutation.ID, msg.err)
			cmds = append(cmds, m.pushToast(toastError, "Something went wrong", errorToastDuration))
		}
		return m, tea.Batch(cmds...)

	case supersededMsg:
		return m, m.notifier.listen()

	case pollFailedMsg:
		return m, tea.Batch(m.notifier.listen(),
			m.pushToast(toastError, "Failed to load issues", errorToastDuration))

	case refreshCompleteMsg:
		m.refreshInFlight = false
		if msg.err != nil {
			return m, m.pushToast(toastError, "Failed to load issues", errorToastDuration)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.refreshInFlight {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case toastExpiredMsg:
		m.dropToast(msg.id)
		return m, nil

	case undoTickMsg:
		if _, pending := m.pendingMutation(); pending {
			return m, scheduleUndoTick()
		}
		m.undoTicking = false
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			return m, m.pushToast(toastError, "Copy failed: "+msg.err.Error(), errorToastDuration)
		}
		m.copiedID = msg.id
		return m, m.pushToast(toastInfo, fmt.Sprintf("Copied '%s' to clipboard.", msg.id), toastDuration)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) && msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case viewDetail:
			return m.updateDetail(msg)
		case viewSettings:
			return m.updateSettings(msg)
		default:
			return m.updateBoard(msg)
		}

	default:
		if m.mode == viewDetail {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// reload pulls a fresh snapshot from the store and rebuilds the columns.
func (m *App) reload() {
	m.issues = m.store.Issues()
	m.rebuildColumns()
	if m.mode == viewDetail {
		m.updateDetailContent()
	}
}

func (m *App) rebuildColumns() {
	m.columns = make([][]domain.Issue, len(domain.Statuses))
	for i, status := range domain.Statuses {
		m.columns[i] = m.filter.Column(m.issues, status)
	}
	m.clampCursor()
}

func (m *App) clampCursor() {
	m.col = clamp(m.col, 0, len(domain.Statuses)-1)
	for i := range m.rows {
		m.rows[i] = clamp(m.rows[i], 0, max(len(m.columns[i])-1, 0))
	}
}

// selected returns the issue under the cursor.
func (m *App) selected() (domain.Issue, bool) {
	if m.col >= len(m.columns) {
		return domain.Issue{}, false
	}
	column := m.columns[m.col]
	row := m.rows[m.col]
	if row < 0 || row >= len(column) {
		return domain.Issue{}, false
	}
	return column[row], true
}

// focusIssue moves the cursor onto id, following it across columns.
func (m *App) focusIssue(id string) {
	for c, column := range m.columns {
		for r, iss := range column {
			if iss.ID == id {
				m.col = c
				m.rows[c] = r
				return
			}
		}
	}
}

func (m *App) pendingMutation() (optimistic.Mutation, bool) {
	if m.mutator == nil {
		return optimistic.Mutation{}, false
	}
	return m.mutator.Pending()
}

// beginMutation starts an optimistic edit and arms the undo banner ticker.
func (m *App) beginMutation(id string, patch domain.Patch) tea.Cmd {
	if m.mutator == nil {
		return nil
	}
	if _, err := m.mutator.Begin(id, patch); err != nil {
		return m.pushToast(toastError, err.Error(), errorToastDuration)
	}
	m.reload()
	m.focusIssue(id)
	if m.undoTicking {
		return nil
	}
	m.undoTicking = true
	return scheduleUndoTick()
}

func (m *App) undo() tea.Cmd {
	if m.mutator == nil {
		return nil
	}
	mutation, ok := m.mutator.Undo()
	if !ok {
		return nil
	}
	m.reload()
	m.focusIssue(mutation.ID)
	return m.pushToast(toastInfo, "Undid change to "+mutation.ID, toastDuration)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}
