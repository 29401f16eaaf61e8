// Package optimistic applies local edits to the board immediately and
// confirms them with the remote after a commit window.
//
// A mutation moves Idle -> Applied -> Committing and ends in exactly one of
// Committed, RolledBack or Superseded, after which the controller is Idle
// again. Only one mutation is in flight per controller: starting a new one
// abandons the previous one, whose late confirm result is then ignored.
package optimistic

import (
	"context"
	"fmt"
	"sync"
	"time"

	"issueboard/internal/debug"
	"issueboard/internal/domain"
	appErrors "issueboard/internal/errors"
	"issueboard/internal/remote"
	"issueboard/internal/telemetry"
)

// DefaultCommitDelay is how long an edit stays undoable before it is sent.
const DefaultCommitDelay = 5 * time.Second

// State is the controller's position in the mutation lifecycle.
type State int

const (
	Idle State = iota
	Applied
	Committing
	Committed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Applied:
		return "applied"
	case Committing:
		return "committing"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled back"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Board is the part of the reconciliation store the controller writes to.
type Board interface {
	// ApplyWithSnapshot patches one issue and returns a copy of the list as
	// it stood just before, taken under the same lock as the write.
	ApplyWithSnapshot(id string, patch domain.Patch) ([]domain.Issue, domain.Issue, domain.Issue, error)
	Restore(snapshot []domain.Issue)
}

// Mutation describes one optimistic edit.
type Mutation struct {
	ID         string
	Patch      domain.Patch
	Before     domain.Issue
	After      domain.Issue
	AppliedAt  time.Time
	CommitAt   time.Time
	Generation uint64
}

// Timer is the subset of *time.Timer the controller needs.
type Timer interface {
	Stop() bool
}

// AfterFunc arms a one-shot timer.
type AfterFunc func(d time.Duration, f func()) Timer

type inflight struct {
	mutation Mutation
	snapshot []domain.Issue
	state    State
	timer    Timer
}

// Controller runs the apply/commit/rollback protocol against a Board.
type Controller struct {
	board   Board
	updater remote.Updater
	delay   time.Duration
	after   AfterFunc
	now     func() time.Time
	ctx     context.Context

	onCommitted  func(Mutation, domain.Issue)
	onRolledBack func(Mutation, error)
	onSuperseded func(Mutation)

	mu      sync.Mutex
	current *inflight
	gen     uint64
	last    State
}

// Option configures a Controller.
type Option func(*Controller)

// WithCommitDelay sets the commit window.
func WithCommitDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.delay = d
		}
	}
}

// WithAfterFunc replaces time.AfterFunc, mainly for tests.
func WithAfterFunc(fn AfterFunc) Option {
	return func(c *Controller) {
		if fn != nil {
			c.after = fn
		}
	}
}

// WithClock overrides the clock used to stamp mutations.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithContext sets the context passed to remote confirms.
func WithContext(ctx context.Context) Option {
	return func(c *Controller) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

// OnCommitted is called after the remote confirmed a mutation.
func OnCommitted(fn func(Mutation, domain.Issue)) Option {
	return func(c *Controller) { c.onCommitted = fn }
}

// OnRolledBack is called after the board was restored. err is the update
// error, or nil when the user undid the edit.
func OnRolledBack(fn func(Mutation, error)) Option {
	return func(c *Controller) { c.onRolledBack = fn }
}

// OnSuperseded is called when a newer mutation abandons an older one.
func OnSuperseded(fn func(Mutation)) Option {
	return func(c *Controller) { c.onSuperseded = fn }
}

// New creates a controller writing to board and confirming through updater.
func New(board Board, updater remote.Updater, opts ...Option) *Controller {
	c := &Controller{
		board:   board,
		updater: updater,
		delay:   DefaultCommitDelay,
		after: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		now: time.Now,
		ctx: context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Begin applies patch to issue id right away and arms the commit timer. Any
// mutation still in flight is superseded.
func (c *Controller) Begin(id string, patch domain.Patch) (Mutation, error) {
	if err := patch.Validate(); err != nil {
		return Mutation{}, appErrors.New(appErrors.CodeValidation, "rejected edit for "+id, err)
	}

	c.mu.Lock()
	snapshot, before, after, err := c.board.ApplyWithSnapshot(id, patch)
	if err != nil {
		c.mu.Unlock()
		return Mutation{}, err
	}

	var superseded *Mutation
	if prev := c.current; prev != nil {
		prev.timer.Stop()
		m := prev.mutation
		superseded = &m
	}

	c.gen++
	now := c.now()
	m := Mutation{
		ID:         id,
		Patch:      patch,
		Before:     before,
		After:      after,
		AppliedAt:  now,
		CommitAt:   now.Add(c.delay),
		Generation: c.gen,
	}
	gen := c.gen
	c.current = &inflight{
		mutation: m,
		snapshot: snapshot,
		state:    Applied,
		timer:    c.after(c.delay, func() { c.commit(gen) }),
	}
	c.mu.Unlock()

	if superseded != nil {
		debug.Logf("optimistic: %s on %s superseded by %s on %s", superseded.Patch, superseded.ID, patch, id)
		telemetry.RecordRollback(c.ctx, "superseded")
		if c.onSuperseded != nil {
			c.onSuperseded(*superseded)
		}
	}
	debug.Logf("optimistic: applied %s to %s, commit in %s", patch, id, c.delay)
	return m, nil
}

// Undo restores the board to the snapshot of the mutation in flight. It
// reports false when nothing is pending.
func (c *Controller) Undo() (Mutation, bool) {
	c.mu.Lock()
	cur := c.current
	if cur == nil {
		c.mu.Unlock()
		return Mutation{}, false
	}
	cur.timer.Stop()
	c.board.Restore(cur.snapshot)
	c.current = nil
	c.gen++
	c.last = RolledBack
	c.mu.Unlock()

	debug.Logf("optimistic: undid %s on %s", cur.mutation.Patch, cur.mutation.ID)
	telemetry.RecordRollback(c.ctx, "undo")
	if c.onRolledBack != nil {
		c.onRolledBack(cur.mutation, nil)
	}
	return cur.mutation, true
}

// State reports Applied or Committing while a mutation is in flight, Idle
// otherwise.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Idle
	}
	return c.current.state
}

// LastOutcome returns the terminal state of the most recently finished
// mutation, or Idle when none has finished.
func (c *Controller) LastOutcome() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Pending returns the mutation in flight, if any.
func (c *Controller) Pending() (Mutation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Mutation{}, false
	}
	return c.current.mutation, true
}

// Stop cancels the commit timer of the mutation in flight without restoring
// or confirming it.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		c.current.timer.Stop()
		c.current = nil
		c.gen++
	}
}

func (c *Controller) commit(gen uint64) {
	c.mu.Lock()
	cur := c.current
	if cur == nil || cur.mutation.Generation != gen || cur.state != Applied {
		c.mu.Unlock()
		return
	}
	cur.state = Committing
	m := cur.mutation
	c.mu.Unlock()

	debug.Logf("optimistic: confirming %s on %s", m.Patch, m.ID)
	result, err := c.updater.Update(c.ctx, m.ID, m.Patch)

	c.mu.Lock()
	if c.current != cur {
		c.mu.Unlock()
		debug.Logf("optimistic: dropped late confirm for %s (generation %d)", m.ID, gen)
		return
	}
	c.current = nil
	c.last = Committed
	if err != nil {
		c.board.Restore(cur.snapshot)
		c.last = RolledBack
	}
	c.mu.Unlock()

	if err != nil {
		if !appErrors.IsUpdate(err) {
			err = appErrors.Update(m.ID, err)
		}
		debug.Logf("optimistic: rolled back %s on %s: %v", m.Patch, m.ID, err)
		telemetry.RecordRollback(c.ctx, "error")
		if c.onRolledBack != nil {
			c.onRolledBack(m, err)
		}
		return
	}

	debug.Logf("optimistic: committed %s on %s", m.Patch, m.ID)
	telemetry.RecordCommit(c.ctx, patchField(m.Patch))
	if c.onCommitted != nil {
		c.onCommitted(m, result)
	}
}

func patchField(p domain.Patch) string {
	switch {
	case p.Status != nil && p.Priority != nil:
		return "status,priority"
	case p.Status != nil:
		return "status"
	default:
		return "priority"
	}
}
