// Package store owns the board's authoritative issue list.
//
// Three writers share one Store: the poll loop folds remote snapshots in via
// Reconcile, the synthetic writer and local edits queue records with
// AddPending, and the optimistic controller writes straight into the
// authoritative list with Apply and undoes itself with Restore. Every
// operation runs under the store's lock, so readers never observe the pending
// buffer cleared without the merged list published, or the reverse.
package store

import (
	"fmt"
	"sync"
	"time"

	"issueboard/internal/debug"
	"issueboard/internal/domain"
	appErrors "issueboard/internal/errors"
	"issueboard/internal/scoring"
)

// ChangeReason says which operation produced a Change.
type ChangeReason string

const (
	ChangeReconciled ChangeReason = "reconciled"
	ChangePending    ChangeReason = "pending"
	ChangeApplied    ChangeReason = "applied"
	ChangeRestored   ChangeReason = "restored"
	ChangeRanked     ChangeReason = "ranked"
)

// Change is delivered to subscribers after the store was modified.
type Change struct {
	Reason ChangeReason
	At     time.Time
}

// Store holds the authoritative list, the pending-local buffer and the time
// of the last reconciliation.
type Store struct {
	mu             sync.RWMutex
	issues         []domain.Issue
	pending        []domain.Issue
	pendingIdx     map[string]int
	lastReconciled time.Time
	rankBias       int
	now            func() time.Time

	subMu  sync.Mutex
	subs   map[int]chan Change
	nextID int
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the wall clock used for scoring and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRankBias sets the additive term passed to the scoring function.
func WithRankBias(bias int) Option {
	return func(s *Store) {
		s.rankBias = bias
	}
}

// WithIssues seeds the authoritative list, e.g. from a first fetch.
func WithIssues(issues []domain.Issue) Option {
	return func(s *Store) {
		s.issues = domain.CloneAll(issues)
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		pendingIdx: make(map[string]int),
		rankBias:   scoring.DefaultRankBias,
		now:        time.Now,
		subs:       make(map[int]chan Change),
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.issues) > 0 {
		s.issues = scoring.SortIssuesAt(dedupe(s.issues), s.rankBias, s.now())
	}
	return s
}

// Reconcile merges the pending buffer and the remote snapshot into the
// authoritative list and publishes the result.
//
// Entries in the pending buffer replace authoritative entries with the same
// id. Remote entries only contribute ids the board does not hold yet; values
// for ids already on the board are left alone so optimistic edits survive
// until they are confirmed or rolled back. The union is scored and ordered,
// the buffer is cleared, and the reconciliation time is stamped, all in one
// critical section.
func (s *Store) Reconcile(remote []domain.Issue) []domain.Issue {
	s.mu.Lock()
	pendingCount := len(s.pending)

	merged := make([]domain.Issue, 0, len(s.issues)+len(s.pending)+len(remote))
	seen := make(map[string]struct{}, cap(merged))
	for _, iss := range s.issues {
		if _, overridden := s.pendingIdx[iss.ID]; overridden {
			continue
		}
		merged = append(merged, iss)
		seen[iss.ID] = struct{}{}
	}
	for _, iss := range s.pending {
		merged = append(merged, iss)
		seen[iss.ID] = struct{}{}
	}
	added := 0
	for _, iss := range remote {
		if _, ok := seen[iss.ID]; ok {
			continue
		}
		merged = append(merged, iss)
		seen[iss.ID] = struct{}{}
		added++
	}

	s.issues = scoring.SortIssuesAt(merged, s.rankBias, s.now())
	s.pending = nil
	s.pendingIdx = make(map[string]int)
	s.lastReconciled = s.now()
	out := domain.CloneAll(s.issues)
	at := s.lastReconciled
	s.mu.Unlock()

	debug.Logf("store: reconciled %d issues (%d pending, %d new remote)", len(out), pendingCount, added)
	s.notify(Change{Reason: ChangeReconciled, At: at})
	return out
}

// AddPending queues a locally created or edited issue for the next
// reconciliation. A second entry for the same id replaces the first but
// keeps its position in the buffer.
func (s *Store) AddPending(issue domain.Issue) error {
	if err := issue.Validate(); err != nil {
		return appErrors.New(appErrors.CodeValidation, "rejected pending issue", err)
	}
	s.mu.Lock()
	if idx, ok := s.pendingIdx[issue.ID]; ok {
		s.pending[idx] = issue.Clone()
	} else {
		s.pendingIdx[issue.ID] = len(s.pending)
		s.pending = append(s.pending, issue.Clone())
	}
	size := len(s.pending)
	s.mu.Unlock()

	debug.Logf("store: queued %s (%d pending)", issue.ID, size)
	s.notify(Change{Reason: ChangePending, At: s.now()})
	return nil
}

// Apply writes patch directly into the authoritative list, bypassing the
// pending buffer. It returns the issue before and after the change.
func (s *Store) Apply(id string, patch domain.Patch) (domain.Issue, domain.Issue, error) {
	_, before, after, err := s.apply(id, patch, false)
	return before, after, err
}

// ApplyWithSnapshot behaves like Apply but also returns a deep copy of the
// authoritative list as it was immediately before the patch. Both happen
// under one write lock, so no reconcile can land in between.
func (s *Store) ApplyWithSnapshot(id string, patch domain.Patch) ([]domain.Issue, domain.Issue, domain.Issue, error) {
	return s.apply(id, patch, true)
}

func (s *Store) apply(id string, patch domain.Patch, withSnapshot bool) ([]domain.Issue, domain.Issue, domain.Issue, error) {
	if err := patch.Validate(); err != nil {
		return nil, domain.Issue{}, domain.Issue{}, appErrors.New(appErrors.CodeValidation, "rejected patch for "+id, err)
	}
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil, domain.Issue{}, domain.Issue{}, appErrors.New(appErrors.CodeNotFound, fmt.Sprintf("issue %s not on board", id), nil)
	}
	var snapshot []domain.Issue
	if withSnapshot {
		snapshot = domain.CloneAll(s.issues)
	}
	before := s.issues[idx].Clone()
	after := patch.Apply(before)
	s.issues[idx] = after
	s.mu.Unlock()

	debug.Logf("store: applied %s to %s", patch, id)
	s.notify(Change{Reason: ChangeApplied, At: s.now()})
	return snapshot, before, after.Clone(), nil
}

// Snapshot returns a deep copy of the authoritative list.
func (s *Store) Snapshot() []domain.Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := domain.CloneAll(s.issues)
	if out == nil {
		out = []domain.Issue{}
	}
	return out
}

// Restore replaces the authoritative list with snapshot. The pending buffer
// is left alone.
func (s *Store) Restore(snapshot []domain.Issue) {
	s.mu.Lock()
	s.issues = domain.CloneAll(snapshot)
	s.mu.Unlock()

	debug.Logf("store: restored snapshot of %d issues", len(snapshot))
	s.notify(Change{Reason: ChangeRestored, At: s.now()})
}

// Issues returns a copy of the authoritative list in display order.
func (s *Store) Issues() []domain.Issue {
	return s.Snapshot()
}

// Pending returns a copy of the pending buffer in insertion order.
func (s *Store) Pending() []domain.Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneAll(s.pending)
}

// Get looks an issue up in the authoritative list.
func (s *Store) Get(id string) (domain.Issue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Issue{}, false
	}
	return s.issues[idx].Clone(), true
}

// LastReconciled reports when Reconcile last completed; zero before the first.
func (s *Store) LastReconciled() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastReconciled
}

// RankBias returns the bias passed to the scoring function.
func (s *Store) RankBias() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rankBias
}

// SetRankBias changes the bias and re-ranks the authoritative list.
func (s *Store) SetRankBias(bias int) {
	s.mu.Lock()
	s.rankBias = bias
	s.issues = scoring.SortIssuesAt(s.issues, bias, s.now())
	s.mu.Unlock()

	s.notify(Change{Reason: ChangeRanked, At: s.now()})
}

// Subscribe returns a channel that receives a Change after every mutation.
// Notifications coalesce: a slow reader sees at least the latest change.
// The returned func unsubscribes and closes the channel.
func (s *Store) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, 1)
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) notify(change Change) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- change:
		default:
			// Drop the stale notification and keep the newest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- change:
			default:
			}
		}
	}
}

func (s *Store) indexOf(id string) int {
	for i := range s.issues {
		if s.issues[i].ID == id {
			return i
		}
	}
	return -1
}

func dedupe(issues []domain.Issue) []domain.Issue {
	seen := make(map[string]struct{}, len(issues))
	out := issues[:0:0]
	for _, iss := range issues {
		if _, ok := seen[iss.ID]; ok {
			continue
		}
		seen[iss.ID] = struct{}{}
		out = append(out, iss)
	}
	return out
}
