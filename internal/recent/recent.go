// Package recent keeps the last few issues the user opened, persisted as a
// small JSON file so the sidebar survives restarts.
package recent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"

	"issueboard/internal/debug"
	"issueboard/internal/domain"
)

// Capacity is the number of entries kept; the oldest is evicted first.
const Capacity = 5

// FileName is the default file name under the config directory.
const FileName = "recent.json"

// Store is a bounded, duplicate-free list of viewed issues, oldest first.
type Store struct {
	path string

	mu      sync.Mutex
	entries []domain.Issue

	subMu  sync.Mutex
	subs   map[int]chan struct{}
	nextID int
}

// Open loads path if it exists. A missing file yields an empty store; a
// corrupt file is logged and treated as empty.
func Open(path string) (*Store, error) {
	s := &Store{path: path, subs: make(map[int]chan struct{})}
	if path == "" {
		return s, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create recent dir: %w", err)
	}
	if _, err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file, empty for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

// Add records issue as viewed. An id already in the list is left where it
// is and Add reports false.
func (s *Store) Add(issue domain.Issue) (bool, error) {
	s.mu.Lock()
	for _, e := range s.entries {
		if e.ID == issue.ID {
			s.mu.Unlock()
			return false, nil
		}
	}
	entry := issue.Clone()
	entry.Score = 0
	entries := append(domain.CloneAll(s.entries), entry)
	if len(entries) > Capacity {
		entries = entries[len(entries)-Capacity:]
	}
	if err := s.persist(entries); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.entries = entries
	s.mu.Unlock()

	debug.Logf("recent: added %s", issue.ID)
	s.notify()
	return true, nil
}

// List returns the entries, oldest first.
func (s *Store) List() []domain.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := domain.CloneAll(s.entries)
	if out == nil {
		out = []domain.Issue{}
	}
	return out
}

// Subscribe returns a channel signalled after every change. The returned
// func unsubscribes.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
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

func (s *Store) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Store) persist(entries []domain.Issue) error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode recent issues: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

// reload re-reads the backing file and reports whether the list changed.
func (s *Store) reload() (bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return s.replace(nil), nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", s.path, err)
	}
	var entries []domain.Issue
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &entries); err != nil {
			debug.Logf("recent: ignoring invalid %s: %v", s.path, err)
			return false, nil
		}
	}
	if len(entries) > Capacity {
		entries = entries[len(entries)-Capacity:]
	}
	return s.replace(entries), nil
}

func (s *Store) replace(entries []domain.Issue) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sameIDs(s.entries, entries) {
		return false
	}
	s.entries = entries
	return true
}

func sameIDs(a, b []domain.Issue) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Title != b[i].Title || a[i].Status != b[i].Status {
			return false
		}
	}
	return true
}
