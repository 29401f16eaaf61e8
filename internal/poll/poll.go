// Package poll runs a refresh callback on a reconfigurable fixed period.
package poll

import (
	"context"
	"sync"
	"time"

	"issueboard/internal/debug"
)

// DefaultIntervalSeconds is the period used until SetInterval is called.
const DefaultIntervalSeconds = 10

// Timer is the subset of *time.Timer the scheduler needs.
type Timer interface {
	Stop() bool
}

// TimerFunc arms a one-shot timer that calls f after d.
type TimerFunc func(d time.Duration, f func()) Timer

func realTimer(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTimerFunc replaces time.AfterFunc, mainly for tests.
func WithTimerFunc(fn TimerFunc) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.after = fn
		}
	}
}

// WithIntervalSeconds sets the initial period; values <= 0 start disabled.
func WithIntervalSeconds(seconds int) Option {
	return func(s *Scheduler) {
		s.interval = secondsToDuration(seconds)
	}
}

// OnError receives every callback error. Errors never stop the scheduler.
func OnError(fn func(error)) Option {
	return func(s *Scheduler) {
		s.onError = fn
	}
}

// Scheduler invokes its callback every interval until stopped.
//
// The next tick is armed only after the current callback returns, and a
// cycle lock serializes callbacks across re-arms, so cycles never overlap.
type Scheduler struct {
	fn      func(context.Context) error
	after   TimerFunc
	onError func(error)

	mu       sync.Mutex
	interval time.Duration
	timer    Timer
	gen      uint64
	ctx      context.Context
	started  bool
	stopped  bool

	cycleMu sync.Mutex
}

// New creates a scheduler for fn. Nothing runs until Start.
func New(fn func(context.Context) error, opts ...Option) *Scheduler {
	s := &Scheduler{
		fn:       fn,
		after:    realTimer,
		interval: secondsToDuration(DefaultIntervalSeconds),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start arms the first tick one full interval from now. The scheduler stops
// when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.ctx = ctx
	s.armLocked()
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// SetInterval cancels the pending tick and arms a new one a full period
// later. It never fires immediately. seconds <= 0 disables polling until a
// positive value is set.
func (s *Scheduler) SetInterval(seconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.interval = secondsToDuration(seconds)
	s.cancelLocked()
	if s.started && !s.stopped {
		s.armLocked()
	}
	if s.interval > 0 {
		debug.Logf("poll: interval set to %s", s.interval)
	} else {
		debug.Log("poll: disabled")
	}
}

// Interval returns the current period; zero means disabled.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// Stop cancels the pending tick. A callback already running finishes, but no
// further tick is armed.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	s.cancelLocked()
}

func (s *Scheduler) armLocked() {
	s.gen++
	if s.interval <= 0 {
		return
	}
	gen := s.gen
	s.timer = s.after(s.interval, func() { s.tick(gen) })
}

func (s *Scheduler) cancelLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) tick(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.stopped {
		s.mu.Unlock()
		return
	}
	ctx := s.ctx
	s.mu.Unlock()

	s.cycleMu.Lock()
	err := s.fn(ctx)
	s.cycleMu.Unlock()

	if err != nil {
		debug.Logf("poll: cycle failed: %v", err)
		if s.onError != nil {
			s.onError(err)
		}
	}

	s.mu.Lock()
	if gen == s.gen && !s.stopped {
		s.armLocked()
	}
	s.mu.Unlock()
}

func secondsToDuration(seconds int) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
