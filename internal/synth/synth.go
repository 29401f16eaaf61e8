// Package synth manufactures issues in the background so the board's merge
// path is exercised without a user at the keyboard.
package synth

import (
	"context"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"issueboard/internal/debug"
	"issueboard/internal/domain"
	"issueboard/internal/telemetry"
)

const (
	DefaultInterval     = 10 * time.Second
	DefaultChance       = 0.5
	DefaultCounterStart = 1000

	Assignee = "Bot generated issue"
)

// Tags are attached to every synthetic issue.
var Tags = []string{"auto", "generated"}

// Sink receives new issues. The reconciliation store's AddPending satisfies it.
type Sink interface {
	AddPending(issue domain.Issue) error
}

// Writer queues a random issue on each tick with a fixed probability.
type Writer struct {
	sink     Sink
	interval time.Duration
	chance   float64
	now      func() time.Time

	mu      sync.Mutex
	rng     *rand.Rand
	counter int
}

// Option configures a Writer.
type Option func(*Writer)

func WithInterval(d time.Duration) Option {
	return func(w *Writer) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithChance sets the per-tick probability, clamped to [0, 1].
func WithChance(p float64) Option {
	return func(w *Writer) {
		w.chance = min(max(p, 0), 1)
	}
}

func WithRand(r *rand.Rand) Option {
	return func(w *Writer) {
		if r != nil {
			w.rng = r
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *Writer) {
		if now != nil {
			w.now = now
		}
	}
}

// WithCounterStart sets the first local id number. It must sit above any
// number the session has already handed out.
func WithCounterStart(n int) Option {
	return func(w *Writer) {
		w.counter = n
	}
}

// New creates a writer feeding sink.
func New(sink Sink, opts ...Option) *Writer {
	w := &Writer{
		sink:     sink,
		interval: DefaultInterval,
		chance:   DefaultChance,
		now:      time.Now,
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		counter:  DefaultCounterStart,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run ticks until ctx is done.
func (w *Writer) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, _, err := w.Tick(); err != nil {
				debug.Logf("synth: %v", err)
			}
		}
	}
}

// Tick performs one step. It reports the issue and whether one was created.
func (w *Writer) Tick() (domain.Issue, bool, error) {
	w.mu.Lock()
	if w.rng.Float64() >= w.chance {
		w.mu.Unlock()
		return domain.Issue{}, false, nil
	}
	issue := w.nextLocked()
	w.mu.Unlock()

	if err := w.sink.AddPending(issue); err != nil {
		return domain.Issue{}, false, err
	}
	debug.Logf("synth: queued %s", issue.ID)
	telemetry.RecordSynthetic(context.Background())
	return issue, true, nil
}

func (w *Writer) nextLocked() domain.Issue {
	n := strconv.Itoa(w.counter)
	w.counter++
	return domain.Issue{
		ID:        domain.LocalIDPrefix + n,
		Title:     "New Issue #" + n,
		Status:    domain.Statuses[w.rng.IntN(len(domain.Statuses))],
		Priority:  domain.Priorities[w.rng.IntN(len(domain.Priorities))],
		Severity:  domain.MinSeverity + w.rng.IntN(domain.MaxSeverity-domain.MinSeverity+1),
		CreatedAt: w.now(),
		Assignee:  Assignee,
		Tags:      append([]string(nil), Tags...),
		Local:     true,
	}
}
