package remote

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"issueboard/internal/debug"
	"issueboard/internal/domain"
)

const (
	DefaultMockLatency     = 500 * time.Millisecond
	DefaultMockFailureRate = 0.1
)

// MockAPI is an in-memory remote that simulates network latency and random
// failures. It stands in for a real tracker when no database is configured.
type MockAPI struct {
	mu          sync.Mutex
	issues      []domain.Issue
	latency     time.Duration
	failureRate float64
	rng         *rand.Rand
}

// MockAPIOption configures a MockAPI.
type MockAPIOption func(*MockAPI)

// WithLatency sets the simulated round-trip time.
func WithLatency(d time.Duration) MockAPIOption {
	return func(m *MockAPI) {
		if d >= 0 {
			m.latency = d
		}
	}
}

// WithFailureRate sets the probability (0..1) that a call fails.
func WithFailureRate(rate float64) MockAPIOption {
	return func(m *MockAPI) {
		switch {
		case rate < 0:
			m.failureRate = 0
		case rate > 1:
			m.failureRate = 1
		default:
			m.failureRate = rate
		}
	}
}

// WithRand overrides the random source, mainly for tests.
func WithRand(rng *rand.Rand) MockAPIOption {
	return func(m *MockAPI) {
		if rng != nil {
			m.rng = rng
		}
	}
}

// NewMockAPI builds a mock remote holding a copy of seed.
func NewMockAPI(seed []domain.Issue, opts ...MockAPIOption) *MockAPI {
	m := &MockAPI{
		issues:      domain.CloneAll(seed),
		latency:     DefaultMockLatency,
		failureRate: DefaultMockFailureRate,
		rng:         rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x1b0a4d)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FetchAll returns a copy of every issue after the simulated delay.
func (m *MockAPI) FetchAll(ctx context.Context) ([]domain.Issue, error) {
	if err := m.roundTrip(ctx); err != nil {
		return nil, fetchError(err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.CloneAll(m.issues), nil
}

// Update patches the stored issue. Ids in the local namespace that the remote
// has never seen are acknowledged without being stored.
func (m *MockAPI) Update(ctx context.Context, id string, patch domain.Patch) (domain.Issue, error) {
	if err := patch.Validate(); err != nil {
		return domain.Issue{}, updateError(id, err)
	}
	if err := m.roundTrip(ctx); err != nil {
		return domain.Issue{}, updateError(id, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.issues {
		if m.issues[i].ID == id {
			m.issues[i] = patch.Apply(m.issues[i])
			debug.Logf("mock api: updated %s (%s)", id, patch)
			return m.issues[i].Clone(), nil
		}
	}
	if domain.IsLocalID(id) {
		return patch.Apply(domain.Issue{ID: id, Local: true}), nil
	}
	return domain.Issue{}, updateError(id, ErrNotFound)
}

// Insert adds or replaces an issue without latency; used by seeding and tests.
func (m *MockAPI) Insert(issue domain.Issue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.issues {
		if m.issues[i].ID == issue.ID {
			m.issues[i] = issue.Clone()
			return
		}
	}
	m.issues = append(m.issues, issue.Clone())
}

func (m *MockAPI) roundTrip(ctx context.Context) error {
	m.mu.Lock()
	latency := m.latency
	fail := m.failureRate > 0 && m.rng.Float64() < m.failureRate
	m.mu.Unlock()

	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}
	if fail {
		return fmt.Errorf("simulated failure: %w", ErrUnavailable)
	}
	return nil
}
