package remote

import (
	"context"
	"errors"
	"sync"

	"issueboard/internal/domain"
)

// ErrMockNotImplemented is returned when a MockClient method lacks an override.
var ErrMockNotImplemented = errors.New("remote.MockClient: method not implemented")

// MockClient is a test double for Client.
type MockClient struct {
	FetchAllFn func(context.Context) ([]domain.Issue, error)
	UpdateFn   func(context.Context, string, domain.Patch) (domain.Issue, error)

	mu              sync.Mutex
	FetchCallCount  int
	UpdateCallCount int
	UpdateCallArgs  []UpdateCallArg
}

// UpdateCallArg captures arguments passed to Update.
type UpdateCallArg struct {
	ID    string
	Patch domain.Patch
}

// NewMockClient returns a MockClient with zeroed handlers.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// FetchAll invokes the configured stub or returns ErrMockNotImplemented.
func (m *MockClient) FetchAll(ctx context.Context) ([]domain.Issue, error) {
	m.mu.Lock()
	m.FetchCallCount++
	m.mu.Unlock()

	if m.FetchAllFn == nil {
		return nil, ErrMockNotImplemented
	}
	return m.FetchAllFn(ctx)
}

// Update invokes the configured stub or echoes the id back (no-op by default).
func (m *MockClient) Update(ctx context.Context, id string, patch domain.Patch) (domain.Issue, error) {
	m.mu.Lock()
	m.UpdateCallCount++
	m.UpdateCallArgs = append(m.UpdateCallArgs, UpdateCallArg{ID: id, Patch: patch})
	m.mu.Unlock()

	if m.UpdateFn == nil {
		return domain.Issue{ID: id}, nil // Default to no-op for tests
	}
	return m.UpdateFn(ctx, id, patch)
}

// Updates returns a copy of the recorded Update calls.
func (m *MockClient) Updates() []UpdateCallArg {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]UpdateCallArg(nil), m.UpdateCallArgs...)
}
