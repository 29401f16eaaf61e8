package store

import (
	"context"

	"issueboard/internal/debug"
	"issueboard/internal/domain"
	appErrors "issueboard/internal/errors"
	"issueboard/internal/remote"
	"issueboard/internal/telemetry"
)

// Refresher runs one poll cycle: fetch the remote snapshot, then reconcile.
type Refresher struct {
	store   *Store
	fetcher remote.Fetcher
}

// NewRefresher binds a store to the collaborator it refreshes from.
func NewRefresher(s *Store, fetcher remote.Fetcher) *Refresher {
	return &Refresher{store: s, fetcher: fetcher}
}

// Refresh fetches the remote issue set and reconciles it into the store.
// A failed fetch leaves the store untouched and returns a fetch error; the
// next scheduled cycle is the only retry.
func (r *Refresher) Refresh(ctx context.Context) ([]domain.Issue, error) {
	remoteIssues, err := r.fetcher.FetchAll(ctx)
	if err != nil {
		telemetry.RecordFetchError(ctx)
		debug.Logf("store: refresh failed: %v", err)
		if !appErrors.IsFetch(err) {
			err = appErrors.Fetch(err)
		}
		return nil, err
	}
	pending := len(r.store.Pending())
	merged := r.store.Reconcile(remoteIssues)
	telemetry.RecordReconcile(ctx, len(merged), pending)
	return merged, nil
}

// Cycle adapts Refresh to the poll scheduler's callback signature.
func (r *Refresher) Cycle(ctx context.Context) error {
	_, err := r.Refresh(ctx)
	return err
}
