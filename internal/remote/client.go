// Package remote holds the collaborators that own the authoritative copy of
// the issue set: a SQLite database, an in-memory mock API and a test double.
package remote

import (
	"context"

	"issueboard/internal/domain"
)

// Fetcher reads the full remote issue set.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]domain.Issue, error)
}

// Updater applies a partial update to one remote issue and returns the
// stored result.
type Updater interface {
	Update(ctx context.Context, id string, patch domain.Patch) (domain.Issue, error)
}

// Client combines both directions.
type Client interface {
	Fetcher
	Updater
}
