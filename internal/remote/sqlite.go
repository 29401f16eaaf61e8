package remote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"issueboard/internal/debug"
	"issueboard/internal/domain"

	_ "modernc.org/sqlite" // Pure Go SQLite driver, WAL-friendly
)

const schema = `
CREATE TABLE IF NOT EXISTS issues (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	status     TEXT NOT NULL,
	priority   TEXT NOT NULL,
	severity   INTEGER NOT NULL CHECK (severity BETWEEN 1 AND 5),
	created_at TEXT NOT NULL,
	assignee   TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS issue_tags (
	issue_id TEXT NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	tag      TEXT NOT NULL,
	PRIMARY KEY (issue_id, position)
);`

// SQLiteClient stores the remote issue set in a SQLite database file.
type SQLiteClient struct {
	dbPath string
	db     *sql.DB
}

// OpenSQLite opens (creating if needed) the database at dbPath and applies
// the schema.
func OpenSQLite(ctx context.Context, dbPath string) (*SQLiteClient, error) {
	trimmed := strings.TrimSpace(dbPath)
	if trimmed == "" {
		return nil, fmt.Errorf("sqlite remote requires a database path")
	}
	db, err := sql.Open("sqlite", buildSQLiteDSN(trimmed))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteClient{dbPath: trimmed, db: db}, nil
}

// buildSQLiteDSN creates a WAL DSN for the given path.
func buildSQLiteDSN(dbPath string) string {
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(dbPath),
	}
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(3000)")
	q.Add("_pragma", "foreign_keys(1)")
	u.RawQuery = q.Encode()
	return u.String()
}

// Path returns the database file backing the client.
func (c *SQLiteClient) Path() string {
	return c.dbPath
}

// Close releases the database handle.
func (c *SQLiteClient) Close() error {
	return c.db.Close()
}

// FetchAll loads every issue with its tags, ordered by creation time.
func (c *SQLiteClient) FetchAll(ctx context.Context) ([]domain.Issue, error) {
	issues, err := c.loadIssues(ctx, c.db)
	if err != nil {
		return nil, fetchError(err)
	}
	return issues, nil
}

// Update applies patch to the stored issue inside a transaction.
func (c *SQLiteClient) Update(ctx context.Context, id string, patch domain.Patch) (domain.Issue, error) {
	if err := patch.Validate(); err != nil {
		return domain.Issue{}, updateError(id, err)
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Issue{}, updateError(id, fmt.Errorf("begin tx: %w", err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	current, err := loadIssue(ctx, tx, id)
	if errors.Is(err, ErrNotFound) && domain.IsLocalID(id) {
		return patch.Apply(domain.Issue{ID: id, Local: true}), nil
	}
	if err != nil {
		return domain.Issue{}, updateError(id, err)
	}
	next := patch.Apply(current)
	if _, err := tx.ExecContext(ctx,
		`UPDATE issues SET status = ?, priority = ? WHERE id = ?`,
		string(next.Status), string(next.Priority), id,
	); err != nil {
		return domain.Issue{}, updateError(id, fmt.Errorf("update issue: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return domain.Issue{}, updateError(id, fmt.Errorf("commit: %w", err))
	}
	debug.Logf("sqlite remote: updated %s (%s)", id, patch)
	return next, nil
}

// Seed inserts or replaces issues, including their tags.
func (c *SQLiteClient) Seed(ctx context.Context, issues []domain.Issue) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, iss := range issues {
		if err := iss.Validate(); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO issues (id, title, status, priority, severity, created_at, assignee)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title = excluded.title,
				status = excluded.status,
				priority = excluded.priority,
				severity = excluded.severity,
				created_at = excluded.created_at,
				assignee = excluded.assignee`,
			iss.ID, iss.Title, string(iss.Status), string(iss.Priority), iss.Severity,
			iss.CreatedAt.UTC().Format(time.RFC3339Nano), iss.Assignee,
		); err != nil {
			return fmt.Errorf("insert issue %s: %w", iss.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM issue_tags WHERE issue_id = ?`, iss.ID); err != nil {
			return fmt.Errorf("clear tags %s: %w", iss.ID, err)
		}
		for pos, tag := range iss.Tags {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO issue_tags (issue_id, position, tag) VALUES (?, ?, ?)`,
				iss.ID, pos, tag,
			); err != nil {
				return fmt.Errorf("insert tag %s/%s: %w", iss.ID, tag, err)
			}
		}
	}
	return tx.Commit()
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (c *SQLiteClient) loadIssues(ctx context.Context, q queryer) ([]domain.Issue, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, title, status, priority, severity, created_at, assignee
		FROM issues ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query issues: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ordered []domain.Issue
	index := make(map[string]int)
	for rows.Next() {
		iss, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		index[iss.ID] = len(ordered)
		ordered = append(ordered, iss)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := loadTags(ctx, q, func(id, tag string) {
		if idx, ok := index[id]; ok {
			ordered[idx].Tags = append(ordered[idx].Tags, tag)
		}
	}); err != nil {
		return nil, err
	}
	return ordered, nil
}

func loadIssue(ctx context.Context, q queryer, id string) (domain.Issue, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, title, status, priority, severity, created_at, assignee
		FROM issues WHERE id = ?`, id)
	if err != nil {
		return domain.Issue{}, fmt.Errorf("query issue: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.Issue{}, err
		}
		return domain.Issue{}, ErrNotFound
	}
	iss, err := scanIssue(rows)
	if err != nil {
		return domain.Issue{}, err
	}
	_ = rows.Close()

	tagRows, err := q.QueryContext(ctx, `SELECT tag FROM issue_tags WHERE issue_id = ? ORDER BY position`, id)
	if err != nil {
		return domain.Issue{}, fmt.Errorf("query tags: %w", err)
	}
	defer func() {
		_ = tagRows.Close()
	}()
	for tagRows.Next() {
		var tag string
		if err := tagRows.Scan(&tag); err != nil {
			return domain.Issue{}, fmt.Errorf("scan tag: %w", err)
		}
		iss.Tags = append(iss.Tags, tag)
	}
	return iss, tagRows.Err()
}

func scanIssue(rows *sql.Rows) (domain.Issue, error) {
	var (
		iss              domain.Issue
		status, priority string
		createdAt        string
	)
	if err := rows.Scan(&iss.ID, &iss.Title, &status, &priority, &iss.Severity, &createdAt, &iss.Assignee); err != nil {
		return domain.Issue{}, fmt.Errorf("scan issue: %w", err)
	}
	iss.Status = domain.Status(status)
	iss.Priority = domain.Priority(priority)
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return domain.Issue{}, fmt.Errorf("parse created_at for %s: %w", iss.ID, err)
	}
	iss.CreatedAt = ts
	return iss, nil
}

func loadTags(ctx context.Context, q queryer, add func(id, tag string)) error {
	rows, err := q.QueryContext(ctx, `SELECT issue_id, tag FROM issue_tags ORDER BY issue_id, position`)
	if err != nil {
		return fmt.Errorf("query tags: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()
	for rows.Next() {
		var id, tag string
		if err := rows.Scan(&id, &tag); err != nil {
			return fmt.Errorf("scan tag: %w", err)
		}
		add(id, tag)
	}
	return rows.Err()
}
