// Package scoring ranks issues for display.
//
// The score of an issue is
//
//	severity*10 - daysSinceCreated + rankBias
//
// where daysSinceCreated counts whole elapsed days (partial days round down).
// Higher scores sort first. Ties keep their input order.
package scoring

import (
	"slices"
	"time"

	"issueboard/internal/domain"
)

// DefaultRankBias is used when callers have no preference.
const DefaultRankBias = 1

const day = 24 * time.Hour

// DaysSince returns the whole days elapsed between createdAt and now,
// rounding toward negative infinity.
func DaysSince(createdAt, now time.Time) int {
	elapsed := now.Sub(createdAt)
	days := int(elapsed / day)
	if elapsed < 0 && elapsed%day != 0 {
		days--
	}
	return days
}

// Score computes the display priority of issue at the instant now.
func Score(issue domain.Issue, rankBias int, now time.Time) int {
	return issue.Severity*10 - DaysSince(issue.CreatedAt, now) + rankBias
}

// SortIssues scores and orders issues against the current wall clock.
func SortIssues(issues []domain.Issue, rankBias int) []domain.Issue {
	return SortIssuesAt(issues, rankBias, time.Now())
}

// SortIssuesAt returns a new slice holding a scored copy of every issue,
// ordered by descending score. The input slice and its elements are left
// untouched; an empty input yields an empty, non-nil slice.
func SortIssuesAt(issues []domain.Issue, rankBias int, now time.Time) []domain.Issue {
	scored := make([]domain.Issue, len(issues))
	for i, iss := range issues {
		cp := iss.Clone()
		cp.Score = Score(iss, rankBias, now)
		scored[i] = cp
	}
	slices.SortStableFunc(scored, func(a, b domain.Issue) int {
		return b.Score - a.Score
	})
	return scored
}
