package scoring

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"issueboard/internal/domain"
)

var baseDate = time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC)

func fixtureIssues() []domain.Issue {
	return []domain.Issue{
		{
			ID:        "1",
			Title:     "Fix login bug",
			Status:    domain.StatusBacklog,
			Priority:  domain.PriorityHigh,
			Severity:  3,
			CreatedAt: time.Date(2025, 8, 29, 10, 0, 0, 0, time.UTC), // 1.58 days -> 1
			Assignee:  "alice",
			Tags:      []string{"auth", "bug"},
		},
		{
			ID:        "2",
			Title:     "Improve dashboard loading",
			Status:    domain.StatusInProgress,
			Priority:  domain.PriorityMedium,
			Severity:  2,
			CreatedAt: time.Date(2025, 8, 25, 12, 0, 0, 0, time.UTC),
			Assignee:  "bob",
			Tags:      []string{"performance"},
		},
		{
			ID:        "3",
			Title:     "Add dark mode",
			Status:    domain.StatusDone,
			Priority:  domain.PriorityLow,
			Severity:  1,
			CreatedAt: time.Date(2025, 8, 20, 9, 30, 0, 0, time.UTC),
			Assignee:  "carol",
			Tags:      []string{"ui"},
		},
	}
}

// daysAgo builds issues at exact whole-day offsets so expected scores are exact.
func daysAgoIssues() []domain.Issue {
	issues := fixtureIssues()
	issues[0].CreatedAt = baseDate.Add(-2 * day)
	issues[1].CreatedAt = baseDate.Add(-6 * day)
	issues[2].CreatedAt = baseDate.Add(-11 * day)
	return issues
}

func scores(issues []domain.Issue) []int {
	out := make([]int, len(issues))
	for i, iss := range issues {
		out[i] = iss.Score
	}
	return out
}

func TestSortIssuesDefaultRankBias(t *testing.T) {
	sorted := SortIssuesAt(daysAgoIssues(), DefaultRankBias, baseDate)

	if diff := cmp.Diff([]string{"1", "2", "3"}, domain.IDs(sorted)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{29, 15, 0}, scores(sorted)); diff != "" {
		t.Fatalf("score mismatch (-want +got):\n%s", diff)
	}
}

func TestSortIssuesCustomRankBias(t *testing.T) {
	sorted := SortIssuesAt(daysAgoIssues(), 5, baseDate)

	if diff := cmp.Diff([]string{"1", "2", "3"}, domain.IDs(sorted)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{33, 19, 4}, scores(sorted)); diff != "" {
		t.Fatalf("score mismatch (-want +got):\n%s", diff)
	}
}

func TestScoreFormula(t *testing.T) {
	iss := daysAgoIssues()[1] // severity 2, six days old
	for _, bias := range []int{DefaultRankBias, 42, -7} {
		want := 2*10 - 6 + bias
		if got := Score(iss, bias, baseDate); got != want {
			t.Errorf("Score(bias=%d) = %d, want %d", bias, got, want)
		}
	}
}

func TestDaysSinceTruncatesPartialDays(t *testing.T) {
	cases := []struct {
		name    string
		created time.Time
		want    int
	}{
		{"same instant", baseDate, 0},
		{"23h ago", baseDate.Add(-23 * time.Hour), 0},
		{"exactly one day", baseDate.Add(-day), 1},
		{"1.58 days", time.Date(2025, 8, 29, 10, 0, 0, 0, time.UTC), 1},
		{"future partial day", baseDate.Add(time.Hour), -1},
		{"future whole day", baseDate.Add(day), -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DaysSince(tc.created, baseDate); got != tc.want {
				t.Fatalf("DaysSince = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestSortIssuesAddsScoreToEveryIssue(t *testing.T) {
	for _, iss := range SortIssuesAt(fixtureIssues(), DefaultRankBias, baseDate) {
		if iss.Score != Score(iss, DefaultRankBias, baseDate) {
			t.Fatalf("issue %s carries stale score %d", iss.ID, iss.Score)
		}
	}
}

func TestSortIssuesEmpty(t *testing.T) {
	sorted := SortIssuesAt(nil, DefaultRankBias, baseDate)
	if sorted == nil || len(sorted) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", sorted)
	}
	if got := SortIssues([]domain.Issue{}, DefaultRankBias); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestSortIssuesDoesNotMutateInput(t *testing.T) {
	input := fixtureIssues()
	before := fixtureIssues()

	sorted := SortIssuesAt(input, DefaultRankBias, baseDate)
	sorted[0].Tags[0] = "mutated"
	sorted[0].Title = "mutated"

	if &sorted[0] == &input[0] {
		t.Fatalf("expected a new backing array")
	}
	if diff := cmp.Diff(before, input); diff != "" {
		t.Fatalf("input mutated (-before +after):\n%s", diff)
	}
}

func TestSortIssuesIsPermutation(t *testing.T) {
	input := append(fixtureIssues(), daysAgoIssues()...)
	for i := range input {
		input[i].ID = input[i].ID + "-" + string(rune('a'+i))
	}
	sorted := SortIssuesAt(input, 3, baseDate)

	if len(sorted) != len(input) {
		t.Fatalf("length changed: %d -> %d", len(input), len(sorted))
	}
	seen := make(map[string]int)
	for _, iss := range sorted {
		seen[iss.ID]++
	}
	for _, iss := range input {
		if seen[iss.ID] != 1 {
			t.Fatalf("id %s appears %d times", iss.ID, seen[iss.ID])
		}
	}
}

func TestSortIssuesIdempotent(t *testing.T) {
	once := SortIssuesAt(fixtureIssues(), DefaultRankBias, baseDate)
	twice := SortIssuesAt(once, DefaultRankBias, baseDate)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("second sort changed result (-once +twice):\n%s", diff)
	}
}

func TestSortIssuesStableTieBreak(t *testing.T) {
	tied := []domain.Issue{
		{ID: "b", Severity: 2, CreatedAt: baseDate},
		{ID: "a", Severity: 2, CreatedAt: baseDate},
		{ID: "top", Severity: 5, CreatedAt: baseDate},
		{ID: "c", Severity: 2, CreatedAt: baseDate},
	}
	got := domain.IDs(SortIssuesAt(tied, DefaultRankBias, baseDate))
	if diff := cmp.Diff([]string{"top", "b", "a", "c"}, got); diff != "" {
		t.Fatalf("tie order mismatch (-want +got):\n%s", diff)
	}
}
