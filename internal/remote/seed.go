package remote

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"issueboard/internal/domain"
)

// seedFile is the on-disk fixture format:
//
//	issues:
//	  - id: "1"
//	    title: Fix login bug
//	    status: Backlog
//	    priority: high
//	    severity: 3
//	    createdAt: 2025-08-29T10:00:00Z
//	    assignee: alice
//	    tags: [auth, bug]
type seedFile struct {
	Issues []seedIssue `yaml:"issues"`
}

type seedIssue struct {
	ID        string   `yaml:"id"`
	Title     string   `yaml:"title"`
	Status    string   `yaml:"status"`
	Priority  string   `yaml:"priority"`
	Severity  int      `yaml:"severity"`
	CreatedAt string   `yaml:"createdAt"`
	DaysAgo   *int     `yaml:"daysAgo"`
	Assignee  string   `yaml:"assignee"`
	Tags      []string `yaml:"tags"`
}

// LoadSeedFile reads issue fixtures from a YAML file. Entries may give either
// an absolute createdAt (RFC 3339) or a relative daysAgo measured from now.
func LoadSeedFile(path string, now time.Time) ([]domain.Issue, error) {
	//nolint:gosec // G304: seed path comes from the operator's command line
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data, now)
}

// ParseSeed decodes YAML fixtures; see LoadSeedFile.
func ParseSeed(data []byte, now time.Time) ([]domain.Issue, error) {
	var file seedFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}

	out := make([]domain.Issue, 0, len(file.Issues))
	for idx, raw := range file.Issues {
		iss, err := raw.toIssue(now)
		if err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", idx, err)
		}
		if err := iss.Validate(); err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", idx, err)
		}
		out = append(out, iss)
	}
	return out, nil
}

func (s seedIssue) toIssue(now time.Time) (domain.Issue, error) {
	status, err := domain.ParseStatus(s.Status)
	if err != nil {
		return domain.Issue{}, err
	}
	priority, err := domain.ParsePriority(s.Priority)
	if err != nil {
		return domain.Issue{}, err
	}
	created := now
	switch {
	case s.CreatedAt != "":
		created, err = time.Parse(time.RFC3339, s.CreatedAt)
		if err != nil {
			return domain.Issue{}, fmt.Errorf("createdAt: %w", err)
		}
	case s.DaysAgo != nil:
		created = now.Add(-time.Duration(*s.DaysAgo) * 24 * time.Hour)
	}
	return domain.Issue{
		ID:        s.ID,
		Title:     s.Title,
		Status:    status,
		Priority:  priority,
		Severity:  s.Severity,
		CreatedAt: created,
		Assignee:  s.Assignee,
		Tags:      append([]string(nil), s.Tags...),
	}, nil
}

// DefaultSeed is the demo data set used when no fixture file is given.
func DefaultSeed(now time.Time) []domain.Issue {
	daysAgo := func(d int) time.Time { return now.Add(-time.Duration(d) * 24 * time.Hour) }
	return []domain.Issue{
		{ID: "1", Title: "Fix login bug", Status: domain.StatusBacklog, Priority: domain.PriorityHigh, Severity: 3, CreatedAt: daysAgo(2), Assignee: "alice", Tags: []string{"auth", "bug"}},
		{ID: "2", Title: "Improve dashboard loading", Status: domain.StatusInProgress, Priority: domain.PriorityMedium, Severity: 2, CreatedAt: daysAgo(6), Assignee: "bob", Tags: []string{"performance"}},
		{ID: "3", Title: "Add dark mode", Status: domain.StatusDone, Priority: domain.PriorityLow, Severity: 1, CreatedAt: daysAgo(11), Assignee: "carol", Tags: []string{"ui"}},
		{ID: "4", Title: "Crash when exporting CSV", Status: domain.StatusBacklog, Priority: domain.PriorityHigh, Severity: 5, CreatedAt: daysAgo(1), Assignee: "dave", Tags: []string{"bug", "export"}},
		{ID: "5", Title: "Document API rate limits", Status: domain.StatusInProgress, Priority: domain.PriorityLow, Severity: 2, CreatedAt: daysAgo(3), Assignee: "erin", Tags: []string{"docs"}},
		{ID: "6", Title: "Flaky notification tests", Status: domain.StatusBacklog, Priority: domain.PriorityMedium, Severity: 3, CreatedAt: daysAgo(9), Assignee: "frank", Tags: []string{"tests", "ci"}},
	}
}
