package domain

import "strings"

// Filter narrows the issues shown in a column. Search matches title,
// assignee or any tag as a case-insensitive substring; an empty Priority
// matches every priority.
type Filter struct {
	Search   string
	Priority Priority
}

// IsZero reports whether the filter lets everything through.
func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Search) == "" && f.Priority == ""
}

// Matches reports whether issue passes the filter.
func (f Filter) Matches(issue Issue) bool {
	if f.Priority != "" && issue.Priority != f.Priority {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(issue.Title), term) ||
		strings.Contains(strings.ToLower(issue.Assignee), term) {
		return true
	}
	for _, tag := range issue.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// Column returns the issues in status that pass the filter, preserving order.
func (f Filter) Column(issues []Issue, status Status) []Issue {
	var out []Issue
	for _, iss := range issues {
		if iss.Status == status && f.Matches(iss) {
			out = append(out, iss)
		}
	}
	return out
}
