package domain

import (
	"slices"
	"strings"
	"time"
)

const (
	MinSeverity = 1
	MaxSeverity = 5

	// LocalIDPrefix is reserved for issues created on this client so their ids
	// never collide with ids assigned by the remote.
	LocalIDPrefix = "local-"
)

// Issue is a single record on the board.
//
// Score is derived by the scoring package on every sort and is never
// persisted; it is only meaningful on values returned from a sort.
type Issue struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Status    Status    `json:"status" yaml:"status"`
	Priority  Priority  `json:"priority" yaml:"priority"`
	Severity  int       `json:"severity" yaml:"severity"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	Assignee  string    `json:"assignee" yaml:"assignee"`
	Tags      []string  `json:"tags" yaml:"tags"`
	Local     bool      `json:"isLocal,omitempty" yaml:"-"`

	Score int `json:"-" yaml:"-"`
}

// Validate checks the record against the board's data rules.
func (i Issue) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return invalidIssueError("issue id is required", nil)
	}
	if err := i.Status.Validate(); err != nil {
		return invalidIssueError("issue "+i.ID+": bad status", err)
	}
	if err := i.Priority.Validate(); err != nil {
		return invalidIssueError("issue "+i.ID+": bad priority", err)
	}
	if i.Severity < MinSeverity || i.Severity > MaxSeverity {
		return invalidIssueError("issue "+i.ID+": bad severity", invalidSeverityError(i.Severity))
	}
	return nil
}

// Clone returns a deep copy so callers never share the tags backing array.
func (i Issue) Clone() Issue {
	if i.Tags != nil {
		i.Tags = slices.Clone(i.Tags)
	}
	return i
}

// HasTag reports whether the issue carries tag, ignoring case.
func (i Issue) HasTag(tag string) bool {
	needle := strings.ToLower(strings.TrimSpace(tag))
	for _, t := range i.Tags {
		if strings.ToLower(t) == needle {
			return true
		}
	}
	return false
}

// IsLocalID reports whether id lives in the client-reserved namespace.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

// CloneAll deep-copies a slice of issues. A nil input yields nil.
func CloneAll(issues []Issue) []Issue {
	if issues == nil {
		return nil
	}
	out := make([]Issue, len(issues))
	for idx, iss := range issues {
		out[idx] = iss.Clone()
	}
	return out
}

// IDs returns the ids of issues in order.
func IDs(issues []Issue) []string {
	ids := make([]string, len(issues))
	for idx, iss := range issues {
		ids[idx] = iss.ID
	}
	return ids
}
