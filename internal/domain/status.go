package domain

import "strings"

// Status represents the board column an issue lives in.
type Status string

const (
	StatusUnknown    Status = ""
	StatusBacklog    Status = "Backlog"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// Statuses lists the board columns in display order.
var Statuses = []Status{StatusBacklog, StatusInProgress, StatusDone}

var statusAliases = map[string]Status{
	"backlog":     StatusBacklog,
	"in progress": StatusInProgress,
	"in_progress": StatusInProgress,
	"inprogress":  StatusInProgress,
	"done":        StatusDone,
}

// ParseStatus normalises and validates an incoming status string.
func ParseStatus(raw string) (Status, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return StatusUnknown, invalidStatusError("blank")
	}
	status, ok := statusAliases[key]
	if !ok {
		return StatusUnknown, invalidStatusError(raw)
	}
	return status, nil
}

// Validate ensures the status is one of the board columns.
func (s Status) Validate() error {
	for _, known := range Statuses {
		if s == known {
			return nil
		}
	}
	return invalidStatusError(string(s))
}

// IsTerminal reports whether the status represents a finished issue.
func (s Status) IsTerminal() bool {
	return s == StatusDone
}

// Index returns the column position of s, or -1 when unknown.
func (s Status) Index() int {
	for i, known := range Statuses {
		if s == known {
			return i
		}
	}
	return -1
}

// Next returns the column to the right, clamping at the last column.
func (s Status) Next() Status {
	idx := s.Index()
	if idx < 0 || idx >= len(Statuses)-1 {
		return s
	}
	return Statuses[idx+1]
}

// Prev returns the column to the left, clamping at the first column.
func (s Status) Prev() Status {
	idx := s.Index()
	if idx <= 0 {
		return s
	}
	return Statuses[idx-1]
}

// CanTransitionTo verifies whether a move to the target column is allowed.
// Any valid column can be reached from any other by dragging.
func (s Status) CanTransitionTo(target Status) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return target.Validate()
}
