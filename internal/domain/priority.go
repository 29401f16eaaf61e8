package domain

import "strings"

// Priority expresses scheduling urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists the supported priorities from least to most urgent.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority normalises and validates a priority string.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if err := p.Validate(); err != nil {
		return "", invalidPriorityError(raw)
	}
	return p, nil
}

// Validate ensures the priority is one of the supported values.
func (p Priority) Validate() error {
	for _, known := range Priorities {
		if p == known {
			return nil
		}
	}
	return invalidPriorityError(string(p))
}

// Cycle returns the next priority, wrapping from high back to low.
func (p Priority) Cycle() Priority {
	for i, known := range Priorities {
		if p == known {
			return Priorities[(i+1)%len(Priorities)]
		}
	}
	return PriorityLow
}
