package domain

import "testing"

func TestStatusValidate(t *testing.T) {
	for _, status := range Statuses {
		if err := status.Validate(); err != nil {
			t.Errorf("expected %q to be valid, got error: %v", status, err)
		}
	}

	invalid := []Status{StatusUnknown, Status("invalid"), Status("in_progress")}
	for _, status := range invalid {
		if err := status.Validate(); err == nil {
			t.Errorf("expected %q to be invalid", status)
		}
	}
}

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{
		"Backlog":     StatusBacklog,
		" backlog ":   StatusBacklog,
		"In Progress": StatusInProgress,
		"in_progress": StatusInProgress,
		"DONE":        StatusDone,
	}

	for raw, expected := range cases {
		got, err := ParseStatus(raw)
		if err != nil {
			t.Fatalf("ParseStatus(%q) returned error: %v", raw, err)
		}
		if got != expected {
			t.Fatalf("ParseStatus(%q) = %q, want %q", raw, got, expected)
		}
	}

	for _, raw := range []string{"", "closed", "todo"} {
		if _, err := ParseStatus(raw); err == nil {
			t.Fatalf("expected ParseStatus(%q) to return error", raw)
		}
	}
}

func TestStatusNeighbours(t *testing.T) {
	cases := []struct {
		status Status
		prev   Status
		next   Status
	}{
		{StatusBacklog, StatusBacklog, StatusInProgress},
		{StatusInProgress, StatusBacklog, StatusDone},
		{StatusDone, StatusInProgress, StatusDone},
	}
	for _, tc := range cases {
		if got := tc.status.Prev(); got != tc.prev {
			t.Errorf("%q.Prev() = %q, want %q", tc.status, got, tc.prev)
		}
		if got := tc.status.Next(); got != tc.next {
			t.Errorf("%q.Next() = %q, want %q", tc.status, got, tc.next)
		}
	}
	if StatusUnknown.Next() != StatusUnknown {
		t.Errorf("unknown status should not move")
	}
}

func TestCanTransitionTo(t *testing.T) {
	for _, from := range Statuses {
		for _, to := range Statuses {
			if err := from.CanTransitionTo(to); err != nil {
				t.Fatalf("expected move %q -> %q to be allowed: %v", from, to, err)
			}
		}
	}
	if err := StatusBacklog.CanTransitionTo(Status("archived")); err == nil {
		t.Fatalf("expected move to unknown column to be rejected")
	}
}

func TestPriorityParseAndCycle(t *testing.T) {
	if p, err := ParsePriority(" HIGH "); err != nil || p != PriorityHigh {
		t.Fatalf("ParsePriority(HIGH) = %q, %v", p, err)
	}
	if _, err := ParsePriority("urgent"); err == nil {
		t.Fatalf("expected error for unknown priority")
	}
	if PriorityLow.Cycle() != PriorityMedium || PriorityMedium.Cycle() != PriorityHigh || PriorityHigh.Cycle() != PriorityLow {
		t.Fatalf("unexpected priority cycle order")
	}
}
