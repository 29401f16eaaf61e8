package domain

// Patch is the partial set of fields sent to the remote for an update.
// Nil fields are left unchanged.
type Patch struct {
	Status   *Status   `json:"status,omitempty"`
	Priority *Priority `json:"priority,omitempty"`
}

// StatusPatch builds a patch that only moves the issue to status.
func StatusPatch(status Status) Patch {
	return Patch{Status: &status}
}

// PriorityPatch builds a patch that only changes the priority.
func PriorityPatch(priority Priority) Patch {
	return Patch{Priority: &priority}
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Status == nil && p.Priority == nil
}

// Validate checks every field the patch sets.
func (p Patch) Validate() error {
	if p.IsEmpty() {
		return invalidIssueError("patch changes no fields", nil)
	}
	if p.Status != nil {
		if err := p.Status.Validate(); err != nil {
			return err
		}
	}
	if p.Priority != nil {
		if err := p.Priority.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Apply returns a copy of issue with the patch fields written over it.
func (p Patch) Apply(issue Issue) Issue {
	out := issue.Clone()
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	return out
}

// String renders the patch for logs and notifications.
func (p Patch) String() string {
	switch {
	case p.Status != nil && p.Priority != nil:
		return "status=" + string(*p.Status) + " priority=" + string(*p.Priority)
	case p.Status != nil:
		return "status=" + string(*p.Status)
	case p.Priority != nil:
		return "priority=" + string(*p.Priority)
	default:
		return "(empty)"
	}
}
