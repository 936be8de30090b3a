package step

// Status represents the current state of a step.
type Status string

const (
	// StatusSatisfied indicates the step's desired state is already met
	// or was reached by applying the step.
	StatusSatisfied Status = "satisfied"
	// StatusNeedsApply indicates the step needs to be applied.
	StatusNeedsApply Status = "needs-apply"
	// StatusSkipped indicates the step is inapplicable on this machine.
	StatusSkipped Status = "skipped"
	// StatusFailed indicates the step failed during check or apply.
	StatusFailed Status = "failed"
	// StatusUnknown indicates the step's state could not be determined.
	StatusUnknown Status = "unknown"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// NeedsAction returns true if this status requires execution or attention.
func (s Status) NeedsAction() bool {
	switch s {
	case StatusNeedsApply, StatusUnknown, StatusFailed:
		return true
	case StatusSatisfied, StatusSkipped:
		return false
	}
	return false
}
