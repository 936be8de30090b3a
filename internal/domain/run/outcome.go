// Package run sequences provisioning steps and records their outcomes.
package run

import (
	"time"

	"github.com/rigstrap/rigstrap/internal/domain/step"
)

// Outcome captures the result of executing a single step.
type Outcome struct {
	stepID   step.ID
	status   step.Status
	err      error
	duration time.Duration
	applied  bool
}

// NewOutcome creates a new Outcome.
func NewOutcome(stepID step.ID, status step.Status, err error) Outcome {
	return Outcome{
		stepID: stepID,
		status: status,
		err:    err,
	}
}

// StepID returns the ID of the step that was executed.
func (o Outcome) StepID() step.ID {
	return o.stepID
}

// Status returns the final status of the step.
func (o Outcome) Status() step.Status {
	return o.status
}

// Error returns any error that occurred during execution.
func (o Outcome) Error() error {
	return o.err
}

// Duration returns how long the step took to execute.
func (o Outcome) Duration() time.Duration {
	return o.duration
}

// Applied returns true if the step's Apply actually ran, as opposed to the
// goal state already holding.
func (o Outcome) Applied() bool {
	return o.applied
}

// Failed returns true if the step failed.
func (o Outcome) Failed() bool {
	return o.status == step.StatusFailed
}

// Skipped returns true if the step was inapplicable.
func (o Outcome) Skipped() bool {
	return o.status == step.StatusSkipped
}

// WithDuration returns a new Outcome with duration set.
func (o Outcome) WithDuration(d time.Duration) Outcome {
	o.duration = d
	return o
}

// WithApplied returns a new Outcome with the applied flag set.
func (o Outcome) WithApplied(applied bool) Outcome {
	o.applied = applied
	return o
}
