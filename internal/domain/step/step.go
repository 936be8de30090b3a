// Package step defines the idempotent provisioning step model.
package step

// Step represents an idempotent unit of provisioning. Each step can check
// whether its goal state already holds, describe the change it would make,
// and apply that change. The ordered sequence of steps is fixed at
// orchestrator construction; ordering is positional, not graph-derived.
type Step interface {
	// ID returns the unique identifier for this step.
	ID() ID

	// Check determines the current status of this step.
	// Returns StatusSatisfied if the goal state already holds,
	// StatusNeedsApply if changes are required, and StatusSkipped if the
	// step is inapplicable on this machine (for example a patch target
	// that is not installed).
	Check(ctx RunContext) (Status, error)

	// Plan returns the diff describing what changes this step will make.
	Plan(ctx RunContext) (Diff, error)

	// Apply executes the step's changes. Apply must be idempotent:
	// running it again after success leaves the machine unchanged.
	Apply(ctx RunContext) error
}
