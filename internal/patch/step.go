package patch

import (
	"fmt"

	"github.com/rigstrap/rigstrap/internal/domain/step"
	"github.com/rigstrap/rigstrap/internal/ports"
)

// Step applies one patch spec as a provisioning step.
type Step struct {
	spec    Spec
	id      step.ID
	patcher *Patcher
	fs      ports.FileSystem
}

// NewStep creates a new patch Step.
func NewStep(spec Spec, patcher *Patcher, fs ports.FileSystem) *Step {
	id := step.MustNewID("patch:" + spec.Name)
	return &Step{
		spec:    spec,
		id:      id,
		patcher: patcher,
		fs:      fs,
	}
}

// ID returns the step identifier.
func (s *Step) ID() step.ID {
	return s.id
}

// Check reports Skipped when the target file is absent, Satisfied when the
// patch is already in place, and NeedsApply otherwise. A precondition
// failure is deferred to Apply so it surfaces as a step failure, not a
// check error.
func (s *Step) Check(_ step.RunContext) (step.Status, error) {
	if !s.fs.Exists(s.spec.Path) {
		return step.StatusSkipped, nil
	}

	data, err := s.fs.ReadFile(s.spec.Path)
	if err != nil {
		return step.StatusUnknown, err
	}

	if s.spec.Applied(string(data)) {
		return step.StatusSatisfied, nil
	}
	return step.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *Step) Plan(_ step.RunContext) (step.Diff, error) {
	return step.NewDiff(step.DiffTypeModify, "patch", s.spec.Name,
		fmt.Sprintf("patch %s", s.spec.Path)), nil
}

// Apply runs the patch through the Patcher.
func (s *Step) Apply(_ step.RunContext) error {
	_, err := s.patcher.Apply(s.spec)
	return err
}

// Ensure Step implements step.Step.
var _ step.Step = (*Step)(nil)
