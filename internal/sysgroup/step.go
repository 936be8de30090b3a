// Package sysgroup grants OS group memberships through the system identity
// tools, treated as an opaque capability.
package sysgroup

import (
	"fmt"
	"strings"

	"github.com/rigstrap/rigstrap/internal/domain/step"
	"github.com/rigstrap/rigstrap/internal/ports"
)

// MembershipStep ensures a user belongs to a set of groups. Granting
// membership is privileged and goes through sudo.
type MembershipStep struct {
	user   string
	groups []string
	id     step.ID
	runner ports.CommandRunner
}

// NewMembershipStep creates a new MembershipStep.
func NewMembershipStep(user string, groups []string, runner ports.CommandRunner) *MembershipStep {
	return &MembershipStep{
		user:   user,
		groups: groups,
		id:     step.MustNewID("sysgroup:membership:" + user),
		runner: runner,
	}
}

// ID returns the step identifier.
func (s *MembershipStep) ID() step.ID {
	return s.id
}

// Check lists the user's current group memberships and reports Satisfied
// when none are missing.
func (s *MembershipStep) Check(ctx step.RunContext) (step.Status, error) {
	missing, err := s.missingGroups(ctx)
	if err != nil {
		return step.StatusUnknown, err
	}
	if len(missing) == 0 {
		return step.StatusSatisfied, nil
	}
	return step.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *MembershipStep) Plan(ctx step.RunContext) (step.Diff, error) {
	missing, err := s.missingGroups(ctx)
	if err != nil {
		return step.Diff{}, err
	}
	return step.NewDiff(step.DiffTypeModify, "groups", s.user,
		"add to "+strings.Join(missing, ",")), nil
}

// Apply adds the user to the missing groups.
func (s *MembershipStep) Apply(ctx step.RunContext) error {
	missing, err := s.missingGroups(ctx)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		return nil
	}

	result, err := s.runner.Run(ctx.Context(), "sudo", "usermod", "-aG",
		strings.Join(missing, ","), s.user)
	if err != nil {
		return step.NewEnvironmentError("sudo is required to change group membership", err)
	}
	if !result.Success() {
		return fmt.Errorf("usermod -aG %s %s: exit %d: %s",
			strings.Join(missing, ","), s.user, result.ExitCode,
			strings.TrimSpace(result.Stderr))
	}
	return nil
}

// missingGroups returns the declared groups the user is not yet in.
func (s *MembershipStep) missingGroups(ctx step.RunContext) ([]string, error) {
	result, err := s.runner.Run(ctx.Context(), "id", "-nG", s.user)
	if err != nil {
		return nil, step.NewEnvironmentError("id is required to list group membership", err)
	}
	if !result.Success() {
		return nil, fmt.Errorf("id -nG %s: exit %d: %s",
			s.user, result.ExitCode, strings.TrimSpace(result.Stderr))
	}

	current := make(map[string]bool)
	for _, g := range strings.Fields(result.Stdout) {
		current[g] = true
	}

	missing := make([]string, 0)
	for _, g := range s.groups {
		if !current[g] {
			missing = append(missing, g)
		}
	}
	return missing, nil
}

// Ensure MembershipStep implements step.Step.
var _ step.Step = (*MembershipStep)(nil)
