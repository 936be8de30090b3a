// Package hub logs in to the model hub through its CLI, treated as an
// opaque credential exchange.
package hub

import (
	"fmt"
	"strings"

	"github.com/rigstrap/rigstrap/internal/domain/step"
	"github.com/rigstrap/rigstrap/internal/ports"
)

// cli is the hub command-line tool.
const cli = "hf"

// LoginStep authenticates against the model hub. With a configured token
// the login is non-interactive; without one the hub tool's own interactive
// flow runs.
type LoginStep struct {
	token  string
	id     step.ID
	runner ports.CommandRunner
}

// NewLoginStep creates a new LoginStep.
func NewLoginStep(token string, runner ports.CommandRunner) *LoginStep {
	return &LoginStep{
		token:  token,
		id:     step.MustNewID("hub:login"),
		runner: runner,
	}
}

// ID returns the step identifier.
func (s *LoginStep) ID() step.ID {
	return s.id
}

// Check reports Satisfied when a hub identity is already established.
func (s *LoginStep) Check(ctx step.RunContext) (step.Status, error) {
	result, err := s.runner.Run(ctx.Context(), cli, "auth", "whoami")
	if err != nil {
		return step.StatusUnknown, step.NewEnvironmentError("hub CLI not available", err)
	}
	if result.Success() {
		return step.StatusSatisfied, nil
	}
	return step.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *LoginStep) Plan(_ step.RunContext) (step.Diff, error) {
	mode := "interactive"
	if s.token != "" {
		mode = "token"
	}
	return step.NewDiff(step.DiffTypeAdd, "credential", "hub", "login ("+mode+")"), nil
}

// Apply performs the login.
func (s *LoginStep) Apply(ctx step.RunContext) error {
	args := []string{"auth", "login"}
	if s.token != "" {
		args = append(args, "--token", s.token)
	}

	result, err := s.runner.Run(ctx.Context(), cli, args...)
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("hub login: exit %d: %s",
			result.ExitCode, strings.TrimSpace(result.Stderr))
	}
	return nil
}

// Ensure LoginStep implements step.Step.
var _ step.Step = (*LoginStep)(nil)
