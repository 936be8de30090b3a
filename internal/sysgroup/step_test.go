package sysgroup

import (
	"context"
	"errors"
	"testing"

	"github.com/rigstrap/rigstrap/internal/domain/step"
	"github.com/rigstrap/rigstrap/internal/ports"
	"github.com/rigstrap/rigstrap/internal/testutil/mocks"
)

func runCtx() step.RunContext {
	return step.NewRunContext(context.Background())
}

func TestMembershipStep_ID(t *testing.T) {
	s := NewMembershipStep("dev", []string{"plugdev"}, mocks.NewCommandRunner())
	if got := s.ID().String(); got != "sysgroup:membership:dev" {
		t.Errorf("ID() = %q, want %q", got, "sysgroup:membership:dev")
	}
}

func TestMembershipStep_Check(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
		want   step.Status
	}{
		{"all present", "dev adm plugdev render\n", step.StatusSatisfied},
		{"one missing", "dev adm plugdev\n", step.StatusNeedsApply},
		{"none present", "dev adm\n", step.StatusNeedsApply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := mocks.NewCommandRunner()
			runner.AddResult("id", []string{"-nG", "dev"},
				ports.CommandResult{ExitCode: 0, Stdout: tt.stdout})

			s := NewMembershipStep("dev", []string{"plugdev", "render"}, runner)
			status, err := s.Check(runCtx())
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if status != tt.want {
				t.Errorf("Check() = %v, want %v", status, tt.want)
			}
		})
	}
}

func TestMembershipStep_Apply_AddsOnlyMissingGroups(t *testing.T) {
	runner := mocks.NewCommandRunner()
	runner.AddResult("id", []string{"-nG", "dev"},
		ports.CommandResult{ExitCode: 0, Stdout: "dev plugdev\n"})
	runner.AddResult("sudo", []string{"usermod", "-aG", "render", "dev"},
		ports.CommandResult{ExitCode: 0})

	s := NewMembershipStep("dev", []string{"plugdev", "render"}, runner)
	if err := s.Apply(runCtx()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if runner.CallCount("sudo") != 1 {
		t.Errorf("sudo call count = %d, want 1", runner.CallCount("sudo"))
	}
}

func TestMembershipStep_Apply_NoopWhenSatisfied(t *testing.T) {
	runner := mocks.NewCommandRunner()
	runner.AddResult("id", []string{"-nG", "dev"},
		ports.CommandResult{ExitCode: 0, Stdout: "dev plugdev render\n"})

	s := NewMembershipStep("dev", []string{"plugdev", "render"}, runner)
	if err := s.Apply(runCtx()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if runner.CallCount("sudo") != 0 {
		t.Error("usermod must not run when membership is already satisfied")
	}
}

func TestMembershipStep_MissingIdToolIsEnvironmentError(t *testing.T) {
	runner := mocks.NewCommandRunner()
	runner.AddError("id", []string{"-nG", "dev"}, errors.New("executable file not found"))

	s := NewMembershipStep("dev", []string{"plugdev"}, runner)
	_, err := s.Check(runCtx())

	var stepErr *step.Error
	if !errors.As(err, &stepErr) {
		t.Fatalf("Check() error = %v, want *step.Error", err)
	}
	if stepErr.Code != step.ErrCodeEnvironment {
		t.Errorf("Code = %v, want %v", stepErr.Code, step.ErrCodeEnvironment)
	}
}

func TestMembershipStep_UsermodFailurePropagates(t *testing.T) {
	runner := mocks.NewCommandRunner()
	runner.AddResult("id", []string{"-nG", "dev"},
		ports.CommandResult{ExitCode: 0, Stdout: "dev\n"})
	runner.AddResult("sudo", []string{"usermod", "-aG", "plugdev", "dev"},
		ports.CommandResult{ExitCode: 1, Stderr: "permission denied"})

	s := NewMembershipStep("dev", []string{"plugdev"}, runner)
	if err := s.Apply(runCtx()); err == nil {
		t.Fatal("Apply() expected error on usermod failure")
	}
}
