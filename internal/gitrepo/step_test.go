package gitrepo

import (
	"context"
	"testing"

	"github.com/rigstrap/rigstrap/internal/domain/step"
	"github.com/rigstrap/rigstrap/internal/ports"
	"github.com/rigstrap/rigstrap/internal/testutil/mocks"
)

func newSyncStep(runner *mocks.CommandRunner, fs *mocks.FileSystem, ref string) *SyncStep {
	target := Target{Name: "toolkit", RemoteURL: remoteURL, LocalPath: localPath, Ref: ref}
	return NewSyncStep(target, newSyncer(runner, fs), runner, fs)
}

func TestSyncStep_ID(t *testing.T) {
	s := newSyncStep(mocks.NewCommandRunner(), mocks.NewFileSystem(), "main")
	if got := s.ID().String(); got != "repo:sync:toolkit" {
		t.Errorf("ID() = %q, want %q", got, "repo:sync:toolkit")
	}
}

func TestSyncStep_Check_AbsentNeedsApply(t *testing.T) {
	s := newSyncStep(mocks.NewCommandRunner(), mocks.NewFileSystem(), "main")

	status, err := s.Check(step.RunContext{})
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if status != step.StatusNeedsApply {
		t.Errorf("Check() = %v, want needs-apply", status)
	}
}

func TestSyncStep_Check_BranchRefAlwaysReconciles(t *testing.T) {
	runner := mocks.NewCommandRunner()
	fs := mocks.NewFileSystem()
	addGitConfig(fs, remoteURL)

	// The ref resolves to a local branch, so freshness is unknowable
	// without the network.
	runner.AddResult("git", []string{"rev-parse", "--verify", "--quiet", "refs/heads/main"}, okResult())

	s := newSyncStep(runner, fs, "main")
	status, err := s.Check(step.NewRunContext(context.Background()))
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if status != step.StatusNeedsApply {
		t.Errorf("Check() = %v, want needs-apply for a branch ref", status)
	}
}

func TestSyncStep_Check_PinnedTagSatisfied(t *testing.T) {
	runner := mocks.NewCommandRunner()
	fs := mocks.NewFileSystem()
	addGitConfig(fs, remoteURL)

	commit := "8f4e2d1c5b6a7980"
	runner.AddResult("git", []string{"rev-parse", "--verify", "--quiet", "refs/heads/v1.4.0"},
		ports.CommandResult{ExitCode: 1})
	runner.AddResult("git", []string{"rev-parse", "HEAD"},
		ports.CommandResult{ExitCode: 0, Stdout: commit + "\n"})
	runner.AddResult("git", []string{"rev-parse", "--verify", "--quiet", "v1.4.0^{commit}"},
		ports.CommandResult{ExitCode: 0, Stdout: commit + "\n"})

	s := newSyncStep(runner, fs, "v1.4.0")
	status, err := s.Check(step.NewRunContext(context.Background()))
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if status != step.StatusSatisfied {
		t.Errorf("Check() = %v, want satisfied when pinned at the tag", status)
	}
}

func TestSyncStep_Check_WrongCommitNeedsApply(t *testing.T) {
	runner := mocks.NewCommandRunner()
	fs := mocks.NewFileSystem()
	addGitConfig(fs, remoteURL)

	runner.AddResult("git", []string{"rev-parse", "--verify", "--quiet", "refs/heads/v1.4.0"},
		ports.CommandResult{ExitCode: 1})
	runner.AddResult("git", []string{"rev-parse", "HEAD"},
		ports.CommandResult{ExitCode: 0, Stdout: "1111111111111111\n"})
	runner.AddResult("git", []string{"rev-parse", "--verify", "--quiet", "v1.4.0^{commit}"},
		ports.CommandResult{ExitCode: 0, Stdout: "2222222222222222\n"})

	s := newSyncStep(runner, fs, "v1.4.0")
	status, err := s.Check(step.NewRunContext(context.Background()))
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if status != step.StatusNeedsApply {
		t.Errorf("Check() = %v, want needs-apply", status)
	}
}

func TestSyncStep_Plan(t *testing.T) {
	s := newSyncStep(mocks.NewCommandRunner(), mocks.NewFileSystem(), "v1.4.0")

	diff, err := s.Plan(step.RunContext{})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if diff.Type() != step.DiffTypeAdd {
		t.Errorf("Plan() type = %v, want add for an absent clone", diff.Type())
	}
}
