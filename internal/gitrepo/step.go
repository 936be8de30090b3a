package gitrepo

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rigstrap/rigstrap/internal/domain/step"
	"github.com/rigstrap/rigstrap/internal/ports"
)

// SyncStep reconciles one repository as a provisioning step.
type SyncStep struct {
	target Target
	id     step.ID
	syncer *Syncer
	runner ports.CommandRunner
	fs     ports.FileSystem
}

// NewSyncStep creates a new SyncStep.
func NewSyncStep(target Target, syncer *Syncer, runner ports.CommandRunner, fs ports.FileSystem) *SyncStep {
	id := step.MustNewID("repo:sync:" + target.Name)
	return &SyncStep{
		target: target,
		id:     id,
		syncer: syncer,
		runner: runner,
		fs:     fs,
	}
}

// ID returns the step identifier.
func (s *SyncStep) ID() step.ID {
	return s.id
}

// Check determines whether the clone is already pinned at the target
// reference. Only local inspection happens here; a reference that names a
// branch always needs a reconcile pass because the branch may have moved
// upstream.
func (s *SyncStep) Check(ctx step.RunContext) (step.Status, error) {
	if !s.fs.IsDir(filepath.Join(s.target.LocalPath, ".git")) {
		return step.StatusNeedsApply, nil
	}

	// If the reference names a local branch, freshness cannot be decided
	// without the network; reconcile.
	branches, err := s.runner.RunOpts(ctx.Context(), ports.RunOptions{Dir: s.target.LocalPath},
		"git", "rev-parse", "--verify", "--quiet", "refs/heads/"+s.target.Ref)
	if err != nil {
		return step.StatusUnknown, err
	}
	if branches.Success() {
		return step.StatusNeedsApply, nil
	}

	head, err := s.runner.RunOpts(ctx.Context(), ports.RunOptions{Dir: s.target.LocalPath},
		"git", "rev-parse", "HEAD")
	if err != nil {
		return step.StatusUnknown, err
	}
	want, err := s.runner.RunOpts(ctx.Context(), ports.RunOptions{Dir: s.target.LocalPath},
		"git", "rev-parse", "--verify", "--quiet", s.target.Ref+"^{commit}")
	if err != nil {
		return step.StatusUnknown, err
	}

	if head.Success() && want.Success() &&
		strings.TrimSpace(head.Stdout) == strings.TrimSpace(want.Stdout) {
		return step.StatusSatisfied, nil
	}

	return step.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *SyncStep) Plan(_ step.RunContext) (step.Diff, error) {
	if !s.fs.IsDir(filepath.Join(s.target.LocalPath, ".git")) {
		return step.NewDiff(step.DiffTypeAdd, "repo", s.target.Name,
			fmt.Sprintf("clone %s at %s", s.target.RemoteURL, s.target.Ref)), nil
	}
	return step.NewDiff(step.DiffTypeModify, "repo", s.target.Name,
		fmt.Sprintf("reconcile to %s", s.target.Ref)), nil
}

// Apply reconciles the clone to the target reference.
func (s *SyncStep) Apply(ctx step.RunContext) error {
	return s.syncer.Sync(ctx.Context(), s.target)
}

// Ensure SyncStep implements step.Step.
var _ step.Step = (*SyncStep)(nil)
