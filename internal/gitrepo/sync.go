// Package gitrepo reconciles local clones to exact git references.
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/rigstrap/rigstrap/internal/ports"
)

// Errors for repository reconciliation.
var (
	// ErrOriginMismatch indicates the clone at the target path tracks a
	// different remote than the one declared for it.
	ErrOriginMismatch = errors.New("existing clone tracks a different origin")
	// ErrNonFastForward indicates the local branch has commits the remote
	// does not, so advancing would discard history.
	ErrNonFastForward = errors.New("local branch cannot be fast-forwarded")
)

// detachedHead is what rev-parse --abbrev-ref prints when no branch is
// checked out.
const detachedHead = "HEAD"

// Target declares the desired state of one managed repository.
type Target struct {
	// Name identifies the repository in step IDs and logs.
	Name string
	// RemoteURL is the clone URL.
	RemoteURL string
	// LocalPath is where the clone lives.
	LocalPath string
	// Ref is a branch name, tag name, or commit hash. Whether it names a
	// branch is discovered from the repository after checkout, not
	// declared by the caller.
	Ref string
}

// Syncer brings a local clone to an exact reference from any starting
// state: absent, current, stale, or on the wrong branch.
type Syncer struct {
	runner ports.CommandRunner
	fs     ports.FileSystem
	logger ports.Logger
}

// NewSyncer creates a new Syncer.
func NewSyncer(runner ports.CommandRunner, fs ports.FileSystem, logger ports.Logger) *Syncer {
	return &Syncer{
		runner: runner,
		fs:     fs,
		logger: logger,
	}
}

// Sync reconciles the clone at t.LocalPath to t.Ref.
//
// An absent clone is created fresh. A present clone first has its origin
// URL verified, then branches and tags are fetched (two separate fetches:
// a tag-only reference must be resolvable even when no branch points at
// it). After checkout, the working tree is either on a named branch or
// detached; only a branch is pulled, fast-forward-only, because a branch
// moves upstream while a tag or commit is already pinned.
func (s *Syncer) Sync(ctx context.Context, t Target) error {
	if !s.fs.IsDir(filepath.Join(t.LocalPath, ".git")) {
		s.logger.Info(ctx, "cloning repository",
			ports.F("repo", t.Name), ports.F("url", t.RemoteURL))
		if err := s.git(ctx, "", "clone", t.RemoteURL, t.LocalPath); err != nil {
			return fmt.Errorf("clone %s: %w", t.Name, err)
		}
	} else if err := s.verifyOrigin(t); err != nil {
		return err
	}

	if err := s.git(ctx, t.LocalPath, "fetch", "origin"); err != nil {
		return fmt.Errorf("fetch %s: %w", t.Name, err)
	}
	if err := s.git(ctx, t.LocalPath, "fetch", "--tags", "origin"); err != nil {
		return fmt.Errorf("fetch tags %s: %w", t.Name, err)
	}

	if err := s.git(ctx, t.LocalPath, "checkout", t.Ref); err != nil {
		return fmt.Errorf("checkout %s at %s: %w", t.Name, t.Ref, err)
	}

	branch, err := s.currentBranch(ctx, t.LocalPath)
	if err != nil {
		return fmt.Errorf("resolve checked-out state of %s: %w", t.Name, err)
	}

	if branch == detachedHead {
		// A tag or commit hash: checkout already pinned the exact
		// commit, nothing to pull.
		s.logger.Debug(ctx, "checked out detached reference",
			ports.F("repo", t.Name), ports.F("ref", t.Ref))
		return nil
	}

	s.logger.Debug(ctx, "pulling branch fast-forward",
		ports.F("repo", t.Name), ports.F("branch", branch))

	result, err := s.runner.RunOpts(ctx, ports.RunOptions{Dir: t.LocalPath},
		"git", "pull", "--ff-only", "origin", branch)
	if err != nil {
		return fmt.Errorf("pull %s: %w", t.Name, err)
	}
	if !result.Success() {
		return fmt.Errorf("pull %s branch %s: %w: %s",
			t.Name, branch, ErrNonFastForward, strings.TrimSpace(result.Stderr))
	}

	return nil
}

// verifyOrigin checks that the existing clone's origin URL matches the
// declared remote, by parsing .git/config. A mismatch is a reconciliation
// conflict: syncing a foreign clone could destroy unrelated work.
func (s *Syncer) verifyOrigin(t Target) error {
	data, err := s.fs.ReadFile(filepath.Join(t.LocalPath, ".git", "config"))
	if err != nil {
		return fmt.Errorf("read git config of %s: %w", t.Name, err)
	}

	cfg, err := ini.Load(data)
	if err != nil {
		return fmt.Errorf("parse git config of %s: %w", t.Name, err)
	}

	url := cfg.Section(`remote "origin"`).Key("url").String()
	if url != t.RemoteURL {
		return fmt.Errorf("%s at %s: %w: have %q, want %q",
			t.Name, t.LocalPath, ErrOriginMismatch, url, t.RemoteURL)
	}
	return nil
}

// currentBranch returns the symbolic name of HEAD, or "HEAD" when detached.
func (s *Syncer) currentBranch(ctx context.Context, dir string) (string, error) {
	result, err := s.runner.RunOpts(ctx, ports.RunOptions{Dir: dir},
		"git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	if !result.Success() {
		return "", fmt.Errorf("rev-parse failed: %s", strings.TrimSpace(result.Stderr))
	}
	return strings.TrimSpace(result.Stdout), nil
}

// git runs a git subcommand and converts a non-zero exit into an error.
func (s *Syncer) git(ctx context.Context, dir string, args ...string) error {
	result, err := s.runner.RunOpts(ctx, ports.RunOptions{Dir: dir}, "git", args...)
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("git %s: exit %d: %s",
			strings.Join(args, " "), result.ExitCode, strings.TrimSpace(result.Stderr))
	}
	return nil
}
