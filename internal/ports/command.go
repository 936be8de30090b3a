// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
)

// CommandResult represents the result of executing an external command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success returns true if the command exited with code 0.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// RunOptions carries per-invocation execution settings.
type RunOptions struct {
	// Dir is the working directory for the command. Empty means the
	// process working directory.
	Dir string
	// Env holds environment variable overrides layered on top of the
	// process environment.
	Env map[string]string
}

// CommandCall records a command invocation.
type CommandCall struct {
	Command string
	Args    []string
	Dir     string
	Env     map[string]string
}

// CommandRunner executes external commands. It is the single point through
// which every external effect (git, conda, group management, hub login) is
// invoked. A non-zero exit code is reported through CommandResult, not as an
// error; the error return is reserved for spawn-level failures (binary not
// found, context canceled). Retry policy belongs to the caller.
type CommandRunner interface {
	Run(ctx context.Context, command string, args ...string) (CommandResult, error)
	RunOpts(ctx context.Context, opts RunOptions, command string, args ...string) (CommandResult, error)
}
