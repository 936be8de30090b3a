// Package conda drives the conda toolchain as an opaque capability:
// bootstrap the installer, create named environments, install package sets.
package conda

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rigstrap/rigstrap/internal/ports"
)

// Manager wraps the conda binary rooted at an install directory.
type Manager struct {
	runner     ports.CommandRunner
	installDir string
}

// NewManager creates a new Manager.
func NewManager(runner ports.CommandRunner, installDir string) *Manager {
	return &Manager{
		runner:     runner,
		installDir: ports.ExpandPath(installDir),
	}
}

// InstallDir returns the toolchain install directory.
func (m *Manager) InstallDir() string {
	return m.installDir
}

// Bin returns the path of the conda binary inside the install directory.
func (m *Manager) Bin() string {
	return filepath.Join(m.installDir, "bin", "conda")
}

// EnvExists reports whether a named environment exists.
func (m *Manager) EnvExists(ctx context.Context, name string) (bool, error) {
	result, err := m.runner.Run(ctx, m.Bin(), "env", "list", "--json")
	if err != nil {
		return false, err
	}
	if !result.Success() {
		return false, fmt.Errorf("conda env list: exit %d: %s",
			result.ExitCode, strings.TrimSpace(result.Stderr))
	}

	var envs struct {
		Envs []string `json:"envs"`
	}
	if err := json.Unmarshal([]byte(result.Stdout), &envs); err != nil {
		return false, fmt.Errorf("parse conda env list output: %w", err)
	}

	for _, env := range envs.Envs {
		if filepath.Base(env) == name {
			return true, nil
		}
	}
	return false, nil
}

// CreateEnv creates a named environment pinned to a Python version.
func (m *Manager) CreateEnv(ctx context.Context, name, pythonVersion string) error {
	result, err := m.runner.Run(ctx, m.Bin(),
		"create", "--yes", "--name", name, "python="+pythonVersion)
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("conda create %s: exit %d: %s",
			name, result.ExitCode, strings.TrimSpace(result.Stderr))
	}
	return nil
}

// PipInstall installs packages into a named environment through its pip.
func (m *Manager) PipInstall(ctx context.Context, envName string, packages []string) error {
	args := append([]string{"run", "--name", envName, "pip", "install"}, packages...)
	result, err := m.runner.Run(ctx, m.Bin(), args...)
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("pip install into %s: exit %d: %s",
			envName, result.ExitCode, strings.TrimSpace(result.Stderr))
	}
	return nil
}

// PipInstalled reports whether a package is present in the environment.
func (m *Manager) PipInstalled(ctx context.Context, envName, pkg string) (bool, error) {
	// pip show exits non-zero for unknown packages; that is the answer,
	// not an error.
	name := pkg
	if i := strings.IndexAny(name, "=<>!["); i >= 0 {
		name = name[:i]
	}
	result, err := m.runner.Run(ctx, m.Bin(), "run", "--name", envName, "pip", "show", name)
	if err != nil {
		return false, err
	}
	return result.Success(), nil
}
