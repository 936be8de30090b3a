package conda

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/rigstrap/rigstrap/internal/domain/step"
	"github.com/rigstrap/rigstrap/internal/ports"
)

// installerURL is the miniforge installer for Linux x86_64.
const installerURL = "https://github.com/conda-forge/miniforge/releases/latest/download/Miniforge3-Linux-x86_64.sh"

// BootstrapStep installs the conda toolchain when it is absent.
type BootstrapStep struct {
	manager *Manager
	id      step.ID
	runner  ports.CommandRunner
	fs      ports.FileSystem
}

// NewBootstrapStep creates a new BootstrapStep.
func NewBootstrapStep(manager *Manager, runner ports.CommandRunner, fs ports.FileSystem) *BootstrapStep {
	return &BootstrapStep{
		manager: manager,
		id:      step.MustNewID("conda:bootstrap"),
		runner:  runner,
		fs:      fs,
	}
}

// ID returns the step identifier.
func (s *BootstrapStep) ID() step.ID {
	return s.id
}

// Check reports Satisfied when the conda binary is already installed.
func (s *BootstrapStep) Check(_ step.RunContext) (step.Status, error) {
	if s.fs.Exists(s.manager.Bin()) {
		return step.StatusSatisfied, nil
	}
	return step.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *BootstrapStep) Plan(_ step.RunContext) (step.Diff, error) {
	return step.NewDiff(step.DiffTypeAdd, "toolchain", "conda",
		fmt.Sprintf("install miniforge into %s", s.manager.InstallDir())), nil
}

// Apply downloads the installer and runs it in batch mode.
func (s *BootstrapStep) Apply(ctx step.RunContext) error {
	installer := "/tmp/miniforge-installer.sh"

	result, err := s.runner.Run(ctx.Context(), "curl", "-fsSL", "-o", installer, installerURL)
	if err != nil {
		return step.NewEnvironmentError("curl is required to download the conda installer", err)
	}
	if !result.Success() {
		return fmt.Errorf("download conda installer: exit %d: %s",
			result.ExitCode, strings.TrimSpace(result.Stderr))
	}

	result, err = s.runner.Run(ctx.Context(), "bash", installer, "-b", "-p", s.manager.InstallDir())
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("run conda installer: exit %d: %s",
			result.ExitCode, strings.TrimSpace(result.Stderr))
	}
	return nil
}

// EnvStep creates the named conda environment at a pinned Python version.
type EnvStep struct {
	manager       *Manager
	id            step.ID
	envName       string
	pythonVersion string
}

// NewEnvStep creates a new EnvStep.
func NewEnvStep(manager *Manager, envName, pythonVersion string) *EnvStep {
	return &EnvStep{
		manager:       manager,
		id:            step.MustNewID("conda:env:" + envName),
		envName:       envName,
		pythonVersion: pythonVersion,
	}
}

// ID returns the step identifier.
func (s *EnvStep) ID() step.ID {
	return s.id
}

// Check reports Satisfied when the environment already exists.
func (s *EnvStep) Check(ctx step.RunContext) (step.Status, error) {
	exists, err := s.manager.EnvExists(ctx.Context(), s.envName)
	if err != nil {
		return step.StatusUnknown, err
	}
	if exists {
		return step.StatusSatisfied, nil
	}
	return step.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *EnvStep) Plan(_ step.RunContext) (step.Diff, error) {
	return step.NewDiff(step.DiffTypeAdd, "conda-env", s.envName,
		"python "+s.pythonVersion), nil
}

// Apply creates the environment.
func (s *EnvStep) Apply(ctx step.RunContext) error {
	if !semver.IsValid("v" + s.pythonVersion) {
		return fmt.Errorf("invalid python version %q", s.pythonVersion)
	}
	return s.manager.CreateEnv(ctx.Context(), s.envName, s.pythonVersion)
}

// PackagesStep installs a named package set into the environment.
type PackagesStep struct {
	manager  *Manager
	id       step.ID
	envName  string
	setName  string
	packages []string
}

// NewPackagesStep creates a new PackagesStep.
func NewPackagesStep(manager *Manager, envName, setName string, packages []string) *PackagesStep {
	return &PackagesStep{
		manager:  manager,
		id:       step.MustNewID("conda:packages:" + setName),
		envName:  envName,
		setName:  setName,
		packages: packages,
	}
}

// ID returns the step identifier.
func (s *PackagesStep) ID() step.ID {
	return s.id
}

// Check reports Satisfied when every package in the set is installed.
func (s *PackagesStep) Check(ctx step.RunContext) (step.Status, error) {
	for _, pkg := range s.packages {
		installed, err := s.manager.PipInstalled(ctx.Context(), s.envName, pkg)
		if err != nil {
			return step.StatusUnknown, err
		}
		if !installed {
			return step.StatusNeedsApply, nil
		}
	}
	return step.StatusSatisfied, nil
}

// Plan returns the diff for this step.
func (s *PackagesStep) Plan(_ step.RunContext) (step.Diff, error) {
	return step.NewDiff(step.DiffTypeAdd, "packages", s.setName,
		strings.Join(s.packages, " ")), nil
}

// Apply installs the whole set in one pip invocation.
func (s *PackagesStep) Apply(ctx step.RunContext) error {
	return s.manager.PipInstall(ctx.Context(), s.envName, s.packages)
}

// Ensure the step types implement step.Step.
var (
	_ step.Step = (*BootstrapStep)(nil)
	_ step.Step = (*EnvStep)(nil)
	_ step.Step = (*PackagesStep)(nil)
)
