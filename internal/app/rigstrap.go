// Package app wires the provisioning components into the fixed step
// sequence and drives planning and execution.
package app

import (
	"context"
	"fmt"
	"io"
	"os/user"
	"path/filepath"

	"github.com/rigstrap/rigstrap/internal/conda"
	"github.com/rigstrap/rigstrap/internal/config"
	"github.com/rigstrap/rigstrap/internal/domain/run"
	"github.com/rigstrap/rigstrap/internal/domain/step"
	"github.com/rigstrap/rigstrap/internal/gitrepo"
	"github.com/rigstrap/rigstrap/internal/hub"
	"github.com/rigstrap/rigstrap/internal/patch"
	"github.com/rigstrap/rigstrap/internal/ports"
	"github.com/rigstrap/rigstrap/internal/sysgroup"
)

// deviceGroups are the OS groups needed for accelerator device access.
var deviceGroups = []string{"plugdev", "render"}

// Rigstrap is the provisioning orchestrator. The step sequence is declared
// once at construction and never mutated at run time.
type Rigstrap struct {
	cfg    config.Config
	runner ports.CommandRunner
	fs     ports.FileSystem
	logger ports.Logger
	out    io.Writer
	steps  []step.Step
}

// New creates the orchestrator with its fixed step sequence.
func New(cfg config.Config, runner ports.CommandRunner, fs ports.FileSystem, logger ports.Logger, out io.Writer) *Rigstrap {
	r := &Rigstrap{
		cfg:    cfg,
		runner: runner,
		fs:     fs,
		logger: logger,
		out:    out,
	}
	r.steps = r.buildSteps()
	return r
}

// Steps returns the declared step sequence in execution order.
func (r *Rigstrap) Steps() []step.Step {
	return r.steps
}

// buildSteps declares the provisioning sequence: toolchain bootstrap,
// environment creation, package installs, repository syncs, source
// patches, group membership, hub login.
func (r *Rigstrap) buildSteps() []step.Step {
	cfg := r.cfg
	manager := conda.NewManager(r.runner, cfg.InstallDir)
	syncer := gitrepo.NewSyncer(r.runner, r.fs, r.logger)
	patcher := patch.NewPatcher(r.fs, r.logger)

	workspace := ports.ExpandPath(cfg.WorkspaceDir)
	toolkit := gitrepo.Target{
		Name:      "toolkit",
		RemoteURL: cfg.ToolkitRepo,
		LocalPath: filepath.Join(workspace, "speech-toolkit"),
		Ref:       cfg.ToolkitRef,
	}
	examples := gitrepo.Target{
		Name:      "examples",
		RemoteURL: cfg.ExamplesRepo,
		LocalPath: filepath.Join(workspace, "speech-examples"),
		Ref:       cfg.ExamplesRef,
	}

	sitePackages := filepath.Join(manager.InstallDir(),
		"envs", cfg.EnvName, "lib", "python"+cfg.PythonVersion, "site-packages")

	framePatch := patch.InsertKeywordArg(
		"frame-length",
		filepath.Join(sitePackages, "speechkit", "pipeline", "factory.py"),
		"StreamingPipeline(",
		"sample_rate=",
		"frame_length",
		fmt.Sprintf("%d", cfg.FrameLength),
	)
	asyncPatch := patch.AsyncifyFuncs(
		"async-client",
		filepath.Join(sitePackages, "speechkit", "client", "session.py"),
		[]string{"connect", "send_audio", "close"},
	)

	return []step.Step{
		conda.NewBootstrapStep(manager, r.runner, r.fs),
		conda.NewEnvStep(manager, cfg.EnvName, cfg.PythonVersion),
		conda.NewPackagesStep(manager, cfg.EnvName, "toolkit", toolkitPackages(cfg.Target)),
		gitrepo.NewSyncStep(toolkit, syncer, r.runner, r.fs),
		gitrepo.NewSyncStep(examples, syncer, r.runner, r.fs),
		patch.NewStep(framePatch, patcher, r.fs),
		patch.NewStep(asyncPatch, patcher, r.fs),
		sysgroup.NewMembershipStep(currentUser(), deviceGroups, r.runner),
		hub.NewLoginStep(cfg.HubToken, r.runner),
	}
}

// toolkitPackages selects the package set for the accelerator target.
func toolkitPackages(target string) []string {
	base := []string{"speechkit", "soundfile", "numpy"}
	switch target {
	case "cuda":
		return append(base, "onnxruntime-gpu")
	case "npu":
		return append(base, "npu-runtime")
	default:
		return append(base, "onnxruntime")
	}
}

// currentUser returns the invoking user's name for group management.
func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "unknown"
}

// PlanEntry pairs a step with its checked status and planned diff.
type PlanEntry struct {
	StepID step.ID
	Status step.Status
	Diff   step.Diff
}

// Plan checks every step without applying anything and reports what a run
// would do. Unlike Up, a check error does not stop the pass; it is recorded
// so the whole plan stays inspectable.
func (r *Rigstrap) Plan(ctx context.Context) []PlanEntry {
	runCtx := step.NewRunContext(ctx).WithDryRun(true)
	entries := make([]PlanEntry, 0, len(r.steps))

	for _, s := range r.steps {
		entry := PlanEntry{StepID: s.ID()}

		status, err := s.Check(runCtx)
		if err != nil {
			entry.Status = step.StatusUnknown
			entries = append(entries, entry)
			continue
		}
		entry.Status = status

		if status == step.StatusNeedsApply {
			if diff, err := s.Plan(runCtx); err == nil {
				entry.Diff = diff
			}
		}
		entries = append(entries, entry)
	}

	return entries
}

// Up executes the full sequence and returns the run report.
func (r *Rigstrap) Up(ctx context.Context) run.Report {
	r.logger.Info(ctx, "starting provisioning run",
		ports.F("env", r.cfg.EnvName), ports.F("target", r.cfg.Target))

	runner := run.NewRunner(r.logger)
	return runner.Run(ctx, r.steps)
}

// WriteReport writes the YAML run report artifact.
func (r *Rigstrap) WriteReport(path string, report run.Report) error {
	data, err := report.Encode()
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := r.fs.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
