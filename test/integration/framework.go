// Package integration exercises the full provisioning flow over mock
// command and filesystem ports.
package integration

import (
	"bytes"
	"fmt"
	"os/user"
	"path/filepath"
	"testing"

	"github.com/rigstrap/rigstrap/internal/adapters/logging"
	"github.com/rigstrap/rigstrap/internal/app"
	"github.com/rigstrap/rigstrap/internal/config"
	"github.com/rigstrap/rigstrap/internal/ports"
	"github.com/rigstrap/rigstrap/internal/testutil/mocks"
)

// Harness wires a Rigstrap orchestrator to mock ports and provides
// helpers to seed the fake machine into known states.
type Harness struct {
	t      *testing.T
	Runner *mocks.CommandRunner
	FS     *mocks.FileSystem
	Config config.Config
	Output bytes.Buffer
}

// NewHarness creates a harness with a fixed test configuration.
func NewHarness(t *testing.T) *Harness {
	t.Helper()
	return &Harness{
		t:      t,
		Runner: mocks.NewCommandRunner(),
		FS:     mocks.NewFileSystem(),
		Config: config.Config{
			InstallDir:    "/opt/miniforge3",
			EnvName:       "speech",
			PythonVersion: "3.10",
			WorkspaceDir:  "/home/dev/workspace",
			ToolkitRepo:   "https://github.com/rigstrap/speech-toolkit.git",
			ToolkitRef:    "v1.4.0",
			ExamplesRepo:  "https://github.com/rigstrap/speech-examples.git",
			ExamplesRef:   "main",
			Target:        "cpu",
			FrameLength:   512,
			HubToken:      "hf_secret",
		},
	}
}

// Rigstrap builds the orchestrator over the harness's mocks.
func (h *Harness) Rigstrap() *app.Rigstrap {
	return app.New(h.Config, h.Runner, h.FS, logging.NewNopLogger(), &h.Output)
}

// User returns the name the group-membership step manages.
func (h *Harness) User() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "unknown"
}

func (h *Harness) condaBin() string {
	return h.Config.InstallDir + "/bin/conda"
}

func (h *Harness) repoPath(dir string) string {
	return filepath.Join(h.Config.WorkspaceDir, dir)
}

func (h *Harness) sitePackages() string {
	return filepath.Join(h.Config.InstallDir, "envs", h.Config.EnvName,
		"lib", "python"+h.Config.PythonVersion, "site-packages")
}

func okExit() ports.CommandResult {
	return ports.CommandResult{ExitCode: 0}
}

func okStdout(stdout string) ports.CommandResult {
	return ports.CommandResult{ExitCode: 0, Stdout: stdout}
}

func failExit(code int, stderr string) ports.CommandResult {
	return ports.CommandResult{ExitCode: code, Stderr: stderr}
}

// SeedCondaInstalled marks the conda binary present.
func (h *Harness) SeedCondaInstalled() {
	h.FS.AddFile(h.condaBin(), "")
}

// SeedEnv registers the env-list probe with or without the environment.
func (h *Harness) SeedEnv(exists bool) {
	envs := `{"envs": ["/opt/miniforge3"]}`
	if exists {
		envs = fmt.Sprintf(`{"envs": ["/opt/miniforge3", "/opt/miniforge3/envs/%s"]}`,
			h.Config.EnvName)
	}
	h.Runner.AddResult(h.condaBin(), []string{"env", "list", "--json"},
		ports.CommandResult{ExitCode: 0, Stdout: envs})
}

// SeedPackages registers pip-show probes for the whole toolkit set.
func (h *Harness) SeedPackages(installed bool) {
	code := 1
	if installed {
		code = 0
	}
	for _, pkg := range []string{"speechkit", "soundfile", "numpy", "onnxruntime"} {
		h.Runner.AddResult(h.condaBin(),
			[]string{"run", "--name", h.Config.EnvName, "pip", "show", pkg},
			ports.CommandResult{ExitCode: code})
	}
}

// SeedClone marks a repository as cloned with the declared origin URL.
func (h *Harness) SeedClone(dir, url string) {
	path := h.repoPath(dir)
	h.FS.AddDir(filepath.Join(path, ".git"))
	h.FS.AddFile(filepath.Join(path, ".git", "config"),
		fmt.Sprintf("[remote \"origin\"]\n\turl = %s\n", url))
}

// SeedToolkitPinned marks the toolkit clone checked out at its tag.
func (h *Harness) SeedToolkitPinned() {
	h.SeedClone("speech-toolkit", h.Config.ToolkitRepo)
	sha := "8f4e2d1c5b6a7980\n"
	h.Runner.AddResult("git",
		[]string{"rev-parse", "--verify", "--quiet", "refs/heads/" + h.Config.ToolkitRef},
		ports.CommandResult{ExitCode: 1})
	h.Runner.AddResult("git", []string{"rev-parse", "HEAD"},
		ports.CommandResult{ExitCode: 0, Stdout: sha})
	h.Runner.AddResult("git",
		[]string{"rev-parse", "--verify", "--quiet", h.Config.ToolkitRef + "^{commit}"},
		ports.CommandResult{ExitCode: 0, Stdout: sha})
}

// SeedExamplesReconcilable makes the examples branch sync succeed end to
// end: fetch, checkout, fast-forward pull.
func (h *Harness) SeedExamplesReconcilable() {
	h.SeedClone("speech-examples", h.Config.ExamplesRepo)
	h.Runner.AddResult("git",
		[]string{"rev-parse", "--verify", "--quiet", "refs/heads/" + h.Config.ExamplesRef},
		ports.CommandResult{ExitCode: 0})
	h.Runner.AddResult("git", []string{"fetch", "origin"}, ports.CommandResult{ExitCode: 0})
	h.Runner.AddResult("git", []string{"fetch", "--tags", "origin"}, ports.CommandResult{ExitCode: 0})
	h.Runner.AddResult("git", []string{"checkout", h.Config.ExamplesRef},
		ports.CommandResult{ExitCode: 0})
	h.Runner.AddResult("git", []string{"rev-parse", "--abbrev-ref", "HEAD"},
		ports.CommandResult{ExitCode: 0, Stdout: h.Config.ExamplesRef + "\n"})
	h.Runner.AddResult("git", []string{"pull", "--ff-only", "origin", h.Config.ExamplesRef},
		ports.CommandResult{ExitCode: 0})
}

// SeedPatchedSources writes the toolkit source files in already-patched
// form so both patch steps report satisfied.
func (h *Harness) SeedPatchedSources() {
	h.FS.AddFile(filepath.Join(h.sitePackages(), "speechkit", "pipeline", "factory.py"),
		"pipeline = StreamingPipeline(model=m, sample_rate=16000, frame_length=512)\n")
	h.FS.AddFile(filepath.Join(h.sitePackages(), "speechkit", "client", "session.py"),
		"class Session:\n    async def connect(self):\n        pass\n\n"+
			"    async def send_audio(self, chunk):\n        pass\n\n"+
			"    async def close(self):\n        pass\n")
}

// SeedGroups registers the group-listing probe for the current user.
func (h *Harness) SeedGroups(groups string) {
	h.Runner.AddResult("id", []string{"-nG", h.User()},
		ports.CommandResult{ExitCode: 0, Stdout: groups + "\n"})
}

// SeedHubLoggedIn registers a successful hub identity probe.
func (h *Harness) SeedHubLoggedIn(loggedIn bool) {
	code := 1
	if loggedIn {
		code = 0
	}
	h.Runner.AddResult("hf", []string{"auth", "whoami"},
		ports.CommandResult{ExitCode: code})
}
