package app

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rigstrap/rigstrap/internal/adapters/logging"
	"github.com/rigstrap/rigstrap/internal/config"
	"github.com/rigstrap/rigstrap/internal/domain/step"
	"github.com/rigstrap/rigstrap/internal/testutil/mocks"
)

func testConfig() config.Config {
	return config.Config{
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
	}
}

func newTestRigstrap(runner *mocks.CommandRunner, fs *mocks.FileSystem) *Rigstrap {
	var out bytes.Buffer
	return New(testConfig(), runner, fs, logging.NewNopLogger(), &out)
}

func TestNew_StepSequence(t *testing.T) {
	r := newTestRigstrap(mocks.NewCommandRunner(), mocks.NewFileSystem())

	want := []string{
		"conda:bootstrap",
		"conda:env:speech",
		"conda:packages:toolkit",
		"repo:sync:toolkit",
		"repo:sync:examples",
		"patch:frame-length",
		"patch:async-client",
		"sysgroup:membership:" + currentUser(),
		"hub:login",
	}

	steps := r.Steps()
	if len(steps) != len(want) {
		t.Fatalf("len(steps) = %d, want %d", len(steps), len(want))
	}
	for i, s := range steps {
		if got := s.ID().String(); got != want[i] {
			t.Errorf("steps[%d] = %q, want %q", i, got, want[i])
		}
	}
}

func TestToolkitPackages(t *testing.T) {
	tests := []struct {
		target string
		extra  string
	}{
		{"cpu", "onnxruntime"},
		{"cuda", "onnxruntime-gpu"},
		{"npu", "npu-runtime"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			pkgs := toolkitPackages(tt.target)
			joined := strings.Join(pkgs, " ")
			if !strings.Contains(joined, tt.extra) {
				t.Errorf("toolkitPackages(%q) = %v, missing %q", tt.target, pkgs, tt.extra)
			}
			if !strings.Contains(joined, "speechkit") {
				t.Errorf("toolkitPackages(%q) = %v, missing base packages", tt.target, pkgs)
			}
		})
	}
}

func TestPlan_ChecksEveryStepWithoutApplying(t *testing.T) {
	runner := mocks.NewCommandRunner()
	fs := mocks.NewFileSystem()
	r := newTestRigstrap(runner, fs)

	// Nothing is provisioned and most probe commands are unmocked, so
	// checks either report needs-apply or fail; the plan must still cover
	// the whole sequence.
	entries := r.Plan(context.Background())

	if len(entries) != len(r.Steps()) {
		t.Fatalf("len(entries) = %d, want %d", len(entries), len(r.Steps()))
	}
	if entries[0].Status != step.StatusNeedsApply {
		t.Errorf("bootstrap status = %v, want needs-apply", entries[0].Status)
	}
	if entries[0].Diff.IsEmpty() {
		t.Error("bootstrap plan entry should carry a diff")
	}

	if runner.CallCount("curl") != 0 || runner.CallCount("bash") != 0 {
		t.Error("Plan() must not apply anything")
	}
	if len(fs.Paths()) != 0 {
		t.Errorf("Plan() wrote files: %v", fs.Paths())
	}
}

func TestPlan_CheckErrorIsRecordedNotFatal(t *testing.T) {
	runner := mocks.NewCommandRunner()
	fs := mocks.NewFileSystem()
	// Conda present, so the env check runs and fails on the unmocked
	// env-list command.
	fs.AddFile("/opt/miniforge3/bin/conda", "")

	r := newTestRigstrap(runner, fs)
	entries := r.Plan(context.Background())

	if len(entries) != len(r.Steps()) {
		t.Fatalf("len(entries) = %d, want %d", len(entries), len(r.Steps()))
	}
	if entries[1].Status != step.StatusUnknown {
		t.Errorf("env entry status = %v, want unknown on check error", entries[1].Status)
	}
}

func TestUp_StopsAtFirstFailure(t *testing.T) {
	runner := mocks.NewCommandRunner()
	fs := mocks.NewFileSystem()
	// Bootstrap needs apply; its curl download is unmocked and fails, so
	// the run must stop with a single failed outcome.
	r := newTestRigstrap(runner, fs)

	report := r.Up(context.Background())

	if !report.Failed() {
		t.Fatal("Up() report should be failed")
	}
	if !report.Stopped() {
		t.Error("run should have stopped at the failure")
	}
	if got := len(report.Outcomes()); got != 1 {
		t.Fatalf("len(outcomes) = %d, want 1", got)
	}
	if got := report.Outcomes()[0].StepID().String(); got != "conda:bootstrap" {
		t.Errorf("failed step = %q, want conda:bootstrap", got)
	}
}

func TestWriteReport(t *testing.T) {
	runner := mocks.NewCommandRunner()
	fs := mocks.NewFileSystem()
	r := newTestRigstrap(runner, fs)

	report := r.Up(context.Background())
	if err := r.WriteReport("/tmp/report.yaml", report); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}

	content := fs.FileContent("/tmp/report.yaml")
	if !strings.Contains(content, "run_id:") {
		t.Errorf("report %q missing run_id", content)
	}
	if !strings.Contains(content, "conda:bootstrap") {
		t.Errorf("report %q missing step entry", content)
	}
}
