package patch

import (
	"errors"
	"testing"

	"github.com/rigstrap/rigstrap/internal/adapters/logging"
	"github.com/rigstrap/rigstrap/internal/domain/step"
	"github.com/rigstrap/rigstrap/internal/testutil/mocks"
)

func TestStep_ID(t *testing.T) {
	fs := mocks.NewFileSystem()
	s := NewStep(upperSpec(), NewPatcher(fs, logging.NewNopLogger()), fs)
	if got := s.ID().String(); got != "patch:upper" {
		t.Errorf("ID() = %q, want %q", got, "patch:upper")
	}
}

func TestStep_Check(t *testing.T) {
	tests := []struct {
		name    string
		content string
		missing bool
		want    step.Status
	}{
		{"file absent", "", true, step.StatusSkipped},
		{"already patched", "a MARKER line\n", false, step.StatusSatisfied},
		{"needs patch", "a marker line\n", false, step.StatusNeedsApply},
		{"no anchor still needs apply", "unrelated\n", false, step.StatusNeedsApply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := mocks.NewFileSystem()
			if !tt.missing {
				fs.AddFile(testPath, tt.content)
			}

			s := NewStep(upperSpec(), NewPatcher(fs, logging.NewNopLogger()), fs)
			status, err := s.Check(step.RunContext{})
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if status != tt.want {
				t.Errorf("Check() = %v, want %v", status, tt.want)
			}
		})
	}
}

func TestStep_Apply_PreconditionFailureIsStepFailure(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.AddFile(testPath, "unrelated\n")

	s := NewStep(upperSpec(), NewPatcher(fs, logging.NewNopLogger()), fs)
	err := s.Apply(step.RunContext{})

	var anchorErr *AnchorError
	if !errors.As(err, &anchorErr) {
		t.Fatalf("Apply() error = %v, want *AnchorError", err)
	}
}
