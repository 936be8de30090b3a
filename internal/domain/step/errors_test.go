package step

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := NewError(ErrCodeApplyFailed, "step failed to apply").WithStepID("repo:sync:toolkit")

	got := err.Error()
	if !strings.Contains(got, "repo:sync:toolkit") {
		t.Errorf("Error() = %q, want step ID in message", got)
	}
}

func TestError_Unwrap(t *testing.T) {
	underlying := errors.New("exit status 128")
	err := NewApplyFailedError("repo:sync:toolkit", underlying)

	if !errors.Is(err, underlying) {
		t.Error("errors.Is should find the underlying error")
	}
}

func TestError_Format(t *testing.T) {
	err := NewError(ErrCodeConflict, "local branch diverged").
		WithStepID("repo:sync:toolkit").
		WithSuggestion("Inspect the local commits before discarding them.").
		WithUnderlying(errors.New("not a fast-forward"))

	got := err.Format()
	for _, want := range []string{
		"[RECONCILE_CONFLICT]",
		"local branch diverged",
		"Step: repo:sync:toolkit",
		"Suggestion:",
		"Cause: not a fast-forward",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Format() missing %q in:\n%s", want, got)
		}
	}
}

func TestError_WithDoesNotMutate(t *testing.T) {
	base := NewError(ErrCodeToolExit, "tool failed")
	derived := base.WithStepID("conda:bootstrap")

	if base.StepID != "" {
		t.Error("WithStepID mutated the original error")
	}
	if derived.StepID != "conda:bootstrap" {
		t.Errorf("derived StepID = %q, want %q", derived.StepID, "conda:bootstrap")
	}
}

func TestNewEnvironmentError(t *testing.T) {
	err := NewEnvironmentError("sudo not available", errors.New("exec: not found"))

	if err.Code != ErrCodeEnvironment {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeEnvironment)
	}
	if err.Suggestion == "" {
		t.Error("environment errors should carry a suggestion")
	}
}
