// Package patch applies idempotent textual patches to third-party source
// files, with a precondition contract strong enough that re-running is a
// no-op and unexpected content fails loudly instead of corrupting the file.
package patch

import (
	"fmt"
	"os"
	"strings"

	"github.com/rigstrap/rigstrap/internal/ports"
)

// Result classifies the outcome of applying a patch.
type Result string

const (
	// ResultApplied means the file was transformed and rewritten.
	ResultApplied Result = "applied"
	// ResultSkippedMissing means the target file does not exist; the
	// dependency it belongs to is not installed here.
	ResultSkippedMissing Result = "skipped-missing"
	// ResultSkippedApplied means the patch is already in place.
	ResultSkippedApplied Result = "skipped-applied"
)

// Spec describes one patch: where it applies, how to recognize an already
// patched file, what content shape it requires, and the transformation
// itself. The Applied predicate and Transform must agree: after Transform
// runs once, Applied must return true forever after.
type Spec struct {
	// Name identifies the patch in step IDs and logs.
	Name string
	// Path is the target file.
	Path string
	// Applied reports whether the patch is already present.
	Applied func(content string) bool
	// Precondition reports whether the content has the anchor the
	// transform depends on; when it does not, it names the missing anchor.
	Precondition func(content string) (ok bool, missingAnchor string)
	// Transform computes the patched content.
	Transform func(content string) (string, error)
}

// AnchorError reports a precondition failure: the target file exists but
// lacks the anchor content the transform depends on. The file is untouched.
type AnchorError struct {
	Path   string
	Anchor string
}

// Error returns the formatted error message.
func (e *AnchorError) Error() string {
	return fmt.Sprintf("patch precondition failed for %s: anchor %q not found", e.Path, e.Anchor)
}

// SelfCheckError reports that a transform produced content its own Applied
// predicate does not recognize, which would break idempotence on the next
// run. The file is untouched.
type SelfCheckError struct {
	Path   string
	Reason string
}

// Error returns the formatted error message.
func (e *SelfCheckError) Error() string {
	return fmt.Sprintf("patch self-check failed for %s: %s", e.Path, e.Reason)
}

// Patcher applies patch specs through a filesystem port.
type Patcher struct {
	fs     ports.FileSystem
	logger ports.Logger
}

// NewPatcher creates a new Patcher.
func NewPatcher(fs ports.FileSystem, logger ports.Logger) *Patcher {
	return &Patcher{fs: fs, logger: logger}
}

// Apply applies the spec to its target file.
//
// A missing file is a skip, not a failure. An already patched file is a
// no-op. A file without the expected anchor is a hard failure; no partial
// or guessed transformation is ever written. On success the file is
// replaced atomically and keeps its trailing-newline convention.
func (p *Patcher) Apply(spec Spec) (Result, error) {
	if !p.fs.Exists(spec.Path) {
		return ResultSkippedMissing, nil
	}

	data, err := p.fs.ReadFile(spec.Path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", spec.Path, err)
	}
	content := string(data)

	if spec.Applied(content) {
		return ResultSkippedApplied, nil
	}

	if ok, anchor := spec.Precondition(content); !ok {
		return "", &AnchorError{Path: spec.Path, Anchor: anchor}
	}

	patched, err := spec.Transform(content)
	if err != nil {
		return "", fmt.Errorf("transform %s: %w", spec.Path, err)
	}

	if patched == content {
		return "", &SelfCheckError{Path: spec.Path, Reason: "transform produced unchanged content"}
	}
	if !spec.Applied(patched) {
		return "", &SelfCheckError{Path: spec.Path, Reason: "applied predicate does not hold on transformed content"}
	}

	patched = matchTrailingNewline(content, patched)

	if err := p.fs.WriteFileAtomic(spec.Path, []byte(patched), os.FileMode(0o644)); err != nil {
		return "", fmt.Errorf("write %s: %w", spec.Path, err)
	}

	return ResultApplied, nil
}

// matchTrailingNewline makes the patched content follow the original's
// trailing-newline convention.
func matchTrailingNewline(original, patched string) string {
	hadNewline := strings.HasSuffix(original, "\n")
	hasNewline := strings.HasSuffix(patched, "\n")

	switch {
	case hadNewline && !hasNewline:
		return patched + "\n"
	case !hadNewline && hasNewline:
		return strings.TrimRight(patched, "\n")
	}
	return patched
}
