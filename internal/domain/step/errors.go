package step

import (
	"fmt"
	"strings"
)

// Error codes for provisioning failures.
const (
	ErrCodeEnvironment = "ENVIRONMENT"
	ErrCodeConflict    = "RECONCILE_CONFLICT"
	ErrCodePatch       = "PATCH_PRECONDITION"
	ErrCodeToolExit    = "TOOL_EXIT"
	ErrCodeCheckFailed = "CHECK_FAILED"
	ErrCodeApplyFailed = "APPLY_FAILED"
)

// Error represents a step failure with a code, context, and an actionable
// suggestion.
type Error struct {
	Code       string // Error code for categorization
	Message    string // User-friendly error message
	StepID     string // Step ID if applicable
	Suggestion string // Actionable suggestion to fix the error
	Underlying error  // Wrapped error for error chain
}

// Error returns the formatted error message.
func (e *Error) Error() string {
	if e.StepID != "" {
		return fmt.Sprintf("step %q: %s", e.StepID, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for error chain support.
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Format returns a fully formatted error with all details.
func (e *Error) Format() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.StepID != "" {
		b.WriteString(fmt.Sprintf("\n  Step: %s", e.StepID))
	}
	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  Suggestion: %s", e.Suggestion))
	}
	if e.Underlying != nil {
		b.WriteString(fmt.Sprintf("\n  Cause: %s", e.Underlying.Error()))
	}

	return b.String()
}

// NewError creates a new Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithStepID returns a new Error with step ID set.
func (e *Error) WithStepID(stepID string) *Error {
	clone := *e
	clone.StepID = stepID
	return &clone
}

// WithSuggestion returns a new Error with suggestion set.
func (e *Error) WithSuggestion(suggestion string) *Error {
	clone := *e
	clone.Suggestion = suggestion
	return &clone
}

// WithUnderlying returns a new Error wrapping another error.
func (e *Error) WithUnderlying(err error) *Error {
	clone := *e
	clone.Underlying = err
	return &clone
}

// NewEnvironmentError creates an error for a missing external tool or
// privilege.
func NewEnvironmentError(message string, err error) *Error {
	return &Error{
		Code:       ErrCodeEnvironment,
		Message:    message,
		Suggestion: "Check that the required external tool is installed and on PATH.",
		Underlying: err,
	}
}

// NewCheckFailedError creates an error for step check failure.
func NewCheckFailedError(stepID string, err error) *Error {
	return &Error{
		Code:       ErrCodeCheckFailed,
		Message:    "step status check failed",
		StepID:     stepID,
		Suggestion: "The step could not determine its current status. This may be a transient error.",
		Underlying: err,
	}
}

// NewApplyFailedError creates an error for step apply failure.
func NewApplyFailedError(stepID string, err error) *Error {
	return &Error{
		Code:       ErrCodeApplyFailed,
		Message:    "step failed to apply",
		StepID:     stepID,
		Suggestion: "Fix the underlying cause and re-run; completed steps are skipped on re-run.",
		Underlying: err,
	}
}
