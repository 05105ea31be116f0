// Package errors provides the categorized, remediation-carrying errors the
// featurecheck CLI prints and maps to exit codes.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory classifies a CLIError. The CLI derives its exit code from it.
type ErrorCategory int

const (
	// Argument errors are caused by invalid or missing command arguments.
	Argument ErrorCategory = iota
	// Configuration errors are caused by invalid configuration or allow-lists.
	Configuration
	// Model errors are caused by a missing or malformed feature descriptor.
	Model
	// Tooling errors occur when the build tools cannot be found.
	Tooling
	// Runtime errors occur during verification.
	Runtime
)

var categoryNames = map[ErrorCategory]string{
	Argument:      "Argument Error",
	Configuration: "Configuration Error",
	Model:         "Feature Model Error",
	Tooling:       "Build Tool Error",
	Runtime:       "Runtime Error",
}

func (c ErrorCategory) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "Error"
}

// CLIError is an error the CLI can explain: what went wrong, how to call
// the command correctly and what to do about it.
type CLIError struct {
	Category ErrorCategory
	Message  string
	// Remediation lists actionable steps, printed as bullets.
	Remediation []string
	// Usage is the correct command syntax, for argument errors.
	Usage string
	// Err is the wrapped cause, if any.
	Err error
}

func (e *CLIError) Error() string {
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// New creates a CLIError without a cause.
func New(category ErrorCategory, message string, remediation ...string) *CLIError {
	return &CLIError{Category: category, Message: message, Remediation: remediation}
}

// NewArgumentError creates an Argument error.
func NewArgumentError(message string, remediation ...string) *CLIError {
	return New(Argument, message, remediation...)
}

// NewArgumentErrorWithUsage creates an Argument error that shows the correct
// command syntax.
func NewArgumentErrorWithUsage(message, usage string, remediation ...string) *CLIError {
	e := New(Argument, message, remediation...)
	e.Usage = usage
	return e
}

// Wrap categorizes err, keeping its message. Returns nil for a nil err.
func Wrap(err error, category ErrorCategory, remediation ...string) *CLIError {
	if err == nil {
		return nil
	}
	e := New(category, err.Error(), remediation...)
	e.Err = err
	return e
}

// WrapWithMessage categorizes err under "message: err". Returns nil for a
// nil err.
func WrapWithMessage(err error, category ErrorCategory, message string, remediation ...string) *CLIError {
	if err == nil {
		return nil
	}
	e := New(category, fmt.Sprintf("%s: %v", message, err), remediation...)
	e.Err = err
	return e
}

// AsCLIError returns the first CLIError in err's tree, or nil.
func AsCLIError(err error) *CLIError {
	var cliErr *CLIError
	if stderrors.As(err, &cliErr) {
		return cliErr
	}
	return nil
}
