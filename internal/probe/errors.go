package probe

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Diagnostics recorded for outcomes that carry no build output.
const (
	DiagnosticTimeout          = "timeout"
	DiagnosticDeadlineExceeded = "deadline exceeded"
)

// TimeoutError reports a probe that exceeded its per-probe timeout.
type TimeoutError struct {
	Timeout time.Duration
	Subset  string
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("probe %s timed out after %v (hint: increase probe_timeout in config)", e.Subset, e.Timeout)
}

// Unwrap returns the underlying error for errors.Is/As compatibility
func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// NewTimeoutError creates a TimeoutError wrapping context.DeadlineExceeded.
func NewTimeoutError(timeout time.Duration, subset string) *TimeoutError {
	return &TimeoutError{
		Timeout: timeout,
		Subset:  subset,
		Err:     context.DeadlineExceeded,
	}
}

// ToolMissingError reports build tools that are not on PATH.
type ToolMissingError struct {
	Tools []string
}

func (e *ToolMissingError) Error() string {
	return fmt.Sprintf("required build tools not found in PATH: %s", strings.Join(e.Tools, ", "))
}
