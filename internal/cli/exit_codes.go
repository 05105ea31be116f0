package cli

import (
	"errors"
	"fmt"

	clierrors "github.com/ariel-frischer/featurecheck/internal/errors"
	"github.com/ariel-frischer/featurecheck/internal/verify"
)

// Exit codes for the featurecheck CLI
// These codes support programmatic composition and CI/CD integration
const (
	// ExitSuccess indicates every probed subset behaved as expected
	ExitSuccess = verify.ExitPassed

	// ExitFindings indicates unexpected failures, stale allow-list entries or infra errors
	ExitFindings = verify.ExitFindings

	// ExitIncomplete indicates the run stopped before probing every enumerated subset
	ExitIncomplete = verify.ExitIncomplete

	// ExitInvalidArguments indicates invalid command arguments or configuration
	ExitInvalidArguments = 3

	// ExitMissingDependencies indicates missing build tools or a malformed feature model
	ExitMissingDependencies = 4

	// ExitTimeout indicates the global deadline cut the run short
	ExitTimeout = verify.ExitDeadline
)

// ExitError carries an exit code through cobra. With a nil Err nothing is
// printed: the command already reported its result.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitCodeFor maps an error to an exit code.
func exitCodeFor(err error) int {
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}

	cliErr := clierrors.AsCLIError(err)
	if cliErr == nil {
		return ExitFindings
	}
	switch cliErr.Category {
	case clierrors.Argument, clierrors.Configuration:
		return ExitInvalidArguments
	case clierrors.Model, clierrors.Tooling:
		return ExitMissingDependencies
	}
	return ExitFindings
}
