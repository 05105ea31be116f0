package errors

import (
	"fmt"
	"strings"
)

// Common error messages for the featurecheck CLI.
// These templates ensure consistent, actionable error messages.

// NoDescriptor creates an error when a project declares no features.
func NoDescriptor(dir string, tried []string) *CLIError {
	return &CLIError{
		Category: Model,
		Message:  fmt.Sprintf("no feature descriptor found in %s", dir),
		Remediation: []string{
			"Looked for: " + strings.Join(tried, ", "),
			"Declare features in .featurecheck/features.yml",
			"Or run featurecheck from a Cargo package with a [features] table",
		},
	}
}

// MalformedModel creates an error for a descriptor that fails validation.
func MalformedModel(err error) *CLIError {
	return WrapWithMessage(err, Model,
		"feature model is invalid",
		"Every flag needs a unique, non-empty name",
		"implies/excludes and mutually_exclusive may only name declared flags",
		"Check the flag set with: featurecheck flags",
	)
}

// ToolsMissing creates an error when the build command cannot be found.
func ToolsMissing(err error, template string) *CLIError {
	return WrapWithMessage(err, Tooling,
		"cannot run build command",
		"Install the build toolchain or fix PATH",
		fmt.Sprintf("Current command template: %s", template),
		"Override it with the 'command' config key or FEATURECHECK_COMMAND",
	)
}

// InvalidAllowList creates an error for an allow-list that does not compile
// or names unknown flags.
func InvalidAllowList(err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		"allow-list is invalid",
		"Each entry needs a name and at least one of requires, excludes, exact or expr",
		"Only flags declared in the feature model may be referenced",
		"CEL expressions must be boolean over the 'features' list",
	)
}

// InvalidStrategy creates an error for an unknown enumeration strategy.
func InvalidStrategy(provided string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("invalid strategy: %s", provided),
		"featurecheck run --strategy exhaustive|pairwise|bounded|each",
		"Use 'bounded' together with --max-subsets",
	)
}

// InvalidFormat creates an error for an unknown report format.
func InvalidFormat(provided string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("invalid output format: %s", provided),
		"featurecheck run --format text|json|yaml",
		"Set the default with the 'format' config key",
	)
}

// ConfigValidationError creates an error for config values out of range.
func ConfigValidationError(err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		"configuration is invalid",
		"Check .featurecheck/config.yml and FEATURECHECK_* environment variables",
	)
}
