// Package testutil provides test helpers for featurecheck tests.
//
// Its helper process turns the test binary into a fake build tool. A
// CommandBuilder pointed at HelperTemplate runs the test binary again, and
// TestHelperProcess answers like a compiler configured by
// HelperProcessConfig: it fails for the feature sets its rules match and
// succeeds otherwise.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"testing"
	"time"
)

// HelperProcessEnvVars contains the environment variable names used by TestHelperProcess.
const (
	// EnvWantHelperProcess signals that the test binary should run as a helper process.
	EnvWantHelperProcess = "GO_WANT_HELPER_PROCESS"
	// EnvHelperProcessConfig contains JSON-encoded HelperProcessConfig.
	EnvHelperProcessConfig = "GO_HELPER_PROCESS_CONFIG"
)

// FixtureDiagnostic is the compiler error the fixture project reports when
// features a and c are enabled without b.
const FixtureDiagnostic = "error[E0428]: the name `T` is defined multiple times"

// FailureRule makes the fake compiler fail for matching feature sets.
type FailureRule struct {
	// Requires lists features that must all be enabled.
	Requires []string `json:"requires"`
	// Excludes lists features that must all be disabled.
	Excludes []string `json:"excludes,omitempty"`
	// Stderr is the diagnostic written on failure.
	Stderr string `json:"stderr"`
	// ExitCode defaults to 101 like cargo.
	ExitCode int `json:"exit_code,omitempty"`
}

// Matches reports whether the rule applies to the enabled features.
func (r FailureRule) Matches(features []string) bool {
	for _, f := range r.Requires {
		if !slices.Contains(features, f) {
			return false
		}
	}
	for _, f := range r.Excludes {
		if slices.Contains(features, f) {
			return false
		}
	}
	return true
}

// HelperProcessConfig configures the behavior of TestHelperProcess.
type HelperProcessConfig struct {
	// ExitCode is the exit code when no failure rule matches (default 0).
	ExitCode int `json:"exit_code"`
	// Stdout is the content to write to stdout.
	Stdout string `json:"stdout"`
	// Sleep delays the answer, for timeout tests.
	Sleep time.Duration `json:"sleep"`
	// Failures are checked in order; the first match decides.
	Failures []FailureRule `json:"failures"`
	// CallLogDir receives one entry per invocation when set.
	CallLogDir string `json:"call_log_dir"`
}

// FixtureCompiler mimics the fixture crate: struct T is declared once under
// feature a and once more under c unless b is enabled.
func FixtureCompiler() HelperProcessConfig {
	return HelperProcessConfig{
		Stdout: "Finished `dev` profile",
		Failures: []FailureRule{{
			Requires: []string{"a", "c"},
			Excludes: []string{"b"},
			Stderr:   FixtureDiagnostic + "\n --> src/main.rs:9:1\n",
		}},
	}
}

// TestHelperProcess is a function to be called from a test function to
// implement the helper process pattern. When invoked with
// GO_WANT_HELPER_PROCESS=1 it behaves as the fake compiler and exits
// without returning.
//
// Usage in test file:
//
//	func TestHelperProcess(t *testing.T) {
//	    testutil.TestHelperProcess(t)
//	}
func TestHelperProcess(t *testing.T) {
	if os.Getenv(EnvWantHelperProcess) != "1" {
		return
	}

	config := parseHelperConfig()
	os.Exit(runHelperProcess(config, helperArgs(os.Args)))
}

// HelperTemplate returns a build command template that runs the current
// test binary as the fake compiler through testName.
func HelperTemplate(t *testing.T, testName string) string {
	t.Helper()

	testBinary, err := os.Executable()
	if err != nil {
		t.Fatalf("failed to get test binary path: %v", err)
	}
	return fmt.Sprintf("'%s' -test.run=^%s$ -- {{ACTION}} --features {{FEATURES}}", testBinary, testName)
}

// HelperEnv returns the environment that switches the test binary into
// helper mode with config.
func HelperEnv(t *testing.T, config HelperProcessConfig) map[string]string {
	t.Helper()

	data, err := json.Marshal(config)
	if err != nil {
		t.Fatalf("failed to encode helper config: %v", err)
	}
	return map[string]string{
		EnvWantHelperProcess:   "1",
		EnvHelperProcessConfig: string(data),
	}
}

// parseHelperConfig parses HelperProcessConfig from environment variable.
func parseHelperConfig() HelperProcessConfig {
	config := HelperProcessConfig{}
	if configJSON := os.Getenv(EnvHelperProcessConfig); configJSON != "" {
		// Ignore parse errors; use defaults on failure
		_ = json.Unmarshal([]byte(configJSON), &config)
	}
	return config
}

// helperArgs returns the arguments after "--".
func helperArgs(argv []string) []string {
	for i, arg := range argv {
		if arg == "--" {
			return argv[i+1:]
		}
	}
	return nil
}

// parseFeatures extracts the --features value from compiler arguments.
func parseFeatures(args []string) []string {
	for i, arg := range args {
		var value string
		switch {
		case arg == "--features" && i+1 < len(args):
			value = args[i+1]
		case strings.HasPrefix(arg, "--features="):
			value = strings.TrimPrefix(arg, "--features=")
		default:
			continue
		}
		var out []string
		for _, f := range strings.Split(value, ",") {
			if f = strings.TrimSpace(f); f != "" {
				out = append(out, f)
			}
		}
		return out
	}
	return nil
}

// runHelperProcess writes the configured answer and returns the exit code.
func runHelperProcess(config HelperProcessConfig, args []string) int {
	if config.Sleep > 0 {
		time.Sleep(config.Sleep)
	}

	features := parseFeatures(args)
	code := config.ExitCode
	matched := false
	for _, rule := range config.Failures {
		if rule.Matches(features) {
			fmt.Fprint(os.Stderr, rule.Stderr)
			code = rule.ExitCode
			if code == 0 {
				code = 101
			}
			matched = true
			break
		}
	}
	if !matched && config.Stdout != "" {
		fmt.Fprint(os.Stdout, config.Stdout)
	}

	if config.CallLogDir != "" {
		_ = AppendCallLog(config.CallLogDir, CallLogEntry{
			Args:      args,
			Features:  features,
			TargetDir: os.Getenv("CARGO_TARGET_DIR"),
			Timestamp: time.Now().Format(time.RFC3339Nano),
			ExitCode:  code,
		})
	}
	return code
}
