package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
)

// Template placeholders expanded by CommandBuilder.
const (
	FeaturesPlaceholder  = "{{FEATURES}}"
	ActionPlaceholder    = "{{ACTION}}"
	WorkspacePlaceholder = "{{WORKSPACE}}"
)

// DefaultTemplate builds a Cargo package with default features disabled and
// exactly the requested features enabled.
const DefaultTemplate = "cargo {{ACTION}} --no-default-features --features {{FEATURES}}"

// BuildLogName is the file each build's combined output is written to,
// inside its workspace.
const BuildLogName = "build.log"

// Actions accepted by the default template.
var ValidActions = []string{"check", "build", "test"}

// CommandBuilder runs a shell-split command template as the build.
type CommandBuilder struct {
	template   string
	action     string
	actionArgs []string
	dir        string
	env        map[string]string
}

// CommandOption configures a CommandBuilder.
type CommandOption func(*CommandBuilder)

// WithAction sets the {{ACTION}} value. Defaults to "check".
func WithAction(action string) CommandOption {
	return func(b *CommandBuilder) {
		if action != "" {
			b.action = action
		}
	}
}

// WithActionArgs appends extra arguments after the expanded template.
func WithActionArgs(args ...string) CommandOption {
	return func(b *CommandBuilder) {
		b.actionArgs = append(b.actionArgs, args...)
	}
}

// WithDir sets the directory the command runs in.
func WithDir(dir string) CommandOption {
	return func(b *CommandBuilder) {
		b.dir = dir
	}
}

// WithEnv adds environment variables to the command.
func WithEnv(env map[string]string) CommandOption {
	return func(b *CommandBuilder) {
		if b.env == nil {
			b.env = make(map[string]string, len(env))
		}
		for k, v := range env {
			b.env[k] = v
		}
	}
}

// NewCommandBuilder validates template and returns a builder. The template
// must contain {{FEATURES}}; an empty template selects DefaultTemplate.
func NewCommandBuilder(template string, opts ...CommandOption) (*CommandBuilder, error) {
	if strings.TrimSpace(template) == "" {
		template = DefaultTemplate
	}
	if !strings.Contains(template, FeaturesPlaceholder) {
		return nil, fmt.Errorf("build command template must contain %s placeholder", FeaturesPlaceholder)
	}
	b := &CommandBuilder{template: template, action: "check"}
	for _, opt := range opts {
		opt(b)
	}
	if _, err := b.Args(Request{}); err != nil {
		return nil, err
	}
	return b, nil
}

// Template returns the command template.
func (b *CommandBuilder) Template() string {
	return b.template
}

// Args expands the template for req and splits it into argv.
func (b *CommandBuilder) Args(req Request) ([]string, error) {
	expanded := strings.NewReplacer(
		FeaturesPlaceholder, quoteForShlex(strings.Join(req.Subset.Flags(), ",")),
		ActionPlaceholder, quoteForShlex(b.action),
		WorkspacePlaceholder, quoteForShlex(req.Workspace),
	).Replace(b.template)

	args, err := shlex.Split(expanded)
	if err != nil {
		return nil, fmt.Errorf("invalid build command template: %w", err)
	}
	if len(args) == 0 {
		return nil, errors.New("build command template produces no command")
	}
	return append(args, b.actionArgs...), nil
}

// RequiredTools returns the program the template invokes.
func (b *CommandBuilder) RequiredTools() []string {
	args, err := b.Args(Request{})
	if err != nil {
		return nil
	}
	return args[:1]
}

// CheckTools verifies the template's program is on PATH.
func (b *CommandBuilder) CheckTools() error {
	return CheckTools(b.RequiredTools()...)
}

// Build runs the command. A non-zero exit is a failed build whose combined
// output is the diagnostic. A command that cannot be started is an error.
func (b *CommandBuilder) Build(ctx context.Context, req Request) (Result, error) {
	args, err := b.Args(req)
	if err != nil {
		return Result{}, err
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = b.dir
	cmd.Env = os.Environ()
	for k, v := range b.env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}
	if req.Workspace != "" {
		cmd.Env = append(cmd.Env, "CARGO_TARGET_DIR="+filepath.Join(req.Workspace, "target"))
	}

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	runErr := cmd.Run()

	if req.Workspace != "" {
		if err := os.WriteFile(filepath.Join(req.Workspace, BuildLogName), output.Bytes(), 0o644); err != nil {
			return Result{}, fmt.Errorf("writing build log: %w", err)
		}
	}

	if runErr != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return Result{Success: false, Diagnostic: output.String()}, nil
		}
		if errors.Is(runErr, exec.ErrNotFound) {
			return Result{}, &ToolMissingError{Tools: args[:1]}
		}
		return Result{}, fmt.Errorf("running %s: %w", args[0], runErr)
	}
	return Result{Success: true, Diagnostic: output.String()}, nil
}

// quoteForShlex wraps a string in single quotes for safe shlex parsing.
// 'don't' becomes 'don'\''t'.
func quoteForShlex(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
