package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	clierrors "github.com/ariel-frischer/featurecheck/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestRootCmd_Structure(t *testing.T) {
	t.Parallel()

	root := NewRootCmd()
	assert.Equal(t, "featurecheck", root.Use)
	assert.NotEmpty(t, root.Short)
	assert.NotEmpty(t, root.Long)
	assert.NotEmpty(t, root.Example)
	assert.Len(t, root.Groups(), 3)
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	t.Parallel()

	root := NewRootCmd()
	for _, name := range []string{"config", "debug", "verbose", "no-color"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), "flag %s should exist", name)
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		group string
		flags []string
	}{
		"run":     {group: GroupVerification, flags: []string{"strategy", "parallel", "timeout", "deadline", "retries", "minimize", "fail-fast", "format", "max-subsets", "depth", "seed"}},
		"watch":   {group: GroupVerification, flags: []string{"strategy", "debounce"}},
		"plan":    {group: GroupInspection, flags: []string{"strategy", "format", "commands"}},
		"flags":   {group: GroupInspection, flags: []string{"format"}},
		"init":    {group: GroupConfig, flags: []string{"force"}},
		"history": {group: GroupConfig, flags: []string{"limit", "clear", "project"}},
		"version": {group: GroupConfig, flags: []string{"plain"}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cmd, _, err := NewRootCmd().Find([]string{name})
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, name, cmd.Name())
			assert.Equal(t, tt.group, cmd.GroupID)
			for _, f := range tt.flags {
				assert.NotNil(t, cmd.Flags().Lookup(f), "%s should have --%s", name, f)
			}
		})
	}
}

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  error
		want int
	}{
		"exit error":        {err: &ExitError{Code: ExitIncomplete}, want: ExitIncomplete},
		"argument":          {err: clierrors.NewArgumentError("bad"), want: ExitInvalidArguments},
		"configuration":     {err: clierrors.New(clierrors.Configuration, "bad"), want: ExitInvalidArguments},
		"model":             {err: clierrors.MalformedModel(errors.New("dup")), want: ExitMissingDependencies},
		"tooling":           {err: clierrors.ToolsMissing(errors.New("cargo"), "cargo"), want: ExitMissingDependencies},
		"runtime":           {err: clierrors.New(clierrors.Runtime, "boom"), want: ExitFindings},
		"plain error":       {err: errors.New("boom"), want: ExitFindings},
		"wrapped cli error": {err: fmt.Errorf("loading: %w", clierrors.NewArgumentError("bad")), want: ExitInvalidArguments},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, exitCodeFor(tt.err))
		})
	}
}

func TestHandleError(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err        error
		wantCode   int
		wantOutput string
	}{
		"nil":               {err: nil, wantCode: ExitSuccess},
		"silent exit error": {err: &ExitError{Code: ExitFindings}, wantCode: ExitFindings},
		"cli error":         {err: clierrors.NewArgumentError("bad flag"), wantCode: ExitInvalidArguments, wantOutput: "bad flag"},
		"plain error":       {err: errors.New("boom"), wantCode: ExitFindings, wantOutput: "Error: boom"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			assert.Equal(t, tt.wantCode, handleError(&buf, tt.err))
			if tt.wantOutput == "" {
				assert.Empty(t, buf.String())
				return
			}
			assert.Contains(t, buf.String(), tt.wantOutput)
		})
	}
}

func TestExitError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "exit status 2", (&ExitError{Code: 2}).Error())
	inner := errors.New("inner")
	e := &ExitError{Code: 1, Err: inner}
	assert.Equal(t, "inner", e.Error())
	assert.ErrorIs(t, e, inner)
}
