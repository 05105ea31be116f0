package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ariel-frischer/featurecheck/internal/classify"
	"github.com/ariel-frischer/featurecheck/internal/enumerate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProjectConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	cfgDir := ProjectConfigDir(dir)
	require.NoError(t, os.MkdirAll(cfgDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, name), []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadWithOptions(LoadOptions{ProjectDir: t.TempDir(), SkipUserConfig: true})
	require.NoError(t, err)

	assert.Equal(t, "exhaustive", cfg.Strategy)
	assert.Equal(t, 10*time.Minute, cfg.ProbeTimeout)
	assert.Zero(t, cfg.Deadline)
	assert.Equal(t, 500*time.Millisecond, cfg.BackoffBase)
	assert.Equal(t, "check", cfg.Action)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, 500, cfg.MaxHistoryEntries)
	assert.NotContains(t, cfg.StateDir, "~", "home is expanded")
	assert.Empty(t, cfg.Allow)
}

func TestLoad_ProjectConfig(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		file    string
		content string
		check   func(t *testing.T, cfg *Configuration)
	}{
		"yaml with allow-list": {
			file: "config.yml",
			content: `strategy: pairwise
parallel: 4
probe_timeout: 90s
minimize: true
allow:
  - name: duplicate-T
    requires: [a, c]
    excludes: [b]
    diagnostic: "defined multiple times"
  - name: no-std
    expr: '!("std" in features)'
`,
			check: func(t *testing.T, cfg *Configuration) {
				assert.Equal(t, "pairwise", cfg.Strategy)
				assert.Equal(t, 4, cfg.Parallel)
				assert.Equal(t, 90*time.Second, cfg.ProbeTimeout)
				assert.True(t, cfg.Minimize)
				require.Len(t, cfg.Allow, 2)
				assert.Equal(t, AllowEntry{
					Name:       "duplicate-T",
					Requires:   []string{"a", "c"},
					Excludes:   []string{"b"},
					Diagnostic: "defined multiple times",
				}, cfg.Allow[0])
				assert.Equal(t, `!("std" in features)`, cfg.Allow[1].Expr)
			},
		},
		"json": {
			file:    "config.json",
			content: `{"strategy": "each", "format": "json", "retries": 2}`,
			check: func(t *testing.T, cfg *Configuration) {
				assert.Equal(t, "each", cfg.Strategy)
				assert.Equal(t, "json", cfg.Format)
				assert.Equal(t, 2, cfg.Retries)
			},
		},
		"powerset alias": {
			file:    "config.yml",
			content: "strategy: powerset\n",
			check: func(t *testing.T, cfg *Configuration) {
				assert.Equal(t, "exhaustive", cfg.Strategy)
			},
		},
		"empty file uses defaults": {
			file:    "config.yml",
			content: "",
			check: func(t *testing.T, cfg *Configuration) {
				assert.Equal(t, "exhaustive", cfg.Strategy)
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			writeProjectConfig(t, dir, tt.file, tt.content)

			cfg, err := LoadWithOptions(LoadOptions{ProjectDir: dir, SkipUserConfig: true})
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoad_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		content string
		wantErr string
	}{
		"unknown strategy": {
			content: "strategy: random\n",
			wantErr: "strategy",
		},
		"negative parallel": {
			content: "parallel: -1\n",
			wantErr: "must be at least 0",
		},
		"too many retries": {
			content: "retries: 11\n",
			wantErr: "must be at most 10",
		},
		"bad format": {
			content: "format: xml\n",
			wantErr: "must be one of: text, json, yaml",
		},
		"command without features": {
			content: "command: make all\n",
			wantErr: "{{FEATURES}}",
		},
		"bounded without cap": {
			content: "strategy: bounded\n",
			wantErr: "max_subsets",
		},
		"allow entry without name": {
			content: "allow:\n  - requires: [a]\n",
			wantErr: "name",
		},
		"duplicate allow names": {
			content: "allow:\n  - name: x\n    requires: [a]\n  - name: x\n    requires: [b]\n",
			wantErr: "duplicate entry name",
		},
		"yaml syntax": {
			content: "strategy: [unclosed\n",
			wantErr: "validating YAML syntax",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			writeProjectConfig(t, dir, "config.yml", tt.content)

			_, err := LoadWithOptions(LoadOptions{ProjectDir: dir, SkipUserConfig: true})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_EnvOverridesProject(t *testing.T) {
	dir := t.TempDir()
	writeProjectConfig(t, dir, "config.yml", "parallel: 2\nstrategy: pairwise\n")
	t.Setenv("FEATURECHECK_PARALLEL", "8")
	t.Setenv("FEATURECHECK_DEADLINE", "1h")

	cfg, err := LoadWithOptions(LoadOptions{ProjectDir: dir, SkipUserConfig: true})
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Parallel)
	assert.Equal(t, time.Hour, cfg.Deadline)
	assert.Equal(t, "pairwise", cfg.Strategy)
}

func TestLoad_UserConfig(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "featurecheck"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(xdg, "featurecheck", "config.yml"), []byte("retries: 3\nformat: yaml\n"), 0o644))

	dir := t.TempDir()
	writeProjectConfig(t, dir, "config.yml", "format: json\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Retries, "user config applies")
	assert.Equal(t, "json", cfg.Format, "project config wins over user config")
}

func TestEnvTransform(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"FEATURECHECK_PROBE_TIMEOUT": "probe_timeout",
		"FEATURECHECK_MAX_SUBSETS":   "max_subsets",
		"FEATURECHECK_A__B":          "a.b",
	}
	for in, want := range tests {
		assert.Equal(t, want, envTransform(in), in)
	}
}

func TestConfiguration_Conversions(t *testing.T) {
	t.Parallel()

	cfg := &Configuration{
		Strategy:    "bounded",
		MaxSubsets:  16,
		MaxDepth:    3,
		Seed:        7,
		Retries:     2,
		BackoffBase: time.Second,
		Allow: []AllowEntry{
			{Name: "dup", Requires: []string{"a", "c"}, Exact: true, Diagnostic: "E0428"},
		},
	}

	assert.Equal(t, enumerate.Options{Strategy: enumerate.Bounded, MaxSubsets: 16, MaxDepth: 3, Seed: 7}, cfg.EnumerateOptions())

	policy := cfg.RetryPolicy()
	assert.Equal(t, 2, policy.MaxRetries)
	assert.Equal(t, time.Second, policy.Base)
	assert.Equal(t, 30*time.Second, policy.Max, "unset max keeps the default")

	entries := cfg.AllowEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, classify.Entry{
		Name:       "dup",
		Pattern:    classify.Pattern{Requires: []string{"a", "c"}, Exact: true},
		Diagnostic: "E0428",
	}, entries[0])

	_, err := classify.Compile(entries)
	require.NoError(t, err)
}

func TestExtractLineColumn(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		msg      string
		wantLine int
		wantCol  int
	}{
		"line only":       {msg: "yaml: line 5: could not find expected ':'", wantLine: 5, wantCol: 1},
		"line and column": {msg: "yaml: line 3: column 7: bad", wantLine: 3, wantCol: 7},
		"no position":     {msg: "something else", wantLine: 0, wantCol: 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			line, col := extractLineColumn(tt.msg)
			assert.Equal(t, tt.wantLine, line)
			assert.Equal(t, tt.wantCol, col)
		})
	}
}

func TestGetDefaultConfigTemplate_Parses(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeProjectConfig(t, dir, "config.yml", GetDefaultConfigTemplate())
	cfg, err := LoadWithOptions(LoadOptions{ProjectDir: dir, SkipUserConfig: true})
	require.NoError(t, err)
	assert.Equal(t, "exhaustive", cfg.Strategy)
}
