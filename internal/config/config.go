// Package config provides hierarchical configuration management for featurecheck using koanf.
// Configuration is loaded with priority: environment variables > project config
// (.featurecheck/config.yml) > user config (~/.config/featurecheck/config.yml) > defaults.
// Project configs may also be written as JSON (.featurecheck/config.json).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ariel-frischer/featurecheck/internal/classify"
	"github.com/ariel-frischer/featurecheck/internal/enumerate"
	"github.com/ariel-frischer/featurecheck/internal/retry"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every configuration environment variable.
// Nested keys use "__", e.g. FEATURECHECK_PROBE_TIMEOUT=5m.
const EnvPrefix = "FEATURECHECK_"

// ConfigSource tracks where a configuration layer came from
type ConfigSource string

const (
	SourceDefault ConfigSource = "default"
	SourceUser    ConfigSource = "user"
	SourceProject ConfigSource = "project"
	SourceEnv     ConfigSource = "env"
)

// AllowEntry is one allow-list entry as written in a config file.
type AllowEntry struct {
	Name       string   `koanf:"name" validate:"required"`
	Requires   []string `koanf:"requires"`
	Excludes   []string `koanf:"excludes"`
	Exact      bool     `koanf:"exact"`
	Expr       string   `koanf:"expr"`
	Diagnostic string   `koanf:"diagnostic"`
}

// Configuration represents the featurecheck configuration
type Configuration struct {
	// Strategy selects the subsets to probe: exhaustive, pairwise, bounded or each.
	Strategy   string `koanf:"strategy" validate:"oneof=exhaustive powerset pairwise bounded each"`
	MaxSubsets int    `koanf:"max_subsets" validate:"min=0"`
	MaxDepth   int    `koanf:"max_depth" validate:"min=0"`
	Seed       uint64 `koanf:"seed"`

	// Parallel is the number of concurrent probes. 0 selects the CPU count.
	Parallel     int           `koanf:"parallel" validate:"min=0,max=256"`
	ProbeTimeout time.Duration `koanf:"probe_timeout" validate:"min=0"`
	// Deadline bounds the whole run. 0 = no deadline.
	Deadline    time.Duration `koanf:"deadline" validate:"min=0"`
	Retries     int           `koanf:"retries" validate:"min=0,max=10"`
	BackoffBase time.Duration `koanf:"backoff_base" validate:"min=0"`
	BackoffMax  time.Duration `koanf:"backoff_max" validate:"min=0"`
	Minimize    bool          `koanf:"minimize"`
	FailFast    bool          `koanf:"fail_fast"`

	// Action is substituted for {{ACTION}} in the build command.
	Action     string   `koanf:"action" validate:"oneof=check build test"`
	ActionArgs []string `koanf:"action_args"`
	// Command is the build command template. Empty selects the cargo default.
	Command        string `koanf:"command"`
	WorkspaceDir   string `koanf:"workspace_dir"`
	KeepWorkspaces bool   `koanf:"keep_workspaces"`

	// Descriptor overrides feature model discovery.
	Descriptor string `koanf:"descriptor"`
	Format     string `koanf:"format" validate:"oneof=text json yaml"`

	StateDir          string `koanf:"state_dir"`
	MaxHistoryEntries int    `koanf:"max_history_entries" validate:"min=0"`

	Allow []AllowEntry `koanf:"allow" validate:"dive"`
}

// LoadOptions configures how configuration is loaded
type LoadOptions struct {
	// ProjectDir is the verified project's directory (default: current directory)
	ProjectDir string
	// ProjectConfigPath overrides the project config path
	ProjectConfigPath string
	// SkipUserConfig ignores the user-level config file
	SkipUserConfig bool
}

// Load loads configuration for the project in projectDir.
// Priority: Environment variables > Project config > User config > Defaults
func Load(projectDir string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ProjectDir: projectDir})
}

// LoadWithOptions loads configuration with custom options
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")

	loadDefaults(k)

	if !opts.SkipUserConfig {
		if err := loadUserConfig(k); err != nil {
			return nil, err
		}
	}

	if err := loadProjectConfig(k, opts); err != nil {
		return nil, err
	}

	if err := loadEnvironmentConfig(k); err != nil {
		return nil, err
	}

	return finalizeConfig(k)
}

// loadDefaults applies default configuration values
func loadDefaults(k *koanf.Koanf) {
	for key, value := range GetDefaults() {
		k.Set(key, value)
	}
}

// loadUserConfig loads the user-level YAML config if present.
func loadUserConfig(k *koanf.Koanf) error {
	path, err := UserConfigPath()
	if err != nil || !fileExists(path) {
		return nil
	}
	if err := loadYAMLConfig(k, path, SourceUser); err != nil {
		return fmt.Errorf("loading user config: %w", err)
	}
	return nil
}

// loadProjectConfig loads the project config, YAML preferred over JSON.
func loadProjectConfig(k *koanf.Koanf, opts LoadOptions) error {
	if opts.ProjectConfigPath != "" {
		return loadByExtension(k, opts.ProjectConfigPath)
	}

	yamlPath := ProjectConfigPath(opts.ProjectDir)
	if fileExists(yamlPath) {
		return loadByExtension(k, yamlPath)
	}
	if jsonPath := ProjectJSONConfigPath(opts.ProjectDir); fileExists(jsonPath) {
		return loadByExtension(k, jsonPath)
	}
	return nil
}

func loadByExtension(k *koanf.Koanf, path string) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := k.Load(file.Provider(path), json.Parser()); err != nil {
			return fmt.Errorf("failed to load %s config %s: %w", SourceProject, path, err)
		}
		return nil
	}
	if err := loadYAMLConfig(k, path, SourceProject); err != nil {
		return fmt.Errorf("loading project config: %w", err)
	}
	return nil
}

// loadYAMLConfig validates and loads a YAML config file
func loadYAMLConfig(k *koanf.Koanf, path string, source ConfigSource) error {
	if err := ValidateYAMLSyntax(path); err != nil {
		return fmt.Errorf("validating YAML syntax for %s config: %w", source, err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load %s config %s: %w", source, path, err)
	}
	return nil
}

// loadEnvironmentConfig loads environment variable overrides
func loadEnvironmentConfig(k *koanf.Koanf) error {
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return fmt.Errorf("failed to load %s config: %w", SourceEnv, err)
	}
	return nil
}

// finalizeConfig unmarshals, validates, and applies final transformations
func finalizeConfig(k *koanf.Koanf) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Strategy == "powerset" {
		cfg.Strategy = string(enumerate.Exhaustive)
	}

	if err := ValidateConfigValues(&cfg, "config"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.StateDir = expandHomePath(cfg.StateDir)
	cfg.WorkspaceDir = expandHomePath(cfg.WorkspaceDir)

	return &cfg, nil
}

// fileExists returns true if the file exists and is readable
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// envTransform converts environment variable names to config keys
// Example: FEATURECHECK_PROBE_TIMEOUT -> probe_timeout, FEATURECHECK_A__B -> a.b
func envTransform(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// expandHomePath expands ~ to the user's home directory
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}

// EnumerateOptions returns the enumeration settings.
func (c *Configuration) EnumerateOptions() enumerate.Options {
	return enumerate.Options{
		Strategy:   enumerate.Strategy(c.Strategy),
		MaxSubsets: c.MaxSubsets,
		MaxDepth:   c.MaxDepth,
		Seed:       c.Seed,
	}
}

// RetryPolicy returns the probe retry policy.
func (c *Configuration) RetryPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.MaxRetries = c.Retries
	if c.BackoffBase > 0 {
		p.Base = c.BackoffBase
	}
	if c.BackoffMax > 0 {
		p.Max = c.BackoffMax
	}
	return p
}

// AllowEntries converts the configured allow-list to classifier entries.
func (c *Configuration) AllowEntries() []classify.Entry {
	out := make([]classify.Entry, 0, len(c.Allow))
	for _, a := range c.Allow {
		out = append(out, classify.Entry{
			Name: a.Name,
			Pattern: classify.Pattern{
				Requires: a.Requires,
				Excludes: a.Excludes,
				Exact:    a.Exact,
				Expr:     a.Expr,
			},
			Diagnostic: a.Diagnostic,
		})
	}
	return out
}
