package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ariel-frischer/featurecheck/internal/classify"
	"github.com/ariel-frischer/featurecheck/internal/config"
	"github.com/ariel-frischer/featurecheck/internal/enumerate"
	clierrors "github.com/ariel-frischer/featurecheck/internal/errors"
	"github.com/ariel-frischer/featurecheck/internal/feature"
	"github.com/ariel-frischer/featurecheck/internal/report"
	"github.com/spf13/cobra"
)

// session is the loaded state every project command starts from.
type session struct {
	dir   string
	cfg   *config.Configuration
	model *feature.Model
	allow *classify.AllowList
}

// dirArg accepts at most one argument, the project directory.
func dirArg(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return clierrors.NewArgumentErrorWithUsage(
			fmt.Sprintf("expected at most one project directory, got %d arguments", len(args)),
			cmd.UseLine(),
		)
	}
	return nil
}

// projectDir resolves the optional directory argument.
func projectDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", clierrors.Wrap(err, clierrors.Argument)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", clierrors.NewArgumentError(
			fmt.Sprintf("project directory not found: %s", dir),
			"Pass the directory containing Cargo.toml or .featurecheck/features.yml",
		)
	}
	return abs, nil
}

// newSession loads config (with flag overrides), the feature model and the
// allow-list of the project named by args.
func newSession(cmd *cobra.Command, args []string) (*session, error) {
	dir, err := projectDir(args)
	if err != nil {
		return nil, err
	}

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWithOptions(config.LoadOptions{ProjectDir: dir, ProjectConfigPath: configPath})
	if err != nil {
		return nil, clierrors.ConfigValidationError(err)
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	model, err := loadModel(dir, cfg.Descriptor)
	if err != nil {
		return nil, err
	}

	allow, err := classify.Compile(cfg.AllowEntries())
	if err != nil {
		return nil, clierrors.InvalidAllowList(err)
	}
	if err := allow.Validate(model); err != nil {
		return nil, clierrors.InvalidAllowList(err)
	}

	loggerFor(cmd).Debug("session loaded",
		"dir", dir,
		"model", model.Source(),
		"flags", model.Len(),
		"allow_entries", allow.Len(),
		"strategy", cfg.Strategy,
	)
	return &session{dir: dir, cfg: cfg, model: model, allow: allow}, nil
}

// loadModel reads the explicit descriptor, or discovers one in dir.
func loadModel(dir, descriptor string) (*feature.Model, error) {
	var (
		model *feature.Model
		err   error
	)
	if descriptor != "" {
		if !filepath.IsAbs(descriptor) {
			descriptor = filepath.Join(dir, descriptor)
		}
		model, err = feature.LoadFile(descriptor)
	} else {
		model, err = feature.LoadProject(dir)
	}
	if err == nil {
		return model, nil
	}

	var noDesc *feature.NoDescriptorError
	switch {
	case errors.As(err, &noDesc):
		return nil, clierrors.NoDescriptor(noDesc.Dir, noDesc.Tried)
	case errors.Is(err, feature.ErrMalformedModel):
		return nil, clierrors.MalformedModel(err)
	}
	return nil, clierrors.Wrap(err, clierrors.Model)
}

// addEnumerationFlags registers the flags that shape the subset sequence.
func addEnumerationFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("strategy", "s", "", "Enumeration strategy: exhaustive, pairwise, bounded, each")
	cmd.Flags().Int("max-subsets", 0, "Subset cap for the bounded strategy")
	cmd.Flags().Int("depth", 0, "Max flags per subset (0 = no cap)")
	cmd.Flags().Uint64("seed", 0, "Seed of the bounded sampler")
}

// addProbeFlags registers the flags that control building and reporting.
func addProbeFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("parallel", "j", 0, "Concurrent builds (0 = CPU count)")
	cmd.Flags().Duration("timeout", 0, "Per-build timeout (e.g. 5m)")
	cmd.Flags().Duration("deadline", 0, "Whole-run deadline (e.g. 1h)")
	cmd.Flags().Int("retries", 0, "Retries of infrastructure errors")
	cmd.Flags().Bool("minimize", false, "Shrink failing subsets to a minimal reproducer")
	cmd.Flags().Bool("fail-fast", false, "Stop after the first finding")
	cmd.Flags().String("action", "", "Build action: check, build, test")
	cmd.Flags().Bool("keep-workspaces", false, "Keep per-build workspaces and logs")
	cmd.Flags().StringP("format", "f", "", "Report format: text, json, yaml")
	cmd.Flags().Bool("all", false, "List every verdict in the text report, not only findings")
}

// applyFlags overrides config values with the flags set on the command line.
// Flags a command does not define are never Changed.
func applyFlags(cmd *cobra.Command, cfg *config.Configuration) error {
	flags := cmd.Flags()

	if flags.Changed("strategy") {
		raw, _ := flags.GetString("strategy")
		strategy, err := enumerate.ParseStrategy(raw)
		if err != nil {
			return clierrors.InvalidStrategy(raw)
		}
		cfg.Strategy = string(strategy)
	}
	if flags.Changed("format") {
		raw, _ := flags.GetString("format")
		format, err := report.ParseFormat(raw)
		if err != nil {
			return clierrors.InvalidFormat(raw)
		}
		cfg.Format = string(format)
	}
	if flags.Changed("action") {
		cfg.Action, _ = flags.GetString("action")
	}

	setInt := func(name string, dst *int) error {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetInt(name)
		if v < 0 {
			return clierrors.NewArgumentError(fmt.Sprintf("--%s must not be negative, got %d", name, v))
		}
		*dst = v
		return nil
	}
	setDuration := func(name string, dst *time.Duration) error {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetDuration(name)
		if v < 0 {
			return clierrors.NewArgumentError(fmt.Sprintf("--%s must not be negative, got %s", name, v))
		}
		*dst = v
		return nil
	}
	for _, err := range []error{
		setInt("max-subsets", &cfg.MaxSubsets),
		setInt("depth", &cfg.MaxDepth),
		setInt("parallel", &cfg.Parallel),
		setInt("retries", &cfg.Retries),
		setDuration("timeout", &cfg.ProbeTimeout),
		setDuration("deadline", &cfg.Deadline),
	} {
		if err != nil {
			return err
		}
	}

	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("minimize") {
		cfg.Minimize, _ = flags.GetBool("minimize")
	}
	if flags.Changed("fail-fast") {
		cfg.FailFast, _ = flags.GetBool("fail-fast")
	}
	if flags.Changed("keep-workspaces") {
		cfg.KeepWorkspaces, _ = flags.GetBool("keep-workspaces")
	}

	// flag values bypass the config validator
	if err := config.ValidateConfigValues(cfg, "command line"); err != nil {
		return clierrors.Wrap(err, clierrors.Argument, "Run 'featurecheck run --help' for valid values")
	}
	return nil
}
