// Package cli implements the featurecheck command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	clierrors "github.com/ariel-frischer/featurecheck/internal/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Command groups
const (
	GroupVerification = "verification"
	GroupInspection   = "inspection"
	GroupConfig       = "config"
)

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "featurecheck",
		Short: "Verify that every combination of optional feature flags builds",
		Long: `featurecheck builds a project once per combination of its optional feature
flags and reports the combinations that fail to compile, the conflicts that
are expected (allow-listed), and allow-list entries that went stale.

Features are read from .featurecheck/features.yml or the [features] table of
Cargo.toml. Configuration is read from .featurecheck/config.yml, the user
config and FEATURECHECK_* environment variables.`,
		Example: `  # Verify every valid combination in the current directory
  featurecheck run

  # Pairwise coverage with 8 parallel builds and a one hour budget
  featurecheck run --strategy pairwise --parallel 8 --deadline 1h

  # Show what would be built
  featurecheck plan --strategy each`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
				color.NoColor = true
			}
		},
	}

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return clierrors.Wrap(err, clierrors.Argument, fmt.Sprintf("Run '%s --help' for usage", cmd.CommandPath()))
	})

	rootCmd.AddGroup(
		&cobra.Group{ID: GroupVerification, Title: "Verification:"},
		&cobra.Group{ID: GroupInspection, Title: "Inspection:"},
		&cobra.Group{ID: GroupConfig, Title: "Configuration:"},
	)

	rootCmd.PersistentFlags().StringP("config", "c", "", "Project config file (default: <dir>/.featurecheck/config.yml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Debug logging on stderr")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Informational logging on stderr")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		newRunCmd(),
		newWatchCmd(),
		newPlanCmd(),
		newFlagsCmd(),
		newInitCmd(),
		newHistoryCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// loggerFor returns the logger selected by --debug/--verbose.
func loggerFor(cmd *cobra.Command) *slog.Logger {
	debug, _ := cmd.Flags().GetBool("debug")
	verbose, _ := cmd.Flags().GetBool("verbose")
	return newLogger(cmd.ErrOrStderr(), debug, verbose)
}

// newLogger returns a text logger: debug, info or warn level.
func newLogger(w io.Writer, debug, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case debug:
		level = slog.LevelDebug
	case verbose:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)
	return handleError(os.Stderr, err)
}

// handleError prints err and maps it to an exit code.
func handleError(w io.Writer, err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exit *ExitError
	if errors.As(err, &exit) && exit.Err == nil {
		return exit.Code
	}

	if cliErr := clierrors.AsCLIError(err); cliErr != nil {
		clierrors.FprintError(w, cliErr)
		return exitCodeFor(err)
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	return exitCodeFor(err)
}
