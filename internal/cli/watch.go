package cli

import (
	"fmt"
	"path/filepath"
	"time"

	clierrors "github.com/ariel-frischer/featurecheck/internal/errors"
	"github.com/ariel-frischer/featurecheck/internal/watch"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Re-run verification whenever sources, features or config change",
		Long: `Run a verification, then watch the project tree and run again after every
batch of changes. Configuration and the feature model are reloaded before
each run. Stop with Ctrl-C.`,
		Example: `  # Fast feedback loop while editing features
  featurecheck watch --strategy each`,
		GroupID: GroupVerification,
		Args:    dirArg,
		RunE:    runWatch,
	}
	addEnumerationFlags(cmd)
	addProbeFlags(cmd)
	cmd.Flags().Duration("debounce", watch.DefaultDebounce, "Quiet period before a re-run")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := loggerFor(cmd)
	out := cmd.OutOrStdout()

	dir, err := projectDir(args)
	if err != nil {
		return err
	}
	debounce, _ := cmd.Flags().GetDuration("debounce")

	// keep the first session to learn where build workspaces live
	first, err := newSession(cmd, []string{dir})
	if err != nil {
		return err
	}
	var ignore []string
	for _, p := range []string{first.cfg.WorkspaceDir, first.cfg.StateDir} {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			ignore = append(ignore, abs)
		}
	}

	w, err := watch.New(dir, watch.WithDebounce(debounce), watch.WithIgnore(ignore...))
	if err != nil {
		return clierrors.WrapWithMessage(err, clierrors.Runtime, "cannot watch project",
			"Raise the inotify watch limit (fs.inotify.max_user_watches) on large trees")
	}
	defer w.Close()

	runOnce := func(s *session) {
		if s == nil {
			var err error
			if s, err = newSession(cmd, []string{dir}); err != nil {
				printWatchError(cmd, err)
				return
			}
		}
		if _, err := verifyOnce(ctx, cmd, s); err != nil {
			printWatchError(cmd, err)
		}
	}

	runOnce(first)
	changes := w.Changes(ctx)
	dim := color.New(color.Faint).SprintFunc()
	fmt.Fprintln(out, dim(fmt.Sprintf("\nWatching %s for changes...", dir)))

	for batch := range changes {
		logger.Info("change detected", "paths", batch)
		fmt.Fprintf(out, "\n%s %s\n", dim(time.Now().Format("15:04:05")), dim(describeBatch(dir, batch)))
		runOnce(nil)
		fmt.Fprintln(out, dim("\nWatching for changes..."))
	}
	return nil
}

// printWatchError reports a failed iteration without ending the loop.
func printWatchError(cmd *cobra.Command, err error) {
	if cliErr := clierrors.AsCLIError(err); cliErr != nil {
		clierrors.FprintError(cmd.ErrOrStderr(), cliErr)
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
}

// describeBatch summarizes changed paths relative to dir.
func describeBatch(dir string, batch []string) string {
	if len(batch) == 0 {
		return "changes detected"
	}
	first := batch[0]
	if rel, err := filepath.Rel(dir, first); err == nil {
		first = rel
	}
	if len(batch) == 1 {
		return "changed: " + first
	}
	return fmt.Sprintf("changed: %s and %d more", first, len(batch)-1)
}
