package cli

import (
	"context"
	"fmt"
	"path/filepath"

	clierrors "github.com/ariel-frischer/featurecheck/internal/errors"
	"github.com/ariel-frischer/featurecheck/internal/git"
	"github.com/ariel-frischer/featurecheck/internal/history"
	"github.com/ariel-frischer/featurecheck/internal/probe"
	"github.com/ariel-frischer/featurecheck/internal/progress"
	"github.com/ariel-frischer/featurecheck/internal/report"
	"github.com/ariel-frischer/featurecheck/internal/verify"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [dir]",
		Short: "Build every selected feature combination and report conflicts",
		Long: `Build the project once per feature subset chosen by the enumeration strategy
and classify every outcome against the allow-list.

Exit codes:
  0  every subset behaved as expected
  1  unexpected failures, stale allow-list entries or infrastructure errors
  2  the run was incomplete (stopped early or interrupted)
  3  invalid arguments or configuration
  4  build tools missing or feature model malformed
  5  the global deadline expired`,
		Example: `  # Verify the project in the current directory
  featurecheck run

  # Verify another directory, shrinking failures to minimal subsets
  featurecheck run ./crates/parser --minimize

  # CI: sampled run with a JSON report
  featurecheck run --strategy bounded --max-subsets 64 --format json`,
		GroupID: GroupVerification,
		Args:    dirArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, args)
			if err != nil {
				return err
			}
			r, err := verifyOnce(cmd.Context(), cmd, s)
			if err != nil {
				return err
			}
			if code := r.ExitCode(); code != ExitSuccess {
				return &ExitError{Code: code}
			}
			return nil
		},
	}
	addEnumerationFlags(cmd)
	addProbeFlags(cmd)
	return cmd
}

// newBuilder creates the command builder for the session and checks that
// its program is installed.
func newBuilder(s *session) (*probe.CommandBuilder, error) {
	builder, err := probe.NewCommandBuilder(s.cfg.Command,
		probe.WithAction(s.cfg.Action),
		probe.WithActionArgs(s.cfg.ActionArgs...),
		probe.WithDir(s.dir),
	)
	if err != nil {
		return nil, clierrors.WrapWithMessage(err, clierrors.Configuration,
			"invalid build command",
			"The 'command' template must contain {{FEATURES}}",
			"Quote arguments the way a shell would",
		)
	}
	if err := builder.CheckTools(); err != nil {
		return nil, clierrors.ToolsMissing(err, builder.Template())
	}
	return builder, nil
}

// verifyOnce runs one verification of the session, records it in the
// history and renders the report to stdout.
func verifyOnce(ctx context.Context, cmd *cobra.Command, s *session) (*verify.Report, error) {
	logger := loggerFor(cmd)

	builder, err := newBuilder(s)
	if err != nil {
		return nil, err
	}

	ws, err := probe.NewWorkspace(s.cfg.WorkspaceDir, s.cfg.KeepWorkspaces)
	if err != nil {
		return nil, clierrors.WrapWithMessage(err, clierrors.Runtime, "cannot create build workspace",
			"Check that 'workspace_dir' is writable")
	}
	defer func() {
		if err := ws.Close(); err != nil {
			logger.Warn("removing build workspaces", "root", ws.Root(), "error", err)
		}
	}()
	if s.cfg.KeepWorkspaces {
		logger.Info("keeping build workspaces", "root", ws.Root())
	}

	prober := probe.New(builder,
		probe.WithTimeout(s.cfg.ProbeTimeout),
		probe.WithRetryPolicy(s.cfg.RetryPolicy()),
		probe.WithWorkspace(ws),
		probe.WithLogger(logger),
	)

	reporter := progress.NewReporter(cmd.ErrOrStderr(), progress.DetectCapabilities(cmd.ErrOrStderr()))
	runner := verify.NewRunner(prober,
		verify.WithParallel(s.cfg.Parallel),
		verify.WithDeadline(s.cfg.Deadline),
		verify.WithMinimize(s.cfg.Minimize),
		verify.WithFailFast(s.cfg.FailFast),
		verify.WithLogger(logger),
		verify.WithProgress(reporter.Update),
	)

	reporter.Start()
	r, err := runner.Run(ctx, s.model, s.cfg.EnumerateOptions(), s.allow)
	reporter.Stop()
	if err != nil {
		return nil, clierrors.Wrap(err, clierrors.Argument)
	}

	r.Project = filepath.Base(s.dir)
	r.Revision = git.Revision(s.dir)

	hw := history.NewWriter(s.cfg.StateDir, s.cfg.MaxHistoryEntries)
	hw.Warnings = cmd.ErrOrStderr()
	hw.LogReport(cmd.Name(), r)

	format, err := report.ParseFormat(s.cfg.Format)
	if err != nil {
		return nil, clierrors.InvalidFormat(s.cfg.Format)
	}
	all, _ := cmd.Flags().GetBool("all")
	opts := report.Options{Color: !color.NoColor, Verbose: all}
	if err := report.Render(cmd.OutOrStdout(), r, format, opts); err != nil {
		return nil, fmt.Errorf("rendering report: %w", err)
	}
	return r, nil
}
