package cli

import (
	"fmt"

	"github.com/ariel-frischer/featurecheck/internal/config"
	clierrors "github.com/ariel-frischer/featurecheck/internal/errors"
	"github.com/ariel-frischer/featurecheck/internal/history"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "history",
		Short:        "View past verification runs",
		Long:         `View a log of verification runs with timestamp, project, revision, strategy, exit code, findings and duration.`,
		GroupID:      GroupConfig,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.LoadWithOptions(config.LoadOptions{ProjectDir: ".", ProjectConfigPath: configPath})
			if err != nil {
				return clierrors.ConfigValidationError(err)
			}
			return runHistoryWithStateDir(cmd, cfg.StateDir)
		},
	}
	cmd.Flags().StringP("project", "p", "", "Filter by project name")
	cmd.Flags().IntP("limit", "n", 0, "Limit to last N entries (most recent)")
	cmd.Flags().Bool("clear", false, "Clear all history")
	return cmd
}

// runHistoryWithStateDir runs the history command with a custom state directory.
func runHistoryWithStateDir(cmd *cobra.Command, stateDir string) error {
	clearFlag, _ := cmd.Flags().GetBool("clear")
	projectFilter, _ := cmd.Flags().GetString("project")
	limit, _ := cmd.Flags().GetInt("limit")

	if limit < 0 {
		return clierrors.NewArgumentError(fmt.Sprintf("limit must be positive, got %d", limit))
	}

	if clearFlag {
		if err := history.ClearHistory(stateDir); err != nil {
			return fmt.Errorf("clearing history: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
		return nil
	}

	histFile, err := history.LoadHistory(stateDir)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	entries := filterEntries(histFile.Entries, projectFilter, limit)
	if len(entries) == 0 {
		if projectFilter != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "No matching entries for project '%s'.\n", projectFilter)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No history available.")
		}
		return nil
	}

	displayEntries(cmd, entries)
	return nil
}

// filterEntries filters and limits history entries.
func filterEntries(entries []history.HistoryEntry, projectFilter string, limit int) []history.HistoryEntry {
	var result []history.HistoryEntry
	for _, entry := range entries {
		if projectFilter == "" || entry.Project == projectFilter {
			result = append(result, entry)
		}
	}

	// Apply limit (most recent entries)
	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result
}

// displayEntries formats and displays history entries.
func displayEntries(cmd *cobra.Command, entries []history.HistoryEntry) {
	out := cmd.OutOrStdout()

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	for _, entry := range entries {
		timestamp := entry.Timestamp.Local().Format("2006-01-02 15:04:05")

		exitCodeStr := fmt.Sprintf("%d", entry.ExitCode)
		switch entry.ExitCode {
		case ExitSuccess:
			exitCodeStr = green(exitCodeStr)
		case ExitIncomplete:
			exitCodeStr = yellow(exitCodeStr)
		default:
			exitCodeStr = red(exitCodeStr)
		}

		project := entry.Project
		if project == "" {
			project = "-"
		}
		revision := entry.Revision
		if revision == "" {
			revision = "-"
		}

		fmt.Fprintf(out, "%s  %-6s %-15s %-22s %-10s exit=%s  %d/%d findings  %s\n",
			cyan(timestamp),
			entry.Command,
			project,
			revision,
			entry.Strategy,
			exitCodeStr,
			entry.Findings,
			entry.Tested,
			entry.Duration,
		)
	}
}
