package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ariel-frischer/featurecheck/internal/classify"
	clierrors "github.com/ariel-frischer/featurecheck/internal/errors"
	"github.com/ariel-frischer/featurecheck/internal/feature"
	"github.com/ariel-frischer/featurecheck/internal/report"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// modelSummary is the machine-readable form of the flags command output.
type modelSummary struct {
	Source string           `json:"source" yaml:"source"`
	Flags  []feature.Flag   `json:"flags" yaml:"flags"`
	Allow  []classify.Entry `json:"allow,omitempty" yaml:"allow,omitempty"`
}

func newFlagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flags [dir]",
		Short: "Validate the feature model and print its flags, rules and allow-list",
		Example: `  featurecheck flags
  featurecheck flags --format json`,
		GroupID: GroupInspection,
		Args:    dirArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, args)
			if err != nil {
				return err
			}
			return printModel(cmd, s)
		},
	}
	cmd.Flags().StringP("format", "f", "text", "Output format: text, json, yaml")
	return cmd
}

func summarize(s *session) modelSummary {
	sum := modelSummary{Source: s.model.Source(), Allow: s.allow.Entries()}
	names := s.model.Flags()
	for _, name := range names {
		f, _ := s.model.Flag(name)
		// exclusions declared through mutually_exclusive groups show up on
		// every member
		f.Excludes = nil
		for _, other := range names {
			if other != name && s.model.Excludes(name, other) {
				f.Excludes = append(f.Excludes, other)
			}
		}
		sum.Flags = append(sum.Flags, f)
	}
	return sum
}

func printModel(cmd *cobra.Command, s *session) error {
	out := cmd.OutOrStdout()
	raw, _ := cmd.Flags().GetString("format")
	format, err := report.ParseFormat(raw)
	if err != nil {
		return clierrors.InvalidFormat(raw)
	}

	sum := summarize(s)
	switch format {
	case report.FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	case report.FormatYAML:
		return yaml.NewEncoder(out).Encode(sum)
	}

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(out, "%s %s (%d flags)\n", cyan("Feature model:"), sum.Source, len(sum.Flags))
	width := 0
	for _, f := range sum.Flags {
		width = max(width, len(f.Name))
	}
	for _, f := range sum.Flags {
		var rules []string
		if len(f.Implies) > 0 {
			rules = append(rules, "implies "+strings.Join(f.Implies, ", "))
		}
		if len(f.Excludes) > 0 {
			rules = append(rules, "excludes "+strings.Join(f.Excludes, ", "))
		}
		fmt.Fprintf(out, "  %-*s  %s\n", width, f.Name, dim(strings.Join(rules, "; ")))
	}

	fmt.Fprintf(out, "\n%s %d entries\n", cyan("Allow-list:"), len(sum.Allow))
	for _, e := range sum.Allow {
		line := fmt.Sprintf("  %s  %s", e.Name, e.Pattern)
		if e.Diagnostic != "" {
			line += fmt.Sprintf("  diagnostic %q", e.Diagnostic)
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
