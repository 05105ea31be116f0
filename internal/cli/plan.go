package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ariel-frischer/featurecheck/internal/enumerate"
	clierrors "github.com/ariel-frischer/featurecheck/internal/errors"
	"github.com/ariel-frischer/featurecheck/internal/feature"
	"github.com/ariel-frischer/featurecheck/internal/probe"
	"github.com/ariel-frischer/featurecheck/internal/report"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// plan is the machine-readable form of the plan command output.
type plan struct {
	Strategy  enumerate.Strategy `json:"strategy" yaml:"strategy"`
	Subsets   []feature.Subset   `json:"subsets" yaml:"subsets"`
	Truncated bool               `json:"truncated" yaml:"truncated"`
	Commands  [][]string         `json:"commands,omitempty" yaml:"commands,omitempty"`
}

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan [dir]",
		Short: "List the feature subsets a run would build, without building",
		Example: `  # Subsets of the default strategy
  featurecheck plan

  # Pairwise plan with the exact build commands
  featurecheck plan --strategy pairwise --commands`,
		GroupID: GroupInspection,
		Args:    dirArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, args)
			if err != nil {
				return err
			}
			p, err := buildPlan(cmd, s)
			if err != nil {
				return err
			}
			return printPlan(cmd, p)
		},
	}
	addEnumerationFlags(cmd)
	cmd.Flags().StringP("format", "f", "text", "Output format: text, json, yaml")
	cmd.Flags().Bool("commands", false, "Show the build command of every subset")
	return cmd
}

func buildPlan(cmd *cobra.Command, s *session) (*plan, error) {
	e, err := enumerate.New(s.model, s.cfg.EnumerateOptions())
	if err != nil {
		return nil, clierrors.Wrap(err, clierrors.Argument)
	}

	p := &plan{Strategy: e.Strategy(), Truncated: e.Truncated()}
	for subset := range e.Subsets() {
		p.Subsets = append(p.Subsets, subset)
	}

	if withCommands, _ := cmd.Flags().GetBool("commands"); withCommands {
		builder, err := probe.NewCommandBuilder(s.cfg.Command,
			probe.WithAction(s.cfg.Action),
			probe.WithActionArgs(s.cfg.ActionArgs...),
		)
		if err != nil {
			return nil, clierrors.Wrap(err, clierrors.Configuration)
		}
		for _, subset := range p.Subsets {
			args, err := builder.Args(probe.Request{Subset: subset, Workspace: "<workspace>"})
			if err != nil {
				return nil, clierrors.Wrap(err, clierrors.Configuration)
			}
			p.Commands = append(p.Commands, args)
		}
	}
	return p, nil
}

func printPlan(cmd *cobra.Command, p *plan) error {
	out := cmd.OutOrStdout()
	raw, _ := cmd.Flags().GetString("format")
	format, err := report.ParseFormat(raw)
	if err != nil {
		return clierrors.InvalidFormat(raw)
	}

	switch format {
	case report.FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	case report.FormatYAML:
		return yaml.NewEncoder(out).Encode(p)
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	for i, subset := range p.Subsets {
		fmt.Fprintf(out, "%4d  %s\n", i+1, cyan(subset))
		if i < len(p.Commands) {
			fmt.Fprintf(out, "      %s\n", dim(shellJoin(p.Commands[i])))
		}
	}
	fmt.Fprintf(out, "\n%d subsets (%s)\n", len(p.Subsets), p.Strategy)
	if p.Truncated {
		fmt.Fprintln(out, "Sampled: the model has more valid subsets than --max-subsets")
	}
	return nil
}

// shellJoin renders argv for display, quoting empty and spaced arguments.
func shellJoin(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t'\"") {
			a = strconv.Quote(a)
		}
		quoted[i] = a
	}
	return strings.Join(quoted, " ")
}
