package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ariel-frischer/featurecheck/internal/config"
	clierrors "github.com/ariel-frischer/featurecheck/internal/errors"
	"github.com/ariel-frischer/featurecheck/internal/feature"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// descriptorTemplate seeds .featurecheck/features.yml for projects without
// a Cargo manifest.
const descriptorTemplate = `# Optional feature flags of this project.
# Every flag is built alone and in combination with the others.
features:
  - name: example
#   implies: [other]          # flags enabled together with this one
#   excludes: [conflicting]   # flags that can never be enabled with this one

# Groups of flags of which at most one may be enabled.
mutually_exclusive: []
`

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create .featurecheck/config.yml (and features.yml when needed)",
		Long: `Write a commented project config. When the project has neither a Cargo.toml
nor a feature descriptor, a descriptor template is written too.`,
		GroupID: GroupConfig,
		Args:    dirArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := projectDir(args)
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")
			return initProject(cmd, dir, force)
		},
	}
	cmd.Flags().Bool("force", false, "Overwrite existing files")
	return cmd
}

func initProject(cmd *cobra.Command, dir string, force bool) error {
	out := cmd.OutOrStdout()
	green := color.New(color.FgGreen).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	if err := os.MkdirAll(config.ProjectConfigDir(dir), 0o755); err != nil {
		return clierrors.Wrap(err, clierrors.Runtime)
	}

	files := []struct {
		path    string
		content string
		needed  bool
	}{
		{path: config.ProjectConfigPath(dir), content: config.GetDefaultConfigTemplate(), needed: true},
		{path: filepath.Join(dir, feature.DescriptorPath), content: descriptorTemplate, needed: !fileExists(filepath.Join(dir, feature.CargoManifestName))},
	}

	for _, f := range files {
		if !f.needed {
			continue
		}
		if fileExists(f.path) && !force {
			fmt.Fprintf(out, "%s %s\n", dim("exists, skipped:"), f.path)
			continue
		}
		if err := os.WriteFile(f.path, []byte(f.content), 0o644); err != nil {
			return clierrors.WrapWithMessage(err, clierrors.Runtime, "cannot write "+f.path)
		}
		fmt.Fprintf(out, "%s %s\n", green("created"), f.path)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
