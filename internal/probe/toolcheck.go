package probe

import (
	"os/exec"
)

// ToolChecker is implemented by builders that depend on external tools.
// Callers check tools once before a run so that a missing compiler fails
// fast instead of producing one infra error per subset.
type ToolChecker interface {
	RequiredTools() []string
	CheckTools() error
}

// CheckTools looks every tool up on PATH and returns a ToolMissingError
// listing the missing ones.
func CheckTools(tools ...string) error {
	var missing []string
	for _, tool := range tools {
		if _, err := exec.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return &ToolMissingError{Tools: missing}
	}
	return nil
}
