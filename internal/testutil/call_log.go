package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// CallLogEntry records one invocation of the fake compiler.
type CallLogEntry struct {
	Args      []string `yaml:"args,omitempty"`
	Features  []string `yaml:"features,omitempty"`
	TargetDir string   `yaml:"target_dir,omitempty"`
	Timestamp string   `yaml:"timestamp"`
	ExitCode  int      `yaml:"exit_code"`
}

// FeatureKey returns the comma-joined features of the call.
func (e CallLogEntry) FeatureKey() string {
	return strings.Join(e.Features, ",")
}

// AppendCallLog writes entry as its own YAML file in dir. Helper processes
// run concurrently, so each one gets a file named after its pid.
func AppendCallLog(dir string, entry CallLogEntry) error {
	data, err := yaml.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling call log entry to YAML: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("call-%d.yml", os.Getpid()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing call log to %s: %w", path, err)
	}
	return nil
}

// ReadCallLog reads every entry in dir ordered by timestamp.
func ReadCallLog(dir string) ([]CallLogEntry, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "call-*.yml"))
	if err != nil {
		return nil, fmt.Errorf("listing call log in %s: %w", dir, err)
	}

	entries := make([]CallLogEntry, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading call log from %s: %w", path, err)
		}
		var entry CallLogEntry
		if err := yaml.Unmarshal(data, &entry); err != nil {
			return nil, fmt.Errorf("unmarshaling call log YAML: %w", err)
		}
		entries = append(entries, entry)
	}
	slices.SortFunc(entries, func(a, b CallLogEntry) int {
		return strings.Compare(a.Timestamp, b.Timestamp)
	})
	return entries, nil
}
