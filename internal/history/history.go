// Package history persists a short summary of every verification run in
// the state directory so past results can be listed.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ariel-frischer/featurecheck/internal/classify"
	"github.com/ariel-frischer/featurecheck/internal/verify"
	"gopkg.in/yaml.v3"
)

// FileName is the history file inside the state directory.
const FileName = "history.yml"

// HistoryEntry summarizes one run.
type HistoryEntry struct {
	Timestamp  time.Time `yaml:"timestamp"`
	RunID      string    `yaml:"run_id"`
	Command    string    `yaml:"command"`
	Project    string    `yaml:"project,omitempty"`
	Revision   string    `yaml:"revision,omitempty"`
	Strategy   string    `yaml:"strategy,omitempty"`
	ExitCode   int       `yaml:"exit_code"`
	Duration   string    `yaml:"duration"`
	Tested     int       `yaml:"tested"`
	Findings   int       `yaml:"findings"`
	Skipped    int       `yaml:"skipped,omitempty"`
	Sampled    bool      `yaml:"sampled,omitempty"`
	Incomplete bool      `yaml:"incomplete,omitempty"`
}

// HistoryFile is the on-disk layout.
type HistoryFile struct {
	Entries []HistoryEntry `yaml:"entries"`
}

// EntryFromReport summarizes a verification report.
func EntryFromReport(command string, r *verify.Report) HistoryEntry {
	findings := 0
	for _, k := range classify.Kinds {
		if k.IsFinding() {
			findings += r.Summary.Counts[k]
		}
	}
	return HistoryEntry{
		Timestamp:  r.FinishedAt,
		RunID:      r.RunID,
		Command:    command,
		Project:    r.Project,
		Revision:   r.Revision,
		Strategy:   string(r.Strategy),
		ExitCode:   r.ExitCode(),
		Duration:   r.Duration().Round(time.Millisecond).String(),
		Tested:     r.Summary.Total,
		Findings:   findings,
		Skipped:    r.Summary.Skipped,
		Sampled:    r.Sampled,
		Incomplete: r.Incomplete,
	}
}

// LoadHistory reads the history file. A missing file is an empty history.
func LoadHistory(stateDir string) (*HistoryFile, error) {
	path := filepath.Join(stateDir, FileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &HistoryFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history file: %w", err)
	}

	var history HistoryFile
	if err := yaml.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("parsing history file %s: %w", path, err)
	}
	return &history, nil
}

// SaveHistory writes the history file atomically (temp file + rename).
func SaveHistory(stateDir string, history *HistoryFile) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := yaml.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}

	path := filepath.Join(stateDir, FileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing history file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming history file: %w", err)
	}
	return nil
}

// ClearHistory removes the history file.
func ClearHistory(stateDir string) error {
	err := os.Remove(filepath.Join(stateDir, FileName))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing history file: %w", err)
	}
	return nil
}
