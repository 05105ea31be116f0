package verify

import (
	"fmt"
	"time"

	"github.com/ariel-frischer/featurecheck/internal/classify"
	"github.com/ariel-frischer/featurecheck/internal/enumerate"
	"github.com/ariel-frischer/featurecheck/internal/feature"
	"github.com/google/uuid"
)

// Exit codes derived from a report.
const (
	ExitPassed   = 0
	ExitFindings = 1
	// ExitIncomplete means the run tested fewer subsets than the strategy asked for.
	ExitIncomplete = 2
	// ExitDeadline means the global deadline cut the run short.
	ExitDeadline = 5
)

// Reasons a run is incomplete.
const (
	ReasonDeadline = "deadline exceeded"
	ReasonFailFast = "stopped after first finding"
	ReasonCanceled = "canceled"
)

// Summary aggregates a run.
type Summary struct {
	// Total is the number of subsets probed.
	Total   int                   `json:"total" yaml:"total"`
	Counts  map[classify.Kind]int `json:"counts" yaml:"counts"`
	Skipped int                   `json:"skipped" yaml:"skipped"`
}

// Report is the result of one verification run.
type Report struct {
	RunID      string             `json:"run_id" yaml:"run_id"`
	Project    string             `json:"project,omitempty" yaml:"project,omitempty"`
	Revision   string             `json:"revision,omitempty" yaml:"revision,omitempty"`
	Strategy   enumerate.Strategy `json:"strategy" yaml:"strategy"`
	StartedAt  time.Time          `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time          `json:"finished_at" yaml:"finished_at"`
	// Verdicts holds every probed subset in enumeration order.
	Verdicts []classify.Verdict `json:"verdicts" yaml:"verdicts"`
	// Skipped lists subsets that were never probed.
	Skipped []feature.Subset `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Summary Summary          `json:"summary" yaml:"summary"`
	// Sampled marks a bounded run that built a sample of the valid
	// subsets. It does not make the run incomplete.
	Sampled          bool   `json:"sampled" yaml:"sampled"`
	Incomplete       bool   `json:"incomplete" yaml:"incomplete"`
	IncompleteReason string `json:"incomplete_reason,omitempty" yaml:"incomplete_reason,omitempty"`
}

func newReport(strategy enumerate.Strategy, start time.Time) *Report {
	return &Report{
		RunID:     GenerateRunID(start),
		Strategy:  strategy,
		StartedAt: start,
		Summary:   Summary{Counts: make(map[classify.Kind]int, len(classify.Kinds))},
	}
}

// GenerateRunID returns an id of the form 20060102-150405_1a2b3c4d.
func GenerateRunID(t time.Time) string {
	return fmt.Sprintf("%s_%s", t.Format("20060102-150405"), uuid.New().String()[:8])
}

// Duration is the wall-clock time of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Findings returns the verdicts that fail the run, in enumeration order.
func (r *Report) Findings() []classify.Verdict {
	var out []classify.Verdict
	for _, v := range r.Verdicts {
		if v.Kind.IsFinding() {
			out = append(out, v)
		}
	}
	return out
}

// Passed reports whether the run is complete and has no findings.
func (r *Report) Passed() bool {
	return !r.Incomplete && len(r.Findings()) == 0
}

// ExitCode maps the report to a process exit code. A deadline that cut the
// run short wins over findings, findings win over other incompleteness.
func (r *Report) ExitCode() int {
	switch {
	case r.Incomplete && r.IncompleteReason == ReasonDeadline:
		return ExitDeadline
	case len(r.Findings()) > 0:
		return ExitFindings
	case r.Incomplete:
		return ExitIncomplete
	}
	return ExitPassed
}

func (r *Report) finish(end time.Time) {
	r.FinishedAt = end
	r.Summary.Total = len(r.Verdicts)
	r.Summary.Skipped = len(r.Skipped)
	for _, v := range r.Verdicts {
		r.Summary.Counts[v.Kind]++
	}
}

func (r *Report) markIncomplete(reason string) {
	if r.Incomplete {
		return
	}
	r.Incomplete = true
	r.IncompleteReason = reason
}
