// Package classify decides what a probe outcome means given the allow-list
// of known conflicts.
package classify

import (
	"regexp"
	"strings"

	"github.com/ariel-frischer/featurecheck/internal/probe"
)

// Classify maps an outcome to a verdict. It is pure: the same outcome and
// allow-list always give the same verdict. Entries are tried in order and
// the first one that applies wins.
func Classify(out probe.Outcome, allow *AllowList) Verdict {
	v := Verdict{Subset: out.Subset, Outcome: out}

	if out.Infra {
		v.Kind = InfraError
		return v
	}

	var entries []compiledEntry
	if allow != nil {
		entries = allow.entries
	}

	if out.Succeeded() {
		v.Kind = Clean
		for _, e := range entries {
			if e.matches(out.Subset) {
				v.Kind = UnexpectedSuccess
				v.Entry = e.Name
				break
			}
		}
		return v
	}

	v.Kind = UnexpectedFailure
	for _, e := range entries {
		if e.matches(out.Subset) && strings.Contains(out.Diagnostic, e.Diagnostic) {
			v.Kind = ExpectedFailure
			v.Entry = e.Name
			break
		}
	}
	return v
}

var errorLine = regexp.MustCompile(`^\s*error(\[\w+\])?:`)

// Signature returns the first compiler error line of a diagnostic, trimmed,
// or "" when there is none. Failures with equal signatures are treated as
// the same failure.
func Signature(diagnostic string) string {
	for line := range strings.Lines(diagnostic) {
		if errorLine.MatchString(line) {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

// SameFailure reports whether candidate fails the way original did: both
// are build failures and, when original has a signature, candidate's
// diagnostic carries it.
func SameFailure(original, candidate probe.Outcome) bool {
	if candidate.Infra || candidate.Succeeded() {
		return false
	}
	sig := Signature(original.Diagnostic)
	if sig == "" {
		return true
	}
	return Signature(candidate.Diagnostic) == sig
}
