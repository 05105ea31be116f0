package feature

import (
	"errors"
	"fmt"
)

// ErrMalformedModel is matched by every model validation failure.
var ErrMalformedModel = errors.New("malformed feature model")

// Rule names the part of the descriptor a MalformedModelError refers to.
type Rule string

const (
	RuleIdentifier Rule = "identifier"
	RuleDuplicate  Rule = "duplicate"
	RuleImplies    Rule = "implies"
	RuleExcludes   Rule = "excludes"
	RuleExclusive  Rule = "mutually_exclusive"
)

// MalformedModelError describes one invalid flag declaration or rule.
type MalformedModelError struct {
	// Flag is the flag whose declaration is invalid.
	Flag string
	// Rule is the offending rule kind.
	Rule Rule
	// Ref is the referenced identifier, if the rule references one.
	Ref string
	// Message describes the problem.
	Message string
	// Source is the descriptor path, if known.
	Source string
	// Line is the descriptor line, 0 when unknown.
	Line int
}

// Error implements the error interface.
func (e *MalformedModelError) Error() string {
	loc := ""
	switch {
	case e.Source != "" && e.Line > 0:
		loc = fmt.Sprintf("%s:%d: ", e.Source, e.Line)
	case e.Source != "":
		loc = e.Source + ": "
	case e.Line > 0:
		loc = fmt.Sprintf("line %d: ", e.Line)
	}
	return fmt.Sprintf("%s: %s%s", ErrMalformedModel, loc, e.Message)
}

// Unwrap lets errors.Is match ErrMalformedModel.
func (e *MalformedModelError) Unwrap() error {
	return ErrMalformedModel
}

// NoDescriptorError is returned when a project directory declares no features.
type NoDescriptorError struct {
	Dir   string
	Tried []string
}

// Error implements the error interface.
func (e *NoDescriptorError) Error() string {
	return fmt.Sprintf("no feature descriptor found in %s (tried %v)", e.Dir, e.Tried)
}
