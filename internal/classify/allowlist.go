package classify

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ariel-frischer/featurecheck/internal/feature"
	"github.com/google/cel-go/cel"
)

// Pattern selects subsets by explicit flag predicates and an optional CEL
// expression. All given conditions must hold.
type Pattern struct {
	// Requires lists flags that must all be enabled.
	Requires []string `json:"requires,omitempty" yaml:"requires,omitempty"`
	// Excludes lists flags that must all be disabled.
	Excludes []string `json:"excludes,omitempty" yaml:"excludes,omitempty"`
	// Exact restricts the match to the subset equal to Requires.
	Exact bool `json:"exact,omitempty" yaml:"exact,omitempty"`
	// Expr is a CEL boolean expression over `features`, the list of enabled
	// flags, e.g. `"a" in features && !("b" in features)`.
	Expr string `json:"expr,omitempty" yaml:"expr,omitempty"`
}

// IsEmpty reports whether the pattern has no condition at all.
func (p Pattern) IsEmpty() bool {
	return len(p.Requires) == 0 && len(p.Excludes) == 0 && !p.Exact && strings.TrimSpace(p.Expr) == ""
}

// String renders the pattern for reports.
func (p Pattern) String() string {
	var parts []string
	if len(p.Requires) > 0 {
		op := "+"
		if p.Exact {
			op = "="
		}
		parts = append(parts, op+"{"+strings.Join(p.Requires, ", ")+"}")
	} else if p.Exact {
		parts = append(parts, "={}")
	}
	if len(p.Excludes) > 0 {
		parts = append(parts, "-{"+strings.Join(p.Excludes, ", ")+"}")
	}
	if p.Expr != "" {
		parts = append(parts, "expr("+p.Expr+")")
	}
	return strings.Join(parts, " ")
}

// Entry is one known, accepted conflict.
type Entry struct {
	Name    string  `json:"name" yaml:"name"`
	Pattern Pattern `json:"pattern" yaml:",inline"`
	// Diagnostic must occur in the build output, case-sensitively. Empty
	// matches any output.
	Diagnostic string `json:"diagnostic,omitempty" yaml:"diagnostic,omitempty"`
}

type compiledEntry struct {
	Entry
	prg cel.Program
}

// AllowList is an ordered, compiled list of entries. The zero value and a
// nil *AllowList are empty lists.
type AllowList struct {
	entries []compiledEntry
}

// Compile validates entries and compiles their expressions. Every entry
// needs a name and a non-empty pattern.
func Compile(entries []Entry) (*AllowList, error) {
	a := &AllowList{entries: make([]compiledEntry, 0, len(entries))}

	var env *cel.Env
	var errs []error
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		name := e.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
			errs = append(errs, fmt.Errorf("allow-list entry %s: name is required", name))
		} else if seen[name] {
			errs = append(errs, fmt.Errorf("allow-list entry %q: duplicate name", name))
		}
		seen[name] = true

		if e.Pattern.IsEmpty() {
			errs = append(errs, fmt.Errorf("allow-list entry %q: pattern matches every subset; set requires, excludes, exact or expr", name))
			continue
		}
		for _, f := range e.Pattern.Requires {
			if slices.Contains(e.Pattern.Excludes, f) {
				errs = append(errs, fmt.Errorf("allow-list entry %q: flag %q both required and excluded", name, f))
			}
		}

		ce := compiledEntry{Entry: e}
		ce.Pattern.Requires = feature.NewSubset(e.Pattern.Requires...).Flags()
		ce.Pattern.Excludes = feature.NewSubset(e.Pattern.Excludes...).Flags()
		if strings.TrimSpace(e.Pattern.Expr) != "" {
			if env == nil {
				var err error
				if env, err = newEnv(); err != nil {
					return nil, err
				}
			}
			prg, err := compileExpr(env, e.Pattern.Expr)
			if err != nil {
				errs = append(errs, fmt.Errorf("allow-list entry %q: %w", name, err))
				continue
			}
			ce.prg = prg
		}
		a.entries = append(a.entries, ce)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return a, nil
}

func newEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("features", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}
	return env, nil
}

func compileExpr(env *cel.Env, expr string) (cel.Program, error) {
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL compile error: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("CEL expression must be boolean, got %s", ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("CEL program error: %w", err)
	}
	return prg, nil
}

// Len returns the number of entries.
func (a *AllowList) Len() int {
	if a == nil {
		return 0
	}
	return len(a.entries)
}

// Entries returns the entries in order.
func (a *AllowList) Entries() []Entry {
	if a == nil {
		return nil
	}
	out := make([]Entry, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.Entry
	}
	return out
}

// Validate checks that entries only name flags the model declares.
func (a *AllowList) Validate(model *feature.Model) error {
	if a == nil {
		return nil
	}
	var errs []error
	for _, e := range a.entries {
		for _, f := range slices.Concat(e.Pattern.Requires, e.Pattern.Excludes) {
			if _, ok := model.Flag(f); !ok {
				errs = append(errs, fmt.Errorf("allow-list entry %q references unknown flag %q", e.Name, f))
			}
		}
	}
	return errors.Join(errs...)
}

// matches reports whether the entry's pattern selects subset.
func (e compiledEntry) matches(subset feature.Subset) bool {
	for _, f := range e.Pattern.Requires {
		if !subset.Has(f) {
			return false
		}
	}
	for _, f := range e.Pattern.Excludes {
		if subset.Has(f) {
			return false
		}
	}
	if e.Pattern.Exact && subset.Len() != len(e.Pattern.Requires) {
		return false
	}
	if e.prg != nil {
		out, _, err := e.prg.Eval(map[string]any{"features": subset.Flags()})
		if err != nil {
			return false
		}
		ok, isBool := out.Value().(bool)
		return isBool && ok
	}
	return true
}
