package feature

import (
	"errors"
	"fmt"
	"slices"
)

// Flag is one declared feature flag.
type Flag struct {
	// Name is the identifier, unique within a project.
	Name string `yaml:"name" json:"name"`
	// Implies lists flags that must be enabled whenever this one is.
	Implies []string `yaml:"implies,omitempty" json:"implies,omitempty"`
	// Excludes lists flags that can never be enabled together with this one.
	Excludes []string `yaml:"excludes,omitempty" json:"excludes,omitempty"`
}

// Model is the validated, read-only set of flags and rules of one project.
type Model struct {
	source   string
	order    []string
	flags    map[string]Flag
	excludes map[string]map[string]bool
}

// Load validates a descriptor and builds the model. All problems are
// reported together; every one of them matches ErrMalformedModel.
func Load(desc Descriptor) (*Model, error) {
	m := &Model{
		source:   desc.Source,
		flags:    make(map[string]Flag, len(desc.Features)),
		excludes: make(map[string]map[string]bool),
	}

	var errs []error
	fail := func(flag string, rule Rule, ref, msg string) {
		errs = append(errs, &MalformedModelError{
			Flag: flag, Rule: rule, Ref: ref, Message: msg,
			Source: desc.Source, Line: desc.line(flag),
		})
	}

	for _, f := range desc.Features {
		if f.Name == "" {
			fail("", RuleIdentifier, "", "flag with empty identifier")
			continue
		}
		if _, dup := m.flags[f.Name]; dup {
			fail(f.Name, RuleDuplicate, "", fmt.Sprintf("duplicate flag identifier %q", f.Name))
			continue
		}
		m.flags[f.Name] = Flag{
			Name:     f.Name,
			Implies:  NewSubset(f.Implies...).Flags(),
			Excludes: NewSubset(f.Excludes...).Flags(),
		}
		m.order = append(m.order, f.Name)
	}
	slices.Sort(m.order)

	for _, name := range m.order {
		f := m.flags[name]
		for _, ref := range f.Implies {
			switch {
			case ref == name:
				fail(name, RuleImplies, ref, fmt.Sprintf("flag %q implies itself", name))
			case !m.declared(ref):
				fail(name, RuleImplies, ref, fmt.Sprintf("flag %q implies unknown flag %q", name, ref))
			case slices.Contains(f.Excludes, ref):
				fail(name, RuleImplies, ref, fmt.Sprintf("flag %q both implies and excludes %q", name, ref))
			}
		}
		for _, ref := range f.Excludes {
			switch {
			case ref == name:
				fail(name, RuleExcludes, ref, fmt.Sprintf("flag %q excludes itself", name))
			case !m.declared(ref):
				fail(name, RuleExcludes, ref, fmt.Sprintf("flag %q excludes unknown flag %q", name, ref))
			default:
				m.exclude(name, ref)
			}
		}
	}

	for i, group := range desc.MutuallyExclusive {
		members := NewSubset(group...).Flags()
		if len(members) < 2 {
			fail("", RuleExclusive, "", fmt.Sprintf("mutually_exclusive group %d needs at least two distinct flags", i))
			continue
		}
		unknown := false
		for _, ref := range members {
			if !m.declared(ref) {
				fail("", RuleExclusive, ref, fmt.Sprintf("mutually_exclusive group %d references unknown flag %q", i, ref))
				unknown = true
			}
		}
		if unknown {
			continue
		}
		for a := range members {
			for b := a + 1; b < len(members); b++ {
				m.exclude(members[a], members[b])
			}
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return m, nil
}

func (m *Model) declared(name string) bool {
	_, ok := m.flags[name]
	return ok
}

// exclude records a symmetric exclusion.
func (m *Model) exclude(a, b string) {
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		set := m.excludes[pair[0]]
		if set == nil {
			set = make(map[string]bool)
			m.excludes[pair[0]] = set
		}
		set[pair[1]] = true
	}
}

// Source returns the descriptor path the model was loaded from.
func (m *Model) Source() string {
	return m.source
}

// Flags returns the declared identifiers in sorted order.
func (m *Model) Flags() []string {
	return slices.Clone(m.order)
}

// Len returns the number of declared flags.
func (m *Model) Len() int {
	return len(m.order)
}

// Flag looks up a declared flag.
func (m *Model) Flag(name string) (Flag, bool) {
	f, ok := m.flags[name]
	return f, ok
}

// Excludes reports whether a and b are mutually exclusive.
func (m *Model) Excludes(a, b string) bool {
	return m.excludes[a][b]
}

// IsValidSubset reports whether the subset only contains declared flags,
// never pairs two mutually exclusive flags, and is closed under implication.
func (m *Model) IsValidSubset(s Subset) bool {
	for i, name := range s.flags {
		f, ok := m.flags[name]
		if !ok {
			return false
		}
		for _, implied := range f.Implies {
			if !s.Has(implied) {
				return false
			}
		}
		for _, other := range s.flags[i+1:] {
			if m.excludes[name][other] {
				return false
			}
		}
	}
	return true
}

// Closure returns s extended with every flag its members transitively
// imply. Unknown members are kept as they are.
func (m *Model) Closure(s Subset) Subset {
	seen := make(map[string]bool, s.Len())
	queue := s.Flags()
	for _, f := range queue {
		seen[f] = true
	}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, implied := range m.flags[name].Implies {
			if !seen[implied] {
				seen[implied] = true
				queue = append(queue, implied)
			}
		}
	}
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	return NewSubset(out...)
}

// All returns the subset of every declared flag.
func (m *Model) All() Subset {
	return NewSubset(m.order...)
}
