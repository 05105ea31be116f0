package feature

import (
	"encoding/json"
	"slices"
	"strings"
)

// Subset is one build configuration: the set of flags enabled for a probe.
// Members are stored sorted and deduplicated, so two subsets built from the
// same flags in any order compare equal.
type Subset struct {
	flags []string
}

// NewSubset creates a subset from the given flag identifiers.
func NewSubset(flags ...string) Subset {
	if len(flags) == 0 {
		return Subset{}
	}
	sorted := slices.Clone(flags)
	slices.Sort(sorted)
	return Subset{flags: slices.Compact(sorted)}
}

// Flags returns a copy of the members in sorted order. Never nil.
func (s Subset) Flags() []string {
	if len(s.flags) == 0 {
		return []string{}
	}
	return slices.Clone(s.flags)
}

// Len returns the number of enabled flags.
func (s Subset) Len() int {
	return len(s.flags)
}

// IsEmpty reports whether no flag is enabled.
func (s Subset) IsEmpty() bool {
	return len(s.flags) == 0
}

// Has reports whether the flag is a member.
func (s Subset) Has(flag string) bool {
	_, found := slices.BinarySearch(s.flags, flag)
	return found
}

// With returns a new subset that also contains flag.
func (s Subset) With(flags ...string) Subset {
	return NewSubset(append(s.Flags(), flags...)...)
}

// Without returns a new subset with flag removed.
func (s Subset) Without(flag string) Subset {
	out := make([]string, 0, len(s.flags))
	for _, f := range s.flags {
		if f != flag {
			out = append(out, f)
		}
	}
	return Subset{flags: out}
}

// Union returns the members of both subsets.
func (s Subset) Union(other Subset) Subset {
	return s.With(other.flags...)
}

// IsSubsetOf reports whether every member of s is also in other.
func (s Subset) IsSubsetOf(other Subset) bool {
	for _, f := range s.flags {
		if !other.Has(f) {
			return false
		}
	}
	return true
}

// Equal reports whether both subsets contain the same flags.
func (s Subset) Equal(other Subset) bool {
	return slices.Equal(s.flags, other.flags)
}

// Key returns the canonical comma-joined form used for map keys and
// workspace naming. The empty subset has the empty key.
func (s Subset) Key() string {
	return strings.Join(s.flags, ",")
}

// String returns a display form such as "{a, c}".
func (s Subset) String() string {
	return "{" + strings.Join(s.flags, ", ") + "}"
}

// MarshalJSON encodes the subset as a sorted list of flags.
func (s Subset) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Flags())
}

// UnmarshalJSON decodes a list of flags.
func (s *Subset) UnmarshalJSON(data []byte) error {
	var flags []string
	if err := json.Unmarshal(data, &flags); err != nil {
		return err
	}
	*s = NewSubset(flags...)
	return nil
}

// MarshalYAML encodes the subset as a sorted list of flags.
func (s Subset) MarshalYAML() (any, error) {
	return s.Flags(), nil
}

// Compare orders subsets by cardinality first, then lexicographically by
// their sorted flag identifiers. Enumeration and reports use this order so
// simpler combinations always come first.
func Compare(a, b Subset) int {
	if a.Len() != b.Len() {
		if a.Len() < b.Len() {
			return -1
		}
		return 1
	}
	return slices.Compare(a.flags, b.flags)
}
