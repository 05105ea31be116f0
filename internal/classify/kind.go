package classify

import (
	"github.com/ariel-frischer/featurecheck/internal/feature"
	"github.com/ariel-frischer/featurecheck/internal/probe"
)

// Kind is the classification of one probed subset.
type Kind string

const (
	// Clean is a successful build no allow-list entry covers.
	Clean Kind = "clean"
	// ExpectedFailure is a failed build explained by an allow-list entry.
	ExpectedFailure Kind = "expected-failure"
	// UnexpectedFailure is a failed build nothing explains.
	UnexpectedFailure Kind = "unexpected-failure"
	// UnexpectedSuccess is a successful build an allow-list entry expected
	// to fail. The entry is stale.
	UnexpectedSuccess Kind = "unexpected-success"
	// InfraError is a build that could not be carried out.
	InfraError Kind = "infra-error"
)

// Kinds lists every kind in report order.
var Kinds = []Kind{Clean, ExpectedFailure, UnexpectedFailure, UnexpectedSuccess, InfraError}

// IsFinding reports whether the kind makes a verification run fail.
func (k Kind) IsFinding() bool {
	switch k {
	case UnexpectedFailure, UnexpectedSuccess, InfraError:
		return true
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}

// Verdict is the classified outcome of one subset.
type Verdict struct {
	Subset feature.Subset `json:"subset" yaml:"subset"`
	Kind   Kind           `json:"kind" yaml:"kind"`
	// Entry names the allow-list entry that matched, if any.
	Entry   string        `json:"entry,omitempty" yaml:"entry,omitempty"`
	Outcome probe.Outcome `json:"outcome" yaml:"outcome"`
	// Minimal is the smallest subset found that still fails the same way.
	// Only set for minimized unexpected failures.
	Minimal *feature.Subset `json:"minimal,omitempty" yaml:"minimal,omitempty"`
}
