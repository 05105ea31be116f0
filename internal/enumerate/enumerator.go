// Package enumerate produces the ordered sequence of feature subsets to probe.
//
// Every strategy yields subsets that satisfy Model.IsValidSubset, without
// duplicates, ordered by feature.Compare: smallest cardinality first, ties
// broken lexicographically. Sequences are lazy where the strategy allows it
// and restart from the beginning on every call to Subsets.
package enumerate

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/ariel-frischer/featurecheck/internal/feature"
)

// DefaultSeed seeds the bounded sampler when no seed is configured.
const DefaultSeed uint64 = 0x5eed

// Options configures an Enumerator.
type Options struct {
	// Strategy selects the subsets to produce.
	Strategy Strategy
	// MaxSubsets caps the Bounded strategy. Required for Bounded.
	MaxSubsets int
	// MaxDepth caps subset cardinality for Exhaustive and Bounded. 0 = no cap.
	MaxDepth int
	// Seed drives the Bounded sampler.
	Seed uint64
}

// Enumerator yields feature subsets for one model and strategy.
type Enumerator struct {
	model *feature.Model
	opts  Options

	sampleOnce sync.Once
	sample     []feature.Subset
	truncated  bool
}

// New validates the options and returns an Enumerator.
func New(model *feature.Model, opts Options) (*Enumerator, error) {
	if model == nil {
		return nil, errors.New("enumerate: nil model")
	}
	if opts.Strategy == "" {
		opts.Strategy = Exhaustive
	}
	if !slices.Contains(ValidStrategies, opts.Strategy) {
		return nil, fmt.Errorf("enumerate: unknown strategy %q", opts.Strategy)
	}
	if opts.MaxDepth < 0 {
		return nil, fmt.Errorf("enumerate: max depth must not be negative, got %d", opts.MaxDepth)
	}
	if opts.Strategy == Bounded && opts.MaxSubsets < 1 {
		return nil, fmt.Errorf("enumerate: bounded strategy needs max subsets >= 1, got %d", opts.MaxSubsets)
	}
	if opts.Seed == 0 {
		opts.Seed = DefaultSeed
	}
	return &Enumerator{model: model, opts: opts}, nil
}

// Strategy returns the configured strategy.
func (e *Enumerator) Strategy() Strategy {
	return e.opts.Strategy
}

// Subsets returns the subset sequence. Each call starts a fresh iteration
// and yields the same subsets in the same order.
func (e *Enumerator) Subsets() iter.Seq[feature.Subset] {
	switch e.opts.Strategy {
	case Pairwise:
		return slices.Values(pairwise(e.model))
	case Bounded:
		e.sampleOnce.Do(e.bounded)
		return slices.Values(e.sample)
	case Each:
		return slices.Values(each(e.model))
	default:
		return valid(e.model, e.opts.MaxDepth)
	}
}

// Truncated reports whether the Bounded strategy had to sample because the
// number of valid subsets exceeds MaxSubsets. Always false for other
// strategies.
func (e *Enumerator) Truncated() bool {
	if e.opts.Strategy != Bounded {
		return false
	}
	e.sampleOnce.Do(e.bounded)
	return e.truncated
}

// valid lazily yields every valid subset up to maxDepth members.
func valid(model *feature.Model, maxDepth int) iter.Seq[feature.Subset] {
	return func(yield func(feature.Subset) bool) {
		for s := range powerset(model.Flags(), maxDepth) {
			if model.IsValidSubset(s) && !yield(s) {
				return
			}
		}
	}
}

// powerset yields all combinations of flags (which must be sorted) by
// increasing size, each size in lexicographic order.
func powerset(flags []string, maxDepth int) iter.Seq[feature.Subset] {
	return func(yield func(feature.Subset) bool) {
		n := len(flags)
		top := n
		if maxDepth > 0 && maxDepth < n {
			top = maxDepth
		}
		for k := 0; k <= top; k++ {
			if !combinations(flags, k, yield) {
				return
			}
		}
	}
}

// combinations yields the k-element combinations of flags in lexicographic
// order. Returns false when the consumer stopped.
func combinations(flags []string, k int, yield func(feature.Subset) bool) bool {
	n := len(flags)
	if k == 0 {
		return yield(feature.NewSubset())
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	members := make([]string, k)
	for {
		for i, j := range idx {
			members[i] = flags[j]
		}
		if !yield(feature.NewSubset(members...)) {
			return false
		}
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return true
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// each yields the baseline plus every flag's implication closure.
func each(model *feature.Model) []feature.Subset {
	out := newSubsetSet()
	out.add(feature.NewSubset())
	for _, f := range model.Flags() {
		if s := model.Closure(feature.NewSubset(f)); model.IsValidSubset(s) {
			out.add(s)
		}
	}
	return out.sorted()
}

// subsetSet deduplicates subsets by key.
type subsetSet map[string]feature.Subset

func newSubsetSet() subsetSet {
	return make(subsetSet)
}

func (s subsetSet) add(sub feature.Subset) {
	s[sub.Key()] = sub
}

func (s subsetSet) sorted() []feature.Subset {
	out := make([]feature.Subset, 0, len(s))
	for _, sub := range s {
		out = append(out, sub)
	}
	slices.SortFunc(out, feature.Compare)
	return out
}
