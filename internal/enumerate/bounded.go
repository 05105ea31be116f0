package enumerate

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/ariel-frischer/featurecheck/internal/feature"
)

const (
	// walkBudget caps the combinations examined while looking for more
	// than MaxSubsets valid subsets in enumeration order.
	walkBudget = 1 << 16
	// drawsPerSubset caps the random draws spent per wanted subset.
	drawsPerSubset = 64
)

// bounded fills e.sample with at most MaxSubsets valid subsets in
// enumeration order.
//
// A short walk over the power set decides whether sampling is needed: when
// the walk ends within walkBudget combinations having found no more than
// MaxSubsets valid subsets, all of them are kept. Otherwise subsets are
// drawn at random, never walking the power set: a cardinality k is picked
// with weight C(n, k), then k distinct flags, then the implication closure.
// Draws that are invalid, too deep or already taken are rejected. When the
// draw budget runs out, the subsets found by the walk fill the remainder.
func (e *Enumerator) bounded() {
	limit := e.opts.MaxSubsets
	walked, complete := walkValid(e.model, e.opts.MaxDepth, limit+1, walkBudget)
	if complete && len(walked) <= limit {
		e.sample = walked
		return
	}
	e.truncated = true

	flags := e.model.Flags()
	rng := rand.New(rand.NewPCG(e.opts.Seed, e.opts.Seed^0x9e3779b97f4a7c15))
	weights := cardinalityWeights(len(flags), e.opts.MaxDepth)

	taken := newSubsetSet()
	perm := make([]int, len(flags))
	members := make([]string, 0, len(flags))
	for draws := drawsPerSubset * limit; draws > 0 && len(taken) < limit; draws-- {
		k := pickWeighted(rng, weights)
		for i := range perm {
			perm[i] = i
		}
		members = members[:0]
		for i := range k {
			j := i + rng.IntN(len(perm)-i)
			perm[i], perm[j] = perm[j], perm[i]
			members = append(members, flags[perm[i]])
		}
		s := e.model.Closure(feature.NewSubset(members...))
		if e.opts.MaxDepth > 0 && s.Len() > e.opts.MaxDepth {
			continue
		}
		if _, dup := taken[s.Key()]; dup || !e.model.IsValidSubset(s) {
			continue
		}
		taken.add(s)
	}
	for _, s := range walked {
		if len(taken) >= limit {
			break
		}
		taken.add(s)
	}
	e.sample = taken.sorted()
}

// walkValid collects up to max valid subsets in enumeration order,
// examining at most budget combinations. complete reports whether the whole
// power set was examined.
func walkValid(model *feature.Model, maxDepth, max, budget int) (found []feature.Subset, complete bool) {
	complete = true
	examined := 0
	for s := range powerset(model.Flags(), maxDepth) {
		if examined == budget || len(found) == max {
			complete = false
			break
		}
		examined++
		if model.IsValidSubset(s) {
			found = append(found, s)
		}
	}
	return found, complete
}

// cardinalityWeights returns C(n, k) for k = 0..top, scaled so the largest
// weight is 1. Computed in log space to stay finite for large n.
func cardinalityWeights(n, maxDepth int) []float64 {
	top := n
	if maxDepth > 0 && maxDepth < n {
		top = maxDepth
	}
	logs := make([]float64, top+1)
	for k := range logs {
		logs[k] = logChoose(n, k)
	}
	peak := slices.Max(logs)
	weights := make([]float64, len(logs))
	for k, l := range logs {
		weights[k] = math.Exp(l - peak)
	}
	return weights
}

func logChoose(n, k int) float64 {
	ln, _ := math.Lgamma(float64(n + 1))
	lk, _ := math.Lgamma(float64(k + 1))
	lnk, _ := math.Lgamma(float64(n - k + 1))
	return ln - lk - lnk
}

func pickWeighted(rng *rand.Rand, weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	x := rng.Float64() * total
	for k, w := range weights {
		if x < w {
			return k
		}
		x -= w
	}
	return len(weights) - 1
}
