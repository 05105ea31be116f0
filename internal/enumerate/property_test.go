package enumerate

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/ariel-frischer/featurecheck/internal/feature"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// randomModel derives a small well-formed model from a seed: up to six
// flags with random implications, exclusions and exclusive groups.
func randomModel(seed uint64) *feature.Model {
	rng := rand.New(rand.NewPCG(seed, seed>>1))
	n := 1 + rng.IntN(6)
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("f%d", i)
	}

	desc := feature.Descriptor{}
	for i, name := range names {
		f := feature.Flag{Name: name}
		for j, other := range names {
			if i == j {
				continue
			}
			switch rng.IntN(8) {
			case 0:
				f.Implies = append(f.Implies, other)
			case 1:
				f.Excludes = append(f.Excludes, other)
			}
		}
		desc.Features = append(desc.Features, f)
	}
	if n >= 2 && rng.IntN(3) == 0 {
		a, b := rng.IntN(n), rng.IntN(n)
		if a != b {
			desc.MutuallyExclusive = append(desc.MutuallyExclusive, []string{names[a], names[b]})
		}
	}

	m, err := feature.Load(desc)
	if err != nil {
		panic(err)
	}
	return m
}

// bruteForce filters the full power set through IsValidSubset.
func bruteForce(m *feature.Model) map[string]bool {
	flags := m.Flags()
	out := make(map[string]bool)
	for mask := 0; mask < 1<<len(flags); mask++ {
		var members []string
		for i, f := range flags {
			if mask&(1<<i) != 0 {
				members = append(members, f)
			}
		}
		s := feature.NewSubset(members...)
		if m.IsValidSubset(s) {
			out[s.Key()] = true
		}
	}
	return out
}

func TestExhaustive_MatchesValidPowerSet(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("exhaustive yields exactly the valid subsets once each", prop.ForAll(
		func(seed uint64) bool {
			m := randomModel(seed)
			e, err := New(m, Options{Strategy: Exhaustive})
			if err != nil {
				return false
			}
			want := bruteForce(m)
			seen := make(map[string]bool)
			for s := range e.Subsets() {
				if seen[s.Key()] || !want[s.Key()] {
					return false
				}
				seen[s.Key()] = true
			}
			return len(seen) == len(want)
		},
		gen.UInt64(),
	))

	properties.TestingRun(t)
}

func TestStrategies_Deterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("every strategy yields a sorted, repeatable, valid sequence", prop.ForAll(
		func(seed uint64) bool {
			m := randomModel(seed)
			for _, strategy := range ValidStrategies {
				opts := Options{Strategy: strategy, MaxSubsets: 4, Seed: seed}
				e1, err := New(m, opts)
				if err != nil {
					return false
				}
				e2, _ := New(randomModel(seed), opts)
				first := slices.Collect(e1.Subsets())
				if !slices.IsSortedFunc(first, feature.Compare) {
					return false
				}
				if !slices.Equal(keys(first), keys(slices.Collect(e2.Subsets()))) {
					return false
				}
				for _, s := range first {
					if !m.IsValidSubset(s) {
						return false
					}
				}
			}
			return true
		},
		gen.UInt64(),
	))

	properties.TestingRun(t)
}

func TestPairwise_CoversJointlyValidPairs(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("every jointly valid pair co-occurs in some subset", prop.ForAll(
		func(seed uint64) bool {
			m := randomModel(seed)
			e, err := New(m, Options{Strategy: Pairwise})
			if err != nil {
				return false
			}
			got := slices.Collect(e.Subsets())
			seen := make(map[string]bool, len(got))
			for _, s := range got {
				if seen[s.Key()] {
					return false
				}
				seen[s.Key()] = true
			}
			return coversAllPairs(m, got)
		},
		gen.UInt64(),
	))

	properties.TestingRun(t)
}

func TestBounded_SampleSizeAndTruncation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("bounded yields min(limit, valid) distinct valid subsets", prop.ForAll(
		func(seed uint64, limit int) bool {
			m := randomModel(seed)
			e, err := New(m, Options{Strategy: Bounded, MaxSubsets: limit, Seed: seed})
			if err != nil {
				return false
			}
			want := bruteForce(m)
			got := slices.Collect(e.Subsets())
			seen := make(map[string]bool, len(got))
			for _, s := range got {
				if seen[s.Key()] || !want[s.Key()] {
					return false
				}
				seen[s.Key()] = true
			}
			return len(got) == min(limit, len(want)) && e.Truncated() == (len(want) > limit)
		},
		gen.UInt64(),
		gen.IntRange(1, 70),
	))

	properties.TestingRun(t)
}
