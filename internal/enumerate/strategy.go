package enumerate

import (
	"fmt"
	"strings"
)

// Strategy selects which feature subsets are probed.
type Strategy string

const (
	// Exhaustive yields every valid subset of the power set.
	Exhaustive Strategy = "exhaustive"
	// Pairwise yields a small set of subsets covering every valid flag pair.
	Pairwise Strategy = "pairwise"
	// Bounded is Exhaustive capped at MaxSubsets, sampled deterministically.
	Bounded Strategy = "bounded"
	// Each yields the empty subset and every single flag with its implications.
	Each Strategy = "each"
)

// ValidStrategies lists all strategies in display order.
var ValidStrategies = []Strategy{Exhaustive, Pairwise, Bounded, Each}

// ParseStrategy parses a strategy name. "powerset" is accepted as an alias
// for exhaustive.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exhaustive", "powerset":
		return Exhaustive, nil
	case "pairwise":
		return Pairwise, nil
	case "bounded":
		return Bounded, nil
	case "each":
		return Each, nil
	}
	return "", fmt.Errorf("invalid strategy %q: valid options are exhaustive, pairwise, bounded, each", s)
}

// String returns the strategy name.
func (s Strategy) String() string {
	return string(s)
}
