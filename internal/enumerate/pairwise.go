package enumerate

import (
	"github.com/ariel-frischer/featurecheck/internal/feature"
)

// pairwise builds a covering set in which every jointly valid pair of flags
// occurs together in at least one subset. A pair is jointly valid when the
// implication closure of the two flags is itself valid.
//
// Pairs are placed greedily, first fit: a pair joins the first row whose
// closure with the pair stays valid, or opens a new row. The baseline and
// every single-flag closure are always included.
func pairwise(model *feature.Model) []feature.Subset {
	flags := model.Flags()
	var rows []feature.Subset

	for i, x := range flags {
		for _, y := range flags[i+1:] {
			pair := feature.NewSubset(x, y)
			if !model.IsValidSubset(model.Closure(pair)) {
				continue
			}
			if covered(rows, x, y) {
				continue
			}
			placed := false
			for r, row := range rows {
				candidate := model.Closure(row.Union(pair))
				if model.IsValidSubset(candidate) {
					rows[r] = candidate
					placed = true
					break
				}
			}
			if !placed {
				rows = append(rows, model.Closure(pair))
			}
		}
	}

	out := newSubsetSet()
	for _, s := range each(model) {
		out.add(s)
	}
	for _, row := range rows {
		out.add(row)
	}
	return out.sorted()
}

func covered(rows []feature.Subset, x, y string) bool {
	for _, row := range rows {
		if row.Has(x) && row.Has(y) {
			return true
		}
	}
	return false
}
