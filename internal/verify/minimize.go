package verify

import (
	"context"

	"github.com/ariel-frischer/featurecheck/internal/classify"
	"github.com/ariel-frischer/featurecheck/internal/feature"
	"github.com/ariel-frischer/featurecheck/internal/probe"
	"golang.org/x/sync/errgroup"
)

// minimizeAll shrinks every unexpected failure. Failures are minimized
// concurrently, each one sequentially.
func (r *Runner) minimizeAll(ctx context.Context, model *feature.Model, allow *classify.AllowList, verdicts []*classify.Verdict) {
	g := new(errgroup.Group)
	g.SetLimit(r.parallel)
	for _, v := range verdicts {
		if v == nil || v.Kind != classify.UnexpectedFailure || v.Subset.IsEmpty() {
			continue
		}
		g.Go(func() error {
			minimal := r.minimize1(ctx, model, allow, v.Outcome)
			if !minimal.Equal(v.Subset) {
				v.Minimal = &minimal
				r.logger.Info("failure minimized", "subset", v.Subset.String(), "minimal", minimal.String())
			}
			return nil
		})
	}
	_ = g.Wait()
}

// minimize1 removes flags from the failing subset, last identifier first,
// keeping each removal whose result is still valid and still fails the same
// way. It stops when no single removal preserves the failure. The result is
// always a subset of the original.
func (r *Runner) minimize1(ctx context.Context, model *feature.Model, allow *classify.AllowList, original probe.Outcome) feature.Subset {
	current := original.Subset
	tried := make(map[string]bool)

	for {
		flags := current.Flags()
		shrunk := false
		for i := len(flags) - 1; i >= 0; i-- {
			candidate := current.Without(flags[i])
			if tried[candidate.Key()] || !model.IsValidSubset(candidate) {
				continue
			}
			if ctx.Err() != nil {
				return current
			}
			tried[candidate.Key()] = true

			out := r.prober.Run(ctx, candidate)
			if classify.Classify(out, allow).Kind == classify.UnexpectedFailure && classify.SameFailure(original, out) {
				current = candidate
				shrunk = true
				break
			}
		}
		if !shrunk {
			return current
		}
	}
}
