// Package verify drives a verification run: it enumerates subsets, probes
// them over a bounded worker pool, classifies the outcomes and aggregates
// them into a report.
package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ariel-frischer/featurecheck/internal/classify"
	"github.com/ariel-frischer/featurecheck/internal/enumerate"
	"github.com/ariel-frischer/featurecheck/internal/feature"
	"github.com/ariel-frischer/featurecheck/internal/probe"
	"golang.org/x/sync/errgroup"
)

// Prober probes a single subset. *probe.Probe implements it.
type Prober interface {
	Run(ctx context.Context, subset feature.Subset) probe.Outcome
}

// Progress is reported after every probed subset.
type Progress struct {
	Done    int
	Total   int
	Verdict classify.Verdict
}

// Runner executes verification runs.
type Runner struct {
	prober   Prober
	parallel int
	deadline time.Duration
	minimize bool
	failFast bool
	logger   *slog.Logger
	progress func(Progress)
	now      func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithParallel sets the maximum number of concurrent probes.
func WithParallel(n int) Option {
	return func(r *Runner) {
		if n >= 1 {
			r.parallel = n
		}
	}
}

// WithDeadline bounds the whole run. Zero means no deadline.
func WithDeadline(d time.Duration) Option {
	return func(r *Runner) {
		r.deadline = d
	}
}

// WithMinimize enables shrinking unexpected failures to minimal subsets.
func WithMinimize(minimize bool) Option {
	return func(r *Runner) {
		r.minimize = minimize
	}
}

// WithFailFast stops dispatching new subsets after the first finding.
func WithFailFast(failFast bool) Option {
	return func(r *Runner) {
		r.failFast = failFast
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithProgress registers a callback invoked after each probe. Calls are
// serialized.
func WithProgress(fn func(Progress)) Option {
	return func(r *Runner) {
		r.progress = fn
	}
}

// NewRunner creates a Runner. Parallelism defaults to the number of CPUs.
func NewRunner(prober Prober, opts ...Option) *Runner {
	r := &Runner{
		prober:   prober,
		parallel: runtime.NumCPU(),
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run verifies model under the enumeration options and allow-list. It
// returns an error only when the run cannot be set up; probe problems are
// recorded in the report and never abort the run.
func (r *Runner) Run(ctx context.Context, model *feature.Model, opts enumerate.Options, allow *classify.AllowList) (*Report, error) {
	if r.prober == nil {
		return nil, errors.New("verify: no prober configured")
	}
	en, err := enumerate.New(model, opts)
	if err != nil {
		return nil, err
	}
	if err := allow.Validate(model); err != nil {
		return nil, fmt.Errorf("invalid allow-list: %w", err)
	}

	report := newReport(en.Strategy(), r.now())
	report.Sampled = en.Truncated()

	runCtx := ctx
	if r.deadline > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.deadline)
		defer cancel()
	}

	subsets := collectSubsets(runCtx, en)
	r.logger.Info("verification started", "strategy", en.Strategy(), "subsets", len(subsets),
		"parallel", r.parallel, "run_id", report.RunID)

	verdicts := r.probeAll(runCtx, subsets, allow)

	if r.minimize && runCtx.Err() == nil {
		r.minimizeAll(runCtx, model, allow, verdicts)
	}

	for i, v := range verdicts {
		if v == nil {
			report.Skipped = append(report.Skipped, subsets[i])
			continue
		}
		report.Verdicts = append(report.Verdicts, *v)
	}

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		report.markIncomplete(ReasonDeadline)
	case ctx.Err() != nil:
		report.markIncomplete(ReasonCanceled)
	case len(report.Skipped) > 0:
		report.markIncomplete(ReasonFailFast)
	}
	report.finish(r.now())

	r.logger.Info("verification finished", "run_id", report.RunID, "tested", report.Summary.Total,
		"skipped", report.Summary.Skipped, "findings", len(report.Findings()), "incomplete", report.Incomplete)
	return report, nil
}

// probeAll probes subsets over the worker pool. The result slice is indexed
// like subsets; nil entries were never probed.
func (r *Runner) probeAll(ctx context.Context, subsets []feature.Subset, allow *classify.AllowList) []*classify.Verdict {
	verdicts := make([]*classify.Verdict, len(subsets))

	var (
		stop atomic.Bool
		mu   sync.Mutex
		done int
	)

	g := new(errgroup.Group)
	g.SetLimit(r.parallel)
	for i, subset := range subsets {
		if ctx.Err() != nil || stop.Load() {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil || stop.Load() {
				return nil
			}
			out := r.prober.Run(ctx, subset)
			v := classify.Classify(out, allow)
			if r.failFast && v.Kind.IsFinding() {
				stop.Store(true)
			}

			mu.Lock()
			verdicts[i] = &v
			done++
			if r.progress != nil {
				r.progress(Progress{Done: done, Total: len(subsets), Verdict: v})
			}
			mu.Unlock()

			r.logger.Debug("subset classified", "subset", subset.String(), "kind", v.Kind, "entry", v.Entry)
			return nil
		})
	}
	_ = g.Wait()
	return verdicts
}

// collectSubsets drains the enumeration, stopping early once ctx ends.
func collectSubsets(ctx context.Context, en *enumerate.Enumerator) []feature.Subset {
	var subsets []feature.Subset
	for s := range en.Subsets() {
		if ctx.Err() != nil {
			break
		}
		subsets = append(subsets, s)
	}
	return subsets
}
