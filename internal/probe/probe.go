package probe

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ariel-frischer/featurecheck/internal/feature"
	"github.com/ariel-frischer/featurecheck/internal/retry"
)

// DefaultTimeout is the per-probe timeout when none is configured.
const DefaultTimeout = 10 * time.Minute

// Status is the build status of an outcome.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Outcome is the recorded result of probing one subset.
type Outcome struct {
	Subset     feature.Subset `json:"subset" yaml:"subset"`
	Status     Status         `json:"status" yaml:"status"`
	Diagnostic string         `json:"diagnostic,omitempty" yaml:"diagnostic,omitempty"`
	// Infra is set when the build could not be carried out: the builder
	// failed to run, the probe timed out or the run deadline hit.
	Infra     bool          `json:"infra,omitempty" yaml:"infra,omitempty"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Attempts  int           `json:"attempts" yaml:"attempts"`
	Workspace string        `json:"workspace,omitempty" yaml:"workspace,omitempty"`
	// Err holds the infrastructure error, if any.
	Err error `json:"-" yaml:"-"`
}

// Succeeded reports whether the build succeeded.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusSuccess
}

// Probe runs builds for single subsets.
type Probe struct {
	builder   Builder
	timeout   time.Duration
	policy    retry.Policy
	workspace *Workspace
	logger    *slog.Logger
}

// Option configures a Probe.
type Option func(*Probe)

// WithTimeout sets the per-probe timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(p *Probe) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithRetryPolicy sets how infrastructure failures are retried.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(p *Probe) {
		p.policy = policy
	}
}

// WithWorkspace sets where build directories are created. Without it
// builds get no workspace directory.
func WithWorkspace(w *Workspace) Option {
	return func(p *Probe) {
		p.workspace = w
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Probe) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Probe around builder.
func New(builder Builder, opts ...Option) *Probe {
	p := &Probe{
		builder: builder,
		timeout: DefaultTimeout,
		policy:  retry.DefaultPolicy(),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Timeout returns the per-probe timeout.
func (p *Probe) Timeout() time.Duration {
	return p.timeout
}

// Run builds the project with exactly subset's flags enabled. It never
// returns an error: every problem is recorded in the outcome. Infra
// outcomes are retried per the retry policy; build failures never are.
func (p *Probe) Run(ctx context.Context, subset feature.Subset) Outcome {
	start := time.Now()
	var out Outcome
	attempts, _ := retry.Do(ctx, p.policy, subset.Key(), func(attempt int) bool {
		out = p.attempt(ctx, subset)
		if out.Infra && ctx.Err() == nil {
			p.logger.Debug("probe infra failure", "subset", subset.String(), "attempt", attempt, "error", out.Err)
		}
		return !out.Infra || ctx.Err() != nil
	})
	out.Attempts = attempts
	out.Duration = time.Since(start)
	p.logger.Debug("probe finished", "subset", subset.String(), "status", out.Status,
		"infra", out.Infra, "attempts", attempts, "duration", out.Duration)
	return out
}

func (p *Probe) attempt(ctx context.Context, subset feature.Subset) Outcome {
	out := Outcome{Subset: subset, Status: StatusFailure}
	if err := ctx.Err(); err != nil {
		return deadlineOutcome(out, err)
	}

	req := Request{Subset: subset, Timeout: p.timeout}
	if p.workspace != nil {
		dir, err := p.workspace.For(subset)
		if err != nil {
			out.Infra = true
			out.Err = err
			out.Diagnostic = err.Error()
			return out
		}
		req.Workspace = dir
		out.Workspace = dir
	}

	pctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	res, err := p.builder.Build(pctx, req)
	switch {
	case ctx.Err() != nil:
		return deadlineOutcome(out, ctx.Err())
	case errors.Is(pctx.Err(), context.DeadlineExceeded):
		out.Infra = true
		out.Diagnostic = DiagnosticTimeout
		out.Err = NewTimeoutError(p.timeout, subset.String())
		return out
	case err != nil:
		out.Infra = true
		out.Err = err
		out.Diagnostic = err.Error()
		return out
	}

	out.Diagnostic = res.Diagnostic
	if res.Success {
		out.Status = StatusSuccess
	}
	return out
}

func deadlineOutcome(out Outcome, err error) Outcome {
	out.Status = StatusFailure
	out.Infra = true
	out.Diagnostic = DiagnosticDeadlineExceeded
	out.Err = err
	return out
}
