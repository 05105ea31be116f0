package probe

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ariel-frischer/featurecheck/internal/feature"
	"github.com/ariel-frischer/featurecheck/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Run(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		builder    BuilderFunc
		wantStatus Status
		wantInfra  bool
		wantDiag   string
	}{
		"success": {
			builder: func(context.Context, Request) (Result, error) {
				return Result{Success: true, Diagnostic: "ok"}, nil
			},
			wantStatus: StatusSuccess,
			wantDiag:   "ok",
		},
		"build failure": {
			builder: func(context.Context, Request) (Result, error) {
				return Result{Diagnostic: "error: boom"}, nil
			},
			wantStatus: StatusFailure,
			wantDiag:   "error: boom",
		},
		"builder could not run": {
			builder: func(context.Context, Request) (Result, error) {
				return Result{}, errors.New("disk full")
			},
			wantStatus: StatusFailure,
			wantInfra:  true,
			wantDiag:   "disk full",
		},
		"timeout": {
			builder: func(ctx context.Context, _ Request) (Result, error) {
				<-ctx.Done()
				return Result{}, ctx.Err()
			},
			wantStatus: StatusFailure,
			wantInfra:  true,
			wantDiag:   DiagnosticTimeout,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			p := New(tt.builder, WithTimeout(20*time.Millisecond))
			out := p.Run(context.Background(), feature.NewSubset("a", "c"))

			assert.Equal(t, tt.wantStatus, out.Status)
			assert.Equal(t, tt.wantInfra, out.Infra)
			assert.Equal(t, tt.wantDiag, out.Diagnostic)
			assert.Equal(t, "a,c", out.Subset.Key())
			assert.Equal(t, 1, out.Attempts)
			assert.Positive(t, out.Duration)
		})
	}
}

func TestBuild_TimeoutError(t *testing.T) {
	t.Parallel()

	p := New(BuilderFunc(func(ctx context.Context, _ Request) (Result, error) {
		<-ctx.Done()
		return Result{}, ctx.Err()
	}), WithTimeout(10*time.Millisecond))

	out := p.Run(context.Background(), feature.NewSubset("a"))
	var timeout *TimeoutError
	require.True(t, errors.As(out.Err, &timeout))
	assert.Equal(t, 10*time.Millisecond, timeout.Timeout)
	assert.ErrorIs(t, out.Err, context.DeadlineExceeded)
	assert.Contains(t, out.Err.Error(), "{a}")
}

func TestBuild_PassesExactSubset(t *testing.T) {
	t.Parallel()

	var got feature.Subset
	p := New(BuilderFunc(func(_ context.Context, req Request) (Result, error) {
		got = req.Subset
		return Result{Success: true}, nil
	}))
	p.Run(context.Background(), feature.NewSubset("c", "a"))
	assert.Equal(t, []string{"a", "c"}, got.Flags())
}

func TestBuild_RetriesInfraOnly(t *testing.T) {
	t.Parallel()

	policy := retry.Policy{MaxRetries: 2, Base: time.Millisecond, Max: time.Millisecond}

	t.Run("infra failure recovers", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		p := New(BuilderFunc(func(context.Context, Request) (Result, error) {
			if calls.Add(1) < 3 {
				return Result{}, errors.New("flaky runner")
			}
			return Result{Success: true}, nil
		}), WithRetryPolicy(policy))

		out := p.Run(context.Background(), feature.NewSubset("a"))
		assert.True(t, out.Succeeded())
		assert.False(t, out.Infra)
		assert.Equal(t, 3, out.Attempts)
	})

	t.Run("infra failure exhausts retries", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		p := New(BuilderFunc(func(context.Context, Request) (Result, error) {
			calls.Add(1)
			return Result{}, errors.New("runner gone")
		}), WithRetryPolicy(policy))

		out := p.Run(context.Background(), feature.NewSubset("a"))
		assert.True(t, out.Infra)
		assert.Equal(t, int32(3), calls.Load())
		assert.Equal(t, 3, out.Attempts)
	})

	t.Run("build failure is not retried", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		p := New(BuilderFunc(func(context.Context, Request) (Result, error) {
			calls.Add(1)
			return Result{Diagnostic: "error: nope"}, nil
		}), WithRetryPolicy(policy))

		out := p.Run(context.Background(), feature.NewSubset("a"))
		assert.False(t, out.Infra)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestBuild_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	p := New(BuilderFunc(func(context.Context, Request) (Result, error) {
		calls.Add(1)
		return Result{Success: true}, nil
	}), WithRetryPolicy(retry.Policy{MaxRetries: 3}))

	out := p.Run(ctx, feature.NewSubset("a"))
	assert.True(t, out.Infra)
	assert.Equal(t, DiagnosticDeadlineExceeded, out.Diagnostic)
	assert.Zero(t, calls.Load())
	assert.Equal(t, 1, out.Attempts)
}

func TestBuild_WorkspacePerBuild(t *testing.T) {
	t.Parallel()

	ws, err := NewWorkspace(t.TempDir(), false)
	require.NoError(t, err)

	var dirs []string
	p := New(BuilderFunc(func(_ context.Context, req Request) (Result, error) {
		dirs = append(dirs, req.Workspace)
		return Result{Success: true}, nil
	}), WithWorkspace(ws))

	first := p.Run(context.Background(), feature.NewSubset("a"))
	second := p.Run(context.Background(), feature.NewSubset("a"))

	require.Len(t, dirs, 2)
	assert.NotEqual(t, dirs[0], dirs[1], "repeated probes never share a build directory")
	assert.Equal(t, dirs[0], first.Workspace)
	assert.Equal(t, dirs[1], second.Workspace)
}
