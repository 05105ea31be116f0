// Package probe builds a project with one feature subset enabled and records
// the outcome.
//
// A Builder performs the actual build. Probe wraps it with a per-probe
// timeout, an isolated workspace per subset and retries for infrastructure
// failures. A Builder returns an error only when the build could not run at
// all; a build that ran and failed is a Result with Success=false.
package probe

import (
	"context"
	"time"

	"github.com/ariel-frischer/featurecheck/internal/feature"
)

// Request describes one build.
type Request struct {
	// Subset is the exact set of flags to enable.
	Subset feature.Subset
	// Workspace is a directory owned by this build alone.
	Workspace string
	// Timeout is the per-probe budget. The context passed to Build already
	// carries it; builders may use it for messages.
	Timeout time.Duration
}

// Result is what a build reports when it ran.
type Result struct {
	Success    bool
	Diagnostic string
}

// Builder runs a build for a request.
type Builder interface {
	Build(ctx context.Context, req Request) (Result, error)
}

// BuilderFunc adapts a function to the Builder interface.
type BuilderFunc func(ctx context.Context, req Request) (Result, error)

// Build calls f.
func (f BuilderFunc) Build(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}
