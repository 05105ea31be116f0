package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ariel-frischer/featurecheck/internal/classify"
	"github.com/ariel-frischer/featurecheck/internal/verify"
	"github.com/briandowns/spinner"
)

// Reporter renders a spinner with a done/total counter and prints a line
// for every finding as it happens. On a non-interactive terminal it does
// nothing: the final report carries the same information.
type Reporter struct {
	out     io.Writer
	caps    TerminalCapabilities
	symbols ProgressSymbols

	mu      sync.Mutex
	spin    *spinner.Spinner
	started time.Time
}

// NewReporter creates a reporter writing to out.
func NewReporter(out io.Writer, caps TerminalCapabilities) *Reporter {
	return &Reporter{
		out:     out,
		caps:    caps,
		symbols: SelectSymbols(caps),
	}
}

// Enabled reports whether the reporter draws anything.
func (r *Reporter) Enabled() bool {
	return r.caps.IsTTY
}

// Start shows the spinner. The counter appears with the first Update.
func (r *Reporter) Start() {
	if !r.Enabled() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.started = time.Now()
	r.spin = spinner.New(spinner.CharSets[r.symbols.SpinnerSet], 100*time.Millisecond, spinner.WithWriter(r.out))
	r.spin.Suffix = " probing feature subsets"
	r.spin.Start()
}

// Update advances the counter. It matches verify.WithProgress.
func (r *Reporter) Update(p verify.Progress) {
	if !r.Enabled() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.spin == nil {
		return
	}

	r.spin.Lock()
	defer r.spin.Unlock()
	r.spin.Suffix = suffix(p.Done, p.Total, time.Since(r.started))
	if line := r.findingLine(p.Verdict); line != "" {
		// clear the spinner row before printing above it
		fmt.Fprintf(r.out, "\r\033[K%s\n", line)
	}
}

// Stop removes the spinner.
func (r *Reporter) Stop() {
	if !r.Enabled() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.spin == nil {
		return
	}
	r.spin.Stop()
	r.spin = nil
}

func (r *Reporter) findingLine(v classify.Verdict) string {
	if !v.Kind.IsFinding() {
		return ""
	}
	symbol := r.symbols.Failure
	if v.Kind == classify.InfraError {
		symbol = r.symbols.Warning
	}
	return fmt.Sprintf("%s %s  %s", symbol, v.Kind, v.Subset)
}

func suffix(done, total int, elapsed time.Duration) string {
	return fmt.Sprintf(" probing feature subsets %d/%d (%s)", done, total, elapsed.Round(time.Second))
}
