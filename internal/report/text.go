package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ariel-frischer/featurecheck/internal/classify"
	"github.com/ariel-frischer/featurecheck/internal/verify"
	"github.com/fatih/color"
)

// maxDiagnosticLines caps the diagnostic excerpt printed per finding.
const maxDiagnosticLines = 6

type palette struct {
	header *color.Color
	ok     *color.Color
	bad    *color.Color
	warn   *color.Color
	dim    *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		header: color.New(color.FgCyan, color.Bold),
		ok:     color.New(color.FgGreen, color.Bold),
		bad:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow),
		dim:    color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.header, p.ok, p.bad, p.warn, p.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) forKind(k classify.Kind) *color.Color {
	switch k {
	case classify.Clean, classify.ExpectedFailure:
		return p.ok
	case classify.InfraError:
		return p.warn
	}
	return p.bad
}

func renderText(w io.Writer, r *verify.Report, opts Options) error {
	bw := bufio.NewWriter(w)
	p := newPalette(opts.Color)

	title := "featurecheck"
	if r.Project != "" {
		title += " " + r.Project
	}
	fmt.Fprintf(bw, "%s\n", p.header.Sprint(title))
	if r.Revision != "" {
		fmt.Fprintf(bw, "  revision: %s\n", r.Revision)
	}
	fmt.Fprintf(bw, "  strategy: %s\n", r.Strategy)
	fmt.Fprintf(bw, "  run:      %s (%s)\n\n", r.RunID, r.Duration().Round(time.Millisecond))

	shown := r.Findings()
	if opts.Verbose {
		shown = r.Verdicts
	}
	for _, v := range shown {
		writeVerdict(bw, p, v)
	}
	if len(shown) > 0 {
		fmt.Fprintln(bw)
	}

	writeSummary(bw, p, r)
	return bw.Flush()
}

func writeVerdict(w io.Writer, p palette, v classify.Verdict) {
	fmt.Fprintf(w, "%s %s\n", p.forKind(v.Kind).Sprintf("%-18s", v.Kind), v.Subset)
	if v.Entry != "" {
		fmt.Fprintf(w, "    allow-list entry: %s\n", v.Entry)
	}
	if v.Minimal != nil {
		fmt.Fprintf(w, "    minimal subset:   %s\n", *v.Minimal)
	}
	if v.Kind.IsFinding() && v.Outcome.Diagnostic != "" {
		for _, line := range excerpt(v.Outcome.Diagnostic, maxDiagnosticLines) {
			fmt.Fprintf(w, "    %s\n", p.dim.Sprint(line))
		}
	}
}

func writeSummary(w io.Writer, p palette, r *verify.Report) {
	parts := make([]string, 0, len(classify.Kinds))
	for _, k := range classify.Kinds {
		if n := r.Summary.Counts[k]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, k))
		}
	}
	counts := "nothing probed"
	if len(parts) > 0 {
		counts = strings.Join(parts, ", ")
	}
	fmt.Fprintf(w, "Tested %d subsets: %s\n", r.Summary.Total, counts)

	if r.Sampled {
		fmt.Fprintln(w, p.dim.Sprintf("Sampled: %d of the valid subsets (%s strategy)", r.Summary.Total+r.Summary.Skipped, r.Strategy))
	}
	if r.Incomplete {
		msg := "Incomplete: " + r.IncompleteReason
		if r.Summary.Skipped > 0 {
			msg += fmt.Sprintf(" (%d subsets not probed)", r.Summary.Skipped)
		}
		fmt.Fprintln(w, p.warn.Sprint(msg))
	}

	switch n := len(r.Findings()); {
	case n > 0:
		fmt.Fprintln(w, p.bad.Sprintf("FAILED: %d findings", n))
	case r.Incomplete:
		fmt.Fprintln(w, p.warn.Sprint("NO FINDINGS in the probed subsets"))
	default:
		fmt.Fprintln(w, p.ok.Sprint("PASSED"))
	}
}

// excerpt returns up to max non-blank lines of a diagnostic.
func excerpt(diag string, max int) []string {
	var out []string
	for line := range strings.Lines(diag) {
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(out) == max {
			out = append(out, "...")
			break
		}
		out = append(out, line)
	}
	return out
}
