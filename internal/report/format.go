// Package report renders verification reports for people and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ariel-frischer/featurecheck/internal/verify"
	"gopkg.in/yaml.v3"
)

// Format is an output format for reports.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ValidFormats lists the accepted formats.
var ValidFormats = []Format{FormatText, FormatJSON, FormatYAML}

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("invalid format %q: valid options are text, json, yaml", s)
}

// Options tunes rendering.
type Options struct {
	// Color enables ANSI colors in the text format.
	Color bool
	// Verbose lists every verdict in the text format, not only findings.
	Verbose bool
}

// Render writes r to w in the given format.
func Render(w io.Writer, r *verify.Report, format Format, opts Options) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding json report: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding yaml report: %w", err)
		}
		return enc.Close()
	case FormatText, "":
		return renderText(w, r, opts)
	}
	return fmt.Errorf("unknown report format %q", format)
}
