package errors

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// palette paints the parts of a formatted error. The zero value paints
// nothing.
type palette struct {
	label, category, message, usageLabel, usage, fix, bullet func(a ...any) string
}

func plain(a ...any) string { return fmt.Sprint(a...) }

var (
	plainPalette = palette{plain, plain, plain, plain, plain, plain, plain}
	colorPalette = palette{
		label:      color.New(color.FgRed, color.Bold).SprintFunc(),
		category:   color.New(color.FgYellow).SprintFunc(),
		message:    color.New(color.FgRed).SprintFunc(),
		usageLabel: color.New(color.FgCyan, color.Bold).SprintFunc(),
		usage:      color.New(color.FgCyan).SprintFunc(),
		fix:        color.New(color.FgGreen, color.Bold).SprintFunc(),
		bullet:     color.New(color.FgGreen).SprintFunc(),
	}
)

// FormatError renders err for the terminal, in color unless color output
// is disabled.
func FormatError(err *CLIError) string {
	if color.NoColor {
		return format(err, plainPalette)
	}
	return format(err, colorPalette)
}

// FormatErrorPlain renders err without color.
func FormatErrorPlain(err *CLIError) string {
	return format(err, plainPalette)
}

// FprintError writes the rendered err to w.
func FprintError(w io.Writer, err *CLIError) {
	fmt.Fprint(w, FormatError(err))
}

func format(err *CLIError, p palette) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s [%s]: %s\n", p.label("Error"), p.category(err.Category), p.message(err.Message))
	if err.Usage != "" {
		fmt.Fprintf(&sb, "\n%s%s\n", p.usageLabel("Usage: "), p.usage(err.Usage))
	}
	if len(err.Remediation) > 0 {
		fmt.Fprintf(&sb, "\n%s\n", p.fix("To fix this:"))
		for _, step := range err.Remediation {
			fmt.Fprintf(&sb, "  %s %s\n", p.bullet("•"), step)
		}
	}
	return sb.String()
}
