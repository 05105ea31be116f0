package progress

import (
	"io"
	"os"

	"golang.org/x/term"
)

// ASCIIEnv forces ASCII symbols when set to "1".
const ASCIIEnv = "FEATURECHECK_ASCII"

// DetectCapabilities inspects the terminal behind w, the writer progress is
// drawn on. Checks: w is a file that isatty, NO_COLOR env,
// FEATURECHECK_ASCII env, terminal width. Writers without a file
// descriptor are never terminals.
func DetectCapabilities(w io.Writer) TerminalCapabilities {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return TerminalCapabilities{}
	}
	return detect(f.Fd(), os.Getenv)
}

func detect(fd uintptr, getenv func(string) string) TerminalCapabilities {
	isTTY := term.IsTerminal(int(fd))

	noColor := getenv("NO_COLOR") != ""
	forceASCII := getenv(ASCIIEnv) == "1"

	width := 0
	if isTTY {
		if w, _, err := term.GetSize(int(fd)); err == nil {
			width = w
		}
	}

	return TerminalCapabilities{
		IsTTY:           isTTY,
		SupportsColor:   isTTY && !noColor,
		SupportsUnicode: isTTY && !forceASCII,
		Width:           width,
	}
}

// SelectSymbols returns the symbol set for the terminal.
// Unicode: ✓/✗/! with braille spinner (set 14). ASCII: [OK]/[FAIL]/[WARN] with |/-\ spinner (set 9).
func SelectSymbols(caps TerminalCapabilities) ProgressSymbols {
	if caps.SupportsUnicode {
		return ProgressSymbols{
			Checkmark:  "✓",
			Failure:    "✗",
			Warning:    "!",
			SpinnerSet: 14, // ⠋ ⠙ ⠹ ⠸ ⠼ ⠴ ⠦ ⠧ ⠇ ⠏
		}
	}

	return ProgressSymbols{
		Checkmark:  "[OK]",
		Failure:    "[FAIL]",
		Warning:    "[WARN]",
		SpinnerSet: 9, // | / - \
	}
}
