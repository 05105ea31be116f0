package history

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ariel-frischer/featurecheck/internal/verify"
)

// Writer appends entries to the history file of one state directory,
// keeping at most MaxEntries of them. It is safe for concurrent use.
type Writer struct {
	StateDir   string
	MaxEntries int
	// Warnings receives the errors LogEntry swallows. Defaults to stderr.
	Warnings io.Writer

	mu sync.Mutex
}

func NewWriter(stateDir string, maxEntries int) *Writer {
	return &Writer{StateDir: stateDir, MaxEntries: maxEntries, Warnings: os.Stderr}
}

// Append adds entry, drops the oldest entries over MaxEntries and saves.
func (w *Writer) Append(entry HistoryEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	h, err := LoadHistory(w.StateDir)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}
	h.Entries = append(h.Entries, entry)
	h.prune(w.MaxEntries)
	if err := SaveHistory(w.StateDir, h); err != nil {
		return fmt.Errorf("saving history: %w", err)
	}
	return nil
}

// LogEntry is Append for callers that must not fail because of history:
// errors become a warning line.
func (w *Writer) LogEntry(entry HistoryEntry) {
	if err := w.Append(entry); err != nil && w.Warnings != nil {
		fmt.Fprintf(w.Warnings, "Warning: failed to log history: %v\n", err)
	}
}

// LogReport records the outcome of a verification run.
func (w *Writer) LogReport(command string, r *verify.Report) {
	w.LogEntry(EntryFromReport(command, r))
}

// prune keeps the newest max entries. max <= 0 keeps everything.
func (h *HistoryFile) prune(max int) {
	if max > 0 && len(h.Entries) > max {
		h.Entries = h.Entries[len(h.Entries)-max:]
	}
}
