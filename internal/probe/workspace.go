package probe

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ariel-frischer/featurecheck/internal/feature"
)

// Workspace hands out isolated build directories under one root.
//
// Every call to For returns a fresh directory named after a hash of the
// subset plus a sequence number, so no build reuses another build's
// artifacts, even for the same subset.
type Workspace struct {
	root  string
	keep  bool
	owned bool

	mu  sync.Mutex
	seq map[string]int
}

// NewWorkspace prepares a workspace under root. An empty root creates a
// temporary directory that Close removes. With keep set, Close leaves the
// directories in place for inspection.
func NewWorkspace(root string, keep bool) (*Workspace, error) {
	owned := false
	if root == "" {
		dir, err := os.MkdirTemp("", "featurecheck-*")
		if err != nil {
			return nil, fmt.Errorf("creating workspace root: %w", err)
		}
		root = dir
		owned = true
	} else if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating workspace root %s: %w", root, err)
	}
	return &Workspace{root: root, keep: keep, owned: owned, seq: make(map[string]int)}, nil
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string {
	return w.root
}

// For creates and returns a new directory for one build of subset.
func (w *Workspace) For(subset feature.Subset) (string, error) {
	name := SubsetHash(subset)

	w.mu.Lock()
	n := w.seq[name]
	w.seq[name] = n + 1
	w.mu.Unlock()

	dir := filepath.Join(w.root, fmt.Sprintf("%s-%d", name, n))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating workspace for %s: %w", subset, err)
	}
	return dir, nil
}

// Close removes the build directories unless the workspace keeps them.
// A caller-provided root itself is never removed.
func (w *Workspace) Close() error {
	if w.keep {
		return nil
	}
	if w.owned {
		return os.RemoveAll(w.root)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	var firstErr error
	for name, count := range w.seq {
		for i := range count {
			if err := os.RemoveAll(filepath.Join(w.root, fmt.Sprintf("%s-%d", name, i))); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// SubsetHash returns a short stable directory-safe name for a subset.
func SubsetHash(subset feature.Subset) string {
	sum := sha256.Sum256([]byte(subset.Key()))
	return hex.EncodeToString(sum[:6])
}
