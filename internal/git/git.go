// Package git stamps verification reports with the revision of the project
// under test. It uses go-git and never shells out to the git CLI.
package git

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ErrNotRepository is returned when the path is not inside a git repository.
var ErrNotRepository = errors.New("not a git repository")

// RepoInfo describes the checked-out state of a repository.
type RepoInfo struct {
	// Root is the worktree root.
	Root string
	// Branch is empty in detached HEAD state.
	Branch string
	// Commit is the abbreviated HEAD hash, empty before the first commit.
	Commit string
	// Dirty is set when the worktree has uncommitted changes.
	Dirty bool
}

// Revision renders the state as branch@commit, with a -dirty suffix for
// uncommitted changes.
func (r RepoInfo) Revision() string {
	rev := r.Commit
	if rev == "" {
		rev = "unborn"
	}
	if r.Branch != "" {
		rev = r.Branch + "@" + rev
	}
	if r.Dirty {
		rev += "-dirty"
	}
	return rev
}

// openRepo opens the git repository containing path. It uses go-git's
// PlainOpenWithOptions with DetectDotGit enabled to traverse up the
// directory tree to find the repository root.
func openRepo(path string) (*git.Repository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%s: %w", abs, ErrNotRepository)
	}
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", abs, err)
	}
	return repo, nil
}

// Describe returns the repository state at path.
func Describe(path string) (RepoInfo, error) {
	repo, err := openRepo(path)
	if err != nil {
		return RepoInfo{}, err
	}

	var info RepoInfo
	worktree, err := repo.Worktree()
	if err != nil {
		return RepoInfo{}, fmt.Errorf("getting worktree: %w", err)
	}
	info.Root = worktree.Filesystem.Root()

	head, err := repo.Head()
	switch {
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		// no commits yet
	case err != nil:
		return RepoInfo{}, fmt.Errorf("getting HEAD reference: %w", err)
	default:
		if head.Name().IsBranch() {
			info.Branch = head.Name().Short()
		}
		info.Commit = head.Hash().String()[:7]
	}

	status, err := worktree.Status()
	if err != nil {
		return RepoInfo{}, fmt.Errorf("getting worktree status: %w", err)
	}
	info.Dirty = !status.IsClean()

	slog.Debug("git revision", "root", info.Root, "revision", info.Revision())
	return info, nil
}

// Revision returns Describe(path).Revision(), or "" when path is not in a
// repository.
func Revision(path string) string {
	info, err := Describe(path)
	if err != nil {
		slog.Debug("no git revision", "path", path, "error", err)
		return ""
	}
	return info.Revision()
}
