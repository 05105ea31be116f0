package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) (string, *git.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return dir, repo
}

func commitFile(t *testing.T, repo *git.Repository, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)
	hash, err := wt.Commit("add "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return hash.String()
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	t.Run("clean checkout", func(t *testing.T) {
		t.Parallel()
		dir, repo := initRepo(t)
		hash := commitFile(t, repo, dir, "Cargo.toml", "[features]\na = []\n")

		info, err := Describe(dir)
		require.NoError(t, err)
		assert.Equal(t, hash[:7], info.Commit)
		assert.Equal(t, "master", info.Branch)
		assert.False(t, info.Dirty)
		assert.Equal(t, "master@"+hash[:7], info.Revision())
	})

	t.Run("dirty worktree from subdirectory", func(t *testing.T) {
		t.Parallel()
		dir, repo := initRepo(t)
		hash := commitFile(t, repo, dir, "Cargo.toml", "[features]\n")
		sub := filepath.Join(dir, "src")
		require.NoError(t, os.MkdirAll(sub, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(sub, "main.rs"), []byte("fn main() {}\n"), 0o644))

		info, err := Describe(sub)
		require.NoError(t, err)
		assert.True(t, info.Dirty)
		assert.Equal(t, "master@"+hash[:7]+"-dirty", info.Revision())
	})

	t.Run("no commits yet", func(t *testing.T) {
		t.Parallel()
		dir, _ := initRepo(t)

		info, err := Describe(dir)
		require.NoError(t, err)
		assert.Empty(t, info.Commit)
		assert.Equal(t, "unborn", info.Revision())
	})

	t.Run("not a repository", func(t *testing.T) {
		t.Parallel()
		_, err := Describe(t.TempDir())
		assert.ErrorIs(t, err, ErrNotRepository)
		assert.Empty(t, Revision(t.TempDir()))
	})
}
