package gitctx

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
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

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func commitAll(t *testing.T, repo *git.Repository, paths ...string) {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)
	for _, p := range paths {
		_, err := wt.Add(p)
		require.NoError(t, err)
	}
	_, err = wt.Commit("commit", &git.CommitOptions{
		Author: &object.Signature{Name: "t", Email: "t@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

func TestOpenNotRepository(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.ErrorIs(t, err, ErrNotRepository)
}

func TestOpenFromSubdirectory(t *testing.T) {
	dir, _ := initRepo(t)
	writeFile(t, dir, "sub/a.txt", "a")

	r, err := Open(filepath.Join(dir, "sub"))
	require.NoError(t, err)
	assert.Equal(t, dir, r.Root())
}

func TestStagedFiles(t *testing.T) {
	dir, repo := initRepo(t)
	writeFile(t, dir, "kept.txt", "v1")
	writeFile(t, dir, "changed.txt", "v1")
	commitAll(t, repo, "kept.txt", "changed.txt")

	writeFile(t, dir, "changed.txt", "v2")
	writeFile(t, dir, "pkg/new.go", "package pkg\n")
	writeFile(t, dir, "untracked.txt", "x")
	writeFile(t, dir, "kept.txt", "unstaged edit")

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("changed.txt")
	require.NoError(t, err)
	_, err = wt.Add("pkg/new.go")
	require.NoError(t, err)

	r, err := Open(dir)
	require.NoError(t, err)
	files, err := r.StagedFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"changed.txt", "pkg/new.go"}, files)
}

func TestAllFiles(t *testing.T) {
	dir, repo := initRepo(t)
	writeFile(t, dir, "b.txt", "b")
	writeFile(t, dir, "a/c.txt", "c")
	writeFile(t, dir, "ignored.txt", "x")
	commitAll(t, repo, "b.txt", "a/c.txt")

	r, err := Open(dir)
	require.NoError(t, err)
	files, err := r.AllFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"a/c.txt", "b.txt"}, files)
}

func TestHooksDir(t *testing.T) {
	dir, repo := initRepo(t)

	r, err := Open(dir)
	require.NoError(t, err)
	hooks, err := r.HooksDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".git", "hooks"), hooks)

	cfg, err := repo.Config()
	require.NoError(t, err)
	cfg.Raw.Section("core").SetOption("hooksPath", "githooks")
	require.NoError(t, repo.SetConfig(cfg))

	r, err = Open(dir)
	require.NoError(t, err)
	hooks, err = r.HooksDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "githooks"), hooks)
}

func TestParseNulList(t *testing.T) {
	assert.Equal(t, []string{"a b.txt", "z.go"}, parseNulList([]byte("z.go\x00a b.txt\x00")))
	assert.Equal(t, []string{"last"}, parseNulList([]byte("last")))
	assert.Empty(t, parseNulList(nil))
}
