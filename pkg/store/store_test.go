package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fulmenhq/prekit/pkg/hookconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifest = "- id: lint\n  name: lint\n  entry: lint\n  language: system\n"

// fakeCloner writes a manifest instead of talking to git.
type fakeCloner struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (c *fakeCloner) Clone(_ context.Context, url, rev, dest string) error {
	c.calls.Add(1)
	time.Sleep(c.delay)
	if c.err != nil {
		// leave a partial directory behind, like a failed clone would
		_ = os.MkdirAll(dest, 0o750)
		return c.err
	}
	if err := os.MkdirAll(dest, 0o750); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dest, hookconfig.ManifestFile), []byte(manifest), 0o600)
}

func openTestStore(t *testing.T, cloner Cloner) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), Options{Cloner: cloner, CacheSize: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func remoteConfig() hookconfig.RepoConfig {
	return hookconfig.RepoConfig{
		Repo:  "https://example.com/hooks",
		Rev:   "v1",
		Hooks: []hookconfig.RemoteHook{{ID: "lint"}},
	}
}

func TestPrepareRemoteClonesOnce(t *testing.T) {
	cloner := &fakeCloner{delay: 20 * time.Millisecond}
	s := openTestStore(t, cloner)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			repo, err := s.PrepareRepo(context.Background(), remoteConfig(), nil)
			assert.NoError(t, err)
			if repo != nil {
				_, ok := repo.GetHook("lint")
				assert.True(t, ok)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), cloner.calls.Load())

	records, err := s.Repos(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "https://example.com/hooks", records[0].URL)
	assert.DirExists(t, records[0].Path)
}

func TestPrepareRemoteSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	cloner := &fakeCloner{}

	s, err := Open(dir, Options{Cloner: cloner})
	require.NoError(t, err)
	first, err := s.PrepareRepo(context.Background(), remoteConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(dir, Options{Cloner: cloner})
	require.NoError(t, err)
	defer s.Close()
	second, err := s.PrepareRepo(context.Background(), remoteConfig(), nil)
	require.NoError(t, err)

	assert.Equal(t, first.Path(), second.Path())
	assert.Equal(t, int32(1), cloner.calls.Load())
}

func TestPrepareRemoteDepsGetOwnDirectory(t *testing.T) {
	cloner := &fakeCloner{}
	s := openTestStore(t, cloner)

	base, err := s.PrepareRepo(context.Background(), remoteConfig(), nil)
	require.NoError(t, err)
	withDeps, err := s.PrepareRepo(context.Background(), remoteConfig(), []string{"b", "a"})
	require.NoError(t, err)
	sameDeps, err := s.PrepareRepo(context.Background(), remoteConfig(), []string{"a", "b"})
	require.NoError(t, err)

	assert.NotEqual(t, base.Path(), withDeps.Path())
	assert.Equal(t, withDeps.Path(), sameDeps.Path(), "dependency order does not matter")
	assert.Equal(t, int32(2), cloner.calls.Load())
}

func TestPrepareRemoteCloneFailureCleansUp(t *testing.T) {
	cloner := &fakeCloner{err: errors.New("network down")}
	s := openTestStore(t, cloner)

	_, err := s.PrepareRepo(context.Background(), remoteConfig(), nil)
	require.Error(t, err)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), tmpPrefix)
		assert.NotContains(t, e.Name(), repoPrefix)
	}
}

func TestPrepareLocalAndMeta(t *testing.T) {
	s := openTestStore(t, &fakeCloner{})

	cfg := hookconfig.RepoConfig{
		Repo:       hookconfig.LocalRepo,
		LocalHooks: []hookconfig.LocalHook{{ID: "tidy", Entry: "go mod tidy", Language: hookconfig.System}},
	}
	local, err := s.PrepareRepo(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, hookconfig.LocalKind, local.Kind())
	assert.DirExists(t, local.Path())
	_, ok := local.GetHook("tidy")
	assert.True(t, ok)

	withDeps, err := s.PrepareRepo(context.Background(), cfg, []string{"x"})
	require.NoError(t, err)
	assert.NotEqual(t, local.Path(), withDeps.Path())

	meta, err := s.PrepareRepo(context.Background(), hookconfig.RepoConfig{Repo: hookconfig.MetaRepo}, nil)
	require.NoError(t, err)
	assert.Equal(t, "meta", meta.String())
}

func TestProvisionAtMostOnce(t *testing.T) {
	s := openTestStore(t, &fakeCloner{})
	env := Env{Key: EnvKey("python", "3.12", "/repo"), Language: "python", Version: "3.12", Path: filepath.Join(s.Dir(), "py_env-3.12")}

	var installs atomic.Int32
	install := func(_ context.Context, path string) error {
		installs.Add(1)
		time.Sleep(20 * time.Millisecond)
		return os.WriteFile(filepath.Join(path, "bin"), nil, 0o600)
	}

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Provision(context.Background(), env, install))
		}()
	}
	wg.Wait()
	require.NoError(t, s.Provision(context.Background(), env, install))

	assert.Equal(t, int32(1), installs.Load())
	assert.True(t, EnvReady(env.Path))

	envs, err := s.Envs(context.Background())
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.Equal(t, "python", envs[0].Language)
}

func TestProvisionFailureRemovesEnv(t *testing.T) {
	s := openTestStore(t, &fakeCloner{})
	env := Env{Key: "node-default-x", Language: "node", Version: "default", Path: filepath.Join(s.Dir(), "node_env-default")}

	err := s.Provision(context.Background(), env, func(_ context.Context, path string) error {
		_ = os.WriteFile(filepath.Join(path, "partial"), nil, 0o600)
		return fmt.Errorf("npm exited 1")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node")
	assert.NoDirExists(t, env.Path)

	require.NoError(t, s.Provision(context.Background(), env, func(context.Context, string) error { return nil }))
	assert.True(t, EnvReady(env.Path))
}

func TestClean(t *testing.T) {
	s := openTestStore(t, &fakeCloner{})
	repo, err := s.PrepareRepo(context.Background(), remoteConfig(), nil)
	require.NoError(t, err)

	require.NoError(t, s.Clean(context.Background()))
	assert.NoDirExists(t, repo.Path())
	assert.FileExists(t, filepath.Join(s.Dir(), dbFile))

	records, err := s.Repos(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestListingReportsCorruptRecords(t *testing.T) {
	s := openTestStore(t, &fakeCloner{})
	ctx := context.Background()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO repos (key, url, rev, deps, path, created_at) VALUES ('k', 'u', 'r', '', '/p', 'yesterday')`)
	require.NoError(t, err)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO envs (key, language, version, path, created_at) VALUES ('k', 'python', 'default', '/p', 'yesterday')`)
	require.NoError(t, err)

	_, err = s.Repos(ctx)
	assert.ErrorContains(t, err, "failed to read repo record")
	_, err = s.Envs(ctx)
	assert.ErrorContains(t, err, "failed to read env record")
}

func TestEnvKeyDistinguishesRepoPaths(t *testing.T) {
	assert.NotEqual(t, EnvKey("python", "3.12", "/a"), EnvKey("python", "3.12", "/b"))
	assert.Equal(t, EnvKey("python", "3.12", "/a"), EnvKey("python", "3.12", "/a"))
}
