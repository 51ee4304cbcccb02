package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PREKIT_HOME", t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 64, cfg.Store.CacheSize)
	assert.Equal(t, 0, cfg.Batch.MaxLength)
	assert.Equal(t, 0, cfg.Batch.MaxArgs)
	assert.Equal(t, "docker", cfg.Docker.Binary)
	assert.Equal(t, "/src", cfg.Docker.MountTarget)
	assert.Equal(t, "npm", cfg.Node.Npm)
	assert.Equal(t, "go", cfg.Golang.Go)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("PREKIT_HOME", t.TempDir())
	t.Setenv("PREKIT_BATCH_MAX_ARGS", "100")
	t.Setenv("PREKIT_DOCKER_BINARY", "podman")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Batch.MaxArgs)
	assert.Equal(t, "podman", cfg.Docker.Binary)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prekit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  dir: /tmp/prekit-store\n  cache_size: 8\nbatch:\n  max_length: 4096\n  jobs: 2\n"), 0o600))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/prekit-store", cfg.Store.Dir)
	assert.Equal(t, 8, cfg.Store.CacheSize)
	assert.Equal(t, 4096, cfg.Batch.MaxLength)
	assert.Equal(t, 2, cfg.Batch.Jobs)
	assert.Equal(t, "docker", cfg.Docker.Binary, "unset keys keep defaults")
}

func TestLoadConfigFileMissing(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestStoreDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("PREKIT_HOME", home)

	cfg := Default()
	dir, err := cfg.StoreDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "store"), dir)

	cfg.Store.Dir = "/elsewhere"
	dir, err = cfg.StoreDir()
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere", dir)
}

func TestEnsurePrekitHome(t *testing.T) {
	home := filepath.Join(t.TempDir(), "nested", "home")
	t.Setenv("PREKIT_HOME", home)

	got, err := EnsurePrekitHome()
	require.NoError(t, err)
	assert.Equal(t, home, got)
	assert.DirExists(t, home)
}
