package hookconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sampleConfig = `
default_language_version:
  python: "3.12"
default_stages: [pre-commit, push]
exclude: '^vendor/'
fail_fast: true
repos:
  - repo: https://github.com/example/hooks
    rev: v1.2.0
    hooks:
      - id: black
        args: [--line-length, "100"]
      - id: flake8
        additional_dependencies: [flake8-bugbear]
        pass_filenames: false
  - repo: local
    hooks:
      - id: tidy
        name: go mod tidy
        entry: go mod tidy
        language: system
        pass_filenames: false
  - repo: meta
    hooks:
      - id: check-hooks-apply
`

const sampleManifest = `
- id: black
  name: black
  entry: black
  language: python
  types_or: [python, pyi]
- id: fail-on-rej
  name: rejected patches
  entry: found rejected patches
  language: fail
  files: '\.rej$'
  stages: [commit]
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)

	require.Len(t, cfg.Repos, 3)
	assert.Equal(t, "3.12", cfg.DefaultLanguageVersion[Python])
	assert.Equal(t, []Stage{StageCommit, StagePush}, cfg.DefaultStages)
	assert.Equal(t, "^vendor/", cfg.Exclude)
	assert.True(t, cfg.FailFast)

	remote := cfg.Repos[0]
	assert.Equal(t, RemoteKind, remote.Kind())
	assert.Equal(t, "https://github.com/example/hooks@v1.2.0", remote.String())
	require.Len(t, remote.Hooks, 2)
	require.NotNil(t, remote.Hooks[0].Args)
	assert.Equal(t, []string{"--line-length", "100"}, *remote.Hooks[0].Args)
	assert.Nil(t, remote.Hooks[0].Name, "absent fields stay unset")
	require.NotNil(t, remote.Hooks[1].PassFilenames)
	assert.False(t, *remote.Hooks[1].PassFilenames)
	assert.Equal(t, []string{"black", "flake8"}, remote.HookIDs())

	local := cfg.Repos[1]
	assert.Equal(t, LocalKind, local.Kind())
	require.Len(t, local.LocalHooks, 1)
	assert.Equal(t, System, local.LocalHooks[0].Language)
	assert.False(t, local.LocalHooks[0].PassFilenames)
	assert.Equal(t, []string{"file"}, local.LocalHooks[0].Types)

	meta := cfg.Repos[2]
	assert.Equal(t, MetaKind, meta.Kind())
	assert.Equal(t, "meta", meta.String())
	assert.Equal(t, []string{"check-hooks-apply"}, meta.HookIDs())
}

func TestParseConfigRejectsMissingRev(t *testing.T) {
	_, err := ParseConfig([]byte("repos:\n  - repo: https://github.com/example/hooks\n    hooks:\n      - id: black\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rev")
}

func TestParseConfigRejectsUnknownLanguage(t *testing.T) {
	_, err := ParseConfig([]byte("repos:\n  - repo: local\n    hooks:\n      - id: x\n        name: x\n        entry: x\n        language: cobol\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cobol")
}

func TestParseManifestDefaults(t *testing.T) {
	m, err := ParseManifest([]byte(sampleManifest))
	require.NoError(t, err)
	require.Len(t, m.Hooks, 2)

	black := m.Hooks[0]
	assert.True(t, black.PassFilenames)
	assert.Equal(t, []string{"file"}, black.Types)
	assert.Equal(t, []string{"python", "pyi"}, black.TypesOr)
	assert.Nil(t, black.Stages)
	assert.Empty(t, black.LanguageVersion)

	fail := m.Hooks[1]
	assert.Equal(t, Fail, fail.Language)
	assert.Equal(t, []Stage{StageCommit}, fail.Stages)
}

func TestParseManifestNumericVersion(t *testing.T) {
	m, err := ParseManifest([]byte("- id: a\n  name: a\n  entry: a\n  language: python\n  language_version: 3.11\n"))
	require.NoError(t, err)
	assert.Equal(t, "3.11", m.Hooks[0].LanguageVersion)
}

func TestReadManifestMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ManifestFile)
	_, err := ReadManifest(path)
	require.Error(t, err)

	var readErr *ReadError
	require.True(t, errors.As(err, &readErr))
	assert.Equal(t, path, readErr.Path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestReadConfigFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	cfg, err := ReadConfig(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Repos, 3)
}

func TestParseStage(t *testing.T) {
	tests := map[string]Stage{
		"pre-commit":       StageCommit,
		"commit":           StageCommit,
		"pre-push":         StagePush,
		"pre-merge-commit": StageMergeCommit,
		"manual":           StageManual,
		"post-checkout":    StagePostCheckout,
	}
	for in, want := range tests {
		got, err := ParseStage(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseStage("pre-lunch")
	assert.Error(t, err)
}

func TestStageHookType(t *testing.T) {
	assert.Equal(t, "pre-commit", StageCommit.HookType())
	assert.Equal(t, "pre-push", StagePush.HookType())
	assert.Equal(t, "commit-msg", StageCommitMsg.HookType())
	assert.Equal(t, "", StageManual.HookType())
}

func TestLanguageDefaultVersion(t *testing.T) {
	for l := range knownLanguages {
		assert.Equal(t, DefaultVersion, l.DefaultVersion())
	}
}

func TestManifestHookCloneIsDeep(t *testing.T) {
	orig := ManifestHook{ID: "a", Args: []string{"x"}, Stages: []Stage{StageCommit}}
	c := orig.Clone()
	c.Args[0] = "y"
	c.Stages[0] = StagePush
	assert.Equal(t, "x", orig.Args[0])
	assert.Equal(t, StageCommit, orig.Stages[0])
}

func TestRepoConfigMarshalRoundTripKeepsKind(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)

	again, err := ParseConfig(out)
	require.NoError(t, err)
	require.Len(t, again.Repos, 3)
	assert.Equal(t, cfg.Repos[0].Rev, again.Repos[0].Rev)
	assert.Equal(t, cfg.Repos[1].LocalHooks[0].Entry, again.Repos[1].LocalHooks[0].Entry)
}

func TestReadRepoManifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte(sampleManifest), 0o600))

	m, err := ReadRepoManifest(dir)
	require.NoError(t, err)
	assert.Len(t, m.Hooks, 2)

	_, err = ReadRepoManifest(t.TempDir())
	var readErr *ReadError
	require.ErrorAs(t, err, &readErr)
}
