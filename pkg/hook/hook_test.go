package hook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fulmenhq/prekit/pkg/hookconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool { return &b }
func listPtr(s ...string) *[]string { return &s }
func stagePtr(s ...hookconfig.Stage) *[]hookconfig.Stage { return &s }

func baseHook() hookconfig.ManifestHook {
	return hookconfig.ManifestHook{
		ID:            "lint",
		Name:          "Lint",
		Entry:         "lint-it",
		Language:      hookconfig.Python,
		Files:         `\.py$`,
		Types:         []string{"file"},
		Args:          []string{"--strict"},
		Stages:        []hookconfig.Stage{hookconfig.StageCommit},
		PassFilenames: true,
	}
}

func TestUpdateOverlaysOnlySetFields(t *testing.T) {
	h := newHook(baseHook(), NewMetaRepo(), hookconfig.RepoConfig{}, 0, 0)
	h.Update(hookconfig.RemoteHook{
		ID:   "lint",
		Args: listPtr("--fix"),
	})

	assert.Equal(t, []string{"--fix"}, h.Args, "lists are replaced, not appended")
	assert.Equal(t, "Lint", h.Name)
	assert.Equal(t, "lint-it", h.Entry)
	assert.Equal(t, `\.py$`, h.Files)
	assert.Equal(t, []hookconfig.Stage{hookconfig.StageCommit}, h.Stages)
	assert.True(t, h.PassFilenames)
}

func TestUpdateEveryField(t *testing.T) {
	h := newHook(baseHook(), NewMetaRepo(), hookconfig.RepoConfig{}, 0, 0)
	h.Update(hookconfig.RemoteHook{
		ID:                     "lint",
		Name:                   strPtr("renamed"),
		Entry:                  strPtr("other"),
		LanguageVersion:        strPtr("3.11"),
		Alias:                  strPtr("l"),
		Description:            strPtr("d"),
		Files:                  strPtr(""),
		Exclude:                strPtr("^gen/"),
		Types:                  listPtr("text"),
		TypesOr:                listPtr("python", "pyi"),
		ExcludeTypes:           listPtr("binary"),
		AdditionalDependencies: listPtr("pkg==2"),
		Args:                   listPtr(),
		Stages:                 stagePtr(hookconfig.StagePush),
		AlwaysRun:              boolPtr(true),
		PassFilenames:          boolPtr(false),
		RequireSerial:          boolPtr(true),
		Verbose:                boolPtr(true),
		LogFile:                strPtr("hook.log"),
	})

	assert.Equal(t, "renamed", h.Name)
	assert.Equal(t, "other", h.Entry)
	assert.Equal(t, "3.11", h.LanguageVersion)
	assert.Equal(t, "l", h.Alias)
	assert.Equal(t, "d", h.Description)
	assert.Equal(t, "", h.Files, "an explicit empty value still overrides")
	assert.Equal(t, "^gen/", h.Exclude)
	assert.Equal(t, []string{"text"}, h.Types)
	assert.Equal(t, []string{"python", "pyi"}, h.TypesOr)
	assert.Equal(t, []string{"binary"}, h.ExcludeTypes)
	assert.Equal(t, []string{"pkg==2"}, h.AdditionalDependencies)
	assert.Empty(t, h.Args)
	assert.Equal(t, []hookconfig.Stage{hookconfig.StagePush}, h.Stages)
	assert.True(t, h.AlwaysRun)
	assert.False(t, h.PassFilenames)
	assert.True(t, h.RequireSerial)
	assert.True(t, h.Verbose)
	assert.Equal(t, "hook.log", h.LogFile)
}

func TestUpdateDoesNotAliasOverride(t *testing.T) {
	args := []string{"--fix"}
	h := newHook(baseHook(), NewMetaRepo(), hookconfig.RepoConfig{}, 0, 0)
	h.Update(hookconfig.RemoteHook{ID: "lint", Args: &args})
	h.Args[0] = "changed"
	assert.Equal(t, "--fix", args[0])
}

func TestNewHookDoesNotAliasManifest(t *testing.T) {
	def := baseHook()
	h := newHook(def, NewMetaRepo(), hookconfig.RepoConfig{}, 0, 0)
	h.Args[0] = "changed"
	assert.Equal(t, "--strict", def.Args[0])
}

func TestFill(t *testing.T) {
	cfg := &hookconfig.ProjectConfig{
		DefaultLanguageVersion: map[hookconfig.Language]string{hookconfig.Python: "3.12"},
		DefaultStages:          []hookconfig.Stage{hookconfig.StagePush},
	}

	t.Run("project default version", func(t *testing.T) {
		def := baseHook()
		def.Stages = nil
		h := newHook(def, NewMetaRepo(), hookconfig.RepoConfig{}, 0, 0)
		h.Fill(cfg)
		assert.Equal(t, "3.12", h.LanguageVersion)
		assert.Equal(t, []hookconfig.Stage{hookconfig.StagePush}, h.Stages)
	})

	t.Run("language default version", func(t *testing.T) {
		def := baseHook()
		def.Language = hookconfig.Node
		h := newHook(def, NewMetaRepo(), hookconfig.RepoConfig{}, 0, 0)
		h.Fill(cfg)
		assert.Equal(t, hookconfig.DefaultVersion, h.LanguageVersion)
	})

	t.Run("set fields untouched", func(t *testing.T) {
		def := baseHook()
		def.LanguageVersion = "3.9"
		h := newHook(def, NewMetaRepo(), hookconfig.RepoConfig{}, 0, 0)
		h.Fill(cfg)
		assert.Equal(t, "3.9", h.LanguageVersion)
		assert.Equal(t, []hookconfig.Stage{hookconfig.StageCommit}, h.Stages)
	})

	t.Run("no default stages keeps unset", func(t *testing.T) {
		def := baseHook()
		def.Stages = nil
		h := newHook(def, NewMetaRepo(), hookconfig.RepoConfig{}, 0, 0)
		h.Fill(&hookconfig.ProjectConfig{})
		assert.Nil(t, h.Stages)
		assert.True(t, h.HasStage(hookconfig.StageManual))
	})
}

func TestFillIsIdempotent(t *testing.T) {
	cfg := &hookconfig.ProjectConfig{
		DefaultLanguageVersion: map[hookconfig.Language]string{hookconfig.Python: "3.12"},
		DefaultStages:          []hookconfig.Stage{hookconfig.StagePush},
	}
	def := baseHook()
	def.Stages = nil

	once := newHook(def, NewMetaRepo(), hookconfig.RepoConfig{}, 0, 0)
	once.Fill(cfg)
	twice := once.Clone()
	twice.Fill(cfg)

	assert.Equal(t, once.ManifestHook, twice.ManifestHook)
}

func TestHasStage(t *testing.T) {
	h := newHook(baseHook(), NewMetaRepo(), hookconfig.RepoConfig{}, 0, 0)
	assert.True(t, h.HasStage(hookconfig.StageCommit))
	assert.False(t, h.HasStage(hookconfig.StagePush))
}

func TestResolvedHook(t *testing.T) {
	h := newHook(baseHook(), NewMetaRepo(), hookconfig.RepoConfig{}, 0, 0)
	assert.False(t, NoEnv(h).HasEnv())
	r := WithEnv(h, "python-3.12-x", "/store/py_env-3.12")
	assert.True(t, r.HasEnv())
	assert.Equal(t, "lint", r.ID)
}

func writeManifest(t *testing.T, dir string, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, hookconfig.ManifestFile), []byte(body), 0o600))
}

func TestNewRemoteRepo(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
- id: lint
  name: first
  entry: a
  language: system
- id: fmt
  name: fmt
  entry: b
  language: system
- id: lint
  name: second
  entry: c
  language: system
`)

	repo, err := NewRemoteRepo("https://example.com/hooks", "v1", dir)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/hooks@v1", repo.String())
	assert.Equal(t, hookconfig.RemoteKind, repo.Kind())
	assert.Equal(t, dir, repo.Path())
	assert.Len(t, repo.hooks, 2, "3 hooks with 1 duplicate id")

	lint, ok := repo.GetHook("lint")
	require.True(t, ok)
	assert.Equal(t, "second", lint.Name, "last write wins")

	_, ok = repo.GetHook("absent")
	assert.False(t, ok)
}

func TestNewRemoteRepoInvalidURL(t *testing.T) {
	for _, raw := range []string{"not a url", "://missing", "git@github.com:org/repo"} {
		_, err := NewRemoteRepo(raw, "v1", t.TempDir())
		assert.ErrorIs(t, err, ErrInvalidURL, raw)
	}
}

func TestNewRemoteRepoMissingManifest(t *testing.T) {
	_, err := NewRemoteRepo("https://example.com/hooks", "v1", t.TempDir())
	var readErr *hookconfig.ReadError
	assert.ErrorAs(t, err, &readErr)
}

func TestLocalAndMetaRepos(t *testing.T) {
	local := NewLocalRepo([]hookconfig.LocalHook{{ID: "a", Entry: "x"}, {ID: "a", Entry: "y"}}, "/tmp/local")
	assert.Equal(t, "local", local.String())
	h, ok := local.GetHook("a")
	require.True(t, ok)
	assert.Equal(t, "y", h.Entry)

	meta := NewMetaRepo()
	assert.Equal(t, "meta", meta.String())
	_, ok = meta.GetHook("check-hooks-apply")
	assert.False(t, ok)
}
