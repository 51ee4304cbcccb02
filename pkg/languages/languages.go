// Package languages adapts each hook language's toolchain to one contract:
// resolve an environment, install it, check its health and run the hook.
package languages

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fulmenhq/prekit/pkg/config"
	"github.com/fulmenhq/prekit/pkg/hook"
	"github.com/fulmenhq/prekit/pkg/hookconfig"
	"github.com/fulmenhq/prekit/pkg/store"
	"github.com/fulmenhq/prekit/pkg/xargs"
)

var (
	// ErrUnsupportedLanguage is returned for a recognised language with no implementation.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrInvalidEntry is returned for an entry that cannot be tokenized.
	ErrInvalidEntry = errors.New("invalid hook entry")
)

// Store provisions environments at most once per key.
type Store interface {
	Provision(ctx context.Context, env store.Env, install store.Installer) error
}

// Language is one toolchain.
type Language interface {
	Name() hookconfig.Language
	// SupportsDependency reports whether additional_dependencies can be installed.
	SupportsDependency() bool
	// Resolve decides where the hook's environment lives, if it needs one.
	Resolve(ctx context.Context, h *hook.Hook) (*hook.ResolvedHook, error)
	// Install provisions the resolved environment. Safe to call concurrently.
	Install(ctx context.Context, r *hook.ResolvedHook, st Store) error
	// CheckHealth verifies an installed environment is still usable.
	CheckHealth(ctx context.Context, r *hook.ResolvedHook) error
	// Run executes the hook over filenames, returning the combined exit code and output.
	Run(ctx context.Context, r *hook.ResolvedHook, filenames []string, env []string, st Store) (int, []byte, error)
}

// Settings carry the toolchain binaries and limits every language shares.
type Settings struct {
	// Root is the project directory hooks run in.
	Root   string
	Limits xargs.Limits
	Jobs   int

	Docker      string
	MountTarget string
	Python      string
	Npm         string
	Go          string
}

// SettingsFromConfig maps prekit settings onto language settings.
func SettingsFromConfig(cfg *config.Config, root string) Settings {
	return Settings{
		Root:        root,
		Limits:      xargs.Limits{MaxLength: cfg.Batch.MaxLength, MaxArgs: cfg.Batch.MaxArgs},
		Jobs:        cfg.Batch.Jobs,
		Docker:      cfg.Docker.Binary,
		MountTarget: cfg.Docker.MountTarget,
		Python:      cfg.Python.Interpreter,
		Npm:         cfg.Node.Npm,
		Go:          cfg.Golang.Go,
	}
}

// Registry maps language names to implementations.
type Registry struct {
	langs map[hookconfig.Language]Language
}

// NewRegistry builds every implemented language over s.
func NewRegistry(s Settings) *Registry {
	all := []Language{
		&System{settings: s},
		&Script{settings: s},
		&Fail{},
		&Python{settings: s},
		&Node{settings: s},
		&Golang{settings: s},
		&Docker{settings: s},
		&DockerImage{settings: s},
	}
	r := &Registry{langs: make(map[hookconfig.Language]Language, len(all))}
	for _, l := range all {
		r.langs[l.Name()] = l
	}
	return r
}

// For returns the implementation for lang.
func (r *Registry) For(lang hookconfig.Language) (Language, error) {
	l, ok := r.langs[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}
	return l, nil
}

// SupportsDependency matches hook.DependencySupport. Unimplemented languages
// report true so they fail later with ErrUnsupportedLanguage instead.
func (r *Registry) SupportsDependency(lang hookconfig.Language) bool {
	l, ok := r.langs[lang]
	return !ok || l.SupportsDependency()
}

// Resolve looks up the hook's language and resolves it, refusing
// additional_dependencies the language cannot install and entries that
// cannot be tokenized. The fail language prints its entry verbatim.
func (r *Registry) Resolve(ctx context.Context, h *hook.Hook) (Language, *hook.ResolvedHook, error) {
	l, err := r.For(h.Language)
	if err != nil {
		return nil, nil, fmt.Errorf("hook %q: %w", h.ID, err)
	}
	if len(h.AdditionalDependencies) > 0 && !l.SupportsDependency() {
		return nil, nil, &hook.DependencyNotSupportedError{Hook: h.ID, Language: h.Language}
	}
	if h.Language != hookconfig.Fail {
		if _, err := splitEntry(h.Entry); err != nil {
			return nil, nil, fmt.Errorf("hook %q: %w", h.ID, err)
		}
	}
	resolved, err := l.Resolve(ctx, h)
	if err != nil {
		return nil, nil, err
	}
	return l, resolved, nil
}

// envPath is the directory an environment for h lives in: a per-language
// directory inside the repo prepared for h's dependencies.
func envPath(h *hook.Hook, prefix string) string {
	return filepath.Join(h.EnvRepoOrRepo().Path(), prefix+"-"+h.LanguageVersion)
}

func envFor(h *hook.Hook, prefix string) store.Env {
	repoPath := h.EnvRepoOrRepo().Path()
	return store.Env{
		Key:      store.EnvKey(string(h.Language), h.LanguageVersion, repoPath),
		Language: string(h.Language),
		Version:  h.LanguageVersion,
		Path:     envPath(h, prefix),
	}
}

// noEnv is embedded by languages that install nothing.
type noEnv struct{}

func (noEnv) SupportsDependency() bool { return false }

func (noEnv) Resolve(_ context.Context, h *hook.Hook) (*hook.ResolvedHook, error) {
	return hook.NoEnv(h), nil
}

func (noEnv) Install(context.Context, *hook.ResolvedHook, Store) error { return nil }

func (noEnv) CheckHealth(context.Context, *hook.ResolvedHook) error { return nil }
