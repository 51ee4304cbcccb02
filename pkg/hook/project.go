package hook

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/fulmenhq/prekit/pkg/hookconfig"
	"github.com/fulmenhq/prekit/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Store prepares repos. Implementations must be idempotent for equal
// (cfg, deps) and safe for concurrent use.
type Store interface {
	PrepareRepo(ctx context.Context, cfg hookconfig.RepoConfig, deps []string) (Repo, error)
}

// DependencySupport reports whether a language can install additional_dependencies.
type DependencySupport func(hookconfig.Language) bool

// Project is a repository root plus its parsed hook configuration.
type Project struct {
	root         string
	config       *hookconfig.ProjectConfig
	supportsDeps DependencySupport
}

// Option configures a Project.
type Option func(*Project)

// WithDependencySupport installs the capability check applied to hooks that
// declare additional_dependencies.
func WithDependencySupport(f DependencySupport) Option {
	return func(p *Project) { p.supportsDeps = f }
}

// NewProject wraps an already parsed configuration.
func NewProject(root string, cfg *hookconfig.ProjectConfig, opts ...Option) *Project {
	p := &Project{root: root, config: cfg}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LoadProject reads configPath (relative paths are taken from root).
func LoadProject(root, configPath string, opts ...Option) (*Project, error) {
	if configPath == "" {
		configPath = hookconfig.ConfigFile
	}
	if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(root, configPath)
	}
	cfg, err := hookconfig.ReadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return NewProject(root, cfg, opts...), nil
}

func (p *Project) Root() string                       { return p.root }
func (p *Project) Config() *hookconfig.ProjectConfig { return p.config }

type preparedRepo struct {
	index int
	repo  Repo
}

// Hooks prepares every configured repo concurrently and returns the effective
// hooks in configuration order. Hooks with additional dependencies get their
// own repo preparation, and all of those finish before Hooks returns. The
// first failure cancels the remaining work, which is awaited before returning.
func (p *Project) Hooks(ctx context.Context, store Store) ([]*Hook, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Both groups derive from ctx directly so finishing one never cancels the other.
	repoGroup, repoCtx := errgroup.WithContext(ctx)
	depsGroup, depsCtx := errgroup.WithContext(ctx)

	ready := make(chan preparedRepo, len(p.config.Repos))
	for i, rc := range p.config.Repos {
		repoGroup.Go(func() error {
			repo, err := store.PrepareRepo(repoCtx, rc, nil)
			if err != nil {
				return fmt.Errorf("failed to prepare repo %s: %w", rc, err)
			}
			logger.Debug("repo ready", logger.String("repo", repo.String()))
			ready <- preparedRepo{index: i, repo: repo}
			return nil
		})
	}

	repoDone := make(chan error, 1)
	go func() {
		err := repoGroup.Wait()
		close(ready)
		repoDone <- err
	}()

	var (
		hooks       []*Hook
		assembleErr error
	)
	fail := func(err error) {
		if assembleErr == nil {
			assembleErr = err
		}
		cancel()
	}

	for pr := range ready {
		if assembleErr != nil {
			continue
		}
		repoHooks, err := p.assemble(pr.index, pr.repo)
		if err != nil {
			fail(err)
			continue
		}
		for _, h := range repoHooks {
			hooks = append(hooks, h)
			if len(h.AdditionalDependencies) == 0 {
				continue
			}
			if p.supportsDeps != nil && !p.supportsDeps(h.Language) {
				fail(&DependencyNotSupportedError{Hook: h.ID, Language: h.Language})
				break
			}
			depsGroup.Go(func() error {
				repo, err := store.PrepareRepo(depsCtx, h.RepoConfig, h.AdditionalDependencies)
				if err != nil {
					cancel()
					return fmt.Errorf("failed to prepare %s with dependencies for hook %q: %w", h.RepoConfig, h.ID, err)
				}
				h.EnvRepo = repo
				return nil
			})
		}
	}

	repoErr := <-repoDone
	if repoErr != nil {
		cancel()
	}
	depsErr := depsGroup.Wait()

	if err := firstError(assembleErr, repoErr, depsErr); err != nil {
		return nil, err
	}

	sort.SliceStable(hooks, func(i, j int) bool {
		if hooks[i].RepoIndex != hooks[j].RepoIndex {
			return hooks[i].RepoIndex < hooks[j].RepoIndex
		}
		return hooks[i].HookIndex < hooks[j].HookIndex
	})
	return hooks, nil
}

// assemble produces the filled hooks declared against one prepared repo.
func (p *Project) assemble(index int, repo Repo) ([]*Hook, error) {
	rc := p.config.Repos[index]
	var hooks []*Hook

	switch rc.Kind() {
	case hookconfig.RemoteKind:
		for j, override := range rc.Hooks {
			def, ok := repo.GetHook(override.ID)
			if !ok {
				return nil, &HookNotFoundError{Hook: override.ID, Repo: repo.String()}
			}
			h := newHook(def, repo, rc, index, j)
			h.Update(override)
			h.Fill(p.config)
			hooks = append(hooks, h)
		}
	case hookconfig.LocalKind:
		for j, def := range rc.LocalHooks {
			h := newHook(def, repo, rc, index, j)
			h.Fill(p.config)
			hooks = append(hooks, h)
		}
	case hookconfig.MetaKind:
		// Meta hooks are not implemented; the meta repo contributes nothing.
	}
	return hooks, nil
}

// firstError prefers a real failure over the cancellations it caused.
func firstError(errs ...error) error {
	var canceled error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) {
			if canceled == nil {
				canceled = err
			}
			continue
		}
		return err
	}
	return canceled
}
