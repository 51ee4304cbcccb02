// Package store caches cloned hook repos and provisioned language
// environments under a single directory, indexed by a sqlite database.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fulmenhq/prekit/pkg/hook"
	"github.com/fulmenhq/prekit/pkg/hookconfig"
	"github.com/fulmenhq/prekit/pkg/logger"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

const (
	dbFile      = "db.db"
	readyMarker = ".prekit-ready"
	tmpPrefix   = ".tmp-"
	repoPrefix  = "repo-"
	localPrefix = "local-"

	defaultCacheSize = 64
)

// Options configure Open.
type Options struct {
	// CacheSize bounds the loaded repos kept in memory.
	CacheSize int
	// Cloner fetches remote repos. Defaults to GitCloner.
	Cloner Cloner
}

// Store is safe for concurrent use. Concurrent requests for the same repo or
// environment share one clone or install.
type Store struct {
	dir    string
	db     *sql.DB
	cloner Cloner
	repos  *lru.Cache[string, hook.Repo]
	group  singleflight.Group
}

// Open creates dir if needed and opens its index.
func Open(dir string, opts Options) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	db, err := openDB(filepath.Join(dir, dbFile))
	if err != nil {
		return nil, err
	}
	size := opts.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	repos, err := lru.New[string, hook.Repo](size)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	cloner := opts.Cloner
	if cloner == nil {
		cloner = GitCloner{}
	}
	return &Store{dir: dir, db: db, cloner: cloner, repos: repos}, nil
}

// Dir is the store root.
func (s *Store) Dir() string { return s.dir }

// Close releases the index.
func (s *Store) Close() error {
	return s.db.Close()
}

// PrepareRepo returns the repo for cfg, cloning it on first use. deps select a
// separate directory so a hook's additional dependencies get their own
// environments.
func (s *Store) PrepareRepo(ctx context.Context, cfg hookconfig.RepoConfig, deps []string) (hook.Repo, error) {
	switch cfg.Kind() {
	case hookconfig.MetaKind:
		return hook.NewMetaRepo(), nil
	case hookconfig.LocalKind:
		return s.prepareLocal(ctx, cfg, deps)
	default:
		return s.prepareRemote(ctx, cfg, deps)
	}
}

func (s *Store) prepareRemote(ctx context.Context, cfg hookconfig.RepoConfig, deps []string) (hook.Repo, error) {
	deps = normalizeDeps(deps)
	key := repoKey(cfg.Repo, cfg.Rev, deps)
	if r, ok := s.repos.Get(key); ok {
		return r, nil
	}

	v, err, _ := s.group.Do("repo:"+key, func() (interface{}, error) {
		path, err := s.lookupRepo(ctx, key)
		if err != nil {
			return nil, err
		}
		if path == "" || !exists(path) {
			path, err = s.clone(ctx, cfg, key)
			if err != nil {
				return nil, err
			}
			if err := s.recordRepo(ctx, RepoRecord{Key: key, URL: cfg.Repo, Rev: cfg.Rev, Deps: deps, Path: path}); err != nil {
				return nil, err
			}
		}
		repo, err := hook.NewRemoteRepo(cfg.Repo, cfg.Rev, path)
		if err != nil {
			return nil, err
		}
		s.repos.Add(key, repo)
		return repo, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(hook.Repo), nil
}

// clone fetches into a scratch directory and renames it into place so a
// half-written clone is never visible under its final name.
func (s *Store) clone(ctx context.Context, cfg hookconfig.RepoConfig, key string) (string, error) {
	final := filepath.Join(s.dir, repoPrefix+shortHash(key))
	if exists(final) {
		return final, nil
	}
	tmp := filepath.Join(s.dir, tmpPrefix+uuid.NewString())
	if err := s.cloner.Clone(ctx, cfg.Repo, cfg.Rev, tmp); err != nil {
		removeQuietly(tmp)
		return "", err
	}
	if err := os.Rename(tmp, final); err != nil {
		removeQuietly(tmp)
		if exists(final) {
			return final, nil
		}
		return "", fmt.Errorf("failed to move clone into place: %w", err)
	}
	logger.Debug("repo cloned", logger.String("repo", cfg.String()), logger.String("path", final))
	return final, nil
}

func (s *Store) prepareLocal(ctx context.Context, cfg hookconfig.RepoConfig, deps []string) (hook.Repo, error) {
	deps = normalizeDeps(deps)
	key := repoKey(hookconfig.LocalRepo, "", deps)
	path := filepath.Join(s.dir, localPrefix+shortHash(key))

	_, err, _ := s.group.Do("repo:"+key, func() (interface{}, error) {
		if exists(path) {
			return nil, nil
		}
		if err := os.MkdirAll(path, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create local repo dir: %w", err)
		}
		return nil, s.recordRepo(ctx, RepoRecord{Key: key, URL: hookconfig.LocalRepo, Deps: deps, Path: path})
	})
	if err != nil {
		return nil, err
	}
	return hook.NewLocalRepo(cfg.LocalHooks, path), nil
}

// Env names an environment directory and what it holds.
type Env struct {
	Key      string
	Language string
	Version  string
	Path     string
}

// EnvKey derives the store key for a language environment built inside repoPath.
func EnvKey(language, version, repoPath string) string {
	return language + "-" + version + "-" + shortHash(repoPath)
}

// Installer populates an environment directory.
type Installer func(ctx context.Context, path string) error

// Provision runs install for env at most once. A completed environment carries
// a ready marker; a failed install is removed so the next attempt starts clean.
func (s *Store) Provision(ctx context.Context, env Env, install Installer) error {
	_, err, _ := s.group.Do("env:"+env.Key, func() (interface{}, error) {
		if EnvReady(env.Path) {
			return nil, nil
		}
		removeQuietly(env.Path)
		if err := os.MkdirAll(env.Path, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create environment dir: %w", err)
		}
		logger.Debug("installing environment", logger.String("env", env.Key), logger.String("path", env.Path))
		if err := install(ctx, env.Path); err != nil {
			removeQuietly(env.Path)
			return nil, fmt.Errorf("failed to install %s environment: %w", env.Language, err)
		}
		if err := os.WriteFile(filepath.Join(env.Path, readyMarker), []byte(env.Key+"\n"), 0o600); err != nil {
			return nil, err
		}
		return nil, s.recordEnv(ctx, EnvRecord{Key: env.Key, Language: env.Language, Version: env.Version, Path: env.Path})
	})
	return err
}

// EnvReady reports whether path holds a completed environment.
func EnvReady(path string) bool {
	return exists(filepath.Join(path, readyMarker))
}

// Clean removes every cached repo and environment and empties the index.
func (s *Store) Clean(ctx context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	var errs []error
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, repoPrefix) && !strings.HasPrefix(name, localPrefix) && !strings.HasPrefix(name, tmpPrefix) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.dir, name)); err != nil {
			errs = append(errs, err)
		}
	}
	for _, table := range []string{"repos", "envs"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			errs = append(errs, err)
		}
	}
	s.repos.Purge()
	return errors.Join(errs...)
}

func normalizeDeps(deps []string) []string {
	if len(deps) == 0 {
		return nil
	}
	out := append([]string(nil), deps...)
	sort.Strings(out)
	return out
}

func repoKey(url, rev string, deps []string) string {
	return url + "\x00" + rev + "\x00" + strings.Join(deps, "\x00")
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
