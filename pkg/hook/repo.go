package hook

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/fulmenhq/prekit/pkg/hookconfig"
)

// ErrInvalidURL is returned for a remote repo URL that does not parse or has no scheme.
var ErrInvalidURL = errors.New("invalid repo URL")

// Repo is a prepared hook source. The hook map is fixed at construction.
type Repo interface {
	Kind() hookconfig.RepoKind
	// Path is the on-disk directory the repo was prepared into; empty for meta.
	Path() string
	GetHook(id string) (hookconfig.ManifestHook, bool)
	fmt.Stringer
}

// RemoteRepo is a cloned repository described by its manifest.
type RemoteRepo struct {
	path  string
	url   string
	rev   string
	hooks map[string]hookconfig.ManifestHook
}

// NewRemoteRepo validates rawURL and loads the manifest found under path.
func NewRemoteRepo(rawURL, rev, path string) (*RemoteRepo, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidURL, rawURL, err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("%w %q: missing scheme", ErrInvalidURL, rawURL)
	}

	manifest, err := hookconfig.ReadRepoManifest(path)
	if err != nil {
		return nil, err
	}
	return &RemoteRepo{
		path:  path,
		url:   rawURL,
		rev:   rev,
		hooks: hookMap(manifest.Hooks),
	}, nil
}

func (r *RemoteRepo) Kind() hookconfig.RepoKind { return hookconfig.RemoteKind }
func (r *RemoteRepo) Path() string              { return r.path }
func (r *RemoteRepo) URL() string               { return r.url }
func (r *RemoteRepo) Rev() string               { return r.rev }
func (r *RemoteRepo) String() string            { return r.url + "@" + r.rev }

func (r *RemoteRepo) GetHook(id string) (hookconfig.ManifestHook, bool) {
	h, ok := r.hooks[id]
	return h, ok
}

// LocalRepo holds the hooks declared inline under `repo: local`.
type LocalRepo struct {
	path  string
	hooks map[string]hookconfig.ManifestHook
}

// NewLocalRepo builds a local repo from inline definitions.
func NewLocalRepo(hooks []hookconfig.LocalHook, path string) *LocalRepo {
	return &LocalRepo{path: path, hooks: hookMap(hooks)}
}

func (r *LocalRepo) Kind() hookconfig.RepoKind { return hookconfig.LocalKind }
func (r *LocalRepo) Path() string              { return r.path }
func (r *LocalRepo) String() string            { return hookconfig.LocalRepo }

func (r *LocalRepo) GetHook(id string) (hookconfig.ManifestHook, bool) {
	h, ok := r.hooks[id]
	return h, ok
}

// MetaRepo is the built-in repo. It currently offers no hooks.
type MetaRepo struct{}

func NewMetaRepo() *MetaRepo { return &MetaRepo{} }

func (r *MetaRepo) Kind() hookconfig.RepoKind { return hookconfig.MetaKind }
func (r *MetaRepo) Path() string              { return "" }
func (r *MetaRepo) String() string            { return hookconfig.MetaRepo }

func (r *MetaRepo) GetHook(string) (hookconfig.ManifestHook, bool) {
	return hookconfig.ManifestHook{}, false
}

// hookMap indexes hooks by id; a later duplicate replaces an earlier one.
func hookMap(hooks []hookconfig.ManifestHook) map[string]hookconfig.ManifestHook {
	m := make(map[string]hookconfig.ManifestHook, len(hooks))
	for _, h := range hooks {
		m[h.ID] = h
	}
	return m
}
