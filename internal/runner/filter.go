package runner

import (
	"fmt"
	"path/filepath"

	"github.com/dlclark/regexp2"
	"github.com/fulmenhq/prekit/pkg/identify"
)

// pathFilter keeps paths matching include and not matching exclude.
// Empty include matches everything; empty exclude matches nothing.
// Patterns use backtracking syntax, so (?x) verbose mode and lookaround work.
type pathFilter struct {
	include *regexp2.Regexp
	exclude *regexp2.Regexp
}

func newPathFilter(include, exclude string) (*pathFilter, error) {
	f := &pathFilter{}
	var err error
	if include != "" {
		if f.include, err = regexp2.Compile(include, regexp2.None); err != nil {
			return nil, fmt.Errorf("invalid files pattern %q: %w", include, err)
		}
	}
	if exclude != "" && exclude != "^$" {
		if f.exclude, err = regexp2.Compile(exclude, regexp2.None); err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", exclude, err)
		}
	}
	return f, nil
}

func (f *pathFilter) keep(path string) bool {
	if f.include != nil && !search(f.include, path) {
		return false
	}
	return f.exclude == nil || !search(f.exclude, path)
}

// search reports whether re matches anywhere in s. A match error only
// happens on timeout, which is unset, so it counts as no match.
func search(re *regexp2.Regexp, s string) bool {
	ok, err := re.MatchString(s)
	return err == nil && ok
}

func (f *pathFilter) apply(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if f.keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// tagCache classifies each path once per run.
type tagCache struct {
	root string
	tags map[string]map[string]struct{}
}

func newTagCache(root string) *tagCache {
	return &tagCache{root: root, tags: make(map[string]map[string]struct{})}
}

func (c *tagCache) get(path string) map[string]struct{} {
	if t, ok := c.tags[path]; ok {
		return t
	}
	t := identify.Tags(filepath.Join(c.root, filepath.FromSlash(path)))
	c.tags[path] = t
	return t
}

// filterByTypes keeps paths whose tags satisfy types, typesOr and excludeTypes.
func (c *tagCache) filterByTypes(paths []string, types, typesOr, excludeTypes []string) []string {
	if len(types) == 0 && len(typesOr) == 0 && len(excludeTypes) == 0 {
		return paths
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if identify.Matches(c.get(p), types, typesOr, excludeTypes) {
			out = append(out, p)
		}
	}
	return out
}
