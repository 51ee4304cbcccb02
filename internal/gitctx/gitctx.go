// Package gitctx discovers the files a hook run operates on.
package gitctx

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
)

// ErrNotRepository is returned when no git repository encloses the target.
var ErrNotRepository = errors.New("not a git repository")

// Repo is an opened working tree.
type Repo struct {
	root string
	repo *git.Repository
}

// Open finds the repository enclosing target.
func Open(target string) (*Repo, error) {
	repo, err := git.PlainOpenWithOptions(target, &git.PlainOpenOptions{DetectDotGit: true, EnableDotGitCommonDir: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, target)
		}
		return nil, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no working tree", ErrNotRepository, target)
	}
	return &Repo{root: wt.Filesystem.Root(), repo: repo}, nil
}

// Root is the top of the working tree.
func (r *Repo) Root() string { return r.root }

// StagedFiles lists paths added, modified, renamed or copied in the index,
// relative to the root with forward slashes.
func (r *Repo) StagedFiles() ([]string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, err
	}
	st, err := wt.Status()
	if err != nil {
		// go-git cannot read some index extensions; fall back to the CLI.
		if files, ok := stagedFilesCLI(r.root); ok {
			return files, nil
		}
		return nil, fmt.Errorf("failed to read git status: %w", err)
	}
	var files []string
	for path, s := range st {
		switch s.Staging {
		case git.Added, git.Modified, git.Renamed, git.Copied:
			files = append(files, filepath.ToSlash(path))
		}
	}
	sort.Strings(files)
	return files, nil
}

// AllFiles lists every path tracked in the index.
func (r *Repo) AllFiles() ([]string, error) {
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("failed to read git index: %w", err)
	}
	seen := make(map[string]struct{}, len(idx.Entries))
	files := make([]string, 0, len(idx.Entries))
	for _, e := range idx.Entries {
		if _, ok := seen[e.Name]; ok {
			continue
		}
		seen[e.Name] = struct{}{}
		files = append(files, e.Name)
	}
	sort.Strings(files)
	return files, nil
}

// HooksDir is where git looks for hook scripts: core.hooksPath when set,
// else the hooks directory of the common git dir.
func (r *Repo) HooksDir() (string, error) {
	cfg, err := r.repo.Config()
	if err == nil && cfg.Raw != nil {
		if p := cfg.Raw.Section("core").Option("hooksPath"); p != "" {
			if !filepath.IsAbs(p) {
				p = filepath.Join(r.root, p)
			}
			return p, nil
		}
	}
	if out := runGit(r.root, "rev-parse", "--git-common-dir"); out != "" {
		if !filepath.IsAbs(out) {
			out = filepath.Join(r.root, out)
		}
		return filepath.Join(out, "hooks"), nil
	}
	dotGit := filepath.Join(r.root, ".git")
	fi, err := os.Stat(dotGit)
	if err != nil || !fi.IsDir() {
		return "", fmt.Errorf("cannot locate git directory for %s", r.root)
	}
	return filepath.Join(dotGit, "hooks"), nil
}

func stagedFilesCLI(root string) ([]string, bool) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, false
	}
	out, err := runGitBytes(root, "diff", "--cached", "--name-only", "--diff-filter=ACMR", "-z")
	if err != nil {
		return nil, false
	}
	return parseNulList(out), true
}

// parseNulList splits `-z` output into sorted paths.
func parseNulList(data []byte) []string {
	var files []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Split(func(data []byte, atEOF bool) (int, []byte, error) {
		if i := bytes.IndexByte(data, 0); i >= 0 {
			return i + 1, data[:i], nil
		}
		if atEOF && len(data) > 0 {
			return len(data), data, nil
		}
		return 0, nil, nil
	})
	for scanner.Scan() {
		if f := scanner.Text(); f != "" {
			files = append(files, f)
		}
	}
	sort.Strings(files)
	return files
}

func runGit(dir string, args ...string) string {
	b, err := runGitBytes(dir, args...)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func runGitBytes(dir string, args ...string) ([]byte, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	return cmd.Output()
}
