package store

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fulmenhq/prekit/pkg/logger"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// Cloner materialises url at rev into dest, which does not exist yet.
type Cloner interface {
	Clone(ctx context.Context, url, rev, dest string) error
}

// GitCloner clones with go-git; no git binary is required.
type GitCloner struct{}

func (GitCloner) Clone(ctx context.Context, url, rev, dest string) error {
	worktree := osfs.New(dest)
	dot, err := worktree.Chroot(git.GitDirName)
	if err != nil {
		return fmt.Errorf("failed to prepare %s: %w", dest, err)
	}
	storage := filesystem.NewStorage(dot, cache.NewObjectLRUDefault())

	logger.Debug("cloning hook repo", logger.String("url", url), logger.String("rev", rev))
	repository, err := git.CloneContext(ctx, storage, worktree, &git.CloneOptions{
		URL:  url,
		Tags: git.AllTags,
	})
	if err != nil {
		return fmt.Errorf("failed to clone %s: %w", url, err)
	}

	hash, err := resolveRefHash(repository, rev)
	if err != nil {
		return err
	}
	wt, err := repository.Worktree()
	if err != nil {
		return err
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: hash, Force: true}); err != nil {
		return fmt.Errorf("failed to checkout %s: %w", rev, err)
	}
	return nil
}

// resolveRefHash turns a tag, branch or commit id into a commit hash,
// peeling annotated tags.
func resolveRefHash(repository *git.Repository, ref string) (plumbing.Hash, error) {
	if hash, err := repository.ResolveRevision(plumbing.Revision(ref)); err == nil {
		return peel(repository, *hash), nil
	}

	candidates := []plumbing.ReferenceName{
		plumbing.NewTagReferenceName(ref),
		plumbing.NewBranchReferenceName(ref),
		plumbing.NewRemoteReferenceName("origin", ref),
		plumbing.ReferenceName(ref),
	}
	for _, candidate := range candidates {
		if reference, err := repository.Reference(candidate, true); err == nil {
			return peel(repository, reference.Hash()), nil
		}
	}

	if len(ref) == 40 && isHex(ref) {
		return plumbing.NewHash(ref), nil
	}
	return plumbing.ZeroHash, fmt.Errorf("rev %s not found", ref)
}

func peel(repository *git.Repository, hash plumbing.Hash) plumbing.Hash {
	if tag, err := repository.TagObject(hash); err == nil {
		if commit, err := tag.Commit(); err == nil {
			return commit.Hash
		}
	}
	return hash
}

func isHex(s string) bool {
	return strings.Trim(strings.ToLower(s), "0123456789abcdef") == ""
}

// removeQuietly deletes a partially written directory.
func removeQuietly(path string) {
	if err := os.RemoveAll(path); err != nil {
		logger.Warn("failed to remove directory", logger.String("path", path), logger.Err(err))
	}
}
