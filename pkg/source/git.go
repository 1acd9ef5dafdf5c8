package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/docker/agent-skills/internal/diskcache"
	"github.com/docker/agent-skills/pkg/errs"
	"github.com/docker/agent-skills/pkg/skill"
)

// defaultCacheTTL bounds how long a materialized git tree is trusted before
// Materialize re-clones it, independent of the periodic-refresh poll that
// HasAdvanced drives.
const defaultCacheTTL = time.Hour

// GitAdapter fetches a directory (optionally a subdirectory) out of a git
// repository at a given ref, through a content-addressed cache keyed by
// (url, ref).
type GitAdapter struct {
	url      string
	ref      string
	subdir   string
	scope    skill.Scope
	tenantID string
	cache    *diskcache.Cache
}

func newGitAdapter(cfg Config, scope skill.Scope, opts Options) (*GitAdapter, error) {
	cache, err := diskcache.New(opts.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrSourceUnavailable, err)
	}
	return &GitAdapter{
		url:      cfg.URL,
		ref:      cfg.Ref,
		subdir:   cfg.Path,
		scope:    scope,
		tenantID: cfg.TenantID,
		cache:    cache,
	}, nil
}

func (a *GitAdapter) cacheKey() string {
	return fmt.Sprintf("%s@%s", a.url, a.ref)
}

func (a *GitAdapter) Identifier() string {
	if a.subdir != "" {
		return fmt.Sprintf("%s@%s:%s", a.url, a.ref, a.subdir)
	}
	return fmt.Sprintf("%s@%s", a.url, a.ref)
}

func (a *GitAdapter) Scope() skill.Scope { return a.scope }
func (a *GitAdapter) TenantID() string   { return a.tenantID }

// Materialize clones (or reuses a cached clone of) the repository at ref and
// returns the directory candidate skill roots should be read from.
func (a *GitAdapter) Materialize(ctx context.Context) (string, error) {
	key := a.cacheKey()

	if dir, _, ok := a.cache.Lookup(key); ok {
		return a.resolveSubdir(filepath.Join(dir, "tree"))
	}

	dir := a.cache.Dir(key)
	treeDir := filepath.Join(dir, "tree")
	_ = os.RemoveAll(treeDir)

	commit, err := cloneAt(ctx, a.url, a.ref, treeDir)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", errs.ErrSourceUnavailable, a.Identifier(), err)
	}

	if err := a.cache.Store(key, commit, defaultCacheTTL); err != nil {
		return "", fmt.Errorf("%w: caching %s: %w", errs.ErrSourceUnavailable, a.Identifier(), err)
	}

	return a.resolveSubdir(treeDir)
}

func (a *GitAdapter) resolveSubdir(treeDir string) (string, error) {
	if a.subdir == "" {
		return treeDir, nil
	}
	full := filepath.Join(treeDir, a.subdir)
	if _, err := os.Stat(full); err != nil {
		return "", fmt.Errorf("%w: subdirectory %q not found in %s", errs.ErrSourceUnavailable, a.subdir, a.url)
	}
	return full, nil
}

// HasAdvanced checks the remote's current ref against the commit recorded
// the last time this source was materialized, without fetching the tree.
func (a *GitAdapter) HasAdvanced(ctx context.Context) (bool, error) {
	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URLs: []string{a.url},
	})

	refs, err := remote.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		return false, fmt.Errorf("%w: listing refs for %s: %w", errs.ErrSourceUnavailable, a.url, err)
	}

	target := a.ref
	if target == "" {
		target = "HEAD"
	}

	for _, ref := range refs {
		if matchesRef(ref.Name(), target) {
			current := ref.Hash().String()
			last, ok := a.cache.LastCommit(a.cacheKey())
			if !ok {
				return true, nil
			}
			return current != last, nil
		}
	}

	return false, fmt.Errorf("%w: ref %q not found on %s", errs.ErrSourceUnavailable, target, a.url)
}

func matchesRef(name plumbing.ReferenceName, target string) bool {
	if name.Short() == target {
		return true
	}
	return name == plumbing.ReferenceName(target)
}

func cloneAt(ctx context.Context, url, ref, dest string) (string, error) {
	repo, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL: url,
	})
	if err != nil {
		return "", err
	}

	if ref == "" {
		head, err := repo.Head()
		if err != nil {
			return "", err
		}
		return head.Hash().String(), nil
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return "", fmt.Errorf("resolving ref %q: %w", ref, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", err
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: *hash}); err != nil {
		return "", fmt.Errorf("checking out %q: %w", ref, err)
	}

	return hash.String(), nil
}
