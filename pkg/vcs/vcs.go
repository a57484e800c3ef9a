package vcs

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/matzehuels/cratemod/pkg/cache"
	"github.com/matzehuels/cratemod/pkg/errors"
	"github.com/matzehuels/cratemod/pkg/manifest"
)

// Fetcher retrieves Cargo manifests from git repositories. Clones are
// shallow and discarded after the manifest is read; the manifest text
// is cached keyed by repository URL and ref.
//
// Safe for concurrent use.
type Fetcher struct {
	cache cache.Cache
	keyer cache.Keyer
	ttl   time.Duration
}

// NewFetcher creates a Fetcher backed by the given cache.
func NewFetcher(backend cache.Cache, ttl time.Duration) *Fetcher {
	return &Fetcher{
		cache: backend,
		keyer: cache.NewDefaultKeyer(),
		ttl:   ttl,
	}
}

// FetchManifest returns the text of the root Cargo.toml in the
// repository at url, checked out at ref. If refresh is true, the cache
// is bypassed.
func (f *Fetcher) FetchManifest(ctx context.Context, url string, ref manifest.GitRef, refresh bool) (string, error) {
	key := f.keyer.ManifestKey(url, refKey(ref))
	if !refresh {
		if data, ok, _ := f.cache.Get(ctx, key); ok {
			return string(data), nil
		}
	}

	dir, err := os.MkdirTemp("", "cratemod-git-*")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "unable to create temporary clone directory")
	}
	defer os.RemoveAll(dir)

	if err := f.clone(ctx, url, ref, dir); err != nil {
		return "", err
	}

	data, err := os.ReadFile(filepath.Join(dir, "Cargo.toml"))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "could not find `Cargo.toml` in `%s`", url)
	}

	_ = f.cache.Set(ctx, key, data, f.ttl)
	return string(data), nil
}

// FetchCrate fetches and parses the repository's root manifest.
func (f *Fetcher) FetchCrate(ctx context.Context, url string, ref manifest.GitRef, refresh bool) (*manifest.Manifest, error) {
	text, err := f.FetchManifest(ctx, url, ref, refresh)
	if err != nil {
		return nil, err
	}
	return manifest.Parse(text)
}

func (f *Fetcher) clone(ctx context.Context, url string, ref manifest.GitRef, dir string) error {
	opts := &git.CloneOptions{
		URL:          url,
		Depth:        1,
		SingleBranch: true,
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		opts.Auth = &githttp.BasicAuth{Username: "token", Password: token}
	}

	switch ref.Kind {
	case manifest.GitRefBranch:
		opts.ReferenceName = plumbing.NewBranchReferenceName(ref.Value)
	case manifest.GitRefTag:
		opts.ReferenceName = plumbing.NewTagReferenceName(ref.Value)
	case manifest.GitRefRev:
		// Arbitrary revisions cannot be fetched shallowly; clone the full
		// history and check out the hash afterwards.
		opts.Depth = 0
		opts.SingleBranch = false
	}

	repo, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil && opts.Depth > 0 {
		// Not every transport supports shallow fetches; fall back to a
		// full clone before giving up.
		if rmErr := resetDir(dir); rmErr == nil {
			opts.Depth = 0
			repo, err = git.PlainCloneContext(ctx, dir, false, opts)
		}
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeGitFetch, err, "unable to fetch git repository `%s`", url)
	}

	if ref.Kind == manifest.GitRefRev {
		wt, err := repo.Worktree()
		if err != nil {
			return errors.Wrap(errors.ErrCodeGitFetch, err, "unable to open worktree for `%s`", url)
		}
		err = wt.Checkout(&git.CheckoutOptions{Hash: plumbing.NewHash(ref.Value)})
		if err != nil {
			return errors.Wrap(errors.ErrCodeGitFetch, err, "revision `%s` not found in `%s`", ref.Value, url)
		}
	}
	return nil
}

func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// refKey renders a ref as a stable cache key component.
func refKey(ref manifest.GitRef) string {
	switch ref.Kind {
	case manifest.GitRefBranch:
		return "branch=" + ref.Value
	case manifest.GitRefTag:
		return "tag=" + ref.Value
	case manifest.GitRefRev:
		return "rev=" + ref.Value
	}
	return "HEAD"
}
