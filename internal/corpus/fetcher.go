package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	// RepoDirname is the working-copy directory inside a cache entry.
	RepoDirname = "repo"

	// LockFilename is the install lock file inside a cache entry.
	LockFilename = "install.lock"

	// InstallLockTimeout bounds how long a fetch waits for a concurrent
	// install of the same cache entry.
	InstallLockTimeout = 5 * time.Minute
)

// Fetcher resolves refs and manages the on-disk corpus cache.
//
// Cache entries are keyed by {repo_slug}__{commit[:12]}. A fetch clones
// into a private temporary directory and renames it into place only after
// success, so readers never observe a partially-populated corpus.
type Fetcher struct {
	git         *GitClient
	cacheDir    string
	toolVersion string
	logger      *slog.Logger
}

// NewFetcher creates a Fetcher writing into cacheDir.
func NewFetcher(git *GitClient, cacheDir, toolVersion string, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		git:         git,
		cacheDir:    cacheDir,
		toolVersion: toolVersion,
		logger:      logger,
	}
}

// CacheKey returns the cache directory name for a repo URL and commit:
// {repo_slug}__{commit[:12]}.
func CacheKey(repoURL, resolvedCommit string) string {
	return RepoSlug(repoURL) + "__" + shortCommit(resolvedCommit)
}

// Fetch resolves rootRef, ensures the corpus is present in the cache, and
// returns its manifest.
//
// When the cache already holds this (repo, commit) and forceRefresh is
// false, the persisted manifest is returned verbatim: same resolved_commit,
// same fetched_at. A cached manifest whose commit disagrees with the fresh
// resolution is treated as stale and refreshed.
func (f *Fetcher) Fetch(ctx context.Context, repoURL, rootRef string, forceRefresh bool) (*Manifest, error) {
	resolvedCommit, err := f.git.ResolveRef(ctx, repoURL, rootRef)
	if err != nil {
		return nil, err
	}
	f.logger.Info("resolved ref", "root_ref", rootRef, "commit", shortCommit(resolvedCommit))

	entryDir := filepath.Join(f.cacheDir, CacheKey(repoURL, resolvedCommit))
	repoPath := filepath.Join(entryDir, RepoDirname)
	manifestPath := filepath.Join(entryDir, ManifestFilename)

	if !forceRefresh {
		if manifest, ok := f.loadCached(repoPath, manifestPath, resolvedCommit); ok {
			f.logger.Info("using cached corpus", "path", repoPath)
			return manifest, nil
		}
	}

	lock := NewFileLock(filepath.Join(entryDir, LockFilename))
	if err := lock.Lock(InstallLockTimeout); err != nil {
		return nil, fmt.Errorf("failed to lock cache entry %s: %w", entryDir, err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			f.logger.Warn("failed to release install lock", "error", err)
		}
	}()

	// Another process may have installed the corpus while we waited.
	if !forceRefresh {
		if manifest, ok := f.loadCached(repoPath, manifestPath, resolvedCommit); ok {
			f.logger.Info("using cached corpus", "path", repoPath)
			return manifest, nil
		}
	}

	actualCommit, err := f.install(ctx, repoURL, rootRef, repoPath)
	if err != nil {
		return nil, err
	}
	if actualCommit != resolvedCommit {
		f.logger.Warn("resolved commit mismatch after checkout",
			"resolved", resolvedCommit, "actual", actualCommit)
	}

	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		absPath = repoPath
	}

	manifest, err := NewManifest(
		repoURL,
		rootRef,
		resolvedCommit,
		absPath,
		time.Now().UTC().Format(time.RFC3339),
		f.toolVersion,
	)
	if err != nil {
		return nil, err
	}

	if err := manifest.Save(manifestPath); err != nil {
		return nil, err
	}
	f.logger.Info("manifest saved", "path", manifestPath)

	return manifest, nil
}

// loadCached returns the persisted manifest when the cache entry is
// complete and its commit matches the fresh resolution.
func (f *Fetcher) loadCached(repoPath, manifestPath, resolvedCommit string) (*Manifest, bool) {
	if _, err := os.Stat(repoPath); err != nil {
		return nil, false
	}
	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		f.logger.Warn("ignoring unreadable cached manifest", "path", manifestPath, "error", err)
		return nil, false
	}
	if manifest.ResolvedCommit != resolvedCommit {
		f.logger.Warn("cached manifest is stale, refreshing",
			"cached", shortCommit(manifest.ResolvedCommit), "resolved", shortCommit(resolvedCommit))
		return nil, false
	}
	return manifest, true
}

// install clones into a temporary directory and atomically moves the
// working copy into repoPath. Returns the checked-out commit SHA.
func (f *Fetcher) install(ctx context.Context, repoURL, rootRef, repoPath string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(repoPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create cache entry: %w", err)
	}

	tmpDir, err := os.MkdirTemp(filepath.Dir(repoPath), "fetch-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary clone directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	tmpRepo := filepath.Join(tmpDir, RepoDirname)
	f.logger.Info("cloning", "url", repoURL, "ref", rootRef)
	commit, err := f.git.CloneAndCheckout(ctx, repoURL, rootRef, tmpRepo)
	if err != nil {
		return "", err
	}

	// Drop any partial or stale working copy before the rename.
	if err := os.RemoveAll(repoPath); err != nil {
		return "", fmt.Errorf("failed to remove stale corpus: %w", err)
	}
	if err := os.Rename(tmpRepo, repoPath); err != nil {
		return "", fmt.Errorf("failed to install corpus: %w", err)
	}
	f.logger.Info("corpus installed", "path", repoPath)

	return commit, nil
}

func shortCommit(commit string) string {
	if len(commit) > 12 {
		return commit[:12]
	}
	return commit
}
