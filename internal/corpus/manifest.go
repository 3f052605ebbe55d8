package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/corpuslex/corpuslex/internal/domain"
)

const (
	// ManifestSchemaVersion is the current corpus manifest schema version.
	ManifestSchemaVersion = "corpus_manifest_v1"

	// ManifestFilename is the manifest filename inside a cache entry.
	ManifestFilename = "manifest.json"
)

// Manifest is the provenance record of one fetched corpus. It is created
// once per successful fetch and never mutated; a re-fetch produces a new
// manifest (with identical content on a cache hit).
type Manifest struct {
	SchemaVersion  string `json:"schema_version"`
	RepoURL        string `json:"repo_url"`
	RootRef        string `json:"root_ref"`
	ResolvedCommit string `json:"resolved_commit"`
	LocalPath      string `json:"local_path"`
	FetchedAt      string `json:"fetched_at"`
	Dirty          bool   `json:"dirty"`
	ToolVersion    string `json:"tool_version"`
}

// NewManifest constructs a validated manifest. An invalid resolved commit
// rejects construction.
func NewManifest(repoURL, rootRef, resolvedCommit, localPath, fetchedAt, toolVersion string) (*Manifest, error) {
	m := &Manifest{
		SchemaVersion:  ManifestSchemaVersion,
		RepoURL:        repoURL,
		RootRef:        rootRef,
		ResolvedCommit: resolvedCommit,
		LocalPath:      localPath,
		FetchedAt:      fetchedAt,
		Dirty:          false,
		ToolVersion:    toolVersion,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks manifest field invariants.
func (m *Manifest) Validate() error {
	if m.RepoURL == "" {
		return fmt.Errorf("repo_url must not be empty")
	}
	if m.RootRef == "" {
		return fmt.Errorf("root_ref must not be empty")
	}
	if err := domain.ValidateCommitSHA(m.ResolvedCommit); err != nil {
		return err
	}
	if m.LocalPath == "" {
		return fmt.Errorf("local_path must not be empty")
	}
	if m.FetchedAt == "" {
		return fmt.Errorf("fetched_at must not be empty")
	}
	return nil
}

// Save writes the manifest to disk atomically using write-to-temp + rename.
func (m *Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename manifest file: %w", err)
	}

	return nil
}

// LoadManifest reads and re-validates a manifest from disk.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if err := manifest.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest at %s: %w", path, err)
	}

	return &manifest, nil
}
