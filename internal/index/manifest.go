package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/corpuslex/corpuslex/internal/domain"
)

const (
	// ManifestSchemaVersion is the index manifest schema version.
	ManifestSchemaVersion = "1.0.0"

	// ManifestFilename is the index manifest filename.
	ManifestFilename = "index_manifest.json"
)

// Manifest records the provenance and statistics of one index build. It is
// created once per successful build and read-only thereafter. corpus_id and
// index_id are pure functions of their inputs so they can be independently
// recomputed for verification.
type Manifest struct {
	IndexID            string   `json:"index_id"`
	CorpusID           string   `json:"corpus_id"`
	RootRef            string   `json:"root_ref"`
	ResolvedCommit     string   `json:"resolved_commit"`
	CorpusURL          string   `json:"corpus_url"`
	ChunksPath         string   `json:"chunks_path"`
	FTSDBPath          string   `json:"fts_db_path"`
	SchemaVersion      string   `json:"schema_version"`
	IndexSchemaVersion string   `json:"index_schema_version"`
	ChunkCount         int      `json:"chunk_count"`
	FileCount          int      `json:"file_count"`
	RetrievalModes     []string `json:"retrieval_modes"`
	CreatedAt          string   `json:"created_at"`
	ToolVersion        string   `json:"tool_version"`
}

// ComputeCorpusID derives the deterministic corpus identifier:
// {root_ref}__{commit[:12]}.
func ComputeCorpusID(rootRef, resolvedCommit string) string {
	short := resolvedCommit
	if len(short) > 12 {
		short = short[:12]
	}
	return rootRef + "__" + short
}

// ComputeIndexID derives the index identifier from the corpus and its
// creation timestamp: {corpus_id}__{compact_timestamp}. The compact form
// strips separators from the RFC 3339 timestamp, keeping it sortable and
// filesystem-safe.
func ComputeIndexID(corpusID, createdAt string) string {
	compact := strings.NewReplacer("-", "", ":", "", ".", "").Replace(createdAt)
	return corpusID + "__" + compact
}

// Validate checks index manifest field invariants, including that the
// derived identifiers are recomputable from their inputs.
func (m *Manifest) Validate() error {
	if m.RootRef == "" {
		return fmt.Errorf("root_ref must not be empty")
	}
	if err := domain.ValidateCommitSHA(m.ResolvedCommit); err != nil {
		return err
	}
	if m.CorpusID != ComputeCorpusID(m.RootRef, m.ResolvedCommit) {
		return fmt.Errorf("corpus_id %q does not match root_ref and resolved_commit", m.CorpusID)
	}
	if m.CreatedAt == "" {
		return fmt.Errorf("created_at must not be empty")
	}
	if m.IndexID != ComputeIndexID(m.CorpusID, m.CreatedAt) {
		return fmt.Errorf("index_id %q does not match corpus_id and created_at", m.IndexID)
	}
	if m.ChunkCount < 0 {
		return fmt.Errorf("chunk_count must be >= 0, got %d", m.ChunkCount)
	}
	if m.FileCount < 0 {
		return fmt.Errorf("file_count must be >= 0, got %d", m.FileCount)
	}
	return nil
}

// Save writes the manifest to disk atomically.
func (m *Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create index manifest directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write index manifest temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename index manifest: %w", err)
	}
	return nil
}

// LoadManifest reads and re-validates an index manifest from disk.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse index manifest: %w", err)
	}

	if err := manifest.Validate(); err != nil {
		return nil, fmt.Errorf("invalid index manifest at %s: %w", path, err)
	}

	return &manifest, nil
}
