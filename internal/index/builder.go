package index

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/corpuslex/corpuslex/internal/chunker"
	"github.com/corpuslex/corpuslex/internal/corpus"
	"github.com/corpuslex/corpuslex/internal/domain"
)

// Build status values.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// Machine-readable failure reasons, stable for automated callers.
const (
	ReasonNoChunks          = "no_chunks"
	ReasonChunksWriteFailed = "chunks_write_failed"
	ReasonFTS5Unavailable   = "fts5_unavailable"
	ReasonFTSBuildFailed    = "fts_build_failed"
	ReasonManifestWrite     = "manifest_write_failed"
)

var (
	// ErrFTS5Unavailable indicates the runtime SQLite build lacks FTS5.
	// This is a deployment precondition, surfaced with its own exit code.
	ErrFTS5Unavailable = errors.New("fts5 is not available in this environment")

	// ErrNoChunks indicates the corpus produced nothing to index.
	ErrNoChunks = errors.New("no chunks produced from corpus")
)

// ChunksFilename is the JSONL chunk artifact filename.
const ChunksFilename = "chunks.jsonl"

// Result reports the outcome of one index build.
type Result struct {
	Status       string
	Reason       string
	IndexID      string
	CorpusID     string
	ChunkCount   int
	FileCount    int
	InsertErrors int
	ChunksPath   string
	FTSDBPath    string
	ManifestPath string
	CreatedAt    string
}

// Builder runs the full indexing pipeline for one corpus snapshot:
// chunk -> chunks.jsonl -> fts.sqlite -> index_manifest.json.
//
// There is no retry loop; every failure exit is terminal and the caller
// may re-invoke the whole pipeline.
type Builder struct {
	outputDir   string
	toolVersion string
	logger      *slog.Logger
	now         func() time.Time
}

// NewBuilder creates a Builder writing artifacts under outputDir.
func NewBuilder(outputDir, toolVersion string, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		outputDir:   outputDir,
		toolVersion: toolVersion,
		logger:      logger,
		now:         time.Now,
	}
}

// Build chunks the corpus described by manifest and persists the chunk set
// into a fresh, uniquely-named lexical index. The returned Result always
// carries the status and a machine-readable reason on failure; the error
// wraps a sentinel where one exists so callers can branch on cause.
func (b *Builder) Build(manifest *corpus.Manifest, c *chunker.Chunker) (*Result, error) {
	corpusID := ComputeCorpusID(manifest.RootRef, manifest.ResolvedCommit)
	result := &Result{Status: StatusFailed, CorpusID: corpusID}

	if !CheckFTS5Available() {
		result.Reason = ReasonFTS5Unavailable
		return result, fmt.Errorf("cannot build index (driver %s, %s build): %w", DriverName, BuildMode, ErrFTS5Unavailable)
	}

	b.logger.Info("building index", "corpus_id", corpusID, "path", manifest.LocalPath)
	chunks, err := c.ChunkCorpus(manifest)
	if err != nil {
		result.Reason = ReasonNoChunks
		return result, err
	}
	if len(chunks) == 0 {
		result.Reason = ReasonNoChunks
		return result, ErrNoChunks
	}

	result.ChunkCount = len(chunks)
	result.FileCount = countFiles(chunks)

	chunksPath := filepath.Join(b.outputDir, "chunks", corpusID, ChunksFilename)
	if err := writeChunksJSONL(chunksPath, chunks); err != nil {
		result.Reason = ReasonChunksWriteFailed
		return result, err
	}
	result.ChunksPath = chunksPath
	b.logger.Info("wrote chunks", "path", chunksPath, "count", len(chunks))

	createdAt := b.now().UTC().Format(time.RFC3339)
	indexID := ComputeIndexID(corpusID, createdAt)
	indexDir := filepath.Join(b.outputDir, "indexes", indexID)

	result.IndexID = indexID
	result.CreatedAt = createdAt

	store := NewFTSStore(filepath.Join(indexDir, FTSDBFilename), b.logger)
	if err := store.Create(); err != nil {
		result.Reason = ReasonFTSBuildFailed
		return result, err
	}
	result.FTSDBPath = store.DBPath()

	stats, err := store.InsertChunks(chunks)
	if err != nil {
		result.Reason = ReasonFTSBuildFailed
		return result, err
	}
	result.InsertErrors = stats.Errors

	indexManifest := &Manifest{
		IndexID:            indexID,
		CorpusID:           corpusID,
		RootRef:            manifest.RootRef,
		ResolvedCommit:     manifest.ResolvedCommit,
		CorpusURL:          manifest.RepoURL,
		ChunksPath:         chunksPath,
		FTSDBPath:          store.DBPath(),
		SchemaVersion:      ManifestSchemaVersion,
		IndexSchemaVersion: domain.IndexSchemaVersion,
		ChunkCount:         len(chunks),
		FileCount:          result.FileCount,
		RetrievalModes:     []string{"lexical"},
		CreatedAt:          createdAt,
		ToolVersion:        b.toolVersion,
	}

	manifestPath := filepath.Join(indexDir, ManifestFilename)
	if err := indexManifest.Save(manifestPath); err != nil {
		result.Reason = ReasonManifestWrite
		return result, err
	}
	result.ManifestPath = manifestPath

	if stats.Errors > 0 {
		result.Status = StatusPartial
	} else {
		result.Status = StatusSuccess
	}
	b.logger.Info("index ready",
		"index_id", indexID,
		"status", result.Status,
		"chunks", stats.Inserted,
		"files", result.FileCount,
		"insert_errors", stats.Errors)

	return result, nil
}

// writeChunksJSONL overwrites path with one JSON object per chunk per line.
func writeChunksJSONL(path string, chunks []domain.Chunk) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create chunks directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chunks file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close chunks file: %w", cerr)
		}
	}()

	for i := range chunks {
		line, err := chunks[i].JSONLLine()
		if err != nil {
			return err
		}
		if _, err := f.WriteString(line); err != nil {
			return fmt.Errorf("failed to write chunks file: %w", err)
		}
	}

	return nil
}

// countFiles returns the number of distinct file paths in the chunk set.
func countFiles(chunks []domain.Chunk) int {
	seen := make(map[string]struct{}, len(chunks))
	for i := range chunks {
		seen[chunks[i].FilePath] = struct{}{}
	}
	return len(seen)
}
