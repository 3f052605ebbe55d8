package domain

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// IndexSchemaVersion is the current chunk schema version.
const IndexSchemaVersion = "1.0.0"

// MaxContentLength is the maximum chunk content size in characters.
const MaxContentLength = 1_000_000

// ChunkIDLength is the number of hex digest characters kept for a chunk ID.
const ChunkIDLength = 12

// DocOrigin categorizes the kind of source material a chunk came from.
type DocOrigin string

const (
	OriginSourceHeader DocOrigin = "source_header"
	OriginSourceImpl   DocOrigin = "source_impl"
	OriginDoxygen      DocOrigin = "doxygen_comment"
	OriginReferenceDoc DocOrigin = "reference_doc"
	OriginTutorialDoc  DocOrigin = "tutorial_doc"
)

// Chunk is a contiguous line-range slice of one source file with full
// provenance. It is the unit stored in chunks.jsonl and indexed by FTS5.
//
// Invariants:
//   - line ranges are 1-indexed and inclusive, end >= start
//   - FilePath is repository-relative with forward-slash separators
//   - Content is the exact join of source lines [StartLine, EndLine]
//   - RootRef and ResolvedCommit match the corpus manifest that produced it
//   - ChunkID is a pure function of the provenance tuple
type Chunk struct {
	// ChunkID is the first 12 hex characters of the SHA-256 digest over
	// the provenance tuple (root_ref, resolved_commit, file_path,
	// start_line, end_line).
	ChunkID string `json:"chunk_id"`

	// RootRef is the user-requested reference (branch, tag, or commit).
	RootRef string `json:"root_ref"`

	// ResolvedCommit is the immutable commit SHA the ref resolved to.
	ResolvedCommit string `json:"resolved_commit"`

	// FilePath is relative to the repository root, forward slashes only.
	// Example: "tree/tree/inc/TTree.h"
	FilePath string `json:"file_path"`

	// Language is a lowercase identifier derived from the file extension.
	// Example: "cpp", "c", "text"
	Language string `json:"language"`

	// StartLine and EndLine are 1-indexed and inclusive.
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`

	// Content is the exact text of lines [StartLine, EndLine] joined by
	// newlines, trailing line terminators stripped.
	Content string `json:"content"`

	// DocOrigin tags what kind of material the chunk came from.
	DocOrigin DocOrigin `json:"doc_origin"`

	// IndexSchemaVersion is the chunk schema version.
	IndexSchemaVersion string `json:"index_schema_version"`

	// SymbolPath is a best-effort symbol name for the window, if one was
	// detected. Example: "TTree::Draw"
	SymbolPath string `json:"symbol_path,omitempty"`

	// HasDoxygen reports whether the window contains doxygen markers.
	HasDoxygen bool `json:"has_doxygen"`
}

// FTS5 column name constants for consistent references in schema and queries.
const (
	ChunkFieldContent            = "content"
	ChunkFieldFilePath           = "file_path"
	ChunkFieldSymbolPath         = "symbol_path"
	ChunkFieldDocOrigin          = "doc_origin"
	ChunkFieldChunkID            = "chunk_id"
	ChunkFieldStartLine          = "start_line"
	ChunkFieldEndLine            = "end_line"
	ChunkFieldRootRef            = "root_ref"
	ChunkFieldResolvedCommit     = "resolved_commit"
	ChunkFieldLanguage           = "language"
	ChunkFieldIndexSchemaVersion = "index_schema_version"
)

// ComputeChunkID returns the deterministic chunk identifier for a
// provenance tuple: the first 12 hex characters of the SHA-256 digest of
// "root_ref:resolved_commit:file_path:start_line:end_line".
func ComputeChunkID(rootRef, resolvedCommit, filePath string, startLine, endLine int) string {
	provenance := fmt.Sprintf("%s:%s:%s:%d:%d", rootRef, resolvedCommit, filePath, startLine, endLine)
	digest := sha256.Sum256([]byte(provenance))
	return fmt.Sprintf("%x", digest)[:ChunkIDLength]
}

// NewChunk constructs a validated chunk from a file slice, computing its ID.
func NewChunk(rootRef, resolvedCommit, filePath, language string, startLine, endLine int, content string, origin DocOrigin, symbolPath string, hasDoxygen bool) (Chunk, error) {
	c := Chunk{
		ChunkID:            ComputeChunkID(rootRef, resolvedCommit, filePath, startLine, endLine),
		RootRef:            rootRef,
		ResolvedCommit:     resolvedCommit,
		FilePath:           filePath,
		Language:           language,
		StartLine:          startLine,
		EndLine:            endLine,
		Content:            content,
		DocOrigin:          origin,
		IndexSchemaVersion: IndexSchemaVersion,
		SymbolPath:         symbolPath,
		HasDoxygen:         hasDoxygen,
	}
	if err := c.Validate(); err != nil {
		return Chunk{}, err
	}
	return c, nil
}

// Validate checks all chunk field invariants. Violations reject the chunk;
// fields are never silently coerced.
func (c *Chunk) Validate() error {
	if c.ChunkID == "" {
		return errors.New("chunk_id must not be empty")
	}
	if c.RootRef == "" {
		return errors.New("root_ref must not be empty")
	}
	if err := ValidateCommitSHA(c.ResolvedCommit); err != nil {
		return err
	}
	if err := validateFilePath(c.FilePath); err != nil {
		return err
	}
	if err := validateLanguage(c.Language); err != nil {
		return err
	}
	if c.StartLine < 1 {
		return fmt.Errorf("start_line must be >= 1, got %d", c.StartLine)
	}
	if c.EndLine < c.StartLine {
		return fmt.Errorf("end_line (%d) must be >= start_line (%d)", c.EndLine, c.StartLine)
	}
	if strings.TrimSpace(c.Content) == "" {
		return errors.New("content must not be empty or whitespace-only")
	}
	if len(c.Content) > MaxContentLength {
		return fmt.Errorf("content exceeds maximum length of %d characters", MaxContentLength)
	}
	if err := validateDocOrigin(c.DocOrigin); err != nil {
		return err
	}
	return nil
}

// JSONLLine serializes the chunk as a single JSON object plus newline.
func (c *Chunk) JSONLLine() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chunk %s: %w", c.ChunkID, err)
	}
	return string(data) + "\n", nil
}

// ValidateCommitSHA checks that a commit looks like a git SHA:
// 7 to 40 lowercase hex characters.
func ValidateCommitSHA(commit string) error {
	if len(commit) < 7 || len(commit) > 40 {
		return fmt.Errorf("resolved_commit must be 7-40 hex characters, got %q (len=%d)", commit, len(commit))
	}
	for _, r := range commit {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return fmt.Errorf("resolved_commit must be lowercase hexadecimal, got %q", commit)
		}
	}
	return nil
}

func validateFilePath(path string) error {
	if path == "" {
		return errors.New("file_path must not be empty")
	}
	if strings.HasPrefix(path, "/") || strings.HasPrefix(path, "\\") {
		return fmt.Errorf("file_path must be relative, got %q", path)
	}
	if strings.Contains(path, "\\") {
		return fmt.Errorf("file_path must use forward-slash separators, got %q", path)
	}
	if path == "." || path == ".." || strings.HasPrefix(path, "../") {
		return fmt.Errorf("file_path must not escape the repository root, got %q", path)
	}
	return nil
}

func validateLanguage(lang string) error {
	if lang == "" {
		return errors.New("language must not be empty")
	}
	if strings.ToLower(lang) != lang {
		return fmt.Errorf("language must be a lowercase identifier, got %q", lang)
	}
	return nil
}

func validateDocOrigin(origin DocOrigin) error {
	switch origin {
	case OriginSourceHeader, OriginSourceImpl, OriginDoxygen, OriginReferenceDoc, OriginTutorialDoc:
		return nil
	default:
		return fmt.Errorf("doc_origin must be a known category, got %q", origin)
	}
}
