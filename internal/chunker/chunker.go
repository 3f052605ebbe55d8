package chunker

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/corpuslex/corpuslex/internal/corpus"
	"github.com/corpuslex/corpuslex/internal/domain"
)

const (
	// DefaultWindowLines is the default chunk window size in lines.
	DefaultWindowLines = 80

	// DefaultOverlapLines is the default overlap between adjacent windows.
	DefaultOverlapLines = 10
)

// doxygenPattern detects embedded documentation markers: block doc-comment
// openers and line doc-comment markers.
var doxygenPattern = regexp.MustCompile(`/\*\*|//!|///<`)

// languageByExt maps file extensions to language identifiers. Unknown
// extensions map to "text".
var languageByExt = map[string]string{
	".h":   "cpp",
	".hpp": "cpp",
	".hh":  "cpp",
	".c":   "c",
	".cc":  "cpp",
	".cpp": "cpp",
	".cxx": "cpp",
}

// headerExts are extensions classified as source_header; other included
// extensions default to source_impl.
var headerExts = map[string]bool{
	".h":   true,
	".hpp": true,
	".hh":  true,
}

// Chunker turns source files into overlapping line-windowed chunks with
// deterministic identifiers.
type Chunker struct {
	windowLines  int
	overlapLines int
	logger       *slog.Logger
}

// New creates a Chunker. Non-positive windowLines falls back to the default.
func New(windowLines, overlapLines int, logger *slog.Logger) *Chunker {
	if windowLines <= 0 {
		windowLines = DefaultWindowLines
	}
	if overlapLines < 0 {
		overlapLines = DefaultOverlapLines
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Chunker{
		windowLines:  windowLines,
		overlapLines: overlapLines,
		logger:       logger,
	}
}

// ChunkFile chunks one file into fixed-size sliding windows. An empty file
// yields zero chunks and no error. Chunks never span into another file.
func (c *Chunker) ChunkFile(filePath, repoRoot, rootRef, resolvedCommit string) ([]domain.Chunk, error) {
	lines, err := readFileLines(filePath)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, nil
	}

	relPath := relativePosixPath(filePath, repoRoot)
	ext := strings.ToLower(filepath.Ext(filePath))
	language := languageForExt(ext)
	origin := docOriginForExt(ext)

	stride := c.windowLines - c.overlapLines
	if stride <= 0 {
		stride = 1 // Guarantee forward progress
	}

	total := len(lines)
	var chunks []domain.Chunk

	for start := 0; start < total; start += stride {
		end := min(start+c.windowLines-1, total-1)
		atEOF := end == total-1
		windowLines := lines[start : end+1]
		content := strings.Join(windowLines, "\n")

		chunk, err := domain.NewChunk(
			rootRef,
			resolvedCommit,
			relPath,
			language,
			start+1, // 1-indexed inclusive
			end+1,
			content,
			origin,
			ExtractSymbolPath(language, windowLines),
			doxygenPattern.MatchString(content),
		)
		if err != nil {
			return nil, fmt.Errorf("invalid chunk at %s:%d: %w", relPath, start+1, err)
		}
		chunks = append(chunks, chunk)

		// The window that reaches the last line is the final one; a
		// further stride would only re-emit a tail subset.
		if atEOF {
			break
		}
	}

	c.logger.Debug("chunked file", "path", relPath, "chunks", len(chunks))
	return chunks, nil
}

// ChunkCorpus applies the chunker to every discovered file under the
// manifest's working copy, in discovery order. Per-file failures are logged
// and skipped; an empty result is a valid, non-error outcome.
func (c *Chunker) ChunkCorpus(manifest *corpus.Manifest) ([]domain.Chunk, error) {
	files, err := DiscoverSourceFiles(manifest.LocalPath)
	if err != nil {
		return nil, err
	}

	var all []domain.Chunk
	skipped := 0
	for _, file := range files {
		chunks, err := c.ChunkFile(file, manifest.LocalPath, manifest.RootRef, manifest.ResolvedCommit)
		if err != nil {
			c.logger.Warn("skipping file", "path", file, "error", err)
			skipped++
			continue
		}
		all = append(all, chunks...)
	}

	c.logger.Info("corpus chunked",
		"files", len(files), "skipped", skipped, "chunks", len(all))
	return all, nil
}

// readFileLines reads a file as text and splits it into lines with
// terminators removed. Invalid UTF-8 bytes are substituted rather than
// aborting the read.
func readFileLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, string(utf8.RuneError))
	}
	return splitLines(text), nil
}

// splitLines splits text on \n, \r\n, and \r terminators, dropping the
// terminators. An empty string yields no lines; a trailing terminator does
// not produce a final empty line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

// relativePosixPath computes the repository-relative path with forward
// slashes. A file outside repoRoot falls back to the path as given.
func relativePosixPath(filePath, repoRoot string) string {
	rel, err := filepath.Rel(repoRoot, filePath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(filePath)
	}
	return filepath.ToSlash(rel)
}

func languageForExt(ext string) string {
	if lang, ok := languageByExt[ext]; ok {
		return lang
	}
	return "text"
}

func docOriginForExt(ext string) domain.DocOrigin {
	if headerExts[ext] {
		return domain.OriginSourceHeader
	}
	return domain.OriginSourceImpl
}
