package index

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/corpuslex/corpuslex/internal/domain"
)

// FTSDBFilename is the lexical index database filename.
const FTSDBFilename = "fts.sqlite"

// createChunksTable declares the searchable unit, 1:1 with a chunk.
// Indexed columns participate in tokenization and scoring; UNINDEXED
// columns are stored verbatim so every retrieved row carries full
// provenance without bloating the index.
const createChunksTable = `
CREATE VIRTUAL TABLE chunks_fts USING fts5(
    content,
    file_path,
    symbol_path,
    doc_origin,
    chunk_id UNINDEXED,
    start_line UNINDEXED,
    end_line UNINDEXED,
    root_ref UNINDEXED,
    resolved_commit UNINDEXED,
    language UNINDEXED,
    index_schema_version UNINDEXED
)`

// ftsOperatorPattern matches FTS5 boolean operators for query sanitizing.
var ftsOperatorPattern = regexp.MustCompile(`\b(AND|OR|NOT|NEAR)\b`)

// InsertStats reports the outcome of a chunk insertion batch.
type InsertStats struct {
	Inserted int
	Errors   int
}

// SearchHit is one row returned by Search.
type SearchHit struct {
	ChunkID   string
	FilePath  string
	StartLine int
	EndLine   int
	Content   string
}

// CheckFTS5Available verifies the runtime SQLite build supports FTS5 by
// creating a throwaway virtual table in memory. Absence is an environment
// precondition failure, not a data error.
func CheckFTS5Available() bool {
	db, err := sql.Open(DriverName, ":memory:")
	if err != nil {
		return false
	}
	defer db.Close()

	_, err = db.Exec("CREATE VIRTUAL TABLE fts5_probe USING fts5(content)")
	return err == nil
}

// FTSStore persists chunks into an SQLite FTS5 database. Each store owns
// exactly one database file; concurrent builds must target distinct paths.
type FTSStore struct {
	dbPath string
	logger *slog.Logger
}

// NewFTSStore creates a store backed by the database file at dbPath.
func NewFTSStore(dbPath string, logger *slog.Logger) *FTSStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FTSStore{dbPath: dbPath, logger: logger}
}

// DBPath returns the backing database file path.
func (s *FTSStore) DBPath() string {
	return s.dbPath
}

// Create initializes the database file and the chunks_fts schema.
func (s *FTSStore) Create() error {
	if err := os.MkdirAll(filepath.Dir(s.dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(createChunksTable); err != nil {
		return fmt.Errorf("failed to create chunks_fts table: %w", err)
	}

	s.logger.Info("created FTS5 database", "path", s.dbPath)
	return nil
}

// InsertChunks inserts chunks sorted by (file_path, start_line, end_line,
// chunk_id), independent of arrival order, so identical chunk sets always
// produce byte-equivalent index contents. A failing row is logged and
// counted; the batch continues.
func (s *FTSStore) InsertChunks(chunks []domain.Chunk) (InsertStats, error) {
	sorted := make([]domain.Chunk, len(chunks))
	copy(sorted, chunks)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.StartLine != b.StartLine {
			return a.StartLine < b.StartLine
		}
		if a.EndLine != b.EndLine {
			return a.EndLine < b.EndLine
		}
		return a.ChunkID < b.ChunkID
	})

	db, err := s.open()
	if err != nil {
		return InsertStats{}, err
	}
	defer db.Close()

	stmt, err := db.Prepare(`
		INSERT INTO chunks_fts (
			content, file_path, symbol_path, doc_origin,
			chunk_id, start_line, end_line,
			root_ref, resolved_commit, language, index_schema_version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return InsertStats{}, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	var stats InsertStats
	for _, chunk := range sorted {
		_, err := stmt.Exec(
			chunk.Content,
			chunk.FilePath,
			chunk.SymbolPath,
			string(chunk.DocOrigin),
			chunk.ChunkID,
			chunk.StartLine,
			chunk.EndLine,
			chunk.RootRef,
			chunk.ResolvedCommit,
			chunk.Language,
			chunk.IndexSchemaVersion,
		)
		if err != nil {
			s.logger.Error("failed to insert chunk", "chunk_id", chunk.ChunkID, "error", err)
			stats.Errors++
			continue
		}
		stats.Inserted++
	}

	s.logger.Info("inserted chunks", "inserted", stats.Inserted, "errors", stats.Errors)
	return stats, nil
}

// Search runs a sanitized full-text query and returns hits ordered by bm25
// rank, tie-broken by chunk_id for reproducible result ordering.
func (s *FTSStore) Search(query string, limit int) ([]SearchHit, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT chunk_id, file_path, start_line, end_line, content
		FROM chunks_fts
		WHERE chunks_fts MATCH ?
		ORDER BY bm25(chunks_fts), chunk_id
		LIMIT ?`, sanitizeFTSQuery(query), limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		if err := rows.Scan(&h.ChunkID, &h.FilePath, &h.StartLine, &h.EndLine, &h.Content); err != nil {
			return nil, fmt.Errorf("failed to scan search row: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// Count returns the number of indexed rows.
func (s *FTSStore) Count() (int, error) {
	db, err := s.open()
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT count(*) FROM chunks_fts").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

func (s *FTSStore) open() (*sql.DB, error) {
	db, err := sql.Open(DriverName, s.dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", s.dbPath, err)
	}
	// One writer, sequential batch pipeline
	db.SetMaxOpenConns(1)
	return db, nil
}

// sanitizeFTSQuery quotes each term so user input cannot inject FTS5
// operators or column filters.
func sanitizeFTSQuery(query string) string {
	query = ftsOperatorPattern.ReplaceAllStringFunc(query, strings.ToLower)
	terms := strings.Fields(query)
	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ReplaceAll(term, `"`, `""`)
		quoted = append(quoted, `"`+term+`"`)
	}
	return strings.Join(quoted, " ")
}
