//go:build fts5

package index

// This file is compiled when building with CGO and the fts5 tag. It uses
// the C SQLite driver, whose FTS5 support depends on the build tag being
// present; the runtime availability check guards against its absence.
//
// Build command:
//   CGO_ENABLED=1 go build -tags fts5 ./...

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the database/sql driver to use.
	DriverName = "sqlite3"

	// BuildMode describes the current build configuration.
	BuildMode = "cgo"
)
