//go:build !fts5

package index

// This file is compiled by default (CGO-free builds). It uses the pure Go
// SQLite implementation, which ships with FTS5 compiled in.
//
// Build command:
//   CGO_ENABLED=0 go build ./...

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the database/sql driver to use.
	DriverName = "sqlite"

	// BuildMode describes the current build configuration.
	BuildMode = "purego"
)
