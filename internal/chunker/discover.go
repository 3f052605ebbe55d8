package chunker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// IncludedExtensions are the source file extensions eligible for chunking.
var IncludedExtensions = map[string]bool{
	".h":   true,
	".hpp": true,
	".hh":  true,
	".c":   true,
	".cc":  true,
	".cpp": true,
	".cxx": true,
}

// ExcludedDirs are directory names whose entire subtree is skipped:
// build outputs, version-control metadata, vendored dependencies, caches.
var ExcludedDirs = map[string]bool{
	"build":         true,
	".git":          true,
	".github":       true,
	"external":      true,
	"qa":            true,
	".pytest_cache": true,
	"__pycache__":   true,
	".venv":         true,
	"venv":          true,
	"node_modules":  true,
	"vendor":        true,
}

// DiscoverSourceFiles enumerates regular files under root with an included
// extension, skipping excluded directories. The result is sorted
// lexicographically by full path; sortedness is load-bearing for
// deterministic downstream chunk ordering.
func DiscoverSourceFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("cannot stat root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root must be a directory: %s", root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}

		if d.IsDir() {
			if path != root && ExcludedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		if IncludedExtensions[filepath.Ext(path)] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}
