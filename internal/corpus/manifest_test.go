package corpus

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const testCommit = "0123456789abcdef0123456789abcdef01234567"

func TestNewManifest(t *testing.T) {
	m, err := NewManifest("https://github.com/example/project.git", "v1.0",
		testCommit, "/cache/example__project__0123456789ab/repo",
		"2026-01-15T10:30:00Z", "0.1.0")
	if err != nil {
		t.Fatalf("NewManifest failed: %v", err)
	}

	if m.SchemaVersion != ManifestSchemaVersion {
		t.Errorf("SchemaVersion = %q, want %q", m.SchemaVersion, ManifestSchemaVersion)
	}
	if m.Dirty {
		t.Error("a fresh manifest must not be dirty")
	}
}

func TestNewManifest_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		repoURL string
		rootRef string
		commit  string
		local   string
		fetched string
	}{
		{"empty repo url", "", "v1.0", testCommit, "/p", "2026-01-15T10:30:00Z"},
		{"empty root ref", "url", "", testCommit, "/p", "2026-01-15T10:30:00Z"},
		{"short commit", "url", "v1.0", "abc", "/p", "2026-01-15T10:30:00Z"},
		{"uppercase commit", "url", "v1.0", "ABCDEF0123456", "/p", "2026-01-15T10:30:00Z"},
		{"empty local path", "url", "v1.0", testCommit, "", "2026-01-15T10:30:00Z"},
		{"empty fetched at", "url", "v1.0", testCommit, "/p", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewManifest(tt.repoURL, tt.rootRef, tt.commit, tt.local, tt.fetched, "0.1.0"); err == nil {
				t.Error("NewManifest() = nil error, want error")
			}
		})
	}
}

func TestManifest_SaveLoad(t *testing.T) {
	m, err := NewManifest("https://github.com/example/project.git", "v1.0",
		testCommit, "/cache/entry/repo", "2026-01-15T10:30:00Z", "0.1.0")
	if err != nil {
		t.Fatalf("NewManifest failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "nested", "dir", ManifestFilename)
	if err := m.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if !reflect.DeepEqual(m, loaded) {
		t.Errorf("round-trip mismatch: got %+v, want %+v", loaded, m)
	}

	// The temp file from the atomic write must be gone.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary manifest file was left behind")
	}
}

func TestLoadManifest_Missing(t *testing.T) {
	if _, err := LoadManifest(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing manifest")
	}
}

func TestLoadManifest_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), ManifestFilename)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("failed to write corrupt manifest: %v", err)
	}
	if _, err := LoadManifest(path); err == nil {
		t.Error("expected error for corrupt manifest")
	}
}

func TestLoadManifest_InvalidFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), ManifestFilename)
	if err := os.WriteFile(path, []byte(`{"schema_version":"corpus_manifest_v1","repo_url":"u","root_ref":"r","resolved_commit":"ZZZ","local_path":"/p","fetched_at":"2026-01-15T10:30:00Z"}`), 0o644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	if _, err := LoadManifest(path); err == nil {
		t.Error("expected validation error for invalid commit")
	}
}
