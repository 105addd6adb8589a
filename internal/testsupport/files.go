package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"dawpresence/internal/catalog"
)

// WriteCatalog encodes entries as a daws.json file at path.
func WriteCatalog(t testing.TB, path string, entries []catalog.Entry) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		t.Fatalf("encode catalog: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
