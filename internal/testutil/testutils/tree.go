package helpers

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// FixedTime is a sub-second timestamp used for fixture files so that mtime
// comparisons exercise nanosecond precision.
var FixedTime = time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC)

// WriteTree creates files below root from a map of slash paths to contents and
// stamps each with FixedTime.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			t.Fatalf("mkdir %s: %v", filepath.Dir(p), err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
		Touch(t, p, FixedTime)
	}
}

// Touch sets both access and modification time of path.
func Touch(t *testing.T, path string, at time.Time) {
	t.Helper()
	if err := os.Chtimes(path, at, at); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}
