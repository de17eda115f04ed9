// Package testutil provides helpers for tests that need scheme and scan
// fixtures on disk.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteScheme writes the given scheme lines to a file under t.TempDir()
// and returns its path.
func WriteScheme(t *testing.T, lines ...string) string {
	t.Helper()
	return writeLines(t, "scheme.txt", lines)
}

// WriteScans writes one scan ID per line to a file under t.TempDir() and
// returns its path.
func WriteScans(t *testing.T, ids ...string) string {
	t.Helper()
	return writeLines(t, "scans.txt", ids)
}

func writeLines(t *testing.T, name string, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
