package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// CreateTempDir creates a temporary directory removed when the test ends
func CreateTempDir(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

// JSONMarshal marshals a value to JSON for testing
func JSONMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal JSON: %v", err)
	}
	return data
}

// WriteFile writes data to path, creating parent directories
func WriteFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// WriteJSONFile marshals v and writes it to path
func WriteJSONFile(t *testing.T, path string, v interface{}) {
	t.Helper()
	WriteFile(t, path, JSONMarshal(t, v))
}

// WriteLines writes newline-terminated lines to path
func WriteLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	WriteFile(t, path, []byte(strings.Join(lines, "\n")+"\n"))
}
