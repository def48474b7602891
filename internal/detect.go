package internal

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// SourcePaths holds the resolved history directories of each tool
type SourcePaths struct {
	ClaudeDir   string // Claude Code projects directory
	OpenCodeDir string // opencode data directory
}

// DetectSourcePaths resolves the configured directories, falling back to the
// default locations when a directory is not configured
func DetectSourcePaths(cfg *Config) SourcePaths {
	paths := SourcePaths{
		ClaudeDir:   ExpandHome(DefaultClaudeDir),
		OpenCodeDir: ExpandHome(DefaultOpenCodeDir),
	}
	if cfg == nil {
		return paths
	}
	if cfg.ClaudeDir != "" {
		paths.ClaudeDir = ExpandHome(cfg.ClaudeDir)
	}
	if cfg.OpenCodeDir != "" {
		paths.OpenCodeDir = ExpandHome(cfg.OpenCodeDir)
	}
	return paths
}

// HasClaude checks if the Claude directory exists
func (sp SourcePaths) HasClaude() bool {
	return sp.ClaudeDir != "" && dirExists(sp.ClaudeDir)
}

// HasOpenCode checks if the opencode directory exists
func (sp SourcePaths) HasOpenCode() bool {
	return sp.OpenCodeDir != "" && dirExists(sp.OpenCodeDir)
}

// OpenCodeDBPath returns the path to opencode.db
func (sp SourcePaths) OpenCodeDBPath() string {
	return filepath.Join(sp.OpenCodeDir, openCodeDBName)
}

// OpenCodeDBExists checks if opencode.db exists
func (sp SourcePaths) OpenCodeDBExists() bool {
	_, err := os.Stat(sp.OpenCodeDBPath())
	return err == nil
}

// CountClaudeTranscripts returns the number of transcript files under the
// Claude directory
func (sp SourcePaths) CountClaudeTranscripts(includeSubagents bool) (int, error) {
	if !sp.HasClaude() {
		return 0, nil
	}
	files, err := findClaudeTranscripts(sp.ClaudeDir, includeSubagents)
	if err != nil {
		return 0, fmt.Errorf("failed to scan claude directory: %w", err)
	}
	return len(files), nil
}

// CountOpenCodeMessageFiles returns the number of message documents in the
// opencode storage tree
func (sp SourcePaths) CountOpenCodeMessageFiles() (int, error) {
	dir := filepath.Join(sp.OpenCodeDir, "storage", "message")
	if !dirExists(dir) {
		return 0, nil
	}
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() && strings.HasSuffix(d.Name(), openCodeFileExt) {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to scan opencode storage: %w", err)
	}
	return count, nil
}

// CopyDatabase copies a SQLite database and its -wal/-shm companions into a
// new temporary directory so a running tool's locks are not contended. The
// returned cleanup removes the copy.
func CopyDatabase(dbPath string) (string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "prompt-pairs-db-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	dst := filepath.Join(tmpDir, filepath.Base(dbPath))
	if err := copyDatabaseWithWAL(dbPath, dst); err != nil {
		cleanup()
		return "", nil, err
	}
	LogDebug("copied %s to %s", dbPath, dst)
	return dst, cleanup, nil
}

// copyDatabaseWithWAL copies the database file and any -wal and -shm files
func copyDatabaseWithWAL(src, dst string) error {
	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("failed to copy database: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if _, err := os.Stat(src + suffix); err != nil {
			continue
		}
		if err := copyFile(src+suffix, dst+suffix); err != nil {
			return fmt.Errorf("failed to copy %s file: %w", suffix, err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
