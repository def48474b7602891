package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Joachimzeelmaekers/ai-tooling/testutil"
)

func TestDetectSourcePaths(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	defaults := DetectSourcePaths(nil)
	if defaults.ClaudeDir != filepath.Join(home, ".claude/projects") {
		t.Errorf("ClaudeDir = %q", defaults.ClaudeDir)
	}
	if defaults.OpenCodeDir != filepath.Join(home, ".local/share/opencode") {
		t.Errorf("OpenCodeDir = %q", defaults.OpenCodeDir)
	}

	cfg := DefaultConfig()
	cfg.ClaudeDir = "/custom/claude"
	cfg.OpenCodeDir = ""
	paths := DetectSourcePaths(cfg)
	if paths.ClaudeDir != "/custom/claude" {
		t.Errorf("ClaudeDir = %q", paths.ClaudeDir)
	}
	if paths.OpenCodeDir != defaults.OpenCodeDir {
		t.Errorf("OpenCodeDir = %q, want default", paths.OpenCodeDir)
	}
}

func TestSourcePaths_Counts(t *testing.T) {
	claudeRoot := t.TempDir()
	testutil.WriteClaudeTranscript(t, claudeRoot, "p1/a.jsonl", "{}")
	testutil.WriteClaudeTranscript(t, claudeRoot, "p1/b.jsonl", "{}")
	testutil.WriteClaudeTranscript(t, claudeRoot, "p1/subagents/c.jsonl", "{}")
	testutil.WriteFile(t, filepath.Join(claudeRoot, "p1/notes.txt"), []byte("x"))

	openCodeRoot := t.TempDir()
	writeOpenCodeTree(t, openCodeRoot)

	paths := SourcePaths{ClaudeDir: claudeRoot, OpenCodeDir: openCodeRoot}
	if !paths.HasClaude() || !paths.HasOpenCode() {
		t.Fatal("both sources should exist")
	}
	if paths.OpenCodeDBExists() {
		t.Error("no opencode.db was created")
	}
	if paths.OpenCodeDBPath() != filepath.Join(openCodeRoot, "opencode.db") {
		t.Errorf("OpenCodeDBPath() = %q", paths.OpenCodeDBPath())
	}

	n, err := paths.CountClaudeTranscripts(false)
	if err != nil || n != 2 {
		t.Errorf("CountClaudeTranscripts(false) = %d, %v; want 2", n, err)
	}
	n, err = paths.CountClaudeTranscripts(true)
	if err != nil || n != 3 {
		t.Errorf("CountClaudeTranscripts(true) = %d, %v; want 3", n, err)
	}
	n, err = paths.CountOpenCodeMessageFiles()
	if err != nil || n != 4 {
		t.Errorf("CountOpenCodeMessageFiles() = %d, %v; want 4", n, err)
	}

	missing := SourcePaths{ClaudeDir: filepath.Join(claudeRoot, "nope"), OpenCodeDir: filepath.Join(openCodeRoot, "nope")}
	if missing.HasClaude() || missing.HasOpenCode() {
		t.Error("missing directories should not be reported")
	}
	if n, err := missing.CountClaudeTranscripts(false); n != 0 || err != nil {
		t.Errorf("CountClaudeTranscripts() on missing dir = %d, %v", n, err)
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	testutil.WriteFile(t, src, []byte("hello"))

	if err := copyFile(src, dst); err != nil {
		t.Fatalf("copyFile() error = %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "hello" {
		t.Errorf("copied content = %q, %v", data, err)
	}

	if err := copyFile(filepath.Join(dir, "missing"), dst); err == nil {
		t.Error("copyFile() should fail for a missing source")
	}
}

func TestCopyDatabase(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "opencode.db")
	testutil.WriteFile(t, dbPath, []byte("db"))
	testutil.WriteFile(t, dbPath+"-wal", []byte("wal"))

	copied, cleanup, err := CopyDatabase(dbPath)
	if err != nil {
		t.Fatalf("CopyDatabase() error = %v", err)
	}
	if filepath.Base(copied) != "opencode.db" || filepath.Dir(copied) == dir {
		t.Errorf("copy path = %q", copied)
	}

	for suffix, want := range map[string]string{"": "db", "-wal": "wal"} {
		data, err := os.ReadFile(copied + suffix)
		if err != nil || string(data) != want {
			t.Errorf("copy%s = %q, %v", suffix, data, err)
		}
	}
	if _, err := os.Stat(copied + "-shm"); !os.IsNotExist(err) {
		t.Errorf("no -shm file should be created, stat err = %v", err)
	}

	cleanup()
	if _, err := os.Stat(filepath.Dir(copied)); !os.IsNotExist(err) {
		t.Errorf("cleanup should remove the temp dir, stat err = %v", err)
	}
}

func TestCopyDatabase_Missing(t *testing.T) {
	if _, _, err := CopyDatabase(filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Fatal("CopyDatabase() should fail for a missing database")
	}
}
