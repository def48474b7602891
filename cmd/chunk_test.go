package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Joachimzeelmaekers/ai-tooling/internal"
	"github.com/Joachimzeelmaekers/ai-tooling/internal/export"
)

func writePairsFile(t *testing.T, records []internal.PairRecord) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pairs.jsonl")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := (&export.JSONLExporter{}).Export(records, f); err != nil {
		t.Fatal(err)
	}
	return path
}

func readChunks(t *testing.T, path string) []internal.Chunk {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open chunks: %v", err)
	}
	defer f.Close()

	var chunks []internal.Chunk
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var c internal.Chunk
		if err := json.Unmarshal(scanner.Bytes(), &c); err != nil {
			t.Fatalf("bad chunk line %q: %v", scanner.Text(), err)
		}
		chunks = append(chunks, c)
	}
	return chunks
}

func TestChunkCommand(t *testing.T) {
	in := writePairsFile(t, internal.CreateTestRecords())
	out := filepath.Join(t.TempDir(), "out", "chunks.jsonl")

	_, err := executeCommand(t, "chunk", "--config", writeConfig(t), "--in", in, "--out", out, "--max-pairs", "2", "--include-times")
	if err != nil {
		t.Fatalf("chunk error = %v", err)
	}

	chunks := readChunks(t, out)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].ID != 1 || chunks[0].PairCount != 2 || chunks[1].ID != 2 || chunks[1].PairCount != 1 {
		t.Errorf("chunks = %+v", chunks)
	}
	if !strings.Contains(chunks[0].Prompt, "PAIR 2:\nprompt_time: 2025-01-02T03:04:05Z") {
		t.Errorf("chunk prompt missing times:\n%s", chunks[0].Prompt)
	}
	if !strings.Contains(chunks[1].Prompt, "third prompt <tag>") {
		t.Errorf("second chunk should hold the third pair:\n%s", chunks[1].Prompt)
	}
}

func TestChunkCommand_Errors(t *testing.T) {
	empty := filepath.Join(t.TempDir(), "empty.jsonl")
	if err := os.WriteFile(empty, []byte("\n"), 0644); err != nil {
		t.Fatal(err)
	}
	valid := writePairsFile(t, internal.CreateTestRecords())

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing input", args: []string{"--in", filepath.Join(t.TempDir(), "missing.jsonl")}},
		{name: "no pairs", args: []string{"--in", empty}},
		{name: "zero max pairs", args: []string{"--in", valid, "--max-pairs", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "chunks.jsonl")
			args := append([]string{"chunk", "--config", writeConfig(t), "--out", out}, tt.args...)
			if _, err := executeCommand(t, args...); err == nil {
				t.Fatal("chunk should fail")
			}
			if _, err := os.Stat(out); !os.IsNotExist(err) {
				t.Errorf("no chunks file should be written, stat err = %v", err)
			}
		})
	}
}

func TestChunkCommand_BudgetError(t *testing.T) {
	_, err := executeCommand(t, "chunk", "--config", writeConfig(t), "--max-total-tokens", "-5")
	var cfgErr *internal.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "chunk" {
		t.Fatalf("chunk error = %v, want chunk ConfigError", err)
	}
}

func TestChunkCommand_RejectsNonJSONLInput(t *testing.T) {
	t.Setenv(internal.EnvOut, "")
	_ = os.Unsetenv(internal.EnvOut)

	mdConfig := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(mdConfig, []byte("format: md\nout: report.md\ntokenizer:\n  disabled: true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
	}{
		{name: "configured markdown export", args: []string{"--config", mdConfig}},
		{name: "explicit json input", args: []string{"--config", writeConfig(t), "--in", filepath.Join(t.TempDir(), "pairs.json")}},
		{name: "explicit yaml input", args: []string{"--config", writeConfig(t), "--in", "pairs.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"chunk", "--out", filepath.Join(t.TempDir(), "chunks.jsonl")}, tt.args...)
			_, err := executeCommand(t, args...)
			var cfgErr *internal.ConfigError
			if !errors.As(err, &cfgErr) || cfgErr.Field != "in" {
				t.Fatalf("chunk error = %v, want input ConfigError", err)
			}
		})
	}
}
