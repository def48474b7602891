package internal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Joachimzeelmaekers/ai-tooling/testutil"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvClaudeDir, EnvOpenCodeDir, EnvOut} {
		// t.Setenv restores the previous value after the test
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), false)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.ClaudeDir != DefaultClaudeDir || cfg.OpenCodeDir != DefaultOpenCodeDir {
		t.Errorf("source dirs = %q, %q", cfg.ClaudeDir, cfg.OpenCodeDir)
	}
	if cfg.Out != DefaultOut || cfg.Format != DefaultFormat {
		t.Errorf("out/format = %q, %q", cfg.Out, cfg.Format)
	}
	if cfg.Options != DefaultLoadOptions() {
		t.Errorf("Options = %+v, want defaults", cfg.Options)
	}
	if cfg.Chunk.MaxTotalTokens != DefaultMaxChunkTokens || cfg.Chunk.MaxPairs != DefaultMaxChunkPairs {
		t.Errorf("Chunk = %+v", cfg.Chunk)
	}
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	clearConfigEnv(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), true)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("LoadConfig() error = %v, want ConfigError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should wrap os.ErrNotExist: %v", err)
	}
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	clearConfigEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	testutil.WriteFile(t, path, []byte(`claude_dir: /file/claude
opencode_dir: /file/opencode
out: /file/out.jsonl
format: md
include_tool_output: true
max_tool_output_length: 50
exclude_suggestion_mode: false
tokenizer:
  encoding: cl100k_base
chunk:
  max_pairs: 5
`))

	t.Setenv(EnvOut, "/env/out.jsonl")
	t.Setenv(EnvOpenCodeDir, "")

	cfg, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.ClaudeDir != "/file/claude" {
		t.Errorf("ClaudeDir = %q", cfg.ClaudeDir)
	}
	if cfg.OpenCodeDir != "" {
		t.Errorf("empty env value should disable opencode, got %q", cfg.OpenCodeDir)
	}
	if cfg.Out != "/env/out.jsonl" {
		t.Errorf("Out = %q, env should win over file", cfg.Out)
	}
	if cfg.Format != "md" {
		t.Errorf("Format = %q", cfg.Format)
	}
	if !cfg.Options.IncludeToolOutput || cfg.Options.MaxToolOutputLength != 50 || cfg.Options.ExcludeSuggestionMode {
		t.Errorf("Options = %+v", cfg.Options)
	}
	if cfg.Tokenizer.Encoding != "cl100k_base" {
		t.Errorf("Tokenizer = %+v", cfg.Tokenizer)
	}
	if cfg.Chunk.MaxPairs != 5 || cfg.Chunk.MaxTotalTokens != DefaultMaxChunkTokens {
		t.Errorf("Chunk = %+v", cfg.Chunk)
	}

	roots := cfg.SourceRoots()
	if len(roots) != 1 || roots[0].Loader.Source() != SourceClaude {
		t.Errorf("SourceRoots() = %+v, want only claude", roots)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	clearConfigEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	testutil.WriteFile(t, path, []byte("claude_dir: [unterminated\n"))

	_, err := LoadConfig(path, false)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "file" {
		t.Fatalf("LoadConfig() error = %v, want file ConfigError", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "markdown alias", mutate: func(c *Config) { c.Format = "markdown" }},
		{name: "unknown format", mutate: func(c *Config) { c.Format = "csv" }, wantErr: true},
		{name: "empty out", mutate: func(c *Config) { c.Out = "" }, wantErr: true},
		{name: "only opencode", mutate: func(c *Config) { c.ClaudeDir = "" }},
		{name: "no sources", mutate: func(c *Config) { c.ClaudeDir = ""; c.OpenCodeDir = "" }, wantErr: true},
		{name: "zero chunk pairs", mutate: func(c *Config) { c.Chunk.MaxPairs = 0 }, wantErr: true},
		{name: "negative chunk tokens", mutate: func(c *Config) { c.Chunk.MaxTotalTokens = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var cfgErr *ConfigError
				if !errors.As(err, &cfgErr) {
					t.Errorf("Validate() error type = %T, want *ConfigError", err)
				}
			}
		})
	}
}

func TestConfig_SourceRootsCopyDatabase(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClaudeDir = ""
	cfg.OpenCodeDir = "/data/opencode"
	cfg.CopyDatabase = true

	roots := cfg.SourceRoots()
	if len(roots) != 1 {
		t.Fatalf("SourceRoots() len = %d, want 1", len(roots))
	}
	loader, ok := roots[0].Loader.(*OpenCodeLoader)
	if !ok {
		t.Fatalf("loader type = %T", roots[0].Loader)
	}
	if !loader.CopyDatabase {
		t.Error("CopyDatabase should be passed to the opencode loader")
	}
	if roots[0].Root != "/data/opencode" {
		t.Errorf("Root = %q", roots[0].Root)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/.claude/projects", filepath.Join(home, ".claude/projects")},
		{"/abs/path", "/abs/path"},
		{"relative", "relative"},
		{"~user/x", "~user/x"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ExpandHome(tt.in); got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
