package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the config file
const (
	EnvClaudeDir   = "PROMPT_PAIRS_CLAUDE_DIR"
	EnvOpenCodeDir = "PROMPT_PAIRS_OPENCODE_DIR"
	EnvOut         = "PROMPT_PAIRS_OUT"
)

const (
	DefaultClaudeDir   = "~/.claude/projects"
	DefaultOpenCodeDir = "~/.local/share/opencode"
	DefaultOut         = "output/pairs.jsonl"
	DefaultFormat      = "jsonl"
)

// SupportedFormats lists the export formats accepted in configuration
var SupportedFormats = []string{"jsonl", "json", "yaml", "md", "markdown"}

// TokenizerConfig selects the tiktoken encoding
type TokenizerConfig struct {
	Model    string `yaml:"model"`
	Encoding string `yaml:"encoding"`
	Disabled bool   `yaml:"disabled"`
}

// ChunkConfig holds chunk budgets
type ChunkConfig struct {
	MaxTotalTokens int  `yaml:"max_total_tokens"`
	MaxPairs       int  `yaml:"max_pairs"`
	IncludeTimes   bool `yaml:"include_times"`
}

// Validate checks the chunk budgets
func (c ChunkConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.MaxTotalTokens, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxPairs, validation.Required, validation.Min(1)),
	)
}

// Options converts the config into chunker options
func (c ChunkConfig) Options() ChunkOptions {
	return ChunkOptions{
		MaxTotalTokens: c.MaxTotalTokens,
		MaxPairs:       c.MaxPairs,
		IncludeTimes:   c.IncludeTimes,
	}
}

// Config is the resolved configuration. Precedence, lowest first: defaults,
// config file, environment, command-line flags (applied by the caller).
type Config struct {
	ClaudeDir   string `yaml:"claude_dir"`
	OpenCodeDir string `yaml:"opencode_dir"`
	Out         string `yaml:"out"`
	Format      string `yaml:"format"`
	// CopyDatabase reads a temporary copy of opencode.db
	CopyDatabase bool            `yaml:"copy_database"`
	Options      LoadOptions     `yaml:",inline"`
	Tokenizer    TokenizerConfig `yaml:"tokenizer"`
	Chunk        ChunkConfig     `yaml:"chunk"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		ClaudeDir:   DefaultClaudeDir,
		OpenCodeDir: DefaultOpenCodeDir,
		Out:         DefaultOut,
		Format:      DefaultFormat,
		Options:     DefaultLoadOptions(),
		Chunk: ChunkConfig{
			MaxTotalTokens: DefaultMaxChunkTokens,
			MaxPairs:       DefaultMaxChunkPairs,
		},
	}
}

// DefaultConfigPath returns ~/.config/prompt-pairs/config.yaml
func DefaultConfigPath() string {
	return ExpandHome("~/.config/prompt-pairs/config.yaml")
}

// LoadConfig resolves defaults, the config file at path and the environment.
// A missing file is only an error when required is set.
func LoadConfig(path string, required bool) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(ExpandHome(path))
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, &ConfigError{Field: "file", Err: fmt.Errorf("%s: %w", path, err)}
			}
			LogDebug("loaded config from %s", path)
		case errors.Is(err, os.ErrNotExist) && !required:
			LogDebug("no config file at %s", path)
		default:
			return nil, &ConfigError{Field: "file", Err: err}
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides fields from PROMPT_PAIRS_* variables that are set
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv(EnvClaudeDir); ok {
		c.ClaudeDir = v
	}
	if v, ok := os.LookupEnv(EnvOpenCodeDir); ok {
		c.OpenCodeDir = v
	}
	if v, ok := os.LookupEnv(EnvOut); ok {
		c.Out = v
	}
}

// Validate checks the export settings
func (c *Config) Validate() error {
	formats := make([]interface{}, len(SupportedFormats))
	for i, f := range SupportedFormats {
		formats[i] = f
	}

	err := validation.ValidateStruct(c,
		validation.Field(&c.Format, validation.Required, validation.In(formats...).Error("must be one of jsonl, json, yaml, md, markdown")),
		validation.Field(&c.Out, validation.Required),
		validation.Field(&c.ClaudeDir, validation.When(c.OpenCodeDir == "", validation.Required.Error("at least one source directory is required"))),
		validation.Field(&c.Chunk),
	)
	if err != nil {
		return &ConfigError{Err: err}
	}
	return nil
}

// SourceRoots returns the configured sources with expanded paths. An empty
// directory disables that source.
func (c *Config) SourceRoots() []SourceRoot {
	var roots []SourceRoot
	if c.ClaudeDir != "" {
		roots = append(roots, SourceRoot{Loader: NewClaudeLoader(), Root: ExpandHome(c.ClaudeDir)})
	}
	if c.OpenCodeDir != "" {
		loader := NewOpenCodeLoader()
		loader.CopyDatabase = c.CopyDatabase
		roots = append(roots, SourceRoot{Loader: loader, Root: ExpandHome(c.OpenCodeDir)})
	}
	return roots
}

// ExpandHome replaces a leading ~/ with the user's home directory
func ExpandHome(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return path
	}
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
