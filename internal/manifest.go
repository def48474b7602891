package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// ManifestVersion is bumped when the manifest layout changes
const ManifestVersion = "1"

// ManifestSource records what one source contributed to an export
type ManifestSource struct {
	Source   Source `yaml:"source"`
	Root     string `yaml:"root"`
	Messages int    `yaml:"messages"`
}

// ExportManifest describes an export file: where it came from and how its
// token counts were produced
type ExportManifest struct {
	Version           string           `yaml:"version"`
	GeneratedAt       time.Time        `yaml:"generated_at"`
	Output            string           `yaml:"output"`
	Format            string           `yaml:"format"`
	Pairs             int              `yaml:"pairs"`
	Sessions          int              `yaml:"sessions"`
	Sources           []ManifestSource `yaml:"sources"`
	Tokenizer         string           `yaml:"tokenizer"`
	ApproximateTokens bool             `yaml:"approximate_tokens"`
	Options           LoadOptions      `yaml:"options"`
}

// ManifestPath returns the manifest location for an output file
func ManifestPath(output string) string {
	return output + ".manifest.yaml"
}

// NewManifest builds a manifest for a finished pipeline run
func NewManifest(p *Pipeline, result *Result, output, format string, now time.Time) *ExportManifest {
	m := &ExportManifest{
		Version:           ManifestVersion,
		GeneratedAt:       now.UTC(),
		Output:            output,
		Format:            format,
		Pairs:             len(result.Pairs),
		Sessions:          len(result.Sessions),
		Tokenizer:         p.Counter.Name(),
		ApproximateTokens: p.Counter.Approximate(),
		Options:           p.Options,
	}

	roots := lo.SliceToMap(p.Sources, func(src SourceRoot) (Source, string) {
		return src.Loader.Source(), src.Root
	})
	sources := lo.Keys(roots)
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })
	for _, source := range sources {
		m.Sources = append(m.Sources, ManifestSource{
			Source:   source,
			Root:     roots[source],
			Messages: result.MessageCounts[source],
		})
	}
	return m
}

// SaveManifest writes the manifest next to its output file
func SaveManifest(m *ExportManifest) error {
	path := ManifestPath(m.Output)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &StorageError{Path: path, Op: "mkdir", Err: err}
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return &StorageError{Path: path, Op: "write", Err: err}
	}
	return nil
}

// LoadManifest reads a manifest file
func LoadManifest(path string) (*ExportManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "read", Err: err}
	}

	var m ExportManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	return &m, nil
}
