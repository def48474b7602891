package export

import (
	"io"

	"github.com/Joachimzeelmaekers/ai-tooling/internal"
	"gopkg.in/yaml.v3"
)

// YAMLExporter writes records as a YAML sequence
type YAMLExporter struct{}

// Export writes records to w
func (e *YAMLExporter) Export(records []internal.PairRecord, w io.Writer) error {
	if records == nil {
		records = []internal.PairRecord{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()

	return enc.Encode(records)
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
