package export

import (
	"encoding/json"
	"io"

	"github.com/Joachimzeelmaekers/ai-tooling/internal"
)

// JSONExporter writes records as one pretty-printed JSON array
type JSONExporter struct{}

// Export writes records to w
func (e *JSONExporter) Export(records []internal.PairRecord, w io.Writer) error {
	if records == nil {
		records = []internal.PairRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	return enc.Encode(records)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
