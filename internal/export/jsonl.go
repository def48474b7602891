package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Joachimzeelmaekers/ai-tooling/internal"
)

// JSONLExporter writes one pair record per line
type JSONLExporter struct{}

// Export writes records as JSON lines. HTML characters are not escaped so
// prompts stay byte-identical to the source text.
func (e *JSONLExporter) Export(records []internal.PairRecord, w io.Writer) error {
	return writeJSONLines(w, records)
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}

// WriteChunks writes chunk records as JSON lines
func WriteChunks(w io.Writer, chunks []internal.Chunk) error {
	return writeJSONLines(w, chunks)
}

func writeJSONLines[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for i := range items {
		if err := enc.Encode(items[i]); err != nil {
			return fmt.Errorf("failed to encode line %d: %w", i+1, err)
		}
	}
	return nil
}
