package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Joachimzeelmaekers/ai-tooling/internal"
)

const maxLineSize = 64 * 1024 * 1024

// ReadPairsJSONL reads pair records from a JSONL stream. Blank and malformed
// lines are skipped and counted.
func ReadPairsJSONL(r io.Reader) ([]internal.PairRecord, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), maxLineSize)

	var records []internal.PairRecord
	skipped := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		rec, err := internal.ParsePairRecord([]byte(line))
		if err != nil {
			internal.LogDebug("skipping line %d: %v", lineNo, err)
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, fmt.Errorf("failed to read pairs: %w", err)
	}
	return records, skipped, nil
}

// ReadPairsFile reads pair records from a JSONL file
func ReadPairsFile(path string) ([]internal.PairRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &internal.StorageError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	records, skipped, err := ReadPairsJSONL(f)
	if err != nil {
		return nil, &internal.StorageError{Path: path, Op: "read", Err: err}
	}
	if skipped > 0 {
		internal.LogWarn("skipped %d malformed lines in %s", skipped, path)
	}
	return records, nil
}
