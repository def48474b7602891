package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Joachimzeelmaekers/ai-tooling/internal"
	"github.com/Joachimzeelmaekers/ai-tooling/internal/export"
	"github.com/spf13/cobra"
)

const defaultChunksOut = "output/chunks.jsonl"

var (
	chunkIn        string
	chunkOut       string
	maxTotalTokens int
	maxPairs       int
	includeTimes   bool
)

var chunkCmd = &cobra.Command{
	Use:   "chunk",
	Short: "Group exported pairs into LLM-ready chunks",
	Long: `Read a pairs JSONL file and group the pairs, in order, into chunks that fit a
token budget and a pair limit. Each chunk carries an analysis prompt followed
by the numbered pairs and is written as one JSONL line.

The input defaults to the configured export output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("max-total-tokens") {
			cfg.Chunk.MaxTotalTokens = maxTotalTokens
		}
		if flags.Changed("max-pairs") {
			cfg.Chunk.MaxPairs = maxPairs
		}
		if flags.Changed("include-times") {
			cfg.Chunk.IncludeTimes = includeTimes
		}
		if err := cfg.Chunk.Validate(); err != nil {
			return &internal.ConfigError{Field: "chunk", Err: err}
		}

		in, err := chunkInput(chunkIn, cfg)
		if err != nil {
			return err
		}
		out := internal.ExpandHome(chunkOut)

		var records []internal.PairRecord
		err = internal.ShowProgress(cmd.Context(), fmt.Sprintf("Reading %s", in), func() error {
			var readErr error
			records, readErr = export.ReadPairsFile(in)
			return readErr
		})
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return fmt.Errorf("no pairs found in %s", in)
		}

		chunks := internal.ChunkPairs(records, cfg.Chunk.Options(), time.Now())
		if err := writeChunks(chunks, out); err != nil {
			return err
		}

		internal.PrintSuccess(fmt.Sprintf("Wrote %d chunk(s) from %d pair(s) to %s", len(chunks), len(records), out))
		return nil
	},
}

// chunkInput resolves the pairs file. Only JSONL exports can be chunked, so
// the configured output is rejected when it was written in another format.
func chunkInput(flagIn string, cfg *internal.Config) (string, error) {
	if flagIn == "" {
		if cfg.Format != "jsonl" {
			return "", &internal.ConfigError{
				Field: "in",
				Err:   fmt.Errorf("configured output %s is %s, chunk reads JSONL pairs (pass --in or export with --format jsonl)", cfg.Out, cfg.Format),
			}
		}
		return internal.ExpandHome(cfg.Out), nil
	}

	switch strings.ToLower(filepath.Ext(flagIn)) {
	case ".json", ".yaml", ".yml", ".md", ".markdown":
		return "", &internal.ConfigError{
			Field: "in",
			Err:   fmt.Errorf("%s is not a JSONL pairs file", flagIn),
		}
	}
	return internal.ExpandHome(flagIn), nil
}

func writeChunks(chunks []internal.Chunk, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &internal.ExportError{Format: "jsonl", Path: path, Err: err}
	}
	file, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: "jsonl", Path: path, Err: err}
	}
	if err := export.WriteChunks(file, chunks); err != nil {
		_ = file.Close()
		return &internal.ExportError{Format: "jsonl", Path: path, Err: err}
	}
	if err := file.Close(); err != nil {
		return &internal.ExportError{Format: "jsonl", Path: path, Err: err}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(chunkCmd)
	chunkCmd.Flags().StringVar(&chunkIn, "in", "", "Pairs JSONL file (default: the configured export output)")
	chunkCmd.Flags().StringVarP(&chunkOut, "out", "o", defaultChunksOut, "Chunks JSONL file")
	chunkCmd.Flags().IntVar(&maxTotalTokens, "max-total-tokens", internal.DefaultMaxChunkTokens, "Token budget per chunk")
	chunkCmd.Flags().IntVar(&maxPairs, "max-pairs", internal.DefaultMaxChunkPairs, "Maximum pairs per chunk")
	chunkCmd.Flags().BoolVar(&includeTimes, "include-times", false, "Include prompt and answer times in each pair block")
}
