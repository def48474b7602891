package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/Joachimzeelmaekers/ai-tooling/internal"
	"github.com/Joachimzeelmaekers/ai-tooling/internal/export"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var (
	format                string
	outPath               string
	includeToolOutput     bool
	toolOutputMaxLen      int
	includeSystem         bool
	includeSubagents      bool
	includeSuggestionMode bool
	includeIDEEvents      bool
	tokenizerModel        string
	tokenizerEncoding     string
	noTokenizer           bool
	sessionID             string
	watch                 bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export prompt/answer pairs to file",
	Long: `Load Claude Code and opencode history, reconstruct one prompt/answer pair
per turn, count tokens and write the pairs (jsonl, json, yaml, md).

A manifest describing the export is written next to the output file as
<out>.manifest.yaml. With --watch the export is repeated whenever the
source directories change.

Use 'prompt-pairs sessions' to see available session IDs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := exportConfig(cmd)
		if err != nil {
			return err
		}

		p := &internal.Pipeline{
			Sources:   cfg.SourceRoots(),
			Options:   cfg.Options,
			Counter:   newTokenCounter(cfg.Tokenizer),
			SessionID: sessionID,
		}

		if watch {
			return watchExport(cmd.Context(), p, cfg)
		}
		return runExport(cmd.Context(), p, cfg)
	},
}

// exportConfig layers explicitly set flags over the loaded configuration
func exportConfig(cmd *cobra.Command) (*internal.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = format
	}
	if flags.Changed("out") {
		cfg.Out = outPath
	}
	if flags.Changed("include-tool-output") {
		cfg.Options.IncludeToolOutput = includeToolOutput
	}
	if flags.Changed("tool-output-max-len") {
		cfg.Options.MaxToolOutputLength = toolOutputMaxLen
	}
	if flags.Changed("include-system") {
		cfg.Options.IncludeSystemMessages = includeSystem
	}
	if flags.Changed("include-subagents") {
		cfg.Options.IncludeSubagentSessions = includeSubagents
	}
	if flags.Changed("include-suggestion-mode") {
		cfg.Options.ExcludeSuggestionMode = !includeSuggestionMode
	}
	if flags.Changed("include-ide-events") {
		cfg.Options.IncludeIDEEvents = includeIDEEvents
	}
	if flags.Changed("model") {
		cfg.Tokenizer.Model = tokenizerModel
	}
	if flags.Changed("encoding") {
		cfg.Tokenizer.Encoding = tokenizerEncoding
	}
	if flags.Changed("no-tokenizer") {
		cfg.Tokenizer.Disabled = noTokenizer
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// A format switch without --out keeps the default name but fixes its suffix
	if flags.Changed("format") && !flags.Changed("out") && cfg.Out == internal.DefaultOut {
		exporter, err := export.NewExporter(cfg.Format)
		if err != nil {
			return nil, err
		}
		cfg.Out = defaultOutFor(exporter)
	}
	return cfg, nil
}

func defaultOutFor(exporter export.Exporter) string {
	return strings.TrimSuffix(internal.DefaultOut, filepath.Ext(internal.DefaultOut)) + "." + exporter.Extension()
}

// newTokenCounter falls back to whitespace counting when no tiktoken
// encoding can be loaded
func newTokenCounter(tc internal.TokenizerConfig) *internal.TokenCounter {
	if tc.Disabled {
		return internal.NewTokenCounter(nil)
	}
	tokenizer, err := internal.LoadTokenizer(tc.Model, tc.Encoding)
	if err != nil {
		internal.PrintInfo(fmt.Sprintf("tiktoken unavailable, token counts are whitespace approximations: %v", err))
		return internal.NewTokenCounter(nil)
	}
	internal.LogDebug("counting tokens with %s", tokenizer.Name())
	return internal.NewTokenCounter(tokenizer)
}

func runExport(ctx context.Context, p *internal.Pipeline, cfg *internal.Config) error {
	exporter, err := export.NewExporter(cfg.Format)
	if err != nil {
		return err
	}
	if md, ok := exporter.(*export.MarkdownExporter); ok {
		md.ApproximateTokens = p.Counter.Approximate()
	}

	out := internal.ExpandHome(cfg.Out)
	var (
		result  *internal.Result
		records []internal.PairRecord
	)

	steps := []internal.ProgressStep{
		{
			Message: "Loading and pairing messages",
			Fn: func() error {
				var runErr error
				result, runErr = p.Run(ctx)
				if runErr != nil {
					return runErr
				}
				if p.SessionID != "" && len(result.Sessions) == 0 {
					return fmt.Errorf("session not found: %s (use 'prompt-pairs sessions' to see available sessions)", p.SessionID)
				}
				records = internal.ToRecords(result.Pairs)
				return nil
			},
		},
		{
			Message: fmt.Sprintf("Writing %s", out),
			Fn: func() error {
				return writeRecords(exporter, records, out, cfg.Format)
			},
		},
		{
			Message: "Writing manifest",
			Fn: func() error {
				return internal.SaveManifest(internal.NewManifest(p, result, out, cfg.Format, time.Now()))
			},
		},
	}

	if err := internal.ShowProgressWithSteps(ctx, steps); err != nil {
		return err
	}

	if p.Counter.Approximate() {
		internal.LogInfo("token counts are whitespace approximations")
	}
	internal.PrintSuccess(fmt.Sprintf("Export complete: %d pair(s) from %d session(s) written to %s", len(records), len(result.Sessions), out))
	return nil
}

// writeRecords writes to a temporary file first so readers of path never see
// a partial export
func writeRecords(exporter export.Exporter, records []internal.PairRecord, path, format string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}

	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}

	if err := exporter.Export(records, file); err != nil {
		_ = file.Close()
		_ = os.Remove(tmp)
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}
	return nil
}

// watchExport exports once, then again after every settled change to the
// source directories until interrupted
func watchExport(ctx context.Context, p *internal.Pipeline, cfg *internal.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runExport(ctx, p, cfg); err != nil {
		if !errors.Is(err, internal.ErrNoData) {
			return err
		}
		internal.PrintWarning("no messages yet, waiting for changes")
	}

	roots := lo.Map(p.Sources, func(src internal.SourceRoot, _ int) string {
		return src.Root
	})
	watcher, err := internal.NewSourceWatcher(roots, internal.DefaultDebounce, func() {
		internal.LogInfo("sources changed, exporting again")
		if err := runExport(ctx, p, cfg); err != nil {
			internal.LogError("export failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	internal.PrintInfo(fmt.Sprintf("Watching %d source directory(s), press Ctrl-C to stop", len(roots)))
	return watcher.Run(ctx)
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", internal.DefaultFormat, "Export format (jsonl, json, yaml, md)")
	exportCmd.Flags().StringVarP(&outPath, "out", "o", internal.DefaultOut, "Output file")
	exportCmd.Flags().BoolVar(&includeToolOutput, "include-tool-output", false, "Include tool results in message text")
	exportCmd.Flags().IntVar(&toolOutputMaxLen, "tool-output-max-len", internal.DefaultMaxToolOutputLength, "Truncate each tool output to this many characters (0 disables)")
	exportCmd.Flags().BoolVar(&includeSystem, "include-system", false, "Keep system messages")
	exportCmd.Flags().BoolVar(&includeSubagents, "include-subagents", false, "Include Claude Code subagent transcripts")
	exportCmd.Flags().BoolVar(&includeSuggestionMode, "include-suggestion-mode", false, "Keep suggestion mode prompts")
	exportCmd.Flags().BoolVar(&includeIDEEvents, "include-ide-events", false, "Keep IDE file-open events")
	exportCmd.Flags().StringVar(&tokenizerModel, "model", "", "Model name used to pick the tiktoken encoding")
	exportCmd.Flags().StringVar(&tokenizerEncoding, "encoding", "", "tiktoken encoding name (e.g. o200k_base)")
	exportCmd.Flags().BoolVar(&noTokenizer, "no-tokenizer", false, "Count tokens by whitespace instead of tiktoken")
	exportCmd.Flags().StringVar(&sessionID, "session-id", "", "Export a single session by ID")
	exportCmd.Flags().BoolVarP(&watch, "watch", "w", false, "Export again whenever the sources change")
}
