package cmd

import (
	"fmt"
	"os"

	"github.com/Joachimzeelmaekers/ai-tooling/internal"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// envLogLevel selects the log level when --verbose is not given
const envLogLevel = "PROMPT_PAIRS_LOG_LEVEL"

var (
	verbose     bool
	configPath  string
	copyDB      bool
	claudeDir   string
	opencodeDir string
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "prompt-pairs",
	Short: "Export prompt/answer pairs from Claude Code and opencode history",
	Long: `Reconstruct prompt/answer pairs from the local conversation history of
Claude Code and opencode, and export them for analysis.

Sources:
  • Claude Code transcripts (~/.claude/projects/**/*.jsonl)
  • opencode storage (~/.local/share/opencode, JSON tree or opencode.db)

Quick Start:
  prompt-pairs sessions                         # List discovered sessions
  prompt-pairs export                           # Write output/pairs.jsonl
  prompt-pairs chunk --in output/pairs.jsonl    # Batch pairs for an LLM

Settings are read from ~/.config/prompt-pairs/config.yaml, then from
PROMPT_PAIRS_* environment variables (a .env file is loaded), then flags.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			internal.SetVerbose(true)
			return
		}
		internal.SetVerbose(false)
		if name := os.Getenv(envLogLevel); name != "" {
			level, err := internal.ParseLogLevel(name)
			if err != nil {
				internal.LogWarn("ignoring %s: %v", envLogLevel, err)
				return
			}
			internal.SetLogLevel(level)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	// A missing .env is fine
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		internal.PrintError(fmt.Sprintf("Error: %v", err))
		os.Exit(1)
	}
}

// loadConfig resolves the configuration for a command and applies the
// persistent source flags. An explicit --config path must exist; the default
// path is optional.
func loadConfig(cmd *cobra.Command) (*internal.Config, error) {
	path, required := configPath, configPath != ""
	if path == "" {
		path = internal.DefaultConfigPath()
	}

	cfg, err := internal.LoadConfig(path, required)
	if err != nil {
		return nil, err
	}
	if copyDB {
		cfg.CopyDatabase = true
	}
	flags := cmd.Flags()
	if flags.Changed("claude-dir") {
		cfg.ClaudeDir = claudeDir
	}
	if flags.Changed("opencode-dir") {
		cfg.OpenCodeDir = opencodeDir
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/prompt-pairs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&claudeDir, "claude-dir", internal.DefaultClaudeDir, "Claude Code projects directory (empty disables)")
	rootCmd.PersistentFlags().StringVar(&opencodeDir, "opencode-dir", internal.DefaultOpenCodeDir, "opencode data directory (empty disables)")
	rootCmd.PersistentFlags().BoolVar(&copyDB, "copy", false, "Read a temporary copy of opencode.db to avoid locking issues")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
