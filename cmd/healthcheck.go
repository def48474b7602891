package cmd

import (
	"fmt"
	"io"

	"github.com/Joachimzeelmaekers/ai-tooling/internal"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	healthcheckDetails bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check if prompt-pairs can locate and read conversation history",
	Long: `Check the health of prompt-pairs by verifying:
  • Claude Code transcript directory
  • opencode data directory and database
  • Tokenizer availability

This command is useful for debugging missing or empty exports.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		paths := internal.DetectSourcePaths(cfg)

		fmt.Fprintln(w, sectionStyle.Render("🔍 prompt-pairs Health Check"))
		fmt.Fprintln(w)

		// Step 1: Claude Code
		fmt.Fprintln(w, infoStyle.Render("Step 1: Checking Claude Code transcripts..."))
		claudeFiles := 0
		switch {
		case cfg.ClaudeDir == "":
			fmt.Fprintln(w, warningStyle.Render("⚠️  Claude Code source disabled"))
		case !paths.HasClaude():
			fmt.Fprintln(w, warningStyle.Render("⚠️  Claude Code directory not found"))
			detail(w, "Expected: %s", paths.ClaudeDir)
		default:
			claudeFiles, err = paths.CountClaudeTranscripts(cfg.Options.IncludeSubagentSessions)
			if err != nil {
				fmt.Fprintln(w, warningStyle.Render("⚠️  Error scanning Claude Code directory:"), err)
			} else if claudeFiles > 0 {
				fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("✅ Found %d transcript file(s)", claudeFiles)))
			} else {
				fmt.Fprintln(w, warningStyle.Render("⚠️  Directory exists but contains no .jsonl transcripts"))
			}
			detail(w, "Directory: %s", paths.ClaudeDir)
		}
		fmt.Fprintln(w)

		// Step 2: opencode
		fmt.Fprintln(w, infoStyle.Render("Step 2: Checking opencode storage..."))
		openCodeOK := false
		switch {
		case cfg.OpenCodeDir == "":
			fmt.Fprintln(w, warningStyle.Render("⚠️  opencode source disabled"))
		case !paths.HasOpenCode():
			fmt.Fprintln(w, warningStyle.Render("⚠️  opencode directory not found"))
			detail(w, "Expected: %s", paths.OpenCodeDir)
		default:
			openCodeOK = checkOpenCode(w, paths, cfg.CopyDatabase)
		}
		fmt.Fprintln(w)

		// Step 3: tokenizer
		fmt.Fprintln(w, infoStyle.Render("Step 3: Checking tokenizer..."))
		if cfg.Tokenizer.Disabled {
			fmt.Fprintln(w, warningStyle.Render("⚠️  Tokenizer disabled, token counts are whitespace approximations"))
		} else if tokenizer, err := internal.LoadTokenizer(cfg.Tokenizer.Model, cfg.Tokenizer.Encoding); err != nil {
			fmt.Fprintln(w, warningStyle.Render("⚠️  tiktoken unavailable, token counts will be whitespace approximations"))
			detail(w, "Error: %v", err)
		} else {
			fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("✅ Tokenizer ready (%s)", tokenizer.Name())))
		}
		fmt.Fprintln(w)

		// Summary
		fmt.Fprintln(w, sectionStyle.Render("📊 Summary"))
		fmt.Fprintln(w)
		if claudeFiles > 0 || openCodeOK {
			fmt.Fprintln(w, successStyle.Render("✅ Health check passed!"))
			return nil
		}
		fmt.Fprintln(w, errorStyle.Render("❌ Health check failed"))
		fmt.Fprintln(w, "   • No source contains conversation history")
		return fmt.Errorf("health check failed: no readable source")
	},
}

// checkOpenCode prefers the database, as the loader does, and falls back to
// the JSON storage tree
func checkOpenCode(w io.Writer, paths internal.SourcePaths, useCopy bool) bool {
	if paths.OpenCodeDBExists() && checkOpenCodeDB(w, paths.OpenCodeDBPath(), useCopy) {
		return true
	}

	count, err := paths.CountOpenCodeMessageFiles()
	switch {
	case err != nil:
		fmt.Fprintln(w, warningStyle.Render("⚠️  Error scanning opencode storage:"), err)
		return false
	case count > 0:
		fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("✅ Found %d message file(s)", count)))
		detail(w, "Directory: %s", paths.OpenCodeDir)
		return true
	default:
		fmt.Fprintln(w, warningStyle.Render("⚠️  opencode directory exists but has no messages"))
		return false
	}
}

// checkOpenCodeDB opens the database the way the loader will, reading a
// temporary copy when useCopy is set
func checkOpenCodeDB(w io.Writer, dbPath string, useCopy bool) bool {
	readPath := dbPath
	if useCopy {
		copied, cleanup, err := internal.CopyDatabase(dbPath)
		if err != nil {
			fmt.Fprintln(w, warningStyle.Render("⚠️  opencode.db could not be copied:"), err)
			return false
		}
		defer cleanup()
		readPath = copied
		detail(w, "Database copy: %s", copied)
	}

	db, err := internal.OpenDatabase(readPath)
	if err != nil {
		fmt.Fprintln(w, warningStyle.Render("⚠️  opencode.db found but could not be opened:"), err)
		if !useCopy {
			fmt.Fprintln(w, "   Try --copy if opencode is running")
		}
		return false
	}
	defer db.Close()

	for _, table := range []string{"message", "part"} {
		if ok, err := internal.TableExists(db, table); err != nil || !ok {
			fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("⚠️  opencode.db has no %s table", table)))
			return false
		}
	}
	fmt.Fprintln(w, successStyle.Render("✅ opencode.db readable"))
	detail(w, "Database: %s", dbPath)
	return true
}

// detail prints an indented line when --details is set
func detail(w io.Writer, format string, args ...interface{}) {
	if healthcheckDetails {
		fmt.Fprintf(w, "   "+format+"\n", args...)
	}
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckDetails, "details", "d", false, "Show detailed diagnostic information")
}
