package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/Joachimzeelmaekers/ai-tooling/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags restores every flag to its default so one Execute does not leak
// into the next
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// executeCommand runs the root command with args and returns its output
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	err := rootCmd.Execute()
	return out.String(), err
}

// writeConfig writes a config file that disables tiktoken so tests never
// need the network
func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	testutil.WriteFile(t, path, []byte("tokenizer:\n  disabled: true\n"))
	return path
}

// writeClaudeFixture creates two Claude Code sessions
func writeClaudeFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	testutil.WriteClaudeTranscript(t, root, "proj/c1.jsonl",
		testutil.ClaudeLine(t, "user", "c1", "u1", "2025-01-01T10:00:00Z", "first question", ""),
		testutil.ClaudeLine(t, "assistant", "c1", "a1", "2025-01-01T10:00:03Z", []interface{}{
			testutil.TextPart("first answer"), testutil.ToolUsePart("Read"),
		}, "claude-sonnet-4"),
		testutil.ClaudeLine(t, "user", "c1", "u2", "2025-01-01T10:01:00Z", "second question", ""),
		testutil.ClaudeLine(t, "assistant", "c1", "a2", "2025-01-01T10:01:04Z", "second answer", "claude-sonnet-4"),
	)
	testutil.WriteClaudeTranscript(t, root, "proj/c2.jsonl",
		testutil.ClaudeLine(t, "user", "c2", "u3", "2025-02-01T09:00:00Z", "other question", ""),
		testutil.ClaudeLine(t, "assistant", "c2", "a3", "2025-02-01T09:00:02Z", "other answer", "claude-sonnet-4"),
	)
	return root
}
