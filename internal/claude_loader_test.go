package internal

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/Joachimzeelmaekers/ai-tooling/testutil"
)

func TestClaudeLoader_Load(t *testing.T) {
	root := t.TempDir()
	testutil.WriteClaudeTranscript(t, root, "proj-a/s1.jsonl",
		testutil.ClaudeLine(t, "user", "s1", "u1", "2025-01-01T10:00:00Z", "How do I sort?", ""),
		"not json at all",
		testutil.ClaudeLine(t, "assistant", "s1", "a1", "2025-01-01T10:00:05.123Z", []interface{}{
			testutil.TextPart("Use sort.Slice."),
			testutil.ToolUsePart("Read"),
		}, "claude-sonnet-4"),
		`{"type":"summary","summary":"Sorting","leafUuid":"a1"}`,
		"",
		testutil.ClaudeLine(t, "user", "s1", "u2", "2025-01-01T10:01:00Z", "[SUGGESTION MODE: try this]", ""),
	)

	set, err := NewClaudeLoader().Load(root, DefaultLoadOptions())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	msgs := set.Messages("s1")
	if len(msgs) != 2 {
		t.Fatalf("Load() returned %d messages, want 2: %+v", len(msgs), msgs)
	}

	user, assistant := msgs[0], msgs[1]
	if user.Role != RoleUser || user.Text != "How do I sort?" || user.ID != "u1" {
		t.Errorf("unexpected user message: %+v", user)
	}
	if user.Model != "" || user.Provider != "" || user.Tools != nil {
		t.Errorf("user message should carry no model, provider or tools: %+v", user)
	}
	if assistant.Text != "Use sort.Slice." {
		t.Errorf("assistant text = %q", assistant.Text)
	}
	if assistant.Model != "claude-sonnet-4" || assistant.Provider != "claude" {
		t.Errorf("assistant model/provider = %q/%q", assistant.Model, assistant.Provider)
	}
	if !reflect.DeepEqual(assistant.Tools, []string{"Read"}) {
		t.Errorf("assistant tools = %v", assistant.Tools)
	}
	wantTS := time.Date(2025, 1, 1, 10, 0, 5, 123000000, time.UTC)
	if assistant.Timestamp == nil || !assistant.Timestamp.Equal(wantTS) {
		t.Errorf("assistant timestamp = %v, want %v", assistant.Timestamp, wantTS)
	}
	if assistant.Source != SourceClaude {
		t.Errorf("source = %q", assistant.Source)
	}
}

func TestClaudeLoader_SuggestionModeIncluded(t *testing.T) {
	root := t.TempDir()
	testutil.WriteClaudeTranscript(t, root, "p/s.jsonl",
		testutil.ClaudeLine(t, "user", "s", "u1", "2025-01-01T10:00:00Z", "[SUGGESTION MODE: foo]", ""),
	)

	opts := DefaultLoadOptions()
	set, err := NewClaudeLoader().Load(root, opts)
	if err != nil {
		t.Fatal(err)
	}
	if set.MessageCount() != 0 {
		t.Errorf("suggestion-mode message should be excluded by default")
	}

	opts.ExcludeSuggestionMode = false
	set, err = NewClaudeLoader().Load(root, opts)
	if err != nil {
		t.Fatal(err)
	}
	if set.MessageCount() != 1 {
		t.Errorf("suggestion-mode message should be present when not excluded, got %d", set.MessageCount())
	}
}

func TestClaudeLoader_Subagents(t *testing.T) {
	root := t.TempDir()
	testutil.WriteClaudeTranscript(t, root, "p/main.jsonl",
		testutil.ClaudeLine(t, "user", "main", "u1", "2025-01-01T10:00:00Z", "main prompt", ""),
		`{"type":"user","sessionId":"main","uuid":"u2","isSidechain":true,"timestamp":"2025-01-01T10:00:01Z","message":{"role":"user","content":"sidechain prompt"}}`,
	)
	testutil.WriteClaudeTranscript(t, root, "p/subagents/agent-1.jsonl",
		testutil.ClaudeLine(t, "user", "sub", "u3", "2025-01-01T10:00:02Z", "subagent prompt", ""),
	)

	set, err := NewClaudeLoader().Load(root, DefaultLoadOptions())
	if err != nil {
		t.Fatal(err)
	}
	if set.MessageCount() != 1 || len(set.Messages("main")) != 1 {
		t.Errorf("default load should keep only the main message, got %d messages in %v", set.MessageCount(), set.IDs())
	}

	opts := DefaultLoadOptions()
	opts.IncludeSubagentSessions = true
	set, err = NewClaudeLoader().Load(root, opts)
	if err != nil {
		t.Fatal(err)
	}
	if set.MessageCount() != 3 {
		t.Errorf("with subagents included got %d messages, want 3", set.MessageCount())
	}
}

func TestClaudeLoader_SystemAndDefaults(t *testing.T) {
	root := t.TempDir()
	testutil.WriteClaudeTranscript(t, root, "p/s.jsonl",
		`{"type":"system","uuid":"x1","timestamp":"bad-time","message":{"role":"system","content":"setup"}}`,
		`{"type":"user","uuid":"x2","message":{"role":"user","content":"no session"}}`,
	)

	set, err := NewClaudeLoader().Load(root, DefaultLoadOptions())
	if err != nil {
		t.Fatal(err)
	}
	msgs := set.Messages("unknown")
	if len(msgs) != 1 || msgs[0].Text != "no session" {
		t.Fatalf("expected one message in the unknown session, got %+v", msgs)
	}
	if msgs[0].Timestamp != nil {
		t.Errorf("missing timestamp should be nil, got %v", msgs[0].Timestamp)
	}

	opts := DefaultLoadOptions()
	opts.IncludeSystemMessages = true
	set, err = NewClaudeLoader().Load(root, opts)
	if err != nil {
		t.Fatal(err)
	}
	msgs = set.Messages("unknown")
	if len(msgs) != 2 || msgs[0].Role != RoleSystem {
		t.Fatalf("system message should be loaded when included, got %+v", msgs)
	}
	if msgs[0].Timestamp != nil {
		t.Errorf("unparseable timestamp should be nil, got %v", msgs[0].Timestamp)
	}
}

func TestClaudeLoader_MissingRoot(t *testing.T) {
	set, err := NewClaudeLoader().Load(filepath.Join(t.TempDir(), "nope"), DefaultLoadOptions())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if set.Len() != 0 {
		t.Errorf("missing root should yield an empty set")
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want *time.Time
	}{
		{"", nil},
		{"garbage", nil},
		{"2025-03-04T05:06:07Z", ptrTime(time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC))},
		{"2025-03-04T07:06:07+02:00", ptrTime(time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC))},
		{"2025-03-04T05:06:07.5", ptrTime(time.Date(2025, 3, 4, 5, 6, 7, 500000000, time.UTC))},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parseTimestamp(tt.in)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("parseTimestamp(%q) = %v, want nil", tt.in, got)
			case tt.want != nil && (got == nil || !got.Equal(*tt.want)):
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
			case got != nil && got.Location() != time.UTC:
				t.Errorf("parseTimestamp(%q) location = %v, want UTC", tt.in, got.Location())
			}
		})
	}
}

func ptrTime(t time.Time) *time.Time {
	return &t
}

func TestClaudeLoader_ToolResults(t *testing.T) {
	root := t.TempDir()
	testutil.WriteClaudeTranscript(t, root, "proj/s1.jsonl",
		testutil.ClaudeLine(t, "user", "s1", "u1", "2025-01-01T10:00:00Z", "list files", ""),
		testutil.ClaudeLine(t, "assistant", "s1", "a1", "2025-01-01T10:00:01Z", []interface{}{testutil.ToolUsePart("Bash")}, "claude-sonnet-4"),
		testutil.ClaudeLine(t, "user", "s1", "u2", "2025-01-01T10:00:02Z", []interface{}{
			testutil.ToolResultPart([]interface{}{map[string]interface{}{"type": "text", "text": "  a.go\nb.go  "}}),
		}, ""),
	)

	set, err := NewClaudeLoader().Load(root, DefaultLoadOptions())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	// tool-only messages have no text without tool output
	if n := len(set.Messages("s1")); n != 1 {
		t.Fatalf("default options kept %d messages, want 1", n)
	}

	opts := DefaultLoadOptions()
	opts.IncludeToolOutput = true
	opts.MaxToolOutputLength = 4
	set, err = NewClaudeLoader().Load(root, opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	msgs := set.Messages("s1")
	if len(msgs) != 2 {
		t.Fatalf("with tool output kept %d messages, want 2", len(msgs))
	}
	if msgs[1].Role != RoleUser || msgs[1].Text != "TOOL_OUTPUT: a.go..." {
		t.Errorf("tool result message = %+v", msgs[1])
	}
}

func TestExtractClaudeText_ToolResultString(t *testing.T) {
	raw := testutil.RawJSON(t, []interface{}{
		testutil.TextPart("see output"),
		testutil.ToolResultPart("done"),
	})
	opts := DefaultLoadOptions()
	opts.IncludeToolOutput = true

	if got := ExtractClaudeText(raw, opts); got != "see output\nTOOL_OUTPUT: done" {
		t.Errorf("ExtractClaudeText() = %q", got)
	}
}

func TestClaudeLoader_LenientFields(t *testing.T) {
	root := t.TempDir()
	testutil.WriteLines(t, filepath.Join(root, "p", "s.jsonl"),
		`{"type":"user","uuid":7,"sessionId":123,"timestamp":5,"message":{"role":"user","content":"numeric ids"}}`,
		`{"type":"assistant","uuid":"a1","sessionId":123,"timestamp":"2025-01-01T10:00:01Z","isSidechain":"no","message":{"role":"assistant","content":"still kept","model":42}}`,
		`{"type":"user","uuid":"u2","sessionId":"s","message":"not an object"}`,
		`{"type":"user","uuid":"u3","sessionId":"s","message":null}`,
	)

	set, err := NewClaudeLoader().Load(root, DefaultLoadOptions())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := set.IDs(); len(got) != 1 || got[0] != "123" {
		t.Fatalf("sessions = %v, want [123]", got)
	}

	msgs := set.Messages("123")
	if len(msgs) != 2 {
		t.Fatalf("kept %d messages, want 2", len(msgs))
	}
	if msgs[0].ID != "7" || msgs[0].Timestamp != nil {
		t.Errorf("first message = %+v, want id 7 and no timestamp", msgs[0])
	}
	if msgs[1].Text != "still kept" || msgs[1].Model != "" || msgs[1].Timestamp == nil {
		t.Errorf("second message = %+v", msgs[1])
	}
}
