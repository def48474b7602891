package internal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	claudeFileExt   = ".jsonl"
	subagentsDir    = "subagents"
	maxClaudeLineSz = 10 * 1024 * 1024
)

// claudeRecord is a single line of a Claude Code transcript. Scalars stay raw
// so a field of an unexpected type blanks that field instead of the line.
type claudeRecord struct {
	Type        json.RawMessage `json:"type"`
	UUID        json.RawMessage `json:"uuid"`
	SessionID   json.RawMessage `json:"sessionId"`
	Timestamp   json.RawMessage `json:"timestamp"`
	IsSidechain json.RawMessage `json:"isSidechain"`
	Message     json.RawMessage `json:"message"`
}

type claudeMessage struct {
	Role    json.RawMessage `json:"role"`
	Content json.RawMessage `json:"content"`
	Model   json.RawMessage `json:"model"`
}

// ClaudeLoader reads Claude Code JSONL transcripts from a projects directory
type ClaudeLoader struct{}

// NewClaudeLoader creates a new ClaudeLoader
func NewClaudeLoader() *ClaudeLoader {
	return &ClaudeLoader{}
}

// Source returns SourceClaude
func (l *ClaudeLoader) Source() Source {
	return SourceClaude
}

// Load walks root for *.jsonl files. A missing root yields an empty set.
func (l *ClaudeLoader) Load(root string, opts LoadOptions) (*SessionSet, error) {
	set := NewSessionSet()
	if !dirExists(root) {
		LogDebug("claude root %s does not exist", root)
		return set, nil
	}

	files, err := findClaudeTranscripts(root, opts.IncludeSubagentSessions)
	if err != nil {
		return nil, &StorageError{Path: root, Op: "walk", Err: err}
	}

	for _, path := range files {
		if err := l.loadFile(path, opts, set); err != nil {
			LogDebug("skipping %v", err)
		}
	}

	LogDebug("claude: %d messages in %d sessions from %d files", set.MessageCount(), set.Len(), len(files))
	return set, nil
}

// findClaudeTranscripts returns transcript paths in lexical walk order
func findClaudeTranscripts(root string, includeSubagents bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable directories are skipped, not fatal
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if !includeSubagents && path != root && d.Name() == subagentsDir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), claudeFileExt) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func (l *ClaudeLoader) loadFile(path string, opts LoadOptions, set *SessionSet) error {
	f, err := os.Open(path)
	if err != nil {
		return &StorageError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), maxClaudeLineSz)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec claudeRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			LogDebug("%v", &ParseError{Source: string(SourceClaude), Key: fmt.Sprintf("%s:%d", path, lineNo), Err: err})
			continue
		}

		if msg, ok := claudeRecordToMessage(rec, opts); ok {
			set.Add(msg)
		}
	}
	if err := scanner.Err(); err != nil {
		return &StorageError{Path: path, Op: "read", Err: err}
	}
	return nil
}

// claudeRecordToMessage normalizes a transcript record, reporting false when
// the record is filtered out
func claudeRecordToMessage(rec claudeRecord, opts LoadOptions) (RawMessage, bool) {
	recType := stringValue(rec.Type)
	if !opts.IncludeSystemMessages && recType != string(RoleUser) && recType != string(RoleAssistant) {
		return RawMessage{}, false
	}
	var message claudeMessage
	if len(rec.Message) == 0 || string(rec.Message) == "null" || json.Unmarshal(rec.Message, &message) != nil {
		return RawMessage{}, false
	}
	if string(rec.IsSidechain) == "true" && !opts.IncludeSubagentSessions {
		return RawMessage{}, false
	}

	role := stringValue(message.Role)
	if !roleAllowed(role, opts) {
		return RawMessage{}, false
	}

	text := ExtractClaudeText(message.Content, opts)
	if ShouldDrop(text, opts) {
		return RawMessage{}, false
	}

	var tools []string
	if role == string(RoleAssistant) {
		tools = ExtractClaudeTools(message.Content)
	}

	model := stringValue(message.Model)
	provider := ""
	if model != "" {
		provider = string(SourceClaude)
	}

	return RawMessage{
		ID:        idValue(rec.UUID),
		SessionID: orUnknown(idValue(rec.SessionID)),
		Role:      Role(role),
		Text:      text,
		Timestamp: parseTimestamp(stringValue(rec.Timestamp)),
		Model:     model,
		Provider:  provider,
		Tools:     tools,
		Source:    SourceClaude,
	}, true
}

// stringValue returns raw decoded as a string, or "" for any other JSON type
func stringValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// idValue is stringValue that also accepts numeric ids in their literal form
func idValue(raw json.RawMessage) string {
	if s := stringValue(raw); s != "" {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return ""
	}
	return n.String()
}

// parseTimestamp parses an ISO-8601 timestamp, treating zone-less values as
// UTC. Unparseable values yield nil.
func parseTimestamp(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999"} {
		if ts, err := time.Parse(layout, value); err == nil {
			utc := ts.UTC()
			return &utc
		}
	}
	return nil
}
