package internal

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	openCodeDBName   = "opencode.db"
	openCodeFileExt  = ".json"
	openCodePartText = "text"
	openCodePartTool = "tool"
)

// openCodeMessage is the metadata document of one opencode message. Fields
// whose type varies between opencode versions are kept raw.
type openCodeMessage struct {
	ID         string          `json:"id"`
	SessionID  string          `json:"sessionID"`
	Role       string          `json:"role"`
	ModelID    json.RawMessage `json:"modelID"`
	ProviderID json.RawMessage `json:"providerID"`
	Model      json.RawMessage `json:"model"`
	Agent      json.RawMessage `json:"agent"`
	Mode       json.RawMessage `json:"mode"`
	Time       json.RawMessage `json:"time"`
}

// openCodePart is one content part of an opencode message
type openCodePart struct {
	Type  string          `json:"type"`
	Text  json.RawMessage `json:"text"`
	Tool  json.RawMessage `json:"tool"`
	State json.RawMessage `json:"state"`
}

// OpenCodeLoader reads opencode history from its data directory, preferring
// opencode.db and falling back to the split JSON storage tree
type OpenCodeLoader struct {
	// CopyDatabase reads a temporary copy of opencode.db instead of the live file
	CopyDatabase bool
}

// NewOpenCodeLoader creates a new OpenCodeLoader
func NewOpenCodeLoader() *OpenCodeLoader {
	return &OpenCodeLoader{}
}

// Source returns SourceOpenCode
func (l *OpenCodeLoader) Source() Source {
	return SourceOpenCode
}

// Load reads root. A missing root yields an empty set.
func (l *OpenCodeLoader) Load(root string, opts LoadOptions) (*SessionSet, error) {
	if !dirExists(root) {
		LogDebug("opencode root %s does not exist", root)
		return NewSessionSet(), nil
	}

	dbPath := filepath.Join(root, openCodeDBName)
	if _, err := os.Stat(dbPath); err == nil {
		set, err := l.loadDB(dbPath, opts)
		switch {
		case err != nil:
			LogDebug("opencode database unreadable, falling back to storage tree: %v", err)
		case set.MessageCount() == 0:
			LogDebug("opencode database %s has no messages, falling back to storage tree", dbPath)
		default:
			return set, nil
		}
	}

	return l.loadStorage(filepath.Join(root, "storage"), opts)
}

func (l *OpenCodeLoader) loadDB(dbPath string, opts LoadOptions) (*SessionSet, error) {
	if !l.CopyDatabase {
		return LoadOpenCodeDB(dbPath, opts)
	}
	copied, cleanup, err := CopyDatabase(dbPath)
	if err != nil {
		return nil, &StorageError{Path: dbPath, Op: "copy", Err: err}
	}
	defer cleanup()
	return LoadOpenCodeDB(copied, opts)
}

func (l *OpenCodeLoader) loadStorage(storageDir string, opts LoadOptions) (*SessionSet, error) {
	set := NewSessionSet()
	messageDir := filepath.Join(storageDir, "message")
	partDir := filepath.Join(storageDir, "part")

	titles := loadOpenCodeTitles(filepath.Join(storageDir, "session"))
	if !dirExists(messageDir) {
		return set, nil
	}

	files, err := findJSONFiles(messageDir)
	if err != nil {
		return nil, &StorageError{Path: messageDir, Op: "walk", Err: err}
	}

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			LogDebug("%v", &StorageError{Path: path, Op: "read", Err: err})
			continue
		}
		var doc openCodeMessage
		if err := json.Unmarshal(data, &doc); err != nil {
			LogDebug("%v", &ParseError{Source: string(SourceOpenCode), Key: path, Err: err})
			continue
		}

		parts := loadOpenCodePartFiles(partDir, doc.ID)
		if msg, ok := openCodeToMessage(doc, parts, titles, opts); ok {
			set.Add(msg)
		}
	}

	LogDebug("opencode: %d messages in %d sessions from %d files", set.MessageCount(), set.Len(), len(files))
	return set, nil
}

// loadOpenCodeTitles maps session id to title from session documents
func loadOpenCodeTitles(sessionDir string) map[string]string {
	titles := make(map[string]string)
	if !dirExists(sessionDir) {
		return titles
	}

	files, err := findJSONFiles(sessionDir)
	if err != nil {
		LogDebug("%v", &StorageError{Path: sessionDir, Op: "walk", Err: err})
		return titles
	}

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var doc struct {
			ID    json.RawMessage `json:"id"`
			Title json.RawMessage `json:"title"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			continue
		}
		id, title := stringValue(doc.ID), stringValue(doc.Title)
		if id != "" && title != "" {
			titles[id] = title
		}
	}
	return titles
}

// loadOpenCodePartFiles reads <partDir>/<messageID>/*.json ordered by file name
func loadOpenCodePartFiles(partDir, messageID string) []openCodePart {
	if messageID == "" {
		return nil
	}
	dir := filepath.Join(partDir, messageID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), openCodeFileExt) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	parts := make([]openCodePart, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		var part openCodePart
		if err := json.Unmarshal(data, &part); err != nil {
			LogDebug("%v", &ParseError{Source: string(SourceOpenCode), Key: filepath.Join(dir, name), Err: err})
			continue
		}
		parts = append(parts, part)
	}
	return parts
}

func findJSONFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), openCodeFileExt) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// openCodeToMessage normalizes a message document and its parts, reporting
// false when the message is filtered out
func openCodeToMessage(doc openCodeMessage, parts []openCodePart, titles map[string]string, opts LoadOptions) (RawMessage, bool) {
	if !roleAllowed(doc.Role, opts) {
		return RawMessage{}, false
	}

	text, tools := openCodePartsText(parts, opts)
	if ShouldDrop(text, opts) {
		return RawMessage{}, false
	}
	if doc.Role != string(RoleAssistant) {
		tools = nil
	}

	model, provider := stringValue(doc.ModelID), stringValue(doc.ProviderID)
	if model == "" {
		var nested struct {
			ModelID    json.RawMessage `json:"modelID"`
			ProviderID json.RawMessage `json:"providerID"`
		}
		if len(doc.Model) > 0 && json.Unmarshal(doc.Model, &nested) == nil {
			model = stringValue(nested.ModelID)
			provider = stringValue(nested.ProviderID)
		}
	}

	sessionID := orUnknown(doc.SessionID)
	return RawMessage{
		ID:        doc.ID,
		SessionID: sessionID,
		Role:      Role(doc.Role),
		Text:      text,
		Timestamp: openCodeCreated(doc.Time),
		Title:     titles[sessionID],
		Model:     model,
		Provider:  provider,
		Agent:     stringValue(doc.Agent),
		Mode:      stringValue(doc.Mode),
		Tools:     tools,
		Source:    SourceOpenCode,
	}, true
}

// openCodePartsText joins trimmed text parts (and tool output when enabled)
// and collects tool names
func openCodePartsText(parts []openCodePart, opts LoadOptions) (string, []string) {
	var texts, tools []string
	for _, part := range parts {
		switch part.Type {
		case openCodePartText:
			if text := strings.TrimSpace(stringValue(part.Text)); text != "" {
				texts = append(texts, text)
			}
		case openCodePartTool:
			if name := stringValue(part.Tool); name != "" {
				tools = append(tools, name)
			}
			if !opts.IncludeToolOutput || len(part.State) == 0 {
				continue
			}
			var state struct {
				Output json.RawMessage `json:"output"`
			}
			if json.Unmarshal(part.State, &state) != nil {
				continue
			}
			if out := FormatToolOutput(stringValue(state.Output), opts.MaxToolOutputLength); out != "" {
				texts = append(texts, out)
			}
		}
	}
	return strings.Join(texts, "\n"), tools
}

// openCodeCreated converts time.created (integer epoch milliseconds) to UTC.
// Missing or non-integer values yield nil.
func openCodeCreated(raw json.RawMessage) *time.Time {
	if len(raw) == 0 {
		return nil
	}
	var block struct {
		Created json.Number `json:"created"`
	}
	if err := json.Unmarshal(raw, &block); err != nil || block.Created == "" {
		return nil
	}
	ms, err := block.Created.Int64()
	if err != nil {
		return nil
	}
	ts := time.UnixMilli(ms).UTC()
	return &ts
}

func openCodeKey(table, id string) string {
	return fmt.Sprintf("%s:%s", table, id)
}
