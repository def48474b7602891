package testutil

import (
	"encoding/json"
	"path/filepath"
	"testing"
)

// ClaudeLine builds one Claude Code transcript line. content is a string or
// a list of content parts; an empty model is omitted.
func ClaudeLine(t *testing.T, recordType, sessionID, uuid, timestamp string, content interface{}, model string) string {
	t.Helper()
	message := map[string]interface{}{
		"role":    recordType,
		"content": content,
	}
	if model != "" {
		message["model"] = model
	}
	record := map[string]interface{}{
		"type":      recordType,
		"sessionId": sessionID,
		"uuid":      uuid,
		"timestamp": timestamp,
		"message":   message,
	}
	return string(JSONMarshal(t, record))
}

// TextPart builds a text content part
func TextPart(text string) map[string]interface{} {
	return map[string]interface{}{"type": "text", "text": text}
}

// ToolUsePart builds a tool_use content part
func ToolUsePart(name string) map[string]interface{} {
	return map[string]interface{}{"type": "tool_use", "id": "toolu_" + name, "name": name, "input": map[string]interface{}{}}
}

// ToolResultPart builds a tool_result content part
func ToolResultPart(content interface{}) map[string]interface{} {
	return map[string]interface{}{"type": "tool_result", "tool_use_id": "toolu_1", "content": content}
}

// WriteClaudeTranscript writes lines to root/rel
func WriteClaudeTranscript(t *testing.T, root, rel string, lines ...string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	WriteLines(t, path, lines...)
	return path
}

// OpenCodeMessage builds an opencode message metadata document
func OpenCodeMessage(id, sessionID, role string, createdMs int64) map[string]interface{} {
	return map[string]interface{}{
		"id":        id,
		"sessionID": sessionID,
		"role":      role,
		"time":      map[string]interface{}{"created": createdMs},
	}
}

// OpenCodeTextPart builds an opencode text part document
func OpenCodeTextPart(id, messageID, text string) map[string]interface{} {
	return map[string]interface{}{"id": id, "messageID": messageID, "type": "text", "text": text}
}

// OpenCodeToolPart builds an opencode tool part document
func OpenCodeToolPart(id, messageID, tool, output string) map[string]interface{} {
	return map[string]interface{}{
		"id":        id,
		"messageID": messageID,
		"type":      "tool",
		"tool":      tool,
		"state":     map[string]interface{}{"status": "completed", "output": output},
	}
}

// WriteOpenCodeSession writes root/storage/session/<project>/<id>.json
func WriteOpenCodeSession(t *testing.T, root, id, title string) {
	t.Helper()
	path := filepath.Join(root, "storage", "session", "project", id+".json")
	WriteJSONFile(t, path, map[string]interface{}{"id": id, "title": title})
}

// WriteOpenCodeMessage writes a message document and its parts. Part file
// names are the part ids.
func WriteOpenCodeMessage(t *testing.T, root string, msg map[string]interface{}, parts ...map[string]interface{}) {
	t.Helper()
	id, _ := msg["id"].(string)
	sessionID, _ := msg["sessionID"].(string)
	WriteJSONFile(t, filepath.Join(root, "storage", "message", sessionID, id+".json"), msg)
	for _, part := range parts {
		partID, _ := part["id"].(string)
		WriteJSONFile(t, filepath.Join(root, "storage", "part", id, partID+".json"), part)
	}
}

// RawJSON marshals v into a json.RawMessage
func RawJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	return json.RawMessage(JSONMarshal(t, v))
}
