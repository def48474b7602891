package internal

import (
	"encoding/json"
	"strings"
	"unicode"
)

const (
	toolOutputPrefix     = "TOOL_OUTPUT: "
	truncationMarker     = "..."
	suggestionModeMarker = "[SUGGESTION MODE:"
	ideOpenedFileMarker  = "<ide_opened_file>"
	interruptedMarker    = "[Request interrupted by user for tool use]"
)

// contentPart is one element of a structured message content list
type contentPart struct {
	Type    string          `json:"type"`
	Text    string          `json:"text,omitempty"`
	Name    string          `json:"name,omitempty"`
	Content json.RawMessage `json:"content,omitempty"`
}

// decodeParts decodes a content list, skipping elements that are not objects
func decodeParts(raw json.RawMessage) ([]contentPart, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}

	parts := make([]contentPart, 0, len(items))
	for _, item := range items {
		var part contentPart
		if err := json.Unmarshal(item, &part); err != nil {
			continue
		}
		parts = append(parts, part)
	}
	return parts, true
}

// ExtractClaudeText flattens Claude message content into plain text.
// Plain string content is returned unchanged. For part lists only text parts
// are kept, plus tool results when opts.IncludeToolOutput is set.
func ExtractClaudeText(raw json.RawMessage, opts LoadOptions) string {
	if len(raw) == 0 {
		return ""
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}

	parts, ok := decodeParts(raw)
	if !ok {
		return ""
	}

	var textParts []string
	for _, part := range parts {
		switch part.Type {
		case "text":
			if part.Text == "" {
				continue
			}
			if !opts.IncludeIDEEvents && strings.Contains(part.Text, ideOpenedFileMarker) {
				continue
			}
			if strings.HasPrefix(strings.TrimSpace(part.Text), interruptedMarker) {
				continue
			}
			textParts = append(textParts, part.Text)
		case "tool_result":
			if !opts.IncludeToolOutput {
				continue
			}
			if out := FormatToolOutput(toolResultText(part.Content), opts.MaxToolOutputLength); out != "" {
				textParts = append(textParts, out)
			}
		}
	}

	return strings.Join(textParts, "\n")
}

// ExtractClaudeTools returns the names of tool_use parts in order of appearance
func ExtractClaudeTools(raw json.RawMessage) []string {
	parts, ok := decodeParts(raw)
	if !ok {
		return nil
	}

	var tools []string
	for _, part := range parts {
		if part.Type == "tool_use" && part.Name != "" {
			tools = append(tools, part.Name)
		}
	}
	return tools
}

// toolResultText flattens a tool_result payload: either a string or a list
// of objects carrying text or content strings
func toolResultText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return ""
	}

	var chunks []string
	for _, item := range items {
		// each field is read on its own; a non-string one is skipped
		var child struct {
			Text    json.RawMessage `json:"text"`
			Content json.RawMessage `json:"content"`
		}
		if err := json.Unmarshal(item, &child); err != nil {
			continue
		}
		if text, ok := asString(child.Text); ok {
			chunks = append(chunks, text)
		}
		if content, ok := asString(child.Content); ok {
			chunks = append(chunks, content)
		}
	}
	return strings.Join(chunks, "\n")
}

// asString decodes raw when it is a JSON string
func asString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// FormatToolOutput trims tool output, truncates it to maxLen characters
// (appending "...") and adds the TOOL_OUTPUT prefix. Empty output yields "".
// maxLen <= 0 disables truncation.
func FormatToolOutput(output string, maxLen int) string {
	out := strings.TrimSpace(output)
	if out == "" {
		return ""
	}
	if maxLen > 0 {
		if runes := []rune(out); len(runes) > maxLen {
			out = string(runes[:maxLen]) + truncationMarker
		}
	}
	return toolOutputPrefix + out
}

// DropReason returns why extracted text must not be emitted, or "" when the
// message is kept
func DropReason(text string, opts LoadOptions) string {
	trimmed := strings.TrimSpace(text)
	switch {
	case opts.ExcludeSuggestionMode && strings.HasPrefix(strings.TrimLeftFunc(text, unicode.IsSpace), suggestionModeMarker):
		return "suggestion mode"
	case !opts.IncludeIDEEvents && strings.Contains(text, ideOpenedFileMarker):
		return "ide event"
	case strings.HasPrefix(trimmed, interruptedMarker):
		return "interrupted"
	case trimmed == "":
		return "empty"
	}
	return ""
}

// ShouldDrop reports whether extracted text is filtered out
func ShouldDrop(text string, opts LoadOptions) bool {
	return DropReason(text, opts) != ""
}
