package internal

import (
	"os"
	"strings"
)

// MessageLoader reads one tool's on-disk history into a SessionSet
type MessageLoader interface {
	Source() Source
	Load(root string, opts LoadOptions) (*SessionSet, error)
}

// NewLoader returns the loader for a source
func NewLoader(source Source) (MessageLoader, error) {
	switch source {
	case SourceClaude:
		return NewClaudeLoader(), nil
	case SourceOpenCode:
		return NewOpenCodeLoader(), nil
	default:
		return nil, &ConfigError{Field: "source", Err: errUnknownSource(source)}
	}
}

// roleAllowed reports whether a role survives the system-message option
func roleAllowed(role string, opts LoadOptions) bool {
	if role == string(RoleUser) || role == string(RoleAssistant) {
		return true
	}
	return opts.IncludeSystemMessages && role != ""
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func orUnknown(sessionID string) string {
	if strings.TrimSpace(sessionID) == "" {
		return unknownSessionID
	}
	return sessionID
}

const unknownSessionID = "unknown"
