package internal

import (
	"time"
)

// Role identifies who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Source identifies the tool whose on-disk log a message was read from
type Source string

const (
	SourceClaude   Source = "claude"
	SourceOpenCode Source = "opencode"
)

// RawMessage is a single message after source-specific normalization and
// before pairing. Empty strings stand in for missing metadata.
type RawMessage struct {
	ID        string
	SessionID string
	Role      Role
	Text      string
	Timestamp *time.Time
	Title     string
	Model     string
	Provider  string
	Agent     string
	Mode      string
	Tools     []string
	Source    Source
}

// PromptMeta is the metadata captured from the message that opened a turn
type PromptMeta struct {
	Source   Source
	Model    string
	Provider string
	Agent    string
	Mode     string
}

// AnswerMeta is the metadata accumulated across all assistant messages of a turn
type AnswerMeta struct {
	Model    string
	Provider string
	Agent    string
	Mode     string
	Tools    []string // sorted, unique
}

// PromptAnswerPair is one reconstructed turn
type PromptAnswerPair struct {
	SessionID    string
	SessionTitle string
	Prompt       string
	Answer       string
	PromptTime   *time.Time
	AnswerTime   *time.Time
	PromptMeta   PromptMeta
	AnswerMeta   AnswerMeta
	PromptTokens int
	AnswerTokens int
	TotalTokens  int
}

// SessionSet maps session ids to their messages, remembering the order in
// which sessions and messages were discovered.
type SessionSet struct {
	order    []string
	messages map[string][]RawMessage
}

// NewSessionSet creates an empty SessionSet
func NewSessionSet() *SessionSet {
	return &SessionSet{
		messages: make(map[string][]RawMessage),
	}
}

// Add appends a message to its session
func (s *SessionSet) Add(msg RawMessage) {
	if _, ok := s.messages[msg.SessionID]; !ok {
		s.order = append(s.order, msg.SessionID)
	}
	s.messages[msg.SessionID] = append(s.messages[msg.SessionID], msg)
}

// Merge appends every message of other, session by session
func (s *SessionSet) Merge(other *SessionSet) {
	if other == nil {
		return
	}
	for _, id := range other.order {
		for _, msg := range other.messages[id] {
			s.Add(msg)
		}
	}
}

// IDs returns session ids in discovery order
func (s *SessionSet) IDs() []string {
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

// Messages returns the messages of a session in discovery order
func (s *SessionSet) Messages(sessionID string) []RawMessage {
	return s.messages[sessionID]
}

// Len returns the number of sessions
func (s *SessionSet) Len() int {
	return len(s.order)
}

// MessageCount returns the number of messages across all sessions
func (s *SessionSet) MessageCount() int {
	total := 0
	for _, msgs := range s.messages {
		total += len(msgs)
	}
	return total
}
