package internal

import (
	"time"
)

// CreateTestPair creates a counted pair with fixed timestamps
func CreateTestPair(sessionID, prompt, answer string) PromptAnswerPair {
	promptTime := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	answerTime := promptTime.Add(30 * time.Second)
	pair := PromptAnswerPair{
		SessionID:    sessionID,
		SessionTitle: "Test Session",
		Prompt:       prompt,
		Answer:       answer,
		PromptTime:   &promptTime,
		AnswerTime:   &answerTime,
		PromptMeta:   PromptMeta{Source: SourceClaude},
		AnswerMeta: AnswerMeta{
			Model:    "claude-sonnet-4",
			Provider: "claude",
			Tools:    []string{"Bash", "Read"},
		},
	}
	NewTokenCounter(nil).CountPair(&pair)
	return pair
}

// CreateTestRecords creates records for two sessions: s1 with two pairs and
// s2 with one
func CreateTestRecords() []PairRecord {
	return ToRecords([]PromptAnswerPair{
		CreateTestPair("s1", "first prompt", "first answer"),
		CreateTestPair("s1", "second prompt", "second **bold** answer"),
		CreateTestPair("s2", "third prompt <tag>", "third answer & more"),
	})
}

// CreateTestMessage creates a message with a timestamp offset in seconds
// from a fixed base time
func CreateTestMessage(sessionID string, role Role, text string, offset int) RawMessage {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC).Add(time.Duration(offset) * time.Second)
	return RawMessage{
		SessionID: sessionID,
		Role:      role,
		Text:      text,
		Timestamp: &ts,
		Source:    SourceClaude,
	}
}
