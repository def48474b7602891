package internal

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// pairNamespace seeds deterministic pair ids
var pairNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("prompt-pairs/pair"))

// PairRecord is the flat serialized form of a PromptAnswerPair. Unknown
// metadata encodes as null; times are RFC 3339 in UTC.
type PairRecord struct {
	PairID         string   `json:"pair_id" yaml:"pair_id"`
	SessionID      string   `json:"session_id" yaml:"session_id"`
	SessionTitle   *string  `json:"session_title" yaml:"session_title"`
	Source         *string  `json:"source" yaml:"source"`
	Prompt         string   `json:"prompt" yaml:"prompt"`
	Answer         string   `json:"answer" yaml:"answer"`
	PromptTokens   int      `json:"prompt_tokens" yaml:"prompt_tokens"`
	AnswerTokens   int      `json:"answer_tokens" yaml:"answer_tokens"`
	TotalTokens    int      `json:"total_tokens" yaml:"total_tokens"`
	PromptTime     *string  `json:"prompt_time" yaml:"prompt_time"`
	AnswerTime     *string  `json:"answer_time" yaml:"answer_time"`
	PromptModel    *string  `json:"prompt_model" yaml:"prompt_model"`
	PromptProvider *string  `json:"prompt_provider" yaml:"prompt_provider"`
	AnswerModel    *string  `json:"answer_model" yaml:"answer_model"`
	AnswerProvider *string  `json:"answer_provider" yaml:"answer_provider"`
	AnswerAgent    *string  `json:"answer_agent" yaml:"answer_agent"`
	AnswerMode     *string  `json:"answer_mode" yaml:"answer_mode"`
	AnswerTools    []string `json:"answer_tools" yaml:"answer_tools"`
}

// PairID derives a stable id from the session, the pair's position in it and
// the prompt time, so re-exports of unchanged history keep their ids
func PairID(sessionID string, ordinal int, promptTime *time.Time) string {
	name := sessionID + "\x00" + strconv.Itoa(ordinal) + "\x00" + formatTime(promptTime)
	return uuid.NewSHA1(pairNamespace, []byte(name)).String()
}

// ToRecord flattens a pair. ordinal is the pair's index within its session.
func ToRecord(pair PromptAnswerPair, ordinal int) PairRecord {
	tools := lo.Uniq(pair.AnswerMeta.Tools)
	sort.Strings(tools)
	if tools == nil {
		tools = []string{}
	}

	return PairRecord{
		PairID:         PairID(pair.SessionID, ordinal, pair.PromptTime),
		SessionID:      pair.SessionID,
		SessionTitle:   lo.EmptyableToPtr(pair.SessionTitle),
		Source:         lo.EmptyableToPtr(string(pair.PromptMeta.Source)),
		Prompt:         pair.Prompt,
		Answer:         pair.Answer,
		PromptTokens:   pair.PromptTokens,
		AnswerTokens:   pair.AnswerTokens,
		TotalTokens:    pair.TotalTokens,
		PromptTime:     lo.EmptyableToPtr(formatTime(pair.PromptTime)),
		AnswerTime:     lo.EmptyableToPtr(formatTime(pair.AnswerTime)),
		PromptModel:    lo.EmptyableToPtr(pair.PromptMeta.Model),
		PromptProvider: lo.EmptyableToPtr(pair.PromptMeta.Provider),
		AnswerModel:    lo.EmptyableToPtr(pair.AnswerMeta.Model),
		AnswerProvider: lo.EmptyableToPtr(pair.AnswerMeta.Provider),
		AnswerAgent:    lo.EmptyableToPtr(pair.AnswerMeta.Agent),
		AnswerMode:     lo.EmptyableToPtr(pair.AnswerMeta.Mode),
		AnswerTools:    tools,
	}
}

// ToRecords flattens pairs, numbering them per session in order
func ToRecords(pairs []PromptAnswerPair) []PairRecord {
	ordinals := make(map[string]int)
	records := make([]PairRecord, 0, len(pairs))
	for _, pair := range pairs {
		records = append(records, ToRecord(pair, ordinals[pair.SessionID]))
		ordinals[pair.SessionID]++
	}
	return records
}

// ParsePairRecord decodes one JSON record
func ParsePairRecord(data []byte) (PairRecord, error) {
	var rec PairRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return PairRecord{}, fmt.Errorf("failed to parse pair record: %w", err)
	}
	if rec.AnswerTools == nil {
		rec.AnswerTools = []string{}
	}
	return rec, nil
}

// Pair converts the record back. Times that fail to parse become nil.
func (r PairRecord) Pair() PromptAnswerPair {
	return PromptAnswerPair{
		SessionID:    r.SessionID,
		SessionTitle: lo.FromPtr(r.SessionTitle),
		Prompt:       r.Prompt,
		Answer:       r.Answer,
		PromptTime:   parseTimestamp(lo.FromPtr(r.PromptTime)),
		AnswerTime:   parseTimestamp(lo.FromPtr(r.AnswerTime)),
		PromptMeta: PromptMeta{
			Source:   Source(lo.FromPtr(r.Source)),
			Model:    lo.FromPtr(r.PromptModel),
			Provider: lo.FromPtr(r.PromptProvider),
		},
		AnswerMeta: AnswerMeta{
			Model:    lo.FromPtr(r.AnswerModel),
			Provider: lo.FromPtr(r.AnswerProvider),
			Agent:    lo.FromPtr(r.AnswerAgent),
			Mode:     lo.FromPtr(r.AnswerMode),
			Tools:    r.AnswerTools,
		},
		PromptTokens: r.PromptTokens,
		AnswerTokens: r.AnswerTokens,
		TotalTokens:  r.TotalTokens,
	}
}

// formatTime renders t in UTC with a Z suffix, or "" when nil
func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
