package internal

import (
	"context"
	"time"
)

// SourceRoot pairs a loader with the directory it reads
type SourceRoot struct {
	Loader MessageLoader
	Root   string
}

// SessionSummary describes one session after pairing
type SessionSummary struct {
	ID           string
	Source       Source
	Title        string
	Messages     int
	Pairs        int
	LastActivity *time.Time
}

// Result is the output of a pipeline run
type Result struct {
	Pairs         []PromptAnswerPair
	Sessions      []SessionSummary
	MessageCounts map[Source]int
}

// Pipeline loads every source, merges sessions and turns them into counted
// prompt/answer pairs
type Pipeline struct {
	Sources []SourceRoot
	Options LoadOptions
	Counter *TokenCounter
	// SessionID restricts output to one session when set
	SessionID string
}

// Run executes the pipeline. It returns ErrNoData when no source produced a
// message. Cancellation is checked between sources and between sessions.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	merged := NewSessionSet()
	result := &Result{MessageCounts: make(map[Source]int)}

	for _, src := range p.Sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		source := src.Loader.Source()
		set, err := src.Loader.Load(src.Root, p.Options)
		if err != nil {
			LogWarn("skipping %s source %s: %v", source, src.Root, err)
			continue
		}
		if set.MessageCount() == 0 {
			LogInfo("no %s messages found under %s", source, src.Root)
		}
		result.MessageCounts[source] += set.MessageCount()
		merged.Merge(set)
	}

	if merged.MessageCount() == 0 {
		return nil, ErrNoData
	}

	dedup := NewDeduplicator()
	for _, sessionID := range merged.IDs() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.SessionID != "" && sessionID != p.SessionID {
			continue
		}

		msgs := SortSession(dedup.Deduplicate(merged.Messages(sessionID)))
		pairs := PairSession(sessionID, msgs)
		for i := range pairs {
			p.Counter.CountPair(&pairs[i])
		}

		result.Pairs = append(result.Pairs, pairs...)
		result.Sessions = append(result.Sessions, summarizeSession(sessionID, msgs, len(pairs)))
	}

	LogDebug("paired %d sessions into %d pairs", len(result.Sessions), len(result.Pairs))
	return result, nil
}

// summarizeSession expects msgs sorted by timestamp
func summarizeSession(sessionID string, msgs []RawMessage, pairs int) SessionSummary {
	summary := SessionSummary{
		ID:       sessionID,
		Messages: len(msgs),
		Pairs:    pairs,
	}
	for _, msg := range msgs {
		if summary.Source == "" {
			summary.Source = msg.Source
		}
		if summary.Title == "" {
			summary.Title = msg.Title
		}
		if msg.Timestamp != nil {
			summary.LastActivity = msg.Timestamp
		}
	}
	return summary
}
