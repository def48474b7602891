package internal

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultMaxChunkTokens = 12000
	DefaultMaxChunkPairs  = 80
)

// ChunkTemplate is the instruction block that opens every chunk prompt
const ChunkTemplate = `You are analyzing prompt/answer pairs from an AI coding assistant.
Your tasks:
1) Identify instructions that should become durable rules in AGENTS.md or CLAUDE.md.
2) Identify repeated workflows that should become skills (slash commands).
3) Flag any corrections or constraints that should be enforced globally.

Return JSON with keys:
{
  "rules": [{"text": "...", "reason": "..."}],
  "skills": [{"name": "...", "reason": "..."}],
  "notes": ["..."]
}
`

// ChunkOptions bounds chunk size
type ChunkOptions struct {
	MaxTotalTokens int
	MaxPairs       int
	IncludeTimes   bool
	Template       string // ChunkTemplate when empty
}

// DefaultChunkOptions returns the default budgets
func DefaultChunkOptions() ChunkOptions {
	return ChunkOptions{
		MaxTotalTokens: DefaultMaxChunkTokens,
		MaxPairs:       DefaultMaxChunkPairs,
	}
}

// Chunk is one LLM-ready batch of pairs
type Chunk struct {
	ID        int    `json:"chunk_id" yaml:"chunk_id"`
	PairCount int    `json:"pair_count" yaml:"pair_count"`
	TokenSum  int    `json:"token_sum" yaml:"token_sum"`
	CreatedAt string `json:"created_at" yaml:"created_at"`
	Prompt    string `json:"prompt" yaml:"prompt"`
}

// ChunkPairs groups records in order. A chunk is closed before a pair that
// would push it over the token budget or the pair limit; a single pair larger
// than the budget still gets a chunk of its own.
func ChunkPairs(records []PairRecord, opts ChunkOptions, now time.Time) []Chunk {
	var (
		chunks  []Chunk
		current []PairRecord
		tokens  int
	)
	createdAt := now.UTC().Format(time.RFC3339Nano)

	flush := func() {
		chunks = append(chunks, Chunk{
			ID:        len(chunks) + 1,
			PairCount: len(current),
			TokenSum:  tokens,
			CreatedAt: createdAt,
			Prompt:    BuildChunkText(current, opts),
		})
		current = nil
		tokens = 0
	}

	for _, rec := range records {
		if len(current) > 0 && (tokens+rec.TotalTokens > opts.MaxTotalTokens || len(current) >= opts.MaxPairs) {
			flush()
		}
		current = append(current, rec)
		tokens += rec.TotalTokens
	}
	if len(current) > 0 {
		flush()
	}
	return chunks
}

// BuildChunkText renders the template followed by numbered pair blocks
func BuildChunkText(records []PairRecord, opts ChunkOptions) string {
	template := opts.Template
	if template == "" {
		template = ChunkTemplate
	}

	lines := []string{template, "", "---", ""}
	for i, rec := range records {
		lines = append(lines, fmt.Sprintf("PAIR %d:", i+1))
		if opts.IncludeTimes {
			lines = append(lines,
				"prompt_time: "+nullable(rec.PromptTime),
				"answer_time: "+nullable(rec.AnswerTime),
			)
		}
		lines = append(lines, "PROMPT:", rec.Prompt, "ANSWER:", rec.Answer, "", "---", "")
	}
	return strings.TrimSpace(strings.Join(lines, "\n")) + "\n"
}

func nullable(s *string) string {
	if s == nil {
		return "null"
	}
	return *s
}
