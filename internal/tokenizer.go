package internal

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// fallbackEncodings are tried in order when neither a model nor an explicit
// encoding resolves
var fallbackEncodings = []string{"o200k_base", "cl100k_base"}

// Tokenizer counts tokens in a string
type Tokenizer interface {
	CountTokens(text string) int
	Name() string
}

// tiktokenTokenizer adapts a tiktoken encoding
type tiktokenTokenizer struct {
	name string
	enc  *tiktoken.Tiktoken
}

func (t *tiktokenTokenizer) CountTokens(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

func (t *tiktokenTokenizer) Name() string {
	return t.name
}

// LoadTokenizer resolves a tiktoken encoding: the encoding for model, then the
// named encoding, then o200k_base and cl100k_base. It fails only when none of
// them can be loaded (the BPE ranks are fetched and cached on first use).
func LoadTokenizer(model, encoding string) (Tokenizer, error) {
	if model != "" {
		enc, err := tiktoken.EncodingForModel(model)
		if err == nil {
			return &tiktokenTokenizer{name: "tiktoken:" + model, enc: enc}, nil
		}
		LogDebug("no encoding for model %s: %v", model, err)
	}

	names := fallbackEncodings
	if encoding != "" {
		names = append([]string{encoding}, fallbackEncodings...)
	}

	var lastErr error
	for _, name := range names {
		enc, err := tiktoken.GetEncoding(name)
		if err != nil {
			LogDebug("encoding %s unavailable: %v", name, err)
			lastErr = err
			continue
		}
		return &tiktokenTokenizer{name: "tiktoken:" + name, enc: enc}, nil
	}
	return nil, fmt.Errorf("no tiktoken encoding available: %w", lastErr)
}

// TokenCounter counts tokens with a Tokenizer, or by whitespace-separated
// words when none is available
type TokenCounter struct {
	tokenizer Tokenizer
}

// NewTokenCounter creates a counter. A nil tokenizer selects the whitespace
// approximation.
func NewTokenCounter(tokenizer Tokenizer) *TokenCounter {
	return &TokenCounter{tokenizer: tokenizer}
}

// Count returns the token count of text; empty text is 0
func (c *TokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	if c == nil || c.tokenizer == nil {
		return len(strings.Fields(text))
	}
	return c.tokenizer.CountTokens(text)
}

// Approximate reports whether counts are whitespace approximations
func (c *TokenCounter) Approximate() bool {
	return c == nil || c.tokenizer == nil
}

// Name describes the counting method
func (c *TokenCounter) Name() string {
	if c.Approximate() {
		return "whitespace"
	}
	return c.tokenizer.Name()
}

// CountPair fills the token fields of a pair
func (c *TokenCounter) CountPair(pair *PromptAnswerPair) {
	pair.PromptTokens = c.Count(pair.Prompt)
	pair.AnswerTokens = c.Count(pair.Answer)
	pair.TotalTokens = pair.PromptTokens + pair.AnswerTokens
}
