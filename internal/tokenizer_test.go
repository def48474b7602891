package internal

import (
	"strings"
	"testing"
)

// runeTokenizer counts one token per rune
type runeTokenizer struct{}

func (runeTokenizer) CountTokens(text string) int { return len([]rune(text)) }
func (runeTokenizer) Name() string                { return "runes" }

func TestTokenCounter_Whitespace(t *testing.T) {
	c := NewTokenCounter(nil)

	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"alpha beta  gamma", 3},
		{"  padded\n\tlines  ", 2},
		{"   ", 0},
	}
	for _, tt := range tests {
		if got := c.Count(tt.text); got != tt.want {
			t.Errorf("Count(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}

	if !c.Approximate() {
		t.Error("counter without tokenizer should be approximate")
	}
	if c.Name() != "whitespace" {
		t.Errorf("Name() = %q, want whitespace", c.Name())
	}
}

func TestTokenCounter_Tokenizer(t *testing.T) {
	c := NewTokenCounter(runeTokenizer{})

	if got := c.Count("héllo"); got != 5 {
		t.Errorf("Count() = %d, want 5", got)
	}
	if got := c.Count(""); got != 0 {
		t.Errorf("Count(\"\") = %d, want 0", got)
	}
	if c.Approximate() {
		t.Error("counter with tokenizer should not be approximate")
	}
	if c.Name() != "runes" {
		t.Errorf("Name() = %q", c.Name())
	}
}

func TestTokenCounter_CountPair(t *testing.T) {
	pair := PromptAnswerPair{Prompt: "one two", Answer: strings.Repeat("w ", 4)}
	NewTokenCounter(nil).CountPair(&pair)

	if pair.PromptTokens != 2 || pair.AnswerTokens != 4 || pair.TotalTokens != 6 {
		t.Errorf("CountPair() = %d/%d/%d, want 2/4/6", pair.PromptTokens, pair.AnswerTokens, pair.TotalTokens)
	}
}

func TestTokenCounter_Nil(t *testing.T) {
	var c *TokenCounter
	if got := c.Count("a b"); got != 2 {
		t.Errorf("nil counter Count() = %d, want 2", got)
	}
	if !c.Approximate() {
		t.Error("nil counter should be approximate")
	}
}
