package internal

import (
	"sort"
	"strings"
	"time"
)

// pairBuilder accumulates one open turn
type pairBuilder struct {
	prompt      string
	promptTime  *time.Time
	title       string
	promptMeta  PromptMeta
	answerParts []string
	answerTime  *time.Time
	answerMeta  AnswerMeta
	tools       map[string]struct{}
}

func newPairBuilder(msg RawMessage) *pairBuilder {
	return &pairBuilder{
		prompt:     msg.Text,
		promptTime: msg.Timestamp,
		title:      msg.Title,
		promptMeta: PromptMeta{
			Source:   msg.Source,
			Model:    msg.Model,
			Provider: msg.Provider,
			Agent:    msg.Agent,
			Mode:     msg.Mode,
		},
		tools: make(map[string]struct{}),
	}
}

func (b *pairBuilder) addAnswer(msg RawMessage) {
	b.answerParts = append(b.answerParts, msg.Text)
	b.answerTime = msg.Timestamp
	if msg.Model != "" {
		b.answerMeta.Model = msg.Model
	}
	if msg.Provider != "" {
		b.answerMeta.Provider = msg.Provider
	}
	if msg.Agent != "" {
		b.answerMeta.Agent = msg.Agent
	}
	if msg.Mode != "" {
		b.answerMeta.Mode = msg.Mode
	}
	for _, tool := range msg.Tools {
		b.tools[tool] = struct{}{}
	}
}

func (b *pairBuilder) complete() bool {
	return len(b.answerParts) > 0
}

func (b *pairBuilder) build(sessionID string) PromptAnswerPair {
	meta := b.answerMeta
	meta.Tools = make([]string, 0, len(b.tools))
	for tool := range b.tools {
		meta.Tools = append(meta.Tools, tool)
	}
	sort.Strings(meta.Tools)

	return PromptAnswerPair{
		SessionID:    sessionID,
		SessionTitle: b.title,
		Prompt:       b.prompt,
		Answer:       strings.Join(b.answerParts, "\n"),
		PromptTime:   b.promptTime,
		AnswerTime:   b.answerTime,
		PromptMeta:   b.promptMeta,
		AnswerMeta:   meta,
	}
}

// TurnPairer folds a session's ordered messages into prompt/answer pairs.
// It is idle while open is nil and accumulating otherwise.
type TurnPairer struct {
	sessionID string
	open      *pairBuilder
	pairs     []PromptAnswerPair
}

// NewTurnPairer creates an idle pairer for one session
func NewTurnPairer(sessionID string) *TurnPairer {
	return &TurnPairer{sessionID: sessionID}
}

// Feed applies one message. A user message closes the open turn if it has
// an answer, otherwise it replaces the pending prompt. Assistant messages
// are dropped while idle; every other role is ignored.
func (p *TurnPairer) Feed(msg RawMessage) {
	switch msg.Role {
	case RoleUser:
		if p.open != nil && p.open.complete() {
			p.pairs = append(p.pairs, p.open.build(p.sessionID))
		}
		p.open = newPairBuilder(msg)
	case RoleAssistant:
		if p.open == nil {
			return
		}
		p.open.addAnswer(msg)
	}
}

// Finish flushes the open turn if it has an answer and returns all pairs.
// The pairer is idle afterwards.
func (p *TurnPairer) Finish() []PromptAnswerPair {
	if p.open != nil && p.open.complete() {
		p.pairs = append(p.pairs, p.open.build(p.sessionID))
	}
	p.open = nil

	pairs := p.pairs
	p.pairs = nil
	return pairs
}

// PairSession pairs one session's messages, which must already be ordered
func PairSession(sessionID string, msgs []RawMessage) []PromptAnswerPair {
	pairer := NewTurnPairer(sessionID)
	for _, msg := range msgs {
		pairer.Feed(msg)
	}
	return pairer.Finish()
}
