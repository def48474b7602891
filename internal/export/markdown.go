package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/Joachimzeelmaekers/ai-tooling/internal"
)

// MarkdownExporter renders records grouped by session
type MarkdownExporter struct {
	// ApproximateTokens marks counts as whitespace approximations
	ApproximateTokens bool
}

// Export writes records to w. Sessions appear in first-seen order.
func (e *MarkdownExporter) Export(records []internal.PairRecord, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# Prompt/answer pairs\n\n")
	_, _ = fmt.Fprintf(w, "**Pairs:** %d\n\n", len(records))
	if e.ApproximateTokens {
		_, _ = fmt.Fprintf(w, "> Token counts are whitespace approximations, tiktoken was not used.\n\n")
	}

	var order []string
	bySession := make(map[string][]internal.PairRecord)
	for _, rec := range records {
		if _, ok := bySession[rec.SessionID]; !ok {
			order = append(order, rec.SessionID)
		}
		bySession[rec.SessionID] = append(bySession[rec.SessionID], rec)
	}

	for _, sessionID := range order {
		pairs := bySession[sessionID]
		first := pairs[0]

		heading := sessionID
		if first.SessionTitle != nil {
			heading = *first.SessionTitle
		}
		_, _ = fmt.Fprintf(w, "---\n\n## %s\n\n", heading)
		_, _ = fmt.Fprintf(w, "**Session:** %s  \n", sessionID)
		if first.Source != nil {
			_, _ = fmt.Fprintf(w, "**Source:** %s  \n", *first.Source)
		}
		_, _ = fmt.Fprintf(w, "**Pairs:** %d\n\n", len(pairs))

		for i, rec := range pairs {
			writePair(w, i+1, rec, e.ApproximateTokens)
		}
	}

	return nil
}

func writePair(w io.Writer, n int, rec internal.PairRecord, approximate bool) {
	_, _ = fmt.Fprintf(w, "### Pair %d\n\n", n)

	var meta []string
	if rec.PromptTime != nil {
		meta = append(meta, "prompt "+*rec.PromptTime)
	}
	if rec.AnswerTime != nil {
		meta = append(meta, "answer "+*rec.AnswerTime)
	}
	if rec.AnswerModel != nil {
		meta = append(meta, "model "+*rec.AnswerModel)
	}
	meta = append(meta, tokenSummary(rec, approximate))
	if len(rec.AnswerTools) > 0 {
		meta = append(meta, "tools "+strings.Join(rec.AnswerTools, ", "))
	}
	_, _ = fmt.Fprintf(w, "_%s_\n\n", strings.Join(meta, " · "))

	_, _ = fmt.Fprintf(w, "**Prompt:**\n\n%s\n\n", escapeMarkdown(rec.Prompt))
	_, _ = fmt.Fprintf(w, "**Answer:**\n\n%s\n\n", escapeMarkdown(rec.Answer))
}

func tokenSummary(rec internal.PairRecord, approximate bool) string {
	if approximate {
		return fmt.Sprintf("~%d words (~%d prompt, ~%d answer, whitespace approximation)", rec.TotalTokens, rec.PromptTokens, rec.AnswerTokens)
	}
	return fmt.Sprintf("%d tokens (%d prompt, %d answer)", rec.TotalTokens, rec.PromptTokens, rec.AnswerTokens)
}

// escapeMarkdown escapes emphasis markers outside fenced code blocks
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "```"):
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		case inCodeBlock:
			result = append(result, line)
		default:
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
