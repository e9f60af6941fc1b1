package pipeline

import (
	"fmt"
	"strings"

	"github.com/inkwell-labs/inkwell/internal/domain/plan"
	"github.com/inkwell-labs/inkwell/internal/domain/search/result"
	domsub "github.com/inkwell-labs/inkwell/internal/domain/subquestion"
)

const systemPrompt = "You are a thoughtful journaling assistant. Answer the " +
	"user's question using only the journal excerpts provided as context. " +
	"Refer to entries by their dates. If the context does not contain enough " +
	"information, say so honestly instead of guessing."

const promptSnippetLen = 300

// buildPrompt assembles the user-turn prompt: context block first, then the
// question, with a response-shape hint derived from the plan.
func buildPrompt(message string, p plan.Plan, sources []result.Result, subOutcomes []domsub.Outcome) string {
	var b strings.Builder

	if len(subOutcomes) > 0 {
		b.WriteString("Journal context by sub-question:\n")
		for i := range subOutcomes {
			o := &subOutcomes[i]
			fmt.Fprintf(&b, "\n## %s\n", o.Question.Text)
			switch {
			case o.Failed():
				b.WriteString("(this part could not be answered)\n")
			case !o.HasDataInRange:
				b.WriteString("(no journal entries in the requested date range)\n")
			default:
				b.WriteString(o.ContextSummary)
				b.WriteByte('\n')
			}
		}
	} else if len(sources) > 0 {
		b.WriteString("Journal context:\n")
		for i := range sources {
			r := &sources[i]
			fmt.Fprintf(&b, "[%s] %s\n", r.CreatedAt().Format("Jan 2, 2006"), promptSnippet(r.Content()))
		}
	} else {
		b.WriteString("No journal context was found for this question.\n")
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(message)

	if hint := responseHint(p.ResponseType()); hint != "" {
		b.WriteString("\n")
		b.WriteString(hint)
	}
	return b.String()
}

func responseHint(rt plan.ResponseType) string {
	switch rt {
	case plan.Aggregated:
		return "Answer with concrete counts or frequencies where the context supports them."
	case plan.Analysis:
		return "Answer with an analysis of patterns across the entries, not a list of them."
	default:
		return ""
	}
}

func promptSnippet(content string) string {
	if len(content) <= promptSnippetLen {
		return content
	}
	return content[:promptSnippetLen] + "..."
}
