package subquestion

import (
	"fmt"
	"sort"
	"strings"

	"github.com/inkwell-labs/inkwell/internal/domain/search/result"
	domsub "github.com/inkwell-labs/inkwell/internal/domain/subquestion"
)

const (
	summaryTopN       = 3
	summarySnippetLen = 200
)

// Summarize renders the top results as prompt-ready context. Emotion-centric
// sub-questions get their emotion scores inlined; everything else gets the
// plain dated snippet form.
func Summarize(sub domsub.SubQuestion, results []result.Result) string {
	if len(results) == 0 {
		return "No matching journal entries found."
	}

	top := results
	if len(top) > summaryTopN {
		top = top[:summaryTopN]
	}

	emotionCentric := len(sub.Plan.Emotions()) > 0
	var b strings.Builder
	for i := range top {
		r := &top[i]
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(fmt.Sprintf("[%s] ", r.CreatedAt().Format("Jan 2, 2006")))
		if emotionCentric {
			if tags := emotionTags(r.Metadata().Emotions); tags != "" {
				b.WriteString("(" + tags + ") ")
			}
		}
		b.WriteString(snippet(r.Content()))
	}
	return b.String()
}

// emotionTags formats scores like "anxious 0.62, tired 0.40", strongest first.
func emotionTags(scores map[string]float64) string {
	if len(scores) == 0 {
		return ""
	}
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if scores[names[i]] != scores[names[j]] {
			return scores[names[i]] > scores[names[j]]
		}
		return names[i] < names[j]
	})

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s %.2f", name, scores[name]))
	}
	return strings.Join(parts, ", ")
}

func snippet(content string) string {
	if len(content) <= summarySnippetLen {
		return content
	}
	return content[:summarySnippetLen] + "..."
}
