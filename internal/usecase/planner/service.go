// Package planner classifies a user question into an immutable retrieval
// plan. Planning is pure string analysis: no I/O, no randomness, and the
// same message always yields the same plan for a fixed clock.
package planner

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/inkwell-labs/inkwell/internal/domain/plan"
)

// Strategy tags, in selection precedence order.
const (
	StrategyTheme         = "theme_focused"
	StrategyEntityEmotion = "entity_emotion"
	StrategyEntity        = "entity_focused"
	StrategyEmotion       = "emotion_focused"
	StrategyHybrid        = "hybrid"
)

// Request is one planning input.
type Request struct {
	Message  string
	Timezone string          // IANA zone for resolving relative dates; empty means UTC
	Range    *plan.TimeRange // explicit range supplied by the caller, overrides detection
}

// Planner builds query plans. The clock is injectable so relative-date
// resolution is testable.
type Planner struct {
	now func() time.Time
}

// New creates a planner using the wall clock.
func New() *Planner {
	return &Planner{now: time.Now}
}

// NewWithClock creates a planner with a fixed clock source.
func NewWithClock(now func() time.Time) *Planner {
	return &Planner{now: now}
}

// Plan classifies the message. A message with zero signal words falls back
// to simple/narrative/sequential.
func (p *Planner) Plan(req Request) plan.Plan {
	msg := strings.ToLower(req.Message)

	complexity := classifyComplexity(msg)
	aggregate := matchAny(aggregationRules, msg)

	timeRange := req.Range
	if timeRange == nil {
		timeRange = detectTimeRange(msg, p.resolveNow(req.Timezone))
	}
	timeFilter := timeRange != nil

	mode := plan.Sequential
	if complexity != plan.Simple || aggregate {
		mode = plan.Parallel
	}

	themes := matchVocabulary(themeVocabulary, msg)
	emotions := matchVocabulary(emotionVocabulary, msg)
	entities := detectEntities(req.Message, msg)

	return plan.New(
		selectStrategy(themes, entities, emotions),
		complexity,
		mode,
		responseType(complexity, aggregate, msg),
		timeFilter,
		aggregate,
		timeRange,
		themes,
		entities,
		emotions,
	)
}

// classifyComplexity applies the tier rules in order: multi-part signals
// first, then analytical vocabulary, then the simple default.
func classifyComplexity(msg string) plan.Complexity {
	questionMarks := strings.Count(msg, "?")
	interrogatives := len(interrogativePattern.FindAllString(msg, -1))

	if questionMarks > 1 {
		return plan.MultiPart
	}
	if conjunctionPattern.MatchString(msg) && interrogatives >= 2 {
		return plan.MultiPart
	}
	if matchAny(analyticalRules, msg) || matchAny(aggregationRules, msg) {
		return plan.Complex
	}
	return plan.Simple
}

func responseType(c plan.Complexity, aggregate bool, msg string) plan.ResponseType {
	switch {
	case aggregate:
		return plan.Aggregated
	case c != plan.Simple:
		return plan.Analysis
	case strings.Contains(msg, "?") || interrogativePattern.MatchString(msg):
		return plan.Direct
	default:
		return plan.Narrative
	}
}

func selectStrategy(themes, entities, emotions []string) string {
	switch {
	case len(themes) > 0:
		return StrategyTheme
	case len(entities) > 0 && len(emotions) > 0:
		return StrategyEntityEmotion
	case len(entities) > 0:
		return StrategyEntity
	case len(emotions) > 0:
		return StrategyEmotion
	default:
		return StrategyHybrid
	}
}

// detectTimeRange resolves the first matching relative-time phrase.
func detectTimeRange(msg string, now time.Time) *plan.TimeRange {
	if m := lastNDays.FindStringSubmatch(msg); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			tr := plan.TimeRange{Start: startOfDay(now).AddDate(0, 0, -n), End: now}
			return &tr
		}
	}
	for _, r := range timeRules {
		if r.pattern.MatchString(msg) {
			tr := r.resolve(now)
			return &tr
		}
	}
	return nil
}

// detectEntities combines the role vocabulary with mid-sentence capitalized
// words from the original (non-lowered) message.
func detectEntities(original, lowered string) []string {
	seen := make(map[string]bool)
	var out []string

	for _, m := range entityVocabulary.FindAllString(lowered, -1) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}

	words := strings.Fields(original)
	for i, w := range words {
		if i == 0 {
			continue
		}
		trimmed := strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) })
		if len(trimmed) < 2 || !unicode.IsUpper(rune(trimmed[0])) {
			continue
		}
		// Skip capitalized words that directly follow sentence punctuation.
		if prev := words[i-1]; strings.ContainsAny(prev, ".!?") {
			continue
		}
		lower := strings.ToLower(trimmed)
		if !seen[lower] {
			seen[lower] = true
			out = append(out, lower)
		}
	}
	return out
}

func matchAny(rules []rule, msg string) bool {
	for _, r := range rules {
		if r.match(msg) {
			return true
		}
	}
	return false
}

func matchVocabulary(vocab []vocabRule, msg string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range vocab {
		if v.pattern.MatchString(msg) && !seen[v.canonical] {
			seen[v.canonical] = true
			out = append(out, v.canonical)
		}
	}
	return out
}

func (p *Planner) resolveNow(tz string) time.Time {
	now := p.now().UTC()
	if tz == "" {
		return now
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return now
	}
	return now.In(loc)
}
