package planner

import (
	"regexp"
	"time"

	"github.com/inkwell-labs/inkwell/internal/domain/plan"
)

// rule is one named classification pattern. Rules are evaluated top to
// bottom; the first hit wins, so ordering is part of the contract.
type rule struct {
	name    string
	pattern *regexp.Regexp
}

func (r rule) match(msg string) bool { return r.pattern.MatchString(msg) }

// analyticalRules promote a question to the complex tier.
var analyticalRules = []rule{
	{"trend", regexp.MustCompile(`\b(trend|trends|pattern|patterns|over time|changed?|changing)\b`)},
	{"comparison", regexp.MustCompile(`\b(compared?|comparison|versus|vs|more than|less than|better or worse)\b`)},
	{"progress", regexp.MustCompile(`\b(progress|journey|growth|grown|improv\w*|evolv\w*)\b`)},
	{"reflection", regexp.MustCompile(`\b(why do i|what makes me|insight|insights|analy[sz]e|summar\w+)\b`)},
}

// aggregationRules flag frequency/ranking/statistics questions.
var aggregationRules = []rule{
	{"frequency", regexp.MustCompile(`\b(how often|how many|how much|how frequently|count)\b`)},
	{"ranking", regexp.MustCompile(`\b(most|least|top|biggest|main|common|commonly|frequent|frequently)\b`)},
	{"statistics", regexp.MustCompile(`\b(average|usually|typically|overall|in total|percentage)\b`)},
}

// timeRule maps a relative-time phrase to a concrete range anchored at now.
type timeRule struct {
	name    string
	pattern *regexp.Regexp
	resolve func(now time.Time) plan.TimeRange
}

// timeRules are ordered most-specific first: "last week" must not be
// swallowed by a looser "week" rule below it.
var timeRules = []timeRule{
	{"today", regexp.MustCompile(`\btoday\b`), func(now time.Time) plan.TimeRange {
		return plan.TimeRange{Start: startOfDay(now), End: now}
	}},
	{"yesterday", regexp.MustCompile(`\byesterday\b`), func(now time.Time) plan.TimeRange {
		start := startOfDay(now).AddDate(0, 0, -1)
		return plan.TimeRange{Start: start, End: start.AddDate(0, 0, 1)}
	}},
	{"last_week", regexp.MustCompile(`\b(last|past) week\b`), func(now time.Time) plan.TimeRange {
		start := startOfWeek(now).AddDate(0, 0, -7)
		return plan.TimeRange{Start: start, End: start.AddDate(0, 0, 7)}
	}},
	{"this_week", regexp.MustCompile(`\bthis week\b`), func(now time.Time) plan.TimeRange {
		return plan.TimeRange{Start: startOfWeek(now), End: now}
	}},
	{"last_month", regexp.MustCompile(`\b(last|past) month\b`), func(now time.Time) plan.TimeRange {
		start := startOfMonth(now).AddDate(0, -1, 0)
		return plan.TimeRange{Start: start, End: startOfMonth(now)}
	}},
	{"this_month", regexp.MustCompile(`\bthis month\b`), func(now time.Time) plan.TimeRange {
		return plan.TimeRange{Start: startOfMonth(now), End: now}
	}},
	{"this_year", regexp.MustCompile(`\bthis year\b`), func(now time.Time) plan.TimeRange {
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		return plan.TimeRange{Start: start, End: now}
	}},
	{"recently", regexp.MustCompile(`\b(recently|lately|these days)\b`), func(now time.Time) plan.TimeRange {
		return plan.TimeRange{Start: startOfDay(now).AddDate(0, 0, -14), End: now}
	}},
}

// lastNDays handles "past 30 days" style phrases with an explicit count.
var lastNDays = regexp.MustCompile(`\b(?:last|past) (\d{1,3}) days?\b`)

// vocabRule maps surface forms to the canonical tag stored in the index.
type vocabRule struct {
	pattern   *regexp.Regexp
	canonical string
}

// emotionVocabulary maps surface forms to the canonical emotion tag used by
// the index. Ordered so longer forms win over their stems.
var emotionVocabulary = []vocabRule{
	{regexp.MustCompile(`\b(anxious|anxiety|worried|worry|worrying)\b`), "anxious"},
	{regexp.MustCompile(`\b(stressed|stress|stressful|overwhelmed)\b`), "stressed"},
	{regexp.MustCompile(`\b(happy|happiness|joy|joyful)\b`), "happy"},
	{regexp.MustCompile(`\b(sad|sadness|down|depressed)\b`), "sad"},
	{regexp.MustCompile(`\b(angry|anger|frustrated|frustration|annoyed)\b`), "angry"},
	{regexp.MustCompile(`\b(calm|peaceful|relaxed)\b`), "calm"},
	{regexp.MustCompile(`\b(excited|excitement)\b`), "excited"},
	{regexp.MustCompile(`\b(grateful|gratitude|thankful)\b`), "grateful"},
	{regexp.MustCompile(`\b(lonely|loneliness|isolated)\b`), "lonely"},
	{regexp.MustCompile(`\b(afraid|scared|fear|fearful)\b`), "fearful"},
	{regexp.MustCompile(`\b(tired|exhausted|drained|fatigue)\b`), "tired"},
	{regexp.MustCompile(`\b(hopeful|hope|optimistic)\b`), "hopeful"},
	{regexp.MustCompile(`\b(guilty|guilt|ashamed|shame)\b`), "guilty"},
	{regexp.MustCompile(`\b(proud|pride)\b`), "proud"},
}

// themeVocabulary maps surface forms to the canonical theme tag.
var themeVocabulary = []vocabRule{
	{regexp.MustCompile(`\b(work|job|career|office|boss|coworkers?|meetings?)\b`), "work"},
	{regexp.MustCompile(`\b(family|families|parents?|kids?|children)\b`), "family"},
	{regexp.MustCompile(`\b(health|doctor|illness|sick|symptoms?)\b`), "health"},
	{regexp.MustCompile(`\b(sleep|sleeping|slept|insomnia|dreams?)\b`), "sleep"},
	{regexp.MustCompile(`\b(relationships?|dating|partner|marriage)\b`), "relationships"},
	{regexp.MustCompile(`\b(money|finances?|financial|budget|spending)\b`), "money"},
	{regexp.MustCompile(`\b(exercise|workouts?|gym|running|fitness)\b`), "exercise"},
	{regexp.MustCompile(`\b(food|eating|meals?|diet|cooking)\b`), "food"},
	{regexp.MustCompile(`\b(friends?|friendships?|social)\b`), "friends"},
	{regexp.MustCompile(`\b(travel|trips?|vacation|holiday)\b`), "travel"},
	{regexp.MustCompile(`\b(school|classes|studying|exams?|homework)\b`), "school"},
}

// entityVocabulary catches the people journal entries name by role. Proper
// names are caught separately by capitalization.
var entityVocabulary = regexp.MustCompile(
	`\b(mom|mother|dad|father|brother|sister|wife|husband|boyfriend|girlfriend|therapist|manager|roommate)\b`)

// Conjunctions and interrogatives used by the multi-part check.
var (
	conjunctionPattern   = regexp.MustCompile(`\b(and|also|plus)\b`)
	interrogativePattern = regexp.MustCompile(`\b(what|how|why|when|where|who|which|did|do i|am i|have i)\b`)
)

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// startOfWeek returns Monday 00:00 of t's week.
func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}
