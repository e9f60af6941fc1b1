// Package result defines the shared shape of one retrieved journal entry.
package result

import "time"

// SourceMethod tags which retrieval strategy produced a result.
type SourceMethod string

// Source methods. Closed set — merge and ranking code switches on these.
const (
	SourceVector     SourceMethod = "vector"
	SourceStructured SourceMethod = "structured"
	SourceEmotion    SourceMethod = "emotion"
	SourceTheme      SourceMethod = "theme"
	SourceEntity     SourceMethod = "entity"
	SourceFallback   SourceMethod = "fallback"
)

// IsValid checks if the source method is one of the supported values.
func (s SourceMethod) IsValid() bool {
	switch s {
	case SourceVector, SourceStructured, SourceEmotion, SourceTheme, SourceEntity, SourceFallback:
		return true
	}
	return false
}

// NeutralScore is used for ranking when a result carries neither a
// similarity score nor a match strength.
const NeutralScore = 0.5

// Metadata holds the structured attributes of an entry.
type Metadata struct {
	Themes   []string
	Entities []string
	Emotions map[string]float64
}

// Result is a single retrieved journal entry or chunk.
type Result struct {
	id            string
	content       string
	createdAt     time.Time
	score         float64
	scored        bool
	matchStrength float64
	matched       bool
	source        SourceMethod
	meta          Metadata
}

// New creates a result with a similarity score.
func New(id, content string, createdAt time.Time, score float64, source SourceMethod, meta Metadata) Result {
	return Result{
		id: id, content: content, createdAt: createdAt,
		score: score, scored: true,
		source: source, meta: meta,
	}
}

// NewUnscored creates a result without a similarity score (structured hits
// that matched a filter rather than a vector).
func NewUnscored(id, content string, createdAt time.Time, source SourceMethod, meta Metadata) Result {
	return Result{
		id: id, content: content, createdAt: createdAt,
		source: source, meta: meta,
	}
}

// WithMatchStrength returns a copy carrying a structured match strength.
func (r Result) WithMatchStrength(strength float64) Result {
	r.matchStrength = strength
	r.matched = true
	return r
}

// WithSource returns a copy tagged with a different source method.
func (r Result) WithSource(source SourceMethod) Result {
	r.source = source
	return r
}

// ID returns the stable entry identity used for deduplication.
func (r *Result) ID() string { return r.id }

// Content returns the entry text.
func (r *Result) Content() string { return r.content }

// CreatedAt returns the entry timestamp.
func (r *Result) CreatedAt() time.Time { return r.createdAt }

// Score returns the similarity score and whether one is present.
func (r *Result) Score() (float64, bool) { return r.score, r.scored }

// MatchStrength returns the structured match strength and whether one is present.
func (r *Result) MatchStrength() (float64, bool) { return r.matchStrength, r.matched }

// Source returns the retrieval strategy that produced this result.
func (r *Result) Source() SourceMethod { return r.source }

// Metadata returns the structured attributes of the entry.
func (r *Result) Metadata() Metadata { return r.meta }

// EffectiveScore is the ranking key: score, else match strength, else neutral.
func (r *Result) EffectiveScore() float64 {
	if r.scored {
		return r.score
	}
	if r.matched {
		return r.matchStrength
	}
	return NeutralScore
}
