// Package structured implements the attribute/keyword search backend and its
// theme-, entity- and emotion-scoped variants. Every variant walks a
// three-level fallback chain: strict match, looser secondary match, then the
// user's most recent entries, so a user with any documents at all always
// gets a non-empty response.
package structured

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/inkwell-labs/inkwell/internal/db"
	"github.com/inkwell-labs/inkwell/internal/domain/plan"
	"github.com/inkwell-labs/inkwell/internal/domain/search/result"
	"github.com/inkwell-labs/inkwell/internal/metrics"
)

// Match strengths by fallback depth. Strict hits outrank loose ones when
// the ranker has no similarity score to go on.
const (
	strictStrength = 0.8
	looseStrength  = 0.55
)

// Emotion score thresholds for the strict and loose passes.
const (
	strictEmotionMin = 0.3
	looseEmotionMin  = 0.1
)

// store is the consumer interface for structured search (ISP).
type store interface {
	SearchAttr(ctx context.Context, q *db.AttrQuery) (*db.SearchResult, error)
	CountRange(ctx context.Context, index, owner string, start, end *time.Time) (int, error)
}

// Repo runs structured lookups against the entry index. Like the vector
// backend it never fails the pipeline: errors are logged and the chain moves
// to the next fallback level.
type Repo struct {
	store  store
	index  string
	logger *zap.Logger
}

// New creates a structured search backend.
func New(s store, index string, logger *zap.Logger) *Repo {
	return &Repo{store: s, index: index, logger: logger}
}

// SearchThemes finds entries tagged with any of the given themes.
// Loose pass: full-text keyword match on the theme words.
func (r *Repo) SearchThemes(
	ctx context.Context, userID string, themes []string, timeRange *plan.TimeRange, limit int,
) []result.Result {
	strict := r.attrQuery(userID, timeRange, limit)
	strict.Themes = themes

	loose := r.attrQuery(userID, timeRange, limit)
	loose.Keyword = joinKeywords(themes)

	return r.chain(ctx, "theme", userID, result.SourceTheme, strict, loose, limit)
}

// SearchEntities finds entries mentioning any of the given entities.
// Loose pass: full-text keyword match on the entity names.
func (r *Repo) SearchEntities(
	ctx context.Context, userID string, entities []string, timeRange *plan.TimeRange, limit int,
) []result.Result {
	strict := r.attrQuery(userID, timeRange, limit)
	strict.Entities = entities

	loose := r.attrQuery(userID, timeRange, limit)
	loose.Keyword = joinKeywords(entities)

	return r.chain(ctx, "entity", userID, result.SourceEntity, strict, loose, limit)
}

// SearchEmotions finds entries where any of the given emotions scored above
// the strict threshold; the loose pass lowers the threshold.
func (r *Repo) SearchEmotions(
	ctx context.Context, userID string, emotions []string, timeRange *plan.TimeRange, limit int,
) []result.Result {
	strict := r.attrQuery(userID, timeRange, limit)
	strict.Emotions = emotions
	strict.EmotionMin = strictEmotionMin

	loose := r.attrQuery(userID, timeRange, limit)
	loose.Emotions = emotions
	loose.EmotionMin = looseEmotionMin

	results := r.chain(ctx, "emotion", userID, result.SourceEmotion, strict, loose, limit)
	return withEmotionStrength(results, emotions)
}

// SearchEntityEmotion finds entries that mention one of the entities AND
// carry one of the emotions. The loose pass keeps the emotions but matches
// entities as keywords.
func (r *Repo) SearchEntityEmotion(
	ctx context.Context, userID string, entities, emotions []string, timeRange *plan.TimeRange, limit int,
) []result.Result {
	strict := r.attrQuery(userID, timeRange, limit)
	strict.Entities = entities
	strict.Emotions = emotions
	strict.EmotionMin = strictEmotionMin

	loose := r.attrQuery(userID, timeRange, limit)
	loose.Keyword = joinKeywords(entities)
	loose.Emotions = emotions
	loose.EmotionMin = looseEmotionMin

	results := r.chain(ctx, "entity_emotion", userID, result.SourceEmotion, strict, loose, limit)
	return withEmotionStrength(results, emotions)
}

// SearchHybrid is the generic default: keyword match on the raw query text,
// loosened to its longest token, then recent entries.
func (r *Repo) SearchHybrid(
	ctx context.Context, userID, query string, timeRange *plan.TimeRange, limit int,
) []result.Result {
	strict := r.attrQuery(userID, timeRange, limit)
	strict.Keyword = query

	loose := r.attrQuery(userID, timeRange, limit)
	loose.Keyword = longestToken(query)

	return r.chain(ctx, "hybrid", userID, result.SourceStructured, strict, loose, limit)
}

// Recent returns the user's most recent entries regardless of filters.
// This is the terminal fallback of every chain.
func (r *Repo) Recent(ctx context.Context, userID string, limit int) []result.Result {
	q := r.attrQuery(userID, nil, limit)
	results, err := r.run(ctx, q, result.SourceFallback, 0)
	if err != nil {
		r.logger.Warn("Recent-entries fallback failed",
			zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	return results
}

// CountInRange returns how many entries the user has in the date range.
// Used as a cheap existence check before running a full sub-question search.
func (r *Repo) CountInRange(ctx context.Context, userID string, timeRange *plan.TimeRange) (int, error) {
	var start, end *time.Time
	if timeRange != nil {
		start, end = &timeRange.Start, &timeRange.End
	}
	n, err := r.store.CountRange(ctx, r.index, userID, start, end)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// chain executes the three-level fallback: strict, loose, recent-N.
func (r *Repo) chain(
	ctx context.Context, variant, userID string, source result.SourceMethod,
	strict, loose *db.AttrQuery, limit int,
) []result.Result {
	start := time.Now()
	defer func() {
		metrics.SearchRequestDuration.WithLabelValues("structured").Observe(time.Since(start).Seconds())
	}()

	results, err := r.run(ctx, strict, source, strictStrength)
	if err != nil {
		r.logger.Warn("Strict structured search failed",
			zap.String("variant", variant), zap.String("user_id", userID), zap.Error(err))
	}
	if len(results) > 0 {
		r.record(variant, 0)
		return results
	}

	results, err = r.run(ctx, loose, source, looseStrength)
	if err != nil {
		r.logger.Warn("Loose structured search failed",
			zap.String("variant", variant), zap.String("user_id", userID), zap.Error(err))
	}
	if len(results) > 0 {
		r.record(variant, 1)
		return results
	}

	r.record(variant, 2)
	return r.Recent(ctx, userID, limit)
}

func (r *Repo) run(
	ctx context.Context, q *db.AttrQuery, source result.SourceMethod, strength float64,
) ([]result.Result, error) {
	sr, err := r.store.SearchAttr(ctx, q)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("structured", "error").Inc()
		return nil, err
	}
	metrics.SearchRequestsTotal.WithLabelValues("structured", "success").Inc()

	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	results := make([]result.Result, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		id, content, createdAt, meta := db.ParseEntryFields(e.Key, e.Fields)
		res := result.NewUnscored(id, content, createdAt, source, meta)
		if strength > 0 {
			res = res.WithMatchStrength(strength)
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *Repo) attrQuery(userID string, timeRange *plan.TimeRange, limit int) *db.AttrQuery {
	q := &db.AttrQuery{
		IndexName: r.index,
		Owner:     userID,
		Limit:     limit,
	}
	if timeRange != nil {
		q.Start = &timeRange.Start
		q.End = &timeRange.End
	}
	return q
}

func (r *Repo) record(variant string, depth float64) {
	metrics.SearchFallbackDepth.WithLabelValues(variant).Observe(depth)
}

// withEmotionStrength upgrades match strength to the entry's own peak score
// among the requested emotions, when metadata carries one.
func withEmotionStrength(results []result.Result, emotions []string) []result.Result {
	for i := range results {
		meta := results[i].Metadata()
		if len(meta.Emotions) == 0 {
			continue
		}
		var peak float64
		for _, e := range emotions {
			if s, ok := meta.Emotions[normalizeEmotion(e)]; ok && s > peak {
				peak = s
			}
		}
		if peak > 0 {
			results[i] = results[i].WithMatchStrength(peak)
		}
	}
	return results
}
