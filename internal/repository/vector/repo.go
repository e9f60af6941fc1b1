// Package vector implements the semantic nearest-neighbor search backend.
package vector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/inkwell-labs/inkwell/internal/db"
	"github.com/inkwell-labs/inkwell/internal/domain/plan"
	"github.com/inkwell-labs/inkwell/internal/domain/search/result"
	"github.com/inkwell-labs/inkwell/internal/metrics"
)

// store is the consumer interface for vector search (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

var returnFields = []string{"__content", "__vector_score", "created_at", "themes", "entities"}

// Repo runs KNN queries against the entry index. Backend failures never
// abort the pipeline: they are logged and surfaced as an empty result set
// so orchestration proceeds with partial results.
type Repo struct {
	store  store
	index  string
	logger *zap.Logger
}

// New creates a vector search backend.
func New(s store, index string, logger *zap.Logger) *Repo {
	return &Repo{store: s, index: index, logger: logger}
}

// Search returns the user's entries nearest to vec, filtered to minSimilarity
// and the optional time range. Lower thresholds (0.05-0.1) raise recall for
// analytical queries; ordinary lookups use 0.3-0.5.
func (r *Repo) Search(
	ctx context.Context, userID string, vec []float32,
	minSimilarity float64, timeRange *plan.TimeRange, limit int,
) []result.Result {
	start := time.Now()

	q := &db.KNNQuery{
		IndexName:     r.index,
		Vector:        vec,
		K:             limit,
		MinSimilarity: minSimilarity,
		Owner:         userID,
		ReturnFields:  returnFields,
	}
	if timeRange != nil {
		q.Start = &timeRange.Start
		q.End = &timeRange.End
	}

	sr, err := r.store.SearchKNN(ctx, q)
	metrics.SearchRequestDuration.WithLabelValues("vector").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("vector", "error").Inc()
		r.logger.Warn("Vector search failed, returning empty results",
			zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	metrics.SearchRequestsTotal.WithLabelValues("vector", "success").Inc()

	return parseEntries(sr)
}

func parseEntries(sr *db.SearchResult) []result.Result {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}
	results := make([]result.Result, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		results = append(results, entryToResult(e))
	}
	return results
}

func entryToResult(e db.SearchEntry) result.Result {
	id, content, createdAt, meta := db.ParseEntryFields(e.Key, e.Fields)
	return result.New(id, content, createdAt, e.Score, result.SourceVector, meta)
}
