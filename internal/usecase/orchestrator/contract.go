package orchestrator

import (
	"context"

	"github.com/inkwell-labs/inkwell/internal/domain/plan"
	"github.com/inkwell-labs/inkwell/internal/domain/search/result"
)

// VectorSearcher is the semantic retrieval backend. It degrades to an empty
// list on failure instead of returning an error.
type VectorSearcher interface {
	Search(
		ctx context.Context, userID string, vec []float32,
		minSimilarity float64, timeRange *plan.TimeRange, limit int,
	) []result.Result
}

// StructuredSearcher is the attribute retrieval backend with its
// strategy-specific variants. Every variant degrades through its own
// fallback chain and never returns an error.
type StructuredSearcher interface {
	SearchThemes(ctx context.Context, userID string, themes []string, timeRange *plan.TimeRange, limit int) []result.Result
	SearchEntities(ctx context.Context, userID string, entities []string, timeRange *plan.TimeRange, limit int) []result.Result
	SearchEmotions(ctx context.Context, userID string, emotions []string, timeRange *plan.TimeRange, limit int) []result.Result
	SearchEntityEmotion(ctx context.Context, userID string, entities, emotions []string, timeRange *plan.TimeRange, limit int) []result.Result
	SearchHybrid(ctx context.Context, userID, query string, timeRange *plan.TimeRange, limit int) []result.Result
}
