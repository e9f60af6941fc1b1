package subquestion

import (
	"context"

	"github.com/inkwell-labs/inkwell/internal/domain"
	"github.com/inkwell-labs/inkwell/internal/domain/plan"
	"github.com/inkwell-labs/inkwell/internal/usecase/orchestrator"
)

// Embedder vectorizes sub-question text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Searcher runs the dual-backend retrieval for one sub-question.
type Searcher interface {
	Execute(ctx context.Context, userID string, vec []float32, p plan.Plan, rawQuery string) orchestrator.Outcome
}

// RangeCounter is the cheap existence check used by strict date enforcement.
type RangeCounter interface {
	CountInRange(ctx context.Context, userID string, timeRange *plan.TimeRange) (int, error)
}
