package pipeline

import (
	"context"

	"github.com/inkwell-labs/inkwell/internal/domain"
	"github.com/inkwell-labs/inkwell/internal/domain/plan"
	domsub "github.com/inkwell-labs/inkwell/internal/domain/subquestion"
	"github.com/inkwell-labs/inkwell/internal/usecase/orchestrator"
	"github.com/inkwell-labs/inkwell/internal/usecase/planner"
)

// Planner classifies the question into a retrieval plan.
type Planner interface {
	Plan(req planner.Request) plan.Plan
}

// Embedder vectorizes the question text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Searcher runs dual-backend retrieval for a single-part question.
type Searcher interface {
	Execute(ctx context.Context, userID string, vec []float32, p plan.Plan, rawQuery string) orchestrator.Outcome
}

// SubProcessor resolves the parts of a decomposed multi-part question.
type SubProcessor interface {
	ProcessAll(
		ctx context.Context, userID string, subs []domsub.SubQuestion,
		dateFilter *plan.TimeRange, strictDates bool,
	) []domsub.Outcome
}

// Decomposer splits a multi-part message into standalone sub-questions.
type Decomposer interface {
	Decompose(ctx context.Context, message string) []string
}
