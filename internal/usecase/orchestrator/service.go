// Package orchestrator runs the semantic and structured backends for one
// question and merges their outputs into a single ranked list.
package orchestrator

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inkwell-labs/inkwell/internal/domain/plan"
	"github.com/inkwell-labs/inkwell/internal/domain/search/result"
	"github.com/inkwell-labs/inkwell/internal/usecase/planner"
)

// Outcome carries both backends' raw results plus the merged, ranked list.
type Outcome struct {
	Vector     []result.Result
	Structured []result.Result
	Combined   []result.Result
}

// Config tunes retrieval thresholds.
type Config struct {
	// SimilarityThreshold is the vector cutoff for ordinary lookups.
	SimilarityThreshold float64
	// AnalyticalThreshold is the lower cutoff used when the plan calls for
	// aggregation or analysis, trading precision for recall.
	AnalyticalThreshold float64
	// Limit bounds each backend's result count.
	Limit int
}

// Service coordinates the two backends.
type Service struct {
	vector     VectorSearcher
	structured StructuredSearcher
	cfg        Config
	logger     *zap.Logger
}

// New creates a dual-search orchestrator.
func New(vector VectorSearcher, structured StructuredSearcher, cfg Config, logger *zap.Logger) *Service {
	return &Service{vector: vector, structured: structured, cfg: cfg, logger: logger}
}

// Execute runs both backends per the plan's execution mode and returns the
// merged outcome. Backends degrade to empty lists on failure, so Execute
// itself never fails: at worst the outcome is empty.
func (s *Service) Execute(
	ctx context.Context, userID string, vec []float32, p plan.Plan, rawQuery string,
) Outcome {
	if p.Mode() == plan.Parallel {
		return s.executeParallel(ctx, userID, vec, p, rawQuery)
	}
	return s.executeSequential(ctx, userID, vec, p, rawQuery)
}

func (s *Service) executeParallel(
	ctx context.Context, userID string, vec []float32, p plan.Plan, rawQuery string,
) Outcome {
	var vectorResults, structuredResults []result.Result

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vectorResults = s.searchVector(gctx, userID, vec, p)
		return nil
	})
	g.Go(func() error {
		structuredResults = s.searchStructured(gctx, userID, p, rawQuery, p.Strategy())
		return nil
	})
	_ = g.Wait() // backends never error

	return s.finish(vectorResults, structuredResults)
}

// executeSequential runs vector search first and lets its results bias the
// structured strategy when the plan itself carries no filters.
func (s *Service) executeSequential(
	ctx context.Context, userID string, vec []float32, p plan.Plan, rawQuery string,
) Outcome {
	vectorResults := s.searchVector(ctx, userID, vec, p)

	var structuredResults []result.Result
	if strategy, values := biasFromResults(vectorResults); p.Strategy() == planner.StrategyHybrid && strategy != "" {
		switch strategy {
		case planner.StrategyEmotion:
			structuredResults = s.structured.SearchEmotions(ctx, userID, values, p.TimeRange(), s.cfg.Limit)
		case planner.StrategyTheme:
			structuredResults = s.structured.SearchThemes(ctx, userID, values, p.TimeRange(), s.cfg.Limit)
		}
	} else {
		structuredResults = s.searchStructured(ctx, userID, p, rawQuery, p.Strategy())
	}

	return s.finish(vectorResults, structuredResults)
}

func (s *Service) finish(vectorResults, structuredResults []result.Result) Outcome {
	combined := Merge(vectorResults, structuredResults)
	return Outcome{
		Vector:     vectorResults,
		Structured: structuredResults,
		Combined:   Rank(combined),
	}
}

func (s *Service) searchVector(ctx context.Context, userID string, vec []float32, p plan.Plan) []result.Result {
	if len(vec) == 0 {
		return nil
	}
	threshold := s.cfg.SimilarityThreshold
	if p.RequiresAggregation() || p.Complexity() != plan.Simple {
		threshold = s.cfg.AnalyticalThreshold
	}
	return s.vector.Search(ctx, userID, vec, threshold, p.TimeRange(), s.cfg.Limit)
}

// searchStructured dispatches to the variant matching the strategy tag.
func (s *Service) searchStructured(
	ctx context.Context, userID string, p plan.Plan, rawQuery, strategy string,
) []result.Result {
	tr := p.TimeRange()
	limit := s.cfg.Limit

	switch strategy {
	case planner.StrategyTheme:
		return s.structured.SearchThemes(ctx, userID, p.Themes(), tr, limit)
	case planner.StrategyEntityEmotion:
		return s.structured.SearchEntityEmotion(ctx, userID, p.Entities(), p.Emotions(), tr, limit)
	case planner.StrategyEntity:
		return s.structured.SearchEntities(ctx, userID, p.Entities(), tr, limit)
	case planner.StrategyEmotion:
		return s.structured.SearchEmotions(ctx, userID, p.Emotions(), tr, limit)
	default:
		return s.structured.SearchHybrid(ctx, userID, rawQuery, tr, limit)
	}
}

// biasFromResults inspects vector hits' metadata and picks the structured
// strategy their attributes point at, together with the filter values to
// query with. Returns "" when nothing dominates.
func biasFromResults(results []result.Result) (string, []string) {
	if len(results) == 0 {
		return "", nil
	}

	themeCounts := make(map[string]int)
	emotionCounts := make(map[string]int)
	for i := range results {
		meta := results[i].Metadata()
		for _, th := range meta.Themes {
			themeCounts[th]++
		}
		for name, score := range meta.Emotions {
			if score >= 0.3 {
				emotionCounts[name]++
			}
		}
	}

	half := (len(results) + 1) / 2
	if values := dominant(emotionCounts, half); len(values) > 0 {
		return planner.StrategyEmotion, values
	}
	if values := dominant(themeCounts, half); len(values) > 0 {
		return planner.StrategyTheme, values
	}
	return "", nil
}

// dominant returns the attribute values present in at least threshold
// results, most frequent first.
func dominant(counts map[string]int, threshold int) []string {
	var out []string
	for name, n := range counts {
		if n >= threshold {
			out = append(out, name)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if counts[out[i]] != counts[out[j]] {
			return counts[out[i]] > counts[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}
