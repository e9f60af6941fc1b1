// Package pipeline wires planning, embedding, retrieval, ranking and answer
// generation into the single ask flow, fronted by the response cache.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inkwell-labs/inkwell/internal/cache"
	"github.com/inkwell-labs/inkwell/internal/domain"
	"github.com/inkwell-labs/inkwell/internal/domain/plan"
	"github.com/inkwell-labs/inkwell/internal/domain/search/result"
	domsub "github.com/inkwell-labs/inkwell/internal/domain/subquestion"
	"github.com/inkwell-labs/inkwell/internal/metrics"
	"github.com/inkwell-labs/inkwell/internal/usecase/orchestrator"
	"github.com/inkwell-labs/inkwell/internal/usecase/planner"
)

// apologyText is the fixed user-facing answer when the pipeline fails past
// every fallback. Raw error detail never reaches users.
const apologyText = "I'm sorry, I wasn't able to answer that just now. Please try again in a moment."

const sourceSnippetLen = 160

// Request is one ask invocation.
type Request struct {
	UserID      string
	Message     string
	Timezone    string
	History     []domain.ChatTurn
	Range       *plan.TimeRange
	StrictDates bool
}

// Source points the answer back at a journal entry.
type Source struct {
	ID      string    `json:"id"`
	Date    time.Time `json:"date"`
	Snippet string    `json:"snippet"`
	Method  string    `json:"method"`
}

// Diagnostic describes a pipeline failure without exposing the cause.
type Diagnostic struct {
	Stage string    `json:"stage"`
	At    time.Time `json:"at"`
}

// Response is the answer payload. It is also what the response cache stores.
type Response struct {
	RequestID    string            `json:"request_id"`
	Answer       string            `json:"answer"`
	Complexity   plan.Complexity   `json:"complexity"`
	ResponseType plan.ResponseType `json:"response_type"`
	Sources      []Source          `json:"sources,omitempty"`
	Cached       bool              `json:"cached"`
	Diagnostic   *Diagnostic       `json:"diagnostic,omitempty"`
}

// Config tunes the pipeline.
type Config struct {
	// ResultLimit truncates the ranked list before prompt assembly.
	ResultLimit int
	// RequestTimeout is the per-request deadline. On expiry, outstanding
	// backend calls are cancelled and whatever arrived is still used.
	RequestTimeout time.Duration
}

// Service is the retrieval pipeline.
type Service struct {
	planner  Planner
	embed    Embedder
	search   Searcher
	subs     SubProcessor
	decomp   Decomposer
	complete domain.Completer
	cache    *cache.ResponseCache[Response]
	cfg      Config
	logger   *zap.Logger
}

// New creates the pipeline service.
func New(
	pl Planner, embed Embedder, search Searcher, subs SubProcessor,
	decomp Decomposer, complete domain.Completer,
	respCache *cache.ResponseCache[Response], cfg Config, logger *zap.Logger,
) *Service {
	return &Service{
		planner:  pl,
		embed:    embed,
		search:   search,
		subs:     subs,
		decomp:   decomp,
		complete: complete,
		cache:    respCache,
		cfg:      cfg,
		logger:   logger,
	}
}

// Ask answers one question about the user's journal. Only invalid input is
// returned as an error; internal failures come back as an apologetic
// response with diagnostic metadata.
func (s *Service) Ask(ctx context.Context, req Request) (Response, error) {
	message := strings.TrimSpace(req.Message)
	if req.UserID == "" || message == "" {
		return Response{}, fmt.Errorf("user id and message are required: %w", domain.ErrInvalidInput)
	}

	requestID := uuid.NewString()
	log := s.logger.With(zap.String("request_id", requestID), zap.String("user_id", req.UserID))

	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	p := s.planner.Plan(planner.Request{Message: message, Timezone: req.Timezone, Range: req.Range})
	tag := cacheTag(p)

	if resp, ok := s.cache.Get(message, req.UserID, len(req.History), tag); ok {
		resp.Cached = true
		resp.RequestID = requestID
		metrics.PipelineRequestsTotal.WithLabelValues(string(p.Complexity()), "cached").Inc()
		return resp, nil
	}

	var ranked []result.Result
	var outcomes []domsub.Outcome
	if p.Complexity() == plan.MultiPart {
		ranked, outcomes = s.processMultiPart(ctx, req, message, p, log)
	} else {
		ranked = s.processSingle(ctx, req.UserID, message, p, log)
	}
	if limit := s.cfg.ResultLimit; limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	answer, err := s.completeAnswer(ctx, message, p, req.History, ranked, outcomes)
	if err != nil {
		perr := domain.NewPipelineError("completion", requestID, err)
		log.Error("Pipeline failed, returning apologetic response",
			zap.String("stage", perr.Stage), zap.Error(err))
		metrics.PipelineStageErrorsTotal.WithLabelValues(perr.Stage).Inc()
		metrics.PipelineRequestsTotal.WithLabelValues(string(p.Complexity()), "error").Inc()
		return Response{
			RequestID:    requestID,
			Answer:       apologyText,
			Complexity:   p.Complexity(),
			ResponseType: p.ResponseType(),
			Diagnostic:   &Diagnostic{Stage: perr.Stage, At: perr.At},
		}, nil
	}

	resp := Response{
		RequestID:    requestID,
		Answer:       answer,
		Complexity:   p.Complexity(),
		ResponseType: p.ResponseType(),
		Sources:      toSources(ranked),
	}
	s.cache.Set(message, req.UserID, len(req.History), tag, isAnalytical(p), resp)
	metrics.PipelineRequestsTotal.WithLabelValues(string(p.Complexity()), "success").Inc()
	return resp, nil
}

// processSingle embeds the question and runs dual retrieval. An embedding
// failure disables the semantic branch but never aborts the request.
func (s *Service) processSingle(
	ctx context.Context, userID, message string, p plan.Plan, log *zap.Logger,
) []result.Result {
	var vec []float32
	func() {
		defer stageTimer("embed")()
		embResult, err := s.embed.Embed(ctx, message)
		if err != nil {
			metrics.PipelineStageErrorsTotal.WithLabelValues("embed").Inc()
			log.Warn("Embedding failed, semantic retrieval disabled", zap.Error(err))
			return
		}
		vec = embResult.Embedding
	}()

	defer stageTimer("search")()
	return s.search.Execute(ctx, userID, vec, p, message).Combined
}

// processMultiPart decomposes the message and fans sub-questions out to the
// batch processor, then merges every sub-question's results into one ranked
// list for prompt assembly.
func (s *Service) processMultiPart(
	ctx context.Context, req Request, message string, p plan.Plan, log *zap.Logger,
) ([]result.Result, []domsub.Outcome) {
	var texts []string
	func() {
		defer stageTimer("decompose")()
		texts = s.decomp.Decompose(ctx, message)
	}()

	subs := make([]domsub.SubQuestion, len(texts))
	for i, text := range texts {
		subs[i] = domsub.SubQuestion{
			Text: text,
			Plan: s.planner.Plan(planner.Request{Message: text, Timezone: req.Timezone, Range: p.TimeRange()}),
		}
	}

	defer stageTimer("search")()
	outcomes := s.subs.ProcessAll(ctx, req.UserID, subs, p.TimeRange(), req.StrictDates)

	failed := 0
	var all []result.Result
	for i := range outcomes {
		if outcomes[i].Failed() {
			failed++
			continue
		}
		all = append(all, outcomes[i].Results...)
	}
	if failed > 0 {
		log.Warn("Some sub-questions failed", zap.Int("failed", failed), zap.Int("total", len(outcomes)))
	}

	return orchestrator.Rank(orchestrator.Merge(all, nil)), outcomes
}

func (s *Service) completeAnswer(
	ctx context.Context, message string, p plan.Plan, history []domain.ChatTurn,
	ranked []result.Result, outcomes []domsub.Outcome,
) (string, error) {
	defer stageTimer("completion")()
	resp, err := s.complete.Complete(ctx, domain.CompletionRequest{
		System:  systemPrompt,
		History: history,
		Prompt:  buildPrompt(message, p, ranked, outcomes),
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// cacheTag maps the plan onto the four cache complexity tags. Simple plans
// that still need aggregation or a date window sit in the moderate bucket.
func cacheTag(p plan.Plan) cache.Complexity {
	switch {
	case p.Complexity() == plan.MultiPart:
		return cache.ComplexityVeryComplex
	case p.Complexity() == plan.Complex:
		return cache.ComplexityComplex
	case p.RequiresAggregation() || p.RequiresTimeFilter():
		return cache.ComplexityModerate
	default:
		return cache.ComplexitySimple
	}
}

func isAnalytical(p plan.Plan) bool {
	rt := p.ResponseType()
	return rt == plan.Analysis || rt == plan.Aggregated
}

func toSources(ranked []result.Result) []Source {
	if len(ranked) == 0 {
		return nil
	}
	out := make([]Source, 0, len(ranked))
	for i := range ranked {
		r := &ranked[i]
		out = append(out, Source{
			ID:      r.ID(),
			Date:    r.CreatedAt(),
			Snippet: sourceSnippet(r.Content()),
			Method:  string(r.Source()),
		})
	}
	return out
}

func sourceSnippet(content string) string {
	if len(content) <= sourceSnippetLen {
		return content
	}
	return content[:sourceSnippetLen] + "..."
}

func stageTimer(name string) func() {
	start := time.Now()
	return func() {
		metrics.PipelineStageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
}
