package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/inkwell-labs/inkwell/internal/cache"
	"github.com/inkwell-labs/inkwell/internal/domain"
	"github.com/inkwell-labs/inkwell/internal/domain/plan"
	"github.com/inkwell-labs/inkwell/internal/domain/search/result"
	domsub "github.com/inkwell-labs/inkwell/internal/domain/subquestion"
	"github.com/inkwell-labs/inkwell/internal/usecase/orchestrator"
	"github.com/inkwell-labs/inkwell/internal/usecase/planner"
)

type mockEmbedder struct {
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1}}, nil
}

type mockSearcher struct {
	results []result.Result
	lastVec []float32
	calls   int
}

func (m *mockSearcher) Execute(
	_ context.Context, _ string, vec []float32, _ plan.Plan, _ string,
) orchestrator.Outcome {
	m.calls++
	m.lastVec = vec
	return orchestrator.Outcome{Combined: m.results}
}

type mockSubProcessor struct {
	outcomes []domsub.Outcome
	lastSubs []domsub.SubQuestion
	calls    int
}

func (m *mockSubProcessor) ProcessAll(
	_ context.Context, _ string, subs []domsub.SubQuestion, _ *plan.TimeRange, _ bool,
) []domsub.Outcome {
	m.calls++
	m.lastSubs = subs
	if m.outcomes != nil {
		return m.outcomes
	}
	out := make([]domsub.Outcome, len(subs))
	for i, sub := range subs {
		out[i] = domsub.Outcome{Question: sub, HasDataInRange: true}
	}
	return out
}

type mockDecomposer struct {
	subs []string
}

func (m *mockDecomposer) Decompose(_ context.Context, message string) []string {
	if m.subs != nil {
		return m.subs
	}
	return []string{message}
}

type mockCompleter struct {
	answer  string
	err     error
	prompts []domain.CompletionRequest
}

func (m *mockCompleter) Complete(_ context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	m.prompts = append(m.prompts, req)
	if m.err != nil {
		return domain.CompletionResult{}, m.err
	}
	return domain.CompletionResult{Text: m.answer}, nil
}

type fixture struct {
	embed    *mockEmbedder
	search   *mockSearcher
	subs     *mockSubProcessor
	decomp   *mockDecomposer
	complete *mockCompleter
	svc      *Service
}

func newFixture() *fixture {
	f := &fixture{
		embed:    &mockEmbedder{},
		search:   &mockSearcher{},
		subs:     &mockSubProcessor{},
		decomp:   &mockDecomposer{},
		complete: &mockCompleter{answer: "here is what your journal says"},
	}
	respCache := cache.NewResponseCache[Response](100, cache.DefaultTTLPolicy(), nil)
	f.svc = New(
		planner.New(), f.embed, f.search, f.subs, f.decomp, f.complete,
		respCache, Config{ResultLimit: 5, RequestTimeout: 30 * time.Second}, zap.NewNop(),
	)
	return f
}

func entry(id string, score float64) result.Result {
	return result.New(id, "entry content "+id, time.Now(), score, result.SourceVector, result.Metadata{})
}

func TestAsk_InvalidInput(t *testing.T) {
	f := newFixture()

	for _, req := range []Request{
		{UserID: "u1", Message: "   "},
		{UserID: "", Message: "hello"},
	} {
		_, err := f.svc.Ask(context.Background(), req)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("Ask(%+v) err = %v, want ErrInvalidInput", req, err)
		}
	}
}

func TestAsk_SinglePartFlow(t *testing.T) {
	f := newFixture()
	f.search.results = []result.Result{entry("e1", 0.9), entry("e2", 0.7)}

	resp, err := f.svc.Ask(context.Background(), Request{UserID: "u1", Message: "how did I sleep"})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if resp.Answer != "here is what your journal says" {
		t.Errorf("unexpected answer: %q", resp.Answer)
	}
	if resp.Cached {
		t.Error("first request must be a cache miss")
	}
	if len(resp.Sources) != 2 || resp.Sources[0].ID != "e1" {
		t.Errorf("unexpected sources: %+v", resp.Sources)
	}
	if resp.RequestID == "" {
		t.Error("expected a request id")
	}
	if f.embed.calls != 1 || f.search.calls != 1 {
		t.Errorf("expected one embed and one search, got %d/%d", f.embed.calls, f.search.calls)
	}
	if f.subs.calls != 0 {
		t.Error("single-part question must not reach the sub-question processor")
	}

	prompt := f.complete.prompts[0].Prompt
	if !strings.Contains(prompt, "entry content e1") {
		t.Errorf("prompt missing retrieved context: %q", prompt)
	}
}

func TestAsk_SecondCallHitsCache(t *testing.T) {
	f := newFixture()
	f.search.results = []result.Result{entry("e1", 0.9)}

	req := Request{UserID: "u1", Message: "how did I sleep"}
	first, err := f.svc.Ask(context.Background(), req)
	if err != nil {
		t.Fatalf("first Ask failed: %v", err)
	}

	second, err := f.svc.Ask(context.Background(), req)
	if err != nil {
		t.Fatalf("second Ask failed: %v", err)
	}

	if !second.Cached {
		t.Error("second identical request must be served from cache")
	}
	if second.Answer != first.Answer {
		t.Error("cached answer must match the original")
	}
	if second.RequestID == first.RequestID {
		t.Error("request ids must stay unique across hits")
	}
	if f.search.calls != 1 || len(f.complete.prompts) != 1 {
		t.Errorf("cache hit must skip retrieval and completion, got %d searches, %d completions",
			f.search.calls, len(f.complete.prompts))
	}
}

func TestAsk_TokenSimilarRephrasingSharesEntry(t *testing.T) {
	f := newFixture()
	f.search.results = []result.Result{entry("e1", 0.9)}

	if _, err := f.svc.Ask(context.Background(), Request{UserID: "u1", Message: "how did I sleep"}); err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	resp, err := f.svc.Ask(context.Background(), Request{UserID: "u1", Message: "How did I sleep?"})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if !resp.Cached {
		t.Error("punctuation-only rephrasing should collide onto the cached entry")
	}
}

func TestAsk_CompletionFailureReturnsApology(t *testing.T) {
	f := newFixture()
	f.complete.err = errors.New("upstream 502")

	resp, err := f.svc.Ask(context.Background(), Request{UserID: "u1", Message: "how did I sleep"})
	if err != nil {
		t.Fatalf("internal failures must not surface as errors, got %v", err)
	}

	if resp.Answer != apologyText {
		t.Errorf("expected the fixed apologetic answer, got %q", resp.Answer)
	}
	if resp.Diagnostic == nil || resp.Diagnostic.Stage != "completion" {
		t.Errorf("expected completion-stage diagnostic, got %+v", resp.Diagnostic)
	}
	if strings.Contains(resp.Answer, "502") {
		t.Error("raw error detail must never reach the user")
	}

	// Failures are never cached.
	again, _ := f.svc.Ask(context.Background(), Request{UserID: "u1", Message: "how did I sleep"})
	if again.Cached {
		t.Error("apologetic responses must not be cached")
	}
}

func TestAsk_EmbeddingFailureDegradesToStructured(t *testing.T) {
	f := newFixture()
	f.embed.err = errors.New("provider down")
	f.search.results = []result.Result{entry("e1", 0.9)}

	resp, err := f.svc.Ask(context.Background(), Request{UserID: "u1", Message: "how did I sleep"})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if resp.Answer == apologyText {
		t.Error("embedding failure alone must not fail the pipeline")
	}
	if f.search.lastVec != nil {
		t.Error("search must run without a vector after embedding failure")
	}
}

func TestAsk_MultiPartUsesSubQuestionProcessor(t *testing.T) {
	f := newFixture()
	f.decomp.subs = []string{"How often do I feel anxious?", "What themes come up?"}
	f.subs.outcomes = []domsub.Outcome{
		{
			Question:       domsub.SubQuestion{Text: "How often do I feel anxious?"},
			Results:        []result.Result{entry("e1", 0.9)},
			HasDataInRange: true,
			ContextSummary: "[May 2, 2025] anxious about work",
		},
		{
			Question:       domsub.SubQuestion{Text: "What themes come up?"},
			HasDataInRange: false,
		},
	}

	resp, err := f.svc.Ask(context.Background(), Request{
		UserID:  "u1",
		Message: "How often do I feel anxious and what themes come up?",
	})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if resp.Complexity != plan.MultiPart {
		t.Errorf("complexity = %s, want multi_part", resp.Complexity)
	}
	if f.subs.calls != 1 {
		t.Fatal("expected the sub-question processor to run")
	}
	if f.search.calls != 0 {
		t.Error("multi-part flow must not use the single-part searcher")
	}
	if len(f.subs.lastSubs) != 2 {
		t.Fatalf("expected 2 sub-questions, got %d", len(f.subs.lastSubs))
	}
	if len(resp.Sources) != 1 || resp.Sources[0].ID != "e1" {
		t.Errorf("expected merged sub-question sources, got %+v", resp.Sources)
	}

	prompt := f.complete.prompts[0].Prompt
	if !strings.Contains(prompt, "anxious about work") {
		t.Errorf("prompt missing sub-question context: %q", prompt)
	}
	if !strings.Contains(prompt, "no journal entries in the requested date range") {
		t.Errorf("prompt should note empty-range sub-questions: %q", prompt)
	}
}

func TestAsk_ResultLimitTruncatesAfterRanking(t *testing.T) {
	f := newFixture()
	f.search.results = []result.Result{
		entry("a", 0.5), entry("b", 0.9), entry("c", 0.8),
		entry("d", 0.7), entry("e", 0.6), entry("f", 0.4), entry("g", 0.3),
	}

	resp, err := f.svc.Ask(context.Background(), Request{UserID: "u1", Message: "how did I sleep"})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if len(resp.Sources) != 5 {
		t.Errorf("expected 5 sources after truncation, got %d", len(resp.Sources))
	}
}
