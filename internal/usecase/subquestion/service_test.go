package subquestion

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/inkwell-labs/inkwell/internal/domain"
	"github.com/inkwell-labs/inkwell/internal/domain/plan"
	"github.com/inkwell-labs/inkwell/internal/domain/search/result"
	domsub "github.com/inkwell-labs/inkwell/internal/domain/subquestion"
	"github.com/inkwell-labs/inkwell/internal/usecase/orchestrator"
)

type mockEmbedder struct {
	err   error
	calls int64
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	atomic.AddInt64(&m.calls, 1)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}, nil
}

type mockSearcher struct {
	mu         sync.Mutex
	inFlight   int
	maxParallel int
	results    []result.Result
	panicOn    string
}

func (m *mockSearcher) Execute(
	_ context.Context, _ string, _ []float32, _ plan.Plan, rawQuery string,
) orchestrator.Outcome {
	m.mu.Lock()
	m.inFlight++
	if m.inFlight > m.maxParallel {
		m.maxParallel = m.inFlight
	}
	m.mu.Unlock()

	time.Sleep(10 * time.Millisecond)

	m.mu.Lock()
	m.inFlight--
	m.mu.Unlock()

	if m.panicOn != "" && rawQuery == m.panicOn {
		panic("backend exploded")
	}
	return orchestrator.Outcome{Combined: m.results}
}

type mockCounter struct {
	count int
	err   error
	calls int64
}

func (m *mockCounter) CountInRange(_ context.Context, _ string, _ *plan.TimeRange) (int, error) {
	atomic.AddInt64(&m.calls, 1)
	return m.count, m.err
}

func emotionPlan() plan.Plan {
	return plan.New("emotion_focused", plan.Simple, plan.Parallel, plan.Direct,
		false, false, nil, nil, nil, []string{"anxious"})
}

func genericPlan() plan.Plan {
	return plan.New("hybrid", plan.Simple, plan.Parallel, plan.Direct,
		false, false, nil, nil, nil, nil)
}

func questions(n int) []domsub.SubQuestion {
	subs := make([]domsub.SubQuestion, n)
	for i := range subs {
		subs[i] = domsub.SubQuestion{Text: "q" + strings.Repeat("x", i), Plan: genericPlan()}
	}
	return subs
}

func newProcessor(t *testing.T, embed Embedder, search Searcher, counter RangeCounter, batchSize int) *Processor {
	t.Helper()
	p, err := New(embed, search, counter, batchSize, zap.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(p.Close)
	return p
}

func TestProcessAll_BoundsConcurrency(t *testing.T) {
	search := &mockSearcher{}
	p := newProcessor(t, &mockEmbedder{}, search, &mockCounter{}, 3)

	outcomes := p.ProcessAll(context.Background(), "u1", questions(10), nil, false)

	if len(outcomes) != 10 {
		t.Fatalf("expected 10 outcomes, got %d", len(outcomes))
	}
	if search.maxParallel > 3 {
		t.Errorf("peak concurrency %d exceeds batch size 3", search.maxParallel)
	}
	for i, o := range outcomes {
		if o.Question.Text != "q"+strings.Repeat("x", i) {
			t.Fatalf("outcome %d out of order: %q", i, o.Question.Text)
		}
	}
}

func TestProcessAll_StrictDatesShortCircuit(t *testing.T) {
	embed := &mockEmbedder{}
	counter := &mockCounter{count: 0}
	p := newProcessor(t, embed, &mockSearcher{}, counter, 3)

	tr := &plan.TimeRange{Start: time.Now().AddDate(0, 0, -7), End: time.Now()}
	outcomes := p.ProcessAll(context.Background(), "u1",
		[]domsub.SubQuestion{{Text: "q1", Plan: genericPlan()}}, tr, true)

	o := outcomes[0]
	if o.HasDataInRange {
		t.Error("expected hasDataInRange=false for an empty window")
	}
	if o.Failed() {
		t.Error("empty window is a fast path, not an error")
	}
	if len(o.Results) != 0 {
		t.Errorf("expected no results, got %d", len(o.Results))
	}
	if atomic.LoadInt64(&embed.calls) != 0 {
		t.Error("short-circuit must skip the embedding call")
	}
}

func TestProcessAll_CountErrorDoesNotBlockSearch(t *testing.T) {
	counter := &mockCounter{err: errors.New("count unavailable")}
	search := &mockSearcher{results: []result.Result{
		result.New("a", "content", time.Now(), 0.8, result.SourceVector, result.Metadata{}),
	}}
	p := newProcessor(t, &mockEmbedder{}, search, counter, 3)

	tr := &plan.TimeRange{Start: time.Now().AddDate(0, 0, -7), End: time.Now()}
	outcomes := p.ProcessAll(context.Background(), "u1",
		[]domsub.SubQuestion{{Text: "q1", Plan: genericPlan()}}, tr, true)

	if outcomes[0].Failed() || len(outcomes[0].Results) != 1 {
		t.Errorf("count failure must degrade to a normal search, got %+v", outcomes[0])
	}
}

func TestProcessAll_EmbeddingFailureKeepsStructuredResults(t *testing.T) {
	search := &mockSearcher{results: []result.Result{
		result.NewUnscored("a", "content", time.Now(), result.SourceTheme, result.Metadata{}),
	}}
	p := newProcessor(t, &mockEmbedder{err: errors.New("provider down")}, search, &mockCounter{}, 3)

	outcomes := p.ProcessAll(context.Background(), "u1",
		[]domsub.SubQuestion{{Text: "q1", Plan: genericPlan()}}, nil, false)

	o := outcomes[0]
	if o.Failed() {
		t.Error("embedding failure alone must not fail the sub-question")
	}
	if len(o.Results) != 1 {
		t.Errorf("structured results must survive, got %d", len(o.Results))
	}
	if o.ReasoningNote == "" {
		t.Error("degradation should be noted")
	}
}

func TestProcessAll_PanicIsolatedToOneSubQuestion(t *testing.T) {
	search := &mockSearcher{
		panicOn: "bad",
		results: []result.Result{
			result.New("a", "content", time.Now(), 0.8, result.SourceVector, result.Metadata{}),
		},
	}
	p := newProcessor(t, &mockEmbedder{}, search, &mockCounter{}, 3)

	outcomes := p.ProcessAll(context.Background(), "u1", []domsub.SubQuestion{
		{Text: "ok1", Plan: genericPlan()},
		{Text: "bad", Plan: genericPlan()},
		{Text: "ok2", Plan: genericPlan()},
	}, nil, false)

	if !outcomes[1].Failed() {
		t.Error("panicking sub-question must carry an error placeholder")
	}
	if outcomes[0].Failed() || outcomes[2].Failed() {
		t.Error("siblings in the batch must be unaffected")
	}
	if len(outcomes[0].Results) != 1 || len(outcomes[2].Results) != 1 {
		t.Error("sibling results must survive")
	}
}

func TestSummarize_EmotionCentricVsGeneric(t *testing.T) {
	created := time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)
	meta := result.Metadata{Emotions: map[string]float64{"anxious": 0.62, "tired": 0.4}}
	results := []result.Result{
		result.New("a", "long day at work", created, 0.9, result.SourceVector, meta),
	}

	emotional := Summarize(domsub.SubQuestion{Text: "q", Plan: emotionPlan()}, results)
	if !strings.Contains(emotional, "anxious 0.62") {
		t.Errorf("emotion-centric summary must inline scores, got %q", emotional)
	}
	if !strings.Contains(emotional, "May 2, 2025") {
		t.Errorf("summary must carry the entry date, got %q", emotional)
	}

	generic := Summarize(domsub.SubQuestion{Text: "q", Plan: genericPlan()}, results)
	if strings.Contains(generic, "anxious") {
		t.Errorf("generic summary must not inline emotion scores, got %q", generic)
	}
}

func TestSummarize_TruncatesToTopResults(t *testing.T) {
	results := make([]result.Result, 5)
	for i := range results {
		results[i] = result.New("id", strings.Repeat("w", 300), time.Now(), 0.5, result.SourceVector, result.Metadata{})
	}

	s := Summarize(domsub.SubQuestion{Plan: genericPlan()}, results)
	if got := strings.Count(s, "\n") + 1; got != 3 {
		t.Errorf("expected 3 summary lines, got %d", got)
	}
	if !strings.Contains(s, "...") {
		t.Error("long content should be truncated with an ellipsis")
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(domsub.SubQuestion{Plan: genericPlan()}, nil)
	if s != "No matching journal entries found." {
		t.Errorf("unexpected empty summary: %q", s)
	}
}
