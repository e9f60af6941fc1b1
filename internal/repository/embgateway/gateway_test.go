package embgateway

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/inkwell-labs/inkwell/internal/domain"
)

type mockEmbedder struct {
	mu      sync.Mutex
	calls   int32
	vec     []float32
	err     error
	block   chan struct{} // when set, Embed waits until closed
	tokens  int
	lastArg string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	atomic.AddInt32(&m.calls, 1)
	m.mu.Lock()
	m.lastArg = text
	block := m.block
	m.mu.Unlock()
	if block != nil {
		<-block
	}
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: m.tokens}, nil
}

func newGateway(t *testing.T, inner domain.Embedder, size int) *Gateway {
	t.Helper()
	g, err := New(inner, size, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func TestEmbed_EmptyInput(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{1}}
	g := newGateway(t, inner, 4)

	for _, input := range []string{"", "   ", "\t\n"} {
		_, err := g.Embed(context.Background(), input)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("Embed(%q): expected ErrInvalidInput, got %v", input, err)
		}
	}
	if atomic.LoadInt32(&inner.calls) != 0 {
		t.Error("provider must not be called for empty input")
	}
}

func TestEmbed_CacheHitSkipsProvider(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{0.1, 0.2}, tokens: 7}
	g := newGateway(t, inner, 4)

	first, err := g.Embed(context.Background(), "Hello World")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.TotalTokens != 7 {
		t.Errorf("expected real token usage on miss, got %d", first.TotalTokens)
	}

	// Same normalized text: different case and surrounding whitespace.
	second, err := g.Embed(context.Background(), "  hello world ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.TotalTokens != 0 {
		t.Errorf("cache hit should report zero tokens, got %d", second.TotalTokens)
	}
	if got := atomic.LoadInt32(&inner.calls); got != 1 {
		t.Errorf("expected 1 provider call, got %d", got)
	}
}

func TestEmbed_CoalescesConcurrentRequests(t *testing.T) {
	block := make(chan struct{})
	inner := &mockEmbedder{vec: []float32{0.5}, block: block}
	g := newGateway(t, inner, 4)

	const n = 5
	var wg sync.WaitGroup
	results := make([]domain.EmbeddingResult, n)
	errs := make([]error, n)

	run := func(i int) {
		defer wg.Done()
		results[i], errs[i] = g.Embed(context.Background(), "same question")
	}

	wg.Add(1)
	go run(0)

	// Wait for the first request to occupy the in-flight slot.
	for atomic.LoadInt32(&inner.calls) == 0 {
		time.Sleep(time.Millisecond)
	}

	for i := 1; i < n; i++ {
		wg.Add(1)
		go run(i)
	}
	// Give the followers time to join the in-flight entry, then release.
	time.Sleep(50 * time.Millisecond)
	close(block)
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("goroutine %d: %v", i, errs[i])
		}
		if len(results[i].Embedding) != 1 {
			t.Errorf("goroutine %d: missing embedding", i)
		}
	}
	if got := atomic.LoadInt32(&inner.calls); got != 1 {
		t.Errorf("expected exactly 1 provider call for coalesced requests, got %d", got)
	}
}

func TestEmbed_ProviderErrorNotCached(t *testing.T) {
	inner := &mockEmbedder{err: domain.ErrEmbeddingProvider}
	g := newGateway(t, inner, 4)

	if _, err := g.Embed(context.Background(), "question"); !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}

	// A later attempt must reach the provider again, not a cached failure.
	inner.err = nil
	inner.vec = []float32{1}
	if _, err := g.Embed(context.Background(), "question"); err != nil {
		t.Fatalf("expected recovery after provider error, got %v", err)
	}
	if got := atomic.LoadInt32(&inner.calls); got != 2 {
		t.Errorf("expected 2 provider calls, got %d", got)
	}
}

func TestEmbed_CacheEvictsOldest(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{1}}
	g := newGateway(t, inner, 2)

	ctx := context.Background()
	for _, q := range []string{"first", "second", "third"} {
		if _, err := g.Embed(ctx, q); err != nil {
			t.Fatalf("Embed(%q): %v", q, err)
		}
	}

	if g.CacheLen() != 2 {
		t.Errorf("expected cache bounded to 2 entries, got %d", g.CacheLen())
	}

	// "first" was evicted; asking again must call the provider.
	before := atomic.LoadInt32(&inner.calls)
	if _, err := g.Embed(ctx, "first"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(&inner.calls) != before+1 {
		t.Error("expected provider call after eviction of oldest entry")
	}
}
