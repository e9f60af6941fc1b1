// Package embgateway fronts the embedding provider with a bounded vector
// cache and in-flight request coalescing.
package embgateway

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/inkwell-labs/inkwell/internal/domain"
)

// Gateway wraps an embedding provider. Identical texts hit the cache;
// concurrent requests for identical texts share one provider call.
// Provider failures are not retried here — retry policy belongs to callers.
type Gateway struct {
	inner      domain.Embedder
	cache      *lru.Cache[string, []float32]
	flight     singleflight.Group
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a gateway with a vector cache bounded to cacheSize entries.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"/"coalesced"),
// passed explicitly; may be nil.
func New(
	inner domain.Embedder,
	cacheSize int,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) (*Gateway, error) {
	cache, err := lru.New[string, []float32](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &Gateway{
		inner:      inner,
		cache:      cache,
		cacheTotal: cacheTotal,
		logger:     logger,
	}, nil
}

// Embed returns the vector for text. Cache hits report zero token usage.
func (g *Gateway) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := normalize(text)
	if key == "" {
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding input: %w", domain.ErrInvalidInput)
	}

	if vec, ok := g.cache.Get(key); ok {
		g.inc("hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}

	v, err, shared := g.flight.Do(key, func() (any, error) {
		res, err := g.inner.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		g.cache.Add(key, res.Embedding)
		return res, nil
	})
	if err != nil {
		g.logger.Warn("Embedding request failed", zap.Error(err))
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}

	if shared {
		g.inc("coalesced")
	} else {
		g.inc("miss")
	}
	return v.(domain.EmbeddingResult), nil
}

// CacheLen returns the number of cached vectors.
func (g *Gateway) CacheLen() int { return g.cache.Len() }

func (g *Gateway) inc(result string) {
	if g.cacheTotal != nil {
		g.cacheTotal.WithLabelValues(result).Inc()
	}
}

// normalize produces the cache/coalescing key: lower-cased, trimmed text.
func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
