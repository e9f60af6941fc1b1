package cache

import "github.com/prometheus/client_golang/prometheus"

// ResponseCache fronts the whole retrieval pipeline. Keys combine the
// normalized query, owner, context depth and complexity; TTLs follow the
// complexity-scaled policy.
type ResponseCache[V any] struct {
	store   *Store[V]
	policy  TTLPolicy
	hitMiss *prometheus.CounterVec
}

// NewResponseCache creates a response cache bounded to capacity entries.
// hitMiss is a counter vec with label "result" ("hit"/"miss"); may be nil.
func NewResponseCache[V any](capacity int, policy TTLPolicy, hitMiss *prometheus.CounterVec) *ResponseCache[V] {
	return &ResponseCache[V]{
		store:   NewStore[V](capacity),
		policy:  policy,
		hitMiss: hitMiss,
	}
}

// WithEvictionHook forwards an eviction callback to the underlying store.
func (c *ResponseCache[V]) WithEvictionHook(fn func()) *ResponseCache[V] {
	c.store.WithEvictionHook(fn)
	return c
}

// Get looks up a cached payload.
func (c *ResponseCache[V]) Get(query, ownerID string, contextLen int, tag Complexity) (V, bool) {
	v, ok := c.store.Get(Key(query, ownerID, contextLen, tag))
	c.count(ok)
	return v, ok
}

// Set stores a payload with a TTL derived from its complexity tag.
func (c *ResponseCache[V]) Set(query, ownerID string, contextLen int, tag Complexity, analytical bool, payload V) {
	ttl := c.policy.TTL(tag, analytical)
	c.store.Set(Key(query, ownerID, contextLen, tag), payload, ttl, tag, ownerID)
}

// Len returns the number of cached entries.
func (c *ResponseCache[V]) Len() int { return c.store.Len() }

func (c *ResponseCache[V]) count(hit bool) {
	if c.hitMiss == nil {
		return
	}
	if hit {
		c.hitMiss.WithLabelValues("hit").Inc()
	} else {
		c.hitMiss.WithLabelValues("miss").Inc()
	}
}
