// Package cache implements the in-process response cache: a TTL+LRU store,
// recall-oriented key generation, and the complexity-scaled TTL policy.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Complexity is the cache-facing complexity tag. It scales entry TTL.
type Complexity string

// Complexity tags in ascending TTL order.
const (
	ComplexitySimple      Complexity = "simple"
	ComplexityModerate    Complexity = "moderate"
	ComplexityComplex     Complexity = "complex"
	ComplexityVeryComplex Complexity = "very_complex"
)

type entry[V any] struct {
	key            string
	payload        V
	createdAt      time.Time
	ttl            time.Duration
	accessCount    int
	lastAccessedAt time.Time
	tag            Complexity
	owner          string
	elem           *list.Element
}

// Store is a thread-safe key/value store with per-entry TTL and true LRU
// eviction by last access time. Expiry is lazy: an expired entry is removed
// on the read that observes it.
type Store[V any] struct {
	mu       sync.Mutex
	entries  map[string]*entry[V]
	order    *list.List // front = most recently accessed
	capacity int
	now      func() time.Time
	onEvict  func()
}

// NewStore creates a store bounded to capacity entries.
func NewStore[V any](capacity int) *Store[V] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Store[V]{
		entries:  make(map[string]*entry[V]),
		order:    list.New(),
		capacity: capacity,
		now:      time.Now,
	}
}

// WithClock replaces the time source. Test hook.
func (s *Store[V]) WithClock(now func() time.Time) *Store[V] {
	s.now = now
	return s
}

// WithEvictionHook registers a callback invoked on each LRU eviction.
func (s *Store[V]) WithEvictionHook(fn func()) *Store[V] {
	s.onEvict = fn
	return s
}

// Get returns the payload for key, updating access metadata.
// An entry past its TTL is deleted and reported as a miss.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	e, ok := s.entries[key]
	if !ok {
		return zero, false
	}

	now := s.now()
	if s.expired(e, now) {
		s.remove(e)
		return zero, false
	}

	e.accessCount++
	e.lastAccessedAt = now
	s.order.MoveToFront(e.elem)
	return e.payload, true
}

// Has reports whether key holds a live entry without counting an access.
func (s *Store[V]) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	if s.expired(e, s.now()) {
		s.remove(e)
		return false
	}
	return true
}

// Set stores payload under key with the given TTL and tags. An existing
// entry is replaced in place. When the store exceeds capacity the entry
// with the oldest last access is evicted.
func (s *Store[V]) Set(key string, payload V, ttl time.Duration, tag Complexity, owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok {
		e.payload = payload
		e.createdAt = now
		e.ttl = ttl
		e.lastAccessedAt = now
		e.tag = tag
		e.owner = owner
		s.order.MoveToFront(e.elem)
		return
	}

	e := &entry[V]{
		key:            key,
		payload:        payload,
		createdAt:      now,
		ttl:            ttl,
		lastAccessedAt: now,
		tag:            tag,
		owner:          owner,
	}
	e.elem = s.order.PushFront(e)
	s.entries[key] = e

	for len(s.entries) > s.capacity {
		s.evictOldest()
	}
}

// Len returns the number of stored entries, including not-yet-collected
// expired ones.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store[V]) expired(e *entry[V], now time.Time) bool {
	return e.ttl > 0 && now.Sub(e.createdAt) >= e.ttl
}

func (s *Store[V]) remove(e *entry[V]) {
	s.order.Remove(e.elem)
	delete(s.entries, e.key)
}

func (s *Store[V]) evictOldest() {
	back := s.order.Back()
	if back == nil {
		return
	}
	s.remove(back.Value.(*entry[V]))
	if s.onEvict != nil {
		s.onEvict()
	}
}
