// Package db defines the storage facade for the journal entry index.
// Consumers depend on the narrow sub-interfaces, not on Store itself.
package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
type Store interface {
	Pinger
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Searcher provides retrieval operations over the entry index.
type Searcher interface {
	// SearchKNN runs vector similarity search with owner/date prefilters.
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	// SearchAttr runs an attribute-filtered lookup sorted by recency.
	SearchAttr(ctx context.Context, q *AttrQuery) (*SearchResult, error)
	// CountRange returns the number of entries an owner has in a date range.
	CountRange(ctx context.Context, index, owner string, start, end *time.Time) (int, error)
}
