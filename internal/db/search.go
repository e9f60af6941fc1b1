package db

import "time"

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName     string
	Vector        []float32
	K             int
	MinSimilarity float64 // post-filter on cosine similarity, 0 disables
	Owner         string
	Start, End    *time.Time
	ReturnFields  []string
}

// AttrQuery is the input for structured attribute search.
// All filter groups are ANDed together; values inside a group are ORed.
type AttrQuery struct {
	IndexName    string
	Owner        string
	Themes       []string
	Entities     []string
	Emotions     []string
	EmotionMin   float64 // score threshold for emotion filters
	Keyword      string  // full-text match on entry content
	Start, End   *time.Time
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single entry hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
