package cache

import (
	"fmt"
	"strings"
	"unicode"
)

// maxKeyTokens caps how much of the query participates in the cache key.
// Keeping only the leading tokens captures semantic intent rather than exact
// wording, so token-similar rephrasings from the same user can share an
// entry. Deliberately recall-oriented.
const maxKeyTokens = 10

// contextBucketSize groups conversation depth into coarse buckets.
const contextBucketSize = 5

// Key builds the response cache key from the normalized query, the owner,
// a context-length bucket and the complexity tag.
func Key(query, ownerID string, contextLen int, tag Complexity) string {
	bucket := (contextLen / contextBucketSize) * contextBucketSize
	return fmt.Sprintf("%s|%s|ctx%d|%s", ownerID, NormalizeQuery(query), bucket, tag)
}

// NormalizeQuery lowercases, strips punctuation, and keeps the first
// maxKeyTokens tokens of the query.
func NormalizeQuery(query string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(query) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	tokens := strings.Fields(b.String())
	if len(tokens) > maxKeyTokens {
		tokens = tokens[:maxKeyTokens]
	}
	return strings.Join(tokens, " ")
}
