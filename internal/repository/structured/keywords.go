package structured

import "strings"

// joinKeywords builds a full-text query from filter values so the loose pass
// can match entries that mention the words without carrying the tag.
func joinKeywords(values []string) string {
	return strings.Join(values, " ")
}

// longestToken picks the most distinctive word of a query for the loose
// keyword pass.
func longestToken(query string) string {
	longest := ""
	for _, tok := range strings.Fields(query) {
		if len(tok) > len(longest) {
			longest = tok
		}
	}
	return longest
}

// normalizeEmotion mirrors the field-name normalization used by the index
// so metadata lookups line up with filter names.
func normalizeEmotion(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
