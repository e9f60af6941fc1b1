package orchestrator

import "github.com/inkwell-labs/inkwell/internal/domain/search/result"

// Merge combines the two backends' outputs, vector results first. Duplicates
// are dropped by entry id with the vector copy winning, so semantic relevance
// stays primary and, on equal scores, vector hits rank ahead of structured
// ones after the stable sort.
func Merge(vector, structured []result.Result) []result.Result {
	merged := make([]result.Result, 0, len(vector)+len(structured))
	seen := make(map[string]struct{}, len(vector)+len(structured))

	for _, r := range vector {
		if _, ok := seen[r.ID()]; ok {
			continue
		}
		seen[r.ID()] = struct{}{}
		merged = append(merged, r)
	}
	for _, r := range structured {
		if _, ok := seen[r.ID()]; ok {
			continue
		}
		seen[r.ID()] = struct{}{}
		merged = append(merged, r)
	}
	return merged
}
