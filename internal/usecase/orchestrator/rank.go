package orchestrator

import (
	"sort"

	"github.com/inkwell-labs/inkwell/internal/domain/search/result"
)

// Rank orders results by descending effective score. The sort is stable so
// equal scores keep their merge order (vector before structured). Nothing is
// dropped here: truncating to a result budget is the caller's decision.
func Rank(results []result.Result) []result.Result {
	ranked := make([]result.Result, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].EffectiveScore() > ranked[j].EffectiveScore()
	})
	return ranked
}
