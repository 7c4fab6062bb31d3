package scenario

import (
	"math"
	"sort"
)

// ApplyWinRateFilter stress-tests a fixed outcome series under a
// pessimistic realized-accuracy assumption: the bottom (1 - winRate)
// fraction of returns, ranked by original value, is forced to the stop-loss
// return while the top fraction keeps its actual returns.
//
// The input is never mutated. Ties rank by position for determinism.
func ApplyWinRateFilter(returns []float64, winRate float64, stopLossReturn float64) []float64 {
	filtered := make([]float64, len(returns))
	copy(filtered, returns)

	if len(returns) == 0 || winRate >= 1 {
		return filtered
	}

	keep := int(math.Round(winRate * float64(len(returns))))
	if keep < 0 {
		keep = 0
	}

	indices := make([]int, len(returns))
	for i := range indices {
		indices[i] = i
	}

	sort.SliceStable(indices, func(a, b int) bool {
		return returns[indices[a]] > returns[indices[b]]
	})

	for _, idx := range indices[keep:] {
		filtered[idx] = stopLossReturn
	}

	return filtered
}
