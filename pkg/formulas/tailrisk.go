package formulas

import (
	"math"
	"sort"
)

// HistoricalVaR calculates Value-at-Risk from a historical return sample using
// the historical-simulation method: the sample is sorted ascending and VaR is
// the negated return at index floor((1-confidence)*N).
//
// VaR is reported as a positive loss figure when the tail observation is a
// loss. An empty sample yields 0.
func HistoricalVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sorted := sortedCopy(returns)
	return -sorted[tailIndex(len(sorted), confidence)]
}

// HistoricalCVaR calculates Conditional Value-at-Risk: the negated mean of all
// returns at or below the VaR threshold observation. CVaR is always at least
// VaR; the two coincide for a degenerate (single-tail or constant) sample.
func HistoricalCVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sorted := sortedCopy(returns)
	idx := tailIndex(len(sorted), confidence)
	sum := 0.0
	for _, r := range sorted[:idx+1] {
		sum += r
	}
	return -sum / float64(idx+1)
}

// tailIndex maps a confidence level to the sorted-sample index of the VaR
// observation, clamped into [0, n-1].
func tailIndex(n int, confidence float64) int {
	idx := int(math.Floor((1 - confidence) * float64(n)))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return idx
}

func sortedCopy(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}
