package formulas

import "math"

// ChainLink compounds a sequence of periodic returns geometrically.
//
// Formula: (1+r1)*(1+r2)*...*(1+rN) - 1
//
// An empty sequence compounds to 0.
func ChainLink(returns []float64) float64 {
	cumulative := 1.0
	for _, r := range returns {
		cumulative *= 1 + r
	}
	return cumulative - 1
}

// CumulativeReturns returns the running chain-linked return after each period.
// CumulativeReturns(r)[t] equals ChainLink(r[:t+1]).
func CumulativeReturns(returns []float64) []float64 {
	out := make([]float64, len(returns))
	cumulative := 1.0
	for i, r := range returns {
		cumulative *= 1 + r
		out[i] = cumulative - 1
	}
	return out
}

// GeometricMeanReturn calculates the per-period geometric mean of a return
// series: (Π(1+r))^(1/N) - 1. A total loss (cumulative <= -1) yields -1.
func GeometricMeanReturn(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	cumulative := 1 + ChainLink(returns)
	if cumulative <= 0 {
		return -1
	}
	return math.Pow(cumulative, 1/float64(len(returns))) - 1
}
