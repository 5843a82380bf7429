package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// uniformReturns builds n returns evenly spaced over [lo, hi].
func uniformReturns(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

func TestHistoricalVaR(t *testing.T) {
	// 20 returns uniformly from -2% to +2%; at 95% confidence the VaR
	// observation sits at index floor(0.05*20) = 1 of the sorted sample.
	returns := uniformReturns(-0.02, 0.02, 20)

	got := HistoricalVaR(returns, 0.95)
	assert.InDelta(t, -returns[1], got, 1e-12)

	assert.Equal(t, 0.0, HistoricalVaR(nil, 0.95))
}

func TestHistoricalCVaR(t *testing.T) {
	returns := uniformReturns(-0.02, 0.02, 20)

	varValue := HistoricalVaR(returns, 0.95)
	cvarValue := HistoricalCVaR(returns, 0.95)

	// CVaR averages the tail at and below the VaR observation.
	assert.InDelta(t, -(returns[0]+returns[1])/2, cvarValue, 1e-12)
	assert.GreaterOrEqual(t, cvarValue, varValue)
}

func TestCVaRAtLeastVaR(t *testing.T) {
	samples := [][]float64{
		{-0.10, -0.05, -0.01, 0.0, 0.02, 0.03, 0.05, 0.08},
		uniformReturns(-0.05, 0.05, 50),
		{-0.30, 0.01, 0.01, 0.01, 0.01},
	}

	for _, returns := range samples {
		v := HistoricalVaR(returns, 0.95)
		c := HistoricalCVaR(returns, 0.95)
		require.GreaterOrEqual(t, c, v)
	}
}

func TestDegenerateSampleVaREqualsCVaR(t *testing.T) {
	constant := []float64{-0.01, -0.01, -0.01, -0.01}
	assert.Equal(t, HistoricalVaR(constant, 0.95), HistoricalCVaR(constant, 0.95))
}

func TestMaxDrawdownFromReturns(t *testing.T) {
	// +10%, -20%, +5%: trough is 20% below the post-gain peak.
	got := MaxDrawdownFromReturns([]float64{0.10, -0.20, 0.05})
	assert.InDelta(t, 0.20, got, 1e-12)

	assert.Equal(t, 0.0, MaxDrawdownFromReturns(nil))
	assert.Equal(t, 0.0, MaxDrawdownFromReturns([]float64{0.01, 0.02}))
}
