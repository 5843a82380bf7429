package multiperiod

import (
	"math"

	"github.com/aristath/attribution/internal/config"
	"github.com/aristath/attribution/internal/modules/attribution"
)

// linkedEffects carries the smoothed effects of one linking method. The
// smoothing adjustment is always the exact leftover, so
// Allocation + Selection + Interaction + Adjustment == cumulativeActive.
type linkedEffects struct {
	Allocation  float64
	Selection   float64
	Interaction float64
	Adjustment  float64
}

// linkEffects redistributes the single-period effects so they reconcile with
// the geometric cumulative active return. Arithmetic sums of per-period
// effects do not compound, so each method scales them and reports the exact
// leftover as the smoothing adjustment.
func linkEffects(method config.LinkingMethod, periods []attribution.Result, cumulativeActive float64) linkedEffects {
	var linked linkedEffects
	switch method {
	case config.LinkingMenchero:
		linked = linkWithCoefficients(periods, mencheroCoefficients(periods))
	case config.LinkingGRAP:
		linked = linkGRAP(periods, cumulativeActive)
	default:
		linked = linkWithCoefficients(periods, carinoCoefficients(periods))
	}
	linked.Adjustment = cumulativeActive - (linked.Allocation + linked.Selection + linked.Interaction)
	return linked
}

func linkWithCoefficients(periods []attribution.Result, coefficients []float64) linkedEffects {
	var linked linkedEffects
	for t, period := range periods {
		linked.Allocation += coefficients[t] * period.AllocationEffect
		linked.Selection += coefficients[t] * period.SelectionEffect
		linked.Interaction += coefficients[t] * period.InteractionEffect
	}
	return linked
}

// carinoCoefficients computes the Carino logarithmic scaling factors: each
// period's factor k_t = (ln(1+Rp_t) - ln(1+Rb_t)) / (Rp_t - Rb_t), normalized
// by the same factor evaluated on the cumulative returns.
func carinoCoefficients(periods []attribution.Result) []float64 {
	portfolioCumulative := 1.0
	benchmarkCumulative := 1.0
	for _, period := range periods {
		portfolioCumulative *= 1 + period.PortfolioReturn
		benchmarkCumulative *= 1 + period.BenchmarkReturn
	}
	overall := logFactor(portfolioCumulative-1, benchmarkCumulative-1)

	coefficients := make([]float64, len(periods))
	for t, period := range periods {
		if overall == 0 {
			coefficients[t] = 1
			continue
		}
		coefficients[t] = logFactor(period.PortfolioReturn, period.BenchmarkReturn) / overall
	}
	return coefficients
}

// logFactor is (ln(1+rp) - ln(1+rb)) / (rp - rb), with the analytic limit
// 1/(1+rp) when the returns coincide. Returns at or below -100% have no
// logarithm; the factor degrades to 1 there.
func logFactor(rp, rb float64) float64 {
	if 1+rp <= 0 || 1+rb <= 0 {
		return 1
	}
	if math.Abs(rp-rb) < 1e-12 {
		return 1 / (1 + rp)
	}
	return (math.Log(1+rp) - math.Log(1+rb)) / (rp - rb)
}

// mencheroCoefficients computes cumulative-compounding factors: period t is
// scaled by the benchmark growth before it and the portfolio growth after it,
// which telescopes so that scaled active returns sum to the cumulative active
// return exactly.
func mencheroCoefficients(periods []attribution.Result) []float64 {
	n := len(periods)
	benchmarkBefore := make([]float64, n)
	growth := 1.0
	for t := 0; t < n; t++ {
		benchmarkBefore[t] = growth
		growth *= 1 + periods[t].BenchmarkReturn
	}

	portfolioAfter := make([]float64, n)
	growth = 1.0
	for t := n - 1; t >= 0; t-- {
		portfolioAfter[t] = growth
		growth *= 1 + periods[t].PortfolioReturn
	}

	coefficients := make([]float64, n)
	for t := 0; t < n; t++ {
		coefficients[t] = benchmarkBefore[t] * portfolioAfter[t]
	}
	return coefficients
}

// linkGRAP applies one scalar beta = cumulativeActive / sum of all raw
// effects uniformly. When the raw effects sum to 0 the scalar is 0 and the
// whole cumulative active return surfaces as the smoothing adjustment.
func linkGRAP(periods []attribution.Result, cumulativeActive float64) linkedEffects {
	var rawAllocation, rawSelection, rawInteraction float64
	for _, period := range periods {
		rawAllocation += period.AllocationEffect
		rawSelection += period.SelectionEffect
		rawInteraction += period.InteractionEffect
	}

	rawTotal := rawAllocation + rawSelection + rawInteraction
	if rawTotal == 0 {
		return linkedEffects{}
	}

	beta := cumulativeActive / rawTotal
	return linkedEffects{
		Allocation:  beta * rawAllocation,
		Selection:   beta * rawSelection,
		Interaction: beta * rawInteraction,
	}
}
