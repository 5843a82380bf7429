package risk

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/attribution/internal/config"
	"github.com/aristath/attribution/pkg/formulas"
)

// PortfolioReturnSeries builds the historical portfolio return series by
// weighting each instrument's series with its current weight. Series whose
// length disagrees with the modal observation count contribute 0, matching
// the covariance mismatch policy.
func PortfolioReturnSeries(weights map[string]float64, returns map[string][]float64, symbols []string) []float64 {
	observations := Observations(returns, symbols)
	series := make([]float64, observations)
	for _, symbol := range symbols {
		instrument := returns[symbol]
		if len(instrument) != observations {
			continue
		}
		weight := weights[symbol]
		for t, r := range instrument {
			series[t] += weight * r
		}
	}
	return series
}

// tailRisk holds a VaR/CVaR pair at one confidence level.
type tailRisk struct {
	VaR  float64
	CVaR float64
}

// estimateTailRisk dispatches on the configured VaR method. Historical
// simulation is the normative arm; parametric and monte-carlo are extension
// arms that assume normally distributed portfolio returns.
func estimateTailRisk(series []float64, cfg *config.Config) tailRisk {
	switch cfg.VarMethod {
	case config.VarMethodParametric:
		return parametricTailRisk(series, cfg.ConfidenceLevel)
	case config.VarMethodMonteCarlo:
		return monteCarloTailRisk(series, cfg.ConfidenceLevel, cfg.MonteCarloSimulations, cfg.MonteCarloSeed)
	default:
		return tailRisk{
			VaR:  formulas.HistoricalVaR(series, cfg.ConfidenceLevel),
			CVaR: formulas.HistoricalCVaR(series, cfg.ConfidenceLevel),
		}
	}
}

// parametricTailRisk fits a normal distribution to the sample:
//
//	VaR  = -(mu - z*sigma)           with z the confidence quantile
//	CVaR = -(mu - sigma*phi(z)/(1-c)) (expected shortfall of the normal)
func parametricTailRisk(series []float64, confidence float64) tailRisk {
	mu := formulas.Mean(series)
	sigma := formulas.StdDev(series)
	if sigma == 0 {
		return tailRisk{VaR: -mu, CVaR: -mu}
	}

	normal := distuv.UnitNormal
	z := normal.Quantile(confidence)
	shortfall := normal.Prob(z) / (1 - confidence)

	return tailRisk{
		VaR:  -(mu - z*sigma),
		CVaR: -(mu - shortfall*sigma),
	}
}

// monteCarloTailRisk simulates portfolio returns from a normal fit of the
// sample and applies the historical estimator to the simulated draws. A
// non-zero seed pins the generator so identical calls reproduce identical
// estimates.
func monteCarloTailRisk(series []float64, confidence float64, simulations int, seed uint64) tailRisk {
	mu := formulas.Mean(series)
	sigma := formulas.StdDev(series)
	if sigma == 0 {
		return tailRisk{VaR: -mu, CVaR: -mu}
	}

	normal := distuv.Normal{Mu: mu, Sigma: sigma}
	if seed != 0 {
		normal.Src = rand.NewSource(seed)
	}
	simulated := make([]float64, simulations)
	for i := range simulated {
		simulated[i] = normal.Rand()
	}

	return tailRisk{
		VaR:  formulas.HistoricalVaR(simulated, confidence),
		CVaR: formulas.HistoricalCVaR(simulated, confidence),
	}
}
