package attribution

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/aristath/attribution/internal/config"
	"github.com/aristath/attribution/internal/domain"
	"github.com/aristath/attribution/pkg/formulas"
)

// ReconcileTolerance is the relative tolerance for the effects-vs-active
// reconciliation check.
const ReconcileTolerance = 1e-6

// betaRatioFloor is the smallest matched benchmark return magnitude used in
// the simplified beta estimate; smaller denominators are skipped.
const betaRatioFloor = 1e-6

// Calculator computes single-period Brinson attribution. It holds only
// configuration and a logger; Calculate is a pure function of its inputs.
type Calculator struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewCalculator creates a new return attribution calculator.
func NewCalculator(cfg *config.Config, log zerolog.Logger) *Calculator {
	return &Calculator{
		cfg: cfg,
		log: log.With().Str("component", "return_attribution").Logger(),
	}
}

// Calculate decomposes the active return of one period into allocation,
// selection and interaction effects, with the sector buckets as the single
// source of the top-level effects.
func (c *Calculator) Calculate(positions []Position, benchmark Benchmark, lookup SectorLookup, period string) (Result, error) {
	if err := validateInputs(positions, benchmark); err != nil {
		return Result{}, err
	}

	if drift := benchmark.TotalReturn - benchmark.ComputedTotalReturn(); math.Abs(drift) > ReconcileTolerance {
		c.log.Warn().
			Str("benchmark", benchmark.Name).
			Float64("drift", drift).
			Msg("Benchmark precomputed total disagrees with constituents")
	}

	if len(positions) == 0 {
		// Recovered locally: an empty portfolio attributes nothing.
		result := Result{
			Period:          period,
			BenchmarkReturn: benchmark.TotalReturn,
			ActiveReturn:    -benchmark.TotalReturn,
			Sectors:         []SectorBucket{},
		}
		result.Quality = buildQuality(result)
		return result, nil
	}

	portfolioReturn := 0.0
	for _, pos := range positions {
		portfolioReturn += pos.Contribution
	}

	result := Result{
		Period:          period,
		PortfolioReturn: portfolioReturn,
		BenchmarkReturn: benchmark.TotalReturn,
		ActiveReturn:    portfolioReturn - benchmark.TotalReturn,
		Sectors:         AggregateSectors(positions, benchmark, lookup),
	}

	// The sector buckets are the only source of the top-level effects.
	for _, bucket := range result.Sectors {
		result.AllocationEffect += bucket.Allocation
		result.SelectionEffect += bucket.Selection
		result.InteractionEffect += bucket.Interaction
	}

	c.deriveStatistics(&result, positions, benchmark)
	result.Quality = buildQuality(result)

	if !result.Quality.Consistent {
		c.log.Warn().
			Str("period", period).
			Float64("residual", result.Quality.Residual).
			Msg("Attribution effects do not reconcile with active return")
	}

	c.log.Debug().
		Str("period", period).
		Float64("active_return", result.ActiveReturn).
		Int("sectors", len(result.Sectors)).
		Msg("Calculated return attribution")

	return result, nil
}

// deriveStatistics fills the cross-sectional performance statistics. The
// Sharpe/Sortino volatility input and the beta are cross-sectional
// approximations from the single period's per-position data, not regression
// estimates from a historical series.
func (c *Calculator) deriveStatistics(result *Result, positions []Position, benchmark Benchmark) {
	portfolioReturns := make([]float64, len(positions))
	benchmarkReturns := make([]float64, len(positions))
	activeReturns := make([]float64, len(positions))
	for i, pos := range positions {
		matched := benchmark.Returns[pos.Ticker]
		portfolioReturns[i] = pos.Return
		benchmarkReturns[i] = matched
		activeReturns[i] = pos.Return - matched
	}

	result.TrackingError = formulas.StdDev(activeReturns)
	result.InformationRatio = formulas.InformationRatio(result.ActiveReturn, result.TrackingError)
	result.BattingAverage = formulas.BattingAverage(portfolioReturns, benchmarkReturns)
	result.UpsideCapture = formulas.UpsideCapture(portfolioReturns, benchmarkReturns)
	result.DownsideCapture = formulas.DownsideCapture(portfolioReturns, benchmarkReturns)

	result.Beta = estimateBeta(positions, benchmark)
	riskFree := c.cfg.RiskFreeRate
	result.SharpeRatio = formulas.SharpeRatio(result.PortfolioReturn, riskFree, formulas.StdDev(portfolioReturns))
	result.SortinoRatio = formulas.SortinoRatio(result.PortfolioReturn, riskFree, portfolioReturns)
	result.TreynorRatio = formulas.TreynorRatio(result.PortfolioReturn, riskFree, result.Beta)
	result.JensensAlpha = formulas.JensensAlpha(result.PortfolioReturn, result.BenchmarkReturn, riskFree, result.Beta)
}

// estimateBeta approximates beta as the weighted average of per-position
// return/benchmark-return ratios. Positions whose matched benchmark return is
// near zero are skipped and the remaining weights renormalized.
func estimateBeta(positions []Position, benchmark Benchmark) float64 {
	var weighted, includedWeight float64
	for _, pos := range positions {
		matched := benchmark.Returns[pos.Ticker]
		if math.Abs(matched) < betaRatioFloor {
			continue
		}
		weighted += pos.Weight * (pos.Return / matched)
		includedWeight += pos.Weight
	}
	if includedWeight == 0 {
		return 0
	}
	return weighted / includedWeight
}

// buildQuality reconciles the computed effects against the active return and
// the sector buckets against the top-level effects.
func buildQuality(result Result) Quality {
	effectSum := result.AllocationEffect + result.SelectionEffect + result.InteractionEffect
	residual := result.ActiveReturn - effectSum

	var bucketAllocation, bucketSelection, bucketInteraction float64
	for _, bucket := range result.Sectors {
		bucketAllocation += bucket.Allocation
		bucketSelection += bucket.Selection
		bucketInteraction += bucket.Interaction
	}
	sectorResidual := math.Max(
		math.Abs(result.AllocationEffect-bucketAllocation),
		math.Max(
			math.Abs(result.SelectionEffect-bucketSelection),
			math.Abs(result.InteractionEffect-bucketInteraction),
		),
	)

	return Quality{
		Residual:       residual,
		SectorResidual: sectorResidual,
		Completeness:   reconcileScore(residual, result.ActiveReturn),
		Accuracy:       reconcileScore(sectorResidual, result.ActiveReturn),
		Consistent:     math.Abs(residual) <= ReconcileTolerance*scale(result.ActiveReturn),
	}
}

// reconcileScore maps a residual to a [0, 1] score relative to the magnitude
// of the quantity being reconciled.
func reconcileScore(residual, reference float64) float64 {
	score := 1 - math.Abs(residual)/scale(reference)
	if score < 0 {
		return 0
	}
	return score
}

func scale(reference float64) float64 {
	return math.Max(math.Abs(reference), 1.0)
}

func validateInputs(positions []Position, benchmark Benchmark) error {
	for _, pos := range positions {
		if !finite(pos.Weight) {
			return fmt.Errorf("%w: position %s weight is not finite", domain.ErrInvalidInput, pos.Ticker)
		}
		if !finite(pos.Return) {
			return fmt.Errorf("%w: position %s return is not finite", domain.ErrInvalidInput, pos.Ticker)
		}
	}
	for ticker, weight := range benchmark.Weights {
		if !finite(weight) || !finite(benchmark.Returns[ticker]) {
			return fmt.Errorf("%w: benchmark constituent %s is not finite", domain.ErrInvalidInput, ticker)
		}
	}
	if !finite(benchmark.TotalReturn) {
		return fmt.Errorf("%w: benchmark total return is not finite", domain.ErrInvalidInput)
	}
	return nil
}
