package risk

import (
	"context"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/attribution/internal/config"
	"github.com/aristath/attribution/internal/modules/attribution"
)

// Calculator computes risk attribution for a portfolio snapshot against a
// benchmark. It holds only configuration, the covariance builder and a
// logger; Calculate is a pure function of its inputs.
type Calculator struct {
	cfg     *config.Config
	builder *ModelBuilder
	log     zerolog.Logger
}

// NewCalculator creates a new risk attribution calculator.
func NewCalculator(cfg *config.Config, builder *ModelBuilder, log zerolog.Logger) *Calculator {
	return &Calculator{
		cfg:     cfg,
		builder: builder,
		log:     log.With().Str("component", "risk_attribution").Logger(),
	}
}

// Calculate builds the covariance model from the historical return series and
// decomposes portfolio risk:
//
//   - volatility sigma_p = sqrt(wᵗ Σ w), clamped at 0
//   - Euler allocation: marginal (Σw)_i/sigma_p, so Σ w_i·MC_i == sigma_p
//   - VaR/CVaR of the weighted historical portfolio return series
//   - active risk from the weight-difference vector, active share over the
//     full ticker union
//
// historicalReturns maps tickers to aligned, equal-length periodic return
// series; at least 2 observations are required.
func (c *Calculator) Calculate(
	ctx context.Context,
	positions []attribution.Position,
	benchmark attribution.Benchmark,
	historicalReturns map[string][]float64,
) (Result, error) {
	weights := make(map[string]float64, len(positions))
	for _, pos := range positions {
		weights[pos.Ticker] += pos.Weight
	}

	symbols := symbolUnion(weights, benchmark.Weights)
	matrix, err := c.builder.Covariance(ctx, historicalReturns, symbols)
	if err != nil {
		return Result{}, err
	}

	portfolioVector := weightVector(matrix.Symbols, weights)
	benchmarkVector := weightVector(matrix.Symbols, benchmark.Weights)

	portfolioVolatility := Volatility(matrix.QuadraticForm(portfolioVector))
	benchmarkVolatility := Volatility(matrix.QuadraticForm(benchmarkVector))

	activeVector := make([]float64, len(portfolioVector))
	for i := range activeVector {
		activeVector[i] = portfolioVector[i] - benchmarkVector[i]
	}

	series := PortfolioReturnSeries(weights, historicalReturns, matrix.Symbols)
	tail := estimateTailRisk(series, c.cfg)

	result := Result{
		PortfolioVolatility: portfolioVolatility,
		BenchmarkVolatility: benchmarkVolatility,
		ValueAtRisk:         tail.VaR,
		ConditionalVaR:      tail.CVaR,
		ConfidenceLevel:     c.cfg.ConfidenceLevel,
		VarMethod:           string(c.cfg.VarMethod),
		ActiveRisk:          Volatility(matrix.QuadraticForm(activeVector)),
		ActiveShare:         activeShare(symbols, weights, benchmark.Weights),
		Contributions:       eulerContributions(matrix, portfolioVector, portfolioVolatility, weights),
		TailContributions:   tailContributions(positions, tail),
	}

	c.log.Debug().
		Float64("portfolio_volatility", portfolioVolatility).
		Float64("var", tail.VaR).
		Float64("cvar", tail.CVaR).
		Int("positions", len(positions)).
		Msg("Calculated risk attribution")

	return result, nil
}

// eulerContributions applies Euler's theorem to the degree-1 homogeneous risk
// function sigma_p(w): the weighted marginal contributions sum exactly to
// sigma_p, and the percentage contributions to 1.
func eulerContributions(matrix Matrix, weights []float64, volatility float64, held map[string]float64) []Contribution {
	sigmaW := matrix.MulVec(weights)
	out := make([]Contribution, 0, len(held))
	for i, symbol := range matrix.Symbols {
		if _, ok := held[symbol]; !ok {
			continue
		}
		marginal := 0.0
		if volatility > 0 {
			marginal = sigmaW[i] / volatility
		}
		absolute := weights[i] * marginal
		percentage := 0.0
		if volatility > 0 {
			percentage = absolute / volatility
		}
		out = append(out, Contribution{
			Ticker:     symbol,
			Weight:     weights[i],
			Marginal:   marginal,
			Absolute:   absolute,
			Percentage: percentage,
		})
	}
	return out
}

// tailContributions allocates portfolio VaR/CVaR to positions in proportion
// to their weights.
func tailContributions(positions []attribution.Position, tail tailRisk) []TailContribution {
	sorted := make([]attribution.Position, len(positions))
	copy(sorted, positions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Ticker < sorted[j].Ticker })

	out := make([]TailContribution, len(sorted))
	for i, pos := range sorted {
		out[i] = TailContribution{
			Ticker:           pos.Ticker,
			Weight:           pos.Weight,
			VaRContribution:  pos.Weight * tail.VaR,
			CVaRContribution: pos.Weight * tail.CVaR,
		}
	}
	return out
}

// activeShare is half the sum of absolute weight differences over the union
// of portfolio and benchmark tickers.
func activeShare(symbols []string, portfolio, benchmark map[string]float64) float64 {
	total := 0.0
	for _, symbol := range symbols {
		total += math.Abs(portfolio[symbol] - benchmark[symbol])
	}
	return total / 2
}

func symbolUnion(portfolio, benchmark map[string]float64) []string {
	seen := make(map[string]struct{}, len(portfolio)+len(benchmark))
	for ticker := range portfolio {
		seen[ticker] = struct{}{}
	}
	for ticker := range benchmark {
		seen[ticker] = struct{}{}
	}
	symbols := make([]string, 0, len(seen))
	for ticker := range seen {
		symbols = append(symbols, ticker)
	}
	sort.Strings(symbols)
	return symbols
}

func weightVector(symbols []string, weights map[string]float64) []float64 {
	out := make([]float64, len(symbols))
	for i, symbol := range symbols {
		out[i] = weights[symbol]
	}
	return out
}
