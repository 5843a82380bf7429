package risk

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/attribution/internal/config"
	"github.com/aristath/attribution/internal/domain"
	"github.com/aristath/attribution/internal/modules/attribution"
)

func newTestCalculator(cfg *config.Config) *Calculator {
	builder := NewModelBuilder(nil, zerolog.Nop())
	return NewCalculator(cfg, builder, zerolog.Nop())
}

func twoAssetInputs() ([]attribution.Position, attribution.Benchmark, map[string][]float64) {
	positions := []attribution.Position{
		attribution.NewPosition("AAPL", 0.6, 0.10, 60000, "Tech"),
		attribution.NewPosition("XOM", 0.4, 0.02, 40000, "Energy"),
	}
	benchmark := attribution.Benchmark{
		Name:        "Composite",
		Weights:     map[string]float64{"AAPL": 0.4, "XOM": 0.6},
		Returns:     map[string]float64{"AAPL": 0.08, "XOM": 0.04},
		TotalReturn: 0.056,
	}
	historical := map[string][]float64{
		"AAPL": {0.02, -0.01, 0.03, -0.02, 0.01, 0.015, -0.005, 0.02},
		"XOM":  {-0.01, 0.02, -0.015, 0.01, 0.005, -0.02, 0.01, 0.0},
	}
	return positions, benchmark, historical
}

func TestCalculateEulerIdentity(t *testing.T) {
	calc := newTestCalculator(config.Default())
	positions, benchmark, historical := twoAssetInputs()

	result, err := calc.Calculate(context.Background(), positions, benchmark, historical)
	require.NoError(t, err)
	require.Greater(t, result.PortfolioVolatility, 0.0)

	// Euler identity: weighted marginal contributions sum to sigma_p.
	sum := 0.0
	percentageSum := 0.0
	for _, contribution := range result.Contributions {
		sum += contribution.Absolute
		percentageSum += contribution.Percentage
	}
	assert.InDelta(t, result.PortfolioVolatility, sum, 1e-12)
	assert.InDelta(t, 1.0, percentageSum, 1e-12)
}

func TestCalculateVaRScenario(t *testing.T) {
	// 20 portfolio observations uniformly from -2% to +2%: at 95% confidence
	// VaR is the negated observation at sorted index floor(0.05*20) = 1.
	historical := make(map[string][]float64)
	series := make([]float64, 20)
	for i := range series {
		series[i] = -0.02 + float64(i)*(0.04/19)
	}
	historical["SPY"] = series

	positions := []attribution.Position{
		attribution.NewPosition("SPY", 1.0, 0.05, 1000, ""),
	}
	benchmark := attribution.Benchmark{
		Weights:     map[string]float64{"SPY": 1.0},
		Returns:     map[string]float64{"SPY": 0.05},
		TotalReturn: 0.05,
	}

	calc := newTestCalculator(config.Default())
	result, err := calc.Calculate(context.Background(), positions, benchmark, historical)
	require.NoError(t, err)

	assert.InDelta(t, -series[1], result.ValueAtRisk, 1e-12)
	assert.InDelta(t, -(series[0]+series[1])/2, result.ConditionalVaR, 1e-12)
	assert.GreaterOrEqual(t, result.ConditionalVaR, result.ValueAtRisk)

	// Identical holdings and benchmark: no active risk or active share.
	assert.InDelta(t, 0.0, result.ActiveRisk, 1e-12)
	assert.InDelta(t, 0.0, result.ActiveShare, 1e-12)
}

func TestCalculateParametricCVaRAtLeastVaR(t *testing.T) {
	cfg := config.Default()
	cfg.VarMethod = config.VarMethodParametric

	calc := newTestCalculator(cfg)
	positions, benchmark, historical := twoAssetInputs()

	result, err := calc.Calculate(context.Background(), positions, benchmark, historical)
	require.NoError(t, err)

	assert.Equal(t, "parametric", result.VarMethod)
	assert.GreaterOrEqual(t, result.ConditionalVaR, result.ValueAtRisk)
}

func TestCalculateMonteCarloCVaRAtLeastVaR(t *testing.T) {
	cfg := config.Default()
	cfg.VarMethod = config.VarMethodMonteCarlo
	cfg.MonteCarloSimulations = 2000

	calc := newTestCalculator(cfg)
	positions, benchmark, historical := twoAssetInputs()

	result, err := calc.Calculate(context.Background(), positions, benchmark, historical)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.ConditionalVaR, result.ValueAtRisk)
}

func TestCalculateMonteCarloSeededIsReproducible(t *testing.T) {
	cfg := config.Default()
	cfg.VarMethod = config.VarMethodMonteCarlo
	cfg.MonteCarloSimulations = 2000
	cfg.MonteCarloSeed = 42

	calc := newTestCalculator(cfg)
	positions, benchmark, historical := twoAssetInputs()

	first, err := calc.Calculate(context.Background(), positions, benchmark, historical)
	require.NoError(t, err)

	second, err := calc.Calculate(context.Background(), positions, benchmark, historical)
	require.NoError(t, err)

	assert.Equal(t, first.ValueAtRisk, second.ValueAtRisk)
	assert.Equal(t, first.ConditionalVaR, second.ConditionalVaR)
}

func TestCalculateActiveShare(t *testing.T) {
	calc := newTestCalculator(config.Default())
	positions, benchmark, historical := twoAssetInputs()

	result, err := calc.Calculate(context.Background(), positions, benchmark, historical)
	require.NoError(t, err)

	// |0.6-0.4| + |0.4-0.6| = 0.4; active share is half of that.
	assert.InDelta(t, 0.2, result.ActiveShare, 1e-12)
}

func TestCalculateTailContributionsProportional(t *testing.T) {
	calc := newTestCalculator(config.Default())
	positions, benchmark, historical := twoAssetInputs()

	result, err := calc.Calculate(context.Background(), positions, benchmark, historical)
	require.NoError(t, err)
	require.Len(t, result.TailContributions, 2)

	total := 0.0
	for _, tc := range result.TailContributions {
		assert.InDelta(t, tc.Weight*result.ValueAtRisk, tc.VaRContribution, 1e-12)
		assert.InDelta(t, tc.Weight*result.ConditionalVaR, tc.CVaRContribution, 1e-12)
		total += tc.Weight
	}
	assert.InDelta(t, 1.0, total, 1e-12)
}

func TestCalculateInsufficientObservations(t *testing.T) {
	calc := newTestCalculator(config.Default())
	positions := []attribution.Position{
		attribution.NewPosition("AAPL", 1.0, 0.10, 1000, ""),
	}
	benchmark := attribution.Benchmark{
		Weights:     map[string]float64{"AAPL": 1.0},
		Returns:     map[string]float64{"AAPL": 0.08},
		TotalReturn: 0.08,
	}
	historical := map[string][]float64{"AAPL": {0.01}}

	_, err := calc.Calculate(context.Background(), positions, benchmark, historical)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCalculateMismatchedSeriesCovaryZero(t *testing.T) {
	calc := newTestCalculator(config.Default())
	positions := []attribution.Position{
		attribution.NewPosition("AAPL", 0.5, 0.10, 500, ""),
		attribution.NewPosition("SHORT", 0.5, 0.02, 500, ""),
	}
	benchmark := attribution.Benchmark{
		Weights:     map[string]float64{"AAPL": 1.0},
		Returns:     map[string]float64{"AAPL": 0.08},
		TotalReturn: 0.08,
	}
	historical := map[string][]float64{
		"AAPL":  {0.02, -0.01, 0.03, -0.02, 0.01},
		"SHORT": {0.01, 0.02}, // mismatched length
	}

	result, err := calc.Calculate(context.Background(), positions, benchmark, historical)
	require.NoError(t, err)

	// The mismatched instrument contributes no variance; volatility reflects
	// only the aligned series.
	assert.Greater(t, result.PortfolioVolatility, 0.0)
}

func TestCalculateIdempotent(t *testing.T) {
	calc := newTestCalculator(config.Default())
	positions, benchmark, historical := twoAssetInputs()

	first, err := calc.Calculate(context.Background(), positions, benchmark, historical)
	require.NoError(t, err)
	second, err := calc.Calculate(context.Background(), positions, benchmark, historical)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
