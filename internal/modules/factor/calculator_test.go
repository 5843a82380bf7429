package factor

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/attribution/internal/config"
	"github.com/aristath/attribution/internal/domain"
	"github.com/aristath/attribution/internal/modules/attribution"
)

func newTestCalculator() *Calculator {
	return NewCalculator(config.Default(), zerolog.Nop())
}

func factorFixture() ([]attribution.Position, attribution.Benchmark, map[string]float64, Exposures, map[string]Class) {
	positions := []attribution.Position{
		attribution.NewPosition("AAPL", 0.5, 0.10, 500, "Tech"),
		attribution.NewPosition("MSFT", 0.3, 0.08, 300, "Tech"),
		attribution.NewPosition("XOM", 0.2, 0.02, 200, "Energy"),
	}
	benchmark := attribution.Benchmark{
		Weights:     map[string]float64{"AAPL": 0.3, "MSFT": 0.3, "XOM": 0.4},
		Returns:     map[string]float64{"AAPL": 0.08, "MSFT": 0.07, "XOM": 0.04},
		TotalReturn: 0.061,
	}
	factorReturns := map[string]float64{
		"momentum": 0.04,
		"value":    -0.01,
		"rates":    0.005,
	}
	exposures := Exposures{
		"AAPL": {"momentum": 1.2, "value": -0.3, "rates": 0.1},
		"MSFT": {"momentum": 0.9, "value": 0.1, "rates": 0.2},
		"XOM":  {"momentum": -0.2, "value": 1.1, "rates": 0.8},
	}
	classes := map[string]Class{
		"momentum": ClassStyle,
		"value":    ClassStyle,
		"rates":    ClassMacro,
	}
	return positions, benchmark, factorReturns, exposures, classes
}

func TestCalculateFactorPlusSpecificEqualsTotal(t *testing.T) {
	calc := newTestCalculator()
	positions, benchmark, factorReturns, exposures, classes := factorFixture()

	result, err := calc.Calculate(positions, benchmark, factorReturns, exposures, classes)
	require.NoError(t, err)

	assert.InDelta(t, 0.078, result.TotalReturn, 1e-12)
	assert.InDelta(t, result.TotalReturn, result.FactorReturn+result.SpecificReturn, 1e-12)
}

func TestCalculateFactorContributions(t *testing.T) {
	calc := newTestCalculator()
	positions, benchmark, factorReturns, exposures, classes := factorFixture()

	result, err := calc.Calculate(positions, benchmark, factorReturns, exposures, classes)
	require.NoError(t, err)
	require.Len(t, result.Factors, 3)

	byName := make(map[string]Contribution)
	for _, f := range result.Factors {
		byName[f.Name] = f
	}

	// Momentum exposure: 0.5*1.2 + 0.3*0.9 + 0.2*(-0.2) = 0.83
	momentum := byName["momentum"]
	assert.InDelta(t, 0.83, momentum.Exposure, 1e-12)
	assert.InDelta(t, 0.83*0.04, momentum.Contribution, 1e-12)
	assert.Equal(t, ClassStyle, momentum.Class)

	// Benchmark momentum exposure: 0.3*1.2 + 0.3*0.9 + 0.4*(-0.2) = 0.55
	assert.InDelta(t, 0.83-0.55, momentum.ActiveExposure, 1e-12)

	assert.Equal(t, ClassMacro, byName["rates"].Class)

	// Factors are reported in deterministic name order.
	assert.Equal(t, "momentum", result.Factors[0].Name)
	assert.Equal(t, "rates", result.Factors[1].Name)
	assert.Equal(t, "value", result.Factors[2].Name)
}

func TestCalculateRegressionFit(t *testing.T) {
	calc := newTestCalculator()
	positions, benchmark, factorReturns, exposures, classes := factorFixture()

	result, err := calc.Calculate(positions, benchmark, factorReturns, exposures, classes)
	require.NoError(t, err)

	// The fit must produce a usable coefficient of determination, not a
	// hard-coded heuristic.
	assert.GreaterOrEqual(t, result.RSquared, 0.0)
	assert.LessOrEqual(t, result.RSquared, 1.0)
}

func TestCalculateUnclassifiedFactorDefault(t *testing.T) {
	calc := newTestCalculator()
	positions, benchmark, factorReturns, exposures, _ := factorFixture()

	result, err := calc.Calculate(positions, benchmark, factorReturns, exposures, nil)
	require.NoError(t, err)

	for _, f := range result.Factors {
		assert.Equal(t, ClassUnclassified, f.Class)
	}
}

func TestCalculateEmptyPositions(t *testing.T) {
	calc := newTestCalculator()
	_, err := calc.Calculate(nil, attribution.Benchmark{}, nil, nil, nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCalculateDegenerateCrossSection(t *testing.T) {
	calc := newTestCalculator()

	// Two positions only: too small for a meaningful fit.
	positions := []attribution.Position{
		attribution.NewPosition("AAPL", 0.5, 0.10, 500, ""),
		attribution.NewPosition("XOM", 0.5, 0.02, 500, ""),
	}
	result, err := calc.Calculate(positions, attribution.Benchmark{}, map[string]float64{"momentum": 0.04}, Exposures{
		"AAPL": {"momentum": 1.0},
		"XOM":  {"momentum": 0.5},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.Alpha)
	assert.Equal(t, 0.0, result.RSquared)
}
