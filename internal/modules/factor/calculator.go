// Package factor implements factor attribution: mapping industry, style and
// macro factor exposures to return contributions, splitting total return into
// explained and specific parts, and fitting a cross-sectional regression for
// alpha and R².
package factor

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/attribution/internal/config"
	"github.com/aristath/attribution/internal/domain"
	"github.com/aristath/attribution/internal/modules/attribution"
)

// Class categorizes a factor.
type Class string

const (
	ClassIndustry     Class = "industry"
	ClassStyle        Class = "style"
	ClassMacro        Class = "macro"
	ClassUnclassified Class = "unclassified"
)

// Exposures maps ticker -> factor name -> exposure.
type Exposures map[string]map[string]float64

// Contribution is one factor's aggregate exposure and return contribution.
type Contribution struct {
	Name  string `json:"name"`
	Class Class  `json:"class"`
	// Exposure is the weight-aggregated portfolio exposure to the factor.
	Exposure float64 `json:"exposure"`
	// ActiveExposure is Exposure minus the benchmark-weighted exposure.
	ActiveExposure float64 `json:"active_exposure"`
	FactorReturn   float64 `json:"factor_return"`
	// Contribution is Exposure * FactorReturn.
	Contribution float64 `json:"contribution"`
}

// Result is the factor attribution output. FactorReturn + SpecificReturn
// always equals TotalReturn.
type Result struct {
	TotalReturn    float64        `json:"total_return"`
	FactorReturn   float64        `json:"factor_return"`
	SpecificReturn float64        `json:"specific_return"`
	Alpha          float64        `json:"alpha"`
	RSquared       float64        `json:"r_squared"`
	Factors        []Contribution `json:"factors"`
}

// Calculator computes factor attribution. It holds only configuration and a
// logger; Calculate is a pure function of its inputs.
type Calculator struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewCalculator creates a new factor attribution calculator.
func NewCalculator(cfg *config.Config, log zerolog.Logger) *Calculator {
	return &Calculator{
		cfg: cfg,
		log: log.With().Str("component", "factor_attribution").Logger(),
	}
}

// Calculate aggregates per-instrument exposures into portfolio factor
// contributions and splits total return into factor and specific parts.
//
// Alpha and R² come from a weighted least-squares fit of per-position returns
// on their factor-model predictions (R_i = α + β·Σ_k e_ik·F_k + ε), not from
// a fixed assumed explanatory power.
func (c *Calculator) Calculate(
	positions []attribution.Position,
	benchmark attribution.Benchmark,
	factorReturns map[string]float64,
	exposures Exposures,
	classes map[string]Class,
) (Result, error) {
	if len(positions) == 0 {
		return Result{}, fmt.Errorf("%w: factor attribution needs at least one position", domain.ErrInvalidInput)
	}

	totalReturn := 0.0
	for _, pos := range positions {
		totalReturn += pos.Contribution
	}

	factors := make([]Contribution, 0, len(factorReturns))
	factorReturn := 0.0
	for _, name := range sortedFactorNames(factorReturns) {
		exposure := aggregateExposure(positions, exposures, name)
		benchmarkExposure := benchmarkAggregateExposure(benchmark, exposures, name)
		contribution := exposure * factorReturns[name]
		factorReturn += contribution

		factors = append(factors, Contribution{
			Name:           name,
			Class:          classify(name, classes),
			Exposure:       exposure,
			ActiveExposure: exposure - benchmarkExposure,
			FactorReturn:   factorReturns[name],
			Contribution:   contribution,
		})
	}

	alpha, rSquared := c.fitCrossSection(positions, factorReturns, exposures)

	result := Result{
		TotalReturn:    totalReturn,
		FactorReturn:   factorReturn,
		SpecificReturn: totalReturn - factorReturn,
		Alpha:          alpha,
		RSquared:       rSquared,
		Factors:        factors,
	}

	c.log.Debug().
		Float64("total_return", totalReturn).
		Float64("factor_return", factorReturn).
		Float64("r_squared", rSquared).
		Int("factors", len(factors)).
		Msg("Calculated factor attribution")

	return result, nil
}

// fitCrossSection regresses per-position returns on their factor-model
// predictions, weighted by position weight. Degenerate cross-sections (fewer
// than 3 positions, or no prediction variance) yield alpha 0 and R² 0.
func (c *Calculator) fitCrossSection(
	positions []attribution.Position,
	factorReturns map[string]float64,
	exposures Exposures,
) (alpha, rSquared float64) {
	if len(positions) < 3 {
		return 0, 0
	}

	predicted := make([]float64, len(positions))
	actual := make([]float64, len(positions))
	weights := make([]float64, len(positions))
	variance := false
	for i, pos := range positions {
		for name, factorReturn := range factorReturns {
			predicted[i] += exposures[pos.Ticker][name] * factorReturn
		}
		actual[i] = pos.Return
		weights[i] = pos.Weight
		if i > 0 && predicted[i] != predicted[0] {
			variance = true
		}
	}
	if !variance {
		return 0, 0
	}

	intercept, slope := stat.LinearRegression(predicted, actual, weights, false)
	r2 := stat.RSquared(predicted, actual, weights, intercept, slope)
	if !isFinite(intercept) || !isFinite(r2) {
		return 0, 0
	}
	if r2 < 0 {
		r2 = 0
	}
	return intercept, r2
}

func aggregateExposure(positions []attribution.Position, exposures Exposures, factor string) float64 {
	total := 0.0
	for _, pos := range positions {
		total += pos.Weight * exposures[pos.Ticker][factor]
	}
	return total
}

func benchmarkAggregateExposure(benchmark attribution.Benchmark, exposures Exposures, factor string) float64 {
	total := 0.0
	for ticker, weight := range benchmark.Weights {
		total += weight * exposures[ticker][factor]
	}
	return total
}

func classify(name string, classes map[string]Class) Class {
	if class, ok := classes[name]; ok && class != "" {
		return class
	}
	return ClassUnclassified
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func sortedFactorNames(factorReturns map[string]float64) []string {
	names := make([]string, 0, len(factorReturns))
	for name := range factorReturns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
