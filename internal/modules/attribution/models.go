// Package attribution implements single-period Brinson return attribution:
// sector aggregation, allocation/selection/interaction effects, derived
// performance statistics, and a reconciliation quality check.
package attribution

import (
	"math"
	"sort"
)

// Position is one portfolio holding for a single period. Weights are fractions
// of portfolio market value and Contribution is always Weight * Return.
type Position struct {
	Ticker       string  `json:"ticker"`
	Weight       float64 `json:"weight"`
	Return       float64 `json:"return"`
	Contribution float64 `json:"contribution"`
	MarketValue  float64 `json:"market_value"`
	Sector       string  `json:"sector,omitempty"`
}

// NewPosition builds a Position with the contribution invariant applied.
func NewPosition(ticker string, weight, periodReturn, marketValue float64, sector string) Position {
	return Position{
		Ticker:       ticker,
		Weight:       weight,
		Return:       periodReturn,
		Contribution: weight * periodReturn,
		MarketValue:  marketValue,
		Sector:       sector,
	}
}

// Benchmark is an immutable benchmark snapshot: per-constituent weights and
// returns plus a precomputed total return.
type Benchmark struct {
	Name        string             `json:"name"`
	Weights     map[string]float64 `json:"weights"`
	Returns     map[string]float64 `json:"returns"`
	TotalReturn float64            `json:"total_return"`
}

// ComputedTotalReturn recomputes the benchmark total from its constituents.
// Used to cross-check the precomputed total.
func (b Benchmark) ComputedTotalReturn() float64 {
	total := 0.0
	for ticker, weight := range b.Weights {
		total += weight * b.Returns[ticker]
	}
	return total
}

// Tickers returns the benchmark constituents in deterministic order.
func (b Benchmark) Tickers() []string {
	tickers := make([]string, 0, len(b.Weights))
	for ticker := range b.Weights {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	return tickers
}

// SectorLookup maps tickers to sector labels for positions and benchmark
// constituents that carry no sector tag of their own.
type SectorLookup map[string]string

// UnknownSector is the bucket for tickers with no classification. Missing
// classifications never raise an error.
const UnknownSector = "Unknown"

// SectorBucket aggregates portfolio and benchmark exposure for one sector and
// carries the three Brinson effects for it.
type SectorBucket struct {
	Sector           string  `json:"sector"`
	PortfolioWeight  float64 `json:"portfolio_weight"`
	PortfolioReturn  float64 `json:"portfolio_return"`
	BenchmarkWeight  float64 `json:"benchmark_weight"`
	BenchmarkReturn  float64 `json:"benchmark_return"`
	Allocation       float64 `json:"allocation"`
	Selection        float64 `json:"selection"`
	Interaction      float64 `json:"interaction"`
	TotalEffect      float64 `json:"total_effect"`
	PositionCount    int     `json:"position_count"`
	ConstituentCount int     `json:"constituent_count"`
}

// Quality reports how well the computed effects reconcile with the active
// return. Inconsistencies are reported here, never swallowed.
type Quality struct {
	// Residual is activeReturn - (allocation + selection + interaction).
	Residual float64 `json:"residual"`
	// SectorResidual is the largest gap between a top-level effect and the
	// corresponding sum over sector buckets.
	SectorResidual float64 `json:"sector_residual"`
	// Completeness scores the effects-vs-active reconciliation in [0, 1].
	Completeness float64 `json:"completeness"`
	// Accuracy scores the bucket-vs-top-level reconciliation in [0, 1].
	Accuracy float64 `json:"accuracy"`
	// Consistent is true when Residual is within the relative tolerance.
	Consistent bool `json:"consistent"`
}

// Result is the single-period return attribution output.
type Result struct {
	Period            string         `json:"period"`
	PortfolioReturn   float64        `json:"portfolio_return"`
	BenchmarkReturn   float64        `json:"benchmark_return"`
	ActiveReturn      float64        `json:"active_return"`
	AllocationEffect  float64        `json:"allocation_effect"`
	SelectionEffect   float64        `json:"selection_effect"`
	InteractionEffect float64        `json:"interaction_effect"`
	Sectors           []SectorBucket `json:"sectors"`

	TrackingError    float64 `json:"tracking_error"`
	InformationRatio float64 `json:"information_ratio"`
	BattingAverage   float64 `json:"batting_average"`
	UpsideCapture    float64 `json:"upside_capture"`
	DownsideCapture  float64 `json:"downside_capture"`

	Beta         float64 `json:"beta"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	SortinoRatio float64 `json:"sortino_ratio"`
	TreynorRatio float64 `json:"treynor_ratio"`
	JensensAlpha float64 `json:"jensens_alpha"`

	Quality Quality `json:"quality"`
}

// finite reports whether v is a usable number.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
