// Package multiperiod composes single-period Brinson results across time:
// geometric chain-linking of returns, smoothing of attribution effects so the
// linked effects reconcile exactly with the cumulative active return, and
// drift analysis over the effect series.
package multiperiod

import (
	"github.com/aristath/attribution/internal/modules/attribution"
)

// Period is one attribution period's input snapshot.
type Period struct {
	Label     string                   `json:"label"`
	Positions []attribution.Position   `json:"positions"`
	Benchmark attribution.Benchmark    `json:"benchmark"`
	Sectors   attribution.SectorLookup `json:"sectors,omitempty"`
}

// EffectDrift summarizes the time-series behavior of one effect.
type EffectDrift struct {
	Effect string `json:"effect"`
	// Consistency is 2*|positiveFraction - 0.5|: 1 when the effect always
	// has the same sign, 0 when maximally mixed.
	Consistency float64 `json:"consistency"`
	// Persistence is the period-over-period sign-agreement rate.
	Persistence float64 `json:"persistence"`
	// Autocorrelation is the lag-1 autocorrelation of the effect series, an
	// information-coefficient proxy.
	Autocorrelation float64 `json:"autocorrelation"`
	// Drifting flags a series whose consistency fell below the configured
	// drift threshold.
	Drifting bool `json:"drifting"`
}

// RegimeChange flags a period whose allocation or selection effect jumped
// beyond the configured threshold.
type RegimeChange struct {
	PeriodIndex int     `json:"period_index"`
	Period      string  `json:"period"`
	Driver      string  `json:"driver"` // "allocation" or "selection"
	Magnitude   float64 `json:"magnitude"`
}

// DriftAnalysis is the time-series layer of a multi-period result.
type DriftAnalysis struct {
	Effects       []EffectDrift  `json:"effects"`
	RegimeChanges []RegimeChange `json:"regime_changes"`
	// MaxDrawdown is the largest peak-to-trough decline of the portfolio
	// wealth curve over the period sequence.
	MaxDrawdown float64 `json:"max_drawdown"`
}

// Result is the multi-period attribution output. It is built once from an
// ordered period list and immutable after construction.
type Result struct {
	Periods []attribution.Result `json:"periods"`

	CumulativeReturn          float64 `json:"cumulative_return"`
	CumulativeBenchmarkReturn float64 `json:"cumulative_benchmark_return"`
	CumulativeActiveReturn    float64 `json:"cumulative_active_return"`

	LinkingMethod       string  `json:"linking_method"`
	LinkedAllocation    float64 `json:"linked_allocation"`
	LinkedSelection     float64 `json:"linked_selection"`
	LinkedInteraction   float64 `json:"linked_interaction"`
	SmoothingAdjustment float64 `json:"smoothing_adjustment"`

	Drift DriftAnalysis `json:"drift"`
}
