package multiperiod

import (
	"math"

	"github.com/aristath/attribution/internal/config"
	"github.com/aristath/attribution/internal/modules/attribution"
	"github.com/aristath/attribution/pkg/formulas"
)

// analyzeDrift builds the time-series layer over the per-period effect
// series: sign consistency, persistence, autocorrelation, regime-change flags
// and the portfolio drawdown.
func analyzeDrift(periods []attribution.Result, cfg *config.Config) DriftAnalysis {
	allocation := effectSeries(periods, func(r attribution.Result) float64 { return r.AllocationEffect })
	selection := effectSeries(periods, func(r attribution.Result) float64 { return r.SelectionEffect })
	interaction := effectSeries(periods, func(r attribution.Result) float64 { return r.InteractionEffect })
	portfolio := effectSeries(periods, func(r attribution.Result) float64 { return r.PortfolioReturn })

	return DriftAnalysis{
		Effects: []EffectDrift{
			describeEffect("allocation", allocation, cfg.DriftThreshold),
			describeEffect("selection", selection, cfg.DriftThreshold),
			describeEffect("interaction", interaction, cfg.DriftThreshold),
		},
		RegimeChanges: detectRegimeChanges(periods, allocation, selection, cfg.RegimeChangeThreshold),
		MaxDrawdown:   formulas.MaxDrawdownFromReturns(portfolio),
	}
}

func describeEffect(name string, series []float64, driftThreshold float64) EffectDrift {
	consistency := consistencyScore(series)
	return EffectDrift{
		Effect:          name,
		Consistency:     consistency,
		Persistence:     signPersistence(series),
		Autocorrelation: formulas.Lag1Autocorrelation(series),
		Drifting:        driftThreshold > 0 && consistency < driftThreshold,
	}
}

// consistencyScore is 2*|positiveFraction - 0.5|: 1.0 when every period
// has the same sign, 0.0 when signs are maximally mixed.
func consistencyScore(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	positive := 0
	for _, v := range series {
		if v > 0 {
			positive++
		}
	}
	fraction := float64(positive) / float64(len(series))
	return 2 * math.Abs(fraction-0.5)
}

// signPersistence is the fraction of consecutive period pairs whose effect
// signs agree.
func signPersistence(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}
	agreements := 0
	for t := 1; t < len(series); t++ {
		if series[t]*series[t-1] > 0 {
			agreements++
		}
	}
	return float64(agreements) / float64(len(series)-1)
}

// detectRegimeChanges flags periods where the allocation or selection effect
// jumped more than the threshold against the previous period, naming the
// larger-magnitude driver as the cause.
func detectRegimeChanges(periods []attribution.Result, allocation, selection []float64, threshold float64) []RegimeChange {
	changes := []RegimeChange{}
	if threshold <= 0 {
		return changes
	}
	for t := 1; t < len(periods); t++ {
		allocationJump := math.Abs(allocation[t] - allocation[t-1])
		selectionJump := math.Abs(selection[t] - selection[t-1])
		if allocationJump <= threshold && selectionJump <= threshold {
			continue
		}

		driver := "allocation"
		magnitude := allocationJump
		if selectionJump > allocationJump {
			driver = "selection"
			magnitude = selectionJump
		}
		changes = append(changes, RegimeChange{
			PeriodIndex: t,
			Period:      periods[t].Period,
			Driver:      driver,
			Magnitude:   magnitude,
		})
	}
	return changes
}

func effectSeries(periods []attribution.Result, pick func(attribution.Result) float64) []float64 {
	series := make([]float64, len(periods))
	for i, period := range periods {
		series[i] = pick(period)
	}
	return series
}
