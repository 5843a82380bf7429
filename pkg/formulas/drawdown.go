package formulas

// MaxDrawdownFromReturns calculates the maximum peak-to-trough decline of the
// wealth curve implied by a periodic return series.
//
// Drawdown = (Peak Value - Current Value) / Peak Value
//
// The result is a positive fraction (0.25 = 25% loss from peak).
func MaxDrawdownFromReturns(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	value := 1.0
	peak := 1.0
	maxDrawdown := 0.0

	for _, r := range returns {
		value *= 1 + r
		if value > peak {
			peak = value
		}
		if peak > 0 {
			drawdown := (peak - value) / peak
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return maxDrawdown
}
