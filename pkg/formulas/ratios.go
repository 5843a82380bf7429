package formulas

import "math"

// TrackingError calculates the sample standard deviation of active returns
// (portfolio minus benchmark, element-wise). Mismatched series yield 0.
func TrackingError(portfolioReturns, benchmarkReturns []float64) float64 {
	if len(portfolioReturns) < 2 || len(portfolioReturns) != len(benchmarkReturns) {
		return 0
	}
	active := make([]float64, len(portfolioReturns))
	for i := range portfolioReturns {
		active[i] = portfolioReturns[i] - benchmarkReturns[i]
	}
	return StdDev(active)
}

// InformationRatio calculates active return divided by tracking error.
// Returns 0 when tracking error is 0.
func InformationRatio(activeReturn, trackingError float64) float64 {
	if trackingError == 0 {
		return 0
	}
	return activeReturn / trackingError
}

// BattingAverage calculates the fraction of observations where the portfolio
// return beats the matched benchmark return.
func BattingAverage(portfolioReturns, benchmarkReturns []float64) float64 {
	if len(portfolioReturns) == 0 || len(portfolioReturns) != len(benchmarkReturns) {
		return 0
	}
	wins := 0
	for i := range portfolioReturns {
		if portfolioReturns[i] > benchmarkReturns[i] {
			wins++
		}
	}
	return float64(wins) / float64(len(portfolioReturns))
}

// UpsideCapture calculates the ratio of average portfolio return to average
// benchmark return over observations where the benchmark was positive.
// Returns 0 when the benchmark was never positive or averaged 0.
func UpsideCapture(portfolioReturns, benchmarkReturns []float64) float64 {
	return captureRatio(portfolioReturns, benchmarkReturns, func(b float64) bool { return b > 0 })
}

// DownsideCapture calculates the ratio of average portfolio return to average
// benchmark return over observations where the benchmark was negative.
func DownsideCapture(portfolioReturns, benchmarkReturns []float64) float64 {
	return captureRatio(portfolioReturns, benchmarkReturns, func(b float64) bool { return b < 0 })
}

func captureRatio(portfolioReturns, benchmarkReturns []float64, include func(float64) bool) float64 {
	if len(portfolioReturns) == 0 || len(portfolioReturns) != len(benchmarkReturns) {
		return 0
	}
	var portfolioSum, benchmarkSum float64
	count := 0
	for i, b := range benchmarkReturns {
		if include(b) {
			portfolioSum += portfolioReturns[i]
			benchmarkSum += b
			count++
		}
	}
	if count == 0 || benchmarkSum == 0 {
		return 0
	}
	return portfolioSum / benchmarkSum
}

// SharpeRatio calculates (return - riskFreeRate) / volatility.
// Returns 0 when volatility is 0.
func SharpeRatio(portfolioReturn, riskFreeRate, volatility float64) float64 {
	if volatility == 0 {
		return 0
	}
	return (portfolioReturn - riskFreeRate) / volatility
}

// SortinoRatio calculates (return - riskFreeRate) / downside deviation, where
// the downside deviation is taken over the supplied return observations that
// fall below the risk-free rate.
//
// Downside Deviation = sqrt(mean of squared deviations below the target)
func SortinoRatio(portfolioReturn, riskFreeRate float64, returns []float64) float64 {
	downside := DownsideDeviation(returns, riskFreeRate)
	if downside == 0 {
		return 0
	}
	return (portfolioReturn - riskFreeRate) / downside
}

// DownsideDeviation calculates the root-mean-square of return deviations below
// the target return. Returns 0 when no observation falls below the target.
func DownsideDeviation(returns []float64, target float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	var squaredSum float64
	count := 0
	for _, r := range returns {
		if r < target {
			d := r - target
			squaredSum += d * d
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(squaredSum / float64(count))
}

// TreynorRatio calculates (return - riskFreeRate) / beta.
// Returns 0 when beta is 0.
func TreynorRatio(portfolioReturn, riskFreeRate, beta float64) float64 {
	if beta == 0 {
		return 0
	}
	return (portfolioReturn - riskFreeRate) / beta
}

// JensensAlpha calculates the CAPM excess return:
// alpha = Rp - (rf + beta * (Rb - rf))
func JensensAlpha(portfolioReturn, benchmarkReturn, riskFreeRate, beta float64) float64 {
	return portfolioReturn - (riskFreeRate + beta*(benchmarkReturn-riskFreeRate))
}
