// Package formulas provides the pure statistical building blocks shared by the
// attribution calculators. Every function is stateless and returns 0 for
// degenerate input instead of NaN or Inf.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the sample variance of a slice of float64 values
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// Covariance calculates the sample covariance (n-1 denominator) between two
// equal-length series. Mismatched or empty series yield 0.
func Covariance(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	return stat.Covariance(x, y, nil)
}

// Correlation calculates the Pearson correlation coefficient between two series
func Correlation(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// WeightedMean calculates the weight-normalized mean of values.
// A zero total weight yields 0.
func WeightedMean(values, weights []float64) float64 {
	if len(values) == 0 || len(values) != len(weights) {
		return 0
	}
	var sum, totalWeight float64
	for i, v := range values {
		sum += weights[i] * v
		totalWeight += weights[i]
	}
	if totalWeight == 0 {
		return 0
	}
	return sum / totalWeight
}

// Lag1Autocorrelation calculates the lag-1 autocorrelation of a series,
// used as an information-coefficient proxy for effect persistence.
func Lag1Autocorrelation(series []float64) float64 {
	if len(series) < 3 {
		return 0
	}
	return Correlation(series[:len(series)-1], series[1:])
}
