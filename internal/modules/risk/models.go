// Package risk implements portfolio risk attribution: covariance estimation,
// Euler decomposition of volatility into per-position contributions,
// Value-at-Risk and Conditional Value-at-Risk, active risk and active share.
package risk

// Contribution is one position's share of total portfolio volatility under
// Euler allocation.
type Contribution struct {
	Ticker string  `json:"ticker"`
	Weight float64 `json:"weight"`
	// Marginal is d(sigma_p)/d(w_i) = (Sigma w)_i / sigma_p.
	Marginal float64 `json:"marginal_contribution"`
	// Absolute is w_i * Marginal; these sum to portfolio volatility.
	Absolute float64 `json:"absolute_contribution"`
	// Percentage is Absolute / sigma_p; these sum to 1.
	Percentage float64 `json:"percentage_contribution"`
}

// TailContribution is a position's proportional share of portfolio tail risk.
// This is weight-proportional, not a marginal VaR: the quantile function is
// not smooth, so an exact marginal estimator would need kernel smoothing or
// simulation.
type TailContribution struct {
	Ticker           string  `json:"ticker"`
	Weight           float64 `json:"weight"`
	VaRContribution  float64 `json:"var_contribution"`
	CVaRContribution float64 `json:"cvar_contribution"`
}

// Result is the risk attribution output for one portfolio snapshot.
type Result struct {
	PortfolioVolatility float64 `json:"portfolio_volatility"`
	BenchmarkVolatility float64 `json:"benchmark_volatility"`
	ValueAtRisk         float64 `json:"value_at_risk"`
	ConditionalVaR      float64 `json:"conditional_var"`
	ConfidenceLevel     float64 `json:"confidence_level"`
	VarMethod           string  `json:"var_method"`
	ActiveRisk          float64 `json:"active_risk"`
	ActiveShare         float64 `json:"active_share"`

	Contributions     []Contribution     `json:"risk_contributions"`
	TailContributions []TailContribution `json:"tail_risk_contributions"`
}
