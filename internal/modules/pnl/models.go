package pnl

// Holding is one open position at cost basis.
type Holding struct {
	Ticker   string  `json:"ticker"`
	Cost     float64 `json:"cost"`
	Quantity float64 `json:"quantity"`
	Sector   string  `json:"sector,omitempty"`
}

// HoldingPnL is the valued view of a single holding.
type HoldingPnL struct {
	Ticker       string  `json:"ticker"`
	CurrentPrice float64 `json:"current_price"`
	CostPrice    float64 `json:"cost_price"`
	Quantity     float64 `json:"quantity"`
	MarketValue  float64 `json:"market_value"`
	PnL          float64 `json:"pnl"`
	// ReturnRate is fractional, price/cost - 1.
	ReturnRate float64 `json:"return_rate"`
}

// Report aggregates the valued holdings.
type Report struct {
	TotalPnL         float64      `json:"total_pnl"`
	TotalCost        float64      `json:"total_cost"`
	TotalMarketValue float64      `json:"total_market_value"`
	TotalReturnRate  float64      `json:"total_return_rate"`
	Winners          int          `json:"winners"`
	Losers           int          `json:"losers"`
	Holdings         []HoldingPnL `json:"holdings"`
}

// Transaction is one historical trade.
type Transaction struct {
	Ticker   string  `json:"ticker"`
	Action   string  `json:"action"` // ActionBuy or ActionSell
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
)

// Trading-style labels for Behavior.TradingStyle.
const (
	StyleAccumulating = "accumulating"
	StyleProfitTaking = "profit-taking"
	StyleBalanced     = "balanced"
)

// Behavior summarizes trading activity.
type Behavior struct {
	TotalTransactions int    `json:"total_transactions"`
	BuyCount          int    `json:"buy_count"`
	SellCount         int    `json:"sell_count"`
	TradingStyle      string `json:"trading_style"`
}
