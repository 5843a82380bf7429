package pnl

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/attribution/internal/config"
	"github.com/aristath/attribution/internal/domain"
)

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(config.Default(), zerolog.Nop())
}

func fixtureHoldings() ([]Holding, map[string]float64) {
	holdings := []Holding{
		{Ticker: "0700.HK", Cost: 300, Quantity: 100, Sector: "Tech"},
		{Ticker: "XOM", Cost: 110, Quantity: 50, Sector: "Energy"},
		{Ticker: "MSFT", Cost: 400, Quantity: 10, Sector: "Tech"},
	}
	quotes := map[string]float64{
		"0700.HK": 320, // +2000
		"XOM":     99,  // -550
		// MSFT unquoted, valued at cost
	}
	return holdings, quotes
}

func TestAnalyzeHoldings(t *testing.T) {
	analyzer := newTestAnalyzer()
	holdings, quotes := fixtureHoldings()

	report, err := analyzer.AnalyzeHoldings(holdings, quotes)
	require.NoError(t, err)

	assert.InDelta(t, 1450.0, report.TotalPnL, 1e-9)
	assert.InDelta(t, 39500.0, report.TotalCost, 1e-9)
	assert.InDelta(t, 40950.0, report.TotalMarketValue, 1e-9)
	assert.InDelta(t, 1450.0/39500.0, report.TotalReturnRate, 1e-12)
	assert.Equal(t, 1, report.Winners)
	assert.Equal(t, 1, report.Losers)

	require.Len(t, report.Holdings, 3)
	assert.Equal(t, "0700.HK", report.Holdings[0].Ticker)
	assert.Equal(t, "MSFT", report.Holdings[1].Ticker)
	assert.Equal(t, "XOM", report.Holdings[2].Ticker)

	tencent := report.Holdings[0]
	assert.InDelta(t, 2000.0, tencent.PnL, 1e-9)
	assert.InDelta(t, 320.0/300.0-1, tencent.ReturnRate, 1e-12)

	// MSFT had no quote: flat at cost.
	msft := report.Holdings[1]
	assert.InDelta(t, 0.0, msft.PnL, 1e-9)
	assert.InDelta(t, 0.0, msft.ReturnRate, 1e-12)
	assert.InDelta(t, 4000.0, msft.MarketValue, 1e-9)
}

func TestAnalyzeHoldingsRejectsBadInput(t *testing.T) {
	analyzer := newTestAnalyzer()

	tests := []struct {
		name     string
		holdings []Holding
	}{
		{"empty", nil},
		{"missing ticker", []Holding{{Cost: 10, Quantity: 1}}},
		{"nan cost", []Holding{{Ticker: "A", Cost: math.NaN(), Quantity: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := analyzer.AnalyzeHoldings(tt.holdings, nil)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestAnalyzeHoldingsZeroCost(t *testing.T) {
	analyzer := newTestAnalyzer()

	report, err := analyzer.AnalyzeHoldings(
		[]Holding{{Ticker: "FREE", Cost: 0, Quantity: 10}},
		map[string]float64{"FREE": 5},
	)
	require.NoError(t, err)

	assert.InDelta(t, 50.0, report.TotalPnL, 1e-9)
	assert.Equal(t, 0.0, report.Holdings[0].ReturnRate)
	assert.Equal(t, 0.0, report.TotalReturnRate)
}

func TestPositions(t *testing.T) {
	analyzer := newTestAnalyzer()
	holdings, quotes := fixtureHoldings()

	report, err := analyzer.AnalyzeHoldings(holdings, quotes)
	require.NoError(t, err)

	positions, err := analyzer.Positions(report, map[string]string{"0700.HK": "Tech", "XOM": "Energy"})
	require.NoError(t, err)
	require.Len(t, positions, 3)

	weightSum := 0.0
	for _, p := range positions {
		weightSum += p.Weight
		assert.InDelta(t, p.Weight*p.Return, p.Contribution, 1e-12)
	}
	assert.InDelta(t, 1.0, weightSum, 1e-12)

	assert.Equal(t, "0700.HK", positions[0].Ticker)
	assert.Equal(t, "Tech", positions[0].Sector)
	assert.InDelta(t, 32000.0/40950.0, positions[0].Weight, 1e-12)
	assert.InDelta(t, 320.0/300.0-1, positions[0].Return, 1e-12)
}

func TestPositionsDegenerateMarketValue(t *testing.T) {
	analyzer := newTestAnalyzer()

	_, err := analyzer.Positions(Report{}, nil)
	assert.ErrorIs(t, err, domain.ErrDegenerate)
}

func TestAnalyzeTransactions(t *testing.T) {
	analyzer := newTestAnalyzer()

	buy := Transaction{Ticker: "AAPL", Action: ActionBuy, Quantity: 10, Price: 180}
	sell := Transaction{Ticker: "AAPL", Action: ActionSell, Quantity: 5, Price: 190}

	tests := []struct {
		name         string
		transactions []Transaction
		wantBuys     int
		wantSells    int
		wantStyle    string
	}{
		{"accumulating", []Transaction{buy, buy, buy, sell}, 3, 1, StyleAccumulating},
		{"profit taking", []Transaction{buy, sell, sell}, 1, 2, StyleProfitTaking},
		{"balanced", []Transaction{buy, buy, sell}, 2, 1, StyleBalanced},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			behavior, err := analyzer.AnalyzeTransactions(tt.transactions)
			require.NoError(t, err)
			assert.Equal(t, len(tt.transactions), behavior.TotalTransactions)
			assert.Equal(t, tt.wantBuys, behavior.BuyCount)
			assert.Equal(t, tt.wantSells, behavior.SellCount)
			assert.Equal(t, tt.wantStyle, behavior.TradingStyle)
		})
	}
}

func TestAnalyzeTransactionsRejectsBadInput(t *testing.T) {
	analyzer := newTestAnalyzer()

	_, err := analyzer.AnalyzeTransactions(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = analyzer.AnalyzeTransactions([]Transaction{{Ticker: "AAPL", Action: "HOLD"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
