package pnl

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/attribution/internal/config"
	"github.com/aristath/attribution/internal/domain"
	"github.com/aristath/attribution/internal/modules/attribution"
)

// Analyzer values holdings against quotes and classifies trading behavior.
type Analyzer struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewAnalyzer creates a new PnL analyzer.
func NewAnalyzer(cfg *config.Config, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		cfg: cfg,
		log: log.With().Str("component", "pnl").Logger(),
	}
}

// AnalyzeHoldings values each holding against its quote and aggregates the
// totals. A holding without a quote is valued at cost, contributing zero PnL.
func (a *Analyzer) AnalyzeHoldings(holdings []Holding, quotes map[string]float64) (Report, error) {
	if len(holdings) == 0 {
		return Report{}, fmt.Errorf("%w: no holdings to analyze", domain.ErrInvalidInput)
	}

	report := Report{Holdings: make([]HoldingPnL, 0, len(holdings))}
	for _, holding := range holdings {
		if holding.Ticker == "" {
			return Report{}, fmt.Errorf("%w: holding without a ticker", domain.ErrInvalidInput)
		}
		if !finite(holding.Cost) || !finite(holding.Quantity) {
			return Report{}, fmt.Errorf("%w: non-finite cost or quantity for %s", domain.ErrInvalidInput, holding.Ticker)
		}

		price, ok := quotes[holding.Ticker]
		if !ok || !finite(price) {
			a.log.Warn().Str("ticker", holding.Ticker).Msg("No quote, valuing at cost")
			price = holding.Cost
		}

		marketValue := price * holding.Quantity
		profit := (price - holding.Cost) * holding.Quantity

		returnRate := 0.0
		if holding.Cost != 0 {
			returnRate = price/holding.Cost - 1
		}

		report.Holdings = append(report.Holdings, HoldingPnL{
			Ticker:       holding.Ticker,
			CurrentPrice: price,
			CostPrice:    holding.Cost,
			Quantity:     holding.Quantity,
			MarketValue:  marketValue,
			PnL:          profit,
			ReturnRate:   returnRate,
		})

		report.TotalPnL += profit
		report.TotalCost += holding.Cost * holding.Quantity
		report.TotalMarketValue += marketValue
		switch {
		case profit > 0:
			report.Winners++
		case profit < 0:
			report.Losers++
		}
	}

	if report.TotalCost != 0 {
		report.TotalReturnRate = report.TotalPnL / report.TotalCost
	}

	sort.Slice(report.Holdings, func(i, j int) bool {
		return report.Holdings[i].Ticker < report.Holdings[j].Ticker
	})

	a.log.Debug().
		Int("holdings", len(report.Holdings)).
		Float64("total_pnl", report.TotalPnL).
		Msg("Holdings analyzed")

	return report, nil
}

// Positions converts the valued holdings of a report into market-value
// weighted positions for the attribution engine.
func (a *Analyzer) Positions(report Report, sectors map[string]string) ([]attribution.Position, error) {
	if report.TotalMarketValue <= 0 {
		return nil, fmt.Errorf("%w: non-positive total market value", domain.ErrDegenerate)
	}

	positions := make([]attribution.Position, 0, len(report.Holdings))
	for _, holding := range report.Holdings {
		positions = append(positions, attribution.NewPosition(
			holding.Ticker,
			holding.MarketValue/report.TotalMarketValue,
			holding.ReturnRate,
			holding.MarketValue,
			sectors[holding.Ticker],
		))
	}
	return positions, nil
}

// AnalyzeTransactions counts buys and sells and classifies the trading style.
// Buys outnumbering sells two to one reads as accumulating, more sells than
// buys as profit taking, anything else as balanced.
func (a *Analyzer) AnalyzeTransactions(transactions []Transaction) (Behavior, error) {
	if len(transactions) == 0 {
		return Behavior{}, fmt.Errorf("%w: no transactions to analyze", domain.ErrInvalidInput)
	}

	behavior := Behavior{TotalTransactions: len(transactions)}
	for _, tx := range transactions {
		switch tx.Action {
		case ActionBuy:
			behavior.BuyCount++
		case ActionSell:
			behavior.SellCount++
		default:
			return Behavior{}, fmt.Errorf("%w: unknown action %q for %s", domain.ErrInvalidInput, tx.Action, tx.Ticker)
		}
	}

	switch {
	case behavior.BuyCount > behavior.SellCount*2:
		behavior.TradingStyle = StyleAccumulating
	case behavior.SellCount > behavior.BuyCount:
		behavior.TradingStyle = StyleProfitTaking
	default:
		behavior.TradingStyle = StyleBalanced
	}

	return behavior, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
