package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/attribution/internal/domain"
	"github.com/aristath/attribution/internal/modules/attribution"
	"github.com/aristath/attribution/internal/modules/factor"
	"github.com/aristath/attribution/internal/modules/multiperiod"
	"github.com/aristath/attribution/internal/modules/pnl"
	"github.com/aristath/attribution/internal/modules/risk"
)

// Handlers holds the attribution calculators behind the HTTP surface.
type Handlers struct {
	returns *attribution.Calculator
	risk    *risk.Calculator
	factors *factor.Calculator
	multi   *multiperiod.Calculator
	pnl     *pnl.Analyzer
	log     zerolog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(
	returns *attribution.Calculator,
	riskCalc *risk.Calculator,
	factors *factor.Calculator,
	multi *multiperiod.Calculator,
	pnlAnalyzer *pnl.Analyzer,
	log zerolog.Logger,
) *Handlers {
	return &Handlers{
		returns: returns,
		risk:    riskCalc,
		factors: factors,
		multi:   multi,
		pnl:     pnlAnalyzer,
		log:     log.With().Str("handler", "attribution").Logger(),
	}
}

type returnsRequest struct {
	Period    string                   `json:"period"`
	Positions []attribution.Position   `json:"positions"`
	Benchmark attribution.Benchmark    `json:"benchmark"`
	Sectors   attribution.SectorLookup `json:"sectors,omitempty"`
}

// HandleReturns runs single-period Brinson attribution on a portfolio
// snapshot.
func (h *Handlers) HandleReturns(w http.ResponseWriter, r *http.Request) {
	var req returnsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	normalizeContributions(req.Positions)

	result, err := h.returns.Calculate(req.Positions, req.Benchmark, req.Sectors, req.Period)
	if err != nil {
		h.writeCalcError(w, err)
		return
	}
	h.writeResult(w, result)
}

type riskRequest struct {
	Positions         []attribution.Position `json:"positions"`
	Benchmark         attribution.Benchmark  `json:"benchmark"`
	HistoricalReturns map[string][]float64   `json:"historical_returns"`
}

// HandleRisk runs Euler risk allocation and tail-risk estimation.
func (h *Handlers) HandleRisk(w http.ResponseWriter, r *http.Request) {
	var req riskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	normalizeContributions(req.Positions)

	result, err := h.risk.Calculate(r.Context(), req.Positions, req.Benchmark, req.HistoricalReturns)
	if err != nil {
		h.writeCalcError(w, err)
		return
	}
	h.writeResult(w, result)
}

type factorsRequest struct {
	Positions     []attribution.Position  `json:"positions"`
	Benchmark     attribution.Benchmark   `json:"benchmark"`
	FactorReturns map[string]float64      `json:"factor_returns"`
	Exposures     factor.Exposures        `json:"exposures"`
	Classes       map[string]factor.Class `json:"classes,omitempty"`
}

// HandleFactors runs factor attribution against a caller-supplied factor
// model.
func (h *Handlers) HandleFactors(w http.ResponseWriter, r *http.Request) {
	var req factorsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	normalizeContributions(req.Positions)

	result, err := h.factors.Calculate(req.Positions, req.Benchmark, req.FactorReturns, req.Exposures, req.Classes)
	if err != nil {
		h.writeCalcError(w, err)
		return
	}
	h.writeResult(w, result)
}

type multiPeriodRequest struct {
	Periods []multiperiod.Period `json:"periods"`
}

// HandleMultiPeriod chain-links an ordered sequence of period snapshots.
func (h *Handlers) HandleMultiPeriod(w http.ResponseWriter, r *http.Request) {
	var req multiPeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	for i := range req.Periods {
		normalizeContributions(req.Periods[i].Positions)
	}

	result, err := h.multi.Calculate(req.Periods)
	if err != nil {
		h.writeCalcError(w, err)
		return
	}
	h.writeResult(w, result)
}

type pnlRequest struct {
	Holdings     []pnl.Holding      `json:"holdings"`
	Quotes       map[string]float64 `json:"quotes"`
	Transactions []pnl.Transaction  `json:"transactions,omitempty"`
}

type pnlResponse struct {
	Report   pnl.Report    `json:"report"`
	Behavior *pnl.Behavior `json:"behavior,omitempty"`
}

// HandlePnL values holdings against quotes and, when transactions are
// supplied, classifies the trading behavior.
func (h *Handlers) HandlePnL(w http.ResponseWriter, r *http.Request) {
	var req pnlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	report, err := h.pnl.AnalyzeHoldings(req.Holdings, req.Quotes)
	if err != nil {
		h.writeCalcError(w, err)
		return
	}

	response := pnlResponse{Report: report}
	if len(req.Transactions) > 0 {
		behavior, err := h.pnl.AnalyzeTransactions(req.Transactions)
		if err != nil {
			h.writeCalcError(w, err)
			return
		}
		response.Behavior = &behavior
	}
	h.writeResult(w, response)
}

// HandleHealth reports liveness.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// normalizeContributions restores the contribution invariant on decoded
// positions, which arrive from callers that may omit the field.
func normalizeContributions(positions []attribution.Position) {
	for i := range positions {
		positions[i].Contribution = positions[i].Weight * positions[i].Return
	}
}

func (h *Handlers) writeResult(w http.ResponseWriter, result interface{}) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": uuid.NewString(),
		"result": result,
	})
}

func (h *Handlers) writeCalcError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrDegenerate) {
		status = http.StatusBadRequest
	}
	h.writeError(w, status, err.Error())
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
