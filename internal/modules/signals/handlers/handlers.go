// Package handlers provides HTTP handlers for signal and paper trading
// operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/roboadvisor/internal/domain"
	"github.com/aristath/roboadvisor/internal/modules/signals"
)

// Handler handles signal HTTP requests
type Handler struct {
	generator *signals.Generator
	log       zerolog.Logger
}

// NewHandler creates a new signals handler
func NewHandler(generator *signals.Generator, log zerolog.Logger) *Handler {
	return &Handler{
		generator: generator,
		log:       log.With().Str("handler", "signals").Logger(),
	}
}

// HandleGenerateSignal handles GET /api/signals/stock/{symbol}
func (h *Handler) HandleGenerateSignal(w http.ResponseWriter, r *http.Request, symbol string) {
	signal, err := h.generator.GenerateSignal(r.Context(), symbol)
	if err != nil {
		h.respondError(w, err, "Failed to generate signal")
		return
	}
	h.writeData(w, map[string]interface{}{"symbol": symbol, "signal": signal})
}

// HandleGeneratePortfolioSignals handles GET /api/signals/portfolio/{portfolioID}
func (h *Handler) HandleGeneratePortfolioSignals(w http.ResponseWriter, r *http.Request, portfolioID int64) {
	results, err := h.generator.GeneratePortfolioSignals(r.Context(), portfolioID)
	if err != nil {
		h.respondError(w, err, "Failed to generate portfolio signals")
		return
	}
	h.writeData(w, results)
}

// HandlePortfolioAnalysis handles GET /api/signals/portfolio/{portfolioID}/analysis
func (h *Handler) HandlePortfolioAnalysis(w http.ResponseWriter, r *http.Request, portfolioID int64) {
	analysis, err := h.generator.PortfolioAnalysis(r.Context(), portfolioID)
	if err != nil {
		h.respondError(w, err, "Failed to analyze portfolio")
		return
	}
	h.writeData(w, analysis)
}

type createRecommendationRequest struct {
	Symbol             string `json:"symbol"`
	RecommendationType string `json:"recommendation_type"`
}

// HandleCreateRecommendation handles POST /api/signals/portfolio/{portfolioID}/recommendations
func (h *Handler) HandleCreateRecommendation(w http.ResponseWriter, r *http.Request, portfolioID int64) {
	var req createRecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.RecommendationType == "" {
		req.RecommendationType = "signal"
	}

	signal, err := h.generator.GenerateSignal(r.Context(), req.Symbol)
	if err != nil {
		h.respondError(w, err, "Failed to generate signal")
		return
	}

	rec, err := h.generator.SaveRecommendation(portfolioID, req.Symbol, req.RecommendationType, signal)
	if err != nil {
		h.respondError(w, err, "Failed to save recommendation")
		return
	}
	h.writeData(w, rec)
}

// HandleGetRecommendations handles GET /api/signals/portfolio/{portfolioID}/recommendations
func (h *Handler) HandleGetRecommendations(w http.ResponseWriter, r *http.Request, portfolioID int64) {
	status := signals.RecommendationStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		http.Error(w, "Invalid status filter", http.StatusBadRequest)
		return
	}

	recs, err := h.generator.GetRecommendations(portfolioID, status)
	if err != nil {
		h.respondError(w, err, "Failed to load recommendations")
		return
	}
	h.writeData(w, recs)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// HandleUpdateRecommendationStatus handles PUT /api/signals/recommendations/{id}/status
func (h *Handler) HandleUpdateRecommendationStatus(w http.ResponseWriter, r *http.Request, id int64) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	rec, err := h.generator.UpdateRecommendationStatus(id, signals.RecommendationStatus(req.Status))
	if err != nil {
		h.respondError(w, err, "Failed to update recommendation")
		return
	}
	h.writeData(w, rec)
}

type executeTradeRequest struct {
	Symbol           string   `json:"symbol"`
	Action           string   `json:"action"`
	Quantity         float64  `json:"quantity"`
	RecommendationID *int64   `json:"recommendation_id,omitempty"`
	Confidence       *float64 `json:"confidence,omitempty"`
}

// HandleExecutePaperTrade handles POST /api/signals/portfolio/{portfolioID}/paper-trades
func (h *Handler) HandleExecutePaperTrade(w http.ResponseWriter, r *http.Request, portfolioID int64) {
	var req executeTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	trade, err := h.generator.ExecutePaperTrade(portfolioID, req.Symbol, req.Action, req.Quantity, req.RecommendationID, req.Confidence)
	if err != nil {
		h.respondError(w, err, "Failed to execute paper trade")
		return
	}
	h.writeData(w, trade)
}

// HandleGetPaperTrades handles GET /api/signals/portfolio/{portfolioID}/paper-trades
func (h *Handler) HandleGetPaperTrades(w http.ResponseWriter, r *http.Request, portfolioID int64) {
	status := signals.TradeStatus(r.URL.Query().Get("status"))
	switch status {
	case "", signals.TradeOpen, signals.TradeClosed, signals.TradeCancelled:
	default:
		http.Error(w, "Invalid status filter", http.StatusBadRequest)
		return
	}

	trades, err := h.generator.GetPaperTrades(portfolioID, status)
	if err != nil {
		h.respondError(w, err, "Failed to load paper trades")
		return
	}
	h.writeData(w, trades)
}

type closeTradeRequest struct {
	ExitPrice *float64 `json:"exit_price,omitempty"`
}

// HandleClosePaperTrade handles POST /api/signals/paper-trades/{id}/close
func (h *Handler) HandleClosePaperTrade(w http.ResponseWriter, r *http.Request, id int64) {
	var req closeTradeRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	trade, err := h.generator.ClosePaperTrade(id, req.ExitPrice)
	if err != nil {
		h.respondError(w, err, "Failed to close paper trade")
		return
	}
	h.writeData(w, trade)
}

// HandleCancelPaperTrade handles POST /api/signals/paper-trades/{id}/cancel
func (h *Handler) HandleCancelPaperTrade(w http.ResponseWriter, r *http.Request, id int64) {
	trade, err := h.generator.CancelPaperTrade(id)
	if err != nil {
		h.respondError(w, err, "Failed to cancel paper trade")
		return
	}
	h.writeData(w, trade)
}

// HandleGetPerformance handles GET /api/signals/portfolio/{portfolioID}/performance
func (h *Handler) HandleGetPerformance(w http.ResponseWriter, r *http.Request, portfolioID int64) {
	perf, err := h.generator.PaperPerformance(portfolioID)
	if err != nil {
		h.respondError(w, err, "Failed to calculate performance")
		return
	}
	h.writeData(w, perf)
}

func (h *Handler) respondError(w http.ResponseWriter, err error, msg string) {
	if domain.IsValidation(err) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.log.Error().Err(err).Msg(msg)
	http.Error(w, msg, http.StatusInternalServerError)
}

func (h *Handler) writeData(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
