// Package handlers provides HTTP handlers for risk scoring operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/roboadvisor/internal/modules/risk"
)

// Handler handles risk HTTP requests
type Handler struct {
	service *risk.Service
	log     zerolog.Logger
}

// NewHandler creates a new risk handler
func NewHandler(service *risk.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "risk").Logger(),
	}
}

// HandleGetStockRisk handles GET /api/risk/stock/{symbol}
func (h *Handler) HandleGetStockRisk(w http.ResponseWriter, r *http.Request, symbol string) {
	result, err := h.service.StockRisk(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to calculate stock risk")
		http.Error(w, "Failed to calculate stock risk", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetPortfolioRisk handles GET /api/risk/portfolio/{portfolioID}
func (h *Handler) HandleGetPortfolioRisk(w http.ResponseWriter, r *http.Request, portfolioID int64) {
	result, err := h.service.PortfolioRisk(portfolioID)
	if err != nil {
		h.log.Error().Err(err).Int64("portfolio_id", portfolioID).Msg("Failed to calculate portfolio risk")
		http.Error(w, "Failed to calculate portfolio risk", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetRiskHistory handles GET /api/risk/portfolio/{portfolioID}/history
func (h *Handler) HandleGetRiskHistory(w http.ResponseWriter, r *http.Request, portfolioID int64) {
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			http.Error(w, "Invalid days parameter", http.StatusBadRequest)
			return
		}
		days = parsed
	}

	scores, err := h.service.History(portfolioID, days)
	if err != nil {
		h.log.Error().Err(err).Int64("portfolio_id", portfolioID).Msg("Failed to load risk history")
		http.Error(w, "Failed to load risk history", http.StatusInternalServerError)
		return
	}
	if scores == nil {
		scores = []risk.Score{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"portfolio_id": portfolioID,
			"days":         days,
			"scores":       scores,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
