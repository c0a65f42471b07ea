// Package handlers provides HTTP handlers for allocation operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/roboadvisor/internal/domain"
	"github.com/aristath/roboadvisor/internal/modules/allocation"
)

// Handler handles allocation HTTP requests
type Handler struct {
	optimizer *allocation.Optimizer
	log       zerolog.Logger
}

// NewHandler creates a new allocation handler
func NewHandler(optimizer *allocation.Optimizer, log zerolog.Logger) *Handler {
	return &Handler{
		optimizer: optimizer,
		log:       log.With().Str("handler", "allocation").Logger(),
	}
}

// HandleGetProfile handles GET /api/allocation/portfolio/{portfolioID}/profile
func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request, portfolioID int64) {
	profile, err := h.optimizer.GetOrCreateProfile(portfolioID)
	if err != nil {
		h.log.Error().Err(err).Int64("portfolio_id", portfolioID).Msg("Failed to load profile")
		http.Error(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}
	h.writeData(w, profile)
}

type updateProfileRequest struct {
	RiskTolerance      string  `json:"risk_tolerance"`
	InvestmentHorizon  int     `json:"investment_horizon"`
	RebalanceThreshold float64 `json:"rebalance_threshold"`
}

// HandleUpdateProfile handles PUT /api/allocation/portfolio/{portfolioID}/profile
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request, portfolioID int64) {
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	profile, err := h.optimizer.UpdateProfile(portfolioID, req.RiskTolerance, req.InvestmentHorizon, req.RebalanceThreshold)
	if err != nil {
		if domain.IsValidation(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Int64("portfolio_id", portfolioID).Msg("Failed to update profile")
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}
	h.writeData(w, profile)
}

// HandleGetTargets handles GET /api/allocation/portfolio/{portfolioID}/targets
func (h *Handler) HandleGetTargets(w http.ResponseWriter, r *http.Request, portfolioID int64) {
	targets, err := h.optimizer.GetTargetAllocations(portfolioID)
	if err != nil {
		h.log.Error().Err(err).Int64("portfolio_id", portfolioID).Msg("Failed to load targets")
		http.Error(w, "Failed to load targets", http.StatusInternalServerError)
		return
	}
	if targets == nil {
		targets = []allocation.TargetAllocation{}
	}
	h.writeData(w, targets)
}

type setTargetsRequest struct {
	Targets map[string]float64 `json:"targets"`
}

// HandleSetTargets handles PUT /api/allocation/portfolio/{portfolioID}/targets
func (h *Handler) HandleSetTargets(w http.ResponseWriter, r *http.Request, portfolioID int64) {
	var req setTargetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	targets, err := h.optimizer.SetTargetAllocations(portfolioID, req.Targets)
	if err != nil {
		if domain.IsValidation(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Int64("portfolio_id", portfolioID).Msg("Failed to set targets")
		http.Error(w, "Failed to set targets", http.StatusInternalServerError)
		return
	}
	if targets == nil {
		targets = []allocation.TargetAllocation{}
	}
	h.writeData(w, targets)
}

// HandleGetSummary handles GET /api/allocation/portfolio/{portfolioID}/summary
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request, portfolioID int64) {
	summary, err := h.optimizer.AllocationSummary(portfolioID)
	if err != nil {
		h.log.Error().Err(err).Int64("portfolio_id", portfolioID).Msg("Failed to build allocation summary")
		http.Error(w, "Failed to build allocation summary", http.StatusInternalServerError)
		return
	}
	h.writeData(w, summary)
}

// HandleGetRebalancingPlan handles GET /api/allocation/portfolio/{portfolioID}/rebalancing-plan
func (h *Handler) HandleGetRebalancingPlan(w http.ResponseWriter, r *http.Request, portfolioID int64) {
	plan, err := h.optimizer.RebalancingPlan(portfolioID)
	if err != nil {
		h.log.Error().Err(err).Int64("portfolio_id", portfolioID).Msg("Failed to build rebalancing plan")
		http.Error(w, "Failed to build rebalancing plan", http.StatusInternalServerError)
		return
	}
	h.writeData(w, plan)
}

// HandleGetPositionSize handles GET /api/allocation/portfolio/{portfolioID}/position-size/{symbol}
func (h *Handler) HandleGetPositionSize(w http.ResponseWriter, r *http.Request, portfolioID int64, symbol string) {
	suggestion, err := h.optimizer.SuggestPositionSize(portfolioID, symbol)
	if err != nil {
		if domain.IsValidation(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to suggest position size")
		http.Error(w, "Failed to suggest position size", http.StatusInternalServerError)
		return
	}
	h.writeData(w, suggestion)
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
