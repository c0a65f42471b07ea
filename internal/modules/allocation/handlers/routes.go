package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all allocation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/allocation/portfolio/{portfolioID}", func(r chi.Router) {
		r.Get("/profile", withPortfolioID(h.HandleGetProfile))
		r.Put("/profile", withPortfolioID(h.HandleUpdateProfile))
		r.Get("/targets", withPortfolioID(h.HandleGetTargets))
		r.Put("/targets", withPortfolioID(h.HandleSetTargets))
		r.Get("/summary", withPortfolioID(h.HandleGetSummary))
		r.Get("/rebalancing-plan", withPortfolioID(h.HandleGetRebalancingPlan))
		r.Get("/position-size/{symbol}", withPortfolioID(func(w http.ResponseWriter, r *http.Request, id int64) {
			h.HandleGetPositionSize(w, r, id, chi.URLParam(r, "symbol"))
		}))
	})
}

// withPortfolioID parses the portfolioID URL parameter before invoking fn
func withPortfolioID(fn func(http.ResponseWriter, *http.Request, int64)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "portfolioID"), 10, 64)
		if err != nil || id < 1 {
			http.Error(w, "Invalid portfolio id", http.StatusBadRequest)
			return
		}
		fn(w, r, id)
	}
}
