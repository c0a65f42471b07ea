package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all risk routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/risk", func(r chi.Router) {
		r.Get("/stock/{symbol}", func(w http.ResponseWriter, r *http.Request) {
			symbol := chi.URLParam(r, "symbol")
			h.HandleGetStockRisk(w, r, symbol)
		})

		r.Route("/portfolio/{portfolioID}", func(r chi.Router) {
			r.Get("/", withPortfolioID(h.HandleGetPortfolioRisk))
			r.Get("/history", withPortfolioID(h.HandleGetRiskHistory))
		})
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
