package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all signal routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/signals", func(r chi.Router) {
		r.Get("/stock/{symbol}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGenerateSignal(w, r, chi.URLParam(r, "symbol"))
		})

		r.Route("/portfolio/{portfolioID}", func(r chi.Router) {
			r.Get("/", withID("portfolioID", h.HandleGeneratePortfolioSignals))
			r.Get("/analysis", withID("portfolioID", h.HandlePortfolioAnalysis))
			r.Post("/recommendations", withID("portfolioID", h.HandleCreateRecommendation))
			r.Get("/recommendations", withID("portfolioID", h.HandleGetRecommendations))
			r.Post("/paper-trades", withID("portfolioID", h.HandleExecutePaperTrade))
			r.Get("/paper-trades", withID("portfolioID", h.HandleGetPaperTrades))
			r.Get("/performance", withID("portfolioID", h.HandleGetPerformance))
		})

		r.Put("/recommendations/{id}/status", withID("id", h.HandleUpdateRecommendationStatus))
		r.Post("/paper-trades/{id}/close", withID("id", h.HandleClosePaperTrade))
		r.Post("/paper-trades/{id}/cancel", withID("id", h.HandleCancelPaperTrade))
	})
}

// withID parses a numeric URL parameter before invoking fn
func withID(param string, fn func(http.ResponseWriter, *http.Request, int64)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
		if err != nil || id < 1 {
			http.Error(w, "Invalid "+param, http.StatusBadRequest)
			return
		}
		fn(w, r, id)
	}
}
