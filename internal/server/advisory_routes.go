package server

import (
	"github.com/go-chi/chi/v5"

	allocationhandlers "github.com/aristath/roboadvisor/internal/modules/allocation/handlers"
	riskhandlers "github.com/aristath/roboadvisor/internal/modules/risk/handlers"
	signalhandlers "github.com/aristath/roboadvisor/internal/modules/signals/handlers"
)

// setupAdvisoryRoutes registers the risk, allocation and signal modules
func (s *Server) setupAdvisoryRoutes(r chi.Router) {
	riskHandler := riskhandlers.NewHandler(s.risk, s.log)
	riskHandler.RegisterRoutes(r)

	allocationHandler := allocationhandlers.NewHandler(s.optimizer, s.log)
	allocationHandler.RegisterRoutes(r)

	signalHandler := signalhandlers.NewHandler(s.generator, s.log)
	signalHandler.RegisterRoutes(r)
}
