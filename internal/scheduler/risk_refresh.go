package scheduler

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/roboadvisor/internal/modules/portfolio"
	"github.com/aristath/roboadvisor/internal/modules/risk"
)

// RiskRefreshJob recomputes and records risk scores for every portfolio.
// Runs daily after market close so each portfolio gets one score row per day.
type RiskRefreshJob struct {
	riskService *risk.Service
	portfolios  *portfolio.Repository
	log         zerolog.Logger
}

// NewRiskRefreshJob creates a new risk refresh job
func NewRiskRefreshJob(riskService *risk.Service, portfolios *portfolio.Repository, log zerolog.Logger) *RiskRefreshJob {
	return &RiskRefreshJob{
		riskService: riskService,
		portfolios:  portfolios,
		log:         log.With().Str("job", "risk_refresh").Logger(),
	}
}

// Name returns the job name
func (j *RiskRefreshJob) Name() string {
	return "risk_refresh"
}

// Run scores every portfolio that holds positions. A failing portfolio is
// logged and skipped so the rest still get their daily score.
func (j *RiskRefreshJob) Run() error {
	ids, err := j.portfolios.ListPortfolios()
	if err != nil {
		return fmt.Errorf("failed to list portfolios: %w", err)
	}

	failures := 0
	for _, id := range ids {
		result, err := j.riskService.PortfolioRisk(id)
		if err != nil {
			failures++
			j.log.Error().Err(err).Int64("portfolio_id", id).Msg("Failed to refresh portfolio risk")
			continue
		}
		j.log.Info().Int64("portfolio_id", id).
			Float64("overall_risk", result.OverallRisk).
			Str("risk_level", result.RiskLevel).
			Msg("Portfolio risk refreshed")
	}

	if failures > 0 {
		return fmt.Errorf("risk refresh failed for %d of %d portfolios", failures, len(ids))
	}
	return nil
}
