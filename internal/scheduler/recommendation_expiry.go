package scheduler

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/roboadvisor/internal/modules/portfolio"
	"github.com/aristath/roboadvisor/internal/modules/signals"
)

// RecommendationExpiryJob sweeps pending recommendations past their
// deadline. Expiry is also applied lazily on read; the sweep keeps stored
// statuses current for portfolios nobody is looking at.
type RecommendationExpiryJob struct {
	generator  *signals.Generator
	portfolios *portfolio.Repository
	log        zerolog.Logger
}

// NewRecommendationExpiryJob creates a new expiry sweep job
func NewRecommendationExpiryJob(generator *signals.Generator, portfolios *portfolio.Repository, log zerolog.Logger) *RecommendationExpiryJob {
	return &RecommendationExpiryJob{
		generator:  generator,
		portfolios: portfolios,
		log:        log.With().Str("job", "recommendation_expiry").Logger(),
	}
}

// Name returns the job name
func (j *RecommendationExpiryJob) Name() string {
	return "recommendation_expiry"
}

// Run walks every portfolio's pending recommendations, which expires the
// overdue ones as a side effect of the read path.
func (j *RecommendationExpiryJob) Run() error {
	ids, err := j.portfolios.ListPortfolios()
	if err != nil {
		return fmt.Errorf("failed to list portfolios: %w", err)
	}

	for _, id := range ids {
		recs, err := j.generator.GetRecommendations(id, signals.StatusPending)
		if err != nil {
			j.log.Error().Err(err).Int64("portfolio_id", id).Msg("Failed to sweep recommendations")
			continue
		}

		expired := 0
		for _, rec := range recs {
			if rec.Status == signals.StatusExpired {
				expired++
			}
		}
		if expired > 0 {
			j.log.Info().Int64("portfolio_id", id).Int("expired", expired).
				Msg("Expired overdue recommendations")
		}
	}

	return nil
}
