package risk

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ScoreRepository persists computed risk scores. Rows are append-only: the
// first score written for a portfolio/symbol/date wins and later writes for
// the same key are silently ignored.
type ScoreRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewScoreRepository creates a new risk score repository
func NewScoreRepository(db *sql.DB, log zerolog.Logger) *ScoreRepository {
	return &ScoreRepository{
		db:  db,
		log: log.With().Str("repo", "risk_scores").Logger(),
	}
}

// SaveStockScore records one stock score for a portfolio
func (r *ScoreRepository) SaveStockScore(portfolioID int64, score StockRisk) error {
	return r.insert(portfolioID, score.Symbol, score.CalculatedAt,
		score.VolatilityScore, score.SentimentScore, score.Beta, score.OverallRisk)
}

// SavePortfolioScore records a portfolio-level score. The symbol column is
// empty for portfolio rows, so they share the same one-per-day key space.
func (r *ScoreRepository) SavePortfolioScore(score PortfolioRisk) error {
	return r.insert(score.PortfolioID, "", score.CalculatedAt,
		0, 0, 0, score.OverallRisk)
}

func (r *ScoreRepository) insert(portfolioID int64, symbol, scoreDate string, volatility, sentiment, beta, overall float64) error {
	result, err := r.db.Exec(`
		INSERT INTO risk_scores (portfolio_id, symbol, score_date, volatility_score, sentiment_score, beta, overall_risk, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(portfolio_id, symbol, score_date) DO NOTHING
	`, portfolioID, strings.ToUpper(strings.TrimSpace(symbol)), scoreDate,
		volatility, sentiment, beta, overall, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert risk score: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		r.log.Debug().Int64("portfolio_id", portfolioID).Str("symbol", symbol).
			Str("score_date", scoreDate).Msg("Risk score already recorded for date, skipping")
	}
	return nil
}

// History returns scores for a portfolio over the trailing days, newest
// first. Symbol is empty for portfolio-level rows.
func (r *ScoreRepository) History(portfolioID int64, days int) ([]Score, error) {
	since := time.Now().AddDate(0, 0, -days).Format("2006-01-02")

	rows, err := r.db.Query(`
		SELECT id, portfolio_id, symbol, score_date, volatility_score, sentiment_score, beta, overall_risk, created_at
		FROM risk_scores
		WHERE portfolio_id = ? AND score_date >= ?
		ORDER BY score_date DESC, symbol
	`, portfolioID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query risk score history: %w", err)
	}
	defer rows.Close()

	var scores []Score
	for rows.Next() {
		var s Score
		var symbol sql.NullString
		var scoreDate, createdAt string

		if err := rows.Scan(&s.ID, &s.PortfolioID, &symbol, &scoreDate,
			&s.VolatilityScore, &s.SentimentScore, &s.Beta, &s.OverallRisk, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan risk score: %w", err)
		}
		s.Symbol = symbol.String

		if s.ScoreDate, err = time.Parse("2006-01-02", scoreDate); err != nil {
			return nil, fmt.Errorf("failed to parse score_date %q: %w", scoreDate, err)
		}
		if s.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at %q: %w", createdAt, err)
		}

		scores = append(scores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating risk scores: %w", err)
	}

	return scores, nil
}
