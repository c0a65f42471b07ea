package signals

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// RecommendationRepository persists advisory recommendations
type RecommendationRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRecommendationRepository creates a new recommendation repository
func NewRecommendationRepository(db *sql.DB, log zerolog.Logger) *RecommendationRepository {
	return &RecommendationRepository{
		db:  db,
		log: log.With().Str("repo", "recommendations").Logger(),
	}
}

// Create stores a new recommendation and returns it with its id
func (r *RecommendationRepository) Create(rec Recommendation) (Recommendation, error) {
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	rec.Symbol = strings.ToUpper(strings.TrimSpace(rec.Symbol))

	result, err := r.db.Exec(`
		INSERT INTO recommendations (portfolio_id, symbol, recommendation_type, action, confidence, reasoning, risk_level, time_horizon, status, created_at, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.PortfolioID, rec.Symbol, rec.RecommendationType, rec.Action, rec.Confidence,
		rec.Reasoning, rec.RiskLevel, rec.TimeHorizon, string(rec.Status),
		now.Format(time.RFC3339), now.Format(time.RFC3339), rec.ExpiresAt.Format(time.RFC3339))
	if err != nil {
		return Recommendation{}, fmt.Errorf("failed to insert recommendation: %w", err)
	}

	rec.ID, err = result.LastInsertId()
	if err != nil {
		return Recommendation{}, fmt.Errorf("failed to get recommendation id: %w", err)
	}

	r.log.Info().Int64("id", rec.ID).Str("symbol", rec.Symbol).Str("action", rec.Action).
		Msg("Recommendation saved")
	return rec, nil
}

// GetByID returns one recommendation
func (r *RecommendationRepository) GetByID(id int64) (Recommendation, bool, error) {
	row := r.db.QueryRow(selectRecommendation+" WHERE id = ?", id)

	rec, err := scanRecommendation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Recommendation{}, false, nil
	}
	if err != nil {
		return Recommendation{}, false, err
	}
	return rec, true, nil
}

// GetByPortfolio returns recommendations for a portfolio, newest first.
// Status filters the result when non-empty.
func (r *RecommendationRepository) GetByPortfolio(portfolioID int64, status RecommendationStatus) ([]Recommendation, error) {
	query := selectRecommendation + " WHERE portfolio_id = ?"
	args := []interface{}{portfolioID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []Recommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recommendations: %w", err)
	}

	return recs, nil
}

// UpdateStatus moves a recommendation to a new status
func (r *RecommendationRepository) UpdateStatus(id int64, status RecommendationStatus) error {
	result, err := r.db.Exec(`
		UPDATE recommendations SET status = ?, updated_at = ? WHERE id = ?
	`, string(status), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to update recommendation status: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check status update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("recommendation %d not found", id)
	}
	return nil
}

const selectRecommendation = `
	SELECT id, portfolio_id, symbol, recommendation_type, action, confidence, reasoning, risk_level, time_horizon, status, created_at, updated_at, expires_at
	FROM recommendations`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecommendation(row rowScanner) (Recommendation, error) {
	var rec Recommendation
	var status, createdAt, updatedAt, expiresAt string

	err := row.Scan(&rec.ID, &rec.PortfolioID, &rec.Symbol, &rec.RecommendationType,
		&rec.Action, &rec.Confidence, &rec.Reasoning, &rec.RiskLevel, &rec.TimeHorizon,
		&status, &createdAt, &updatedAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Recommendation{}, err
		}
		return Recommendation{}, fmt.Errorf("failed to scan recommendation: %w", err)
	}
	rec.Status = RecommendationStatus(status)

	if rec.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Recommendation{}, fmt.Errorf("failed to parse created_at %q: %w", createdAt, err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return Recommendation{}, fmt.Errorf("failed to parse updated_at %q: %w", updatedAt, err)
	}
	if rec.ExpiresAt, err = time.Parse(time.RFC3339, expiresAt); err != nil {
		return Recommendation{}, fmt.Errorf("failed to parse expires_at %q: %w", expiresAt, err)
	}

	return rec, nil
}
