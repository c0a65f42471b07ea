package allocation

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ProfileRepository persists advisory profiles and their target allocations
type ProfileRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *sql.DB, log zerolog.Logger) *ProfileRepository {
	return &ProfileRepository{
		db:  db,
		log: log.With().Str("repo", "advisory_profiles").Logger(),
	}
}

// GetOrCreate returns the profile for a portfolio, creating it with defaults
// on first access.
func (r *ProfileRepository) GetOrCreate(portfolioID int64) (Profile, error) {
	profile, found, err := r.getByPortfolio(portfolioID)
	if err != nil {
		return Profile{}, err
	}
	if found {
		return profile, nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	result, err := r.db.Exec(`
		INSERT INTO advisory_profiles (portfolio_id, risk_tolerance, investment_horizon, rebalance_threshold, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, portfolioID, DefaultRiskTolerance, DefaultInvestmentHorizon, DefaultRebalanceThreshold, now, now)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to create profile: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return Profile{}, fmt.Errorf("failed to get profile id: %w", err)
	}

	r.log.Info().Int64("portfolio_id", portfolioID).Int64("profile_id", id).
		Msg("Created advisory profile with defaults")

	profile, _, err = r.getByPortfolio(portfolioID)
	return profile, err
}

// Update overwrites the mutable fields of a portfolio's profile
func (r *ProfileRepository) Update(profile Profile) error {
	result, err := r.db.Exec(`
		UPDATE advisory_profiles
		SET risk_tolerance = ?, investment_horizon = ?, rebalance_threshold = ?, updated_at = ?
		WHERE portfolio_id = ?
	`, profile.RiskTolerance, profile.InvestmentHorizon, profile.RebalanceThreshold,
		time.Now().UTC().Format(time.RFC3339), profile.PortfolioID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no profile exists for portfolio %d", profile.PortfolioID)
	}
	return nil
}

// ReplaceTargets swaps the full target set of a profile in one transaction
func (r *ProfileRepository) ReplaceTargets(profileID int64, weights map[string]float64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM target_allocations WHERE profile_id = ?", profileID); err != nil {
		return fmt.Errorf("failed to clear targets: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)

	symbols := make([]string, 0, len(weights))
	for symbol := range weights {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		_, err := tx.Exec(`
			INSERT INTO target_allocations (profile_id, symbol, target_weight, created_at)
			VALUES (?, ?, ?, ?)
		`, profileID, strings.ToUpper(strings.TrimSpace(symbol)), weights[symbol], now)
		if err != nil {
			return fmt.Errorf("failed to insert target for %s: %w", symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit targets: %w", err)
	}

	r.log.Info().Int64("profile_id", profileID).Int("targets", len(weights)).
		Msg("Target allocations replaced")
	return nil
}

// GetTargets returns a profile's target allocations ordered by symbol
func (r *ProfileRepository) GetTargets(profileID int64) ([]TargetAllocation, error) {
	rows, err := r.db.Query(`
		SELECT id, profile_id, symbol, target_weight
		FROM target_allocations
		WHERE profile_id = ?
		ORDER BY symbol
	`, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query targets: %w", err)
	}
	defer rows.Close()

	var targets []TargetAllocation
	for rows.Next() {
		var t TargetAllocation
		if err := rows.Scan(&t.ID, &t.ProfileID, &t.Symbol, &t.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating targets: %w", err)
	}

	return targets, nil
}

func (r *ProfileRepository) getByPortfolio(portfolioID int64) (Profile, bool, error) {
	var p Profile
	var createdAt, updatedAt string

	err := r.db.QueryRow(`
		SELECT id, portfolio_id, risk_tolerance, investment_horizon, rebalance_threshold, created_at, updated_at
		FROM advisory_profiles
		WHERE portfolio_id = ?
	`, portfolioID).Scan(&p.ID, &p.PortfolioID, &p.RiskTolerance, &p.InvestmentHorizon,
		&p.RebalanceThreshold, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, false, nil
	}
	if err != nil {
		return Profile{}, false, fmt.Errorf("failed to query profile: %w", err)
	}

	if p.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Profile{}, false, fmt.Errorf("failed to parse created_at %q: %w", createdAt, err)
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return Profile{}, false, fmt.Errorf("failed to parse updated_at %q: %w", updatedAt, err)
	}

	return p, true, nil
}
