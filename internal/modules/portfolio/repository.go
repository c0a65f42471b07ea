package portfolio

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/roboadvisor/internal/domain"
)

// Repository reads positions. The advisory engine consumes positions as
// pre-materialized inputs; it never creates or mutates them.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new position repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "position").Logger(),
	}
}

// GetByPortfolio returns all positions in a portfolio
func (r *Repository) GetByPortfolio(portfolioID int64) ([]domain.Position, error) {
	rows, err := r.db.Query(`
		SELECT portfolio_id, symbol, quantity, average_cost
		FROM positions
		WHERE portfolio_id = ?
		ORDER BY symbol
	`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		var pos domain.Position
		if err := rows.Scan(&pos.PortfolioID, &pos.Symbol, &pos.Quantity, &pos.AverageCost); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		pos.Symbol = strings.ToUpper(strings.TrimSpace(pos.Symbol))
		positions = append(positions, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	return positions, nil
}

// ListPortfolios returns the distinct portfolio ids that hold positions
func (r *Repository) ListPortfolios() ([]int64, error) {
	rows, err := r.db.Query("SELECT DISTINCT portfolio_id FROM positions ORDER BY portfolio_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio ids: %w", err)
	}

	return ids, nil
}
