package universe

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/roboadvisor/internal/domain"
)

// Repository handles the securities universe. Target allocations may only
// reference symbols present and active here.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new universe repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "universe").Logger(),
	}
}

// Exists reports whether an active security with the symbol is known
func (r *Repository) Exists(symbol string) (bool, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	var one int
	err := r.db.QueryRow(
		"SELECT 1 FROM securities WHERE symbol = ? AND active = 1 LIMIT 1",
		symbol,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check security existence: %w", err)
	}

	return true, nil
}

// GetAll returns all active securities
func (r *Repository) GetAll() ([]domain.Security, error) {
	rows, err := r.db.Query("SELECT symbol, name, active FROM securities WHERE active = 1")
	if err != nil {
		return nil, fmt.Errorf("failed to query securities: %w", err)
	}
	defer rows.Close()

	var securities []domain.Security
	for rows.Next() {
		var sec domain.Security
		var active int
		if err := rows.Scan(&sec.Symbol, &sec.Name, &active); err != nil {
			return nil, fmt.Errorf("failed to scan security: %w", err)
		}
		sec.Active = active == 1
		securities = append(securities, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating securities: %w", err)
	}

	return securities, nil
}

// Upsert inserts or updates a security
func (r *Repository) Upsert(sec domain.Security) error {
	active := 0
	if sec.Active {
		active = 1
	}

	_, err := r.db.Exec(`
		INSERT INTO securities (symbol, name, active)
		VALUES (?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET name = excluded.name, active = excluded.active
	`, strings.ToUpper(strings.TrimSpace(sec.Symbol)), sec.Name, active)
	if err != nil {
		return fmt.Errorf("failed to upsert security: %w", err)
	}

	r.log.Debug().Str("symbol", sec.Symbol).Msg("Security upserted")
	return nil
}
