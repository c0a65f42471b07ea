package marketdata

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/roboadvisor/internal/domain"
)

const dateLayout = "2006-01-02"

// PriceRepository reads pre-materialized daily close prices.
// The advisory engine never writes this table; the collector jobs that fill
// it live outside this service.
type PriceRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(db *sql.DB, log zerolog.Logger) *PriceRepository {
	return &PriceRepository{
		db:  db,
		log: log.With().Str("repo", "price").Logger(),
	}
}

// HistoryDesc returns up to days of close history for a symbol, most recent
// first. A small buffer of extra calendar days is queried to absorb weekends
// and holidays.
func (r *PriceRepository) HistoryDesc(symbol string, days int) ([]domain.PricePoint, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	start := time.Now().AddDate(0, 0, -(days + 10)).Format(dateLayout)

	rows, err := r.db.Query(`
		SELECT date, close FROM prices
		WHERE symbol = ? AND date >= ?
		ORDER BY date DESC
	`, symbol, start)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var dateStr string
		var p domain.PricePoint
		if err := rows.Scan(&dateStr, &p.Close); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		if p.Date, err = time.Parse(dateLayout, dateStr); err != nil {
			return nil, fmt.Errorf("failed to parse price date %q: %w", dateStr, err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price rows: %w", err)
	}

	if len(points) > days {
		points = points[:days]
	}
	return points, nil
}

// LatestClose returns the most recent close for a symbol. The second return
// value is false when no price exists at all.
func (r *PriceRepository) LatestClose(symbol string) (float64, bool, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	var close float64
	err := r.db.QueryRow(`
		SELECT close FROM prices
		WHERE symbol = ?
		ORDER BY date DESC
		LIMIT 1
	`, symbol).Scan(&close)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query latest close: %w", err)
	}

	return close, true, nil
}

// CurrentPrices returns the latest close for each requested symbol. Symbols
// without any price are absent from the result map.
func (r *PriceRepository) CurrentPrices(symbols []string) (map[string]float64, error) {
	prices := make(map[string]float64, len(symbols))
	for _, symbol := range symbols {
		close, ok, err := r.LatestClose(symbol)
		if err != nil {
			return nil, err
		}
		if ok {
			prices[strings.ToUpper(strings.TrimSpace(symbol))] = close
		}
	}
	return prices, nil
}
