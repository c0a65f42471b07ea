package signals

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// PaperTradeRepository persists simulated trades
type PaperTradeRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPaperTradeRepository creates a new paper trade repository
func NewPaperTradeRepository(db *sql.DB, log zerolog.Logger) *PaperTradeRepository {
	return &PaperTradeRepository{
		db:  db,
		log: log.With().Str("repo", "paper_trades").Logger(),
	}
}

// Create stores a new open trade and returns it with its id
func (r *PaperTradeRepository) Create(trade PaperTrade) (PaperTrade, error) {
	now := time.Now().UTC()
	trade.CreatedAt = now
	trade.UpdatedAt = now
	trade.Symbol = strings.ToUpper(strings.TrimSpace(trade.Symbol))

	result, err := r.db.Exec(`
		INSERT INTO paper_trades (portfolio_id, symbol, recommendation_id, action, quantity, entry_price, entry_date, status, signal_confidence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, trade.PortfolioID, trade.Symbol, nullInt64(trade.RecommendationID), string(trade.Action),
		trade.Quantity, trade.EntryPrice, trade.EntryDate.UTC().Format(time.RFC3339),
		string(trade.Status), nullFloat64(trade.SignalConfidence),
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return PaperTrade{}, fmt.Errorf("failed to insert paper trade: %w", err)
	}

	trade.ID, err = result.LastInsertId()
	if err != nil {
		return PaperTrade{}, fmt.Errorf("failed to get paper trade id: %w", err)
	}

	r.log.Info().Int64("id", trade.ID).Str("symbol", trade.Symbol).
		Str("action", string(trade.Action)).Float64("quantity", trade.Quantity).
		Msg("Paper trade opened")
	return trade, nil
}

// GetByID returns one paper trade
func (r *PaperTradeRepository) GetByID(id int64) (PaperTrade, bool, error) {
	row := r.db.QueryRow(selectPaperTrade+" WHERE id = ?", id)

	trade, err := scanPaperTrade(row)
	if errors.Is(err, sql.ErrNoRows) {
		return PaperTrade{}, false, nil
	}
	if err != nil {
		return PaperTrade{}, false, err
	}
	return trade, true, nil
}

// GetByPortfolio returns trades for a portfolio, newest first. Status
// filters the result when non-empty.
func (r *PaperTradeRepository) GetByPortfolio(portfolioID int64, status TradeStatus) ([]PaperTrade, error) {
	query := selectPaperTrade + " WHERE portfolio_id = ?"
	args := []interface{}{portfolioID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY entry_date DESC, id DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query paper trades: %w", err)
	}
	defer rows.Close()

	var trades []PaperTrade
	for rows.Next() {
		trade, err := scanPaperTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating paper trades: %w", err)
	}

	return trades, nil
}

// Close finalizes a trade in a single update: exit fields, profit and the
// closed status land together.
func (r *PaperTradeRepository) Close(id int64, exitPrice float64, exitDate time.Time, pnl, pnlPercent float64) error {
	result, err := r.db.Exec(`
		UPDATE paper_trades
		SET status = ?, exit_price = ?, exit_date = ?, pnl = ?, pnl_percent = ?, updated_at = ?
		WHERE id = ?
	`, string(TradeClosed), exitPrice, exitDate.UTC().Format(time.RFC3339),
		pnl, pnlPercent, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to close paper trade: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check close result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("paper trade %d not found", id)
	}
	return nil
}

// Cancel voids an open trade without recording a result
func (r *PaperTradeRepository) Cancel(id int64) error {
	result, err := r.db.Exec(`
		UPDATE paper_trades SET status = ?, updated_at = ? WHERE id = ?
	`, string(TradeCancelled), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to cancel paper trade: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check cancel result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("paper trade %d not found", id)
	}
	return nil
}

const selectPaperTrade = `
	SELECT id, portfolio_id, symbol, recommendation_id, action, quantity, entry_price, exit_price, entry_date, exit_date, pnl, pnl_percent, status, signal_confidence, created_at, updated_at
	FROM paper_trades`

func scanPaperTrade(row rowScanner) (PaperTrade, error) {
	var trade PaperTrade
	var recID sql.NullInt64
	var exitPrice, pnl, pnlPercent, confidence sql.NullFloat64
	var action, status, entryDate, createdAt, updatedAt string
	var exitDate sql.NullString

	err := row.Scan(&trade.ID, &trade.PortfolioID, &trade.Symbol, &recID, &action,
		&trade.Quantity, &trade.EntryPrice, &exitPrice, &entryDate, &exitDate,
		&pnl, &pnlPercent, &status, &confidence, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PaperTrade{}, err
		}
		return PaperTrade{}, fmt.Errorf("failed to scan paper trade: %w", err)
	}

	trade.Action = TradeAction(action)
	trade.Status = TradeStatus(status)
	if recID.Valid {
		v := recID.Int64
		trade.RecommendationID = &v
	}
	if exitPrice.Valid {
		v := exitPrice.Float64
		trade.ExitPrice = &v
	}
	if pnl.Valid {
		v := pnl.Float64
		trade.PnL = &v
	}
	if pnlPercent.Valid {
		v := pnlPercent.Float64
		trade.PnLPercent = &v
	}
	if confidence.Valid {
		v := confidence.Float64
		trade.SignalConfidence = &v
	}

	if trade.EntryDate, err = time.Parse(time.RFC3339, entryDate); err != nil {
		return PaperTrade{}, fmt.Errorf("failed to parse entry_date %q: %w", entryDate, err)
	}
	if exitDate.Valid {
		t, err := time.Parse(time.RFC3339, exitDate.String)
		if err != nil {
			return PaperTrade{}, fmt.Errorf("failed to parse exit_date %q: %w", exitDate.String, err)
		}
		trade.ExitDate = &t
	}
	if trade.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return PaperTrade{}, fmt.Errorf("failed to parse created_at %q: %w", createdAt, err)
	}
	if trade.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return PaperTrade{}, fmt.Errorf("failed to parse updated_at %q: %w", updatedAt, err)
	}

	return trade, nil
}

func nullInt64(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat64(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
