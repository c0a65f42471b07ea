package marketdata

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/roboadvisor/internal/domain"
)

// NewsRepository reads pre-materialized sentiment-scored news
type NewsRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewNewsRepository creates a new news repository
func NewNewsRepository(db *sql.DB, log zerolog.Logger) *NewsRepository {
	return &NewsRepository{
		db:  db,
		log: log.With().Str("repo", "news").Logger(),
	}
}

// RecentScored returns sentiment-scored items for a symbol published on or
// after since, most recent first. Items without a sentiment score are
// excluded.
func (r *NewsRepository) RecentScored(symbol string, since time.Time) ([]domain.NewsItem, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	rows, err := r.db.Query(`
		SELECT symbol, title, source, sentiment_score, published_at
		FROM news_items
		WHERE symbol = ? AND published_at >= ? AND sentiment_score IS NOT NULL
		ORDER BY published_at DESC
	`, symbol, since.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query scored news: %w", err)
	}
	defer rows.Close()

	return r.collectItems(rows)
}

// RecentHeadlines returns the most recent items for a symbol regardless of
// sentiment scoring, newest first, capped at limit.
func (r *NewsRepository) RecentHeadlines(symbol string, limit int) ([]domain.NewsItem, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	rows, err := r.db.Query(`
		SELECT symbol, title, source, sentiment_score, published_at
		FROM news_items
		WHERE symbol = ?
		ORDER BY published_at DESC
		LIMIT ?
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query headlines: %w", err)
	}
	defer rows.Close()

	return r.collectItems(rows)
}

func (r *NewsRepository) collectItems(rows *sql.Rows) ([]domain.NewsItem, error) {
	var items []domain.NewsItem
	for rows.Next() {
		var item domain.NewsItem
		var score sql.NullFloat64
		var publishedAt string

		if err := rows.Scan(&item.Symbol, &item.Title, &item.Source, &score, &publishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan news row: %w", err)
		}
		if score.Valid {
			v := score.Float64
			item.SentimentScore = &v
		}

		t, err := time.Parse(time.RFC3339, publishedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse published_at %q: %w", publishedAt, err)
		}
		item.PublishedAt = t

		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating news rows: %w", err)
	}
	return items, nil
}
