package domain

import "time"

// Position represents a holding in a portfolio.
// Positions are consumed read-only: the surrounding sync layer materializes
// them, the advisory engine never mutates them.
type Position struct {
	PortfolioID int64   `json:"portfolio_id"`
	Symbol      string  `json:"symbol"`
	Quantity    float64 `json:"quantity"`
	AverageCost float64 `json:"average_cost"`
}

// Value returns the position value at the given price, falling back to the
// average cost when no live price is available (price <= 0).
func (p Position) Value(price float64) float64 {
	if price > 0 {
		return p.Quantity * price
	}
	return p.Quantity * p.AverageCost
}

// PricePoint is one day of close-price history for a security
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// NewsItem is a sentiment-scored news article linked to a security.
// SentimentScore is in [-1, 1]; nil when the article was never scored.
type NewsItem struct {
	Symbol         string    `json:"symbol"`
	Title          string    `json:"title"`
	Source         string    `json:"source"`
	SentimentScore *float64  `json:"sentiment_score,omitempty"`
	PublishedAt    time.Time `json:"published_at"`
}

// Security is an entry in the tradable universe
type Security struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}
