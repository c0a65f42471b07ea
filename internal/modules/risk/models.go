package risk

import (
	"time"

	"github.com/aristath/roboadvisor/internal/domain"
)

// Risk level buckets for overall scores
const (
	LevelLow      = "low"
	LevelModerate = "moderate"
	LevelHigh     = "high"
	LevelVeryHigh = "very_high"
	LevelUnknown  = "unknown"
)

// Component weights of the overall score
const (
	weightVolatility = 0.4
	weightBeta       = 0.3
	weightSentiment  = 0.3
)

// Lookback windows in trading days (calendar days for sentiment)
const (
	volatilityDays = 30
	betaDays       = 90
	sentimentDays  = 7
)

// StockRisk is the scored risk profile of a single security.
// All scores are on a 0-100 scale except Beta itself, which is unbounded.
type StockRisk struct {
	Symbol          string  `json:"symbol"`
	OverallRisk     float64 `json:"overall_risk"`
	VolatilityScore float64 `json:"volatility_score"`
	Beta            float64 `json:"beta"`
	BetaScore       float64 `json:"beta_score"`
	SentimentScore  float64 `json:"sentiment_score"`
	RiskLevel       string  `json:"risk_level"`
	Note            string  `json:"note,omitempty"`
	CalculatedAt    string  `json:"calculated_at"`
}

// PositionRisk is a stock risk annotated with its portfolio weight
type PositionRisk struct {
	StockRisk
	Weight        float64 `json:"weight"`
	PositionValue float64 `json:"position_value"`
}

// PortfolioRisk is the aggregate risk of a whole portfolio
type PortfolioRisk struct {
	PortfolioID       int64          `json:"portfolio_id"`
	OverallRisk       float64        `json:"overall_risk"`
	WeightedRisk      float64        `json:"weighted_risk"`
	ConcentrationRisk float64        `json:"concentration_risk"`
	RiskLevel         string         `json:"risk_level"`
	TotalValue        float64        `json:"total_value"`
	PositionCount     int            `json:"position_count"`
	PositionRisks     []PositionRisk `json:"position_risks"`
	Note              string         `json:"note,omitempty"`
	CalculatedAt      string         `json:"calculated_at"`
}

// StockRiskInput carries everything a single stock scoring needs. Prices are
// ordered most recent first, as the price repository returns them.
type StockRiskInput struct {
	Symbol    string
	Prices    []domain.PricePoint
	News      []domain.NewsItem
	Benchmark BenchmarkReturns
	AsOf      time.Time
}

// PositionRiskInput is one position's share of a portfolio scoring
type PositionRiskInput struct {
	Symbol string
	Value  float64
	Prices []domain.PricePoint
	News   []domain.NewsItem
}

// PortfolioRiskInput carries a full portfolio scoring request. The benchmark
// return series is computed once by the caller and shared across all
// positions in this invocation; it is never cached on the analyzer.
type PortfolioRiskInput struct {
	PortfolioID int64
	Positions   []PositionRiskInput
	Benchmark   BenchmarkReturns
	AsOf        time.Time
}

// Score is one persisted risk score row. Rows are append-only: one per
// portfolio/symbol/date, written once and never updated.
type Score struct {
	ID              int64     `json:"id"`
	PortfolioID     int64     `json:"portfolio_id"`
	Symbol          string    `json:"symbol,omitempty"` // empty for portfolio-level rows
	ScoreDate       time.Time `json:"score_date"`
	VolatilityScore float64   `json:"volatility_score"`
	SentimentScore  float64   `json:"sentiment_score"`
	Beta            float64   `json:"beta"`
	OverallRisk     float64   `json:"overall_risk"`
	CreatedAt       time.Time `json:"created_at"`
}

// riskLevel converts a numeric overall score to its bucket
func riskLevel(score float64) string {
	switch {
	case score < 30:
		return LevelLow
	case score < 60:
		return LevelModerate
	case score < 80:
		return LevelHigh
	default:
		return LevelVeryHigh
	}
}
