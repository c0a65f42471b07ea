// Package advisor defines the contract between signal generation and the
// reasoning backend that produces trading advice. The signals module builds
// requests from stored market data; a backend (Gemini, or a fallback) turns
// them into structured responses.
package advisor

import (
	"context"
	"time"

	"github.com/aristath/roboadvisor/internal/modules/risk"
)

// Signal actions a backend may return
const (
	ActionBuy      = "BUY"
	ActionSell     = "SELL"
	ActionHold     = "HOLD"
	ActionReduce   = "REDUCE"
	ActionIncrease = "INCREASE"
)

// Sentiment trend labels
const (
	TrendImproving        = "improving"
	TrendDeclining        = "declining"
	TrendStable           = "stable"
	TrendInsufficientData = "insufficient_data"
)

// Headline is one recent news item passed to the backend for context
type Headline struct {
	Title       string    `json:"title"`
	Source      string    `json:"source,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// SentimentSummary condenses recent scored news for a symbol
type SentimentSummary struct {
	AverageScore float64 `json:"average_score"`
	ItemCount    int     `json:"item_count"`
	Trend        string  `json:"trend"`
}

// PriceTrend condenses recent price action. RSI14 and SMA20 are nil when the
// history is too short to compute them.
type PriceTrend struct {
	CurrentPrice float64  `json:"current_price"`
	Return7d     float64  `json:"return_7d"`
	Return30d    float64  `json:"return_30d"`
	Momentum     string   `json:"momentum"`
	RSI14        *float64 `json:"rsi_14,omitempty"`
	SMA20        *float64 `json:"sma_20,omitempty"`
}

// SignalRequest is everything the backend sees when asked for a trading
// signal on one symbol.
type SignalRequest struct {
	Symbol    string           `json:"symbol"`
	Risk      risk.StockRisk   `json:"risk"`
	Sentiment SentimentSummary `json:"sentiment"`
	Trend     PriceTrend       `json:"trend"`
	Headlines []Headline       `json:"headlines"`
}

// SignalResponse is the structured advice for one symbol
type SignalResponse struct {
	Action      string   `json:"action"`
	Confidence  float64  `json:"confidence"`
	Reasoning   string   `json:"reasoning"`
	KeyFactors  []string `json:"key_factors,omitempty"`
	RiskLevel   string   `json:"risk_level,omitempty"`
	TimeHorizon string   `json:"time_horizon,omitempty"`
}

// PositionSummary is one holding as presented for portfolio analysis
type PositionSummary struct {
	Symbol string  `json:"symbol"`
	Weight float64 `json:"weight"`
	Value  float64 `json:"value"`
}

// AnalysisRequest asks the backend for a narrative review of a portfolio
type AnalysisRequest struct {
	PortfolioID int64              `json:"portfolio_id"`
	TotalValue  float64            `json:"total_value"`
	Risk        risk.PortfolioRisk `json:"risk"`
	Positions   []PositionSummary  `json:"positions"`
}

// AnalysisResponse is the backend's narrative portfolio review
type AnalysisResponse struct {
	Summary       string   `json:"summary"`
	Strengths     []string `json:"strengths,omitempty"`
	Concerns      []string `json:"concerns,omitempty"`
	Suggestions   []string `json:"suggestions,omitempty"`
	OverallRating string   `json:"overall_rating,omitempty"`
}

// Advisor produces structured trading advice. Implementations must be safe
// for concurrent use.
type Advisor interface {
	TradingSignal(ctx context.Context, req SignalRequest) (SignalResponse, error)
	PortfolioAnalysis(ctx context.Context, req AnalysisRequest) (AnalysisResponse, error)
}
