package signals

import "time"

// RecommendationStatus is the lifecycle state of a stored recommendation
type RecommendationStatus string

// Recommendation lifecycle states. Pending is the only non-terminal state;
// once a recommendation leaves it, the status never changes again.
const (
	StatusPending  RecommendationStatus = "pending"
	StatusAccepted RecommendationStatus = "accepted"
	StatusRejected RecommendationStatus = "rejected"
	StatusExecuted RecommendationStatus = "executed"
	StatusExpired  RecommendationStatus = "expired"
)

// Terminal reports whether the status permits no further transitions
func (s RecommendationStatus) Terminal() bool {
	switch s {
	case StatusAccepted, StatusRejected, StatusExecuted, StatusExpired:
		return true
	}
	return false
}

// Valid reports whether s is a known status
func (s RecommendationStatus) Valid() bool {
	return s == StatusPending || s.Terminal()
}

// CanTransitionTo reports whether s may move to next
func (s RecommendationStatus) CanTransitionTo(next RecommendationStatus) bool {
	return s == StatusPending && next.Terminal()
}

// TradeAction is the direction of a paper trade
type TradeAction string

// Paper trade directions
const (
	TradeBuy  TradeAction = "buy"
	TradeSell TradeAction = "sell"
)

// TradeStatus is the lifecycle state of a paper trade
type TradeStatus string

// Paper trade lifecycle states
const (
	TradeOpen      TradeStatus = "open"
	TradeClosed    TradeStatus = "closed"
	TradeCancelled TradeStatus = "cancelled"
)

// How long a recommendation stays actionable
const recommendationTTL = 7 * 24 * time.Hour

// Recommendation is one stored piece of trading advice
type Recommendation struct {
	ID                 int64                `json:"id"`
	PortfolioID        int64                `json:"portfolio_id"`
	Symbol             string               `json:"symbol"`
	RecommendationType string               `json:"recommendation_type"`
	Action             string               `json:"action"`
	Confidence         float64              `json:"confidence"`
	Reasoning          string               `json:"reasoning"`
	RiskLevel          string               `json:"risk_level,omitempty"`
	TimeHorizon        string               `json:"time_horizon,omitempty"`
	Status             RecommendationStatus `json:"status"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
	ExpiresAt          time.Time            `json:"expires_at"`
}

// Expired reports whether a still-pending recommendation has passed its
// expiry. Terminal statuses are never re-evaluated.
func (rec Recommendation) Expired(now time.Time) bool {
	return rec.Status == StatusPending && now.After(rec.ExpiresAt)
}

// EffectiveStatus is the status with lazy expiry applied
func (rec Recommendation) EffectiveStatus(now time.Time) RecommendationStatus {
	if rec.Expired(now) {
		return StatusExpired
	}
	return rec.Status
}

// PaperTrade is one simulated trade tracking a recommendation
type PaperTrade struct {
	ID               int64       `json:"id"`
	PortfolioID      int64       `json:"portfolio_id"`
	Symbol           string      `json:"symbol"`
	RecommendationID *int64      `json:"recommendation_id,omitempty"`
	Action           TradeAction `json:"action"`
	Quantity         float64     `json:"quantity"`
	EntryPrice       float64     `json:"entry_price"`
	ExitPrice        *float64    `json:"exit_price,omitempty"`
	EntryDate        time.Time   `json:"entry_date"`
	ExitDate         *time.Time  `json:"exit_date,omitempty"`
	PnL              *float64    `json:"pnl,omitempty"`
	PnLPercent       *float64    `json:"pnl_percent,omitempty"`
	Status           TradeStatus `json:"status"`
	SignalConfidence *float64    `json:"signal_confidence,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// TradePnL computes profit for a trade direction: buys gain when price
// rises, sells (short simulations) gain when it falls. The percentage is on
// the entry price and carries the same sign as the absolute profit.
func TradePnL(action TradeAction, quantity, entryPrice, exitPrice float64) (pnl, pnlPercent float64) {
	if action == TradeSell {
		pnl = quantity * (entryPrice - exitPrice)
	} else {
		pnl = quantity * (exitPrice - entryPrice)
	}

	if basis := quantity * entryPrice; basis != 0 {
		pnlPercent = pnl / basis * 100
	}
	return pnl, pnlPercent
}
