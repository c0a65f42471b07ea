package allocation

import "time"

// Risk tolerance levels a profile may hold
const (
	ToleranceConservative = "conservative"
	ToleranceModerate     = "moderate"
	ToleranceAggressive   = "aggressive"
)

// Drift actions
const (
	DriftNone     = "none"
	DriftReduce   = "reduce"
	DriftIncrease = "increase"
)

// Rebalance trade sides and priorities
const (
	TradeSell = "SELL"
	TradeBuy  = "BUY"

	PriorityHigh   = "high"
	PriorityMedium = "medium"
)

// Profile defaults applied on lazy creation
const (
	DefaultRiskTolerance      = ToleranceModerate
	DefaultInvestmentHorizon  = 5
	DefaultRebalanceThreshold = 5.0
)

// weightSumTolerance is how far target weights may deviate from 100
const weightSumTolerance = 0.1

// Profile is the advisory configuration of one portfolio
type Profile struct {
	ID                 int64     `json:"id"`
	PortfolioID        int64     `json:"portfolio_id"`
	RiskTolerance      string    `json:"risk_tolerance"`
	InvestmentHorizon  int       `json:"investment_horizon"`
	RebalanceThreshold float64   `json:"rebalance_threshold"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TargetAllocation is one desired portfolio weight, in percent
type TargetAllocation struct {
	ID        int64   `json:"id"`
	ProfileID int64   `json:"profile_id"`
	Symbol    string  `json:"symbol"`
	Weight    float64 `json:"target_weight"`
}

// Holding is one position valued at current market price
type Holding struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Value    float64 `json:"value"`
	Weight   float64 `json:"weight"`
}

// CurrentAllocation is the live weight breakdown of a portfolio
type CurrentAllocation struct {
	TotalValue float64            `json:"total_value"`
	Holdings   map[string]Holding `json:"holdings"`
}

// Drift compares one symbol's current weight against its target
type Drift struct {
	Symbol        string  `json:"symbol"`
	TargetWeight  float64 `json:"target_weight"`
	CurrentWeight float64 `json:"current_weight"`
	Drift         float64 `json:"drift"`
	Action        string  `json:"action"`
}

// RebalanceAction is one trade in a rebalancing plan
type RebalanceAction struct {
	Symbol        string  `json:"symbol"`
	Action        string  `json:"action"`
	CurrentWeight float64 `json:"current_weight"`
	TargetWeight  float64 `json:"target_weight"`
	Drift         float64 `json:"drift"`
	TradeValue    float64 `json:"trade_value"`
	Quantity      float64 `json:"quantity"`
	Priority      string  `json:"priority"`
}

// RebalancingPlan is the ordered set of trades that would bring a portfolio
// back to its targets.
type RebalancingPlan struct {
	PortfolioID        int64             `json:"portfolio_id"`
	RebalancingNeeded  bool              `json:"rebalancing_needed"`
	RebalanceThreshold float64           `json:"rebalance_threshold"`
	TotalValue         float64           `json:"total_value"`
	Actions            []RebalanceAction `json:"actions"`
	Note               string            `json:"note,omitempty"`
	GeneratedAt        string            `json:"generated_at"`
}

// Summary is the combined allocation view of a portfolio
type Summary struct {
	PortfolioID      int64              `json:"portfolio_id"`
	HasTargets       bool               `json:"has_targets"`
	TotalValue       float64            `json:"total_value"`
	Allocation       map[string]Holding `json:"allocation"`
	Drifts           []Drift            `json:"drifts"`
	MaxDrift         float64            `json:"max_drift"`
	NeedsRebalancing bool               `json:"needs_rebalancing"`
}

// PositionSizeSuggestion is a risk-discounted position sizing for one symbol
type PositionSizeSuggestion struct {
	Symbol         string  `json:"symbol"`
	PortfolioValue float64 `json:"portfolio_value"`
	TargetWeight   float64 `json:"target_weight"`
	RiskScore      float64 `json:"risk_score"`
	RiskAdjustment float64 `json:"risk_adjustment"`
	AdjustedWeight float64 `json:"adjusted_weight"`
	SuggestedValue float64 `json:"suggested_value"`
	Shares         float64 `json:"shares"`
}
