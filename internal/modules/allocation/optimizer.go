package allocation

import (
	"math"
	"sort"
	"time"

	"github.com/aristath/roboadvisor/internal/domain"
)

// ValidateTargetWeights checks that weights are positive and sum to 100
// within tolerance.
func ValidateTargetWeights(weights map[string]float64) error {
	if len(weights) == 0 {
		return domain.Validationf("no target weights provided")
	}

	sum := 0.0
	for symbol, weight := range weights {
		if weight <= 0 {
			return domain.Validationf("target weight for %s must be positive, got %.2f", symbol, weight)
		}
		sum += weight
	}

	if math.Abs(sum-100) > weightSumTolerance {
		return domain.Validationf("target weights must sum to 100, got %.2f", sum)
	}
	return nil
}

// ComputeCurrentAllocation values positions at current prices and derives
// portfolio weights. Positions without a price are valued at average cost.
func ComputeCurrentAllocation(positions []domain.Position, prices map[string]float64) CurrentAllocation {
	holdings := make(map[string]Holding, len(positions))

	total := 0.0
	for _, pos := range positions {
		price := prices[pos.Symbol]
		value := pos.Value(price)
		total += value

		holdings[pos.Symbol] = Holding{
			Symbol:   pos.Symbol,
			Quantity: pos.Quantity,
			Price:    price,
			Value:    round2(value),
		}
	}

	if total > 0 {
		for symbol, h := range holdings {
			h.Weight = round2(h.Value / total * 100)
			holdings[symbol] = h
		}
	}

	return CurrentAllocation{TotalValue: round2(total), Holdings: holdings}
}

// ComputeDrift compares current weights against targets over the union of
// symbols. A symbol absent from one side contributes weight 0 there. The
// result is sorted by symbol.
func ComputeDrift(targets []TargetAllocation, current CurrentAllocation, threshold float64) []Drift {
	targetBySymbol := make(map[string]float64, len(targets))
	for _, t := range targets {
		targetBySymbol[t.Symbol] = t.Weight
	}

	symbols := make(map[string]struct{}, len(targets)+len(current.Holdings))
	for symbol := range targetBySymbol {
		symbols[symbol] = struct{}{}
	}
	for symbol := range current.Holdings {
		symbols[symbol] = struct{}{}
	}

	drifts := make([]Drift, 0, len(symbols))
	for symbol := range symbols {
		target := targetBySymbol[symbol]
		currentWeight := current.Holdings[symbol].Weight
		drift := currentWeight - target

		action := DriftNone
		if drift >= threshold {
			action = DriftReduce
		} else if drift <= -threshold {
			action = DriftIncrease
		}

		drifts = append(drifts, Drift{
			Symbol:        symbol,
			TargetWeight:  target,
			CurrentWeight: currentWeight,
			Drift:         round2(drift),
			Action:        action,
		})
	}

	sort.Slice(drifts, func(i, j int) bool { return drifts[i].Symbol < drifts[j].Symbol })
	return drifts
}

// BuildPlan derives the trades that would bring a portfolio back within its
// rebalance threshold. The output ordering is deterministic: high priority
// first, then larger drift, then symbol.
func BuildPlan(
	portfolioID int64,
	targets []TargetAllocation,
	current CurrentAllocation,
	prices map[string]float64,
	threshold float64,
	now time.Time,
) RebalancingPlan {
	plan := RebalancingPlan{
		PortfolioID:        portfolioID,
		RebalanceThreshold: threshold,
		TotalValue:         current.TotalValue,
		Actions:            []RebalanceAction{},
		GeneratedAt:        now.Format(time.RFC3339),
	}

	if len(targets) == 0 {
		plan.Note = "no target allocations defined"
		return plan
	}
	if current.TotalValue <= 0 {
		plan.Note = "portfolio has no value"
		return plan
	}

	for _, d := range ComputeDrift(targets, current, threshold) {
		absDrift := math.Abs(d.Drift)
		if absDrift < threshold {
			continue
		}

		side := TradeBuy
		if d.Drift > 0 {
			side = TradeSell
		}

		tradeValue := absDrift / 100 * current.TotalValue

		quantity := 0.0
		if price := prices[d.Symbol]; price > 0 {
			quantity = tradeValue / price
		}

		priority := PriorityMedium
		if absDrift >= 2*threshold {
			priority = PriorityHigh
		}

		plan.Actions = append(plan.Actions, RebalanceAction{
			Symbol:        d.Symbol,
			Action:        side,
			CurrentWeight: d.CurrentWeight,
			TargetWeight:  d.TargetWeight,
			Drift:         d.Drift,
			TradeValue:    round2(tradeValue),
			Quantity:      round2(quantity),
			Priority:      priority,
		})
	}

	sort.Slice(plan.Actions, func(i, j int) bool {
		a, b := plan.Actions[i], plan.Actions[j]
		if a.Priority != b.Priority {
			return a.Priority == PriorityHigh
		}
		if da, db := math.Abs(a.Drift), math.Abs(b.Drift); da != db {
			return da > db
		}
		return a.Symbol < b.Symbol
	})

	plan.RebalancingNeeded = len(plan.Actions) > 0
	return plan
}

// ComputePositionSize discounts a target weight by the symbol's risk score:
// risk 0 keeps the full weight, risk 100 halves it.
func ComputePositionSize(symbol string, portfolioValue, riskScore, targetWeight, price float64) PositionSizeSuggestion {
	adjustment := 1 - riskScore/200
	adjustedWeight := targetWeight * adjustment
	suggestedValue := portfolioValue * adjustedWeight / 100

	shares := 0.0
	if price > 0 {
		shares = suggestedValue / price
	}

	return PositionSizeSuggestion{
		Symbol:         symbol,
		PortfolioValue: round2(portfolioValue),
		TargetWeight:   targetWeight,
		RiskScore:      riskScore,
		RiskAdjustment: round2(adjustment),
		AdjustedWeight: round2(adjustedWeight),
		SuggestedValue: round2(suggestedValue),
		Shares:         round2(shares),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
