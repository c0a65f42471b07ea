package allocation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/roboadvisor/internal/domain"
)

func TestValidateTargetWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights map[string]float64
		wantErr bool
	}{
		{"exact hundred", map[string]float64{"AAPL": 60, "MSFT": 40}, false},
		{"low edge of tolerance", map[string]float64{"AAPL": 60, "MSFT": 39.9}, false},
		{"high edge of tolerance", map[string]float64{"AAPL": 60, "MSFT": 40.1}, false},
		{"below tolerance", map[string]float64{"AAPL": 60, "MSFT": 39.8}, true},
		{"above tolerance", map[string]float64{"AAPL": 60, "MSFT": 40.2}, true},
		{"negative weight", map[string]float64{"AAPL": 110, "MSFT": -10}, true},
		{"zero weight", map[string]float64{"AAPL": 100, "MSFT": 0}, true},
		{"empty", map[string]float64{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTargetWeights(tt.weights)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, domain.IsValidation(err), "expected a validation error, got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestComputeCurrentAllocation(t *testing.T) {
	positions := []domain.Position{
		{PortfolioID: 1, Symbol: "AAPL", Quantity: 10, AverageCost: 150},
		{PortfolioID: 1, Symbol: "MSFT", Quantity: 5, AverageCost: 300},
	}

	t.Run("values at live prices", func(t *testing.T) {
		current := ComputeCurrentAllocation(positions, map[string]float64{"AAPL": 200, "MSFT": 400})

		assert.Equal(t, 4000.0, current.TotalValue)
		assert.Equal(t, 2000.0, current.Holdings["AAPL"].Value)
		assert.Equal(t, 50.0, current.Holdings["AAPL"].Weight)
		assert.Equal(t, 50.0, current.Holdings["MSFT"].Weight)
	})

	t.Run("missing price falls back to average cost", func(t *testing.T) {
		current := ComputeCurrentAllocation(positions, map[string]float64{"AAPL": 200})

		assert.Equal(t, 1500.0, current.Holdings["MSFT"].Value)
		assert.Equal(t, 3500.0, current.TotalValue)
	})

	t.Run("empty portfolio", func(t *testing.T) {
		current := ComputeCurrentAllocation(nil, nil)
		assert.Equal(t, 0.0, current.TotalValue)
		assert.Empty(t, current.Holdings)
	})
}

func TestComputeDrift(t *testing.T) {
	targets := []TargetAllocation{
		{Symbol: "AAPL", Weight: 50},
		{Symbol: "MSFT", Weight: 50},
	}
	current := CurrentAllocation{
		TotalValue: 10000,
		Holdings: map[string]Holding{
			"AAPL": {Symbol: "AAPL", Weight: 60, Value: 6000},
			"GOOG": {Symbol: "GOOG", Weight: 40, Value: 4000},
		},
	}

	drifts := ComputeDrift(targets, current, 5.0)
	require.Len(t, drifts, 3)

	bySymbol := make(map[string]Drift, len(drifts))
	for _, d := range drifts {
		bySymbol[d.Symbol] = d
	}

	assert.Equal(t, 10.0, bySymbol["AAPL"].Drift)
	assert.Equal(t, DriftReduce, bySymbol["AAPL"].Action)

	// Held but untargeted: target weight 0
	assert.Equal(t, 0.0, bySymbol["GOOG"].TargetWeight)
	assert.Equal(t, DriftReduce, bySymbol["GOOG"].Action)

	// Targeted but unheld: current weight 0
	assert.Equal(t, -50.0, bySymbol["MSFT"].Drift)
	assert.Equal(t, DriftIncrease, bySymbol["MSFT"].Action)

	// Sorted by symbol
	assert.Equal(t, []string{drifts[0].Symbol, drifts[1].Symbol, drifts[2].Symbol},
		[]string{"AAPL", "GOOG", "MSFT"})
}

func TestComputeDrift_ThresholdBoundary(t *testing.T) {
	targets := []TargetAllocation{
		{Symbol: "AAPL", Weight: 55},
		{Symbol: "MSFT", Weight: 45},
	}
	current := CurrentAllocation{
		TotalValue: 10000,
		Holdings: map[string]Holding{
			"AAPL": {Symbol: "AAPL", Weight: 60, Value: 6000},
			"MSFT": {Symbol: "MSFT", Weight: 40, Value: 4000},
		},
	}

	// Drift of exactly the threshold is actionable on both sides
	drifts := ComputeDrift(targets, current, 5.0)
	require.Len(t, drifts, 2)
	assert.Equal(t, 5.0, drifts[0].Drift)
	assert.Equal(t, DriftReduce, drifts[0].Action)
	assert.Equal(t, -5.0, drifts[1].Drift)
	assert.Equal(t, DriftIncrease, drifts[1].Action)

	// And the plan built from the same inputs agrees
	prices := map[string]float64{"AAPL": 100, "MSFT": 100}
	plan := BuildPlan(1, targets, current, prices, 5.0, time.Now())
	assert.True(t, plan.RebalancingNeeded)
	assert.Len(t, plan.Actions, 2)
}

func TestBuildPlan(t *testing.T) {
	now := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	targets := []TargetAllocation{
		{Symbol: "AAPL", Weight: 40},
		{Symbol: "MSFT", Weight: 40},
		{Symbol: "GOOG", Weight: 20},
	}
	current := CurrentAllocation{
		TotalValue: 10000,
		Holdings: map[string]Holding{
			"AAPL": {Symbol: "AAPL", Weight: 60, Value: 6000},
			"MSFT": {Symbol: "MSFT", Weight: 34, Value: 3400},
			"GOOG": {Symbol: "GOOG", Weight: 6, Value: 600},
		},
	}
	prices := map[string]float64{"AAPL": 200, "MSFT": 340, "GOOG": 120}

	plan := BuildPlan(1, targets, current, prices, 5.0, now)

	require.True(t, plan.RebalancingNeeded)
	require.Len(t, plan.Actions, 3)

	// AAPL drift +20 (high), GOOG -14 (high), MSFT -6 (medium)
	assert.Equal(t, "AAPL", plan.Actions[0].Symbol)
	assert.Equal(t, TradeSell, plan.Actions[0].Action)
	assert.Equal(t, PriorityHigh, plan.Actions[0].Priority)
	assert.Equal(t, 2000.0, plan.Actions[0].TradeValue)
	assert.Equal(t, 10.0, plan.Actions[0].Quantity)

	assert.Equal(t, "GOOG", plan.Actions[1].Symbol)
	assert.Equal(t, TradeBuy, plan.Actions[1].Action)
	assert.Equal(t, PriorityHigh, plan.Actions[1].Priority)

	assert.Equal(t, "MSFT", plan.Actions[2].Symbol)
	assert.Equal(t, "medium", plan.Actions[2].Priority)
	assert.Equal(t, 600.0, plan.Actions[2].TradeValue)
}

func TestBuildPlan_Deterministic(t *testing.T) {
	now := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	targets := []TargetAllocation{
		{Symbol: "AAA", Weight: 25},
		{Symbol: "BBB", Weight: 25},
		{Symbol: "CCC", Weight: 25},
		{Symbol: "DDD", Weight: 25},
	}
	current := CurrentAllocation{
		TotalValue: 10000,
		Holdings: map[string]Holding{
			"AAA": {Symbol: "AAA", Weight: 35, Value: 3500},
			"BBB": {Symbol: "BBB", Weight: 15, Value: 1500},
			"CCC": {Symbol: "CCC", Weight: 35, Value: 3500},
			"DDD": {Symbol: "DDD", Weight: 15, Value: 1500},
		},
	}
	prices := map[string]float64{"AAA": 10, "BBB": 10, "CCC": 10, "DDD": 10}

	first := BuildPlan(1, targets, current, prices, 5.0, now)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, BuildPlan(1, targets, current, prices, 5.0, now))
	}

	// Equal |drift| ties break on symbol
	assert.Equal(t, "AAA", first.Actions[0].Symbol)
	assert.Equal(t, "BBB", first.Actions[1].Symbol)
	assert.Equal(t, "CCC", first.Actions[2].Symbol)
	assert.Equal(t, "DDD", first.Actions[3].Symbol)
}

func TestBuildPlan_EdgeCases(t *testing.T) {
	now := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	t.Run("no targets means no plan", func(t *testing.T) {
		current := CurrentAllocation{
			TotalValue: 5000,
			Holdings:   map[string]Holding{"AAPL": {Symbol: "AAPL", Weight: 100, Value: 5000}},
		}
		plan := BuildPlan(1, nil, current, nil, 5.0, now)

		assert.False(t, plan.RebalancingNeeded)
		assert.Empty(t, plan.Actions)
		assert.Equal(t, "no target allocations defined", plan.Note)
	})

	t.Run("zero portfolio value means no plan", func(t *testing.T) {
		targets := []TargetAllocation{{Symbol: "AAPL", Weight: 100}}
		plan := BuildPlan(1, targets, CurrentAllocation{Holdings: map[string]Holding{}}, nil, 5.0, now)

		assert.False(t, plan.RebalancingNeeded)
		assert.Empty(t, plan.Actions)
		assert.Equal(t, "portfolio has no value", plan.Note)
	})

	t.Run("drift inside threshold is left alone", func(t *testing.T) {
		targets := []TargetAllocation{
			{Symbol: "AAPL", Weight: 52},
			{Symbol: "MSFT", Weight: 48},
		}
		current := CurrentAllocation{
			TotalValue: 10000,
			Holdings: map[string]Holding{
				"AAPL": {Symbol: "AAPL", Weight: 55, Value: 5500},
				"MSFT": {Symbol: "MSFT", Weight: 45, Value: 4500},
			},
		}
		plan := BuildPlan(1, targets, current, map[string]float64{"AAPL": 100, "MSFT": 100}, 5.0, now)

		assert.False(t, plan.RebalancingNeeded)
		assert.Empty(t, plan.Actions)
	})

	t.Run("missing price yields zero quantity", func(t *testing.T) {
		targets := []TargetAllocation{{Symbol: "AAPL", Weight: 100}}
		current := CurrentAllocation{
			TotalValue: 10000,
			Holdings:   map[string]Holding{"MSFT": {Symbol: "MSFT", Weight: 100, Value: 10000}},
		}
		plan := BuildPlan(1, targets, current, map[string]float64{}, 5.0, now)

		require.True(t, plan.RebalancingNeeded)
		for _, action := range plan.Actions {
			assert.Equal(t, 0.0, action.Quantity)
			assert.Greater(t, action.TradeValue, 0.0)
		}
	})
}

func TestComputePositionSize(t *testing.T) {
	t.Run("risk zero keeps full weight", func(t *testing.T) {
		s := ComputePositionSize("AAPL", 10000, 0, 10, 100)
		assert.Equal(t, 1.0, s.RiskAdjustment)
		assert.Equal(t, 10.0, s.AdjustedWeight)
		assert.Equal(t, 1000.0, s.SuggestedValue)
		assert.Equal(t, 10.0, s.Shares)
	})

	t.Run("risk hundred halves the weight", func(t *testing.T) {
		s := ComputePositionSize("AAPL", 10000, 100, 10, 100)
		assert.Equal(t, 0.5, s.RiskAdjustment)
		assert.Equal(t, 5.0, s.AdjustedWeight)
		assert.Equal(t, 500.0, s.SuggestedValue)
		assert.Equal(t, 5.0, s.Shares)
	})

	t.Run("no price means no share count", func(t *testing.T) {
		s := ComputePositionSize("AAPL", 10000, 50, 10, 0)
		assert.Equal(t, 0.75, s.RiskAdjustment)
		assert.Equal(t, 0.0, s.Shares)
	})
}
