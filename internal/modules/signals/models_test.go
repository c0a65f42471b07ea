package signals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecommendationStatusTransitions(t *testing.T) {
	terminals := []RecommendationStatus{StatusAccepted, StatusRejected, StatusExecuted, StatusExpired}

	t.Run("pending can reach every terminal state", func(t *testing.T) {
		for _, next := range terminals {
			assert.True(t, StatusPending.CanTransitionTo(next), "pending -> %s", next)
		}
	})

	t.Run("terminal states are immutable", func(t *testing.T) {
		for _, from := range terminals {
			assert.True(t, from.Terminal())
			for _, next := range append(terminals, StatusPending) {
				assert.False(t, from.CanTransitionTo(next), "%s -> %s", from, next)
			}
		}
	})

	t.Run("pending cannot transition to itself", func(t *testing.T) {
		assert.False(t, StatusPending.CanTransitionTo(StatusPending))
	})

	t.Run("unknown statuses are invalid", func(t *testing.T) {
		assert.False(t, RecommendationStatus("archived").Valid())
		assert.True(t, StatusPending.Valid())
		assert.True(t, StatusExecuted.Valid())
	})
}

func TestRecommendationExpiry(t *testing.T) {
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	t.Run("pending past deadline is expired", func(t *testing.T) {
		rec := Recommendation{Status: StatusPending, ExpiresAt: now.Add(-time.Hour)}
		assert.True(t, rec.Expired(now))
		assert.Equal(t, StatusExpired, rec.EffectiveStatus(now))
	})

	t.Run("pending before deadline is not expired", func(t *testing.T) {
		rec := Recommendation{Status: StatusPending, ExpiresAt: now.Add(time.Hour)}
		assert.False(t, rec.Expired(now))
		assert.Equal(t, StatusPending, rec.EffectiveStatus(now))
	})

	t.Run("terminal states never expire", func(t *testing.T) {
		rec := Recommendation{Status: StatusExecuted, ExpiresAt: now.Add(-time.Hour)}
		assert.False(t, rec.Expired(now))
		assert.Equal(t, StatusExecuted, rec.EffectiveStatus(now))
	})
}

func TestTradePnL(t *testing.T) {
	tests := []struct {
		name   string
		action TradeAction
		qty    float64
		entry  float64
		exit   float64
		pnl    float64
		pnlPct float64
	}{
		{"buy that gains", TradeBuy, 10, 100, 110, 100, 10},
		{"buy that loses", TradeBuy, 10, 100, 90, -100, -10},
		{"sell that gains", TradeSell, 10, 100, 90, 100, 10},
		{"sell that loses", TradeSell, 10, 100, 110, -100, -10},
		{"flat exit", TradeBuy, 10, 100, 100, 0, 0},
		{"fractional quantity", TradeBuy, 2.5, 40, 44, 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pnl, pct := TradePnL(tt.action, tt.qty, tt.entry, tt.exit)
			assert.InDelta(t, tt.pnl, pnl, 1e-9)
			assert.InDelta(t, tt.pnlPct, pct, 1e-9)
		})
	}
}
