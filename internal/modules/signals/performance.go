package signals

import (
	"math"
	"time"
)

// highConfidenceThreshold marks signals whose accuracy is tracked separately
const highConfidenceThreshold = 0.7

// Performance aggregates paper trading results for one portfolio
type Performance struct {
	PortfolioID            int64   `json:"portfolio_id"`
	TotalTrades            int     `json:"total_trades"`
	OpenTrades             int     `json:"open_trades"`
	ClosedTrades           int     `json:"closed_trades"`
	WinningTrades          int     `json:"winning_trades"`
	LosingTrades           int     `json:"losing_trades"`
	WinRate                float64 `json:"win_rate"`
	TotalPnL               float64 `json:"total_pnl"`
	AvgWin                 float64 `json:"avg_win"`
	AvgLoss                float64 `json:"avg_loss"`
	ProfitFactor           float64 `json:"profit_factor"`
	UnrealizedPnL          float64 `json:"unrealized_pnl"`
	HighConfidenceTrades   int     `json:"high_confidence_trades"`
	HighConfidenceWins     int     `json:"high_confidence_wins"`
	HighConfidenceAccuracy float64 `json:"high_confidence_accuracy"`
	GeneratedAt            string  `json:"generated_at"`
}

// CalculatePerformance aggregates closed results and marks open trades to
// the latest known prices. Cancelled trades are ignored entirely.
func CalculatePerformance(portfolioID int64, trades []PaperTrade, currentPrices map[string]float64, now time.Time) Performance {
	perf := Performance{
		PortfolioID: portfolioID,
		GeneratedAt: now.Format(time.RFC3339),
	}

	var winSum, lossSum float64
	for _, trade := range trades {
		switch trade.Status {
		case TradeOpen:
			perf.TotalTrades++
			perf.OpenTrades++
			if price, ok := currentPrices[trade.Symbol]; ok && price > 0 {
				pnl, _ := TradePnL(trade.Action, trade.Quantity, trade.EntryPrice, price)
				perf.UnrealizedPnL += pnl
			}

		case TradeClosed:
			perf.TotalTrades++
			perf.ClosedTrades++
			if trade.PnL == nil {
				continue
			}
			pnl := *trade.PnL
			perf.TotalPnL += pnl

			if pnl > 0 {
				perf.WinningTrades++
				winSum += pnl
			} else if pnl < 0 {
				perf.LosingTrades++
				lossSum += pnl
			}

			if trade.SignalConfidence != nil && *trade.SignalConfidence >= highConfidenceThreshold {
				perf.HighConfidenceTrades++
				if pnl > 0 {
					perf.HighConfidenceWins++
				}
			}
		}
	}

	if perf.ClosedTrades > 0 {
		perf.WinRate = round2(float64(perf.WinningTrades) / float64(perf.ClosedTrades) * 100)
	}
	if perf.WinningTrades > 0 {
		perf.AvgWin = round2(winSum / float64(perf.WinningTrades))
	}
	if perf.LosingTrades > 0 {
		perf.AvgLoss = round2(lossSum / float64(perf.LosingTrades))
	}
	if perf.AvgLoss != 0 {
		perf.ProfitFactor = round2(math.Abs(perf.AvgWin / perf.AvgLoss))
	}
	if perf.HighConfidenceTrades > 0 {
		perf.HighConfidenceAccuracy = round2(float64(perf.HighConfidenceWins) / float64(perf.HighConfidenceTrades) * 100)
	}

	perf.TotalPnL = round2(perf.TotalPnL)
	perf.UnrealizedPnL = round2(perf.UnrealizedPnL)
	return perf
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
