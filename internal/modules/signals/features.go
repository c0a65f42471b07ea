package signals

import (
	"time"

	"github.com/markcheno/go-talib"

	"github.com/aristath/roboadvisor/internal/advisor"
	"github.com/aristath/roboadvisor/internal/domain"
	"github.com/aristath/roboadvisor/pkg/formulas"
)

// Momentum buckets derived from the 7-day return
const (
	momentumStrongBullish = "strong_bullish"
	momentumBullish       = "bullish"
	momentumNeutral       = "neutral"
	momentumBearish       = "bearish"
	momentumStrongBearish = "strong_bearish"
)

// Lookbacks for feature extraction
const (
	sentimentWindowDays = 7
	trendShortDays      = 7
	trendLongDays       = 30
	rsiPeriod           = 14
	smaPeriod           = 20
	maxHeadlines        = 5
)

// sentimentSummary condenses scored news from the trailing week. The trend
// compares the average of the newer half against the older half; a gap of
// more than 0.1 marks it improving or declining.
func sentimentSummary(items []domain.NewsItem, asOf time.Time) advisor.SentimentSummary {
	since := asOf.AddDate(0, 0, -sentimentWindowDays)

	var scores []float64
	for _, item := range items {
		if item.SentimentScore == nil || item.PublishedAt.Before(since) {
			continue
		}
		scores = append(scores, *item.SentimentScore)
	}

	summary := advisor.SentimentSummary{ItemCount: len(scores)}
	if len(scores) == 0 {
		summary.Trend = advisor.TrendInsufficientData
		return summary
	}

	summary.AverageScore = formulas.Mean(scores)
	if len(scores) < 4 {
		summary.Trend = advisor.TrendInsufficientData
		return summary
	}

	// Items arrive most recent first
	half := len(scores) / 2
	newer := formulas.Mean(scores[:half])
	older := formulas.Mean(scores[half:])

	switch diff := newer - older; {
	case diff > 0.1:
		summary.Trend = advisor.TrendImproving
	case diff < -0.1:
		summary.Trend = advisor.TrendDeclining
	default:
		summary.Trend = advisor.TrendStable
	}
	return summary
}

// priceTrend condenses recent price action for the advisor. Prices arrive
// most recent first; the talib indicators want them oldest first.
func priceTrend(prices []domain.PricePoint) advisor.PriceTrend {
	trend := advisor.PriceTrend{Momentum: momentumNeutral}
	if len(prices) == 0 {
		return trend
	}

	current := prices[0].Close
	trend.CurrentPrice = current
	trend.Return7d = trailingReturn(prices, trendShortDays)
	trend.Return30d = trailingReturn(prices, trendLongDays)

	switch r := trend.Return7d; {
	case r > 5:
		trend.Momentum = momentumStrongBullish
	case r > 2:
		trend.Momentum = momentumBullish
	case r < -5:
		trend.Momentum = momentumStrongBearish
	case r < -2:
		trend.Momentum = momentumBearish
	}

	ascending := make([]float64, len(prices))
	for i, p := range prices {
		ascending[len(prices)-1-i] = p.Close
	}

	if len(ascending) > rsiPeriod {
		rsi := talib.Rsi(ascending, rsiPeriod)
		v := rsi[len(rsi)-1]
		trend.RSI14 = &v
	}
	if len(ascending) >= smaPeriod {
		sma := talib.Sma(ascending, smaPeriod)
		v := sma[len(sma)-1]
		trend.SMA20 = &v
	}

	return trend
}

// trailingReturn is the percent change from the close n trading days back
// to the most recent close.
func trailingReturn(prices []domain.PricePoint, days int) float64 {
	if len(prices) <= days {
		return 0
	}
	base := prices[days].Close
	if base <= 0 {
		return 0
	}
	return (prices[0].Close - base) / base * 100
}

// recentHeadlines picks up to maxHeadlines items for advisor context
func recentHeadlines(items []domain.NewsItem) []advisor.Headline {
	headlines := make([]advisor.Headline, 0, maxHeadlines)
	for _, item := range items {
		if len(headlines) == maxHeadlines {
			break
		}
		headlines = append(headlines, advisor.Headline{
			Title:       item.Title,
			Source:      item.Source,
			PublishedAt: item.PublishedAt,
		})
	}
	return headlines
}
