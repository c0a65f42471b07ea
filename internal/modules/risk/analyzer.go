package risk

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/roboadvisor/internal/domain"
	"github.com/aristath/roboadvisor/pkg/formulas"
)

// BenchmarkReturns is a daily return series for the market benchmark, most
// recent first. It is built once per call chain and threaded through as a
// value so concurrent invocations never share state.
type BenchmarkReturns []float64

// NewBenchmarkReturns converts benchmark close history (most recent first)
// into a daily return series
func NewBenchmarkReturns(prices []domain.PricePoint) BenchmarkReturns {
	return BenchmarkReturns(formulas.DailyReturns(closesOf(prices)))
}

// Analyzer scores stocks and portfolios. It is pure computation: all inputs
// arrive materialized from the caller and no storage is touched. Missing or
// degenerate data never produces an error, only labeled neutral defaults.
//
// Components of the overall stock score:
//   - volatility (40%): annualized std dev of 30d daily returns
//   - beta (30%): covariance with the benchmark over 90d
//   - sentiment (30%): inverse of 7d average news sentiment
type Analyzer struct {
	log zerolog.Logger
}

// NewAnalyzer creates a new risk analyzer
func NewAnalyzer(log zerolog.Logger) *Analyzer {
	return &Analyzer{
		log: log.With().Str("component", "risk_analyzer").Logger(),
	}
}

// StockRisk calculates the comprehensive risk score for one stock
func (a *Analyzer) StockRisk(in StockRiskInput) StockRisk {
	if len(in.Prices) < 10 {
		a.log.Warn().Str("symbol", in.Symbol).Int("points", len(in.Prices)).
			Msg("Insufficient price data, returning default risk")
		return defaultStockRisk(in.Symbol, "insufficient price data", in.AsOf)
	}

	volatilityScore := volatilityScore(head(in.Prices, volatilityDays))
	beta, betaScore := a.beta(head(in.Prices, betaDays), in.Benchmark)
	sentimentScore := sentimentRisk(in.News, in.AsOf)

	overall := formulas.Clamp(
		weightVolatility*volatilityScore+
			weightBeta*betaScore+
			weightSentiment*sentimentScore,
		0, 100,
	)

	return StockRisk{
		Symbol:          in.Symbol,
		OverallRisk:     round2(overall),
		VolatilityScore: round2(volatilityScore),
		Beta:            round2(beta),
		BetaScore:       round2(betaScore),
		SentimentScore:  round2(sentimentScore),
		RiskLevel:       riskLevel(overall),
		CalculatedAt:    asOfDate(in.AsOf),
	}
}

// PortfolioRisk calculates aggregate risk across all positions. Per-position
// weights come from position values; the weighted risk is then inflated by a
// Herfindahl-Hirschman concentration adjustment.
func (a *Analyzer) PortfolioRisk(in PortfolioRiskInput) PortfolioRisk {
	if len(in.Positions) == 0 {
		return PortfolioRisk{
			PortfolioID:   in.PortfolioID,
			RiskLevel:     LevelUnknown,
			PositionRisks: []PositionRisk{},
			Note:          "no positions in portfolio",
			CalculatedAt:  asOfDate(in.AsOf),
		}
	}

	totalValue := 0.0
	for _, pos := range in.Positions {
		totalValue += pos.Value
	}
	if totalValue <= 0 {
		return defaultPortfolioRisk(in.PortfolioID, "invalid portfolio value", in.AsOf)
	}

	positionRisks := make([]PositionRisk, 0, len(in.Positions))
	for _, pos := range in.Positions {
		stockRisk := a.StockRisk(StockRiskInput{
			Symbol:    pos.Symbol,
			Prices:    pos.Prices,
			News:      pos.News,
			Benchmark: in.Benchmark,
			AsOf:      in.AsOf,
		})

		positionRisks = append(positionRisks, PositionRisk{
			StockRisk:     stockRisk,
			Weight:        round2(pos.Value / totalValue * 100),
			PositionValue: round2(pos.Value),
		})
	}

	return aggregatePortfolioRisk(in.PortfolioID, positionRisks, totalValue, in.AsOf)
}

// aggregatePortfolioRisk combines already-scored positions into the portfolio
// result: value-weighted risk inflated by the concentration adjustment.
func aggregatePortfolioRisk(portfolioID int64, positionRisks []PositionRisk, totalValue float64, asOf time.Time) PortfolioRisk {
	weightedRisk := 0.0
	for _, pos := range positionRisks {
		weightedRisk += pos.OverallRisk * pos.Weight / 100
	}

	concentration := concentrationRisk(positionRisks)
	overall := formulas.Clamp(weightedRisk*(1+concentration/100), 0, 100)

	return PortfolioRisk{
		PortfolioID:       portfolioID,
		OverallRisk:       round2(overall),
		WeightedRisk:      round2(weightedRisk),
		ConcentrationRisk: round2(concentration),
		RiskLevel:         riskLevel(overall),
		TotalValue:        round2(totalValue),
		PositionCount:     len(positionRisks),
		PositionRisks:     positionRisks,
		CalculatedAt:      asOfDate(asOf),
	}
}

// volatilityScore maps annualized volatility of trailing daily returns onto
// 0-100, where 60% annual volatility (a very turbulent stock) saturates the
// scale. Fewer than 5 usable returns yields the neutral 50.
func volatilityScore(prices []domain.PricePoint) float64 {
	returns := formulas.DailyReturns(closesOf(prices))
	if len(returns) < 5 {
		return 50.0
	}

	annualVol := formulas.AnnualizedVolatility(returns)
	return formulas.Clamp(annualVol/0.6*100, 0, 100)
}

// beta estimates market sensitivity as Cov(stock, benchmark)/Var(benchmark)
// over aligned daily returns. Too little data or a flat benchmark falls back
// to the market beta of 1.0 (score 50).
func (a *Analyzer) beta(prices []domain.PricePoint, bench BenchmarkReturns) (float64, float64) {
	if len(prices) < 20 || len(bench) == 0 {
		return 1.0, 50.0
	}

	stockReturns := formulas.DailyReturns(closesOf(prices))
	if len(stockReturns) < 10 || len(bench) < 10 {
		return 1.0, 50.0
	}

	// Align the two series on their shared most-recent span
	n := len(stockReturns)
	if len(bench) < n {
		n = len(bench)
	}
	stockReturns = stockReturns[:n]
	benchReturns := []float64(bench[:n])

	marketVariance := formulas.Variance(benchReturns)
	if marketVariance == 0 {
		return 1.0, 50.0
	}

	beta := formulas.Covariance(stockReturns, benchReturns) / marketVariance
	return beta, betaScore(beta)
}

// betaScore maps beta onto a 0-100 risk scale. The mapping is deliberately
// discontinuous at zero: any negative beta is unusual enough to score a flat
// 80 regardless of magnitude.
func betaScore(beta float64) float64 {
	switch {
	case beta < 0:
		return 80
	case beta < 0.5:
		return beta * 60 // 0-30
	case beta <= 1.5:
		return 30 + (beta-0.5)*40 // 30-70
	default:
		return 70 + math.Min(30, (beta-1.5)*20) // 70-100
	}
}

// sentimentRisk inverts average news sentiment over the trailing week:
// sentiment +1 maps to risk 20, neutral to 50, -1 to 80. No scored items
// within the window yields the neutral 50.
func sentimentRisk(items []domain.NewsItem, asOf time.Time) float64 {
	since := asOf.AddDate(0, 0, -sentimentDays)

	var scores []float64
	for _, item := range items {
		if item.SentimentScore == nil || item.PublishedAt.Before(since) {
			continue
		}
		scores = append(scores, *item.SentimentScore)
	}
	if len(scores) == 0 {
		return 50.0
	}

	avg := formulas.Mean(scores)
	return formulas.Clamp(50-avg*30, 0, 100)
}

// concentrationRisk normalizes the Herfindahl-Hirschman Index of position
// weights into [0, 20]. HHI ranges from 10000/n (equal weights) to 10000
// (single holding); a single-position portfolio has min == max and scores 0.
func concentrationRisk(positions []PositionRisk) float64 {
	if len(positions) == 0 {
		return 0.0
	}

	hhi := 0.0
	for _, pos := range positions {
		hhi += pos.Weight * pos.Weight
	}

	n := float64(len(positions))
	minHHI := 10000 / n
	maxHHI := 10000.0
	if maxHHI == minHHI {
		return 0.0
	}

	return (hhi - minHHI) / (maxHHI - minHHI) * 20
}

func defaultStockRisk(symbol, reason string, asOf time.Time) StockRisk {
	return StockRisk{
		Symbol:          symbol,
		OverallRisk:     50.0,
		VolatilityScore: 50.0,
		Beta:            1.0,
		BetaScore:       50.0,
		SentimentScore:  50.0,
		RiskLevel:       LevelUnknown,
		Note:            reason,
		CalculatedAt:    asOfDate(asOf),
	}
}

func defaultPortfolioRisk(portfolioID int64, reason string, asOf time.Time) PortfolioRisk {
	return PortfolioRisk{
		PortfolioID:   portfolioID,
		OverallRisk:   50.0,
		WeightedRisk:  50.0,
		RiskLevel:     LevelUnknown,
		PositionRisks: []PositionRisk{},
		Note:          reason,
		CalculatedAt:  asOfDate(asOf),
	}
}

func closesOf(prices []domain.PricePoint) []float64 {
	closes := make([]float64, len(prices))
	for i, p := range prices {
		closes[i] = p.Close
	}
	return closes
}

func head(prices []domain.PricePoint, n int) []domain.PricePoint {
	if len(prices) > n {
		return prices[:n]
	}
	return prices
}

func asOfDate(asOf time.Time) string {
	if asOf.IsZero() {
		asOf = time.Now()
	}
	return asOf.Format("2006-01-02")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
