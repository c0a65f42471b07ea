package risk

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/roboadvisor/internal/modules/marketdata"
	"github.com/aristath/roboadvisor/internal/modules/portfolio"
)

// Service loads market data and positions, runs the analyzer and persists
// the resulting scores.
type Service struct {
	analyzer        *Analyzer
	prices          *marketdata.PriceRepository
	news            *marketdata.NewsRepository
	positions       *portfolio.Repository
	scores          *ScoreRepository
	benchmarkSymbol string
	log             zerolog.Logger
}

// NewService creates a new risk service
func NewService(
	analyzer *Analyzer,
	prices *marketdata.PriceRepository,
	news *marketdata.NewsRepository,
	positions *portfolio.Repository,
	scores *ScoreRepository,
	benchmarkSymbol string,
	log zerolog.Logger,
) *Service {
	return &Service{
		analyzer:        analyzer,
		prices:          prices,
		news:            news,
		positions:       positions,
		scores:          scores,
		benchmarkSymbol: benchmarkSymbol,
		log:             log.With().Str("component", "risk_service").Logger(),
	}
}

// StockRisk scores one stock from stored market data. The score is computed
// fresh on every call; persistence only happens through portfolio scoring,
// which knows the owning portfolio.
func (s *Service) StockRisk(symbol string) (StockRisk, error) {
	now := time.Now()

	prices, err := s.prices.HistoryDesc(symbol, betaDays)
	if err != nil {
		return StockRisk{}, fmt.Errorf("failed to load prices for %s: %w", symbol, err)
	}

	news, err := s.news.RecentScored(symbol, now.AddDate(0, 0, -sentimentDays))
	if err != nil {
		return StockRisk{}, fmt.Errorf("failed to load news for %s: %w", symbol, err)
	}

	bench, err := s.benchmarkReturns()
	if err != nil {
		return StockRisk{}, err
	}

	return s.analyzer.StockRisk(StockRiskInput{
		Symbol:    symbol,
		Prices:    prices,
		News:      news,
		Benchmark: bench,
		AsOf:      now,
	}), nil
}

// PortfolioRisk scores a whole portfolio and records the results. Position
// values use the latest stored close, falling back to average cost when no
// price is available.
func (s *Service) PortfolioRisk(portfolioID int64) (PortfolioRisk, error) {
	now := time.Now()

	positions, err := s.positions.GetByPortfolio(portfolioID)
	if err != nil {
		return PortfolioRisk{}, fmt.Errorf("failed to load positions: %w", err)
	}

	bench, err := s.benchmarkReturns()
	if err != nil {
		return PortfolioRisk{}, err
	}

	inputs := make([]PositionRiskInput, 0, len(positions))
	for _, pos := range positions {
		prices, err := s.prices.HistoryDesc(pos.Symbol, betaDays)
		if err != nil {
			return PortfolioRisk{}, fmt.Errorf("failed to load prices for %s: %w", pos.Symbol, err)
		}

		news, err := s.news.RecentScored(pos.Symbol, now.AddDate(0, 0, -sentimentDays))
		if err != nil {
			return PortfolioRisk{}, fmt.Errorf("failed to load news for %s: %w", pos.Symbol, err)
		}

		price := 0.0
		if latest, ok, err := s.prices.LatestClose(pos.Symbol); err != nil {
			return PortfolioRisk{}, fmt.Errorf("failed to load latest close for %s: %w", pos.Symbol, err)
		} else if ok {
			price = latest
		}

		inputs = append(inputs, PositionRiskInput{
			Symbol: pos.Symbol,
			Value:  pos.Value(price),
			Prices: prices,
			News:   news,
		})
	}

	result := s.analyzer.PortfolioRisk(PortfolioRiskInput{
		PortfolioID: portfolioID,
		Positions:   inputs,
		Benchmark:   bench,
		AsOf:        now,
	})

	s.persist(result)
	return result, nil
}

// History returns persisted scores for a portfolio over the trailing days
func (s *Service) History(portfolioID int64, days int) ([]Score, error) {
	return s.scores.History(portfolioID, days)
}

func (s *Service) benchmarkReturns() (BenchmarkReturns, error) {
	prices, err := s.prices.HistoryDesc(s.benchmarkSymbol, betaDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load benchmark prices: %w", err)
	}
	return NewBenchmarkReturns(prices), nil
}

// persist records the portfolio score and its per-position scores. Failures
// are logged but never fail the scoring call.
func (s *Service) persist(result PortfolioRisk) {
	if err := s.scores.SavePortfolioScore(result); err != nil {
		s.log.Error().Err(err).Int64("portfolio_id", result.PortfolioID).
			Msg("Failed to save portfolio risk score")
	}
	for _, pos := range result.PositionRisks {
		if err := s.scores.SaveStockScore(result.PortfolioID, pos.StockRisk); err != nil {
			s.log.Error().Err(err).Str("symbol", pos.Symbol).
				Msg("Failed to save stock risk score")
		}
	}
}
