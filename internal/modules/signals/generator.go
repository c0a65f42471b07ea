package signals

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/roboadvisor/internal/advisor"
	"github.com/aristath/roboadvisor/internal/domain"
	"github.com/aristath/roboadvisor/internal/modules/marketdata"
	"github.com/aristath/roboadvisor/internal/modules/portfolio"
	"github.com/aristath/roboadvisor/internal/modules/risk"
	"github.com/aristath/roboadvisor/pkg/formulas"
)

// featureDays covers the 30-day return plus enough history for the
// indicator warmup.
const featureDays = trendLongDays + smaPeriod

// SymbolSignal pairs a position symbol with its generated signal
type SymbolSignal struct {
	Symbol string                 `json:"symbol"`
	Signal advisor.SignalResponse `json:"signal"`
}

// Generator produces trading signals and manages the recommendation and
// paper trade lifecycles built on top of them.
type Generator struct {
	adv             advisor.Advisor
	risk            *risk.Service
	prices          *marketdata.PriceRepository
	news            *marketdata.NewsRepository
	positions       *portfolio.Repository
	recommendations *RecommendationRepository
	trades          *PaperTradeRepository
	log             zerolog.Logger
}

// NewGenerator creates a new signal generator. The advisor may be nil, in
// which case every signal is the neutral fallback.
func NewGenerator(
	adv advisor.Advisor,
	riskService *risk.Service,
	prices *marketdata.PriceRepository,
	news *marketdata.NewsRepository,
	positions *portfolio.Repository,
	recommendations *RecommendationRepository,
	trades *PaperTradeRepository,
	log zerolog.Logger,
) *Generator {
	return &Generator{
		adv:             adv,
		risk:            riskService,
		prices:          prices,
		news:            news,
		positions:       positions,
		recommendations: recommendations,
		trades:          trades,
		log:             log.With().Str("component", "signal_generator").Logger(),
	}
}

// GenerateSignal builds the feature set for one symbol and asks the advisor
// for a signal. Advisor failures never propagate: the caller always gets a
// usable response, degraded to the neutral fallback when needed.
func (g *Generator) GenerateSignal(ctx context.Context, symbol string) (advisor.SignalResponse, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return advisor.SignalResponse{}, domain.Validationf("symbol is required")
	}

	req, err := g.buildSignalRequest(symbol)
	if err != nil {
		return advisor.SignalResponse{}, err
	}

	if g.adv == nil {
		g.log.Debug().Str("symbol", symbol).Msg("No advisor configured, returning fallback signal")
		return fallbackSignal(), nil
	}

	resp, err := g.adv.TradingSignal(ctx, req)
	if err != nil {
		g.log.Warn().Err(err).Str("symbol", symbol).Msg("Advisor failed, returning fallback signal")
		return fallbackSignal(), nil
	}

	return sanitizeSignal(resp), nil
}

// GeneratePortfolioSignals generates one signal per held position, most
// confident first.
func (g *Generator) GeneratePortfolioSignals(ctx context.Context, portfolioID int64) ([]SymbolSignal, error) {
	positions, err := g.positions.GetByPortfolio(portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}

	signals := make([]SymbolSignal, 0, len(positions))
	for _, pos := range positions {
		signal, err := g.GenerateSignal(ctx, pos.Symbol)
		if err != nil {
			return nil, err
		}
		signals = append(signals, SymbolSignal{Symbol: pos.Symbol, Signal: signal})
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Signal.Confidence > signals[j].Signal.Confidence
	})
	return signals, nil
}

// PortfolioAnalysis asks the advisor for a narrative portfolio review.
// Like signals, a failing advisor degrades to a labeled fallback.
func (g *Generator) PortfolioAnalysis(ctx context.Context, portfolioID int64) (advisor.AnalysisResponse, error) {
	portfolioRisk, err := g.risk.PortfolioRisk(portfolioID)
	if err != nil {
		return advisor.AnalysisResponse{}, err
	}

	summaries := make([]advisor.PositionSummary, 0, len(portfolioRisk.PositionRisks))
	for _, pos := range portfolioRisk.PositionRisks {
		summaries = append(summaries, advisor.PositionSummary{
			Symbol: pos.Symbol,
			Weight: pos.Weight,
			Value:  pos.PositionValue,
		})
	}

	if g.adv == nil {
		return fallbackAnalysis(), nil
	}

	resp, err := g.adv.PortfolioAnalysis(ctx, advisor.AnalysisRequest{
		PortfolioID: portfolioID,
		TotalValue:  portfolioRisk.TotalValue,
		Risk:        portfolioRisk,
		Positions:   summaries,
	})
	if err != nil {
		g.log.Warn().Err(err).Int64("portfolio_id", portfolioID).Msg("Advisor analysis failed, returning fallback")
		return fallbackAnalysis(), nil
	}

	if strings.TrimSpace(resp.Summary) == "" {
		resp.Summary = "analysis unavailable"
	}
	return resp, nil
}

// SaveRecommendation persists a generated signal as a pending
// recommendation that expires after a week.
func (g *Generator) SaveRecommendation(portfolioID int64, symbol, recType string, signal advisor.SignalResponse) (Recommendation, error) {
	now := time.Now()
	return g.recommendations.Create(Recommendation{
		PortfolioID:        portfolioID,
		Symbol:             symbol,
		RecommendationType: recType,
		Action:             signal.Action,
		Confidence:         signal.Confidence,
		Reasoning:          signal.Reasoning,
		RiskLevel:          signal.RiskLevel,
		TimeHorizon:        signal.TimeHorizon,
		Status:             StatusPending,
		ExpiresAt:          now.Add(recommendationTTL),
	})
}

// GetRecommendations lists a portfolio's recommendations, applying lazy
// expiry to pending ones that have passed their deadline.
func (g *Generator) GetRecommendations(portfolioID int64, status RecommendationStatus) ([]Recommendation, error) {
	recs, err := g.recommendations.GetByPortfolio(portfolioID, status)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for i, rec := range recs {
		if !rec.Expired(now) {
			continue
		}
		if err := g.recommendations.UpdateStatus(rec.ID, StatusExpired); err != nil {
			g.log.Error().Err(err).Int64("id", rec.ID).Msg("Failed to expire recommendation")
			continue
		}
		recs[i].Status = StatusExpired
	}

	if recs == nil {
		recs = []Recommendation{}
	}
	return recs, nil
}

// UpdateRecommendationStatus moves a recommendation through its lifecycle.
// Terminal and expired recommendations reject further changes.
func (g *Generator) UpdateRecommendationStatus(id int64, next RecommendationStatus) (Recommendation, error) {
	if !next.Valid() || next == StatusPending {
		return Recommendation{}, domain.Validationf("invalid target status %q", next)
	}

	rec, found, err := g.recommendations.GetByID(id)
	if err != nil {
		return Recommendation{}, err
	}
	if !found {
		return Recommendation{}, domain.Validationf("recommendation %d not found", id)
	}

	now := time.Now()
	if rec.Expired(now) {
		if err := g.recommendations.UpdateStatus(id, StatusExpired); err != nil {
			return Recommendation{}, err
		}
		rec.Status = StatusExpired
		if next == StatusExpired {
			return rec, nil
		}
		return Recommendation{}, domain.Validationf("recommendation %d has expired", id)
	}

	if !rec.Status.CanTransitionTo(next) {
		return Recommendation{}, domain.Validationf("cannot move recommendation from %s to %s", rec.Status, next)
	}

	if err := g.recommendations.UpdateStatus(id, next); err != nil {
		return Recommendation{}, err
	}
	rec.Status = next
	return rec, nil
}

// ExecutePaperTrade opens a simulated trade at the latest stored close.
// BUY signals open buys; everything else opens a sell simulation.
func (g *Generator) ExecutePaperTrade(portfolioID int64, symbol, signalAction string, quantity float64, recommendationID *int64, confidence *float64) (PaperTrade, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if quantity <= 0 {
		return PaperTrade{}, domain.Validationf("quantity must be positive, got %.2f", quantity)
	}

	price, ok, err := g.prices.LatestClose(symbol)
	if err != nil {
		return PaperTrade{}, err
	}
	if !ok || price <= 0 {
		return PaperTrade{}, domain.Validationf("no current price available for %s", symbol)
	}

	action := TradeSell
	if strings.EqualFold(strings.TrimSpace(signalAction), advisor.ActionBuy) {
		action = TradeBuy
	}

	return g.trades.Create(PaperTrade{
		PortfolioID:      portfolioID,
		Symbol:           symbol,
		RecommendationID: recommendationID,
		Action:           action,
		Quantity:         quantity,
		EntryPrice:       price,
		EntryDate:        time.Now(),
		Status:           TradeOpen,
		SignalConfidence: confidence,
	})
}

// ClosePaperTrade settles an open trade. The exit price defaults to the
// latest stored close when the caller does not supply one.
func (g *Generator) ClosePaperTrade(id int64, exitPrice *float64) (PaperTrade, error) {
	trade, found, err := g.trades.GetByID(id)
	if err != nil {
		return PaperTrade{}, err
	}
	if !found {
		return PaperTrade{}, domain.Validationf("paper trade %d not found", id)
	}
	if trade.Status != TradeOpen {
		return PaperTrade{}, domain.Validationf("paper trade %d is %s, only open trades can be closed", id, trade.Status)
	}

	price := 0.0
	if exitPrice != nil {
		price = *exitPrice
	} else {
		latest, ok, err := g.prices.LatestClose(trade.Symbol)
		if err != nil {
			return PaperTrade{}, err
		}
		if !ok {
			return PaperTrade{}, domain.Validationf("no current price available for %s", trade.Symbol)
		}
		price = latest
	}
	if price <= 0 {
		return PaperTrade{}, domain.Validationf("exit price must be positive, got %.2f", price)
	}

	pnl, pnlPercent := TradePnL(trade.Action, trade.Quantity, trade.EntryPrice, price)
	if err := g.trades.Close(id, price, time.Now(), round2(pnl), round2(pnlPercent)); err != nil {
		return PaperTrade{}, err
	}

	trade, _, err = g.trades.GetByID(id)
	return trade, err
}

// CancelPaperTrade voids an open trade
func (g *Generator) CancelPaperTrade(id int64) (PaperTrade, error) {
	trade, found, err := g.trades.GetByID(id)
	if err != nil {
		return PaperTrade{}, err
	}
	if !found {
		return PaperTrade{}, domain.Validationf("paper trade %d not found", id)
	}
	if trade.Status != TradeOpen {
		return PaperTrade{}, domain.Validationf("paper trade %d is %s, only open trades can be cancelled", id, trade.Status)
	}

	if err := g.trades.Cancel(id); err != nil {
		return PaperTrade{}, err
	}

	trade, _, err = g.trades.GetByID(id)
	return trade, err
}

// GetPaperTrades lists a portfolio's trades, optionally filtered by status
func (g *Generator) GetPaperTrades(portfolioID int64, status TradeStatus) ([]PaperTrade, error) {
	trades, err := g.trades.GetByPortfolio(portfolioID, status)
	if err != nil {
		return nil, err
	}
	if trades == nil {
		trades = []PaperTrade{}
	}
	return trades, nil
}

// PaperPerformance aggregates trading results, marking open trades to the
// latest stored closes.
func (g *Generator) PaperPerformance(portfolioID int64) (Performance, error) {
	trades, err := g.trades.GetByPortfolio(portfolioID, "")
	if err != nil {
		return Performance{}, err
	}

	symbols := make([]string, 0)
	seen := make(map[string]struct{})
	for _, trade := range trades {
		if trade.Status != TradeOpen {
			continue
		}
		if _, ok := seen[trade.Symbol]; !ok {
			seen[trade.Symbol] = struct{}{}
			symbols = append(symbols, trade.Symbol)
		}
	}

	prices, err := g.prices.CurrentPrices(symbols)
	if err != nil {
		return Performance{}, err
	}

	return CalculatePerformance(portfolioID, trades, prices, time.Now()), nil
}

func (g *Generator) buildSignalRequest(symbol string) (advisor.SignalRequest, error) {
	stockRisk, err := g.risk.StockRisk(symbol)
	if err != nil {
		return advisor.SignalRequest{}, err
	}

	prices, err := g.prices.HistoryDesc(symbol, featureDays)
	if err != nil {
		return advisor.SignalRequest{}, fmt.Errorf("failed to load prices for %s: %w", symbol, err)
	}

	now := time.Now()
	news, err := g.news.RecentScored(symbol, now.AddDate(0, 0, -sentimentWindowDays))
	if err != nil {
		return advisor.SignalRequest{}, fmt.Errorf("failed to load news for %s: %w", symbol, err)
	}

	headlines, err := g.news.RecentHeadlines(symbol, maxHeadlines)
	if err != nil {
		return advisor.SignalRequest{}, fmt.Errorf("failed to load headlines for %s: %w", symbol, err)
	}

	return advisor.SignalRequest{
		Symbol:    symbol,
		Risk:      stockRisk,
		Sentiment: sentimentSummary(news, now),
		Trend:     priceTrend(prices),
		Headlines: recentHeadlines(headlines),
	}, nil
}

// sanitizeSignal coerces an advisor response into the closed action set and
// valid confidence range.
func sanitizeSignal(resp advisor.SignalResponse) advisor.SignalResponse {
	switch strings.ToUpper(strings.TrimSpace(resp.Action)) {
	case advisor.ActionBuy:
		resp.Action = advisor.ActionBuy
	case advisor.ActionSell:
		resp.Action = advisor.ActionSell
	default:
		resp.Action = advisor.ActionHold
	}

	resp.Confidence = formulas.Clamp(resp.Confidence, 0, 1)
	resp.Reasoning = strings.TrimSpace(resp.Reasoning)
	return resp
}

// fallbackSignal is the neutral response used whenever the advisor cannot
// produce one.
func fallbackSignal() advisor.SignalResponse {
	return advisor.SignalResponse{
		Action:     advisor.ActionHold,
		Confidence: 0,
		Reasoning:  "analysis error",
	}
}

func fallbackAnalysis() advisor.AnalysisResponse {
	return advisor.AnalysisResponse{Summary: "analysis error"}
}
