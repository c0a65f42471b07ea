package signals

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/roboadvisor/internal/advisor"
	"github.com/aristath/roboadvisor/internal/domain"
	"github.com/aristath/roboadvisor/internal/modules/marketdata"
	"github.com/aristath/roboadvisor/internal/modules/portfolio"
	"github.com/aristath/roboadvisor/internal/modules/risk"
)

// stubAdvisor returns canned responses or errors
type stubAdvisor struct {
	signal    advisor.SignalResponse
	signalErr error
}

func (s *stubAdvisor) TradingSignal(ctx context.Context, req advisor.SignalRequest) (advisor.SignalResponse, error) {
	return s.signal, s.signalErr
}

func (s *stubAdvisor) PortfolioAnalysis(ctx context.Context, req advisor.AnalysisRequest) (advisor.AnalysisResponse, error) {
	return advisor.AnalysisResponse{Summary: "ok"}, s.signalErr
}

func setupGeneratorDB(t *testing.T) *sql.DB {
	t.Helper()
	db := setupTestDB(t)

	stmts := []string{
		`CREATE TABLE prices (
			symbol TEXT NOT NULL,
			date TEXT NOT NULL,
			close REAL NOT NULL,
			PRIMARY KEY (symbol, date)
		)`,
		`CREATE TABLE news_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			title TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			sentiment_score REAL,
			published_at TEXT NOT NULL
		)`,
		`CREATE TABLE positions (
			portfolio_id INTEGER NOT NULL,
			symbol TEXT NOT NULL,
			quantity REAL NOT NULL,
			average_cost REAL NOT NULL,
			PRIMARY KEY (portfolio_id, symbol)
		)`,
		`CREATE TABLE risk_scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			portfolio_id INTEGER NOT NULL,
			symbol TEXT,
			score_date TEXT NOT NULL,
			volatility_score REAL,
			sentiment_score REAL,
			beta REAL,
			overall_risk REAL NOT NULL,
			created_at TEXT NOT NULL,
			UNIQUE (portfolio_id, symbol, score_date)
		)`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err, "Failed to create test table")
	}

	return db
}

func newTestGenerator(t *testing.T, db *sql.DB, adv advisor.Advisor) *Generator {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)

	priceRepo := marketdata.NewPriceRepository(db, log)
	newsRepo := marketdata.NewNewsRepository(db, log)
	positionRepo := portfolio.NewRepository(db, log)
	scoreRepo := risk.NewScoreRepository(db, log)
	riskService := risk.NewService(risk.NewAnalyzer(log), priceRepo, newsRepo, positionRepo, scoreRepo, "SPY", log)

	return NewGenerator(adv, riskService, priceRepo, newsRepo, positionRepo,
		NewRecommendationRepository(db, log), NewPaperTradeRepository(db, log), log)
}

func insertPrice(t *testing.T, db *sql.DB, symbol string, daysAgo int, close float64) {
	t.Helper()
	date := time.Now().AddDate(0, 0, -daysAgo).Format("2006-01-02")
	_, err := db.Exec("INSERT INTO prices (symbol, date, close) VALUES (?, ?, ?)", symbol, date, close)
	require.NoError(t, err)
}

func TestGenerateSignal_AdvisorFailureFallsBack(t *testing.T) {
	db := setupGeneratorDB(t)
	g := newTestGenerator(t, db, &stubAdvisor{signalErr: errors.New("quota exceeded")})

	signal, err := g.GenerateSignal(context.Background(), "AAPL")
	require.NoError(t, err, "advisor failures must not propagate")
	assert.Equal(t, advisor.ActionHold, signal.Action)
	assert.Equal(t, 0.0, signal.Confidence)
	assert.Equal(t, "analysis error", signal.Reasoning)
}

func TestGenerateSignal_NilAdvisorFallsBack(t *testing.T) {
	db := setupGeneratorDB(t)
	g := newTestGenerator(t, db, nil)

	signal, err := g.GenerateSignal(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, advisor.ActionHold, signal.Action)
}

func TestGenerateSignal_SanitizesResponse(t *testing.T) {
	db := setupGeneratorDB(t)
	g := newTestGenerator(t, db, &stubAdvisor{signal: advisor.SignalResponse{
		Action:     "buy",
		Confidence: 1.4,
		Reasoning:  "  looks strong  ",
	}})

	signal, err := g.GenerateSignal(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, advisor.ActionBuy, signal.Action)
	assert.Equal(t, 1.0, signal.Confidence)
	assert.Equal(t, "looks strong", signal.Reasoning)
}

func TestGenerateSignal_EmptySymbol(t *testing.T) {
	db := setupGeneratorDB(t)
	g := newTestGenerator(t, db, nil)

	_, err := g.GenerateSignal(context.Background(), "  ")
	assert.True(t, domain.IsValidation(err))
}

func TestExecutePaperTrade(t *testing.T) {
	db := setupGeneratorDB(t)
	g := newTestGenerator(t, db, nil)

	t.Run("no price available", func(t *testing.T) {
		_, err := g.ExecutePaperTrade(1, "NOPRICE", "BUY", 10, nil, nil)
		assert.True(t, domain.IsValidation(err))
	})

	insertPrice(t, db, "AAPL", 0, 150)

	t.Run("buy signal opens a buy at the latest close", func(t *testing.T) {
		trade, err := g.ExecutePaperTrade(1, "AAPL", "BUY", 10, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, TradeBuy, trade.Action)
		assert.Equal(t, 150.0, trade.EntryPrice)
		assert.Equal(t, TradeOpen, trade.Status)
	})

	t.Run("non-buy signals open sells", func(t *testing.T) {
		for _, action := range []string{"SELL", "HOLD", "anything"} {
			trade, err := g.ExecutePaperTrade(1, "AAPL", action, 5, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, TradeSell, trade.Action, "action %q", action)
		}
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		_, err := g.ExecutePaperTrade(1, "AAPL", "BUY", 0, nil, nil)
		assert.True(t, domain.IsValidation(err))
	})
}

func TestClosePaperTrade(t *testing.T) {
	db := setupGeneratorDB(t)
	g := newTestGenerator(t, db, nil)
	insertPrice(t, db, "AAPL", 0, 100)

	trade, err := g.ExecutePaperTrade(1, "AAPL", "BUY", 10, nil, nil)
	require.NoError(t, err)

	t.Run("explicit exit price", func(t *testing.T) {
		exit := 110.0
		closed, err := g.ClosePaperTrade(trade.ID, &exit)
		require.NoError(t, err)
		assert.Equal(t, TradeClosed, closed.Status)
		require.NotNil(t, closed.PnL)
		assert.Equal(t, 100.0, *closed.PnL)
		require.NotNil(t, closed.PnLPercent)
		assert.Equal(t, 10.0, *closed.PnLPercent)
	})

	t.Run("closing twice is rejected and leaves the record alone", func(t *testing.T) {
		exit := 50.0
		_, err := g.ClosePaperTrade(trade.ID, &exit)
		assert.True(t, domain.IsValidation(err))

		loaded, found, err := g.trades.GetByID(trade.ID)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, 100.0, *loaded.PnL, "first close result must survive")
	})

	t.Run("exit defaults to the latest close", func(t *testing.T) {
		second, err := g.ExecutePaperTrade(1, "AAPL", "BUY", 10, nil, nil)
		require.NoError(t, err)

		closed, err := g.ClosePaperTrade(second.ID, nil)
		require.NoError(t, err)
		require.NotNil(t, closed.ExitPrice)
		assert.Equal(t, 100.0, *closed.ExitPrice)
	})

	t.Run("unknown trade", func(t *testing.T) {
		_, err := g.ClosePaperTrade(9999, nil)
		assert.True(t, domain.IsValidation(err))
	})
}

func TestUpdateRecommendationStatus(t *testing.T) {
	db := setupGeneratorDB(t)
	g := newTestGenerator(t, db, nil)

	rec, err := g.SaveRecommendation(1, "AAPL", "signal", advisor.SignalResponse{
		Action: "BUY", Confidence: 0.8, Reasoning: "test",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, rec.Status)

	t.Run("pending to accepted", func(t *testing.T) {
		updated, err := g.UpdateRecommendationStatus(rec.ID, StatusAccepted)
		require.NoError(t, err)
		assert.Equal(t, StatusAccepted, updated.Status)
	})

	t.Run("terminal status rejects changes", func(t *testing.T) {
		_, err := g.UpdateRecommendationStatus(rec.ID, StatusRejected)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("pending is not a valid target", func(t *testing.T) {
		_, err := g.UpdateRecommendationStatus(rec.ID, StatusPending)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("unknown recommendation", func(t *testing.T) {
		_, err := g.UpdateRecommendationStatus(9999, StatusAccepted)
		assert.True(t, domain.IsValidation(err))
	})
}

func TestGetRecommendations_LazyExpiry(t *testing.T) {
	db := setupGeneratorDB(t)
	g := newTestGenerator(t, db, nil)

	// Insert a recommendation whose deadline has already passed
	past := time.Now().Add(-time.Hour)
	_, err := g.recommendations.Create(Recommendation{
		PortfolioID: 1, Symbol: "AAPL", RecommendationType: "signal",
		Action: "BUY", Confidence: 0.8, Status: StatusPending, ExpiresAt: past,
	})
	require.NoError(t, err)

	recs, err := g.GetRecommendations(1, "")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, StatusExpired, recs[0].Status)

	// The expiry is persisted, not just reported
	loaded, found, err := g.recommendations.GetByID(recs[0].ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, StatusExpired, loaded.Status)
}
