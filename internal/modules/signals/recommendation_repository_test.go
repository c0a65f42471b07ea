package signals

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err, "Failed to open test database")
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE recommendations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			portfolio_id INTEGER NOT NULL,
			symbol TEXT NOT NULL,
			recommendation_type TEXT NOT NULL,
			action TEXT NOT NULL,
			confidence REAL NOT NULL,
			reasoning TEXT NOT NULL DEFAULT '',
			risk_level TEXT NOT NULL DEFAULT '',
			time_horizon TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			expires_at TEXT NOT NULL
		)
	`)
	require.NoError(t, err, "Failed to create test table")

	_, err = db.Exec(`
		CREATE TABLE paper_trades (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			portfolio_id INTEGER NOT NULL,
			symbol TEXT NOT NULL,
			recommendation_id INTEGER,
			action TEXT NOT NULL,
			quantity REAL NOT NULL,
			entry_price REAL NOT NULL,
			exit_price REAL,
			entry_date TEXT NOT NULL,
			exit_date TEXT,
			pnl REAL,
			pnl_percent REAL,
			status TEXT NOT NULL DEFAULT 'open',
			signal_confidence REAL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	require.NoError(t, err, "Failed to create test table")

	return db
}

func TestRecommendationRepository_CreateAndGet(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewRecommendationRepository(setupTestDB(t), log)

	created, err := repo.Create(Recommendation{
		PortfolioID:        1,
		Symbol:             "aapl",
		RecommendationType: "signal",
		Action:             "BUY",
		Confidence:         0.82,
		Reasoning:          "strong momentum with improving sentiment",
		RiskLevel:          "moderate",
		TimeHorizon:        "medium_term",
		Status:             StatusPending,
		ExpiresAt:          time.Now().Add(7 * 24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Greater(t, created.ID, int64(0))
	assert.Equal(t, "AAPL", created.Symbol, "symbol should be normalized")

	loaded, found, err := repo.GetByID(created.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, StatusPending, loaded.Status)
	assert.Equal(t, 0.82, loaded.Confidence)
	assert.Equal(t, "AAPL", loaded.Symbol)

	_, found, err = repo.GetByID(9999)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRecommendationRepository_StatusFilter(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewRecommendationRepository(setupTestDB(t), log)

	expiry := time.Now().Add(7 * 24 * time.Hour)
	first, err := repo.Create(Recommendation{
		PortfolioID: 1, Symbol: "AAPL", RecommendationType: "signal",
		Action: "BUY", Confidence: 0.8, Status: StatusPending, ExpiresAt: expiry,
	})
	require.NoError(t, err)
	_, err = repo.Create(Recommendation{
		PortfolioID: 1, Symbol: "MSFT", RecommendationType: "signal",
		Action: "HOLD", Confidence: 0.5, Status: StatusPending, ExpiresAt: expiry,
	})
	require.NoError(t, err)

	require.NoError(t, repo.UpdateStatus(first.ID, StatusAccepted))

	pending, err := repo.GetByPortfolio(1, StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "MSFT", pending[0].Symbol)

	all, err := repo.GetByPortfolio(1, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	other, err := repo.GetByPortfolio(2, "")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRecommendationRepository_UpdateStatusMissing(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewRecommendationRepository(setupTestDB(t), log)

	err := repo.UpdateStatus(42, StatusAccepted)
	assert.Error(t, err)
}
