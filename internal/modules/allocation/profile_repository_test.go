package allocation

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupProfileDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err, "Failed to open test database")
	t.Cleanup(func() { db.Close() })

	stmts := []string{
		`CREATE TABLE advisory_profiles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			portfolio_id INTEGER NOT NULL UNIQUE,
			risk_tolerance TEXT NOT NULL DEFAULT 'moderate',
			investment_horizon INTEGER NOT NULL DEFAULT 5,
			rebalance_threshold REAL NOT NULL DEFAULT 5.0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE target_allocations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			profile_id INTEGER NOT NULL,
			symbol TEXT NOT NULL,
			target_weight REAL NOT NULL,
			created_at TEXT NOT NULL,
			UNIQUE (profile_id, symbol)
		)`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err, "Failed to create test table")
	}

	return db
}

func TestProfileRepository_GetOrCreate(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewProfileRepository(setupProfileDB(t), log)

	created, err := repo.GetOrCreate(1)
	require.NoError(t, err)
	assert.Greater(t, created.ID, int64(0))
	assert.Equal(t, ToleranceModerate, created.RiskTolerance)
	assert.Equal(t, DefaultInvestmentHorizon, created.InvestmentHorizon)
	assert.Equal(t, DefaultRebalanceThreshold, created.RebalanceThreshold)

	// Second call returns the same profile, not a new one
	again, err := repo.GetOrCreate(1)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	// A different portfolio gets its own
	other, err := repo.GetOrCreate(2)
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, other.ID)
}

func TestProfileRepository_Update(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewProfileRepository(setupProfileDB(t), log)

	profile, err := repo.GetOrCreate(1)
	require.NoError(t, err)

	profile.RiskTolerance = ToleranceAggressive
	profile.InvestmentHorizon = 10
	profile.RebalanceThreshold = 3.0
	require.NoError(t, repo.Update(profile))

	loaded, err := repo.GetOrCreate(1)
	require.NoError(t, err)
	assert.Equal(t, ToleranceAggressive, loaded.RiskTolerance)
	assert.Equal(t, 10, loaded.InvestmentHorizon)
	assert.Equal(t, 3.0, loaded.RebalanceThreshold)

	// Updating a missing profile fails
	missing := Profile{PortfolioID: 99}
	assert.Error(t, repo.Update(missing))
}

func TestProfileRepository_ReplaceTargets(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewProfileRepository(setupProfileDB(t), log)

	profile, err := repo.GetOrCreate(1)
	require.NoError(t, err)

	require.NoError(t, repo.ReplaceTargets(profile.ID, map[string]float64{
		"aapl": 60,
		"MSFT": 40,
	}))

	targets, err := repo.GetTargets(profile.ID)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "AAPL", targets[0].Symbol, "symbols are normalized and ordered")
	assert.Equal(t, 60.0, targets[0].Weight)
	assert.Equal(t, "MSFT", targets[1].Symbol)

	// Replacing swaps the whole set
	require.NoError(t, repo.ReplaceTargets(profile.ID, map[string]float64{"GOOG": 100}))
	targets, err = repo.GetTargets(profile.ID)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "GOOG", targets[0].Symbol)
}
