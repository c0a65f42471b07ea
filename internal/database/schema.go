package database

// schemaStatements defines the advisory engine schema. The first four tables
// are inputs materialized by the surrounding sync layer; the rest are owned
// and written by this engine.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS securities (
		symbol TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1
	)`,

	`CREATE TABLE IF NOT EXISTS positions (
		portfolio_id INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		quantity REAL NOT NULL,
		average_cost REAL NOT NULL,
		PRIMARY KEY (portfolio_id, symbol)
	)`,

	`CREATE TABLE IF NOT EXISTS prices (
		symbol TEXT NOT NULL,
		date TEXT NOT NULL,
		close REAL NOT NULL,
		volume INTEGER,
		PRIMARY KEY (symbol, date)
	)`,

	`CREATE TABLE IF NOT EXISTS news_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		title TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		sentiment_score REAL,
		published_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_news_items_symbol_published
		ON news_items (symbol, published_at DESC)`,

	// Risk scores are append-only: one row per portfolio/symbol/date,
	// never updated after insert. Portfolio-level rows store an empty
	// symbol so the UNIQUE constraint still dedupes them per day.
	`CREATE TABLE IF NOT EXISTS risk_scores (
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

	`CREATE TABLE IF NOT EXISTS advisory_profiles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		portfolio_id INTEGER NOT NULL UNIQUE,
		risk_tolerance TEXT NOT NULL DEFAULT 'moderate',
		investment_horizon INTEGER NOT NULL DEFAULT 5,
		rebalance_threshold REAL NOT NULL DEFAULT 5.0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS target_allocations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		profile_id INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		target_weight REAL NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE (profile_id, symbol)
	)`,

	`CREATE TABLE IF NOT EXISTS recommendations (
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
	)`,
	`CREATE INDEX IF NOT EXISTS idx_recommendations_portfolio_status
		ON recommendations (portfolio_id, status)`,

	`CREATE TABLE IF NOT EXISTS paper_trades (
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
	)`,
	`CREATE INDEX IF NOT EXISTS idx_paper_trades_portfolio
		ON paper_trades (portfolio_id)`,
	`CREATE INDEX IF NOT EXISTS idx_paper_trades_status
		ON paper_trades (status)`,
}
