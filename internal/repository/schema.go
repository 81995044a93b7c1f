package repository

// PostgresSchema creates the relational tables. Statements are idempotent.
var PostgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS portfolios (
		id         UUID PRIMARY KEY,
		user_id    TEXT NOT NULL UNIQUE,
		name       TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS holdings (
		id           BIGSERIAL PRIMARY KEY,
		portfolio_id UUID NOT NULL REFERENCES portfolios(id) ON DELETE CASCADE,
		symbol       TEXT NOT NULL,
		shares       DOUBLE PRECISION NOT NULL,
		cost_basis   DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS holdings_portfolio_idx ON holdings (portfolio_id)`,
	`CREATE TABLE IF NOT EXISTS alpha_signals (
		id           UUID PRIMARY KEY,
		user_id      TEXT NOT NULL,
		asset        TEXT NOT NULL,
		direction    TEXT NOT NULL,
		confidence   DOUBLE PRECISION NOT NULL,
		time_horizon TEXT NOT NULL,
		insight      TEXT NOT NULL,
		sources      INTEGER NOT NULL DEFAULT 0,
		category     TEXT NOT NULL,
		source       TEXT NOT NULL,
		provider     TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS alpha_signals_user_created_idx ON alpha_signals (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS signal_attributions (
		id           UUID PRIMARY KEY,
		signal_id    UUID NOT NULL REFERENCES alpha_signals(id) ON DELETE CASCADE,
		title        TEXT NOT NULL,
		url          TEXT NOT NULL,
		source_name  TEXT NOT NULL DEFAULT '',
		published_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS signal_attributions_signal_idx ON signal_attributions (signal_id)`,
}

// ClickHouseSchema creates the quote archive in the connection's database.
var ClickHouseSchema = []string{
	`CREATE TABLE IF NOT EXISTS quote_snapshots (
		ts             DateTime64(3, 'UTC'),
		symbol         LowCardinality(String),
		price          Float64,
		change         Float64,
		change_percent Float64,
		provider       LowCardinality(String),
		vendor         LowCardinality(String)
	) ENGINE = MergeTree
	ORDER BY (symbol, ts)
	TTL toDateTime(ts) + INTERVAL 30 DAY`,
}
