package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Connect opens a postgres connection pool and verifies it
func Connect(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate creates the schema if it does not exist
func Migrate(db *sql.DB) error {
	migrations := []string{
		// Raw quote log: one row per (snapshot, event, book, side).
		// Superseded quotes are retained for audit, never deleted.
		`CREATE TABLE IF NOT EXISTS raw_moneyline_quotes (
			snapshot_ts TIMESTAMPTZ NOT NULL,
			market_event_id VARCHAR(100) NOT NULL,
			book_key VARCHAR(50) NOT NULL,
			book_title VARCHAR(100),
			side VARCHAR(4) NOT NULL,
			price_american INTEGER NOT NULL,
			observed_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (snapshot_ts, market_event_id, book_key, side)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_raw_quotes_event ON raw_moneyline_quotes(market_event_id)`,

		`CREATE TABLE IF NOT EXISTS market_events (
			market_event_id VARCHAR(100) PRIMARY KEY,
			sport_key VARCHAR(50) NOT NULL,
			home_team VARCHAR(100) NOT NULL,
			away_team VARCHAR(100) NOT NULL,
			commence_time TIMESTAMPTZ NOT NULL,
			discovered_at TIMESTAMPTZ NOT NULL,
			last_seen_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_market_events_commence ON market_events(commence_time)`,

		// Best price seen so far per event per side (monotonic upsert)
		`CREATE TABLE IF NOT EXISTS best_price_facts (
			market_event_id VARCHAR(100) NOT NULL,
			side VARCHAR(4) NOT NULL,
			price_american INTEGER NOT NULL,
			payout_multiplier DOUBLE PRECISION NOT NULL,
			book_key VARCHAR(50) NOT NULL,
			observed_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (market_event_id, side)
		)`,

		`CREATE TABLE IF NOT EXISTS raw_game_results (
			results_event_id VARCHAR(100) PRIMARY KEY,
			league VARCHAR(20) NOT NULL,
			home_team VARCHAR(100) NOT NULL,
			away_team VARCHAR(100) NOT NULL,
			start_time TIMESTAMPTZ NOT NULL,
			home_score INTEGER,
			away_score INTEGER,
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			in_progress BOOLEAN NOT NULL DEFAULT FALSE,
			pulled_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_raw_results_start ON raw_game_results(start_time)`,

		// Cross-reference between the two event streams.
		// UNIQUE on both columns keeps the mapping injective both ways.
		`CREATE TABLE IF NOT EXISTS game_id_links (
			market_event_id VARCHAR(100) PRIMARY KEY,
			results_event_id VARCHAR(100) UNIQUE NOT NULL,
			match_method VARCHAR(30) NOT NULL,
			matched_at TIMESTAMPTZ NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS reconciled_games (
			market_event_id VARCHAR(100) PRIMARY KEY,
			results_event_id VARCHAR(100) NOT NULL,
			commence_time TIMESTAMPTZ NOT NULL,
			home_team VARCHAR(100) NOT NULL,
			away_team VARCHAR(100) NOT NULL,
			best_home_price INTEGER,
			best_home_book VARCHAR(50),
			best_home_multiplier DOUBLE PRECISION,
			best_away_price INTEGER,
			best_away_book VARCHAR(50),
			best_away_multiplier DOUBLE PRECISION,
			home_score INTEGER,
			away_score INTEGER,
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			winner VARCHAR(4),
			favorite_side VARCHAR(4),
			underdog_side VARCHAR(4),
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reconciled_commence ON reconciled_games(commence_time)`,

		`CREATE TABLE IF NOT EXISTS pipeline_runs (
			run_id VARCHAR(36) PRIMARY KEY,
			state VARCHAR(20) NOT NULL,
			current_stage VARCHAR(50),
			failed_stage VARCHAR(50),
			stages_json TEXT,
			error_text TEXT,
			trigger_kind VARCHAR(20) NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pipeline_runs_started ON pipeline_runs(started_at)`,

		// Summary tables rebuilt wholesale by the analytics stage
		`CREATE TABLE IF NOT EXISTS calibration_favorite (
			bucket_label VARCHAR(20) PRIMARY KEY,
			bucket_lo DOUBLE PRECISION NOT NULL,
			bucket_hi DOUBLE PRECISION NOT NULL,
			n_games INTEGER NOT NULL,
			favorite_win_rate DOUBLE PRECISION NOT NULL,
			avg_implied_prob DOUBLE PRECISION NOT NULL,
			diff_actual_minus_implied DOUBLE PRECISION NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS book_margin_summary (
			book_key VARCHAR(50) PRIMARY KEY,
			n_games INTEGER NOT NULL,
			avg_overround DOUBLE PRECISION NOT NULL,
			median_overround DOUBLE PRECISION NOT NULL,
			min_overround DOUBLE PRECISION NOT NULL,
			max_overround DOUBLE PRECISION NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS best_price_frequency (
			book_key VARCHAR(50) PRIMARY KEY,
			best_home_count INTEGER NOT NULL,
			best_away_count INTEGER NOT NULL,
			best_total_count INTEGER NOT NULL,
			best_share DOUBLE PRECISION NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS dashboard_kpis (
			kpi_key VARCHAR(50) PRIMARY KEY,
			kpi_value VARCHAR(100) NOT NULL,
			computed_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
