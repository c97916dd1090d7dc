package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vjeyam/sports-odds-pipeline/pkg/models"
)

// InsertQuoteBatch persists one drained batch of raw quotes and the market
// events they describe, in a single transaction. Replayed quotes hit the
// primary key and are ignored, so re-running the stage is a no-op.
func (s *Store) InsertQuoteBatch(ctx context.Context, events []models.MarketEvent, quotes []models.RawQuote) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		eventQuery := `
			INSERT INTO market_events (
				market_event_id, sport_key, home_team, away_team,
				commence_time, discovered_at, last_seen_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (market_event_id) DO UPDATE SET
				home_team = EXCLUDED.home_team,
				away_team = EXCLUDED.away_team,
				commence_time = EXCLUDED.commence_time,
				last_seen_at = EXCLUDED.last_seen_at
		`

		for _, e := range events {
			_, err := tx.ExecContext(ctx, eventQuery,
				e.MarketEventID, e.SportKey, e.HomeTeam, e.AwayTeam,
				e.CommenceTime, e.DiscoveredAt, e.LastSeenAt,
			)
			if err != nil {
				return fmt.Errorf("upsert market event %s: %w", e.MarketEventID, err)
			}
		}

		quoteQuery := `
			INSERT INTO raw_moneyline_quotes (
				snapshot_ts, market_event_id, book_key, book_title,
				side, price_american, observed_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (snapshot_ts, market_event_id, book_key, side) DO NOTHING
		`

		for _, q := range quotes {
			_, err := tx.ExecContext(ctx, quoteQuery,
				q.SnapshotTS, q.MarketEventID, q.BookKey, q.BookTitle,
				string(q.Side), q.PriceAmerican, q.ObservedAt,
			)
			if err != nil {
				return fmt.Errorf("insert quote %s/%s/%s: %w", q.MarketEventID, q.BookKey, q.Side, err)
			}
		}

		return nil
	})
}

// ListQuotes retrieves all raw quotes ordered by event then observation time
func (s *Store) ListQuotes(ctx context.Context) ([]models.RawQuote, error) {
	query := `
		SELECT snapshot_ts, market_event_id, book_key, COALESCE(book_title, ''),
		       side, price_american, observed_at
		FROM raw_moneyline_quotes
		ORDER BY market_event_id, observed_at
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	var quotes []models.RawQuote
	for rows.Next() {
		var q models.RawQuote
		var side string
		if err := rows.Scan(
			&q.SnapshotTS, &q.MarketEventID, &q.BookKey, &q.BookTitle,
			&side, &q.PriceAmerican, &q.ObservedAt,
		); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		q.Side = models.Side(side)
		quotes = append(quotes, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}

	return quotes, nil
}

// ListMarketEvents retrieves all market events ordered by commence time
func (s *Store) ListMarketEvents(ctx context.Context) ([]models.MarketEvent, error) {
	query := `
		SELECT market_event_id, sport_key, home_team, away_team,
		       commence_time, discovered_at, last_seen_at
		FROM market_events
		ORDER BY commence_time, market_event_id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query market events: %w", err)
	}
	defer rows.Close()

	var events []models.MarketEvent
	for rows.Next() {
		var e models.MarketEvent
		if err := rows.Scan(
			&e.MarketEventID, &e.SportKey, &e.HomeTeam, &e.AwayTeam,
			&e.CommenceTime, &e.DiscoveredAt, &e.LastSeenAt,
		); err != nil {
			return nil, fmt.Errorf("scan market event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate market events: %w", err)
	}

	return events, nil
}

// ClosingQuote is each book's latest pre-kickoff two-sided quote for a game
type ClosingQuote struct {
	MarketEventID string
	BookKey       string
	HomePrice     int
	AwayPrice     int
	SnapshotTS    time.Time
}

// ListClosingQuotes pairs each book's latest pre-kickoff home and away
// prices per event, for the book-margin summary
func (s *Store) ListClosingQuotes(ctx context.Context) ([]ClosingQuote, error) {
	query := `
		WITH latest AS (
			SELECT q.market_event_id, q.book_key, MAX(q.snapshot_ts) AS snapshot_ts
			FROM raw_moneyline_quotes q
			JOIN market_events e ON e.market_event_id = q.market_event_id
			WHERE q.snapshot_ts <= e.commence_time
			GROUP BY q.market_event_id, q.book_key
		)
		SELECT
			q.market_event_id,
			q.book_key,
			MAX(CASE WHEN q.side = 'home' THEN q.price_american END) AS home_price,
			MAX(CASE WHEN q.side = 'away' THEN q.price_american END) AS away_price,
			q.snapshot_ts
		FROM raw_moneyline_quotes q
		JOIN latest l
		  ON q.market_event_id = l.market_event_id
		 AND q.book_key = l.book_key
		 AND q.snapshot_ts = l.snapshot_ts
		GROUP BY q.market_event_id, q.book_key, q.snapshot_ts
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query closing quotes: %w", err)
	}
	defer rows.Close()

	var out []ClosingQuote
	for rows.Next() {
		var c ClosingQuote
		var home, away sql.NullInt64
		if err := rows.Scan(&c.MarketEventID, &c.BookKey, &home, &away, &c.SnapshotTS); err != nil {
			return nil, fmt.Errorf("scan closing quote: %w", err)
		}
		// One-sided quotes cannot contribute an overround
		if !home.Valid || !away.Valid {
			continue
		}
		c.HomePrice = int(home.Int64)
		c.AwayPrice = int(away.Int64)
		out = append(out, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate closing quotes: %w", err)
	}

	return out, nil
}
