package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vjeyam/sports-odds-pipeline/pkg/models"
)

// UpsertBestPrices persists normalized best-price facts in one transaction.
// The guard predicate keeps the stored multiplier monotonic: a worse
// observation never evicts a previously recorded better price.
func (s *Store) UpsertBestPrices(ctx context.Context, facts []models.BestPriceFact) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO best_price_facts (
				market_event_id, side, price_american,
				payout_multiplier, book_key, observed_at
			) VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (market_event_id, side) DO UPDATE SET
				price_american = EXCLUDED.price_american,
				payout_multiplier = EXCLUDED.payout_multiplier,
				book_key = EXCLUDED.book_key,
				observed_at = EXCLUDED.observed_at
			WHERE EXCLUDED.payout_multiplier > best_price_facts.payout_multiplier
		`

		for _, f := range facts {
			_, err := tx.ExecContext(ctx, query,
				f.MarketEventID, string(f.Side), f.PriceAmerican,
				f.PayoutMultiplier, f.BookKey, f.ObservedAt,
			)
			if err != nil {
				return fmt.Errorf("upsert best price %s/%s: %w", f.MarketEventID, f.Side, err)
			}
		}

		return nil
	})
}

// ListBestPrices retrieves all best-price facts
func (s *Store) ListBestPrices(ctx context.Context) ([]models.BestPriceFact, error) {
	query := `
		SELECT market_event_id, side, price_american,
		       payout_multiplier, book_key, observed_at
		FROM best_price_facts
		ORDER BY market_event_id, side
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query best prices: %w", err)
	}
	defer rows.Close()

	var facts []models.BestPriceFact
	for rows.Next() {
		var f models.BestPriceFact
		var side string
		if err := rows.Scan(
			&f.MarketEventID, &side, &f.PriceAmerican,
			&f.PayoutMultiplier, &f.BookKey, &f.ObservedAt,
		); err != nil {
			return nil, fmt.Errorf("scan best price: %w", err)
		}
		f.Side = models.Side(side)
		facts = append(facts, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate best prices: %w", err)
	}

	return facts, nil
}
