package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vjeyam/sports-odds-pipeline/pkg/models"
)

// UpsertLinks persists resolved identity links in one transaction. A
// re-resolved market event replaces its own link; the UNIQUE constraint on
// results_event_id rejects any write that would break injectivity.
func (s *Store) UpsertLinks(ctx context.Context, links []models.IdentityLink) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO game_id_links (
				market_event_id, results_event_id, match_method, matched_at
			) VALUES ($1, $2, $3, $4)
			ON CONFLICT (market_event_id) DO UPDATE SET
				results_event_id = EXCLUDED.results_event_id,
				match_method = EXCLUDED.match_method,
				matched_at = EXCLUDED.matched_at
		`

		for _, l := range links {
			_, err := tx.ExecContext(ctx, query,
				l.MarketEventID, l.ResultsEventID, l.MatchMethod, l.MatchedAt,
			)
			if err != nil {
				return fmt.Errorf("upsert link %s -> %s: %w", l.MarketEventID, l.ResultsEventID, err)
			}
		}

		return nil
	})
}

// ListLinks retrieves all identity links
func (s *Store) ListLinks(ctx context.Context) ([]models.IdentityLink, error) {
	query := `
		SELECT market_event_id, results_event_id, match_method, matched_at
		FROM game_id_links
		ORDER BY market_event_id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	var links []models.IdentityLink
	for rows.Next() {
		var l models.IdentityLink
		if err := rows.Scan(&l.MarketEventID, &l.ResultsEventID, &l.MatchMethod, &l.MatchedAt); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}

	return links, nil
}

// GetLink retrieves the link for a market event, or nil if unlinked
func (s *Store) GetLink(ctx context.Context, marketEventID string) (*models.IdentityLink, error) {
	query := `
		SELECT market_event_id, results_event_id, match_method, matched_at
		FROM game_id_links
		WHERE market_event_id = $1
	`

	var l models.IdentityLink
	err := s.db.QueryRowContext(ctx, query, marketEventID).Scan(
		&l.MarketEventID, &l.ResultsEventID, &l.MatchMethod, &l.MatchedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query link: %w", err)
	}

	return &l, nil
}
