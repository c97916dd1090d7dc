package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vjeyam/sports-odds-pipeline/pkg/models"
)

// UpsertResults persists one drained batch of result records in a single
// transaction. Scores and flags are refreshed on conflict so a late final
// score supersedes an in-progress snapshot.
func (s *Store) UpsertResults(ctx context.Context, results []models.ResultRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO raw_game_results (
				results_event_id, league, home_team, away_team, start_time,
				home_score, away_score, completed, in_progress, pulled_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (results_event_id) DO UPDATE SET
				home_score = EXCLUDED.home_score,
				away_score = EXCLUDED.away_score,
				completed = EXCLUDED.completed,
				in_progress = EXCLUDED.in_progress,
				pulled_at = EXCLUDED.pulled_at
		`

		for _, r := range results {
			_, err := tx.ExecContext(ctx, query,
				r.ResultsEventID, r.League, r.HomeTeam, r.AwayTeam, r.StartTime,
				r.HomeScore, r.AwayScore, r.Completed, r.InProgress, r.PulledAt,
			)
			if err != nil {
				return fmt.Errorf("upsert result %s: %w", r.ResultsEventID, err)
			}
		}

		return nil
	})
}

// ListResults retrieves all result records ordered by start time
func (s *Store) ListResults(ctx context.Context) ([]models.ResultRecord, error) {
	query := `
		SELECT results_event_id, league, home_team, away_team, start_time,
		       home_score, away_score, completed, in_progress, pulled_at
		FROM raw_game_results
		ORDER BY start_time, results_event_id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []models.ResultRecord
	for rows.Next() {
		var r models.ResultRecord
		if err := rows.Scan(
			&r.ResultsEventID, &r.League, &r.HomeTeam, &r.AwayTeam, &r.StartTime,
			&r.HomeScore, &r.AwayScore, &r.Completed, &r.InProgress, &r.PulledAt,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}

	return results, nil
}
