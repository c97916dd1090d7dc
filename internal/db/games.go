package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vjeyam/sports-odds-pipeline/pkg/models"
)

// UpsertReconciledGames persists joined fact rows in one transaction.
// Rows are keyed by market event identity and superseded in place as
// scores and prices evolve; they are never deleted.
func (s *Store) UpsertReconciledGames(ctx context.Context, games []models.ReconciledGame) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO reconciled_games (
				market_event_id, results_event_id, commence_time, home_team, away_team,
				best_home_price, best_home_book, best_home_multiplier,
				best_away_price, best_away_book, best_away_multiplier,
				home_score, away_score, completed, winner,
				favorite_side, underdog_side, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
			ON CONFLICT (market_event_id) DO UPDATE SET
				results_event_id = EXCLUDED.results_event_id,
				commence_time = EXCLUDED.commence_time,
				home_team = EXCLUDED.home_team,
				away_team = EXCLUDED.away_team,
				best_home_price = EXCLUDED.best_home_price,
				best_home_book = EXCLUDED.best_home_book,
				best_home_multiplier = EXCLUDED.best_home_multiplier,
				best_away_price = EXCLUDED.best_away_price,
				best_away_book = EXCLUDED.best_away_book,
				best_away_multiplier = EXCLUDED.best_away_multiplier,
				home_score = EXCLUDED.home_score,
				away_score = EXCLUDED.away_score,
				completed = EXCLUDED.completed,
				winner = EXCLUDED.winner,
				favorite_side = EXCLUDED.favorite_side,
				underdog_side = EXCLUDED.underdog_side,
				updated_at = EXCLUDED.updated_at
		`

		for _, g := range games {
			_, err := tx.ExecContext(ctx, query,
				g.MarketEventID, g.ResultsEventID, g.CommenceTime, g.HomeTeam, g.AwayTeam,
				g.BestHomePrice, nullStr(g.BestHomeBook), nullFloat(g.BestHomeMultiplier),
				g.BestAwayPrice, nullStr(g.BestAwayBook), nullFloat(g.BestAwayMultiplier),
				g.HomeScore, g.AwayScore, g.Completed, sidePtr(g.Winner),
				sidePtr(g.FavoriteSide), sidePtr(g.UnderdogSide), g.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("upsert reconciled game %s: %w", g.MarketEventID, err)
			}
		}

		return nil
	})
}

// ListReconciledGames retrieves all joined rows in deterministic equity
// order: commence time ascending, market event id as the stable tie-break
func (s *Store) ListReconciledGames(ctx context.Context) ([]models.ReconciledGame, error) {
	query := `
		SELECT market_event_id, results_event_id, commence_time, home_team, away_team,
		       best_home_price, COALESCE(best_home_book, ''), COALESCE(best_home_multiplier, 0),
		       best_away_price, COALESCE(best_away_book, ''), COALESCE(best_away_multiplier, 0),
		       home_score, away_score, completed, winner,
		       favorite_side, underdog_side, updated_at
		FROM reconciled_games
		ORDER BY commence_time ASC, market_event_id ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query reconciled games: %w", err)
	}
	defer rows.Close()

	var games []models.ReconciledGame
	for rows.Next() {
		var g models.ReconciledGame
		var winner, fav, dog sql.NullString
		if err := rows.Scan(
			&g.MarketEventID, &g.ResultsEventID, &g.CommenceTime, &g.HomeTeam, &g.AwayTeam,
			&g.BestHomePrice, &g.BestHomeBook, &g.BestHomeMultiplier,
			&g.BestAwayPrice, &g.BestAwayBook, &g.BestAwayMultiplier,
			&g.HomeScore, &g.AwayScore, &g.Completed, &winner,
			&fav, &dog, &g.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan reconciled game: %w", err)
		}
		g.Winner = scanSide(winner)
		g.FavoriteSide = scanSide(fav)
		g.UnderdogSide = scanSide(dog)
		games = append(games, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reconciled games: %w", err)
	}

	return games, nil
}

func sidePtr(s *models.Side) interface{} {
	if s == nil {
		return nil
	}
	return string(*s)
}

func scanSide(ns sql.NullString) *models.Side {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	side := models.Side(ns.String)
	return &side
}

func nullStr(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(f float64) interface{} {
	if f == 0 {
		return nil
	}
	return f
}
