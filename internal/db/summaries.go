package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vjeyam/sports-odds-pipeline/pkg/models"
)

// ReplaceSummaries rebuilds all analytics summary tables wholesale in one
// transaction, so readers see either the old build or the new one.
func (s *Store) ReplaceSummaries(
	ctx context.Context,
	calibration []models.CalibrationBucket,
	margins []models.BookMargin,
	frequency []models.BestPriceFrequency,
	kpis map[string]string,
) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC()

		if _, err := tx.ExecContext(ctx, `DELETE FROM calibration_favorite`); err != nil {
			return fmt.Errorf("clear calibration: %w", err)
		}
		for _, b := range calibration {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO calibration_favorite (
					bucket_label, bucket_lo, bucket_hi, n_games,
					favorite_win_rate, avg_implied_prob, diff_actual_minus_implied
				) VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, b.Label, b.Lo, b.Hi, b.Games, b.FavoriteWinRate, b.AvgImpliedProb, b.Diff)
			if err != nil {
				return fmt.Errorf("insert calibration bucket %s: %w", b.Label, err)
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM book_margin_summary`); err != nil {
			return fmt.Errorf("clear book margins: %w", err)
		}
		for _, m := range margins {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO book_margin_summary (
					book_key, n_games, avg_overround, median_overround,
					min_overround, max_overround
				) VALUES ($1, $2, $3, $4, $5, $6)
			`, m.BookKey, m.Games, m.AvgOverround, m.MedianOverround, m.MinOverround, m.MaxOverround)
			if err != nil {
				return fmt.Errorf("insert book margin %s: %w", m.BookKey, err)
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM best_price_frequency`); err != nil {
			return fmt.Errorf("clear frequency: %w", err)
		}
		for _, f := range frequency {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO best_price_frequency (
					book_key, best_home_count, best_away_count, best_total_count, best_share
				) VALUES ($1, $2, $3, $4, $5)
			`, f.BookKey, f.BestHomeCount, f.BestAwayCount, f.BestTotal, f.BestShare)
			if err != nil {
				return fmt.Errorf("insert frequency %s: %w", f.BookKey, err)
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM dashboard_kpis`); err != nil {
			return fmt.Errorf("clear kpis: %w", err)
		}
		for key, value := range kpis {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO dashboard_kpis (kpi_key, kpi_value, computed_at)
				VALUES ($1, $2, $3)
			`, key, value, now)
			if err != nil {
				return fmt.Errorf("insert kpi %s: %w", key, err)
			}
		}

		return nil
	})
}

// ListCalibration retrieves calibration buckets ordered by lower bound
func (s *Store) ListCalibration(ctx context.Context) ([]models.CalibrationBucket, error) {
	query := `
		SELECT bucket_label, bucket_lo, bucket_hi, n_games,
		       favorite_win_rate, avg_implied_prob, diff_actual_minus_implied
		FROM calibration_favorite
		ORDER BY bucket_lo
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query calibration: %w", err)
	}
	defer rows.Close()

	var buckets []models.CalibrationBucket
	for rows.Next() {
		var b models.CalibrationBucket
		if err := rows.Scan(
			&b.Label, &b.Lo, &b.Hi, &b.Games,
			&b.FavoriteWinRate, &b.AvgImpliedProb, &b.Diff,
		); err != nil {
			return nil, fmt.Errorf("scan calibration bucket: %w", err)
		}
		buckets = append(buckets, b)
	}

	return buckets, rows.Err()
}

// ListBookMargins retrieves per-book overround summaries
func (s *Store) ListBookMargins(ctx context.Context) ([]models.BookMargin, error) {
	query := `
		SELECT book_key, n_games, avg_overround, median_overround,
		       min_overround, max_overround
		FROM book_margin_summary
		ORDER BY avg_overround
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query book margins: %w", err)
	}
	defer rows.Close()

	var margins []models.BookMargin
	for rows.Next() {
		var m models.BookMargin
		if err := rows.Scan(
			&m.BookKey, &m.Games, &m.AvgOverround, &m.MedianOverround,
			&m.MinOverround, &m.MaxOverround,
		); err != nil {
			return nil, fmt.Errorf("scan book margin: %w", err)
		}
		margins = append(margins, m)
	}

	return margins, rows.Err()
}

// ListBestPriceFrequency retrieves per-book best-price counts
func (s *Store) ListBestPriceFrequency(ctx context.Context) ([]models.BestPriceFrequency, error) {
	query := `
		SELECT book_key, best_home_count, best_away_count, best_total_count, best_share
		FROM best_price_frequency
		ORDER BY best_share DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query frequency: %w", err)
	}
	defer rows.Close()

	var freq []models.BestPriceFrequency
	for rows.Next() {
		var f models.BestPriceFrequency
		if err := rows.Scan(&f.BookKey, &f.BestHomeCount, &f.BestAwayCount, &f.BestTotal, &f.BestShare); err != nil {
			return nil, fmt.Errorf("scan frequency: %w", err)
		}
		freq = append(freq, f)
	}

	return freq, rows.Err()
}

// GetKPIs retrieves the dashboard KPI key/values
func (s *Store) GetKPIs(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kpi_key, kpi_value FROM dashboard_kpis`)
	if err != nil {
		return nil, fmt.Errorf("query kpis: %w", err)
	}
	defer rows.Close()

	kpis := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan kpi: %w", err)
		}
		kpis[k] = v
	}

	return kpis, rows.Err()
}
