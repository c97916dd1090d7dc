package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/vjeyam/sports-odds-pipeline/pkg/models"
)

// SaveRun inserts or refreshes a pipeline run record
func (s *Store) SaveRun(ctx context.Context, run models.PipelineRun) error {
	stagesJSON, err := json.Marshal(run.Stages)
	if err != nil {
		return fmt.Errorf("marshal stages: %w", err)
	}

	query := `
		INSERT INTO pipeline_runs (
			run_id, state, current_stage, failed_stage, stages_json,
			error_text, trigger_kind, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (run_id) DO UPDATE SET
			state = EXCLUDED.state,
			current_stage = EXCLUDED.current_stage,
			failed_stage = EXCLUDED.failed_stage,
			stages_json = EXCLUDED.stages_json,
			error_text = EXCLUDED.error_text,
			finished_at = EXCLUDED.finished_at
	`

	_, err = s.db.ExecContext(ctx, query,
		run.RunID, string(run.State), run.CurrentStage, run.FailedStage,
		string(stagesJSON), run.Error, run.Trigger, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.RunID, err)
	}

	return nil
}

// GetRun retrieves one run by id, or nil if unknown
func (s *Store) GetRun(ctx context.Context, runID string) (*models.PipelineRun, error) {
	query := `
		SELECT run_id, state, COALESCE(current_stage, ''), COALESCE(failed_stage, ''),
		       COALESCE(stages_json, '[]'), COALESCE(error_text, ''),
		       trigger_kind, started_at, finished_at
		FROM pipeline_runs
		WHERE run_id = $1
	`

	run, err := scanRun(s.db.QueryRowContext(ctx, query, runID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}

	return run, nil
}

// ListRuns retrieves recent runs, newest first
func (s *Store) ListRuns(ctx context.Context, limit int) ([]models.PipelineRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT run_id, state, COALESCE(current_stage, ''), COALESCE(failed_stage, ''),
		       COALESCE(stages_json, '[]'), COALESCE(error_text, ''),
		       trigger_kind, started_at, finished_at
		FROM pipeline_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []models.PipelineRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*models.PipelineRun, error) {
	var run models.PipelineRun
	var state, stagesJSON string
	if err := row.Scan(
		&run.RunID, &state, &run.CurrentStage, &run.FailedStage,
		&stagesJSON, &run.Error, &run.Trigger, &run.StartedAt, &run.FinishedAt,
	); err != nil {
		return nil, err
	}

	run.State = models.RunState(state)
	if err := json.Unmarshal([]byte(stagesJSON), &run.Stages); err != nil {
		return nil, fmt.Errorf("unmarshal stages: %w", err)
	}

	return &run, nil
}
