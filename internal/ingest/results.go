package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vjeyam/sports-odds-pipeline/internal/db"
	"github.com/vjeyam/sports-odds-pipeline/pkg/models"
)

// ResultMessage is the wire format the results collector publishes
type ResultMessage struct {
	ResultsEventID string    `json:"results_event_id"`
	League         string    `json:"league"`
	HomeTeam       string    `json:"home_team"`
	AwayTeam       string    `json:"away_team"`
	StartTime      time.Time `json:"start_time"`
	HomeScore      *int      `json:"home_score"`
	AwayScore      *int      `json:"away_score"`
	Completed      bool      `json:"completed"`
	InProgress     bool      `json:"in_progress"`
	PulledAt       time.Time `json:"pulled_at"`
}

// ResultsIngestor drains the raw results stream into raw_game_results
type ResultsIngestor struct {
	consumer *StreamConsumer
	store    *db.Store
	stream   string
}

// NewResultsIngestor creates the results ingest stage worker
func NewResultsIngestor(consumer *StreamConsumer, store *db.Store, stream string) *ResultsIngestor {
	return &ResultsIngestor{consumer: consumer, store: store, stream: stream}
}

// Drain consumes the results stream until it is caught up. Later pulls of
// the same game supersede earlier ones through the upsert, so replays are
// harmless.
func (r *ResultsIngestor) Drain(ctx context.Context) (stored, skipped int, err error) {
	if err := r.consumer.EnsureGroup(ctx, r.stream); err != nil {
		return 0, 0, err
	}

	for {
		select {
		case <-ctx.Done():
			return stored, skipped, ctx.Err()
		default:
		}

		batch, err := r.consumer.ReadBatch(ctx, r.stream)
		if err != nil {
			return stored, skipped, err
		}
		if len(batch) == 0 {
			return stored, skipped, nil
		}

		n, bad, err := r.persistBatch(ctx, batch)
		if err != nil {
			return stored, skipped, err
		}
		stored += n
		skipped += bad
	}
}

func (r *ResultsIngestor) persistBatch(ctx context.Context, batch []RawMessage) (int, int, error) {
	// Keep only the latest pull per game within the batch
	latest := make(map[string]models.ResultRecord)
	order := make([]string, 0, len(batch))
	ids := make([]string, 0, len(batch))
	skipped := 0

	for _, msg := range batch {
		ids = append(ids, msg.ID)

		var rm ResultMessage
		if err := json.Unmarshal(msg.Data, &rm); err != nil {
			fmt.Printf("[Ingest] malformed result entry %s: %v\n", msg.ID, err)
			skipped++
			continue
		}
		if err := validateResult(rm); err != nil {
			fmt.Printf("[Ingest] rejected result entry %s: %v\n", msg.ID, err)
			skipped++
			continue
		}

		if prev, ok := latest[rm.ResultsEventID]; !ok {
			order = append(order, rm.ResultsEventID)
		} else if rm.PulledAt.Before(prev.PulledAt) {
			continue
		}
		latest[rm.ResultsEventID] = models.ResultRecord{
			ResultsEventID: rm.ResultsEventID,
			League:         rm.League,
			HomeTeam:       rm.HomeTeam,
			AwayTeam:       rm.AwayTeam,
			StartTime:      rm.StartTime,
			HomeScore:      rm.HomeScore,
			AwayScore:      rm.AwayScore,
			Completed:      rm.Completed,
			InProgress:     rm.InProgress,
			PulledAt:       rm.PulledAt,
		}
	}

	results := make([]models.ResultRecord, 0, len(order))
	for _, id := range order {
		results = append(results, latest[id])
	}

	if len(results) > 0 {
		if err := r.store.UpsertResults(ctx, results); err != nil {
			return 0, skipped, fmt.Errorf("persist results batch: %w", err)
		}
	}

	if err := r.consumer.AckAll(ctx, r.stream, ids); err != nil {
		return len(results), skipped, err
	}
	return len(results), skipped, nil
}

// validateResult rejects entries that cannot resolve to a game
func validateResult(rm ResultMessage) error {
	if rm.ResultsEventID == "" {
		return fmt.Errorf("missing results_event_id")
	}
	if rm.HomeTeam == "" || rm.AwayTeam == "" {
		return fmt.Errorf("missing team names")
	}
	if rm.StartTime.IsZero() {
		return fmt.Errorf("missing start_time")
	}
	if rm.Completed && (rm.HomeScore == nil || rm.AwayScore == nil) {
		return fmt.Errorf("completed game without scores")
	}
	return nil
}
