package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vjeyam/sports-odds-pipeline/internal/db"
	"github.com/vjeyam/sports-odds-pipeline/pkg/models"
	"github.com/vjeyam/sports-odds-pipeline/pkg/oddsmath"
)

// QuoteMessage is the wire format the odds collector publishes, one entry
// per book/side observation inside a snapshot
type QuoteMessage struct {
	SnapshotTS    time.Time `json:"snapshot_ts"`
	MarketEventID string    `json:"market_event_id"`
	SportKey      string    `json:"sport_key"`
	HomeTeam      string    `json:"home_team"`
	AwayTeam      string    `json:"away_team"`
	CommenceTime  time.Time `json:"commence_time"`
	BookKey       string    `json:"book_key"`
	BookTitle     string    `json:"book_title"`
	Side          string    `json:"side"`
	PriceAmerican int       `json:"price_american"`
	ObservedAt    time.Time `json:"observed_at"`
}

// OddsIngestor drains the raw odds stream into raw_moneyline_quotes and
// market_events
type OddsIngestor struct {
	consumer *StreamConsumer
	store    *db.Store
	stream   string
}

// NewOddsIngestor creates the odds ingest stage worker
func NewOddsIngestor(consumer *StreamConsumer, store *db.Store, stream string) *OddsIngestor {
	return &OddsIngestor{consumer: consumer, store: store, stream: stream}
}

// Drain consumes the odds stream until it is caught up. Each batch is
// persisted in one transaction before its entries are acknowledged, so a
// crash between commit and ack replays the batch onto conflict-ignoring
// inserts. Returns quotes stored and malformed entries skipped.
func (o *OddsIngestor) Drain(ctx context.Context) (stored, skipped int, err error) {
	if err := o.consumer.EnsureGroup(ctx, o.stream); err != nil {
		return 0, 0, err
	}

	for {
		select {
		case <-ctx.Done():
			return stored, skipped, ctx.Err()
		default:
		}

		batch, err := o.consumer.ReadBatch(ctx, o.stream)
		if err != nil {
			return stored, skipped, err
		}
		if len(batch) == 0 {
			return stored, skipped, nil
		}

		n, bad, err := o.persistBatch(ctx, batch)
		if err != nil {
			return stored, skipped, err
		}
		stored += n
		skipped += bad
	}
}

// persistBatch decodes one batch, stores the valid quotes, then acks every
// entry. Malformed entries are acked too; they would never parse on retry.
func (o *OddsIngestor) persistBatch(ctx context.Context, batch []RawMessage) (int, int, error) {
	var quotes []models.RawQuote
	eventSeen := make(map[string]bool)
	var events []models.MarketEvent
	ids := make([]string, 0, len(batch))
	skipped := 0

	for _, msg := range batch {
		ids = append(ids, msg.ID)

		var qm QuoteMessage
		if err := json.Unmarshal(msg.Data, &qm); err != nil {
			fmt.Printf("[Ingest] malformed odds entry %s: %v\n", msg.ID, err)
			skipped++
			continue
		}
		if err := validateQuote(qm); err != nil {
			fmt.Printf("[Ingest] rejected odds entry %s: %v\n", msg.ID, err)
			skipped++
			continue
		}

		quotes = append(quotes, models.RawQuote{
			SnapshotTS:    qm.SnapshotTS,
			MarketEventID: qm.MarketEventID,
			BookKey:       qm.BookKey,
			BookTitle:     qm.BookTitle,
			Side:          models.Side(qm.Side),
			PriceAmerican: qm.PriceAmerican,
			ObservedAt:    qm.ObservedAt,
		})

		if !eventSeen[qm.MarketEventID] {
			eventSeen[qm.MarketEventID] = true
			events = append(events, models.MarketEvent{
				MarketEventID: qm.MarketEventID,
				SportKey:      qm.SportKey,
				HomeTeam:      qm.HomeTeam,
				AwayTeam:      qm.AwayTeam,
				CommenceTime:  qm.CommenceTime,
				DiscoveredAt:  qm.ObservedAt,
				LastSeenAt:    qm.ObservedAt,
			})
		}
	}

	if len(quotes) > 0 {
		if err := o.store.InsertQuoteBatch(ctx, events, quotes); err != nil {
			return 0, skipped, fmt.Errorf("persist odds batch: %w", err)
		}
	}

	if err := o.consumer.AckAll(ctx, o.stream, ids); err != nil {
		return len(quotes), skipped, err
	}
	return len(quotes), skipped, nil
}

// validateQuote rejects entries that cannot become a fact row
func validateQuote(qm QuoteMessage) error {
	if qm.MarketEventID == "" {
		return fmt.Errorf("missing market_event_id")
	}
	if qm.BookKey == "" {
		return fmt.Errorf("missing book_key")
	}
	if !models.Side(qm.Side).Valid() {
		return fmt.Errorf("unknown side %q", qm.Side)
	}
	if !oddsmath.ValidPrice(float64(qm.PriceAmerican)) {
		return fmt.Errorf("invalid price %d", qm.PriceAmerican)
	}
	if qm.HomeTeam == "" || qm.AwayTeam == "" {
		return fmt.Errorf("missing team names")
	}
	if qm.CommenceTime.IsZero() || qm.ObservedAt.IsZero() {
		return fmt.Errorf("missing timestamps")
	}
	return nil
}
