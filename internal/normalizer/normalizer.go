// Package normalizer reduces many competing per-book quotes for an event
// into one best-price fact per side.
package normalizer

import (
	"context"
	"fmt"
	"sort"

	"github.com/vjeyam/sports-odds-pipeline/internal/db"
	"github.com/vjeyam/sports-odds-pipeline/pkg/models"
	"github.com/vjeyam/sports-odds-pipeline/pkg/oddsmath"
)

// Normalizer persists the best available price per event per side
type Normalizer struct {
	store *db.Store
}

// New creates a normalizer over the store
func New(store *db.Store) *Normalizer {
	return &Normalizer{store: store}
}

// Rebuild scans the raw quote log, selects the best price per event per
// side, and upserts the facts. The store's guard predicate keeps recorded
// prices monotonic, so replays and reorderings converge on the same state.
func (n *Normalizer) Rebuild(ctx context.Context) (int, error) {
	quotes, err := n.store.ListQuotes(ctx)
	if err != nil {
		return 0, fmt.Errorf("list quotes: %w", err)
	}

	facts, skipped := SelectBest(quotes)
	if skipped > 0 {
		fmt.Printf("[Normalizer] skipped %d malformed quotes\n", skipped)
	}

	if len(facts) == 0 {
		return 0, nil
	}

	if err := n.store.UpsertBestPrices(ctx, facts); err != nil {
		return 0, fmt.Errorf("upsert best prices: %w", err)
	}

	return len(facts), nil
}

// SelectBest picks the most favorable quote per event per side.
//
// Comparing decimal payout multipliers unifies the side-dependent American
// rule into one comparison: favorites are best when least negative,
// underdogs when largest positive, and both are exactly "highest
// multiplier". Ties go to the most recent observation. Quotes with a zero
// or non-finite price are counted as skipped.
func SelectBest(quotes []models.RawQuote) ([]models.BestPriceFact, int) {
	type key struct {
		eventID string
		side    models.Side
	}

	best := make(map[key]models.BestPriceFact)
	skipped := 0

	for _, q := range quotes {
		if !q.Side.Valid() || !oddsmath.ValidPrice(float64(q.PriceAmerican)) {
			skipped++
			continue
		}

		multiplier, err := oddsmath.AmericanToDecimal(q.PriceAmerican)
		if err != nil {
			skipped++
			continue
		}

		k := key{eventID: q.MarketEventID, side: q.Side}
		candidate := models.BestPriceFact{
			MarketEventID:    q.MarketEventID,
			Side:             q.Side,
			PriceAmerican:    q.PriceAmerican,
			PayoutMultiplier: multiplier,
			BookKey:          q.BookKey,
			ObservedAt:       q.ObservedAt,
		}

		current, exists := best[k]
		if !exists || betterThan(candidate, current) {
			best[k] = candidate
		}
	}

	facts := make([]models.BestPriceFact, 0, len(best))
	for _, f := range best {
		facts = append(facts, f)
	}

	// Deterministic output order regardless of map iteration
	sort.Slice(facts, func(i, j int) bool {
		if facts[i].MarketEventID != facts[j].MarketEventID {
			return facts[i].MarketEventID < facts[j].MarketEventID
		}
		return facts[i].Side < facts[j].Side
	})

	return facts, skipped
}

// betterThan reports whether a should replace b as the recorded best
func betterThan(a, b models.BestPriceFact) bool {
	if a.PayoutMultiplier != b.PayoutMultiplier {
		return a.PayoutMultiplier > b.PayoutMultiplier
	}
	return a.ObservedAt.After(b.ObservedAt)
}
