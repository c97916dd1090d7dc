// Package reconciler joins best-price facts with resolved results into one
// fact row per linked event.
package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/vjeyam/sports-odds-pipeline/internal/db"
	"github.com/vjeyam/sports-odds-pipeline/pkg/models"
)

// Reconciler builds the joined fact table
type Reconciler struct {
	store *db.Store
}

// New creates a reconciler over the store
func New(store *db.Store) *Reconciler {
	return &Reconciler{store: store}
}

// Rebuild joins links, best prices, and results into reconciled games and
// upserts them keyed by market event identity. Rows are superseded in
// place as scores and prices evolve; nothing is deleted.
func (r *Reconciler) Rebuild(ctx context.Context) (int, error) {
	links, err := r.store.ListLinks(ctx)
	if err != nil {
		return 0, fmt.Errorf("list links: %w", err)
	}

	events, err := r.store.ListMarketEvents(ctx)
	if err != nil {
		return 0, fmt.Errorf("list market events: %w", err)
	}

	facts, err := r.store.ListBestPrices(ctx)
	if err != nil {
		return 0, fmt.Errorf("list best prices: %w", err)
	}

	results, err := r.store.ListResults(ctx)
	if err != nil {
		return 0, fmt.Errorf("list results: %w", err)
	}

	games := Join(links, events, facts, results)
	if len(games) == 0 {
		return 0, nil
	}

	if err := r.store.UpsertReconciledGames(ctx, games); err != nil {
		return 0, fmt.Errorf("upsert reconciled games: %w", err)
	}

	return len(games), nil
}

// Join produces one ReconciledGame per identity link that has at least one
// recorded best price. Derivations:
//   - favorite is the side with the LOWER payout multiplier (the side the
//     market considers more likely); equal multipliers mean no favorite
//   - winner comes from the final score once the result is completed;
//     equal scores leave winner nil and the game is treated as a push
func Join(
	links []models.IdentityLink,
	events []models.MarketEvent,
	facts []models.BestPriceFact,
	results []models.ResultRecord,
) []models.ReconciledGame {
	eventByID := make(map[string]models.MarketEvent, len(events))
	for _, e := range events {
		eventByID[e.MarketEventID] = e
	}

	resultByID := make(map[string]models.ResultRecord, len(results))
	for _, r := range results {
		resultByID[r.ResultsEventID] = r
	}

	type sidePair struct {
		home, away *models.BestPriceFact
	}
	factsByEvent := make(map[string]sidePair)
	for i := range facts {
		f := facts[i]
		pair := factsByEvent[f.MarketEventID]
		if f.Side == models.SideHome {
			pair.home = &f
		} else {
			pair.away = &f
		}
		factsByEvent[f.MarketEventID] = pair
	}

	now := time.Now().UTC()
	var games []models.ReconciledGame

	for _, link := range links {
		event, ok := eventByID[link.MarketEventID]
		if !ok {
			continue
		}
		result, ok := resultByID[link.ResultsEventID]
		if !ok {
			continue
		}

		pair := factsByEvent[link.MarketEventID]
		if pair.home == nil && pair.away == nil {
			// A link without any price yet produces no fact row
			continue
		}

		g := models.ReconciledGame{
			MarketEventID:  link.MarketEventID,
			ResultsEventID: link.ResultsEventID,
			CommenceTime:   event.CommenceTime,
			HomeTeam:       event.HomeTeam,
			AwayTeam:       event.AwayTeam,
			HomeScore:      result.HomeScore,
			AwayScore:      result.AwayScore,
			Completed:      result.Completed,
			UpdatedAt:      now,
		}

		if pair.home != nil {
			price := pair.home.PriceAmerican
			g.BestHomePrice = &price
			g.BestHomeBook = pair.home.BookKey
			g.BestHomeMultiplier = pair.home.PayoutMultiplier
		}
		if pair.away != nil {
			price := pair.away.PriceAmerican
			g.BestAwayPrice = &price
			g.BestAwayBook = pair.away.BookKey
			g.BestAwayMultiplier = pair.away.PayoutMultiplier
		}

		g.FavoriteSide, g.UnderdogSide = favoriteSide(pair.home, pair.away)
		g.Winner = winner(result)

		games = append(games, g)
	}

	return games
}

// favoriteSide derives favorite/underdog from the two payout multipliers.
// Both sides must be priced; a tie means no favorite.
func favoriteSide(home, away *models.BestPriceFact) (*models.Side, *models.Side) {
	if home == nil || away == nil {
		return nil, nil
	}
	if home.PayoutMultiplier == away.PayoutMultiplier {
		return nil, nil
	}

	fav := models.SideAway
	if home.PayoutMultiplier < away.PayoutMultiplier {
		fav = models.SideHome
	}
	dog := fav.Opposite()
	return &fav, &dog
}

// winner reads the final score once the game is complete. A scoreless tie
// should not occur on a moneyline sport but yields a nil winner (push).
func winner(result models.ResultRecord) *models.Side {
	if !result.Completed || result.HomeScore == nil || result.AwayScore == nil {
		return nil
	}

	switch {
	case *result.HomeScore > *result.AwayScore:
		side := models.SideHome
		return &side
	case *result.AwayScore > *result.HomeScore:
		side := models.SideAway
		return &side
	default:
		return nil
	}
}
