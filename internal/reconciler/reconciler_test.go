package reconciler_test

import (
	"math"
	"testing"
	"time"

	"github.com/vjeyam/sports-odds-pipeline/internal/reconciler"
	"github.com/vjeyam/sports-odds-pipeline/pkg/models"
)

func intPtr(v int) *int { return &v }

func fact(eventID string, side models.Side, price int, multiplier float64, book string) models.BestPriceFact {
	return models.BestPriceFact{
		MarketEventID:    eventID,
		Side:             side,
		PriceAmerican:    price,
		PayoutMultiplier: multiplier,
		BookKey:          book,
	}
}

func fixture() ([]models.IdentityLink, []models.MarketEvent, []models.BestPriceFact, []models.ResultRecord) {
	tip := time.Date(2025, 1, 16, 0, 30, 0, 0, time.UTC)

	links := []models.IdentityLink{
		{MarketEventID: "mkt1", ResultsEventID: "res1"},
	}
	events := []models.MarketEvent{
		{MarketEventID: "mkt1", HomeTeam: "New York Knicks", AwayTeam: "Boston Celtics", CommenceTime: tip},
	}
	facts := []models.BestPriceFact{
		fact("mkt1", models.SideHome, -140, 1.714285714, "book_b"),
		fact("mkt1", models.SideAway, 140, 2.4, "book_b"),
	}
	results := []models.ResultRecord{
		{ResultsEventID: "res1", HomeScore: intPtr(110), AwayScore: intPtr(104), Completed: true},
	}
	return links, events, facts, results
}

func TestJoinDerivesFavoriteAndWinner(t *testing.T) {
	links, events, facts, results := fixture()

	games := reconciler.Join(links, events, facts, results)
	if len(games) != 1 {
		t.Fatalf("got %d games, want 1", len(games))
	}
	g := games[0]

	if g.FavoriteSide == nil || *g.FavoriteSide != models.SideHome {
		t.Errorf("favorite = %v, want home (lower multiplier)", g.FavoriteSide)
	}
	if g.UnderdogSide == nil || *g.UnderdogSide != models.SideAway {
		t.Errorf("underdog = %v, want away", g.UnderdogSide)
	}
	if g.Winner == nil || *g.Winner != models.SideHome {
		t.Errorf("winner = %v, want home (110-104)", g.Winner)
	}
	if !g.Decided() {
		t.Error("completed game with a winner should be decided")
	}

	if g.BestHomePrice == nil || *g.BestHomePrice != -140 {
		t.Errorf("best home price = %v, want -140", g.BestHomePrice)
	}
	if math.Abs(g.BestHomeMultiplier-1.714285714) > 0.0001 {
		t.Errorf("best home multiplier = %f, want 1.7143", g.BestHomeMultiplier)
	}
	if g.BestAwayPrice == nil || *g.BestAwayPrice != 140 {
		t.Errorf("best away price = %v, want +140", g.BestAwayPrice)
	}
}

func TestJoinFavoriteAndUnderdogOppose(t *testing.T) {
	links, events, facts, results := fixture()

	games := reconciler.Join(links, events, facts, results)
	g := games[0]

	if g.FavoriteSide == nil || g.UnderdogSide == nil {
		t.Fatal("both sides priced, favorite and underdog should be set")
	}
	if *g.FavoriteSide == *g.UnderdogSide {
		t.Error("favorite and underdog must be opposite sides")
	}
	if g.FavoriteSide.Opposite() != *g.UnderdogSide {
		t.Errorf("underdog = %s, want opposite of favorite %s", *g.UnderdogSide, *g.FavoriteSide)
	}
}

func TestJoinEqualMultipliersNoFavorite(t *testing.T) {
	links, events, _, results := fixture()
	facts := []models.BestPriceFact{
		fact("mkt1", models.SideHome, -110, 1.909090909, "book_a"),
		fact("mkt1", models.SideAway, -110, 1.909090909, "book_a"),
	}

	games := reconciler.Join(links, events, facts, results)
	g := games[0]

	if g.FavoriteSide != nil || g.UnderdogSide != nil {
		t.Errorf("equal multipliers should leave favorite nil, got fav=%v dog=%v",
			g.FavoriteSide, g.UnderdogSide)
	}
}

func TestJoinOneSidedPricingNoFavorite(t *testing.T) {
	links, events, _, results := fixture()
	facts := []models.BestPriceFact{
		fact("mkt1", models.SideHome, -140, 1.714285714, "book_b"),
	}

	games := reconciler.Join(links, events, facts, results)
	if len(games) != 1 {
		t.Fatalf("got %d games, want 1", len(games))
	}
	g := games[0]

	if g.FavoriteSide != nil {
		t.Error("one-sided pricing should leave favorite nil")
	}
	if g.BestAwayPrice != nil {
		t.Error("missing away side should stay nil")
	}
}

func TestJoinTieScoreIsPush(t *testing.T) {
	links, events, facts, _ := fixture()
	results := []models.ResultRecord{
		{ResultsEventID: "res1", HomeScore: intPtr(100), AwayScore: intPtr(100), Completed: true},
	}

	games := reconciler.Join(links, events, facts, results)
	g := games[0]

	if g.Winner != nil {
		t.Errorf("tie score should have nil winner, got %v", *g.Winner)
	}
	if g.Decided() {
		t.Error("a push is not a decided game")
	}
	if !g.Completed {
		t.Error("a push is still a completed game")
	}
}

func TestJoinIncompleteResultNoWinner(t *testing.T) {
	links, events, facts, _ := fixture()
	results := []models.ResultRecord{
		{ResultsEventID: "res1", HomeScore: intPtr(55), AwayScore: intPtr(60), Completed: false, InProgress: true},
	}

	games := reconciler.Join(links, events, facts, results)
	g := games[0]

	if g.Winner != nil {
		t.Errorf("in-progress game should have nil winner, got %v", *g.Winner)
	}
}

func TestJoinSkipsLinksWithoutPricesOrRows(t *testing.T) {
	links, events, facts, results := fixture()

	// A link with no facts at all
	links = append(links, models.IdentityLink{MarketEventID: "mkt2", ResultsEventID: "res2"})
	events = append(events, models.MarketEvent{MarketEventID: "mkt2", HomeTeam: "A", AwayTeam: "B"})
	results = append(results, models.ResultRecord{ResultsEventID: "res2"})

	// A link whose event row is missing entirely
	links = append(links, models.IdentityLink{MarketEventID: "mkt3", ResultsEventID: "res3"})

	games := reconciler.Join(links, events, facts, results)
	if len(games) != 1 {
		t.Errorf("got %d games, want 1 (unpriced and dangling links skipped)", len(games))
	}
}
