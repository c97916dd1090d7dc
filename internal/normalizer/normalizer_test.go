package normalizer_test

import (
	"math"
	"testing"
	"time"

	"github.com/vjeyam/sports-odds-pipeline/internal/normalizer"
	"github.com/vjeyam/sports-odds-pipeline/pkg/models"
)

func quote(eventID, book string, side models.Side, price int, observed time.Time) models.RawQuote {
	return models.RawQuote{
		SnapshotTS:    observed,
		MarketEventID: eventID,
		BookKey:       book,
		Side:          side,
		PriceAmerican: price,
		ObservedAt:    observed,
	}
}

func TestSelectBestPicksHighestMultiplierPerSide(t *testing.T) {
	base := time.Date(2025, 1, 15, 18, 0, 0, 0, time.UTC)

	// Home is the favorite: -140 pays better than -150.
	// Away is the underdog: +140 pays better than +130.
	quotes := []models.RawQuote{
		quote("evt1", "book_a", models.SideHome, -150, base),
		quote("evt1", "book_b", models.SideHome, -140, base.Add(time.Minute)),
		quote("evt1", "book_a", models.SideAway, 130, base),
		quote("evt1", "book_b", models.SideAway, 140, base.Add(time.Minute)),
	}

	facts, skipped := normalizer.SelectBest(quotes)
	if skipped != 0 {
		t.Fatalf("skipped = %d, want 0", skipped)
	}
	if len(facts) != 2 {
		t.Fatalf("got %d facts, want 2", len(facts))
	}

	home, away := facts[1], facts[0]
	if facts[0].Side == models.SideHome {
		home, away = facts[0], facts[1]
	}

	if home.PriceAmerican != -140 || home.BookKey != "book_b" {
		t.Errorf("best home = %d from %s, want -140 from book_b", home.PriceAmerican, home.BookKey)
	}
	if math.Abs(home.PayoutMultiplier-1.714285714) > 0.0001 {
		t.Errorf("home multiplier = %f, want 1.7143", home.PayoutMultiplier)
	}

	if away.PriceAmerican != 140 || away.BookKey != "book_b" {
		t.Errorf("best away = %d from %s, want +140 from book_b", away.PriceAmerican, away.BookKey)
	}
	if math.Abs(away.PayoutMultiplier-2.4) > 0.0001 {
		t.Errorf("away multiplier = %f, want 2.4", away.PayoutMultiplier)
	}
}

func TestSelectBestOrderIndependent(t *testing.T) {
	base := time.Date(2025, 1, 15, 18, 0, 0, 0, time.UTC)
	quotes := []models.RawQuote{
		quote("evt1", "book_a", models.SideHome, -150, base),
		quote("evt1", "book_b", models.SideHome, -140, base.Add(time.Minute)),
		quote("evt2", "book_a", models.SideAway, 110, base),
		quote("evt2", "book_b", models.SideAway, 125, base.Add(time.Minute)),
	}

	forward, _ := normalizer.SelectBest(quotes)

	reversed := make([]models.RawQuote, len(quotes))
	for i, q := range quotes {
		reversed[len(quotes)-1-i] = q
	}
	backward, _ := normalizer.SelectBest(reversed)

	if len(forward) != len(backward) {
		t.Fatalf("fact counts differ: %d vs %d", len(forward), len(backward))
	}
	for i := range forward {
		if forward[i] != backward[i] {
			t.Errorf("fact %d differs by input order: %+v vs %+v", i, forward[i], backward[i])
		}
	}
}

func TestSelectBestReplayIdempotent(t *testing.T) {
	base := time.Date(2025, 1, 15, 18, 0, 0, 0, time.UTC)
	quotes := []models.RawQuote{
		quote("evt1", "book_a", models.SideHome, -150, base),
		quote("evt1", "book_b", models.SideHome, -140, base.Add(time.Minute)),
	}

	once, _ := normalizer.SelectBest(quotes)
	twice, _ := normalizer.SelectBest(append(append([]models.RawQuote{}, quotes...), quotes...))

	if len(once) != len(twice) {
		t.Fatalf("replay changed fact count: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("replay changed fact %d: %+v vs %+v", i, once[i], twice[i])
		}
	}
}

func TestSelectBestSkipsMalformedQuotes(t *testing.T) {
	base := time.Date(2025, 1, 15, 18, 0, 0, 0, time.UTC)
	quotes := []models.RawQuote{
		quote("evt1", "book_a", models.SideHome, -150, base),
		quote("evt1", "book_b", models.SideHome, 0, base),            // zero price
		quote("evt1", "book_c", models.Side("draw"), -120, base),     // bad side
		quote("evt1", "book_d", models.SideAway, 120, base),
	}

	facts, skipped := normalizer.SelectBest(quotes)
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}
	if len(facts) != 2 {
		t.Errorf("got %d facts, want 2", len(facts))
	}
}

func TestSelectBestTieGoesToLatestObservation(t *testing.T) {
	base := time.Date(2025, 1, 15, 18, 0, 0, 0, time.UTC)
	quotes := []models.RawQuote{
		quote("evt1", "book_a", models.SideHome, -140, base),
		quote("evt1", "book_b", models.SideHome, -140, base.Add(time.Hour)),
	}

	facts, _ := normalizer.SelectBest(quotes)
	if len(facts) != 1 {
		t.Fatalf("got %d facts, want 1", len(facts))
	}
	if facts[0].BookKey != "book_b" {
		t.Errorf("tie kept %s, want the later observation from book_b", facts[0].BookKey)
	}
}
