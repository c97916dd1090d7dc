package linker_test

import (
	"testing"
	"time"

	"github.com/vjeyam/sports-odds-pipeline/internal/linker"
	"github.com/vjeyam/sports-odds-pipeline/pkg/models"
)

var chicago = func() *time.Location {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		panic(err)
	}
	return loc
}()

func event(id, home, away string, commence time.Time) models.MarketEvent {
	return models.MarketEvent{
		MarketEventID: id,
		SportKey:      "basketball_nba",
		HomeTeam:      home,
		AwayTeam:      away,
		CommenceTime:  commence,
	}
}

func result(id, home, away string, start time.Time) models.ResultRecord {
	return models.ResultRecord{
		ResultsEventID: id,
		League:         "nba",
		HomeTeam:       home,
		AwayTeam:       away,
		StartTime:      start,
	}
}

func TestMatchExactTeamsSameDay(t *testing.T) {
	tip := time.Date(2025, 1, 16, 0, 30, 0, 0, time.UTC) // Jan 15 evening in Chicago

	events := []models.MarketEvent{
		event("mkt1", "New York Knicks", "Boston Celtics", tip),
	}
	results := []models.ResultRecord{
		result("res1", "New York Knicks", "Boston Celtics", tip.Add(5*time.Minute)),
	}

	links, unmatched := linker.Match(events, results, chicago)
	if len(unmatched) != 0 {
		t.Fatalf("unexpected unmatched events: %+v", unmatched)
	}
	if len(links) != 1 {
		t.Fatalf("got %d links, want 1", len(links))
	}
	if links[0].MarketEventID != "mkt1" || links[0].ResultsEventID != "res1" {
		t.Errorf("linked %s -> %s, want mkt1 -> res1", links[0].MarketEventID, links[0].ResultsEventID)
	}
	if links[0].MatchMethod != linker.MatchMethodTeamExact {
		t.Errorf("match method = %s, want %s", links[0].MatchMethod, linker.MatchMethodTeamExact)
	}
}

func TestMatchRejectsSwappedHomeAway(t *testing.T) {
	tip := time.Date(2025, 1, 16, 0, 30, 0, 0, time.UTC)

	events := []models.MarketEvent{
		event("mkt1", "New York Knicks", "Boston Celtics", tip),
	}
	results := []models.ResultRecord{
		// Same teams, opposite venues: must not link
		result("res1", "Boston Celtics", "New York Knicks", tip),
	}

	links, unmatched := linker.Match(events, results, chicago)
	if len(links) != 0 {
		t.Fatalf("swapped home/away produced a link: %+v", links)
	}
	if len(unmatched) != 1 || unmatched[0].Reason != models.UnmatchedNoResult {
		t.Fatalf("unmatched = %+v, want one no_result entry", unmatched)
	}
}

func TestMatchDifferentLocalDayDoesNotLink(t *testing.T) {
	// 01:30 UTC Jan 16 is Jan 15 in Chicago; 18:00 UTC Jan 16 is Jan 16
	eventTip := time.Date(2025, 1, 16, 1, 30, 0, 0, time.UTC)
	resultTip := time.Date(2025, 1, 16, 18, 0, 0, 0, time.UTC)

	events := []models.MarketEvent{
		event("mkt1", "New York Knicks", "Boston Celtics", eventTip),
	}
	results := []models.ResultRecord{
		result("res1", "New York Knicks", "Boston Celtics", resultTip),
	}

	links, unmatched := linker.Match(events, results, chicago)
	if len(links) != 0 {
		t.Fatalf("different local days produced a link: %+v", links)
	}
	if len(unmatched) != 1 {
		t.Fatalf("got %d unmatched, want 1", len(unmatched))
	}
}

func TestMatchAmbiguousCandidatesLeftUnlinked(t *testing.T) {
	tip := time.Date(2025, 1, 16, 0, 30, 0, 0, time.UTC)

	events := []models.MarketEvent{
		event("mkt1", "New York Knicks", "Boston Celtics", tip),
	}
	results := []models.ResultRecord{
		result("res1", "New York Knicks", "Boston Celtics", tip),
		result("res2", "New York Knicks", "Boston Celtics", tip.Add(time.Hour)),
	}

	links, unmatched := linker.Match(events, results, chicago)
	if len(links) != 0 {
		t.Fatalf("ambiguous candidates produced a link: %+v", links)
	}
	if len(unmatched) != 1 {
		t.Fatalf("got %d unmatched, want 1", len(unmatched))
	}
	if unmatched[0].Reason != models.UnmatchedAmbiguous || unmatched[0].Candidates != 2 {
		t.Errorf("unmatched = %+v, want ambiguous with 2 candidates", unmatched[0])
	}
}

func TestMatchInjectiveOverResults(t *testing.T) {
	tip := time.Date(2025, 1, 16, 0, 30, 0, 0, time.UTC)

	// Two market events for the same game; only one may claim the result
	events := []models.MarketEvent{
		event("mkt1", "New York Knicks", "Boston Celtics", tip),
		event("mkt2", "New York Knicks", "Boston Celtics", tip.Add(time.Minute)),
	}
	results := []models.ResultRecord{
		result("res1", "New York Knicks", "Boston Celtics", tip),
	}

	links, unmatched := linker.Match(events, results, chicago)
	if len(links) != 1 {
		t.Fatalf("got %d links, want 1", len(links))
	}
	if len(unmatched) != 1 || unmatched[0].Reason != models.UnmatchedAmbiguous {
		t.Fatalf("second claimant should be ambiguous, got %+v", unmatched)
	}

	seen := make(map[string]bool)
	for _, l := range links {
		if seen[l.ResultsEventID] {
			t.Errorf("result %s claimed twice", l.ResultsEventID)
		}
		seen[l.ResultsEventID] = true
	}
}

func TestNormTeam(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Lowercases", "New York Knicks", "new york knicks"},
		{"Strips punctuation", "L.A. Clippers", "la clippers"},
		{"Collapses spaces", "  Boston   Celtics ", "boston celtics"},
		{"Keeps digits", "76ers", "76ers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := linker.NormTeam(tt.in); got != tt.want {
				t.Errorf("NormTeam(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
