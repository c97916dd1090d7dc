// Package linker resolves market-feed event identity against results-feed
// event identity, producing the cross-reference the reconciler joins on.
package linker

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/vjeyam/sports-odds-pipeline/internal/db"
	"github.com/vjeyam/sports-odds-pipeline/pkg/models"
)

// MatchMethodTeamExact is the only matching method currently implemented:
// exact normalized team names plus same local calendar day.
const MatchMethodTeamExact = "team_exact"

// Linker resolves unlinked market events against result records
type Linker struct {
	store *db.Store
	loc   *time.Location
}

// New creates a linker using loc as the reference timezone for the
// calendar-day check
func New(store *db.Store, loc *time.Location) *Linker {
	return &Linker{store: store, loc: loc}
}

// Resolve matches all market events against all result records and upserts
// the confident links. Unmatched events are reported, never guessed.
func (l *Linker) Resolve(ctx context.Context) (int, error) {
	events, err := l.store.ListMarketEvents(ctx)
	if err != nil {
		return 0, fmt.Errorf("list market events: %w", err)
	}

	results, err := l.store.ListResults(ctx)
	if err != nil {
		return 0, fmt.Errorf("list results: %w", err)
	}

	links, unmatched := Match(events, results, l.loc)

	if len(links) > 0 {
		if err := l.store.UpsertLinks(ctx, links); err != nil {
			return 0, fmt.Errorf("upsert links: %w", err)
		}
	}

	for _, u := range unmatched {
		if u.Reason == models.UnmatchedAmbiguous {
			fmt.Printf("[Linker] ambiguous: event %s (%s @ %s) matched %d results, left unlinked\n",
				u.MarketEventID, u.AwayTeam, u.HomeTeam, u.Candidates)
		}
	}

	return len(links), nil
}

// Unmatched recomputes the unmatched list for reporting endpoints
func (l *Linker) Unmatched(ctx context.Context) ([]models.UnmatchedEvent, error) {
	events, err := l.store.ListMarketEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list market events: %w", err)
	}

	results, err := l.store.ListResults(ctx)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	_, unmatched := Match(events, results, l.loc)
	return unmatched, nil
}

// Match pairs market events with result records.
//
// A market event matches a result record iff both normalized team names
// match order-sensitively (market home == result home) and the scheduled
// times fall on the same calendar day in loc. Exactly one candidate makes
// a link; zero or more than one leaves the event unmatched. The mapping is
// injective: a result record claimed by one event is not offered to later
// events, and an event whose only candidate is already claimed stays
// unmatched as ambiguous.
func Match(events []models.MarketEvent, results []models.ResultRecord, loc *time.Location) ([]models.IdentityLink, []models.UnmatchedEvent) {
	type matchKey struct {
		home, away, day string
	}

	index := make(map[matchKey][]models.ResultRecord)
	for _, r := range results {
		k := matchKey{
			home: NormTeam(r.HomeTeam),
			away: NormTeam(r.AwayTeam),
			day:  r.StartTime.In(loc).Format("2006-01-02"),
		}
		index[k] = append(index[k], r)
	}

	matchedAt := time.Now().UTC()
	taken := make(map[string]bool) // results_event_id -> claimed

	var links []models.IdentityLink
	var unmatched []models.UnmatchedEvent

	for _, e := range events {
		k := matchKey{
			home: NormTeam(e.HomeTeam),
			away: NormTeam(e.AwayTeam),
			day:  e.CommenceTime.In(loc).Format("2006-01-02"),
		}

		candidates := index[k]

		if len(candidates) == 0 {
			// Expected for future or unscored games
			unmatched = append(unmatched, models.UnmatchedEvent{
				MarketEventID: e.MarketEventID,
				HomeTeam:      e.HomeTeam,
				AwayTeam:      e.AwayTeam,
				CommenceTime:  e.CommenceTime,
				Reason:        models.UnmatchedNoResult,
			})
			continue
		}

		if len(candidates) > 1 {
			unmatched = append(unmatched, models.UnmatchedEvent{
				MarketEventID: e.MarketEventID,
				HomeTeam:      e.HomeTeam,
				AwayTeam:      e.AwayTeam,
				CommenceTime:  e.CommenceTime,
				Reason:        models.UnmatchedAmbiguous,
				Candidates:    len(candidates),
			})
			continue
		}

		result := candidates[0]
		if taken[result.ResultsEventID] {
			// Two market events claiming one result is ambiguity, not a link
			unmatched = append(unmatched, models.UnmatchedEvent{
				MarketEventID: e.MarketEventID,
				HomeTeam:      e.HomeTeam,
				AwayTeam:      e.AwayTeam,
				CommenceTime:  e.CommenceTime,
				Reason:        models.UnmatchedAmbiguous,
				Candidates:    1,
			})
			continue
		}

		taken[result.ResultsEventID] = true
		links = append(links, models.IdentityLink{
			MarketEventID:  e.MarketEventID,
			ResultsEventID: result.ResultsEventID,
			MatchMethod:    MatchMethodTeamExact,
			MatchedAt:      matchedAt,
		})
	}

	return links, unmatched
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9 ]+`)
var multiSpace = regexp.MustCompile(`\s+`)

// NormTeam normalizes a team name for exact comparison: lower-case, strip
// punctuation, collapse whitespace. No mascot or city aliasing is attempted.
func NormTeam(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonAlnum.ReplaceAllString(s, "")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
