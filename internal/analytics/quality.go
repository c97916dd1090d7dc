package analytics

import (
	"context"
	"fmt"

	"github.com/vjeyam/sports-odds-pipeline/pkg/models"
)

// QualityCheck is one data-consistency probe over the warehouse tables
type QualityCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Count  int    `json:"count"`
	Detail string `json:"detail"`
}

// QualityReport runs the consistency probes. Each check counts offending
// rows; zero offenders passes.
func (e *Engine) QualityReport(ctx context.Context) ([]QualityCheck, error) {
	events, err := e.store.ListMarketEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list market events: %w", err)
	}
	facts, err := e.store.ListBestPrices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list best prices: %w", err)
	}
	links, err := e.store.ListLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	results, err := e.store.ListResults(ctx)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	games, err := e.store.ListReconciledGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reconciled games: %w", err)
	}

	eventIDs := make(map[string]bool, len(events))
	for _, ev := range events {
		eventIDs[ev.MarketEventID] = true
	}
	resultIDs := make(map[string]bool, len(results))
	for _, r := range results {
		resultIDs[r.ResultsEventID] = true
	}

	orphanFacts := 0
	for _, f := range facts {
		if !eventIDs[f.MarketEventID] {
			orphanFacts++
		}
	}

	danglingLinks := 0
	linkedResults := make(map[string]int, len(links))
	for _, l := range links {
		if !eventIDs[l.MarketEventID] || !resultIDs[l.ResultsEventID] {
			danglingLinks++
		}
		linkedResults[l.ResultsEventID]++
	}

	duplicateClaims := 0
	for _, n := range linkedResults {
		if n > 1 {
			duplicateClaims += n - 1
		}
	}

	oneSided := 0
	scorelessComplete := 0
	for _, g := range games {
		if g.BestHomePrice == nil || g.BestAwayPrice == nil {
			oneSided++
		}
		if g.Completed && (g.HomeScore == nil || g.AwayScore == nil) {
			scorelessComplete++
		}
	}

	staleResults := 0
	for _, r := range results {
		if r.Completed && r.InProgress {
			staleResults++
		}
	}

	checks := []QualityCheck{
		{Name: "facts_reference_known_events", Count: orphanFacts,
			Detail: "best-price facts whose market event is unknown"},
		{Name: "links_reference_known_rows", Count: danglingLinks,
			Detail: "identity links pointing at a missing event or result"},
		{Name: "links_one_result_per_event", Count: duplicateClaims,
			Detail: "results claimed by more than one market event"},
		{Name: "games_priced_on_both_sides", Count: oneSided,
			Detail: "reconciled games missing a best price on one side"},
		{Name: "completed_games_have_scores", Count: scorelessComplete,
			Detail: "completed games with a missing score"},
		{Name: "results_not_both_final_and_live", Count: staleResults,
			Detail: "results flagged completed and in progress at once"},
	}
	for i := range checks {
		checks[i].Passed = checks[i].Count == 0
	}
	return checks, nil
}

// Unlinked counts events and results that never joined; used by the
// quality endpoint alongside the unmatched detail list
func Unlinked(events []models.MarketEvent, results []models.ResultRecord, links []models.IdentityLink) (int, int) {
	linkedEvents := make(map[string]bool, len(links))
	linkedResults := make(map[string]bool, len(links))
	for _, l := range links {
		linkedEvents[l.MarketEventID] = true
		linkedResults[l.ResultsEventID] = true
	}

	unlinkedEvents := 0
	for _, ev := range events {
		if !linkedEvents[ev.MarketEventID] {
			unlinkedEvents++
		}
	}
	unlinkedResults := 0
	for _, r := range results {
		if !linkedResults[r.ResultsEventID] {
			unlinkedResults++
		}
	}
	return unlinkedEvents, unlinkedResults
}
