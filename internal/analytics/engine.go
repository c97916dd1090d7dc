// Package analytics computes fixed-stake strategy performance over the
// reconciled game table.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/vjeyam/sports-odds-pipeline/internal/config"
	"github.com/vjeyam/sports-odds-pipeline/internal/db"
	"github.com/vjeyam/sports-odds-pipeline/pkg/models"
	"github.com/vjeyam/sports-odds-pipeline/pkg/oddsmath"
)

const dateLayout = "2006-01-02"

// Engine answers strategy analytics queries on demand
type Engine struct {
	store *db.Store
	loc   *time.Location
	cfg   config.AnalyticsConfig
}

// New creates an analytics engine. loc defines the calendar days that bound
// date-range queries.
func New(store *db.Store, loc *time.Location, cfg config.AnalyticsConfig) *Engine {
	return &Engine{store: store, loc: loc, cfg: cfg}
}

// Defaults returns the configured bucket parameters
func (e *Engine) Defaults() config.AnalyticsConfig {
	return e.cfg
}

// GamesInRange loads reconciled games whose commence time falls on a local
// calendar day within [start, end], both inclusive, formatted "2006-01-02"
func (e *Engine) GamesInRange(ctx context.Context, start, end string) ([]models.ReconciledGame, error) {
	startDay, endDay, err := parseRange(start, end)
	if err != nil {
		return nil, err
	}

	games, err := e.store.ListReconciledGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reconciled games: %w", err)
	}

	var out []models.ReconciledGame
	for _, g := range games {
		day := g.CommenceTime.In(e.loc).Format(dateLayout)
		if day >= startDay && day <= endDay {
			out = append(out, g)
		}
	}
	return out, nil
}

// parseRange validates a start/end day pair
func parseRange(start, end string) (string, string, error) {
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return "", "", fmt.Errorf("invalid start date %q: %w", start, err)
	}
	t, err := time.Parse(dateLayout, end)
	if err != nil {
		return "", "", fmt.Errorf("invalid end date %q: %w", end, err)
	}
	if t.Before(s) {
		return "", "", fmt.Errorf("end date %s before start date %s", end, start)
	}
	return start, end, nil
}

// pick resolves which side a strategy bets on a game and the best American
// price for that side. ok is false when the game cannot be bet: the side has
// no recorded price, or favorite/underdog strategies find no favorite
// (one-sided pricing or equal multipliers).
func pick(strategy models.Strategy, g models.ReconciledGame) (models.Side, int, bool) {
	var side models.Side
	switch strategy {
	case models.StrategyHome:
		side = models.SideHome
	case models.StrategyAway:
		side = models.SideAway
	case models.StrategyFavorite:
		if g.FavoriteSide == nil {
			return "", 0, false
		}
		side = *g.FavoriteSide
	case models.StrategyUnderdog:
		if g.UnderdogSide == nil {
			return "", 0, false
		}
		side = *g.UnderdogSide
	default:
		return "", 0, false
	}

	price := g.BestPrice(side)
	if price == nil {
		return "", 0, false
	}
	return side, *price, true
}

// betProfit settles one $1 bet. A push (completed game, no winner) returns
// zero profit.
func betProfit(pickedSide models.Side, price int, winner *models.Side) float64 {
	if winner == nil {
		return 0
	}
	if *winner != pickedSide {
		return -1
	}
	profit, err := oddsmath.ProfitForWin(price)
	if err != nil {
		return -1
	}
	return profit
}

// Summarize settles one strategy over completed games. Pushes count as bets
// with zero profit but are excluded from the win-rate denominator.
func Summarize(games []models.ReconciledGame, strategy models.Strategy) models.StrategySummary {
	summary := models.StrategySummary{Strategy: strategy}

	for _, g := range games {
		if !g.Completed {
			continue
		}
		side, price, ok := pick(strategy, g)
		if !ok {
			continue
		}

		summary.Bets++
		if g.Winner == nil {
			summary.Pushes++
			continue
		}
		profit := betProfit(side, price, g.Winner)
		summary.Profit += profit
		if profit > 0 {
			summary.Wins++
		}
	}

	if summary.Bets > 0 {
		roi := summary.Profit / float64(summary.Bets)
		summary.ROI = &roi
	}
	if decided := summary.Bets - summary.Pushes; decided > 0 {
		rate := float64(summary.Wins) / float64(decided)
		summary.WinRate = &rate
	}
	return summary
}

// SummarizeAll settles every strategy in reporting order
func SummarizeAll(games []models.ReconciledGame) []models.StrategySummary {
	out := make([]models.StrategySummary, 0, len(models.AllStrategies))
	for _, s := range models.AllStrategies {
		out = append(out, Summarize(games, s))
	}
	return out
}

// EquityCurve walks one strategy's decided bets in commence-time order and
// accumulates profit. Ties on commence time break by market event ID so the
// curve is stable across rebuilds. Cumulative ROI at point i divides the
// running profit by i.
func EquityCurve(games []models.ReconciledGame, strategy models.Strategy) []models.EquityPoint {
	ordered := make([]models.ReconciledGame, len(games))
	copy(ordered, games)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CommenceTime.Equal(ordered[j].CommenceTime) {
			return ordered[i].CommenceTime.Before(ordered[j].CommenceTime)
		}
		return ordered[i].MarketEventID < ordered[j].MarketEventID
	})

	var points []models.EquityPoint
	var cumProfit float64

	for _, g := range ordered {
		if !g.Decided() {
			continue
		}
		side, price, ok := pick(strategy, g)
		if !ok {
			continue
		}

		profit := betProfit(side, price, g.Winner)
		cumProfit += profit
		idx := len(points) + 1

		points = append(points, models.EquityPoint{
			Index:         idx,
			MarketEventID: g.MarketEventID,
			CommenceTime:  g.CommenceTime,
			PickedSide:    side,
			PriceAmerican: price,
			Winner:        *g.Winner,
			BetProfit:     profit,
			CumProfit:     cumProfit,
			CumROI:        cumProfit / float64(idx),
		})
	}
	return points
}

// bothPriced reports whether a game carries a best price on each side
func bothPriced(g models.ReconciledGame) bool {
	return g.BestHomePrice != nil && g.BestAwayPrice != nil
}

// BuildRange aggregates the favorite and underdog strategies over a date
// range and lists calendar days inside the range with no games at all
func BuildRange(games []models.ReconciledGame, start, end string, loc *time.Location) models.RangeSummary {
	fav := Summarize(games, models.StrategyFavorite)
	dog := Summarize(games, models.StrategyUnderdog)

	summary := models.RangeSummary{
		Start:           start,
		End:             end,
		FavoriteWinRate: fav.WinRate,
		UnderdogWinRate: dog.WinRate,
		FavoriteROI:     fav.ROI,
		UnderdogROI:     dog.ROI,
		MissingDates:    missingDates(games, start, end, loc),
	}
	favProfit, dogProfit := fav.Profit, dog.Profit
	if fav.Bets > 0 {
		summary.FavoriteProfit = &favProfit
	}
	if dog.Bets > 0 {
		summary.UnderdogProfit = &dogProfit
	}
	// Only games priced on both sides count toward the odds total
	for _, g := range games {
		if bothPriced(g) {
			summary.GamesWithOdds++
		}
		if g.Decided() {
			summary.DecidedGames++
		}
	}
	return summary
}

// RangeReport loads the games in a date range and aggregates them
func (e *Engine) RangeReport(ctx context.Context, start, end string) (*models.RangeSummary, error) {
	games, err := e.GamesInRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	summary := BuildRange(games, start, end, e.loc)
	return &summary, nil
}

// missingDates lists the days in [start, end] with no games at all
func missingDates(games []models.ReconciledGame, start, end string, loc *time.Location) []string {
	seen := make(map[string]bool, len(games))
	for _, g := range games {
		seen[g.CommenceTime.In(loc).Format(dateLayout)] = true
	}

	startT, _ := time.Parse(dateLayout, start)
	endT, _ := time.Parse(dateLayout, end)

	missing := []string{}
	for d := startT; !d.After(endT); d = d.AddDate(0, 0, 1) {
		day := d.Format(dateLayout)
		if !seen[day] {
			missing = append(missing, day)
		}
	}
	return missing
}

// BuildDaily rolls favorite/underdog performance up per calendar day and
// lists the days in [start, end] with no games at all
func BuildDaily(games []models.ReconciledGame, start, end string, loc *time.Location) models.DailyReport {
	byDay := make(map[string][]models.ReconciledGame)
	for _, g := range games {
		day := g.CommenceTime.In(loc).Format(dateLayout)
		byDay[day] = append(byDay[day], g)
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	out := make([]models.DailySummary, 0, len(days))
	for _, day := range days {
		dayGames := byDay[day]
		fav := Summarize(dayGames, models.StrategyFavorite)
		dog := Summarize(dayGames, models.StrategyUnderdog)

		d := models.DailySummary{
			Date:            day,
			FavoriteWins:    fav.Wins,
			UnderdogWins:    dog.Wins,
			FavoriteWinRate: fav.WinRate,
			UnderdogWinRate: dog.WinRate,
		}
		for _, g := range dayGames {
			if bothPriced(g) {
				d.GamesWithOdds++
			}
			if g.Decided() {
				d.DecidedGames++
			}
		}
		favProfit, dogProfit := fav.Profit, dog.Profit
		if fav.Bets > 0 {
			d.FavoriteProfit = &favProfit
		}
		if dog.Bets > 0 {
			d.UnderdogProfit = &dogProfit
		}
		out = append(out, d)
	}

	return models.DailyReport{
		Start:        start,
		End:          end,
		MissingDates: missingDates(games, start, end, loc),
		Days:         out,
	}
}

// DailyReport loads the games in a date range and rolls them up per day
func (e *Engine) DailyReport(ctx context.Context, start, end string) (*models.DailyReport, error) {
	games, err := e.GamesInRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	report := BuildDaily(games, start, end, e.loc)
	return &report, nil
}
