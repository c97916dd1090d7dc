package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/vjeyam/sports-odds-pipeline/internal/db"
	"github.com/vjeyam/sports-odds-pipeline/pkg/models"
	"github.com/vjeyam/sports-odds-pipeline/pkg/oddsmath"
)

// Rebuild recomputes every persisted summary table from the current
// reconciled games, closing quotes, and best-price facts. The tables are
// replaced wholesale inside one transaction so readers never see a partial
// rebuild.
func (e *Engine) Rebuild(ctx context.Context) (int, error) {
	games, err := e.store.ListReconciledGames(ctx)
	if err != nil {
		return 0, fmt.Errorf("list reconciled games: %w", err)
	}

	closing, err := e.store.ListClosingQuotes(ctx)
	if err != nil {
		return 0, fmt.Errorf("list closing quotes: %w", err)
	}

	facts, err := e.store.ListBestPrices(ctx)
	if err != nil {
		return 0, fmt.Errorf("list best prices: %w", err)
	}

	calibration := BuildCalibration(games, e.cfg.BucketStep, e.cfg.ProbMin, e.cfg.ProbMax)
	margins := BuildBookMargins(closing)
	frequency := BuildBestPriceFrequency(facts)
	kpis := BuildKPIs(games, margins, calibration)

	if err := e.store.ReplaceSummaries(ctx, calibration, margins, frequency, kpis); err != nil {
		return 0, fmt.Errorf("replace summaries: %w", err)
	}

	return len(calibration) + len(margins) + len(frequency) + len(kpis), nil
}

// BuildBookMargins computes per-book overround statistics from two-sided
// closing quotes. Books with malformed prices on either side are skipped
// quote by quote.
func BuildBookMargins(closing []db.ClosingQuote) []models.BookMargin {
	byBook := make(map[string][]float64)
	for _, q := range closing {
		homeProb, err := oddsmath.ImpliedProbability(q.HomePrice)
		if err != nil {
			continue
		}
		awayProb, err := oddsmath.ImpliedProbability(q.AwayPrice)
		if err != nil {
			continue
		}
		over, err := oddsmath.Overround(homeProb, awayProb)
		if err != nil {
			continue
		}
		byBook[q.BookKey] = append(byBook[q.BookKey], over)
	}

	books := make([]string, 0, len(byBook))
	for book := range byBook {
		books = append(books, book)
	}
	sort.Strings(books)

	out := make([]models.BookMargin, 0, len(books))
	for _, book := range books {
		overs := byBook[book]
		sort.Float64s(overs)

		sum := 0.0
		for _, o := range overs {
			sum += o
		}

		out = append(out, models.BookMargin{
			BookKey:         book,
			Games:           len(overs),
			AvgOverround:    sum / float64(len(overs)),
			MedianOverround: median(overs),
			MinOverround:    overs[0],
			MaxOverround:    overs[len(overs)-1],
		})
	}
	return out
}

// median of a sorted non-empty slice
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2.0
}

// BuildBestPriceFrequency counts per book how often it held the standing
// best price on each side
func BuildBestPriceFrequency(facts []models.BestPriceFact) []models.BestPriceFrequency {
	counts := make(map[string]*models.BestPriceFrequency)
	total := 0

	for _, f := range facts {
		c, ok := counts[f.BookKey]
		if !ok {
			c = &models.BestPriceFrequency{BookKey: f.BookKey}
			counts[f.BookKey] = c
		}
		if f.Side == models.SideHome {
			c.BestHomeCount++
		} else {
			c.BestAwayCount++
		}
		c.BestTotal++
		total++
	}

	out := make([]models.BestPriceFrequency, 0, len(counts))
	for _, c := range counts {
		if total > 0 {
			c.BestShare = float64(c.BestTotal) / float64(total)
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BestTotal != out[j].BestTotal {
			return out[i].BestTotal > out[j].BestTotal
		}
		return out[i].BookKey < out[j].BookKey
	})
	return out
}

// BuildKPIs produces the headline dashboard numbers from the reconciled games
// plus the already-built book margins and calibration buckets
func BuildKPIs(games []models.ReconciledGame, margins []models.BookMargin, calibration []models.CalibrationBucket) map[string]string {
	decided := 0
	pushes := 0
	for _, g := range games {
		if g.Decided() {
			decided++
		} else if g.Completed {
			pushes++
		}
	}

	fav := Summarize(games, models.StrategyFavorite)
	dog := Summarize(games, models.StrategyUnderdog)

	kpis := map[string]string{
		"reconciled_games": strconv.Itoa(len(games)),
		"decided_games":    strconv.Itoa(decided),
		"pushes":           strconv.Itoa(pushes),
		"favorite_bets":    strconv.Itoa(fav.Bets),
		"underdog_bets":    strconv.Itoa(dog.Bets),
	}
	if fav.WinRate != nil {
		kpis["favorite_win_rate"] = formatKPI(*fav.WinRate)
	}
	if dog.WinRate != nil {
		kpis["underdog_win_rate"] = formatKPI(*dog.WinRate)
	}

	// Unweighted average of the per-book average overrounds
	avgOver := 0.0
	if len(margins) > 0 {
		for _, m := range margins {
			avgOver += m.AvgOverround
		}
		avgOver /= float64(len(margins))
	}
	kpis["avg_overround_across_books"] = formatKPI(avgOver)

	// Mean absolute calibration error weighted by bucket size
	weightedErr := 0.0
	totalGames := 0
	for _, b := range calibration {
		weightedErr += math.Abs(b.Diff) * float64(b.Games)
		totalGames += b.Games
	}
	mae := 0.0
	if totalGames > 0 {
		mae = weightedErr / float64(totalGames)
	}
	kpis["calibration_weighted_mae"] = formatKPI(mae)

	// Terminal equity-curve point per strategy
	for _, strat := range models.AllStrategies {
		profit, roi := 0.0, 0.0
		if curve := EquityCurve(games, strat); len(curve) > 0 {
			last := curve[len(curve)-1]
			profit, roi = last.CumProfit, last.CumROI
		}
		kpis["net_profit_"+string(strat)] = formatKPI(profit)
		kpis["roi_"+string(strat)] = formatKPI(roi)
	}
	return kpis
}

func formatKPI(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
