package analytics

import (
	"fmt"

	"github.com/vjeyam/sports-odds-pipeline/pkg/models"
	"github.com/vjeyam/sports-odds-pipeline/pkg/oddsmath"
)

// BucketReport partitions one strategy's completed bets by the implied
// probability of the picked side at its best price
type BucketReport struct {
	Strategy   models.Strategy     `json:"strategy"`
	Step       float64             `json:"step"`
	ProbMin    float64             `json:"prob_min"`
	ProbMax    float64             `json:"prob_max"`
	Buckets    []models.ProbBucket `json:"buckets"`
	InRange    int                 `json:"bets_in_range"`
	OutOfRange int                 `json:"bets_out_of_range"`
}

// bucketEdges builds the half-open intervals [lo, lo+step) covering
// [probMin, probMax). The final interval is clipped to probMax.
func bucketEdges(step, probMin, probMax float64) []models.ProbBucket {
	var buckets []models.ProbBucket
	for lo := probMin; lo < probMax-1e-9; lo += step {
		hi := lo + step
		if hi > probMax {
			hi = probMax
		}
		buckets = append(buckets, models.ProbBucket{
			Label: fmt.Sprintf("%.2f-%.2f", lo, hi),
			Lo:    lo,
			Hi:    hi,
		})
	}
	return buckets
}

// bucketIndex locates prob in the edge list, -1 when out of range
func bucketIndex(buckets []models.ProbBucket, prob float64) int {
	for i, b := range buckets {
		if prob >= b.Lo && prob < b.Hi {
			return i
		}
	}
	return -1
}

// ROIBuckets settles one strategy's completed bets into implied-probability
// buckets. Bets whose probability falls outside [probMin, probMax) are
// excluded from every bucket and surfaced only through OutOfRange.
func ROIBuckets(games []models.ReconciledGame, strategy models.Strategy, step, probMin, probMax float64) BucketReport {
	report := BucketReport{
		Strategy: strategy,
		Step:     step,
		ProbMin:  probMin,
		ProbMax:  probMax,
		Buckets:  bucketEdges(step, probMin, probMax),
	}

	profits := make([]float64, len(report.Buckets))
	pushes := make([]int, len(report.Buckets))

	for _, g := range games {
		if !g.Completed {
			continue
		}
		side, price, ok := pick(strategy, g)
		if !ok {
			continue
		}
		prob, err := oddsmath.ImpliedProbability(price)
		if err != nil {
			continue
		}

		idx := bucketIndex(report.Buckets, prob)
		if idx < 0 {
			report.OutOfRange++
			continue
		}
		report.InRange++

		b := &report.Buckets[idx]
		b.Bets++
		if g.Winner == nil {
			pushes[idx]++
			continue
		}
		profit := betProfit(side, price, g.Winner)
		profits[idx] += profit
		if profit > 0 {
			b.Wins++
		}
	}

	for i := range report.Buckets {
		b := &report.Buckets[i]
		if b.Bets == 0 {
			continue
		}
		p := profits[i]
		roi := p / float64(b.Bets)
		b.Profit = &p
		b.ROI = &roi
		// Pushes count as bets but not toward the win rate
		if decided := b.Bets - pushes[i]; decided > 0 {
			rate := float64(b.Wins) / float64(decided)
			b.WinRate = &rate
		}
	}
	return report
}

// BuildCalibration compares the favorite's implied probability against its
// realized win rate per probability bucket. Pushes are skipped; only decided
// games inform the actual rate.
func BuildCalibration(games []models.ReconciledGame, step, probMin, probMax float64) []models.CalibrationBucket {
	edges := bucketEdges(step, probMin, probMax)

	type acc struct {
		games    int
		favWins  int
		probSum  float64
	}
	accs := make([]acc, len(edges))

	for _, g := range games {
		if !g.Decided() || g.FavoriteSide == nil {
			continue
		}
		price := g.BestPrice(*g.FavoriteSide)
		if price == nil {
			continue
		}
		prob, err := oddsmath.ImpliedProbability(*price)
		if err != nil {
			continue
		}
		idx := bucketIndex(edges, prob)
		if idx < 0 {
			continue
		}

		accs[idx].games++
		accs[idx].probSum += prob
		if *g.Winner == *g.FavoriteSide {
			accs[idx].favWins++
		}
	}

	var out []models.CalibrationBucket
	for i, a := range accs {
		if a.games == 0 {
			continue
		}
		actual := float64(a.favWins) / float64(a.games)
		implied := a.probSum / float64(a.games)
		out = append(out, models.CalibrationBucket{
			Label:           edges[i].Label,
			Lo:              edges[i].Lo,
			Hi:              edges[i].Hi,
			Games:           a.games,
			FavoriteWinRate: actual,
			AvgImpliedProb:  implied,
			Diff:            actual - implied,
		})
	}
	return out
}
