package models

import "time"

// Strategy is a fixed $1-per-bet wagering rule
type Strategy string

const (
	StrategyFavorite Strategy = "favorite"
	StrategyUnderdog Strategy = "underdog"
	StrategyHome     Strategy = "home"
	StrategyAway     Strategy = "away"
)

// AllStrategies in reporting order
var AllStrategies = []Strategy{StrategyFavorite, StrategyUnderdog, StrategyHome, StrategyAway}

// Valid reports whether s names a known strategy
func (s Strategy) Valid() bool {
	switch s {
	case StrategyFavorite, StrategyUnderdog, StrategyHome, StrategyAway:
		return true
	}
	return false
}

// StrategySummary aggregates one strategy over a date range
type StrategySummary struct {
	Strategy Strategy `json:"strategy"`
	Bets     int      `json:"bets"`
	Wins     int      `json:"wins"`
	Pushes   int      `json:"pushes"`
	Profit   float64  `json:"profit"`
	ROI      *float64 `json:"roi"`
	WinRate  *float64 `json:"win_rate"`
}

// EquityPoint is one decided bet in a strategy's running equity curve
type EquityPoint struct {
	Index         int       `json:"index"`
	MarketEventID string    `json:"market_event_id"`
	CommenceTime  time.Time `json:"start_time"`
	PickedSide    Side      `json:"picked_side"`
	PriceAmerican int       `json:"price_american"`
	Winner        Side      `json:"winner"`
	BetProfit     float64   `json:"bet_profit"`
	CumProfit     float64   `json:"cumulative_profit"`
	CumROI        float64   `json:"cumulative_roi"`
}

// ProbBucket aggregates bets whose implied probability falls in [Lo, Hi)
type ProbBucket struct {
	Label   string   `json:"bucket_label"`
	Lo      float64  `json:"lo"`
	Hi      float64  `json:"hi"`
	Bets    int      `json:"bets"`
	Wins    int      `json:"wins"`
	WinRate *float64 `json:"win_rate"`
	Profit  *float64 `json:"profit"`
	ROI     *float64 `json:"roi"`
}

// RangeSummary is the cross-strategy rollup for a date range
type RangeSummary struct {
	Start           string   `json:"start"`
	End             string   `json:"end"`
	GamesWithOdds   int      `json:"n_games_with_odds"`
	DecidedGames    int      `json:"n_decided_games"`
	FavoriteWinRate *float64 `json:"favorite_win_rate"`
	UnderdogWinRate *float64 `json:"underdog_win_rate"`
	FavoriteProfit  *float64 `json:"favorite_profit"`
	UnderdogProfit  *float64 `json:"underdog_profit"`
	FavoriteROI     *float64 `json:"favorite_roi"`
	UnderdogROI     *float64 `json:"underdog_roi"`
	MissingDates    []string `json:"missing_dates"`
}

// DailyReport is the per-day rollup envelope for a date range. MissingDates
// lists the days inside the range with no games so callers can tell "no data
// ingested" from "zero decided games".
type DailyReport struct {
	Start        string         `json:"start"`
	End          string         `json:"end"`
	MissingDates []string       `json:"missing_dates"`
	Days         []DailySummary `json:"daily"`
}

// DailySummary is one calendar day's rollup
type DailySummary struct {
	Date            string   `json:"date"`
	GamesWithOdds   int      `json:"n_games_with_odds"`
	DecidedGames    int      `json:"n_decided_games"`
	FavoriteWins    int      `json:"favorite_wins"`
	UnderdogWins    int      `json:"underdog_wins"`
	FavoriteWinRate *float64 `json:"favorite_win_rate"`
	UnderdogWinRate *float64 `json:"underdog_win_rate"`
	FavoriteProfit  *float64 `json:"favorite_profit"`
	UnderdogProfit  *float64 `json:"underdog_profit"`
}

// CalibrationBucket compares the favorite's implied probability to its
// actual win rate inside one probability interval
type CalibrationBucket struct {
	Label           string  `json:"bucket_label"`
	Lo              float64 `json:"lo"`
	Hi              float64 `json:"hi"`
	Games           int     `json:"n_games"`
	FavoriteWinRate float64 `json:"favorite_win_rate"`
	AvgImpliedProb  float64 `json:"avg_implied_prob"`
	Diff            float64 `json:"diff_actual_minus_implied"`
}

// BookMargin summarizes one book's overround across its two-sided quotes
type BookMargin struct {
	BookKey         string  `json:"book_key"`
	Games           int     `json:"n_games"`
	AvgOverround    float64 `json:"avg_overround"`
	MedianOverround float64 `json:"median_overround"`
	MinOverround    float64 `json:"min_overround"`
	MaxOverround    float64 `json:"max_overround"`
}

// BestPriceFrequency counts how often one book held the best price
type BestPriceFrequency struct {
	BookKey       string  `json:"book_key"`
	BestHomeCount int     `json:"best_home_count"`
	BestAwayCount int     `json:"best_away_count"`
	BestTotal     int     `json:"best_total_count"`
	BestShare     float64 `json:"best_share"`
}
