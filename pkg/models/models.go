package models

import "time"

// Side identifies one side of a two-way moneyline market
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// Opposite returns the other side of the market
func (s Side) Opposite() Side {
	if s == SideHome {
		return SideAway
	}
	return SideHome
}

// Valid reports whether s is home or away
func (s Side) Valid() bool {
	return s == SideHome || s == SideAway
}

// RawQuote represents one book's price for one side of an event at one snapshot
type RawQuote struct {
	SnapshotTS    time.Time `json:"snapshot_ts"`
	MarketEventID string    `json:"market_event_id"`
	BookKey       string    `json:"book_key"`
	BookTitle     string    `json:"book_title,omitempty"`
	Side          Side      `json:"side"`
	PriceAmerican int       `json:"price_american"`
	ObservedAt    time.Time `json:"observed_at"`
}

// MarketEvent represents a game as the odds feed identifies it
type MarketEvent struct {
	MarketEventID string    `json:"market_event_id"`
	SportKey      string    `json:"sport_key"`
	HomeTeam      string    `json:"home_team"`
	AwayTeam      string    `json:"away_team"`
	CommenceTime  time.Time `json:"commence_time"`
	DiscoveredAt  time.Time `json:"discovered_at"`
	LastSeenAt    time.Time `json:"last_seen_at"`
}

// BestPriceFact holds the most favorable price recorded so far for one side.
// "Most favorable" is the highest decimal payout multiplier, which covers
// both favorites (least negative American) and underdogs (largest positive).
type BestPriceFact struct {
	MarketEventID    string    `json:"market_event_id"`
	Side             Side      `json:"side"`
	PriceAmerican    int       `json:"price_american"`
	PayoutMultiplier float64   `json:"payout_multiplier"`
	BookKey          string    `json:"book_key"`
	ObservedAt       time.Time `json:"observed_at"`
}

// ResultRecord represents a game as the results feed identifies it
type ResultRecord struct {
	ResultsEventID string    `json:"results_event_id"`
	League         string    `json:"league"`
	HomeTeam       string    `json:"home_team"`
	AwayTeam       string    `json:"away_team"`
	StartTime      time.Time `json:"start_time"`
	HomeScore      *int      `json:"home_score"`
	AwayScore      *int      `json:"away_score"`
	Completed      bool      `json:"completed"`
	InProgress     bool      `json:"in_progress"`
	PulledAt       time.Time `json:"pulled_at"`
}

// IdentityLink maps a market event to a results event (injective both ways)
type IdentityLink struct {
	MarketEventID  string    `json:"market_event_id"`
	ResultsEventID string    `json:"results_event_id"`
	MatchMethod    string    `json:"match_method"`
	MatchedAt      time.Time `json:"matched_at"`
}

// UnmatchedReason explains why a market event is not linked
type UnmatchedReason string

const (
	UnmatchedNoResult  UnmatchedReason = "no_result"
	UnmatchedAmbiguous UnmatchedReason = "ambiguous"
)

// UnmatchedEvent is a market event the resolver could not confidently link
type UnmatchedEvent struct {
	MarketEventID string          `json:"market_event_id"`
	HomeTeam      string          `json:"home_team"`
	AwayTeam      string          `json:"away_team"`
	CommenceTime  time.Time       `json:"commence_time"`
	Reason        UnmatchedReason `json:"reason"`
	Candidates    int             `json:"candidates"`
}

// ReconciledGame is one fully joined row: best prices + resolved result
type ReconciledGame struct {
	MarketEventID  string    `json:"market_event_id"`
	ResultsEventID string    `json:"results_event_id"`
	CommenceTime   time.Time `json:"commence_time"`
	HomeTeam       string    `json:"home_team"`
	AwayTeam       string    `json:"away_team"`

	BestHomePrice      *int    `json:"best_home_price_american"`
	BestHomeBook       string  `json:"best_home_book_key,omitempty"`
	BestHomeMultiplier float64 `json:"best_home_multiplier,omitempty"`
	BestAwayPrice      *int    `json:"best_away_price_american"`
	BestAwayBook       string  `json:"best_away_book_key,omitempty"`
	BestAwayMultiplier float64 `json:"best_away_multiplier,omitempty"`

	HomeScore *int  `json:"home_score"`
	AwayScore *int  `json:"away_score"`
	Completed bool  `json:"completed"`
	Winner    *Side `json:"winner"`

	FavoriteSide *Side     `json:"favorite_side"`
	UnderdogSide *Side     `json:"underdog_side"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Decided reports whether the game is complete with a determinate winner
func (g *ReconciledGame) Decided() bool {
	return g.Completed && g.Winner != nil
}

// BestPrice returns the recorded best American price for a side, if any
func (g *ReconciledGame) BestPrice(side Side) *int {
	if side == SideHome {
		return g.BestHomePrice
	}
	return g.BestAwayPrice
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}
