package ingest

import (
	"testing"
	"time"
)

func validQuoteMessage() QuoteMessage {
	now := time.Date(2025, 1, 15, 18, 0, 0, 0, time.UTC)
	return QuoteMessage{
		SnapshotTS:    now,
		MarketEventID: "evt1",
		SportKey:      "basketball_nba",
		HomeTeam:      "New York Knicks",
		AwayTeam:      "Boston Celtics",
		CommenceTime:  now.Add(2 * time.Hour),
		BookKey:       "book_a",
		Side:          "home",
		PriceAmerican: -140,
		ObservedAt:    now,
	}
}

func TestValidateQuote(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*QuoteMessage)
		wantErr bool
	}{
		{"Valid", func(q *QuoteMessage) {}, false},
		{"Missing event ID", func(q *QuoteMessage) { q.MarketEventID = "" }, true},
		{"Missing book", func(q *QuoteMessage) { q.BookKey = "" }, true},
		{"Bad side", func(q *QuoteMessage) { q.Side = "draw" }, true},
		{"Zero price", func(q *QuoteMessage) { q.PriceAmerican = 0 }, true},
		{"Missing home team", func(q *QuoteMessage) { q.HomeTeam = "" }, true},
		{"Missing commence time", func(q *QuoteMessage) { q.CommenceTime = time.Time{} }, true},
		{"Missing observed at", func(q *QuoteMessage) { q.ObservedAt = time.Time{} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qm := validQuoteMessage()
			tt.mutate(&qm)

			err := validateQuote(qm)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateQuote() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func validResultMessage() ResultMessage {
	now := time.Date(2025, 1, 16, 3, 0, 0, 0, time.UTC)
	home, away := 110, 104
	return ResultMessage{
		ResultsEventID: "res1",
		League:         "nba",
		HomeTeam:       "New York Knicks",
		AwayTeam:       "Boston Celtics",
		StartTime:      now.Add(-3 * time.Hour),
		HomeScore:      &home,
		AwayScore:      &away,
		Completed:      true,
		PulledAt:       now,
	}
}

func TestValidateResult(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ResultMessage)
		wantErr bool
	}{
		{"Valid completed", func(r *ResultMessage) {}, false},
		{"Valid pending", func(r *ResultMessage) {
			r.Completed = false
			r.HomeScore = nil
			r.AwayScore = nil
		}, false},
		{"Missing event ID", func(r *ResultMessage) { r.ResultsEventID = "" }, true},
		{"Missing away team", func(r *ResultMessage) { r.AwayTeam = "" }, true},
		{"Missing start time", func(r *ResultMessage) { r.StartTime = time.Time{} }, true},
		{"Completed without scores", func(r *ResultMessage) { r.HomeScore = nil }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm := validResultMessage()
			tt.mutate(&rm)

			err := validateResult(rm)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateResult() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
