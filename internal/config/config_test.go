package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.SportKey != "basketball_nba" {
		t.Errorf("SportKey = %s, want basketball_nba", cfg.SportKey)
	}
	if cfg.Stream.RawOddsStream != "odds.raw.moneyline" {
		t.Errorf("RawOddsStream = %s, want odds.raw.moneyline", cfg.Stream.RawOddsStream)
	}
	if cfg.Analytics.BucketStep != 0.05 {
		t.Errorf("BucketStep = %f, want 0.05", cfg.Analytics.BucketStep)
	}
	if cfg.Analytics.ProbMin != 0.40 || cfg.Analytics.ProbMax != 0.80 {
		t.Errorf("prob range = [%f, %f], want [0.40, 0.80]", cfg.Analytics.ProbMin, cfg.Analytics.ProbMax)
	}
	if cfg.Pipeline.Interval != 0 {
		t.Errorf("Interval = %v, want 0 (scheduler disabled)", cfg.Pipeline.Interval)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SPORT_KEY", "basketball_ncaab")
	t.Setenv("BUCKET_STEP", "0.1")
	t.Setenv("PIPELINE_INTERVAL", "15m")

	cfg := Load()

	if cfg.SportKey != "basketball_ncaab" {
		t.Errorf("SportKey = %s, want basketball_ncaab", cfg.SportKey)
	}
	if cfg.Analytics.BucketStep != 0.1 {
		t.Errorf("BucketStep = %f, want 0.1", cfg.Analytics.BucketStep)
	}
	if cfg.Pipeline.Interval != 15*time.Minute {
		t.Errorf("Interval = %v, want 15m", cfg.Pipeline.Interval)
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	t.Setenv("REFERENCE_TZ", "Mars/Olympus")

	cfg := Load()
	if loc := cfg.Location(); loc != time.UTC {
		t.Errorf("Location = %v, want UTC fallback", loc)
	}
}

func TestGetDuration(t *testing.T) {
	t.Setenv("SOME_DURATION", "90s")
	if got := getDuration("SOME_DURATION", time.Minute); got != 90*time.Second {
		t.Errorf("getDuration = %v, want 90s", got)
	}
	if got := getDuration("UNSET_DURATION", time.Minute); got != time.Minute {
		t.Errorf("getDuration default = %v, want 1m", got)
	}
}
