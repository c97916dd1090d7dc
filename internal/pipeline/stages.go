package pipeline

import (
	"context"

	"github.com/vjeyam/sports-odds-pipeline/internal/analytics"
	"github.com/vjeyam/sports-odds-pipeline/internal/ingest"
	"github.com/vjeyam/sports-odds-pipeline/internal/linker"
	"github.com/vjeyam/sports-odds-pipeline/internal/normalizer"
	"github.com/vjeyam/sports-odds-pipeline/internal/reconciler"
)

// Stage names in execution order
const (
	StageSnapshotIngest   = "snapshot-ingest"
	StageResultsIngest    = "results-ingest"
	StageIdentityLink     = "identity-link"
	StageReconcile        = "reconcile"
	StageAnalyticsRebuild = "analytics-rebuild"
)

// BuildStages wires the workers into the canonical stage sequence. The
// snapshot-ingest stage drains the quote stream and then refreshes the
// best-price facts from the stored quotes. Every stage is idempotent over
// already-processed input, so re-running after a failure or cancel converges
// on the same warehouse state.
func BuildStages(
	odds *ingest.OddsIngestor,
	results *ingest.ResultsIngestor,
	norm *normalizer.Normalizer,
	link *linker.Linker,
	recon *reconciler.Reconciler,
	engine *analytics.Engine,
) []Stage {
	return []Stage{
		StageFunc{StageName: StageSnapshotIngest, Fn: func(ctx context.Context) (int, error) {
			stored, _, err := odds.Drain(ctx)
			if err != nil {
				return stored, err
			}
			upserted, err := norm.Rebuild(ctx)
			return stored + upserted, err
		}},
		StageFunc{StageName: StageResultsIngest, Fn: func(ctx context.Context) (int, error) {
			stored, _, err := results.Drain(ctx)
			return stored, err
		}},
		StageFunc{StageName: StageIdentityLink, Fn: link.Resolve},
		StageFunc{StageName: StageReconcile, Fn: recon.Rebuild},
		StageFunc{StageName: StageAnalyticsRebuild, Fn: engine.Rebuild},
	}
}
