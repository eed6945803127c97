package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mfi-cli/internal/resilience"
)

// persist writes computed scores and every ranking snapshot. Both writes are
// idempotent upserts/replacements, so a retried attempt leaves the same state.
func (r *Runner) persist(ctx context.Context, res *Result) error {
	if r.writer == nil {
		return eris.New("pipeline: persist requested without a writer")
	}

	scores := res.ComputedScores()
	if err := resilience.Do(ctx, r.retryFor("save computed scores"), func(ctx context.Context) error {
		return r.writer.SaveComputedScores(ctx, scores)
	}); err != nil {
		return eris.Wrap(err, "pipeline: save computed scores")
	}

	for _, snap := range res.Snapshots() {
		if err := resilience.Do(ctx, r.retryFor("save rankings"), func(ctx context.Context) error {
			return r.writer.SaveRankings(ctx, res.Cycle.ID, string(snap.Granularity), snap.ProductType, snap.Entries)
		}); err != nil {
			return eris.Wrapf(err, "pipeline: save %s rankings %s", snap.Granularity, snap.ProductType)
		}
	}

	zap.L().Info("pipeline: persisted results",
		zap.String("cycle_id", res.Cycle.ID),
		zap.Int("computed_scores", len(scores)),
	)
	return nil
}
