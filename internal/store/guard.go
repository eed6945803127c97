package store

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mfi-cli/internal/model"
)

// Invariant checks shared by every Loader implementation. They only use the
// Reader side so SQLite and Postgres enforce identical rules.

// checkCompanyTier rejects a tier change once the active cycle holds computed
// scores for the company.
func checkCompanyTier(ctx context.Context, r Reader, c model.Company) error {
	if !c.Tier.Valid() {
		return eris.Errorf("store: company %s has invalid tier %q", c.ID, c.Tier)
	}
	existing, err := r.GetCompany(ctx, c.ID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.Tier == c.Tier {
		return nil
	}

	cycle, err := r.GetActiveCycle(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	computed, err := r.ListComputedScores(ctx, cycle.ID, c.ID)
	if err != nil {
		return err
	}
	if len(computed) > 0 {
		return eris.Wrapf(ErrTierLocked, "company %s has computed scores in cycle %s", c.ID, cycle.ID)
	}
	return nil
}

// checkAnswer validates an answer and rejects submissions after the cycle lock.
func checkAnswer(ctx context.Context, r Reader, a model.Answer, now time.Time) error {
	if a.Type != model.ScoreSAT && a.Type != model.ScoreIVC {
		return eris.Errorf("store: answer %s has type %q, want SAT or IVC", a.ID, a.Type)
	}
	if !a.Tier.Valid() || !a.Response.Valid() {
		return eris.Errorf("store: answer %s has tier %q response %q", a.ID, a.Tier, a.Response)
	}
	cycle, err := r.GetCycle(ctx, a.CycleID)
	if err != nil {
		return eris.Wrapf(err, "store: answer %s cycle %s", a.ID, a.CycleID)
	}
	if cycle.IsLocked(now) {
		return eris.Wrapf(ErrCycleLocked, "cycle %s locked at %s", cycle.ID, cycle.LockedAt.Format(time.RFC3339))
	}
	return nil
}
