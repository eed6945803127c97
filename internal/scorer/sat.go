package scorer

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/mfi-cli/internal/model"
)

// percentageScale is the full-marks fraction of the legacy percentage table.
const percentageScale = 3.33

// percentageFractions are the per-response fractions of percentageScale used
// for category rollups. PARTLY_MET resolves through the table's policy.
var percentageFractions = map[model.Response]float64{
	model.NotMet:    0.5,
	model.PartlyMet: 1.8,
	model.MostlyMet: 2.5,
	model.FullyMet:  3.33,
}

// RawPoints returns the point value persisted with an individual answer.
func (t TierWeightTable) RawPoints(tier model.Tier, r model.Response) (float64, error) {
	return t.Cell(tier, r)
}

// PercentagePoints returns the normalised percentage of an answer for category
// rollups. When fullVersion is true the company was assessed beyond the
// Tier-1-only set and the percentage is scaled by the tier coefficient, so the
// tiers of one category add up to at most 100.
func (t TierWeightTable) PercentagePoints(tier model.Tier, r model.Response, fullVersion bool) (float64, error) {
	tc, err := t.TierCoefficient(tier)
	if err != nil {
		return 0, err
	}
	if !r.Valid() {
		return 0, eris.Wrapf(ErrInvalidInput, "unknown response %q", r)
	}

	key := r
	if r == model.PartlyMet && t.policy == PartlyMetLegacy {
		key = model.NotMet
	}
	pct := percentageFractions[key] / percentageScale * 100
	if fullVersion {
		pct *= tc
	}
	return pct, nil
}
