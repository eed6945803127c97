package scorer

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/mfi-cli/internal/model"
)

// MaxPoints is the point value of a fully met Tier-1-weighted answer before tier scaling.
const MaxPoints = 10

// PartlyMetPolicy selects the coefficient used for PARTLY_MET answers.
//
// The deployed table scores PARTLY_MET with the NOT_MET coefficient for every
// tier even though 0.54 is declared for it. Whether that is intended is still
// open with the domain owners, so both readings are available and legacy is
// the default.
type PartlyMetPolicy string

const (
	PartlyMetLegacy   PartlyMetPolicy = "legacy"
	PartlyMetDeclared PartlyMetPolicy = "declared"
)

var tierCoefficients = map[model.Tier]float64{
	model.Tier1: 0.60,
	model.Tier2: 0.25,
	model.Tier3: 0.15,
}

var responseCoefficients = map[model.Response]float64{
	model.NotMet:    0.15,
	model.PartlyMet: 0.54,
	model.MostlyMet: 0.75,
	model.FullyMet:  1.00,
}

// TierWeightTable is the static lookup of scoring coefficients.
type TierWeightTable struct {
	policy PartlyMetPolicy
}

// NewTierWeightTable returns a table applying the given PARTLY_MET policy.
func NewTierWeightTable(policy PartlyMetPolicy) TierWeightTable {
	if policy == "" {
		policy = PartlyMetLegacy
	}
	return TierWeightTable{policy: policy}
}

// Policy returns the PARTLY_MET policy in effect.
func (t TierWeightTable) Policy() PartlyMetPolicy {
	return t.policy
}

// TierCoefficient returns the weight of a question tier.
func (t TierWeightTable) TierCoefficient(tier model.Tier) (float64, error) {
	c, ok := tierCoefficients[tier]
	if !ok {
		return 0, eris.Wrapf(ErrInvalidInput, "unknown tier %q", tier)
	}
	return c, nil
}

// DeclaredResponseCoefficient returns the coefficient listed for a response,
// ignoring the PARTLY_MET policy.
func (t TierWeightTable) DeclaredResponseCoefficient(r model.Response) (float64, error) {
	c, ok := responseCoefficients[r]
	if !ok {
		return 0, eris.Wrapf(ErrInvalidInput, "unknown response %q", r)
	}
	return c, nil
}

// ResponseCoefficient returns the coefficient actually applied to a response.
func (t TierWeightTable) ResponseCoefficient(r model.Response) (float64, error) {
	if r == model.PartlyMet && t.policy == PartlyMetLegacy {
		return responseCoefficients[model.NotMet], nil
	}
	return t.DeclaredResponseCoefficient(r)
}

// Cell returns MaxPoints * tierCoefficient * responseCoefficient.
func (t TierWeightTable) Cell(tier model.Tier, r model.Response) (float64, error) {
	tc, err := t.TierCoefficient(tier)
	if err != nil {
		return 0, err
	}
	rc, err := t.ResponseCoefficient(r)
	if err != nil {
		return 0, err
	}
	return MaxPoints * tc * rc, nil
}
