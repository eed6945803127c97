package scorer

import "math"

// Components are the three stream aggregates feeding the MFI. SAT and IEG are
// percentages (0–100); PT is fortification points (0–PTMaxPoints). A nil
// component has no data.
type Components struct {
	SAT *float64 `json:"sat"`
	IEG *float64 `json:"ieg"`
	PT  *float64 `json:"pt"`
}

// Composite is the MFI breakdown for a company, brand or industry.
type Composite struct {
	SAT         *float64 `json:"sat"`
	IEG         *float64 `json:"ieg"`
	PT          *float64 `json:"pt"`
	SATWeighted float64  `json:"sat_weighted"`
	IEGWeighted float64  `json:"ieg_weighted"`
	PTWeighted  float64  `json:"pt_weighted"`
	MFI         float64  `json:"mfi"`
	Complete    bool     `json:"complete"`
}

// Compose combines the components into the MFI:
//
//	MFI = PT/PTMaxPoints*w.PT + IEG/100*w.IEG + SAT/100*w.SAT
//
// PT arrives on its native 0–20 scale and, with the default 20% weight, is
// added as-is. Components are clamped to their domains. A missing component
// contributes 0 and marks the composite incomplete.
func (w Weights) Compose(c Components) Composite {
	out := Composite{
		SAT:      clampPtr(c.SAT, 100),
		IEG:      clampPtr(c.IEG, 100),
		PT:       clampPtr(c.PT, PTMaxPoints),
		Complete: c.SAT != nil && c.IEG != nil && c.PT != nil,
	}
	if out.SAT != nil {
		out.SATWeighted = *out.SAT / 100 * w.SAT
	}
	if out.IEG != nil {
		out.IEGWeighted = *out.IEG / 100 * w.IEG
	}
	if out.PT != nil {
		out.PTWeighted = *out.PT / PTMaxPoints * w.PT
	}
	out.MFI = round2(out.PTWeighted + out.IEGWeighted + out.SATWeighted)
	return out
}

// tierPresence keys the SAT selection table: whether each tier total is
// present and non-zero.
type tierPresence struct {
	tier1 bool
	tier3 bool
}

var satSelection = map[tierPresence]func(TierTotals) *float64{
	{tier1: true, tier3: false}: func(t TierTotals) *float64 { return t.Tier1 },
	{tier1: false, tier3: true}: func(t TierTotals) *float64 { return t.Tier3 },
	{tier1: true, tier3: true}: func(t TierTotals) *float64 {
		v := (*t.Tier1 + *t.Tier3) / 2
		return &v
	},
	{tier1: false, tier3: false}: func(t TierTotals) *float64 {
		// Only zeros or nothing: report a zero total if one exists.
		if t.Tier1 != nil {
			return t.Tier1
		}
		return t.Tier3
	},
}

// SelectAggregate picks the stream aggregate from the tier totals:
//
//	tier-1 | tier-3 | aggregate
//	  yes  |   no   | tier-1 total
//	  no   |  yes   | tier-3 total
//	  yes  |  yes   | mean of both
//	  no   |   no   | nil (or a zero total)
func SelectAggregate(t TierTotals) *float64 {
	key := tierPresence{tier1: nonZero(t.Tier1), tier3: nonZero(t.Tier3)}
	return satSelection[key](t)
}

func nonZero(v *float64) bool {
	return v != nil && *v != 0
}

func clampPtr(v *float64, upper float64) *float64 {
	if v == nil || math.IsNaN(*v) {
		return nil
	}
	c := math.Min(math.Max(*v, 0), upper)
	return &c
}

// round2 rounds to 2 decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// mean returns the average of the present values, or nil.
func mean(values []*float64) *float64 {
	var sum float64
	n := 0
	for _, v := range values {
		if v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	m := sum / float64(n)
	return &m
}

// Float returns a pointer to v. Convenience for callers building Components.
func Float(v float64) *float64 {
	return &v
}
