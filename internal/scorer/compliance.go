package scorer

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/mfi-cli/internal/model"
)

// PTMaxPoints is the fortification score of a fully compliant sample.
const PTMaxPoints = 20

// complianceBands are inclusive lower bounds on percentage compliance,
// highest first.
var complianceBands = []struct {
	min    float64
	points float64
}{
	{80, 20},
	{51, 10},
	{31, 5},
}

// CompliancePoints maps a micronutrient's percentage compliance to points.
func CompliancePoints(pct float64) float64 {
	for _, b := range complianceBands {
		if pct >= b.min {
			return b.points
		}
	}
	return 0
}

var fortificationMessages = []struct {
	min     float64
	message string
}{
	{20, "Fully Fortified"},
	{10, "Mostly Fortified"},
	{5, "Partly Fortified"},
}

// FortificationMessage grades a brand-level fortification score.
func FortificationMessage(score float64) string {
	for _, m := range fortificationMessages {
		if score >= m.min {
			return m.message
		}
	}
	return "Not Fortified"
}

// brandRule describes how a product type's micronutrient points combine.
type brandRule struct {
	// nutrients are the required micronutrients. For single-nutrient rules a
	// sample carrying exactly one other measurement falls back to it.
	nutrients []string
	divisor   float64
	single    bool
}

var brandRules = map[model.ProductType]brandRule{
	model.ProductFlour:     {nutrients: []string{model.VitaminA, model.VitaminB3, model.Iron}, divisor: 3},
	model.ProductSugar:     {nutrients: []string{model.VitaminA}, divisor: 1, single: true},
	model.ProductEdibleOil: {nutrients: []string{model.VitaminA}, divisor: 1, single: true},
}

// NutrientPoints returns the compliance points of each measured micronutrient
// in a test, keyed by name. Measurements without a positive expected value are
// skipped.
func NutrientPoints(test model.ProductTest) map[string]float64 {
	out := make(map[string]float64, len(test.Scores))
	for _, s := range test.Scores {
		pct, ok := s.PercentageCompliance()
		if !ok {
			continue
		}
		out[s.Name] = CompliancePoints(pct)
	}
	return out
}

// scoredNutrients resolves the rule's nutrients against a test's points.
// Flour counts absent nutrients as 0; the result is empty when nothing the
// rule needs was measured.
func scoredNutrients(rule brandRule, points map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(rule.nutrients))
	found := false
	for _, n := range rule.nutrients {
		p, ok := points[n]
		if ok {
			found = true
		}
		out[n] = p
	}
	if found {
		return out
	}
	if rule.single && len(points) == 1 {
		for n, p := range points {
			return map[string]float64{n: p}
		}
	}
	return nil
}

// BrandScore returns the brand-level fortification score of one product test:
// Flour averages its three required micronutrients, Sugar and Edible Oil score
// their single micronutrient directly. It returns nil when the test carries
// none of the required measurements.
func BrandScore(test model.ProductTest) (*float64, error) {
	rule, ok := brandRules[test.ProductType]
	if !ok {
		return nil, eris.Wrapf(ErrInvalidInput, "unknown product type %q", test.ProductType)
	}
	scored := scoredNutrients(rule, NutrientPoints(test))
	if scored == nil {
		return nil, nil
	}
	// points are whole numbers, so summation order does not matter
	var sum float64
	for _, p := range scored {
		sum += p
	}
	v := sum / rule.divisor
	return &v, nil
}

// Fortify derives the fortification grade of a test. A test without the
// required measurements is graded 0.
func Fortify(test model.ProductTest) (model.Fortification, error) {
	score, err := BrandScore(test)
	if err != nil {
		return model.Fortification{}, err
	}
	var v float64
	if score != nil {
		v = *score
	}
	return model.Fortification{Score: v, Message: FortificationMessage(v)}, nil
}

// IndustryWeight is the multiplier a micronutrient's points receive in
// industry-wide aggregates: Vitamin A in Edible Oil counts 0.6, everything
// else 0.2.
func IndustryWeight(pt model.ProductType, nutrient string) float64 {
	if pt == model.ProductEdibleOil && nutrient == model.VitaminA {
		return 0.6
	}
	return 0.2
}

// ProductTypeWeight is the share a product type's brand-level score takes in
// the cross-industry PT. Every type scores Vitamin A, so the weights are
// Edible Oil 0.6, Flour 0.2 and Sugar 0.2, summing to 1.
func ProductTypeWeight(pt model.ProductType) float64 {
	return IndustryWeight(pt, model.VitaminA)
}

// IndustryPT combines brand-level PT scores into one cross-industry PT on the
// 0–PTMaxPoints scale: the mean brand PT of each product type, weighted by
// ProductTypeWeight. Weights are renormalised over the product types that have
// data; the result is nil when none do.
func IndustryPT(byType map[model.ProductType][]*float64) *float64 {
	var sum, weights float64
	for _, pt := range model.ProductTypes {
		m := mean(byType[pt])
		if m == nil {
			continue
		}
		w := ProductTypeWeight(pt)
		sum += w * *m
		weights += w
	}
	if weights == 0 {
		return nil
	}
	v := sum / weights
	return &v
}

// LatestTests keeps the most recent test per brand by sample production date.
// Equal dates resolve to the larger test id.
func LatestTests(tests []model.ProductTest) map[string]model.ProductTest {
	out := make(map[string]model.ProductTest)
	for _, t := range tests {
		prev, ok := out[t.BrandID]
		if !ok || t.SampleProductionDate.After(prev.SampleProductionDate) ||
			(t.SampleProductionDate.Equal(prev.SampleProductionDate) && t.ID > prev.ID) {
			out[t.BrandID] = t
		}
	}
	return out
}
