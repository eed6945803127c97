package model

import (
	"math"
	"time"
)

// Micronutrient names as recorded by the lab.
const (
	VitaminA  = "Vitamin A"
	VitaminB3 = "Vitamin B3"
	Iron      = "Iron"
)

// MicroNutrientScore is one lab measurement of a micronutrient in a sample.
type MicroNutrientScore struct {
	ID                     string  `json:"id" yaml:"id"`
	ProductMicroNutrientID string  `json:"product_micro_nutrient_id" yaml:"product_micro_nutrient_id"`
	Name                   string  `json:"name" yaml:"name"`
	Value                  float64 `json:"value" yaml:"value"`
	ExpectedValue          float64 `json:"expected_value" yaml:"expected_value"`
}

// PercentageCompliance returns round(value/expected*100). The second return is
// false when the expected value is not positive.
func (m MicroNutrientScore) PercentageCompliance() (float64, bool) {
	if m.ExpectedValue <= 0 {
		return 0, false
	}
	return math.Round(m.Value / m.ExpectedValue * 100), true
}

// Fortification is the derived fortification grade of a product test.
type Fortification struct {
	Score   float64 `json:"score"`
	Message string  `json:"message"`
}

// ProductTest is a laboratory test of one brand sample.
type ProductTest struct {
	ID                   string               `json:"id" yaml:"id"`
	BrandID              string               `json:"brand_id" yaml:"brand_id"`
	CompanyID            string               `json:"company_id" yaml:"company_id"`
	CycleID              string               `json:"cycle_id" yaml:"cycle_id"`
	ProductType          ProductType          `json:"product_type" yaml:"product_type"`
	SampleProductionDate time.Time            `json:"sample_production_date" yaml:"sample_production_date"`
	SampleCollectionDate time.Time            `json:"sample_collection_date" yaml:"sample_collection_date"`
	BatchNumber          string               `json:"batch_number,omitempty" yaml:"batch_number"`
	CollectorName        string               `json:"collector_name,omitempty" yaml:"collector_name"`
	Scores               []MicroNutrientScore `json:"scores" yaml:"scores"`
	Fortification        *Fortification       `json:"fortification,omitempty" yaml:"-"`
}
