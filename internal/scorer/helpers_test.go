package scorer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/mfi-cli/internal/model"
)

// testTree has two weighted roots: gov (40) with c1 and c2, prod (60) with c3.
func testTree(t *testing.T) *CategoryTree {
	t.Helper()
	tree, err := NewCategoryTree([]model.Category{
		{ID: "gov", Name: "Governance", Weight: 40, SortOrder: 1},
		{ID: "prod", Name: "Production", Weight: 60, SortOrder: 2},
		{ID: "c1", ParentID: "gov", Name: "Board oversight", SortOrder: 1},
		{ID: "c2", ParentID: "gov", Name: "Policies", SortOrder: 2},
		{ID: "c3", ParentID: "prod", Name: "Quality control", SortOrder: 1},
	})
	require.NoError(t, err)
	return tree
}

var baseTime = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func answer(id, category string, tier model.Tier, r model.Response) model.Answer {
	return model.Answer{
		ID:         id,
		Type:       model.ScoreSAT,
		CompanyID:  "co-1",
		CycleID:    "cy-1",
		CategoryID: category,
		Tier:       tier,
		Response:   r,
		Approved:   true,
		UpdatedAt:  baseTime,
	}
}

func nutrient(name string, value, expected float64) model.MicroNutrientScore {
	return model.MicroNutrientScore{Name: name, Value: value, ExpectedValue: expected}
}

func flourTest(id, brandID string, produced time.Time, a, b3, iron float64) model.ProductTest {
	return model.ProductTest{
		ID:                   id,
		BrandID:              brandID,
		CompanyID:            "co-1",
		CycleID:              "cy-1",
		ProductType:          model.ProductFlour,
		SampleProductionDate: produced,
		Scores: []model.MicroNutrientScore{
			nutrient(model.VitaminA, a, 100),
			nutrient(model.VitaminB3, b3, 100),
			nutrient(model.Iron, iron, 100),
		},
	}
}
