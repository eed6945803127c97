package fixture

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/mfi-cli/internal/model"
	"github.com/sells-group/mfi-cli/internal/scorer"
	"github.com/sells-group/mfi-cli/internal/store"
	"github.com/sells-group/mfi-cli/internal/store/mocks"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "fixture.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestParseFile_Sample(t *testing.T) {
	ds, err := ParseFile("testdata/sample.yaml")
	require.NoError(t, err)

	assert.Len(t, ds.Cycles, 2)
	assert.Len(t, ds.Companies, 3)
	assert.Len(t, ds.Categories, 10)
	assert.Len(t, ds.Answers, 13)
	require.Len(t, ds.ProductTests, 4)
	assert.Equal(t, model.ProductEdibleOil, ds.ProductTests[2].ProductType)
	require.NotNil(t, ds.Cycles[0].LockedAt)
	assert.Equal(t, 2025, ds.Cycles[0].LockedAt.Year())
	assert.Equal(t, "Procurement & Suppliers", ds.Categories[2].Name)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse(strings.NewReader("companys:\n  - {id: x}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode yaml")
}

func TestParse_Empty(t *testing.T) {
	ds, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, ds.Companies)
}

func TestLoad_Sample(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	ds, err := ParseFile("testdata/sample.yaml")
	require.NoError(t, err)

	stats, err := Load(ctx, st, ds, scorer.NewTierWeightTable(scorer.PartlyMetLegacy))
	require.NoError(t, err)
	assert.Equal(t, Stats{
		Cycles: 2, Companies: 3, Categories: 10, Brands: 3,
		Answers: 13, AssessmentScores: 12, ProductTests: 4,
	}, stats)

	active, err := st.GetActiveCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cy-2025", active.ID)

	answers, err := st.ListAnswers(ctx, store.AnswerFilter{CompanyID: "acme", Type: model.ScoreSAT})
	require.NoError(t, err)
	require.Len(t, answers, 7)
	points := map[string]float64{}
	for _, a := range answers {
		points[a.ID] = a.Points
	}
	assert.InDelta(t, 6.0, points["a01"], 1e-9)
	assert.InDelta(t, 1.875, points["a02"], 1e-9)
	assert.InDelta(t, 0.225, points["a04"], 1e-9, "legacy PARTLY_MET uses the NOT_MET coefficient")

	tests, err := st.ListProductTests(ctx, store.TestFilter{BrandID: "acme-flour"})
	require.NoError(t, err)
	require.Len(t, tests, 2)
	assert.Len(t, tests[1].Scores, 3)

	// Loading twice updates in place.
	_, err = Load(ctx, st, ds, scorer.NewTierWeightTable(scorer.PartlyMetLegacy))
	require.NoError(t, err)
	answers, err = st.ListAnswers(ctx, store.AnswerFilter{CycleID: "cy-2025"})
	require.NoError(t, err)
	assert.Len(t, answers, 13)
}

func TestLoad_RejectsLockedCycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	ds, err := ParseFile("testdata/sample.yaml")
	require.NoError(t, err)
	ds.Answers = append(ds.Answers, model.Answer{
		ID: "late", Type: model.ScoreSAT, CompanyID: "acme", CycleID: "cy-2024", CategoryID: "qc",
		Tier: model.Tier1, Response: model.FullyMet, Approved: true,
	})

	stats, err := Load(ctx, st, ds, scorer.NewTierWeightTable(scorer.PartlyMetLegacy))
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrCycleLocked)
	assert.Equal(t, 13, stats.Answers)
	assert.Zero(t, stats.ProductTests)
}

func TestLoad_StopsOnLoaderError(t *testing.T) {
	l := mocks.NewMockStore(t)
	l.On("UpsertCycle", mock.Anything, mock.Anything).Return(nil)
	l.On("UpsertCompany", mock.Anything, mock.Anything).Return(store.ErrTierLocked).Once()

	ds := &Dataset{
		Cycles:    []model.Cycle{{ID: "cy-1", Active: true}},
		Companies: []model.Company{{ID: "co-1", Tier: model.CompanyTier1}, {ID: "co-2", Tier: model.CompanyTier1}},
	}
	stats, err := Load(context.Background(), l, ds, scorer.NewTierWeightTable(""))
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrTierLocked)
	assert.Equal(t, Stats{Cycles: 1}, stats)
}

func TestLoad_InvalidAnswer(t *testing.T) {
	l := mocks.NewMockStore(t)
	ds := &Dataset{Answers: []model.Answer{{ID: "bad", Tier: "TIER_7", Response: model.FullyMet}}}

	_, err := Load(context.Background(), l, ds, scorer.NewTierWeightTable(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "answer bad points")
}

func TestReadRows_CSV(t *testing.T) {
	rows, err := ReadRows("testdata/lab_results.csv")
	require.NoError(t, err)
	require.Len(t, rows, 5)

	tests, err := ParseLabResults(rows)
	require.NoError(t, err)
	require.Len(t, tests, 2)

	assert.Equal(t, "t05", tests[0].ID)
	assert.Equal(t, model.ProductSugar, tests[0].ProductType)
	assert.Equal(t, "t10", tests[1].ID)
	assert.Len(t, tests[1].Scores, 3)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), tests[1].SampleProductionDate)
	assert.InDelta(t, 88, tests[1].Scores[1].Value, 1e-9)
}

func TestReadRows_XLSX(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Lab")
	require.NoError(t, err)
	for _, data := range [][]string{
		labColumns,
		{"t20", "bolt-sugar", "bolt", "cy-2025", "Sugar", "2025-05-01", "Vitamin A", "9", "10"},
	} {
		row := sheet.AddRow()
		for _, c := range data {
			row.AddCell().SetString(c)
		}
	}
	path := filepath.Join(t.TempDir(), "lab.xlsx")
	require.NoError(t, f.Save(path))

	rows, err := ReadRows(path)
	require.NoError(t, err)
	tests, err := ParseLabResults(rows)
	require.NoError(t, err)
	require.Len(t, tests, 1)
	assert.Equal(t, "bolt-sugar", tests[0].BrandID)
	assert.InDelta(t, 9, tests[0].Scores[0].Value, 1e-9)
}

func TestReadRows_Unsupported(t *testing.T) {
	_, err := ReadRows("results.pdf")
	assert.Error(t, err)
}

func TestParseLabResults_Errors(t *testing.T) {
	header := append([]string(nil), labColumns...)
	tests := []struct {
		name string
		rows [][]string
		want string
	}{
		{"empty", nil, "empty"},
		{"missing column", [][]string{{"test_id"}}, "missing column"},
		{"bad value", [][]string{header, {"t1", "b", "c", "cy", "Flour", "2025-01-01", "Iron", "x", "1"}}, "value"},
		{"bad product", [][]string{header, {"t1", "b", "c", "cy", "Salt", "2025-01-01", "Iron", "1", "1"}}, "unknown product type"},
		{"bad date", [][]string{header, {"t1", "b", "c", "cy", "Flour", "01/02/2025", "Iron", "1", "1"}}, "sample_production_date"},
		{"no id", [][]string{header, {"", "b", "c", "cy", "Flour", "2025-01-01", "Iron", "1", "1"}}, "no test_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLabResults(tt.rows)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
