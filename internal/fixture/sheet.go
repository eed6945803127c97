package fixture

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/mfi-cli/internal/model"
)

// labColumns are the required headers of a lab results sheet. One row holds
// one micronutrient measurement; rows sharing test_id form one ProductTest.
var labColumns = []string{
	"test_id", "brand_id", "company_id", "cycle_id", "product_type",
	"sample_production_date", "nutrient", "value", "expected_value",
}

// ReadRows reads every row of a .csv or .xlsx file. For workbooks only the
// first sheet is read.
func ReadRows(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "fixture: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return readCSV(f)
	case ".xlsx":
		return readXLSX(path)
	default:
		return nil, eris.Errorf("fixture: unsupported sheet type %q", filepath.Ext(path))
	}
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "fixture: read csv")
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "fixture: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("fixture: %s has no sheets", path)
	}

	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = strings.TrimSpace(cell.String())
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// ParseLabResults groups measurement rows into product tests ordered by id.
// The first row must be a header containing labColumns in any order.
func ParseLabResults(rows [][]string) ([]model.ProductTest, error) {
	if len(rows) == 0 {
		return nil, eris.New("fixture: lab results sheet is empty")
	}

	col := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range labColumns {
		if _, ok := col[name]; !ok {
			return nil, eris.Errorf("fixture: lab results missing column %q", name)
		}
	}

	tests := make(map[string]*model.ProductTest)
	for n, row := range rows[1:] {
		line := n + 2
		get := func(name string) string {
			if i := col[name]; i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}
		if strings.Join(row, "") == "" {
			continue
		}

		id := get("test_id")
		if id == "" {
			return nil, eris.Errorf("fixture: row %d has no test_id", line)
		}
		value, err := strconv.ParseFloat(get("value"), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "fixture: row %d value", line)
		}
		expected, err := strconv.ParseFloat(get("expected_value"), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "fixture: row %d expected_value", line)
		}

		t, ok := tests[id]
		if !ok {
			pt, ok := model.ParseProductType(get("product_type"))
			if !ok {
				return nil, eris.Errorf("fixture: row %d unknown product type %q", line, get("product_type"))
			}
			produced, err := time.Parse(time.DateOnly, get("sample_production_date"))
			if err != nil {
				return nil, eris.Wrapf(err, "fixture: row %d sample_production_date", line)
			}
			t = &model.ProductTest{
				ID:                   id,
				BrandID:              get("brand_id"),
				CompanyID:            get("company_id"),
				CycleID:              get("cycle_id"),
				ProductType:          pt,
				SampleProductionDate: produced,
			}
			tests[id] = t
		}
		t.Scores = append(t.Scores, model.MicroNutrientScore{
			Name:          get("nutrient"),
			Value:         value,
			ExpectedValue: expected,
		})
	}

	ids := make([]string, 0, len(tests))
	for id := range tests {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]model.ProductTest, 0, len(ids))
	for _, id := range ids {
		out = append(out, *tests[id])
	}
	return out, nil
}
