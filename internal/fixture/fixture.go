// Package fixture imports assessment datasets into a store. Datasets are YAML
// documents holding cycles, companies, categories, brands, answers,
// assessment scores and product tests; lab results can also be read from
// CSV or XLSX sheets.
package fixture

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/mfi-cli/internal/model"
	"github.com/sells-group/mfi-cli/internal/scorer"
	"github.com/sells-group/mfi-cli/internal/store"
)

// Dataset is one importable document.
type Dataset struct {
	Cycles           []model.Cycle           `yaml:"cycles"`
	Companies        []model.Company         `yaml:"companies"`
	Categories       []model.Category        `yaml:"categories"`
	Brands           []model.Brand           `yaml:"brands"`
	Answers          []model.Answer          `yaml:"answers"`
	AssessmentScores []model.AssessmentScore `yaml:"assessment_scores"`
	ProductTests     []model.ProductTest     `yaml:"product_tests"`
}

// Stats counts the records written by Load.
type Stats struct {
	Cycles           int `json:"cycles"`
	Companies        int `json:"companies"`
	Categories       int `json:"categories"`
	Brands           int `json:"brands"`
	Answers          int `json:"answers"`
	AssessmentScores int `json:"assessment_scores"`
	ProductTests     int `json:"product_tests"`
}

// Parse decodes a dataset. Unknown keys are rejected so typos surface early.
func Parse(r io.Reader) (*Dataset, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var ds Dataset
	if err := dec.Decode(&ds); err != nil {
		if errors.Is(err, io.EOF) {
			return &ds, nil
		}
		return nil, eris.Wrap(err, "fixture: decode yaml")
	}
	return &ds, nil
}

// ParseFile reads and decodes the dataset at path.
func ParseFile(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fixture: read %s", path)
	}
	ds, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrapf(err, "fixture: parse %s", path)
	}
	return ds, nil
}

// Load writes the dataset in dependency order. Answer points are derived
// from the tier weight table, so fixtures only declare tier and response.
// Load stops at the first rejected record.
func Load(ctx context.Context, l store.Loader, ds *Dataset, table scorer.TierWeightTable) (Stats, error) {
	var st Stats

	for _, c := range ds.Cycles {
		if err := l.UpsertCycle(ctx, c); err != nil {
			return st, eris.Wrapf(err, "fixture: cycle %s", c.ID)
		}
		st.Cycles++
	}
	for _, c := range ds.Companies {
		if err := l.UpsertCompany(ctx, c); err != nil {
			return st, eris.Wrapf(err, "fixture: company %s", c.ID)
		}
		st.Companies++
	}
	for _, c := range ds.Categories {
		if err := l.UpsertCategory(ctx, c); err != nil {
			return st, eris.Wrapf(err, "fixture: category %s", c.ID)
		}
		st.Categories++
	}
	for _, b := range ds.Brands {
		if err := l.UpsertBrand(ctx, b); err != nil {
			return st, eris.Wrapf(err, "fixture: brand %s", b.ID)
		}
		st.Brands++
	}
	for _, a := range ds.Answers {
		points, err := table.RawPoints(a.Tier, a.Response)
		if err != nil {
			return st, eris.Wrapf(err, "fixture: answer %s points", a.ID)
		}
		a.Points = points
		if _, err := l.UpsertAnswer(ctx, a); err != nil {
			return st, eris.Wrapf(err, "fixture: answer %s", a.ID)
		}
		st.Answers++
	}
	for _, s := range ds.AssessmentScores {
		if err := l.UpsertAssessmentScore(ctx, s); err != nil {
			return st, eris.Wrapf(err, "fixture: assessment score %s", s.ID)
		}
		st.AssessmentScores++
	}
	for _, t := range ds.ProductTests {
		if err := l.UpsertProductTest(ctx, t); err != nil {
			return st, eris.Wrapf(err, "fixture: product test %s", t.ID)
		}
		st.ProductTests++
	}

	zap.L().Info("fixture: dataset loaded",
		zap.Int("companies", st.Companies),
		zap.Int("answers", st.Answers),
		zap.Int("product_tests", st.ProductTests),
	)
	return st, nil
}
