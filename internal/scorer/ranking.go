package scorer

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mfi-cli/internal/model"
)

// EntityKind is what a ranking entry refers to.
type EntityKind string

const (
	EntityCompany EntityKind = "company"
	EntityBrand   EntityKind = "brand"
)

// Granularity selects the population a ranking is computed over.
type Granularity string

const (
	GranularityAll         Granularity = "all"
	GranularityProductType Granularity = "product-type"
	GranularityBrand       Granularity = "brand"
)

// RankEntry is one ranked company or brand.
type RankEntry struct {
	EntityID    string            `json:"entity_id"`
	EntityName  string            `json:"entity_name"`
	Kind        EntityKind        `json:"kind"`
	CompanyID   string            `json:"company_id"`
	CompanyName string            `json:"company_name"`
	CompanyTier model.CompanyTier `json:"company_tier"`
	ProductType model.ProductType `json:"product_type,omitempty"`
	MFI         float64           `json:"mfi"`
	Rank        int               `json:"rank"`
	Composite   Composite         `json:"composite"`
}

// Rank sorts entries by MFI descending and assigns ranks. Entries whose
// composite is incomplete rank after every complete one, so a missing stream
// never ties with a real score. Equal scores share the previous rank; the next
// distinct score takes its 1-based position, so [90, 90, 80] ranks [1, 1, 3].
// Ties keep their input order. The input slice is not modified.
func Rank(entries []RankEntry) []RankEntry {
	out := make([]RankEntry, len(entries))
	copy(out, entries)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Composite.Complete != out[j].Composite.Complete {
			return out[i].Composite.Complete
		}
		return out[i].MFI > out[j].MFI
	})

	for i := range out {
		switch {
		case i == 0:
			out[i].Rank = 1
		case out[i].MFI == out[i-1].MFI && out[i].Composite.Complete == out[i-1].Composite.Complete:
			out[i].Rank = out[i-1].Rank
		default:
			out[i].Rank = i + 1
		}
	}
	return out
}

// CompanyEntries converts company results into unranked entries ordered by id.
func CompanyEntries(results []CompanyResult) []RankEntry {
	out := make([]RankEntry, 0, len(results))
	for _, r := range results {
		out = append(out, RankEntry{
			EntityID:    r.Company.ID,
			EntityName:  r.Company.Name,
			Kind:        EntityCompany,
			CompanyID:   r.Company.ID,
			CompanyName: r.Company.Name,
			CompanyTier: r.Company.Tier,
			MFI:         r.Composite.MFI,
			Composite:   r.Composite,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out
}

// BrandEntries converts the brands of productType into unranked entries
// ordered by id. An empty productType selects every brand.
func BrandEntries(results []CompanyResult, productType model.ProductType) []RankEntry {
	var out []RankEntry
	for _, r := range results {
		for _, b := range r.Brands {
			if productType != "" && b.Brand.ProductType != productType {
				continue
			}
			out = append(out, RankEntry{
				EntityID:    b.Brand.ID,
				EntityName:  b.Brand.Name,
				Kind:        EntityBrand,
				CompanyID:   r.Company.ID,
				CompanyName: r.Company.Name,
				CompanyTier: r.Company.Tier,
				ProductType: b.Brand.ProductType,
				MFI:         b.Composite.MFI,
				Composite:   b.Composite,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out
}

// RankIndustries ranks every company across all industries.
func RankIndustries(results []CompanyResult) []RankEntry {
	return Rank(CompanyEntries(results))
}

// RankProductType ranks the brands of one product type.
func RankProductType(results []CompanyResult, productType model.ProductType) ([]RankEntry, error) {
	if !productType.Valid() {
		return nil, eris.Wrapf(ErrInvalidInput, "unknown product type %q", productType)
	}
	return Rank(BrandEntries(results, productType)), nil
}

// BrandComparison sets one brand against the average of its industry.
type BrandComparison struct {
	Brand              RankEntry `json:"brand"`
	Population         int       `json:"population"`
	IndustryAverageMFI float64   `json:"industry_average_mfi"`
	Delta              float64   `json:"delta"`
	Industry           Composite `json:"industry"`
}

// CompareBrand ranks a brand among the brands of its product type and reports
// the industry average next to it.
func (e *Engine) CompareBrand(results []CompanyResult, brandID string) (BrandComparison, error) {
	var productType model.ProductType
	for _, r := range results {
		for _, b := range r.Brands {
			if b.Brand.ID == brandID {
				productType = b.Brand.ProductType
			}
		}
	}
	if productType == "" {
		return BrandComparison{}, eris.Wrapf(ErrNotFound, "brand %s", brandID)
	}

	ranked, err := RankProductType(results, productType)
	if err != nil {
		return BrandComparison{}, err
	}

	var cmp BrandComparison
	var sum float64
	for _, entry := range ranked {
		sum += entry.MFI
		if entry.EntityID == brandID {
			cmp.Brand = entry
		}
	}
	cmp.Population = len(ranked)
	cmp.IndustryAverageMFI = round2(sum / float64(len(ranked)))
	cmp.Delta = round2(cmp.Brand.MFI - cmp.IndustryAverageMFI)
	cmp.Industry = e.IndustryComposite(results, productType)
	return cmp, nil
}
