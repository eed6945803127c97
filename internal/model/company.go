package model

import (
	"strings"
	"time"
)

// CompanyTier classifies how much of the questionnaire a company is assessed on.
type CompanyTier string

const (
	CompanyTier1 CompanyTier = "TIER_1" // Tier-1 questions only
	CompanyTier3 CompanyTier = "TIER_3" // full questionnaire
)

// Valid reports whether t is a known company tier.
func (t CompanyTier) Valid() bool {
	return t == CompanyTier1 || t == CompanyTier3
}

// Allows reports whether a company of tier t is expected to answer questions of tier q.
// A Tier-1 company answers only Tier-1 questions; a Tier-3 company answers all tiers.
func (t CompanyTier) Allows(q Tier) bool {
	switch t {
	case CompanyTier1:
		return q == Tier1
	case CompanyTier3:
		return q.Valid()
	default:
		return false
	}
}

// Company is an assessed food producer.
type Company struct {
	ID     string      `json:"id" yaml:"id"`
	Name   string      `json:"name" yaml:"name"`
	Tier   CompanyTier `json:"tier" yaml:"tier"`
	Active bool        `json:"active" yaml:"active"`
	Size   string      `json:"size,omitempty" yaml:"size"`
}

// Cycle is one assessment period. Exactly one cycle is active at a time.
type Cycle struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	StartDate time.Time  `json:"start_date" yaml:"start_date"`
	EndDate   time.Time  `json:"end_date" yaml:"end_date"`
	Active    bool       `json:"active" yaml:"active"`
	LockedAt  *time.Time `json:"locked_at,omitempty" yaml:"locked_at"`
}

// IsLocked reports whether SAT answers for the cycle are frozen at time now.
func (c Cycle) IsLocked(now time.Time) bool {
	return c.LockedAt != nil && now.After(*c.LockedAt)
}

// ProductType is the fortified food vehicle a brand sells.
type ProductType string

const (
	ProductFlour     ProductType = "Flour"
	ProductSugar     ProductType = "Sugar"
	ProductEdibleOil ProductType = "Edible Oil"
)

// ProductTypes lists all product types in display order.
var ProductTypes = []ProductType{ProductFlour, ProductSugar, ProductEdibleOil}

// Valid reports whether p is a known product type.
func (p ProductType) Valid() bool {
	switch p {
	case ProductFlour, ProductSugar, ProductEdibleOil:
		return true
	}
	return false
}

// ParseProductType matches s against the known product types, ignoring case
// and treating '-' and '_' as spaces, so "edible-oil" resolves to Edible Oil.
func ParseProductType(s string) (ProductType, bool) {
	norm := strings.NewReplacer("-", " ", "_", " ").Replace(strings.TrimSpace(s))
	for _, p := range ProductTypes {
		if strings.EqualFold(norm, string(p)) {
			return p, true
		}
	}
	return "", false
}

// Brand is a product line owned by a company.
type Brand struct {
	ID          string      `json:"id" yaml:"id"`
	CompanyID   string      `json:"company_id" yaml:"company_id"`
	ProductType ProductType `json:"product_type" yaml:"product_type"`
	Name        string      `json:"name" yaml:"name"`
	Active      bool        `json:"active" yaml:"active"`
}
