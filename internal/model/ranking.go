package model

import "time"

// RankingEntry is one persisted row of a ranking snapshot. A snapshot is
// identified by cycle, granularity and product type (empty for cross-industry
// and company rankings).
type RankingEntry struct {
	CycleID     string      `json:"cycle_id"`
	Granularity string      `json:"granularity"`
	ProductType ProductType `json:"product_type,omitempty"`
	EntityID    string      `json:"entity_id"`
	EntityName  string      `json:"entity_name"`
	Kind        string      `json:"kind"`
	CompanyID   string      `json:"company_id"`
	Rank        int         `json:"rank"`
	MFI         float64     `json:"mfi"`
	ComputedAt  time.Time   `json:"computed_at"`
}
