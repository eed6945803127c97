package model

import "time"

// Tier is the applicability level of an individual question.
type Tier string

const (
	Tier1 Tier = "TIER_1"
	Tier2 Tier = "TIER_2"
	Tier3 Tier = "TIER_3"
)

// Tiers lists question tiers in ascending order.
var Tiers = []Tier{Tier1, Tier2, Tier3}

// Valid reports whether t is a known question tier.
func (t Tier) Valid() bool {
	return t == Tier1 || t == Tier2 || t == Tier3
}

// Response is the graded answer to a SAT or IVC question.
type Response string

const (
	NotMet    Response = "NOT_MET"
	PartlyMet Response = "PARTLY_MET"
	MostlyMet Response = "MOSTLY_MET"
	FullyMet  Response = "FULLY_MET"
)

// Responses lists responses from weakest to strongest.
var Responses = []Response{NotMet, PartlyMet, MostlyMet, FullyMet}

// Valid reports whether r is a known response.
func (r Response) Valid() bool {
	switch r {
	case NotMet, PartlyMet, MostlyMet, FullyMet:
		return true
	}
	return false
}

// ScoreType identifies the assessment stream a score belongs to.
type ScoreType string

const (
	ScoreSAT ScoreType = "SAT"
	ScoreIVC ScoreType = "IVC"
	ScoreIEG ScoreType = "IEG"
)

// Valid reports whether s is a known score type.
func (s ScoreType) Valid() bool {
	return s == ScoreSAT || s == ScoreIVC || s == ScoreIEG
}

// Category is a node of the two-level question-category tree. Root categories
// have an empty ParentID; only child categories carry answers.
type Category struct {
	ID        string  `json:"id" yaml:"id"`
	ParentID  string  `json:"parent_id,omitempty" yaml:"parent_id"`
	Name      string  `json:"name" yaml:"name"`
	Weight    float64 `json:"weight" yaml:"weight"`
	SortOrder int     `json:"sort_order" yaml:"sort_order"`
}

// IsRoot reports whether the category is a top-level category.
func (c Category) IsRoot() bool {
	return c.ParentID == ""
}

// Answer is a SAT or IVC answer for one (company, cycle, category, tier).
type Answer struct {
	ID          string    `json:"id" yaml:"id"`
	Type        ScoreType `json:"type" yaml:"type"`
	CompanyID   string    `json:"company_id" yaml:"company_id"`
	CycleID     string    `json:"cycle_id" yaml:"cycle_id"`
	CategoryID  string    `json:"category_id" yaml:"category_id"`
	Tier        Tier      `json:"tier" yaml:"tier"`
	Response    Response  `json:"response" yaml:"response"`
	Points      float64   `json:"points" yaml:"points"`
	Approved    bool      `json:"approved" yaml:"approved"`
	SubmittedBy string    `json:"submitted_by,omitempty" yaml:"submitted_by"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// AssessmentScore is a per-category score of one type for a company and cycle.
type AssessmentScore struct {
	ID         string    `json:"id" yaml:"id"`
	CompanyID  string    `json:"company_id" yaml:"company_id"`
	CycleID    string    `json:"cycle_id" yaml:"cycle_id"`
	CategoryID string    `json:"category_id,omitempty" yaml:"category_id"`
	Type       ScoreType `json:"type" yaml:"type"`
	Value      float64   `json:"value" yaml:"value"`
	Weight     float64   `json:"weight" yaml:"weight"`
	Score      float64   `json:"score" yaml:"score"`
}

// ComputedAssessmentScore is the durable result of a full computation pass.
type ComputedAssessmentScore struct {
	CompanyID  string    `json:"company_id"`
	CycleID    string    `json:"cycle_id"`
	ScoreType  ScoreType `json:"score_type"`
	Value      *float64  `json:"value"`
	ComputedAt time.Time `json:"computed_at"`
}
