package scorer

import (
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Sentinel errors. None of them abort a computation; they are collected as
// Diagnostics next to the result.
var (
	// ErrMissingData marks a score with no contributing records. The score is
	// reported as null, never as 0.
	ErrMissingData = eris.New("scorer: missing data")

	// ErrInconsistentTier marks an answer for a question tier the company's
	// tier does not allow. Such answers are excluded from aggregation.
	ErrInconsistentTier = eris.New("scorer: inconsistent tier")

	// ErrUnclassifiedPillar marks a category that matches no 4PG pillar.
	ErrUnclassifiedPillar = eris.New("scorer: unclassified pillar")

	// ErrDivideByZero marks a ratio with a zero denominator; the ratio is null.
	ErrDivideByZero = eris.New("scorer: divide by zero")

	// ErrUnknownCategory marks a record referencing a category outside the tree.
	ErrUnknownCategory = eris.New("scorer: unknown category")

	// ErrInvalidInput marks an unknown tier, response or product type.
	ErrInvalidInput = eris.New("scorer: invalid input")

	// ErrNotFound is returned when a requested entity is not in the results.
	ErrNotFound = eris.New("scorer: not found")
)

// Diagnostic is a non-fatal problem found while scoring one entity.
type Diagnostic struct {
	CompanyID  string `json:"company_id,omitempty"`
	CategoryID string `json:"category_id,omitempty"`
	RecordID   string `json:"record_id,omitempty"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func newDiagnostic(err error, companyID, categoryID, recordID string) Diagnostic {
	return Diagnostic{
		CompanyID:  companyID,
		CategoryID: categoryID,
		RecordID:   recordID,
		Message:    err.Error(),
		Err:        err,
	}
}

// Is reports whether the diagnostic wraps target.
func (d Diagnostic) Is(target error) bool {
	return errors.Is(d.Err, target)
}

// CountDiagnostics returns how many diagnostics wrap target.
func CountDiagnostics(diags []Diagnostic, target error) int {
	n := 0
	for _, d := range diags {
		if d.Is(target) {
			n++
		}
	}
	return n
}

// LogDiagnostics writes each diagnostic as a warning on the global logger.
func LogDiagnostics(diags []Diagnostic) {
	for _, d := range diags {
		zap.L().Warn("scorer: diagnostic",
			zap.String("company_id", d.CompanyID),
			zap.String("category_id", d.CategoryID),
			zap.String("record_id", d.RecordID),
			zap.Error(d.Err),
		)
	}
}
