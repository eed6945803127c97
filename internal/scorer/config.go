// Package scorer implements the MFI scoring engine: tiered SAT/IVC point
// tables, category rollups, product compliance, the composite index, variance,
// ranking and the four-pillar governance report. Everything here is pure; data
// access lives in the store package.
package scorer

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mfi-cli/internal/config"
)

// Weights are the composite weights of the three assessment streams. They sum to 100.
type Weights struct {
	SAT float64 `json:"sat"`
	IEG float64 `json:"ieg"`
	PT  float64 `json:"pt"`
}

// Options configures an Engine.
type Options struct {
	Weights   Weights         `json:"weights"`
	PartlyMet PartlyMetPolicy `json:"partly_met"`
}

// DefaultWeights returns the 60/20/20 split.
func DefaultWeights() Weights {
	return Weights{SAT: 60, IEG: 20, PT: 20}
}

// DefaultOptions returns Options with the deployed defaults.
func DefaultOptions() Options {
	return Options{Weights: DefaultWeights(), PartlyMet: PartlyMetLegacy}
}

// OptionsFromConfig converts the scoring section of the app config.
func OptionsFromConfig(c config.ScoringConfig) (Options, error) {
	opts := Options{
		Weights:   Weights{SAT: c.SATWeight, IEG: c.IEGWeight, PT: c.PTWeight},
		PartlyMet: PartlyMetPolicy(c.PartlyMetPolicy),
	}
	if opts.PartlyMet == "" {
		opts.PartlyMet = PartlyMetLegacy
	}
	if err := ValidateOptions(opts); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Sum returns the total of all stream weights.
func (w Weights) Sum() float64 {
	return w.SAT + w.IEG + w.PT
}

// ValidateOptions checks that Options are internally consistent.
func ValidateOptions(o Options) error {
	var errs []string

	weights := map[string]float64{
		"sat_weight": o.Weights.SAT,
		"ieg_weight": o.Weights.IEG,
		"pt_weight":  o.Weights.PT,
	}
	for _, name := range []string{"sat_weight", "ieg_weight", "pt_weight"} {
		if weights[name] < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	if sum := o.Weights.Sum(); math.Abs(sum-100) > 0.001 {
		errs = append(errs, fmt.Sprintf("weights should sum to 100, got %.2f", sum))
	}

	switch o.PartlyMet {
	case PartlyMetLegacy, PartlyMetDeclared:
	default:
		errs = append(errs, fmt.Sprintf("unknown partly_met policy %q", o.PartlyMet))
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
