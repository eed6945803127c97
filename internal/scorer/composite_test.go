package scorer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose(t *testing.T) {
	w := DefaultWeights()

	tests := []struct {
		name     string
		in       Components
		mfi      float64
		complete bool
	}{
		{"all components", Components{SAT: Float(90), IEG: Float(70), PT: Float(15)}, 83, true},
		{"perfect", Components{SAT: Float(100), IEG: Float(100), PT: Float(20)}, 100, true},
		{"missing pt", Components{SAT: Float(90), IEG: Float(70)}, 68, false},
		{"nothing", Components{}, 0, false},
		{"clamped", Components{SAT: Float(140), IEG: Float(-5), PT: Float(35)}, 80, true},
		{"rounded", Components{SAT: Float(100), IEG: Float(70), PT: Float(35.0 / 3)}, 85.67, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := w.Compose(tt.in)
			assert.InDelta(t, tt.mfi, got.MFI, 1e-9)
			assert.Equal(t, tt.complete, got.Complete)
		})
	}
}

func TestCompose_WeightedBreakdown(t *testing.T) {
	got := DefaultWeights().Compose(Components{SAT: Float(90), IEG: Float(70), PT: Float(15)})

	assert.InDelta(t, 54, got.SATWeighted, 1e-9)
	assert.InDelta(t, 14, got.IEGWeighted, 1e-9)
	assert.InDelta(t, 15, got.PTWeighted, 1e-9)
	require.NotNil(t, got.PT)
	assert.InDelta(t, 15, *got.PT, 1e-9)
}

func TestCompose_StaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	w := DefaultWeights()

	maybe := func(v float64) *float64 {
		if rng.Intn(5) == 0 {
			return nil
		}
		return Float(v)
	}

	for i := 0; i < 2000; i++ {
		c := Components{
			SAT: maybe(rng.Float64() * 100),
			IEG: maybe(rng.Float64() * 100),
			PT:  maybe(rng.Float64() * PTMaxPoints),
		}
		got := w.Compose(c)
		require.GreaterOrEqual(t, got.MFI, 0.0)
		require.LessOrEqual(t, got.MFI, 100.0)
	}
}

func TestSelectAggregate(t *testing.T) {
	tests := []struct {
		name   string
		totals TierTotals
		want   *float64
	}{
		{"tier1 only", TierTotals{Tier1: Float(40)}, Float(40)},
		{"tier3 only", TierTotals{Tier3: Float(70)}, Float(70)},
		{"both", TierTotals{Tier1: Float(40), Tier3: Float(70)}, Float(55)},
		{"tier1 zero falls to tier3", TierTotals{Tier1: Float(0), Tier3: Float(70)}, Float(70)},
		{"zero only", TierTotals{Tier1: Float(0)}, Float(0)},
		{"neither", TierTotals{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectAggregate(tt.totals)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestValidateOptions(t *testing.T) {
	require.NoError(t, ValidateOptions(DefaultOptions()))

	err := ValidateOptions(Options{Weights: Weights{SAT: 50, IEG: 20, PT: 20}, PartlyMet: PartlyMetLegacy})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 100")

	err = ValidateOptions(Options{Weights: Weights{SAT: 120, IEG: -20}, PartlyMet: PartlyMetLegacy})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ieg_weight must be >= 0")

	err = ValidateOptions(Options{Weights: DefaultWeights(), PartlyMet: "halfway"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown partly_met policy "halfway"`)
}
