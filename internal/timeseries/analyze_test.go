package timeseries

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = float64(i + 1)
	}
	return s
}

func TestACFRampIsPositive(t *testing.T) {
	values := acf(ramp(20), 2)

	assert.Equal(t, 1.0, values[0])
	assert.Greater(t, values[1], 0.5)
	assert.Greater(t, values[1], values[2])
}

func TestACFConstantSeriesIsNaN(t *testing.T) {
	values := acf([]float64{5, 5, 5, 5, 5, 5, 5, 5, 5, 5}, 2)

	assert.Equal(t, 1.0, values[0])
	assert.True(t, math.IsNaN(values[1]))
	assert.True(t, math.IsNaN(values[2]))
}

func TestPACFLagOneMatchesACF(t *testing.T) {
	series := ramp(20)
	a := acf(series, 3)
	p := pacf(series, 3)

	assert.Equal(t, 1.0, p[0])
	assert.InDelta(t, a[1], p[1], 1e-9)
}

func TestAnalyzeOutcomeAndSignificance(t *testing.T) {
	analyzer := NewAnalyzer()
	series := ramp(30)

	result := analyzer.Analyze("daily/Total_Files", series, ScaleDaily)

	assert.Equal(t, OutcomeAnalyzed, result.Outcome)
	assert.Equal(t, 30, result.N)
	assert.InDelta(t, 1.96/math.Sqrt(30), result.ConfidenceBound, 1e-9)

	// A strong trend is autocorrelated at lag 1 well past the bound.
	require.NotEmpty(t, result.Lags)
	assert.Equal(t, 1, result.Lags[0].Lag)
	assert.True(t, result.Lags[0].ACFSignificant)
}

func TestAnalyzeAdaptiveLagCap(t *testing.T) {
	analyzer := NewAnalyzer()

	// N=12 caps the lags at 12/2-1 = 5, so 7 and 14 are dropped.
	result := analyzer.Analyze("daily/short", ramp(12), ScaleDaily)

	require.Equal(t, OutcomeAnalyzed, result.Outcome)
	lags := make([]int, 0, len(result.Lags))
	for _, l := range result.Lags {
		lags = append(lags, l.Lag)
	}
	assert.Equal(t, []int{1}, lags)
	assert.Equal(t, []int{7, 14}, result.DroppedLags)
}

func TestAnalyzeInsufficientData(t *testing.T) {
	analyzer := NewAnalyzer()

	result := analyzer.Analyze("daily/tiny", ramp(MinObservations-1), ScaleDaily)

	assert.Equal(t, OutcomeInsufficientData, result.Outcome)
	assert.Empty(t, result.Lags)
}

func TestAnalyzeAtMostOnce(t *testing.T) {
	analyzer := NewAnalyzer()
	series := ramp(30)

	first := analyzer.Analyze("daily/Total_Files", series, ScaleDaily)
	second := analyzer.Analyze("daily/Total_Files", series, ScaleDaily)

	assert.Equal(t, OutcomeAnalyzed, first.Outcome)
	assert.Equal(t, OutcomeAlreadyAnalyzed, second.Outcome)
	assert.Equal(t, first.Lags, second.Lags)
	assert.Equal(t, first.ConfidenceBound, second.ConfidenceBound)

	// Distinct keys analyze independently.
	other := analyzer.Analyze("weekly/Total_Files", series, ScaleWeekly)
	assert.Equal(t, OutcomeAnalyzed, other.Outcome)
}

func TestAnalyzeConstantSeriesNotSignificant(t *testing.T) {
	analyzer := NewAnalyzer()
	constant := make([]float64, 20)
	for i := range constant {
		constant[i] = 3
	}

	result := analyzer.Analyze("daily/constant", constant, ScaleDaily)

	require.Equal(t, OutcomeAnalyzed, result.Outcome)
	for _, l := range result.Lags {
		assert.True(t, math.IsNaN(l.ACF))
		assert.False(t, l.ACFSignificant)
		assert.False(t, l.PACFSignificant)
	}
}

func TestScaleLagsAndHorizons(t *testing.T) {
	assert.Equal(t, []int{1, 7, 14}, ScaleDaily.Lags())
	assert.Equal(t, []int{1, 4, 8}, ScaleWeekly.Lags())
	assert.Equal(t, []int{1, 2, 4}, ScaleBiweekly.Lags())
	assert.Equal(t, []int{1, 3, 6}, ScaleMonthly.Lags())
	assert.Equal(t, []int{1, 2, 4}, ScalePeriod.Lags())
	assert.Equal(t, []int{1, 2, 3}, Scale("other").Lags())

	assert.Equal(t, 14, ScaleDaily.Horizon())
	assert.Equal(t, 6, ScaleWeekly.Horizon())
	assert.Equal(t, 4, ScaleBiweekly.Horizon())
	assert.Equal(t, 3, ScaleMonthly.Horizon())
	assert.Equal(t, 2, ScalePeriod.Horizon())
}
