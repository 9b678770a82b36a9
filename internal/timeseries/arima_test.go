package timeseries

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDifference(t *testing.T) {
	series := []float64{1, 3, 6, 10}

	assert.Equal(t, []float64{2, 3, 4}, difference(series, 1))
	assert.Equal(t, []float64{1, 1}, difference(series, 2))
	assert.Equal(t, series, difference(series, 0))
	assert.Nil(t, difference([]float64{1}, 1))
}

func TestADFStationaryOnMeanRevertingSeries(t *testing.T) {
	// Strong oscillation around a fixed mean rejects the unit root.
	series := make([]float64, 40)
	for i := range series {
		series[i] = float64(i%2)*10 + float64(i%5)*0.3
	}
	assert.True(t, adfStationary(series))
}

func TestADFNotStationaryOnTrend(t *testing.T) {
	assert.False(t, adfStationary(ramp(40)))
}

func TestADFTooShort(t *testing.T) {
	assert.False(t, adfStationary([]float64{1, 2, 3}))
}

func TestFitARIMARejectsShortSeries(t *testing.T) {
	_, err := fitARIMA(ramp(4), 2, 1, 2)
	require.Error(t, err)
}

func TestSelectARIMAOnTrend(t *testing.T) {
	model, err := selectARIMA(ramp(40))
	require.NoError(t, err)

	// A linear trend is captured by first differencing.
	assert.GreaterOrEqual(t, model.d, 1)

	points, stderrs := model.forecast(3)
	require.Len(t, points, 3)
	require.Len(t, stderrs, 3)

	// The trend continues upward from the last observation.
	assert.Greater(t, points[0], 39.0)
	assert.Greater(t, points[2], points[0])
}

func TestARIMAForecastUncertaintyGrows(t *testing.T) {
	series := []float64{12, 15, 11, 14, 13, 16, 12, 15, 14, 13, 15, 12, 16, 14, 13, 15}
	model, err := selectARIMA(series)
	require.NoError(t, err)

	_, stderrs := model.forecast(5)
	require.Len(t, stderrs, 5)
	for i := 1; i < len(stderrs); i++ {
		assert.GreaterOrEqual(t, stderrs[i], stderrs[i-1])
	}
}

func TestLevinsonDurbinAROne(t *testing.T) {
	// AR coefficient of a strongly trending series is close to its
	// lag-1 autocorrelation.
	series := ramp(30)
	coeffs, noiseVar := levinsonDurbin(series, 1)

	require.Len(t, coeffs, 1)
	a := acf(series, 1)
	assert.InDelta(t, a[1], coeffs[0], 1e-9)
	assert.GreaterOrEqual(t, noiseVar, 0.0)
}
