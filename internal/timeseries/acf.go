package timeseries

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// acf computes the sample autocorrelation function for lags 0..maxLag.
// A constant series has zero variance and yields NaN beyond lag 0.
func acf(series []float64, maxLag int) []float64 {
	n := len(series)
	result := make([]float64, maxLag+1)
	if n == 0 {
		return result
	}

	mean := stat.Mean(series, nil)
	var denom float64
	for _, v := range series {
		denom += (v - mean) * (v - mean)
	}

	result[0] = 1
	for lag := 1; lag <= maxLag; lag++ {
		if lag >= n || denom == 0 {
			result[lag] = math.NaN()
			continue
		}
		var num float64
		for t := lag; t < n; t++ {
			num += (series[t] - mean) * (series[t-lag] - mean)
		}
		result[lag] = num / denom
	}
	return result
}

// pacf computes the partial autocorrelation function for lags 0..maxLag
// using the Levinson-Durbin recursion over the sample autocorrelations.
func pacf(series []float64, maxLag int) []float64 {
	r := acf(series, maxLag)
	result := make([]float64, maxLag+1)
	if maxLag >= 0 {
		result[0] = 1
	}
	if maxLag == 0 {
		return result
	}

	// phi[k][j] is the j-th coefficient of the order-k AR fit.
	phi := make([][]float64, maxLag+1)
	for k := range phi {
		phi[k] = make([]float64, maxLag+1)
	}

	v := 1.0
	for k := 1; k <= maxLag; k++ {
		if math.IsNaN(r[k]) || v == 0 {
			for j := k; j <= maxLag; j++ {
				result[j] = math.NaN()
			}
			return result
		}

		acc := r[k]
		for j := 1; j < k; j++ {
			acc -= phi[k-1][j] * r[k-j]
		}
		phi[k][k] = acc / v

		for j := 1; j < k; j++ {
			phi[k][j] = phi[k-1][j] - phi[k][k]*phi[k-1][k-j]
		}
		v *= 1 - phi[k][k]*phi[k][k]

		result[k] = phi[k][k]
	}
	return result
}

// levinsonDurbin returns the AR(p) coefficients and innovation variance
// estimated from the sample autocorrelations of series.
func levinsonDurbin(series []float64, p int) (coeffs []float64, noiseVar float64) {
	variance := stat.Variance(series, nil)
	if p == 0 {
		return nil, variance
	}

	r := acf(series, p)
	phi := make([]float64, p+1)
	prev := make([]float64, p+1)
	v := 1.0

	for k := 1; k <= p; k++ {
		if math.IsNaN(r[k]) || v == 0 {
			return make([]float64, p), variance
		}
		acc := r[k]
		for j := 1; j < k; j++ {
			acc -= prev[j] * r[k-j]
		}
		phi[k] = acc / v
		for j := 1; j < k; j++ {
			phi[j] = prev[j] - phi[k]*prev[k-j]
		}
		v *= 1 - phi[k]*phi[k]
		copy(prev, phi)
	}

	return phi[1 : p+1], v * variance
}
