package timeseries

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// arimaModel is a fitted ARIMA(p,d,q) model. AR coefficients come from the
// Yule-Walker equations solved with the Levinson-Durbin recursion; MA
// coefficients are approximated from the autocorrelations of the AR
// residuals.
type arimaModel struct {
	p, d, q   int
	arCoeffs  []float64
	maCoeffs  []float64
	intercept float64
	residuals []float64
	sigma2    float64
	aic       float64
	diffed    []float64 // differenced, mean-adjusted fitting series
	original  []float64
}

// difference applies d rounds of first differencing.
func difference(series []float64, d int) []float64 {
	out := append([]float64(nil), series...)
	for i := 0; i < d; i++ {
		if len(out) < 2 {
			return nil
		}
		next := make([]float64, len(out)-1)
		for t := 1; t < len(out); t++ {
			next[t-1] = out[t] - out[t-1]
		}
		out = next
	}
	return out
}

// fitARIMA estimates an ARIMA(p,d,q) model on the series.
func fitARIMA(series []float64, p, d, q int) (*arimaModel, error) {
	diffed := difference(series, d)
	n := len(diffed)
	if n <= p+q+2 {
		return nil, fmt.Errorf("series too short after differencing: %d observations for ARIMA(%d,%d,%d)", n, p, d, q)
	}

	mean := stat.Mean(diffed, nil)
	centered := make([]float64, n)
	for i, v := range diffed {
		centered[i] = v - mean
	}

	arCoeffs, _ := levinsonDurbin(centered, p)

	// AR residuals on the centered differenced series.
	residuals := make([]float64, 0, n-p)
	for t := p; t < n; t++ {
		pred := 0.0
		for j, phi := range arCoeffs {
			pred += phi * centered[t-1-j]
		}
		residuals = append(residuals, centered[t]-pred)
	}
	if len(residuals) == 0 {
		return nil, fmt.Errorf("no residuals for ARIMA(%d,%d,%d)", p, d, q)
	}

	// MA coefficients from the residual autocorrelations.
	maCoeffs := make([]float64, q)
	if q > 0 {
		resACF := acf(residuals, q)
		for j := 1; j <= q; j++ {
			if !math.IsNaN(resACF[j]) {
				maCoeffs[j-1] = resACF[j]
			}
		}
	}

	var rss float64
	for _, r := range residuals {
		rss += r * r
	}
	sigma2 := rss / float64(len(residuals))
	if sigma2 <= 0 {
		sigma2 = 1e-10
	}
	k := float64(p + q + 1)
	aic := float64(len(residuals))*math.Log(sigma2) + 2*k

	return &arimaModel{
		p: p, d: d, q: q,
		arCoeffs:  arCoeffs,
		maCoeffs:  maCoeffs,
		intercept: mean,
		residuals: residuals,
		sigma2:    sigma2,
		aic:       aic,
		diffed:    centered,
		original:  series,
	}, nil
}

// forecast produces h point forecasts with standard errors on the original
// scale. The AR recursion runs on the differenced series and the result is
// integrated back d times from the last observed levels.
func (m *arimaModel) forecast(h int) (points, stderrs []float64) {
	extended := append([]float64(nil), m.diffed...)

	diffForecasts := make([]float64, h)
	for step := 0; step < h; step++ {
		pred := 0.0
		for j, phi := range m.arCoeffs {
			idx := len(extended) - 1 - j
			if idx >= 0 {
				pred += phi * extended[idx]
			}
		}
		for j, theta := range m.maCoeffs {
			// theta_j weights the shock j+1 steps back. Shocks beyond
			// the sample have expectation zero, so only in-sample
			// residuals contribute.
			shockIdx := len(m.residuals) - 1 + step - j
			if shockIdx >= 0 && shockIdx < len(m.residuals) {
				pred += theta * m.residuals[shockIdx]
			}
		}
		diffForecasts[step] = pred
		extended = append(extended, pred)
	}

	// Undo centering, then integrate d times.
	level := make([]float64, h)
	for i, v := range diffForecasts {
		level[i] = v + m.intercept
	}
	for round := 0; round < m.d; round++ {
		base := m.lastLevel(m.d - 1 - round)
		for i := range level {
			base += level[i]
			level[i] = base
		}
	}

	stderrs = make([]float64, h)
	sigma := math.Sqrt(m.sigma2)
	for i := range stderrs {
		// Forecast uncertainty grows with the horizon.
		stderrs[i] = sigma * math.Sqrt(float64(i+1))
	}
	return level, stderrs
}

// lastLevel returns the final value of the series differenced `rounds`
// times, the integration constant for undoing one differencing round.
func (m *arimaModel) lastLevel(rounds int) float64 {
	s := difference(m.original, rounds)
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

// selectARIMA grid searches (p, q) in 0..2 with the differencing orders
// allowed by the stationarity test and returns the lowest-AIC fit.
func selectARIMA(series []float64) (*arimaModel, error) {
	dCandidates := []int{1, 2}
	if adfStationary(series) {
		dCandidates = []int{0, 1}
	}

	var best *arimaModel
	for _, d := range dCandidates {
		for p := 0; p <= 2; p++ {
			for q := 0; q <= 2; q++ {
				if p == 0 && q == 0 && d == 0 {
					continue
				}
				model, err := fitARIMA(series, p, d, q)
				if err != nil {
					continue
				}
				if !model.finite() {
					continue
				}
				if best == nil || model.aic < best.aic {
					best = model
				}
			}
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no ARIMA candidate converged")
	}
	return best, nil
}

// finite rejects fits whose coefficients or variance degenerated.
func (m *arimaModel) finite() bool {
	if math.IsNaN(m.sigma2) || math.IsInf(m.sigma2, 0) || math.IsNaN(m.aic) {
		return false
	}
	for _, c := range m.arCoeffs {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	for _, c := range m.maCoeffs {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
