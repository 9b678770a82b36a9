package timeseries

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// adfCriticalValue5 is the 5% critical value of the Dickey-Fuller
// distribution for a regression with constant.
const adfCriticalValue5 = -2.86

// adfStationary runs a Dickey-Fuller test with constant: regress the first
// difference on the lagged level and compare the coefficient's t statistic
// against the 5% critical value. A more negative statistic rejects the
// unit root, so the series is treated as stationary.
func adfStationary(series []float64) bool {
	n := len(series)
	if n < 4 {
		return false
	}

	m := n - 1
	x := mat.NewDense(m, 2, nil)
	y := mat.NewVecDense(m, nil)
	for t := 1; t < n; t++ {
		x.Set(t-1, 0, 1)
		x.Set(t-1, 1, series[t-1])
		y.SetVec(t-1, series[t]-series[t-1])
	}

	var beta mat.VecDense
	if err := beta.SolveVec(x, y); err != nil {
		return false
	}
	gamma := beta.AtVec(1)

	// Residual variance and standard error of gamma.
	var fitted mat.VecDense
	fitted.MulVec(x, &beta)
	var rss float64
	for i := 0; i < m; i++ {
		r := y.AtVec(i) - fitted.AtVec(i)
		rss += r * r
	}
	dof := float64(m - 2)
	if dof <= 0 {
		return false
	}
	sigma2 := rss / dof

	// (X'X)^-1 [1][1] gives the variance multiplier for gamma.
	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	var inv mat.Dense
	if err := inv.Inverse(&xtx); err != nil {
		return false
	}
	se := math.Sqrt(sigma2 * inv.At(1, 1))
	if se == 0 || math.IsNaN(se) {
		return false
	}

	tStat := gamma / se
	return tStat < adfCriticalValue5
}
