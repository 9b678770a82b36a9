package timeseries

import (
	"log/slog"
	"math"
	"sync"
)

// MinObservations is the smallest series length the analyzer and the
// forecaster will model. Shorter series are reported, not analyzed.
const MinObservations = 10

// Outcome tags an analysis result so callers can tell a fresh computation
// from a repeat request without inspecting the payload.
type Outcome string

const (
	OutcomeAnalyzed         Outcome = "analyzed"
	OutcomeAlreadyAnalyzed  Outcome = "already_analyzed"
	OutcomeInsufficientData Outcome = "insufficient_data"
)

// LagStat holds the autocorrelation statistics for one lag. PACF may be
// NaN when the recursion degenerates (constant series).
type LagStat struct {
	Lag             int
	ACF             float64
	ACFSignificant  bool
	PACF            float64
	PACFSignificant bool
}

// Analysis is the result of analyzing one series.
type Analysis struct {
	Outcome         Outcome
	N               int
	ConfidenceBound float64 // 1.96 / sqrt(N)
	Lags            []LagStat
	DroppedLags     []int // requested lags beyond the adaptive cap
}

// Analyzer computes ACF/PACF statistics for count series. Each series key
// is analyzed at most once per Analyzer; repeat requests return the cached
// result tagged OutcomeAlreadyAnalyzed.
type Analyzer struct {
	mu       sync.Mutex
	analyzed map[string]*Analysis
	logger   *slog.Logger
}

// NewAnalyzer creates an analyzer with an empty at-most-once registry.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		analyzed: make(map[string]*Analysis),
		logger:   slog.Default().With("service", "timeseries"),
	}
}

// Analyze computes ACF and PACF for the series at the scale's lags of
// interest. key identifies the series (sheet and column); a key seen
// before short-circuits to the cached result.
//
// The lag set adapts to the series length: lags above min(max requested,
// N/2 - 1) are dropped and recorded in DroppedLags. Significance uses the
// white-noise bound 1.96/sqrt(N).
func (a *Analyzer) Analyze(key string, series []float64, scale Scale) *Analysis {
	a.mu.Lock()
	defer a.mu.Unlock()

	if cached, ok := a.analyzed[key]; ok {
		repeat := *cached
		repeat.Outcome = OutcomeAlreadyAnalyzed
		return &repeat
	}

	result := a.compute(key, series, scale)
	a.analyzed[key] = result
	return result
}

func (a *Analyzer) compute(key string, series []float64, scale Scale) *Analysis {
	n := len(series)
	if n < MinObservations {
		a.logger.Debug("series too short for autocorrelation analysis",
			"series", key, "n", n, "min", MinObservations)
		return &Analysis{Outcome: OutcomeInsufficientData, N: n}
	}

	requested := scale.Lags()
	maxRequested := requested[len(requested)-1]
	lagCap := n/2 - 1
	if maxRequested < lagCap {
		lagCap = maxRequested
	}

	lags := make([]int, 0, len(requested))
	dropped := make([]int, 0)
	for _, lag := range requested {
		if lag <= lagCap && lag >= 1 {
			lags = append(lags, lag)
		} else {
			dropped = append(dropped, lag)
		}
	}
	if len(dropped) > 0 {
		a.logger.Debug("dropping lags beyond adaptive cap",
			"series", key, "cap", lagCap, "dropped", dropped)
	}

	bound := 1.96 / math.Sqrt(float64(n))
	analysis := &Analysis{
		Outcome:         OutcomeAnalyzed,
		N:               n,
		ConfidenceBound: bound,
		DroppedLags:     dropped,
	}

	if len(lags) == 0 {
		return analysis
	}

	maxLag := lags[len(lags)-1]
	acfValues := acf(series, maxLag)
	pacfValues := pacf(series, maxLag)

	for _, lag := range lags {
		stat := LagStat{
			Lag:  lag,
			ACF:  acfValues[lag],
			PACF: pacfValues[lag],
		}
		stat.ACFSignificant = !math.IsNaN(stat.ACF) && math.Abs(stat.ACF) > bound
		stat.PACFSignificant = !math.IsNaN(stat.PACF) && math.Abs(stat.PACF) > bound
		analysis.Lags = append(analysis.Lags, stat)
	}
	return analysis
}
