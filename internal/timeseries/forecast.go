package timeseries

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Forecast quality tiers, from best to worst. Every forecast row carries
// one so readers can judge how much to trust it.
const (
	QualityGood               = "Good"
	QualityInsufficientData   = "Insufficient Data"
	QualityModelFittingFailed = "Model Fitting Failed"
	QualityError              = "Error"
	QualityUnavailable        = "Unavailable"
)

// confidenceZ is the normal quantile for 95% prediction intervals.
const confidenceZ = 1.96

// ForecastRow is one future step of a forecast.
type ForecastRow struct {
	Step     int // 1-based steps past the last observation
	Forecast float64
	Lower    float64
	Upper    float64
}

// Forecast is the full result for one series: the horizon rows plus the
// quality tier and method that produced them.
type Forecast struct {
	Quality string
	Method  string // e.g. "ARIMA(1,1,0)" or "deterministic"
	Rows    []ForecastRow
}

// Forecaster produces forecasts for count series. It always returns a
// full-horizon result: when the ARIMA fit is impossible or fails, a
// deterministic drift extrapolation fills in, with the quality tier
// recording which path was taken.
type Forecaster struct {
	logger *slog.Logger
}

// NewForecaster creates a forecaster.
func NewForecaster() *Forecaster {
	return &Forecaster{logger: slog.Default().With("service", "timeseries")}
}

// Forecast models the series and projects scale.Horizon() steps ahead.
// key identifies the series in logs only.
func (f *Forecaster) Forecast(key string, series []float64, scale Scale) *Forecast {
	horizon := scale.Horizon()

	if len(series) == 0 {
		return fallbackForecast(series, horizon, QualityUnavailable)
	}

	if len(series) < MinObservations {
		f.logger.Debug("series too short for ARIMA, using deterministic forecast",
			"series", key, "n", len(series))
		return fallbackForecast(series, horizon, QualityInsufficientData)
	}

	result, err := f.tryARIMA(series, horizon)
	if err != nil {
		f.logger.Warn("ARIMA fitting failed, using deterministic forecast",
			"series", key, "error", err)
		return fallbackForecast(series, horizon, QualityModelFittingFailed)
	}
	return result
}

// tryARIMA runs the grid search and converts the model output to rows.
// A panic inside the numerics is converted to an error so one bad series
// cannot abort the whole report.
func (f *Forecaster) tryARIMA(series []float64, horizon int) (result *Forecast, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("arima panic: %v", r)
		}
	}()

	model, err := selectARIMA(series)
	if err != nil {
		return nil, err
	}

	points, stderrs := model.forecast(horizon)
	rows := make([]ForecastRow, horizon)
	for i := 0; i < horizon; i++ {
		if math.IsNaN(points[i]) || math.IsInf(points[i], 0) {
			return nil, fmt.Errorf("non-finite forecast at step %d", i+1)
		}
		margin := confidenceZ * stderrs[i]
		rows[i] = ForecastRow{
			Step:     i + 1,
			Forecast: points[i],
			Lower:    points[i] - margin,
			Upper:    points[i] + margin,
		}
	}

	return &Forecast{
		Quality: QualityGood,
		Method:  fmt.Sprintf("ARIMA(%d,%d,%d)", model.p, model.d, model.q),
		Rows:    rows,
	}, nil
}

// fallbackForecast extrapolates deterministically: a gentle drift away
// from the mean with intervals from the (floored) standard deviation.
// It never fails, even on an empty series (mean 0, std 1).
func fallbackForecast(series []float64, horizon int, quality string) *Forecast {
	var mean, std float64
	switch {
	case len(series) == 0:
		std = 1
	case len(series) == 1:
		mean = series[0]
		std = math.Abs(series[0] * 0.1)
		if std == 0 {
			std = 0.1
		}
	default:
		mean = stat.Mean(series, nil)
		std = math.Sqrt(stat.Variance(series, nil))
	}

	// Floor the spread so constant series still get a visible interval.
	floor := math.Abs(mean * 0.05)
	if floor == 0 {
		floor = 0.1
	}
	if std < floor {
		std = floor
	}

	rows := make([]ForecastRow, horizon)
	for i := 0; i < horizon; i++ {
		step := float64(i + 1)
		point := mean + step*math.Abs(mean)*0.01
		margin := confidenceZ * std
		rows[i] = ForecastRow{
			Step:     i + 1,
			Forecast: point,
			Lower:    point - margin,
			Upper:    point + margin,
		}
	}

	return &Forecast{
		Quality: quality,
		Method:  "deterministic",
		Rows:    rows,
	}
}
