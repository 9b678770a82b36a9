// Package timeseries implements the statistical half of the report
// pipeline: reconciling sparse aggregates against the full collection-day
// axis, autocorrelation analysis, and forecasting.
package timeseries

// Scale identifies the temporal granularity of a series. Lag sets and
// forecast horizons are tuned per scale.
type Scale string

const (
	ScaleDaily    Scale = "daily"
	ScaleWeekly   Scale = "weekly"
	ScaleBiweekly Scale = "biweekly"
	ScaleMonthly  Scale = "monthly"
	ScalePeriod   Scale = "period"
)

// Lags returns the autocorrelation lags of interest for the scale. Daily
// data gets week-shaped lags, coarser scales get short structural lags.
func (s Scale) Lags() []int {
	switch s {
	case ScaleDaily:
		return []int{1, 7, 14}
	case ScaleWeekly:
		return []int{1, 4, 8}
	case ScaleBiweekly:
		return []int{1, 2, 4}
	case ScaleMonthly:
		return []int{1, 3, 6}
	case ScalePeriod:
		return []int{1, 2, 4}
	default:
		return []int{1, 2, 3}
	}
}

// Horizon returns the number of future steps forecast for the scale.
func (s Scale) Horizon() int {
	switch s {
	case ScaleDaily:
		return 14
	case ScaleWeekly:
		return 6
	case ScaleBiweekly:
		return 4
	case ScaleMonthly:
		return 3
	case ScalePeriod:
		return 2
	default:
		return 3
	}
}

// AxisEntry is one label of the complete reporting axis together with the
// descriptive attributes every row on that label must carry.
type AxisEntry struct {
	Label string
	Attrs map[string]string
}

// Observation is one aggregate row keyed by its axis label. Values holds
// the numeric columns, Attrs the descriptive ones.
type Observation struct {
	Label  string
	Values map[string]float64
	Attrs  map[string]string
}

// FilledRow is an Observation after reconciliation. HasFiles distinguishes
// observed rows from zero-filled gaps.
type FilledRow struct {
	Observation
	HasFiles bool
}

// Column extracts one numeric column from filled rows, in row order.
func Column(rows []FilledRow, name string) []float64 {
	values := make([]float64, len(rows))
	for i := range rows {
		values[i] = rows[i].Values[name]
	}
	return values
}
