package ingest

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/soundfield/capture-report/internal/datastore"
)

// iqrFactor is the Tukey fence multiplier for outlier days.
const iqrFactor = 1.5

// minDaysForOutliers is the smallest number of distinct days the fences
// are computed from. Below that every day stays Normal.
const minDaysForOutliers = 4

// FlagOutliers marks every file on an outlier day. A day is an outlier
// when its file count falls outside the Tukey fences (quartiles plus or
// minus 1.5 IQR) of the per-day counts across collection days. Only
// collection days participate in the fence computation and only their
// files get flagged.
func FlagOutliers(files []datastore.MediaFile) int {
	logger := slog.Default().With("service", "ingest")

	countsByDay := make(map[string]float64)
	for i := range files {
		if files[i].IsCollectionDay {
			countsByDay[files[i].Date]++
		}
	}
	if len(countsByDay) < minDaysForOutliers {
		return 0
	}

	counts := make([]float64, 0, len(countsByDay))
	for _, c := range countsByDay {
		counts = append(counts, c)
	}
	sort.Float64s(counts)

	q1 := stat.Quantile(0.25, stat.Empirical, counts, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, counts, nil)
	iqr := q3 - q1
	lower := q1 - iqrFactor*iqr
	upper := q3 + iqrFactor*iqr

	outlierDays := make(map[string]bool)
	for day, c := range countsByDay {
		if c < lower || c > upper {
			outlierDays[day] = true
		}
	}
	if len(outlierDays) == 0 {
		return 0
	}

	flagged := 0
	for i := range files {
		if files[i].IsCollectionDay && outlierDays[files[i].Date] {
			files[i].OutlierStatus = datastore.StatusOutlier
			flagged++
		}
	}

	logger.Info("flagged outlier days",
		"days", len(outlierDays),
		"files", flagged,
		"lower_fence", lower,
		"upper_fence", upper)
	return flagged
}
