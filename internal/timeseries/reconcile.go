package timeseries

import (
	"log/slog"
	"sort"
)

// Reconcile merges sparse observations onto the complete axis, producing
// exactly one row per axis label in ascending label order. Labels with no
// observation get zeros for every value column and HasFiles false; observed
// rows pass through unchanged with HasFiles true. Observations whose label
// is not on the axis are dropped and reported, never silently kept.
//
// An empty axis means the calendar could not say what complete coverage
// looks like; the observations are returned as-is (sorted) rather than
// guessed at.
func Reconcile(axis []AxisEntry, observations []Observation, valueColumns []string) []FilledRow {
	logger := slog.Default().With("service", "timeseries")

	byLabel := make(map[string]Observation, len(observations))
	for _, obs := range observations {
		byLabel[obs.Label] = obs
	}

	if len(axis) == 0 {
		rows := make([]FilledRow, 0, len(observations))
		for _, obs := range observations {
			rows = append(rows, FilledRow{Observation: obs, HasFiles: true})
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].Label < rows[j].Label })
		return rows
	}

	onAxis := make(map[string]bool, len(axis))
	rows := make([]FilledRow, 0, len(axis))

	for _, entry := range axis {
		onAxis[entry.Label] = true

		if obs, ok := byLabel[entry.Label]; ok {
			rows = append(rows, FilledRow{Observation: obs, HasFiles: true})
			continue
		}

		zeros := make(map[string]float64, len(valueColumns))
		for _, col := range valueColumns {
			zeros[col] = 0
		}
		attrs := make(map[string]string, len(entry.Attrs))
		for k, v := range entry.Attrs {
			attrs[k] = v
		}
		rows = append(rows, FilledRow{
			Observation: Observation{Label: entry.Label, Values: zeros, Attrs: attrs},
			HasFiles:    false,
		})
	}

	dropped := 0
	for label := range byLabel {
		if !onAxis[label] {
			dropped++
		}
	}
	if dropped > 0 {
		logger.Warn("observations fall outside the reporting axis and were dropped",
			"count", dropped)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Label < rows[j].Label })
	return rows
}
