package timeseries

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAxis() []AxisEntry {
	return []AxisEntry{
		{Label: "2021-11-01", Attrs: map[string]string{"School_Year": "SY 21-22", "Collection_Period": "SY 21-22 P1"}},
		{Label: "2021-11-02", Attrs: map[string]string{"School_Year": "SY 21-22", "Collection_Period": "SY 21-22 P1"}},
		{Label: "2021-11-03", Attrs: map[string]string{"School_Year": "SY 21-22", "Collection_Period": "SY 21-22 P1"}},
	}
}

func testObservations() []Observation {
	return []Observation{
		{Label: "2021-11-03", Values: map[string]float64{"Total_Files": 4}, Attrs: map[string]string{"School_Year": "SY 21-22"}},
		{Label: "2021-11-01", Values: map[string]float64{"Total_Files": 7}, Attrs: map[string]string{"School_Year": "SY 21-22"}},
	}
}

func TestReconcileFillsGaps(t *testing.T) {
	rows := Reconcile(testAxis(), testObservations(), []string{"Total_Files"})

	// Exactly one row per axis label, ascending.
	require.Len(t, rows, 3)
	assert.Equal(t, "2021-11-01", rows[0].Label)
	assert.Equal(t, "2021-11-02", rows[1].Label)
	assert.Equal(t, "2021-11-03", rows[2].Label)

	// Observed rows pass through.
	assert.True(t, rows[0].HasFiles)
	assert.Equal(t, 7.0, rows[0].Values["Total_Files"])
	assert.True(t, rows[2].HasFiles)
	assert.Equal(t, 4.0, rows[2].Values["Total_Files"])

	// The gap is zero-filled and carries the axis attributes.
	assert.False(t, rows[1].HasFiles)
	assert.Equal(t, 0.0, rows[1].Values["Total_Files"])
	assert.Equal(t, "SY 21-22 P1", rows[1].Attrs["Collection_Period"])
}

func TestReconcileConservesTotals(t *testing.T) {
	obs := testObservations()
	var before float64
	for _, o := range obs {
		before += o.Values["Total_Files"]
	}

	rows := Reconcile(testAxis(), obs, []string{"Total_Files"})
	var after float64
	for _, r := range rows {
		after += r.Values["Total_Files"]
	}
	assert.Equal(t, before, after)
}

func TestReconcileIdempotent(t *testing.T) {
	first := Reconcile(testAxis(), testObservations(), []string{"Total_Files"})

	again := make([]Observation, 0, len(first))
	for _, r := range first {
		if r.HasFiles {
			again = append(again, r.Observation)
		}
	}
	second := Reconcile(testAxis(), again, []string{"Total_Files"})

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Label, second[i].Label)
		assert.Equal(t, first[i].Values, second[i].Values)
		assert.Equal(t, first[i].HasFiles, second[i].HasFiles)
	}
}

func TestReconcileEmptyAxisPassesThrough(t *testing.T) {
	rows := Reconcile(nil, testObservations(), []string{"Total_Files"})

	// No axis means no zero filling, only sorting.
	require.Len(t, rows, 2)
	assert.Equal(t, "2021-11-01", rows[0].Label)
	assert.Equal(t, "2021-11-03", rows[1].Label)
	assert.True(t, rows[0].HasFiles)
	assert.True(t, rows[1].HasFiles)
}

func TestReconcileDropsOffAxisObservations(t *testing.T) {
	obs := append(testObservations(), Observation{
		Label:  "2021-12-25",
		Values: map[string]float64{"Total_Files": 99},
	})

	rows := Reconcile(testAxis(), obs, []string{"Total_Files"})
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.NotEqual(t, "2021-12-25", r.Label)
	}
}

func TestReconcileDoesNotMutateInput(t *testing.T) {
	axis := testAxis()
	obs := testObservations()

	_ = Reconcile(axis, obs, []string{"Total_Files"})

	assert.Equal(t, testAxis(), axis)
	assert.Equal(t, testObservations(), obs)
}

func TestReconcileEmptyObservationsAllZero(t *testing.T) {
	rows := Reconcile(testAxis(), nil, []string{"Total_Files", "MP3_Files"})

	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.False(t, r.HasFiles)
		assert.Equal(t, 0.0, r.Values["Total_Files"])
		assert.Equal(t, 0.0, r.Values["MP3_Files"])
	}
}
