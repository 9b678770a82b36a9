package datastore

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundfield/capture-report/internal/conf"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "test.db")
	settings.Ingest.FileTypes = []string{"MP3", "JPG"}

	store := &SQLiteStore{DataStore: DataStore{Settings: settings, logger: slog.Default()}}
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// file builds a MediaFile with sensible defaults for the fields a test
// does not care about.
func file(date, fileType string, mutate ...func(*MediaFile)) MediaFile {
	mf := MediaFile{
		FileName:          "capture_" + date + "." + fileType,
		FileType:          fileType,
		SizeMB:            1.5,
		Date:              date,
		Time:              "09:15:00",
		ISOYearWeek:       "2021-W44",
		Month:             date[:7],
		DayOfWeek:         "Monday",
		SchoolYear:        "SY 21-22",
		CollectionPeriod:  "SY 21-22 P1",
		IsCollectionDay:   true,
		ScheduledActivity: "Literacy Block",
		OutlierStatus:     StatusNormal,
	}
	for _, m := range mutate {
		m(&mf)
	}
	return mf
}

func seedTestData(t *testing.T, store *SQLiteStore) {
	t.Helper()
	files := []MediaFile{
		file("2021-11-01", "MP3"),
		file("2021-11-01", "MP3"),
		file("2021-11-01", "JPG"),
		file("2021-11-02", "JPG", func(mf *MediaFile) {
			mf.DayOfWeek = "Tuesday"
			mf.ScheduledActivity = "Art"
		}),
		// Outlier on a collection day.
		file("2021-11-02", "MP3", func(mf *MediaFile) {
			mf.DayOfWeek = "Tuesday"
			mf.OutlierStatus = StatusOutlier
		}),
		// Weekend capture, not a collection day.
		file("2021-11-06", "MP3", func(mf *MediaFile) {
			mf.DayOfWeek = "Saturday"
			mf.IsCollectionDay = false
			mf.ScheduledActivity = "Unscheduled"
		}),
		// Outside every school year, excluded by the base filter.
		file("2021-07-15", "MP3", func(mf *MediaFile) {
			mf.SchoolYear = NotApplicable
			mf.CollectionPeriod = NotApplicable
			mf.IsCollectionDay = false
		}),
		// File type outside the configured set, excluded by the base filter.
		file("2021-11-01", "WAV"),
	}
	require.NoError(t, store.SaveBatch(files))
}

func TestCountFilesBaseFilter(t *testing.T) {
	store := setupTestStore(t)
	seedTestData(t, store)

	// 8 rows seeded, minus the N/A school year row and the WAV row.
	count, err := store.CountFiles(context.Background(), Filters{})
	require.NoError(t, err)
	assert.Equal(t, int64(6), count)
}

func TestCleaningMatrix(t *testing.T) {
	store := setupTestStore(t)
	seedTestData(t, store)

	matrix, err := store.CleaningMatrix(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(6), matrix.Total)
	assert.Equal(t, int64(5), matrix.CollectionDaysOnly) // drops the Saturday row
	assert.Equal(t, int64(5), matrix.NonOutliersOnly)    // drops the outlier
	assert.Equal(t, int64(4), matrix.Clean)
}

func TestDailyCounts(t *testing.T) {
	store := setupTestStore(t)
	seedTestData(t, store)

	counts, err := store.DailyCounts(context.Background(), CleanFilters())
	require.NoError(t, err)

	// Clean data covers 2021-11-01 and 2021-11-02 only. Days with no
	// files simply do not appear.
	require.Len(t, counts, 2)

	assert.Equal(t, "2021-11-01", counts[0].Date)
	assert.Equal(t, 3, counts[0].TotalFiles)
	assert.Equal(t, 2, counts[0].MP3Files)
	assert.Equal(t, 1, counts[0].JPGFiles)
	assert.InDelta(t, 4.5, counts[0].TotalSizeMB, 1e-9)
	assert.Equal(t, "SY 21-22", counts[0].SchoolYear)
	assert.Equal(t, "SY 21-22 P1", counts[0].CollectionPeriod)

	// The outlier MP3 on 2021-11-02 is excluded.
	assert.Equal(t, "2021-11-02", counts[1].Date)
	assert.Equal(t, 1, counts[1].TotalFiles)
	assert.Equal(t, 0, counts[1].MP3Files)
	assert.Equal(t, 1, counts[1].JPGFiles)
}

func TestWeeklyCounts(t *testing.T) {
	store := setupTestStore(t)
	seedTestData(t, store)

	counts, err := store.WeeklyCounts(context.Background(), CleanFilters())
	require.NoError(t, err)

	require.Len(t, counts, 1)
	assert.Equal(t, "2021-W44", counts[0].ISOYearWeek)
	assert.Equal(t, 4, counts[0].TotalFiles)
}

func TestMonthlyCounts(t *testing.T) {
	store := setupTestStore(t)
	seedTestData(t, store)

	counts, err := store.MonthlyCounts(context.Background(), Filters{})
	require.NoError(t, err)

	require.Len(t, counts, 1)
	assert.Equal(t, "2021-11", counts[0].Month)
	assert.Equal(t, 6, counts[0].TotalFiles)
}

func TestPeriodCounts(t *testing.T) {
	store := setupTestStore(t)
	seedTestData(t, store)

	counts, err := store.PeriodCounts(context.Background(), CleanFilters())
	require.NoError(t, err)

	require.Len(t, counts, 1)
	assert.Equal(t, "SY 21-22", counts[0].SchoolYear)
	assert.Equal(t, "SY 21-22 P1", counts[0].CollectionPeriod)
	assert.Equal(t, 4, counts[0].TotalFiles)
}

func TestActivityCountsOrderedByVolume(t *testing.T) {
	store := setupTestStore(t)
	seedTestData(t, store)

	counts, err := store.ActivityCounts(context.Background(), CleanFilters())
	require.NoError(t, err)

	require.NotEmpty(t, counts)
	assert.Equal(t, "Literacy Block", counts[0].ScheduledActivity)
	assert.Equal(t, 3, counts[0].TotalFiles)
	for i := 1; i < len(counts); i++ {
		assert.GreaterOrEqual(t, counts[i-1].TotalFiles, counts[i].TotalFiles)
	}
}

func TestSummaryStats(t *testing.T) {
	store := setupTestStore(t)
	seedTestData(t, store)

	stats, err := store.SummaryStats(context.Background(), CleanFilters())
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalFiles)
	assert.Equal(t, 2, stats.MP3Files)
	assert.Equal(t, 2, stats.JPGFiles)
	assert.Equal(t, 2, stats.DistinctDays)
	assert.Equal(t, "2021-11-01", stats.FirstDate)
	assert.Equal(t, "2021-11-02", stats.LastDate)
	assert.InDelta(t, 2.0, stats.MeanFilesPerDay, 1e-9)
}

func TestSummaryStatsEmpty(t *testing.T) {
	store := setupTestStore(t)

	stats, err := store.SummaryStats(context.Background(), Filters{})
	require.NoError(t, err)

	assert.Equal(t, 0, stats.TotalFiles)
	assert.Equal(t, 0, stats.DistinctDays)
	assert.Zero(t, stats.MeanFilesPerDay)
	assert.Empty(t, stats.FirstDate)
}

func TestDeleteAll(t *testing.T) {
	store := setupTestStore(t)
	seedTestData(t, store)

	require.NoError(t, store.DeleteAll())

	count, err := store.CountFiles(context.Background(), Filters{})
	require.NoError(t, err)
	assert.Zero(t, count)
}
