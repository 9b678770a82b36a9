package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundfield/capture-report/internal/calendar"
	"github.com/soundfield/capture-report/internal/conf"
	"github.com/soundfield/capture-report/internal/datastore"
)

func ingestCalendar() *conf.CalendarConfig {
	return &conf.CalendarConfig{
		SchoolCalendar: map[string]conf.SchoolYear{
			"SY 21-22": {
				StartDate: "2021-11-01",
				EndDate:   "2021-11-12",
				Periods: map[string][]string{
					"SY 21-22 P1": {"2021-11-01", "2021-11-12"},
				},
			},
		},
		NonCollectionDays: map[string]conf.NonCollectionDay{
			"2021-11-11": {Reason: "Veterans Day", Type: "Holiday"},
		},
		ActivitySchedule: []conf.ActivityEntry{
			{Name: "Literacy Block", Days: []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}, StartTime: "09:00", EndTime: "10:30"},
		},
	}
}

func TestParseTimestampVariants(t *testing.T) {
	want := time.Date(2021, 11, 1, 9, 15, 30, 0, time.UTC)

	for _, name := range []string{
		"20211101_091530.mp3",
		"2021-11-01_09-15-30.jpg",
		"2021-11-01 09.15.30.mp3",
		"recorder_20211101T091530.mp3",
	} {
		ts, ok := parseTimestamp(name, time.UTC)
		require.True(t, ok, "no timestamp in %s", name)
		assert.Equal(t, want, ts, name)
	}

	_, ok := parseTimestamp("capture.mp3", time.UTC)
	assert.False(t, ok)

	// Month 13 is rejected, not normalized into the next year.
	_, ok = parseTimestamp("20211301_091530.mp3", time.UTC)
	assert.False(t, ok)
}

func TestEnrichOnCollectionDay(t *testing.T) {
	cal := calendar.New(ingestCalendar())
	dayMap := cal.BuildCollectionDayMap()

	raw := RawFile{
		Path:      "/media/20211101_091530.mp3",
		Type:      "MP3",
		SizeMB:    2.5,
		Timestamp: time.Date(2021, 11, 1, 9, 15, 30, 0, time.UTC),
	}
	mf := Enrich(raw, cal, dayMap)

	assert.Equal(t, "20211101_091530.mp3", mf.FileName)
	assert.Equal(t, "MP3", mf.FileType)
	assert.Equal(t, "2021-11-01", mf.Date)
	assert.Equal(t, "09:15:30", mf.Time)
	assert.Equal(t, 2021, mf.ISOYear)
	assert.Equal(t, 44, mf.ISOWeek)
	assert.Equal(t, "2021-W44", mf.ISOYearWeek)
	assert.Equal(t, "2021-11", mf.Month)
	assert.Equal(t, "Monday", mf.DayOfWeek)
	assert.Equal(t, "SY 21-22", mf.SchoolYear)
	assert.Equal(t, "SY 21-22 P1", mf.CollectionPeriod)
	assert.True(t, mf.IsCollectionDay)
	assert.Equal(t, "Literacy Block", mf.ScheduledActivity)
	assert.Equal(t, datastore.StatusNormal, mf.OutlierStatus)
}

func TestEnrichWeekendKeepsSchoolYear(t *testing.T) {
	cal := calendar.New(ingestCalendar())
	dayMap := cal.BuildCollectionDayMap()

	raw := RawFile{
		Path:      "/media/sat.jpg",
		Type:      "JPG",
		Timestamp: time.Date(2021, 11, 6, 10, 0, 0, 0, time.UTC),
	}
	mf := Enrich(raw, cal, dayMap)

	assert.False(t, mf.IsCollectionDay)
	assert.Equal(t, "SY 21-22", mf.SchoolYear)
	assert.Equal(t, datastore.NotApplicable, mf.CollectionPeriod)
	assert.Equal(t, calendar.Unscheduled, mf.ScheduledActivity)
}

func TestEnrichOutsideSchoolYear(t *testing.T) {
	cal := calendar.New(ingestCalendar())
	dayMap := cal.BuildCollectionDayMap()

	raw := RawFile{
		Path:      "/media/summer.mp3",
		Type:      "MP3",
		Timestamp: time.Date(2021, 7, 15, 12, 0, 0, 0, time.UTC),
	}
	mf := Enrich(raw, cal, dayMap)

	assert.Equal(t, datastore.NotApplicable, mf.SchoolYear)
	assert.Equal(t, datastore.NotApplicable, mf.CollectionPeriod)
	assert.False(t, mf.IsCollectionDay)
}

func TestNormalizeType(t *testing.T) {
	assert.Equal(t, "MP3", NormalizeType("/a/b/c.mp3"))
	assert.Equal(t, "JPG", NormalizeType("x.JPG"))
	assert.Equal(t, "", NormalizeType("noext"))
}

func TestFlagOutliers(t *testing.T) {
	var files []datastore.MediaFile
	addDay := func(date string, count int) {
		for i := 0; i < count; i++ {
			files = append(files, datastore.MediaFile{
				Date:            date,
				IsCollectionDay: true,
				OutlierStatus:   datastore.StatusNormal,
			})
		}
	}
	for d := 1; d <= 7; d++ {
		addDay(fmt.Sprintf("2021-11-%02d", d), 5)
	}
	addDay("2021-11-08", 50)

	flagged := FlagOutliers(files)

	assert.Equal(t, 50, flagged)
	for _, f := range files {
		if f.Date == "2021-11-08" {
			assert.Equal(t, datastore.StatusOutlier, f.OutlierStatus)
		} else {
			assert.Equal(t, datastore.StatusNormal, f.OutlierStatus)
		}
	}
}

func TestFlagOutliersTooFewDays(t *testing.T) {
	files := []datastore.MediaFile{
		{Date: "2021-11-01", IsCollectionDay: true, OutlierStatus: datastore.StatusNormal},
		{Date: "2021-11-02", IsCollectionDay: true, OutlierStatus: datastore.StatusNormal},
	}
	assert.Zero(t, FlagOutliers(files))
}

func TestFlagOutliersIgnoresNonCollectionDays(t *testing.T) {
	var files []datastore.MediaFile
	for d := 1; d <= 5; d++ {
		files = append(files, datastore.MediaFile{
			Date:            fmt.Sprintf("2021-11-%02d", d),
			IsCollectionDay: true,
			OutlierStatus:   datastore.StatusNormal,
		})
	}
	// A huge weekend day must not be flagged nor skew the fences.
	for i := 0; i < 100; i++ {
		files = append(files, datastore.MediaFile{
			Date:            "2021-11-06",
			IsCollectionDay: false,
			OutlierStatus:   datastore.StatusNormal,
		})
	}

	FlagOutliers(files)
	for _, f := range files {
		assert.Equal(t, datastore.StatusNormal, f.OutlierStatus)
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	writeFile := func(name string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("data"), 0o644))
	}
	writeFile("20211101_091530.mp3")
	writeFile("photo_2021-11-02_10-00-00.jpg")
	writeFile("notes.txt")
	writeFile("untimestamped.mp3")

	files, err := Scan(context.Background(), dir, []string{"MP3", "JPG"}, time.UTC)
	require.NoError(t, err)
	require.Len(t, files, 3)

	byName := make(map[string]RawFile)
	for _, f := range files {
		byName[filepath.Base(f.Path)] = f
	}

	mp3 := byName["20211101_091530.mp3"]
	assert.Equal(t, "MP3", mp3.Type)
	assert.Equal(t, time.Date(2021, 11, 1, 9, 15, 30, 0, time.UTC), mp3.Timestamp)
	assert.Greater(t, mp3.SizeMB, 0.0)

	// No timestamp in the name falls back to the modification time.
	fallback := byName["untimestamped.mp3"]
	assert.False(t, fallback.Timestamp.IsZero())
}
