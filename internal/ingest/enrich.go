// Package ingest scans media files on disk, derives their enrichment
// columns from the capture timestamp and the collection calendar, flags
// outlier days, and loads the result into the datastore.
package ingest

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/soundfield/capture-report/internal/calendar"
	"github.com/soundfield/capture-report/internal/conf"
	"github.com/soundfield/capture-report/internal/datastore"
)

// Enrich builds a MediaFile record from a scanned file: the timestamp is
// split into the date, week, and month representations the analytics
// queries group on, and the calendar supplies school year, period,
// collection-day, and activity attribution.
func Enrich(raw RawFile, cal *calendar.Model, dayMap calendar.CollectionDayMap) datastore.MediaFile {
	ts := raw.Timestamp
	date := ts.Format(conf.DateLayout)
	isoYear, isoWeek := ts.ISOWeek()

	mf := datastore.MediaFile{
		FileName: filepath.Base(raw.Path),
		FileType: raw.Type,
		SizeMB:   raw.SizeMB,

		Date:        date,
		Time:        ts.Format("15:04:05"),
		ISOYear:     isoYear,
		ISOWeek:     isoWeek,
		ISOYearWeek: fmt.Sprintf("%d-W%02d", isoYear, isoWeek),
		Month:       ts.Format("2006-01"),
		DayOfWeek:   ts.Weekday().String(),

		SchoolYear:        datastore.NotApplicable,
		CollectionPeriod:  datastore.NotApplicable,
		ScheduledActivity: cal.ScheduledActivity(ts),
		OutlierStatus:     datastore.StatusNormal,
	}

	if info, ok := dayMap[date]; ok {
		mf.SchoolYear = info.SchoolYear
		mf.CollectionPeriod = info.CollectionPeriod
		mf.IsCollectionDay = true
	} else if year, period, ok := schoolYearForDate(cal, date); ok {
		// Inside a school year span but not a collection day (weekend,
		// holiday). The row keeps its attribution so the cleaning matrix
		// can count it.
		mf.SchoolYear = year
		mf.CollectionPeriod = period
	}

	return mf
}

// schoolYearForDate attributes a non-collection date to its school year
// span, if any.
func schoolYearForDate(cal *calendar.Model, date string) (year, period string, ok bool) {
	ts, err := time.Parse(conf.DateLayout, date)
	if err != nil {
		return "", "", false
	}
	for _, label := range cal.SchoolYears() {
		start, end, err := cal.SchoolYearSpan(label)
		if err != nil {
			continue
		}
		if !ts.Before(start) && !ts.After(end) {
			return label, datastore.NotApplicable, true
		}
	}
	return "", "", false
}

// NormalizeType maps a file extension to the canonical upper-case type.
func NormalizeType(path string) string {
	return strings.ToUpper(strings.TrimPrefix(filepath.Ext(path), "."))
}
