// Package calendar derives collection-day information from the declarative
// school calendar configuration: which dates are valid collection days,
// which school year and period a date belongs to, and what activity is
// scheduled at a given time.
package calendar

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/soundfield/capture-report/internal/conf"
)

// PeriodNA labels collection days that fall inside a school year span but
// outside every configured period. Rows with this label are counted and
// reported at build time since they indicate a calendar coverage gap.
const PeriodNA = "N/A"

// Unscheduled is returned when no activity schedule entry matches.
const Unscheduled = "Unscheduled"

// DayInfo holds the calendar labels for one collection day.
type DayInfo struct {
	SchoolYear       string
	CollectionPeriod string
}

// CollectionDayMap maps ISO date strings to their calendar labels. It
// contains only valid collection days: weekdays within a school year span
// that are not listed as non-collection days. Built once per report run and
// treated as read-only afterwards.
type CollectionDayMap map[string]DayInfo

// SortedDates returns every collection date in ascending order.
func (m CollectionDayMap) SortedDates() []string {
	dates := make([]string, 0, len(m))
	for d := range m {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Model answers calendar questions for a loaded configuration. A Model over
// an empty configuration is valid and returns empty results everywhere.
type Model struct {
	config *conf.CalendarConfig
	logger *slog.Logger
}

// New creates a calendar model for the given configuration.
func New(config *conf.CalendarConfig) *Model {
	return &Model{
		config: config,
		logger: slog.Default().With("service", "calendar"),
	}
}

// isWeekday reports whether t falls on Monday through Friday.
func isWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// BuildCollectionDayMap walks every school year span day by day and
// collects the valid collection days with their school year and period
// labels. Deterministic and idempotent for a fixed configuration.
func (m *Model) BuildCollectionDayMap() CollectionDayMap {
	dayMap := make(CollectionDayMap)
	if m.config == nil {
		return dayMap
	}

	unattributed := 0

	for yearLabel, year := range m.config.SchoolCalendar {
		start, err := time.Parse(conf.DateLayout, year.StartDate)
		if err != nil {
			m.logger.Error("skipping school year with invalid start date",
				"school_year", yearLabel, "start_date", year.StartDate, "error", err)
			continue
		}
		end, err := time.Parse(conf.DateLayout, year.EndDate)
		if err != nil {
			m.logger.Error("skipping school year with invalid end date",
				"school_year", yearLabel, "end_date", year.EndDate, "error", err)
			continue
		}

		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if !isWeekday(d) {
				continue
			}
			dateStr := d.Format(conf.DateLayout)
			if _, excluded := m.config.NonCollectionDays[dateStr]; excluded {
				continue
			}

			period := m.periodForDate(year, d)
			if period == PeriodNA {
				unattributed++
			}
			dayMap[dateStr] = DayInfo{
				SchoolYear:       yearLabel,
				CollectionPeriod: period,
			}
		}
	}

	if unattributed > 0 {
		m.logger.Warn("collection days fall outside every configured period, rows will carry period N/A",
			"count", unattributed)
	}

	return dayMap
}

// periodForDate returns the label of the period containing d, or PeriodNA.
// ValidateCalendar rejects overlapping periods, so at most one can match.
func (m *Model) periodForDate(year conf.SchoolYear, d time.Time) string {
	for label, dates := range year.Periods {
		if len(dates) != 2 {
			continue
		}
		start, err1 := time.Parse(conf.DateLayout, dates[0])
		end, err2 := time.Parse(conf.DateLayout, dates[1])
		if err1 != nil || err2 != nil {
			continue
		}
		if !d.Before(start) && !d.After(end) {
			return label
		}
	}
	return PeriodNA
}

// CollectionDaysForPeriod counts the valid collection days within exactly
// the named period's span. The count is derived from the period span alone
// (weekday and exclusion test only) so that it is computable standalone.
func (m *Model) CollectionDaysForPeriod(periodLabel string) int {
	if m.config == nil {
		return 0
	}

	for _, year := range m.config.SchoolCalendar {
		dates, ok := year.Periods[periodLabel]
		if !ok || len(dates) != 2 {
			continue
		}
		start, err1 := time.Parse(conf.DateLayout, dates[0])
		end, err2 := time.Parse(conf.DateLayout, dates[1])
		if err1 != nil || err2 != nil {
			m.logger.Error("period has invalid dates", "period", periodLabel)
			return 0
		}

		count := 0
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if !isWeekday(d) {
				continue
			}
			if _, excluded := m.config.NonCollectionDays[d.Format(conf.DateLayout)]; excluded {
				continue
			}
			count++
		}
		return count
	}

	m.logger.Warn("period not found in school calendar", "period", periodLabel)
	return 0
}

// CollectionDaysForSchoolYear returns the school year total as the sum of
// its per-period counts. Days inside the year span but outside every period
// must not inflate the total, so the year span itself is never counted
// directly.
func (m *Model) CollectionDaysForSchoolYear(yearLabel string) int {
	if m.config == nil {
		return 0
	}
	year, ok := m.config.SchoolCalendar[yearLabel]
	if !ok {
		m.logger.Warn("school year not found in school calendar", "school_year", yearLabel)
		return 0
	}

	total := 0
	for periodLabel := range year.Periods {
		total += m.CollectionDaysForPeriod(periodLabel)
	}
	return total
}

// Periods returns all period labels for a school year, sorted.
func (m *Model) Periods(yearLabel string) []string {
	if m.config == nil {
		return nil
	}
	year, ok := m.config.SchoolCalendar[yearLabel]
	if !ok {
		return nil
	}
	labels := make([]string, 0, len(year.Periods))
	for label := range year.Periods {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// SchoolYearSpan returns the parsed start and end dates of a school year.
func (m *Model) SchoolYearSpan(yearLabel string) (start, end time.Time, err error) {
	if m.config == nil {
		return start, end, fmt.Errorf("no calendar configured")
	}
	year, ok := m.config.SchoolCalendar[yearLabel]
	if !ok {
		return start, end, fmt.Errorf("unknown school year %q", yearLabel)
	}
	start, err = time.Parse(conf.DateLayout, year.StartDate)
	if err != nil {
		return start, end, err
	}
	end, err = time.Parse(conf.DateLayout, year.EndDate)
	return start, end, err
}

// SchoolYears returns all configured school year labels, sorted.
func (m *Model) SchoolYears() []string {
	if m.config == nil {
		return nil
	}
	labels := make([]string, 0, len(m.config.SchoolCalendar))
	for label := range m.config.SchoolCalendar {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// ScheduledActivity returns the name of the first schedule entry whose
// weekday set contains ts's weekday and whose [start_time, end_time] range
// contains ts's time of day. Times are "HH:MM" strings compared lexically.
func (m *Model) ScheduledActivity(ts time.Time) string {
	if m.config == nil {
		return Unscheduled
	}

	timeStr := ts.Format("15:04")
	weekday := ts.Weekday().String()

	for _, entry := range m.config.ActivitySchedule {
		for _, day := range entry.Days {
			if day != weekday {
				continue
			}
			if entry.StartTime <= timeStr && timeStr <= entry.EndTime {
				return entry.Name
			}
		}
	}
	return Unscheduled
}

// NonCollectionInfo returns the reason/type entry for a date, if present.
func (m *Model) NonCollectionInfo(dateStr string) (conf.NonCollectionDay, bool) {
	if m.config == nil {
		return conf.NonCollectionDay{}, false
	}
	info, ok := m.config.NonCollectionDays[dateStr]
	return info, ok
}
