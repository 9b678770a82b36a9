// validate.go: validation of settings and calendar configuration
package conf

import (
	"fmt"
	"time"
)

// DateLayout is the ISO date layout used throughout the configuration.
const DateLayout = "2006-01-02"

// ValidateSettings checks settings values for obvious misconfiguration.
func ValidateSettings(settings *Settings) error {
	if settings.Output.Report.Path == "" {
		return fmt.Errorf("output.report.path must not be empty")
	}
	if !settings.Output.SQLite.Enabled && !settings.Output.MySQL.Enabled {
		return fmt.Errorf("no database output enabled, enable output.sqlite or output.mysql")
	}
	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		return fmt.Errorf("output.sqlite.path must not be empty when SQLite is enabled")
	}
	return nil
}

// ValidateCalendar checks the calendar configuration for structural defects:
// unparseable dates, period spans outside their school year, and overlapping
// periods within a year. Overlap is rejected rather than resolved by
// first-match so that period attribution stays well defined.
func ValidateCalendar(c *CalendarConfig) error {
	for yearLabel, year := range c.SchoolCalendar {
		yearStart, err := time.Parse(DateLayout, year.StartDate)
		if err != nil {
			return fmt.Errorf("school year %q: invalid start_date %q: %w", yearLabel, year.StartDate, err)
		}
		yearEnd, err := time.Parse(DateLayout, year.EndDate)
		if err != nil {
			return fmt.Errorf("school year %q: invalid end_date %q: %w", yearLabel, year.EndDate, err)
		}
		if yearEnd.Before(yearStart) {
			return fmt.Errorf("school year %q: end_date %s before start_date %s", yearLabel, year.EndDate, year.StartDate)
		}

		type span struct {
			label      string
			start, end time.Time
		}
		spans := make([]span, 0, len(year.Periods))

		for periodLabel, dates := range year.Periods {
			if len(dates) != 2 {
				return fmt.Errorf("school year %q: period %q must have exactly [start, end] dates, got %d", yearLabel, periodLabel, len(dates))
			}
			start, err := time.Parse(DateLayout, dates[0])
			if err != nil {
				return fmt.Errorf("school year %q: period %q: invalid start date %q: %w", yearLabel, periodLabel, dates[0], err)
			}
			end, err := time.Parse(DateLayout, dates[1])
			if err != nil {
				return fmt.Errorf("school year %q: period %q: invalid end date %q: %w", yearLabel, periodLabel, dates[1], err)
			}
			if end.Before(start) {
				return fmt.Errorf("school year %q: period %q: end before start", yearLabel, periodLabel)
			}
			if start.Before(yearStart) || end.After(yearEnd) {
				return fmt.Errorf("school year %q: period %q [%s, %s] lies outside the school year span", yearLabel, periodLabel, dates[0], dates[1])
			}
			spans = append(spans, span{periodLabel, start, end})
		}

		for i := range spans {
			for j := i + 1; j < len(spans); j++ {
				if !spans[i].end.Before(spans[j].start) && !spans[j].end.Before(spans[i].start) {
					return fmt.Errorf("school year %q: periods %q and %q overlap", yearLabel, spans[i].label, spans[j].label)
				}
			}
		}
	}

	for dateStr := range c.NonCollectionDays {
		if _, err := time.Parse(DateLayout, dateStr); err != nil {
			return fmt.Errorf("non_collection_days: invalid date key %q: %w", dateStr, err)
		}
	}

	for i, entry := range c.ActivitySchedule {
		if entry.Name == "" {
			return fmt.Errorf("daily_activity_schedule[%d]: name must not be empty", i)
		}
		if entry.StartTime > entry.EndTime {
			return fmt.Errorf("daily_activity_schedule[%d] (%s): start_time %q after end_time %q", i, entry.Name, entry.StartTime, entry.EndTime)
		}
	}

	return nil
}
