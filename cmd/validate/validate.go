// Package validate implements the command that checks the configuration
// and calendar and recomputes the cross-sheet totals without writing a
// workbook.
package validate

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/soundfield/capture-report/internal/calendar"
	"github.com/soundfield/capture-report/internal/conf"
	"github.com/soundfield/capture-report/internal/datastore"
	"github.com/soundfield/capture-report/internal/report"
)

// Command creates the validate subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration, calendar, and cross-sheet totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := conf.ValidateSettings(settings); err != nil {
				return fmt.Errorf("settings invalid: %w", err)
			}
			if settings.Calendar.Empty() {
				return fmt.Errorf("calendar is empty or was rejected at load, check the log for details")
			}
			if err := conf.ValidateCalendar(&settings.Calendar); err != nil {
				return fmt.Errorf("calendar invalid: %w", err)
			}

			cal := calendar.New(&settings.Calendar)
			dayMap := cal.BuildCollectionDayMap()
			fmt.Printf("Configuration OK: %d collection days across %d school years\n",
				len(dayMap), len(settings.Calendar.SchoolCalendar))
			for _, year := range cal.SchoolYears() {
				fmt.Printf("  %s: %d collection days\n", year, cal.CollectionDaysForSchoolYear(year))
				for _, period := range cal.Periods(year) {
					fmt.Printf("    %s: %d collection days\n", period, cal.CollectionDaysForPeriod(period))
				}
			}

			store := datastore.New(settings)
			if store == nil {
				return fmt.Errorf("no database output enabled in configuration")
			}
			if err := store.Open(); err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			results, err := report.NewGenerator(settings, store).Validate(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Cross-sheet totals: %d rules\n", len(results))
			failed := 0
			for _, r := range results {
				status := "OK"
				if !r.Consistent {
					status = "MISMATCH"
					failed++
				}
				fmt.Printf("  [%s] %s (%s): max delta %.2f\n", status, r.Rule, r.Field, r.MaxDelta)

				sheets := make([]string, 0, len(r.Values))
				for sheet := range r.Values {
					sheets = append(sheets, sheet)
				}
				sort.Strings(sheets)
				for _, sheet := range sheets {
					fmt.Printf("      %s = %.2f\n", sheet, r.Values[sheet])
				}
				for _, sheet := range r.Missing {
					fmt.Printf("      %s: no total registered\n", sheet)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d totals rules failed", failed, len(results))
			}
			return nil
		},
	}
	return cmd
}
