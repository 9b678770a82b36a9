package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/soundfield/capture-report/internal/calendar"
	"github.com/soundfield/capture-report/internal/conf"
	"github.com/soundfield/capture-report/internal/datastore"
	"github.com/soundfield/capture-report/internal/errors"
	"github.com/soundfield/capture-report/internal/logging"
	"github.com/soundfield/capture-report/internal/timeseries"
)

// countColumns are the numeric columns shared by every counts sheet.
var countColumns = []string{"Total_Files", "MP3_Files", "JPG_Files", "Total_Size_MB"}

// analyzedColumns are the columns run through autocorrelation analysis
// and forecasting.
var analyzedColumns = []string{"Total_Files", "MP3_Files", "JPG_Files"}

// Generator builds the full workbook for one run. All per-run state
// (analysis registry, totals registry, run ID) lives here, so a fresh
// Generator starts clean.
type Generator struct {
	settings   *conf.Settings
	store      datastore.Interface
	cal        *calendar.Model
	analyzer   *timeseries.Analyzer
	forecaster *timeseries.Forecaster
	totals     *TotalsEngine
	logger     *slog.Logger

	runID       string
	analysis    *Table
	forecasts   *Table
	generatedAt time.Time
}

// NewGenerator creates a generator for one report run.
func NewGenerator(settings *conf.Settings, store datastore.Interface) *Generator {
	return &Generator{
		settings:   settings,
		store:      store,
		cal:        calendar.New(&settings.Calendar),
		analyzer:   timeseries.NewAnalyzer(),
		forecaster: timeseries.NewForecaster(),
		totals:     NewTotalsEngine(),
		logger:     logging.ForService("report", settings.Main.Log.Path),
		runID:      uuid.New().String(),
	}
}

// RunID identifies this report run in logs and on the info sheet.
func (g *Generator) RunID() string {
	return g.runID
}

// Run builds every sheet and writes the workbook to the configured path.
func (g *Generator) Run(ctx context.Context) error {
	tables, err := g.buildTables(ctx)
	if err != nil {
		return err
	}
	return g.write(tables)
}

// Validate builds every sheet in memory, recomputing all registered
// totals, and returns the cross-sheet validation results without
// writing a workbook.
func (g *Generator) Validate(ctx context.Context) ([]ValidationResult, error) {
	if _, err := g.buildTables(ctx); err != nil {
		return nil, err
	}
	return g.totals.Validate(g.settings.TotalsValidation), nil
}

// buildTables runs the full sheet-building pipeline, populating the
// analysis, forecast, and totals registries along the way.
func (g *Generator) buildTables(ctx context.Context) ([]*Table, error) {
	g.generatedAt = time.Now()
	g.logger.Info("starting report run", "run_id", g.runID)

	g.analysis = NewTable("Time Series Analysis",
		"Sheet", "Column", "Outcome", "N", "Lag", "ACF", "ACF_Significant",
		"PACF", "PACF_Significant", "Confidence_Bound")
	g.forecasts = NewTable("Forecasts",
		"Sheet", "Column", "Step", "Forecast", "Lower_CI", "Upper_CI", "Quality", "Method")

	dayMap := g.cal.BuildCollectionDayMap()
	if len(dayMap) == 0 {
		g.logger.Warn("collection day calendar is empty, reporting sparse data as-is")
	}

	tables := []*Table{}

	summary, err := g.buildSummary(ctx)
	if err != nil {
		return nil, err
	}
	tables = append(tables, summary)

	cleaning, err := g.buildCleaningMatrix(ctx)
	if err != nil {
		return nil, err
	}
	tables = append(tables, cleaning)

	daily, err := g.buildDaily(ctx, dayMap)
	if err != nil {
		return nil, err
	}
	tables = append(tables, daily)

	weekly, weeklyRows, err := g.buildWeekly(ctx, dayMap)
	if err != nil {
		return nil, err
	}
	tables = append(tables, weekly, g.buildBiweekly(weeklyRows))

	monthly, err := g.buildMonthly(ctx, dayMap)
	if err != nil {
		return nil, err
	}
	tables = append(tables, monthly)

	period, err := g.buildPeriods(ctx)
	if err != nil {
		return nil, err
	}
	tables = append(tables, period)

	activity, err := g.buildActivity(ctx)
	if err != nil {
		return nil, err
	}
	tables = append(tables, activity)

	tables = append(tables, g.analysis, g.forecasts)
	tables = append(tables, g.buildValidation())
	tables = append(tables, g.buildInfo())

	return tables, nil
}

// buildSummary creates the one-row dataset summary and registers its
// totals for cross validation.
func (g *Generator) buildSummary(ctx context.Context) (*Table, error) {
	stats, err := g.store.SummaryStats(ctx, datastore.CleanFilters())
	if err != nil {
		return nil, err
	}

	t := NewTable("Summary Statistics",
		"Total_Files", "MP3_Files", "JPG_Files", "Total_Size_MB",
		"Distinct_Days", "First_Date", "Last_Date", "Mean_Files_Per_Day")
	t.Append(map[string]any{
		"Total_Files":        stats.TotalFiles,
		"MP3_Files":          stats.MP3Files,
		"JPG_Files":          stats.JPGFiles,
		"Total_Size_MB":      stats.TotalSizeMB,
		"Distinct_Days":      stats.DistinctDays,
		"First_Date":         stats.FirstDate,
		"Last_Date":          stats.LastDate,
		"Mean_Files_Per_Day": stats.MeanFilesPerDay,
	})

	g.totals.Register(t.Name, "Total_Files", float64(stats.TotalFiles))
	g.totals.Register(t.Name, "MP3_Files", float64(stats.MP3Files))
	g.totals.Register(t.Name, "JPG_Files", float64(stats.JPGFiles))
	g.totals.Register(t.Name, "Total_Size_MB", stats.TotalSizeMB)
	return t, nil
}

// buildCleaningMatrix documents how many rows each cleaning step removes.
func (g *Generator) buildCleaningMatrix(ctx context.Context) (*Table, error) {
	matrix, err := g.store.CleaningMatrix(ctx)
	if err != nil {
		return nil, err
	}

	t := NewTable("Data Cleaning", "Filter", "Files", "Removed_From_Total")
	rows := []struct {
		name  string
		count int64
	}{
		{"All attributed files", matrix.Total},
		{"Collection days only", matrix.CollectionDaysOnly},
		{"Non-outliers only", matrix.NonOutliersOnly},
		{"Collection days, non-outliers", matrix.Clean},
	}
	for _, r := range rows {
		t.Append(map[string]any{
			"Filter":             r.name,
			"Files":              r.count,
			"Removed_From_Total": matrix.Total - r.count,
		})
	}
	return t, nil
}

func attrsFor(info calendar.DayInfo, extra map[string]string) map[string]string {
	attrs := map[string]string{
		"School_Year":       info.SchoolYear,
		"Collection_Period": info.CollectionPeriod,
	}
	for k, v := range extra {
		attrs[k] = v
	}
	return attrs
}

// buildDaily reconciles the daily counts onto the collection-day axis.
func (g *Generator) buildDaily(ctx context.Context, dayMap calendar.CollectionDayMap) (*Table, error) {
	counts, err := g.store.DailyCounts(ctx, datastore.CleanFilters())
	if err != nil {
		return nil, err
	}

	axis := make([]timeseries.AxisEntry, 0, len(dayMap))
	for _, date := range dayMap.SortedDates() {
		info := dayMap[date]
		weekday := ""
		if ts, err := time.Parse(conf.DateLayout, date); err == nil {
			weekday = ts.Weekday().String()
		}
		axis = append(axis, timeseries.AxisEntry{
			Label: date,
			Attrs: attrsFor(info, map[string]string{"Day_of_Week": weekday}),
		})
	}

	observations := make([]timeseries.Observation, 0, len(counts))
	for _, c := range counts {
		observations = append(observations, timeseries.Observation{
			Label: c.Date,
			Values: map[string]float64{
				"Total_Files":   float64(c.TotalFiles),
				"MP3_Files":     float64(c.MP3Files),
				"JPG_Files":     float64(c.JPGFiles),
				"Total_Size_MB": c.TotalSizeMB,
			},
			Attrs: map[string]string{
				"School_Year":       c.SchoolYear,
				"Collection_Period": c.CollectionPeriod,
				"Day_of_Week":       c.DayOfWeek,
			},
		})
	}

	filled := timeseries.Reconcile(axis, observations, countColumns)
	table := g.countsTable("Daily Counts", "Date",
		[]string{"School_Year", "Collection_Period", "Day_of_Week"}, filled)
	g.analyzeAndForecast("Daily Counts", timeseries.ScaleDaily, filled)
	return table, nil
}

// weekLabel returns the ISO year-week label for an ISO date string.
func weekLabel(date string) (string, bool) {
	ts, err := time.Parse(conf.DateLayout, date)
	if err != nil {
		return "", false
	}
	year, week := ts.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week), true
}

// buildWeekly reconciles weekly counts onto the axis of ISO weeks that
// contain at least one collection day.
func (g *Generator) buildWeekly(ctx context.Context, dayMap calendar.CollectionDayMap) (*Table, []timeseries.FilledRow, error) {
	counts, err := g.store.WeeklyCounts(ctx, datastore.CleanFilters())
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[string]bool)
	axis := make([]timeseries.AxisEntry, 0)
	for _, date := range dayMap.SortedDates() {
		label, ok := weekLabel(date)
		if !ok || seen[label] {
			continue
		}
		seen[label] = true
		axis = append(axis, timeseries.AxisEntry{
			Label: label,
			Attrs: attrsFor(dayMap[date], nil),
		})
	}

	observations := make([]timeseries.Observation, 0, len(counts))
	for _, c := range counts {
		observations = append(observations, timeseries.Observation{
			Label: c.ISOYearWeek,
			Values: map[string]float64{
				"Total_Files":   float64(c.TotalFiles),
				"MP3_Files":     float64(c.MP3Files),
				"JPG_Files":     float64(c.JPGFiles),
				"Total_Size_MB": c.TotalSizeMB,
			},
			Attrs: map[string]string{
				"School_Year":       c.SchoolYear,
				"Collection_Period": c.CollectionPeriod,
			},
		})
	}

	filled := timeseries.Reconcile(axis, observations, countColumns)
	table := g.countsTable("Weekly Counts", "ISO_Week",
		[]string{"School_Year", "Collection_Period"}, filled)
	g.analyzeAndForecast("Weekly Counts", timeseries.ScaleWeekly, filled)
	return table, filled, nil
}

// buildBiweekly derives biweekly rows by summing consecutive weekly pairs.
func (g *Generator) buildBiweekly(weekly []timeseries.FilledRow) *Table {
	rows := make([]timeseries.FilledRow, 0, (len(weekly)+1)/2)
	for i := 0; i < len(weekly); i += 2 {
		first := weekly[i]
		label := first.Label
		values := make(map[string]float64, len(first.Values))
		for k, v := range first.Values {
			values[k] = v
		}
		has := first.HasFiles

		if i+1 < len(weekly) {
			second := weekly[i+1]
			label = first.Label + "/" + second.Label
			for k, v := range second.Values {
				values[k] += v
			}
			has = has || second.HasFiles
		}

		rows = append(rows, timeseries.FilledRow{
			Observation: timeseries.Observation{Label: label, Values: values, Attrs: first.Attrs},
			HasFiles:    has,
		})
	}

	table := g.countsTable("Biweekly Counts", "Biweek",
		[]string{"School_Year", "Collection_Period"}, rows)
	g.analyzeAndForecast("Biweekly Counts", timeseries.ScaleBiweekly, rows)
	return table
}

// buildMonthly reconciles monthly counts onto the months touched by
// collection days.
func (g *Generator) buildMonthly(ctx context.Context, dayMap calendar.CollectionDayMap) (*Table, error) {
	counts, err := g.store.MonthlyCounts(ctx, datastore.CleanFilters())
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	axis := make([]timeseries.AxisEntry, 0)
	for _, date := range dayMap.SortedDates() {
		label := date[:7]
		if seen[label] {
			continue
		}
		seen[label] = true
		axis = append(axis, timeseries.AxisEntry{
			Label: label,
			Attrs: map[string]string{"School_Year": dayMap[date].SchoolYear},
		})
	}

	observations := make([]timeseries.Observation, 0, len(counts))
	for _, c := range counts {
		observations = append(observations, timeseries.Observation{
			Label: c.Month,
			Values: map[string]float64{
				"Total_Files":   float64(c.TotalFiles),
				"MP3_Files":     float64(c.MP3Files),
				"JPG_Files":     float64(c.JPGFiles),
				"Total_Size_MB": c.TotalSizeMB,
			},
			Attrs: map[string]string{"School_Year": c.SchoolYear},
		})
	}

	filled := timeseries.Reconcile(axis, observations, countColumns)
	table := g.countsTable("Monthly Counts", "Month", []string{"School_Year"}, filled)
	g.analyzeAndForecast("Monthly Counts", timeseries.ScaleMonthly, filled)
	return table, nil
}

// buildPeriods reports per-period counts next to the expected number of
// collection days in each period.
func (g *Generator) buildPeriods(ctx context.Context) (*Table, error) {
	counts, err := g.store.PeriodCounts(ctx, datastore.CleanFilters())
	if err != nil {
		return nil, err
	}

	t := NewTable("Period Counts",
		"Collection_Period", "School_Year", "Collection_Days",
		"Total_Files", "MP3_Files", "JPG_Files", "Total_Size_MB", "Mean_Files_Per_Day")

	series := make([]float64, 0, len(counts))
	for _, c := range counts {
		days := g.cal.CollectionDaysForPeriod(c.CollectionPeriod)
		row := map[string]any{
			"Collection_Period": c.CollectionPeriod,
			"School_Year":       c.SchoolYear,
			"Collection_Days":   days,
			"Total_Files":       c.TotalFiles,
			"MP3_Files":         c.MP3Files,
			"JPG_Files":         c.JPGFiles,
			"Total_Size_MB":     c.TotalSizeMB,
		}
		if days > 0 {
			row["Mean_Files_Per_Day"] = float64(c.TotalFiles) / float64(days)
		}
		t.Append(row)
		series = append(series, float64(c.TotalFiles))
	}

	g.appendAnalysis("Period Counts", "Total_Files",
		g.analyzer.Analyze("Period Counts/Total_Files", series, timeseries.ScalePeriod))
	g.appendForecast("Period Counts", "Total_Files",
		g.forecaster.Forecast("Period Counts/Total_Files", series, timeseries.ScalePeriod))

	g.totals.AppendTotalRow(t, "Collection_Period")
	return t, nil
}

// buildActivity breaks the clean dataset down by scheduled activity. The
// per-row total is derived by the totals engine.
func (g *Generator) buildActivity(ctx context.Context) (*Table, error) {
	counts, err := g.store.ActivityCounts(ctx, datastore.CleanFilters())
	if err != nil {
		return nil, err
	}

	t := NewTable("Activity Counts", "Scheduled_Activity", "MP3_Files", "JPG_Files")
	for _, c := range counts {
		t.Append(map[string]any{
			"Scheduled_Activity": c.ScheduledActivity,
			"MP3_Files":          c.MP3Files,
			"JPG_Files":          c.JPGFiles,
		})
	}
	g.totals.AddRowTotals(t)
	g.totals.AppendTotalRow(t, "Scheduled_Activity")
	return t, nil
}

// countsTable renders reconciled rows into a sheet and appends its totals.
func (g *Generator) countsTable(name, labelColumn string, attrColumns []string, rows []timeseries.FilledRow) *Table {
	columns := append([]string{labelColumn}, attrColumns...)
	columns = append(columns, countColumns...)
	columns = append(columns, "Has_Files")

	t := NewTable(name, columns...)
	for _, r := range rows {
		row := map[string]any{labelColumn: r.Label, "Has_Files": r.HasFiles}
		for _, col := range attrColumns {
			row[col] = r.Attrs[col]
		}
		for _, col := range countColumns {
			row[col] = r.Values[col]
		}
		t.Append(row)
	}

	g.totals.AppendTotalRow(t, labelColumn)
	return t
}

// analyzeAndForecast runs the analyzer and forecaster over each analyzed
// column of a reconciled sheet and collects the results.
func (g *Generator) analyzeAndForecast(sheet string, scale timeseries.Scale, rows []timeseries.FilledRow) {
	for _, col := range analyzedColumns {
		series := timeseries.Column(rows, col)
		key := sheet + "/" + col

		g.appendAnalysis(sheet, col, g.analyzer.Analyze(key, series, scale))
		g.appendForecast(sheet, col, g.forecaster.Forecast(key, series, scale))
	}
}

func (g *Generator) appendAnalysis(sheet, column string, a *timeseries.Analysis) {
	if len(a.Lags) == 0 {
		g.analysis.Append(map[string]any{
			"Sheet":   sheet,
			"Column":  column,
			"Outcome": string(a.Outcome),
			"N":       a.N,
		})
		return
	}
	for _, lag := range a.Lags {
		g.analysis.Append(map[string]any{
			"Sheet":            sheet,
			"Column":           column,
			"Outcome":          string(a.Outcome),
			"N":                a.N,
			"Lag":              lag.Lag,
			"ACF":              lag.ACF,
			"ACF_Significant":  lag.ACFSignificant,
			"PACF":             lag.PACF,
			"PACF_Significant": lag.PACFSignificant,
			"Confidence_Bound": a.ConfidenceBound,
		})
	}
}

func (g *Generator) appendForecast(sheet, column string, f *timeseries.Forecast) {
	for _, row := range f.Rows {
		g.forecasts.Append(map[string]any{
			"Sheet":    sheet,
			"Column":   column,
			"Step":     row.Step,
			"Forecast": row.Forecast,
			"Lower_CI": row.Lower,
			"Upper_CI": row.Upper,
			"Quality":  f.Quality,
			"Method":   f.Method,
		})
	}
}

// buildValidation runs the configured cross-sheet totals rules.
func (g *Generator) buildValidation() *Table {
	results := g.totals.Validate(g.settings.TotalsValidation)

	t := NewTable("Validation", "Rule", "Field", "Sheet", "Value", "Max_Delta", "Status")
	for _, r := range results {
		status := "OK"
		if !r.Consistent {
			status = "MISMATCH"
		}
		sheets := make([]string, 0, len(r.Values))
		for sheet := range r.Values {
			sheets = append(sheets, sheet)
		}
		sort.Strings(sheets)
		for _, sheet := range sheets {
			t.Append(map[string]any{
				"Rule":      r.Rule,
				"Field":     r.Field,
				"Sheet":     sheet,
				"Value":     r.Values[sheet],
				"Max_Delta": r.MaxDelta,
				"Status":    status,
			})
		}
		for _, sheet := range r.Missing {
			t.Append(map[string]any{
				"Rule":   r.Rule,
				"Field":  r.Field,
				"Sheet":  sheet,
				"Status": "MISSING",
			})
		}
	}
	return t
}

// buildInfo records run metadata on its own sheet.
func (g *Generator) buildInfo() *Table {
	t := NewTable("Report Info", "Key", "Value")
	t.Append(map[string]any{"Key": "Title", "Value": g.settings.Output.Report.Title})
	t.Append(map[string]any{"Key": "Node", "Value": g.settings.Main.Name})
	t.Append(map[string]any{"Key": "Run_ID", "Value": g.runID})
	t.Append(map[string]any{"Key": "Generated_At", "Value": g.generatedAt.Format(time.RFC3339)})
	return t
}

// write renders every table and saves the workbook.
func (g *Generator) write(tables []*Table) error {
	wb, err := NewWorkbook()
	if err != nil {
		return errors.New(err).
			Component("report").
			Category(errors.CategoryReport).
			Build()
	}
	defer func() { _ = wb.Close() }()

	for _, t := range tables {
		if err := wb.AddTable(t); err != nil {
			return errors.New(err).
				Component("report").
				Category(errors.CategoryReport).
				Context("sheet", t.Name).
				Build()
		}
	}

	path := g.settings.Output.Report.Path
	if err := wb.Save(path); err != nil {
		return errors.New(err).
			Component("report").
			Category(errors.CategoryReport).
			Context("path", path).
			Build()
	}

	g.logger.Info("report written",
		"run_id", g.runID,
		"path", path,
		"sheets", len(tables))
	return nil
}
