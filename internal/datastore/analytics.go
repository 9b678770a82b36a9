// analytics.go: aggregation queries feeding the report pipeline
package datastore

import (
	"context"

	"gorm.io/gorm"

	"github.com/soundfield/capture-report/internal/errors"
)

// Filters selects which media file rows participate in a query. The base
// filter (school year attributed, configured file types only) is always
// applied; the two flags tighten it further. The four flag combinations
// form the data cleaning matrix.
type Filters struct {
	CollectionDaysOnly bool
	ExcludeOutliers    bool
}

// CleanFilters returns the strictest filter combination, which the
// analysis sheets are built from.
func CleanFilters() Filters {
	return Filters{CollectionDaysOnly: true, ExcludeOutliers: true}
}

// DailyCount is one day's aggregate.
type DailyCount struct {
	Date             string  `gorm:"column:date"`
	SchoolYear       string  `gorm:"column:school_year"`
	CollectionPeriod string  `gorm:"column:collection_period"`
	DayOfWeek        string  `gorm:"column:day_of_week"`
	TotalFiles       int     `gorm:"column:total_files"`
	MP3Files         int     `gorm:"column:mp3_files"`
	JPGFiles         int     `gorm:"column:jpg_files"`
	TotalSizeMB      float64 `gorm:"column:total_size_mb"`
}

// WeeklyCount is one ISO week's aggregate.
type WeeklyCount struct {
	ISOYearWeek      string  `gorm:"column:iso_year_week"`
	SchoolYear       string  `gorm:"column:school_year"`
	CollectionPeriod string  `gorm:"column:collection_period"`
	TotalFiles       int     `gorm:"column:total_files"`
	MP3Files         int     `gorm:"column:mp3_files"`
	JPGFiles         int     `gorm:"column:jpg_files"`
	TotalSizeMB      float64 `gorm:"column:total_size_mb"`
}

// MonthlyCount is one calendar month's aggregate.
type MonthlyCount struct {
	Month       string  `gorm:"column:month"`
	SchoolYear  string  `gorm:"column:school_year"`
	TotalFiles  int     `gorm:"column:total_files"`
	MP3Files    int     `gorm:"column:mp3_files"`
	JPGFiles    int     `gorm:"column:jpg_files"`
	TotalSizeMB float64 `gorm:"column:total_size_mb"`
}

// PeriodCount is one collection period's aggregate.
type PeriodCount struct {
	SchoolYear       string  `gorm:"column:school_year"`
	CollectionPeriod string  `gorm:"column:collection_period"`
	TotalFiles       int     `gorm:"column:total_files"`
	MP3Files         int     `gorm:"column:mp3_files"`
	JPGFiles         int     `gorm:"column:jpg_files"`
	TotalSizeMB      float64 `gorm:"column:total_size_mb"`
}

// ActivityCount is one scheduled activity's aggregate.
type ActivityCount struct {
	ScheduledActivity string `gorm:"column:scheduled_activity"`
	TotalFiles        int    `gorm:"column:total_files"`
	MP3Files          int    `gorm:"column:mp3_files"`
	JPGFiles          int    `gorm:"column:jpg_files"`
}

// SummaryStats aggregates the whole filtered dataset.
type SummaryStats struct {
	TotalFiles      int     `gorm:"column:total_files"`
	MP3Files        int     `gorm:"column:mp3_files"`
	JPGFiles        int     `gorm:"column:jpg_files"`
	TotalSizeMB     float64 `gorm:"column:total_size_mb"`
	DistinctDays    int     `gorm:"column:distinct_days"`
	FirstDate       string  `gorm:"column:first_date"`
	LastDate        string  `gorm:"column:last_date"`
	MeanFilesPerDay float64 `gorm:"-"`
}

// CleaningMatrix counts rows under each filter combination, documenting
// how much data each cleaning step removes.
type CleaningMatrix struct {
	Total              int64 // base filter only
	CollectionDaysOnly int64
	NonOutliersOnly    int64
	Clean              int64 // both restrictions
}

const countSelect = `COUNT(*) as total_files,
	COALESCE(SUM(CASE WHEN file_type = 'MP3' THEN 1 ELSE 0 END), 0) as mp3_files,
	COALESCE(SUM(CASE WHEN file_type = 'JPG' THEN 1 ELSE 0 END), 0) as jpg_files,
	COALESCE(SUM(size_mb), 0) as total_size_mb`

// filteredQuery applies the base filter and the requested restrictions.
func (ds *DataStore) filteredQuery(ctx context.Context, filters Filters) *gorm.DB {
	q := ds.DB.WithContext(ctx).Model(&MediaFile{}).
		Where("school_year != ?", NotApplicable)

	if types := ds.Settings.Ingest.FileTypes; len(types) > 0 {
		q = q.Where("file_type IN ?", types)
	}
	if filters.CollectionDaysOnly {
		q = q.Where("is_collection_day = ?", true)
	}
	if filters.ExcludeOutliers {
		q = q.Where("outlier_status != ?", StatusOutlier)
	}
	return q
}

func (ds *DataStore) queryError(err error, operation string) error {
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Build()
}

// CountFiles returns the number of rows matching the filters.
func (ds *DataStore) CountFiles(ctx context.Context, filters Filters) (int64, error) {
	var count int64
	if err := ds.filteredQuery(ctx, filters).Count(&count).Error; err != nil {
		return 0, ds.queryError(err, "count_files")
	}
	return count, nil
}

// DailyCounts aggregates per day, ascending by date. Days with no files
// are absent; the reconciler fills them in downstream.
func (ds *DataStore) DailyCounts(ctx context.Context, filters Filters) ([]DailyCount, error) {
	var results []DailyCount
	err := ds.filteredQuery(ctx, filters).
		Select("date, MIN(school_year) as school_year, MIN(collection_period) as collection_period, MIN(day_of_week) as day_of_week, " + countSelect).
		Group("date").
		Order("date ASC").
		Scan(&results).Error
	if err != nil {
		return nil, ds.queryError(err, "daily_counts")
	}
	return results, nil
}

// WeeklyCounts aggregates per ISO week, ascending by week label.
func (ds *DataStore) WeeklyCounts(ctx context.Context, filters Filters) ([]WeeklyCount, error) {
	var results []WeeklyCount
	err := ds.filteredQuery(ctx, filters).
		Select("iso_year_week, MIN(school_year) as school_year, MIN(collection_period) as collection_period, " + countSelect).
		Group("iso_year_week").
		Order("iso_year_week ASC").
		Scan(&results).Error
	if err != nil {
		return nil, ds.queryError(err, "weekly_counts")
	}
	return results, nil
}

// MonthlyCounts aggregates per calendar month, ascending.
func (ds *DataStore) MonthlyCounts(ctx context.Context, filters Filters) ([]MonthlyCount, error) {
	var results []MonthlyCount
	err := ds.filteredQuery(ctx, filters).
		Select("month, MIN(school_year) as school_year, " + countSelect).
		Group("month").
		Order("month ASC").
		Scan(&results).Error
	if err != nil {
		return nil, ds.queryError(err, "monthly_counts")
	}
	return results, nil
}

// PeriodCounts aggregates per collection period within each school year.
func (ds *DataStore) PeriodCounts(ctx context.Context, filters Filters) ([]PeriodCount, error) {
	var results []PeriodCount
	err := ds.filteredQuery(ctx, filters).
		Select("school_year, collection_period, " + countSelect).
		Group("school_year, collection_period").
		Order("school_year ASC, collection_period ASC").
		Scan(&results).Error
	if err != nil {
		return nil, ds.queryError(err, "period_counts")
	}
	return results, nil
}

// ActivityCounts aggregates per scheduled activity, busiest first.
func (ds *DataStore) ActivityCounts(ctx context.Context, filters Filters) ([]ActivityCount, error) {
	var results []ActivityCount
	err := ds.filteredQuery(ctx, filters).
		Select("scheduled_activity, " + countSelect).
		Group("scheduled_activity").
		Order("total_files DESC").
		Scan(&results).Error
	if err != nil {
		return nil, ds.queryError(err, "activity_counts")
	}
	return results, nil
}

// SummaryStats aggregates the whole filtered dataset into one row.
func (ds *DataStore) SummaryStats(ctx context.Context, filters Filters) (*SummaryStats, error) {
	var stats SummaryStats
	err := ds.filteredQuery(ctx, filters).
		Select(countSelect + `,
			COUNT(DISTINCT date) as distinct_days,
			COALESCE(MIN(date), '') as first_date,
			COALESCE(MAX(date), '') as last_date`).
		Scan(&stats).Error
	if err != nil {
		return nil, ds.queryError(err, "summary_stats")
	}
	if stats.DistinctDays > 0 {
		stats.MeanFilesPerDay = float64(stats.TotalFiles) / float64(stats.DistinctDays)
	}
	return &stats, nil
}

// CleaningMatrix runs the four filter combinations and returns the counts.
func (ds *DataStore) CleaningMatrix(ctx context.Context) (*CleaningMatrix, error) {
	matrix := &CleaningMatrix{}
	steps := []struct {
		filters Filters
		dest    *int64
	}{
		{Filters{}, &matrix.Total},
		{Filters{CollectionDaysOnly: true}, &matrix.CollectionDaysOnly},
		{Filters{ExcludeOutliers: true}, &matrix.NonOutliersOnly},
		{CleanFilters(), &matrix.Clean},
	}
	for _, step := range steps {
		count, err := ds.CountFiles(ctx, step.filters)
		if err != nil {
			return nil, err
		}
		*step.dest = count
	}
	return matrix, nil
}
