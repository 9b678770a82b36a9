// Package datastore persists media file metadata and serves the
// aggregation queries the report pipeline is built on.
package datastore

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/soundfield/capture-report/internal/conf"
	"github.com/soundfield/capture-report/internal/errors"
	"github.com/soundfield/capture-report/internal/logging"
)

// Interface abstracts the underlying database so callers never depend on
// a concrete driver.
type Interface interface {
	Open() error
	Close() error

	Save(file *MediaFile) error
	SaveBatch(files []MediaFile) error
	DeleteAll() error
	CountFiles(ctx context.Context, filters Filters) (int64, error)

	DailyCounts(ctx context.Context, filters Filters) ([]DailyCount, error)
	WeeklyCounts(ctx context.Context, filters Filters) ([]WeeklyCount, error)
	MonthlyCounts(ctx context.Context, filters Filters) ([]MonthlyCount, error)
	PeriodCounts(ctx context.Context, filters Filters) ([]PeriodCount, error)
	ActivityCounts(ctx context.Context, filters Filters) ([]ActivityCount, error)
	SummaryStats(ctx context.Context, filters Filters) (*SummaryStats, error)
	CleaningMatrix(ctx context.Context) (*CleaningMatrix, error)
}

// DataStore implements the shared parts of Interface on top of GORM.
type DataStore struct {
	DB       *gorm.DB
	Settings *conf.Settings
	logger   *slog.Logger
}

// New creates the store matching the enabled output in settings.
// SQLite wins when both outputs are enabled.
func New(settings *conf.Settings) Interface {
	logger := logging.ForService("datastore", "")

	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{DataStore: DataStore{Settings: settings, logger: logger}}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{DataStore: DataStore{Settings: settings, logger: logger}}
	default:
		logger.Error("no database output enabled")
		return nil
	}
}

// Save inserts a single media file record.
func (ds *DataStore) Save(file *MediaFile) error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	if err := ds.DB.Create(file).Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "save_media_file").
			Context("file_name", file.FileName).
			Build()
	}
	return nil
}

// SaveBatch inserts media file records in chunks inside one transaction.
func (ds *DataStore) SaveBatch(files []MediaFile) error {
	if len(files) == 0 {
		return nil
	}
	if err := ds.DB.CreateInBatches(files, 500).Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "save_batch").
			Context("count", len(files)).
			Build()
	}
	return nil
}

// DeleteAll removes every media file record, used before a full re-ingest.
func (ds *DataStore) DeleteAll() error {
	if err := ds.DB.Where("1 = 1").Delete(&MediaFile{}).Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "delete_all").
			Build()
	}
	return nil
}
