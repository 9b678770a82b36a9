package datastore

import (
	"log"
	"log/slog"
	"os"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/soundfield/capture-report/internal/errors"
)

// DefaultSlowQueryThreshold defines the duration after which a query is
// considered slow. The aggregation queries scan the whole table, so the
// threshold is generous.
const DefaultSlowQueryThreshold = 1 * time.Second

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() gormlogger.Interface {
	return gormlogger.New(log.New(os.Stderr, "", log.LstdFlags), gormlogger.Config{
		SlowThreshold:             DefaultSlowQueryThreshold,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// performAutoMigration automates database migrations with error handling.
func performAutoMigration(db *gorm.DB, logger *slog.Logger, dbType string) error {
	start := time.Now()

	if err := db.AutoMigrate(&MediaFile{}); err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "auto_migrate").
			Context("db_type", dbType).
			Context("table", "media_files").
			Build()
	}

	logger.Debug("database migration completed",
		"db_type", dbType,
		"duration", time.Since(start))
	return nil
}
