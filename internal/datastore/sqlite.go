package datastore

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SQLiteStore implements Interface for SQLite
type SQLiteStore struct {
	DataStore
}

// Open sets up the SQLite database connection and runs migrations.
func (store *SQLiteStore) Open() error {
	path := store.Settings.Output.SQLite.Path

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: createGormLogger()})
	if err != nil {
		return fmt.Errorf("failed to open SQLite database %s: %w", path, err)
	}

	store.DB = db
	return performAutoMigration(db, store.logger, "SQLite")
}

// Close is a no-op for SQLite, the connection is released with the process.
func (store *SQLiteStore) Close() error {
	return nil
}
