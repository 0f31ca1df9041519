package datastore

import (
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tphakala/nutritive-go/internal/conf"
	"github.com/tphakala/nutritive-go/internal/errors"
	"github.com/tphakala/nutritive-go/internal/logger"
)

// InMemoryPath selects a transient SQLite database
const InMemoryPath = ":memory:"

// SQLiteStore implements DataStore for SQLite
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

func validateSQLiteConfig(settings *conf.Settings) error {
	if settings.Output.SQLite.Path == "" {
		return validationError("sqlite path must not be empty", "output.sqlite.path", "")
	}
	return nil
}

// Open sets up the SQLite database connection
func (store *SQLiteStore) Open() error {
	if err := validateSQLiteConfig(store.Settings); err != nil {
		return err
	}

	path := store.Settings.Output.SQLite.Path
	if path != InMemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return errors.New(err).
				Component("datastore").
				Category(errors.CategoryFileIO).
				Context("path", path).
				Build()
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: createGormLogger()})
	if err != nil {
		return dbError(err, "open", "db_type", "SQLite", "path", path)
	}

	// An in-memory database lives on a single connection
	sqlDB, err := db.DB()
	if err != nil {
		return dbError(err, "open", "db_type", "SQLite")
	}
	sqlDB.SetMaxOpenConns(1)

	store.DB = db
	GetLogger().Info("opened SQLite database", logger.String("path", path))
	return performAutoMigration(db, "SQLite")
}

// Close closes the SQLite database connection
func (store *SQLiteStore) Close() error {
	return closeDB(store.DB, "SQLite")
}
