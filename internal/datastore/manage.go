package datastore

import (
	"strings"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tphakala/nutritive-go/internal/errors"
	"github.com/tphakala/nutritive-go/internal/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// createGormLogger routes gorm output through the datastore module logger
func createGormLogger() gormlogger.Interface {
	return logger.NewGormLoggerAdapter(GetLogger(), slowQueryThreshold)
}

// performAutoMigration migrates the user and meal tables
func performAutoMigration(db *gorm.DB, dbType string) error {
	migrationStart := time.Now()
	migrationLogger := GetLogger().With(logger.String("db_type", dbType))

	migrationLogger.Debug("starting database migration")

	for _, model := range []any{&User{}, &Meal{}} {
		if err := db.AutoMigrate(model); err != nil {
			return dbError(err, "auto_migrate", "db_type", dbType, "model", modelName(model))
		}
	}

	migrationLogger.Debug("database migration completed",
		logger.Duration("total_duration", time.Since(migrationStart)))
	return nil
}

func modelName(model any) string {
	switch model.(type) {
	case *User:
		return "users"
	case *Meal:
		return "meals"
	default:
		return "unknown"
	}
}

// closeDB closes the generic database object behind db
func closeDB(db *gorm.DB, dbType string) error {
	if db == nil {
		return dbError(errors.NewStd("database connection is not initialized"), "close", "db_type", dbType)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return dbError(err, "close", "db_type", dbType)
	}

	if err := sqlDB.Close(); err != nil {
		GetLogger().Error("failed to close database",
			logger.String("db_type", dbType),
			logger.Error(err))
		return dbError(err, "close", "db_type", dbType)
	}

	GetLogger().Debug("database connection closed", logger.String("db_type", dbType))
	return nil
}

// redactSensitiveInfo masks the password of a MySQL DSN
// (user:pass@tcp(host:port)/db becomes user:***@tcp(host:port)/db).
func redactSensitiveInfo(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return dsn
	}
	credentials := dsn[:at]
	colon := strings.Index(credentials, ":")
	if colon < 0 {
		return dsn
	}
	return credentials[:colon+1] + "***" + dsn[at:]
}
