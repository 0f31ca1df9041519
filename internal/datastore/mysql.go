package datastore

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/tphakala/nutritive-go/internal/conf"
	"github.com/tphakala/nutritive-go/internal/logger"
)

// MySQLStore implements DataStore for MySQL
type MySQLStore struct {
	DataStore
	Settings *conf.Settings
}

func validateMySQLConfig(settings *conf.Settings) error {
	m := settings.Output.MySQL
	switch {
	case m.Host == "":
		return validationError("mysql host must not be empty", "output.mysql.host", "")
	case m.Database == "":
		return validationError("mysql database must not be empty", "output.mysql.database", "")
	}
	return nil
}

// mysqlDSN builds the driver connection string from settings
func mysqlDSN(m *conf.MySQLSettings) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		m.Username, m.Password, m.Host, m.Port, m.Database)
}

// Open sets up the MySQL database connection
func (store *MySQLStore) Open() error {
	if err := validateMySQLConfig(store.Settings); err != nil {
		return err
	}

	dsn := mysqlDSN(&store.Settings.Output.MySQL)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: createGormLogger()})
	if err != nil {
		GetLogger().Error("failed to open MySQL database",
			logger.String("dsn", redactSensitiveInfo(dsn)),
			logger.Error(err))
		return dbError(err, "open", "db_type", "MySQL", "host", store.Settings.Output.MySQL.Host)
	}

	store.DB = db
	GetLogger().Info("opened MySQL database", logger.String("dsn", redactSensitiveInfo(dsn)))
	return performAutoMigration(db, "MySQL")
}

// Close closes the MySQL database connections
func (store *MySQLStore) Close() error {
	return closeDB(store.DB, "MySQL")
}
