package database

import (
	"fmt"
	"sync"

	"github.com/SankarSivan/Healthcare/pkg/common/config"
	"github.com/SankarSivan/Healthcare/pkg/common/logger"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var (
	mysqlDB   *gorm.DB
	mysqlOnce sync.Once
	mysqlErr  error
)

// GetMySQL returns the shared MySQL connection. DATE/DATETIME columns are
// scanned into time.Time (parseTime=true).
func GetMySQL() (*gorm.DB, error) {
	mysqlOnce.Do(func() {
		cfg := config.Load()
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
			cfg.MySQLUser,
			cfg.MySQLPassword,
			cfg.MySQLHost,
			cfg.MySQLPort,
			cfg.MySQLDB,
		)

		mysqlDB, mysqlErr = openGorm(mysql.Open(dsn), cfg)
		if mysqlErr != nil {
			logger.Log.WithError(mysqlErr).WithField("host", cfg.MySQLHost).Error("Failed to connect to MySQL")
			return
		}

		logger.Log.WithField("db", cfg.MySQLDB).Info("Connected to MySQL")
	})

	return mysqlDB, mysqlErr
}

func CloseMySQL() error {
	return closeGorm(mysqlDB)
}

// Open returns the connection for the configured dataset source.
func Open(source string) (*gorm.DB, error) {
	switch source {
	case config.SourceMySQL:
		return GetMySQL()
	case config.SourcePostgres:
		return GetPostgres()
	default:
		return nil, fmt.Errorf("dataset source %q has no database", source)
	}
}

func Close() {
	if err := CloseMySQL(); err != nil {
		logger.Log.WithError(err).Warn("Failed to close MySQL")
	}
	if err := ClosePostgres(); err != nil {
		logger.Log.WithError(err).Warn("Failed to close PostgreSQL")
	}
}
