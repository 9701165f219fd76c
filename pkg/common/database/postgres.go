package database

import (
	"fmt"
	"sync"
	"time"

	"github.com/SankarSivan/Healthcare/pkg/common/config"
	"github.com/SankarSivan/Healthcare/pkg/common/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	postgresDB   *gorm.DB
	postgresOnce sync.Once
	postgresErr  error
)

func GetPostgres() (*gorm.DB, error) {
	postgresOnce.Do(func() {
		cfg := config.Load()
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.PostgresHost,
			cfg.PostgresUser,
			cfg.PostgresPassword,
			cfg.PostgresDB,
			cfg.PostgresPort,
			cfg.PostgresSSLMode,
		)

		postgresDB, postgresErr = openGorm(postgres.Open(dsn), cfg)
		if postgresErr != nil {
			logger.Log.WithError(postgresErr).WithField("host", cfg.PostgresHost).Error("Failed to connect to PostgreSQL")
			return
		}

		logger.Log.WithField("db", cfg.PostgresDB).Info("Connected to PostgreSQL")
	})

	return postgresDB, postgresErr
}

func ClosePostgres() error {
	return closeGorm(postgresDB)
}

// openGorm opens a dialector with UTC timestamps and the configured pool.
func openGorm(dialector gorm.Dialector, cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	return db, nil
}

func closeGorm(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
