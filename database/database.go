package database

import (
	"fmt"
	"time"

	"temple-services/internal/domain/billing"
	"temple-services/internal/domain/bookings"
	"temple-services/internal/domain/subscriptions"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// GormConfig is shared with the sqlmock-backed test database so duplicate
// keys surface as gorm.ErrDuplicatedKey in both.
func GormConfig(logLevel gormlogger.LogLevel) *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(logLevel),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

func InitDB(dsn string, log *zap.Logger) error {
	if dsn == "" {
		return fmt.Errorf("DB_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), GormConfig(gormlogger.Warn))
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := db.AutoMigrate(
		&bookings.Booking{},
		&subscriptions.Subscription{},
		&billing.PendingPayment{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	DB = db
	log.Info("Connected and migrated successfully")
	return nil
}
