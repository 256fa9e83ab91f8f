package database

import (
	"context"
	"fmt"
	"time"

	"seva-backend/internal/config"
	"seva-backend/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to Postgres and sizes the pool. The returned handle is the
// only shared state in the process; callers pass it to every store.
func Open(cfg *config.Config, log *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), GormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	return db, nil
}

// GormConfig is shared by the Postgres connection and the SQLite test
// databases so both translate duplicate-key errors the same way. Timestamps
// are written in UTC; day boundaries in reports are UTC days.
func GormConfig(log *logrus.Logger) *gorm.Config {
	gc := &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
	if log != nil {
		gc.Logger = gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	} else {
		gc.Logger = gormlogger.Default.LogMode(gormlogger.Silent)
	}
	return gc
}

// Migrate creates or updates the schema. Order matters: tenants first, then
// the tables that reference them.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Business{},
		&models.Branch{},
		&models.Employee{},
		&models.Customer{},
		&models.WorkEntry{},
		&models.Document{},
		&models.Payment{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Ping checks the pool can reach the database.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
