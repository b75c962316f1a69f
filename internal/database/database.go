package database

import (
	"fmt"
	"log/slog"

	"github.com/yuu551/plc-control/internal/config"
	"github.com/yuu551/plc-control/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	// TranslateError maps driver duplicate-key errors to
	// gorm.ErrDuplicatedKey, which the audit sink relies on to tolerate
	// concurrent stream creation.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	DB = db
	slog.Info("Database connected", "host", cfg.DBHost, "db", cfg.DBName)
	return nil
}

func Migrate() error {
	return DB.AutoMigrate(
		&models.CommandRecord{},
		&models.SecureParameter{},
		&models.AuditStream{},
		&models.AuditEntry{},
	)
}
