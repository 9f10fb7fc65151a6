package database

import (
	"fmt"
	"time"

	"github.com/vladimiradmaev/ai-trainer/internal/config"
	"github.com/vladimiradmaev/ai-trainer/internal/database/migrations"
	"github.com/vladimiradmaev/ai-trainer/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// KVEntry is one snapshot row: a whole store collection under a fixed key.
type KVEntry struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName keeps the table name stable for the SQL migrations.
func (KVEntry) TableName() string { return "kv_entries" }

// NewPostgresDB opens the database and brings the schema up to date
func NewPostgresDB(cfg config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrations.LoadSQLMigrations(); err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	if err := migrations.RunMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := db.AutoMigrate(&KVEntry{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	logger.Info("Database connection established and migrations completed", "host", cfg.Host, "db", cfg.DBName)
	return db, nil
}
