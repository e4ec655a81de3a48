// Package datastore opens the database connection and owns schema migration.
package datastore

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/medvault/medvault-go/internal/conf"
	"github.com/medvault/medvault-go/internal/datastore/entities"
)

// Open connects to the configured database. SQLite is the default for
// single-node deployments and tests; MySQL serves shared deployments.
func Open(cfg *conf.Database) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}

	switch cfg.Type {
	case conf.DatabaseSQLite, "":
		path := cfg.Path
		if path == "" {
			path = "medvault.db"
		}
		db, err := gorm.Open(sqlite.Open(path), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database %q: %w", path, err)
		}
		return db, nil
	case conf.DatabaseMySQL:
		db, err := gorm.Open(mysql.Open(cfg.DSN), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open mysql database: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
	}
}

// Migrate creates or updates the schema for all engine tables.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entities.EngineConfig{},
		&entities.MedicalItem{},
		&entities.Vendor{},
		&entities.Inventory{},
		&entities.DemandRecord{},
		&entities.ContextSignal{},
		&entities.ShortagePrediction{},
		&entities.PredictionAlert{},
	)
	if err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}
	return nil
}
