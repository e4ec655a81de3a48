package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	"github.com/medvault/medvault-go/internal/datastore/entities"
)

// setupTestDB creates an in-memory SQLite database with all engine tables.
// Uses shared-cache mode with a single connection so all operations see the
// same in-memory database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_foreign_keys=ON"), &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	require.NoError(t, err, "failed to open in-memory database")

	sqlDB, err := db.DB()
	require.NoError(t, err, "failed to get sql.DB")
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&entities.EngineConfig{},
		&entities.MedicalItem{},
		&entities.Vendor{},
		&entities.Inventory{},
		&entities.DemandRecord{},
		&entities.ContextSignal{},
		&entities.ShortagePrediction{},
		&entities.PredictionAlert{},
	)
	require.NoError(t, err, "failed to migrate engine tables")
	return db
}

// createTestItem inserts a catalogue item.
func createTestItem(t *testing.T, db *gorm.DB, name string) *entities.MedicalItem {
	t.Helper()
	item := &entities.MedicalItem{Name: name, Category: "medication"}
	require.NoError(t, db.Create(item).Error)
	return item
}

// createTestVendor inserts a vendor located in the given city.
func createTestVendor(t *testing.T, db *gorm.DB, name, city string) *entities.Vendor {
	t.Helper()
	vendor := &entities.Vendor{Name: name, City: city}
	require.NoError(t, db.Create(vendor).Error)
	return vendor
}

// createTestStock inserts an inventory row for (item, vendor).
func createTestStock(t *testing.T, db *gorm.DB, itemID, vendorID uint, stock int, available bool) {
	t.Helper()
	require.NoError(t, db.Create(&entities.Inventory{
		MedicalItemID: itemID,
		VendorID:      vendorID,
		CurrentStock:  stock,
		MinimumStock:  5,
		IsAvailable:   available,
	}).Error)
}

// testDay returns midnight UTC n days after a fixed base date.
func testDay(n int) time.Time {
	return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}
