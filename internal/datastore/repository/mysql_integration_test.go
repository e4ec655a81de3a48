//go:build integration

package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/medvault/medvault-go/internal/conf"
	"github.com/medvault/medvault-go/internal/datastore"
	"github.com/medvault/medvault-go/internal/datastore/entities"
	"github.com/medvault/medvault-go/internal/testutil/containers"
)

// MySQL container shared by all integration tests in this package.
var (
	mysqlContainer *containers.MySQLContainer
	mysqlDB        *gorm.DB
)

func TestMain(m *testing.M) {
	os.Exit(runWithMySQL(m))
}

func runWithMySQL(m *testing.M) int {
	ctx := context.Background()

	var err error
	mysqlContainer, err = containers.NewMySQLContainer(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start mysql container: %v\n", err)
		return 1
	}
	defer func() {
		if err := mysqlContainer.Terminate(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "failed to terminate mysql container: %v\n", err)
		}
	}()

	mysqlDB, err = datastore.Open(&conf.Database{
		Type: conf.DatabaseMySQL,
		DSN:  mysqlContainer.DSN(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open mysql database: %v\n", err)
		return 1
	}
	if err := datastore.Migrate(mysqlDB); err != nil {
		fmt.Fprintf(os.Stderr, "failed to migrate mysql schema: %v\n", err)
		return 1
	}

	return m.Run()
}

// resetMySQL truncates all engine tables so each test starts clean.
func resetMySQL(t *testing.T) {
	t.Helper()
	tables := []string{
		"prediction_alerts", "shortage_predictions", "demand_records",
		"context_signals", "inventories", "vendors", "medical_items",
		"engine_configs",
	}
	require.NoError(t, mysqlDB.Exec("SET FOREIGN_KEY_CHECKS = 0").Error)
	for _, table := range tables {
		require.NoError(t, mysqlDB.Exec("TRUNCATE TABLE "+table).Error)
	}
	require.NoError(t, mysqlDB.Exec("SET FOREIGN_KEY_CHECKS = 1").Error)
}

func TestMySQL_UpsertBatchIsIdempotent(t *testing.T) {
	resetMySQL(t)
	repo := NewPredictionRepository(mysqlDB)
	item := createTestItem(t, mysqlDB, "Insulin")

	pred := entities.ShortagePrediction{
		MedicalItemID: item.ID,
		Region:        "Lagos",
		ShortageDate:  testDay(6),
		Confidence:    0.9,
		Severity:      entities.SeverityCritical,
		DurationDays:  3,
		Active:        true,
	}

	stored, _, err := repo.UpsertBatch(t.Context(), []entities.ShortagePrediction{pred}, nil)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	firstID := stored[0].ID

	pred.Confidence = 0.95
	stored, _, err = repo.UpsertBatch(t.Context(), []entities.ShortagePrediction{pred}, nil)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, firstID, stored[0].ID, "rerun must update in place")

	var count int64
	require.NoError(t, mysqlDB.Model(&entities.ShortagePrediction{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestMySQL_CurrentSupplyAggregation(t *testing.T) {
	resetMySQL(t)
	repo := NewInventoryRepository(mysqlDB)
	item := createTestItem(t, mysqlDB, "Paracetamol")
	vendorA := createTestVendor(t, mysqlDB, "Pharmacy A", "Lagos")
	vendorB := createTestVendor(t, mysqlDB, "Pharmacy B", "Lagos")

	createTestStock(t, mysqlDB, item.ID, vendorA.ID, 25, true)
	createTestStock(t, mysqlDB, item.ID, vendorB.ID, 15, true)

	supply, err := repo.CurrentSupply(t.Context(), item.ID, "Lagos")
	require.NoError(t, err)
	assert.Equal(t, 40, supply)
}

func TestMySQL_DemandWindowOrdering(t *testing.T) {
	resetMySQL(t)
	repo := NewDemandRepository(mysqlDB)
	item := createTestItem(t, mysqlDB, "Amoxicillin")

	// Insert out of order; the window query must return period order.
	for _, n := range []int{3, 1, 2} {
		require.NoError(t, repo.RecordDemand(t.Context(), &entities.DemandRecord{
			MedicalItemID: item.ID,
			Region:        "Lagos",
			PeriodStart:   testDay(n),
			PeriodEnd:     testDay(n + 1),
			Count:         n * 10,
		}))
	}

	records, err := repo.ListWindow(t.Context(), item.ID, "Lagos", testDay(0), testDay(10))
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, 10, records[0].Count)
	assert.Equal(t, 30, records[2].Count)
}

func TestMySQL_ItemNameLookupIsCaseInsensitive(t *testing.T) {
	resetMySQL(t)
	repo := NewInventoryRepository(mysqlDB)
	createTestItem(t, mysqlDB, "Insulin")

	item, err := repo.GetItemByName(t.Context(), "iNsUlIn")
	require.NoError(t, err)
	assert.Equal(t, "Insulin", item.Name)
}

func TestMySQL_AlertLifecycle(t *testing.T) {
	resetMySQL(t)
	repo := NewPredictionRepository(mysqlDB)
	item := createTestItem(t, mysqlDB, "Insulin")

	pred := entities.ShortagePrediction{
		MedicalItemID: item.ID,
		Region:        "Lagos",
		ShortageDate:  testDay(10),
		Confidence:    0.9,
		Severity:      entities.SeverityHigh,
		DurationDays:  2,
		Active:        true,
	}
	_, alerts, err := repo.UpsertBatch(t.Context(), []entities.ShortagePrediction{pred},
		func(_ *entities.ShortagePrediction) *entities.PredictionAlert {
			return &entities.PredictionAlert{
				AlertType:         entities.AlertTypeShortageImminent,
				Message:           "test alert",
				NotifyVendors:     true,
				NotifyAuthorities: true,
			}
		})
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	require.NoError(t, repo.MarkAlertSent(t.Context(), alerts[0].ID, time.Now()))

	sent := true
	listed, total, err := repo.ListAlerts(t.Context(), AlertFilter{Sent: &sent, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, listed, 1)
	assert.True(t, listed[0].Sent)
}
