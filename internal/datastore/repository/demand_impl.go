package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/medvault/medvault-go/internal/datastore/entities"
)

type demandRepository struct {
	db *gorm.DB
}

// NewDemandRepository creates a new DemandRepository.
func NewDemandRepository(db *gorm.DB) DemandRepository {
	return &demandRepository{db: db}
}

// RecordDemand upserts a demand bucket, incrementing the count on conflict.
// The increment-on-conflict form works on both SQLite and MySQL: "count"
// inside DO UPDATE / ON DUPLICATE KEY refers to the existing row.
func (r *demandRepository) RecordDemand(ctx context.Context, rec *entities.DemandRecord) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "medical_item_id"},
				{Name: "region"},
				{Name: "period_start"},
			},
			DoUpdates: clause.Assignments(map[string]any{
				"count":      gorm.Expr("count + ?", rec.Count),
				"period_end": rec.PeriodEnd,
			}),
		}).
		Create(rec).Error
	if err != nil {
		return fmt.Errorf("failed to record demand for item %d in %s: %w", rec.MedicalItemID, rec.Region, err)
	}
	return nil
}

// ListWindow returns demand records whose period lies within [from, to].
func (r *demandRepository) ListWindow(ctx context.Context, itemID uint, region string, from, to time.Time) ([]entities.DemandRecord, error) {
	var records []entities.DemandRecord
	err := r.db.WithContext(ctx).
		Where("medical_item_id = ? AND region = ?", itemID, region).
		Where("period_start >= ? AND period_end <= ?", from, to).
		Order("period_start ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list demand records: %w", err)
	}
	return records, nil
}

// DistinctRegions returns all regions present in demand history.
func (r *demandRepository) DistinctRegions(ctx context.Context) ([]string, error) {
	var regions []string
	err := r.db.WithContext(ctx).
		Model(&entities.DemandRecord{}).
		Distinct("region").
		Order("region ASC").
		Pluck("region", &regions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list demand regions: %w", err)
	}
	return regions, nil
}
