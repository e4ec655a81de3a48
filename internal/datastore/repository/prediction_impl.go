package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/medvault/medvault-go/internal/datastore/entities"
)

type predictionRepository struct {
	db *gorm.DB
}

// NewPredictionRepository creates a new PredictionRepository.
func NewPredictionRepository(db *gorm.DB) PredictionRepository {
	return &predictionRepository{db: db}
}

// UpsertBatch stores predictions and their alerts in one transaction.
func (r *predictionRepository) UpsertBatch(ctx context.Context, preds []entities.ShortagePrediction, alertFor AlertFunc) ([]entities.ShortagePrediction, []entities.PredictionAlert, error) {
	var (
		stored []entities.ShortagePrediction
		alerts []entities.PredictionAlert
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range preds {
			p := preds[i]

			var existing entities.ShortagePrediction
			err := tx.Where(
				"medical_item_id = ? AND region = ? AND predicted_shortage_date = ?",
				p.MedicalItemID, p.Region, p.ShortageDate,
			).First(&existing).Error

			switch {
			case err == nil:
				// Same key: overwrite mutable fields, keep identity.
				updates := map[string]any{
					"confidence":               p.Confidence,
					"severity":                 p.Severity,
					"duration_days":            p.DurationDays,
					"demand_increase_reason":   p.DemandIncreaseReason,
					"supply_constraint_reason": p.SupplyConstraintReason,
					"active":                   true,
				}
				if err := tx.Model(&existing).Updates(updates).Error; err != nil {
					return fmt.Errorf("failed to update prediction %d: %w", existing.ID, err)
				}
				p.ID = existing.ID
				p.CreatedAt = existing.CreatedAt
				p.Active = true
			case errors.Is(err, gorm.ErrRecordNotFound):
				p.Active = true
				// The item association is carried for alert composition
				// only; it must not be written back to the catalogue.
				if err := tx.Omit(clause.Associations).Create(&p).Error; err != nil {
					return fmt.Errorf("failed to create prediction: %w", err)
				}
			default:
				return fmt.Errorf("failed to look up prediction: %w", err)
			}

			if alertFor != nil {
				if alert := alertFor(&p); alert != nil {
					alert.PredictionID = p.ID
					// Re-running the forecast over unchanged inputs lands on
					// the same prediction row; it must not stack another copy
					// of an alert already raised for it. An escalation to a
					// new alert type still produces one.
					var prior int64
					if err := tx.Model(&entities.PredictionAlert{}).
						Where("prediction_id = ? AND alert_type = ?", p.ID, alert.AlertType).
						Count(&prior).Error; err != nil {
						return fmt.Errorf("failed to check alerts for prediction %d: %w", p.ID, err)
					}
					if prior == 0 {
						if err := tx.Omit(clause.Associations).Create(alert).Error; err != nil {
							return fmt.Errorf("failed to create alert for prediction %d: %w", p.ID, err)
						}
						alerts = append(alerts, *alert)
					}
				}
			}

			stored = append(stored, p)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return stored, alerts, nil
}

// Get returns a prediction by ID with its item preloaded.
func (r *predictionRepository) Get(ctx context.Context, id uint) (*entities.ShortagePrediction, error) {
	var pred entities.ShortagePrediction
	if err := r.db.WithContext(ctx).Preload("MedicalItem").First(&pred, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPredictionNotFound
		}
		return nil, fmt.Errorf("failed to get prediction %d: %w", id, err)
	}
	return &pred, nil
}

// List returns predictions matching the filter, most imminent first.
func (r *predictionRepository) List(ctx context.Context, filter PredictionFilter) ([]entities.ShortagePrediction, error) {
	query := r.db.WithContext(ctx).Preload("MedicalItem")

	if filter.Region != "" {
		query = query.Where("region = ?", filter.Region)
	}
	if filter.ItemID > 0 {
		query = query.Where("medical_item_id = ?", filter.ItemID)
	}
	if filter.Severity != "" {
		query = query.Where("severity = ?", filter.Severity)
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}

	var preds []entities.ShortagePrediction
	if err := query.Order("predicted_shortage_date ASC").Find(&preds).Error; err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	return preds, nil
}

// ListCritical returns active critical/high predictions not yet in the past.
func (r *predictionRepository) ListCritical(ctx context.Context, region string, now time.Time) ([]entities.ShortagePrediction, error) {
	query := r.db.WithContext(ctx).
		Preload("MedicalItem").
		Where("severity IN ?", []string{entities.SeverityCritical, entities.SeverityHigh}).
		Where("active = ?", true).
		Where("predicted_shortage_date >= ?", now)
	if region != "" {
		query = query.Where("region = ?", region)
	}

	var preds []entities.ShortagePrediction
	if err := query.Order("predicted_shortage_date ASC").Find(&preds).Error; err != nil {
		return nil, fmt.Errorf("failed to list critical predictions: %w", err)
	}
	return preds, nil
}

// Stats summarizes stored predictions and alert volume over the last week.
func (r *predictionRepository) Stats(ctx context.Context, now time.Time) (*PredictionStats, error) {
	stats := &PredictionStats{}
	db := r.db.WithContext(ctx)

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.Total, db.Model(&entities.ShortagePrediction{})},
		{&stats.Active, db.Model(&entities.ShortagePrediction{}).Where("active = ?", true)},
		{&stats.Critical, db.Model(&entities.ShortagePrediction{}).Where("severity = ? AND active = ?", entities.SeverityCritical, true)},
		{&stats.High, db.Model(&entities.ShortagePrediction{}).Where("severity = ? AND active = ?", entities.SeverityHigh, true)},
		{&stats.RecentAlerts, db.Model(&entities.PredictionAlert{}).Where("sent_at >= ?", now.AddDate(0, 0, -7))},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to compute prediction stats: %w", err)
		}
	}
	return stats, nil
}

// ListAlerts returns alerts matching the filter with pagination.
func (r *predictionRepository) ListAlerts(ctx context.Context, filter AlertFilter) ([]entities.PredictionAlert, int64, error) {
	countQuery := r.db.WithContext(ctx).Model(&entities.PredictionAlert{})
	if filter.AlertType != "" {
		countQuery = countQuery.Where("alert_type = ?", filter.AlertType)
	}
	if filter.Sent != nil {
		countQuery = countQuery.Where("sent = ?", *filter.Sent)
	}
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count alerts: %w", err)
	}

	query := r.db.WithContext(ctx).
		Preload("Prediction").
		Preload("Prediction.MedicalItem").
		Order("created_at DESC")
	if filter.AlertType != "" {
		query = query.Where("alert_type = ?", filter.AlertType)
	}
	if filter.Sent != nil {
		query = query.Where("sent = ?", *filter.Sent)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var alerts []entities.PredictionAlert
	if err := query.Find(&alerts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, total, nil
}

// MarkAlertSent stamps an alert as handed off to the notification subsystem.
func (r *predictionRepository) MarkAlertSent(ctx context.Context, alertID uint, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&entities.PredictionAlert{}).
		Where("id = ?", alertID).
		Updates(map[string]any{"sent": true, "sent_at": at})
	if result.Error != nil {
		return fmt.Errorf("failed to mark alert %d sent: %w", alertID, result.Error)
	}
	return nil
}
