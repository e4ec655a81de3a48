package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/medvault/medvault-go/internal/datastore/entities"
)

type contextRepository struct {
	db *gorm.DB
}

// NewContextRepository creates a new ContextRepository.
func NewContextRepository(db *gorm.DB) ContextRepository {
	return &contextRepository{db: db}
}

// Create stores a new context signal.
func (r *contextRepository) Create(ctx context.Context, signal *entities.ContextSignal) error {
	if err := r.db.WithContext(ctx).Create(signal).Error; err != nil {
		return fmt.Errorf("failed to create context signal: %w", err)
	}
	return nil
}

// ActiveSignals returns signals active within the [from, to] window.
// A null expiry means the signal is open-ended.
func (r *contextRepository) ActiveSignals(ctx context.Context, region string, from, to time.Time) ([]entities.ContextSignal, error) {
	var signals []entities.ContextSignal
	err := r.db.WithContext(ctx).
		Where("region = ?", region).
		Where("effective_date <= ?", to).
		Where("(expiry_date IS NULL OR expiry_date >= ?)", from).
		Order("effective_date ASC").
		Find(&signals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active context signals for %s: %w", region, err)
	}
	return signals, nil
}

// DeleteExpiredBefore removes signals whose expiry passed before the cutoff.
func (r *contextRepository) DeleteExpiredBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expiry_date IS NOT NULL AND expiry_date < ?", before).
		Delete(&entities.ContextSignal{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired context signals: %w", result.Error)
	}
	return result.RowsAffected, nil
}
