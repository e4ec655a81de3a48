package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/medvault/medvault-go/internal/datastore/entities"
)

type configRepository struct {
	db *gorm.DB
}

// NewConfigRepository creates a new ConfigRepository.
func NewConfigRepository(db *gorm.DB) ConfigRepository {
	return &configRepository{db: db}
}

// GetOrCreate returns the active config by name, creating a default one if
// it does not exist. A missing config is never an error.
func (r *configRepository) GetOrCreate(ctx context.Context, name string) (*entities.EngineConfig, error) {
	cfg := entities.EngineConfig{
		Name:                   name,
		Description:            "Default engine configuration",
		ShortageAlertThreshold: entities.DefaultShortageAlertThreshold,
		CriticalAlertThreshold: entities.DefaultCriticalAlertThreshold,
		DemandWeight:           entities.DefaultDemandWeight,
		SupplyWeight:           entities.DefaultSupplyWeight,
		ContextWeight:          entities.DefaultContextWeight,
		HorizonDays:            entities.DefaultHorizonDays,
		RetrainEveryHours:      entities.DefaultRetrainEveryHours,
		Active:                 true,
	}
	err := r.db.WithContext(ctx).
		Where("name = ? AND active = ?", name, true).
		FirstOrCreate(&cfg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve engine config %q: %w", name, err)
	}
	return &cfg, nil
}

// List returns all configs ordered by name.
func (r *configRepository) List(ctx context.Context) ([]entities.EngineConfig, error) {
	var configs []entities.EngineConfig
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&configs).Error; err != nil {
		return nil, fmt.Errorf("failed to list engine configs: %w", err)
	}
	return configs, nil
}
