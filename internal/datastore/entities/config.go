package entities

import "time"

// Default tunables applied when a config is auto-created.
const (
	DefaultShortageAlertThreshold = 0.8
	DefaultCriticalAlertThreshold = 0.9
	DefaultDemandWeight           = 0.4
	DefaultSupplyWeight           = 0.4
	DefaultContextWeight          = 0.2
	DefaultHorizonDays            = 14
	DefaultRetrainEveryHours      = 24
)

// EngineConfig is a named, versioned set of engine tunables. Exactly one
// active config is resolved by name per run; missing configs are created
// with defaults rather than failing the run.
type EngineConfig struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Description string `gorm:"size:1000;default:''" json:"description"`

	ShortageAlertThreshold float64 `gorm:"not null;default:0.8" json:"shortage_alert_threshold"`
	CriticalAlertThreshold float64 `gorm:"not null;default:0.9" json:"critical_alert_threshold"`

	DemandWeight  float64 `gorm:"not null;default:0.4" json:"demand_weight"`
	SupplyWeight  float64 `gorm:"not null;default:0.4" json:"supply_weight"`
	ContextWeight float64 `gorm:"not null;default:0.2" json:"context_weight"`

	HorizonDays       int `gorm:"not null;default:14" json:"horizon_days"`
	RetrainEveryHours int `gorm:"not null;default:24" json:"retrain_every_hours"`

	Active    bool      `gorm:"not null;default:true;index" json:"active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for GORM.
func (EngineConfig) TableName() string {
	return "engine_configs"
}
