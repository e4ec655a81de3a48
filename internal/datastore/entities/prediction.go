package entities

import "time"

// Severity tiers, ordered from least to most urgent.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// ShortagePrediction is one forecast result for an (item, region) pair.
// Unique per (item, region, predicted_shortage_date): re-running the engine
// with the same inputs updates the existing row instead of inserting.
type ShortagePrediction struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	MedicalItemID uint      `gorm:"not null;uniqueIndex:idx_prediction_item_region_date,priority:1" json:"medical_item_id"`
	Region        string    `gorm:"size:100;not null;uniqueIndex:idx_prediction_item_region_date,priority:2" json:"region"`
	ShortageDate  time.Time `gorm:"column:predicted_shortage_date;not null;uniqueIndex:idx_prediction_item_region_date,priority:3" json:"predicted_shortage_date"`

	Confidence   float64 `gorm:"not null" json:"confidence_score"`
	Severity     string  `gorm:"size:20;not null;index" json:"severity"`
	DurationDays int     `gorm:"not null;default:1" json:"predicted_duration_days"`

	DemandIncreaseReason   string `gorm:"size:1000;default:''" json:"demand_increase_reason"`
	SupplyConstraintReason string `gorm:"size:1000;default:''" json:"supply_constraint_reason"`

	Active    bool      `gorm:"not null;default:true;index" json:"active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	MedicalItem MedicalItem `gorm:"foreignKey:MedicalItemID;constraint:OnDelete:CASCADE" json:"medical_item,omitzero"`
}

// TableName returns the table name for GORM.
func (ShortagePrediction) TableName() string {
	return "shortage_predictions"
}
