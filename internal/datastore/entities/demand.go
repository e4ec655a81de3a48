package entities

import "time"

// DemandRecord aggregates fulfilled demand for an (item, region, period)
// bucket. At most one row exists per (item, region, period_start); a new
// fulfillment event for an existing bucket increments Count instead of
// inserting a duplicate. Records are never deleted by the engine.
type DemandRecord struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	MedicalItemID uint      `gorm:"not null;uniqueIndex:idx_demand_item_region_period,priority:1" json:"medical_item_id"`
	Region        string    `gorm:"size:100;not null;uniqueIndex:idx_demand_item_region_period,priority:2" json:"region"`
	PeriodStart   time.Time `gorm:"not null;uniqueIndex:idx_demand_item_region_period,priority:3" json:"period_start"`
	PeriodEnd     time.Time `gorm:"not null" json:"period_end"`
	Count         int       `gorm:"not null;default:0" json:"count"`

	Season          string `gorm:"size:50;default:''" json:"season"`
	DiseaseOutbreak bool   `gorm:"not null;default:false" json:"disease_outbreak"`
	OutbreakDisease string `gorm:"size:100;default:''" json:"outbreak_disease"`

	CollectedAt time.Time   `gorm:"autoCreateTime" json:"collected_at"`
	MedicalItem MedicalItem `gorm:"foreignKey:MedicalItemID;constraint:OnDelete:CASCADE" json:"medical_item,omitzero"`
}

// TableName returns the table name for GORM.
func (DemandRecord) TableName() string {
	return "demand_records"
}
