package entities

import "time"

// MedicalItem is a catalogued medical product (drug, consumable, test kit).
type MedicalItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null;uniqueIndex" json:"name"`
	GenericName string    `gorm:"size:255;default:''" json:"generic_name"`
	Category    string    `gorm:"size:100;default:''" json:"category"`
	Description string    `gorm:"size:1000;default:''" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM.
func (MedicalItem) TableName() string {
	return "medical_items"
}
