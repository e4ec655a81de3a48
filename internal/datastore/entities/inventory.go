package entities

import "time"

// Vendor is a supply point (pharmacy, clinic store, distributor outlet).
// City doubles as the region key for supply aggregation.
type Vendor struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	City      string    `gorm:"size:100;not null;index" json:"city"`
	Phone     string    `gorm:"size:50;default:''" json:"phone"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM.
func (Vendor) TableName() string {
	return "vendors"
}

// Inventory is one vendor's stock position for one item.
type Inventory struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	MedicalItemID uint        `gorm:"not null;index:idx_inventory_item_vendor,priority:1" json:"medical_item_id"`
	VendorID      uint        `gorm:"not null;index:idx_inventory_item_vendor,priority:2" json:"vendor_id"`
	CurrentStock  int         `gorm:"not null;default:0" json:"current_stock"`
	MinimumStock  int         `gorm:"not null;default:0" json:"minimum_stock"`
	IsAvailable   bool        `gorm:"not null;default:true" json:"is_available"`
	UpdatedAt     time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
	MedicalItem   MedicalItem `gorm:"foreignKey:MedicalItemID;constraint:OnDelete:CASCADE" json:"medical_item,omitzero"`
	Vendor        Vendor      `gorm:"foreignKey:VendorID;constraint:OnDelete:CASCADE" json:"vendor,omitzero"`
}

// TableName returns the table name for GORM.
func (Inventory) TableName() string {
	return "inventories"
}
