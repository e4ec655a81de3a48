package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/medvault/medvault-go/internal/datastore/entities"
)

type inventoryRepository struct {
	db *gorm.DB
}

// NewInventoryRepository creates a new InventoryRepository.
func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

// GetItem returns a medical item by ID.
func (r *inventoryRepository) GetItem(ctx context.Context, id uint) (*entities.MedicalItem, error) {
	var item entities.MedicalItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get medical item %d: %w", id, err)
	}
	return &item, nil
}

// GetItemByName returns a medical item by exact name, case-insensitively.
func (r *inventoryRepository) GetItemByName(ctx context.Context, name string) (*entities.MedicalItem, error) {
	var item entities.MedicalItem
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", name).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get medical item %q: %w", name, err)
	}
	return &item, nil
}

// SearchItemsByName returns items whose name contains the fragment.
func (r *inventoryRepository) SearchItemsByName(ctx context.Context, fragment string) ([]entities.MedicalItem, error) {
	var items []entities.MedicalItem
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE LOWER(?)", "%"+fragment+"%").
		Order("name ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search medical items by %q: %w", fragment, err)
	}
	return items, nil
}

// ItemsWithStock returns distinct items that have stock on hand anywhere.
func (r *inventoryRepository) ItemsWithStock(ctx context.Context) ([]entities.MedicalItem, error) {
	var items []entities.MedicalItem
	err := r.db.WithContext(ctx).
		Model(&entities.MedicalItem{}).
		Joins("JOIN inventories ON inventories.medical_item_id = medical_items.id").
		Where("inventories.current_stock > 0").
		Distinct().
		Order("medical_items.name ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list items with stock: %w", err)
	}
	return items, nil
}

// CurrentSupply sums available stock for the item across vendors in the region.
func (r *inventoryRepository) CurrentSupply(ctx context.Context, itemID uint, region string) (int, error) {
	var total *int64
	err := r.db.WithContext(ctx).
		Model(&entities.Inventory{}).
		Joins("JOIN vendors ON vendors.id = inventories.vendor_id").
		Where("inventories.medical_item_id = ?", itemID).
		Where("vendors.city = ?", region).
		Where("inventories.is_available = ? AND inventories.current_stock > 0", true).
		Select("SUM(inventories.current_stock)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum supply for item %d in %s: %w", itemID, region, err)
	}
	if total == nil {
		return 0, nil
	}
	return int(*total), nil
}
