package repository

import (
	"context"
	"errors"

	"github.com/medvault/medvault-go/internal/datastore/entities"
)

// ErrItemNotFound is returned when no medical item matches a lookup.
var ErrItemNotFound = errors.New("medical item not found")

// InventoryRepository handles medical items and vendor stock positions.
type InventoryRepository interface {
	// GetItem returns a medical item by ID. Returns ErrItemNotFound if absent.
	GetItem(ctx context.Context, id uint) (*entities.MedicalItem, error)
	// GetItemByName returns a medical item by exact name (case-insensitive).
	// Returns ErrItemNotFound if absent.
	GetItemByName(ctx context.Context, name string) (*entities.MedicalItem, error)
	// SearchItemsByName returns items whose name contains the fragment,
	// case-insensitively, ordered by name.
	SearchItemsByName(ctx context.Context, fragment string) ([]entities.MedicalItem, error)
	// ItemsWithStock returns distinct items that have stock on hand anywhere.
	ItemsWithStock(ctx context.Context) ([]entities.MedicalItem, error)
	// CurrentSupply sums available stock for the item across vendors
	// located in the region. Unavailable and zero-stock rows are excluded.
	CurrentSupply(ctx context.Context, itemID uint, region string) (int, error)
}
