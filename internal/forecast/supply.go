package forecast

import (
	"context"

	"github.com/medvault/medvault-go/internal/datastore/repository"
)

// SupplyGauge reads the current stock position for an (item, region) pair.
type SupplyGauge struct {
	repo repository.InventoryRepository
}

// NewSupplyGauge creates a new SupplyGauge.
func NewSupplyGauge(repo repository.InventoryRepository) *SupplyGauge {
	return &SupplyGauge{repo: repo}
}

// CurrentSupply sums available stock for the item across vendors located in
// the region. Unavailable and zero-stock inventory rows are excluded.
func (g *SupplyGauge) CurrentSupply(ctx context.Context, itemID uint, region string) (int, error) {
	return g.repo.CurrentSupply(ctx, itemID, region)
}
