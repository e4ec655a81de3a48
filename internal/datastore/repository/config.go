// Package repository provides data access for the shortage engine,
// one interface plus GORM implementation per aggregate.
package repository

import (
	"context"

	"github.com/medvault/medvault-go/internal/datastore/entities"
)

// ConfigRepository resolves named engine configurations.
type ConfigRepository interface {
	// GetOrCreate returns the active config with the given name, creating
	// one with default tunables if none exists.
	GetOrCreate(ctx context.Context, name string) (*entities.EngineConfig, error)
	// List returns all configs.
	List(ctx context.Context) ([]entities.EngineConfig, error)
}
