package repository

import (
	"context"
	"time"

	"github.com/medvault/medvault-go/internal/datastore/entities"
)

// ContextRepository stores and queries contextual demand signals.
type ContextRepository interface {
	// Create stores a new context signal.
	Create(ctx context.Context, signal *entities.ContextSignal) error
	// ActiveSignals returns signals for the region that are in effect at
	// any point within [from, to]: effective no later than to, and either
	// open-ended or expiring no earlier than from.
	ActiveSignals(ctx context.Context, region string, from, to time.Time) ([]entities.ContextSignal, error)
	// DeleteExpiredBefore removes signals whose expiry passed before the
	// given time. Returns the number of rows deleted.
	DeleteExpiredBefore(ctx context.Context, before time.Time) (int64, error)
}
