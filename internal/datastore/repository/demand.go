package repository

import (
	"context"
	"time"

	"github.com/medvault/medvault-go/internal/datastore/entities"
)

// DemandRepository handles demand record aggregation and lookups.
type DemandRepository interface {
	// RecordDemand upserts a demand bucket. When a row for the
	// (item, region, period_start) key already exists, its count is
	// incremented by rec.Count instead of inserting a duplicate.
	RecordDemand(ctx context.Context, rec *entities.DemandRecord) error
	// ListWindow returns records for (item, region) whose period falls
	// within [from, to], ordered by period start.
	ListWindow(ctx context.Context, itemID uint, region string, from, to time.Time) ([]entities.DemandRecord, error)
	// DistinctRegions returns every region that has demand history.
	DistinctRegions(ctx context.Context) ([]string, error)
}
