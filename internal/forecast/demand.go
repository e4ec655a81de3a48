package forecast

import (
	"context"
	"time"

	"github.com/medvault/medvault-go/internal/datastore/repository"
)

// DemandAggregator extracts average demand and a linear trend for an
// (item, region) pair over a historical window.
type DemandAggregator struct {
	repo repository.DemandRepository
	now  func() time.Time
}

// NewDemandAggregator creates a new DemandAggregator.
func NewDemandAggregator(repo repository.DemandRepository) *DemandAggregator {
	return &DemandAggregator{repo: repo, now: time.Now}
}

// Trend returns the arithmetic mean of demand counts and a two-point slope
// over records whose period falls within the last windowDays. No history
// yields (0, 0), not an error.
//
// The slope is (last - first) / n, deliberately not a least-squares fit:
// the severity thresholds downstream are calibrated against this exact
// estimator.
func (a *DemandAggregator) Trend(ctx context.Context, itemID uint, region string, windowDays int) (avg, slope float64, err error) {
	end := a.now()
	start := end.AddDate(0, 0, -windowDays)

	records, err := a.repo.ListWindow(ctx, itemID, region, start, end)
	if err != nil {
		return 0, 0, err
	}
	if len(records) == 0 {
		return 0, 0, nil
	}

	var total int
	for i := range records {
		total += records[i].Count
	}
	avg = float64(total) / float64(len(records))

	if len(records) > 1 {
		first := records[0].Count
		last := records[len(records)-1].Count
		slope = float64(last-first) / float64(len(records))
	}

	return avg, slope, nil
}
