package forecast

import (
	"context"
	"errors"
	"time"

	"github.com/medvault/medvault-go/internal/datastore/entities"
	"github.com/medvault/medvault-go/internal/datastore/repository"
	"github.com/medvault/medvault-go/internal/events"
	"github.com/medvault/medvault-go/internal/logger"
	"github.com/medvault/medvault-go/internal/metrics"
)

// DemandIngestor consumes demand events from the bus and folds them into
// per-day demand buckets. Unmatched item names are dropped, not errors: the
// dispensing side reports free text and the catalogue is authoritative.
type DemandIngestor struct {
	matcher       *ItemMatcher
	demand        repository.DemandRepository
	defaultRegion string
	log           logger.Logger
	now           func() time.Time
}

// NewDemandIngestor creates a new DemandIngestor. Events with an empty
// region are attributed to defaultRegion.
func NewDemandIngestor(matcher *ItemMatcher, demand repository.DemandRepository, defaultRegion string, log logger.Logger) *DemandIngestor {
	return &DemandIngestor{
		matcher:       matcher,
		demand:        demand,
		defaultRegion: defaultRegion,
		log:           log,
		now:           time.Now,
	}
}

// Subscribe registers the ingestor on the demand event bus.
func (d *DemandIngestor) Subscribe(bus *events.DemandEventBus) {
	bus.Subscribe(d.HandleEvent)
}

// HandleEvent applies a single demand event. Implements events.DemandEventHandler.
func (d *DemandIngestor) HandleEvent(event *events.DemandEvent) {
	ctx := context.Background()

	item, err := d.matcher.Match(ctx, event.ItemName)
	if err != nil {
		if errors.Is(err, ErrNoMatch) {
			metrics.DemandEvents.WithLabelValues("unmatched").Inc()
			d.log.Debug("dropping demand event for unknown item",
				logger.String("item_name", event.ItemName))
			return
		}
		metrics.DemandEvents.WithLabelValues("error").Inc()
		d.log.Error("item lookup failed for demand event",
			logger.String("item_name", event.ItemName),
			logger.Error(err))
		return
	}

	region := event.Region
	if region == "" {
		region = d.defaultRegion
	}

	quantity := event.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	at := event.Timestamp
	if at.IsZero() {
		at = d.now()
	}
	dayStart := at.UTC().Truncate(24 * time.Hour)

	rec := entities.DemandRecord{
		MedicalItemID: item.ID,
		Region:        region,
		PeriodStart:   dayStart,
		PeriodEnd:     dayStart.Add(24 * time.Hour),
		Count:         quantity,
	}
	if err := d.demand.RecordDemand(ctx, &rec); err != nil {
		metrics.DemandEvents.WithLabelValues("error").Inc()
		d.log.Error("failed to record demand bucket",
			logger.String("item", item.Name),
			logger.String("region", region),
			logger.Error(err))
		return
	}

	metrics.DemandEvents.WithLabelValues("recorded").Inc()
	d.log.Debug("demand event recorded",
		logger.String("item", item.Name),
		logger.String("region", region),
		logger.Int("quantity", quantity))
}
