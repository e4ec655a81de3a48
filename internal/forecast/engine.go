package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medvault/medvault-go/internal/datastore/entities"
	"github.com/medvault/medvault-go/internal/datastore/repository"
	"github.com/medvault/medvault-go/internal/logger"
	"github.com/medvault/medvault-go/internal/metrics"
)

// AlertNotifier receives alerts after they have been committed. The engine
// treats delivery as best-effort: a failing notifier never fails the run.
type AlertNotifier interface {
	AlertCreated(alert *entities.PredictionAlert, prediction *entities.ShortagePrediction) error
}

// RunParams selects what a single engine run covers. Zero values mean
// "everything": all regions with demand history, all items with stock, the
// horizon and config name from the resolved configuration.
type RunParams struct {
	Regions     []string
	ItemIDs     []uint
	HorizonDays int
	ConfigName  string
}

// RunReport summarizes one finished engine run.
type RunReport struct {
	RunID           string                        `json:"run_id"`
	ConfigName      string                        `json:"config_name"`
	HorizonDays     int                           `json:"horizon_days"`
	Pairs           int                           `json:"pairs"`
	Stored          []entities.ShortagePrediction `json:"stored"`
	Alerts          []entities.PredictionAlert    `json:"alerts"`
	Skipped         int                           `json:"skipped"`
	SkipReasons     map[string]int                `json:"skip_reasons,omitempty"`
	BelowConfidence int                           `json:"below_confidence"`
	Elapsed         time.Duration                 `json:"elapsed_ns"`
}

// Runner executes the prediction engine as a finite batch job over
// (region, item) pairs. Configuration is resolved fresh for every run, so a
// long-lived Runner never serves stale thresholds.
type Runner struct {
	configs     repository.ConfigRepository
	inventory   repository.InventoryRepository
	demand      repository.DemandRepository
	predictions repository.PredictionRepository
	forecaster  *Forecaster
	notifier    AlertNotifier

	defaultRegion string
	log           logger.Logger
	now           func() time.Time
}

// NewRunner creates a new Runner. notifier may be nil.
func NewRunner(
	configs repository.ConfigRepository,
	inventory repository.InventoryRepository,
	demand repository.DemandRepository,
	predictions repository.PredictionRepository,
	forecaster *Forecaster,
	notifier AlertNotifier,
	defaultRegion string,
	log logger.Logger,
) *Runner {
	return &Runner{
		configs:       configs,
		inventory:     inventory,
		demand:        demand,
		predictions:   predictions,
		forecaster:    forecaster,
		notifier:      notifier,
		defaultRegion: defaultRegion,
		log:           log,
		now:           time.Now,
	}
}

// Run executes one batch: resolve config, enumerate pairs, forecast each
// sequentially, persist everything above the storage confidence floor in one
// transaction, and hand committed alerts to the notifier.
//
// Setup failures (config, catalogue, region enumeration, the store
// transaction) fail the run; per-pair source failures only skip that pair
// and are tallied in the report.
func (r *Runner) Run(ctx context.Context, params RunParams) (*RunReport, error) {
	start := r.now()
	report := &RunReport{
		RunID:       uuid.NewString(),
		SkipReasons: make(map[string]int),
	}

	cfg, err := r.resolveConfig(ctx, params.ConfigName)
	if err != nil {
		metrics.PredictionRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("resolving engine config: %w", err)
	}
	report.ConfigName = cfg.Name

	horizon := params.HorizonDays
	if horizon <= 0 {
		horizon = cfg.HorizonDays
	}
	report.HorizonDays = horizon

	regions, err := r.resolveRegions(ctx, params.Regions)
	if err != nil {
		metrics.PredictionRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("resolving regions: %w", err)
	}

	items, err := r.resolveItems(ctx, params.ItemIDs)
	if err != nil {
		metrics.PredictionRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("resolving items: %w", err)
	}

	r.log.Info("prediction run starting",
		logger.String("run_id", report.RunID),
		logger.String("config", cfg.Name),
		logger.Int("regions", len(regions)),
		logger.Int("items", len(items)),
		logger.Int("horizon_days", horizon))

	var candidates []entities.ShortagePrediction
	for _, region := range regions {
		for i := range items {
			report.Pairs++
			outcome := r.forecaster.Forecast(ctx, &items[i], region, horizon, cfg)
			if outcome.Skipped() {
				report.Skipped++
				report.SkipReasons[outcome.SkipReason]++
				metrics.PairsSkipped.WithLabelValues(outcome.SkipReason).Inc()
				continue
			}
			if outcome.Prediction.Confidence < minStoredConfidence {
				report.BelowConfidence++
				continue
			}
			candidates = append(candidates, outcome.Prediction.Entity())
		}
	}

	composer := NewAlertComposer(cfg)
	stored, alerts, err := r.predictions.UpsertBatch(ctx, candidates, composer.MaybeAlert)
	if err != nil {
		metrics.PredictionRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("storing predictions: %w", err)
	}
	report.Stored = stored
	report.Alerts = alerts

	for i := range stored {
		metrics.PredictionsStored.WithLabelValues(stored[i].Severity).Inc()
	}
	for i := range alerts {
		metrics.AlertsCreated.WithLabelValues(alerts[i].AlertType).Inc()
	}

	r.notifyAlerts(stored, alerts)

	report.Elapsed = r.now().Sub(start)
	metrics.PredictionRuns.WithLabelValues("ok").Inc()
	metrics.RunDuration.Observe(report.Elapsed.Seconds())

	r.log.Info("prediction run finished",
		logger.String("run_id", report.RunID),
		logger.Int("pairs", report.Pairs),
		logger.Int("stored", len(stored)),
		logger.Int("alerts", len(alerts)),
		logger.Int("skipped", report.Skipped),
		logger.Int("below_confidence", report.BelowConfidence),
		logger.Duration("elapsed", report.Elapsed))

	return report, nil
}

func (r *Runner) resolveConfig(ctx context.Context, name string) (*entities.EngineConfig, error) {
	if name == "" {
		name = "default"
	}
	return r.configs.GetOrCreate(ctx, name)
}

// resolveRegions falls back to every region with demand history, then to
// the default region so a fresh deployment still produces a run.
func (r *Runner) resolveRegions(ctx context.Context, requested []string) ([]string, error) {
	if len(requested) > 0 {
		return requested, nil
	}
	regions, err := r.demand.DistinctRegions(ctx)
	if err != nil {
		return nil, err
	}
	if len(regions) == 0 {
		regions = []string{r.defaultRegion}
	}
	return regions, nil
}

// resolveItems falls back to every catalogued item with stock on hand.
// Unknown requested IDs are skipped with a warning rather than failing the
// whole run.
func (r *Runner) resolveItems(ctx context.Context, ids []uint) ([]entities.MedicalItem, error) {
	if len(ids) == 0 {
		return r.inventory.ItemsWithStock(ctx)
	}
	items := make([]entities.MedicalItem, 0, len(ids))
	for _, id := range ids {
		item, err := r.inventory.GetItem(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrItemNotFound) {
				r.log.Warn("requested item not found, skipping",
					logger.Uint64("item_id", uint64(id)))
				continue
			}
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

// notifyAlerts hands committed alerts to the notifier, matching each alert
// back to its stored prediction for message context.
func (r *Runner) notifyAlerts(stored []entities.ShortagePrediction, alerts []entities.PredictionAlert) {
	if r.notifier == nil || len(alerts) == 0 {
		return
	}
	byID := make(map[uint]*entities.ShortagePrediction, len(stored))
	for i := range stored {
		byID[stored[i].ID] = &stored[i]
	}
	for i := range alerts {
		alert := &alerts[i]
		if err := r.notifier.AlertCreated(alert, byID[alert.PredictionID]); err != nil {
			r.log.Error("alert notification failed",
				logger.Uint64("alert_id", uint64(alert.ID)),
				logger.Error(err))
		}
	}
}
