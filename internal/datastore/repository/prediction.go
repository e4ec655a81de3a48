package repository

import (
	"context"
	"errors"
	"time"

	"github.com/medvault/medvault-go/internal/datastore/entities"
)

// ErrPredictionNotFound is returned when no prediction matches a lookup.
var ErrPredictionNotFound = errors.New("shortage prediction not found")

// PredictionFilter controls prediction listing queries.
type PredictionFilter struct {
	Region   string
	ItemID   uint
	Severity string
	Active   *bool
}

// AlertFilter controls alert listing queries.
type AlertFilter struct {
	AlertType string
	Sent      *bool
	Limit     int
	Offset    int
}

// PredictionStats summarizes stored predictions and recent alert volume.
type PredictionStats struct {
	Total        int64 `json:"total_predictions"`
	Active       int64 `json:"active_predictions"`
	Critical     int64 `json:"critical_predictions"`
	High         int64 `json:"high_predictions"`
	RecentAlerts int64 `json:"recent_alerts"`
}

// AlertFunc decides whether a freshly stored prediction warrants an alert.
// Returning nil creates no alert. The returned alert's PredictionID is
// filled in by the store.
type AlertFunc func(p *entities.ShortagePrediction) *entities.PredictionAlert

// PredictionRepository persists forecast results and their alerts.
type PredictionRepository interface {
	// UpsertBatch stores predictions in a single all-or-nothing
	// transaction. Each prediction is matched by its
	// (item, region, shortage date) key: existing rows have their mutable
	// fields overwritten and are re-activated, new keys are inserted.
	// alertFor is invoked for every stored prediction inside the same
	// transaction, so predictions and alerts commit or roll back together.
	// An alert is only written when the prediction has no alert of that
	// type yet; re-running the forecast never duplicates alerts. The
	// returned alerts slice contains only newly written alerts.
	UpsertBatch(ctx context.Context, preds []entities.ShortagePrediction, alertFor AlertFunc) ([]entities.ShortagePrediction, []entities.PredictionAlert, error)
	// Get returns a prediction by ID. Returns ErrPredictionNotFound if absent.
	Get(ctx context.Context, id uint) (*entities.ShortagePrediction, error)
	// List returns predictions matching the filter, most imminent first.
	List(ctx context.Context, filter PredictionFilter) ([]entities.ShortagePrediction, error)
	// ListCritical returns active critical and high predictions whose
	// shortage date is at or after now, most imminent first. An empty
	// region matches all regions.
	ListCritical(ctx context.Context, region string, now time.Time) ([]entities.ShortagePrediction, error)
	// Stats summarizes stored predictions; recent alerts are those sent in
	// the seven days before now.
	Stats(ctx context.Context, now time.Time) (*PredictionStats, error)
	// ListAlerts returns alerts matching the filter with pagination,
	// newest first, plus the total matching count.
	ListAlerts(ctx context.Context, filter AlertFilter) ([]entities.PredictionAlert, int64, error)
	// MarkAlertSent records that an alert was handed to the notification
	// subsystem at the given time.
	MarkAlertSent(ctx context.Context, alertID uint, at time.Time) error
}
