// Package metrics exposes Prometheus instrumentation for the prediction
// engine and the ingest paths.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PredictionRuns counts engine runs by result.
	PredictionRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medvault",
		Subsystem: "engine",
		Name:      "runs_total",
		Help:      "Prediction engine runs, labelled by result.",
	}, []string{"result"})

	// RunDuration tracks wall-clock time per engine run.
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "medvault",
		Subsystem: "engine",
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of a full prediction run.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	// PredictionsStored counts predictions persisted per run, by severity.
	PredictionsStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medvault",
		Subsystem: "engine",
		Name:      "predictions_stored_total",
		Help:      "Stored shortage predictions, labelled by severity.",
	}, []string{"severity"})

	// PairsSkipped counts (item, region) pairs dropped from a run, by reason.
	PairsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medvault",
		Subsystem: "engine",
		Name:      "pairs_skipped_total",
		Help:      "Forecast pairs skipped during a run, labelled by reason.",
	}, []string{"reason"})

	// AlertsCreated counts alerts raised from stored predictions.
	AlertsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medvault",
		Subsystem: "engine",
		Name:      "alerts_created_total",
		Help:      "Prediction alerts created, labelled by alert type.",
	}, []string{"type"})

	// DemandEvents counts demand events consumed from the bus, by outcome.
	DemandEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medvault",
		Subsystem: "ingest",
		Name:      "demand_events_total",
		Help:      "Demand events processed by the ingestor, labelled by outcome.",
	}, []string{"outcome"})

	// MQTTMessages counts MQTT messages received, by topic kind.
	MQTTMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medvault",
		Subsystem: "ingest",
		Name:      "mqtt_messages_total",
		Help:      "MQTT messages received, labelled by kind and outcome.",
	}, []string{"kind", "outcome"})
)
