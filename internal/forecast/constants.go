// Package forecast implements the shortage prediction engine: demand trend
// extraction, supply aggregation, context scoring, confidence/severity
// policy, and the batch runner that persists results and raises alerts.
package forecast

// Demand trend window, in days, used by the forecaster.
const trendWindowDays = 30

// Predictions below this confidence are computed but never stored. This is
// the batch runner's pre-filter, distinct from the alert threshold.
const minStoredConfidence = 0.5

// A shortage date is never projected further out than this.
const maxShortageHorizonDays = 365

// Context impact multipliers.
const (
	diseaseTrendUpMultiplier  = 1.3
	healthAlertHighMultiplier = 1.5
	heavyRainfallMultiplier   = 1.2
	heavyRainfallThresholdMM  = 50.0
)

// Confidence heuristic: base score plus bonuses for good history, a stable
// trend, and a near-neutral context, capped at 1.0.
const (
	confidenceBase          = 0.7
	confidenceGoodHistory   = 0.2
	confidenceStableTrend   = 0.1
	confidenceNormalContext = 0.1

	goodHistoryAvgDemand = 10.0
	stableTrendMaxSlope  = 5.0
	normalContextMin     = 0.8
	normalContextMax     = 1.2
)

// Supply constraint thresholds for reason templates.
const veryLowStockThreshold = 10

// Fixed reason templates.
const (
	reasonContextualIncrease = "Increased demand due to contextual factors"
	reasonRisingTrend        = "Rising demand trend observed"
	reasonNormalDemand       = "Normal demand patterns"

	reasonStockDepleted = "Current stock depleted"
	reasonVeryLowStock  = "Very low current stock levels"
	reasonAdequateStock = "Adequate current stock"
)

// Skip reasons reported by the forecaster when a pair cannot be scored.
const (
	SkipReasonDemandLookup  = "demand_lookup_failed"
	SkipReasonSupplyLookup  = "supply_lookup_failed"
	SkipReasonContextLookup = "context_lookup_failed"
)
