package forecast

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/medvault/medvault-go/internal/datastore/entities"
	"github.com/medvault/medvault-go/internal/logger"
)

// Prediction is a scored shortage forecast for one (item, region) pair.
type Prediction struct {
	Item              *entities.MedicalItem
	Region            string
	PredictedDemand   float64
	CurrentSupply     int
	DaysUntilShortage float64 // may be +Inf when predicted demand is non-positive
	Confidence        float64
	Severity          string
	ShortageDate      time.Time
	DurationDays      int

	DemandIncreaseReason   string
	SupplyConstraintReason string
}

// Entity converts the prediction to its storable form.
func (p *Prediction) Entity() entities.ShortagePrediction {
	return entities.ShortagePrediction{
		MedicalItemID:          p.Item.ID,
		Region:                 p.Region,
		ShortageDate:           p.ShortageDate,
		Confidence:             p.Confidence,
		Severity:               p.Severity,
		DurationDays:           p.DurationDays,
		DemandIncreaseReason:   p.DemandIncreaseReason,
		SupplyConstraintReason: p.SupplyConstraintReason,
		Active:                 true,
		MedicalItem:            *p.Item,
	}
}

// Outcome is the result of forecasting one pair: either a prediction or an
// explicit skip with a reason. A failed source lookup skips the pair so the
// surrounding batch can keep going and still report what was dropped.
type Outcome struct {
	Prediction *Prediction
	SkipReason string
}

// Skipped reports whether the pair produced no prediction.
func (o Outcome) Skipped() bool {
	return o.Prediction == nil
}

// Forecaster combines demand trend, current supply, and context impact into
// shortage predictions.
type Forecaster struct {
	demand *DemandAggregator
	supply *SupplyGauge
	scorer *ContextScorer
	log    logger.Logger
	now    func() time.Time
}

// NewForecaster creates a new Forecaster.
func NewForecaster(demand *DemandAggregator, supply *SupplyGauge, scorer *ContextScorer, log logger.Logger) *Forecaster {
	return &Forecaster{
		demand: demand,
		supply: supply,
		scorer: scorer,
		log:    log,
		now:    time.Now,
	}
}

// Forecast scores one (item, region) pair over the given horizon. Missing
// history is not an error: the pair is scored with zero demand and trend.
// Lookup failures skip the pair.
func (f *Forecaster) Forecast(ctx context.Context, item *entities.MedicalItem, region string, horizonDays int, cfg *entities.EngineConfig) Outcome {
	avgDemand, slope, err := f.demand.Trend(ctx, item.ID, region, trendWindowDays)
	if err != nil {
		return f.skip(item, region, SkipReasonDemandLookup, err)
	}

	currentSupply, err := f.supply.CurrentSupply(ctx, item.ID, region)
	if err != nil {
		return f.skip(item, region, SkipReasonSupplyLookup, err)
	}

	impact, err := f.scorer.Impact(ctx, region, horizonDays)
	if err != nil {
		return f.skip(item, region, SkipReasonContextLookup, err)
	}

	predictedDemand := (avgDemand + slope*float64(horizonDays)) * impact

	var daysUntilShortage float64
	switch {
	case currentSupply <= 0:
		daysUntilShortage = 0
	case predictedDemand <= 0:
		daysUntilShortage = math.Inf(1)
	default:
		daysUntilShortage = float64(currentSupply) / (predictedDemand / float64(horizonDays))
	}

	confidence := scoreConfidence(avgDemand, slope, impact)
	severity := resolveSeverity(daysUntilShortage, confidence, cfg)

	now := f.now()
	dateOffset := math.Min(daysUntilShortage, maxShortageHorizonDays)
	shortageDate := now.Add(time.Duration(dateOffset * 24 * float64(time.Hour)))

	return Outcome{Prediction: &Prediction{
		Item:                   item,
		Region:                 region,
		PredictedDemand:        predictedDemand,
		CurrentSupply:          currentSupply,
		DaysUntilShortage:      daysUntilShortage,
		Confidence:             confidence,
		Severity:               severity,
		ShortageDate:           shortageDate,
		DurationDays:           shortageDuration(predictedDemand, currentSupply, avgDemand),
		DemandIncreaseReason:   demandIncreaseReason(impact, slope),
		SupplyConstraintReason: supplyConstraintReason(currentSupply),
	}}
}

func (f *Forecaster) skip(item *entities.MedicalItem, region, reason string, err error) Outcome {
	f.log.Warn("skipping forecast pair",
		logger.String("item", item.Name),
		logger.String("region", region),
		logger.String("reason", reason),
		logger.Error(err))
	return Outcome{SkipReason: reason}
}

// scoreConfidence computes the heuristic reliability estimate: a base score
// raised by good history, a stable trend, and a near-neutral context,
// capped at 1.0.
func scoreConfidence(avgDemand, slope, impact float64) float64 {
	confidence := confidenceBase
	if avgDemand > goodHistoryAvgDemand {
		confidence += confidenceGoodHistory
	}
	if math.Abs(slope) < stableTrendMaxSlope {
		confidence += confidenceStableTrend
	}
	if impact >= normalContextMin && impact <= normalContextMax {
		confidence += confidenceNormalContext
	}
	return math.Min(1.0, confidence)
}

// resolveSeverity maps days-until-shortage and confidence to a tier.
// The checks are ordered most-severe first and the first match wins; the
// windows intentionally overlap, so reordering them would change policy.
func resolveSeverity(daysUntilShortage, confidence float64, cfg *entities.EngineConfig) string {
	switch {
	case daysUntilShortage <= 7 && confidence >= cfg.CriticalAlertThreshold:
		return entities.SeverityCritical
	case daysUntilShortage <= 14 && confidence >= cfg.ShortageAlertThreshold:
		return entities.SeverityHigh
	case daysUntilShortage <= 30:
		return entities.SeverityMedium
	default:
		return entities.SeverityLow
	}
}

// shortageDuration estimates how long the shortage would last, in days,
// never less than one.
func shortageDuration(predictedDemand float64, currentSupply int, avgDemand float64) int {
	deficit := int(predictedDemand) - currentSupply
	perDay := int(avgDemand)
	if perDay < 1 {
		perDay = 1
	}
	days := deficit / perDay
	if days < 1 {
		return 1
	}
	return days
}

// demandIncreaseReason builds the increase reason from fixed templates.
func demandIncreaseReason(impact, slope float64) string {
	var reasons []string
	if impact > normalContextMax {
		reasons = append(reasons, reasonContextualIncrease)
	}
	if slope > stableTrendMaxSlope {
		reasons = append(reasons, reasonRisingTrend)
	}
	if len(reasons) == 0 {
		return reasonNormalDemand
	}
	return strings.Join(reasons, "; ")
}

// supplyConstraintReason picks the constraint template from stock thresholds.
func supplyConstraintReason(currentSupply int) string {
	switch {
	case currentSupply == 0:
		return reasonStockDepleted
	case currentSupply < veryLowStockThreshold:
		return reasonVeryLowStock
	default:
		return reasonAdequateStock
	}
}

// String implements fmt.Stringer for run summaries and logs.
func (p *Prediction) String() string {
	return fmt.Sprintf("%s/%s severity=%s confidence=%.2f days=%.1f",
		p.Item.Name, p.Region, p.Severity, p.Confidence, p.DaysUntilShortage)
}
