package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medvault/medvault-go/internal/datastore/entities"
	"github.com/medvault/medvault-go/internal/logger"
)

// demandRow is one row of a bulk demand upload.
type demandRow struct {
	ItemName    string    `json:"item_name"`
	Region      string    `json:"region"`
	Count       int       `json:"count"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`

	Season          string `json:"season,omitempty"`
	DiseaseOutbreak bool   `json:"disease_outbreak,omitempty"`
	OutbreakDisease string `json:"outbreak_disease,omitempty"`
}

// contextRow is one row of a bulk context signal upload.
type contextRow struct {
	Region     string `json:"region"`
	SignalType string `json:"signal_type"`

	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	Rainfall    *float64 `json:"rainfall,omitempty"`

	DiseaseName    string `json:"disease_name,omitempty"`
	CaseCount      *int   `json:"case_count,omitempty"`
	TrendDirection string `json:"trend_direction,omitempty"`

	AlertLevel   string `json:"alert_level,omitempty"`
	AlertMessage string `json:"alert_message,omitempty"`

	EffectiveDate time.Time  `json:"effective_date"`
	ExpiryDate    *time.Time `json:"expiry_date,omitempty"`

	Confidence *float64 `json:"confidence,omitempty"`
	Source     string   `json:"source,omitempty"`
}

// uploadResult reports a partial-success bulk upload: valid rows are applied,
// invalid rows are returned with their reasons.
type uploadResult struct {
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors,omitempty"`
}

// UploadDemand ingests a batch of demand records. Rows are validated
// independently; a bad row is reported and skipped, not fatal.
func (c *Controller) UploadDemand(ctx echo.Context) error {
	var rows []demandRow
	if err := ctx.Bind(&rows); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "Invalid request body")
	}
	if len(rows) == 0 {
		return errorResponse(ctx, http.StatusBadRequest, "Empty upload")
	}

	result := uploadResult{}
	for i := range rows {
		row := &rows[i]
		if err := c.applyDemandRow(ctx, row); err != nil {
			result.Rejected++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i, err))
			continue
		}
		result.Accepted++
	}

	c.log.Info("demand upload processed",
		logger.Int("accepted", result.Accepted),
		logger.Int("rejected", result.Rejected))

	return ctx.JSON(uploadStatus(&result), result)
}

func (c *Controller) applyDemandRow(ctx echo.Context, row *demandRow) error {
	if row.ItemName == "" {
		return fmt.Errorf("item_name is required")
	}
	if row.Region == "" {
		return fmt.Errorf("region is required")
	}
	if row.Count <= 0 {
		return fmt.Errorf("count must be positive")
	}
	if row.PeriodStart.IsZero() {
		return fmt.Errorf("period_start is required")
	}
	if row.PeriodEnd.IsZero() {
		row.PeriodEnd = row.PeriodStart.Add(24 * time.Hour)
	}
	if row.PeriodEnd.Before(row.PeriodStart) {
		return fmt.Errorf("period_end precedes period_start")
	}

	item, err := c.matcher.Match(ctx.Request().Context(), row.ItemName)
	if err != nil {
		return fmt.Errorf("unknown item %q", row.ItemName)
	}

	return c.demand.RecordDemand(ctx.Request().Context(), &entities.DemandRecord{
		MedicalItemID:   item.ID,
		Region:          row.Region,
		PeriodStart:     row.PeriodStart,
		PeriodEnd:       row.PeriodEnd,
		Count:           row.Count,
		Season:          row.Season,
		DiseaseOutbreak: row.DiseaseOutbreak,
		OutbreakDisease: row.OutbreakDisease,
	})
}

// UploadContext ingests a batch of context signals with the same partial
// success semantics as UploadDemand.
func (c *Controller) UploadContext(ctx echo.Context) error {
	var rows []contextRow
	if err := ctx.Bind(&rows); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "Invalid request body")
	}
	if len(rows) == 0 {
		return errorResponse(ctx, http.StatusBadRequest, "Empty upload")
	}

	result := uploadResult{}
	for i := range rows {
		row := &rows[i]
		if err := c.applyContextRow(ctx, row); err != nil {
			result.Rejected++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i, err))
			continue
		}
		result.Accepted++
	}

	c.log.Info("context upload processed",
		logger.Int("accepted", result.Accepted),
		logger.Int("rejected", result.Rejected))

	return ctx.JSON(uploadStatus(&result), result)
}

func (c *Controller) applyContextRow(ctx echo.Context, row *contextRow) error {
	if row.Region == "" {
		return fmt.Errorf("region is required")
	}
	switch row.SignalType {
	case entities.SignalTypeWeather, entities.SignalTypeDiseaseTrend,
		entities.SignalTypePublicHealthAlert, entities.SignalTypeSeasonal,
		entities.SignalTypeEconomic:
	default:
		return fmt.Errorf("unknown signal_type %q", row.SignalType)
	}
	if row.EffectiveDate.IsZero() {
		row.EffectiveDate = time.Now()
	}
	if row.ExpiryDate != nil && row.ExpiryDate.Before(row.EffectiveDate) {
		return fmt.Errorf("expiry_date precedes effective_date")
	}

	confidence := 1.0
	if row.Confidence != nil {
		confidence = *row.Confidence
	}
	if confidence < 0 || confidence > 1 {
		return fmt.Errorf("confidence must be within [0, 1]")
	}

	return c.contexts.Create(ctx.Request().Context(), &entities.ContextSignal{
		Region:         row.Region,
		SignalType:     row.SignalType,
		Temperature:    row.Temperature,
		Humidity:       row.Humidity,
		Rainfall:       row.Rainfall,
		DiseaseName:    row.DiseaseName,
		CaseCount:      row.CaseCount,
		TrendDirection: row.TrendDirection,
		AlertLevel:     row.AlertLevel,
		AlertMessage:   row.AlertMessage,
		EffectiveDate:  row.EffectiveDate,
		ExpiryDate:     row.ExpiryDate,
		Confidence:     confidence,
		Source:         row.Source,
	})
}

// uploadStatus maps an upload result to a response code: fully rejected
// uploads are client errors, anything else succeeded at least partially.
func uploadStatus(result *uploadResult) int {
	if result.Accepted == 0 {
		return http.StatusBadRequest
	}
	return http.StatusOK
}
