package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medvault/medvault-go/internal/datastore/repository"
	"github.com/medvault/medvault-go/internal/forecast"
	"github.com/medvault/medvault-go/internal/logger"
)

// runRequest is the body for POST /predictions/run. All fields are optional;
// zero values defer to engine defaults.
type runRequest struct {
	Regions     []string `json:"regions"`
	ItemIDs     []uint   `json:"item_ids"`
	HorizonDays int      `json:"horizon_days"`
	ConfigName  string   `json:"config_name"`
}

// RunPredictions executes one engine batch and returns the run report.
func (c *Controller) RunPredictions(ctx echo.Context) error {
	var req runRequest
	if err := ctx.Bind(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "Invalid request body")
	}
	if req.HorizonDays < 0 {
		return errorResponse(ctx, http.StatusBadRequest, "horizon_days must be non-negative")
	}

	report, err := c.runner.Run(ctx.Request().Context(), forecast.RunParams{
		Regions:     req.Regions,
		ItemIDs:     req.ItemIDs,
		HorizonDays: req.HorizonDays,
		ConfigName:  req.ConfigName,
	})
	if err != nil {
		c.log.Error("prediction run failed", logger.Error(err))
		return errorResponse(ctx, http.StatusInternalServerError, "Prediction run failed")
	}

	// A run invalidates cached stats immediately.
	c.statsCache.Delete(statsCacheKey)

	return ctx.JSON(http.StatusOK, report)
}

// ListPredictions returns stored predictions, optionally filtered by region,
// item, severity, and active flag.
func (c *Controller) ListPredictions(ctx echo.Context) error {
	filter := repository.PredictionFilter{
		Region:   ctx.QueryParam("region"),
		Severity: ctx.QueryParam("severity"),
	}
	if itemParam := ctx.QueryParam("item_id"); itemParam != "" {
		v, err := strconv.ParseUint(itemParam, 10, 64)
		if err != nil {
			return errorResponse(ctx, http.StatusBadRequest, "Invalid item_id")
		}
		filter.ItemID = uint(v)
	}
	if activeParam := ctx.QueryParam("active"); activeParam != "" {
		v := activeParam == QueryValueTrue
		filter.Active = &v
	}

	preds, err := c.predictions.List(ctx.Request().Context(), filter)
	if err != nil {
		c.log.Error("failed to list predictions", logger.Error(err))
		return errorResponse(ctx, http.StatusInternalServerError, "Failed to list predictions")
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"predictions": preds,
		"count":       len(preds),
	})
}

// GetPrediction returns a single prediction by ID.
func (c *Controller) GetPrediction(ctx echo.Context) error {
	id, err := parseUintParam(ctx, "id")
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "Invalid prediction ID")
	}

	pred, err := c.predictions.Get(ctx.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrPredictionNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "Prediction not found")
		}
		c.log.Error("failed to get prediction", logger.Error(err))
		return errorResponse(ctx, http.StatusInternalServerError, "Failed to get prediction")
	}

	return ctx.JSON(http.StatusOK, pred)
}

// ListCriticalPredictions returns active critical/high predictions that are
// still ahead of us, optionally scoped to one region.
func (c *Controller) ListCriticalPredictions(ctx echo.Context) error {
	preds, err := c.predictions.ListCritical(ctx.Request().Context(), ctx.QueryParam("region"), time.Now())
	if err != nil {
		c.log.Error("failed to list critical predictions", logger.Error(err))
		return errorResponse(ctx, http.StatusInternalServerError, "Failed to list critical predictions")
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"predictions": preds,
		"count":       len(preds),
	})
}

// GetPredictionStats returns summary counts, cached briefly.
func (c *Controller) GetPredictionStats(ctx echo.Context) error {
	if cached, found := c.statsCache.Get(statsCacheKey); found {
		return ctx.JSON(http.StatusOK, cached)
	}

	stats, err := c.predictions.Stats(ctx.Request().Context(), time.Now())
	if err != nil {
		c.log.Error("failed to compute prediction stats", logger.Error(err))
		return errorResponse(ctx, http.StatusInternalServerError, "Failed to compute stats")
	}

	c.statsCache.SetDefault(statsCacheKey, stats)
	return ctx.JSON(http.StatusOK, stats)
}

// ListAlerts returns paginated prediction alerts.
func (c *Controller) ListAlerts(ctx echo.Context) error {
	filter := repository.AlertFilter{
		AlertType: ctx.QueryParam("alert_type"),
		Limit:     defaultAlertsLimit,
	}
	if sentParam := ctx.QueryParam("sent"); sentParam != "" {
		v := sentParam == QueryValueTrue
		filter.Sent = &v
	}
	if limitParam := ctx.QueryParam("limit"); limitParam != "" {
		v, err := strconv.Atoi(limitParam)
		if err == nil && v > 0 {
			if v > maxAlertListLimit {
				v = maxAlertListLimit
			}
			filter.Limit = v
		}
	}
	if offsetParam := ctx.QueryParam("offset"); offsetParam != "" {
		v, err := strconv.Atoi(offsetParam)
		if err == nil && v >= 0 {
			filter.Offset = v
		}
	}

	alerts, total, err := c.predictions.ListAlerts(ctx.Request().Context(), filter)
	if err != nil {
		c.log.Error("failed to list alerts", logger.Error(err))
		return errorResponse(ctx, http.StatusInternalServerError, "Failed to list alerts")
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"alerts": alerts,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// ListItems returns catalogued items, optionally filtered by a name fragment.
func (c *Controller) ListItems(ctx echo.Context) error {
	fragment := ctx.QueryParam("q")

	items, err := c.inventory.SearchItemsByName(ctx.Request().Context(), fragment)
	if err != nil {
		c.log.Error("failed to list items", logger.Error(err))
		return errorResponse(ctx, http.StatusInternalServerError, "Failed to list items")
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}
