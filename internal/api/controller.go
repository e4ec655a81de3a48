// Package api exposes the engine's operational surface over HTTP: running
// predictions, querying stored predictions and alerts, and bulk data uploads.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medvault/medvault-go/internal/datastore/repository"
	"github.com/medvault/medvault-go/internal/forecast"
	"github.com/medvault/medvault-go/internal/logger"
)

const (
	// statsCacheTTL bounds how stale the stats endpoint may be; the
	// underlying counts are five table scans and get hit by dashboards.
	statsCacheTTL      = 30 * time.Second
	statsCacheKey      = "prediction_stats"
	maxAlertListLimit  = 200
	defaultAlertsLimit = 50
)

// QueryValueTrue is the canonical truthy query parameter value.
const QueryValueTrue = "true"

// Controller wires HTTP routes to the repositories and the prediction
// engine runner.
type Controller struct {
	predictions repository.PredictionRepository
	inventory   repository.InventoryRepository
	demand      repository.DemandRepository
	contexts    repository.ContextRepository
	runner      *forecast.Runner
	matcher     *forecast.ItemMatcher
	statsCache  *gocache.Cache
	log         logger.Logger
}

// NewController creates a new Controller.
func NewController(
	predictions repository.PredictionRepository,
	inventory repository.InventoryRepository,
	demand repository.DemandRepository,
	contexts repository.ContextRepository,
	runner *forecast.Runner,
	log logger.Logger,
) *Controller {
	return &Controller{
		predictions: predictions,
		inventory:   inventory,
		demand:      demand,
		contexts:    contexts,
		runner:      runner,
		matcher:     forecast.NewItemMatcher(inventory),
		statsCache:  gocache.New(statsCacheTTL, 2*statsCacheTTL),
		log:         log,
	}
}

// RegisterRoutes attaches all engine routes to the echo instance.
func (c *Controller) RegisterRoutes(e *echo.Echo) {
	e.Use(middleware.Recover())

	e.GET("/healthz", c.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/api/v1")

	predictions := v1.Group("/predictions")
	predictions.POST("/run", c.RunPredictions)
	predictions.GET("", c.ListPredictions)
	predictions.GET("/critical", c.ListCriticalPredictions)
	predictions.GET("/stats", c.GetPredictionStats)
	predictions.GET("/:id", c.GetPrediction)

	v1.GET("/alerts", c.ListAlerts)

	v1.GET("/items", c.ListItems)

	uploads := v1.Group("/uploads")
	uploads.POST("/demand", c.UploadDemand)
	uploads.POST("/context", c.UploadContext)
}

// Health is a liveness probe.
func (c *Controller) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// errorResponse is the uniform error body.
func errorResponse(ctx echo.Context, status int, message string) error {
	return ctx.JSON(status, map[string]string{"error": message})
}

// parseUintParam parses a uint route parameter.
func parseUintParam(ctx echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}
