// medvault runs the medical shortage prediction engine: an HTTP API plus
// optional MQTT ingestion and a periodic re-run ticker, or one-shot
// prediction and migration commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"github.com/medvault/medvault-go/internal/api"
	"github.com/medvault/medvault-go/internal/conf"
	"github.com/medvault/medvault-go/internal/datastore"
	"github.com/medvault/medvault-go/internal/datastore/repository"
	"github.com/medvault/medvault-go/internal/events"
	"github.com/medvault/medvault-go/internal/forecast"
	"github.com/medvault/medvault-go/internal/ingest"
	"github.com/medvault/medvault-go/internal/logger"
	"github.com/medvault/medvault-go/internal/notify"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "medvault",
		Short:         "Medical shortage prediction engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to config file")

	root.AddCommand(
		newServeCommand(&configFile),
		newPredictCommand(&configFile),
		newMigrateCommand(&configFile),
	)
	return root
}

// app bundles everything the commands share.
type app struct {
	settings    *conf.Settings
	log         logger.Logger
	configs     repository.ConfigRepository
	inventory   repository.InventoryRepository
	demand      repository.DemandRepository
	contexts    repository.ContextRepository
	predictions repository.PredictionRepository
	runner      *forecast.Runner
}

func newApp(configFile string) (*app, error) {
	settings, err := conf.Load(configFile)
	if err != nil {
		return nil, err
	}

	log := logger.NewSlogLogger(os.Stderr, parseLogLevel(settings.Log.Level), &logger.Options{JSON: settings.Log.JSON})

	db, err := datastore.Open(&settings.Database)
	if err != nil {
		return nil, err
	}
	if err := datastore.Migrate(db); err != nil {
		return nil, err
	}

	configs := repository.NewConfigRepository(db)
	inventory := repository.NewInventoryRepository(db)
	demand := repository.NewDemandRepository(db)
	contexts := repository.NewContextRepository(db)
	predictions := repository.NewPredictionRepository(db)

	notify.Initialize(predictions, log.With(logger.String("component", "notify")))

	forecaster := forecast.NewForecaster(
		forecast.NewDemandAggregator(demand),
		forecast.NewSupplyGauge(inventory),
		forecast.NewContextScorer(contexts),
		log.With(logger.String("component", "forecaster")),
	)
	runner := forecast.NewRunner(
		configs, inventory, demand, predictions,
		forecaster,
		notify.GetService(),
		settings.Engine.DefaultRegion,
		log.With(logger.String("component", "engine")),
	)

	return &app{
		settings:    settings,
		log:         log,
		configs:     configs,
		inventory:   inventory,
		demand:      demand,
		contexts:    contexts,
		predictions: predictions,
		runner:      runner,
	}, nil
}

func newServeCommand(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, MQTT ingestion, and the periodic engine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*configFile)
			if err != nil {
				return err
			}
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewDemandEventBus()
	events.SetGlobalBus(bus)
	defer bus.Stop()

	ingestor := forecast.NewDemandIngestor(
		forecast.NewItemMatcher(a.inventory),
		a.demand,
		a.settings.Engine.DefaultRegion,
		a.log.With(logger.String("component", "ingestor")),
	)
	ingestor.Subscribe(bus)

	if a.settings.MQTT.Enabled {
		subscriber := ingest.NewSubscriber(
			&a.settings.MQTT, bus, a.contexts,
			a.log.With(logger.String("component", "mqtt")),
		)
		if err := subscriber.Start(ctx); err != nil {
			return err
		}
		defer subscriber.Stop()
	}

	if interval := a.settings.Engine.RetrainInterval.Std(); interval > 0 {
		go a.runPeriodically(ctx, interval)
	}

	e := echo.New()
	e.HideBanner = true
	controller := api.NewController(
		a.predictions, a.inventory, a.demand, a.contexts, a.runner,
		a.log.With(logger.String("component", "api")),
	)
	controller.RegisterRoutes(e)

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server starting", logger.String("addr", a.settings.HTTP.Addr))
		errCh <- e.Start(a.settings.HTTP.Addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		a.log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// runPeriodically re-runs the engine on the configured cadence. The engine
// itself stays a finite batch job; the cadence lives here.
func (a *app) runPeriodically(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := a.runner.Run(ctx, forecast.RunParams{
				ConfigName: a.settings.Engine.ConfigName,
			}); err != nil {
				a.log.Error("scheduled prediction run failed", logger.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

func newPredictCommand(configFile *string) *cobra.Command {
	var (
		regions []string
		itemIDs []uint
		horizon int
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Run one prediction batch and print the report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*configFile)
			if err != nil {
				return err
			}

			report, err := a.runner.Run(cmd.Context(), forecast.RunParams{
				Regions:     regions,
				ItemIDs:     itemIDs,
				HorizonDays: horizon,
				ConfigName:  a.settings.Engine.ConfigName,
			})
			if err != nil {
				return err
			}

			fmt.Printf("run %s: %d pairs, %d stored, %d alerts, %d skipped, %d below confidence (%.2fs)\n",
				report.RunID, report.Pairs, len(report.Stored), len(report.Alerts),
				report.Skipped, report.BelowConfidence, report.Elapsed.Seconds())
			for reason, count := range report.SkipReasons {
				fmt.Printf("  skipped %d: %s\n", count, reason)
			}
			for i := range report.Stored {
				p := &report.Stored[i]
				fmt.Printf("  %s/%s severity=%s confidence=%.2f date=%s\n",
					p.MedicalItem.Name, p.Region, p.Severity, p.Confidence,
					p.ShortageDate.Format(time.DateOnly))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&regions, "regions", nil, "regions to cover (default: all with demand history)")
	cmd.Flags().UintSliceVar(&itemIDs, "items", nil, "item IDs to cover (default: all with stock)")
	cmd.Flags().IntVar(&horizon, "horizon", 0, "prediction horizon in days (default: from config)")
	return cmd
}

func newMigrateCommand(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(_ *cobra.Command, _ []string) error {
			settings, err := conf.Load(*configFile)
			if err != nil {
				return err
			}
			db, err := datastore.Open(&settings.Database)
			if err != nil {
				return err
			}
			return datastore.Migrate(db)
		},
	}
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.LogLevelDebug
	case "warn":
		return logger.LogLevelWarn
	case "error":
		return logger.LogLevelError
	default:
		return logger.LogLevelInfo
	}
}
