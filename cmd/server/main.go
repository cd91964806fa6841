package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"commute/internal/app"
	"commute/internal/auth"
	"commute/internal/config"
	"commute/internal/events"
	"commute/internal/handler"
	"commute/internal/logging"
	internalRedis "commute/internal/redis"
	"commute/internal/repository/postgres"
	"commute/internal/schedule"
	"commute/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	location, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		logger.Error("failed to load schedule timezone", "timezone", cfg.Schedule.Timezone, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// New Relic goes first so the database driver and Redis hook can be instrumented.
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", "error", err)
		} else {
			logger.Info("New Relic enabled", "app", cfg.NewRelic.AppName)
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL", "host", cfg.Database.Host, "db", cfg.Database.DBName)

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	logger.Info("connected to Redis", "addr", cfg.Redis.Addr)

	publisher := app.NewPublisher(cfg.Kafka, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close event publisher", "error", err)
		}
	}()

	server := wireServer(db, redisClient, nrApp, publisher, location, logger, cfg)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		logger.Error("server error", "error", err)
	}
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	logger.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(
	db *sql.DB,
	redisClient *redis.Client,
	nrApp *newrelic.Application,
	publisher events.Publisher,
	location *time.Location,
	logger *slog.Logger,
	cfg *config.Config,
) *http.Server {
	lockStore := internalRedis.NewLockStore(redisClient)

	txManager := postgres.NewTxManager(db)
	requestRepo := postgres.NewRequestRepository(db)
	contractRepo := postgres.NewContractRepository(db)
	tripRepo := postgres.NewTripRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	vehicleRepo := postgres.NewVehicleRepository(db)
	companyRepo := postgres.NewCompanyRepository(db)

	expander := schedule.NewExpander(location, cfg.Schedule.Window)

	requestService := service.NewRequestService(txManager, requestRepo, contractRepo, lockStore, publisher, logger)
	contractService := service.NewContractService(
		txManager,
		requestRepo,
		contractRepo,
		tripRepo,
		driverRepo,
		vehicleRepo,
		companyRepo,
		lockStore,
		expander,
		publisher,
		logger,
	)
	tripService := service.NewTripService(tripRepo, contractRepo, requestRepo, driverRepo, publisher, logger)
	fleetService := service.NewFleetService(companyRepo, vehicleRepo, driverRepo, contractRepo, logger)

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)

	router := app.NewRouter(app.RouterDeps{
		RequestHandler:  handler.NewRequestHandler(requestService),
		ContractHandler: handler.NewContractHandler(contractService),
		TripHandler:     handler.NewTripHandler(tripService),
		FleetHandler:    handler.NewFleetHandler(fleetService),
		Verifier:        tokens,
		RedisClient:     redisClient,
		NewRelicApp:     nrApp,
		MetricsEnabled:  cfg.Metrics.Enabled,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
