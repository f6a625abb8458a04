package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/hospitalpowermonitor/internal/adapters/events"
	"github.com/zatekoja/hospitalpowermonitor/internal/adapters/kvstore"
	"github.com/zatekoja/hospitalpowermonitor/internal/api/handlers"
	"github.com/zatekoja/hospitalpowermonitor/internal/api/routes"
	"github.com/zatekoja/hospitalpowermonitor/internal/application/services"
	"github.com/zatekoja/hospitalpowermonitor/internal/domain/providers"
	redisclient "github.com/zatekoja/hospitalpowermonitor/internal/infrastructure/clients/redis"
	"github.com/zatekoja/hospitalpowermonitor/internal/infrastructure/observability"
	"github.com/zatekoja/hospitalpowermonitor/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := observability.InitLogger(cfg.OTEL.ServiceName, cfg.Log.Env, cfg.Log.Level)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Storage backend for the sector record
	backend, err := kvstore.Open(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to open storage backend")
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing storage backend")
		}
	}()
	logger.Info().Str("driver", cfg.Storage.Driver).Str("key", cfg.Storage.Key).Msg("Storage backend ready")

	eventBus, closeBus := openEventBus(ctx, cfg, backend, logger)
	defer closeBus()

	recordStore := services.NewRecordStore(backend.Store, cfg.Storage.Key,
		services.WithRecordStoreLogger(logger),
		services.WithRecordStoreMetrics(metrics),
	)
	repo := services.NewSectorRepository(recordStore, services.WithRepositoryLogger(logger))
	sectorService := services.NewSectorService(repo, eventBus,
		services.WithServiceLogger(logger),
		services.WithServiceMetrics(metrics),
	)

	if _, err := sectorService.Refresh(ctx); err != nil {
		logger.Warn().Err(err).Msg("Initial sector load failed")
	}

	watcher := services.NewEstimateWatcher(sectorService, cfg.Monitor.EstimateCheckInterval, logger)
	go watcher.Run(ctx)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		observability.NewHospitalCollector(sectorService, logger),
	)

	router := routes.NewRouter(
		handlers.NewHealthHandler(backend),
		handlers.NewSectorHandler(sectorService, nil),
		handlers.NewDashboardHandler(sectorService, nil),
		handlers.NewSSEHandler(eventBus, 0),
		registry,
		metrics,
		cfg.Server.AllowedOrigins,
	)

	// WriteTimeout stays unset: SSE streams are long-lived.
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Server shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error during server shutdown")
	}

	logger.Info().Msg("Server stopped")
}

// openEventBus picks Redis pub/sub when configured, reusing the storage
// connection if the backend already opened one.
func openEventBus(ctx context.Context, cfg *config.Config, backend *kvstore.Backend, logger zerolog.Logger) (providers.EventBus, func()) {
	closeBus := func(bus providers.EventBus, extra func() error) func() {
		return func() {
			if err := bus.Close(); err != nil {
				logger.Error().Err(err).Msg("Error closing event bus")
			}
			if extra != nil {
				if err := extra(); err != nil {
					logger.Error().Err(err).Msg("Error closing event bus client")
				}
			}
		}
	}

	if cfg.Monitor.EventBus == config.DriverRedis {
		if backend.Redis != nil {
			logger.Info().Msg("Event bus: redis (shared connection)")
			bus := events.NewRedisEventBus(backend.Redis, events.WithLogger(logger))
			return bus, closeBus(bus, nil)
		}
		client, err := redisclient.NewClient(ctx, &cfg.Redis)
		if err == nil {
			logger.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Event bus: redis")
			bus := events.NewRedisEventBus(client, events.WithLogger(logger))
			return bus, closeBus(bus, client.Close)
		}
		logger.Warn().Err(err).Msg("Redis unavailable, falling back to in-memory event bus")
	}

	logger.Info().Msg("Event bus: memory")
	bus := events.NewMemoryEventBus(events.WithLogger(logger))
	return bus, closeBus(bus, nil)
}
