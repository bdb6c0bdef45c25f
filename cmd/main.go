package main

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/KasumiMercury/primind-reminder-agent/internal/config"
	"github.com/KasumiMercury/primind-reminder-agent/internal/domain"
	"github.com/KasumiMercury/primind-reminder-agent/internal/events"
	"github.com/KasumiMercury/primind-reminder-agent/internal/handler"
	"github.com/KasumiMercury/primind-reminder-agent/internal/health"
	"github.com/KasumiMercury/primind-reminder-agent/internal/infra/notify"
	"github.com/KasumiMercury/primind-reminder-agent/internal/infra/remindrecorder"
	"github.com/KasumiMercury/primind-reminder-agent/internal/infra/repository"
	"github.com/KasumiMercury/primind-reminder-agent/internal/infra/systimer"
	"github.com/KasumiMercury/primind-reminder-agent/internal/observability"
	"github.com/KasumiMercury/primind-reminder-agent/internal/observability/metrics"
	"github.com/KasumiMercury/primind-reminder-agent/internal/service/agent"
)

// Version is set via ldflags at build time
var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		return 1
	}
	if err := config.ValidateForRun(cfg); err != nil {
		slog.Error("configuration validation error", slog.String("error", err.Error()))
		return 1
	}

	serviceName := os.Getenv("SERVICE_NAME")
	if serviceName == "" {
		serviceName = "reminder-agent"
	}
	obs, err := observability.Init(ctx, observability.Config{
		ServiceName: serviceName,
		Version:     Version,
		LogLevel:    cfg.LogLevel,
	})
	if err != nil {
		slog.Error("failed to initialize observability", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			slog.Warn("observability shutdown error", slog.String("error", err.Error()))
		}
	}()
	slog.SetDefault(obs.Logger())

	clock := domain.SystemClock{}

	// Reminder store
	db, err := repository.Open(cfg.Store.Path)
	if err != nil {
		slog.Error("failed to open reminder database",
			slog.String("path", cfg.Store.Path),
			slog.String("error", err.Error()),
		)
		return 1
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Warn("failed to close reminder database", slog.String("error", err.Error()))
		}
	}()

	store, err := repository.NewReminderStore(db, clock)
	if err != nil {
		slog.Error("failed to initialize reminder store", slog.String("error", err.Error()))
		return 1
	}
	if err := store.Init(ctx); err != nil {
		slog.Error("reminder store recovery failed", slog.String("error", err.Error()))
		return 1
	}
	slog.Info("reminder store ready", slog.String("path", cfg.Store.Path))

	// Event bus
	var bus events.Bus
	var redisClient *redis.Client
	if cfg.EventBus == config.EventBusRedis {
		redisOpts := &redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}
		if cfg.Redis.TLS {
			redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient = redis.NewClient(redisOpts)

		if err := redisotel.InstrumentTracing(redisClient); err != nil {
			slog.Error("failed to instrument redis tracing",
				slog.String("event", "redis.otel.tracing.fail"),
				slog.String("error", err.Error()),
			)
			return 1
		}
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			slog.Error("failed to instrument redis metrics",
				slog.String("event", "redis.otel.metrics.fail"),
				slog.String("error", err.Error()),
			)
			return 1
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.Error("failed to connect redis",
				slog.String("event", "redis.connect.fail"),
				slog.String("error", err.Error()),
			)
			return 1
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				slog.Warn("failed to close redis client", slog.String("error", err.Error()))
			}
		}()
		slog.Info("redis connected", slog.String("addr", cfg.Redis.Addr))

		bus = events.NewRedisBus(redisClient)
	} else {
		bus = events.NewLocalBus()
	}
	defer func() {
		if err := bus.Close(); err != nil {
			slog.Warn("failed to close event bus", slog.String("error", err.Error()))
		}
	}()

	// System timers
	timers := systimer.NewSystemTimerService(bus, clock)

	// Notification delivery
	var notifier notify.Service
	if cfg.Notify.BaseURL != "" {
		notifier = notify.NewClient(cfg.Notify.BaseURL)
		slog.Info("notification client initialized", slog.String("url", cfg.Notify.BaseURL))
	} else {
		slog.Warn("NOTIFICATION_SERVICE_URL not set, notifications are logged only")
		notifier = notify.NewNoopService()
	}

	// Reminder lifecycle recorder (InfluxDB, or no-op when not configured)
	recorder, err := remindrecorder.NewRecorder(ctx, remindrecorder.LoadConfig())
	if err != nil {
		slog.Error("failed to initialize reminder history recorder", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			slog.Warn("failed to close reminder history recorder", slog.String("error", err.Error()))
		}
	}()

	reminderMetrics, err := metrics.NewReminderMetrics()
	if err != nil {
		slog.Error("failed to initialize reminder metrics", slog.String("error", err.Error()))
		return 1
	}

	reminderAgent, err := agent.New(agent.Options{
		Store:        store,
		Timers:       timers,
		Notifier:     notifier,
		Recorder:     recorder,
		Metrics:      reminderMetrics,
		Clock:        clock,
		MaxPerBundle: cfg.Quota.MaxPerBundle,
		MaxTotal:     cfg.Quota.MaxTotal,
	})
	if err != nil {
		slog.Error("failed to initialize reminder agent", slog.String("error", err.Error()))
		return 1
	}
	if err := reminderAgent.Init(ctx); err != nil {
		slog.Error("reminder agent recovery failed", slog.String("error", err.Error()))
		return 1
	}

	eventManager := events.NewEventManager(bus, reminderAgent)
	if err := eventManager.Start(ctx); err != nil {
		slog.Error("failed to start event manager", slog.String("error", err.Error()))
		return 1
	}

	// Setup router
	r := gin.New()
	r.Use(gin.Recovery())

	// Health check endpoints
	healthChecker := health.NewChecker(db, redisClient, Version)
	r.GET("/health/live", healthChecker.LiveHandler())
	r.GET("/health/ready", healthChecker.ReadyHandler())
	r.GET("/health", healthChecker.ReadyHandler())

	// API routes
	reminderHandler := handler.NewReminderHandler(reminderAgent, clock)
	reminderHandler.RegisterRoutes(r.Group("/api/v1"))

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Port),
			slog.String("event_bus", cfg.EventBus),
			slog.Int("max_per_bundle", cfg.Quota.MaxPerBundle),
			slog.Int("max_total", cfg.Quota.MaxTotal),
		)
		serverErr <- srv.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown server", slog.String("error", err.Error()))
			return 1
		}

		slog.Info("server exited properly")
		return 0
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.String("error", err.Error()))
			return 1
		}
		return 0
	}
}
