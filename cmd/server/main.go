// Package main - entry point for the Aura Hub Intervention Engine API server.
//
// The server exposes the analysis pipeline over HTTP: profile collection,
// risk classification, progress tracking, intervention planning, outcome
// forecasting and notification composition, streamed step by step.
//
// The architecture follows Clean Architecture and DDD:
// - Domain: pure business logic without external dependencies
// - Application: use case orchestration (Commands/Queries/Pipeline)
// - Infrastructure: repositories, caches, external APIs, delivery channels
// - Interface: HTTP endpoints
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aura-hub/intervention-hub/config"

	// Application layer
	"github.com/aura-hub/intervention-hub/internal/application/command"
	"github.com/aura-hub/intervention-hub/internal/application/eventhandler"
	"github.com/aura-hub/intervention-hub/internal/application/orchestrator"
	"github.com/aura-hub/intervention-hub/internal/application/query"

	// Domain layer
	"github.com/aura-hub/intervention-hub/internal/domain/notification"
	"github.com/aura-hub/intervention-hub/internal/domain/progress"
	"github.com/aura-hub/intervention-hub/internal/domain/shared"
	"github.com/aura-hub/intervention-hub/internal/domain/student"

	// Infrastructure layer
	"github.com/aura-hub/intervention-hub/internal/infrastructure/external/sis"
	"github.com/aura-hub/intervention-hub/internal/infrastructure/messaging"
	"github.com/aura-hub/intervention-hub/internal/infrastructure/persistence/memory"
	"github.com/aura-hub/intervention-hub/internal/infrastructure/persistence/postgres"
	"github.com/aura-hub/intervention-hub/internal/infrastructure/persistence/redis"
	"github.com/aura-hub/intervention-hub/internal/infrastructure/service"
	"github.com/aura-hub/intervention-hub/internal/infrastructure/source"

	// Interface layer
	httpserver "github.com/aura-hub/intervention-hub/internal/interface/http"

	// Packages
	"github.com/aura-hub/intervention-hub/pkg/logger"
	"github.com/aura-hub/intervention-hub/pkg/timeutil"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	appLog := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
	})

	log.Info("starting Aura Hub Intervention Engine",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (PostgreSQL, optional)
	// ─────────────────────────────────────────────────────────────────────────
	var dbConn *postgres.Connection
	var pgProgress *postgres.ProgressRepository
	var progressRepo progress.Repository
	var alertRepo notification.Repository

	if !cfg.Database.Disabled {
		log.Info("connecting to database...")
		dbConn, err = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection...")
			dbConn.Close()
		}()

		if cfg.Database.MigrateOnStart {
			log.Info("running database migrations...")
			migrator := postgres.NewMigrator(dbConn)
			if err := migrator.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Info("database schema is up to date")
		}

		pgProgress = postgres.NewProgressRepository(dbConn)
		progressRepo = pgProgress
		alertRepo = postgres.NewAlertRepository(dbConn)
	} else {
		log.Warn("database disabled, ledger and alert history will not survive restarts")
		alertRepo = memory.NewAlertRepository()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var profileCache student.Cache
	var redisCache *redis.Cache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", "error", err)
		} else {
			defer redisCache.Close()
			profileCache = redis.NewProfileCache(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")

	var eventBus shared.EventBus
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log

	if redisCache != nil {
		redisBus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:         redis.NewPubSub(redisCache),
			LocalBusConfig: busConfig,
			Logger:         log,
		})
		if err != nil {
			return fmt.Errorf("failed to create Redis event bus: %w", err)
		}
		eventBus = redisBus
	} else {
		eventBus = messaging.NewInMemoryEventBus(busConfig)
	}
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. PROFILE SOURCE (SIS API, database or CSV roster)
	// ─────────────────────────────────────────────────────────────────────────
	var profileSource student.Source

	switch cfg.Source.Kind {
	case "sis":
		log.Info("using SIS API source", "base_url", cfg.SIS.BaseURL)
		sisConfig := sis.DefaultClientConfig(cfg.SIS.BaseURL)
		sisConfig.APIKey = cfg.SIS.APIKey
		sisConfig.Timeout = cfg.SIS.RequestTimeout
		sisConfig.RateLimiterConfig.RequestsPerSecond = cfg.SIS.RequestsPerSecond
		sisConfig.RateLimiterConfig.BurstSize = cfg.SIS.RateLimitBurst
		sisConfig.Logger = log
		profileSource = sis.NewClient(sisConfig)
	case "database":
		if dbConn == nil {
			return errors.New("database source requires a live database connection")
		}
		log.Info("using database student source")
		profileSource = postgres.NewStudentRepository(dbConn)
	default:
		log.Info("using CSV roster source", "path", cfg.Source.CSVPath)
		profileSource = source.NewCSVSource(cfg.Source.CSVPath)
	}

	if profileCache != nil {
		profileSource = &cachingSource{inner: profileSource, cache: profileCache}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. LEDGER HYDRATION
	// ─────────────────────────────────────────────────────────────────────────
	ledger := progress.NewLedger()
	if progressRepo != nil {
		restored, err := progress.Hydrate(ctx, ledger, progressRepo)
		if err != nil {
			return fmt.Errorf("failed to hydrate ledger: %w", err)
		}
		log.Info("ledger hydrated", "students", restored)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. NOTIFICATION CHANNEL
	// ─────────────────────────────────────────────────────────────────────────
	var sender notification.Sender
	switch cfg.Notification.Channel {
	case "file":
		sender, err = service.NewFileSender(cfg.Notification.OutboxDir, log)
		if err != nil {
			return fmt.Errorf("failed to create file sender: %w", err)
		}
	case "webhook":
		sender = service.NewWebhookSender(
			cfg.Notification.WebhookURL,
			cfg.Notification.WebhookToken,
			cfg.SIS.RequestTimeout,
			log,
		)
	default:
		sender = service.NewLogSender(log)
	}
	log.Info("notification channel ready", "channel", string(sender.Type()))

	// ─────────────────────────────────────────────────────────────────────────
	// 9. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	policy := notification.DefaultPolicy()
	assessHandler := command.NewAssessStudentHandler(profileSource, ledger, progressRepo, policy, eventBus, appLog)
	trackHandler := command.NewTrackProgressHandler(ledger, progressRepo, eventBus, appLog)
	timelineQuery := query.NewGetTimelineHandler(ledger, appLog)
	visualizationQuery := query.NewExportVisualizationHandler(ledger, appLog)
	summaryQuery := query.NewSummaryReportHandler(ledger, alertRepo, appLog)

	orch := orchestrator.New(orchestrator.Dependencies{
		Assess:    assessHandler,
		Source:    profileSource,
		Composer:  notification.NewComposer(),
		AlertRepo: alertRepo,
		Policy:    policy,
		Stages: orchestrator.Stages{
			Plan:     cfg.Pipeline.PlanEnabled,
			Forecast: cfg.Pipeline.ForecastEnabled,
			Notify:   cfg.Pipeline.NotifyEnabled,
		},
		EventBus: eventBus,
		Logger:   appLog,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 10. EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("registering event handlers...")

	dispatcher := messaging.NewDispatcher(eventBus, log)
	deliveryHandler := eventhandler.NewOnAlertComposedHandler(alertRepo, sender, eventBus, log)
	escalationHandler := eventhandler.NewOnRiskEscalatedHandler(profileCache, log)

	if err := dispatcher.RegisterAll(
		messaging.HandlerRegistration{
			Name:      "alert_delivery",
			EventType: shared.EventAlertComposed,
			Handler:   deliveryHandler.Handle,
		},
		messaging.HandlerRegistration{
			Name:      "risk_escalation_cache_invalidation",
			EventType: shared.EventRiskLevelEscalated,
			Handler:   escalationHandler.Handle,
		},
	); err != nil {
		return fmt.Errorf("failed to register event handlers: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. REPORT ARCHIVE AND ADMIN AUTH
	// ─────────────────────────────────────────────────────────────────────────
	exporter, err := service.NewReportExporter(cfg.Worker.ReportDir, log)
	if err != nil {
		return fmt.Errorf("failed to create report exporter: %w", err)
	}
	archive := &reportArchive{
		exporter:  exporter,
		alertRepo: alertRepo,
		ledger:    ledger,
		summary:   summaryQuery,
	}

	auth := service.NewAuthService(cfg.Admin.Username, cfg.Admin.PasswordHash)

	// ─────────────────────────────────────────────────────────────────────────
	// 12. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.Server.Host
	httpConfig.Port = cfg.Server.Port
	httpConfig.ReadTimeout = cfg.Server.ReadTimeout
	httpConfig.WriteTimeout = cfg.Server.WriteTimeout
	httpConfig.IdleTimeout = cfg.Server.IdleTimeout
	httpConfig.EnableCORS = cfg.Server.EnableCORS
	httpConfig.AllowedOrigins = cfg.Server.AllowedOrigins
	httpConfig.RateLimitPerMinute = cfg.Server.RateLimitPerMinute

	httpDeps := httpserver.Dependencies{
		Orchestrator:               orch,
		TrackProgressHandler:       trackHandler,
		GetTimelineHandler:         timelineQuery,
		ExportVisualizationHandler: visualizationQuery,
		SummaryReportHandler:       summaryQuery,
		Auth:                       auth,
		Archive:                    archive,
		Logger:                     appLog,
		HealthChecker:              &healthChecker{db: dbConn, cache: redisCache},
	}

	httpServer := httpserver.NewServer(httpConfig, httpDeps)

	// ─────────────────────────────────────────────────────────────────────────
	// 13. STARTUP AND GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "address", httpServer.Address())
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	log.Info("Aura Hub Intervention Engine is running",
		"http_address", httpServer.Address(),
		"source", sourceName(cfg),
		"channel", cfg.Notification.Channel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		log.Error("service error", "error", err)
		return err
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error

	// 1. Stop the HTTP server (stop accepting new requests)
	log.Info("stopping HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", "error", err)
		shutdownErr = err
	}

	// 2. Flush the ledger to PostgreSQL before the connection closes
	if pgProgress != nil {
		log.Info("writing final ledger snapshot...")
		if err := pgProgress.WriteSnapshot(shutdownCtx, ledger.Records()); err != nil {
			log.Error("failed to write final snapshot", "error", err)
			shutdownErr = err
		}
	}

	// 3. Event bus, Redis and database close via defer

	if shutdownErr != nil {
		log.Warn("shutdown completed with errors")
	} else {
		log.Info("shutdown completed successfully")
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger configures structured logging for the process.
func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

func sourceName(cfg *config.Config) string {
	if cfg.SIS.BaseURL != "" {
		return "sis"
	}
	return "csv"
}

// ══════════════════════════════════════════════════════════════════════════════
// ADAPTERS
// These adapt infrastructure implementations to interface-layer contracts.
// ══════════════════════════════════════════════════════════════════════════════

// cachingSource layers the Redis profile cache over another source.
type cachingSource struct {
	inner student.Source
	cache student.Cache
}

// GetProfile implements student.Source.
func (s *cachingSource) GetProfile(ctx context.Context, id shared.StudentID) (*student.Profile, error) {
	if p, err := s.cache.Get(ctx, id); err == nil {
		return p, nil
	}

	p, err := s.inner.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, p, 0)
	return p, nil
}

// ListProfiles implements student.Source. Listings bypass the cache.
func (s *cachingSource) ListProfiles(ctx context.Context) ([]*student.Profile, error) {
	return s.inner.ListProfiles(ctx)
}

// reportArchive implements httpserver.ReportArchive over the exporter.
type reportArchive struct {
	exporter  *service.ReportExporter
	alertRepo notification.Repository
	ledger    *progress.Ledger
	summary   *query.SummaryReportHandler
}

// Export writes every report and returns file paths keyed by report name.
func (a *reportArchive) Export(ctx context.Context) (map[string]string, error) {
	files := make(map[string]string)

	if a.alertRepo != nil {
		res, err := a.exporter.ExportNotifications(ctx, a.alertRepo)
		if err != nil {
			return nil, err
		}
		files["notifications"] = res.Path
	}

	res, err := a.exporter.ExportProgressDatabase(ctx, a.ledger)
	if err != nil {
		return nil, err
	}
	files["progress_database"] = res.Path

	report, err := a.summary.Handle(ctx)
	if err != nil {
		return nil, err
	}
	sumRes, err := a.exporter.ExportSummary(ctx, report)
	if err != nil {
		return nil, err
	}
	files["summary_json"] = sumRes.JSONPath
	files["summary_csv"] = sumRes.CSVPath

	return files, nil
}

// healthChecker implements httpserver.HealthChecker over the connections.
type healthChecker struct {
	db    *postgres.Connection
	cache *redis.Cache
}

// Check implements httpserver.HealthChecker.
func (h *healthChecker) Check(ctx context.Context) httpserver.HealthStatus {
	status := httpserver.HealthStatus{
		Healthy:    true,
		Ready:      true,
		Components: make(map[string]string),
		CheckedAt:  timeutil.Now(),
	}

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			status.Healthy = false
			status.Ready = false
			status.Message = "database unreachable"
			status.Components["postgres"] = err.Error()
		} else {
			status.Components["postgres"] = "ok"
		}
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			// Degraded but usable: the cache is an optimization.
			status.Components["redis"] = err.Error()
		} else {
			status.Components["redis"] = "ok"
		}
	}

	return status
}
