// Package main - entry point for the Aura Hub Intervention Engine worker.
//
// The worker owns the periodic persistence tasks:
// - Flushing the progress ledger to PostgreSQL as incremental snapshots
// - Exporting the notification journal, progress database and summary
//   report to durable files
//
// It re-hydrates the ledger from PostgreSQL on every cycle, so it can run
// alongside API server instances without sharing memory with them.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aura-hub/intervention-hub/config"

	"github.com/aura-hub/intervention-hub/internal/application/query"
	"github.com/aura-hub/intervention-hub/internal/domain/progress"
	"github.com/aura-hub/intervention-hub/internal/infrastructure/persistence/postgres"
	"github.com/aura-hub/intervention-hub/internal/infrastructure/service"
	"github.com/aura-hub/intervention-hub/internal/infrastructure/source"
	"github.com/aura-hub/intervention-hub/pkg/logger"
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
	if cfg.Database.Disabled {
		return errors.New("DATABASE_URL is required: the worker persists ledger snapshots")
	}
	if !cfg.Worker.Enabled {
		return errors.New("worker is disabled by WORKER_ENABLED")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	appLog := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
	})

	log.Info("starting Aura Hub Intervention Engine Worker",
		"env", cfg.App.Environment,
		"snapshot_interval", cfg.Worker.SnapshotInterval.String(),
		"export_interval", cfg.Worker.ExportInterval.String(),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	log.Info("checking database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	progressRepo := postgres.NewProgressRepository(dbConn)
	alertRepo := postgres.NewAlertRepository(dbConn)
	studentRepo := postgres.NewStudentRepository(dbConn)

	// Best-effort roster import so the database source has profiles to serve.
	if n, err := syncRoster(ctx, cfg.Source.CSVPath, studentRepo); err != nil {
		log.Warn("roster sync skipped", "path", cfg.Source.CSVPath, "error", err)
	} else {
		log.Info("roster synced to database", "profiles", n)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REPORT EXPORTER
	// ─────────────────────────────────────────────────────────────────────────
	exporter, err := service.NewReportExporter(cfg.Worker.ReportDir, log)
	if err != nil {
		return fmt.Errorf("failed to create report exporter: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. WORKER LOOPS
	// ─────────────────────────────────────────────────────────────────────────
	loopCtx, stopLoops := context.WithCancel(ctx)
	defer stopLoops()

	doneCh := make(chan struct{}, 2)

	go func() {
		defer func() { doneCh <- struct{}{} }()
		snapshotLoop(loopCtx, log, cfg.Worker.SnapshotInterval, progressRepo)
	}()

	go func() {
		defer func() { doneCh <- struct{}{} }()
		exportLoop(loopCtx, log, appLog, cfg.Worker.ExportInterval, progressRepo, alertRepo, exporter)
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("Aura Hub Intervention Engine Worker is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	stopLoops()

	deadline := time.After(cfg.App.ShutdownTimeout)
	for i := 0; i < 2; i++ {
		select {
		case <-doneCh:
		case <-deadline:
			log.Warn("shutdown timeout reached, abandoning worker loops")
			return nil
		}
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LOOPS
// ══════════════════════════════════════════════════════════════════════════════

// snapshotLoop periodically re-reads the persisted ledger and writes any
// entries newer than the last snapshot. The write is idempotent, so running
// it against an unchanged database is a no-op.
func snapshotLoop(ctx context.Context, log *slog.Logger, interval time.Duration, repo *postgres.ProgressRepository) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("snapshot loop stopped")
			return
		case <-ticker.C:
			ledger, err := hydrateLedger(ctx, repo)
			if err != nil {
				log.Error("snapshot: failed to hydrate ledger", "error", err)
				continue
			}
			if err := repo.WriteSnapshot(ctx, ledger.Records()); err != nil {
				log.Error("snapshot: write failed", "error", err)
				continue
			}
			log.Debug("ledger snapshot written", "students", len(ledger.StudentIDs()))
		}
	}
}

// exportLoop periodically writes the notification journal, the progress
// database and the summary report to the report directory.
func exportLoop(
	ctx context.Context,
	log *slog.Logger,
	appLog *logger.Logger,
	interval time.Duration,
	progressRepo *postgres.ProgressRepository,
	alertRepo *postgres.AlertRepository,
	exporter *service.ReportExporter,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("export loop stopped")
			return
		case <-ticker.C:
			ledger, err := hydrateLedger(ctx, progressRepo)
			if err != nil {
				log.Error("export: failed to hydrate ledger", "error", err)
				continue
			}

			if _, err := exporter.ExportNotifications(ctx, alertRepo); err != nil {
				log.Error("export: notifications failed", "error", err)
			}
			if _, err := exporter.ExportProgressDatabase(ctx, ledger); err != nil {
				log.Error("export: progress database failed", "error", err)
			}

			summary := query.NewSummaryReportHandler(ledger, alertRepo, appLog)
			report, err := summary.Handle(ctx)
			if err != nil {
				log.Error("export: summary report failed", "error", err)
				continue
			}
			if _, err := exporter.ExportSummary(ctx, report); err != nil {
				log.Error("export: summary files failed", "error", err)
			}
		}
	}
}

// hydrateLedger builds a fresh in-memory ledger from the persisted records.
func hydrateLedger(ctx context.Context, repo *postgres.ProgressRepository) (*progress.Ledger, error) {
	ledger := progress.NewLedger()
	if _, err := progress.Hydrate(ctx, ledger, repo); err != nil {
		return nil, err
	}
	return ledger, nil
}

// syncRoster upserts every profile from the roster CSV into PostgreSQL.
func syncRoster(ctx context.Context, csvPath string, repo *postgres.StudentRepository) (int, error) {
	roster := source.NewCSVSource(csvPath)
	profiles, err := roster.ListProfiles(ctx)
	if err != nil {
		return 0, err
	}
	for _, p := range profiles {
		if err := repo.Save(ctx, p); err != nil {
			return 0, fmt.Errorf("save profile %s: %w", p.ID, err)
		}
	}
	return len(profiles), nil
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
