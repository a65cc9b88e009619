package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/aura-hub/intervention-hub/internal/application/query"
	"github.com/aura-hub/intervention-hub/internal/domain/notification"
	"github.com/aura-hub/intervention-hub/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPORT EXPORTER
// ══════════════════════════════════════════════════════════════════════════════

// Output file names inside the export directory.
const (
	fileNotifications    = "notifications.json"
	fileProgressDatabase = "progress_database.json"
	fileSummaryJSON      = "summary_report.json"
	fileSummaryCSV       = "summary_report.csv"
)

// ReportExporter writes system reports to an output directory: the alert
// log, the full progress database, and the summary report in JSON and CSV.
type ReportExporter struct {
	dir    string
	logger *slog.Logger
}

// NewReportExporter creates an exporter writing into dir.
func NewReportExporter(dir string, logger *slog.Logger) (*ReportExporter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("service: failed to create output dir %s: %w", dir, err)
	}

	return &ReportExporter{dir: dir, logger: logger}, nil
}

// ExportResult describes what an export produced.
type ExportResult struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// ExportNotifications writes the full alert history to notifications.json.
func (e *ReportExporter) ExportNotifications(ctx context.Context, repo notification.Repository) (*ExportResult, error) {
	alerts, err := repo.ListSince(ctx, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("service: failed to load alerts: %w", err)
	}

	path := filepath.Join(e.dir, fileNotifications)
	if err := writeJSONFile(path, alerts); err != nil {
		return nil, err
	}

	e.logger.Info("notifications exported", "path", path, "count", len(alerts))
	return &ExportResult{Path: path, Count: len(alerts)}, nil
}

// ExportProgressDatabase writes the whole ledger to progress_database.json,
// keyed by student ID the way timeline consumers expect.
func (e *ReportExporter) ExportProgressDatabase(ctx context.Context, ledger *progress.Ledger) (*ExportResult, error) {
	records := ledger.Records()

	byStudent := make(map[string]*progress.Record, len(records))
	for _, record := range records {
		byStudent[record.StudentID] = record
	}

	path := filepath.Join(e.dir, fileProgressDatabase)
	if err := writeJSONFile(path, byStudent); err != nil {
		return nil, err
	}

	e.logger.Info("progress database exported", "path", path, "students", len(records))
	return &ExportResult{Path: path, Count: len(records)}, nil
}

// SummaryExportResult names both files the summary export produces.
type SummaryExportResult struct {
	JSONPath string               `json:"json_report"`
	CSVPath  string               `json:"csv_report"`
	Summary  *query.SummaryReport `json:"summary"`
}

// ExportSummary writes the summary report as JSON and as a two-column
// Metric/Value CSV, with the risk distribution flattened into dotted keys.
func (e *ReportExporter) ExportSummary(ctx context.Context, report *query.SummaryReport) (*SummaryExportResult, error) {
	jsonPath := filepath.Join(e.dir, fileSummaryJSON)
	if err := writeJSONFile(jsonPath, report); err != nil {
		return nil, err
	}

	csvPath := filepath.Join(e.dir, fileSummaryCSV)
	f, err := os.Create(csvPath)
	if err != nil {
		return nil, fmt.Errorf("service: failed to create %s: %w", csvPath, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	rows := [][]string{
		{"Metric", "Value"},
		{"generated_at", report.GeneratedAt.Format(time.RFC3339)},
		{"system", report.System},
		{"total_students_tracked", strconv.Itoa(report.TotalStudentsTracked)},
		{"total_notifications_sent", strconv.Itoa(report.TotalNotificationsSent)},
	}

	levels := make([]string, 0, len(report.RiskDistribution))
	for level := range report.RiskDistribution {
		levels = append(levels, level)
	}
	sort.Strings(levels)
	for _, level := range levels {
		rows = append(rows, []string{
			"risk_distribution." + level,
			strconv.Itoa(report.RiskDistribution[level]),
		})
	}

	rows = append(rows, []string{"progress_database_size", strconv.Itoa(report.ProgressDatabaseSize)})

	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("service: failed to write %s: %w", csvPath, err)
	}

	e.logger.Info("summary report exported", "json", jsonPath, "csv", csvPath)
	return &SummaryExportResult{JSONPath: jsonPath, CSVPath: csvPath, Summary: report}, nil
}

func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("service: failed to marshal %s: %w", filepath.Base(path), err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("service: failed to write %s: %w", path, err)
	}

	return nil
}
