package query

import (
	"context"
	"fmt"

	"github.com/aura-hub/intervention-hub/internal/domain/progress"
	"github.com/aura-hub/intervention-hub/internal/domain/shared"
	"github.com/aura-hub/intervention-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPORT VISUALIZATION QUERY
// Renders a student's ledger into chart-ready shapes for dashboards.
// ══════════════════════════════════════════════════════════════════════════════

// Supported export formats.
const (
	FormatJSON      = "json"
	FormatCSV       = "csv"
	FormatChartData = "chart_data"
)

// ExportVisualizationQuery contains the parameters for an export.
type ExportVisualizationQuery struct {
	// StudentID is the ID of the student.
	StudentID string

	// Format is one of json, csv, chart_data. Defaults to json.
	Format string
}

// Validate validates the query and normalizes the format.
func (q *ExportVisualizationQuery) Validate() error {
	if q.StudentID == "" {
		return shared.ErrEmptyStudentID
	}
	switch q.Format {
	case "":
		q.Format = FormatJSON
	case FormatJSON, FormatCSV, FormatChartData:
	default:
		return shared.ValidationError("progress", "ExportVisualization", "format",
			fmt.Sprintf("unsupported format %q", q.Format))
	}
	return nil
}

// ExportVisualizationHandler handles the ExportVisualizationQuery.
type ExportVisualizationHandler struct {
	ledger *progress.Ledger
	log    *logger.Logger
}

// NewExportVisualizationHandler creates a new ExportVisualizationHandler.
func NewExportVisualizationHandler(ledger *progress.Ledger, log *logger.Logger) *ExportVisualizationHandler {
	return &ExportVisualizationHandler{
		ledger: ledger,
		log:    log.With(logger.Component("export_visualization")),
	}
}

// Handle executes the export.
func (h *ExportVisualizationHandler) Handle(ctx context.Context, q ExportVisualizationQuery) (*progress.Visualization, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("export_visualization: validation failed: %w", err)
	}

	viz, err := h.ledger.ExportVisualization(ctx, q.StudentID, q.Format)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("export_visualization: %w", err)
	}

	h.log.Debug("visualization exported",
		logger.StudentID(q.StudentID),
		logger.String("format", q.Format),
		logger.EntryCount(viz.Summary.TotalEntries))
	return viz, nil
}
