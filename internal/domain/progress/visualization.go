package progress

import (
	"context"
	"time"

	"github.com/aura-hub/intervention-hub/internal/domain/assessment"
)

// ══════════════════════════════════════════════════════════════════════════════
// VISUALIZATION EXPORT
// ══════════════════════════════════════════════════════════════════════════════

// Chart line styling is fixed so every export renders identically.
const (
	chartLineColor = "#3B82F6"
	chartFillColor = "rgba(59, 130, 246, 0.1)"
	chartTension   = 0.4
)

// unknownLevelColor is used for any level outside the known four.
const unknownLevelColor = "#999999"

// LevelColor maps a risk level onto its display color.
func LevelColor(level assessment.RiskLevel) string {
	switch level {
	case assessment.LevelCritical:
		return "#FF0000"
	case assessment.LevelHigh:
		return "#FF6B6B"
	case assessment.LevelModerate:
		return "#FFA500"
	case assessment.LevelLow:
		return "#4CAF50"
	default:
		return unknownLevelColor
	}
}

// TimelinePoint is one ledger entry enriched with its display color.
type TimelinePoint struct {
	Date      string               `json:"date"`
	Timestamp time.Time            `json:"timestamp"`
	RiskScore float64              `json:"risk_score"`
	RiskLevel assessment.RiskLevel `json:"risk_level"`
	Color     string               `json:"color"`
	Notes     string               `json:"notes"`
}

// Dataset is one plottable series.
type Dataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BorderColor     string    `json:"borderColor"`
	BackgroundColor string    `json:"backgroundColor"`
	Tension         float64   `json:"tension"`
}

// ChartData is shaped for chart rendering clients: parallel arrays of labels,
// scores, levels and colors.
type ChartData struct {
	Labels     []string  `json:"labels"`
	Datasets   []Dataset `json:"datasets"`
	RiskLevels []string  `json:"risk_levels"`
	Colors     []string  `json:"colors"`
}

// DateRange bounds the exported history. Start and End are empty for empty
// histories.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CurrentStatus is the newest observation in the export.
type CurrentStatus struct {
	RiskLevel assessment.RiskLevel `json:"risk_level"`
	RiskScore float64              `json:"risk_score"`
}

// VisualizationSummary condenses the export for headers and dashboards.
type VisualizationSummary struct {
	TotalEntries  int           `json:"total_entries"`
	DateRange     DateRange     `json:"date_range"`
	CurrentStatus CurrentStatus `json:"current_status"`
}

// Visualization is the full export: per-point timeline plus chart-ready
// parallel arrays plus a summary block.
type Visualization struct {
	StudentID    string               `json:"student_id"`
	StudentName  string               `json:"student_name"`
	ExportFormat string               `json:"export_format"`
	ExportedAt   time.Time            `json:"export_timestamp"`
	Timeline     []TimelinePoint      `json:"timeline_data"`
	Chart        ChartData            `json:"chart_data"`
	Summary      VisualizationSummary `json:"summary"`
}

// ExportVisualization renders the student's ledger into both per-point and
// chart-ready shapes. Untracked students yield a not-found error naming the
// requested id, same as Timeline.
func (l *Ledger) ExportVisualization(ctx context.Context, studentID, format string) (*Visualization, error) {
	if format == "" {
		format = "json"
	}

	tl, err := l.Timeline(ctx, studentID)
	if err != nil {
		return nil, err
	}

	points := make([]TimelinePoint, 0, len(tl.History))
	for _, e := range tl.History {
		points = append(points, TimelinePoint{
			Date:      e.Date,
			Timestamp: e.Timestamp,
			RiskScore: e.RiskScore,
			RiskLevel: e.RiskLevel,
			Color:     LevelColor(e.RiskLevel),
			Notes:     e.Notes,
		})
	}

	chart := ChartData{
		Labels:     make([]string, 0, len(points)),
		RiskLevels: make([]string, 0, len(points)),
		Colors:     make([]string, 0, len(points)),
	}
	scores := make([]float64, 0, len(points))
	for _, p := range points {
		chart.Labels = append(chart.Labels, p.Date)
		chart.RiskLevels = append(chart.RiskLevels, string(p.RiskLevel))
		chart.Colors = append(chart.Colors, p.Color)
		scores = append(scores, p.RiskScore)
	}
	chart.Datasets = []Dataset{{
		Label:           "Risk Score",
		Data:            scores,
		BorderColor:     chartLineColor,
		BackgroundColor: chartFillColor,
		Tension:         chartTension,
	}}

	summary := VisualizationSummary{TotalEntries: len(points)}
	if len(points) > 0 {
		summary.DateRange = DateRange{Start: points[0].Date, End: points[len(points)-1].Date}
		last := points[len(points)-1]
		summary.CurrentStatus = CurrentStatus{RiskLevel: last.RiskLevel, RiskScore: last.RiskScore}
	}

	return &Visualization{
		StudentID:    tl.StudentID,
		StudentName:  tl.StudentName,
		ExportFormat: format,
		ExportedAt:   l.now(),
		Timeline:     points,
		Chart:        chart,
		Summary:      summary,
	}, nil
}
