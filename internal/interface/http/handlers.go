package http

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/aura-hub/intervention-hub/internal/application/command"
	"github.com/aura-hub/intervention-hub/internal/application/orchestrator"
	"github.com/aura-hub/intervention-hub/internal/application/query"
	"github.com/aura-hub/intervention-hub/internal/domain/progress"
	"github.com/aura-hub/intervention-hub/internal/domain/shared"
	"github.com/aura-hub/intervention-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "Aura Hub Intervention Engine API",
		"version":     "v1",
		"description": "REST API for academic risk assessment and intervention planning",
		"endpoints": map[string]string{
			"health":        "/health",
			"analyze":       "/api/v1/students/{id}/analyze",
			"progress":      "/api/v1/progress",
			"timeline":      "/api/v1/students/{id}/timeline",
			"visualization": "/api/v1/students/{id}/visualization",
			"summary":       "/api/v1/summary",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	// Default health response
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// PIPELINE HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// handleAnalyzeStudent handles POST/GET /api/v1/students/{id}/analyze.
//
// By default the response is a newline-delimited JSON stream: one object per
// pipeline event (thought, action, observation), terminated by the response
// event carrying the full report. With ?stream=false only the final report is
// returned as a regular JSON response.
func (s *Server) handleAnalyzeStudent(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("id")
	if studentID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Student ID is required")
		return
	}

	if s.deps.Orchestrator == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Analysis pipeline not configured")
		return
	}

	events := s.deps.Orchestrator.Run(r.Context(), studentID)

	if getQueryParam(r, "stream", "true") == "false" {
		s.writeFinalReport(w, events)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)

	for event := range events {
		if err := enc.Encode(event); err != nil {
			// Client went away; the orchestrator drops further events on its own.
			s.logger.Debug("analysis stream interrupted",
				logger.StudentID(studentID), logger.Err(err))
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// writeFinalReport drains the stream and responds with the report alone.
func (s *Server) writeFinalReport(w http.ResponseWriter, events <-chan orchestrator.Event) {
	var report *orchestrator.Report
	for event := range events {
		if event.Kind == orchestrator.KindResponse {
			if r, ok := event.Payload.(*orchestrator.Report); ok {
				report = r
			}
		}
	}
	if report == nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Pipeline produced no report")
		return
	}
	if report.Error != "" && report.Assessment == nil {
		// Pipeline never got past data collection.
		writeJSONError(w, http.StatusNotFound, "not_found", report.Error)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS LEDGER HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// trackProgressRequest is the POST /api/v1/progress body.
type trackProgressRequest struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name,omitempty"`
	RiskLevel   string `json:"risk_level"`
	RiskScore   any    `json:"risk_score"`
	Notes       string `json:"notes,omitempty"`
}

// handleTrackProgress handles POST /api/v1/progress.
func (s *Server) handleTrackProgress(w http.ResponseWriter, r *http.Request) {
	if s.deps.TrackProgressHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Progress handler not configured")
		return
	}

	var req trackProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	cmd := command.TrackProgressCommand{
		StudentID:     req.StudentID,
		StudentName:   req.StudentName,
		RiskLevel:     req.RiskLevel,
		RiskScore:     req.RiskScore,
		Notes:         req.Notes,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.TrackProgressHandler.Handle(r.Context(), cmd)
	if err != nil {
		if shared.IsValidation(err) {
			writeJSONError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		s.logger.Error("failed to track progress", logger.Err(err), logger.StudentID(req.StudentID))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to record progress")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleGetTimeline handles GET /api/v1/students/{id}/timeline.
func (s *Server) handleGetTimeline(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("id")
	if studentID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Student ID is required")
		return
	}

	if s.deps.GetTimelineHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Timeline handler not configured")
		return
	}

	result, err := s.deps.GetTimelineHandler.Handle(r.Context(), query.GetTimelineQuery{StudentID: studentID})
	if err != nil {
		if shared.IsNotFound(err) {
			writeJSONError(w, http.StatusNotFound, "not_found",
				fmt.Sprintf("No progress records for student %s", studentID))
			return
		}
		s.logger.Error("failed to get timeline", logger.Err(err), logger.StudentID(studentID))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to get timeline")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleExportVisualization handles GET /api/v1/students/{id}/visualization.
//
// The format query parameter selects the rendering: json and chart_data
// return the full export as JSON; csv returns the timeline as a CSV file.
func (s *Server) handleExportVisualization(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("id")
	if studentID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Student ID is required")
		return
	}

	if s.deps.ExportVisualizationHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Visualization handler not configured")
		return
	}

	q := query.ExportVisualizationQuery{
		StudentID: studentID,
		Format:    getQueryParam(r, "format", query.FormatJSON),
	}

	viz, err := s.deps.ExportVisualizationHandler.Handle(r.Context(), q)
	if err != nil {
		if shared.IsNotFound(err) {
			writeJSONError(w, http.StatusNotFound, "not_found",
				fmt.Sprintf("No progress records for student %s", studentID))
			return
		}
		if shared.IsValidation(err) {
			writeJSONError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		s.logger.Error("failed to export visualization", logger.Err(err), logger.StudentID(studentID))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to export visualization")
		return
	}

	if q.Format == query.FormatCSV {
		s.writeTimelineCSV(w, studentID, viz)
		return
	}

	writeJSON(w, http.StatusOK, viz)
}

// writeTimelineCSV renders the visualization timeline as a CSV download.
func (s *Server) writeTimelineCSV(w http.ResponseWriter, studentID string, viz *progress.Visualization) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "timeline_"+studentID+".csv"))
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"date", "risk_score", "risk_level", "notes"})
	for _, p := range viz.Timeline {
		_ = cw.Write([]string{
			p.Date,
			strconv.FormatFloat(p.RiskScore, 'f', -1, 64),
			string(p.RiskLevel),
			p.Notes,
		})
	}
	cw.Flush()
}

// ══════════════════════════════════════════════════════════════════════════════
// REPORTING HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleSummary handles GET /api/v1/summary.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if s.deps.SummaryReportHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Summary handler not configured")
		return
	}

	report, err := s.deps.SummaryReportHandler.Handle(r.Context())
	if err != nil {
		s.logger.Error("failed to build summary report", logger.Err(err))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to build summary report")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// handleAdminExport handles POST /api/v1/admin/export. Auth is enforced by
// the requireAuth wrapper.
func (s *Server) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	if s.deps.Archive == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Report archive not configured")
		return
	}

	files, err := s.deps.Archive.Export(r.Context())
	if err != nil {
		s.logger.Error("report export failed", logger.Err(err))
		writeJSONError(w, http.StatusInternalServerError, "export_failed", "Failed to export reports")
		return
	}

	s.logger.Info("reports exported", logger.Int("files", len(files)))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"exported": files,
	})
}
