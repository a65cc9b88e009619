package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-hub/intervention-hub/internal/application/command"
	"github.com/aura-hub/intervention-hub/internal/application/orchestrator"
	"github.com/aura-hub/intervention-hub/internal/application/query"
	"github.com/aura-hub/intervention-hub/internal/domain/assessment"
	"github.com/aura-hub/intervention-hub/internal/domain/notification"
	"github.com/aura-hub/intervention-hub/internal/domain/progress"
	"github.com/aura-hub/intervention-hub/internal/domain/shared"
	"github.com/aura-hub/intervention-hub/internal/domain/student"
	"github.com/aura-hub/intervention-hub/pkg/logger"
)

type stubSource struct {
	profiles map[string]*student.Profile
}

func (s *stubSource) GetProfile(_ context.Context, id shared.StudentID) (*student.Profile, error) {
	p, ok := s.profiles[id.String()]
	if !ok {
		return nil, shared.ErrStudentNotFound
	}
	return p, nil
}

func (s *stubSource) ListProfiles(_ context.Context) ([]*student.Profile, error) {
	out := make([]*student.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	return out, nil
}

type stubAuth struct {
	user, pass string
}

func (a *stubAuth) Verify(user, pass string) error {
	if user != a.user || pass != a.pass {
		return errors.New("invalid credentials")
	}
	return nil
}

func (a *stubAuth) Enabled() bool { return a.user != "" }

type stubArchive struct {
	files map[string]string
	err   error
}

func (a *stubArchive) Export(_ context.Context) (map[string]string, error) {
	return a.files, a.err
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard, Level: logger.LevelFatal})
}

func atRiskProfile(t *testing.T, id, name string) *student.Profile {
	t.Helper()
	p, err := student.NewProfile(id, name, 10)
	require.NoError(t, err)
	p.GPA = shared.GPA(1.8)
	p.AttendanceRate = shared.AttendanceRate(75)
	p.PerformanceRating = assessment.PerformanceBelowAverage
	return p
}

// newTestServer wires a full server around an in-memory ledger and source.
func newTestServer(t *testing.T, src student.Source) (*Server, *progress.Ledger) {
	t.Helper()
	log := quietLogger()
	ledger := progress.NewLedger()
	policy := notification.DefaultPolicy()
	assess := command.NewAssessStudentHandler(src, ledger, nil, policy, nil, log)

	orch := orchestrator.New(orchestrator.Dependencies{
		Assess:   assess,
		Source:   src,
		Composer: notification.NewComposer(),
		Policy:   policy,
		Stages:   orchestrator.AllStages(),
		Logger:   log,
	})

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0

	srv := NewServer(cfg, Dependencies{
		Orchestrator:               orch,
		TrackProgressHandler:       command.NewTrackProgressHandler(ledger, nil, nil, log),
		GetTimelineHandler:         query.NewGetTimelineHandler(ledger, log),
		ExportVisualizationHandler: query.NewExportVisualizationHandler(ledger, log),
		SummaryReportHandler:       query.NewSummaryReportHandler(ledger, nil, log),
		Auth:                       &stubAuth{user: "admin", pass: "secret"},
		Archive:                    &stubArchive{files: map[string]string{"json_report": "/tmp/out/summary_report.json"}},
		Logger:                     log,
	})
	return srv, ledger
}

func doRequest(t *testing.T, srv *Server, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth_Default(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{})

	rec := doRequest(t, srv, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHandleAnalyze_StreamsPipelineEvents(t *testing.T) {
	src := &stubSource{profiles: map[string]*student.Profile{
		"S001": atRiskProfile(t, "S001", "Alice Johnson"),
	}}
	srv, _ := newTestServer(t, src)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/students/S001/analyze", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/x-ndjson")

	var kinds []string
	scanner := bufio.NewScanner(rec.Body)
	scanner.Buffer(make([]byte, 1<<20), 1<<20)
	var lastLine string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		var event struct {
			Kind string `json:"kind"`
		}
		require.NoError(t, json.Unmarshal([]byte(line), &event))
		kinds = append(kinds, event.Kind)
		lastLine = line
	}

	require.NotEmpty(t, kinds)
	assert.Equal(t, "thought", kinds[0])
	assert.Equal(t, "response", kinds[len(kinds)-1])
	assert.Contains(t, kinds, "action")
	assert.Contains(t, kinds, "observation")

	var final struct {
		Payload struct {
			RiskAnalysis struct {
				RiskLevel string `json:"risk_level"`
			} `json:"risk_analysis"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal([]byte(lastLine), &final))
	assert.Equal(t, "CRITICAL", final.Payload.RiskAnalysis.RiskLevel)
}

func TestHandleAnalyze_BufferedReturnsReportOnly(t *testing.T) {
	src := &stubSource{profiles: map[string]*student.Profile{
		"S001": atRiskProfile(t, "S001", "Alice Johnson"),
	}}
	srv, _ := newTestServer(t, src)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/students/S001/analyze?stream=false", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			StudentID    string `json:"student_id"`
			RiskAnalysis struct {
				RiskLevel string `json:"risk_level"`
			} `json:"risk_analysis"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "S001", resp.Data.StudentID)
	assert.Equal(t, "CRITICAL", resp.Data.RiskAnalysis.RiskLevel)
}

func TestHandleAnalyze_UnknownStudentBuffered(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/students/GHOST/analyze?stream=false", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "unable to proceed")
}

func TestHandleTrackProgress_AppendsAndReturnsTrend(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{})

	body := bytes.NewBufferString(`{
		"student_id": "S010",
		"student_name": "Bob",
		"risk_level": "HIGH",
		"risk_score": 0.75,
		"notes": "midterm results"
	}`)
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/progress", body)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data struct {
			StudentID    string  `json:"student_id"`
			TotalEntries int     `json:"total_entries"`
			RiskScore    float64 `json:"current_risk_score"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "S010", resp.Data.StudentID)
	assert.Equal(t, 1, resp.Data.TotalEntries)
	assert.Equal(t, 0.75, resp.Data.RiskScore)
}

func TestHandleTrackProgress_MissingStudentID(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{})

	body := bytes.NewBufferString(`{"risk_level": "HIGH", "risk_score": 0.5}`)
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/progress", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_failed")
}

func TestHandleGetTimeline_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/students/UNTRACKED/timeline", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
	assert.Contains(t, rec.Body.String(), "UNTRACKED")
}

func TestHandleGetTimeline_ReturnsHistory(t *testing.T) {
	srv, ledger := newTestServer(t, &stubSource{})
	ctx := context.Background()

	_, err := ledger.Track(ctx, "S020", "Carol", assessment.LevelHigh, 0.8, "")
	require.NoError(t, err)
	_, err = ledger.Track(ctx, "S020", "Carol", assessment.LevelModerate, 0.4, "")
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/students/S020/timeline", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			StudentID    string `json:"student_id"`
			TotalRecords int    `json:"total_records"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "S020", resp.Data.StudentID)
	assert.Equal(t, 2, resp.Data.TotalRecords)
}

func TestHandleExportVisualization_CSV(t *testing.T) {
	srv, ledger := newTestServer(t, &stubSource{})
	ctx := context.Background()

	_, err := ledger.Track(ctx, "S030", "Dave", assessment.LevelCritical, 0.95, "failing grades")
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/students/S030/visualization?format=csv", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "timeline_S030.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "date,risk_score,risk_level,notes", lines[0])
	assert.Contains(t, lines[1], "0.95")
	assert.Contains(t, lines[1], "CRITICAL")
	assert.Contains(t, lines[1], "failing grades")
}

func TestHandleExportVisualization_UnsupportedFormat(t *testing.T) {
	srv, ledger := newTestServer(t, &stubSource{})
	_, err := ledger.Track(context.Background(), "S031", "Eve", assessment.LevelLow, 0.1, "")
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/students/S031/visualization?format=xml", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSummary(t *testing.T) {
	srv, ledger := newTestServer(t, &stubSource{})
	ctx := context.Background()

	_, err := ledger.Track(ctx, "S040", "Frank", assessment.LevelCritical, 0.9, "")
	require.NoError(t, err)
	_, err = ledger.Track(ctx, "S041", "Grace", assessment.LevelLow, 0.1, "")
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/summary", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			TotalStudentsTracked int            `json:"total_students_tracked"`
			RiskDistribution     map[string]int `json:"risk_distribution"`
			ProgressDatabaseSize int            `json:"progress_database_size"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.TotalStudentsTracked)
	assert.Equal(t, 1, resp.Data.RiskDistribution["CRITICAL"])
	assert.Equal(t, 1, resp.Data.RiskDistribution["LOW"])
	assert.Equal(t, 2, resp.Data.ProgressDatabaseSize)
}

func TestHandleAdminExport_RequiresAuth(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{})

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/admin/export", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")
}

func TestHandleAdminExport_WrongCredentials(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/export", nil)
	req.SetBasicAuth("admin", "wrong")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleAdminExport_Success(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/export", nil)
	req.SetBasicAuth("admin", "secret")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "summary_report.json")
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	rl := newRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"))
	}
	assert.False(t, rl.Allow("10.0.0.1"))

	// Other clients are unaffected.
	assert.True(t, rl.Allow("10.0.0.2"))
}
