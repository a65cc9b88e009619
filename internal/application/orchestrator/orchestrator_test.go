package orchestrator

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-hub/intervention-hub/internal/application/command"
	"github.com/aura-hub/intervention-hub/internal/domain/assessment"
	"github.com/aura-hub/intervention-hub/internal/domain/notification"
	"github.com/aura-hub/intervention-hub/internal/domain/progress"
	"github.com/aura-hub/intervention-hub/internal/domain/shared"
	"github.com/aura-hub/intervention-hub/internal/domain/student"
	"github.com/aura-hub/intervention-hub/pkg/logger"
)

// memorySource serves profiles from a map.
type memorySource struct {
	profiles map[string]*student.Profile
}

func (s *memorySource) GetProfile(_ context.Context, id shared.StudentID) (*student.Profile, error) {
	p, ok := s.profiles[id.String()]
	if !ok {
		return nil, shared.ErrStudentNotFound
	}
	return p, nil
}

func (s *memorySource) ListProfiles(_ context.Context) ([]*student.Profile, error) {
	out := make([]*student.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	return out, nil
}

// memoryAlertRepo records saved alerts.
type memoryAlertRepo struct {
	mu     sync.Mutex
	alerts []*notification.Alert
}

func (r *memoryAlertRepo) Save(_ context.Context, alert *notification.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
	return nil
}

func (r *memoryAlertRepo) GetByID(_ context.Context, id notification.AlertID) (*notification.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.alerts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, shared.ErrAlertNotFound
}

func (r *memoryAlertRepo) ListByStudent(_ context.Context, studentID string) ([]*notification.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*notification.Alert
	for i := len(r.alerts) - 1; i >= 0; i-- {
		if r.alerts[i].StudentID == studentID {
			out = append(out, r.alerts[i])
		}
	}
	return out, nil
}

func (r *memoryAlertRepo) ListSince(_ context.Context, _ time.Time) ([]*notification.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*notification.Alert(nil), r.alerts...), nil
}

func (r *memoryAlertRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alerts), nil
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard, Level: logger.LevelFatal})
}

func makeProfile(t *testing.T, id, name string, gpa, attendance float64, rating assessment.PerformanceRating) *student.Profile {
	t.Helper()
	p, err := student.NewProfile(id, name, 10)
	require.NoError(t, err)
	p.GPA = shared.GPA(gpa)
	p.AttendanceRate = shared.AttendanceRate(attendance)
	p.PerformanceRating = rating
	return p
}

func makeOrchestrator(t *testing.T, src student.Source, repo notification.Repository) *Orchestrator {
	t.Helper()
	log := quietLogger()
	ledger := progress.NewLedger()
	policy := notification.DefaultPolicy()
	assess := command.NewAssessStudentHandler(src, ledger, nil, policy, nil, log)
	return New(Dependencies{
		Assess:    assess,
		Source:    src,
		Composer:  notification.NewComposer(),
		AlertRepo: repo,
		Policy:    policy,
		Stages:    AllStages(),
		Logger:    log,
	})
}

func collect(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var out []Event
	for e := range events {
		out = append(out, e)
	}
	return out
}

func kinds(events []Event) []Kind {
	out := make([]Kind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func stepOf(e Event) string {
	switch p := e.Payload.(type) {
	case StepPayload:
		return p.Step
	case ObservationPayload:
		return p.Step
	default:
		return ""
	}
}

func TestRun_CriticalStudentFullPipeline(t *testing.T) {
	src := &memorySource{profiles: map[string]*student.Profile{
		"S001": makeProfile(t, "S001", "Alice Johnson", 1.8, 75, assessment.PerformanceBelowAverage),
	}}
	repo := &memoryAlertRepo{}
	orch := makeOrchestrator(t, src, repo)

	events := collect(t, orch.Run(context.Background(), "S001"))

	assert.Equal(t, []Kind{
		KindThought,
		KindAction, KindObservation, // data_collection
		KindAction, KindObservation, // risk_analysis
		KindAction, KindObservation, // progress_tracking
		KindAction, KindObservation, // intervention_planning
		KindAction, KindObservation, // outcome_prediction
		KindAction, KindObservation, // notification_generation
		KindResponse,
	}, kinds(events))

	steps := []string{}
	for _, e := range events {
		if e.Kind == KindAction {
			steps = append(steps, stepOf(e))
		}
	}
	assert.Equal(t, []string{
		StepCollect, StepClassify, StepTrack, StepPlan, StepForecast, StepNotify,
	}, steps)

	final := events[len(events)-1]
	report, ok := final.Payload.(*Report)
	require.True(t, ok)
	assert.Empty(t, report.Error)
	assert.Equal(t, assessment.LevelCritical, report.Assessment.RiskLevel)
	assert.Equal(t, 1.0, report.Assessment.RiskScore)
	require.NotNil(t, report.Alert)
	assert.Equal(t, notification.PriorityUrgent, report.Alert.Priority)
	assert.NotEmpty(t, report.CorrelationID)

	// The composed alert was logged.
	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRun_LowRiskStudentSkipsNotification(t *testing.T) {
	src := &memorySource{profiles: map[string]*student.Profile{
		"S002": makeProfile(t, "S002", "Bob Smith", 3.8, 98, assessment.PerformanceExcellent),
	}}
	repo := &memoryAlertRepo{}
	orch := makeOrchestrator(t, src, repo)

	events := collect(t, orch.Run(context.Background(), "S002"))

	for _, e := range events {
		assert.NotEqual(t, StepNotify, stepOf(e))
	}

	report := events[len(events)-1].Payload.(*Report)
	assert.Equal(t, assessment.LevelLow, report.Assessment.RiskLevel)
	assert.Nil(t, report.Alert)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRun_UnknownStudentAbortsWithErrorResponse(t *testing.T) {
	src := &memorySource{profiles: map[string]*student.Profile{}}
	orch := makeOrchestrator(t, src, &memoryAlertRepo{})

	events := collect(t, orch.Run(context.Background(), "GHOST"))

	// thought, collect action, error response.
	assert.Equal(t, []Kind{KindThought, KindAction, KindResponse}, kinds(events))

	report := events[len(events)-1].Payload.(*Report)
	assert.Contains(t, report.Error, "unable to proceed")
	assert.Nil(t, report.Assessment)
}

func TestRun_StageTogglesSkipDerivations(t *testing.T) {
	src := &memorySource{profiles: map[string]*student.Profile{
		"S003": makeProfile(t, "S003", "Carol", 1.8, 75, assessment.PerformanceBelowAverage),
	}}
	log := quietLogger()
	ledger := progress.NewLedger()
	policy := notification.DefaultPolicy()
	assess := command.NewAssessStudentHandler(src, ledger, nil, policy, nil, log)
	orch := New(Dependencies{
		Assess:   assess,
		Source:   src,
		Composer: notification.NewComposer(),
		Policy:   policy,
		Stages:   Stages{Plan: false, Forecast: false, Notify: false},
		Logger:   log,
	})

	events := collect(t, orch.Run(context.Background(), "S003"))

	for _, e := range events {
		step := stepOf(e)
		assert.NotEqual(t, StepPlan, step)
		assert.NotEqual(t, StepForecast, step)
		assert.NotEqual(t, StepNotify, step)
	}

	report := events[len(events)-1].Payload.(*Report)
	assert.Nil(t, report.Plan)
	assert.Nil(t, report.Forecast)
	assert.Nil(t, report.Alert)
	// Classification and tracking always run.
	assert.NotNil(t, report.Assessment)
	assert.NotNil(t, report.Tracking)
}

func TestRun_RepeatedRunsBuildTrend(t *testing.T) {
	profile := makeProfile(t, "S004", "Dave", 1.8, 75, assessment.PerformanceBelowAverage)
	src := &memorySource{profiles: map[string]*student.Profile{"S004": profile}}
	orch := makeOrchestrator(t, src, &memoryAlertRepo{})
	ctx := context.Background()

	collect(t, orch.Run(ctx, "S004"))

	// The student recovers between runs.
	profile.GPA = 3.2
	profile.AttendanceRate = 93
	profile.PerformanceRating = assessment.PerformanceAverage

	events := collect(t, orch.Run(ctx, "S004"))
	report := events[len(events)-1].Payload.(*Report)

	tracking, ok := report.Tracking.(*progress.TrackResult)
	require.True(t, ok)
	assert.Equal(t, 2, tracking.TotalEntries)
	assert.Equal(t, progress.TrendImproving, tracking.Trend)
}
