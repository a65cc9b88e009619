package command

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-hub/intervention-hub/internal/domain/assessment"
	"github.com/aura-hub/intervention-hub/internal/domain/notification"
	"github.com/aura-hub/intervention-hub/internal/domain/progress"
	"github.com/aura-hub/intervention-hub/internal/domain/shared"
	"github.com/aura-hub/intervention-hub/internal/domain/student"
	"github.com/aura-hub/intervention-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEST DOUBLES
// ══════════════════════════════════════════════════════════════════════════════

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

// recordingBus captures published events synchronously.
type recordingBus struct {
	mu     sync.Mutex
	events []shared.Event
}

func (b *recordingBus) Subscribe(shared.EventType, shared.EventHandler) error { return nil }
func (b *recordingBus) SubscribeAll(shared.EventHandler) error                { return nil }
func (b *recordingBus) Close() error                                          { return nil }

func (b *recordingBus) Publish(event shared.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *recordingBus) types() []shared.EventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]shared.EventType, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.EventType())
	}
	return out
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard, Level: logger.LevelFatal})
}

func failingProfile(t *testing.T, id, name string) *student.Profile {
	t.Helper()
	p, err := student.NewProfile(id, name, 9)
	require.NoError(t, err)
	p.GPA = shared.GPA(1.5)
	p.AttendanceRate = shared.AttendanceRate(70)
	p.PerformanceRating = assessment.PerformanceBelowAverage
	return p
}

func thrivingProfile(t *testing.T, id, name string) *student.Profile {
	t.Helper()
	p, err := student.NewProfile(id, name, 11)
	require.NoError(t, err)
	p.GPA = shared.GPA(3.8)
	p.AttendanceRate = shared.AttendanceRate(97)
	p.PerformanceRating = assessment.PerformanceExcellent
	return p
}

func newAssessHandler(t *testing.T, src student.Source, bus shared.EventBus) (*AssessStudentHandler, *progress.Ledger) {
	t.Helper()
	ledger := progress.NewLedger()
	h := NewAssessStudentHandler(src, ledger, nil, notification.DefaultPolicy(), bus, quietLogger())
	return h, ledger
}

// ══════════════════════════════════════════════════════════════════════════════
// ASSESS STUDENT
// ══════════════════════════════════════════════════════════════════════════════

func TestAssessStudent_CriticalProfile(t *testing.T) {
	src := &stubSource{profiles: map[string]*student.Profile{
		"S001": failingProfile(t, "S001", "Alice Johnson"),
	}}
	h, _ := newAssessHandler(t, src, nil)

	result, err := h.Handle(context.Background(), AssessStudentCommand{StudentID: "S001"})
	require.NoError(t, err)

	assert.Equal(t, 1.0, result.Assessment.RiskScore)
	assert.Equal(t, assessment.LevelCritical, result.Assessment.RiskLevel)
	assert.Len(t, result.Assessment.RiskFactors, 3)

	require.NotNil(t, result.Tracking)
	assert.Equal(t, 1, result.Tracking.TotalEntries)
	assert.Equal(t, progress.TrendNewEntry, result.Tracking.Trend)

	assert.Equal(t, "Emergency Intervention", result.Plan.Type)
	assert.Equal(t, 4, result.Plan.DurationWeeks)
	assert.Equal(t, 75, result.Forecast.BaseSuccessRate)

	assert.True(t, result.NotifyRecommended)
	assert.False(t, result.Escalated)
	assert.Empty(t, result.PreviousLevel)
}

func TestAssessStudent_ThrivingProfileIsLowRisk(t *testing.T) {
	src := &stubSource{profiles: map[string]*student.Profile{
		"S002": thrivingProfile(t, "S002", "Bob Smith"),
	}}
	h, _ := newAssessHandler(t, src, nil)

	result, err := h.Handle(context.Background(), AssessStudentCommand{StudentID: "S002"})
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.Assessment.RiskScore)
	assert.Equal(t, assessment.LevelLow, result.Assessment.RiskLevel)
	assert.Empty(t, result.Assessment.RiskFactors)
	assert.False(t, result.NotifyRecommended)
}

func TestAssessStudent_EmptyID(t *testing.T) {
	h, _ := newAssessHandler(t, &stubSource{}, nil)

	_, err := h.Handle(context.Background(), AssessStudentCommand{})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrEmptyStudentID)
}

func TestAssessStudent_UnknownStudent(t *testing.T) {
	h, _ := newAssessHandler(t, &stubSource{profiles: map[string]*student.Profile{}}, nil)

	_, err := h.Handle(context.Background(), AssessStudentCommand{StudentID: "S404"})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestAssessStudent_PublishesDomainEvents(t *testing.T) {
	src := &stubSource{profiles: map[string]*student.Profile{
		"S001": failingProfile(t, "S001", "Alice Johnson"),
	}}
	bus := &recordingBus{}
	h, _ := newAssessHandler(t, src, bus)

	_, err := h.Handle(context.Background(), AssessStudentCommand{StudentID: "S001", CorrelationID: "corr-1"})
	require.NoError(t, err)

	types := bus.types()
	require.Len(t, types, 2)
	assert.Equal(t, shared.EventAssessmentCompleted, types[0])
	assert.Equal(t, shared.EventProgressTracked, types[1])
}

func TestAssessStudent_DetectsEscalation(t *testing.T) {
	src := &stubSource{profiles: map[string]*student.Profile{
		"S003": failingProfile(t, "S003", "Carol White"),
	}}
	bus := &recordingBus{}
	h, ledger := newAssessHandler(t, src, bus)
	ctx := context.Background()

	// Seed a prior LOW entry so the CRITICAL verdict counts as an escalation.
	_, err := ledger.Track(ctx, "S003", "Carol White", assessment.LevelLow, 0.2, "baseline")
	require.NoError(t, err)

	result, err := h.Handle(ctx, AssessStudentCommand{StudentID: "S003"})
	require.NoError(t, err)

	assert.True(t, result.Escalated)
	assert.Equal(t, assessment.LevelLow, result.PreviousLevel)
	assert.Equal(t, 2, result.Tracking.TotalEntries)
	assert.Contains(t, bus.types(), shared.EventRiskLevelEscalated)
}

// ══════════════════════════════════════════════════════════════════════════════
// TRACK PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

func TestTrackProgress_AppendsDatapoint(t *testing.T) {
	ledger := progress.NewLedger()
	bus := &recordingBus{}
	h := NewTrackProgressHandler(ledger, nil, bus, quietLogger())

	result, err := h.Handle(context.Background(), TrackProgressCommand{
		StudentID:   "S001",
		StudentName: "Alice Johnson",
		RiskLevel:   "HIGH",
		RiskScore:   0.85,
		Notes:       "counselor observation",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalEntries)
	assert.Equal(t, progress.TrendNewEntry, result.Trend)
	assert.Equal(t, []shared.EventType{shared.EventProgressTracked}, bus.types())

	entry, ok := ledger.LatestEntry("S001")
	require.True(t, ok)
	assert.Equal(t, 0.85, entry.RiskScore)
	assert.Equal(t, assessment.LevelHigh, entry.RiskLevel)
	assert.Equal(t, "counselor observation", entry.Notes)
}

func TestTrackProgress_CoercesStringScore(t *testing.T) {
	ledger := progress.NewLedger()
	h := NewTrackProgressHandler(ledger, nil, nil, quietLogger())

	_, err := h.Handle(context.Background(), TrackProgressCommand{
		StudentID: "S001",
		RiskLevel: "MODERATE",
		RiskScore: "0.42",
	})
	require.NoError(t, err)

	entry, ok := ledger.LatestEntry("S001")
	require.True(t, ok)
	assert.Equal(t, 0.42, entry.RiskScore)
}

func TestTrackProgress_UnparseableScoreBecomesZero(t *testing.T) {
	ledger := progress.NewLedger()
	h := NewTrackProgressHandler(ledger, nil, nil, quietLogger())

	_, err := h.Handle(context.Background(), TrackProgressCommand{
		StudentID: "S001",
		RiskLevel: "LOW",
		RiskScore: "not-a-number",
	})
	require.NoError(t, err)

	entry, ok := ledger.LatestEntry("S001")
	require.True(t, ok)
	assert.Equal(t, 0.0, entry.RiskScore)
}

func TestTrackProgress_EmptyID(t *testing.T) {
	h := NewTrackProgressHandler(progress.NewLedger(), nil, nil, quietLogger())

	_, err := h.Handle(context.Background(), TrackProgressCommand{RiskLevel: "LOW", RiskScore: 0.1})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrEmptyStudentID)
}
