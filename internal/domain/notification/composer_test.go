package notification

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-hub/intervention-hub/internal/domain/assessment"
	"github.com/aura-hub/intervention-hub/internal/domain/intervention"
	"github.com/aura-hub/intervention-hub/internal/domain/student"
)

func fixedComposer(t *testing.T) *Composer {
	t.Helper()
	at := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	return NewComposerWithClock(func() time.Time { return at })
}

func testProfile(t *testing.T) *student.Profile {
	t.Helper()
	p, err := student.NewProfile("S001", "Alice Johnson", 9)
	require.NoError(t, err)
	p.GPA = 1.8
	p.AttendanceRate = 75
	p.PerformanceRating = assessment.PerformanceBelowAverage
	return p
}

func testAssessment(t *testing.T) assessment.Assessment {
	t.Helper()
	a, err := assessment.Classify(testProfile(t).Attributes())
	require.NoError(t, err)
	return a
}

func TestCompose_CriticalAlert(t *testing.T) {
	composer := fixedComposer(t)
	profile := testProfile(t)
	a := testAssessment(t)
	plan := intervention.PlanFor(a.RiskLevel)

	alert := composer.Compose(profile, a, plan)

	assert.True(t, alert.ID.IsValid())
	assert.Equal(t, Reference("EMAIL-S001-20260315103000"), alert.Reference)
	assert.Equal(t, "S001", alert.StudentID)
	assert.Equal(t, PriorityUrgent, alert.Priority)
	assert.Equal(t, "⚠️ URGENT: Alice Johnson - Immediate Academic Support Required", alert.Subject)
	assert.Equal(t, []string{"parent/guardian", "teacher", "counselor"}, alert.Recipients)
	assert.Equal(t, StatusGenerated, alert.Status)
	assert.Equal(t, assessment.LevelCritical, alert.RiskLevel)
	assert.Equal(t, 3, alert.ConcernsCount())
}

func TestCompose_BodySections(t *testing.T) {
	composer := fixedComposer(t)
	profile := testProfile(t)
	a := testAssessment(t)
	plan := intervention.PlanFor(a.RiskLevel)

	alert := composer.Compose(profile, a, plan)
	body := alert.Body

	assert.True(t, strings.HasPrefix(body, "Dear Parent/Guardian and Educational Team,"))
	assert.Contains(t, body, "STUDENT INFORMATION:")
	assert.Contains(t, body, "• Name: Alice Johnson")
	assert.Contains(t, body, "• Student ID: S001")
	assert.Contains(t, body, "• Grade Level: 9")
	assert.Contains(t, body, "• Current GPA: 1.80")
	assert.Contains(t, body, "• Attendance Rate: 75.0%")

	assert.Contains(t, body, "AREAS OF CONCERN:")
	assert.Contains(t, body, "1. Critical GPA: 1.80 (Below 2.0)")

	assert.Contains(t, body, "RISK ASSESSMENT:")
	assert.Contains(t, body, "• Risk Level: CRITICAL")
	assert.Contains(t, body, "• Risk Score: 1.000")
	assert.Contains(t, body, "• Assessment Date: March 15, 2026")

	assert.Contains(t, body, "RECOMMENDED INTERVENTION:")
	assert.Contains(t, body, "• Type: Emergency Intervention")
	assert.Contains(t, body, "• Duration: 4 weeks")
	assert.Contains(t, body, "• Frequency: Daily")

	assert.Contains(t, body, "NEXT STEPS:")
	assert.Contains(t, body, "Please contact us IMMEDIATELY to schedule an emergency meeting.")
	assert.Contains(t, body, "Sincerely,\nAura Hub Academic Support System")
}

func TestCompose_EmbedsAtMostFiveActions(t *testing.T) {
	composer := fixedComposer(t)
	profile := testProfile(t)
	a := testAssessment(t)
	plan := intervention.PlanFor(assessment.LevelCritical)
	require.Greater(t, len(plan.Actions), 5)

	alert := composer.Compose(profile, a, plan)

	assert.Contains(t, alert.Body, "5. "+plan.Actions[4])
	assert.NotContains(t, alert.Body, plan.Actions[5])
}

func TestCompose_UnknownLevelFallsBackToModerateTemplate(t *testing.T) {
	composer := fixedComposer(t)
	profile := testProfile(t)
	a := testAssessment(t)
	a.RiskLevel = assessment.RiskLevel("BIZARRE")

	alert := composer.Compose(profile, a, intervention.PlanFor(a.RiskLevel))

	assert.Equal(t, PriorityMedium, alert.Priority)
	assert.Contains(t, alert.Subject, "Academic Progress Update")
	// The alert still reports the level it was composed for.
	assert.Equal(t, assessment.RiskLevel("BIZARRE"), alert.RiskLevel)
}

func TestCompose_EmptyNameDefaultsToStudent(t *testing.T) {
	composer := fixedComposer(t)
	profile := testProfile(t)
	profile.Name = ""
	a := testAssessment(t)

	alert := composer.Compose(profile, a, intervention.PlanFor(a.RiskLevel))

	assert.Equal(t, "Student", alert.StudentName)
	assert.Contains(t, alert.Subject, "Student")
}

func TestPolicy_ShouldNotify(t *testing.T) {
	policy := DefaultPolicy()

	assert.True(t, policy.ShouldNotify(assessment.LevelCritical))
	assert.True(t, policy.ShouldNotify(assessment.LevelHigh))
	assert.True(t, policy.ShouldNotify(assessment.LevelModerate))
	assert.False(t, policy.ShouldNotify(assessment.LevelLow))
	assert.False(t, policy.ShouldNotify(assessment.RiskLevel("???")))
}

func TestAlert_Lifecycle(t *testing.T) {
	composer := fixedComposer(t)
	alert := composer.Compose(testProfile(t), testAssessment(t), intervention.PlanFor(assessment.LevelCritical))

	require.NoError(t, alert.MarkQueued())
	assert.Equal(t, StatusQueued, alert.Status)

	alert.MarkFailed("smtp timeout")
	assert.Equal(t, StatusFailed, alert.Status)
	assert.Equal(t, "smtp timeout", alert.FailureReason)

	sentAt := time.Date(2026, 3, 15, 11, 0, 0, 0, time.UTC)
	require.NoError(t, alert.MarkSent(sentAt))
	assert.Equal(t, StatusSent, alert.Status)
	assert.Equal(t, sentAt, alert.SentAt)
	assert.Empty(t, alert.FailureReason)

	// Terminal states reject further transitions.
	assert.Error(t, alert.MarkQueued())
	assert.Error(t, alert.MarkSent(sentAt))
}

func TestAlert_Suppression(t *testing.T) {
	composer := fixedComposer(t)
	alert := composer.Compose(testProfile(t), testAssessment(t), intervention.PlanFor(assessment.LevelCritical))

	alert.MarkSuppressed()
	assert.Equal(t, StatusSuppressed, alert.Status)
	assert.True(t, alert.Status.IsTerminal())
}
