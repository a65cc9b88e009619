package intervention

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-hub/intervention-hub/internal/domain/assessment"
)

func TestPlanFor_Critical(t *testing.T) {
	plan := PlanFor(assessment.LevelCritical)

	assert.Equal(t, assessment.LevelCritical, plan.RiskLevel)
	assert.Equal(t, "Emergency Intervention", plan.Type)
	assert.Equal(t, PriorityUrgent, plan.Priority)
	assert.Equal(t, 4, plan.DurationWeeks)
	assert.Equal(t, "Daily", plan.Frequency)
	assert.Len(t, plan.Actions, 7)
	assert.Len(t, plan.Resources, 4)
	assert.Len(t, plan.SuccessMetrics, 4)
	assert.Equal(t, "High ($500-1000/student)", plan.EstimatedCost)
	assert.Equal(t, "10-15 hours/week", plan.EstimatedHours)
	assert.Equal(t, "Schedule immediate parent-student-teacher meeting", plan.Actions[0])
}

func TestPlanFor_High(t *testing.T) {
	plan := PlanFor(assessment.LevelHigh)

	assert.Equal(t, "Targeted Intervention", plan.Type)
	assert.Equal(t, PriorityHigh, plan.Priority)
	assert.Equal(t, 6, plan.DurationWeeks)
	assert.Equal(t, "3x per week", plan.Frequency)
	assert.Equal(t, "Medium ($200-500/student)", plan.EstimatedCost)
}

func TestPlanFor_Moderate(t *testing.T) {
	plan := PlanFor(assessment.LevelModerate)

	assert.Equal(t, "Preventive Intervention", plan.Type)
	assert.Equal(t, PriorityMedium, plan.Priority)
	assert.Equal(t, 8, plan.DurationWeeks)
	assert.Equal(t, "Weekly", plan.Frequency)
}

func TestPlanFor_Low(t *testing.T) {
	plan := PlanFor(assessment.LevelLow)

	assert.Equal(t, "Monitoring & Enrichment", plan.Type)
	assert.Equal(t, PriorityLow, plan.Priority)
	assert.Equal(t, 12, plan.DurationWeeks)
	assert.Equal(t, "Monthly", plan.Frequency)
	assert.Equal(t, "Minimal ($0-50/student)", plan.EstimatedCost)
}

func TestPlanFor_UnknownLevelFallsBackToLow(t *testing.T) {
	plan := PlanFor(assessment.RiskLevel("WHATEVER"))

	assert.Equal(t, "Monitoring & Enrichment", plan.Type)
	assert.Equal(t, PriorityLow, plan.Priority)
	// The requested level is echoed back even when unrecognized.
	assert.Equal(t, assessment.RiskLevel("WHATEVER"), plan.RiskLevel)
}

func TestPlanFor_IsPure(t *testing.T) {
	first := PlanFor(assessment.LevelHigh)
	second := PlanFor(assessment.LevelHigh)

	require.Equal(t, first, second)

	// Mutating a returned slice must not leak into later calls.
	first.Actions[0] = "tampered"
	third := PlanFor(assessment.LevelHigh)
	assert.Equal(t, "Schedule parent-teacher conference within 1 week", third.Actions[0])
}

func TestForecastFor_AllLevels(t *testing.T) {
	cases := []struct {
		level      assessment.RiskLevel
		rate       int
		weeks      int
		gpa        float64
		attendance int
	}{
		{assessment.LevelCritical, 75, 4, 0.5, 15},
		{assessment.LevelHigh, 82, 6, 0.4, 10},
		{assessment.LevelModerate, 88, 8, 0.3, 5},
		{assessment.LevelLow, 92, 12, 0.2, 2},
	}

	for _, tc := range cases {
		t.Run(string(tc.level), func(t *testing.T) {
			f := ForecastFor(tc.level)

			assert.Equal(t, tc.level, f.RiskLevel)
			assert.Equal(t, tc.rate, f.BaseSuccessRate)
			assert.Equal(t, 85, f.ConfidenceLevel)
			assert.Equal(t, tc.weeks, f.TimelineWeeks)
			assert.InDelta(t, tc.gpa, f.ExpectedGPAImprovement, 1e-9)
			assert.Equal(t, tc.attendance, f.ExpectedAttendanceImprovement)
			assert.NotEmpty(t, f.SuccessFactors)
			assert.NotEmpty(t, f.FailureRisks)
		})
	}
}

func TestForecastFor_UnknownLevelFallsBackToLow(t *testing.T) {
	f := ForecastFor(assessment.RiskLevel("???"))

	assert.Equal(t, 92, f.BaseSuccessRate)
	assert.Equal(t, assessment.RiskLevel("???"), f.RiskLevel)
}

func TestPlanAndForecastTimelinesAgree(t *testing.T) {
	for _, level := range []assessment.RiskLevel{
		assessment.LevelCritical,
		assessment.LevelHigh,
		assessment.LevelModerate,
		assessment.LevelLow,
	} {
		assert.Equal(t, PlanFor(level).DurationWeeks, ForecastFor(level).TimelineWeeks,
			"plan and forecast disagree for %s", level)
	}
}
