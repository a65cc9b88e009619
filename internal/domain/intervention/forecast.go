package intervention

import (
	"github.com/aura-hub/intervention-hub/internal/domain/assessment"
)

// ══════════════════════════════════════════════════════════════════════════════
// OUTCOME FORECAST
// ══════════════════════════════════════════════════════════════════════════════

// Forecast estimates how an intervention at a given risk level is expected to
// play out. Like Plan, values are tabulated per level and the function is a
// pure lookup.
type Forecast struct {
	// RiskLevel the forecast was generated for.
	RiskLevel assessment.RiskLevel `json:"risk_level"`

	// BaseSuccessRate - percent probability the intervention succeeds.
	BaseSuccessRate int `json:"success_probability"`

	// ConfidenceLevel - percent confidence in the forecast itself.
	ConfidenceLevel int `json:"confidence_level"`

	// TimelineWeeks mirrors the plan duration for the same level.
	TimelineWeeks int `json:"timeline_weeks"`

	// ExpectedGPAImprovement in GPA points.
	ExpectedGPAImprovement float64 `json:"expected_gpa_improvement"`

	// ExpectedAttendanceImprovement in percentage points.
	ExpectedAttendanceImprovement int `json:"expected_attendance_improvement"`

	// SuccessFactors - conditions that raise the odds.
	SuccessFactors []string `json:"success_factors"`

	// FailureRisks - conditions that lower them.
	FailureRisks []string `json:"failure_risks"`
}

// ForecastFor returns the outcome forecast for a risk level. Total and pure:
// unrecognized levels get the LOW forecast.
func ForecastFor(level assessment.RiskLevel) Forecast {
	switch level {
	case assessment.LevelCritical:
		return Forecast{
			RiskLevel:                     level,
			BaseSuccessRate:               75,
			ConfidenceLevel:               85,
			TimelineWeeks:                 4,
			ExpectedGPAImprovement:        0.5,
			ExpectedAttendanceImprovement: 15,
			SuccessFactors: []string{
				"Early intervention timing",
				"Student engagement level",
				"Family support availability",
				"Resource allocation adequacy",
				"Mentor-student relationship quality",
			},
			FailureRisks: []string{
				"Delayed intervention start",
				"Lack of family engagement",
				"Underlying unaddressed issues",
				"Insufficient resources",
			},
		}
	case assessment.LevelHigh:
		return Forecast{
			RiskLevel:                     level,
			BaseSuccessRate:               82,
			ConfidenceLevel:               85,
			TimelineWeeks:                 6,
			ExpectedGPAImprovement:        0.4,
			ExpectedAttendanceImprovement: 10,
			SuccessFactors: []string{
				"Consistent tutoring participation",
				"Parent-teacher collaboration",
				"Student motivation level",
				"Peer support engagement",
			},
			FailureRisks: []string{
				"Inconsistent attendance at support sessions",
				"Lack of study plan adherence",
				"External stressors",
			},
		}
	case assessment.LevelModerate:
		return Forecast{
			RiskLevel:                     level,
			BaseSuccessRate:               88,
			ConfidenceLevel:               85,
			TimelineWeeks:                 8,
			ExpectedGPAImprovement:        0.3,
			ExpectedAttendanceImprovement: 5,
			SuccessFactors: []string{
				"Regular check-ins maintained",
				"Study group participation",
				"Positive reinforcement",
				"Resource utilization",
			},
			FailureRisks: []string{
				"Inconsistent monitoring",
				"Decreased motivation",
				"Competing priorities",
			},
		}
	default:
		return Forecast{
			RiskLevel:                     level,
			BaseSuccessRate:               92,
			ConfidenceLevel:               85,
			TimelineWeeks:                 12,
			ExpectedGPAImprovement:        0.2,
			ExpectedAttendanceImprovement: 2,
			SuccessFactors: []string{
				"Continued encouragement",
				"Leadership opportunities",
				"Advanced learning access",
				"Recognition and rewards",
			},
			FailureRisks: []string{
				"Complacency",
				"Boredom from lack of challenge",
				"External life changes",
			},
		}
	}
}
