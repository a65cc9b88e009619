// Package intervention contains the pure derivation functions keyed by risk
// level: the intervention planner and the outcome predictor. Both are total
// lookups - any unrecognized level falls back to the LOW (most conservative)
// entry, never an error.
package intervention

import (
	"github.com/aura-hub/intervention-hub/internal/domain/assessment"
)

// ══════════════════════════════════════════════════════════════════════════════
// INTERVENTION PLAN
// ══════════════════════════════════════════════════════════════════════════════

// Priority of an intervention plan.
type Priority string

const (
	PriorityUrgent Priority = "URGENT"
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Plan is a fixed intervention strategy for one risk level.
// The tabulated values are part of the compatibility contract; PlanFor always
// returns an identical structure for the same level.
type Plan struct {
	// RiskLevel the plan was generated for.
	RiskLevel assessment.RiskLevel `json:"risk_level"`

	// Type - strategy name ("Emergency Intervention" etc).
	Type string `json:"intervention_type"`

	// Priority of execution.
	Priority Priority `json:"priority"`

	// DurationWeeks - how long the plan runs.
	DurationWeeks int `json:"duration_weeks"`

	// Frequency - cadence of check-ins.
	Frequency string `json:"frequency"`

	// Actions - ordered action items.
	Actions []string `json:"actions"`

	// Resources to allocate.
	Resources []string `json:"resources"`

	// SuccessMetrics - how success is measured.
	SuccessMetrics []string `json:"success_metrics"`

	// EstimatedCost band per student.
	EstimatedCost string `json:"estimated_cost"`

	// EstimatedHours band per week.
	EstimatedHours string `json:"estimated_hours_per_week"`
}

// PlanFor returns the intervention plan for a risk level. Total and pure:
// unrecognized levels get the LOW plan.
func PlanFor(level assessment.RiskLevel) Plan {
	switch level {
	case assessment.LevelCritical:
		return criticalPlan(level)
	case assessment.LevelHigh:
		return highPlan(level)
	case assessment.LevelModerate:
		return moderatePlan(level)
	case assessment.LevelLow:
		return lowPlan(level)
	default:
		return lowPlan(level)
	}
}

func criticalPlan(level assessment.RiskLevel) Plan {
	return Plan{
		RiskLevel:     level,
		Type:          "Emergency Intervention",
		Priority:      PriorityUrgent,
		DurationWeeks: 4,
		Frequency:     "Daily",
		Actions: []string{
			"Schedule immediate parent-student-teacher meeting",
			"Assign dedicated academic mentor",
			"Implement daily progress monitoring",
			"Coordinate with school counselor for support",
			"Consider specialized support services (tutoring, counseling)",
			"Create individualized education plan (IEP) if needed",
			"Weekly progress reports to all stakeholders",
		},
		Resources: []string{
			"One-on-one tutoring sessions",
			"Study materials and resources",
			"Counseling services",
			"Parent engagement workshops",
		},
		SuccessMetrics: []string{
			"GPA improvement of 0.5+ points",
			"Attendance improvement to 90%+",
			"Completion of all assignments",
			"Positive behavior reports",
		},
		EstimatedCost:  "High ($500-1000/student)",
		EstimatedHours: "10-15 hours/week",
	}
}

func highPlan(level assessment.RiskLevel) Plan {
	return Plan{
		RiskLevel:     level,
		Type:          "Targeted Intervention",
		Priority:      PriorityHigh,
		DurationWeeks: 6,
		Frequency:     "3x per week",
		Actions: []string{
			"Schedule parent-teacher conference within 1 week",
			"Create structured study plan with clear goals",
			"Provide tutoring resources and peer support",
			"Implement weekly check-ins with mentor",
			"Monitor attendance and assignment completion",
			"Bi-weekly progress reports",
		},
		Resources: []string{
			"Small group tutoring",
			"Online learning resources",
			"Study guides and materials",
			"Mentorship program",
		},
		SuccessMetrics: []string{
			"GPA improvement of 0.3+ points",
			"Attendance improvement to 92%+",
			"80%+ assignment completion rate",
			"Improved class participation",
		},
		EstimatedCost:  "Medium ($200-500/student)",
		EstimatedHours: "5-8 hours/week",
	}
}

func moderatePlan(level assessment.RiskLevel) Plan {
	return Plan{
		RiskLevel:     level,
		Type:          "Preventive Intervention",
		Priority:      PriorityMedium,
		DurationWeeks: 8,
		Frequency:     "Weekly",
		Actions: []string{
			"Regular academic check-ins with teacher",
			"Encourage participation in study groups",
			"Provide additional study resources",
			"Foster positive learning environment",
			"Maintain regular parent communication",
			"Monthly progress reviews",
		},
		Resources: []string{
			"Study group access",
			"Digital learning resources",
			"After-school programs",
			"Peer mentoring",
		},
		SuccessMetrics: []string{
			"Maintain or improve current GPA",
			"Attendance at 95%+",
			"Consistent assignment completion",
			"Active class participation",
		},
		EstimatedCost:  "Low ($50-200/student)",
		EstimatedHours: "2-4 hours/week",
	}
}

func lowPlan(level assessment.RiskLevel) Plan {
	return Plan{
		RiskLevel:     level,
		Type:          "Monitoring & Enrichment",
		Priority:      PriorityLow,
		DurationWeeks: 12,
		Frequency:     "Monthly",
		Actions: []string{
			"Continue standard academic monitoring",
			"Celebrate academic successes and achievements",
			"Encourage leadership roles and advanced learning",
			"Support participation in enrichment activities",
			"Maintain positive feedback loop",
			"Quarterly progress reviews",
		},
		Resources: []string{
			"Advanced learning materials",
			"Leadership opportunities",
			"Enrichment programs",
			"Recognition programs",
		},
		SuccessMetrics: []string{
			"Maintain high GPA (3.5+)",
			"Perfect or near-perfect attendance",
			"Leadership and mentorship roles",
			"Academic excellence recognition",
		},
		EstimatedCost:  "Minimal ($0-50/student)",
		EstimatedHours: "1-2 hours/week",
	}
}
