package assessment

import (
	"fmt"
	"math"
	"time"

	"github.com/aura-hub/intervention-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTRIBUTES
// ══════════════════════════════════════════════════════════════════════════════

// Attributes is the immutable classifier input for a single student.
type Attributes struct {
	// StudentID - opaque identifier, non-empty.
	StudentID string

	// GPA on the 4.0 scale. Out-of-range values are scored, not rejected.
	GPA float64

	// AttendanceRate as a percentage in [0, 100]. Out-of-range values are
	// scored, not rejected.
	AttendanceRate float64

	// PerformanceRating - teacher-assigned overall performance bucket.
	// Unrecognized ratings contribute zero weight.
	PerformanceRating PerformanceRating
}

// Validate checks type-level requirements on the attributes. Range checks on
// GPA and attendance are deliberately absent: the classifier silently scores
// out-of-domain values.
func (a Attributes) Validate() error {
	if a.StudentID == "" {
		return shared.ValidationError("assessment", "Validate", "student_id", "must not be empty")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ASSESSMENT
// ══════════════════════════════════════════════════════════════════════════════

// Assessment is the classifier output. Immutable once produced.
type Assessment struct {
	// StudentID echoes the input identifier.
	StudentID string `json:"student_id"`

	// RiskScore in [0.0, 1.0], rounded to three decimal places.
	RiskScore float64 `json:"risk_score"`

	// RiskLevel derived from RiskScore by fixed thresholds.
	RiskLevel RiskLevel `json:"risk_level"`

	// RiskFactors - one human-readable string per component that contributed
	// above its lowest tier, ordered GPA, attendance, performance.
	RiskFactors []string `json:"risk_factors"`

	// AssessedAt - when the classification ran.
	AssessedAt time.Time `json:"assessment_date"`
}

// Component weight tables. These values are part of the compatibility
// contract and must not drift.
const (
	gpaWeightCritical   = 0.40 // gpa < 2.0
	gpaWeightLow        = 0.30 // gpa < 2.5
	gpaWeightBorderline = 0.15 // gpa < 3.0

	attendanceWeightCritical   = 0.35 // attendance < 80
	attendanceWeightLow        = 0.25 // attendance < 90
	attendanceWeightBorderline = 0.10 // attendance < 95

	performanceWeightBelowAverage = 0.25
	performanceWeightAverage      = 0.10
)

// Classify computes the risk assessment for a student.
//
// The exact order of operations is load-bearing: component sums are capped at
// 1.0, then rounded to three decimals, and the ROUNDED value is compared
// against the thresholds. Rounding after thresholding would classify
// borderline scores differently.
func Classify(attrs Attributes) (Assessment, error) {
	if err := attrs.Validate(); err != nil {
		return Assessment{}, err
	}

	score := 0.0
	factors := make([]string, 0, 3)

	// GPA component (weight ceiling 0.40). GPA >= 3.0 is never listed as a concern.
	switch {
	case attrs.GPA < 2.0:
		score += gpaWeightCritical
		factors = append(factors, fmt.Sprintf("Critical GPA: %.2f (Below 2.0)", attrs.GPA))
	case attrs.GPA < 2.5:
		score += gpaWeightLow
		factors = append(factors, fmt.Sprintf("Low GPA: %.2f (Below 2.5)", attrs.GPA))
	case attrs.GPA < 3.0:
		score += gpaWeightBorderline
		factors = append(factors, fmt.Sprintf("Borderline GPA: %.2f", attrs.GPA))
	}

	// Attendance component (weight ceiling 0.35).
	switch {
	case attrs.AttendanceRate < 80:
		score += attendanceWeightCritical
		factors = append(factors, fmt.Sprintf("Critical Attendance: %.1f%% (Below 80%%)", attrs.AttendanceRate))
	case attrs.AttendanceRate < 90:
		score += attendanceWeightLow
		factors = append(factors, fmt.Sprintf("Low Attendance: %.1f%% (Below 90%%)", attrs.AttendanceRate))
	case attrs.AttendanceRate < 95:
		score += attendanceWeightBorderline
		factors = append(factors, fmt.Sprintf("Borderline Attendance: %.1f%%", attrs.AttendanceRate))
	}

	// Performance component (weight ceiling 0.25). Above Average and Excellent
	// contribute nothing; so does any unrecognized rating.
	switch attrs.PerformanceRating {
	case PerformanceBelowAverage:
		score += performanceWeightBelowAverage
		factors = append(factors, "Below Average Overall Performance")
	case PerformanceAverage:
		score += performanceWeightAverage
		factors = append(factors, "Average Performance")
	}

	score = math.Min(score, 1.0)
	rounded := roundScore(score)

	return Assessment{
		StudentID:   attrs.StudentID,
		RiskScore:   rounded,
		RiskLevel:   LevelFromScore(rounded),
		RiskFactors: factors,
		AssessedAt:  time.Now().UTC(),
	}, nil
}

// roundScore rounds to three decimal places (half away from zero, matching
// the original scoring tables).
func roundScore(s float64) float64 {
	return math.Round(s*1000) / 1000
}
