// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// StudentID represents a unique student identifier. IDs are opaque strings
// assigned by the host school system ("S001", a UUID, an email hash); the
// engine only requires them to be non-empty.
type StudentID string

// IsValid checks that the ID is not empty.
func (s StudentID) IsValid() bool {
	return len(s) > 0
}

// String returns the string representation.
func (s StudentID) String() string {
	return string(s)
}

// IsEmpty checks if the ID is empty.
func (s StudentID) IsEmpty() bool {
	return s == ""
}

// NewStudentID creates a new StudentID with validation.
func NewStudentID(id string) (StudentID, error) {
	sid := StudentID(strings.TrimSpace(id))
	if !sid.IsValid() {
		return "", ErrEmptyStudentID
	}
	return sid, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Grade Level Value Object
// ═══════════════════════════════════════════════════════════════════════════

// GradeLevel represents a K-12 grade (0 = kindergarten).
type GradeLevel int

const (
	// MinGradeLevel is kindergarten.
	MinGradeLevel GradeLevel = 0

	// MaxGradeLevel is senior year.
	MaxGradeLevel GradeLevel = 12
)

// IsValid checks if the grade level is within the K-12 range.
func (g GradeLevel) IsValid() bool {
	return g >= MinGradeLevel && g <= MaxGradeLevel
}

// Int returns the underlying int value.
func (g GradeLevel) Int() int {
	return int(g)
}

// ═══════════════════════════════════════════════════════════════════════════
// GPA Value Object
// ═══════════════════════════════════════════════════════════════════════════

// GPA represents a grade point average on the standard 4.0 scale.
//
// The classifier intentionally does NOT reject out-of-range values: a GPA of
// -1 or 5.2 is scored as-is. InRange exists for callers that want upstream
// validation, but the engine itself stays lenient.
type GPA float64

// InRange reports whether the GPA falls within the conventional [0.0, 4.0] domain.
func (g GPA) InRange() bool {
	return g >= 0.0 && g <= 4.0
}

// Float64 returns the underlying float64 value.
func (g GPA) Float64() float64 {
	return float64(g)
}

// ═══════════════════════════════════════════════════════════════════════════
// Attendance Value Object
// ═══════════════════════════════════════════════════════════════════════════

// AttendanceRate represents attendance as a percentage in [0, 100].
// Like GPA, out-of-range values are scored rather than rejected.
type AttendanceRate float64

// InRange reports whether the rate falls within [0, 100].
func (a AttendanceRate) InRange() bool {
	return a >= 0.0 && a <= 100.0
}

// Float64 returns the underlying float64 value.
func (a AttendanceRate) Float64() float64 {
	return float64(a)
}

// FromFraction converts a 0..1 fraction (the format used by SIS CSV exports)
// to a percentage-scaled AttendanceRate.
func FromFraction(f float64) AttendanceRate {
	return AttendanceRate(f * 100.0)
}
