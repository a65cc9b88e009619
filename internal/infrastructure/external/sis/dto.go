// Package sis implements the Student Information System API client.
package sis

import (
	"time"

	"github.com/aura-hub/intervention-hub/internal/domain/assessment"
	"github.com/aura-hub/intervention-hub/internal/domain/shared"
	"github.com/aura-hub/intervention-hub/internal/domain/student"
)

// StudentDTO mirrors the SIS API student payload. The API reports
// attendance as a 0..1 fraction, same as the CSV export.
type StudentDTO struct {
	StudentID          string  `json:"student_id"`
	Name               string  `json:"name"`
	GradeLevel         int     `json:"grade_level"`
	GPA                float64 `json:"gpa"`
	AttendanceRate     float64 `json:"attendance_rate"`
	OverallPerformance string  `json:"overall_performance"`
	EnrollmentStatus   string  `json:"enrollment_status,omitempty"`
	UpdatedAt          string  `json:"updated_at,omitempty"`
}

// StudentsResponseDTO is the roster listing payload.
type StudentsResponseDTO struct {
	Students []StudentDTO `json:"students"`
	Total    int          `json:"total"`
}

// APIErrorDTO is the SIS error payload.
type APIErrorDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIErrorDTO) Error() string {
	return e.Message
}

// toProfile maps a DTO onto a domain profile with the standard defaults
// for absent attributes.
func (d StudentDTO) toProfile() (*student.Profile, error) {
	name := d.Name
	if name == "" {
		name = "Unknown"
	}

	profile, err := student.NewProfile(d.StudentID, name, d.GradeLevel)
	if err != nil {
		return nil, err
	}

	if d.GPA > 0 {
		profile.GPA = shared.GPA(d.GPA)
	}
	if d.AttendanceRate > 0 {
		profile.AttendanceRate = shared.FromFraction(d.AttendanceRate)
	}
	if d.OverallPerformance != "" {
		profile.PerformanceRating = assessment.PerformanceRating(d.OverallPerformance)
	}
	if d.EnrollmentStatus != "" {
		if status := student.Status(d.EnrollmentStatus); status.IsValid() {
			profile.Status = status
		}
	}
	if d.UpdatedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, d.UpdatedAt); err == nil {
			profile.UpdatedAt = parsed.UTC()
		}
	}

	return profile, nil
}
