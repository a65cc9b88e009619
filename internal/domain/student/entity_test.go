package student

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-hub/intervention-hub/internal/domain/assessment"
	"github.com/aura-hub/intervention-hub/internal/domain/shared"
)

func TestNewProfile_Defaults(t *testing.T) {
	p, err := NewProfile("S001", "  Alice Johnson  ", 10)
	require.NoError(t, err)

	assert.Equal(t, "Alice Johnson", p.Name)
	assert.Equal(t, DefaultGPA, p.GPA)
	assert.Equal(t, DefaultAttendanceRate, p.AttendanceRate)
	assert.Equal(t, DefaultPerformanceRating, p.PerformanceRating)
	assert.Equal(t, StatusEnrolled, p.Status)
}

func TestNewProfile_InvalidGrade(t *testing.T) {
	_, err := NewProfile("S001", "Alice", 13)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestAttributes_FeedsClassifier(t *testing.T) {
	p, err := NewProfile("S001", "Alice Johnson", 10)
	require.NoError(t, err)
	p.GPA = shared.GPA(1.8)
	p.AttendanceRate = shared.AttendanceRate(75)
	p.PerformanceRating = assessment.PerformanceBelowAverage

	attrs := p.Attributes()
	assert.Equal(t, "S001", attrs.StudentID)
	assert.Equal(t, 1.8, attrs.GPA)
	assert.Equal(t, 75.0, attrs.AttendanceRate)
	assert.Equal(t, assessment.PerformanceBelowAverage, attrs.PerformanceRating)

	// The attribute slice is directly classifiable.
	verdict, err := assessment.Classify(attrs)
	require.NoError(t, err)
	assert.Equal(t, assessment.LevelCritical, verdict.RiskLevel)
}

func TestApplyDefaults_FillsZeroValues(t *testing.T) {
	p := &Profile{ID: shared.StudentID("S002")}
	p.ApplyDefaults()

	assert.Equal(t, DefaultGPA, p.GPA)
	assert.Equal(t, DefaultAttendanceRate, p.AttendanceRate)
	assert.Equal(t, DefaultPerformanceRating, p.PerformanceRating)
	assert.Equal(t, StatusEnrolled, p.Status)
}

func TestIsAtRisk(t *testing.T) {
	p, err := NewProfile("S003", "Bob", 11)
	require.NoError(t, err)
	p.GPA = shared.GPA(3.8)
	p.AttendanceRate = shared.AttendanceRate(97)
	p.PerformanceRating = assessment.PerformanceExcellent
	assert.False(t, p.IsAtRisk())

	p.GPA = shared.GPA(2.4)
	assert.True(t, p.IsAtRisk())
}
