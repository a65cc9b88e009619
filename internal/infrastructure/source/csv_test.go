package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-hub/intervention-hub/internal/domain/assessment"
	"github.com/aura-hub/intervention-hub/internal/domain/shared"
)

func writeRoster(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "student_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVSourceReadsProfile(t *testing.T) {
	path := writeRoster(t, `student_id,name,grade_level,gpa,attendance_rate,overall_performance
S001,Jordan Lee,9,1.8,0.72,Below Average
S002,Casey Kim,11,3.6,0.97,Excellent
`)

	src := NewCSVSource(path)

	profile, err := src.GetProfile(context.Background(), shared.StudentID("S001"))
	require.NoError(t, err)

	assert.Equal(t, "Jordan Lee", profile.Name)
	assert.Equal(t, shared.GradeLevel(9), profile.GradeLevel)
	assert.InDelta(t, 1.8, float64(profile.GPA), 1e-9)
	assert.InDelta(t, 72.0, float64(profile.AttendanceRate), 1e-9, "attendance fraction must be scaled to percent")
	assert.Equal(t, assessment.PerformanceBelowAverage, profile.PerformanceRating)
}

func TestCSVSourceAppliesDefaultsForMissingColumns(t *testing.T) {
	path := writeRoster(t, `student_id,name
S010,Riley Park
`)

	src := NewCSVSource(path)

	profile, err := src.GetProfile(context.Background(), shared.StudentID("S010"))
	require.NoError(t, err)

	assert.InDelta(t, 2.5, float64(profile.GPA), 1e-9)
	assert.InDelta(t, 90.0, float64(profile.AttendanceRate), 1e-9)
	assert.Equal(t, assessment.PerformanceAverage, profile.PerformanceRating)
	assert.Equal(t, shared.GradeLevel(0), profile.GradeLevel)
}

func TestCSVSourceUnknownStudent(t *testing.T) {
	path := writeRoster(t, `student_id,name
S001,Jordan Lee
`)

	src := NewCSVSource(path)

	_, err := src.GetProfile(context.Background(), shared.StudentID("S999"))
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Contains(t, err.Error(), "S999")
}

func TestCSVSourceMissingFile(t *testing.T) {
	src := NewCSVSource(filepath.Join(t.TempDir(), "nope.csv"))

	_, err := src.ListProfiles(context.Background())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCSVSourceSkipsMalformedRows(t *testing.T) {
	path := writeRoster(t, `student_id,name,grade_level
S001,Jordan Lee,9
,No ID,8
S002,Casey Kim,11
`)

	src := NewCSVSource(path)

	profiles, err := src.ListProfiles(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, shared.StudentID("S001"), profiles[0].ID)
	assert.Equal(t, shared.StudentID("S002"), profiles[1].ID)
}

func TestCSVSourceListIsACopy(t *testing.T) {
	path := writeRoster(t, `student_id,name
S001,Jordan Lee
`)

	src := NewCSVSource(path)

	first, err := src.ListProfiles(context.Background())
	require.NoError(t, err)
	first[0].Name = "tampered"

	second, err := src.ListProfiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Jordan Lee", second[0].Name)
}
