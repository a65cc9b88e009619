// Package source implements student attribute sources for the Aura Hub
// intervention engine. The canonical deployment reads a SIS CSV export;
// larger districts point the engine at the SIS HTTP API instead.
package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aura-hub/intervention-hub/internal/domain/assessment"
	"github.com/aura-hub/intervention-hub/internal/domain/shared"
	"github.com/aura-hub/intervention-hub/internal/domain/student"
)

// Column names expected in the SIS export. Missing columns fall back to
// the same defaults the district's reporting tool uses.
const (
	colStudentID   = "student_id"
	colName        = "name"
	colGradeLevel  = "grade_level"
	colGPA         = "gpa"
	colAttendance  = "attendance_rate"
	colPerformance = "overall_performance"
)

// CSVSource implements student.Source over a SIS CSV export.
// The file is parsed once on first access and kept in memory; call Reload
// after a fresh export lands.
type CSVSource struct {
	path string

	mu       sync.RWMutex
	profiles map[shared.StudentID]*student.Profile
	order    []shared.StudentID
	loaded   bool
}

// NewCSVSource creates a source reading from the given file path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// GetProfile returns the profile for one student.
func (s *CSVSource) GetProfile(ctx context.Context, id shared.StudentID) (*student.Profile, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[id]
	if !ok {
		return nil, shared.NotFoundError("student", "GetProfile", id.String())
	}

	clone := *profile
	return &clone, nil
}

// ListProfiles returns all profiles in file order.
func (s *CSVSource) ListProfiles(ctx context.Context) ([]*student.Profile, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*student.Profile, 0, len(s.order))
	for _, id := range s.order {
		clone := *s.profiles[id]
		out = append(out, &clone)
	}

	return out, nil
}

// Reload re-reads the CSV file, replacing the cached profiles.
func (s *CSVSource) Reload(ctx context.Context) error {
	profiles, order, err := s.parse(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.profiles = profiles
	s.order = order
	s.loaded = true
	s.mu.Unlock()

	return nil
}

// Count returns the number of students in the export.
func (s *CSVSource) Count(ctx context.Context) (int, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles), nil
}

func (s *CSVSource) ensureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()

	if loaded {
		return nil
	}
	return s.Reload(ctx)
}

// parse reads and validates the whole file.
func (s *CSVSource) parse(ctx context.Context) (map[shared.StudentID]*student.Profile, []shared.StudentID, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, shared.ErrDataSourceNotFound
		}
		return nil, nil, fmt.Errorf("source: failed to open %s: %w", s.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("source: failed to read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns[colStudentID]; !ok {
		return nil, nil, fmt.Errorf("source: %s column missing in %s", colStudentID, s.path)
	}

	profiles := make(map[shared.StudentID]*student.Profile)
	order := make([]shared.StudentID, 0)

	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("source: failed to read row: %w", err)
		}

		profile, err := rowToProfile(columns, row)
		if err != nil {
			// Malformed rows are skipped, not fatal: one bad export line
			// must not take the whole roster offline.
			continue
		}

		if _, exists := profiles[profile.ID]; !exists {
			order = append(order, profile.ID)
		}
		profiles[profile.ID] = profile
	}

	return profiles, order, nil
}

// rowToProfile maps one CSV row onto a Profile, applying the standard
// defaults for absent attributes (GPA 2.5, attendance 90%, "Average").
func rowToProfile(columns map[string]int, row []string) (*student.Profile, error) {
	id := field(columns, row, colStudentID)
	name := field(columns, row, colName)
	if name == "" {
		name = "Unknown"
	}

	grade := 0
	if raw := field(columns, row, colGradeLevel); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			grade = parsed
		}
	}

	profile, err := student.NewProfile(id, name, grade)
	if err != nil {
		return nil, err
	}

	if raw := field(columns, row, colGPA); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
			profile.GPA = shared.GPA(parsed)
		}
	}

	// The SIS export stores attendance as a 0..1 fraction.
	if raw := field(columns, row, colAttendance); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
			profile.AttendanceRate = shared.FromFraction(parsed)
		}
	}

	if raw := field(columns, row, colPerformance); raw != "" {
		profile.PerformanceRating = assessment.PerformanceRating(raw)
	}

	profile.UpdatedAt = time.Now().UTC()
	return profile, nil
}

func field(columns map[string]int, row []string, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
