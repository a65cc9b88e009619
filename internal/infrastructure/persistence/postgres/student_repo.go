// Package postgres implements the PostgreSQL persistence layer for the
// Aura Hub intervention engine.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aura-hub/intervention-hub/internal/domain/assessment"
	"github.com/aura-hub/intervention-hub/internal/domain/shared"
	"github.com/aura-hub/intervention-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StudentRepository implements student.Repository for PostgreSQL.
// It also satisfies student.Source, so the pipeline can read profiles from
// the database instead of a CSV export or the SIS API.
type StudentRepository struct {
	conn *Connection
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(conn *Connection) *StudentRepository {
	return &StudentRepository{conn: conn}
}

const profileColumns = `id, name, grade_level, gpa, attendance_rate, performance_rating, status, updated_at`

// ─────────────────────────────────────────────────────────────────────────────
// Source operations
// ─────────────────────────────────────────────────────────────────────────────

// GetProfile returns a student profile by ID.
func (r *StudentRepository) GetProfile(ctx context.Context, id shared.StudentID) (*student.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_profiles WHERE id = $1`, profileColumns)

	row := r.conn.QueryRow(ctx, query, id.String())
	profile, err := scanProfile(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NotFoundError("student", "GetProfile", id.String())
		}
		return nil, fmt.Errorf("failed to get profile %s: %w", id, err)
	}

	return profile, nil
}

// ListProfiles returns all student profiles ordered by ID.
func (r *StudentRepository) ListProfiles(ctx context.Context) ([]*student.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_profiles ORDER BY id`, profileColumns)

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	return collectProfiles(rows)
}

// ─────────────────────────────────────────────────────────────────────────────
// Repository operations
// ─────────────────────────────────────────────────────────────────────────────

// Save upserts a student profile.
func (r *StudentRepository) Save(ctx context.Context, p *student.Profile) error {
	query := `
		INSERT INTO student_profiles (
			id, name, grade_level, gpa, attendance_rate, performance_rating, status, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			grade_level = EXCLUDED.grade_level,
			gpa = EXCLUDED.gpa,
			attendance_rate = EXCLUDED.attendance_rate,
			performance_rating = EXCLUDED.performance_rating,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`

	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := r.conn.Exec(ctx, query,
		p.ID.String(),
		p.Name,
		int(p.GradeLevel),
		float64(p.GPA),
		float64(p.AttendanceRate),
		string(p.PerformanceRating),
		string(p.Status),
		updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile %s: %w", p.ID, err)
	}

	return nil
}

// Exists returns true if a profile with the given ID is stored.
func (r *StudentRepository) Exists(ctx context.Context, id shared.StudentID) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM student_profiles WHERE id = $1)`,
		id.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check profile existence: %w", err)
	}

	return exists, nil
}

// Count returns the number of stored profiles.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM student_profiles`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count profiles: %w", err)
	}

	return count, nil
}

// ListAtRisk returns enrolled profiles that trip at least one risk factor.
// The filter mirrors Profile.IsAtRisk so the database and the domain agree
// on who belongs on the watch list.
func (r *StudentRepository) ListAtRisk(ctx context.Context) ([]*student.Profile, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM student_profiles
		WHERE status = 'enrolled'
		  AND (gpa < 3.0
			OR attendance_rate < 95
			OR performance_rating IN ('Below Average', 'Average'))
		ORDER BY gpa ASC, attendance_rate ASC
	`, profileColumns)

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list at-risk profiles: %w", err)
	}
	defer rows.Close()

	return collectProfiles(rows)
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ─────────────────────────────────────────────────────────────────────────────

func scanProfile(row pgx.Row) (*student.Profile, error) {
	var (
		p           student.Profile
		id          string
		grade       int
		gpa         float64
		attendance  float64
		performance string
		status      string
	)

	err := row.Scan(&id, &p.Name, &grade, &gpa, &attendance, &performance, &status, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.ID = shared.StudentID(id)
	p.GradeLevel = shared.GradeLevel(grade)
	p.GPA = shared.GPA(gpa)
	p.AttendanceRate = shared.AttendanceRate(attendance)
	p.PerformanceRating = assessment.PerformanceRating(performance)
	p.Status = student.Status(status)

	return &p, nil
}

func collectProfiles(rows pgx.Rows) ([]*student.Profile, error) {
	profiles := make([]*student.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile row: %w", err)
		}
		profiles = append(profiles, p)
	}

	return profiles, rows.Err()
}
