// Package postgres implements the PostgreSQL persistence layer for the
// Aura Hub intervention engine.
package postgres

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_student_profiles",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_progress_entries",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_alerts",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE STUDENT PROFILES
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create student profiles table
-- Version: 001

CREATE TABLE IF NOT EXISTS student_profiles (
    id VARCHAR(50) PRIMARY KEY,
    name VARCHAR(200) NOT NULL,
    grade_level SMALLINT NOT NULL DEFAULT 0,
    gpa DECIMAL(3,2) NOT NULL DEFAULT 2.50,
    attendance_rate DECIMAL(5,2) NOT NULL DEFAULT 90.00,
    performance_rating VARCHAR(20) NOT NULL DEFAULT 'Average',
    status VARCHAR(20) NOT NULL DEFAULT 'enrolled',
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    -- Constraints for data integrity
    CONSTRAINT valid_grade_level CHECK (grade_level >= 0 AND grade_level <= 12),
    CONSTRAINT valid_gpa CHECK (gpa >= 0 AND gpa <= 4.0),
    CONSTRAINT valid_attendance CHECK (attendance_rate >= 0 AND attendance_rate <= 100),
    CONSTRAINT valid_status CHECK (status IN ('enrolled', 'transferred', 'graduated', 'withdrawn'))
);

-- Indexes for at-risk scans
CREATE INDEX IF NOT EXISTS idx_profiles_gpa ON student_profiles(gpa);
CREATE INDEX IF NOT EXISTS idx_profiles_attendance ON student_profiles(attendance_rate);
CREATE INDEX IF NOT EXISTS idx_profiles_status ON student_profiles(status);
`

const migration001Down = `
DROP TABLE IF EXISTS student_profiles;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE PROGRESS ENTRIES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create progress entries table
-- Version: 002
-- Append-only risk observations; the in-memory ledger is rebuilt from
-- this table on startup.

CREATE TABLE IF NOT EXISTS progress_entries (
    id BIGSERIAL PRIMARY KEY,
    student_id VARCHAR(50) NOT NULL,
    student_name VARCHAR(200) NOT NULL DEFAULT '',
    entry_date DATE NOT NULL,
    recorded_at TIMESTAMP WITH TIME ZONE NOT NULL,
    risk_level VARCHAR(20) NOT NULL,
    risk_score DECIMAL(6,5) NOT NULL,
    notes TEXT NOT NULL DEFAULT '',

    CONSTRAINT valid_risk_score CHECK (risk_score >= 0 AND risk_score <= 1),
    CONSTRAINT valid_risk_level CHECK (risk_level IN ('CRITICAL', 'HIGH', 'MODERATE', 'LOW'))
);

-- Timeline reads are always per student, ordered by recording time
CREATE INDEX IF NOT EXISTS idx_entries_student_recorded ON progress_entries(student_id, recorded_at);
CREATE INDEX IF NOT EXISTS idx_entries_risk_level ON progress_entries(risk_level);
CREATE INDEX IF NOT EXISTS idx_entries_entry_date ON progress_entries(entry_date);
`

const migration002Down = `
DROP TABLE IF EXISTS progress_entries;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE ALERTS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create alerts table
-- Version: 003

CREATE TABLE IF NOT EXISTS alerts (
    id UUID PRIMARY KEY,
    reference VARCHAR(60) NOT NULL UNIQUE,
    student_id VARCHAR(50) NOT NULL,
    student_name VARCHAR(200) NOT NULL,
    priority VARCHAR(10) NOT NULL,
    subject TEXT NOT NULL,
    body TEXT NOT NULL,
    recipients JSONB NOT NULL DEFAULT '[]'::jsonb,
    concerns JSONB NOT NULL DEFAULT '[]'::jsonb,
    risk_level VARCHAR(20) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'generated',
    generated_at TIMESTAMP WITH TIME ZONE NOT NULL,
    sent_at TIMESTAMP WITH TIME ZONE,
    failure_reason TEXT NOT NULL DEFAULT '',

    CONSTRAINT valid_priority CHECK (priority IN ('URGENT', 'HIGH', 'MEDIUM')),
    CONSTRAINT valid_alert_status CHECK (status IN ('generated', 'queued', 'sent', 'failed', 'suppressed'))
);

CREATE INDEX IF NOT EXISTS idx_alerts_student ON alerts(student_id);
CREATE INDEX IF NOT EXISTS idx_alerts_status ON alerts(status);
CREATE INDEX IF NOT EXISTS idx_alerts_generated_at ON alerts(generated_at);
`

const migration003Down = `
DROP TABLE IF EXISTS alerts;
`
