// Package postgres implements the PostgreSQL persistence layer for the
// Aura Hub intervention engine.
package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aura-hub/intervention-hub/internal/domain/assessment"
	"github.com/aura-hub/intervention-hub/internal/domain/progress"
	"github.com/aura-hub/intervention-hub/internal/domain/shared"
	"github.com/aura-hub/intervention-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProgressRepository implements progress.Repository and
// progress.SnapshotWriter for PostgreSQL. Entries are append-only: the
// repository never updates or deletes a row, matching the ledger contract.
type ProgressRepository struct {
	conn *Connection
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(conn *Connection) *ProgressRepository {
	return &ProgressRepository{conn: conn}
}

// SaveEntry appends a single risk observation.
func (r *ProgressRepository) SaveEntry(ctx context.Context, studentID, studentName string, entry progress.Entry) error {
	query := `
		INSERT INTO progress_entries (
			student_id, student_name, entry_date, recorded_at, risk_level, risk_score, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		studentID,
		studentName,
		entry.Date,
		entry.Timestamp,
		string(entry.RiskLevel),
		entry.RiskScore,
		entry.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to save progress entry for %s: %w", studentID, err)
	}

	return nil
}

// LoadRecord returns the full history for one student, oldest first.
func (r *ProgressRepository) LoadRecord(ctx context.Context, studentID string) (*progress.Record, error) {
	query := `
		SELECT student_id, student_name, entry_date, recorded_at, risk_level, risk_score, notes
		FROM progress_entries
		WHERE student_id = $1
		ORDER BY recorded_at, id
	`

	rows, err := r.conn.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load record for %s: %w", studentID, err)
	}
	defer rows.Close()

	record, err := collectRecord(rows)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, shared.ErrLedgerNotFound
	}

	return record, nil
}

// LoadAll returns every student's record, ordered by student ID. Used to
// rebuild the in-memory ledger on startup.
func (r *ProgressRepository) LoadAll(ctx context.Context) ([]*progress.Record, error) {
	query := `
		SELECT student_id, student_name, entry_date, recorded_at, risk_level, risk_score, notes
		FROM progress_entries
		ORDER BY student_id, recorded_at, id
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress entries: %w", err)
	}
	defer rows.Close()

	byStudent := make(map[string]*progress.Record)
	for rows.Next() {
		studentID, studentName, entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}

		record, ok := byStudent[studentID]
		if !ok {
			record = &progress.Record{
				StudentID:   studentID,
				StudentName: studentName,
				CreatedAt:   entry.Timestamp,
			}
			byStudent[studentID] = record
		}
		record.History = append(record.History, entry)
		record.LastUpdated = entry.Timestamp
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate progress entries: %w", err)
	}

	records := make([]*progress.Record, 0, len(byStudent))
	for _, record := range byStudent {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].StudentID < records[j].StudentID
	})

	return records, nil
}

// CountStudents returns the number of students with at least one entry.
func (r *ProgressRepository) CountStudents(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `SELECT COUNT(DISTINCT student_id) FROM progress_entries`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tracked students: %w", err)
	}

	return count, nil
}

// WriteSnapshot persists a full ledger dump. Rows already present are left
// alone; only entries newer than the student's latest stored timestamp are
// inserted, so the periodic snapshot worker stays idempotent.
func (r *ProgressRepository) WriteSnapshot(ctx context.Context, records []*progress.Record) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		for _, record := range records {
			var cutoff time.Time
			err := tx.QueryRow(ctx,
				`SELECT COALESCE(MAX(recorded_at), 'epoch'::timestamptz) FROM progress_entries WHERE student_id = $1`,
				record.StudentID,
			).Scan(&cutoff)
			if err != nil {
				return fmt.Errorf("failed to read snapshot cutoff for %s: %w", record.StudentID, err)
			}

			for _, entry := range record.History {
				if !entry.Timestamp.After(cutoff) {
					continue
				}

				_, err := tx.Exec(ctx, `
					INSERT INTO progress_entries (
						student_id, student_name, entry_date, recorded_at, risk_level, risk_score, notes
					) VALUES ($1, $2, $3, $4, $5, $6, $7)
				`,
					record.StudentID,
					record.StudentName,
					entry.Date,
					entry.Timestamp,
					string(entry.RiskLevel),
					entry.RiskScore,
					entry.Notes,
				)
				if err != nil {
					return fmt.Errorf("failed to snapshot entry for %s: %w", record.StudentID, err)
				}
			}
		}
		return nil
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ─────────────────────────────────────────────────────────────────────────────

func scanEntry(rows pgx.Rows) (studentID, studentName string, entry progress.Entry, err error) {
	var (
		level     string
		entryDate time.Time
	)
	err = rows.Scan(
		&studentID,
		&studentName,
		&entryDate,
		&entry.Timestamp,
		&level,
		&entry.RiskScore,
		&entry.Notes,
	)
	if err != nil {
		return "", "", progress.Entry{}, fmt.Errorf("failed to scan progress entry: %w", err)
	}

	entry.Date = timeutil.DateString(entryDate)
	entry.RiskLevel = assessment.RiskLevel(level)
	return studentID, studentName, entry, nil
}

func collectRecord(rows pgx.Rows) (*progress.Record, error) {
	var record *progress.Record
	for rows.Next() {
		studentID, studentName, entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}

		if record == nil {
			record = &progress.Record{
				StudentID:   studentID,
				StudentName: studentName,
				CreatedAt:   entry.Timestamp,
			}
		}
		record.History = append(record.History, entry)
		record.LastUpdated = entry.Timestamp
	}

	return record, rows.Err()
}
