// Package postgres implements the PostgreSQL persistence layer for the
// Aura Hub intervention engine.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aura-hub/intervention-hub/internal/domain/assessment"
	"github.com/aura-hub/intervention-hub/internal/domain/notification"
	"github.com/aura-hub/intervention-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ALERT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AlertRepository implements notification.Repository for PostgreSQL.
type AlertRepository struct {
	conn *Connection
}

// NewAlertRepository creates a new AlertRepository.
func NewAlertRepository(conn *Connection) *AlertRepository {
	return &AlertRepository{conn: conn}
}

const alertColumns = `id, reference, student_id, student_name, priority, subject, body,
	   recipients, concerns, risk_level, status, generated_at, sent_at, failure_reason`

// Save upserts an alert. The delivery handler saves the same alert several
// times as it walks the lifecycle (generated, queued, sent or failed).
func (r *AlertRepository) Save(ctx context.Context, alert *notification.Alert) error {
	query := `
		INSERT INTO alerts (
			id, reference, student_id, student_name, priority, subject, body,
			recipients, concerns, risk_level, status, generated_at, sent_at, failure_reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			sent_at = EXCLUDED.sent_at,
			failure_reason = EXCLUDED.failure_reason
	`

	recipientsJSON, err := json.Marshal(alert.Recipients)
	if err != nil {
		return fmt.Errorf("failed to marshal recipients: %w", err)
	}

	concernsJSON, err := json.Marshal(alert.Concerns)
	if err != nil {
		return fmt.Errorf("failed to marshal concerns: %w", err)
	}

	var sentAt *time.Time
	if !alert.SentAt.IsZero() {
		sentAt = &alert.SentAt
	}

	_, err = r.conn.Exec(ctx, query,
		string(alert.ID),
		string(alert.Reference),
		alert.StudentID,
		alert.StudentName,
		string(alert.Priority),
		alert.Subject,
		alert.Body,
		recipientsJSON,
		concernsJSON,
		string(alert.RiskLevel),
		string(alert.Status),
		alert.GeneratedAt,
		sentAt,
		alert.FailureReason,
	)
	if err != nil {
		return fmt.Errorf("failed to save alert %s: %w", alert.ID, err)
	}

	return nil
}

// GetByID returns an alert by its internal ID.
func (r *AlertRepository) GetByID(ctx context.Context, id notification.AlertID) (*notification.Alert, error) {
	query := fmt.Sprintf(`SELECT %s FROM alerts WHERE id = $1`, alertColumns)

	alert, err := scanAlert(r.conn.QueryRow(ctx, query, string(id)))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrAlertNotFound
		}
		return nil, fmt.Errorf("failed to get alert %s: %w", id, err)
	}

	return alert, nil
}

// ListByStudent returns all alerts for one student, newest first.
func (r *AlertRepository) ListByStudent(ctx context.Context, studentID string) ([]*notification.Alert, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM alerts
		WHERE student_id = $1
		ORDER BY generated_at DESC
	`, alertColumns)

	rows, err := r.conn.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts for %s: %w", studentID, err)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

// ListSince returns alerts generated at or after the given instant.
func (r *AlertRepository) ListSince(ctx context.Context, since time.Time) ([]*notification.Alert, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM alerts
		WHERE generated_at >= $1
		ORDER BY generated_at DESC
	`, alertColumns)

	rows, err := r.conn.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts since %s: %w", since, err)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

// Count returns the total number of stored alerts.
func (r *AlertRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM alerts`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}

	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ─────────────────────────────────────────────────────────────────────────────

func scanAlert(row pgx.Row) (*notification.Alert, error) {
	var (
		a              notification.Alert
		id             string
		reference      string
		priority       string
		recipientsJSON []byte
		concernsJSON   []byte
		riskLevel      string
		status         string
		sentAt         *time.Time
	)

	err := row.Scan(
		&id,
		&reference,
		&a.StudentID,
		&a.StudentName,
		&priority,
		&a.Subject,
		&a.Body,
		&recipientsJSON,
		&concernsJSON,
		&riskLevel,
		&status,
		&a.GeneratedAt,
		&sentAt,
		&a.FailureReason,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(recipientsJSON, &a.Recipients); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipients: %w", err)
	}
	if err := json.Unmarshal(concernsJSON, &a.Concerns); err != nil {
		return nil, fmt.Errorf("failed to unmarshal concerns: %w", err)
	}

	a.ID = notification.AlertID(id)
	a.Reference = notification.Reference(reference)
	a.Priority = notification.Priority(priority)
	a.RiskLevel = assessment.RiskLevel(riskLevel)
	a.Status = notification.Status(status)
	if sentAt != nil {
		a.SentAt = *sentAt
	}

	return &a, nil
}

func collectAlerts(rows pgx.Rows) ([]*notification.Alert, error) {
	alerts := make([]*notification.Alert, 0)
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}
		alerts = append(alerts, alert)
	}

	return alerts, rows.Err()
}
