// Package progress implements the append-only progress ledger: per-student
// history of risk assessments, trend computation over that history, and the
// export shapes consumed by reporting and charting clients.
package progress

import (
	"strconv"
	"strings"
	"time"

	"github.com/aura-hub/intervention-hub/internal/domain/assessment"
	"github.com/aura-hub/intervention-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry is one immutable observation in a student's ledger. Entries are only
// ever appended; nothing rewrites history.
type Entry struct {
	// Date is the calendar day of the observation, "2006-01-02".
	Date string `json:"date"`

	// Timestamp is the full recording instant.
	Timestamp time.Time `json:"timestamp"`

	// RiskLevel observed at that instant.
	RiskLevel assessment.RiskLevel `json:"risk_level"`

	// RiskScore observed at that instant.
	RiskScore float64 `json:"risk_score"`

	// Notes - free-form annotation supplied by the caller.
	Notes string `json:"notes"`
}

// NewEntry builds an entry stamped with the given instant.
func NewEntry(at time.Time, level assessment.RiskLevel, score float64, notes string) Entry {
	return Entry{
		Date:      timeutil.DateString(at),
		Timestamp: at,
		RiskLevel: level,
		RiskScore: score,
		Notes:     notes,
	}
}

// Record is the full ledger for one student.
type Record struct {
	// StudentID owns this ledger.
	StudentID string `json:"student_id"`

	// StudentName as supplied on first track call. May be empty.
	StudentName string `json:"student_name"`

	// History - ordered entries, oldest first.
	History []Entry `json:"history"`

	// CreatedAt - when the first entry was recorded.
	CreatedAt time.Time `json:"created_date"`

	// LastUpdated - when the latest entry was recorded.
	LastUpdated time.Time `json:"last_updated"`
}

// Len returns the number of entries.
func (r *Record) Len() int {
	return len(r.History)
}

// First returns the oldest entry. Callers must check Len first.
func (r *Record) First() Entry {
	return r.History[0]
}

// Latest returns the newest entry. Callers must check Len first.
func (r *Record) Latest() Entry {
	return r.History[len(r.History)-1]
}

// ══════════════════════════════════════════════════════════════════════════════
// TREND
// ══════════════════════════════════════════════════════════════════════════════

// Trend summarizes the direction of a student's risk over the ledger.
// A drop in risk score is an improvement, so the arrows point the way the
// score moved, not the way the student is going.
type Trend string

const (
	// TrendImproving - risk score dropped by more than the stability band.
	TrendImproving Trend = "↓ IMPROVING"

	// TrendWorsening - risk score rose by more than the stability band.
	TrendWorsening Trend = "↑ WORSENING"

	// TrendStable - risk score moved within the stability band.
	TrendStable Trend = "→ STABLE"

	// TrendNewEntry - single-entry ledger, no trend yet.
	TrendNewEntry Trend = "→ NEW ENTRY"
)

// stabilityBand is the half-width of the dead zone around zero change.
const stabilityBand = 0.05

// CoerceScore converts a loosely-typed score value into a float64. Callers at
// the edges (HTTP payloads, CSV cells) see scores as strings or assorted
// numerics; anything unparseable collapses to 0.0 rather than failing the
// track call.
func CoerceScore(v any) float64 {
	switch s := v.(type) {
	case float64:
		return s
	case float32:
		return float64(s)
	case int:
		return float64(s)
	case int64:
		return float64(s)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0.0
		}
		return f
	case nil:
		return 0.0
	default:
		return 0.0
	}
}
