package progress

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/aura-hub/intervention-hub/internal/domain/assessment"
	"github.com/aura-hub/intervention-hub/internal/domain/shared"
	"github.com/aura-hub/intervention-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRACK RESULT
// ══════════════════════════════════════════════════════════════════════════════

// TrackResult is returned from every track call: the appended entry plus the
// trend computed over the whole ledger as of that append.
type TrackResult struct {
	StudentID        string               `json:"student_id"`
	StudentName      string               `json:"student_name"`
	CurrentRiskLevel assessment.RiskLevel `json:"current_risk_level"`
	CurrentRiskScore float64              `json:"current_risk_score"`
	TotalEntries     int                  `json:"total_entries"`
	DaysTracked      int                  `json:"days_tracked"`

	// PreviousLevel is the level of the entry this append superseded, empty
	// for a student's first entry. Captured under the same per-student lock
	// as the append, so consecutive-entry comparisons (escalation detection)
	// stay accurate under concurrent tracking.
	PreviousLevel assessment.RiskLevel `json:"previous_risk_level,omitempty"`

	// ImprovementPct - percent drop in risk score from the first entry to
	// the current one, rounded to one decimal. Zero when the first score
	// was zero or the ledger has a single entry.
	ImprovementPct float64 `json:"improvement_percentage"`

	Trend            Trend  `json:"trend"`
	TrendDescription string `json:"trend_description"`
	LastUpdated      string `json:"last_updated"`
}

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER
// ══════════════════════════════════════════════════════════════════════════════

// Ledger is the in-memory append-only progress store. Safe for concurrent use:
// appends to different students proceed in parallel, appends to the same
// student serialize on a per-student lock so trend computation always sees a
// consistent history.
type Ledger struct {
	mu      sync.RWMutex
	records map[string]*Record
	locks   map[string]*sync.Mutex

	// now is swappable for tests.
	now func() time.Time
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		records: make(map[string]*Record),
		locks:   make(map[string]*sync.Mutex),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// studentLock returns the per-student mutex, creating it on first use.
func (l *Ledger) studentLock(studentID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[studentID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[studentID] = lock
	}
	return lock
}

// Track appends an observation to the student's ledger and returns the trend
// over the updated history. The first call for a student creates the record.
func (l *Ledger) Track(ctx context.Context, studentID, studentName string, level assessment.RiskLevel, score float64, notes string) (*TrackResult, error) {
	if studentID == "" {
		return nil, shared.ErrEmptyStudentID
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lock := l.studentLock(studentID)
	lock.Lock()
	defer lock.Unlock()

	at := l.now()

	l.mu.Lock()
	rec, ok := l.records[studentID]
	if !ok {
		rec = &Record{
			StudentID:   studentID,
			StudentName: studentName,
			History:     make([]Entry, 0, 8),
			CreatedAt:   at,
		}
		l.records[studentID] = rec
	}
	l.mu.Unlock()

	var previousLevel assessment.RiskLevel
	if rec.Len() > 0 {
		previousLevel = rec.Latest().RiskLevel
	}

	rec.History = append(rec.History, NewEntry(at, level, score, notes))
	rec.LastUpdated = at

	result := &TrackResult{
		StudentID:        studentID,
		StudentName:      studentName,
		CurrentRiskLevel: level,
		CurrentRiskScore: score,
		TotalEntries:     rec.Len(),
		PreviousLevel:    previousLevel,
		LastUpdated:      at.Format(time.RFC3339),
	}
	applyTrend(result, rec)
	return result, nil
}

// applyTrend fills the trend fields of result from the record's history.
// Single-entry ledgers get the NEW ENTRY trend and zero improvement.
func applyTrend(result *TrackResult, rec *Record) {
	if rec.Len() <= 1 {
		result.Trend = TrendNewEntry
		result.TrendDescription = "First progress entry recorded"
		return
	}

	first := rec.First()
	latest := rec.Latest()
	change := first.RiskScore - latest.RiskScore

	if first.RiskScore > 0 {
		result.ImprovementPct = math.Round(change/first.RiskScore*1000) / 10
	}
	result.DaysTracked = timeutil.WholeDays(first.Timestamp, latest.Timestamp)

	switch {
	case change > stabilityBand:
		result.Trend = TrendImproving
		result.TrendDescription = fmt.Sprintf("Risk score decreased by %.3f", change)
	case change < -stabilityBand:
		result.Trend = TrendWorsening
		result.TrendDescription = fmt.Sprintf("Risk score increased by %.3f", -change)
	default:
		result.Trend = TrendStable
		result.TrendDescription = "Risk score remains relatively stable"
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// TIMELINE
// ══════════════════════════════════════════════════════════════════════════════

// Statistics aggregates a ledger's scores.
type Statistics struct {
	AverageRiskScore  float64        `json:"average_risk_score"`
	MinimumRiskScore  float64        `json:"minimum_risk_score"`
	MaximumRiskScore  float64        `json:"maximum_risk_score"`
	LevelDistribution map[string]int `json:"risk_level_distribution"`
}

// Timeline is the full read-side view of one student's ledger.
type Timeline struct {
	StudentID    string     `json:"student_id"`
	StudentName  string     `json:"student_name"`
	TotalRecords int        `json:"total_records"`
	CreatedAt    time.Time  `json:"created_date"`
	LastUpdated  time.Time  `json:"last_updated"`
	History      []Entry    `json:"progress_history"`
	Statistics   Statistics `json:"statistics"`
}

// Timeline returns the student's complete history with aggregate statistics.
// For students that have never been tracked the returned not-found error
// names the requested id, so callers can surface it verbatim.
func (l *Ledger) Timeline(ctx context.Context, studentID string) (*Timeline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lock := l.studentLock(studentID)
	lock.Lock()
	defer lock.Unlock()

	l.mu.RLock()
	rec, ok := l.records[studentID]
	l.mu.RUnlock()
	if !ok {
		return nil, shared.NotFoundError("progress", "Timeline", studentID)
	}

	history := make([]Entry, len(rec.History))
	copy(history, rec.History)

	stats := Statistics{LevelDistribution: make(map[string]int)}
	if len(history) > 0 {
		sum := 0.0
		min := history[0].RiskScore
		max := history[0].RiskScore
		for _, e := range history {
			sum += e.RiskScore
			if e.RiskScore < min {
				min = e.RiskScore
			}
			if e.RiskScore > max {
				max = e.RiskScore
			}
			stats.LevelDistribution[string(e.RiskLevel)]++
		}
		stats.AverageRiskScore = round3(sum / float64(len(history)))
		stats.MinimumRiskScore = round3(min)
		stats.MaximumRiskScore = round3(max)
	}

	return &Timeline{
		StudentID:    rec.StudentID,
		StudentName:  rec.StudentName,
		TotalRecords: len(history),
		CreatedAt:    rec.CreatedAt,
		LastUpdated:  rec.LastUpdated,
		History:      history,
		Statistics:   stats,
	}, nil
}

// StudentIDs returns the IDs of every tracked student, sorted.
func (l *Ledger) StudentIDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.records))
	for id := range l.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TotalEntries returns the number of entries across every student's history.
func (l *Ledger) TotalEntries() int {
	total := 0
	for _, id := range l.StudentIDs() {
		lock := l.studentLock(id)
		lock.Lock()
		l.mu.RLock()
		if rec, ok := l.records[id]; ok {
			total += rec.Len()
		}
		l.mu.RUnlock()
		lock.Unlock()
	}
	return total
}

// LatestEntry returns the newest entry for a student, or false when the
// student has never been tracked.
func (l *Ledger) LatestEntry(studentID string) (Entry, bool) {
	lock := l.studentLock(studentID)
	lock.Lock()
	defer lock.Unlock()

	l.mu.RLock()
	rec, ok := l.records[studentID]
	l.mu.RUnlock()
	if !ok || rec.Len() == 0 {
		return Entry{}, false
	}
	return rec.Latest(), true
}

// Restore replaces the student's record wholesale. Used when hydrating the
// ledger from a persisted snapshot on startup; not part of the tracking path.
func (l *Ledger) Restore(rec *Record) {
	if rec == nil || rec.StudentID == "" {
		return
	}
	lock := l.studentLock(rec.StudentID)
	lock.Lock()
	defer lock.Unlock()

	l.mu.Lock()
	l.records[rec.StudentID] = rec
	l.mu.Unlock()
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
