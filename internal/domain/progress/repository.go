package progress

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// The ledger itself is in-memory; these contracts let infrastructure persist
// snapshots of it and rebuild it on startup.
// ══════════════════════════════════════════════════════════════════════════════

// Repository persists ledger records durably.
type Repository interface {
	// SaveEntry appends one entry for a student.
	SaveEntry(ctx context.Context, studentID, studentName string, entry Entry) error

	// LoadRecord returns the persisted record for a student.
	// Returns shared.ErrLedgerNotFound when none exists.
	LoadRecord(ctx context.Context, studentID string) (*Record, error)

	// LoadAll returns every persisted record, one per student.
	LoadAll(ctx context.Context) ([]*Record, error)

	// CountStudents returns how many students have persisted entries.
	CountStudents(ctx context.Context) (int, error)
}

// SnapshotWriter dumps the complete ledger state for offline inspection.
type SnapshotWriter interface {
	// WriteSnapshot persists all records as one snapshot.
	WriteSnapshot(ctx context.Context, records []*Record) error
}

// Hydrate loads every persisted record into the ledger. Called once on
// startup, before the ledger accepts traffic.
func Hydrate(ctx context.Context, ledger *Ledger, repo Repository) (int, error) {
	records, err := repo.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	for _, rec := range records {
		ledger.Restore(rec)
	}
	return len(records), nil
}

// Records returns a copy of every record in the ledger, for snapshotting.
func (l *Ledger) Records() []*Record {
	ids := l.StudentIDs()
	out := make([]*Record, 0, len(ids))
	for _, id := range ids {
		lock := l.studentLock(id)
		lock.Lock()
		l.mu.RLock()
		rec, ok := l.records[id]
		l.mu.RUnlock()
		if !ok {
			lock.Unlock()
			continue
		}
		cp := &Record{
			StudentID:   rec.StudentID,
			StudentName: rec.StudentName,
			History:     make([]Entry, len(rec.History)),
			CreatedAt:   rec.CreatedAt,
			LastUpdated: rec.LastUpdated,
		}
		copy(cp.History, rec.History)
		lock.Unlock()
		out = append(out, cp)
	}
	return out
}
