// Package memory contains in-memory repository implementations used when
// PostgreSQL is disabled. State is lost on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aura-hub/intervention-hub/internal/domain/notification"
	"github.com/aura-hub/intervention-hub/internal/domain/shared"
)

// AlertRepository keeps the alert journal in process memory.
type AlertRepository struct {
	mu     sync.RWMutex
	byID   map[notification.AlertID]*notification.Alert
	sorted []*notification.Alert // insertion order == generation order
}

// NewAlertRepository creates an empty in-memory alert repository.
func NewAlertRepository() *AlertRepository {
	return &AlertRepository{
		byID: make(map[notification.AlertID]*notification.Alert),
	}
}

// Save inserts or replaces an alert.
func (r *AlertRepository) Save(_ context.Context, alert *notification.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *alert
	if _, exists := r.byID[alert.ID]; !exists {
		r.sorted = append(r.sorted, &copied)
	} else {
		for i, a := range r.sorted {
			if a.ID == alert.ID {
				r.sorted[i] = &copied
				break
			}
		}
	}
	r.byID[alert.ID] = &copied
	return nil
}

// GetByID returns one alert, or shared.ErrAlertNotFound.
func (r *AlertRepository) GetByID(_ context.Context, id notification.AlertID) (*notification.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	alert, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrAlertNotFound
	}
	copied := *alert
	return &copied, nil
}

// ListByStudent returns a student's alerts, newest first.
func (r *AlertRepository) ListByStudent(_ context.Context, studentID string) ([]*notification.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*notification.Alert
	for i := len(r.sorted) - 1; i >= 0; i-- {
		if r.sorted[i].StudentID == studentID {
			copied := *r.sorted[i]
			out = append(out, &copied)
		}
	}
	return out, nil
}

// ListSince returns alerts generated at or after the cutoff, newest first.
func (r *AlertRepository) ListSince(_ context.Context, since time.Time) ([]*notification.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*notification.Alert
	for i := len(r.sorted) - 1; i >= 0; i-- {
		if !r.sorted[i].GeneratedAt.Before(since) {
			copied := *r.sorted[i]
			out = append(out, &copied)
		}
	}
	return out, nil
}

// Count returns the total number of alerts.
func (r *AlertRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sorted), nil
}
