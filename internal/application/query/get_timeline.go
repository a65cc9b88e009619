// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"

	"github.com/aura-hub/intervention-hub/internal/domain/progress"
	"github.com/aura-hub/intervention-hub/internal/domain/shared"
	"github.com/aura-hub/intervention-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET TIMELINE QUERY
// Returns a student's complete ledger history with aggregate statistics.
// ══════════════════════════════════════════════════════════════════════════════

// GetTimelineQuery contains the parameters for a timeline read.
type GetTimelineQuery struct {
	// StudentID is the ID of the student.
	StudentID string
}

// Validate validates the query.
func (q GetTimelineQuery) Validate() error {
	if q.StudentID == "" {
		return shared.ErrEmptyStudentID
	}
	return nil
}

// GetTimelineHandler handles the GetTimelineQuery.
type GetTimelineHandler struct {
	ledger *progress.Ledger
	log    *logger.Logger
}

// NewGetTimelineHandler creates a new GetTimelineHandler.
func NewGetTimelineHandler(ledger *progress.Ledger, log *logger.Logger) *GetTimelineHandler {
	return &GetTimelineHandler{
		ledger: ledger,
		log:    log.With(logger.Component("get_timeline")),
	}
}

// Handle executes the timeline read.
func (h *GetTimelineHandler) Handle(ctx context.Context, q GetTimelineQuery) (*progress.Timeline, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_timeline: validation failed: %w", err)
	}

	tl, err := h.ledger.Timeline(ctx, q.StudentID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("get_timeline: %w", err)
	}

	h.log.Debug("timeline read",
		logger.StudentID(q.StudentID),
		logger.EntryCount(tl.TotalRecords))
	return tl, nil
}
