package command

import (
	"context"
	"fmt"

	"github.com/aura-hub/intervention-hub/internal/domain/assessment"
	"github.com/aura-hub/intervention-hub/internal/domain/progress"
	"github.com/aura-hub/intervention-hub/internal/domain/shared"
	"github.com/aura-hub/intervention-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRACK PROGRESS COMMAND
// Appends an externally-observed risk datapoint to the ledger without running
// the classifier. Counselors use this to backfill observations made outside
// the system.
// ══════════════════════════════════════════════════════════════════════════════

// TrackProgressCommand contains one datapoint to append.
type TrackProgressCommand struct {
	// StudentID is the ID of the student.
	StudentID string

	// StudentName is optional, recorded on the student's first entry.
	StudentName string

	// RiskLevel observed. Recorded as given, even if not one of the four
	// canonical levels.
	RiskLevel string

	// RiskScore observed. Loosely typed: strings and assorted numerics are
	// coerced, anything unparseable becomes 0.0.
	RiskScore any

	// Notes is a free-form annotation.
	Notes string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c TrackProgressCommand) Validate() error {
	if c.StudentID == "" {
		return shared.ErrEmptyStudentID
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// TrackProgressHandler handles the TrackProgressCommand.
type TrackProgressHandler struct {
	ledger       *progress.Ledger
	progressRepo progress.Repository
	eventBus     shared.EventBus
	log          *logger.Logger
}

// NewTrackProgressHandler creates a new TrackProgressHandler.
// progressRepo may be nil; the ledger then stays memory-only.
func NewTrackProgressHandler(
	ledger *progress.Ledger,
	progressRepo progress.Repository,
	eventBus shared.EventBus,
	log *logger.Logger,
) *TrackProgressHandler {
	return &TrackProgressHandler{
		ledger:       ledger,
		progressRepo: progressRepo,
		eventBus:     eventBus,
		log:          log.With(logger.Component("track_progress")),
	}
}

// Handle appends the datapoint and returns the recomputed trend.
func (h *TrackProgressHandler) Handle(ctx context.Context, cmd TrackProgressCommand) (*progress.TrackResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("track_progress: validation failed: %w", err)
	}

	score := progress.CoerceScore(cmd.RiskScore)
	level := assessment.RiskLevel(cmd.RiskLevel)

	result, err := h.ledger.Track(ctx, cmd.StudentID, cmd.StudentName, level, score, cmd.Notes)
	if err != nil {
		return nil, fmt.Errorf("track_progress: ledger append failed: %w", err)
	}

	if h.progressRepo != nil {
		entry, ok := h.ledger.LatestEntry(cmd.StudentID)
		if ok {
			if err := h.progressRepo.SaveEntry(ctx, cmd.StudentID, cmd.StudentName, entry); err != nil {
				h.log.Warn("failed to persist ledger entry",
					logger.StudentID(cmd.StudentID), logger.Err(err))
			}
		}
	}

	if h.eventBus != nil {
		tracked := shared.NewProgressTrackedEvent(
			cmd.StudentID, score, string(level), result.TotalEntries, string(result.Trend))
		tracked.BaseEvent = tracked.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		if err := h.eventBus.Publish(tracked); err != nil {
			h.log.Warn("failed to publish tracking event", logger.Err(err))
		}
	}

	h.log.Debug("progress tracked",
		logger.StudentID(cmd.StudentID),
		logger.RiskScore(score),
		logger.Trend(string(result.Trend)),
		logger.EntryCount(result.TotalEntries))

	return result, nil
}
