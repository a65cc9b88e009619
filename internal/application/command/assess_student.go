// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"
	"time"

	"github.com/aura-hub/intervention-hub/internal/domain/assessment"
	"github.com/aura-hub/intervention-hub/internal/domain/intervention"
	"github.com/aura-hub/intervention-hub/internal/domain/notification"
	"github.com/aura-hub/intervention-hub/internal/domain/progress"
	"github.com/aura-hub/intervention-hub/internal/domain/shared"
	"github.com/aura-hub/intervention-hub/internal/domain/student"
	"github.com/aura-hub/intervention-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ASSESS STUDENT COMMAND
// The system's core write path: look up the student's attributes, classify
// their academic risk, append the result to the progress ledger, and publish
// the domain events downstream consumers react to.
// ══════════════════════════════════════════════════════════════════════════════

// AssessStudentCommand requests a fresh risk assessment for one student.
type AssessStudentCommand struct {
	// StudentID is the ID of the student to assess.
	StudentID string

	// Notes is an optional annotation recorded with the ledger entry.
	Notes string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c AssessStudentCommand) Validate() error {
	if c.StudentID == "" {
		return shared.ErrEmptyStudentID
	}
	return nil
}

// AssessStudentResult contains the outcome of an assessment.
type AssessStudentResult struct {
	// Assessment is the classifier's verdict.
	Assessment assessment.Assessment

	// Tracking is the ledger's trend after appending this assessment.
	Tracking *progress.TrackResult

	// Plan is the intervention plan derived from the risk level.
	Plan intervention.Plan

	// Forecast is the outcome forecast derived from the risk level.
	Forecast intervention.Forecast

	// Escalated is true when the level rose since the previous entry.
	Escalated bool

	// PreviousLevel is the level of the previous ledger entry, empty for
	// first-time assessments.
	PreviousLevel assessment.RiskLevel

	// NotifyRecommended is true when the dispatch policy wants an alert
	// composed for this level.
	NotifyRecommended bool

	// AssessedAt is when the assessment completed.
	AssessedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// AssessStudentHandler handles the AssessStudentCommand.
type AssessStudentHandler struct {
	source       student.Source
	ledger       *progress.Ledger
	progressRepo progress.Repository
	policy       notification.Policy
	eventBus     shared.EventBus
	log          *logger.Logger
}

// NewAssessStudentHandler creates a new AssessStudentHandler.
// progressRepo may be nil; the ledger then stays memory-only.
func NewAssessStudentHandler(
	source student.Source,
	ledger *progress.Ledger,
	progressRepo progress.Repository,
	policy notification.Policy,
	eventBus shared.EventBus,
	log *logger.Logger,
) *AssessStudentHandler {
	return &AssessStudentHandler{
		source:       source,
		ledger:       ledger,
		progressRepo: progressRepo,
		policy:       policy,
		eventBus:     eventBus,
		log:          log.With(logger.Component("assess_student")),
	}
}

// Handle executes the assessment pipeline for one student.
func (h *AssessStudentHandler) Handle(ctx context.Context, cmd AssessStudentCommand) (*AssessStudentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("assess_student: validation failed: %w", err)
	}

	started := time.Now()

	sid, err := shared.NewStudentID(cmd.StudentID)
	if err != nil {
		return nil, fmt.Errorf("assess_student: %w", err)
	}

	profile, err := h.source.GetProfile(ctx, sid)
	if err != nil {
		return nil, fmt.Errorf("assess_student: failed to load student %s: %w", cmd.StudentID, err)
	}

	verdict, err := assessment.Classify(profile.Attributes())
	if err != nil {
		return nil, fmt.Errorf("assess_student: classification failed: %w", err)
	}

	// The ledger reports the superseded entry's level from inside the locked
	// append, so escalation detection is race-free for concurrent assessments
	// of the same student.
	tracking, err := h.ledger.Track(ctx, cmd.StudentID, profile.Name, verdict.RiskLevel, verdict.RiskScore, cmd.Notes)
	if err != nil {
		return nil, fmt.Errorf("assess_student: ledger append failed: %w", err)
	}
	previousLevel := tracking.PreviousLevel

	if h.progressRepo != nil {
		entry := progress.NewEntry(verdict.AssessedAt, verdict.RiskLevel, verdict.RiskScore, cmd.Notes)
		if err := h.progressRepo.SaveEntry(ctx, cmd.StudentID, profile.Name, entry); err != nil {
			// Durable backing is best-effort; the in-memory ledger stays
			// authoritative for reads.
			h.log.Warn("failed to persist ledger entry",
				logger.StudentID(cmd.StudentID), logger.Err(err))
		}
	}

	result := &AssessStudentResult{
		Assessment:        verdict,
		Tracking:          tracking,
		Plan:              intervention.PlanFor(verdict.RiskLevel),
		Forecast:          intervention.ForecastFor(verdict.RiskLevel),
		PreviousLevel:     previousLevel,
		Escalated:         previousLevel != "" && verdict.RiskLevel.Rank() > previousLevel.Rank(),
		NotifyRecommended: h.policy.ShouldNotify(verdict.RiskLevel),
		AssessedAt:        verdict.AssessedAt,
	}

	h.publishEvents(cmd, profile, result)

	h.log.Info("student assessed",
		logger.StudentID(cmd.StudentID),
		logger.RiskScore(verdict.RiskScore),
		logger.RiskLevel(string(verdict.RiskLevel)),
		logger.Trend(string(tracking.Trend)),
		logger.Latency(time.Since(started)))

	return result, nil
}

func (h *AssessStudentHandler) publishEvents(cmd AssessStudentCommand, profile *student.Profile, result *AssessStudentResult) {
	if h.eventBus == nil {
		return
	}

	completed := shared.NewAssessmentCompletedEvent(
		cmd.StudentID, profile.Name,
		result.Assessment.RiskScore, string(result.Assessment.RiskLevel), result.Assessment.RiskFactors)
	completed.BaseEvent = completed.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	if err := h.eventBus.Publish(completed); err != nil {
		h.log.Warn("failed to publish assessment event", logger.Err(err))
	}

	tracked := shared.NewProgressTrackedEvent(
		cmd.StudentID,
		result.Assessment.RiskScore, string(result.Assessment.RiskLevel),
		result.Tracking.TotalEntries, string(result.Tracking.Trend))
	tracked.BaseEvent = tracked.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	if err := h.eventBus.Publish(tracked); err != nil {
		h.log.Warn("failed to publish tracking event", logger.Err(err))
	}

	if result.Escalated {
		escalated := shared.NewRiskLevelEscalatedEvent(
			cmd.StudentID, string(result.PreviousLevel), string(result.Assessment.RiskLevel))
		escalated.BaseEvent = escalated.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		if err := h.eventBus.Publish(escalated); err != nil {
			h.log.Warn("failed to publish escalation event", logger.Err(err))
		}
	}
}
