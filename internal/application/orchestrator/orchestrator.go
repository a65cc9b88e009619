// Package orchestrator sequences the analysis pipeline for one student and
// streams each step as an event, giving callers visibility into intermediate
// state. The engine packages do the work; the orchestrator only wraps their
// plain results into the event stream.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aura-hub/intervention-hub/internal/application/command"
	"github.com/aura-hub/intervention-hub/internal/domain/assessment"
	"github.com/aura-hub/intervention-hub/internal/domain/intervention"
	"github.com/aura-hub/intervention-hub/internal/domain/notification"
	"github.com/aura-hub/intervention-hub/internal/domain/shared"
	"github.com/aura-hub/intervention-hub/internal/domain/student"
	"github.com/aura-hub/intervention-hub/pkg/logger"
	"github.com/aura-hub/intervention-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAM EVENTS
// ══════════════════════════════════════════════════════════════════════════════

// Kind classifies a stream event.
type Kind string

const (
	// KindThought - the orchestrator narrates what it is about to do.
	KindThought Kind = "thought"

	// KindAction - a pipeline step is starting.
	KindAction Kind = "action"

	// KindObservation - a pipeline step produced a result.
	KindObservation Kind = "observation"

	// KindResponse - the final report, always the last event.
	KindResponse Kind = "response"
)

// Event is one element of the stream.
type Event struct {
	Kind      Kind      `json:"kind"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// StepPayload announces a starting step.
type StepPayload struct {
	Step        string `json:"step"`
	Description string `json:"description"`
}

// ObservationPayload carries a step's result.
type ObservationPayload struct {
	Step   string `json:"step"`
	Result any    `json:"result"`
}

// Report is the payload of the final response event.
type Report struct {
	StudentID     string                 `json:"student_id"`
	CorrelationID string                 `json:"correlation_id"`
	Profile       *student.Profile       `json:"student_data,omitempty"`
	Assessment    *assessment.Assessment `json:"risk_analysis,omitempty"`
	Tracking      any                    `json:"progress_tracking,omitempty"`
	Plan          *intervention.Plan     `json:"intervention_plan,omitempty"`
	Forecast      *intervention.Forecast `json:"outcome_prediction,omitempty"`
	Alert         *notification.Alert    `json:"notification,omitempty"`
	Error         string                 `json:"error,omitempty"`
	CompletedAt   time.Time              `json:"completed_at"`
}

// Pipeline step names, in execution order.
const (
	StepCollect  = "data_collection"
	StepClassify = "risk_analysis"
	StepTrack    = "progress_tracking"
	StepPlan     = "intervention_planning"
	StepForecast = "outcome_prediction"
	StepNotify   = "notification_generation"
)

// Stages toggles individual pipeline steps. Collection, classification and
// tracking always run; the derivation steps can be switched off.
type Stages struct {
	Plan     bool
	Forecast bool
	Notify   bool
}

// AllStages enables every pipeline step.
func AllStages() Stages {
	return Stages{Plan: true, Forecast: true, Notify: true}
}

// ══════════════════════════════════════════════════════════════════════════════
// ORCHESTRATOR
// ══════════════════════════════════════════════════════════════════════════════

// Orchestrator runs the analysis pipeline. Safe for concurrent use; each Run
// call gets its own event channel.
type Orchestrator struct {
	assess    *command.AssessStudentHandler
	source    student.Source
	composer  *notification.Composer
	alertRepo notification.Repository
	policy    notification.Policy
	stages    Stages
	eventBus  shared.EventBus
	log       *logger.Logger
	now       func() time.Time
}

// Dependencies wires the orchestrator's collaborators.
type Dependencies struct {
	Assess    *command.AssessStudentHandler
	Source    student.Source
	Composer  *notification.Composer
	AlertRepo notification.Repository // may be nil: alerts then go unlogged
	Policy    notification.Policy
	Stages    Stages
	EventBus  shared.EventBus // may be nil
	Logger    *logger.Logger
}

// New creates an Orchestrator.
func New(deps Dependencies) *Orchestrator {
	return &Orchestrator{
		assess:    deps.Assess,
		source:    deps.Source,
		composer:  deps.Composer,
		alertRepo: deps.AlertRepo,
		policy:    deps.Policy,
		stages:    deps.Stages,
		eventBus:  deps.EventBus,
		log:       deps.Logger.With(logger.Component("orchestrator")),
		now:       timeutil.Now,
	}
}

// Run executes the pipeline for one student and returns the event stream.
// The channel is closed after the final response event; the caller must drain
// it. Pipeline errors are reported in-stream, not as a Run error.
func (o *Orchestrator) Run(ctx context.Context, studentID string) <-chan Event {
	events := make(chan Event, 16)
	go func() {
		defer close(events)
		o.run(ctx, studentID, events)
	}()
	return events
}

func (o *Orchestrator) run(ctx context.Context, studentID string, events chan<- Event) {
	correlationID := uuid.NewString()
	log := o.log.With(logger.StudentID(studentID), logger.String("correlation_id", correlationID))
	started := o.now()

	report := &Report{StudentID: studentID, CorrelationID: correlationID}

	o.emit(ctx, events, KindThought,
		fmt.Sprintf("Analyzing student %s: collecting attributes, scoring risk, tracking progress, deriving interventions.", studentID))

	// Step 1: data collection.
	o.emit(ctx, events, KindAction, StepPayload{
		Step:        StepCollect,
		Description: "Retrieving student profile and academic attributes",
	})

	sid, err := shared.NewStudentID(studentID)
	var profile *student.Profile
	if err == nil {
		profile, err = o.source.GetProfile(ctx, sid)
	}
	if err != nil {
		log.Warn("pipeline aborted at data collection", logger.Err(err))
		report.Error = fmt.Sprintf("unable to proceed: %v", err)
		report.CompletedAt = o.now()
		o.emit(ctx, events, KindResponse, report)
		return
	}
	report.Profile = profile
	o.emit(ctx, events, KindObservation, ObservationPayload{Step: StepCollect, Result: profile})

	// Steps 2-3: classification and ledger append run as one command so the
	// per-student locking discipline lives in one place.
	o.emit(ctx, events, KindAction, StepPayload{
		Step:        StepClassify,
		Description: "Evaluating academic risk and identifying warning indicators",
	})

	result, err := o.assess.Handle(ctx, command.AssessStudentCommand{
		StudentID:     studentID,
		CorrelationID: correlationID,
	})
	if err != nil {
		log.Error("pipeline aborted at risk analysis", logger.Err(err))
		report.Error = fmt.Sprintf("risk analysis failed: %v", err)
		report.CompletedAt = o.now()
		o.emit(ctx, events, KindResponse, report)
		return
	}
	report.Assessment = &result.Assessment
	report.Tracking = result.Tracking
	o.emit(ctx, events, KindObservation, ObservationPayload{Step: StepClassify, Result: result.Assessment})

	o.emit(ctx, events, KindAction, StepPayload{
		Step:        StepTrack,
		Description: "Appending assessment to the progress ledger",
	})
	o.emit(ctx, events, KindObservation, ObservationPayload{Step: StepTrack, Result: result.Tracking})

	// Step 4: intervention plan.
	if o.stages.Plan {
		o.emit(ctx, events, KindAction, StepPayload{
			Step:        StepPlan,
			Description: "Designing personalized intervention strategies",
		})
		report.Plan = &result.Plan
		o.emit(ctx, events, KindObservation, ObservationPayload{Step: StepPlan, Result: result.Plan})
	}

	// Step 5: outcome forecast.
	if o.stages.Forecast {
		o.emit(ctx, events, KindAction, StepPayload{
			Step:        StepForecast,
			Description: "Forecasting intervention success probability",
		})
		report.Forecast = &result.Forecast
		o.emit(ctx, events, KindObservation, ObservationPayload{Step: StepForecast, Result: result.Forecast})
	}

	// Step 6: notification, only when the dispatch policy asks for one.
	if o.stages.Notify && result.NotifyRecommended {
		o.emit(ctx, events, KindAction, StepPayload{
			Step:        StepNotify,
			Description: "Composing notification email for parents and educators",
		})

		alert := o.composer.Compose(profile, result.Assessment, result.Plan)
		if o.alertRepo != nil {
			if err := o.alertRepo.Save(ctx, alert); err != nil {
				log.Warn("failed to log alert", logger.AlertID(alert.ID.String()), logger.Err(err))
			}
		}
		if o.eventBus != nil {
			composed := shared.NewAlertComposedEvent(studentID, alert.ID.String(),
				string(alert.RiskLevel), string(alert.Priority), alert.Subject)
			composed.BaseEvent = composed.BaseEvent.WithCorrelationID(correlationID)
			if err := o.eventBus.Publish(composed); err != nil {
				log.Warn("failed to publish alert event", logger.Err(err))
			}
		}

		report.Alert = alert
		o.emit(ctx, events, KindObservation, ObservationPayload{Step: StepNotify, Result: alert})
	}

	report.CompletedAt = o.now()
	o.emit(ctx, events, KindResponse, report)

	log.Info("pipeline completed",
		logger.RiskLevel(string(result.Assessment.RiskLevel)),
		logger.Bool("notified", report.Alert != nil),
		logger.Latency(time.Since(started)))
}

// emit sends one event, dropping it if the caller has gone away.
func (o *Orchestrator) emit(ctx context.Context, events chan<- Event, kind Kind, payload any) {
	select {
	case events <- Event{Kind: kind, Payload: payload, Timestamp: o.now()}:
	case <-ctx.Done():
	}
}
