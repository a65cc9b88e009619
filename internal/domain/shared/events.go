// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Assessment events
	EventAssessmentCompleted EventType = "assessment.completed"
	EventRiskLevelEscalated  EventType = "assessment.level_escalated"
	EventRiskLevelResolved   EventType = "assessment.level_resolved"

	// Progress events
	EventProgressTracked  EventType = "progress.tracked"
	EventTrendChanged     EventType = "progress.trend_changed"
	EventLedgerSnapshot   EventType = "progress.snapshot_persisted"
	EventProgressExported EventType = "progress.exported"

	// Intervention events
	EventPlanGenerated    EventType = "intervention.plan_generated"
	EventOutcomeForecast  EventType = "intervention.outcome_forecast"
	EventPipelineFinished EventType = "intervention.pipeline_finished"

	// Notification events
	EventAlertComposed  EventType = "notification.alert_composed"
	EventAlertDelivered EventType = "notification.alert_delivered"
	EventAlertFailed    EventType = "notification.alert_failed"

	// System events
	EventSummaryExported EventType = "system.summary_exported"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// EventHandler processes a single domain event.
type EventHandler func(event Event) error

// EventBus dispatches domain events to subscribed handlers.
type EventBus interface {
	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error

	// Publish sends an event to all subscribed handlers.
	Publish(event Event) error

	// Close gracefully shuts down the bus.
	Close() error
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Assessment Events
// ═══════════════════════════════════════════════════════════════════════════

// AssessmentCompletedEvent is emitted after the classifier scores a student.
type AssessmentCompletedEvent struct {
	BaseEvent
	StudentName string   `json:"student_name"`
	RiskScore   float64  `json:"risk_score"`
	RiskLevel   string   `json:"risk_level"`
	RiskFactors []string `json:"risk_factors"`
}

// Payload implements Event interface.
func (e AssessmentCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_name": e.StudentName,
		"risk_score":   e.RiskScore,
		"risk_level":   e.RiskLevel,
		"risk_factors": e.RiskFactors,
	}
}

// NewAssessmentCompletedEvent creates a new AssessmentCompletedEvent.
func NewAssessmentCompletedEvent(studentID, studentName string, score float64, level string, factors []string) AssessmentCompletedEvent {
	return AssessmentCompletedEvent{
		BaseEvent:   NewBaseEvent(EventAssessmentCompleted, studentID),
		StudentName: studentName,
		RiskScore:   score,
		RiskLevel:   level,
		RiskFactors: factors,
	}
}

// RiskLevelEscalatedEvent is emitted when a student's level rises between
// two consecutive ledger entries.
type RiskLevelEscalatedEvent struct {
	BaseEvent
	PreviousLevel string `json:"previous_level"`
	CurrentLevel  string `json:"current_level"`
}

// Payload implements Event interface.
func (e RiskLevelEscalatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"previous_level": e.PreviousLevel,
		"current_level":  e.CurrentLevel,
	}
}

// NewRiskLevelEscalatedEvent creates a new RiskLevelEscalatedEvent.
func NewRiskLevelEscalatedEvent(studentID, previous, current string) RiskLevelEscalatedEvent {
	return RiskLevelEscalatedEvent{
		BaseEvent:     NewBaseEvent(EventRiskLevelEscalated, studentID),
		PreviousLevel: previous,
		CurrentLevel:  current,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// ProgressTrackedEvent is emitted after every ledger append.
type ProgressTrackedEvent struct {
	BaseEvent
	RiskScore    float64 `json:"risk_score"`
	RiskLevel    string  `json:"risk_level"`
	TotalEntries int     `json:"total_entries"`
	Trend        string  `json:"trend"`
}

// Payload implements Event interface.
func (e ProgressTrackedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"risk_score":    e.RiskScore,
		"risk_level":    e.RiskLevel,
		"total_entries": e.TotalEntries,
		"trend":         e.Trend,
	}
}

// NewProgressTrackedEvent creates a new ProgressTrackedEvent.
func NewProgressTrackedEvent(studentID string, score float64, level string, entries int, trend string) ProgressTrackedEvent {
	return ProgressTrackedEvent{
		BaseEvent:    NewBaseEvent(EventProgressTracked, studentID),
		RiskScore:    score,
		RiskLevel:    level,
		TotalEntries: entries,
		Trend:        trend,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Notification Events
// ═══════════════════════════════════════════════════════════════════════════

// AlertComposedEvent is emitted when a notification email has been rendered
// and is ready for dispatch.
type AlertComposedEvent struct {
	BaseEvent
	AlertID   string `json:"alert_id"`
	RiskLevel string `json:"risk_level"`
	Priority  string `json:"priority"`
	Subject   string `json:"subject"`
}

// Payload implements Event interface.
func (e AlertComposedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"alert_id":   e.AlertID,
		"risk_level": e.RiskLevel,
		"priority":   e.Priority,
		"subject":    e.Subject,
	}
}

// NewAlertComposedEvent creates a new AlertComposedEvent.
func NewAlertComposedEvent(studentID, alertID, level, priority, subject string) AlertComposedEvent {
	return AlertComposedEvent{
		BaseEvent: NewBaseEvent(EventAlertComposed, studentID),
		AlertID:   alertID,
		RiskLevel: level,
		Priority:  priority,
		Subject:   subject,
	}
}

// AlertDeliveredEvent is emitted when a dispatcher confirms delivery.
type AlertDeliveredEvent struct {
	BaseEvent
	AlertID string `json:"alert_id"`
	Channel string `json:"channel"`
}

// Payload implements Event interface.
func (e AlertDeliveredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"alert_id": e.AlertID,
		"channel":  e.Channel,
	}
}

// NewAlertDeliveredEvent creates a new AlertDeliveredEvent.
func NewAlertDeliveredEvent(studentID, alertID, channel string) AlertDeliveredEvent {
	return AlertDeliveredEvent{
		BaseEvent: NewBaseEvent(EventAlertDelivered, studentID),
		AlertID:   alertID,
		Channel:   channel,
	}
}
