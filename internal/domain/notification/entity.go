// Package notification содержит доменную модель оповещений о рисках.
// Оповещения - это письма родителям и педагогам, составленные из результата
// оценки риска ученика. Философия: письмо должно информировать и звать к
// действию, а не пугать.
package notification

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aura-hub/intervention-hub/internal/domain/assessment"
	"github.com/aura-hub/intervention-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// AlertID представляет уникальный идентификатор оповещения.
type AlertID string

// NewAlertID генерирует новый уникальный идентификатор.
func NewAlertID() AlertID {
	return AlertID(uuid.NewString())
}

// IsValid проверяет, что ID не пустой.
func (id AlertID) IsValid() bool {
	return len(id) > 0
}

// String возвращает строковое представление ID.
func (id AlertID) String() string {
	return string(id)
}

// Reference представляет человекочитаемый номер письма вида
// "EMAIL-S001-20260301120000". По нему педагоги ссылаются на письмо
// в переписке.
type Reference string

// NewReference составляет номер письма из ID ученика и момента генерации.
func NewReference(studentID string, at time.Time) Reference {
	return Reference(fmt.Sprintf("EMAIL-%s-%s", studentID, at.Format("20060102150405")))
}

// String возвращает строковое представление номера.
func (r Reference) String() string {
	return string(r)
}

// ══════════════════════════════════════════════════════════════════════════════
// PRIORITY
// ══════════════════════════════════════════════════════════════════════════════

// Priority определяет приоритет доставки оповещения.
type Priority string

const (
	// PriorityUrgent - срочное оповещение, доставляется немедленно.
	PriorityUrgent Priority = "URGENT"

	// PriorityHigh - высокий приоритет.
	PriorityHigh Priority = "HIGH"

	// PriorityMedium - обычный приоритет.
	PriorityMedium Priority = "MEDIUM"
)

// IsValid проверяет корректность приоритета.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityMedium:
		return true
	default:
		return false
	}
}

// ShouldSendImmediately возвращает true, если оповещение нельзя откладывать
// до окна рассылки.
func (p Priority) ShouldSendImmediately() bool {
	return p == PriorityUrgent
}

// ══════════════════════════════════════════════════════════════════════════════
// STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status определяет статус жизненного цикла оповещения.
type Status string

const (
	// StatusGenerated - письмо составлено, ещё не отправлялось.
	StatusGenerated Status = "generated"

	// StatusQueued - письмо в очереди на отправку.
	StatusQueued Status = "queued"

	// StatusSent - письмо доставлено.
	StatusSent Status = "sent"

	// StatusFailed - доставка не удалась.
	StatusFailed Status = "failed"

	// StatusSuppressed - письмо не отправлялось по политике
	// (уровень риска ниже порога рассылки).
	StatusSuppressed Status = "suppressed"
)

// IsValid проверяет корректность статуса.
func (s Status) IsValid() bool {
	switch s {
	case StatusGenerated, StatusQueued, StatusSent, StatusFailed, StatusSuppressed:
		return true
	default:
		return false
	}
}

// IsTerminal возвращает true, если статус финальный.
func (s Status) IsTerminal() bool {
	return s == StatusSent || s == StatusSuppressed
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: ALERT
// ══════════════════════════════════════════════════════════════════════════════

// DefaultRecipients - стандартный круг получателей оповещения.
var DefaultRecipients = []string{"parent/guardian", "teacher", "counselor"}

// Alert - составленное оповещение о риске ученика.
type Alert struct {
	// ID - внутренний уникальный идентификатор (UUID).
	ID AlertID `json:"id"`

	// Reference - человекочитаемый номер письма.
	Reference Reference `json:"reference"`

	// StudentID - ученик, о котором оповещение.
	StudentID string `json:"student_id"`

	// StudentName - имя ученика для текста письма.
	StudentName string `json:"student_name"`

	// Priority - приоритет доставки, выводится из уровня риска.
	Priority Priority `json:"priority"`

	// Subject - тема письма.
	Subject string `json:"subject"`

	// Body - полный текст письма.
	Body string `json:"body"`

	// Recipients - круг получателей.
	Recipients []string `json:"recipients"`

	// Concerns - факторы риска, перечисленные в письме.
	Concerns []string `json:"concerns"`

	// RiskLevel - уровень риска на момент составления.
	RiskLevel assessment.RiskLevel `json:"risk_level"`

	// Status - текущий статус жизненного цикла.
	Status Status `json:"status"`

	// GeneratedAt - момент составления письма.
	GeneratedAt time.Time `json:"generated_at"`

	// SentAt - момент доставки (нулевое время, пока не отправлено).
	SentAt time.Time `json:"sent_at,omitempty"`

	// FailureReason - причина последней неудачной доставки.
	FailureReason string `json:"failure_reason,omitempty"`
}

// ConcernsCount возвращает количество факторов риска в письме.
func (a *Alert) ConcernsCount() int {
	return len(a.Concerns)
}

// MarkQueued переводит оповещение в очередь на отправку.
func (a *Alert) MarkQueued() error {
	if a.Status.IsTerminal() {
		return shared.NewDomainError("notification", "MarkQueued", shared.ErrStateTransition,
			fmt.Sprintf("alert %s is already %s", a.ID, a.Status))
	}
	a.Status = StatusQueued
	return nil
}

// MarkSent фиксирует успешную доставку.
func (a *Alert) MarkSent(at time.Time) error {
	if a.Status.IsTerminal() {
		return shared.NewDomainError("notification", "MarkSent", shared.ErrStateTransition,
			fmt.Sprintf("alert %s is already %s", a.ID, a.Status))
	}
	a.Status = StatusSent
	a.SentAt = at
	a.FailureReason = ""
	return nil
}

// MarkFailed фиксирует неудачную доставку. Оповещение можно повторить.
func (a *Alert) MarkFailed(reason string) {
	a.Status = StatusFailed
	a.FailureReason = reason
}

// MarkSuppressed фиксирует, что письмо не отправляется по политике.
func (a *Alert) MarkSuppressed() {
	a.Status = StatusSuppressed
}
