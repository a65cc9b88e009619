package notification

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELIVERY CHANNEL
// ══════════════════════════════════════════════════════════════════════════════

// ChannelType определяет тип канала доставки оповещений.
type ChannelType string

const (
	// ChannelTypeEmail - доставка по электронной почте.
	ChannelTypeEmail ChannelType = "email"

	// ChannelTypeWebhook - доставка через webhook школьной системы.
	ChannelTypeWebhook ChannelType = "webhook"

	// ChannelTypeFile - запись в файл журнала (для офлайн-обработки).
	ChannelTypeFile ChannelType = "file"
)

// IsValid проверяет корректность типа канала.
func (ct ChannelType) IsValid() bool {
	switch ct {
	case ChannelTypeEmail, ChannelTypeWebhook, ChannelTypeFile:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление типа канала.
func (ct ChannelType) String() string {
	return string(ct)
}

// Sender доставляет составленные оповещения. Реализации находятся в
// infrastructure; Compose никогда не вызывает Send сам.
type Sender interface {
	// Send доставляет оповещение. Возвращает shared.ErrAlertSendFailed
	// при неудачной доставке.
	Send(ctx context.Context, alert *Alert) error

	// Type возвращает тип канала.
	Type() ChannelType
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION LOG
// ══════════════════════════════════════════════════════════════════════════════

// Repository хранит журнал всех составленных оповещений.
type Repository interface {
	// Save сохраняет оповещение в журнал.
	Save(ctx context.Context, alert *Alert) error

	// GetByID возвращает оповещение по внутреннему ID.
	// Возвращает shared.ErrAlertNotFound, если оповещение не найдено.
	GetByID(ctx context.Context, id AlertID) (*Alert, error)

	// ListByStudent возвращает все оповещения по ученику, новые первыми.
	ListByStudent(ctx context.Context, studentID string) ([]*Alert, error)

	// ListSince возвращает оповещения, составленные после указанного момента.
	ListSince(ctx context.Context, since time.Time) ([]*Alert, error)

	// Count возвращает общее количество оповещений в журнале.
	Count(ctx context.Context) (int, error)
}
