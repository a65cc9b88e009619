// Package eventhandler содержит обработчики доменных событий.
// Эти обработчики реализуют event-driven архитектуру и связывают
// различные части системы через асинхронные события.
//
// Философия: обработчики событий - это "реактивная" часть системы.
// Они реагируют на изменения и запускают побочные эффекты,
// такие как доставка оповещений или сброс кешей.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aura-hub/intervention-hub/internal/domain/notification"
	"github.com/aura-hub/intervention-hub/internal/domain/shared"
	"github.com/aura-hub/intervention-hub/pkg/retry"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON ALERT COMPOSED HANDLER
// Обрабатывает событие составления оповещения: забирает письмо из журнала
// и доставляет его через настроенный канал. Доставка идёт с ретраями;
// окончательная неудача фиксируется в журнале, но не роняет конвейер.
// ═══════════════════════════════════════════════════════════════════════════

// OnAlertComposedHandler доставляет составленные оповещения.
type OnAlertComposedHandler struct {
	alertRepo notification.Repository
	sender    notification.Sender
	eventBus  shared.EventBus
	retrier   *retry.Retrier
	logger    *slog.Logger

	// deliveryTimeout - бюджет времени на одну доставку с ретраями.
	deliveryTimeout time.Duration
}

// NewOnAlertComposedHandler создаёт новый обработчик доставки.
func NewOnAlertComposedHandler(
	alertRepo notification.Repository,
	sender notification.Sender,
	eventBus shared.EventBus,
	logger *slog.Logger,
) *OnAlertComposedHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnAlertComposedHandler{
		alertRepo:       alertRepo,
		sender:          sender,
		eventBus:        eventBus,
		retrier:         retry.EmailRetrier(),
		logger:          logger.With("handler", "on_alert_composed"),
		deliveryTimeout: 30 * time.Second,
	}
}

// Handle обрабатывает событие составления оповещения.
// Реализует интерфейс shared.EventHandler.
func (h *OnAlertComposedHandler) Handle(event shared.Event) error {
	composedEvent, ok := event.(shared.AlertComposedEvent)
	if !ok {
		h.logger.Warn("received non-AlertComposedEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.deliveryTimeout)
	defer cancel()

	h.logger.Info("processing alert composed event",
		"student_id", composedEvent.AggregateID(),
		"alert_id", composedEvent.AlertID,
		"priority", composedEvent.Priority,
	)

	// 1. Забираем письмо из журнала.
	alert, err := h.alertRepo.GetByID(ctx, notification.AlertID(composedEvent.AlertID))
	if err != nil {
		h.logger.Error("failed to load alert",
			"alert_id", composedEvent.AlertID,
			"error", err,
		)
		return fmt.Errorf("load alert: %w", err)
	}

	// Уже доставленное или подавленное письмо не трогаем.
	if alert.Status.IsTerminal() {
		h.logger.Debug("alert already in terminal state",
			"alert_id", composedEvent.AlertID,
			"status", string(alert.Status),
		)
		return nil
	}

	if err := alert.MarkQueued(); err != nil {
		return fmt.Errorf("queue alert: %w", err)
	}
	if err := h.alertRepo.Save(ctx, alert); err != nil {
		h.logger.Warn("failed to persist queued status",
			"alert_id", composedEvent.AlertID,
			"error", err,
		)
	}

	// 2. Доставляем с ретраями.
	err = h.retrier.Do(ctx, func(ctx context.Context) error {
		if sendErr := h.sender.Send(ctx, alert); sendErr != nil {
			return retry.Retryable(sendErr)
		}
		return nil
	})
	now := time.Now().UTC()

	if err != nil {
		alert.MarkFailed(err.Error())
		if saveErr := h.alertRepo.Save(ctx, alert); saveErr != nil {
			h.logger.Warn("failed to persist failed status",
				"alert_id", composedEvent.AlertID,
				"error", saveErr,
			)
		}
		h.logger.Error("alert delivery failed",
			"alert_id", composedEvent.AlertID,
			"error", err,
		)
		// Не возвращаем ошибку - конвейер не должен падать из-за доставки.
		return nil
	}

	// 3. Фиксируем доставку и публикуем событие.
	if err := alert.MarkSent(now); err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	if err := h.alertRepo.Save(ctx, alert); err != nil {
		h.logger.Warn("failed to persist sent status",
			"alert_id", composedEvent.AlertID,
			"error", err,
		)
	}

	if h.eventBus != nil {
		delivered := shared.NewAlertDeliveredEvent(
			alert.StudentID, alert.ID.String(), h.sender.Type().String())
		if err := h.eventBus.Publish(delivered); err != nil {
			h.logger.Warn("failed to publish delivery event",
				"alert_id", composedEvent.AlertID,
				"error", err,
			)
		}
	}

	h.logger.Info("alert delivered",
		"alert_id", composedEvent.AlertID,
		"channel", h.sender.Type().String(),
	)

	return nil
}
