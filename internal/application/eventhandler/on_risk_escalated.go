package eventhandler

import (
	"context"
	"log/slog"
	"time"

	"github.com/aura-hub/intervention-hub/internal/domain/shared"
	"github.com/aura-hub/intervention-hub/internal/domain/student"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON RISK ESCALATED HANDLER
// Обрабатывает событие роста уровня риска между двумя последовательными
// оценками. Сбрасывает кеш профиля, чтобы следующая оценка читала свежие
// атрибуты, и пишет заметный лог для дежурного педагога.
// ═══════════════════════════════════════════════════════════════════════════

// OnRiskEscalatedHandler реагирует на эскалацию уровня риска.
type OnRiskEscalatedHandler struct {
	cache  student.Cache
	logger *slog.Logger
}

// NewOnRiskEscalatedHandler создаёт новый обработчик эскалаций.
// cache может быть nil - тогда обработчик только логирует.
func NewOnRiskEscalatedHandler(cache student.Cache, logger *slog.Logger) *OnRiskEscalatedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnRiskEscalatedHandler{
		cache:  cache,
		logger: logger.With("handler", "on_risk_escalated"),
	}
}

// Handle обрабатывает событие эскалации.
// Реализует интерфейс shared.EventHandler.
func (h *OnRiskEscalatedHandler) Handle(event shared.Event) error {
	escalation, ok := event.(shared.RiskLevelEscalatedEvent)
	if !ok {
		h.logger.Warn("received non-RiskLevelEscalatedEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	h.logger.Warn("risk level escalated",
		"student_id", escalation.AggregateID(),
		"previous_level", escalation.PreviousLevel,
		"current_level", escalation.CurrentLevel,
	)

	if h.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		sid, err := shared.NewStudentID(escalation.AggregateID())
		if err != nil {
			return nil
		}
		if err := h.cache.Invalidate(ctx, sid); err != nil {
			h.logger.Warn("failed to invalidate profile cache",
				"student_id", escalation.AggregateID(),
				"error", err,
			)
		}
	}

	return nil
}
