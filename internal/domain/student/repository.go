package student

import (
	"context"
	"time"

	"github.com/aura-hub/intervention-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с данными учеников.
// Реализации находятся в infrastructure/persistence и infrastructure/source.
// ══════════════════════════════════════════════════════════════════════════════

// Source определяет источник академических атрибутов ученика.
// Реализации: CSV-файл, PostgreSQL, внешняя SIS (Student Information System).
type Source interface {
	// GetProfile возвращает профиль ученика по ID.
	// Возвращает shared.ErrStudentNotFound, если ученик не найден.
	GetProfile(ctx context.Context, id shared.StudentID) (*Profile, error)

	// ListProfiles возвращает все профили источника.
	ListProfiles(ctx context.Context) ([]*Profile, error)
}

// Repository определяет основные операции хранения профилей.
type Repository interface {
	Source

	// Save создаёт или обновляет профиль ученика.
	Save(ctx context.Context, profile *Profile) error

	// Exists проверяет существование ученика по ID.
	Exists(ctx context.Context, id shared.StudentID) (bool, error)

	// Count возвращает общее количество учеников.
	Count(ctx context.Context) (int, error)

	// ListAtRisk возвращает профили, попадающие хотя бы под один фактор риска.
	ListAtRisk(ctx context.Context) ([]*Profile, error)
}

// Cache определяет операции кеширования профилей.
// Обычно реализуется через Redis.
type Cache interface {
	// Get получает профиль из кеша.
	// Возвращает shared.ErrCacheMiss, если записи нет.
	Get(ctx context.Context, id shared.StudentID) (*Profile, error)

	// Set сохраняет профиль в кеш.
	Set(ctx context.Context, profile *Profile, ttl time.Duration) error

	// Invalidate удаляет профиль из кеша.
	Invalidate(ctx context.Context, id shared.StudentID) error
}
