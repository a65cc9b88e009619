// Package student содержит доменную модель ученика школы K-12.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package student

import (
	"strings"
	"time"

	"github.com/aura-hub/intervention-hub/internal/domain/assessment"
	"github.com/aura-hub/intervention-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Status определяет текущий статус ученика в школе.
type Status string

const (
	// StatusEnrolled - ученик зачислен и активно учится.
	StatusEnrolled Status = "enrolled"
	// StatusTransferred - ученик переведён в другую школу.
	StatusTransferred Status = "transferred"
	// StatusGraduated - ученик успешно закончил школу.
	StatusGraduated Status = "graduated"
	// StatusWithdrawn - ученик отчислен или выбыл.
	StatusWithdrawn Status = "withdrawn"
)

// IsValid проверяет, что статус корректен.
func (s Status) IsValid() bool {
	switch s {
	case StatusEnrolled, StatusTransferred, StatusGraduated, StatusWithdrawn:
		return true
	default:
		return false
	}
}

// IsActive возвращает true, если ученик всё ещё числится в школе.
func (s Status) IsActive() bool {
	return s == StatusEnrolled
}

// CanReceiveNotifications возвращает true, если по ученику можно слать
// уведомления родителям и учителям.
func (s Status) CanReceiveNotifications() bool {
	return s == StatusEnrolled
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// Profile - центральная сущность системы, академический профиль ученика.
// Содержит атрибуты, по которым вычисляется академический риск.
type Profile struct {
	// ID - уникальный идентификатор ученика (например, "S001").
	ID shared.StudentID `json:"student_id"`

	// Name - полное имя ученика.
	Name string `json:"name"`

	// GradeLevel - класс обучения (0-12, где 0 - подготовительный).
	GradeLevel shared.GradeLevel `json:"grade_level"`

	// GPA - средний балл по шкале 0.0-4.0.
	GPA shared.GPA `json:"gpa"`

	// AttendanceRate - посещаемость в процентах (0-100).
	AttendanceRate shared.AttendanceRate `json:"attendance_rate"`

	// PerformanceRating - качественная оценка успеваемости от учителей.
	PerformanceRating assessment.PerformanceRating `json:"overall_performance"`

	// Status - статус зачисления.
	Status Status `json:"enrollment_status"`

	// UpdatedAt - когда профиль последний раз синхронизировался с источником.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProfile создаёт профиль ученика с валидацией идентификатора.
// Отсутствующие атрибуты получают значения по умолчанию (GPA 2.5,
// посещаемость 90%, успеваемость "Average") - так же ведёт себя
// CSV-источник при пропущенных колонках.
func NewProfile(id string, name string, grade int) (*Profile, error) {
	sid, err := shared.NewStudentID(id)
	if err != nil {
		return nil, err
	}

	gradeLevel := shared.GradeLevel(grade)
	if !gradeLevel.IsValid() {
		return nil, shared.ValidationError("student", "NewProfile", "grade_level", "must be between 0 and 12")
	}

	return &Profile{
		ID:                sid,
		Name:              strings.TrimSpace(name),
		GradeLevel:        gradeLevel,
		GPA:               DefaultGPA,
		AttendanceRate:    DefaultAttendanceRate,
		PerformanceRating: DefaultPerformanceRating,
		Status:            StatusEnrolled,
		UpdatedAt:         time.Now().UTC(),
	}, nil
}

// Значения по умолчанию для отсутствующих атрибутов.
const (
	DefaultGPA               shared.GPA                   = 2.5
	DefaultAttendanceRate    shared.AttendanceRate        = 90
	DefaultPerformanceRating assessment.PerformanceRating = assessment.PerformanceAverage
)

// Attributes возвращает срез атрибутов профиля для классификатора риска.
func (p *Profile) Attributes() assessment.Attributes {
	return assessment.Attributes{
		StudentID:         p.ID.String(),
		GPA:               float64(p.GPA),
		AttendanceRate:    float64(p.AttendanceRate),
		PerformanceRating: p.PerformanceRating,
	}
}

// ApplyDefaults заполняет нулевые атрибуты значениями по умолчанию.
// Вызывается источниками данных после чтения неполной записи.
func (p *Profile) ApplyDefaults() {
	if p.GPA == 0 {
		p.GPA = DefaultGPA
	}
	if p.AttendanceRate == 0 {
		p.AttendanceRate = DefaultAttendanceRate
	}
	if p.PerformanceRating == "" {
		p.PerformanceRating = DefaultPerformanceRating
	}
	if p.Status == "" {
		p.Status = StatusEnrolled
	}
}

// IsAtRisk возвращает true, если по текущим атрибутам ученик попадает
// хотя бы под один фактор риска.
func (p *Profile) IsAtRisk() bool {
	return float64(p.GPA) < 3.0 ||
		float64(p.AttendanceRate) < 95 ||
		p.PerformanceRating == assessment.PerformanceBelowAverage ||
		p.PerformanceRating == assessment.PerformanceAverage
}
