package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/aura-hub/intervention-hub/internal/domain/assessment"
	"github.com/aura-hub/intervention-hub/internal/domain/intervention"
	"github.com/aura-hub/intervention-hub/internal/domain/student"
	"github.com/aura-hub/intervention-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// EMAIL TEMPLATES
// ══════════════════════════════════════════════════════════════════════════════

// template описывает тон и каркас письма для одного уровня риска.
// Шаблоны есть только для MODERATE и выше: ниже порога рассылки письма
// не составляются, а незнакомый уровень получает шаблон MODERATE.
type template struct {
	priority     Priority
	subject      string // с плейсхолдером %s для имени ученика
	greeting     string
	intro        string // с плейсхолдером %s для имени ученика
	tone         string
	callToAction string
}

var templates = map[assessment.RiskLevel]template{
	assessment.LevelCritical: {
		priority:     PriorityUrgent,
		subject:      "⚠️ URGENT: %s - Immediate Academic Support Required",
		greeting:     "Dear Parent/Guardian and Educational Team,",
		intro:        "We are reaching out with urgent concerns about %s's academic performance that require immediate attention and collaborative action.",
		tone:         "urgent and direct",
		callToAction: "Please contact us IMMEDIATELY to schedule an emergency meeting.",
	},
	assessment.LevelHigh: {
		priority:     PriorityHigh,
		subject:      "📋 Action Required: %s - Academic Support Recommended",
		greeting:     "Dear Parent/Guardian and Educational Team,",
		intro:        "We are writing regarding %s's current academic performance and would like to discuss strategies for improvement.",
		tone:         "concerned but supportive",
		callToAction: "Please schedule a meeting with us within the next week to discuss an action plan.",
	},
	assessment.LevelModerate: {
		priority:     PriorityMedium,
		subject:      "📊 Notification: %s - Academic Progress Update",
		greeting:     "Dear Parent/Guardian,",
		intro:        "We wanted to update you on %s's academic progress and share some recommendations for continued success.",
		tone:         "supportive and proactive",
		callToAction: "Please review the recommendations and feel free to reach out with any questions.",
	},
}

// maxEmbeddedActions - сколько пунктов плана попадает в письмо.
const maxEmbeddedActions = 5

// signatureName - подпись в конце письма.
const signatureName = "Aura Hub Academic Support System"

// footerLine - служебная строка в подвале письма.
const footerLine = "This is an automated notification generated by Aura Hub"

// ══════════════════════════════════════════════════════════════════════════════
// COMPOSER
// ══════════════════════════════════════════════════════════════════════════════

// Composer составляет письма-оповещения из результатов оценки риска.
// Чистая функция от своих входов: часы инжектируются для детерминизма.
type Composer struct {
	now func() time.Time
}

// NewComposer создаёт Composer с системными часами.
func NewComposer() *Composer {
	return &Composer{now: timeutil.Now}
}

// NewComposerWithClock создаёт Composer с заданными часами (для тестов).
func NewComposerWithClock(now func() time.Time) *Composer {
	return &Composer{now: now}
}

// Compose составляет оповещение для ученика по результату оценки и плану.
// Незнакомый уровень риска получает шаблон MODERATE - письмо всегда
// составляется, решение о доставке принимает политика рассылки.
func (c *Composer) Compose(profile *student.Profile, a assessment.Assessment, plan intervention.Plan) *Alert {
	tpl, ok := templates[a.RiskLevel]
	if !ok {
		tpl = templates[assessment.LevelModerate]
	}

	at := c.now()
	name := profile.Name
	if name == "" {
		name = "Student"
	}

	concerns := make([]string, len(a.RiskFactors))
	copy(concerns, a.RiskFactors)

	subject := fmt.Sprintf(tpl.subject, name)
	body := c.renderBody(tpl, name, profile, a, plan, at)

	recipients := make([]string, len(DefaultRecipients))
	copy(recipients, DefaultRecipients)

	return &Alert{
		ID:          NewAlertID(),
		Reference:   NewReference(profile.ID.String(), at),
		StudentID:   profile.ID.String(),
		StudentName: name,
		Priority:    tpl.priority,
		Subject:     subject,
		Body:        body,
		Recipients:  recipients,
		Concerns:    concerns,
		RiskLevel:   a.RiskLevel,
		Status:      StatusGenerated,
		GeneratedAt: at,
	}
}

// renderBody строит многосекционное тело письма фиксированного формата.
func (c *Composer) renderBody(tpl template, name string, profile *student.Profile, a assessment.Assessment, plan intervention.Plan, at time.Time) string {
	var b strings.Builder

	b.WriteString(tpl.greeting)
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf(tpl.intro, name))
	b.WriteString("\n\n")

	b.WriteString("STUDENT INFORMATION:\n")
	fmt.Fprintf(&b, "• Name: %s\n", name)
	fmt.Fprintf(&b, "• Student ID: %s\n", profile.ID)
	fmt.Fprintf(&b, "• Grade Level: %d\n", profile.GradeLevel.Int())
	fmt.Fprintf(&b, "• Current GPA: %.2f\n", profile.GPA.Float64())
	fmt.Fprintf(&b, "• Attendance Rate: %.1f%%\n", profile.AttendanceRate.Float64())

	b.WriteString("\nAREAS OF CONCERN:\n")
	for i, concern := range a.RiskFactors {
		fmt.Fprintf(&b, "%d. %s\n", i+1, concern)
	}

	b.WriteString("\nRISK ASSESSMENT:\n")
	fmt.Fprintf(&b, "• Risk Level: %s\n", a.RiskLevel)
	fmt.Fprintf(&b, "• Risk Score: %.3f\n", a.RiskScore)
	fmt.Fprintf(&b, "• Assessment Date: %s\n", timeutil.ReportDate(at))

	b.WriteString("\nRECOMMENDED INTERVENTION:\n")
	fmt.Fprintf(&b, "• Type: %s\n", plan.Type)
	fmt.Fprintf(&b, "• Duration: %d weeks\n", plan.DurationWeeks)
	fmt.Fprintf(&b, "• Frequency: %s\n", plan.Frequency)

	b.WriteString("\nKEY ACTIONS:\n")
	actions := plan.Actions
	if len(actions) > maxEmbeddedActions {
		actions = actions[:maxEmbeddedActions]
	}
	for i, action := range actions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, action)
	}

	b.WriteString("\nNEXT STEPS:\n")
	b.WriteString(tpl.callToAction)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "We are committed to supporting %s's academic success and appreciate your partnership in this important work.\n\n", name)
	b.WriteString("Sincerely,\n")
	b.WriteString(signatureName)
	b.WriteString("\n\n---\n")
	b.WriteString(footerLine)
	b.WriteString("\nFor questions, please contact your school's academic support team.\n")

	return b.String()
}

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCH POLICY
// ══════════════════════════════════════════════════════════════════════════════

// Policy определяет, для каких уровней риска оповещения отправляются.
type Policy struct {
	// MinLevel - минимальный уровень риска для рассылки.
	MinLevel assessment.RiskLevel
}

// DefaultPolicy возвращает стандартную политику: рассылка от MODERATE и выше.
func DefaultPolicy() Policy {
	return Policy{MinLevel: assessment.LevelModerate}
}

// ShouldNotify возвращает true, если для данного уровня риска нужно
// отправлять оповещение.
func (p Policy) ShouldNotify(level assessment.RiskLevel) bool {
	return level.AtLeast(p.MinLevel)
}
