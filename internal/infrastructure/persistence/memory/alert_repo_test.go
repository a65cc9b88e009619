package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-hub/intervention-hub/internal/domain/assessment"
	"github.com/aura-hub/intervention-hub/internal/domain/notification"
	"github.com/aura-hub/intervention-hub/internal/domain/shared"
)

func testAlert(studentID string, at time.Time) *notification.Alert {
	return &notification.Alert{
		ID:          notification.NewAlertID(),
		Reference:   notification.NewReference(studentID, at),
		StudentID:   studentID,
		StudentName: "Test Student",
		Priority:    notification.PriorityUrgent,
		Subject:     "Academic Risk Alert",
		Body:        "body",
		Recipients:  notification.DefaultRecipients,
		Concerns:    []string{"Critical GPA: 1.50 (Below 2.0)"},
		RiskLevel:   assessment.LevelCritical,
		Status:      notification.StatusGenerated,
		GeneratedAt: at,
	}
}

func TestAlertRepository_SaveAndGet(t *testing.T) {
	repo := NewAlertRepository()
	ctx := context.Background()

	alert := testAlert("S001", time.Now().UTC())
	require.NoError(t, repo.Save(ctx, alert))

	got, err := repo.GetByID(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, alert.StudentID, got.StudentID)
	assert.Equal(t, alert.Subject, got.Subject)

	// The repository hands out copies, not the stored pointer.
	got.Subject = "mutated"
	again, err := repo.GetByID(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, "Academic Risk Alert", again.Subject)
}

func TestAlertRepository_GetByID_NotFound(t *testing.T) {
	repo := NewAlertRepository()

	_, err := repo.GetByID(context.Background(), notification.NewAlertID())
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrAlertNotFound)
}

func TestAlertRepository_SaveReplacesExisting(t *testing.T) {
	repo := NewAlertRepository()
	ctx := context.Background()

	alert := testAlert("S001", time.Now().UTC())
	require.NoError(t, repo.Save(ctx, alert))

	require.NoError(t, alert.MarkQueued())
	require.NoError(t, repo.Save(ctx, alert))

	got, err := repo.GetByID(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, notification.StatusQueued, got.Status)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAlertRepository_ListByStudent_NewestFirst(t *testing.T) {
	repo := NewAlertRepository()
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	older := testAlert("S001", base)
	newer := testAlert("S001", base.Add(24*time.Hour))
	other := testAlert("S002", base.Add(time.Hour))
	require.NoError(t, repo.Save(ctx, older))
	require.NoError(t, repo.Save(ctx, newer))
	require.NoError(t, repo.Save(ctx, other))

	alerts, err := repo.ListByStudent(ctx, "S001")
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, newer.ID, alerts[0].ID)
	assert.Equal(t, older.ID, alerts[1].ID)
}

func TestAlertRepository_ListSince(t *testing.T) {
	repo := NewAlertRepository()
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, testAlert("S001", base)))
	require.NoError(t, repo.Save(ctx, testAlert("S002", base.Add(48*time.Hour))))

	recent, err := repo.ListSince(ctx, base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "S002", recent[0].StudentID)

	all, err := repo.ListSince(ctx, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
