package progress

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-hub/intervention-hub/internal/domain/assessment"
	"github.com/aura-hub/intervention-hub/internal/domain/shared"
)

// fixedClock returns a ledger whose clock advances by step on every call.
func fixedClock(start time.Time, step time.Duration) func() time.Time {
	current := start
	return func() time.Time {
		t := current
		current = current.Add(step)
		return t
	}
}

func TestTrack_FirstEntry(t *testing.T) {
	ledger := NewLedger()
	ctx := context.Background()

	result, err := ledger.Track(ctx, "S001", "Alice Johnson", assessment.LevelHigh, 0.85, "initial assessment")
	require.NoError(t, err)

	assert.Equal(t, "S001", result.StudentID)
	assert.Equal(t, 1, result.TotalEntries)
	assert.Equal(t, 0, result.DaysTracked)
	assert.Equal(t, TrendNewEntry, result.Trend)
	assert.Equal(t, "First progress entry recorded", result.TrendDescription)
	assert.Equal(t, 0.0, result.ImprovementPct)
}

func TestTrack_EmptyStudentID(t *testing.T) {
	ledger := NewLedger()

	_, err := ledger.Track(context.Background(), "", "", assessment.LevelLow, 0.1, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}

func TestTrack_ImprovingTrend(t *testing.T) {
	ledger := NewLedger()
	ledger.now = fixedClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), 48*time.Hour)
	ctx := context.Background()

	_, err := ledger.Track(ctx, "S001", "Alice", assessment.LevelCritical, 0.95, "")
	require.NoError(t, err)

	result, err := ledger.Track(ctx, "S001", "Alice", assessment.LevelModerate, 0.65, "after tutoring")
	require.NoError(t, err)

	assert.Equal(t, TrendImproving, result.Trend)
	assert.Equal(t, "Risk score decreased by 0.300", result.TrendDescription)
	assert.Equal(t, 2, result.TotalEntries)
	assert.Equal(t, 2, result.DaysTracked)
	// (0.95-0.65)/0.95*100 = 31.578... rounds to 31.6
	assert.InDelta(t, 31.6, result.ImprovementPct, 1e-9)
}

func TestTrack_WorseningTrend(t *testing.T) {
	ledger := NewLedger()
	ctx := context.Background()

	_, err := ledger.Track(ctx, "S002", "Bob", assessment.LevelLow, 0.20, "")
	require.NoError(t, err)

	result, err := ledger.Track(ctx, "S002", "Bob", assessment.LevelHigh, 0.80, "")
	require.NoError(t, err)

	assert.Equal(t, TrendWorsening, result.Trend)
	assert.Equal(t, "Risk score increased by 0.600", result.TrendDescription)
	assert.InDelta(t, -300.0, result.ImprovementPct, 1e-9)
}

func TestTrack_StableWithinBand(t *testing.T) {
	ledger := NewLedger()
	ctx := context.Background()

	_, err := ledger.Track(ctx, "S003", "", assessment.LevelModerate, 0.65, "")
	require.NoError(t, err)

	// A 0.02 drop is inside the stability band, no trend change.
	result, err := ledger.Track(ctx, "S003", "", assessment.LevelModerate, 0.63, "")
	require.NoError(t, err)

	assert.Equal(t, TrendStable, result.Trend)
	assert.Equal(t, "Risk score remains relatively stable", result.TrendDescription)
}

func TestTrack_ZeroFirstScoreYieldsZeroImprovement(t *testing.T) {
	ledger := NewLedger()
	ctx := context.Background()

	_, err := ledger.Track(ctx, "S004", "", assessment.LevelLow, 0.0, "")
	require.NoError(t, err)

	result, err := ledger.Track(ctx, "S004", "", assessment.LevelHigh, 0.80, "")
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.ImprovementPct)
	assert.Equal(t, TrendWorsening, result.Trend)
}

func TestTrack_TrendComparesFirstToLatest(t *testing.T) {
	ledger := NewLedger()
	ctx := context.Background()

	scores := []float64{0.90, 0.20, 0.88}
	var result *TrackResult
	var err error
	for _, s := range scores {
		result, err = ledger.Track(ctx, "S005", "", assessment.LevelHigh, s, "")
		require.NoError(t, err)
	}

	// 0.90 -> 0.88: intermediate dip is invisible to the trend.
	assert.Equal(t, TrendStable, result.Trend)
}

func TestTrack_ReportsPreviousLevel(t *testing.T) {
	ledger := NewLedger()
	ctx := context.Background()

	first, err := ledger.Track(ctx, "S001", "Alice", assessment.LevelLow, 0.2, "")
	require.NoError(t, err)
	assert.Empty(t, first.PreviousLevel)

	second, err := ledger.Track(ctx, "S001", "Alice", assessment.LevelCritical, 0.95, "")
	require.NoError(t, err)
	assert.Equal(t, assessment.LevelLow, second.PreviousLevel)

	third, err := ledger.Track(ctx, "S001", "Alice", assessment.LevelHigh, 0.85, "")
	require.NoError(t, err)
	assert.Equal(t, assessment.LevelCritical, third.PreviousLevel)
}

func TestTrack_PreviousLevelConsistentUnderConcurrency(t *testing.T) {
	ledger := NewLedger()
	ctx := context.Background()

	// Two concurrent appends for the same student: whichever lands second
	// must see the first one's level, never a stale empty value.
	results := make(chan *TrackResult, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := ledger.Track(ctx, "S001", "Alice", assessment.LevelHigh, 0.8, "")
			assert.NoError(t, err)
			results <- r
		}()
	}
	wg.Wait()
	close(results)

	empty := 0
	for r := range results {
		if r.PreviousLevel == "" {
			empty++
		} else {
			assert.Equal(t, assessment.LevelHigh, r.PreviousLevel)
		}
	}
	assert.Equal(t, 1, empty)
}

func TestTimeline_Statistics(t *testing.T) {
	ledger := NewLedger()
	ctx := context.Background()

	entries := []struct {
		level assessment.RiskLevel
		score float64
	}{
		{assessment.LevelCritical, 0.95},
		{assessment.LevelHigh, 0.80},
		{assessment.LevelHigh, 0.82},
		{assessment.LevelModerate, 0.65},
	}
	for _, e := range entries {
		_, err := ledger.Track(ctx, "S001", "Alice", e.level, e.score, "")
		require.NoError(t, err)
	}

	tl, err := ledger.Timeline(ctx, "S001")
	require.NoError(t, err)

	assert.Equal(t, 4, tl.TotalRecords)
	assert.Len(t, tl.History, 4)
	assert.InDelta(t, 0.805, tl.Statistics.AverageRiskScore, 1e-9)
	assert.InDelta(t, 0.65, tl.Statistics.MinimumRiskScore, 1e-9)
	assert.InDelta(t, 0.95, tl.Statistics.MaximumRiskScore, 1e-9)
	assert.Equal(t, map[string]int{
		"CRITICAL": 1,
		"HIGH":     2,
		"MODERATE": 1,
	}, tl.Statistics.LevelDistribution)
}

func TestTimeline_UnknownStudent(t *testing.T) {
	ledger := NewLedger()

	_, err := ledger.Timeline(context.Background(), "NOPE")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	// The message names the offending student so callers can surface it.
	assert.Contains(t, err.Error(), "NOPE")
}

func TestTimeline_ReturnsCopyOfHistory(t *testing.T) {
	ledger := NewLedger()
	ctx := context.Background()

	_, err := ledger.Track(ctx, "S001", "", assessment.LevelLow, 0.1, "original")
	require.NoError(t, err)

	tl, err := ledger.Timeline(ctx, "S001")
	require.NoError(t, err)
	tl.History[0].Notes = "tampered"

	again, err := ledger.Timeline(ctx, "S001")
	require.NoError(t, err)
	assert.Equal(t, "original", again.History[0].Notes)
}

func TestExportVisualization(t *testing.T) {
	ledger := NewLedger()
	ledger.now = fixedClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), 24*time.Hour)
	ctx := context.Background()

	_, err := ledger.Track(ctx, "S001", "Alice", assessment.LevelCritical, 0.95, "start")
	require.NoError(t, err)
	_, err = ledger.Track(ctx, "S001", "Alice", assessment.LevelModerate, 0.65, "recovering")
	require.NoError(t, err)

	viz, err := ledger.ExportVisualization(ctx, "S001", "")
	require.NoError(t, err)

	assert.Equal(t, "json", viz.ExportFormat)
	require.Len(t, viz.Timeline, 2)
	assert.Equal(t, "2026-03-01", viz.Timeline[0].Date)
	assert.Equal(t, "#FF0000", viz.Timeline[0].Color)
	assert.Equal(t, "#FFA500", viz.Timeline[1].Color)

	require.Len(t, viz.Chart.Datasets, 1)
	assert.Equal(t, "Risk Score", viz.Chart.Datasets[0].Label)
	assert.Equal(t, []float64{0.95, 0.65}, viz.Chart.Datasets[0].Data)
	assert.Equal(t, []string{"2026-03-01", "2026-03-02"}, viz.Chart.Labels)
	assert.Equal(t, []string{"CRITICAL", "MODERATE"}, viz.Chart.RiskLevels)
	assert.Equal(t, []string{"#FF0000", "#FFA500"}, viz.Chart.Colors)

	assert.Equal(t, 2, viz.Summary.TotalEntries)
	assert.Equal(t, "2026-03-01", viz.Summary.DateRange.Start)
	assert.Equal(t, "2026-03-02", viz.Summary.DateRange.End)
	assert.Equal(t, assessment.LevelModerate, viz.Summary.CurrentStatus.RiskLevel)
	assert.InDelta(t, 0.65, viz.Summary.CurrentStatus.RiskScore, 1e-9)
}

func TestExportVisualization_UnknownStudent(t *testing.T) {
	ledger := NewLedger()

	_, err := ledger.ExportVisualization(context.Background(), "NOPE", "json")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Contains(t, err.Error(), "NOPE")
}

func TestLevelColor_UnknownLevel(t *testing.T) {
	assert.Equal(t, "#999999", LevelColor(assessment.RiskLevel("???")))
}

func TestCoerceScore(t *testing.T) {
	assert.Equal(t, 0.85, CoerceScore(0.85))
	assert.Equal(t, 0.85, CoerceScore("0.85"))
	assert.Equal(t, 0.85, CoerceScore(" 0.85 "))
	assert.Equal(t, 3.0, CoerceScore(3))
	assert.Equal(t, 0.0, CoerceScore("not a number"))
	assert.Equal(t, 0.0, CoerceScore(nil))
	assert.Equal(t, 0.0, CoerceScore([]string{"x"}))
}

func TestConcurrentTracking(t *testing.T) {
	ledger := NewLedger()
	ctx := context.Background()

	const students = 8
	const perStudent = 25

	var wg sync.WaitGroup
	for i := 0; i < students; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("S%03d", n)
			for j := 0; j < perStudent; j++ {
				_, err := ledger.Track(ctx, id, "", assessment.LevelModerate, 0.65, "")
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, ledger.StudentIDs(), students)
	for _, id := range ledger.StudentIDs() {
		tl, err := ledger.Timeline(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, perStudent, tl.TotalRecords)
	}
}

func TestRestoreAndRecords(t *testing.T) {
	ledger := NewLedger()
	at := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	ledger.Restore(&Record{
		StudentID:   "S009",
		StudentName: "Restored",
		History:     []Entry{NewEntry(at, assessment.LevelHigh, 0.8, "")},
		CreatedAt:   at,
		LastUpdated: at,
	})

	entry, ok := ledger.LatestEntry("S009")
	require.True(t, ok)
	assert.Equal(t, assessment.LevelHigh, entry.RiskLevel)

	records := ledger.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "S009", records[0].StudentID)

	// The snapshot is a deep copy.
	records[0].History[0].Notes = "tampered"
	entry, _ = ledger.LatestEntry("S009")
	assert.Equal(t, "", entry.Notes)
}
