package query

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-hub/intervention-hub/internal/domain/assessment"
	"github.com/aura-hub/intervention-hub/internal/domain/progress"
	"github.com/aura-hub/intervention-hub/pkg/logger"
)

func TestSummaryReport_CountsEntriesSeparatelyFromStudents(t *testing.T) {
	log := logger.New(logger.Options{Output: io.Discard, Level: logger.LevelFatal})
	ledger := progress.NewLedger()
	ctx := context.Background()

	// One student with three entries, one with a single entry.
	for _, score := range []float64{0.9, 0.7, 0.5} {
		_, err := ledger.Track(ctx, "S001", "Alice", assessment.LevelHigh, score, "")
		require.NoError(t, err)
	}
	_, err := ledger.Track(ctx, "S002", "Bob", assessment.LevelLow, 0.1, "")
	require.NoError(t, err)

	h := NewSummaryReportHandler(ledger, nil, log)
	report, err := h.Handle(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalStudentsTracked)
	assert.Equal(t, 4, report.ProgressDatabaseSize)
	assert.Equal(t, 0, report.TotalNotificationsSent)
	assert.Equal(t, map[string]int{"HIGH": 1, "LOW": 1}, report.RiskDistribution)
}
