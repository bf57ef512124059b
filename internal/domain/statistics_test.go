package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCountStatistics(t *testing.T) {
	started := time.Now()
	stats := NewCountStatistics("STAT-00000001", "AST-00000001", 3, started)

	assert.Equal(t, "STAT-00000001", stats.StatisticsID)
	assert.Equal(t, "AST-00000001", stats.AssignmentID)
	assert.Equal(t, 3, stats.TotalPositions)
	assert.Equal(t, 0, stats.CountedPositions)
	assert.Equal(t, 0.0, stats.CompletionPercentage())
	assert.False(t, stats.IsComplete())
}

func TestCountStatisticsRecalculate(t *testing.T) {
	// Three positions expecting 5, 10 and 2; counted 5, 8 and 2.
	// The second line is 2 short, the others match.
	assignment, err := NewCountAssignment("AST-00000001", "AUD-1", "WRK-1", "BR-1", StrategyByQuantity, 5, nil, createTestLines(3))
	require.NoError(t, err)

	expected := []int{5, 10, 2}
	counted := []int{5, 8, 2}
	for i := range assignment.Lines {
		assignment.Lines[i].ExpectedQty = expected[i]
	}

	discrepancies := make([]*Discrepancy, 0)
	for i := range assignment.Lines {
		line, err := assignment.RecordCount(assignment.Lines[i].LineID, counted[i], "WRK-1", "")
		require.NoError(t, err)
		if line.Variance() != 0 {
			d, err := NewDiscrepancy("DSC-00000001", "BR-1", line)
			require.NoError(t, err)
			discrepancies = append(discrepancies, d)
		}
	}

	stats := NewCountStatistics("STAT-00000001", "AST-00000001", len(assignment.Lines), time.Now())
	stats.Recalculate(assignment.Lines, discrepancies)

	assert.Equal(t, 3, stats.TotalPositions)
	assert.Equal(t, 3, stats.CountedPositions)
	assert.Equal(t, 1, stats.DiscrepancyCount)
	assert.Equal(t, 0, stats.SurplusCount)
	assert.Equal(t, 1, stats.ShortageCount)
	assert.Equal(t, 0, stats.TotalSurplusQty)
	assert.Equal(t, 2, stats.TotalShortageQty)
	assert.Equal(t, -2, stats.NetVariance())
	assert.Equal(t, 100.0, stats.CompletionPercentage())
	assert.InDelta(t, 100.0/3.0, stats.DiscrepancyPercentage(), 0.01)
	assert.True(t, stats.IsComplete())
}

func TestCountStatisticsRecalculateWithSurplus(t *testing.T) {
	assignment, err := NewCountAssignment("AST-00000001", "AUD-1", "WRK-1", "BR-1", StrategyByQuantity, 5, nil, createTestLines(2))
	require.NoError(t, err)

	line, err := assignment.RecordCount(assignment.Lines[0].LineID, 12, "WRK-1", "")
	require.NoError(t, err)
	require.Equal(t, 2, line.Variance())

	d, err := NewDiscrepancy("DSC-00000001", "BR-1", line)
	require.NoError(t, err)

	stats := NewCountStatistics("STAT-00000001", "AST-00000001", 2, time.Now())
	stats.Recalculate(assignment.Lines, []*Discrepancy{d})

	assert.Equal(t, 1, stats.CountedPositions)
	assert.Equal(t, 1, stats.SurplusCount)
	assert.Equal(t, 2, stats.TotalSurplusQty)
	assert.Equal(t, 2, stats.NetVariance())
	assert.Equal(t, 50.0, stats.CompletionPercentage())
	assert.False(t, stats.IsComplete())
}

func TestCountStatisticsRecalculateIsIdempotent(t *testing.T) {
	assignment, err := NewCountAssignment("AST-00000001", "AUD-1", "WRK-1", "BR-1", StrategyByQuantity, 5, nil, createTestLines(2))
	require.NoError(t, err)

	line, err := assignment.RecordCount(assignment.Lines[0].LineID, 8, "WRK-1", "")
	require.NoError(t, err)
	d, err := NewDiscrepancy("DSC-00000001", "BR-1", line)
	require.NoError(t, err)

	stats := NewCountStatistics("STAT-00000001", "AST-00000001", 2, time.Now())
	stats.Recalculate(assignment.Lines, []*Discrepancy{d})
	stats.Recalculate(assignment.Lines, []*Discrepancy{d})

	assert.Equal(t, 1, stats.ShortageCount)
	assert.Equal(t, 2, stats.TotalShortageQty)
	assert.Equal(t, 1, stats.DiscrepancyCount)

	// Undoing the count drops the counters back to zero
	_, err = assignment.ClearCount(line.LineID)
	require.NoError(t, err)
	stats.Recalculate(assignment.Lines, nil)

	assert.Equal(t, 0, stats.CountedPositions)
	assert.Equal(t, 0, stats.DiscrepancyCount)
	assert.Equal(t, 0, stats.ShortageCount)
	assert.Equal(t, 0, stats.TotalShortageQty)
}

func TestCountStatisticsMarkCompleted(t *testing.T) {
	stats := NewCountStatistics("STAT-00000001", "AST-00000001", 1, time.Now())
	completedAt := time.Now()
	stats.MarkCompleted(completedAt)

	require.NotNil(t, stats.CompletedAt)
	assert.Equal(t, completedAt, *stats.CompletedAt)
}

func TestBoundedPercentage(t *testing.T) {
	assert.Equal(t, 0.0, boundedPercentage(5, 0))
	assert.Equal(t, 100.0, boundedPercentage(7, 5))
	assert.Equal(t, 50.0, boundedPercentage(1, 2))
}
