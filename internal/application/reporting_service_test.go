package application

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wms-platform/stocktake-service/internal/domain"
	"github.com/xuri/excelize/v2"
)

type reportingFixture struct {
	service       *ReportingService
	assignments   *memAssignmentRepo
	discrepancies *memDiscrepancyRepo
	statistics    *memStatisticsRepo
	assignment    *domain.CountAssignment
}

func newReportingFixture(t *testing.T, lineCount int) *reportingFixture {
	t.Helper()

	lines := make([]domain.CountLine, 0, lineCount)
	for i := 0; i < lineCount; i++ {
		lines = append(lines, domain.CountLine{
			LineID:         newLineID(),
			ItemPositionID: fmt.Sprintf("IP-%03d", i+1),
			ItemID:         fmt.Sprintf("ITEM-%03d", i+1),
			ItemName:       fmt.Sprintf("Item %d", i+1),
			ExpectedQty:    10,
			Position:       domain.PositionCode{Branch: "BR-1", Zone: "ZONE-A", Section: "01", Rack: fmt.Sprintf("%02d", i+1), Level: "1"},
		})
	}
	assignment, err := domain.NewCountAssignment(newAssignmentID(), "AUD-1", "WRK-1", "BR-1", domain.StrategyByQuantity, 5, nil, lines)
	require.NoError(t, err)

	assignments := newMemAssignmentRepo()
	require.NoError(t, assignments.Save(context.Background(), assignment))
	discrepancies := newMemDiscrepancyRepo()
	statistics := newMemStatisticsRepo()

	return &reportingFixture{
		service:       NewReportingService(assignments, discrepancies, statistics, testLogger()),
		assignments:   assignments,
		discrepancies: discrepancies,
		statistics:    statistics,
		assignment:    assignment,
	}
}

func (f *reportingFixture) countLine(t *testing.T, index, qty int) *domain.CountLine {
	t.Helper()
	line, err := f.assignment.RecordCount(f.assignment.Lines[index].LineID, qty, "WRK-1", "")
	require.NoError(t, err)
	require.NoError(t, f.assignments.Save(context.Background(), f.assignment))
	if line.Variance() != 0 {
		discrepancy, err := domain.NewDiscrepancy(newDiscrepancyID(), "BR-1", line)
		require.NoError(t, err)
		require.NoError(t, f.discrepancies.Save(context.Background(), discrepancy))
	}
	return line
}

func TestGetProgress(t *testing.T) {
	f := newReportingFixture(t, 4)
	ctx := context.Background()

	initial, err := f.service.GetProgress(ctx, GetProgressQuery{AssignmentID: f.assignment.AssignmentID})
	require.NoError(t, err)
	assert.Equal(t, 4, initial.TotalPositions)
	assert.Equal(t, 0, initial.CountedPositions)
	assert.Equal(t, 0.0, initial.CompletionPercentage)
	assert.Nil(t, initial.StartedAt)

	f.countLine(t, 0, 10)
	f.countLine(t, 1, 10)

	progress, err := f.service.GetProgress(ctx, GetProgressQuery{AssignmentID: f.assignment.AssignmentID})
	require.NoError(t, err)
	assert.Equal(t, 2, progress.CountedPositions)
	assert.Equal(t, 50.0, progress.CompletionPercentage)
	assert.NotNil(t, progress.StartedAt)
	assert.GreaterOrEqual(t, progress.ElapsedMinutes, 0.0)
	assert.GreaterOrEqual(t, progress.EstimatedMinutesLeft, 0.0)
}

func TestGetProgressElapsedRunsFromStatisticsStart(t *testing.T) {
	f := newReportingFixture(t, 4)
	ctx := context.Background()

	// The statistics start time is fixed at distribution, so elapsed time
	// accrues even while the assignment sits unstarted
	stats := domain.NewCountStatistics(newStatisticsID(), f.assignment.AssignmentID, 4, time.Now().Add(-30*time.Minute))
	require.NoError(t, f.statistics.Save(ctx, stats))

	progress, err := f.service.GetProgress(ctx, GetProgressQuery{AssignmentID: f.assignment.AssignmentID})
	require.NoError(t, err)
	assert.Nil(t, progress.StartedAt)
	assert.GreaterOrEqual(t, progress.ElapsedMinutes, 30.0)
}

func TestGetRecommendations(t *testing.T) {
	t.Run("Stale assignment", func(t *testing.T) {
		f := newReportingFixture(t, 2)
		f.assignment.AssignedAt = time.Now().Add(-5 * time.Hour)
		require.NoError(t, f.assignments.Save(context.Background(), f.assignment))

		recommendations, err := f.service.GetRecommendations(context.Background(), GetRecommendationsQuery{AssignmentID: f.assignment.AssignmentID})
		require.NoError(t, err)
		assert.True(t, hasRecommendation(recommendations, "STALE_ASSIGNMENT"))
	})

	t.Run("High discrepancy rate", func(t *testing.T) {
		f := newReportingFixture(t, 4)
		f.countLine(t, 0, 7)
		f.countLine(t, 1, 6)

		recommendations, err := f.service.GetRecommendations(context.Background(), GetRecommendationsQuery{AssignmentID: f.assignment.AssignmentID})
		require.NoError(t, err)
		assert.True(t, hasRecommendation(recommendations, "HIGH_DISCREPANCY_RATE"))
	})

	t.Run("Missed deadline", func(t *testing.T) {
		f := newReportingFixture(t, 2)
		deadline := time.Now().Add(-time.Minute)
		f.assignment.Deadline = &deadline
		require.NoError(t, f.assignments.Save(context.Background(), f.assignment))

		recommendations, err := f.service.GetRecommendations(context.Background(), GetRecommendationsQuery{AssignmentID: f.assignment.AssignmentID})
		require.NoError(t, err)
		assert.True(t, hasRecommendation(recommendations, "DEADLINE_MISSED"))
	})

	t.Run("Healthy assignment", func(t *testing.T) {
		f := newReportingFixture(t, 2)
		f.countLine(t, 0, 10)

		recommendations, err := f.service.GetRecommendations(context.Background(), GetRecommendationsQuery{AssignmentID: f.assignment.AssignmentID})
		require.NoError(t, err)
		assert.False(t, hasRecommendation(recommendations, "HIGH_DISCREPANCY_RATE"))
		assert.False(t, hasRecommendation(recommendations, "STALE_ASSIGNMENT"))
	})
}

func hasRecommendation(recommendations []RecommendationDTO, code string) bool {
	for _, r := range recommendations {
		if r.Code == code {
			return true
		}
	}
	return false
}

func TestGetPerformance(t *testing.T) {
	f := newReportingFixture(t, 4)
	f.countLine(t, 0, 10)
	f.countLine(t, 1, 10)
	f.countLine(t, 2, 8)
	f.countLine(t, 3, 10)

	require.NoError(t, f.assignment.Complete())
	require.NoError(t, f.assignments.Save(context.Background(), f.assignment))

	performance, err := f.service.GetPerformance(context.Background(), GetPerformanceQuery{AssignmentID: f.assignment.AssignmentID})
	require.NoError(t, err)

	assert.Equal(t, "WRK-1", performance.WorkerID)
	assert.Equal(t, 4, performance.CountedPositions)
	assert.Equal(t, 1, performance.DiscrepancyCount)
	// 1 discrepancy across 4 positions
	assert.Equal(t, 75.0, performance.AccuracyPercentage)
	assert.GreaterOrEqual(t, performance.DurationMinutes, 0.0)
	assert.Greater(t, performance.ItemsPerHour, 0.0)
}

func TestGetPerformanceAccuracyOverAllPositions(t *testing.T) {
	f := newReportingFixture(t, 5)
	f.countLine(t, 0, 8)
	f.countLine(t, 1, 10)

	performance, err := f.service.GetPerformance(context.Background(), GetPerformanceQuery{AssignmentID: f.assignment.AssignmentID})
	require.NoError(t, err)

	assert.Equal(t, 2, performance.CountedPositions)
	assert.Equal(t, 1, performance.DiscrepancyCount)
	// 1 discrepancy across 5 positions, not across the 2 counted so far
	assert.Equal(t, 80.0, performance.AccuracyPercentage)
}

func TestExportResultsCSV(t *testing.T) {
	f := newReportingFixture(t, 3)
	f.countLine(t, 0, 10)
	f.countLine(t, 1, 8)

	export, err := f.service.ExportResults(context.Background(), ExportResultsQuery{
		AssignmentID: f.assignment.AssignmentID,
		Format:       "csv",
	})
	require.NoError(t, err)

	assert.Equal(t, "text/csv", export.ContentType)
	assert.Contains(t, export.FileName, f.assignment.AssignmentID)

	reader := csv.NewReader(bytes.NewReader(export.Data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 6, "line header, three lines, discrepancy header, one discrepancy")
	assert.Equal(t, "lineId", records[0][0])

	// Second line carries the variance
	variance, err := strconv.Atoi(records[2][7])
	require.NoError(t, err)
	assert.Equal(t, -2, variance)

	// The shortage from counting 8 against 10 shows up with its resolution
	assert.Equal(t, "discrepancyId", records[4][0])
	assert.Contains(t, string(export.Data), "shortage")
	assert.Contains(t, string(export.Data), "pending")
	assert.Equal(t, f.assignment.Lines[1].LineID, records[5][1])
}

func TestExportResultsJSON(t *testing.T) {
	f := newReportingFixture(t, 2)
	f.countLine(t, 0, 12)

	export, err := f.service.ExportResults(context.Background(), ExportResultsQuery{
		AssignmentID: f.assignment.AssignmentID,
		Format:       "json",
	})
	require.NoError(t, err)
	assert.Equal(t, "application/json", export.ContentType)

	var report struct {
		Assignment    CountAssignmentDTO `json:"assignment"`
		Discrepancies []DiscrepancyDTO   `json:"discrepancies"`
	}
	require.NoError(t, json.Unmarshal(export.Data, &report))
	assert.Equal(t, f.assignment.AssignmentID, report.Assignment.AssignmentID)
	require.Len(t, report.Discrepancies, 1)
	assert.Equal(t, "surplus", report.Discrepancies[0].Type)
}

func TestExportResultsExcel(t *testing.T) {
	f := newReportingFixture(t, 2)
	f.countLine(t, 0, 8)

	stats := domain.NewCountStatistics(newStatisticsID(), f.assignment.AssignmentID, 2, time.Now())
	all, err := f.discrepancies.FindByAssignmentID(context.Background(), f.assignment.AssignmentID)
	require.NoError(t, err)
	stats.Recalculate(f.assignment.Lines, all)
	require.NoError(t, f.statistics.Save(context.Background(), stats))

	export, err := f.service.ExportResults(context.Background(), ExportResultsQuery{
		AssignmentID: f.assignment.AssignmentID,
		Format:       "xlsx",
	})
	require.NoError(t, err)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.ContentType)

	workbook, err := excelize.OpenReader(bytes.NewReader(export.Data))
	require.NoError(t, err)
	defer workbook.Close()

	assert.Contains(t, workbook.GetSheetList(), "Lines")
	assert.Contains(t, workbook.GetSheetList(), "Discrepancies")
	assert.Contains(t, workbook.GetSheetList(), "Summary")

	rows, err := workbook.GetRows("Lines")
	require.NoError(t, err)
	require.Len(t, rows, 3)
}

func TestExportResultsUnsupportedFormats(t *testing.T) {
	f := newReportingFixture(t, 1)
	ctx := context.Background()

	_, err := f.service.ExportResults(ctx, ExportResultsQuery{AssignmentID: f.assignment.AssignmentID, Format: "pdf"})
	assert.Error(t, err)

	_, err = f.service.ExportResults(ctx, ExportResultsQuery{AssignmentID: f.assignment.AssignmentID, Format: "docx"})
	assert.Error(t, err)
}
