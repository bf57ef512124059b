package application

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wms-platform/stocktake-service/internal/domain"
)

type assignmentFixture struct {
	service       *AssignmentService
	assignments   *memAssignmentRepo
	discrepancies *memDiscrepancyRepo
	statistics    *memStatisticsRepo
}

func newAssignmentFixture() *assignmentFixture {
	assignments := newMemAssignmentRepo()
	discrepancies := newMemDiscrepancyRepo()
	statistics := newMemStatisticsRepo()
	return &assignmentFixture{
		service:       NewAssignmentService(assignments, discrepancies, statistics, testLogger(), testMetrics()),
		assignments:   assignments,
		discrepancies: discrepancies,
		statistics:    statistics,
	}
}

func (f *assignmentFixture) seedAssignment(t *testing.T, auditID, workerID string, lineCount int) *domain.CountAssignment {
	t.Helper()

	lines := make([]domain.CountLine, 0, lineCount)
	for i := 0; i < lineCount; i++ {
		lines = append(lines, domain.CountLine{
			LineID:         newLineID(),
			ItemPositionID: fmt.Sprintf("IP-%03d", i+1),
			ItemID:         fmt.Sprintf("ITEM-%03d", i+1),
			ExpectedQty:    10,
			Position:       domain.PositionCode{Branch: "BR-1", Zone: "ZONE-A", Section: "01", Rack: "01", Level: "1"},
		})
	}

	assignment, err := domain.NewCountAssignment(newAssignmentID(), auditID, workerID, "BR-1", domain.StrategyByQuantity, 5, nil, lines)
	require.NoError(t, err)
	require.NoError(t, f.assignments.Save(context.Background(), assignment))

	stats := domain.NewCountStatistics(newStatisticsID(), assignment.AssignmentID, lineCount, assignment.AssignedAt)
	require.NoError(t, f.statistics.Save(context.Background(), stats))
	return assignment
}

func TestStartAssignment(t *testing.T) {
	f := newAssignmentFixture()
	assignment := f.seedAssignment(t, "AUD-1", "WRK-1", 2)

	dto, err := f.service.StartAssignment(context.Background(), StartAssignmentCommand{
		AssignmentID: assignment.AssignmentID,
		WorkerID:     "WRK-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "in_progress", dto.Status)
	assert.NotNil(t, dto.StartedAt)
}

func TestStartAssignmentWrongWorker(t *testing.T) {
	f := newAssignmentFixture()
	assignment := f.seedAssignment(t, "AUD-1", "WRK-1", 2)

	_, err := f.service.StartAssignment(context.Background(), StartAssignmentCommand{
		AssignmentID: assignment.AssignmentID,
		WorkerID:     "WRK-2",
	})
	assert.Error(t, err)
}

func TestStartAssignmentNotFound(t *testing.T) {
	f := newAssignmentFixture()

	_, err := f.service.StartAssignment(context.Background(), StartAssignmentCommand{AssignmentID: "AST-missing"})
	assert.Error(t, err)
}

func TestCompleteAssignmentReturnsReport(t *testing.T) {
	f := newAssignmentFixture()
	ctx := context.Background()
	assignment := f.seedAssignment(t, "AUD-1", "WRK-1", 2)

	line, err := assignment.RecordCount(assignment.Lines[0].LineID, 8, "WRK-1", "")
	require.NoError(t, err)
	require.NoError(t, f.assignments.Save(ctx, assignment))

	discrepancy, err := domain.NewDiscrepancy(newDiscrepancyID(), "BR-1", line)
	require.NoError(t, err)
	require.NoError(t, f.discrepancies.Save(ctx, discrepancy))

	report, err := f.service.CompleteAssignment(ctx, CompleteAssignmentCommand{
		AssignmentID: assignment.AssignmentID,
		CompletedBy:  "WRK-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "completed", report.Assignment.Status)
	require.Len(t, report.Discrepancies, 1)
	assert.Equal(t, "shortage", report.Discrepancies[0].Type)

	assert.Equal(t, 2, report.Statistics.TotalPositions)
	assert.Equal(t, 1, report.Statistics.CountedPositions)
	assert.Equal(t, 1, report.Statistics.ShortageCount)
	assert.Equal(t, 2, report.Statistics.TotalShortageQty)
	require.NotNil(t, report.Statistics.CompletedAt)
}

func TestCompleteAssignmentTwice(t *testing.T) {
	f := newAssignmentFixture()
	ctx := context.Background()
	assignment := f.seedAssignment(t, "AUD-1", "WRK-1", 1)

	_, err := f.service.CompleteAssignment(ctx, CompleteAssignmentCommand{AssignmentID: assignment.AssignmentID})
	require.NoError(t, err)

	_, err = f.service.CompleteAssignment(ctx, CompleteAssignmentCommand{AssignmentID: assignment.AssignmentID})
	assert.Error(t, err)
}

func TestCancelAssignment(t *testing.T) {
	f := newAssignmentFixture()
	assignment := f.seedAssignment(t, "AUD-1", "WRK-1", 1)

	dto, err := f.service.CancelAssignment(context.Background(), CancelAssignmentCommand{
		AssignmentID: assignment.AssignmentID,
		Reason:       "audit postponed",
	})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", dto.Status)
}

func TestReassignAssignment(t *testing.T) {
	f := newAssignmentFixture()
	assignment := f.seedAssignment(t, "AUD-1", "WRK-1", 1)

	dto, err := f.service.ReassignAssignment(context.Background(), ReassignAssignmentCommand{
		AssignmentID: assignment.AssignmentID,
		NewWorkerID:  "WRK-2",
		Reason:       "shift change",
	})
	require.NoError(t, err)
	assert.Equal(t, "WRK-2", dto.WorkerID)

	_, err = f.service.ReassignAssignment(context.Background(), ReassignAssignmentCommand{
		AssignmentID: assignment.AssignmentID,
	})
	assert.Error(t, err, "missing worker id must be rejected")
}

func TestGetUserAssignments(t *testing.T) {
	f := newAssignmentFixture()
	ctx := context.Background()
	f.seedAssignment(t, "AUD-1", "WRK-1", 1)
	second := f.seedAssignment(t, "AUD-1", "WRK-1", 1)
	f.seedAssignment(t, "AUD-1", "WRK-2", 1)

	require.NoError(t, second.Cancel("test"))
	require.NoError(t, f.assignments.Save(ctx, second))

	all, err := f.service.GetUserAssignments(ctx, GetUserAssignmentsQuery{WorkerID: "WRK-1"})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := f.service.GetUserAssignments(ctx, GetUserAssignmentsQuery{
		WorkerID: "WRK-1",
		Statuses: []string{"assigned", "in_progress"},
	})
	require.NoError(t, err)
	assert.Len(t, active, 1)

	_, err = f.service.GetUserAssignments(ctx, GetUserAssignmentsQuery{WorkerID: "WRK-1", Statuses: []string{"bogus"}})
	assert.Error(t, err)
}

func TestGetActiveAndCompletedAssignments(t *testing.T) {
	f := newAssignmentFixture()
	ctx := context.Background()
	open := f.seedAssignment(t, "AUD-1", "WRK-1", 1)
	done := f.seedAssignment(t, "AUD-1", "WRK-2", 1)

	require.NoError(t, done.Complete())
	require.NoError(t, f.assignments.Save(ctx, done))

	active, err := f.service.GetActiveAssignments(ctx, GetActiveAssignmentsQuery{BranchID: "BR-1"})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, open.AssignmentID, active[0].AssignmentID)

	// The branch filter is optional
	active, err = f.service.GetActiveAssignments(ctx, GetActiveAssignmentsQuery{})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, open.AssignmentID, active[0].AssignmentID)

	completed, err := f.service.GetCompletedAssignments(ctx, GetCompletedAssignmentsQuery{
		BranchID: "BR-1",
		From:     time.Now().Add(-time.Hour),
		To:       time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, done.AssignmentID, completed[0].AssignmentID)

	_, err = f.service.GetCompletedAssignments(ctx, GetCompletedAssignmentsQuery{
		BranchID: "BR-1",
		From:     time.Now(),
		To:       time.Now().Add(-time.Hour),
	})
	assert.Error(t, err, "inverted range must be rejected")
}

func TestGetUncountedItems(t *testing.T) {
	f := newAssignmentFixture()
	ctx := context.Background()
	assignment := f.seedAssignment(t, "AUD-1", "WRK-1", 3)

	_, err := assignment.RecordCount(assignment.Lines[0].LineID, 10, "WRK-1", "")
	require.NoError(t, err)
	require.NoError(t, f.assignments.Save(ctx, assignment))

	uncounted, err := f.service.GetUncountedItems(ctx, GetUncountedItemsQuery{AssignmentID: assignment.AssignmentID})
	require.NoError(t, err)
	assert.Len(t, uncounted, 2)
}

func TestGetStatisticsNotFound(t *testing.T) {
	f := newAssignmentFixture()

	_, err := f.service.GetStatistics(context.Background(), GetStatisticsQuery{AssignmentID: "AST-missing"})
	assert.Error(t, err)
}

func TestGetAuditDetails(t *testing.T) {
	f := newAssignmentFixture()
	ctx := context.Background()
	first := f.seedAssignment(t, "AUD-7", "WRK-1", 2)
	f.seedAssignment(t, "AUD-7", "WRK-2", 2)

	_, err := first.RecordCount(first.Lines[0].LineID, 10, "WRK-1", "")
	require.NoError(t, err)
	require.NoError(t, first.Complete())
	require.NoError(t, f.assignments.Save(ctx, first))

	details, err := f.service.GetAuditDetails(ctx, GetAuditDetailsQuery{AuditID: "AUD-7"})
	require.NoError(t, err)

	assert.Equal(t, 2, details.TotalAssignments)
	assert.Equal(t, 1, details.CompletedAssignments)
	assert.Equal(t, 4, details.TotalPositions)
	assert.Equal(t, 1, details.CountedPositions)
	assert.Equal(t, 25.0, details.CompletionPercentage)

	_, err = f.service.GetAuditDetails(ctx, GetAuditDetailsQuery{AuditID: "AUD-empty"})
	assert.Error(t, err)
}

func TestNewAssignmentPolling(t *testing.T) {
	f := newAssignmentFixture()
	ctx := context.Background()
	f.seedAssignment(t, "AUD-1", "WRK-1", 1)

	fresh, err := f.service.GetNewAssignments(ctx, GetNewAssignmentsQuery{WorkerID: "WRK-1"})
	require.NoError(t, err)
	assert.Len(t, fresh, 1)

	has, err := f.service.HasNewAssignments(ctx, GetNewAssignmentsQuery{WorkerID: "WRK-1"})
	require.NoError(t, err)
	assert.True(t, has)

	has, err = f.service.HasNewAssignments(ctx, GetNewAssignmentsQuery{WorkerID: "WRK-2"})
	require.NoError(t, err)
	assert.False(t, has)

	none, err := f.service.GetNewAssignments(ctx, GetNewAssignmentsQuery{
		WorkerID: "WRK-1",
		Since:    time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Empty(t, none)
}
