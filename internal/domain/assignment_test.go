package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test fixtures
func createTestLines(n int) []CountLine {
	lines := make([]CountLine, 0, n)
	for i := 0; i < n; i++ {
		lines = append(lines, CountLine{
			LineID:            fmt.Sprintf("LINE-%08d", i+1),
			ItemPositionID:    fmt.Sprintf("IP-%03d", i+1),
			StoragePositionID: fmt.Sprintf("SP-%03d", i+1),
			ItemID:            fmt.Sprintf("ITEM-%03d", i+1),
			ItemName:          fmt.Sprintf("Test Item %d", i+1),
			ExpectedQty:       10,
			Position: PositionCode{
				Branch:  "BR-1",
				Zone:    "ZONE-A",
				Section: "01",
				Rack:    fmt.Sprintf("%02d", i+1),
				Level:   "1",
			},
		})
	}
	return lines
}

func createTestAssignment(t *testing.T) *CountAssignment {
	t.Helper()
	assignment, err := NewCountAssignment("AST-00000001", "AUD-1", "WRK-1", "BR-1", StrategyByQuantity, 5, nil, createTestLines(3))
	require.NoError(t, err)
	return assignment
}

func TestNewCountAssignment(t *testing.T) {
	tests := []struct {
		name        string
		lines       []CountLine
		expectError bool
	}{
		{
			name:        "Valid assignment creation",
			lines:       createTestLines(3),
			expectError: false,
		},
		{
			name:        "Assignment with no lines",
			lines:       []CountLine{},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assignment, err := NewCountAssignment("AST-00000001", "AUD-1", "WRK-1", "BR-1", StrategyByZone, 5, nil, tt.lines)

			if tt.expectError {
				assert.ErrorIs(t, err, ErrNoLines)
				assert.Nil(t, assignment)
			} else {
				require.NoError(t, err)
				require.NotNil(t, assignment)
				assert.Equal(t, "AST-00000001", assignment.AssignmentID)
				assert.Equal(t, "AUD-1", assignment.AuditID)
				assert.Equal(t, "WRK-1", assignment.WorkerID)
				assert.Equal(t, AssignmentStatusAssigned, assignment.Status)
				assert.Equal(t, "ZONE-A", assignment.Zone)
				assert.NotZero(t, assignment.CreatedAt)

				for _, line := range assignment.Lines {
					assert.Equal(t, "AST-00000001", line.AssignmentID)
				}

				events := assignment.GetDomainEvents()
				require.Len(t, events, 1)
				event, ok := events[0].(*AssignmentCreatedEvent)
				require.True(t, ok)
				assert.Equal(t, "AST-00000001", event.AssignmentID)
				assert.Equal(t, len(tt.lines), event.PositionCount)
			}
		})
	}
}

func TestCountAssignmentStart(t *testing.T) {
	tests := []struct {
		name            string
		setupAssignment func(t *testing.T) *CountAssignment
		expectError     error
	}{
		{
			name:            "Start assigned",
			setupAssignment: createTestAssignment,
		},
		{
			name: "Start already in progress is a no-op",
			setupAssignment: func(t *testing.T) *CountAssignment {
				a := createTestAssignment(t)
				require.NoError(t, a.Start())
				return a
			},
		},
		{
			name: "Start completed",
			setupAssignment: func(t *testing.T) *CountAssignment {
				a := createTestAssignment(t)
				require.NoError(t, a.Complete())
				return a
			},
			expectError: ErrAssignmentCompleted,
		},
		{
			name: "Start cancelled",
			setupAssignment: func(t *testing.T) *CountAssignment {
				a := createTestAssignment(t)
				require.NoError(t, a.Cancel("test"))
				return a
			},
			expectError: ErrAssignmentCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assignment := tt.setupAssignment(t)
			err := assignment.Start()

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
			} else {
				require.NoError(t, err)
				assert.Equal(t, AssignmentStatusInProgress, assignment.Status)
				assert.NotNil(t, assignment.StartedAt)
			}
		})
	}
}

func TestCountAssignmentRecordCount(t *testing.T) {
	t.Run("record count on assigned starts the assignment", func(t *testing.T) {
		assignment := createTestAssignment(t)
		lineID := assignment.Lines[0].LineID

		line, err := assignment.RecordCount(lineID, 8, "WRK-1", "")
		require.NoError(t, err)
		require.NotNil(t, line)

		assert.Equal(t, AssignmentStatusInProgress, assignment.Status)
		require.NotNil(t, line.ActualQty)
		assert.Equal(t, 8, *line.ActualQty)
		assert.Equal(t, -2, line.Variance())
		assert.Equal(t, "WRK-1", line.CountedBy)
		assert.NotNil(t, line.CountedAt)
	})

	t.Run("recount overwrites previous value", func(t *testing.T) {
		assignment := createTestAssignment(t)
		lineID := assignment.Lines[0].LineID

		_, err := assignment.RecordCount(lineID, 8, "WRK-1", "")
		require.NoError(t, err)
		line, err := assignment.RecordCount(lineID, 12, "WRK-1", "recount")
		require.NoError(t, err)

		assert.Equal(t, 12, *line.ActualQty)
		assert.Equal(t, 2, line.Variance())
		assert.Equal(t, "recount", line.Note)
	})

	t.Run("negative quantity rejected", func(t *testing.T) {
		assignment := createTestAssignment(t)

		_, err := assignment.RecordCount(assignment.Lines[0].LineID, -1, "WRK-1", "")
		assert.ErrorIs(t, err, ErrNegativeQuantity)
	})

	t.Run("unknown line rejected", func(t *testing.T) {
		assignment := createTestAssignment(t)

		_, err := assignment.RecordCount("LINE-unknown", 5, "WRK-1", "")
		assert.ErrorIs(t, err, ErrLineNotFound)
	})

	t.Run("terminal assignment rejected", func(t *testing.T) {
		assignment := createTestAssignment(t)
		require.NoError(t, assignment.Complete())

		_, err := assignment.RecordCount(assignment.Lines[0].LineID, 5, "WRK-1", "")
		assert.ErrorIs(t, err, ErrAssignmentCompleted)
	})
}

func TestCountAssignmentClearCount(t *testing.T) {
	assignment := createTestAssignment(t)
	lineID := assignment.Lines[0].LineID

	_, err := assignment.ClearCount(lineID)
	assert.ErrorIs(t, err, ErrLineNotCounted)

	_, err = assignment.RecordCount(lineID, 8, "WRK-1", "note")
	require.NoError(t, err)

	line, err := assignment.ClearCount(lineID)
	require.NoError(t, err)
	assert.Nil(t, line.ActualQty)
	assert.Nil(t, line.CountedAt)
	assert.Empty(t, line.CountedBy)
	assert.Empty(t, line.Note)
	assert.Equal(t, 0, line.Variance())
}

func TestCountAssignmentComplete(t *testing.T) {
	t.Run("complete from assigned", func(t *testing.T) {
		assignment := createTestAssignment(t)

		require.NoError(t, assignment.Complete())
		assert.Equal(t, AssignmentStatusCompleted, assignment.Status)
		assert.NotNil(t, assignment.CompletedAt)
		assert.True(t, assignment.IsTerminal())
	})

	t.Run("complete twice", func(t *testing.T) {
		assignment := createTestAssignment(t)
		require.NoError(t, assignment.Complete())

		assert.ErrorIs(t, assignment.Complete(), ErrAssignmentCompleted)
	})

	t.Run("complete after cancel", func(t *testing.T) {
		assignment := createTestAssignment(t)
		require.NoError(t, assignment.Cancel("test"))

		assert.ErrorIs(t, assignment.Complete(), ErrAssignmentCancelled)
	})
}

func TestCountAssignmentCancel(t *testing.T) {
	assignment := createTestAssignment(t)
	require.NoError(t, assignment.Cancel("audit postponed"))
	assert.Equal(t, AssignmentStatusCancelled, assignment.Status)
	assert.True(t, assignment.IsTerminal())

	assert.ErrorIs(t, assignment.Cancel("again"), ErrAssignmentCancelled)

	completed := createTestAssignment(t)
	require.NoError(t, completed.Complete())
	assert.ErrorIs(t, completed.Cancel("too late"), ErrAssignmentCompleted)
}

func TestCountAssignmentReassign(t *testing.T) {
	assignment := createTestAssignment(t)
	require.NoError(t, assignment.Reassign("WRK-2", "shift change"))
	assert.Equal(t, "WRK-2", assignment.WorkerID)

	events := assignment.GetDomainEvents()
	last := events[len(events)-1]
	reassigned, ok := last.(*AssignmentReassignedEvent)
	require.True(t, ok)
	assert.Equal(t, "WRK-1", reassigned.PreviousWorkerID)
	assert.Equal(t, "WRK-2", reassigned.NewWorkerID)

	require.NoError(t, assignment.Complete())
	assert.ErrorIs(t, assignment.Reassign("WRK-3", ""), ErrAssignmentCompleted)
}

func TestCountAssignmentProgress(t *testing.T) {
	assignment := createTestAssignment(t)
	assert.Equal(t, 0.0, assignment.GetProgress())
	assert.Len(t, assignment.UncountedLines(), 3)

	_, err := assignment.RecordCount(assignment.Lines[0].LineID, 10, "WRK-1", "")
	require.NoError(t, err)
	assert.InDelta(t, 100.0/3.0, assignment.GetProgress(), 0.01)
	assert.Len(t, assignment.CountedLines(), 1)
	assert.Len(t, assignment.UncountedLines(), 2)
}

func TestStatusAndStrategyCodes(t *testing.T) {
	assert.Equal(t, "assigned", AssignmentStatusAssigned.String())
	assert.Equal(t, "in_progress", AssignmentStatusInProgress.String())
	assert.Equal(t, "completed", AssignmentStatusCompleted.String())
	assert.Equal(t, "cancelled", AssignmentStatusCancelled.String())

	for _, s := range []AssignmentStatus{AssignmentStatusAssigned, AssignmentStatusInProgress, AssignmentStatusCompleted, AssignmentStatusCancelled} {
		parsed, err := ParseAssignmentStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	_, err := ParseAssignmentStatus("bogus")
	assert.Error(t, err)

	for _, s := range []DistributionStrategy{StrategyByZone, StrategyByQuantity, StrategyByDistance} {
		parsed, err := ParseDistributionStrategy(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	_, err = ParseDistributionStrategy("bogus")
	assert.Error(t, err)
}
