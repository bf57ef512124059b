package application

import "time"

// DistributeCountsCommand represents the command to create and distribute
// count assignments across workers
type DistributeCountsCommand struct {
	AuditID          string
	BranchID         string
	Strategy         string
	WorkerIDs        []string
	ItemPositionIDs  []string
	RequestedWorkers int
	Priority         int
	Deadline         *time.Time
}

// StartAssignmentCommand represents the command to start counting
type StartAssignmentCommand struct {
	AssignmentID string
	WorkerID     string
}

// RecordScanCommand represents the command to record a count for a position
type RecordScanCommand struct {
	AssignmentID string
	LineID       string
	ActualQty    int
	CountedBy    string
	Note         string
}

// ValidateScanCommand represents the command to validate a scan without recording it
type ValidateScanCommand struct {
	AssignmentID string
	LineID       string
	ActualQty    int
}

// UndoScanCommand represents the command to clear a recorded count
type UndoScanCommand struct {
	AssignmentID string
	LineID       string
}

// SyncStatisticsCommand represents the command to recompute statistics
type SyncStatisticsCommand struct {
	AssignmentID string
}

// CompleteAssignmentCommand represents the command to complete an assignment
type CompleteAssignmentCommand struct {
	AssignmentID string
	CompletedBy  string
}

// CancelAssignmentCommand represents the command to cancel an assignment
type CancelAssignmentCommand struct {
	AssignmentID string
	Reason       string
}

// ReassignAssignmentCommand represents the command to move an assignment to another worker
type ReassignAssignmentCommand struct {
	AssignmentID string
	NewWorkerID  string
	Reason       string
}

// ResolveDiscrepancyCommand represents the command to resolve a discrepancy
type ResolveDiscrepancyCommand struct {
	DiscrepancyID string
	Resolution    string
	ResolvedBy    string
	Reason        string
}

// GetAssignmentQuery represents the query to get an assignment by ID
type GetAssignmentQuery struct {
	AssignmentID string
}

// GetUserAssignmentsQuery represents the query to get a worker's assignments
type GetUserAssignmentsQuery struct {
	WorkerID string
	Statuses []string
}

// GetActiveAssignmentsQuery represents the query to get active assignments for a branch
type GetActiveAssignmentsQuery struct {
	BranchID string
}

// GetCompletedAssignmentsQuery represents the query to get completed assignments in a range
type GetCompletedAssignmentsQuery struct {
	BranchID string
	From     time.Time
	To       time.Time
}

// GetUncountedItemsQuery represents the query to get uncounted positions
type GetUncountedItemsQuery struct {
	AssignmentID string
}

// GetStatisticsQuery represents the query to get assignment statistics
type GetStatisticsQuery struct {
	AssignmentID string
}

// GetAuditDetailsQuery represents the query to get all assignments of an audit
type GetAuditDetailsQuery struct {
	AuditID string
}

// GetNewAssignmentsQuery represents the query to get recently assigned work for a worker
type GetNewAssignmentsQuery struct {
	WorkerID string
	Since    time.Time
}

// GetDiscrepanciesQuery represents the query to get discrepancies for an assignment
type GetDiscrepanciesQuery struct {
	AssignmentID string
	Type         string
}

// GetPendingDiscrepanciesQuery represents the query to get unresolved discrepancies
type GetPendingDiscrepanciesQuery struct {
	BranchID string
}

// GetDiscrepancyAnalyticsQuery represents the query to get discrepancy analytics for a branch
type GetDiscrepancyAnalyticsQuery struct {
	BranchID string
	From     time.Time
	To       time.Time
}

// GetProgressQuery represents the query to get assignment progress
type GetProgressQuery struct {
	AssignmentID string
}

// GetRecommendationsQuery represents the query to get optimization recommendations
type GetRecommendationsQuery struct {
	AssignmentID string
}

// GetPerformanceQuery represents the query to get worker performance metrics
type GetPerformanceQuery struct {
	AssignmentID string
}

// ExportResultsQuery represents the query to export assignment results
type ExportResultsQuery struct {
	AssignmentID string
	Format       string
}
