package application

import "time"

// CountAssignmentDTO represents a count assignment in responses
type CountAssignmentDTO struct {
	AssignmentID string         `json:"assignmentId"`
	AuditID      string         `json:"auditId"`
	WorkerID     string         `json:"workerId"`
	BranchID     string         `json:"branchId"`
	Zone         string         `json:"zone,omitempty"`
	Status       string         `json:"status"`
	Strategy     string         `json:"strategy"`
	Priority     int            `json:"priority"`
	Deadline     *time.Time     `json:"deadline,omitempty"`
	Lines        []CountLineDTO `json:"lines"`
	Progress     float64        `json:"progress"`
	AssignedAt   time.Time      `json:"assignedAt"`
	StartedAt    *time.Time     `json:"startedAt,omitempty"`
	CompletedAt  *time.Time     `json:"completedAt,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// CountLineDTO represents a single position to count
type CountLineDTO struct {
	LineID            string          `json:"lineId"`
	ItemPositionID    string          `json:"itemPositionId"`
	StoragePositionID string          `json:"storagePositionId"`
	ItemID            string          `json:"itemId"`
	ItemName          string          `json:"itemName,omitempty"`
	ExpectedQty       int             `json:"expectedQty"`
	ActualQty         *int            `json:"actualQty,omitempty"`
	Variance          int             `json:"variance"`
	Counted           bool            `json:"counted"`
	Position          PositionCodeDTO `json:"position"`
	CountedAt         *time.Time      `json:"countedAt,omitempty"`
	CountedBy         string          `json:"countedBy,omitempty"`
	Note              string          `json:"note,omitempty"`
}

// PositionCodeDTO represents a physical storage address
type PositionCodeDTO struct {
	Branch  string `json:"branch"`
	Zone    string `json:"zone"`
	Section string `json:"section"`
	Rack    string `json:"rack"`
	Level   string `json:"level"`
	Code    string `json:"code"`
}

// DiscrepancyDTO represents a discrepancy in responses
type DiscrepancyDTO struct {
	DiscrepancyID  string     `json:"discrepancyId"`
	AssignmentID   string     `json:"assignmentId"`
	LineID         string     `json:"lineId"`
	ItemPositionID string     `json:"itemPositionId"`
	ItemID         string     `json:"itemId"`
	ItemName       string     `json:"itemName,omitempty"`
	BranchID       string     `json:"branchId"`
	ExpectedQty    int        `json:"expectedQty"`
	ActualQty      int        `json:"actualQty"`
	Variance       int        `json:"variance"`
	Type           string     `json:"type"`
	Resolution     string     `json:"resolution"`
	Notes          []string   `json:"notes,omitempty"`
	IdentifiedAt   time.Time  `json:"identifiedAt"`
	ResolvedAt     *time.Time `json:"resolvedAt,omitempty"`
	ResolvedBy     string     `json:"resolvedBy,omitempty"`
}

// StatisticsDTO represents assignment statistics in responses
type StatisticsDTO struct {
	StatisticsID          string     `json:"statisticsId"`
	AssignmentID          string     `json:"assignmentId"`
	TotalPositions        int        `json:"totalPositions"`
	CountedPositions      int        `json:"countedPositions"`
	DiscrepancyCount      int        `json:"discrepancyCount"`
	SurplusCount          int        `json:"surplusCount"`
	ShortageCount         int        `json:"shortageCount"`
	TotalSurplusQty       int        `json:"totalSurplusQty"`
	TotalShortageQty      int        `json:"totalShortageQty"`
	NetVariance           int        `json:"netVariance"`
	CompletionPercentage  float64    `json:"completionPercentage"`
	DiscrepancyPercentage float64    `json:"discrepancyPercentage"`
	StartedAt             time.Time  `json:"startedAt"`
	CompletedAt           *time.Time `json:"completedAt,omitempty"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// DistributionSummaryDTO summarizes a distribution run
type DistributionSummaryDTO struct {
	AuditID        string               `json:"auditId"`
	BranchID       string               `json:"branchId"`
	Strategy       string               `json:"strategy"`
	TotalPositions int                  `json:"totalPositions"`
	WorkersUsed    int                  `json:"workersUsed"`
	Assignments    []CountAssignmentDTO `json:"assignments"`
}

// ScanResultDTO is the outcome of recording a single count
type ScanResultDTO struct {
	AssignmentID string          `json:"assignmentId"`
	Line         CountLineDTO    `json:"line"`
	Variance     int             `json:"variance"`
	Discrepancy  *DiscrepancyDTO `json:"discrepancy,omitempty"`
	Statistics   *StatisticsDTO  `json:"statistics,omitempty"`
}

// ScanValidationDTO is the outcome of a dry-run scan check
type ScanValidationDTO struct {
	Valid           bool   `json:"valid"`
	Reason          string `json:"reason,omitempty"`
	ExpectedQty     int    `json:"expectedQty"`
	Variance        int    `json:"variance"`
	DiscrepancyType string `json:"discrepancyType"`
}

// ProgressDTO reports counting progress for an assignment
type ProgressDTO struct {
	AssignmentID         string     `json:"assignmentId"`
	Status               string     `json:"status"`
	TotalPositions       int        `json:"totalPositions"`
	CountedPositions     int        `json:"countedPositions"`
	CompletionPercentage float64    `json:"completionPercentage"`
	ElapsedMinutes       float64    `json:"elapsedMinutes"`
	EstimatedMinutesLeft float64    `json:"estimatedMinutesLeft"`
	StartedAt            *time.Time `json:"startedAt,omitempty"`
}

// RecommendationDTO is a single optimization hint for an assignment
type RecommendationDTO struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// PerformanceDTO reports worker performance for a completed assignment
type PerformanceDTO struct {
	AssignmentID       string  `json:"assignmentId"`
	WorkerID           string  `json:"workerId"`
	DurationMinutes    float64 `json:"durationMinutes"`
	ItemsPerHour       float64 `json:"itemsPerHour"`
	AccuracyPercentage float64 `json:"accuracyPercentage"`
	CountedPositions   int     `json:"countedPositions"`
	DiscrepancyCount   int     `json:"discrepancyCount"`
}

// DiscrepancyAnalyticsDTO aggregates discrepancies over a branch and period
type DiscrepancyAnalyticsDTO struct {
	BranchID         string         `json:"branchId"`
	From             time.Time      `json:"from"`
	To               time.Time      `json:"to"`
	TotalCount       int            `json:"totalCount"`
	SurplusCount     int            `json:"surplusCount"`
	ShortageCount    int            `json:"shortageCount"`
	PendingCount     int            `json:"pendingCount"`
	ResolvedCount    int            `json:"resolvedCount"`
	NetVariance      int            `json:"netVariance"`
	ByResolution     map[string]int `json:"byResolution"`
	TopItemsByCount  []ItemCountDTO `json:"topItemsByCount"`
	AbsoluteVariance int            `json:"absoluteVariance"`
}

// ItemCountDTO pairs an item with its discrepancy occurrences
type ItemCountDTO struct {
	ItemID string `json:"itemId"`
	Count  int    `json:"count"`
}

// AuditDetailsDTO reports all assignments of one audit with aggregate progress
type AuditDetailsDTO struct {
	AuditID              string               `json:"auditId"`
	TotalAssignments     int                  `json:"totalAssignments"`
	CompletedAssignments int                  `json:"completedAssignments"`
	TotalPositions       int                  `json:"totalPositions"`
	CountedPositions     int                  `json:"countedPositions"`
	CompletionPercentage float64              `json:"completionPercentage"`
	Assignments          []CountAssignmentDTO `json:"assignments"`
}

// CompletionReportDTO is the final report returned on assignment completion
type CompletionReportDTO struct {
	Assignment    CountAssignmentDTO `json:"assignment"`
	Statistics    StatisticsDTO      `json:"statistics"`
	Discrepancies []DiscrepancyDTO   `json:"discrepancies"`
}

// ExportDTO carries an exported results document
type ExportDTO struct {
	AssignmentID string `json:"assignmentId"`
	Format       string `json:"format"`
	FileName     string `json:"fileName"`
	ContentType  string `json:"contentType"`
	Data         []byte `json:"data"`
}
