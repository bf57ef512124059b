package cloudevents

import (
	"time"
)

// EventType constants for stocktake domain events
const (
	AssignmentCreated      = "wms.stocktake.assignment-created"
	AssignmentStarted      = "wms.stocktake.assignment-started"
	AssignmentCompleted    = "wms.stocktake.assignment-completed"
	AssignmentCancelled    = "wms.stocktake.assignment-cancelled"
	AssignmentReassigned   = "wms.stocktake.assignment-reassigned"
	ScanRecorded           = "wms.stocktake.scan-recorded"
	DiscrepancyIdentified  = "wms.stocktake.discrepancy-identified"
	DiscrepancyResolved    = "wms.stocktake.discrepancy-resolved"
)

// Source constants for event sources
const (
	SourceStocktake = "/wms/stocktake-service"
)

// WMSCloudEvent represents a CloudEvents v1.0 compliant event
type WMSCloudEvent struct {
	SpecVersion     string                 `json:"specversion"`
	Type            string                 `json:"type"`
	Source          string                 `json:"source"`
	Subject         string                 `json:"subject,omitempty"`
	ID              string                 `json:"id"`
	Time            time.Time              `json:"time"`
	DataContentType string                 `json:"datacontenttype"`
	Data            interface{}            `json:"data"`
	Extensions      map[string]interface{} `json:"-"`

	// WMS-specific extensions
	CorrelationID string `json:"wmscorrelationid,omitempty"`
	BranchID      string `json:"wmsbranchid,omitempty"`
	AuditID       string `json:"wmsauditid,omitempty"`
}

// AssignmentCreatedData represents the data payload for AssignmentCreated
type AssignmentCreatedData struct {
	AssignmentID  string `json:"assignmentId"`
	AuditID       string `json:"auditId"`
	WorkerID      string `json:"workerId"`
	BranchID      string `json:"branchId"`
	Zone          string `json:"zone,omitempty"`
	Strategy      string `json:"strategy"`
	PositionCount int    `json:"positionCount"`
}

// AssignmentStartedData represents the data payload for AssignmentStarted
type AssignmentStartedData struct {
	AssignmentID string    `json:"assignmentId"`
	WorkerID     string    `json:"workerId"`
	StartedAt    time.Time `json:"startedAt"`
}

// ScanRecordedData represents the data payload for ScanRecorded
type ScanRecordedData struct {
	AssignmentID string `json:"assignmentId"`
	LineID       string `json:"lineId"`
	ItemID       string `json:"itemId"`
	ExpectedQty  int    `json:"expectedQty"`
	ActualQty    int    `json:"actualQty"`
	Variance     int    `json:"variance"`
	WorkerID     string `json:"workerId"`
}

// DiscrepancyIdentifiedData represents the data payload for DiscrepancyIdentified
type DiscrepancyIdentifiedData struct {
	DiscrepancyID string `json:"discrepancyId"`
	AssignmentID  string `json:"assignmentId"`
	LineID        string `json:"lineId"`
	Type          string `json:"type"`
	ExpectedQty   int    `json:"expectedQty"`
	ActualQty     int    `json:"actualQty"`
	Variance      int    `json:"variance"`
}

// DiscrepancyResolvedData represents the data payload for DiscrepancyResolved
type DiscrepancyResolvedData struct {
	DiscrepancyID string `json:"discrepancyId"`
	AssignmentID  string `json:"assignmentId"`
	Resolution    string `json:"resolution"`
	ResolvedBy    string `json:"resolvedBy"`
	Reason        string `json:"reason,omitempty"`
}

// AssignmentCompletedData represents the data payload for AssignmentCompleted
type AssignmentCompletedData struct {
	AssignmentID     string    `json:"assignmentId"`
	AuditID          string    `json:"auditId"`
	WorkerID         string    `json:"workerId"`
	TotalPositions   int       `json:"totalPositions"`
	CountedPositions int       `json:"countedPositions"`
	DiscrepancyCount int       `json:"discrepancyCount"`
	CompletedAt      time.Time `json:"completedAt"`
}

// AssignmentCancelledData represents the data payload for AssignmentCancelled
type AssignmentCancelledData struct {
	AssignmentID string `json:"assignmentId"`
	Reason       string `json:"reason,omitempty"`
}

// AssignmentReassignedData represents the data payload for AssignmentReassigned
type AssignmentReassignedData struct {
	AssignmentID     string `json:"assignmentId"`
	PreviousWorkerID string `json:"previousWorkerId"`
	NewWorkerID      string `json:"newWorkerId"`
	Reason           string `json:"reason,omitempty"`
}
