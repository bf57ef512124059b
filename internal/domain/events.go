package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// AssignmentCreatedEvent is published when a count assignment is created
type AssignmentCreatedEvent struct {
	AssignmentID  string    `json:"assignmentId"`
	AuditID       string    `json:"auditId"`
	WorkerID      string    `json:"workerId"`
	BranchID      string    `json:"branchId"`
	Zone          string    `json:"zone,omitempty"`
	Strategy      string    `json:"strategy"`
	PositionCount int       `json:"positionCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (e *AssignmentCreatedEvent) EventType() string     { return "wms.stocktake.assignment-created" }
func (e *AssignmentCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// AssignmentStartedEvent is published when counting begins
type AssignmentStartedEvent struct {
	AssignmentID string    `json:"assignmentId"`
	WorkerID     string    `json:"workerId"`
	StartedAt    time.Time `json:"startedAt"`
}

func (e *AssignmentStartedEvent) EventType() string     { return "wms.stocktake.assignment-started" }
func (e *AssignmentStartedEvent) OccurredAt() time.Time { return e.StartedAt }

// CountRecordedEvent is published when a position count is recorded
type CountRecordedEvent struct {
	AssignmentID string    `json:"assignmentId"`
	LineID       string    `json:"lineId"`
	ItemID       string    `json:"itemId"`
	ExpectedQty  int       `json:"expectedQty"`
	ActualQty    int       `json:"actualQty"`
	Variance     int       `json:"variance"`
	CountedBy    string    `json:"countedBy"`
	RecordedAt   time.Time `json:"recordedAt"`
}

func (e *CountRecordedEvent) EventType() string     { return "wms.stocktake.scan-recorded" }
func (e *CountRecordedEvent) OccurredAt() time.Time { return e.RecordedAt }

// DiscrepancyIdentifiedEvent is published when a variance produces a discrepancy
type DiscrepancyIdentifiedEvent struct {
	DiscrepancyID string    `json:"discrepancyId"`
	AssignmentID  string    `json:"assignmentId"`
	LineID        string    `json:"lineId"`
	Type          string    `json:"type"`
	ExpectedQty   int       `json:"expectedQty"`
	ActualQty     int       `json:"actualQty"`
	Variance      int       `json:"variance"`
	IdentifiedAt  time.Time `json:"identifiedAt"`
}

func (e *DiscrepancyIdentifiedEvent) EventType() string     { return "wms.stocktake.discrepancy-identified" }
func (e *DiscrepancyIdentifiedEvent) OccurredAt() time.Time { return e.IdentifiedAt }

// DiscrepancyResolvedEvent is published when a discrepancy leaves pending state
type DiscrepancyResolvedEvent struct {
	DiscrepancyID string    `json:"discrepancyId"`
	AssignmentID  string    `json:"assignmentId"`
	Resolution    string    `json:"resolution"`
	ResolvedBy    string    `json:"resolvedBy"`
	Reason        string    `json:"reason,omitempty"`
	ResolvedAt    time.Time `json:"resolvedAt"`
}

func (e *DiscrepancyResolvedEvent) EventType() string     { return "wms.stocktake.discrepancy-resolved" }
func (e *DiscrepancyResolvedEvent) OccurredAt() time.Time { return e.ResolvedAt }

// AssignmentCompletedEvent is published when an assignment is completed
type AssignmentCompletedEvent struct {
	AssignmentID     string    `json:"assignmentId"`
	AuditID          string    `json:"auditId"`
	WorkerID         string    `json:"workerId"`
	TotalPositions   int       `json:"totalPositions"`
	CountedPositions int       `json:"countedPositions"`
	CompletedAt      time.Time `json:"completedAt"`
}

func (e *AssignmentCompletedEvent) EventType() string     { return "wms.stocktake.assignment-completed" }
func (e *AssignmentCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }

// AssignmentCancelledEvent is published when an assignment is cancelled
type AssignmentCancelledEvent struct {
	AssignmentID string    `json:"assignmentId"`
	Reason       string    `json:"reason,omitempty"`
	CancelledAt  time.Time `json:"cancelledAt"`
}

func (e *AssignmentCancelledEvent) EventType() string     { return "wms.stocktake.assignment-cancelled" }
func (e *AssignmentCancelledEvent) OccurredAt() time.Time { return e.CancelledAt }

// AssignmentReassignedEvent is published when an assignment moves to another worker
type AssignmentReassignedEvent struct {
	AssignmentID     string    `json:"assignmentId"`
	PreviousWorkerID string    `json:"previousWorkerId"`
	NewWorkerID      string    `json:"newWorkerId"`
	Reason           string    `json:"reason,omitempty"`
	ReassignedAt     time.Time `json:"reassignedAt"`
}

func (e *AssignmentReassignedEvent) EventType() string     { return "wms.stocktake.assignment-reassigned" }
func (e *AssignmentReassignedEvent) OccurredAt() time.Time { return e.ReassignedAt }
