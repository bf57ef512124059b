package domain

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors
var (
	ErrNoLines              = errors.New("assignment must have at least one count line")
	ErrAssignmentCompleted  = errors.New("assignment is already completed")
	ErrAssignmentCancelled  = errors.New("assignment is already cancelled")
	ErrAssignmentNotStarted = errors.New("assignment has not been started")
	ErrLineNotFound         = errors.New("count line not found in assignment")
	ErrNegativeQuantity     = errors.New("invalid quantity: must not be negative")
	ErrLineNotCounted       = errors.New("count line has not been counted")
)

// AssignmentStatus represents the status of a count assignment.
// Codes are stable and persisted as integers.
type AssignmentStatus int

const (
	AssignmentStatusAssigned   AssignmentStatus = 1
	AssignmentStatusInProgress AssignmentStatus = 2
	AssignmentStatusCompleted  AssignmentStatus = 3
	AssignmentStatusCancelled  AssignmentStatus = 4
)

// String returns the wire name of the status
func (s AssignmentStatus) String() string {
	switch s {
	case AssignmentStatusAssigned:
		return "assigned"
	case AssignmentStatusInProgress:
		return "in_progress"
	case AssignmentStatusCompleted:
		return "completed"
	case AssignmentStatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ParseAssignmentStatus parses a wire name into a status code
func ParseAssignmentStatus(s string) (AssignmentStatus, error) {
	switch s {
	case "assigned":
		return AssignmentStatusAssigned, nil
	case "in_progress":
		return AssignmentStatusInProgress, nil
	case "completed":
		return AssignmentStatusCompleted, nil
	case "cancelled":
		return AssignmentStatusCancelled, nil
	default:
		return 0, fmt.Errorf("invalid assignment status: %q", s)
	}
}

// DistributionStrategy determines how item positions are split between workers.
// Codes are stable and persisted as integers.
type DistributionStrategy int

const (
	StrategyByZone     DistributionStrategy = 1
	StrategyByQuantity DistributionStrategy = 2
	StrategyByDistance DistributionStrategy = 3
)

// String returns the wire name of the strategy
func (s DistributionStrategy) String() string {
	switch s {
	case StrategyByZone:
		return "by_zone"
	case StrategyByQuantity:
		return "by_quantity"
	case StrategyByDistance:
		return "by_distance"
	default:
		return "unknown"
	}
}

// ParseDistributionStrategy parses a wire name into a strategy code
func ParseDistributionStrategy(s string) (DistributionStrategy, error) {
	switch s {
	case "by_zone":
		return StrategyByZone, nil
	case "by_quantity":
		return StrategyByQuantity, nil
	case "by_distance":
		return StrategyByDistance, nil
	default:
		return 0, fmt.Errorf("invalid distribution strategy: %q", s)
	}
}

// PositionCode is a snapshot of a storage position's physical address,
// fixed at line creation so later warehouse changes don't rewrite history.
type PositionCode struct {
	Branch  string `bson:"branch" json:"branch"`
	Zone    string `bson:"zone" json:"zone"`
	Section string `bson:"section" json:"section"`
	Rack    string `bson:"rack" json:"rack"`
	Level   string `bson:"level" json:"level"`
}

// String renders the position code in aisle walking order
func (p PositionCode) String() string {
	return fmt.Sprintf("%s-%s-%s-%s-%s", p.Branch, p.Zone, p.Section, p.Rack, p.Level)
}

// CountLine represents a single position to count within an assignment
type CountLine struct {
	LineID            string       `bson:"lineId"`
	AssignmentID      string       `bson:"assignmentId"`
	ItemPositionID    string       `bson:"itemPositionId"`
	StoragePositionID string       `bson:"storagePositionId"`
	ItemID            string       `bson:"itemId"`
	ItemName          string       `bson:"itemName"`
	ExpectedQty       int          `bson:"expectedQty"`
	ActualQty         *int         `bson:"actualQty,omitempty"`
	Position          PositionCode `bson:"position"`
	CountedAt         *time.Time   `bson:"countedAt,omitempty"`
	CountedBy         string       `bson:"countedBy,omitempty"`
	Note              string       `bson:"note,omitempty"`
}

// IsCounted reports whether an actual quantity has been recorded
func (l *CountLine) IsCounted() bool {
	return l.ActualQty != nil
}

// Variance returns actual minus expected, 0 while uncounted
func (l *CountLine) Variance() int {
	if l.ActualQty == nil {
		return 0
	}
	return *l.ActualQty - l.ExpectedQty
}

// CountAssignment is the aggregate root for the stocktake bounded context
type CountAssignment struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	AssignmentID string               `bson:"assignmentId"`
	AuditID      string               `bson:"auditId"`
	WorkerID     string               `bson:"workerId"`
	BranchID     string               `bson:"branchId"`
	Zone         string               `bson:"zone,omitempty"`
	Status       AssignmentStatus     `bson:"status"`
	Strategy     DistributionStrategy `bson:"strategy"`
	Priority     int                  `bson:"priority"`
	Deadline     *time.Time           `bson:"deadline,omitempty"`
	Lines        []CountLine          `bson:"lines"`
	AssignedAt   time.Time            `bson:"assignedAt"`
	StartedAt    *time.Time           `bson:"startedAt,omitempty"`
	CompletedAt  *time.Time           `bson:"completedAt,omitempty"`
	CreatedAt    time.Time            `bson:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt"`
	DomainEvents []DomainEvent        `bson:"-"`
}

// NewCountAssignment creates a new CountAssignment aggregate.
// Lines are attached at construction and never added afterwards.
func NewCountAssignment(assignmentID, auditID, workerID, branchID string, strategy DistributionStrategy, priority int, deadline *time.Time, lines []CountLine) (*CountAssignment, error) {
	if len(lines) == 0 {
		return nil, ErrNoLines
	}

	now := time.Now()
	for i := range lines {
		lines[i].AssignmentID = assignmentID
	}

	// Zone from the first line; mixed-zone assignments keep the dominant entry zone
	zone := lines[0].Position.Zone

	assignment := &CountAssignment{
		AssignmentID: assignmentID,
		AuditID:      auditID,
		WorkerID:     workerID,
		BranchID:     branchID,
		Zone:         zone,
		Status:       AssignmentStatusAssigned,
		Strategy:     strategy,
		Priority:     priority,
		Deadline:     deadline,
		Lines:        lines,
		AssignedAt:   now,
		CreatedAt:    now,
		UpdatedAt:    now,
		DomainEvents: make([]DomainEvent, 0),
	}

	assignment.AddDomainEvent(&AssignmentCreatedEvent{
		AssignmentID:  assignmentID,
		AuditID:       auditID,
		WorkerID:      workerID,
		BranchID:      branchID,
		Zone:          zone,
		Strategy:      strategy.String(),
		PositionCount: len(lines),
		CreatedAt:     now,
	})

	return assignment, nil
}

// IsTerminal reports whether the assignment is in a terminal state
func (a *CountAssignment) IsTerminal() bool {
	return a.Status == AssignmentStatusCompleted || a.Status == AssignmentStatusCancelled
}

// Start marks the assignment as in progress
func (a *CountAssignment) Start() error {
	switch a.Status {
	case AssignmentStatusCompleted:
		return ErrAssignmentCompleted
	case AssignmentStatusCancelled:
		return ErrAssignmentCancelled
	case AssignmentStatusInProgress:
		return nil
	}

	now := time.Now()
	a.Status = AssignmentStatusInProgress
	a.StartedAt = &now
	a.UpdatedAt = now

	a.AddDomainEvent(&AssignmentStartedEvent{
		AssignmentID: a.AssignmentID,
		WorkerID:     a.WorkerID,
		StartedAt:    now,
	})

	return nil
}

// FindLine returns the line with the given ID, or nil
func (a *CountAssignment) FindLine(lineID string) *CountLine {
	for i := range a.Lines {
		if a.Lines[i].LineID == lineID {
			return &a.Lines[i]
		}
	}
	return nil
}

// RecordCount records an actual quantity for a line. A count on an
// assigned-but-not-started assignment starts it implicitly. Recounting
// a line overwrites the previous value.
func (a *CountAssignment) RecordCount(lineID string, actualQty int, countedBy, note string) (*CountLine, error) {
	if a.Status == AssignmentStatusCompleted {
		return nil, ErrAssignmentCompleted
	}
	if a.Status == AssignmentStatusCancelled {
		return nil, ErrAssignmentCancelled
	}
	if actualQty < 0 {
		return nil, ErrNegativeQuantity
	}

	line := a.FindLine(lineID)
	if line == nil {
		return nil, ErrLineNotFound
	}

	if a.Status == AssignmentStatusAssigned {
		if err := a.Start(); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	qty := actualQty
	line.ActualQty = &qty
	line.CountedAt = &now
	line.CountedBy = countedBy
	if note != "" {
		line.Note = note
	}
	a.UpdatedAt = now

	a.AddDomainEvent(&CountRecordedEvent{
		AssignmentID: a.AssignmentID,
		LineID:       lineID,
		ItemID:       line.ItemID,
		ExpectedQty:  line.ExpectedQty,
		ActualQty:    actualQty,
		Variance:     line.Variance(),
		CountedBy:    countedBy,
		RecordedAt:   now,
	})

	return line, nil
}

// ClearCount removes a previously recorded count from a line
func (a *CountAssignment) ClearCount(lineID string) (*CountLine, error) {
	if a.Status == AssignmentStatusCompleted {
		return nil, ErrAssignmentCompleted
	}
	if a.Status == AssignmentStatusCancelled {
		return nil, ErrAssignmentCancelled
	}

	line := a.FindLine(lineID)
	if line == nil {
		return nil, ErrLineNotFound
	}
	if line.ActualQty == nil {
		return nil, ErrLineNotCounted
	}

	line.ActualQty = nil
	line.CountedAt = nil
	line.CountedBy = ""
	line.Note = ""
	a.UpdatedAt = time.Now()

	return line, nil
}

// Complete marks the assignment as completed
func (a *CountAssignment) Complete() error {
	if a.Status == AssignmentStatusCompleted {
		return ErrAssignmentCompleted
	}
	if a.Status == AssignmentStatusCancelled {
		return ErrAssignmentCancelled
	}

	now := time.Now()
	a.Status = AssignmentStatusCompleted
	a.CompletedAt = &now
	a.UpdatedAt = now

	a.AddDomainEvent(&AssignmentCompletedEvent{
		AssignmentID:     a.AssignmentID,
		AuditID:          a.AuditID,
		WorkerID:         a.WorkerID,
		TotalPositions:   len(a.Lines),
		CountedPositions: len(a.CountedLines()),
		CompletedAt:      now,
	})

	return nil
}

// Cancel cancels the assignment
func (a *CountAssignment) Cancel(reason string) error {
	if a.Status == AssignmentStatusCompleted {
		return ErrAssignmentCompleted
	}
	if a.Status == AssignmentStatusCancelled {
		return ErrAssignmentCancelled
	}

	now := time.Now()
	a.Status = AssignmentStatusCancelled
	a.UpdatedAt = now

	a.AddDomainEvent(&AssignmentCancelledEvent{
		AssignmentID: a.AssignmentID,
		Reason:       reason,
		CancelledAt:  now,
	})

	return nil
}

// Reassign hands the assignment to another worker
func (a *CountAssignment) Reassign(newWorkerID, reason string) error {
	if a.Status == AssignmentStatusCompleted {
		return ErrAssignmentCompleted
	}
	if a.Status == AssignmentStatusCancelled {
		return ErrAssignmentCancelled
	}

	now := time.Now()
	previous := a.WorkerID
	a.WorkerID = newWorkerID
	a.UpdatedAt = now

	a.AddDomainEvent(&AssignmentReassignedEvent{
		AssignmentID:     a.AssignmentID,
		PreviousWorkerID: previous,
		NewWorkerID:      newWorkerID,
		Reason:           reason,
		ReassignedAt:     now,
	})

	return nil
}

// CountedLines returns lines that have a recorded count
func (a *CountAssignment) CountedLines() []CountLine {
	counted := make([]CountLine, 0)
	for _, line := range a.Lines {
		if line.IsCounted() {
			counted = append(counted, line)
		}
	}
	return counted
}

// UncountedLines returns lines without a recorded count
func (a *CountAssignment) UncountedLines() []CountLine {
	uncounted := make([]CountLine, 0)
	for _, line := range a.Lines {
		if !line.IsCounted() {
			uncounted = append(uncounted, line)
		}
	}
	return uncounted
}

// GetProgress returns the completion percentage
func (a *CountAssignment) GetProgress() float64 {
	if len(a.Lines) == 0 {
		return 0
	}
	return float64(len(a.CountedLines())) / float64(len(a.Lines)) * 100
}

// AddDomainEvent adds a domain event
func (a *CountAssignment) AddDomainEvent(event DomainEvent) {
	a.DomainEvents = append(a.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (a *CountAssignment) ClearDomainEvents() {
	a.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (a *CountAssignment) GetDomainEvents() []DomainEvent {
	return a.DomainEvents
}
