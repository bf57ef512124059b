package domain

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors
var (
	ErrNoVariance            = errors.New("no variance: counted quantity matches expected")
	ErrDiscrepancyNotPending = errors.New("discrepancy is already resolved or written off")
)

// DiscrepancyType classifies the direction of a variance.
// Codes are stable and persisted as integers.
type DiscrepancyType int

const (
	DiscrepancyTypeNone     DiscrepancyType = 0
	DiscrepancyTypeSurplus  DiscrepancyType = 1
	DiscrepancyTypeShortage DiscrepancyType = 2
)

// String returns the wire name of the type
func (t DiscrepancyType) String() string {
	switch t {
	case DiscrepancyTypeSurplus:
		return "surplus"
	case DiscrepancyTypeShortage:
		return "shortage"
	default:
		return "none"
	}
}

// ClassifyVariance maps a variance to a discrepancy type
func ClassifyVariance(variance int) DiscrepancyType {
	switch {
	case variance > 0:
		return DiscrepancyTypeSurplus
	case variance < 0:
		return DiscrepancyTypeShortage
	default:
		return DiscrepancyTypeNone
	}
}

// ResolutionStatus represents the lifecycle state of a discrepancy.
// Codes are stable and persisted as integers.
type ResolutionStatus int

const (
	ResolutionStatusPending            ResolutionStatus = 1
	ResolutionStatusResolved           ResolutionStatus = 2
	ResolutionStatusUnderInvestigation ResolutionStatus = 3
	ResolutionStatusWrittenOff         ResolutionStatus = 4
)

// String returns the wire name of the resolution status
func (s ResolutionStatus) String() string {
	switch s {
	case ResolutionStatusPending:
		return "pending"
	case ResolutionStatusResolved:
		return "resolved"
	case ResolutionStatusUnderInvestigation:
		return "under_investigation"
	case ResolutionStatusWrittenOff:
		return "written_off"
	default:
		return "unknown"
	}
}

// ParseResolutionStatus parses a wire name into a resolution status
func ParseResolutionStatus(s string) (ResolutionStatus, error) {
	switch s {
	case "pending":
		return ResolutionStatusPending, nil
	case "resolved":
		return ResolutionStatusResolved, nil
	case "under_investigation":
		return ResolutionStatusUnderInvestigation, nil
	case "written_off":
		return ResolutionStatusWrittenOff, nil
	default:
		return 0, fmt.Errorf("invalid resolution status: %q", s)
	}
}

// Discrepancy records a variance between expected and counted quantities.
// It lives in its own collection and outlives assignment completion as an
// audit trail.
type Discrepancy struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	DiscrepancyID  string             `bson:"discrepancyId"`
	AssignmentID   string             `bson:"assignmentId"`
	LineID         string             `bson:"lineId"`
	ItemPositionID string             `bson:"itemPositionId"`
	ItemID         string             `bson:"itemId"`
	ItemName       string             `bson:"itemName,omitempty"`
	BranchID       string             `bson:"branchId"`
	ExpectedQty    int                `bson:"expectedQty"`
	ActualQty      int                `bson:"actualQty"`
	Variance       int                `bson:"variance"`
	Type           DiscrepancyType    `bson:"type"`
	Resolution     ResolutionStatus   `bson:"resolution"`
	Notes          []string           `bson:"notes,omitempty"`
	IdentifiedAt   time.Time          `bson:"identifiedAt"`
	ResolvedAt     *time.Time         `bson:"resolvedAt,omitempty"`
	ResolvedBy     string             `bson:"resolvedBy,omitempty"`
	DomainEvents   []DomainEvent      `bson:"-"`
}

// NewDiscrepancy creates a discrepancy from a counted line. The line must
// carry a nonzero variance.
func NewDiscrepancy(discrepancyID, branchID string, line *CountLine) (*Discrepancy, error) {
	if !line.IsCounted() {
		return nil, ErrLineNotCounted
	}

	variance := line.Variance()
	dtype := ClassifyVariance(variance)
	if dtype == DiscrepancyTypeNone {
		return nil, ErrNoVariance
	}

	now := time.Now()
	discrepancy := &Discrepancy{
		DiscrepancyID:  discrepancyID,
		AssignmentID:   line.AssignmentID,
		LineID:         line.LineID,
		ItemPositionID: line.ItemPositionID,
		ItemID:         line.ItemID,
		ItemName:       line.ItemName,
		BranchID:       branchID,
		ExpectedQty:    line.ExpectedQty,
		ActualQty:      *line.ActualQty,
		Variance:       variance,
		Type:           dtype,
		Resolution:     ResolutionStatusPending,
		Notes:          make([]string, 0),
		IdentifiedAt:   now,
		DomainEvents:   make([]DomainEvent, 0),
	}

	discrepancy.AddDomainEvent(&DiscrepancyIdentifiedEvent{
		DiscrepancyID: discrepancyID,
		AssignmentID:  line.AssignmentID,
		LineID:        line.LineID,
		Type:          dtype.String(),
		ExpectedQty:   line.ExpectedQty,
		ActualQty:     *line.ActualQty,
		Variance:      variance,
		IdentifiedAt:  now,
	})

	return discrepancy, nil
}

// IsPending reports whether the discrepancy is still awaiting resolution
func (d *Discrepancy) IsPending() bool {
	return d.Resolution == ResolutionStatusPending
}

// AbsoluteVariance returns the magnitude of the variance
func (d *Discrepancy) AbsoluteVariance() int {
	if d.Variance < 0 {
		return -d.Variance
	}
	return d.Variance
}

// AddNote appends a timestamped note. Notes are append-only.
func (d *Discrepancy) AddNote(author, text string) {
	if text == "" {
		return
	}
	stamp := time.Now().UTC().Format(time.RFC3339)
	d.Notes = append(d.Notes, fmt.Sprintf("[%s] %s: %s", stamp, author, text))
}

func (d *Discrepancy) transition(target ResolutionStatus, by, reason string) error {
	if d.Resolution != ResolutionStatusPending {
		return ErrDiscrepancyNotPending
	}

	now := time.Now()
	d.Resolution = target
	d.ResolvedAt = &now
	d.ResolvedBy = by
	if reason != "" {
		d.AddNote(by, reason)
	}

	d.AddDomainEvent(&DiscrepancyResolvedEvent{
		DiscrepancyID: d.DiscrepancyID,
		AssignmentID:  d.AssignmentID,
		Resolution:    target.String(),
		ResolvedBy:    by,
		Reason:        reason,
		ResolvedAt:    now,
	})
	return nil
}

// Resolve marks the discrepancy as resolved
func (d *Discrepancy) Resolve(by, reason string) error {
	return d.transition(ResolutionStatusResolved, by, reason)
}

// MarkForInvestigation flags the discrepancy for investigation
func (d *Discrepancy) MarkForInvestigation(by, reason string) error {
	return d.transition(ResolutionStatusUnderInvestigation, by, reason)
}

// MarkAsWrittenOff writes the discrepancy off
func (d *Discrepancy) MarkAsWrittenOff(by, reason string) error {
	return d.transition(ResolutionStatusWrittenOff, by, reason)
}

// AddDomainEvent adds a domain event
func (d *Discrepancy) AddDomainEvent(event DomainEvent) {
	d.DomainEvents = append(d.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (d *Discrepancy) ClearDomainEvents() {
	d.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (d *Discrepancy) GetDomainEvents() []DomainEvent {
	return d.DomainEvents
}
