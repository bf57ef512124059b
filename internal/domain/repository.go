package domain

import (
	"context"
	"time"
)

// CountAssignmentRepository defines the interface for assignment persistence
type CountAssignmentRepository interface {
	Save(ctx context.Context, assignment *CountAssignment) error
	FindByID(ctx context.Context, assignmentID string) (*CountAssignment, error)
	FindByAuditID(ctx context.Context, auditID string) ([]*CountAssignment, error)
	FindByWorkerID(ctx context.Context, workerID string) ([]*CountAssignment, error)
	FindByWorkerAndStatus(ctx context.Context, workerID string, statuses []AssignmentStatus) ([]*CountAssignment, error)
	FindActive(ctx context.Context, branchID string) ([]*CountAssignment, error)
	FindCompletedInRange(ctx context.Context, branchID string, from, to time.Time) ([]*CountAssignment, error)
	FindAssignedSince(ctx context.Context, workerID string, since time.Time) ([]*CountAssignment, error)
	Delete(ctx context.Context, assignmentID string) error
}

// DiscrepancyRepository defines the interface for discrepancy persistence
type DiscrepancyRepository interface {
	Save(ctx context.Context, discrepancy *Discrepancy) error
	FindByID(ctx context.Context, discrepancyID string) (*Discrepancy, error)
	FindByAssignmentID(ctx context.Context, assignmentID string) ([]*Discrepancy, error)
	FindByLineID(ctx context.Context, lineID string) ([]*Discrepancy, error)
	FindPending(ctx context.Context, branchID string) ([]*Discrepancy, error)
	FindByType(ctx context.Context, assignmentID string, dtype DiscrepancyType) ([]*Discrepancy, error)
	FindByBranchInRange(ctx context.Context, branchID string, from, to time.Time) ([]*Discrepancy, error)
	Delete(ctx context.Context, discrepancyID string) error
	DeleteByLineID(ctx context.Context, lineID string) error
	DeletePendingByLineID(ctx context.Context, lineID string) error
	DeleteByAssignmentID(ctx context.Context, assignmentID string) error
}

// CountStatisticsRepository defines the interface for statistics persistence
type CountStatisticsRepository interface {
	Save(ctx context.Context, stats *CountStatistics) error
	FindByAssignmentID(ctx context.Context, assignmentID string) (*CountStatistics, error)
	DeleteByAssignmentID(ctx context.Context, assignmentID string) error
}

// ItemPosition describes a storage position resolved from the catalog
type ItemPosition struct {
	ItemPositionID    string
	StoragePositionID string
	ItemID            string
	ItemName          string
	ExpectedQty       int
	Position          PositionCode
}

// CatalogGateway resolves item positions from the catalog service
type CatalogGateway interface {
	GetItemPosition(ctx context.Context, itemPositionID string) (*ItemPosition, error)
	GetItemPositions(ctx context.Context, itemPositionIDs []string) ([]*ItemPosition, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
	PublishAll(ctx context.Context, events []DomainEvent) error
}
