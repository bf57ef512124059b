package application

import (
	"context"
	"fmt"
	"time"

	"github.com/wms-platform/stocktake-service/internal/domain"
	"github.com/wms-platform/stocktake-service/pkg/logging"
	"github.com/wms-platform/stocktake-service/pkg/metrics"
)

func testLogger() *logging.Logger {
	cfg := logging.DefaultConfig("stocktake-service-test")
	cfg.Level = logging.LogLevel("error")
	return logging.New(cfg)
}

func testMetrics() *metrics.Metrics {
	return metrics.New(metrics.DefaultConfig("stocktake-service-test"))
}

// memAssignmentRepo is an in-memory CountAssignmentRepository. saveErr and
// deleteLog support failure injection and rollback assertions.
type memAssignmentRepo struct {
	store     map[string]*domain.CountAssignment
	saveErr   func(assignment *domain.CountAssignment) error
	deleteLog []string
}

func newMemAssignmentRepo() *memAssignmentRepo {
	return &memAssignmentRepo{store: make(map[string]*domain.CountAssignment)}
}

func (r *memAssignmentRepo) Save(ctx context.Context, assignment *domain.CountAssignment) error {
	if r.saveErr != nil {
		if err := r.saveErr(assignment); err != nil {
			return err
		}
	}
	assignment.ClearDomainEvents()
	r.store[assignment.AssignmentID] = assignment
	return nil
}

func (r *memAssignmentRepo) FindByID(ctx context.Context, assignmentID string) (*domain.CountAssignment, error) {
	return r.store[assignmentID], nil
}

func (r *memAssignmentRepo) FindByAuditID(ctx context.Context, auditID string) ([]*domain.CountAssignment, error) {
	result := make([]*domain.CountAssignment, 0)
	for _, a := range r.store {
		if a.AuditID == auditID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *memAssignmentRepo) FindByWorkerID(ctx context.Context, workerID string) ([]*domain.CountAssignment, error) {
	result := make([]*domain.CountAssignment, 0)
	for _, a := range r.store {
		if a.WorkerID == workerID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *memAssignmentRepo) FindByWorkerAndStatus(ctx context.Context, workerID string, statuses []domain.AssignmentStatus) ([]*domain.CountAssignment, error) {
	result := make([]*domain.CountAssignment, 0)
	for _, a := range r.store {
		if a.WorkerID != workerID {
			continue
		}
		for _, status := range statuses {
			if a.Status == status {
				result = append(result, a)
				break
			}
		}
	}
	return result, nil
}

func (r *memAssignmentRepo) FindActive(ctx context.Context, branchID string) ([]*domain.CountAssignment, error) {
	result := make([]*domain.CountAssignment, 0)
	for _, a := range r.store {
		if (branchID == "" || a.BranchID == branchID) && !a.IsTerminal() {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *memAssignmentRepo) FindCompletedInRange(ctx context.Context, branchID string, from, to time.Time) ([]*domain.CountAssignment, error) {
	result := make([]*domain.CountAssignment, 0)
	for _, a := range r.store {
		if a.BranchID != branchID || a.CompletedAt == nil {
			continue
		}
		if a.CompletedAt.Before(from) || a.CompletedAt.After(to) {
			continue
		}
		result = append(result, a)
	}
	return result, nil
}

func (r *memAssignmentRepo) FindAssignedSince(ctx context.Context, workerID string, since time.Time) ([]*domain.CountAssignment, error) {
	result := make([]*domain.CountAssignment, 0)
	for _, a := range r.store {
		if a.WorkerID == workerID && a.Status == domain.AssignmentStatusAssigned && !a.AssignedAt.Before(since) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *memAssignmentRepo) Delete(ctx context.Context, assignmentID string) error {
	delete(r.store, assignmentID)
	r.deleteLog = append(r.deleteLog, assignmentID)
	return nil
}

// memDiscrepancyRepo is an in-memory DiscrepancyRepository
type memDiscrepancyRepo struct {
	store map[string]*domain.Discrepancy
}

func newMemDiscrepancyRepo() *memDiscrepancyRepo {
	return &memDiscrepancyRepo{store: make(map[string]*domain.Discrepancy)}
}

func (r *memDiscrepancyRepo) Save(ctx context.Context, discrepancy *domain.Discrepancy) error {
	discrepancy.ClearDomainEvents()
	r.store[discrepancy.DiscrepancyID] = discrepancy
	return nil
}

func (r *memDiscrepancyRepo) FindByID(ctx context.Context, discrepancyID string) (*domain.Discrepancy, error) {
	return r.store[discrepancyID], nil
}

func (r *memDiscrepancyRepo) FindByAssignmentID(ctx context.Context, assignmentID string) ([]*domain.Discrepancy, error) {
	result := make([]*domain.Discrepancy, 0)
	for _, d := range r.store {
		if d.AssignmentID == assignmentID {
			result = append(result, d)
		}
	}
	return result, nil
}

func (r *memDiscrepancyRepo) FindByLineID(ctx context.Context, lineID string) ([]*domain.Discrepancy, error) {
	result := make([]*domain.Discrepancy, 0)
	for _, d := range r.store {
		if d.LineID == lineID {
			result = append(result, d)
		}
	}
	return result, nil
}

func (r *memDiscrepancyRepo) FindPending(ctx context.Context, branchID string) ([]*domain.Discrepancy, error) {
	result := make([]*domain.Discrepancy, 0)
	for _, d := range r.store {
		if (branchID == "" || d.BranchID == branchID) && d.IsPending() {
			result = append(result, d)
		}
	}
	return result, nil
}

func (r *memDiscrepancyRepo) FindByType(ctx context.Context, assignmentID string, dtype domain.DiscrepancyType) ([]*domain.Discrepancy, error) {
	result := make([]*domain.Discrepancy, 0)
	for _, d := range r.store {
		if d.AssignmentID == assignmentID && d.Type == dtype {
			result = append(result, d)
		}
	}
	return result, nil
}

func (r *memDiscrepancyRepo) FindByBranchInRange(ctx context.Context, branchID string, from, to time.Time) ([]*domain.Discrepancy, error) {
	result := make([]*domain.Discrepancy, 0)
	for _, d := range r.store {
		if d.BranchID != branchID {
			continue
		}
		if d.IdentifiedAt.Before(from) || d.IdentifiedAt.After(to) {
			continue
		}
		result = append(result, d)
	}
	return result, nil
}

func (r *memDiscrepancyRepo) Delete(ctx context.Context, discrepancyID string) error {
	delete(r.store, discrepancyID)
	return nil
}

func (r *memDiscrepancyRepo) DeleteByLineID(ctx context.Context, lineID string) error {
	for id, d := range r.store {
		if d.LineID == lineID {
			delete(r.store, id)
		}
	}
	return nil
}

func (r *memDiscrepancyRepo) DeletePendingByLineID(ctx context.Context, lineID string) error {
	for id, d := range r.store {
		if d.LineID == lineID && d.IsPending() {
			delete(r.store, id)
		}
	}
	return nil
}

func (r *memDiscrepancyRepo) DeleteByAssignmentID(ctx context.Context, assignmentID string) error {
	for id, d := range r.store {
		if d.AssignmentID == assignmentID {
			delete(r.store, id)
		}
	}
	return nil
}

// memStatisticsRepo is an in-memory CountStatisticsRepository
type memStatisticsRepo struct {
	store   map[string]*domain.CountStatistics
	saveErr func(stats *domain.CountStatistics) error
}

func newMemStatisticsRepo() *memStatisticsRepo {
	return &memStatisticsRepo{store: make(map[string]*domain.CountStatistics)}
}

func (r *memStatisticsRepo) Save(ctx context.Context, stats *domain.CountStatistics) error {
	if r.saveErr != nil {
		if err := r.saveErr(stats); err != nil {
			return err
		}
	}
	r.store[stats.AssignmentID] = stats
	return nil
}

func (r *memStatisticsRepo) FindByAssignmentID(ctx context.Context, assignmentID string) (*domain.CountStatistics, error) {
	return r.store[assignmentID], nil
}

func (r *memStatisticsRepo) DeleteByAssignmentID(ctx context.Context, assignmentID string) error {
	delete(r.store, assignmentID)
	return nil
}

// stubCatalog resolves item positions from a fixed set
type stubCatalog struct {
	positions map[string]*domain.ItemPosition
	err       error
}

func newStubCatalog(positions ...*domain.ItemPosition) *stubCatalog {
	c := &stubCatalog{positions: make(map[string]*domain.ItemPosition)}
	for _, pos := range positions {
		c.positions[pos.ItemPositionID] = pos
	}
	return c
}

func (c *stubCatalog) GetItemPosition(ctx context.Context, itemPositionID string) (*domain.ItemPosition, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.positions[itemPositionID], nil
}

func (c *stubCatalog) GetItemPositions(ctx context.Context, itemPositionIDs []string) ([]*domain.ItemPosition, error) {
	if c.err != nil {
		return nil, c.err
	}
	result := make([]*domain.ItemPosition, 0, len(itemPositionIDs))
	for _, id := range itemPositionIDs {
		if pos, ok := c.positions[id]; ok {
			result = append(result, pos)
		}
	}
	return result, nil
}

// catalogPositions builds n positions in one zone with the given expected quantity
func catalogPositions(n int, zone string, expectedQty int) []*domain.ItemPosition {
	positions := make([]*domain.ItemPosition, 0, n)
	for i := 0; i < n; i++ {
		positions = append(positions, &domain.ItemPosition{
			ItemPositionID:    fmt.Sprintf("IP-%s-%03d", zone, i+1),
			StoragePositionID: fmt.Sprintf("SP-%s-%03d", zone, i+1),
			ItemID:            fmt.Sprintf("ITEM-%s-%03d", zone, i+1),
			ItemName:          fmt.Sprintf("Item %s %d", zone, i+1),
			ExpectedQty:       expectedQty,
			Position: domain.PositionCode{
				Branch:  "BR-1",
				Zone:    zone,
				Section: "01",
				Rack:    fmt.Sprintf("%02d", i+1),
				Level:   "1",
			},
		})
	}
	return positions
}

func positionIDs(positions []*domain.ItemPosition) []string {
	ids := make([]string, 0, len(positions))
	for _, pos := range positions {
		ids = append(ids, pos.ItemPositionID)
	}
	return ids
}
