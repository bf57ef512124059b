package application

import (
	"context"
	"fmt"
	"sort"

	"github.com/wms-platform/stocktake-service/internal/domain"
	"github.com/wms-platform/stocktake-service/pkg/errors"
	"github.com/wms-platform/stocktake-service/pkg/logging"
	"github.com/wms-platform/stocktake-service/pkg/metrics"
)

// DistributionService splits the positions of an audit into count
// assignments and hands them out to workers.
type DistributionService struct {
	assignments domain.CountAssignmentRepository
	statistics  domain.CountStatisticsRepository
	catalog     domain.CatalogGateway
	logger      *logging.Logger
	metrics     *metrics.Metrics
}

// NewDistributionService creates a new DistributionService
func NewDistributionService(
	assignments domain.CountAssignmentRepository,
	statistics domain.CountStatisticsRepository,
	catalog domain.CatalogGateway,
	logger *logging.Logger,
	metrics *metrics.Metrics,
) *DistributionService {
	return &DistributionService{
		assignments: assignments,
		statistics:  statistics,
		catalog:     catalog,
		logger:      logger,
		metrics:     metrics,
	}
}

// CreateAndDistribute resolves the requested positions, partitions them
// by the chosen strategy and creates one assignment per worker used.
// When a save fails midway, already created assignments of this run are
// removed so the audit is never left half distributed.
func (s *DistributionService) CreateAndDistribute(ctx context.Context, cmd DistributeCountsCommand) (*DistributionSummaryDTO, error) {
	if len(cmd.ItemPositionIDs) == 0 {
		return nil, errors.ErrValidation("at least one item position is required")
	}
	if len(cmd.WorkerIDs) == 0 {
		return nil, errors.ErrValidation("at least one worker is required")
	}
	if cmd.RequestedWorkers < 0 {
		return nil, errors.ErrValidation("requested worker count must not be negative")
	}

	strategy, err := domain.ParseDistributionStrategy(cmd.Strategy)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	// Zero means use every available worker
	workerIDs := cmd.WorkerIDs
	if cmd.RequestedWorkers > 0 && cmd.RequestedWorkers < len(workerIDs) {
		workerIDs = workerIDs[:cmd.RequestedWorkers]
	}

	positions, err := s.catalog.GetItemPositions(ctx, cmd.ItemPositionIDs)
	if err != nil {
		s.logger.WithError(err).Error("Failed to resolve item positions", "auditId", cmd.AuditID)
		return nil, fmt.Errorf("failed to resolve item positions: %w", err)
	}
	if len(positions) != len(cmd.ItemPositionIDs) {
		return nil, errors.ErrValidation(fmt.Sprintf("only %d of %d item positions could be resolved", len(positions), len(cmd.ItemPositionIDs)))
	}

	chunks := partitionPositions(positions, workerIDs, strategy)

	created := make([]*domain.CountAssignment, 0, len(chunks))
	for i, chunk := range chunks {
		lines := make([]domain.CountLine, 0, len(chunk))
		for _, pos := range chunk {
			lines = append(lines, domain.CountLine{
				LineID:            newLineID(),
				ItemPositionID:    pos.ItemPositionID,
				StoragePositionID: pos.StoragePositionID,
				ItemID:            pos.ItemID,
				ItemName:          pos.ItemName,
				ExpectedQty:       pos.ExpectedQty,
				Position:          pos.Position,
			})
		}

		assignment, err := domain.NewCountAssignment(newAssignmentID(), cmd.AuditID, workerIDs[i], cmd.BranchID, strategy, cmd.Priority, cmd.Deadline, lines)
		if err != nil {
			s.rollback(ctx, created)
			return nil, errors.ErrValidation(err.Error())
		}

		if err := s.assignments.Save(ctx, assignment); err != nil {
			s.logger.WithError(err).Error("Failed to save assignment", "assignmentId", assignment.AssignmentID, "auditId", cmd.AuditID)
			s.rollback(ctx, created)
			return nil, fmt.Errorf("failed to save assignment: %w", err)
		}
		created = append(created, assignment)

		stats := domain.NewCountStatistics(newStatisticsID(), assignment.AssignmentID, len(lines), assignment.AssignedAt)
		if err := s.statistics.Save(ctx, stats); err != nil {
			s.logger.WithError(err).Error("Failed to save statistics", "assignmentId", assignment.AssignmentID)
			s.rollback(ctx, created)
			return nil, fmt.Errorf("failed to save statistics: %w", err)
		}

		s.metrics.RecordAssignmentCreated(strategy.String())
	}

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "stocktake.distributed",
		EntityType: "audit",
		EntityID:   cmd.AuditID,
		Action:     "distributed",
		RelatedIDs: map[string]string{
			"branchId": cmd.BranchID,
			"strategy": strategy.String(),
		},
	})

	return &DistributionSummaryDTO{
		AuditID:        cmd.AuditID,
		BranchID:       cmd.BranchID,
		Strategy:       strategy.String(),
		TotalPositions: len(positions),
		WorkersUsed:    len(chunks),
		Assignments:    ToCountAssignmentDTOs(created),
	}, nil
}

// rollback removes assignments and statistics created by a failed run
func (s *DistributionService) rollback(ctx context.Context, created []*domain.CountAssignment) {
	for _, assignment := range created {
		if err := s.statistics.DeleteByAssignmentID(ctx, assignment.AssignmentID); err != nil {
			s.logger.WithError(err).Error("Failed to roll back statistics", "assignmentId", assignment.AssignmentID)
		}
		if err := s.assignments.Delete(ctx, assignment.AssignmentID); err != nil {
			s.logger.WithError(err).Error("Failed to roll back assignment", "assignmentId", assignment.AssignmentID)
		}
	}
}

// partitionPositions splits positions between workers according to the
// strategy. At most min(workers, positions) chunks are returned and every
// position lands in exactly one chunk.
func partitionPositions(positions []*domain.ItemPosition, workerIDs []string, strategy domain.DistributionStrategy) [][]*domain.ItemPosition {
	workers := len(workerIDs)
	if workers > len(positions) {
		workers = len(positions)
	}

	switch strategy {
	case domain.StrategyByZone:
		return partitionByZone(positions, workers)
	case domain.StrategyByDistance:
		sorted := make([]*domain.ItemPosition, len(positions))
		copy(sorted, positions)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Position.String() < sorted[j].Position.String()
		})
		return chunkContiguous(sorted, workers)
	default:
		return chunkContiguous(positions, workers)
	}
}

// chunkContiguous deals positions into contiguous chunks of ceil(n/workers),
// so 10 positions across 3 workers yields chunks of 4, 4 and 2.
func chunkContiguous(positions []*domain.ItemPosition, workers int) [][]*domain.ItemPosition {
	chunkSize := (len(positions) + workers - 1) / workers

	chunks := make([][]*domain.ItemPosition, 0, workers)
	for start := 0; start < len(positions); start += chunkSize {
		end := start + chunkSize
		if end > len(positions) {
			end = len(positions)
		}
		chunks = append(chunks, positions[start:end])
	}
	return chunks
}

// partitionByZone groups positions by zone and deals whole zones to the
// worker with the fewest lines so far. Largest zones are placed first.
func partitionByZone(positions []*domain.ItemPosition, workers int) [][]*domain.ItemPosition {
	groups := make(map[string][]*domain.ItemPosition)
	zones := make([]string, 0)
	for _, pos := range positions {
		zone := pos.Position.Zone
		if _, ok := groups[zone]; !ok {
			zones = append(zones, zone)
		}
		groups[zone] = append(groups[zone], pos)
	}

	sort.SliceStable(zones, func(i, j int) bool {
		if len(groups[zones[i]]) != len(groups[zones[j]]) {
			return len(groups[zones[i]]) > len(groups[zones[j]])
		}
		return zones[i] < zones[j]
	})

	chunks := make([][]*domain.ItemPosition, workers)
	sizes := make([]int, workers)
	for _, zone := range zones {
		target := 0
		for i := 1; i < workers; i++ {
			if sizes[i] < sizes[target] {
				target = i
			}
		}
		chunks[target] = append(chunks[target], groups[zone]...)
		sizes[target] += len(groups[zone])
	}

	// Drop workers that ended up with nothing (fewer zones than workers)
	result := make([][]*domain.ItemPosition, 0, workers)
	for _, chunk := range chunks {
		if len(chunk) > 0 {
			result = append(result, chunk)
		}
	}
	return result
}
