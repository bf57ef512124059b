package application

import (
	"context"
	stderrors "errors"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/wms-platform/stocktake-service/internal/domain"
	"github.com/wms-platform/stocktake-service/pkg/errors"
	"github.com/wms-platform/stocktake-service/pkg/logging"
	"github.com/wms-platform/stocktake-service/pkg/metrics"
)

// scanLockStripes bounds the lock table so it stays fixed-size no matter
// how many assignments a process has seen
const scanLockStripes = 64

// ScanService processes scans against count assignments. Scans for the
// same assignment are serialized through a striped lock keyed by
// assignment id, so two workers on one assignment cannot interleave
// load-modify-save.
type ScanService struct {
	assignments   domain.CountAssignmentRepository
	discrepancies domain.DiscrepancyRepository
	statistics    domain.CountStatisticsRepository
	logger        *logging.Logger
	metrics       *metrics.Metrics

	locks [scanLockStripes]sync.Mutex
}

// NewScanService creates a new ScanService
func NewScanService(
	assignments domain.CountAssignmentRepository,
	discrepancies domain.DiscrepancyRepository,
	statistics domain.CountStatisticsRepository,
	logger *logging.Logger,
	metrics *metrics.Metrics,
) *ScanService {
	return &ScanService{
		assignments:   assignments,
		discrepancies: discrepancies,
		statistics:    statistics,
		logger:        logger,
		metrics:       metrics,
	}
}

func (s *ScanService) lockFor(assignmentID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(assignmentID))
	return &s.locks[h.Sum32()%scanLockStripes]
}

// ProcessScan records a counted quantity for one line. A nonzero variance
// creates a pending discrepancy; a recount supersedes any pending
// discrepancy from the earlier scan while resolved ones stay as audit
// trail. Statistics are recomputed on every scan.
func (s *ScanService) ProcessScan(ctx context.Context, cmd RecordScanCommand) (*ScanResultDTO, error) {
	lock := s.lockFor(cmd.AssignmentID)
	lock.Lock()
	defer lock.Unlock()

	assignment, err := s.findAssignment(ctx, cmd.AssignmentID)
	if err != nil {
		return nil, err
	}

	line, err := assignment.RecordCount(cmd.LineID, cmd.ActualQty, cmd.CountedBy, cmd.Note)
	if err != nil {
		s.metrics.RecordScanProcessed("rejected")
		return nil, mapDomainErr(err)
	}

	if err := s.assignments.Save(ctx, assignment); err != nil {
		s.logger.WithError(err).Error("Failed to save assignment", "assignmentId", cmd.AssignmentID)
		return nil, fmt.Errorf("failed to save assignment: %w", err)
	}

	// Re-scans replace the pending discrepancy from the previous count
	if err := s.discrepancies.DeletePendingByLineID(ctx, cmd.LineID); err != nil {
		s.logger.WithError(err).Error("Failed to supersede pending discrepancy", "lineId", cmd.LineID)
		return nil, fmt.Errorf("failed to supersede pending discrepancy: %w", err)
	}

	var discrepancyDTO *DiscrepancyDTO
	if line.Variance() != 0 {
		discrepancy, err := domain.NewDiscrepancy(newDiscrepancyID(), assignment.BranchID, line)
		if err != nil {
			return nil, mapDomainErr(err)
		}
		if err := s.discrepancies.Save(ctx, discrepancy); err != nil {
			s.logger.WithError(err).Error("Failed to save discrepancy", "lineId", cmd.LineID)
			return nil, fmt.Errorf("failed to save discrepancy: %w", err)
		}
		s.metrics.RecordDiscrepancyFound(discrepancy.Type.String())
		discrepancyDTO = ToDiscrepancyDTO(discrepancy)
	}

	stats, err := s.recomputeStatistics(ctx, assignment)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordScanProcessed("recorded")
	s.logger.Info("Scan recorded", "assignmentId", cmd.AssignmentID, "lineId", cmd.LineID, "actualQty", cmd.ActualQty, "variance", line.Variance())

	return &ScanResultDTO{
		AssignmentID: assignment.AssignmentID,
		Line:         ToCountLineDTO(line),
		Variance:     line.Variance(),
		Discrepancy:  discrepancyDTO,
		Statistics:   ToStatisticsDTO(stats),
	}, nil
}

// ValidateScan checks a scan without recording anything
func (s *ScanService) ValidateScan(ctx context.Context, cmd ValidateScanCommand) (*ScanValidationDTO, error) {
	assignment, err := s.findAssignment(ctx, cmd.AssignmentID)
	if err != nil {
		return nil, err
	}

	if assignment.IsTerminal() {
		return &ScanValidationDTO{Valid: false, Reason: "assignment is " + assignment.Status.String()}, nil
	}

	line := assignment.FindLine(cmd.LineID)
	if line == nil {
		return &ScanValidationDTO{Valid: false, Reason: "line does not belong to this assignment"}, nil
	}
	if cmd.ActualQty < 0 {
		return &ScanValidationDTO{Valid: false, Reason: "quantity must not be negative", ExpectedQty: line.ExpectedQty}, nil
	}

	variance := cmd.ActualQty - line.ExpectedQty
	return &ScanValidationDTO{
		Valid:           true,
		ExpectedQty:     line.ExpectedQty,
		Variance:        variance,
		DiscrepancyType: domain.ClassifyVariance(variance).String(),
	}, nil
}

// UndoScan clears a recorded count and removes every discrepancy the
// line produced, then recomputes statistics
func (s *ScanService) UndoScan(ctx context.Context, cmd UndoScanCommand) (*ScanResultDTO, error) {
	lock := s.lockFor(cmd.AssignmentID)
	lock.Lock()
	defer lock.Unlock()

	assignment, err := s.findAssignment(ctx, cmd.AssignmentID)
	if err != nil {
		return nil, err
	}

	line, err := assignment.ClearCount(cmd.LineID)
	if err != nil {
		return nil, mapDomainErr(err)
	}

	if err := s.assignments.Save(ctx, assignment); err != nil {
		s.logger.WithError(err).Error("Failed to save assignment", "assignmentId", cmd.AssignmentID)
		return nil, fmt.Errorf("failed to save assignment: %w", err)
	}

	if err := s.discrepancies.DeleteByLineID(ctx, cmd.LineID); err != nil {
		s.logger.WithError(err).Error("Failed to delete line discrepancies", "lineId", cmd.LineID)
		return nil, fmt.Errorf("failed to delete line discrepancies: %w", err)
	}

	stats, err := s.recomputeStatistics(ctx, assignment)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordScanProcessed("undone")
	s.logger.Info("Scan undone", "assignmentId", cmd.AssignmentID, "lineId", cmd.LineID)

	return &ScanResultDTO{
		AssignmentID: assignment.AssignmentID,
		Line:         ToCountLineDTO(line),
		Statistics:   ToStatisticsDTO(stats),
	}, nil
}

// SyncStatistics recomputes statistics for an assignment from its current
// lines and discrepancies
func (s *ScanService) SyncStatistics(ctx context.Context, cmd SyncStatisticsCommand) (*StatisticsDTO, error) {
	lock := s.lockFor(cmd.AssignmentID)
	lock.Lock()
	defer lock.Unlock()

	assignment, err := s.findAssignment(ctx, cmd.AssignmentID)
	if err != nil {
		return nil, err
	}

	stats, err := s.recomputeStatistics(ctx, assignment)
	if err != nil {
		return nil, err
	}
	return ToStatisticsDTO(stats), nil
}

func (s *ScanService) findAssignment(ctx context.Context, assignmentID string) (*domain.CountAssignment, error) {
	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get assignment", "assignmentId", assignmentID)
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment == nil {
		return nil, errors.ErrNotFoundWithID("assignment", assignmentID)
	}
	return assignment, nil
}

func (s *ScanService) recomputeStatistics(ctx context.Context, assignment *domain.CountAssignment) (*domain.CountStatistics, error) {
	discrepancies, err := s.discrepancies.FindByAssignmentID(ctx, assignment.AssignmentID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load discrepancies", "assignmentId", assignment.AssignmentID)
		return nil, fmt.Errorf("failed to load discrepancies: %w", err)
	}

	stats, err := s.statistics.FindByAssignmentID(ctx, assignment.AssignmentID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load statistics", "assignmentId", assignment.AssignmentID)
		return nil, fmt.Errorf("failed to load statistics: %w", err)
	}
	if stats == nil {
		stats = domain.NewCountStatistics(newStatisticsID(), assignment.AssignmentID, len(assignment.Lines), assignment.AssignedAt)
	}

	stats.Recalculate(assignment.Lines, discrepancies)
	if err := s.statistics.Save(ctx, stats); err != nil {
		s.logger.WithError(err).Error("Failed to save statistics", "assignmentId", assignment.AssignmentID)
		return nil, fmt.Errorf("failed to save statistics: %w", err)
	}
	return stats, nil
}

// mapDomainErr converts domain rule violations into API errors. State
// machine conflicts map to 409, the rest to 400.
func mapDomainErr(err error) error {
	switch {
	case stderrors.Is(err, domain.ErrLineNotFound):
		return errors.ErrNotFound("count line")
	case stderrors.Is(err, domain.ErrAssignmentCompleted), stderrors.Is(err, domain.ErrAssignmentCancelled), stderrors.Is(err, domain.ErrDiscrepancyNotPending):
		return errors.ErrConflict(err.Error())
	default:
		return errors.ErrValidation(err.Error())
	}
}
