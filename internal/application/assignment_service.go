package application

import (
	"context"
	"fmt"
	"time"

	"github.com/wms-platform/stocktake-service/internal/domain"
	"github.com/wms-platform/stocktake-service/pkg/errors"
	"github.com/wms-platform/stocktake-service/pkg/logging"
	"github.com/wms-platform/stocktake-service/pkg/metrics"
)

// AssignmentService handles the count assignment lifecycle and queries
type AssignmentService struct {
	assignments   domain.CountAssignmentRepository
	discrepancies domain.DiscrepancyRepository
	statistics    domain.CountStatisticsRepository
	logger        *logging.Logger
	metrics       *metrics.Metrics
}

// NewAssignmentService creates a new AssignmentService
func NewAssignmentService(
	assignments domain.CountAssignmentRepository,
	discrepancies domain.DiscrepancyRepository,
	statistics domain.CountStatisticsRepository,
	logger *logging.Logger,
	metrics *metrics.Metrics,
) *AssignmentService {
	return &AssignmentService{
		assignments:   assignments,
		discrepancies: discrepancies,
		statistics:    statistics,
		logger:        logger,
		metrics:       metrics,
	}
}

// StartAssignment marks an assignment as in progress
func (s *AssignmentService) StartAssignment(ctx context.Context, cmd StartAssignmentCommand) (*CountAssignmentDTO, error) {
	assignment, err := s.findAssignment(ctx, cmd.AssignmentID)
	if err != nil {
		return nil, err
	}

	if cmd.WorkerID != "" && cmd.WorkerID != assignment.WorkerID {
		return nil, errors.ErrForbidden("assignment belongs to another worker")
	}

	if err := assignment.Start(); err != nil {
		return nil, mapDomainErr(err)
	}

	if err := s.assignments.Save(ctx, assignment); err != nil {
		s.logger.WithError(err).Error("Failed to save assignment", "assignmentId", cmd.AssignmentID)
		return nil, fmt.Errorf("failed to save assignment: %w", err)
	}

	s.logger.Info("Assignment started", "assignmentId", cmd.AssignmentID, "workerId", assignment.WorkerID)
	return ToCountAssignmentDTO(assignment), nil
}

// CompleteAssignment completes an assignment and returns the final report
// with closing statistics and every discrepancy found during the count
func (s *AssignmentService) CompleteAssignment(ctx context.Context, cmd CompleteAssignmentCommand) (*CompletionReportDTO, error) {
	assignment, err := s.findAssignment(ctx, cmd.AssignmentID)
	if err != nil {
		return nil, err
	}

	if err := assignment.Complete(); err != nil {
		return nil, mapDomainErr(err)
	}

	if err := s.assignments.Save(ctx, assignment); err != nil {
		s.logger.WithError(err).Error("Failed to save assignment", "assignmentId", cmd.AssignmentID)
		return nil, fmt.Errorf("failed to save assignment: %w", err)
	}

	discrepancies, err := s.discrepancies.FindByAssignmentID(ctx, cmd.AssignmentID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load discrepancies", "assignmentId", cmd.AssignmentID)
		return nil, fmt.Errorf("failed to load discrepancies: %w", err)
	}

	stats, err := s.statistics.FindByAssignmentID(ctx, cmd.AssignmentID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load statistics", "assignmentId", cmd.AssignmentID)
		return nil, fmt.Errorf("failed to load statistics: %w", err)
	}
	if stats == nil {
		stats = domain.NewCountStatistics(newStatisticsID(), cmd.AssignmentID, len(assignment.Lines), assignment.AssignedAt)
	}
	stats.Recalculate(assignment.Lines, discrepancies)
	stats.MarkCompleted(*assignment.CompletedAt)
	if err := s.statistics.Save(ctx, stats); err != nil {
		s.logger.WithError(err).Error("Failed to save statistics", "assignmentId", cmd.AssignmentID)
		return nil, fmt.Errorf("failed to save statistics: %w", err)
	}

	s.metrics.RecordAssignmentCompleted(assignment.BranchID)
	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "stocktake.completed",
		EntityType: "assignment",
		EntityID:   cmd.AssignmentID,
		Action:     "completed",
		RelatedIDs: map[string]string{
			"auditId":  assignment.AuditID,
			"workerId": assignment.WorkerID,
		},
	})

	return &CompletionReportDTO{
		Assignment:    *ToCountAssignmentDTO(assignment),
		Statistics:    *ToStatisticsDTO(stats),
		Discrepancies: ToDiscrepancyDTOs(discrepancies),
	}, nil
}

// CancelAssignment cancels an assignment
func (s *AssignmentService) CancelAssignment(ctx context.Context, cmd CancelAssignmentCommand) (*CountAssignmentDTO, error) {
	assignment, err := s.findAssignment(ctx, cmd.AssignmentID)
	if err != nil {
		return nil, err
	}

	if err := assignment.Cancel(cmd.Reason); err != nil {
		return nil, mapDomainErr(err)
	}

	if err := s.assignments.Save(ctx, assignment); err != nil {
		s.logger.WithError(err).Error("Failed to save assignment", "assignmentId", cmd.AssignmentID)
		return nil, fmt.Errorf("failed to save assignment: %w", err)
	}

	s.logger.Info("Assignment cancelled", "assignmentId", cmd.AssignmentID, "reason", cmd.Reason)
	return ToCountAssignmentDTO(assignment), nil
}

// ReassignAssignment hands an assignment to another worker
func (s *AssignmentService) ReassignAssignment(ctx context.Context, cmd ReassignAssignmentCommand) (*CountAssignmentDTO, error) {
	if cmd.NewWorkerID == "" {
		return nil, errors.ErrValidation("new worker id is required")
	}

	assignment, err := s.findAssignment(ctx, cmd.AssignmentID)
	if err != nil {
		return nil, err
	}

	if err := assignment.Reassign(cmd.NewWorkerID, cmd.Reason); err != nil {
		return nil, mapDomainErr(err)
	}

	if err := s.assignments.Save(ctx, assignment); err != nil {
		s.logger.WithError(err).Error("Failed to save assignment", "assignmentId", cmd.AssignmentID)
		return nil, fmt.Errorf("failed to save assignment: %w", err)
	}

	s.logger.Info("Assignment reassigned", "assignmentId", cmd.AssignmentID, "newWorkerId", cmd.NewWorkerID)
	return ToCountAssignmentDTO(assignment), nil
}

// GetAssignment retrieves an assignment by ID
func (s *AssignmentService) GetAssignment(ctx context.Context, query GetAssignmentQuery) (*CountAssignmentDTO, error) {
	assignment, err := s.findAssignment(ctx, query.AssignmentID)
	if err != nil {
		return nil, err
	}
	return ToCountAssignmentDTO(assignment), nil
}

// GetUserAssignments retrieves a worker's assignments, optionally filtered
// by status
func (s *AssignmentService) GetUserAssignments(ctx context.Context, query GetUserAssignmentsQuery) ([]CountAssignmentDTO, error) {
	if len(query.Statuses) == 0 {
		assignments, err := s.assignments.FindByWorkerID(ctx, query.WorkerID)
		if err != nil {
			s.logger.WithError(err).Error("Failed to get worker assignments", "workerId", query.WorkerID)
			return nil, fmt.Errorf("failed to get worker assignments: %w", err)
		}
		return ToCountAssignmentDTOs(assignments), nil
	}

	statuses := make([]domain.AssignmentStatus, 0, len(query.Statuses))
	for _, raw := range query.Statuses {
		status, err := domain.ParseAssignmentStatus(raw)
		if err != nil {
			return nil, errors.ErrValidation(err.Error())
		}
		statuses = append(statuses, status)
	}

	assignments, err := s.assignments.FindByWorkerAndStatus(ctx, query.WorkerID, statuses)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get worker assignments", "workerId", query.WorkerID)
		return nil, fmt.Errorf("failed to get worker assignments: %w", err)
	}
	return ToCountAssignmentDTOs(assignments), nil
}

// GetActiveAssignments retrieves assigned and in-progress assignments for a branch
func (s *AssignmentService) GetActiveAssignments(ctx context.Context, query GetActiveAssignmentsQuery) ([]CountAssignmentDTO, error) {
	assignments, err := s.assignments.FindActive(ctx, query.BranchID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get active assignments", "branchId", query.BranchID)
		return nil, fmt.Errorf("failed to get active assignments: %w", err)
	}
	return ToCountAssignmentDTOs(assignments), nil
}

// GetCompletedAssignments retrieves assignments completed within a time range
func (s *AssignmentService) GetCompletedAssignments(ctx context.Context, query GetCompletedAssignmentsQuery) ([]CountAssignmentDTO, error) {
	if query.To.Before(query.From) {
		return nil, errors.ErrValidation("range end must not precede range start")
	}

	assignments, err := s.assignments.FindCompletedInRange(ctx, query.BranchID, query.From, query.To)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get completed assignments", "branchId", query.BranchID)
		return nil, fmt.Errorf("failed to get completed assignments: %w", err)
	}
	return ToCountAssignmentDTOs(assignments), nil
}

// GetUncountedItems retrieves positions still awaiting a count
func (s *AssignmentService) GetUncountedItems(ctx context.Context, query GetUncountedItemsQuery) ([]CountLineDTO, error) {
	assignment, err := s.findAssignment(ctx, query.AssignmentID)
	if err != nil {
		return nil, err
	}
	return ToCountLineDTOs(assignment.UncountedLines()), nil
}

// GetStatistics retrieves the statistics document for an assignment
func (s *AssignmentService) GetStatistics(ctx context.Context, query GetStatisticsQuery) (*StatisticsDTO, error) {
	stats, err := s.statistics.FindByAssignmentID(ctx, query.AssignmentID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get statistics", "assignmentId", query.AssignmentID)
		return nil, fmt.Errorf("failed to get statistics: %w", err)
	}
	if stats == nil {
		return nil, errors.ErrNotFoundWithID("statistics", query.AssignmentID)
	}
	return ToStatisticsDTO(stats), nil
}

// GetAuditDetails retrieves every assignment of an audit with aggregate progress
func (s *AssignmentService) GetAuditDetails(ctx context.Context, query GetAuditDetailsQuery) (*AuditDetailsDTO, error) {
	assignments, err := s.assignments.FindByAuditID(ctx, query.AuditID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get audit assignments", "auditId", query.AuditID)
		return nil, fmt.Errorf("failed to get audit assignments: %w", err)
	}
	if len(assignments) == 0 {
		return nil, errors.ErrNotFoundWithID("audit", query.AuditID)
	}

	details := &AuditDetailsDTO{
		AuditID:     query.AuditID,
		Assignments: ToCountAssignmentDTOs(assignments),
	}
	for _, assignment := range assignments {
		details.TotalAssignments++
		if assignment.Status == domain.AssignmentStatusCompleted {
			details.CompletedAssignments++
		}
		details.TotalPositions += len(assignment.Lines)
		details.CountedPositions += len(assignment.CountedLines())
	}
	if details.TotalPositions > 0 {
		details.CompletionPercentage = float64(details.CountedPositions) / float64(details.TotalPositions) * 100
	}
	return details, nil
}

// GetNewAssignments retrieves assignments handed to a worker since a point in time
func (s *AssignmentService) GetNewAssignments(ctx context.Context, query GetNewAssignmentsQuery) ([]CountAssignmentDTO, error) {
	since := query.Since
	if since.IsZero() {
		since = time.Now().Add(-24 * time.Hour)
	}

	assignments, err := s.assignments.FindAssignedSince(ctx, query.WorkerID, since)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get new assignments", "workerId", query.WorkerID)
		return nil, fmt.Errorf("failed to get new assignments: %w", err)
	}
	return ToCountAssignmentDTOs(assignments), nil
}

// HasNewAssignments reports whether a worker has new assignments since a point in time
func (s *AssignmentService) HasNewAssignments(ctx context.Context, query GetNewAssignmentsQuery) (bool, error) {
	assignments, err := s.GetNewAssignments(ctx, query)
	if err != nil {
		return false, err
	}
	return len(assignments) > 0, nil
}

func (s *AssignmentService) findAssignment(ctx context.Context, assignmentID string) (*domain.CountAssignment, error) {
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
