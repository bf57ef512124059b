package application

import (
	"context"
	"fmt"
	"time"

	"github.com/wms-platform/stocktake-service/internal/domain"
	"github.com/wms-platform/stocktake-service/pkg/errors"
	"github.com/wms-platform/stocktake-service/pkg/logging"
)

// ReportingService answers progress, performance and export queries
type ReportingService struct {
	assignments   domain.CountAssignmentRepository
	discrepancies domain.DiscrepancyRepository
	statistics    domain.CountStatisticsRepository
	logger        *logging.Logger
}

// NewReportingService creates a new ReportingService
func NewReportingService(
	assignments domain.CountAssignmentRepository,
	discrepancies domain.DiscrepancyRepository,
	statistics domain.CountStatisticsRepository,
	logger *logging.Logger,
) *ReportingService {
	return &ReportingService{
		assignments:   assignments,
		discrepancies: discrepancies,
		statistics:    statistics,
		logger:        logger,
	}
}

// GetProgress reports counting progress with a linear time estimate based
// on the pace so far. Elapsed time runs from the statistics start time,
// which is fixed when the assignment is distributed.
func (s *ReportingService) GetProgress(ctx context.Context, query GetProgressQuery) (*ProgressDTO, error) {
	assignment, err := s.findAssignment(ctx, query.AssignmentID)
	if err != nil {
		return nil, err
	}

	stats, err := s.statistics.FindByAssignmentID(ctx, query.AssignmentID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load statistics", "assignmentId", query.AssignmentID)
		return nil, fmt.Errorf("failed to load statistics: %w", err)
	}

	counted := len(assignment.CountedLines())
	total := len(assignment.Lines)

	progress := &ProgressDTO{
		AssignmentID:         assignment.AssignmentID,
		Status:               assignment.Status.String(),
		TotalPositions:       total,
		CountedPositions:     counted,
		CompletionPercentage: assignment.GetProgress(),
		StartedAt:            assignment.StartedAt,
	}

	startedAt := assignment.AssignedAt
	if stats != nil {
		startedAt = stats.StartedAt
	}
	end := time.Now()
	if assignment.CompletedAt != nil {
		end = *assignment.CompletedAt
	}
	elapsed := end.Sub(startedAt)
	progress.ElapsedMinutes = elapsed.Minutes()

	if counted > 0 && counted < total {
		perPosition := elapsed / time.Duration(counted)
		progress.EstimatedMinutesLeft = (perPosition * time.Duration(total-counted)).Minutes()
	}

	return progress, nil
}

// Recommendation thresholds
const (
	staleAssignmentAge      = 4 * time.Hour
	highDiscrepancyPct      = 20.0
	largeAssignmentSize     = 50
	slowPaceMinutesPerCount = 5.0
)

// GetRecommendations derives optimization hints from the current state of
// an assignment
func (s *ReportingService) GetRecommendations(ctx context.Context, query GetRecommendationsQuery) ([]RecommendationDTO, error) {
	assignment, err := s.findAssignment(ctx, query.AssignmentID)
	if err != nil {
		return nil, err
	}

	discrepancies, err := s.discrepancies.FindByAssignmentID(ctx, query.AssignmentID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load discrepancies", "assignmentId", query.AssignmentID)
		return nil, fmt.Errorf("failed to load discrepancies: %w", err)
	}

	recommendations := make([]RecommendationDTO, 0)
	counted := len(assignment.CountedLines())
	total := len(assignment.Lines)

	if assignment.Status == domain.AssignmentStatusAssigned && time.Since(assignment.AssignedAt) > staleAssignmentAge {
		recommendations = append(recommendations, RecommendationDTO{
			Code:     "STALE_ASSIGNMENT",
			Message:  "assignment has not been started for over 4 hours, consider reassigning",
			Severity: "warning",
		})
	}

	if total > 0 && counted > 0 {
		discrepancyPct := float64(len(discrepancies)) / float64(counted) * 100
		if discrepancyPct > highDiscrepancyPct {
			recommendations = append(recommendations, RecommendationDTO{
				Code:     "HIGH_DISCREPANCY_RATE",
				Message:  "over 20% of counted positions show a variance, a recount is advised",
				Severity: "critical",
			})
		}
	}

	if total > largeAssignmentSize && assignment.Status == domain.AssignmentStatusAssigned {
		recommendations = append(recommendations, RecommendationDTO{
			Code:     "LARGE_ASSIGNMENT",
			Message:  "assignment covers a large number of positions, consider splitting across more workers",
			Severity: "info",
		})
	}

	if assignment.Status == domain.AssignmentStatusInProgress && assignment.StartedAt != nil && counted > 0 {
		minutesPerCount := time.Since(*assignment.StartedAt).Minutes() / float64(counted)
		if minutesPerCount > slowPaceMinutesPerCount {
			recommendations = append(recommendations, RecommendationDTO{
				Code:     "SLOW_PACE",
				Message:  "counting pace is below expectation, check for blocked aisles or device issues",
				Severity: "warning",
			})
		}
	}

	if deadline := assignment.Deadline; deadline != nil && !assignment.IsTerminal() && time.Now().After(*deadline) {
		recommendations = append(recommendations, RecommendationDTO{
			Code:     "DEADLINE_MISSED",
			Message:  "assignment deadline has passed",
			Severity: "critical",
		})
	}

	return recommendations, nil
}

// GetPerformance reports worker performance for an assignment. Accuracy
// is 100 minus the discrepancy percentage over all positions.
func (s *ReportingService) GetPerformance(ctx context.Context, query GetPerformanceQuery) (*PerformanceDTO, error) {
	assignment, err := s.findAssignment(ctx, query.AssignmentID)
	if err != nil {
		return nil, err
	}

	discrepancies, err := s.discrepancies.FindByAssignmentID(ctx, query.AssignmentID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load discrepancies", "assignmentId", query.AssignmentID)
		return nil, fmt.Errorf("failed to load discrepancies: %w", err)
	}

	counted := len(assignment.CountedLines())
	performance := &PerformanceDTO{
		AssignmentID:     assignment.AssignmentID,
		WorkerID:         assignment.WorkerID,
		CountedPositions: counted,
		DiscrepancyCount: len(discrepancies),
	}

	if assignment.StartedAt != nil {
		end := time.Now()
		if assignment.CompletedAt != nil {
			end = *assignment.CompletedAt
		}
		duration := end.Sub(*assignment.StartedAt)
		performance.DurationMinutes = duration.Minutes()
		if duration > 0 && counted > 0 {
			performance.ItemsPerHour = float64(counted) / duration.Hours()
		}
	}

	if total := len(assignment.Lines); total > 0 {
		performance.AccuracyPercentage = 100 - float64(len(discrepancies))/float64(total)*100
		if performance.AccuracyPercentage < 0 {
			performance.AccuracyPercentage = 0
		}
	}

	return performance, nil
}

// ExportResults renders the results of an assignment in the requested format
func (s *ReportingService) ExportResults(ctx context.Context, query ExportResultsQuery) (*ExportDTO, error) {
	assignment, err := s.findAssignment(ctx, query.AssignmentID)
	if err != nil {
		return nil, err
	}

	discrepancies, err := s.discrepancies.FindByAssignmentID(ctx, query.AssignmentID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load discrepancies", "assignmentId", query.AssignmentID)
		return nil, fmt.Errorf("failed to load discrepancies: %w", err)
	}

	stats, err := s.statistics.FindByAssignmentID(ctx, query.AssignmentID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load statistics", "assignmentId", query.AssignmentID)
		return nil, fmt.Errorf("failed to load statistics: %w", err)
	}

	export, err := renderExport(query.Format, assignment, discrepancies, stats)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Results exported", "assignmentId", query.AssignmentID, "format", query.Format)
	return export, nil
}

func (s *ReportingService) findAssignment(ctx context.Context, assignmentID string) (*domain.CountAssignment, error) {
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
