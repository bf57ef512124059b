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

// DiscrepancyService handles discrepancy resolution and reporting
type DiscrepancyService struct {
	discrepancies domain.DiscrepancyRepository
	logger        *logging.Logger
	metrics       *metrics.Metrics
}

// NewDiscrepancyService creates a new DiscrepancyService
func NewDiscrepancyService(
	discrepancies domain.DiscrepancyRepository,
	logger *logging.Logger,
	metrics *metrics.Metrics,
) *DiscrepancyService {
	return &DiscrepancyService{
		discrepancies: discrepancies,
		logger:        logger,
		metrics:       metrics,
	}
}

// ResolveDiscrepancy moves a pending discrepancy to a terminal resolution
func (s *DiscrepancyService) ResolveDiscrepancy(ctx context.Context, cmd ResolveDiscrepancyCommand) (*DiscrepancyDTO, error) {
	resolution, err := domain.ParseResolutionStatus(cmd.Resolution)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}
	if resolution == domain.ResolutionStatusPending {
		return nil, errors.ErrValidation("cannot resolve a discrepancy back to pending")
	}

	discrepancy, err := s.discrepancies.FindByID(ctx, cmd.DiscrepancyID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get discrepancy", "discrepancyId", cmd.DiscrepancyID)
		return nil, fmt.Errorf("failed to get discrepancy: %w", err)
	}
	if discrepancy == nil {
		return nil, errors.ErrNotFoundWithID("discrepancy", cmd.DiscrepancyID)
	}

	switch resolution {
	case domain.ResolutionStatusResolved:
		err = discrepancy.Resolve(cmd.ResolvedBy, cmd.Reason)
	case domain.ResolutionStatusUnderInvestigation:
		err = discrepancy.MarkForInvestigation(cmd.ResolvedBy, cmd.Reason)
	case domain.ResolutionStatusWrittenOff:
		err = discrepancy.MarkAsWrittenOff(cmd.ResolvedBy, cmd.Reason)
	}
	if err != nil {
		return nil, mapDomainErr(err)
	}

	if err := s.discrepancies.Save(ctx, discrepancy); err != nil {
		s.logger.WithError(err).Error("Failed to save discrepancy", "discrepancyId", cmd.DiscrepancyID)
		return nil, fmt.Errorf("failed to save discrepancy: %w", err)
	}

	s.metrics.RecordDiscrepancyResolved(resolution.String())
	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "stocktake.discrepancy_resolved",
		EntityType: "discrepancy",
		EntityID:   cmd.DiscrepancyID,
		Action:     resolution.String(),
		RelatedIDs: map[string]string{
			"assignmentId": discrepancy.AssignmentID,
			"resolvedBy":   cmd.ResolvedBy,
		},
	})

	return ToDiscrepancyDTO(discrepancy), nil
}

// GetDiscrepancies retrieves discrepancies for an assignment, optionally
// filtered by type
func (s *DiscrepancyService) GetDiscrepancies(ctx context.Context, query GetDiscrepanciesQuery) ([]DiscrepancyDTO, error) {
	if query.Type != "" {
		var dtype domain.DiscrepancyType
		switch query.Type {
		case "surplus":
			dtype = domain.DiscrepancyTypeSurplus
		case "shortage":
			dtype = domain.DiscrepancyTypeShortage
		default:
			return nil, errors.ErrValidation(fmt.Sprintf("invalid discrepancy type: %q", query.Type))
		}

		discrepancies, err := s.discrepancies.FindByType(ctx, query.AssignmentID, dtype)
		if err != nil {
			s.logger.WithError(err).Error("Failed to get discrepancies", "assignmentId", query.AssignmentID)
			return nil, fmt.Errorf("failed to get discrepancies: %w", err)
		}
		return ToDiscrepancyDTOs(discrepancies), nil
	}

	discrepancies, err := s.discrepancies.FindByAssignmentID(ctx, query.AssignmentID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get discrepancies", "assignmentId", query.AssignmentID)
		return nil, fmt.Errorf("failed to get discrepancies: %w", err)
	}
	return ToDiscrepancyDTOs(discrepancies), nil
}

// GetPendingDiscrepancies retrieves unresolved discrepancies for a branch
func (s *DiscrepancyService) GetPendingDiscrepancies(ctx context.Context, query GetPendingDiscrepanciesQuery) ([]DiscrepancyDTO, error) {
	discrepancies, err := s.discrepancies.FindPending(ctx, query.BranchID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get pending discrepancies", "branchId", query.BranchID)
		return nil, fmt.Errorf("failed to get pending discrepancies: %w", err)
	}
	return ToDiscrepancyDTOs(discrepancies), nil
}

// GetDiscrepancyAnalytics aggregates discrepancies for a branch over a period
func (s *DiscrepancyService) GetDiscrepancyAnalytics(ctx context.Context, query GetDiscrepancyAnalyticsQuery) (*DiscrepancyAnalyticsDTO, error) {
	if query.To.Before(query.From) {
		return nil, errors.ErrValidation("range end must not precede range start")
	}

	discrepancies, err := s.discrepancies.FindByBranchInRange(ctx, query.BranchID, query.From, query.To)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get discrepancies for analytics", "branchId", query.BranchID)
		return nil, fmt.Errorf("failed to get discrepancies for analytics: %w", err)
	}

	analytics := &DiscrepancyAnalyticsDTO{
		BranchID:     query.BranchID,
		From:         query.From,
		To:           query.To,
		TotalCount:   len(discrepancies),
		ByResolution: make(map[string]int),
	}

	itemCounts := make(map[string]int)
	for _, d := range discrepancies {
		switch d.Type {
		case domain.DiscrepancyTypeSurplus:
			analytics.SurplusCount++
		case domain.DiscrepancyTypeShortage:
			analytics.ShortageCount++
		}
		if d.IsPending() {
			analytics.PendingCount++
		} else {
			analytics.ResolvedCount++
		}
		analytics.ByResolution[d.Resolution.String()]++
		analytics.NetVariance += d.Variance
		analytics.AbsoluteVariance += d.AbsoluteVariance()
		itemCounts[d.ItemID]++
	}

	analytics.TopItemsByCount = topItems(itemCounts, 10)
	return analytics, nil
}

// topItems returns the n most frequent items, ties broken by item ID
func topItems(counts map[string]int, n int) []ItemCountDTO {
	items := make([]ItemCountDTO, 0, len(counts))
	for itemID, count := range counts {
		items = append(items, ItemCountDTO{ItemID: itemID, Count: count})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].ItemID < items[j].ItemID
	})
	if len(items) > n {
		items = items[:n]
	}
	return items
}
