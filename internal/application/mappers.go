package application

import "github.com/wms-platform/stocktake-service/internal/domain"

// ToCountAssignmentDTO converts a domain CountAssignment to CountAssignmentDTO
func ToCountAssignmentDTO(assignment *domain.CountAssignment) *CountAssignmentDTO {
	if assignment == nil {
		return nil
	}

	lines := make([]CountLineDTO, 0, len(assignment.Lines))
	for i := range assignment.Lines {
		lines = append(lines, ToCountLineDTO(&assignment.Lines[i]))
	}

	return &CountAssignmentDTO{
		AssignmentID: assignment.AssignmentID,
		AuditID:      assignment.AuditID,
		WorkerID:     assignment.WorkerID,
		BranchID:     assignment.BranchID,
		Zone:         assignment.Zone,
		Status:       assignment.Status.String(),
		Strategy:     assignment.Strategy.String(),
		Priority:     assignment.Priority,
		Deadline:     assignment.Deadline,
		Lines:        lines,
		Progress:     assignment.GetProgress(),
		AssignedAt:   assignment.AssignedAt,
		StartedAt:    assignment.StartedAt,
		CompletedAt:  assignment.CompletedAt,
		CreatedAt:    assignment.CreatedAt,
		UpdatedAt:    assignment.UpdatedAt,
	}
}

// ToCountAssignmentDTOs converts a slice of domain CountAssignments
func ToCountAssignmentDTOs(assignments []*domain.CountAssignment) []CountAssignmentDTO {
	dtos := make([]CountAssignmentDTO, 0, len(assignments))
	for _, assignment := range assignments {
		if dto := ToCountAssignmentDTO(assignment); dto != nil {
			dtos = append(dtos, *dto)
		}
	}
	return dtos
}

// ToCountLineDTO converts a domain CountLine to CountLineDTO
func ToCountLineDTO(line *domain.CountLine) CountLineDTO {
	return CountLineDTO{
		LineID:            line.LineID,
		ItemPositionID:    line.ItemPositionID,
		StoragePositionID: line.StoragePositionID,
		ItemID:            line.ItemID,
		ItemName:          line.ItemName,
		ExpectedQty:       line.ExpectedQty,
		ActualQty:         line.ActualQty,
		Variance:          line.Variance(),
		Counted:           line.IsCounted(),
		Position:          ToPositionCodeDTO(line.Position),
		CountedAt:         line.CountedAt,
		CountedBy:         line.CountedBy,
		Note:              line.Note,
	}
}

// ToCountLineDTOs converts a slice of domain CountLines
func ToCountLineDTOs(lines []domain.CountLine) []CountLineDTO {
	dtos := make([]CountLineDTO, 0, len(lines))
	for i := range lines {
		dtos = append(dtos, ToCountLineDTO(&lines[i]))
	}
	return dtos
}

// ToPositionCodeDTO converts a domain PositionCode to PositionCodeDTO
func ToPositionCodeDTO(position domain.PositionCode) PositionCodeDTO {
	return PositionCodeDTO{
		Branch:  position.Branch,
		Zone:    position.Zone,
		Section: position.Section,
		Rack:    position.Rack,
		Level:   position.Level,
		Code:    position.String(),
	}
}

// ToDiscrepancyDTO converts a domain Discrepancy to DiscrepancyDTO
func ToDiscrepancyDTO(discrepancy *domain.Discrepancy) *DiscrepancyDTO {
	if discrepancy == nil {
		return nil
	}

	return &DiscrepancyDTO{
		DiscrepancyID:  discrepancy.DiscrepancyID,
		AssignmentID:   discrepancy.AssignmentID,
		LineID:         discrepancy.LineID,
		ItemPositionID: discrepancy.ItemPositionID,
		ItemID:         discrepancy.ItemID,
		ItemName:       discrepancy.ItemName,
		BranchID:       discrepancy.BranchID,
		ExpectedQty:    discrepancy.ExpectedQty,
		ActualQty:      discrepancy.ActualQty,
		Variance:       discrepancy.Variance,
		Type:           discrepancy.Type.String(),
		Resolution:     discrepancy.Resolution.String(),
		Notes:          discrepancy.Notes,
		IdentifiedAt:   discrepancy.IdentifiedAt,
		ResolvedAt:     discrepancy.ResolvedAt,
		ResolvedBy:     discrepancy.ResolvedBy,
	}
}

// ToDiscrepancyDTOs converts a slice of domain Discrepancies
func ToDiscrepancyDTOs(discrepancies []*domain.Discrepancy) []DiscrepancyDTO {
	dtos := make([]DiscrepancyDTO, 0, len(discrepancies))
	for _, discrepancy := range discrepancies {
		if dto := ToDiscrepancyDTO(discrepancy); dto != nil {
			dtos = append(dtos, *dto)
		}
	}
	return dtos
}

// ToStatisticsDTO converts domain CountStatistics to StatisticsDTO
func ToStatisticsDTO(stats *domain.CountStatistics) *StatisticsDTO {
	if stats == nil {
		return nil
	}

	return &StatisticsDTO{
		StatisticsID:          stats.StatisticsID,
		AssignmentID:          stats.AssignmentID,
		TotalPositions:        stats.TotalPositions,
		CountedPositions:      stats.CountedPositions,
		DiscrepancyCount:      stats.DiscrepancyCount,
		SurplusCount:          stats.SurplusCount,
		ShortageCount:         stats.ShortageCount,
		TotalSurplusQty:       stats.TotalSurplusQty,
		TotalShortageQty:      stats.TotalShortageQty,
		NetVariance:           stats.NetVariance(),
		CompletionPercentage:  stats.CompletionPercentage(),
		DiscrepancyPercentage: stats.DiscrepancyPercentage(),
		StartedAt:             stats.StartedAt,
		CompletedAt:           stats.CompletedAt,
		UpdatedAt:             stats.UpdatedAt,
	}
}
