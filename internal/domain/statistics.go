package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CountStatistics is the running tally for one assignment. One document
// exists per assignment; Recalculate rebuilds every derived counter from
// the current lines and discrepancies.
type CountStatistics struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	StatisticsID     string             `bson:"statisticsId"`
	AssignmentID     string             `bson:"assignmentId"`
	TotalPositions   int                `bson:"totalPositions"`
	CountedPositions int                `bson:"countedPositions"`
	DiscrepancyCount int                `bson:"discrepancyCount"`
	SurplusCount     int                `bson:"surplusCount"`
	ShortageCount    int                `bson:"shortageCount"`
	TotalSurplusQty  int                `bson:"totalSurplusQty"`
	TotalShortageQty int                `bson:"totalShortageQty"`
	StartedAt        time.Time          `bson:"startedAt"`
	CompletedAt      *time.Time         `bson:"completedAt,omitempty"`
	UpdatedAt        time.Time          `bson:"updatedAt"`
}

// NewCountStatistics creates statistics for an assignment. TotalPositions
// is fixed at creation.
func NewCountStatistics(statisticsID, assignmentID string, totalPositions int, startedAt time.Time) *CountStatistics {
	return &CountStatistics{
		StatisticsID:   statisticsID,
		AssignmentID:   assignmentID,
		TotalPositions: totalPositions,
		StartedAt:      startedAt,
		UpdatedAt:      time.Now(),
	}
}

// Recalculate rebuilds all derived counters from the assignment's lines
// and its open plus resolved discrepancies
func (s *CountStatistics) Recalculate(lines []CountLine, discrepancies []*Discrepancy) {
	counted := 0
	for _, line := range lines {
		if line.IsCounted() {
			counted++
		}
	}

	s.CountedPositions = counted
	s.DiscrepancyCount = len(discrepancies)
	s.SurplusCount = 0
	s.ShortageCount = 0
	s.TotalSurplusQty = 0
	s.TotalShortageQty = 0

	for _, d := range discrepancies {
		switch d.Type {
		case DiscrepancyTypeSurplus:
			s.SurplusCount++
			s.TotalSurplusQty += d.Variance
		case DiscrepancyTypeShortage:
			s.ShortageCount++
			s.TotalShortageQty += -d.Variance
		}
	}

	s.UpdatedAt = time.Now()
}

// MarkCompleted stamps the completion time
func (s *CountStatistics) MarkCompleted(completedAt time.Time) {
	s.CompletedAt = &completedAt
	s.UpdatedAt = time.Now()
}

func boundedPercentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	pct := float64(part) / float64(total) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// CompletionPercentage returns counted positions over total, bounded [0,100]
func (s *CountStatistics) CompletionPercentage() float64 {
	return boundedPercentage(s.CountedPositions, s.TotalPositions)
}

// DiscrepancyPercentage returns discrepancies over total positions, bounded [0,100]
func (s *CountStatistics) DiscrepancyPercentage() float64 {
	return boundedPercentage(s.DiscrepancyCount, s.TotalPositions)
}

// NetVariance returns total surplus minus total shortage
func (s *CountStatistics) NetVariance() int {
	return s.TotalSurplusQty - s.TotalShortageQty
}

// IsComplete reports whether every position has been counted
func (s *CountStatistics) IsComplete() bool {
	return s.TotalPositions > 0 && s.CountedPositions >= s.TotalPositions
}
