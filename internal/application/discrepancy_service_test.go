package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wms-platform/stocktake-service/internal/domain"
)

func seedDiscrepancy(t *testing.T, repo *memDiscrepancyRepo, assignmentID, itemID string, expected, actual int) *domain.Discrepancy {
	t.Helper()

	now := time.Now()
	qty := actual
	line := &domain.CountLine{
		LineID:         newLineID(),
		AssignmentID:   assignmentID,
		ItemPositionID: "IP-001",
		ItemID:         itemID,
		ExpectedQty:    expected,
		ActualQty:      &qty,
		CountedAt:      &now,
		CountedBy:      "WRK-1",
	}
	discrepancy, err := domain.NewDiscrepancy(newDiscrepancyID(), "BR-1", line)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), discrepancy))
	return discrepancy
}

func TestResolveDiscrepancy(t *testing.T) {
	tests := []struct {
		name       string
		resolution string
		wantStatus string
	}{
		{name: "Resolve", resolution: "resolved", wantStatus: "resolved"},
		{name: "Investigate", resolution: "under_investigation", wantStatus: "under_investigation"},
		{name: "Write off", resolution: "written_off", wantStatus: "written_off"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemDiscrepancyRepo()
			service := NewDiscrepancyService(repo, testLogger(), testMetrics())
			discrepancy := seedDiscrepancy(t, repo, "AST-1", "ITEM-001", 10, 8)

			dto, err := service.ResolveDiscrepancy(context.Background(), ResolveDiscrepancyCommand{
				DiscrepancyID: discrepancy.DiscrepancyID,
				Resolution:    tt.resolution,
				ResolvedBy:    "SUP-1",
				Reason:        "checked on site",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, dto.Resolution)
			assert.Equal(t, "SUP-1", dto.ResolvedBy)
			assert.NotNil(t, dto.ResolvedAt)
		})
	}
}

func TestResolveDiscrepancyErrors(t *testing.T) {
	repo := newMemDiscrepancyRepo()
	service := NewDiscrepancyService(repo, testLogger(), testMetrics())
	discrepancy := seedDiscrepancy(t, repo, "AST-1", "ITEM-001", 10, 8)
	ctx := context.Background()

	t.Run("Unknown resolution", func(t *testing.T) {
		_, err := service.ResolveDiscrepancy(ctx, ResolveDiscrepancyCommand{
			DiscrepancyID: discrepancy.DiscrepancyID,
			Resolution:    "ignored",
		})
		assert.Error(t, err)
	})

	t.Run("Back to pending", func(t *testing.T) {
		_, err := service.ResolveDiscrepancy(ctx, ResolveDiscrepancyCommand{
			DiscrepancyID: discrepancy.DiscrepancyID,
			Resolution:    "pending",
		})
		assert.Error(t, err)
	})

	t.Run("Not found", func(t *testing.T) {
		_, err := service.ResolveDiscrepancy(ctx, ResolveDiscrepancyCommand{
			DiscrepancyID: "DSC-missing",
			Resolution:    "resolved",
		})
		assert.Error(t, err)
	})

	t.Run("Already resolved", func(t *testing.T) {
		_, err := service.ResolveDiscrepancy(ctx, ResolveDiscrepancyCommand{
			DiscrepancyID: discrepancy.DiscrepancyID,
			Resolution:    "resolved",
			ResolvedBy:    "SUP-1",
		})
		require.NoError(t, err)

		_, err = service.ResolveDiscrepancy(ctx, ResolveDiscrepancyCommand{
			DiscrepancyID: discrepancy.DiscrepancyID,
			Resolution:    "written_off",
			ResolvedBy:    "SUP-2",
		})
		assert.Error(t, err)
	})
}

func TestGetDiscrepanciesWithTypeFilter(t *testing.T) {
	repo := newMemDiscrepancyRepo()
	service := NewDiscrepancyService(repo, testLogger(), testMetrics())
	ctx := context.Background()

	seedDiscrepancy(t, repo, "AST-1", "ITEM-001", 10, 8)
	seedDiscrepancy(t, repo, "AST-1", "ITEM-002", 10, 13)
	seedDiscrepancy(t, repo, "AST-2", "ITEM-003", 10, 8)

	all, err := service.GetDiscrepancies(ctx, GetDiscrepanciesQuery{AssignmentID: "AST-1"})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	surplus, err := service.GetDiscrepancies(ctx, GetDiscrepanciesQuery{AssignmentID: "AST-1", Type: "surplus"})
	require.NoError(t, err)
	require.Len(t, surplus, 1)
	assert.Equal(t, "ITEM-002", surplus[0].ItemID)

	shortage, err := service.GetDiscrepancies(ctx, GetDiscrepanciesQuery{AssignmentID: "AST-1", Type: "shortage"})
	require.NoError(t, err)
	assert.Len(t, shortage, 1)

	_, err = service.GetDiscrepancies(ctx, GetDiscrepanciesQuery{AssignmentID: "AST-1", Type: "weird"})
	assert.Error(t, err)
}

func TestGetPendingDiscrepancies(t *testing.T) {
	repo := newMemDiscrepancyRepo()
	service := NewDiscrepancyService(repo, testLogger(), testMetrics())
	ctx := context.Background()

	seedDiscrepancy(t, repo, "AST-1", "ITEM-001", 10, 8)
	resolved := seedDiscrepancy(t, repo, "AST-1", "ITEM-002", 10, 12)
	require.NoError(t, resolved.Resolve("SUP-1", ""))
	require.NoError(t, repo.Save(ctx, resolved))

	pending, err := service.GetPendingDiscrepancies(ctx, GetPendingDiscrepanciesQuery{BranchID: "BR-1"})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "ITEM-001", pending[0].ItemID)

	// The branch filter is optional
	pending, err = service.GetPendingDiscrepancies(ctx, GetPendingDiscrepanciesQuery{})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "ITEM-001", pending[0].ItemID)
}

func TestGetDiscrepancyAnalytics(t *testing.T) {
	repo := newMemDiscrepancyRepo()
	service := NewDiscrepancyService(repo, testLogger(), testMetrics())
	ctx := context.Background()

	seedDiscrepancy(t, repo, "AST-1", "ITEM-001", 10, 8)
	seedDiscrepancy(t, repo, "AST-1", "ITEM-001", 10, 7)
	seedDiscrepancy(t, repo, "AST-2", "ITEM-002", 10, 13)
	resolved := seedDiscrepancy(t, repo, "AST-2", "ITEM-003", 10, 9)
	require.NoError(t, resolved.Resolve("SUP-1", ""))
	require.NoError(t, repo.Save(ctx, resolved))

	analytics, err := service.GetDiscrepancyAnalytics(ctx, GetDiscrepancyAnalyticsQuery{
		BranchID: "BR-1",
		From:     time.Now().Add(-time.Hour),
		To:       time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	assert.Equal(t, 4, analytics.TotalCount)
	assert.Equal(t, 1, analytics.SurplusCount)
	assert.Equal(t, 3, analytics.ShortageCount)
	assert.Equal(t, 3, analytics.PendingCount)
	assert.Equal(t, 1, analytics.ResolvedCount)
	// -2 -3 +3 -1
	assert.Equal(t, -3, analytics.NetVariance)
	assert.Equal(t, 9, analytics.AbsoluteVariance)
	assert.Equal(t, 1, analytics.ByResolution["resolved"])
	assert.Equal(t, 3, analytics.ByResolution["pending"])

	require.NotEmpty(t, analytics.TopItemsByCount)
	assert.Equal(t, "ITEM-001", analytics.TopItemsByCount[0].ItemID)
	assert.Equal(t, 2, analytics.TopItemsByCount[0].Count)

	_, err = service.GetDiscrepancyAnalytics(ctx, GetDiscrepancyAnalyticsQuery{
		BranchID: "BR-1",
		From:     time.Now(),
		To:       time.Now().Add(-time.Hour),
	})
	assert.Error(t, err)
}
