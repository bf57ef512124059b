package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/stocktake-service/internal/application"
	"github.com/wms-platform/stocktake-service/internal/domain"
	"github.com/wms-platform/stocktake-service/pkg/logging"
	"github.com/wms-platform/stocktake-service/pkg/metrics"
)

// stubAssignmentRepo is a minimal in-memory CountAssignmentRepository
// for handler tests
type stubAssignmentRepo struct {
	store map[string]*domain.CountAssignment
}

func newStubAssignmentRepo() *stubAssignmentRepo {
	return &stubAssignmentRepo{store: make(map[string]*domain.CountAssignment)}
}

func (r *stubAssignmentRepo) Save(ctx context.Context, assignment *domain.CountAssignment) error {
	assignment.ClearDomainEvents()
	r.store[assignment.AssignmentID] = assignment
	return nil
}

func (r *stubAssignmentRepo) FindByID(ctx context.Context, assignmentID string) (*domain.CountAssignment, error) {
	return r.store[assignmentID], nil
}

func (r *stubAssignmentRepo) FindByAuditID(context.Context, string) ([]*domain.CountAssignment, error) {
	return nil, nil
}

func (r *stubAssignmentRepo) FindByWorkerID(context.Context, string) ([]*domain.CountAssignment, error) {
	return nil, nil
}

func (r *stubAssignmentRepo) FindByWorkerAndStatus(context.Context, string, []domain.AssignmentStatus) ([]*domain.CountAssignment, error) {
	return nil, nil
}

func (r *stubAssignmentRepo) FindActive(context.Context, string) ([]*domain.CountAssignment, error) {
	return nil, nil
}

func (r *stubAssignmentRepo) FindCompletedInRange(context.Context, string, time.Time, time.Time) ([]*domain.CountAssignment, error) {
	return nil, nil
}

func (r *stubAssignmentRepo) FindAssignedSince(context.Context, string, time.Time) ([]*domain.CountAssignment, error) {
	return nil, nil
}

func (r *stubAssignmentRepo) Delete(ctx context.Context, assignmentID string) error {
	delete(r.store, assignmentID)
	return nil
}

func newHandlerRouter(t *testing.T) (*gin.Engine, *domain.CountAssignment) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logConfig := logging.DefaultConfig("stocktake-service-test")
	logConfig.Level = logging.LogLevel("error")
	logger := logging.New(logConfig)
	m := metrics.New(metrics.DefaultConfig("stocktake-service-test"))

	repo := newStubAssignmentRepo()
	lines := []domain.CountLine{{
		LineID:         "LINE-00000001",
		ItemPositionID: "IP-001",
		ItemID:         "ITEM-001",
		ExpectedQty:    10,
		Position:       domain.PositionCode{Branch: "BR-1", Zone: "ZONE-A", Section: "01", Rack: "01", Level: "1"},
	}}
	assignment, err := domain.NewCountAssignment("AST-00000001", "AUD-1", "WRK-1", "BR-1", domain.StrategyByQuantity, 5, nil, lines)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), assignment))

	service := application.NewAssignmentService(repo, nil, nil, logger, m)

	router := gin.New()
	router.POST("/api/v1/assignments/:assignmentId/complete", completeAssignmentHandler(service, logger))
	router.POST("/api/v1/assignments/:assignmentId/cancel", cancelAssignmentHandler(service, logger))
	return router, assignment
}

func TestCancelAssignmentHandlerBody(t *testing.T) {
	t.Run("Empty body is accepted", func(t *testing.T) {
		router, assignment := newHandlerRouter(t)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/assignments/"+assignment.AssignmentID+"/cancel", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Valid body is accepted", func(t *testing.T) {
		router, assignment := newHandlerRouter(t)

		body := strings.NewReader(`{"reason":"audit rescheduled"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/assignments/"+assignment.AssignmentID+"/cancel", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Malformed body is rejected", func(t *testing.T) {
		router, assignment := newHandlerRouter(t)

		body := strings.NewReader(`{"reason":`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/assignments/"+assignment.AssignmentID+"/cancel", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCompleteAssignmentHandlerRejectsMalformedBody(t *testing.T) {
	router, assignment := newHandlerRouter(t)

	body := strings.NewReader(`{"completedBy": 42`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assignments/"+assignment.AssignmentID+"/complete", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
