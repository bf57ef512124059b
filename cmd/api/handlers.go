package main

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/stocktake-service/internal/application"
	"github.com/wms-platform/stocktake-service/pkg/errors"
	"github.com/wms-platform/stocktake-service/pkg/logging"
	"github.com/wms-platform/stocktake-service/pkg/middleware"
)

// HTTP Handlers
func distributeCountsHandler(service *application.DistributionService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			AuditID          string     `json:"auditId" binding:"required"`
			BranchID         string     `json:"branchId" binding:"required"`
			Strategy         string     `json:"strategy" binding:"required"`
			WorkerIDs        []string   `json:"workerIds" binding:"required"`
			ItemPositionIDs  []string   `json:"itemPositionIds" binding:"required"`
			RequestedWorkers int        `json:"requestedWorkers"`
			Priority         int        `json:"priority"`
			Deadline         *time.Time `json:"deadline"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"audit.id":  req.AuditID,
			"branch.id": req.BranchID,
			"strategy":  req.Strategy,
			"workers":   len(req.WorkerIDs),
			"positions": len(req.ItemPositionIDs),
		})

		cmd := application.DistributeCountsCommand{
			AuditID:          req.AuditID,
			BranchID:         req.BranchID,
			Strategy:         req.Strategy,
			WorkerIDs:        req.WorkerIDs,
			ItemPositionIDs:  req.ItemPositionIDs,
			RequestedWorkers: req.RequestedWorkers,
			Priority:         req.Priority,
			Deadline:         req.Deadline,
		}

		summary, err := service.CreateAndDistribute(c.Request.Context(), cmd)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusCreated, summary)
	}
}

func getAssignmentHandler(service *application.AssignmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		assignmentID := c.Param("assignmentId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"assignment.id": assignmentID,
		})

		query := application.GetAssignmentQuery{AssignmentID: assignmentID}

		assignment, err := service.GetAssignment(c.Request.Context(), query)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, assignment)
	}
}

func getUserAssignmentsHandler(service *application.AssignmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		workerID := c.Param("workerId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"worker.id": workerID,
		})

		query := application.GetUserAssignmentsQuery{
			WorkerID: workerID,
			Statuses: c.QueryArray("status"),
		}

		assignments, err := service.GetUserAssignments(c.Request.Context(), query)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, assignments)
	}
}

func getActiveAssignmentsHandler(service *application.AssignmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		// branchId is an optional filter
		branchID := c.Query("branchId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"branch.id": branchID,
		})

		query := application.GetActiveAssignmentsQuery{BranchID: branchID}

		assignments, err := service.GetActiveAssignments(c.Request.Context(), query)
		if err != nil {
			responder.RespondInternalError(err)
			return
		}

		c.JSON(http.StatusOK, assignments)
	}
}

func getCompletedAssignmentsHandler(service *application.AssignmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		branchID := c.Query("branchId")
		if branchID == "" {
			responder.RespondBadRequest("branchId query parameter is required")
			return
		}

		from, to, err := parseTimeRange(c)
		if err != nil {
			responder.RespondBadRequest(err.Error())
			return
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"branch.id": branchID,
		})

		query := application.GetCompletedAssignmentsQuery{
			BranchID: branchID,
			From:     from,
			To:       to,
		}

		assignments, err := service.GetCompletedAssignments(c.Request.Context(), query)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, assignments)
	}
}

func getNewAssignmentsHandler(service *application.AssignmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		workerID := c.Param("workerId")
		since, err := parseOptionalTime(c.Query("since"))
		if err != nil {
			responder.RespondBadRequest(err.Error())
			return
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"worker.id": workerID,
		})

		query := application.GetNewAssignmentsQuery{WorkerID: workerID, Since: since}

		assignments, err := service.GetNewAssignments(c.Request.Context(), query)
		if err != nil {
			responder.RespondInternalError(err)
			return
		}

		c.JSON(http.StatusOK, assignments)
	}
}

func hasNewAssignmentsHandler(service *application.AssignmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		workerID := c.Param("workerId")
		since, err := parseOptionalTime(c.Query("since"))
		if err != nil {
			responder.RespondBadRequest(err.Error())
			return
		}

		query := application.GetNewAssignmentsQuery{WorkerID: workerID, Since: since}

		hasNew, err := service.HasNewAssignments(c.Request.Context(), query)
		if err != nil {
			responder.RespondInternalError(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"hasNew": hasNew})
	}
}

func getAuditDetailsHandler(service *application.AssignmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		auditID := c.Param("auditId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"audit.id": auditID,
		})

		query := application.GetAuditDetailsQuery{AuditID: auditID}

		details, err := service.GetAuditDetails(c.Request.Context(), query)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, details)
	}
}

func getStatisticsHandler(service *application.AssignmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		assignmentID := c.Param("assignmentId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"assignment.id": assignmentID,
		})

		query := application.GetStatisticsQuery{AssignmentID: assignmentID}

		stats, err := service.GetStatistics(c.Request.Context(), query)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, stats)
	}
}

func getUncountedItemsHandler(service *application.AssignmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		assignmentID := c.Param("assignmentId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"assignment.id": assignmentID,
		})

		query := application.GetUncountedItemsQuery{AssignmentID: assignmentID}

		lines, err := service.GetUncountedItems(c.Request.Context(), query)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, lines)
	}
}

func startAssignmentHandler(service *application.AssignmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		assignmentID := c.Param("assignmentId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"assignment.id": assignmentID,
		})

		var req struct {
			WorkerID string `json:"workerId" binding:"required"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cmd := application.StartAssignmentCommand{
			AssignmentID: assignmentID,
			WorkerID:     req.WorkerID,
		}

		assignment, err := service.StartAssignment(c.Request.Context(), cmd)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, assignment)
	}
}

func resumeAssignmentHandler(assignments *application.AssignmentService, reporting *application.ReportingService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		assignmentID := c.Param("assignmentId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"assignment.id": assignmentID,
		})

		var req struct {
			WorkerID string `json:"workerId" binding:"required"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cmd := application.StartAssignmentCommand{
			AssignmentID: assignmentID,
			WorkerID:     req.WorkerID,
		}

		// Start is a no-op on an in-progress assignment, so resuming
		// just refreshes progress
		if _, err := assignments.StartAssignment(c.Request.Context(), cmd); err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		progress, err := reporting.GetProgress(c.Request.Context(), application.GetProgressQuery{AssignmentID: assignmentID})
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, progress)
	}
}

func processScanHandler(service *application.ScanService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		assignmentID := c.Param("assignmentId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"assignment.id": assignmentID,
		})

		var req struct {
			LineID    string `json:"lineId" binding:"required"`
			ActualQty *int   `json:"actualQty" binding:"required"`
			CountedBy string `json:"countedBy" binding:"required"`
			Note      string `json:"note"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"line.id":    req.LineID,
			"actual.qty": *req.ActualQty,
		})

		cmd := application.RecordScanCommand{
			AssignmentID: assignmentID,
			LineID:       req.LineID,
			ActualQty:    *req.ActualQty,
			CountedBy:    req.CountedBy,
			Note:         req.Note,
		}

		result, err := service.ProcessScan(c.Request.Context(), cmd)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func validateScanHandler(service *application.ScanService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		assignmentID := c.Param("assignmentId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"assignment.id": assignmentID,
		})

		var req struct {
			LineID    string `json:"lineId" binding:"required"`
			ActualQty *int   `json:"actualQty" binding:"required"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cmd := application.ValidateScanCommand{
			AssignmentID: assignmentID,
			LineID:       req.LineID,
			ActualQty:    *req.ActualQty,
		}

		validation, err := service.ValidateScan(c.Request.Context(), cmd)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, validation)
	}
}

func undoScanHandler(service *application.ScanService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		assignmentID := c.Param("assignmentId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"assignment.id": assignmentID,
		})

		var req struct {
			LineID string `json:"lineId" binding:"required"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cmd := application.UndoScanCommand{
			AssignmentID: assignmentID,
			LineID:       req.LineID,
		}

		result, err := service.UndoScan(c.Request.Context(), cmd)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func syncStatisticsHandler(service *application.ScanService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		assignmentID := c.Param("assignmentId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"assignment.id": assignmentID,
		})

		cmd := application.SyncStatisticsCommand{AssignmentID: assignmentID}

		stats, err := service.SyncStatistics(c.Request.Context(), cmd)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, stats)
	}
}

func completeAssignmentHandler(service *application.AssignmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		assignmentID := c.Param("assignmentId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"assignment.id": assignmentID,
		})

		var req struct {
			CompletedBy string `json:"completedBy"`
		}
		// Body is optional for completion, but a present body must parse
		if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cmd := application.CompleteAssignmentCommand{
			AssignmentID: assignmentID,
			CompletedBy:  req.CompletedBy,
		}

		report, err := service.CompleteAssignment(c.Request.Context(), cmd)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

func cancelAssignmentHandler(service *application.AssignmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		assignmentID := c.Param("assignmentId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"assignment.id": assignmentID,
		})

		var req struct {
			Reason string `json:"reason"`
		}
		// Body is optional for cancellation, but a present body must parse
		if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cmd := application.CancelAssignmentCommand{
			AssignmentID: assignmentID,
			Reason:       req.Reason,
		}

		assignment, err := service.CancelAssignment(c.Request.Context(), cmd)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, assignment)
	}
}

func reassignAssignmentHandler(service *application.AssignmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		assignmentID := c.Param("assignmentId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"assignment.id": assignmentID,
		})

		var req struct {
			NewWorkerID string `json:"newWorkerId" binding:"required"`
			Reason      string `json:"reason"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"new.worker.id": req.NewWorkerID,
		})

		cmd := application.ReassignAssignmentCommand{
			AssignmentID: assignmentID,
			NewWorkerID:  req.NewWorkerID,
			Reason:       req.Reason,
		}

		assignment, err := service.ReassignAssignment(c.Request.Context(), cmd)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, assignment)
	}
}

func getProgressHandler(service *application.ReportingService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		assignmentID := c.Param("assignmentId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"assignment.id": assignmentID,
		})

		query := application.GetProgressQuery{AssignmentID: assignmentID}

		progress, err := service.GetProgress(c.Request.Context(), query)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, progress)
	}
}

func getRecommendationsHandler(service *application.ReportingService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		assignmentID := c.Param("assignmentId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"assignment.id": assignmentID,
		})

		query := application.GetRecommendationsQuery{AssignmentID: assignmentID}

		recommendations, err := service.GetRecommendations(c.Request.Context(), query)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, recommendations)
	}
}

func getPerformanceHandler(service *application.ReportingService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		assignmentID := c.Param("assignmentId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"assignment.id": assignmentID,
		})

		query := application.GetPerformanceQuery{AssignmentID: assignmentID}

		performance, err := service.GetPerformance(c.Request.Context(), query)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, performance)
	}
}

func exportResultsHandler(service *application.ReportingService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		assignmentID := c.Param("assignmentId")
		format := c.DefaultQuery("format", "csv")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"assignment.id": assignmentID,
			"format":        format,
		})

		query := application.ExportResultsQuery{
			AssignmentID: assignmentID,
			Format:       format,
		}

		export, err := service.ExportResults(c.Request.Context(), query)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName))
		c.Data(http.StatusOK, export.ContentType, export.Data)
	}
}

func getDiscrepanciesHandler(service *application.DiscrepancyService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		assignmentID := c.Query("assignmentId")
		if assignmentID == "" {
			responder.RespondBadRequest("assignmentId query parameter is required")
			return
		}
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"assignment.id": assignmentID,
		})

		query := application.GetDiscrepanciesQuery{
			AssignmentID: assignmentID,
			Type:         c.Query("type"),
		}

		discrepancies, err := service.GetDiscrepancies(c.Request.Context(), query)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, discrepancies)
	}
}

func getPendingDiscrepanciesHandler(service *application.DiscrepancyService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		// branchId is an optional filter
		branchID := c.Query("branchId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"branch.id": branchID,
		})

		query := application.GetPendingDiscrepanciesQuery{BranchID: branchID}

		discrepancies, err := service.GetPendingDiscrepancies(c.Request.Context(), query)
		if err != nil {
			responder.RespondInternalError(err)
			return
		}

		c.JSON(http.StatusOK, discrepancies)
	}
}

func getDiscrepancyAnalyticsHandler(service *application.DiscrepancyService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		branchID := c.Query("branchId")
		if branchID == "" {
			responder.RespondBadRequest("branchId query parameter is required")
			return
		}

		from, to, err := parseTimeRange(c)
		if err != nil {
			responder.RespondBadRequest(err.Error())
			return
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"branch.id": branchID,
		})

		query := application.GetDiscrepancyAnalyticsQuery{
			BranchID: branchID,
			From:     from,
			To:       to,
		}

		analytics, err := service.GetDiscrepancyAnalytics(c.Request.Context(), query)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, analytics)
	}
}

func resolveDiscrepancyHandler(service *application.DiscrepancyService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		discrepancyID := c.Param("discrepancyId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"discrepancy.id": discrepancyID,
		})

		var req struct {
			Resolution string `json:"resolution" binding:"required"`
			ResolvedBy string `json:"resolvedBy" binding:"required"`
			Reason     string `json:"reason"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"resolution": req.Resolution,
		})

		cmd := application.ResolveDiscrepancyCommand{
			DiscrepancyID: discrepancyID,
			Resolution:    req.Resolution,
			ResolvedBy:    req.ResolvedBy,
			Reason:        req.Reason,
		}

		discrepancy, err := service.ResolveDiscrepancy(c.Request.Context(), cmd)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, discrepancy)
	}
}

// parseTimeRange reads from/to query parameters as RFC3339 timestamps.
// Defaults to the last 30 days when omitted.
func parseTimeRange(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now()
	from := now.AddDate(0, 0, -30)
	to := now

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from timestamp, expected RFC3339")
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to timestamp, expected RFC3339")
		}
		to = parsed
	}
	return from, to, nil
}

func parseOptionalTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid since timestamp, expected RFC3339")
	}
	return parsed, nil
}
