package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/stocktake-service/internal/application"
	"github.com/wms-platform/stocktake-service/internal/infrastructure/catalog"
	mongoRepo "github.com/wms-platform/stocktake-service/internal/infrastructure/mongodb"
	"github.com/wms-platform/stocktake-service/pkg/cloudevents"
	"github.com/wms-platform/stocktake-service/pkg/kafka"
	"github.com/wms-platform/stocktake-service/pkg/logging"
	"github.com/wms-platform/stocktake-service/pkg/metrics"
	"github.com/wms-platform/stocktake-service/pkg/middleware"
	"github.com/wms-platform/stocktake-service/pkg/mongodb"
	"github.com/wms-platform/stocktake-service/pkg/outbox"
	"github.com/wms-platform/stocktake-service/pkg/tracing"
)

const serviceName = "stocktake-service"

func main() {
	// Setup enhanced logger
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting stocktake-service API")

	// Load configuration
	config := loadConfig()
	ctx := context.Background()

	// Initialize OpenTelemetry tracing
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "true") == "true"

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		// Continue without tracing - don't exit
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	// Initialize Prometheus metrics
	metricsConfig := metrics.DefaultConfig(serviceName)
	m := metrics.New(metricsConfig)
	logger.Info("Metrics initialized")

	// Initialize MongoDB
	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(config.Kafka)
	defer kafkaProducer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	// Initialize CloudEvents factory
	eventFactory := cloudevents.NewEventFactory("/stocktake-service")

	// Initialize repositories
	assignmentRepo := mongoRepo.NewCountAssignmentRepository(mongoClient.Database(), eventFactory)
	discrepancyRepo := mongoRepo.NewDiscrepancyRepository(mongoClient.Database(), eventFactory)
	statisticsRepo := mongoRepo.NewCountStatisticsRepository(mongoClient.Database())

	// Initialize catalog service client
	catalogClient := catalog.NewClient(config.CatalogServiceURL, logger, m)
	logger.Info("Catalog client initialized", "url", config.CatalogServiceURL)

	// Initialize and start outbox publisher
	outboxPublisher := outbox.NewPublisher(
		assignmentRepo.GetOutboxRepository(),
		kafkaProducer,
		logger,
		m,
		&outbox.PublisherConfig{
			PollInterval: 1 * time.Second,
			BatchSize:    100,
		},
	)
	if err := outboxPublisher.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox publisher")
		os.Exit(1)
	}
	defer outboxPublisher.Stop()
	logger.Info("Outbox publisher started")

	// Initialize application services
	distributionService := application.NewDistributionService(assignmentRepo, statisticsRepo, catalogClient, logger, m)
	scanService := application.NewScanService(assignmentRepo, discrepancyRepo, statisticsRepo, logger, m)
	assignmentService := application.NewAssignmentService(assignmentRepo, discrepancyRepo, statisticsRepo, logger, m)
	discrepancyService := application.NewDiscrepancyService(discrepancyRepo, logger, m)
	reportingService := application.NewReportingService(assignmentRepo, discrepancyRepo, statisticsRepo, logger)

	// Setup Gin router with middleware
	router := gin.New()

	// Apply standard middleware (includes recovery, request ID, correlation, logging, error handling)
	middleware.Setup(router, middleware.DefaultConfig(serviceName, logger.Logger))

	// Add metrics middleware
	router.Use(middleware.MetricsMiddleware(m))

	// Add tracing middleware
	router.Use(middleware.SimpleTracingMiddleware(serviceName))

	// Handle 404 and 405 errors
	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	// Health check endpoints
	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(ctx)
	}))

	// Metrics endpoint
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	// API v1 routes
	assignments := router.Group("/api/v1/assignments")
	{
		assignments.POST("/distribute", distributeCountsHandler(distributionService, logger))
		assignments.GET("", getActiveAssignmentsHandler(assignmentService, logger))
		assignments.GET("/completed", getCompletedAssignmentsHandler(assignmentService, logger))
		assignments.GET("/worker/:workerId", getUserAssignmentsHandler(assignmentService, logger))
		assignments.GET("/worker/:workerId/new", getNewAssignmentsHandler(assignmentService, logger))
		assignments.GET("/worker/:workerId/has-new", hasNewAssignmentsHandler(assignmentService, logger))
		assignments.GET("/audit/:auditId/details", getAuditDetailsHandler(assignmentService, logger))
		assignments.GET("/:assignmentId", getAssignmentHandler(assignmentService, logger))
		assignments.GET("/:assignmentId/statistics", getStatisticsHandler(assignmentService, logger))
		assignments.GET("/:assignmentId/uncounted", getUncountedItemsHandler(assignmentService, logger))
		assignments.GET("/:assignmentId/progress", getProgressHandler(reportingService, logger))
		assignments.GET("/:assignmentId/recommendations", getRecommendationsHandler(reportingService, logger))
		assignments.GET("/:assignmentId/performance", getPerformanceHandler(reportingService, logger))
		assignments.GET("/:assignmentId/export", exportResultsHandler(reportingService, logger))
		assignments.POST("/:assignmentId/start", startAssignmentHandler(assignmentService, logger))
		assignments.POST("/:assignmentId/resume", resumeAssignmentHandler(assignmentService, reportingService, logger))
		assignments.POST("/:assignmentId/scan", processScanHandler(scanService, logger))
		assignments.POST("/:assignmentId/scan/validate", validateScanHandler(scanService, logger))
		assignments.POST("/:assignmentId/undo", undoScanHandler(scanService, logger))
		assignments.POST("/:assignmentId/sync", syncStatisticsHandler(scanService, logger))
		assignments.POST("/:assignmentId/complete", completeAssignmentHandler(assignmentService, logger))
		assignments.POST("/:assignmentId/cancel", cancelAssignmentHandler(assignmentService, logger))
		assignments.POST("/:assignmentId/reassign", reassignAssignmentHandler(assignmentService, logger))
	}

	discrepancies := router.Group("/api/v1/discrepancies")
	{
		discrepancies.GET("", getDiscrepanciesHandler(discrepancyService, logger))
		discrepancies.GET("/pending", getPendingDiscrepanciesHandler(discrepancyService, logger))
		discrepancies.GET("/analytics", getDiscrepancyAnalyticsHandler(discrepancyService, logger))
		discrepancies.POST("/:discrepancyId/resolve", resolveDiscrepancyHandler(discrepancyService, logger))
	}

	// Start server
	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
}

// Config holds application configuration
type Config struct {
	ServerAddr        string
	CatalogServiceURL string
	MongoDB           *mongodb.Config
	Kafka             *kafka.Config
}

func loadConfig() *Config {
	return &Config{
		ServerAddr:        getEnv("SERVER_ADDR", ":8010"),
		CatalogServiceURL: getEnv("CATALOG_SERVICE_URL", "http://localhost:8006"),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "stocktake_db"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		},
		Kafka: &kafka.Config{
			Brokers:       []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			ConsumerGroup: serviceName,
			ClientID:      serviceName,
			BatchSize:     100,
			BatchTimeout:  10 * time.Millisecond,
			RequiredAcks:  -1,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
