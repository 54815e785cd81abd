package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/facebookgo/clock"
	"github.com/gin-gonic/gin"

	"github.com/wms-platform/scanner-service/internal/application"
	"github.com/wms-platform/scanner-service/internal/domain"
	"github.com/wms-platform/scanner-service/internal/infrastructure/backend"
	"github.com/wms-platform/scanner-service/internal/infrastructure/camera"
	kafkaPublisher "github.com/wms-platform/scanner-service/internal/infrastructure/kafka"
	mongoStore "github.com/wms-platform/scanner-service/internal/infrastructure/mongodb"
	temporalFinalizer "github.com/wms-platform/scanner-service/internal/infrastructure/temporal"
	"github.com/wms-platform/scanner-service/pkg/cloudevents"
	"github.com/wms-platform/scanner-service/pkg/kafka"
	"github.com/wms-platform/scanner-service/pkg/logging"
	"github.com/wms-platform/scanner-service/pkg/metrics"
	"github.com/wms-platform/scanner-service/pkg/middleware"
	"github.com/wms-platform/scanner-service/pkg/mongodb"
	"github.com/wms-platform/scanner-service/pkg/resilience"
	"github.com/wms-platform/scanner-service/pkg/temporal"
	"github.com/wms-platform/scanner-service/pkg/tracing"
)

const serviceName = "scanner-service"

func main() {
	// Setup enhanced logger
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting scanner-service API")

	config := loadConfig()
	ctx := context.Background()

	// Initialize OpenTelemetry tracing
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = config.OTLPEndpoint
	tracingConfig.Environment = config.Environment
	tracingConfig.Enabled = config.TracingEnabled

	shutdownTracing, err := tracing.Setup(ctx, tracingConfig)
	if err != nil {
		// Scanning works without traces
		logger.WithError(err).Error("Failed to initialize tracing")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "enabled", tracingConfig.Enabled, "endpoint", tracingConfig.OTLPEndpoint)
	}

	m := metrics.New(metrics.DefaultConfig(serviceName))
	logger.Info("Metrics initialized")

	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	store := mongoStore.NewOperationStore(ctx, mongoClient.Database(), m, logger)

	breaker := resilience.NewCircuitBreaker(backend.BreakerConfig(), logger.Logger, m)
	backendClient := backend.NewClient(config.Backend, breaker, logger)
	logger.Info("Picking backend client initialized", "baseUrl", config.Backend.BaseURL)

	readiness := []func(context.Context) error{mongoClient.HealthCheck}

	var finalizer domain.OperationFinalizer = backendClient
	if config.Finalizer == FinalizerTemporal {
		temporalClient, err := temporal.NewClient(ctx, config.Temporal, logger.Logger)
		if err != nil {
			logger.WithError(err).Error("Failed to connect to Temporal")
			os.Exit(1)
		}
		defer temporalClient.Close()
		finalizer = temporalFinalizer.NewWorkflowFinalizer(temporalClient, logger)
		readiness = append(readiness, temporalClient.HealthCheck)
		logger.Info("Finalizing through picking workflow", "hostPort", config.Temporal.HostPort)
	}

	var publisher domain.EventPublisher
	if config.KafkaEnabled {
		kafkaProducer, err := kafka.NewProducer(config.Kafka)
		if err != nil {
			logger.WithError(err).Error("Invalid Kafka configuration")
			os.Exit(1)
		}
		defer kafkaProducer.Close()
		instrumentedProducer := kafka.NewInstrumentedProducer(kafkaProducer, m, logger)
		publisher = kafkaPublisher.NewSessionEventPublisher(
			instrumentedProducer,
			cloudevents.NewEventFactory(cloudevents.SourceScanner),
			kafka.Topics.PickingEvents,
		)
		logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)
	}

	reconciler := application.NewReconciler(store, logger, m)
	scanRouter := application.NewScanRouter(backendClient, reconciler, logger, m)

	sessionConfig := application.SessionConfig{
		IdleTimeout:       config.IdleTimeout,
		AutoValidate:      config.AutoValidate,
		NotificationLimit: config.NotificationLimit,
		CommandTimeout:    30 * time.Second,
		PublishTimeout:    config.PublishTimeout,
		Clock:             clock.New(),
	}
	manager := application.NewSessionManager(sessionConfig, application.SessionDeps{
		Router:     scanRouter,
		Reconciler: reconciler,
		Finalizer:  finalizer,
		Publisher:  publisher,
		Logger:     logger,
		Metrics:    m,
	}, camera.NewBridge())

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	middlewareConfig.AllowOrigins = config.AllowOrigins
	middleware.Setup(router, middlewareConfig)
	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.TracingMiddleware(serviceName))

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		for _, check := range readiness {
			if err := check(checkCtx); err != nil {
				return err
			}
		}
		return nil
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	registerRoutes(router, manager, logger)

	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 45 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr, "finalizer", config.Finalizer)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	manager.Shutdown(shutdownCtx)

	logger.Info("Server stopped")
}
