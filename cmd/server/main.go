package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	dashboardapp "github.com/shopfloor/backend/internal/application/dashboard"
	outworkapp "github.com/shopfloor/backend/internal/application/outwork"
	partnerapp "github.com/shopfloor/backend/internal/application/partner"
	"github.com/shopfloor/backend/internal/infrastructure/auth"
	"github.com/shopfloor/backend/internal/infrastructure/cache"
	"github.com/shopfloor/backend/internal/infrastructure/config"
	"github.com/shopfloor/backend/internal/infrastructure/event"
	"github.com/shopfloor/backend/internal/infrastructure/logger"
	"github.com/shopfloor/backend/internal/infrastructure/persistence"
	"github.com/shopfloor/backend/internal/infrastructure/storage"
	"github.com/shopfloor/backend/internal/infrastructure/telemetry"
	"github.com/shopfloor/backend/internal/interfaces/http/handler"
	"github.com/shopfloor/backend/internal/interfaces/http/middleware"
	"github.com/shopfloor/backend/internal/interfaces/http/router"
	"go.uber.org/zap"

	_ "github.com/shopfloor/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Shopfloor Outwork API
//	@version		1.0
//	@description	External processing move and reconciliation backend: partner directory, outwork move ledger, receipt reconciliation, and floor dashboards.

//	@contact.name	API Support
//	@contact.url	https://github.com/shopfloor/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx := context.Background()

	// Initialize telemetry. Every provider degrades to a no-op when disabled,
	// so the wiring below never needs enabled checks of its own.
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.TracerConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Bridge application logs to the collector when telemetry is on
	if cfg.Telemetry.Enabled {
		logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
			Enabled:           cfg.Telemetry.Enabled,
			CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
			ServiceName:       cfg.Telemetry.ServiceName,
			Insecure:          cfg.Telemetry.Insecure,
		}, log)
		if err != nil {
			log.Fatal("Failed to initialize logs provider", zap.Error(err))
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := logsProvider.Shutdown(shutdownCtx); err != nil {
				log.Error("Error shutting down logs provider", zap.Error(err))
			}
		}()

		bridged, err := telemetry.CreateBridgedLoggerFromConfig(&telemetry.BaseLoggerConfig{
			Level:      cfg.Log.Level,
			Format:     cfg.Log.Format,
			Output:     cfg.Log.Output,
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		}, logsProvider, cfg.Telemetry.ServiceName)
		if err != nil {
			log.Fatal("Failed to initialize bridged logger", zap.Error(err))
		}
		log = bridged
	}

	// Continuous profiling
	if cfg.Telemetry.ProfilerEnabled {
		profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
			Enabled:           true,
			ServerAddress:     cfg.Telemetry.ProfilerAddress,
			ApplicationName:   cfg.App.Name,
			ProfileCPU:        true,
			ProfileInuseSpace: true,
			ProfileGoroutines: true,
		}, log)
		if err != nil {
			log.Fatal("Failed to start profiler", zap.Error(err))
		}
		defer func() {
			if err := profiler.Stop(); err != nil {
				log.Error("Error stopping profiler", zap.Error(err))
			}
		}()
		// Link profiles to traces so a slow span points at its flame graph
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to enable span profiles", zap.Error(err))
		}
	}

	log.Info("Starting Shopfloor Outwork Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Database query tracing and pool metrics
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:          cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:       cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh:  cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:         "postgresql",
		WithoutVariables: !cfg.Telemetry.DBLogFullSQL,
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	dbMetricsConfig := telemetry.DefaultDBMetricsConfig()
	dbMetricsConfig.Enabled = cfg.Telemetry.Enabled
	dbMetricsConfig.SlowQueryThreshold = cfg.Telemetry.DBSlowQueryThresh
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, dbMetricsConfig, log)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}
	if dbMetrics != nil {
		dbMetrics.StartPoolStatsCollection(ctx)
		defer dbMetrics.Stop()
	}

	// Initialize repositories
	partnerRepo := persistence.NewGormPartnerRepository(db.DB)
	moveRepo := persistence.NewGormMoveRepository(db.DB)
	receiptRepo := persistence.NewGormReceiptRepository(db.DB)
	documentRepo := persistence.NewGormMoveDocumentRepository(db.DB)

	// Initialize object storage for challans and QC sheets
	var objectStorage outworkapp.ObjectStorageService
	switch cfg.Storage.Provider {
	case "s3":
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage)
		if err != nil {
			log.Fatal("Failed to initialize S3 storage", zap.Error(err))
		}
		objectStorage = s3Storage
		log.Info("S3 object storage initialized",
			zap.String("bucket", cfg.Storage.Bucket),
			zap.String("endpoint", cfg.Storage.Endpoint),
		)
	default:
		objectStorage = storage.NewStubObjectStorage()
		log.Warn("Using in-memory stub object storage; documents will not survive a restart")
	}

	// Initialize application services
	partnerService := partnerapp.NewPartnerService(partnerRepo)
	partnerService.SetMoveRepo(moveRepo)
	moveService := outworkapp.NewMoveService(moveRepo, receiptRepo, partnerRepo)
	documentService := outworkapp.NewDocumentService(documentRepo, moveRepo, receiptRepo, objectStorage)
	dashboardService := dashboardapp.NewDashboardService(moveRepo, receiptRepo, partnerRepo)
	dashboardService.SetConfig(dashboardapp.DashboardConfig{
		WindowDays: cfg.Dashboard.WindowDays,
		CacheTTL:   cfg.Dashboard.CacheTTL,
	})

	// Outwork business metrics: receipt/over-receipt counters plus the
	// periodically collected open and overdue move gauges
	if meterProvider.IsEnabled() {
		businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:           meterProvider.Meter("outwork.business"),
			Logger:          log,
			OutworkProvider: telemetry.NewGormOutworkMetricsProvider(db.DB),
		})
		if err != nil {
			log.Fatal("Failed to initialize business metrics", zap.Error(err))
		}
		businessMetrics.StartPeriodicCollection(ctx, 5*time.Minute)
		defer businessMetrics.Stop()
		moveService.SetBusinessMetrics(businessMetrics)
	}

	// Dashboard summary cache: Redis when reachable, in-memory fallback
	cacheFactory := cache.NewSummaryCacheFactory(cfg.Redis, cache.WithLogger(log))
	summaryCache, err := cacheFactory.CreateCache()
	if err != nil {
		log.Fatal("Failed to initialize summary cache", zap.Error(err))
	}
	dashboardService.SetSummaryCache(summaryCache)

	// Event bus: move/receipt events drop stale dashboard summaries so the
	// next read recomputes from the ledger
	eventBus := event.NewInMemoryEventBus(log)
	cacheInvalidator := dashboardapp.NewCacheInvalidator(summaryCache, log)
	eventBus.Subscribe(cacheInvalidator, cacheInvalidator.EventTypes()...)
	log.Info("Event handlers registered",
		zap.Strings("dashboard_invalidation_events", cacheInvalidator.EventTypes()),
	)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	moveService.SetEventPublisher(eventBus)

	// JWT verification only: tokens are issued by the platform identity
	// service, this API never mints or refreshes them
	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize HTTP handlers
	partnerHandler := handler.NewPartnerHandler(partnerService)
	moveHandler := handler.NewMoveHandler(moveService)
	documentHandler := handler.NewDocumentHandler(documentService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing/metrics/profiling labels
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanErrorMarker())
		engine.Use(middleware.HTTPMetricsWithMeter(meterProvider.Meter("http.server"), true))
	}
	if cfg.Telemetry.ProfilerEnabled {
		engine.Use(middleware.Profiling())
	}
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Swagger documentation endpoint, guarded per config
	if cfg.Swagger.Enabled {
		swaggerGuard := middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, middleware.JWTAuthMiddleware(jwtService))
		engine.GET("/swagger/*any", swaggerGuard, ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT verification middleware to API routes
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Partner directory (management screens' backend; the engine reads it)
	partnerRoutes := router.NewDomainGroup("partner", "/partners")
	partnerRoutes.POST("", partnerHandler.Create)
	partnerRoutes.GET("", partnerHandler.List)
	partnerRoutes.GET("/status-counts", partnerHandler.CountByStatus)
	partnerRoutes.GET("/code/:code", partnerHandler.GetByCode)
	partnerRoutes.GET("/:id", partnerHandler.GetByID)
	partnerRoutes.PUT("/:id", partnerHandler.Update)
	partnerRoutes.PUT("/:id/code", partnerHandler.UpdateCode)
	partnerRoutes.POST("/:id/processes", partnerHandler.AddProcess)
	partnerRoutes.DELETE("/:id/processes/:process", partnerHandler.RemoveProcess)
	partnerRoutes.POST("/:id/activate", partnerHandler.Activate)
	partnerRoutes.POST("/:id/deactivate", partnerHandler.Deactivate)
	partnerRoutes.DELETE("/:id", partnerHandler.Delete)

	// Outwork move ledger and receipt reconciliation
	outworkRoutes := router.NewDomainGroup("outwork", "/outwork")
	outworkRoutes.POST("/moves", moveHandler.Create)
	outworkRoutes.GET("/moves", moveHandler.List)
	outworkRoutes.GET("/moves/overdue", moveHandler.ListOverdue)
	outworkRoutes.GET("/moves/:id", moveHandler.GetByID)
	outworkRoutes.POST("/moves/:id/void", moveHandler.Void)
	outworkRoutes.POST("/moves/:id/receipts", moveHandler.RecordReceipt)
	outworkRoutes.GET("/moves/:id/receipts", moveHandler.ListReceipts)
	outworkRoutes.GET("/moves/:id/verify", moveHandler.Verify)
	outworkRoutes.GET("/work-orders/:id/moves", moveHandler.ListByWorkOrder)
	outworkRoutes.GET("/receipts", moveHandler.ReceiptsRegister)

	// Move document attachments (delivery challans, QC sheets)
	outworkRoutes.POST("/documents/upload", documentHandler.InitiateUpload)
	outworkRoutes.GET("/moves/:id/documents", documentHandler.ListByMove)
	outworkRoutes.POST("/documents/:id/confirm", documentHandler.ConfirmUpload)
	outworkRoutes.GET("/documents/:id", documentHandler.GetByID)
	outworkRoutes.GET("/documents/:id/download", documentHandler.GetDownloadURL)
	outworkRoutes.DELETE("/documents/:id", documentHandler.Delete)
	outworkRoutes.DELETE("/documents/:id/permanent", documentHandler.PermanentDelete)

	// Dashboard read models
	dashboardRoutes := router.NewDomainGroup("dashboard", "/dashboard")
	dashboardRoutes.GET("/partners/:id/stats", dashboardHandler.PartnerStats)
	dashboardRoutes.GET("/process-summary", dashboardHandler.ProcessSummary)
	dashboardRoutes.GET("/scoreboard", dashboardHandler.Scoreboard)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(partnerRoutes).
		Register(outworkRoutes).
		Register(dashboardRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
