package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/mcabalar/acadrepo-api/api/swagger"
	"github.com/mcabalar/acadrepo-api/internal/handler"
	"github.com/mcabalar/acadrepo-api/internal/middleware"
	"github.com/mcabalar/acadrepo-api/internal/repository"
	"github.com/mcabalar/acadrepo-api/internal/service"
	"github.com/mcabalar/acadrepo-api/pkg/cache"
	"github.com/mcabalar/acadrepo-api/pkg/config"
	"github.com/mcabalar/acadrepo-api/pkg/database"
	"github.com/mcabalar/acadrepo-api/pkg/export"
	"github.com/mcabalar/acadrepo-api/pkg/jobs"
	"github.com/mcabalar/acadrepo-api/pkg/logger"
	corsmiddleware "github.com/mcabalar/acadrepo-api/pkg/middleware/cors"
	reqidmiddleware "github.com/mcabalar/acadrepo-api/pkg/middleware/requestid"
	"github.com/mcabalar/acadrepo-api/pkg/storage"
)

// @title Academic Repository API
// @version 1.0.0
// @description Resource lifecycle and approval orchestration for the academic repository
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// stats fall back to direct queries without the cache
		logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
		redisClient = nil
	}

	files, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare upload storage", "error", err)
	}

	// repositories
	userRepo := repository.NewUserRepository(db)
	resourceRepo := repository.NewResourceRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	archiveRepo := repository.NewArchiveRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// services
	effects := service.NewEffectRecorder(notificationRepo, auditRepo, logr)
	effectQueue := jobs.NewQueue("effects", effects.HandleEffect, jobs.QueueConfig{Workers: 2, Logger: logr})
	effectQueue.Start(context.Background())
	defer effectQueue.Stop()
	effects.UseQueue(effectQueue)

	metricsService := service.NewMetricsService()
	authService := service.NewAuthService(userRepo, effects, validator.New(), logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	lifecycleService := service.NewLifecycleService(resourceRepo, files, effects, logr)
	bulkService := service.NewBulkService(lifecycleService, requestRepo, effects, logr)
	requestService := service.NewRequestService(requestRepo, cacheRepo, export.NewCSVExporter(), export.NewPDFExporter(), metricsService, cfg.Requests, logr)
	archiveService := service.NewArchiveService(archiveRepo, logr)
	notificationService := service.NewNotificationService(notificationRepo, logr)
	auditService := service.NewAuditService(auditRepo)
	submissionService := service.NewSubmissionService(submissionRepo, files, effects, logr)
	signer := storage.NewTokenSigner(cfg.JWT.Secret, cfg.Uploads.DownloadTokenTTL)
	fileService := service.NewFileService(resourceRepo, files, signer, logr)

	// handlers
	authHandler := handler.NewAuthHandler(authService)
	lifecycleHandler := handler.NewLifecycleHandler(lifecycleService, requestService, metricsService)
	bulkHandler := handler.NewBulkHandler(bulkService, requestService, metricsService)
	requestHandler := handler.NewRequestHandler(requestService, lifecycleService, bulkService, metricsService)
	archiveHandler := handler.NewArchiveHandler(archiveService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	submissionHandler := handler.NewSubmissionHandler(submissionService)
	auditHandler := handler.NewAuditHandler(auditService)
	fileHandler := handler.NewFileHandler(fileService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))
	r.MaxMultipartMemory = cfg.Uploads.MaxFileSizeBytes

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authService))
	authed.GET("/auth/me", authHandler.Me)

	authed.GET("/notifications", notificationHandler.List)
	authed.PUT("/notifications/read", notificationHandler.MarkRead)
	authed.PUT("/notifications/read-all", notificationHandler.MarkAllRead)

	authed.GET("/resources/download", fileHandler.Download)

	authed.POST("/submissions/research", submissionHandler.SubmitResearch)
	authed.POST("/submissions/materials", submissionHandler.SubmitMaterial)
	authed.POST("/submissions/learning-materials", submissionHandler.SubmitLearningMaterial)

	moderated := authed.Group("")
	moderated.Use(middleware.RequireModerator())
	moderated.Use(middleware.AccessLog(effects, "admin_api"))

	moderated.POST("/classes", submissionHandler.CreateClass)

	moderated.GET("/requests", requestHandler.List)
	moderated.GET("/requests/stats", requestHandler.Stats)
	moderated.GET("/requests/departments", requestHandler.Departments)
	moderated.GET("/requests/export", requestHandler.Export)
	moderated.GET("/requests/:id", requestHandler.Get)
	moderated.PUT("/requests/bulk-review", requestHandler.BulkReview)
	moderated.PUT("/requests/:type/:id/review", requestHandler.Review)

	moderated.GET("/resources/:type/:id", lifecycleHandler.Get)
	moderated.GET("/resources/:type/:id/download-url", fileHandler.DownloadToken)
	moderated.PUT("/resources/status", lifecycleHandler.Transition)
	moderated.POST("/resources/archive", lifecycleHandler.Archive)
	moderated.POST("/resources/restore", lifecycleHandler.Restore)
	moderated.POST("/resources/delete", lifecycleHandler.Delete)
	moderated.POST("/resources/bulk", bulkHandler.Apply)

	moderated.GET("/archive", archiveHandler.List)
	moderated.GET("/archive/stats", archiveHandler.Stats)

	moderated.GET("/audit/recent", auditHandler.Recent)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
