package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/pkbm-digital/rapor-api/api/swagger"
	"github.com/pkbm-digital/rapor-api/internal/handler"
	"github.com/pkbm-digital/rapor-api/internal/middleware"
	"github.com/pkbm-digital/rapor-api/internal/repository"
	"github.com/pkbm-digital/rapor-api/internal/service"
	"github.com/pkbm-digital/rapor-api/pkg/cache"
	"github.com/pkbm-digital/rapor-api/pkg/config"
	"github.com/pkbm-digital/rapor-api/pkg/database"
	"github.com/pkbm-digital/rapor-api/pkg/jobs"
	"github.com/pkbm-digital/rapor-api/pkg/logger"
	corsmiddleware "github.com/pkbm-digital/rapor-api/pkg/middleware/cors"
	reqidmiddleware "github.com/pkbm-digital/rapor-api/pkg/middleware/requestid"
	"github.com/pkbm-digital/rapor-api/pkg/render"
	"github.com/pkbm-digital/rapor-api/pkg/storage"
)

// @title PKBM Rapor API
// @version 1.0.0
// @description Report card aggregation, snapshot and rendering service
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
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, snapshot cache disabled", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close() //nolint:errcheck
		}
	}

	localStorage, err := storage.NewLocalStorage(cfg.Rapor.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init document storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Rapor.SignedURLSecret, cfg.Rapor.SignedURLTTL)

	validate := validator.New()

	// repositories
	yearRepo := repository.NewAcademicYearRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	competencyRepo := repository.NewCompetencyRepository(db)
	p5Repo := repository.NewP5Repository(db)
	extracurricularRepo := repository.NewExtracurricularRepository(db)
	attendanceRepo := repository.NewReportAttendanceRepository(db)
	reportCardRepo := repository.NewReportCardRepository(db)
	userRepo := repository.NewUserRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)

	// services
	metricsSvc := service.NewMetricsService()

	var snapshotCache *service.SnapshotCache
	if redisClient != nil {
		snapshotCache = service.NewSnapshotCache(repository.NewRedisCacheRepository(redisClient), cfg.Cache.TTL, true, metricsSvc, logr)
	} else {
		snapshotCache = service.NewSnapshotCache(nil, cfg.Cache.TTL, false, metricsSvc, logr)
	}

	aggregateSvc := service.NewAggregateService(scoreRepo, competencyRepo, p5Repo, extracurricularRepo, attendanceRepo, logr)
	reportCardSvc := service.NewReportCardService(studentRepo, classroomRepo, yearRepo, aggregateSvc, reportCardRepo, snapshotCache, metricsSvc, validate, logr)
	renderSvc := service.NewRenderService(reportCardRepo, studentRepo, classroomRepo, yearRepo, aggregateSvc, render.NewRaporRenderer(), metricsSvc, logr)
	exportSvc := service.NewExportService(exportJobRepo, reportCardRepo, classroomRepo, localStorage, signer, metricsSvc, validate, logr, cfg.Rapor.ResultTTL)
	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)

	// background workers
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exportQueue := jobs.NewQueue("recap-exports", exportSvc.Handle, jobs.QueueConfig{
		Workers:    cfg.Rapor.ExportWorkers,
		MaxRetries: cfg.Rapor.ExportRetries,
		RetryDelay: 5 * time.Second,
		Logger:     logr,
	})
	exportSvc.SetQueue(exportQueue)
	exportQueue.Start(rootCtx)
	defer exportQueue.Stop()

	if err := exportSvc.RecoverQueued(rootCtx); err != nil {
		logr.Sugar().Warnw("failed to recover queued export jobs", "error", err)
	}
	exportSvc.StartCleanup(rootCtx, cfg.Rapor.CleanupInterval)

	// handlers
	authHandler := handler.NewAuthHandler(authSvc)
	reportCardHandler := handler.NewReportCardHandler(reportCardSvc, renderSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	// signed token carries its own authorization
	api.GET("/exports/download", exportHandler.Download)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		protected.GET("/auth/me", authHandler.Me)

		protected.POST("/report-cards/generate", reportCardHandler.Generate)
		protected.POST("/report-cards/generate-batch", reportCardHandler.GenerateBatch)
		protected.GET("/report-cards/preview", reportCardHandler.Preview)
		protected.POST("/report-cards/finalize", reportCardHandler.Finalize)
		protected.DELETE("/report-cards", reportCardHandler.Delete)
		protected.GET("/report-cards/download", reportCardHandler.Download)
		protected.GET("/report-cards/simulasi", reportCardHandler.Simulate)

		protected.POST("/exports", exportHandler.Create)
		protected.GET("/exports/:id", exportHandler.Status)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
