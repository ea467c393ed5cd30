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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/teachreg/trs-api/api/swagger"
	"github.com/teachreg/trs-api/internal/handler"
	"github.com/teachreg/trs-api/internal/middleware"
	"github.com/teachreg/trs-api/internal/models"
	"github.com/teachreg/trs-api/internal/outbox"
	"github.com/teachreg/trs-api/internal/repository"
	"github.com/teachreg/trs-api/internal/service"
	"github.com/teachreg/trs-api/internal/store"
	"github.com/teachreg/trs-api/pkg/cache"
	"github.com/teachreg/trs-api/pkg/config"
	"github.com/teachreg/trs-api/pkg/database"
	"github.com/teachreg/trs-api/pkg/logger"
	corsmiddleware "github.com/teachreg/trs-api/pkg/middleware/cors"
	reqidmiddleware "github.com/teachreg/trs-api/pkg/middleware/requestid"
	"github.com/teachreg/trs-api/pkg/storage"
)

// @title Teacher Records Service API
// @version 1.0.0
// @description Registry of teacher records, ITT outcomes and QTS awards
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
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	entityClient := store.NewPostgresClient(db, logr)

	referenceRepo := repository.NewReferenceRepository(db)
	reviewTaskRepo := repository.NewReviewTaskRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	apiClientRepo := repository.NewAPIClientRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	resolver := service.NewReferenceResolver(referenceRepo, logr)
	var matcher *service.DuplicateMatcher
	if cfg.Matching.Enabled {
		matcher = service.NewDuplicateMatcher(entityClient, logr)
	}
	trns := service.NewRedisTRNAllocator(redisClient)
	metrics := service.NewMetricsService()

	creates := service.NewCreateTeacherService(entityClient, resolver, matcher, trns, nil, logr)
	results := service.NewIttResultService(entityClient, resolver, nil, logr)

	exports := service.NewReviewExportService(reviewTaskRepo, nil, nil, logr)
	if cfg.Export.Enabled {
		exportStore, err := storage.NewLocalStorage(cfg.Export.Dir)
		if err != nil {
			logr.Sugar().Fatalw("failed to prepare export directory", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.JWT.Secret, cfg.Export.LinkTTL)
		exports = service.NewReviewExportService(reviewTaskRepo, exportStore, signer, logr)
	}
	auth := service.NewAuthService(apiClientRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		Audience:          cfg.JWT.Audience,
	})

	if cfg.Outbox.Enabled {
		relay := outbox.NewRelay(outboxRepo, outbox.NewLogSink(logr), metrics, outbox.RelayConfig{
			PollInterval: cfg.Outbox.PollInterval,
			BatchSize:    cfg.Outbox.BatchSize,
			Workers:      cfg.Outbox.Workers,
			MaxRetries:   cfg.Outbox.Retries,
			RetryDelay:   cfg.Outbox.RetryDelay,
		}, logr)
		relay.Start(ctx)
		defer relay.Stop()
	}

	teacherHandler := handler.NewTeacherHandler(creates, results, metrics)
	reviewHandler := handler.NewReviewTaskHandler(reviewTaskRepo, exports)
	authHandler := handler.NewAuthHandler(auth)
	metricsHandler := handler.NewMetricsHandler(metrics, db, redisClient)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/token",
		middleware.Audit(auditRepo, models.AuditActionTokenIssued, "token"),
		authHandler.Token)

	secured := api.Group("", middleware.JWT(auth))
	secured.POST("/teachers",
		middleware.RequireScope("teachers:write"),
		middleware.Audit(auditRepo, models.AuditActionTeacherCreated, "teacher"),
		teacherHandler.Create)
	secured.PUT("/teachers/:trn/itt-outcome",
		middleware.RequireScope("teachers:write"),
		middleware.Audit(auditRepo, models.AuditActionIttOutcomeSet, "teacher"),
		teacherHandler.SetIttOutcome)
	secured.GET("/review-tasks", middleware.RequireScope("review:read"), reviewHandler.List)
	secured.POST("/review-tasks/:id/complete",
		middleware.RequireScope("review:write"),
		middleware.Audit(auditRepo, models.AuditActionReviewTaskComplete, "review_task"),
		reviewHandler.Complete)
	secured.GET("/review-tasks/export", middleware.RequireScope("review:read"), reviewHandler.Export)
	if cfg.Export.Enabled {
		// Downloads authenticate with the signed token alone.
		api.GET("/review-tasks/export/download", reviewHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
