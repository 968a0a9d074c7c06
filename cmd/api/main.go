package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/fixhub-dev/fixhub-api/api/swagger"
	"github.com/fixhub-dev/fixhub-api/internal/handler"
	"github.com/fixhub-dev/fixhub-api/internal/middleware"
	"github.com/fixhub-dev/fixhub-api/internal/repository"
	"github.com/fixhub-dev/fixhub-api/internal/service"
	"github.com/fixhub-dev/fixhub-api/pkg/cache"
	"github.com/fixhub-dev/fixhub-api/pkg/config"
	"github.com/fixhub-dev/fixhub-api/pkg/database"
	"github.com/fixhub-dev/fixhub-api/pkg/logger"
	corsmiddleware "github.com/fixhub-dev/fixhub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/fixhub-dev/fixhub-api/pkg/middleware/requestid"
)

// @title FixHub API
// @version 1.0.0
// @description Repair shop management API
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, summary cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	repairRepo := repository.NewRepairRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "fixhub-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	summarySvc := service.NewSummaryService(repairRepo, cacheRepo, metricsSvc, logr, cfg.Summary.CacheTTL)
	repairSvc := service.NewRepairService(repairRepo, userRepo, paymentRepo, userRepo, summarySvc, validate, logr,
		service.RepairPolicy{
			ReferencePrefix:        cfg.Lifecycle.ReferencePrefix,
			AutoStartOnAssign:      cfg.Lifecycle.AutoStartOnAssign,
			RequirePaidForDelivery: cfg.Payments.RequirePaidForDelivery,
		},
		service.WithTransitionObserver(metricsSvc),
	)
	paymentSvc := service.NewPaymentService(paymentRepo, repairRepo, userRepo, validate, logr)
	exportSvc := service.NewExportService(repairRepo, userRepo, paymentRepo, logr, "FixHub Repair Shop")

	handlers := handler.Handlers{
		Auth:    handler.NewAuthHandler(authSvc),
		Repair:  handler.NewRepairHandler(repairSvc, summarySvc),
		Payment: handler.NewPaymentHandler(paymentSvc),
		User:    handler.NewUserHandler(userSvc),
		Export:  handler.NewExportHandler(exportSvc),
		Metrics: handler.NewMetricsHandler(metricsSvc),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", handlers.Metrics.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", handlers.Metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, handlers, authSvc, handler.RouterOptions{
		ExportsEnabled: cfg.Exports.Enabled,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
