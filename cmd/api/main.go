package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/paradisefm/facilities-api/api/swagger"
	"github.com/paradisefm/facilities-api/internal/handler"
	"github.com/paradisefm/facilities-api/internal/middleware"
	"github.com/paradisefm/facilities-api/internal/repository"
	"github.com/paradisefm/facilities-api/internal/service"
	"github.com/paradisefm/facilities-api/pkg/cache"
	"github.com/paradisefm/facilities-api/pkg/config"
	"github.com/paradisefm/facilities-api/pkg/database"
	"github.com/paradisefm/facilities-api/pkg/jobs"
	"github.com/paradisefm/facilities-api/pkg/logger"
	"github.com/paradisefm/facilities-api/pkg/mailer"
	corsmiddleware "github.com/paradisefm/facilities-api/pkg/middleware/cors"
	reqidmiddleware "github.com/paradisefm/facilities-api/pkg/middleware/requestid"
	"github.com/paradisefm/facilities-api/pkg/storage"
)

// @title Facilities API
// @version 1.0.0
// @description Facility management: assets, maintenance and repair requests
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
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	contentStore, err := storage.NewContentStore(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare upload storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	smtp := mailer.NewSMTPMailer(cfg.Mail)
	mailQueue := jobs.NewQueue("mail", mailer.QueueHandler(smtp), jobs.QueueConfig{
		Workers:  cfg.Mail.Workers,
		Logger:   logr,
		Observer: metricsSvc.RecordMailJob,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mailQueue.Start(ctx)
	defer mailQueue.Stop()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	maintenanceRepo := repository.NewMaintenanceRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	locationSvc := service.NewLocationService(locationRepo, assetRepo, validate, logr)
	categorySvc := service.NewCategoryService(categoryRepo, validate, logr)
	assetSvc := service.NewAssetService(assetRepo, categoryRepo, maintenanceRepo, requestRepo, contentStore, validate, logr)
	maintenanceSvc := service.NewMaintenanceService(maintenanceRepo, assetRepo, validate, logr)
	plannerSvc := service.NewPlannerService(maintenanceRepo, requestRepo, cfg.Planner.OccurrenceCap, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, mailQueue, cfg.Mail.Notifications, logr)
	requestSvc := service.NewRequestService(service.RequestServiceParams{
		Repo:          requestRepo,
		Attachments:   attachmentRepo,
		Users:         userRepo,
		Notifications: notificationSvc,
		Store:         contentStore,
		Signer:        signer,
		Cache:         cacheRepo,
		Queue:         mailQueue,
		MailCfg:       cfg.Mail,
		UploadCfg:     cfg.Uploads,
		DashboardTTL:  cfg.Dashboard.CacheTTL,
		Validator:     validate,
		Logger:        logr,
	})
	costSvc := service.NewCostService(requestRepo, cacheRepo, cfg.CostOverview.CacheTTL, logr)
	invitationSvc := service.NewInvitationService(invitationRepo, userRepo, authSvc, mailQueue, cfg.BaseURL, cfg.Invitations.ValidFor, validate, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	locationHandler := handler.NewLocationHandler(locationSvc)
	categoryHandler := handler.NewCategoryHandler(categorySvc)
	assetHandler := handler.NewAssetHandler(assetSvc)
	maintenanceHandler := handler.NewMaintenanceHandler(maintenanceSvc)
	requestHandler := handler.NewRequestHandler(requestSvc, metricsSvc, logr)
	plannerHandler := handler.NewPlannerHandler(plannerSvc)
	costHandler := handler.NewCostHandler(costSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	invitationHandler := handler.NewInvitationHandler(invitationSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// Public endpoints.
	api.POST("/auth/login", authHandler.Login)
	api.POST("/requests", middleware.OptionalJWT(authSvc), requestHandler.Create)
	api.GET("/attachments/download/:token", requestHandler.Download)
	api.GET("/invitations/accept/:token", invitationHandler.GetByToken)
	api.POST("/invitations/accept/:token", invitationHandler.Accept)

	// Authenticated endpoints.
	authed := api.Group("", middleware.JWT(authSvc))
	authed.POST("/auth/change-password", authHandler.ChangePassword)
	authed.GET("/auth/me", authHandler.Me)
	authed.GET("/users/search", userHandler.Search)

	authed.GET("/locations", locationHandler.List)
	authed.GET("/locations/:id", locationHandler.Get)
	authed.GET("/categories", categoryHandler.List)
	authed.GET("/assets", assetHandler.List)
	authed.GET("/assets/search", assetHandler.Search)
	authed.GET("/assets/:id", assetHandler.Get)

	authed.GET("/requests", requestHandler.List)
	authed.GET("/requests/:id", requestHandler.Get)
	authed.POST("/requests/:id/worklogs", requestHandler.AddWorkLog)
	authed.POST("/requests/:id/attachments", requestHandler.AddAttachment)

	authed.GET("/notifications", notificationHandler.List)
	authed.GET("/notifications/unread-count", notificationHandler.UnreadCount)
	authed.POST("/notifications/:id/read", notificationHandler.MarkRead)
	authed.POST("/notifications/read-all", notificationHandler.MarkAllRead)

	// Facilities staff endpoints.
	staff := authed.Group("", middleware.RequireStaff())
	staff.POST("/locations", locationHandler.Create)
	staff.PUT("/locations/:id", locationHandler.Update)
	staff.DELETE("/locations/:id", locationHandler.Delete)

	staff.POST("/assets", assetHandler.Create)
	staff.PUT("/assets/:id", assetHandler.Update)
	staff.DELETE("/assets/:id", assetHandler.Delete)
	staff.POST("/assets/:id/photo", assetHandler.UploadPhoto)

	staff.GET("/assets/:id/schedules", maintenanceHandler.ListByAsset)
	staff.POST("/assets/:id/schedules", maintenanceHandler.Create)
	staff.PUT("/schedules/:id", maintenanceHandler.Update)
	staff.DELETE("/schedules/:id", maintenanceHandler.Delete)
	staff.POST("/schedules/:id/perform", maintenanceHandler.Perform)

	staff.PATCH("/requests/:id", requestHandler.Update)
	staff.PUT("/requests/:id/description", requestHandler.UpdateDescription)
	staff.PUT("/requests/:id/resolution", requestHandler.UpdateResolution)
	staff.POST("/requests/:id/duplicate", requestHandler.Duplicate)
	staff.DELETE("/requests/:id", requestHandler.Delete)
	staff.GET("/dashboard", requestHandler.Dashboard)

	staff.GET("/planner", plannerHandler.View)
	staff.GET("/costs", costHandler.Overview)
	staff.GET("/costs/export/csv", costHandler.ExportCSV)
	staff.GET("/costs/export/pdf", costHandler.ExportPDF)

	staff.POST("/invitations", invitationHandler.Create)
	staff.GET("/invitations", invitationHandler.List)
	staff.DELETE("/invitations/:id", invitationHandler.Cancel)

	// Administration.
	admin := authed.Group("", middleware.RequireAdmin())
	admin.GET("/users", userHandler.List)
	admin.POST("/categories", categoryHandler.Create)
	admin.PUT("/categories/:id", categoryHandler.Update)
	admin.DELETE("/categories/:id", categoryHandler.Delete)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("shutdown incomplete", "error", err)
	}
	if err := cacheRepo.Close(); err != nil {
		logr.Sugar().Warnw("redis close failed", "error", err)
	}
}
