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
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/siteops-api/api/swagger"
	"github.com/noah-isme/siteops-api/internal/handler"
	"github.com/noah-isme/siteops-api/internal/middleware"
	"github.com/noah-isme/siteops-api/internal/models"
	"github.com/noah-isme/siteops-api/internal/repository"
	"github.com/noah-isme/siteops-api/internal/service"
	"github.com/noah-isme/siteops-api/pkg/cache"
	"github.com/noah-isme/siteops-api/pkg/config"
	"github.com/noah-isme/siteops-api/pkg/database"
	"github.com/noah-isme/siteops-api/pkg/export"
	"github.com/noah-isme/siteops-api/pkg/jobs"
	"github.com/noah-isme/siteops-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/siteops-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/siteops-api/pkg/middleware/requestid"
)

// @title SiteOps API
// @version 1.0.0
// @description Construction-site progress reporting and dashboard service
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
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.Enabled)
	}

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	subActivityRepo := repository.NewSubActivityRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	reportRepo := repository.NewReportRepository(db)
	summaryRepo := repository.NewSummaryRepository(db)
	equipmentRepo := repository.NewEquipmentRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)

	// Services.
	invitationSvc := service.NewInvitationService(invitationRepo, cfg.Invites.TTL, validate, logr)
	authSvc := service.NewAuthService(userRepo, invitationSvc, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "siteops-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	companySvc := service.NewCompanyService(companyRepo, validate, logr)
	projectSvc := service.NewProjectService(projectRepo, validate, logr)
	activitySvc := service.NewActivityService(activityRepo, subActivityRepo, validate, logr)
	reportSvc := service.NewReportService(ledgerRepo, reportRepo, cacheSvc, metricsSvc, validate, logr)
	reconcileSvc := service.NewReconcileService(reportRepo, summaryRepo, cacheSvc, metricsSvc, logr)
	dashboardSvc := service.NewDashboardService(summaryRepo, projectRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)
	equipmentSvc := service.NewEquipmentService(equipmentRepo, validate, logr)
	safetySvc := service.NewSafetyService(cfg.Safety.ClassifierURL, cfg.Safety.Timeout, cfg.Safety.Enabled, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	companyHandler := handler.NewCompanyHandler(companySvc)
	projectHandler := handler.NewProjectHandler(projectSvc)
	activityHandler := handler.NewActivityHandler(activitySvc)
	reportHandler := handler.NewReportHandler(reportSvc, projectSvc, export.NewPDFExporter())
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	reconcileHandler := handler.NewReconcileHandler(reconcileSvc)
	equipmentHandler := handler.NewEquipmentHandler(equipmentSvc)
	invitationHandler := handler.NewInvitationHandler(invitationSvc)
	safetyHandler := handler.NewSafetyHandler(safetySvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/accept-invitation", authHandler.AcceptInvitation)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)

		protected := auth.Group("", middleware.JWT(authSvc))
		protected.POST("/logout", authHandler.Logout)
		protected.POST("/change-password", authHandler.ChangePassword)
		protected.GET("/me", authHandler.Me)
	}

	secured := api.Group("", middleware.JWT(authSvc))

	admins := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)
	managers := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleDirector, models.RolePM)
	approvers := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleDirector, models.RolePM, models.RoleCM)
	reporters := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleDirector, models.RolePM, models.RoleEngineer, models.RoleCM)

	users := secured.Group("/users", admins)
	{
		users.GET("", userHandler.List)
		users.POST("", userHandler.Create)
		users.GET("/:id", userHandler.Get)
		users.PUT("/:id", userHandler.Update)
		users.DELETE("/:id", userHandler.Delete)
	}

	companies := secured.Group("/companies")
	{
		companies.GET("", admins, companyHandler.List)
		companies.POST("", middleware.RequireRoles(models.RoleSuperAdmin), companyHandler.Create)
		companies.GET("/:companyId", companyHandler.Get)
		companies.PUT("/:companyId", admins, companyHandler.Update)
		companies.GET("/:companyId/invitations", admins, invitationHandler.List)
		companies.POST("/:companyId/invitations", admins, invitationHandler.Create)
	}

	projects := secured.Group("/projects")
	{
		projects.GET("", projectHandler.List)
		projects.POST("", managers, projectHandler.Create)
		projects.GET("/:projectId", projectHandler.Get)
		projects.PUT("/:projectId", managers, projectHandler.Update)
		projects.POST("/:projectId/close", managers, projectHandler.Close)

		projects.GET("/:projectId/activities", activityHandler.ListActivities)
		projects.POST("/:projectId/activities", managers, activityHandler.CreateActivity)

		projects.GET("/:projectId/reports", reportHandler.List)
		projects.POST("/:projectId/reports", reporters, reportHandler.Submit)
		projects.GET("/:projectId/reports/:reportId", reportHandler.Get)
		projects.POST("/:projectId/reports/:reportId/approve", approvers, middleware.Audit(userRepo, models.AuditActionReportApprove, "daily_report"), reportHandler.Approve)
		projects.GET("/:projectId/reports/:reportId/pdf", reportHandler.ExportPDF)

		if cfg.Dashboard.Enabled {
			projects.GET("/:projectId/dashboard", dashboardHandler.ProjectDashboard)
			projects.GET("/:projectId/anomalies", managers, dashboardHandler.Anomalies)
		}

		projects.GET("/:projectId/equipment", equipmentHandler.List)
		projects.POST("/:projectId/equipment", managers, equipmentHandler.Create)

		projects.POST("/:projectId/safety-checks", reporters, safetyHandler.Classify)
	}

	activities := secured.Group("/activities")
	{
		activities.GET("/:id", activityHandler.GetActivity)
		activities.PUT("/:id", managers, activityHandler.UpdateActivity)
		activities.DELETE("/:id", managers, activityHandler.DeleteActivity)
		activities.GET("/:id/sub-activities", activityHandler.ListSubActivities)
		activities.POST("/:id/sub-activities", managers, activityHandler.CreateSubActivity)
	}

	subActivities := secured.Group("/sub-activities")
	{
		subActivities.GET("/:id", activityHandler.GetSubActivity)
		subActivities.PUT("/:id", managers, activityHandler.UpdateSubActivity)
		subActivities.DELETE("/:id", managers, activityHandler.DeleteSubActivity)
	}

	equipment := secured.Group("/equipment")
	{
		equipment.GET("/:id", equipmentHandler.Get)
		equipment.PUT("/:id", managers, equipmentHandler.Update)
		equipment.DELETE("/:id", managers, equipmentHandler.Delete)
	}

	secured.POST("/admin/reconcile", admins, middleware.Audit(userRepo, models.AuditActionReconcileRun, "summary_ledger"), reconcileHandler.Run)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Reconcile.Scheduled {
		reconcileQueue := jobs.NewQueue("reconcile", func(ctx context.Context, job jobs.Job) error {
			result, err := reconcileSvc.Run(ctx)
			if err != nil {
				return err
			}
			logr.Sugar().Infow("scheduled reconciliation finished",
				"job_id", job.ID, "checked", result.Checked, "fixed", result.Fixed)
			return nil
		}, jobs.QueueConfig{
			Workers:    1,
			MaxRetries: cfg.Reconcile.Retries,
			RetryDelay: time.Minute,
			Logger:     logr,
		})
		reconcileQueue.Start(rootCtx)
		defer reconcileQueue.Stop()

		go func() {
			ticker := time.NewTicker(cfg.Reconcile.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-rootCtx.Done():
					return
				case <-ticker.C:
					if err := reconcileQueue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: "reconcile"}); err != nil {
						logr.Sugar().Warnw("failed to enqueue reconciliation", "error", err)
					}
				}
			}
		}()
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
