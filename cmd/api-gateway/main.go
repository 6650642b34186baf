package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/uni-enroll-api/api/swagger"
	"github.com/noah-isme/uni-enroll-api/internal/handler"
	"github.com/noah-isme/uni-enroll-api/internal/middleware"
	"github.com/noah-isme/uni-enroll-api/internal/models"
	"github.com/noah-isme/uni-enroll-api/internal/repository"
	"github.com/noah-isme/uni-enroll-api/internal/service"
	"github.com/noah-isme/uni-enroll-api/pkg/cache"
	"github.com/noah-isme/uni-enroll-api/pkg/config"
	"github.com/noah-isme/uni-enroll-api/pkg/database"
	"github.com/noah-isme/uni-enroll-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/uni-enroll-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/uni-enroll-api/pkg/middleware/requestid"
)

// @title Uni Enroll API
// @version 1.0.0
// @description Semester enrollment workflow service
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
		logr.Sugar().Warnw("redis unavailable, lookups uncached and numbering degraded", "error", err)
		redisClient = nil
	}

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	degreeRepo := repository.NewDegreeRepository(db)
	schemeRepo := repository.NewSchemeRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	formRepo := repository.NewFormRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Enrollment.SchemeCacheTTL, logr, redisClient != nil)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "uni-enroll-api",
	})

	schemeSvc := service.NewSchemeService(schemeRepo, degreeRepo, cacheSvc, cfg.Enrollment.SchemeCacheTTL, nil, logr)
	feeSvc := service.NewFeeService(feeRepo, nil, logr)
	numberingSvc := service.NewNumberingService(cacheRepo, cfg.Numbering, metricsSvc, logr)
	enrollmentSvc := service.NewEnrollmentService(
		formRepo, feeRepo, schemeSvc, degreeRepo, numberingSvc, metricsSvc,
		cfg.Enrollment.CreditCeiling, cfg.Enrollment.CreditFloor, nil, logr,
	)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	schemeHandler := handler.NewSchemeHandler(schemeSvc)
	feeHandler := handler.NewFeeHandler(feeSvc)
	formHandler := handler.NewEnrollmentHandler(enrollmentSvc)

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

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	schemes := authed.Group("/schemes")
	{
		schemes.GET("/subjects", schemeHandler.LookupSubjects)

		admin := schemes.Group("")
		admin.Use(middleware.RequireRoles(models.RoleAdmin))
		admin.Use(middleware.Audit(userRepo, models.AuditActionSchemeChange, "scheme"))
		admin.POST("", schemeHandler.Create)
		admin.PUT("/:id", schemeHandler.Update)
		admin.DELETE("/:id", schemeHandler.Deactivate)
	}

	fees := authed.Group("/fees")
	{
		fees.POST("", middleware.RequireRoles(models.RoleStudent, models.RoleAdmin), feeHandler.Submit)
		fees.GET("/:id", feeHandler.Get)
		fees.PATCH("/:id/status",
			middleware.RequireRoles(models.RoleFeeOffice, models.RoleAdmin),
			middleware.Audit(userRepo, models.AuditActionFeeDecision, "fee_verification"),
			feeHandler.Transition)
	}

	forms := authed.Group("/forms")
	{
		student := middleware.RequireRoles(models.RoleStudent, models.RoleAdmin)
		tutor := middleware.RequireRoles(models.RoleTutor, models.RoleAdmin)
		manager := middleware.RequireRoles(models.RoleManager, models.RoleAdmin)

		forms.POST("", student, middleware.Audit(userRepo, models.AuditActionFormOpen, "enrollment_form"), formHandler.Open)
		forms.POST("/:id/subjects", student, formHandler.SelectSubjects)
		forms.POST("/:id/submit", student, formHandler.Submit)

		forms.POST("/:id/tutor-sign", tutor,
			middleware.Audit(userRepo, models.AuditActionTutorSign, "enrollment_form"), formHandler.TutorSign)
		forms.POST("/:id/tutor-reject", tutor,
			middleware.Audit(userRepo, models.AuditActionTutorReject, "enrollment_form"), formHandler.TutorReject)
		forms.POST("/:id/manager-approve", manager,
			middleware.Audit(userRepo, models.AuditActionManagerApprove, "enrollment_form"), formHandler.ManagerApprove)
		forms.POST("/:id/manager-reject", manager,
			middleware.Audit(userRepo, models.AuditActionManagerReject, "enrollment_form"), formHandler.ManagerReject)

		forms.GET("", formHandler.List)
		forms.GET("/:id", formHandler.Get)
		forms.GET("/:id/snapshot", formHandler.Snapshot)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
