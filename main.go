package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/greenplanet/inventory-server/ai"
	apirest "github.com/greenplanet/inventory-server/api/rest"
	"github.com/greenplanet/inventory-server/api/sse"
	"github.com/greenplanet/inventory-server/audit"
	"github.com/greenplanet/inventory-server/cache"
	"github.com/greenplanet/inventory-server/config"
	dbadapter "github.com/greenplanet/inventory-server/db"
	"github.com/greenplanet/inventory-server/email"
	"github.com/greenplanet/inventory-server/intake"
	"github.com/greenplanet/inventory-server/inventory"
	mw "github.com/greenplanet/inventory-server/middleware"
	"github.com/greenplanet/inventory-server/model"
	"github.com/greenplanet/inventory-server/pipeline"
	"github.com/greenplanet/inventory-server/scheduler"
	"github.com/greenplanet/inventory-server/storage"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if len(cfg.Security.AdminIPs) == 0 {
		logger.Warn("security.admin_ips is not set; admin endpoints are open to all IPs")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized")

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(nil)

	// ---- Cache / PubSub ----
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheConfig)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cacheConfig)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()

	// ---- Services ----
	uploader := storage.NewS3Uploader(cfg.Storage)
	aiClient := ai.NewClient(cfg.AI, logger)
	mailer := email.NewHTTPMailer(cfg.Email, logger)
	invSvc := inventory.NewService(db, pubsub, logger)
	analyzer := pipeline.NewAnalyzer(uploader, aiClient, invSvc, logger)
	staging := intake.NewRegistry()

	// ---- Periodic Scheduler Tasks ----
	retention := time.Duration(cfg.Audit.RetentionDays) * 24 * time.Hour
	sched.AddTicker("audit_purge", 6*time.Hour, func() {
		auditSvc.Purge(retention)
	})

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST API routes ----
	authH := apirest.NewAuthHandler(db, c, cfg.Security, auditSvc)
	itemsH := apirest.NewItemsHandler(invSvc, auditSvc, logger)
	intakeH := apirest.NewIntakeHandler(staging, analyzer, auditSvc, logger)
	jobsH := apirest.NewJobsHandler(db, auditSvc)
	reportsH := apirest.NewReportsHandler(db, invSvc, aiClient, mailer, auditSvc, logger)
	assistantH := apirest.NewAssistantHandler(invSvc, aiClient, logger)
	adminH := apirest.NewAdminHandler(db, auditSvc, sched, logger)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(cfg.Security, c), authH.Logout)
		authG.POST("/refresh", mw.Auth(cfg.Security, c), authH.Refresh)

		authed := api.Group("")
		authed.Use(mw.Auth(cfg.Security, c))

		authed.GET("/me", authH.Me)
		authed.PUT("/me", authH.UpdateProfile)

		authed.POST("/intake", intakeH.Stage)
		authed.GET("/intake", intakeH.List)
		authed.DELETE("/intake/:index", intakeH.Remove)
		authed.POST("/analyze", intakeH.Analyze)

		authed.GET("/items", itemsH.List)
		authed.PUT("/items/:id", itemsH.Update)
		authed.DELETE("/items/:id", itemsH.Delete)

		authed.GET("/jobs", jobsH.List)
		authed.POST("/jobs", jobsH.Create)
		authed.PUT("/jobs/:id", jobsH.Update)

		authed.GET("/reports/defaults", reportsH.Defaults)
		authed.POST("/reports/preview", reportsH.Preview)
		authed.POST("/reports/document", reportsH.Document)
		authed.POST("/reports/draft", reportsH.Draft)
		authed.POST("/reports/email", reportsH.SendEmail)

		authed.POST("/assistant", assistantH.Ask)
	}

	adminG := r.Group("/admin")
	adminG.Use(mw.IPWhitelist(cfg.Security.AdminIPs))
	adminG.GET("/metrics", adminH.Metrics)
	adminG.GET("/audit", adminH.AuditLog)
	adminG.POST("/accounts/:id/disable", adminH.DisableAccount)

	// ---- SSE ----
	sseH := sse.NewHandler(pubsub, c, cfg.Security, logger)
	r.GET("/sse", sseH.ServeSSE)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
