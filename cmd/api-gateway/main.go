package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/opr-api/api/swagger"
	"github.com/noah-isme/opr-api/internal/handler"
	internalmiddleware "github.com/noah-isme/opr-api/internal/middleware"
	"github.com/noah-isme/opr-api/internal/models"
	"github.com/noah-isme/opr-api/internal/repository"
	"github.com/noah-isme/opr-api/internal/service"
	"github.com/noah-isme/opr-api/pkg/cache"
	"github.com/noah-isme/opr-api/pkg/config"
	"github.com/noah-isme/opr-api/pkg/database"
	"github.com/noah-isme/opr-api/pkg/export"
	"github.com/noah-isme/opr-api/pkg/jobs"
	"github.com/noah-isme/opr-api/pkg/logger"
	"github.com/noah-isme/opr-api/pkg/mailer"
	corsmiddleware "github.com/noah-isme/opr-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/opr-api/pkg/middleware/requestid"
)

// @title Open Paper Review API
// @version 1.0.0
// @description Article submission and peer review for conference events
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

type handlers struct {
	auth     *handler.AuthHandler
	events   *handler.EventHandler
	articles *handler.ArticleHandler
	reviews  *handler.ReviewHandler
	metrics  *handler.MetricsHandler

	metricsSvc *service.MetricsService
	tokens     internalmiddleware.TokenValidator
}

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	// a nil interface keeps the cache repository in pass-through mode
	var redisClient redis.UniversalClient
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			redisClient = client
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	queue := jobs.NewQueue("notifications", jobs.QueueConfig{
		Workers:    cfg.Notify.Workers,
		MaxRetries: cfg.Notify.Retries,
		RetryDelay: cfg.Notify.RetryDelay,
		Logger:     logr,
	})

	h := buildHandlers(cfg, db, cacheRepo, queue, logr)

	// outlives the signal context so reviews accepted while draining are still notified
	queue.Start(context.Background())

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(h.metricsSvc))
	r.Use(internalmiddleware.WithResponseMeta())

	registerRoutes(r, cfg, h)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "cache", redisClient != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	queue.Stop()
}

func buildHandlers(cfg *config.Config, db *sqlx.DB, cacheRepo *repository.CacheRepository, queue *jobs.Queue, logr *zap.Logger) handlers {
	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	articleRepo := repository.NewArticleRepository(db)
	assignmentRepo := repository.NewArticleReviewerRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.ArticleTTL, logr, cfg.Cache.Enabled)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	eventSvc := service.NewEventService(eventRepo, cacheSvc, cfg.Cache.EventsTTL, logr)
	articleSvc := service.NewArticleService(articleRepo, userRepo, eventRepo, cacheSvc, metricsSvc, validate, logr, service.ArticleConfig{
		MaxFileSize: cfg.Uploads.MaxFileSizeBytes,
		CacheTTL:    cfg.Cache.ArticleTTL,
	})
	reviewSvc := service.NewReviewService(assignmentRepo, reviewRepo, articleRepo, userRepo, cacheSvc, metricsSvc, queue, validate, logr, cfg.Uploads.MaxFileSizeBytes)
	exportSvc := service.NewExportService(articleRepo, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	notifySvc := service.NewNotificationService(articleRepo, mailer.New(cfg.Mail), metricsSvc, logr)
	notifySvc.Register(queue)

	checks := map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
		"redis":    cacheRepo.Ping,
	}

	return handlers{
		auth:     handler.NewAuthHandler(authSvc),
		events:   handler.NewEventHandler(eventSvc),
		articles: handler.NewArticleHandler(articleSvc, exportSvc),
		reviews:  handler.NewReviewHandler(reviewSvc),
		metrics:  handler.NewMetricsHandler(metricsSvc, checks),

		metricsSvc: metricsSvc,
		tokens:     authSvc,
	}
}

func registerRoutes(r *gin.Engine, cfg *config.Config, h handlers) {
	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", h.auth.Login)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(h.tokens))

	secured.GET("/event", h.events.List)

	articles := secured.Group("/article")
	articles.POST("", h.articles.Create)
	articles.GET("", h.articles.List)
	articles.GET("/reviewer/:userId", h.reviews.ListForReviewer)
	articles.GET("/:id", h.articles.Get)
	articles.PUT("/:id", h.articles.UpdateFile)
	articles.GET("/:id/reviews", h.reviews.ListForArticle)
	articles.GET("/:id/reviews/export", h.articles.ExportReviews)
	articles.POST("/:id/reviewer", internalmiddleware.RequireRoles(models.RoleAdmin), h.reviews.Assign)

	secured.POST("/article-reviewer/:id/review", h.reviews.Submit)
}
