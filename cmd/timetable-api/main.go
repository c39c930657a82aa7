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
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable-api/api/swagger"
	"github.com/noah-isme/sma-timetable-api/internal/handler"
	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/cache"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-timetable-api/pkg/storage"
)

// @title Timetable Conflict API
// @version 1.0.0
// @description Conflict detection and allocation validation for the university timetable
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

type sessionStore interface {
	service.SessionLoader
	service.SessionPersister
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()

	store, closeStore, err := openStore(ctx, cfg, metrics, logr)
	if err != nil {
		logr.Fatal("failed to open timetable storage", zap.Error(err))
	}
	defer closeStore()

	cacheRepo := repository.NewCacheRepository(nil, logr)
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, summary cache disabled", zap.Error(err))
		} else {
			cacheRepo = repository.NewCacheRepository(client, logr)
		}
	}
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.SummaryTTL, logr, cfg.Cache.SummaryEnabled)

	validate := validator.New()
	timetableCfg := service.TimetableConfig{
		DefaultRoomCapacity: cfg.Timetable.DefaultRoomCapacity,
		SummaryCacheTTL:     cfg.Cache.SummaryTTL,
	}
	if cfg.Timetable.StrictCoScheduling {
		timetableCfg.Rules = service.StrictCoScheduleRules()
	}
	timetableSvc := service.NewTimetableService(store, store, cacheSvc, metrics, validate, logr, timetableCfg)

	queue := jobs.NewQueue(service.PersistJobType, timetableSvc.HandlePersistJob, jobs.QueueConfig{
		Workers:    cfg.Persist.Workers,
		MaxRetries: cfg.Persist.Retries,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
		OnExhausted: func(job jobs.Job, err error) {
			metrics.RecordPersistJob("abandoned")
			logr.Error("timetable persistence abandoned", zap.String("job_id", job.ID), zap.Error(err))
		},
	})
	queue.Start(ctx)
	defer queue.Stop()
	timetableSvc.UseQueue(queue)

	if _, err := timetableSvc.Load(ctx); err != nil {
		logr.Error("initial timetable load failed, waiting for reload", zap.Error(err))
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/metrics"))

	registerRoutes(r, cfg, routeDeps{
		timetable: handler.NewTimetableHandler(timetableSvc, validate, logr),
		exports:   handler.NewExportHandler(service.NewExportService(timetableSvc, logr, nil, nil, nil), validate),
		metrics:   handler.NewMetricsHandler(metrics, timetableSvc),
		tokens:    service.NewTokenService(cfg.JWT.Secret),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "storage", cfg.Timetable.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("server shutdown", zap.Error(err))
	}
	logr.Info("server stopped", zap.Int("pending_persist_jobs", queue.Pending()))
}

func openStore(ctx context.Context, cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) (sessionStore, func(), error) {
	if cfg.Timetable.StorageDriver == config.StorageDriverPostgres {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Database.RunMigrations {
			if err := database.RunMigrations(db.DB, logr); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		return repository.NewSessionRepository(db, metrics), func() { _ = db.Close() }, nil
	}

	files, err := storage.NewLocalStorage(cfg.Timetable.DataDir)
	if err != nil {
		return nil, nil, err
	}
	repo := repository.NewSessionFileRepository(files, repository.SessionFileConfig{
		LabFile:       cfg.Timetable.LabFile,
		TheoryFile:    cfg.Timetable.TheoryFile,
		BackupOnWrite: cfg.Timetable.BackupOnWrite,
	}, logr)
	return repo, func() {}, nil
}

type routeDeps struct {
	timetable *handler.TimetableHandler
	exports   *handler.ExportHandler
	metrics   *handler.MetricsHandler
	tokens    *service.TokenService
}

func registerRoutes(r *gin.Engine, cfg *config.Config, deps routeDeps) {
	r.GET("/health", deps.metrics.Health)
	r.GET("/ready", deps.metrics.Ready)
	r.GET("/metrics", deps.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/metrics/snapshot", deps.metrics.Snapshot)

	tt := api.Group("/timetable")
	tt.GET("/sessions", deps.timetable.ListSessions)
	tt.GET("/sessions/:index", deps.timetable.GetSession)
	tt.GET("/sessions/:index/conflicts", deps.timetable.SessionConflicts)
	tt.POST("/allocations/validate", deps.timetable.ValidateAllocation)
	tt.GET("/conflicts", deps.timetable.ListConflicts)
	tt.GET("/conflicts/summary", deps.timetable.ConflictSummary)
	tt.GET("/entities", deps.timetable.Entities)
	tt.GET("/snapshot", deps.timetable.Snapshot)
	tt.GET("/availability/rooms", deps.timetable.AvailableRooms)
	tt.GET("/availability/teachers", deps.timetable.AvailableTeachers)
	tt.GET("/availability/slots", deps.timetable.AvailableTimeSlots)
	tt.GET("/exports/conflicts", deps.exports.Conflicts)
	tt.GET("/exports/sessions", deps.exports.Sessions)

	editors := tt.Group("", middleware.JWT(deps.tokens), middleware.RequireRoles(models.RoleAdmin, models.RoleScheduler))
	editors.PUT("/sessions/:index", deps.timetable.UpdateSession)
	editors.POST("/reload", deps.timetable.Reload)
}
