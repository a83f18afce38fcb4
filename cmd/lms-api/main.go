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
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/learnsmart-api/api/swagger"
	"github.com/noah-isme/learnsmart-api/internal/handler"
	"github.com/noah-isme/learnsmart-api/internal/repository"
	"github.com/noah-isme/learnsmart-api/internal/service"
	"github.com/noah-isme/learnsmart-api/pkg/cache"
	"github.com/noah-isme/learnsmart-api/pkg/config"
	"github.com/noah-isme/learnsmart-api/pkg/database"
	"github.com/noah-isme/learnsmart-api/pkg/jobs"
	"github.com/noah-isme/learnsmart-api/pkg/logger"
	"github.com/noah-isme/learnsmart-api/pkg/storage"
)

// @title LearnSmart API
// @version 1.0.0
// @description Learning management backend: courses, enrollments, progress, gamification and transcript exports
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 10 * time.Second

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

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

	readyChecks := map[string]handler.Pinger{}

	store, db, err := openStore(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to open store", zap.Error(err))
	}
	if db != nil {
		defer db.Close()
		readyChecks["database"] = pingFunc(db.PingContext)
	}

	var redisClient *redis.Client
	if client, err := cache.NewRedis(ctx, cfg.Redis); err != nil {
		logr.Warn("redis unavailable, continuing without cache", zap.Error(err))
	} else {
		redisClient = client
	}
	cacheRepo := repository.NewCacheRepository(redisClient, "lms", logr)
	defer cacheRepo.Close() //nolint:errcheck
	if redisClient != nil {
		readyChecks["redis"] = cacheRepo
	}

	if cfg.SeedDemoData {
		if err := service.NewSeedService(store, logr).Seed(ctx); err != nil {
			logr.Fatal("failed to seed demo data", zap.Error(err))
		}
	}

	metrics := service.NewMetricsService()

	var revoked service.TokenRevocationList = service.NewMemoryRevocationList()
	if redisClient != nil {
		revoked = service.NewCacheRevocationList(cacheRepo)
	}
	authService := service.NewAuthService(store.Users, revoked, nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	courseCache := service.NewCacheService(cacheRepo, metrics, cfg.Cache.CoursesTTL, logr, cfg.Cache.CoursesEnabled && redisClient != nil)

	transcripts, queue, err := buildTranscripts(cfg, store, metrics, logr)
	if err != nil {
		logr.Fatal("failed to init exports", zap.Error(err))
	}
	if queue != nil {
		queue.Start(ctx)
		defer queue.Stop()
		transcripts.RecoverPendingJobs(ctx)
		transcripts.StartCleanup(ctx)
	}

	router := handler.NewRouter(handler.RouterConfig{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Logger:         logr,
		Auth:           authService,
		Users:          service.NewUserService(store.Users, courseCache, nil, logr),
		Courses:        service.NewCourseService(store, courseCache, nil, logr),
		Modules:        service.NewModuleService(store, nil, logr),
		Lessons:        service.NewLessonService(store, nil, logr),
		Enrollments:    service.NewEnrollmentService(store, nil, logr),
		Progress:       service.NewProgressService(store, nil, metrics, nil, logr, service.ProgressConfig{CascadeStrict: cfg.Progress.CascadeStrict}),
		Achievements:   service.NewAchievementService(store, nil, logr),
		Certificates:   service.NewCertificateService(store, logr),
		Transcripts:    transcripts,
		Metrics:        metrics,
		ReadyChecks:    readyChecks,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*repository.Store, *sqlx.DB, error) {
	if cfg.StoreDriver != config.StorePostgres {
		logr.Info("using in-memory store")
		return repository.NewMemoryStore(), nil, nil
	}
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := repository.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return repository.NewPostgresStore(db), db, nil
}

func buildTranscripts(cfg *config.Config, store *repository.Store, metrics *service.MetricsService, logr *zap.Logger) (*service.TranscriptService, *jobs.Queue, error) {
	if !cfg.Exports.Enabled {
		return service.NewTranscriptService(store.ExportJobs, nil, nil, nil, logr, service.TranscriptServiceConfig{}), nil, nil
	}

	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return nil, nil, err
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exporter := service.NewExportService(store, files, signer, nil, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr)

	worker := service.NewTranscriptWorker(store.ExportJobs, exporter, metrics, logr)
	queue := jobs.NewQueue("transcripts", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.Workers,
		BufferSize: 64,
		MaxRetries: cfg.Exports.Retries,
		RetryDelay: 2 * time.Second,
		OnFailure:  worker.MarkFailed,
		Logger:     logr,
	})

	transcripts := service.NewTranscriptService(store.ExportJobs, queue, exporter, nil, logr, service.TranscriptServiceConfig{
		Enabled:         true,
		CleanupInterval: cfg.Exports.CleanupInterval,
	})
	return transcripts, queue, nil
}
