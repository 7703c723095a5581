package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appevent "github.com/catalogd/backend/internal/application/event"
	appsync "github.com/catalogd/backend/internal/application/sync"
	"github.com/catalogd/backend/internal/domain/shared"
	"github.com/catalogd/backend/internal/infrastructure/auth"
	"github.com/catalogd/backend/internal/infrastructure/cache"
	"github.com/catalogd/backend/internal/infrastructure/config"
	"github.com/catalogd/backend/internal/infrastructure/event"
	"github.com/catalogd/backend/internal/infrastructure/logger"
	"github.com/catalogd/backend/internal/infrastructure/media"
	"github.com/catalogd/backend/internal/infrastructure/persistence"
	"github.com/catalogd/backend/internal/infrastructure/storage"
	"github.com/catalogd/backend/internal/interfaces/http/handler"
	"github.com/catalogd/backend/internal/interfaces/http/middleware"
	"github.com/catalogd/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting catalog sync backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database with zap-backed GORM logging
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	jobRepo := persistence.NewGormJobRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Event serializer knows every event type crossing the outbox
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)

	// Outbox publisher persists events instead of dispatching them inline
	outboxPublisher := event.NewOutboxPublisher(outboxRepo, eventSerializer)

	// Idempotency store guards chunk handlers against outbox redelivery.
	// Redis when configured, in-process fallback for single-node setups.
	var idempotencyStore shared.IdempotencyStore
	if cfg.Redis.Host != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		idempotencyStore = cache.NewRedisIdempotencyStore(redisClient)
		log.Info("Redis idempotency store initialized", zap.String("addr", cfg.Redis.Addr()))
	} else {
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
		log.Warn("Redis not configured, using in-memory idempotency store")
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Object storage for internalized product images
	objectStore, err := storage.NewS3ObjectStorage(&cfg.Storage)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}
	if err := objectStore.EnsureBucket(context.Background()); err != nil {
		log.Fatal("Failed to ensure storage bucket", zap.Error(err))
	}
	log.Info("Object storage ready", zap.String("bucket", cfg.Storage.Bucket))

	internalizer := media.NewImageInternalizer(objectStore, log, media.WithConfig(media.Config{
		FetchTimeout:  cfg.Sync.FetchTimeout,
		MaxImageBytes: cfg.Sync.MaxImageBytes,
	}))

	// Application services
	syncService := appsync.NewService(productRepo, jobRepo, outboxPublisher, appsync.Config{
		DefaultChunkSize: cfg.Sync.DefaultChunkSize,
		MaxChunkSize:     cfg.Sync.MaxChunkSize,
	}, log)
	outboxService := appevent.NewOutboxService(outboxRepo, log)

	// Event bus with the chunk worker behind an idempotency guard
	eventBus := event.NewInMemoryEventBus(log)
	chunkHandler := appsync.NewChunkHandler(productRepo, jobRepo, internalizer, outboxPublisher, log)
	eventBus.Subscribe(event.NewIdempotentHandler(chunkHandler, idempotencyStore, log))

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Outbox processor drains stored events into the bus
	processorConfig := event.DefaultOutboxProcessorConfig()
	if cfg.Event.BatchSize > 0 {
		processorConfig.BatchSize = cfg.Event.BatchSize
	}
	if cfg.Event.PollInterval > 0 {
		processorConfig.PollInterval = cfg.Event.PollInterval
	}
	processorConfig.CleanupEnabled = cfg.Event.CleanupEnabled
	if cfg.Event.CleanupRetention > 0 {
		processorConfig.CleanupRetention = cfg.Event.CleanupRetention
	}
	if cfg.Event.CleanupInterval > 0 {
		processorConfig.CleanupInterval = cfg.Event.CleanupInterval
	}

	outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, processorConfig, log)
	if cfg.Event.ProcessorEnabled {
		if err := outboxProcessor.Start(context.Background()); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", processorConfig.BatchSize),
			zap.Duration("poll_interval", processorConfig.PollInterval),
		)
	}

	// HTTP wiring
	jwtService := auth.NewJWTService(cfg.JWT)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/health",
			"/api/v1/system/info",
		},
		Logger: log,
	}))

	r.Register(handler.NewSyncHandler(syncService))
	r.Register(handler.NewOutboxHandler(outboxService))
	r.Register(handler.NewSystemHandler(db))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
