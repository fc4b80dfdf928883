// Package main runs the symposium registration HTTP server with the live stats
// feed and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/opensys-cosc/symposium/config"
	"github.com/opensys-cosc/symposium/internal/docstore"
	"github.com/opensys-cosc/symposium/internal/drafts"
	"github.com/opensys-cosc/symposium/internal/events"
	"github.com/opensys-cosc/symposium/internal/middleware"
	"github.com/opensys-cosc/symposium/internal/realtime"
	"github.com/opensys-cosc/symposium/internal/registrations"
	"github.com/opensys-cosc/symposium/internal/site"
	"github.com/opensys-cosc/symposium/internal/stats"
	"github.com/opensys-cosc/symposium/internal/tracker"
	"github.com/opensys-cosc/symposium/pkg/database"
	"github.com/opensys-cosc/symposium/pkg/queue"
	"github.com/opensys-cosc/symposium/pkg/redis"
	"github.com/opensys-cosc/symposium/pkg/response"
	"github.com/opensys-cosc/symposium/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	var checks []func(context.Context) error

	// Document store
	var store docstore.Store
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns), logger)
		if err != nil {
			logger.Fatal("database", zap.Error(err))
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
		store = docstore.NewPostgresStore(pool)
		checks = append(checks, pool.Ping)
	default:
		logger.Warn("using in-memory document store; registrations are lost on restart")
		store = docstore.NewMemoryStore()
	}

	// Redis: device storage, export queue, stats fan-out
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redis.NewClient(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		checks = append(checks, rdb.Healthy)
	}

	var deviceStore drafts.Store
	if cfg.Drafts.Backend == config.BackendRedis && rdb != nil {
		deviceStore = drafts.NewRedisStore(rdb.Client, cfg.Drafts.TTL())
	} else {
		if cfg.Drafts.Backend == config.BackendRedis {
			logger.Warn("REDIS_ADDR not set; device storage falls back to memory")
		}
		deviceStore = drafts.NewMemoryStore(cfg.Drafts.TTL())
	}

	var hub *realtime.Hub
	if rdb != nil {
		redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
		hub = realtime.NewHub(logger, redisPubSub, redisPubSub)
	} else {
		hub = realtime.NewHub(logger, nil, nil)
	}

	catalog := events.NewCatalog(cfg.Events.Closed...)
	counters := tracker.New(store, logger)
	statsHandler := stats.NewHandler(counters, catalog, hub, logger)

	opts := []registrations.Option{
		registrations.WithNotifier(statsHandler),
		registrations.WithPasswordCost(cfg.Events.PasswordCost),
	}
	if rdb != nil && cfg.Sheets.SpreadsheetID != "" {
		opts = append(opts, registrations.WithExporter(queue.NewQueue(rdb.Client, logger)))
		logger.Info("registration export enabled", zap.String("queue", queue.QueueExports))
	}
	registrationService := registrations.NewService(store, counters, deviceStore, logger, opts...)
	registrationHandler := registrations.NewHandler(catalog, registrationService, logger)

	// Gallery (optional)
	var gallery site.Gallery
	if cfg.Gallery.Bucket != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			Bucket:               cfg.Gallery.Bucket,
			Prefix:               cfg.Gallery.Prefix,
			PublicRead:           cfg.Gallery.PublicRead,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("gallery disabled", zap.Error(err))
		} else {
			gallery = s3Client
		}
	}
	siteHandler := site.NewHandler(catalog, gallery, cfg.Gallery.CacheTTL(), logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) {
		hctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		for _, check := range checks {
			if err := check(hctx); err != nil {
				logger.Warn("health check failed", zap.Error(err))
				response.ServiceUnavailable(c, "dependency unavailable", nil)
				return
			}
		}
		response.OK(c, gin.H{"status": "ok"})
	})

	siteHandler.Register(router)
	registrationHandler.Register(router)
	statsHandler.Register(router, cfg.Server.AllowedOrigins())

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening",
			zap.String("port", cfg.Server.Port),
			zap.String("store", cfg.Store.Backend),
			zap.Strings("events", catalog.Names()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
