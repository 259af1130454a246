package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/pageza/knoweat/backend/config"
	"github.com/pageza/knoweat/backend/internal/api"
	"github.com/pageza/knoweat/backend/internal/database"
	"github.com/pageza/knoweat/backend/internal/matcher"
	"github.com/pageza/knoweat/backend/internal/middleware"
	"github.com/pageza/knoweat/backend/internal/server"
	"github.com/pageza/knoweat/backend/internal/service"
	"github.com/pageza/knoweat/backend/internal/store"
	"github.com/pageza/knoweat/backend/internal/taxonomy"
)

func newLogger(env config.Environment) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if env.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	return logger
}

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	logger := newLogger(config.GetEnvironment())
	defer func() { _ = logger.Sync() }()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	if err := config.ValidateConfig(cfg); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	tax, err := taxonomy.Load()
	if err != nil {
		logger.Fatal("failed to load restriction taxonomy", zap.Error(err))
	}

	db, err := database.Open(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()
	if err := database.RunMigrations(db, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	st := store.NewGormStore(db)

	// Redis is optional: without it there is no reply cache and no rate limiting.
	var (
		cache   service.ReplyCache
		limiter *middleware.RateLimiter
	)
	if rdb, err := database.NewRedisClient(cfg, logger); err != nil {
		logger.Warn("redis unavailable, running without reply cache and rate limiting", zap.Error(err))
	} else {
		defer func() { _ = rdb.Close() }()
		cache = service.NewRedisReplyCache(rdb, cfg.Analysis.CacheTTL)
		limiter = middleware.NewAnalysisRateLimiter(rdb, cfg.Analysis.RateLimit, cfg.Analysis.RateLimitWindow, logger)
	}

	var archive service.PhotoArchive
	if cfg.ArchiveEnabled() {
		s3cfg, err := config.NewS3Config(context.Background(), cfg.S3BucketName, cfg.AWSRegion)
		if err != nil {
			logger.Fatal("failed to initialize photo archive", zap.Error(err))
		}
		archive = service.NewS3PhotoArchive(s3cfg, logger)
		logger.Info("archiving scanned photos", zap.String("bucket", cfg.S3BucketName))
	}

	chat, err := service.NewChatClient(cfg.Model, logger)
	if err != nil {
		logger.Fatal("failed to create model client", zap.Error(err))
	}

	menus := service.NewMenuService(service.MenuServiceDeps{
		Menus:        st,
		Profiles:     st,
		Analyzer:     service.NewMenuAnalyzer(chat, tax, cache, logger),
		Retranslator: service.NewRetranslator(chat, tax, cache, logger),
		Matcher:      matcher.New(tax),
		Archive:      archive,
		Retry: service.RetryPolicy{
			MaxAttempts: cfg.Analysis.MaxAttempts,
			Backoff:     2 * time.Second,
			Logger:      logger,
		},
		Logger: logger,
	})

	srv := server.New(cfg, api.Services{
		Devices:  service.NewDeviceService(st, tax, cfg.JWTSecret, 0, logger),
		Profiles: service.NewProfileService(st, tax, logger),
		Menus:    menus,
		Taxonomy: tax,
		Limiter:  limiter,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
