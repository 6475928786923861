package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"video-service/internal/auth"
	"video-service/internal/cache"
	"video-service/internal/config"
	"video-service/internal/cover"
	"video-service/internal/handlers"
	"video-service/internal/middleware"
	"video-service/internal/repository"
	service "video-service/internal/services"
	"video-service/internal/storage"
	"video-service/internal/upload"
	"video-service/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// load config
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		panic(err)
	}
	dev := cfg.App.Env == "development"

	// logger
	logger, _ := utils.NewLogger(dev)
	defer func() { _ = logger.Sync() }()

	// Mongo
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Fatalf("mongo connect: %v", err)
	}
	repo := repository.NewCatalogRepo(mc.Database(cfg.Mongo.Database))

	// object store
	store, err := storage.New(context.Background(), storage.Config{
		Region:         cfg.S3.Region,
		Bucket:         cfg.S3.Bucket,
		Endpoint:       cfg.S3.Endpoint,
		AccessKey:      cfg.S3.AccessKey,
		SecretKey:      cfg.S3.SecretKey,
		PublicBaseURL:  cfg.S3.PublicBaseURL,
		ConnectTimeout: time.Duration(cfg.S3.ConnectTimeout) * time.Second,
		RequestTimeout: time.Duration(cfg.S3.RequestTimeout) * time.Second,
		MaxRetries:     cfg.S3.MaxRetries,
	})
	if err != nil {
		logger.Fatalf("s3 init: %v", err)
	}

	// upload pipeline
	staging, err := upload.NewStaging(cfg.Upload.StagingRoot)
	if err != nil {
		logger.Fatalf("staging init: %v", err)
	}
	retry := upload.DefaultRetryPolicy(utils.IsTransient)
	uploads := upload.NewManager(store, staging, retry, cfg.Upload.Prefix, logger)

	janitor := upload.NewJanitor(store, staging, cfg.Upload.Prefix, upload.JanitorConfig{
		Interval:   cfg.GCInterval,
		MaxAge:     cfg.GCMaxAge,
		StartDelay: cfg.GCStartDelay,
	}, logger)
	janitor.Start()

	// presigned-url cache: redis when configured, in-process otherwise
	var urlCache cache.Cache
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedis(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warnf("redis unavailable, using in-process cache: %v", err)
			urlCache = cache.NewMemory()
		} else {
			urlCache = rc
			defer rc.Close()
		}
	} else {
		urlCache = cache.NewMemory()
	}

	// service
	extractor := cover.NewExtractor(cfg.FFmpeg.Path, os.TempDir())
	svc := service.NewVideoService(repo, store, uploads, extractor, urlCache, cfg.Upload.CoverPrefix, cfg.PresignTTL, logger)

	// JWT verifier for admin routes
	verifier, err := auth.NewJWTVerifier(cfg.JWT.PublicKeyPath)
	if err != nil {
		logger.Fatalf("jwt init: %v", err)
	}

	// fiber app & routes
	app := fiber.New(fiber.Config{
		ReadTimeout:  30 * time.Minute, // chunk bodies can be slow
		WriteTimeout: 30 * time.Second,
		BodyLimit:    64 * 1024 * 1024,
	})
	app.Use(middleware.Recovery(logger, dev))
	app.Use(middleware.Logger(logger))

	h := handlers.NewHandler(svc, dev, logger)
	handlers.RegisterRoutes(app, h, auth.Middleware(verifier))

	// start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.App.Port)
		logger.Infof("starting video service on %s", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatalf("listen failed: %v", err)
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown requested")
	timeoutCtx, cancel2 := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel2()

	janitor.Stop()
	_ = app.Shutdown()
	_ = mc.Disconnect(timeoutCtx)
	logger.Info("shutdown completed")
}
