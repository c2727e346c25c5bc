package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/harshdeep1289/marketplace-platform/internal/api"
	"github.com/harshdeep1289/marketplace-platform/internal/authz"
	"github.com/harshdeep1289/marketplace-platform/internal/cache"
	"github.com/harshdeep1289/marketplace-platform/internal/config"
	"github.com/harshdeep1289/marketplace-platform/internal/db"
	"github.com/harshdeep1289/marketplace-platform/internal/logger"
	"github.com/harshdeep1289/marketplace-platform/internal/metrics"
	"github.com/harshdeep1289/marketplace-platform/internal/repository"
	"github.com/harshdeep1289/marketplace-platform/internal/services"
	"github.com/harshdeep1289/marketplace-platform/internal/storage"
	"github.com/harshdeep1289/marketplace-platform/internal/tasks"
	"github.com/harshdeep1289/marketplace-platform/internal/validate"

	"go.uber.org/zap"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'worker' (background tasks), 'all' (default)")

func main() {
	flag.Parse()

	cfg, err := config.Load(*runMode)
	if err != nil {
		logger.Init("production")
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	logger.Init(os.Getenv("APP_ENV"))
	defer logger.Close()

	validate.Init()
	metrics.Init()

	mongoClient, mongoDb, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.DisconnectDB(mongoClient); err != nil {
			logger.Error("error disconnecting from MongoDB", zap.Error(err))
		}
	}()

	ctxIndexes, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureIndexes(ctxIndexes, mongoDb); err != nil {
		cancelIndexes()
		logger.Fatal("failed to ensure indexes", zap.Error(err))
	}
	cancelIndexes()

	redisClient, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := cache.DisconnectRedis(redisClient); err != nil {
			logger.Error("error disconnecting from Redis", zap.Error(err))
		}
	}()

	taskClient := tasks.NewClient(redisClient)
	defer taskClient.Close()

	var wg sync.WaitGroup
	var mainApiSrv *http.Server
	var taskSrv *asynq.Server

	logger.Info("starting application", zap.String("mode", cfg.RunMode))

	apiMode := func() {
		mainApiRouter := api.SetupRouter(cfg, mongoDb, taskClient)
		mainApiSrv = &http.Server{
			Addr:    ":" + cfg.ApiPort,
			Handler: mainApiRouter,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("API listening", zap.String("port", cfg.ApiPort))
			if err := mainApiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal("API server error", zap.Error(err))
			}
			logger.Info("API server stopped")
		}()
	}

	workerMode := func() {
		listingRepo := repository.NewListingRepository(mongoDb)
		imageRepo := repository.NewImageRepository(mongoDb)

		s3StorageService, err := storage.NewS3Storage(cfg)
		if err != nil {
			logger.Fatal("failed to initialize S3 storage for worker", zap.Error(err))
		}
		listingService := services.NewListingService(listingRepo, imageRepo, authz.OwnerOnly, cfg)
		imageService := services.NewImageService(imageRepo, listingRepo, s3StorageService, authz.OwnerOnly, cfg)

		taskProcessor := tasks.NewTaskProcessor(cfg, s3StorageService, listingService, imageService, taskClient)
		taskSrv = tasks.SetupServer(redisClient, taskProcessor, true)

		// Kick off the expiry sweep loop; the handler re-enqueues itself.
		if _, err := taskClient.Enqueue(tasks.NewExpirySweepTask(), asynq.ProcessIn(cfg.ExpirySweepInterval)); err != nil {
			logger.Error("failed to enqueue initial expiry sweep", zap.Error(err))
		}
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "worker":
		workerMode()
	case "all":
		apiMode()
		workerMode()
	default:
		logger.Fatal("invalid run mode", zap.String("mode", cfg.RunMode))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if mainApiSrv != nil {
		if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
			logger.Error("API server shutdown error", zap.Error(err))
		}
	}
	if taskSrv != nil {
		taskSrv.Shutdown()
	}

	wg.Wait()
	logger.Info("server gracefully stopped")
}
