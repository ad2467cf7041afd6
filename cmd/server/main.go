package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"users-api/internal/config"
	"users-api/internal/database"
	apphttp "users-api/internal/http"
	"users-api/internal/logging"
	"users-api/internal/migrations"
	"users-api/internal/ratelimit"
	"users-api/internal/service"
	"users-api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	logger := logging.New(logging.Options{
		Dir:         cfg.Log.Dir,
		Development: cfg.Development(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(db, cfg.Database.Driver); err != nil {
			logger.Fatalf("apply migrations: %v", err)
		}
	}

	userRepo, err := database.NewUserRepository(db, cfg.Database.Driver)
	if err != nil {
		logger.Fatalf("build user repository: %v", err)
	}
	userService := service.NewUserService(userRepo)

	limiter := ratelimit.New(ratelimit.Config{
		Max:    cfg.RateLimit.Max,
		Window: cfg.RateLimit.Window,
	})
	stats := buildRateLimitStats(ctx, cfg, logger)

	var workers sync.WaitGroup
	if stats != nil {
		workers.Add(1)
		go func() {
			defer workers.Done()
			stats.Run(ctx)
		}()
	}
	if archiver := buildArchiver(ctx, cfg, logger); archiver != nil {
		workers.Add(1)
		go func() {
			defer workers.Done()
			archiver.Run(ctx)
		}()
	}

	if cfg.Development() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := apphttp.NewRouter(apphttp.RouterConfig{
		Handler:        apphttp.NewHandler(userService, db.PingContext),
		Limiter:        limiter,
		Stats:          stats,
		Metrics:        apphttp.NewMetrics(),
		Logger:         logger,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Development:    cfg.Development(),
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"addr":   cfg.Addr(),
			"env":    cfg.App.Env,
			"driver": cfg.Database.Driver,
		}).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	workers.Wait()

	logger.Info("bye")
}

// buildRateLimitStats returns nil when no Redis address is configured or Redis is
// unreachable; admission never depends on it.
func buildRateLimitStats(ctx context.Context, cfg config.Config, logger *logrus.Logger) *ratelimit.AsyncStats {
	if cfg.RateLimit.RedisAddr == "" {
		return nil
	}
	rdb, err := ratelimit.DialRedis(ctx, cfg.RateLimit.RedisAddr, cfg.RateLimit.RedisPassword, cfg.RateLimit.RedisDB)
	if err != nil {
		logger.Warnf("rate limit stats disabled: %v", err)
		return nil
	}
	logger.Infof("recording rate limit stats in redis %s", cfg.RateLimit.RedisAddr)
	return ratelimit.NewAsyncStats(ratelimit.NewRedisStats(rdb, "users-api:ratelimit", 24*time.Hour), 0, logger)
}

func buildArchiver(ctx context.Context, cfg config.Config, logger *logrus.Logger) *logging.Archiver {
	archive := cfg.Log.Archive
	if archive.Bucket == "" {
		return nil
	}
	store, err := storage.NewS3ServiceFromConfig(ctx, storage.S3Config{
		Region:   archive.Region,
		Endpoint: archive.Endpoint,
	})
	if err != nil {
		logger.Warnf("log archiving disabled: %v", err)
		return nil
	}
	logger.Infof("archiving logs to s3 bucket %s (region %s)", archive.Bucket, archive.Region)
	return logging.NewArchiver(logging.ArchiverConfig{
		Dir:      cfg.Log.Dir,
		Bucket:   archive.Bucket,
		Prefix:   archive.Prefix,
		Interval: archive.Interval,
		Logger:   logger,
	}, store)
}
