package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fazamuttaqien/loan-eligibility/config"
	redisdb "github.com/fazamuttaqien/loan-eligibility/infra/redis"
	"github.com/fazamuttaqien/loan-eligibility/internal/catalog"
	ratelimiter "github.com/fazamuttaqien/loan-eligibility/pkg/rate-limiter"
	"github.com/fazamuttaqien/loan-eligibility/pkg/telemetry"
	"github.com/fazamuttaqien/loan-eligibility/presenter"
	"github.com/fazamuttaqien/loan-eligibility/router"
)

const (
	redisReadyAttempts = 5
	redisReadyDelay    = 2 * time.Second
	redisWatchInterval = 30 * time.Second
)

func main() {
	slog.Info("Starting application setup...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, using system environment variables", "error", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	var tel *telemetry.OpenTelemetry
	if cfg.TELEMETRY_ENABLED {
		tel, err = telemetry.New(ctx, cfg)
		if err != nil {
			panic(fmt.Sprintf("Failed to initialize monitoring: %v", err))
		}
	} else {
		tel = telemetry.NewNoop(cfg, os.Stdout)
		zap.L().Info("Telemetry export disabled, logging to stdout only")
	}

	cat, err := catalog.Load()
	if err != nil {
		zap.L().Fatal("Failed to load loan product catalog", zap.Error(err))
	}
	zap.L().Info("Loan product catalog loaded", zap.Int("products", len(cat.Products())))

	var redisClient *redis.Client
	if cfg.REDIS_ENABLED {
		redisClient = redisdb.NewRedis(cfg)
		if err := redisdb.WaitReady(ctx, redisClient, redisReadyAttempts, redisReadyDelay); err != nil {
			// Quotes and rate limit windows fall back to computing and
			// in-process state until Redis comes back.
			zap.L().Warn("Redis unavailable, running degraded", zap.Error(err))
		}
		go redisdb.WatchConnection(ctx, redisClient, redisWatchInterval)
	} else {
		zap.L().Info("Redis disabled, quote cache off and rate limiting in memory")
	}

	defer func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.SHUTDOWN_TIMEOUT)
		defer cancelShutdown()

		if redisClient != nil {
			zap.L().Info("Closing Redis connection...")
			if err := redisClient.Close(); err != nil {
				zap.L().Error("Error disconnecting from Redis", zap.Error(err))
			} else {
				zap.L().Info("Disconnected from Redis.")
			}
		}

		zap.L().Info("Shutting down monitoring...")
		if err := tel.Shutdown(shutdownCtx); err != nil {
			zap.L().Error("Error during monitoring shutdown", zap.Error(err))
		} else {
			zap.L().Info("Monitoring shutdown complete.")
		}
	}()

	limiter := ratelimiter.NewRateLimiter(redisClient, cfg.RATE_LIMIT_REQUESTS, cfg.RATE_LIMIT_WINDOW)

	presenter := presenter.NewPresenter(cat, redisClient, tel, cfg)
	router := router.NewRouter(presenter, tel, cfg, limiter, redisClient)

	addr := ":" + cfg.SERVER_PORT

	listenErr := make(chan error, 1)

	go func() {
		zap.L().Info("Server starting", zap.String("address", addr))
		if err := router.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		} else {
			listenErr <- nil
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		zap.L().Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-listenErr:
		if err != nil {
			zap.L().Error("Server listen error", zap.Error(err))
			return
		}
	}

	zap.L().Info("Starting graceful shutdown...")
	if err := router.ShutdownWithTimeout(cfg.SHUTDOWN_TIMEOUT); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			zap.L().Warn("Server shutdown timed out", zap.Duration("timeout", cfg.SHUTDOWN_TIMEOUT))
		} else {
			zap.L().Error("Server shutdown error", zap.Error(err))
		}
	} else {
		zap.L().Info("Server gracefully stopped.")
	}

	zap.L().Info("Application shutdown complete.")
}
