package redisdb

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fazamuttaqien/loan-eligibility/config"
)

const pingTimeout = 3 * time.Second

func NewRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.REDIS_ADDRESS,
		Password:     cfg.REDIS_PASSWORD,
		DB:           cfg.REDIS_DB,
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
		MaxRetries:   3,
		MinIdleConns: 2,
	})
}

func Ping(ctx context.Context, client *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return client.Ping(ctx).Err()
}

// WaitReady pings until Redis answers, giving up after attempts tries or
// when ctx ends.
func WaitReady(ctx context.Context, client *redis.Client, attempts int, delay time.Duration) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = Ping(ctx, client); err == nil {
			zap.L().Info("Successfully connected to Redis", zap.Int("attempt", attempt))
			return nil
		}

		zap.L().Error("Failed to connect to Redis",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err),
		)

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("redis not ready after %d attempts: %w", attempts, err)
}

// WatchConnection pings on every tick and logs when the connection is lost
// or comes back. The client reconnects on its own; nothing is replaced.
func WatchConnection(ctx context.Context, client *redis.Client, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	healthy := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		err := Ping(ctx, client)
		switch {
		case err != nil && healthy:
			healthy = false
			zap.L().Warn("Redis connection lost", zap.Error(err))
		case err == nil && !healthy:
			healthy = true
			zap.L().Info("Redis connection restored")
		}
	}
}
