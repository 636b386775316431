package ratelimiter

import (
	"context"
	"errors"
	"math"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	redisTimeout = time.Second
	// redisBackoff is how long Redis is left alone after a failed call.
	redisBackoff = 10 * time.Second
)

// RateLimiter keeps one token bucket per client key. With a Redis client
// the remaining tokens are mirrored under "ratelimit:<key>" so a restarted
// instance does not hand out a fresh burst. A nil client keeps state in
// memory only. Redis is never on the lock path, and after a failed call it
// is skipped for redisBackoff so requests run from memory meanwhile.
type RateLimiter struct {
	client     *redis.Client
	mu         sync.Mutex
	limiters   map[string]*rate.Limiter
	pending    map[string]int
	writing    map[string]bool
	downUntil  atomic.Int64
	limit      rate.Limit
	burst      int
	ttl        time.Duration
	retryAfter int // seconds for one token to refill
}

// NewRateLimiter allows requests per window for each key, all of which may
// be spent at once.
func NewRateLimiter(client *redis.Client, requests int, window time.Duration) *RateLimiter {
	if requests <= 0 {
		zap.L().Error("Invalid request budget passed to NewRateLimiter", zap.Int("requests", requests))
		panic("rate limiter needs a positive request budget")
	}

	if window <= 0 {
		window = 15 * time.Minute
		zap.L().Warn("Invalid window provided to NewRateLimiter, defaulting", zap.Duration("default_window", window))
	}
	if client == nil {
		zap.L().Info("Rate limiter running without Redis, state is per instance")
	}

	return &RateLimiter{
		client:     client,
		limiters:   make(map[string]*rate.Limiter),
		pending:    make(map[string]int),
		writing:    make(map[string]bool),
		limit:      rate.Limit(float64(requests) / window.Seconds()),
		burst:      requests,
		ttl:        window,
		retryAfter: int(math.Ceil(window.Seconds() / float64(requests))),
	}
}

func storageKey(key string) string {
	return "ratelimit:" + key
}

func (rl *RateLimiter) GetLimiter(ctx context.Context, key string) *rate.Limiter {
	rl.mu.Lock()
	limiter, exists := rl.limiters[key]
	rl.mu.Unlock()
	if exists {
		return limiter
	}

	remaining, restored := rl.restore(ctx, key)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Another request for the same key may have won the race.
	if limiter, exists := rl.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rl.limit, rl.burst)
	if restored && remaining < rl.burst {
		limiter.AllowN(time.Now(), rl.burst-remaining)
		zap.L().Debug("Initializing limiter from Redis state",
			zap.String("key", key),
			zap.Int("remaining", remaining),
		)
	}
	rl.limiters[key] = limiter

	time.AfterFunc(rl.ttl, func() {
		rl.mu.Lock()
		defer rl.mu.Unlock()
		zap.L().Debug("Removing limiter from memory due to TTL", zap.String("key", key))
		delete(rl.limiters, key)
	})

	return limiter
}

func (rl *RateLimiter) redisUsable() bool {
	return rl.client != nil && time.Now().UnixNano() >= rl.downUntil.Load()
}

func (rl *RateLimiter) markDown(op, key string, err error) {
	rl.downUntil.Store(time.Now().Add(redisBackoff).UnixNano())
	zap.L().Error("Rate limit state unavailable in Redis, using memory only",
		zap.String("operation", op),
		zap.String("key", key),
		zap.Duration("backoff", redisBackoff),
		zap.Error(err),
	)
}

func (rl *RateLimiter) restore(ctx context.Context, key string) (int, bool) {
	if !rl.redisUsable() {
		return 0, false
	}

	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	val, err := rl.client.Get(ctx, storageKey(key)).Int()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, false
	case err != nil:
		rl.markDown("get", key, err)
		return 0, false
	case val < 0:
		return 0, true
	}
	return val, true
}

// persist queues the remaining token count for key. One writer per key
// drains the queue in the background and always writes the newest count.
func (rl *RateLimiter) persist(key string, remaining int) {
	if !rl.redisUsable() {
		return
	}

	rl.mu.Lock()
	rl.pending[key] = remaining
	if rl.writing[key] {
		rl.mu.Unlock()
		return
	}
	rl.writing[key] = true
	rl.mu.Unlock()

	go rl.flush(key)
}

func (rl *RateLimiter) flush(key string) {
	for {
		rl.mu.Lock()
		remaining, ok := rl.pending[key]
		if !ok {
			delete(rl.writing, key)
			rl.mu.Unlock()
			return
		}
		delete(rl.pending, key)
		rl.mu.Unlock()

		if !rl.redisUsable() {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
		err := rl.client.Set(ctx, storageKey(key), remaining, rl.ttl).Err()
		cancel()
		if err != nil {
			rl.markDown("set", key, err)
		}
	}
}

func (rl *RateLimiter) RateLimitMiddleware() fiber.Handler {
	retryAfter := strconv.Itoa(rl.retryAfter)

	return func(c *fiber.Ctx) error {
		key := c.IP()
		if key == "" {
			zap.L().Warn("Rate limiter cannot determine client IP address")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Access forbidden: cannot identify client",
			})
		}

		ctx := c.UserContext()
		limiter := rl.GetLimiter(ctx, key)
		allowed := limiter.Allow()
		remaining := max(0, int(limiter.Tokens()))
		rl.persist(key, remaining)

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.burst))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			zap.L().Warn("Rate limit exceeded", zap.String("ip", key))
			c.Set(fiber.HeaderRetryAfter, retryAfter)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		}

		return c.Next()
	}
}
