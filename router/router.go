package router

import (
	"errors"
	"time"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/fazamuttaqien/loan-eligibility/config"
	redisdb "github.com/fazamuttaqien/loan-eligibility/infra/redis"
	"github.com/fazamuttaqien/loan-eligibility/middleware"
	ratelimiter "github.com/fazamuttaqien/loan-eligibility/pkg/rate-limiter"
	"github.com/fazamuttaqien/loan-eligibility/pkg/telemetry"
	"github.com/fazamuttaqien/loan-eligibility/presenter"
)

func NewRouter(
	presenter presenter.Presenter,
	tel *telemetry.OpenTelemetry,
	cfg *config.Config,
	limiter *ratelimiter.RateLimiter,
	redisClient *redis.Client,
) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.SERVICE_NAME,
		BodyLimit:    1 * 1024 * 1024,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: ErrorCustomHandler(tel.Log),
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DEV_MODE}))
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS_ALLOW_ORIGINS,
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))

	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${locals:requestid} ${ip} ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(otelfiber.Middleware(
		otelfiber.WithTracerProvider(tel.TracerProvider),
		otelfiber.WithMeterProvider(tel.MeterProvider),
		otelfiber.WithPropagators(otel.GetTextMapPropagator()),
	))

	if cfg.REQUESTS_METRIC {
		zap.L().Info("Enabling HTTP request metrics middleware")
		app.Use(middleware.NewOtelMiddleware(tel.Meter, tel.Log).Handle())
	} else {
		zap.L().Info("HTTP request metrics middleware is disabled")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		cache := "disabled"
		if redisClient != nil {
			if err := redisdb.Ping(c.UserContext(), redisClient); err != nil {
				zap.L().Error("Health check failed: redis ping error", zap.Error(err))
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status": "unhealthy",
					"error":  "cache connection failed",
				})
			}
			cache = "up"
		}

		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":      "healthy",
			"service":     cfg.SERVICE_NAME,
			"version":     cfg.SERVICE_VERSION,
			"environment": cfg.ENVIRONMENT,
			"cache":       cache,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	api := app.Group("/api", limiter.RateLimitMiddleware())

	// /api/loans is kept for the existing form client.
	presenter.LoanPresenter.Routes(api.Group("/v1/loans"))
	presenter.LoanPresenter.Routes(api.Group("/loans"))

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Resource not found",
			"path":  c.Path(),
		})
	})

	return app
}

// ErrorCustomHandler answers errors that escaped the handlers. Server
// errors get the bare status text; the cause is only logged.
func ErrorCustomHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := utils.StatusMessage(code)

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			message = e.Message
			if code >= fiber.StatusInternalServerError {
				message = utils.StatusMessage(code)
			}
		}

		log.Error("Request error occurred",
			zap.Error(err),
			zap.String("path", c.Path()),
			zap.String("method", c.Method()),
			zap.Int("status_code", code),
		)

		return c.Status(code).JSON(fiber.Map{
			"error": message,
		})
	}
}
