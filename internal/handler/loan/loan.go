package loanhandler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fazamuttaqien/loan-eligibility/internal/dto"
	"github.com/fazamuttaqien/loan-eligibility/internal/service"
	"github.com/fazamuttaqien/loan-eligibility/internal/validation"
)

type LoanHandler struct {
	loanService     service.LoanServices
	validator       *validation.Validator
	requestTimeout  time.Duration
	meter           metric.Meter
	tracer          trace.Tracer
	log             *zap.Logger
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	errorCount      metric.Int64Counter
	responseSize    metric.Int64Histogram
}

func NewLoanHandler(
	loanService service.LoanServices,
	validator *validation.Validator,
	requestTimeout time.Duration,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) *LoanHandler {
	requestCount, err := meter.Int64Counter(
		"api.request.count",
		metric.WithDescription("Number of API requests received"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		zap.L().Fatal("Failed to create request count metric", zap.Error(err))
	}

	requestDuration, err := meter.Float64Histogram(
		"api.request.duration",
		metric.WithDescription("Duration of API requests"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		zap.L().Fatal("Failed to create request duration metric", zap.Error(err))
	}

	errorCount, err := meter.Int64Counter(
		"api.error.count",
		metric.WithDescription("Number of API errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		zap.L().Fatal("Failed to create error count metric", zap.Error(err))
	}

	responseSize, err := meter.Int64Histogram(
		"api.response.size",
		metric.WithDescription("Size of API responses in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		zap.L().Fatal("Failed to create response size metric", zap.Error(err))
	}

	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}

	return &LoanHandler{
		loanService:     loanService,
		validator:       validator,
		requestTimeout:  requestTimeout,
		meter:           meter,
		tracer:          tracer,
		log:             log,
		requestCount:    requestCount,
		requestDuration: requestDuration,
		errorCount:      errorCount,
		responseSize:    responseSize,
	}
}

// startRequest opens the handler span and counts the request.
func (h *LoanHandler) startRequest(c *fiber.Ctx, spanName string) (context.Context, trace.Span, time.Time) {
	ctx, span := h.tracer.Start(c.UserContext(), spanName)
	start := time.Now()

	span.SetAttributes(
		attribute.String("http.method", c.Method()),
		attribute.String("http.route", c.Path()),
		attribute.String("http.user_agent", string(c.Request().Header.UserAgent())),
		attribute.String("http.client_ip", c.IP()),
	)

	h.log.Debug("Received request",
		zap.String("handler", spanName),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.String("client_ip", c.IP()),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)

	h.requestCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", c.Path()),
		attribute.String("method", c.Method()),
	))

	return ctx, span, start
}

func (h *LoanHandler) recordError(
	ctx context.Context, span trace.Span, c *fiber.Ctx,
	start time.Time, err error, statusCode int, errorType, message string, fields ...zap.Field) error {
	return h.recordErrorBody(ctx, span, c, start, err, statusCode, errorType, message, fiber.Map{"error": message}, fields...)
}

// recordErrorBody records error metrics, span state and logs, then sends body.
func (h *LoanHandler) recordErrorBody(
	ctx context.Context, span trace.Span, c *fiber.Ctx,
	start time.Time, err error, statusCode int, errorType, message string, body fiber.Map, fields ...zap.Field) error {
	h.errorCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", c.Path()),
		attribute.String("method", c.Method()),
		attribute.String("error_type", errorType),
		attribute.Int("status_code", statusCode),
	))

	duration := float64(time.Since(start).Nanoseconds()) / 1e6
	h.requestDuration.Record(ctx, duration, metric.WithAttributes(
		attribute.String("endpoint", c.Path()),
		attribute.String("method", c.Method()),
		attribute.Int("status_code", statusCode),
	))

	span.SetAttributes(
		attribute.String("error.type", errorType),
		attribute.String("error.message", err.Error()),
		attribute.Int("http.status_code", statusCode),
	)
	span.RecordError(err)

	logFields := append([]zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
		zap.Int("status_code", statusCode),
		zap.String("error_type", errorType),
		zap.Float64("duration_ms", duration),
	}, fields...)

	if statusCode >= fiber.StatusInternalServerError {
		h.log.Error(message, logFields...)
	} else {
		h.log.Warn(message, logFields...)
	}

	if err := c.Status(statusCode).JSON(body); err != nil {
		return err
	}
	h.recordResponseSize(ctx, c)
	return nil
}

func (h *LoanHandler) recordSuccess(
	ctx context.Context, span trace.Span, c *fiber.Ctx,
	start time.Time, statusCode int, responseData any, fields ...zap.Field) error {
	duration := float64(time.Since(start).Nanoseconds()) / 1e6
	h.requestDuration.Record(ctx, duration, metric.WithAttributes(
		attribute.String("endpoint", c.Path()),
		attribute.String("method", c.Method()),
		attribute.Int("status_code", statusCode),
	))

	span.SetAttributes(
		attribute.Int("http.status_code", statusCode),
		attribute.Float64("request.duration_ms", duration),
	)

	logFields := append([]zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
		zap.Int("status_code", statusCode),
		zap.Float64("duration_ms", duration),
	}, fields...)

	h.log.Info("Request completed successfully", logFields...)

	if err := c.Status(statusCode).JSON(responseData); err != nil {
		return err
	}
	h.recordResponseSize(ctx, c)
	return nil
}

func (h *LoanHandler) recordResponseSize(ctx context.Context, c *fiber.Ctx) {
	h.responseSize.Record(ctx, int64(len(c.Response().Body())), metric.WithAttributes(
		attribute.String("endpoint", c.Path()),
		attribute.String("method", c.Method()),
	))
}

// validate answers 400 with per-field details for rule violations. It
// returns handled=false when the request may proceed.
func (h *LoanHandler) validate(ctx context.Context, span trace.Span, c *fiber.Ctx, start time.Time, req any) (handled bool, err error) {
	verr := h.validator.Struct(req)
	if verr == nil {
		return false, nil
	}

	var fieldErrs *validation.Error
	if errors.As(verr, &fieldErrs) {
		return true, h.recordErrorBody(
			ctx, span, c, start, verr,
			fiber.StatusBadRequest, "validation_error", "Validation failed",
			fiber.Map{"error": "Validation failed", "details": fieldErrs.Fields},
			zap.Any("fields", fieldErrs.Fields))
	}

	return true, h.recordError(
		ctx, span, c, start, verr,
		fiber.StatusInternalServerError, "validator_error", "Internal server error", zap.Error(verr))
}

func (h *LoanHandler) serviceError(ctx context.Context, span trace.Span, c *fiber.Ctx, start time.Time, err error, fields ...zap.Field) error {
	switch {
	case errors.Is(err, service.ErrUndefinedRatio):
		return h.recordError(
			ctx, span, c, start, err,
			fiber.StatusUnprocessableEntity, "undefined_ratio", "Loan figures are undefined for the given inputs", fields...)
	case errors.Is(err, service.ErrUnknownProduct):
		return h.recordError(
			ctx, span, c, start, err,
			fiber.StatusNotFound, "product_not_found", "Loan product not found", fields...)
	case errors.Is(err, context.DeadlineExceeded):
		return h.recordError(
			ctx, span, c, start, err,
			fiber.StatusServiceUnavailable, "timeout", "Request timed out", append(fields, zap.Error(err))...)
	default:
		return h.recordError(
			ctx, span, c, start, err,
			fiber.StatusInternalServerError, "service_error", "Internal server error", append(fields, zap.Error(err))...)
	}
}

func (h *LoanHandler) CheckEligibility(c *fiber.Ctx) error {
	ctx, span, start := h.startRequest(c, "handler.CheckEligibility")
	defer span.End()

	var req dto.EligibilityRequest
	if err := c.BodyParser(&req); err != nil {
		return h.recordError(
			ctx, span, c, start, err,
			fiber.StatusBadRequest, "parse_error", "Cannot parse request body", zap.Error(err))
	}

	if handled, err := h.validate(ctx, span, c, start, req); handled {
		return err
	}

	span.SetAttributes(
		attribute.Float64("loan.requested_amount", req.LoanDetails.RequestedAmount),
		attribute.Int("loan.term_months", req.LoanDetails.LoanTerm),
		attribute.String("loan.purpose", req.LoanDetails.LoanPurpose),
	)

	serviceCtx, cancel := context.WithTimeout(ctx, h.requestTimeout)
	defer cancel()

	res, err := h.loanService.CheckEligibility(serviceCtx, req)
	if err != nil {
		return h.serviceError(ctx, span, c, start, err, zap.String("purpose", req.LoanDetails.LoanPurpose))
	}

	span.SetAttributes(
		attribute.Bool("eligibility.eligible", res.EligibilityResult.IsEligible),
		attribute.String("eligibility.risk", res.EligibilityResult.RiskCategory),
	)

	return h.recordSuccess(ctx, span, c, start, fiber.StatusOK, res,
		zap.Bool("eligible", res.EligibilityResult.IsEligible),
		zap.String("decision_code", res.EligibilityResult.DecisionCode),
	)
}

func (h *LoanHandler) CalculateRate(c *fiber.Ctx) error {
	ctx, span, start := h.startRequest(c, "handler.CalculateRate")
	defer span.End()

	var req dto.RateCalculationRequest
	if err := c.BodyParser(&req); err != nil {
		return h.recordError(
			ctx, span, c, start, err,
			fiber.StatusBadRequest, "parse_error", "Cannot parse request body", zap.Error(err))
	}

	if handled, err := h.validate(ctx, span, c, start, req); handled {
		return err
	}

	span.SetAttributes(
		attribute.Float64("loan.amount", req.LoanAmount),
		attribute.Int("loan.term_months", req.LoanTerm),
		attribute.String("loan.type", req.LoanType),
	)

	serviceCtx, cancel := context.WithTimeout(ctx, h.requestTimeout)
	defer cancel()

	res, err := h.loanService.CalculateRate(serviceCtx, req)
	if err != nil {
		return h.serviceError(ctx, span, c, start, err, zap.Int("term_months", req.LoanTerm))
	}

	return h.recordSuccess(ctx, span, c, start, fiber.StatusOK, res,
		zap.Float64("interest_rate", res.InterestRate),
		zap.Int("schedule_entries", len(res.PaymentSchedule)),
	)
}

func (h *LoanHandler) ListProducts(c *fiber.Ctx) error {
	ctx, span, start := h.startRequest(c, "handler.ListProducts")
	defer span.End()

	res, err := h.loanService.Products(ctx)
	if err != nil {
		return h.serviceError(ctx, span, c, start, err)
	}

	return h.recordSuccess(ctx, span, c, start, fiber.StatusOK, res,
		zap.Int("products", len(res.Products)))
}

func (h *LoanHandler) GetProduct(c *fiber.Ctx) error {
	ctx, span, start := h.startRequest(c, "handler.GetProduct")
	defer span.End()

	id := c.Params("id")
	span.SetAttributes(attribute.String("product.id", id))

	res, err := h.loanService.Product(ctx, id)
	if err != nil {
		return h.serviceError(ctx, span, c, start, err, zap.String("product_id", id))
	}

	return h.recordSuccess(ctx, span, c, start, fiber.StatusOK, res, zap.String("product_id", id))
}

func (h *LoanHandler) ValidationRules(c *fiber.Ctx) error {
	ctx, span, start := h.startRequest(c, "handler.ValidationRules")
	defer span.End()

	res, err := h.loanService.ValidationRules(ctx)
	if err != nil {
		return h.serviceError(ctx, span, c, start, err)
	}

	return h.recordSuccess(ctx, span, c, start, fiber.StatusOK, res)
}

// Routes mounts the loan endpoints on r.
func (h *LoanHandler) Routes(r fiber.Router) {
	r.Post("/eligibility", h.CheckEligibility)
	r.Post("/calculate-rate", h.CalculateRate)
	r.Get("/products", h.ListProducts)
	r.Get("/products/:id", h.GetProduct)
	r.Get("/validation-rules", h.ValidationRules)
}
