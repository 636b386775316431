package loansrv

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fazamuttaqien/loan-eligibility/internal/catalog"
	"github.com/fazamuttaqien/loan-eligibility/internal/domain"
	"github.com/fazamuttaqien/loan-eligibility/internal/dto"
	"github.com/fazamuttaqien/loan-eligibility/internal/engine"
	"github.com/fazamuttaqien/loan-eligibility/internal/repository"
	"github.com/fazamuttaqien/loan-eligibility/internal/service"
)

type loanService struct {
	catalog    *catalog.Catalog
	quoteCache repository.QuoteCache

	meter             metric.Meter
	tracer            trace.Tracer
	log               *zap.Logger
	operationDuration metric.Float64Histogram
	operationCount    metric.Int64Counter
	errorCount        metric.Int64Counter
	decisions         metric.Int64Counter
	cacheLookups      metric.Int64Counter
}

// CheckEligibility implements service.LoanServices.
func (l *loanService) CheckEligibility(ctx context.Context, req dto.EligibilityRequest) (*dto.EligibilityResponse, error) {
	ctx, span := l.tracer.Start(ctx, "service.CheckEligibility")
	defer span.End()

	start := time.Now()
	const operation = "check_eligibility"
	l.countOperation(ctx, operation)

	if err := ctx.Err(); err != nil {
		return nil, l.recordFailure(ctx, span, start, operation, "context_done", "Eligibility check cancelled", err)
	}

	profile, finances, loan := req.ToDomain()

	span.SetAttributes(
		attribute.Int("applicant.age", profile.Age),
		attribute.String("applicant.employment_status", string(profile.EmploymentStatus)),
		attribute.Bool("applicant.credit_score_reported", finances.CreditScore.Reported()),
		attribute.Float64("loan.requested_amount", loan.RequestedAmount),
		attribute.Int("loan.term_months", loan.TermMonths),
		attribute.String("loan.purpose", loan.Purpose),
	)

	l.log.Debug("Evaluating eligibility",
		zap.String("purpose", loan.Purpose),
		zap.Float64("requested_amount", loan.RequestedAmount),
		zap.Int("term_months", loan.TermMonths),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)

	eval := engine.EvaluateEligibility(profile, finances, loan)
	if !resultFinite(eval.EligibilityResult) {
		err := fmt.Errorf("%w: monthly income %.2f", service.ErrUndefinedRatio, finances.MonthlyIncome)
		return nil, l.recordFailure(ctx, span, start, operation, "undefined_ratio", "Eligibility figures are not finite", err)
	}

	verdict := eval.Verdict
	l.decisions.Add(ctx, 1,
		metric.WithAttributes(
			attribute.Bool("eligible", verdict.IsEligible),
			attribute.String("risk", string(verdict.RiskCategory)),
		),
	)

	span.SetAttributes(
		attribute.Bool("eligibility.eligible", verdict.IsEligible),
		attribute.Int("eligibility.likelihood", verdict.ApprovalLikelihood),
		attribute.String("eligibility.risk", string(verdict.RiskCategory)),
		attribute.String("eligibility.reason", string(verdict.DecisionReason)),
	)

	duration := l.recordDuration(ctx, start, operation, "success")
	l.log.Info("Eligibility evaluated",
		zap.Bool("eligible", verdict.IsEligible),
		zap.Int("approval_likelihood", verdict.ApprovalLikelihood),
		zap.String("risk_category", string(verdict.RiskCategory)),
		zap.String("decision_code", string(verdict.DecisionReason)),
		zap.String("failed_check", eval.FailedCheck),
		zap.Float64("duration_ms", duration),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	return dto.EligibilityResponseFrom(eval.EligibilityResult), nil
}

// CalculateRate implements service.LoanServices. Quotes are served from
// the cache when one is configured; cache failures only cost a recompute.
func (l *loanService) CalculateRate(ctx context.Context, req dto.RateCalculationRequest) (*dto.RateCalculationResponse, error) {
	ctx, span := l.tracer.Start(ctx, "service.CalculateRate")
	defer span.End()

	start := time.Now()
	const operation = "calculate_rate"
	l.countOperation(ctx, operation)

	if err := ctx.Err(); err != nil {
		return nil, l.recordFailure(ctx, span, start, operation, "context_done", "Rate calculation cancelled", err)
	}

	score := req.Score()
	key := repository.QuoteKey{
		Amount:      req.LoanAmount,
		TermMonths:  req.LoanTerm,
		CreditScore: score.Effective(),
		LoanType:    req.LoanType,
	}

	span.SetAttributes(
		attribute.Float64("loan.amount", req.LoanAmount),
		attribute.Int("loan.term_months", req.LoanTerm),
		attribute.Int("loan.credit_score", key.CreditScore),
		attribute.String("loan.type", req.LoanType),
	)

	if cached := l.cachedQuote(ctx, span, key); cached != nil {
		duration := l.recordDuration(ctx, start, operation, "success")
		l.log.Info("Rate calculated",
			zap.Bool("cached", true),
			zap.Float64("interest_rate", cached.InterestRate),
			zap.Float64("duration_ms", duration),
			zap.String("trace_id", span.SpanContext().TraceID().String()),
		)
		return dto.RateCalculationResponseFrom(*cached), nil
	}

	quote := engine.CalculateRateAndSchedule(req.LoanAmount, req.LoanTerm, score, req.LoanType)
	if !quoteFinite(quote) {
		err := fmt.Errorf("%w: amount %.2f over %d months", service.ErrUndefinedRatio, req.LoanAmount, req.LoanTerm)
		return nil, l.recordFailure(ctx, span, start, operation, "undefined_ratio", "Rate figures are not finite", err)
	}

	if l.quoteCache != nil {
		if err := l.quoteCache.Set(ctx, key, quote); err != nil {
			l.log.Warn("Failed to cache rate quote",
				zap.String("trace_id", span.SpanContext().TraceID().String()),
				zap.Error(err),
			)
		}
	}

	span.SetAttributes(
		attribute.Float64("quote.interest_rate", quote.InterestRate),
		attribute.Float64("quote.monthly_payment", quote.MonthlyPayment),
		attribute.Int("quote.schedule_entries", len(quote.Schedule)),
	)

	duration := l.recordDuration(ctx, start, operation, "success")
	l.log.Info("Rate calculated",
		zap.Bool("cached", false),
		zap.Float64("interest_rate", quote.InterestRate),
		zap.Float64("monthly_payment", quote.MonthlyPayment),
		zap.Float64("duration_ms", duration),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	return dto.RateCalculationResponseFrom(quote), nil
}

func (l *loanService) cachedQuote(ctx context.Context, span trace.Span, key repository.QuoteKey) *domain.RateQuote {
	if l.quoteCache == nil {
		return nil
	}

	cached, err := l.quoteCache.Get(ctx, key)
	result := "miss"
	switch {
	case err != nil:
		result = "error"
		l.log.Warn("Quote cache unavailable, computing quote",
			zap.String("trace_id", span.SpanContext().TraceID().String()),
			zap.Error(err),
		)
	case cached != nil:
		result = "hit"
	}

	l.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	span.SetAttributes(attribute.String("cache.result", result))

	if err != nil {
		return nil
	}
	return cached
}

// Products implements service.LoanServices.
func (l *loanService) Products(ctx context.Context) (*dto.ProductsResponse, error) {
	ctx, span := l.tracer.Start(ctx, "service.Products")
	defer span.End()

	start := time.Now()
	l.countOperation(ctx, "list_products")

	products := l.catalog.Products()
	span.SetAttributes(attribute.Int("products.count", len(products)))
	l.recordDuration(ctx, start, "list_products", "success")

	return dto.ProductsResponseFrom(products), nil
}

// Product implements service.LoanServices.
func (l *loanService) Product(ctx context.Context, id string) (*dto.ProductResponse, error) {
	ctx, span := l.tracer.Start(ctx, "service.Product")
	defer span.End()

	start := time.Now()
	const operation = "get_product"
	l.countOperation(ctx, operation)
	span.SetAttributes(attribute.String("product.id", id))

	product, err := l.catalog.Product(id)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			err = fmt.Errorf("%w: %s", service.ErrUnknownProduct, id)
		}
		return nil, l.recordFailure(ctx, span, start, operation, "product_not_found", "Loan product not found", err,
			zap.String("product_id", id))
	}

	l.recordDuration(ctx, start, operation, "success")
	res := dto.ProductResponseFrom(product)
	return &res, nil
}

// ValidationRules implements service.LoanServices.
func (l *loanService) ValidationRules(ctx context.Context) (catalog.ValidationRules, error) {
	ctx, span := l.tracer.Start(ctx, "service.ValidationRules")
	defer span.End()

	start := time.Now()
	l.countOperation(ctx, "validation_rules")
	l.recordDuration(ctx, start, "validation_rules", "success")

	return l.catalog.ValidationRules(), nil
}

func (l *loanService) countOperation(ctx context.Context, operation string) {
	l.operationCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("service", "loan"),
		),
	)
}

func (l *loanService) recordDuration(ctx context.Context, start time.Time, operation, status string) float64 {
	duration := float64(time.Since(start).Nanoseconds()) / 1e6
	l.operationDuration.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("service", "loan"),
			attribute.String("status", status),
		),
	)
	return duration
}

func (l *loanService) recordFailure(
	ctx context.Context, span trace.Span, start time.Time,
	operation, errorType, message string, err error, fields ...zap.Field) error {
	span.SetStatus(codes.Error, message)
	span.RecordError(err)

	l.errorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("service", "loan"),
			attribute.String("error_type", errorType),
		),
	)
	duration := l.recordDuration(ctx, start, operation, "error")

	logFields := append([]zap.Field{
		zap.String("operation", operation),
		zap.String("error_type", errorType),
		zap.Float64("duration_ms", duration),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.Error(err),
	}, fields...)
	l.log.Warn(message, logFields...)

	return err
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func resultFinite(r domain.EligibilityResult) bool {
	return finite(
		r.Offer.MaxAmount, r.Offer.RecommendedAmount, r.Offer.InterestRate,
		r.Offer.MonthlyPayment, r.Offer.TotalRepayment,
		r.Affordability.DisposableIncome, r.Affordability.DebtToIncomeRatio,
		r.Affordability.LoanToIncomeRatio,
	)
}

func quoteFinite(q domain.RateQuote) bool {
	if !finite(q.InterestRate, q.MonthlyPayment, q.TotalInterest, q.TotalRepayment) {
		return false
	}
	for _, e := range q.Schedule {
		if !finite(e.Payment, e.PrincipalPortion, e.InterestPortion, e.RemainingBalance) {
			return false
		}
	}
	return true
}

// NewLoanService wires the engine to the catalog. quoteCache may be nil.
func NewLoanService(
	cat *catalog.Catalog,
	quoteCache repository.QuoteCache,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) service.LoanServices {
	operationDuration, _ := meter.Float64Histogram(
		"service.operation.duration",
		metric.WithDescription("Duration of service operations"),
		metric.WithUnit("ms"),
	)

	operationCount, _ := meter.Int64Counter(
		"service.operation.count",
		metric.WithDescription("Number of service operations"),
		metric.WithUnit("{operation}"),
	)

	errorCount, _ := meter.Int64Counter(
		"service.error.count",
		metric.WithDescription("Number of service errors"),
		metric.WithUnit("{error}"),
	)

	decisions, _ := meter.Int64Counter(
		"loan.eligibility.decisions",
		metric.WithDescription("Number of eligibility decisions by outcome"),
		metric.WithUnit("{decision}"),
	)

	cacheLookups, _ := meter.Int64Counter(
		"loan.quote.cache",
		metric.WithDescription("Number of rate quote cache lookups by result"),
		metric.WithUnit("{lookup}"),
	)

	return &loanService{
		catalog:           cat,
		quoteCache:        quoteCache,
		meter:             meter,
		tracer:            tracer,
		log:               log,
		operationDuration: operationDuration,
		operationCount:    operationCount,
		errorCount:        errorCount,
		decisions:         decisions,
		cacheLookups:      cacheLookups,
	}
}
