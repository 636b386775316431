package quoterepo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fazamuttaqien/loan-eligibility/internal/domain"
	"github.com/fazamuttaqien/loan-eligibility/internal/repository"
)

type quoteCache struct {
	client *redis.Client
	ttl    time.Duration

	meter         metric.Meter
	tracer        trace.Tracer
	log           *zap.Logger
	queryDuration metric.Float64Histogram
	queryCount    metric.Int64Counter
	errorCount    metric.Int64Counter
}

// Get implements repository.QuoteCache.
func (q *quoteCache) Get(ctx context.Context, key repository.QuoteKey) (*domain.RateQuote, error) {
	ctx, span := q.tracer.Start(ctx, "repository.GetQuote")
	defer span.End()

	start := time.Now()
	storageKey := key.String()

	span.SetAttributes(
		attribute.String("db.system", "redis"),
		attribute.String("db.operation", "get"),
		attribute.String("cache.key", storageKey),
	)
	q.queryCount.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", "get")))

	raw, err := q.client.Get(ctx, storageKey).Bytes()
	if errors.Is(err, redis.Nil) {
		q.record(ctx, start, "get", "miss")
		return nil, nil
	}
	if err != nil {
		return nil, q.fail(ctx, span, start, "get", "Failed to read quote from cache", err)
	}

	var quote domain.RateQuote
	if err := json.Unmarshal(raw, &quote); err != nil {
		return nil, q.fail(ctx, span, start, "get", "Failed to decode cached quote", err)
	}

	q.record(ctx, start, "get", "hit")
	q.log.Debug("Quote served from cache",
		zap.String("key", storageKey),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)

	return &quote, nil
}

// Set implements repository.QuoteCache.
func (q *quoteCache) Set(ctx context.Context, key repository.QuoteKey, quote domain.RateQuote) error {
	ctx, span := q.tracer.Start(ctx, "repository.SetQuote")
	defer span.End()

	start := time.Now()
	storageKey := key.String()

	span.SetAttributes(
		attribute.String("db.system", "redis"),
		attribute.String("db.operation", "set"),
		attribute.String("cache.key", storageKey),
	)
	q.queryCount.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", "set")))

	raw, err := json.Marshal(quote)
	if err != nil {
		return q.fail(ctx, span, start, "set", "Failed to encode quote", err)
	}

	if err := q.client.Set(ctx, storageKey, raw, q.ttl).Err(); err != nil {
		return q.fail(ctx, span, start, "set", "Failed to write quote to cache", err)
	}

	q.record(ctx, start, "set", "success")
	return nil
}

func (q *quoteCache) record(ctx context.Context, start time.Time, operation, status string) {
	duration := float64(time.Since(start).Nanoseconds()) / 1e6
	q.queryDuration.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

func (q *quoteCache) fail(ctx context.Context, span trace.Span, start time.Time, operation, message string, err error) error {
	span.SetStatus(codes.Error, message)
	span.RecordError(err)

	q.log.Error(message,
		zap.String("operation", operation),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.Error(err),
	)

	q.errorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("store", "redis"),
		),
	)
	q.record(ctx, start, operation, "error")

	return err
}

func NewQuoteCache(
	client *redis.Client,
	ttl time.Duration,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) repository.QuoteCache {
	queryDuration, _ := meter.Float64Histogram(
		"cache.query.duration",
		metric.WithDescription("Duration of quote cache operations"),
		metric.WithUnit("ms"),
	)

	queryCount, _ := meter.Int64Counter(
		"cache.query.count",
		metric.WithDescription("Number of quote cache operations"),
		metric.WithUnit("{operation}"),
	)

	errorCount, _ := meter.Int64Counter(
		"cache.error.count",
		metric.WithDescription("Number of quote cache errors"),
		metric.WithUnit("{error}"),
	)

	return &quoteCache{
		client:        client,
		ttl:           ttl,
		meter:         meter,
		tracer:        tracer,
		log:           log,
		queryDuration: queryDuration,
		queryCount:    queryCount,
		errorCount:    errorCount,
	}
}
