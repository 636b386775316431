package presenter

import (
	"github.com/redis/go-redis/v9"

	"github.com/fazamuttaqien/loan-eligibility/config"
	"github.com/fazamuttaqien/loan-eligibility/internal/catalog"
	loanhandler "github.com/fazamuttaqien/loan-eligibility/internal/handler/loan"
	"github.com/fazamuttaqien/loan-eligibility/internal/repository"
	quoterepo "github.com/fazamuttaqien/loan-eligibility/internal/repository/quote"
	loansrv "github.com/fazamuttaqien/loan-eligibility/internal/service/loan"
	"github.com/fazamuttaqien/loan-eligibility/internal/validation"
	"github.com/fazamuttaqien/loan-eligibility/pkg/telemetry"
)

type Presenter struct {
	LoanPresenter *loanhandler.LoanHandler
}

// NewPresenter wires repositories, services and handlers. A nil
// redisClient disables quote caching.
func NewPresenter(
	cat *catalog.Catalog,
	redisClient *redis.Client,
	tel *telemetry.OpenTelemetry,
	cfg *config.Config,
) Presenter {
	// Repository
	var quoteCache repository.QuoteCache
	if redisClient != nil {
		quoteCacheMeter := tel.MeterProvider.Meter("quote-repository-meter")
		quoteCacheTracer := tel.TracerProvider.Tracer("quote-repository-tracer")
		quoteCache = quoterepo.NewQuoteCache(
			redisClient,
			cfg.QUOTE_CACHE_TTL,
			quoteCacheMeter,
			quoteCacheTracer,
			tel.Log,
		)
	}

	// Service
	loanServiceMeter := tel.MeterProvider.Meter("loan-service-meter")
	loanServiceTracer := tel.TracerProvider.Tracer("loan-service-trace")
	loanService := loansrv.NewLoanService(
		cat,
		quoteCache,
		loanServiceMeter,
		loanServiceTracer,
		tel.Log,
	)

	// Handler
	loanHandlerMeter := tel.MeterProvider.Meter("loan-handler-meter")
	loanHandlerTracer := tel.TracerProvider.Tracer("loan-handler-trace")
	loanHandler := loanhandler.NewLoanHandler(
		loanService,
		validation.New(cat),
		cfg.REQUEST_TIMEOUT,
		loanHandlerMeter,
		loanHandlerTracer,
		tel.Log,
	)

	return Presenter{
		LoanPresenter: loanHandler,
	}
}
