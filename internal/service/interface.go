package service

import (
	"context"
	"errors"

	"github.com/fazamuttaqien/loan-eligibility/internal/catalog"
	"github.com/fazamuttaqien/loan-eligibility/internal/dto"
)

var (
	// ErrUndefinedRatio is returned when the inputs make a figure of the
	// result non-finite, e.g. a zero monthly income.
	ErrUndefinedRatio = errors.New("loan figures are undefined for the given inputs")
	ErrUnknownProduct = errors.New("unknown loan product")
)

type LoanServices interface {
	CheckEligibility(ctx context.Context, req dto.EligibilityRequest) (*dto.EligibilityResponse, error)
	CalculateRate(ctx context.Context, req dto.RateCalculationRequest) (*dto.RateCalculationResponse, error)
	Products(ctx context.Context) (*dto.ProductsResponse, error)
	Product(ctx context.Context, id string) (*dto.ProductResponse, error)
	ValidationRules(ctx context.Context) (catalog.ValidationRules, error)
}
