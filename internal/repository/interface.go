package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/fazamuttaqien/loan-eligibility/internal/domain"
)

// QuoteKey identifies a rate quote by everything that determines it.
type QuoteKey struct {
	Amount      float64
	TermMonths  int
	CreditScore int
	LoanType    string
}

var quoteNamespace = uuid.MustParse("6f1d1c52-3b7e-4f53-9a57-0c5a3c2b9e41")

// String renders a fixed-length storage key. Loan types are free-form so
// the inputs are hashed rather than embedded. The amount is written in
// full so sub-cent differences never share an entry.
func (k QuoteKey) String() string {
	canonical := fmt.Sprintf("%s|%d|%d|%s",
		strconv.FormatFloat(k.Amount, 'g', -1, 64), k.TermMonths, k.CreditScore, k.LoanType)
	return "quote:" + uuid.NewSHA1(quoteNamespace, []byte(canonical)).String()
}

type QuoteCache interface {
	// Get returns nil without error on a miss.
	Get(ctx context.Context, key QuoteKey) (*domain.RateQuote, error)
	Set(ctx context.Context, key QuoteKey, quote domain.RateQuote) error
}
