package engine

import (
	"math"

	"github.com/fazamuttaqien/loan-eligibility/internal/domain"
)

// MaxScheduleEntries bounds how many months a schedule shows. Loans longer
// than this are listed only up to this month and never reach payoff.
const MaxScheduleEntries = 24

// Schedule yields amortization entries one month at a time. It is finite
// and cannot be rewound; build a new one to start again.
type Schedule struct {
	payment float64
	rate    float64
	balance float64
	month   int
	last    int
}

// NewSchedule prepares a schedule for principal at annualRate percent over
// months, paying the rounded fixed instalment each month.
func NewSchedule(principal, annualRate float64, months int) *Schedule {
	return &Schedule{
		payment: AmortizedPayment(principal, annualRate, months),
		rate:    monthlyRate(annualRate),
		balance: principal,
		last:    min(months, MaxScheduleEntries),
	}
}

// Next advances one month. The running balance is kept unrounded; only
// the emitted entry is rounded and floored at zero.
func (s *Schedule) Next() (domain.PaymentScheduleEntry, bool) {
	if s.month >= s.last {
		return domain.PaymentScheduleEntry{}, false
	}
	s.month++

	interest := s.balance * s.rate
	principal := s.payment - interest
	s.balance -= principal

	return domain.PaymentScheduleEntry{
		Month:            s.month,
		Payment:          round2(s.payment),
		PrincipalPortion: round2(principal),
		InterestPortion:  round2(interest),
		RemainingBalance: round2(math.Max(0, s.balance)),
	}, true
}

// Balance is the unrounded outstanding principal after the last emitted month.
func (s *Schedule) Balance() float64 {
	return s.balance
}

// Collect drains the remaining entries.
func (s *Schedule) Collect() []domain.PaymentScheduleEntry {
	entries := make([]domain.PaymentScheduleEntry, 0, s.last-s.month)
	for {
		e, ok := s.Next()
		if !ok {
			return entries
		}
		entries = append(entries, e)
	}
}
