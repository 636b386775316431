package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fazamuttaqien/loan-eligibility/internal/domain"
)

func TestSchedule_OneYearLoan(t *testing.T) {
	entries := NewSchedule(10000, 12.5, 12).Collect()
	require.Len(t, entries, 12)

	assert.Equal(t, domain.PaymentScheduleEntry{
		Month:            1,
		Payment:          890.83,
		PrincipalPortion: 786.66,
		InterestPortion:  104.17,
		RemainingBalance: 9213.34,
	}, entries[0])

	last := entries[11]
	assert.Equal(t, 12, last.Month)
	assert.Equal(t, 881.65, last.PrincipalPortion)
	assert.Equal(t, 9.18, last.InterestPortion)
	assert.Equal(t, 0.0, last.RemainingBalance)
}

func TestSchedule_PaymentJustBelowHalfCentRoundsDown(t *testing.T) {
	// 2445.87 / 2 is stored as 1222.934999..., so the instalment is 1222.93
	// and one cent is left after the last month.
	entries := NewSchedule(2445.87, 0, 2).Collect()

	assert.Equal(t, []domain.PaymentScheduleEntry{
		{Month: 1, Payment: 1222.93, PrincipalPortion: 1222.93, InterestPortion: 0, RemainingBalance: 1222.94},
		{Month: 2, Payment: 1222.93, PrincipalPortion: 1222.93, InterestPortion: 0, RemainingBalance: 0.01},
	}, entries)
}

func TestSchedule_BalanceFlooredAtZero(t *testing.T) {
	s := NewSchedule(10000, 12.5, 12)
	entries := s.Collect()

	// The rounded instalment slightly overpays, so the running balance ends
	// just below zero while the emitted balance does not.
	assert.Less(t, s.Balance(), 0.0)
	assert.Equal(t, 0.0, entries[len(entries)-1].RemainingBalance)
	for _, e := range entries {
		assert.GreaterOrEqual(t, e.RemainingBalance, 0.0)
	}
}

func TestSchedule_LengthIsCapped(t *testing.T) {
	for _, term := range []int{1, 6, 12, 23, 24, 25, 36, 48, 60, 72} {
		entries := NewSchedule(50000, 14.5, term).Collect()
		assert.Len(t, entries, min(term, MaxScheduleEntries), "term %d", term)
		for i, e := range entries {
			assert.Equal(t, i+1, e.Month)
		}
	}
}

func TestSchedule_LongLoanNeverReachesPayoff(t *testing.T) {
	entries := NewSchedule(100000, 12.5, 48).Collect()
	require.Len(t, entries, MaxScheduleEntries)
	assert.Greater(t, entries[len(entries)-1].RemainingBalance, 0.0)
}

func TestSchedule_PrincipalSumMatchesBalanceDrop(t *testing.T) {
	for _, term := range []int{6, 12, 18, 24} {
		principal := 75000.0
		s := NewSchedule(principal, 11.5, term)
		entries := s.Collect()

		sum := 0.0
		for _, e := range entries {
			sum += e.PrincipalPortion
		}
		tolerance := 0.005 * float64(len(entries))
		assert.InDelta(t, principal-s.Balance(), sum, tolerance, "term %d", term)
	}
}

func TestSchedule_IsNotRestartable(t *testing.T) {
	s := NewSchedule(10000, 12.5, 6)
	first := s.Collect()
	require.Len(t, first, 6)

	_, ok := s.Next()
	assert.False(t, ok)
	assert.Empty(t, s.Collect())
}

func TestSchedule_ZeroRate(t *testing.T) {
	entries := NewSchedule(1200, 0, 12).Collect()
	require.Len(t, entries, 12)
	for _, e := range entries {
		assert.Equal(t, 100.0, e.Payment)
		assert.Equal(t, 0.0, e.InterestPortion)
	}
	assert.True(t, math.Abs(entries[11].RemainingBalance) < 0.01)
}
