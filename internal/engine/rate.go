package engine

import "math"

const (
	longTermThreshold = 36
	longTermSurcharge = 1.0
	fallbackBaseRate  = 16.5
)

var baseRateByScore = []rule[int, float64]{
	{when: atLeast(750), then: 10.5},
	{when: atLeast(700), then: 11.5},
	{when: atLeast(650), then: 12.5},
	{when: atLeast(600), then: 14.5},
}

// RateForCreditTier returns the annual percentage rate for a credit score
// and term. Terms longer than three years carry a one point surcharge.
func RateForCreditTier(creditScore, termMonths int) float64 {
	rate := firstMatch(creditScore, baseRateByScore, fallbackBaseRate)
	if termMonths > longTermThreshold {
		rate += longTermSurcharge
	}
	return round2(rate)
}

// AmortizedPayment is the fixed monthly instalment that retires principal
// over months at annualRate percent. A zero rate splits the principal evenly.
func AmortizedPayment(principal, annualRate float64, months int) float64 {
	r := monthlyRate(annualRate)
	n := float64(months)
	if r == 0 {
		return round2(principal / n)
	}
	growth := math.Pow(1+r, n)
	return round2(principal * (r * growth) / (growth - 1))
}

func monthlyRate(annualRate float64) float64 {
	return annualRate / 100 / 12
}
