package engine

import (
	"math"

	"github.com/shopspring/decimal"
)

// round2 rounds the exact binary value of v to two decimal places, halves
// away from zero. 1.005 is stored just below the half and becomes 1.00.
// Non-finite values pass through untouched so a violated income
// precondition stays observable to the caller.
func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloatWithExponent(v, -2).InexactFloat64()
}

// roundWhole rounds to the nearest integer with halves going up, so -0.5
// becomes 0 rather than -1.
func roundWhole(v float64) float64 {
	return math.Floor(v + 0.5)
}
