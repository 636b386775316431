package engine

import "github.com/fazamuttaqien/loan-eligibility/internal/domain"

const (
	minApplicantAge       = 18
	maxApplicantAge       = 65
	paymentCoverageFactor = 1.2
	maxDebtToIncome       = 40.0

	baseLikelihood = 50
)

// facts is the resolved input every decision rule reads from.
type facts struct {
	status           domain.EmploymentStatus
	age              int
	creditScore      int
	disposableIncome float64
	monthlyPayment   float64
	debtToIncome     float64
	eligible         bool
}

// paymentRatio is the instalment as a percentage of disposable income.
// A zero disposable income gives +Inf, which every band below treats as
// the worst case.
func (f facts) paymentRatio() float64 {
	return f.monthlyPayment / f.disposableIncome * 100
}

type gateCheck struct {
	name  string
	fails func(facts) bool
}

var eligibilityGate = []gateCheck{
	{"unemployed", func(f facts) bool { return f.status == domain.Unemployed }},
	{"age_out_of_range", func(f facts) bool { return f.age < minApplicantAge || f.age > maxApplicantAge }},
	{"payment_not_covered", func(f facts) bool { return f.disposableIncome < f.monthlyPayment*paymentCoverageFactor }},
	{"debt_to_income_too_high", func(f facts) bool { return f.debtToIncome > maxDebtToIncome }},
}

// checkEligibility returns false and the name of the first failing check,
// or true and "".
func checkEligibility(f facts) (bool, string) {
	for _, c := range eligibilityGate {
		if c.fails(f) {
			return false, c.name
		}
	}
	return true, ""
}

var (
	creditAdjustment = []rule[int, int]{
		{when: atLeast(750), then: 20},
		{when: atLeast(700), then: 15},
		{when: atLeast(650), then: 10},
		{when: atLeast(600), then: 5},
	}
	debtAdjustment = []rule[float64, int]{
		{when: below(20), then: 15},
		{when: below(30), then: 10},
		{when: below(40), then: 5},
	}
	paymentAdjustment = []rule[float64, int]{
		{when: below(30), then: 10},
		{when: below(40), then: 5},
	}
	employmentAdjustment = map[domain.EmploymentStatus]int{
		domain.Employed:     10,
		domain.SelfEmployed: 5,
	}
)

func approvalLikelihood(f facts) int {
	score := baseLikelihood
	score += firstMatch(f.creditScore, creditAdjustment, -10)
	score += firstMatch(f.debtToIncome, debtAdjustment, -15)
	score += firstMatch(f.paymentRatio(), paymentAdjustment, -10)
	score += employmentAdjustment[f.status]
	return max(0, min(100, score))
}

var riskRules = []rule[facts, domain.RiskCategory]{
	{when: func(f facts) bool { return f.creditScore >= 700 && f.debtToIncome < 25 }, then: domain.RiskLow},
	{when: func(f facts) bool { return f.creditScore >= 650 && f.debtToIncome < 35 }, then: domain.RiskMedium},
}

func riskCategory(f facts) domain.RiskCategory {
	return firstMatch(f, riskRules, domain.RiskHigh)
}

var (
	declinedReasons = []rule[facts, domain.DecisionReason]{
		{when: func(f facts) bool { return f.disposableIncome < 0 }, then: domain.ReasonInsufficientDisposableIncome},
		{when: func(f facts) bool { return f.debtToIncome > maxDebtToIncome }, then: domain.ReasonDebtRatioExceeded},
	}
	approvedReasons = []rule[facts, domain.DecisionReason]{
		{when: func(f facts) bool { return f.creditScore >= 700 && f.debtToIncome < 25 }, then: domain.ReasonExcellentProfile},
		{when: func(f facts) bool { return f.debtToIncome < 30 }, then: domain.ReasonStrongRatio},
	}
)

func decisionReason(f facts) domain.DecisionReason {
	if !f.eligible {
		return firstMatch(f, declinedReasons, domain.ReasonMinimumCriteriaNotMet)
	}
	return firstMatch(f, approvedReasons, domain.ReasonBasicRequirementsMet)
}

var affordabilityRules = []rule[facts, domain.AffordabilityScore]{
	{when: func(f facts) bool { return f.paymentRatio() < 25 && f.debtToIncome < 20 }, then: domain.AffordabilityExcellent},
	{when: func(f facts) bool { return f.paymentRatio() < 35 && f.debtToIncome < 30 }, then: domain.AffordabilityGood},
	{when: func(f facts) bool { return f.paymentRatio() < 45 && f.debtToIncome < 40 }, then: domain.AffordabilityFair},
}

func affordabilityScore(f facts) domain.AffordabilityScore {
	return firstMatch(f, affordabilityRules, domain.AffordabilityPoor)
}

const (
	capacityShare      = 0.35
	capacityHorizon    = 48
	personalProductCap = 300_000.0
	vehicleProductCap  = 1_500_000.0
)

var productCaps = map[domain.ProductKind]float64{
	domain.PersonalLoan: personalProductCap,
	domain.VehicleLoan:  vehicleProductCap,
}

// maxLoanAmount caps borrowing at 35% of disposable income over 48 months,
// limited by the product ceiling. It deliberately ignores the payment of
// the loan being requested.
func maxLoanAmount(finances domain.FinancialProfile, purpose string) float64 {
	disposable := finances.MonthlyIncome - finances.MonthlyExpenses
	raw := disposable * capacityShare * capacityHorizon
	return roundWhole(min(raw, productCaps[domain.KindForPurpose(purpose)]))
}
