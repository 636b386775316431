// Package engine is the loan decision engine: a set of pure functions that
// turn an applicant profile and loan request into an eligibility verdict,
// an offer, an affordability analysis and an amortization schedule.
//
// Callers must validate ranges first and must guarantee a positive monthly
// income. With zero income the debt and loan ratios come out as +Inf or NaN
// and are returned as such; the engine does not mask them.
package engine

import "github.com/fazamuttaqien/loan-eligibility/internal/domain"

// Evaluation carries the figures behind a result that are useful for
// logging but are not part of the result itself.
type Evaluation struct {
	domain.EligibilityResult
	// FailedCheck names the first eligibility check that failed, if any.
	FailedCheck string
}

// EvaluateEligibility runs the full eligibility pipeline.
func EvaluateEligibility(
	profile domain.PersonalProfile,
	finances domain.FinancialProfile,
	loan domain.LoanRequest,
) Evaluation {
	disposable := finances.MonthlyIncome - finances.MonthlyExpenses
	debtToIncome := finances.ExistingMonthlyDebt / finances.MonthlyIncome * 100
	loanToIncome := loan.RequestedAmount / (finances.MonthlyIncome * 12) * 100

	score := finances.CreditScore.Effective()
	rate := RateForCreditTier(score, loan.TermMonths)
	payment := AmortizedPayment(loan.RequestedAmount, rate, loan.TermMonths)

	f := facts{
		status:           profile.EmploymentStatus,
		age:              profile.Age,
		creditScore:      score,
		disposableIncome: disposable,
		monthlyPayment:   payment,
		debtToIncome:     debtToIncome,
	}
	eligible, failed := checkEligibility(f)
	f.eligible = eligible

	maxAmount := maxLoanAmount(finances, loan.Purpose)

	return Evaluation{
		EligibilityResult: domain.EligibilityResult{
			Verdict: domain.EligibilityVerdict{
				IsEligible:         eligible,
				ApprovalLikelihood: approvalLikelihood(f),
				RiskCategory:       riskCategory(f),
				DecisionReason:     decisionReason(f),
			},
			Offer: domain.LoanOffer{
				MaxAmount:         maxAmount,
				RecommendedAmount: min(loan.RequestedAmount, maxAmount),
				InterestRate:      rate,
				MonthlyPayment:    payment,
				TotalRepayment:    round2(payment * float64(loan.TermMonths)),
			},
			Affordability: domain.AffordabilityAnalysis{
				DisposableIncome:   round2(disposable),
				DebtToIncomeRatio:  round2(debtToIncome),
				LoanToIncomeRatio:  round2(loanToIncome),
				AffordabilityScore: affordabilityScore(f),
			},
		},
		FailedCheck: failed,
	}
}

// CalculateRateAndSchedule prices a loan and lists its first
// MaxScheduleEntries months. loanType is carried through untouched.
func CalculateRateAndSchedule(amount float64, termMonths int, creditScore domain.CreditScore, loanType string) domain.RateQuote {
	rate := RateForCreditTier(creditScore.Effective(), termMonths)
	payment := AmortizedPayment(amount, rate, termMonths)
	total := round2(payment * float64(termMonths))

	return domain.RateQuote{
		LoanType:       loanType,
		InterestRate:   rate,
		MonthlyPayment: payment,
		TotalInterest:  round2(total - amount),
		TotalRepayment: total,
		Schedule:       NewSchedule(amount, rate, termMonths).Collect(),
	}
}
