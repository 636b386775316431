package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fazamuttaqien/loan-eligibility/internal/domain"
)

func scenarioA() (domain.PersonalProfile, domain.FinancialProfile, domain.LoanRequest) {
	return domain.PersonalProfile{
			Age:                      35,
			EmploymentStatus:         domain.Employed,
			EmploymentDurationMonths: 24,
		}, domain.FinancialProfile{
			MonthlyIncome:       25000,
			MonthlyExpenses:     15000,
			ExistingMonthlyDebt: 5000,
			CreditScore:         domain.ScoreOf(650),
		}, domain.LoanRequest{
			RequestedAmount: 150000,
			TermMonths:      24,
			Purpose:         "home_improvement",
		}
}

func TestEvaluateEligibility_ScenarioA(t *testing.T) {
	profile, finances, loan := scenarioA()

	got := EvaluateEligibility(profile, finances, loan)

	assert.Equal(t, domain.EligibilityVerdict{
		IsEligible:         true,
		ApprovalLikelihood: 70,
		RiskCategory:       domain.RiskMedium,
		DecisionReason:     domain.ReasonStrongRatio,
	}, got.Verdict)
	assert.Equal(t, domain.LoanOffer{
		MaxAmount:         168000,
		RecommendedAmount: 150000,
		InterestRate:      12.5,
		MonthlyPayment:    7096.10,
		TotalRepayment:    170306.40,
	}, got.Offer)
	assert.Equal(t, domain.AffordabilityAnalysis{
		DisposableIncome:   10000,
		DebtToIncomeRatio:  20,
		LoanToIncomeRatio:  50,
		AffordabilityScore: domain.AffordabilityPoor,
	}, got.Affordability)
	assert.Empty(t, got.FailedCheck)
}

func TestEvaluateEligibility_ScenarioB_Unemployed(t *testing.T) {
	profile, finances, loan := scenarioA()
	profile.EmploymentStatus = domain.Unemployed

	got := EvaluateEligibility(profile, finances, loan)

	assert.False(t, got.Verdict.IsEligible)
	assert.Equal(t, "unemployed", got.FailedCheck)
	assert.Equal(t, domain.ReasonMinimumCriteriaNotMet, got.Verdict.DecisionReason)
	assert.Equal(t, 60, got.Verdict.ApprovalLikelihood)
}

func TestEvaluateEligibility_ScenarioC_TopTier(t *testing.T) {
	got := EvaluateEligibility(
		domain.PersonalProfile{Age: 30, EmploymentStatus: domain.Employed, EmploymentDurationMonths: 12},
		domain.FinancialProfile{MonthlyIncome: 5000, CreditScore: domain.ScoreOf(800)},
		domain.LoanRequest{RequestedAmount: 5000, TermMonths: 6, Purpose: "education"},
	)

	assert.Equal(t, 10.5, got.Offer.InterestRate)
	assert.Equal(t, 859.04, got.Offer.MonthlyPayment)
	assert.True(t, got.Verdict.IsEligible)
	assert.Equal(t, 100, got.Verdict.ApprovalLikelihood, "likelihood is clamped")
	assert.Equal(t, domain.RiskLow, got.Verdict.RiskCategory)
	assert.Equal(t, domain.ReasonExcellentProfile, got.Verdict.DecisionReason)
	assert.Equal(t, domain.AffordabilityExcellent, got.Affordability.AffordabilityScore)
	assert.Equal(t, 84000.0, got.Offer.MaxAmount)
	assert.Equal(t, 8.33, got.Affordability.LoanToIncomeRatio)
}

func TestEvaluateEligibility_ScenarioD_LongTermSurcharge(t *testing.T) {
	profile, finances, loan := scenarioA()
	for score, base := range map[int]float64{800: 10.5, 720: 11.5, 660: 12.5, 620: 14.5, 500: 16.5} {
		finances.CreditScore = domain.ScoreOf(score)
		loan.TermMonths = 48

		got := EvaluateEligibility(profile, finances, loan)
		assert.Equal(t, base+1.0, got.Offer.InterestRate, "score %d", score)
	}
}

func TestEvaluateEligibility_ScenarioE_VehicleCap(t *testing.T) {
	profile := domain.PersonalProfile{Age: 40, EmploymentStatus: domain.Employed, EmploymentDurationMonths: 60}
	finances := domain.FinancialProfile{MonthlyIncome: 200000, MonthlyExpenses: 50000, ExistingMonthlyDebt: 10000}

	vehicle := EvaluateEligibility(profile, finances, domain.LoanRequest{RequestedAmount: 1200000, TermMonths: 60, Purpose: "new_vehicle"})
	assert.Equal(t, 1500000.0, vehicle.Offer.MaxAmount)
	assert.Equal(t, 1200000.0, vehicle.Offer.RecommendedAmount)

	personal := EvaluateEligibility(profile, finances, domain.LoanRequest{RequestedAmount: 1200000, TermMonths: 60, Purpose: "home_improvement"})
	assert.Equal(t, 300000.0, personal.Offer.MaxAmount)
	assert.Equal(t, 300000.0, personal.Offer.RecommendedAmount)
}

func TestEvaluateEligibility_MissingCreditScoreDefaults(t *testing.T) {
	profile, finances, loan := scenarioA()
	withDefault := EvaluateEligibility(profile, finances, loan)

	finances.CreditScore = domain.CreditScore{}
	missing := EvaluateEligibility(profile, finances, loan)

	assert.Equal(t, withDefault, missing)
}

func TestEligibilityGate(t *testing.T) {
	base := facts{
		status:           domain.Employed,
		age:              35,
		creditScore:      700,
		disposableIncome: 10000,
		monthlyPayment:   1000,
		debtToIncome:     10,
	}

	tests := []struct {
		name   string
		mutate func(*facts)
		failed string
	}{
		{"passes", func(*facts) {}, ""},
		{"unemployed", func(f *facts) { f.status = domain.Unemployed }, "unemployed"},
		{"retired still passes", func(f *facts) { f.status = domain.Retired }, ""},
		{"too young", func(f *facts) { f.age = 17 }, "age_out_of_range"},
		{"too old", func(f *facts) { f.age = 66 }, "age_out_of_range"},
		{"age bounds inclusive", func(f *facts) { f.age = 65 }, ""},
		{"payment not covered", func(f *facts) { f.monthlyPayment = 8400 }, "payment_not_covered"},
		{"payment exactly covered", func(f *facts) { f.monthlyPayment = 8000 }, ""},
		{"debt ratio too high", func(f *facts) { f.debtToIncome = 40.01 }, "debt_to_income_too_high"},
		{"debt ratio at limit", func(f *facts) { f.debtToIncome = 40 }, ""},
		{"first failure wins", func(f *facts) { f.status = domain.Unemployed; f.debtToIncome = 90 }, "unemployed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := base
			tt.mutate(&f)
			ok, failed := checkEligibility(f)
			assert.Equal(t, tt.failed == "", ok)
			assert.Equal(t, tt.failed, failed)
		})
	}
}

func TestApprovalLikelihood(t *testing.T) {
	tests := []struct {
		name string
		f    facts
		want int
	}{
		{"best case clamps to 100", facts{status: domain.Employed, creditScore: 800, debtToIncome: 5, disposableIncome: 10000, monthlyPayment: 1000}, 100},
		{"worst case", facts{status: domain.Unemployed, creditScore: 400, debtToIncome: 60, disposableIncome: 1000, monthlyPayment: 900}, 15},
		{"self employed mid bands", facts{status: domain.SelfEmployed, creditScore: 610, debtToIncome: 35, disposableIncome: 1000, monthlyPayment: 350}, 70},
		{"retired gets nothing for employment", facts{status: domain.Retired, creditScore: 700, debtToIncome: 25, disposableIncome: 1000, monthlyPayment: 390}, 80},
		{"zero disposable income is the worst payment band", facts{status: domain.Employed, creditScore: 650, debtToIncome: 10, monthlyPayment: 500}, 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, approvalLikelihood(tt.f))
		})
	}
}

func TestRiskCategory(t *testing.T) {
	assert.Equal(t, domain.RiskLow, riskCategory(facts{creditScore: 700, debtToIncome: 24.99}))
	assert.Equal(t, domain.RiskMedium, riskCategory(facts{creditScore: 700, debtToIncome: 25}))
	assert.Equal(t, domain.RiskMedium, riskCategory(facts{creditScore: 650, debtToIncome: 34.99}))
	assert.Equal(t, domain.RiskHigh, riskCategory(facts{creditScore: 650, debtToIncome: 35}))
	assert.Equal(t, domain.RiskHigh, riskCategory(facts{creditScore: 649, debtToIncome: 0}))
}

func TestDecisionReason(t *testing.T) {
	tests := []struct {
		name string
		f    facts
		want domain.DecisionReason
	}{
		{"negative income before debt ratio", facts{disposableIncome: -1, debtToIncome: 80}, domain.ReasonInsufficientDisposableIncome},
		{"debt ratio", facts{disposableIncome: 100, debtToIncome: 41}, domain.ReasonDebtRatioExceeded},
		{"generic decline", facts{disposableIncome: 100, debtToIncome: 10}, domain.ReasonMinimumCriteriaNotMet},
		{"excellent", facts{eligible: true, creditScore: 700, debtToIncome: 24}, domain.ReasonExcellentProfile},
		{"strong ratio", facts{eligible: true, creditScore: 650, debtToIncome: 29}, domain.ReasonStrongRatio},
		{"strong ratio for high score with mid debt", facts{eligible: true, creditScore: 780, debtToIncome: 26}, domain.ReasonStrongRatio},
		{"basic", facts{eligible: true, creditScore: 800, debtToIncome: 30}, domain.ReasonBasicRequirementsMet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decisionReason(tt.f)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, got.Message())
		})
	}
}

func TestAffordabilityScore(t *testing.T) {
	tests := []struct {
		name string
		f    facts
		want domain.AffordabilityScore
	}{
		{"excellent", facts{disposableIncome: 1000, monthlyPayment: 249, debtToIncome: 19}, domain.AffordabilityExcellent},
		{"good on payment", facts{disposableIncome: 1000, monthlyPayment: 250, debtToIncome: 19}, domain.AffordabilityGood},
		{"good on debt", facts{disposableIncome: 1000, monthlyPayment: 100, debtToIncome: 20}, domain.AffordabilityGood},
		{"fair", facts{disposableIncome: 1000, monthlyPayment: 440, debtToIncome: 39}, domain.AffordabilityFair},
		{"poor", facts{disposableIncome: 1000, monthlyPayment: 450, debtToIncome: 0}, domain.AffordabilityPoor},
		{"zero disposable income", facts{monthlyPayment: 450}, domain.AffordabilityPoor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, affordabilityScore(tt.f))
		})
	}
}

func TestEvaluateEligibility_BasicRequirementsAndHighRisk(t *testing.T) {
	got := EvaluateEligibility(
		domain.PersonalProfile{Age: 45, EmploymentStatus: domain.SelfEmployed, EmploymentDurationMonths: 36},
		domain.FinancialProfile{MonthlyIncome: 100000, ExistingMonthlyDebt: 35000},
		domain.LoanRequest{RequestedAmount: 10000, TermMonths: 12, Purpose: "medical"},
	)

	require.True(t, got.Verdict.IsEligible)
	assert.Equal(t, domain.ReasonBasicRequirementsMet, got.Verdict.DecisionReason)
	assert.Equal(t, domain.RiskHigh, got.Verdict.RiskCategory)
}

func TestEvaluateEligibility_NegativeDisposableIncome(t *testing.T) {
	got := EvaluateEligibility(
		domain.PersonalProfile{Age: 30, EmploymentStatus: domain.Employed, EmploymentDurationMonths: 12},
		domain.FinancialProfile{MonthlyIncome: 10000, MonthlyExpenses: 12000},
		domain.LoanRequest{RequestedAmount: 20000, TermMonths: 24, Purpose: "other"},
	)

	assert.False(t, got.Verdict.IsEligible)
	assert.Equal(t, domain.ReasonInsufficientDisposableIncome, got.Verdict.DecisionReason)
	assert.Equal(t, -2000.0, got.Affordability.DisposableIncome)
	assert.Equal(t, -33600.0, got.Offer.MaxAmount)
	assert.LessOrEqual(t, got.Offer.RecommendedAmount, got.Offer.MaxAmount)
}

func TestEvaluateEligibility_ZeroDisposableIncome(t *testing.T) {
	got := EvaluateEligibility(
		domain.PersonalProfile{Age: 30, EmploymentStatus: domain.Employed, EmploymentDurationMonths: 12},
		domain.FinancialProfile{MonthlyIncome: 8000, MonthlyExpenses: 8000},
		domain.LoanRequest{RequestedAmount: 10000, TermMonths: 12, Purpose: "other"},
	)

	assert.False(t, got.Verdict.IsEligible)
	assert.Equal(t, "payment_not_covered", got.FailedCheck)
	assert.Equal(t, domain.ReasonMinimumCriteriaNotMet, got.Verdict.DecisionReason)
	assert.Equal(t, domain.AffordabilityPoor, got.Affordability.AffordabilityScore)
	assert.Equal(t, 0.0, got.Offer.MaxAmount)
	assert.Equal(t, 0.0, got.Offer.RecommendedAmount)
}

func TestEvaluateEligibility_ZeroIncomeYieldsNonFiniteRatios(t *testing.T) {
	profile := domain.PersonalProfile{Age: 30, EmploymentStatus: domain.Employed, EmploymentDurationMonths: 12}
	loan := domain.LoanRequest{RequestedAmount: 10000, TermMonths: 12, Purpose: "other"}

	withDebt := EvaluateEligibility(profile, domain.FinancialProfile{ExistingMonthlyDebt: 1000}, loan)
	assert.True(t, math.IsInf(withDebt.Affordability.DebtToIncomeRatio, 1))
	assert.True(t, math.IsInf(withDebt.Affordability.LoanToIncomeRatio, 1))
	assert.False(t, withDebt.Verdict.IsEligible)

	noDebt := EvaluateEligibility(profile, domain.FinancialProfile{}, loan)
	assert.True(t, math.IsNaN(noDebt.Affordability.DebtToIncomeRatio))
}

func TestEvaluateEligibility_Properties(t *testing.T) {
	statuses := []domain.EmploymentStatus{domain.Employed, domain.SelfEmployed, domain.Unemployed, domain.Retired}
	incomes := []float64{5000, 12000, 40000, 150000}
	expenseShares := []float64{0, 0.4, 0.9, 1.2}
	debtShares := []float64{0, 0.15, 0.3, 0.5}
	amounts := []float64{5000, 60000, 300000, 1500000}
	terms := []int{6, 24, 36, 48, 72}
	scores := []int{300, 599, 650, 720, 850}

	for _, status := range statuses {
		for _, income := range incomes {
			for _, es := range expenseShares {
				for _, ds := range debtShares {
					for _, amount := range amounts {
						for _, term := range terms {
							for _, score := range scores {
								profile := domain.PersonalProfile{Age: 40, EmploymentStatus: status, EmploymentDurationMonths: 12}
								finances := domain.FinancialProfile{
									MonthlyIncome:       income,
									MonthlyExpenses:     income * es,
									ExistingMonthlyDebt: income * ds,
									CreditScore:         domain.ScoreOf(score),
								}
								loan := domain.LoanRequest{RequestedAmount: amount, TermMonths: term, Purpose: "used_vehicle"}

								got := EvaluateEligibility(profile, finances, loan)
								v := got.Verdict
								if !assert.True(t, v.ApprovalLikelihood >= 0 && v.ApprovalLikelihood <= 100) {
									return
								}
								assert.LessOrEqual(t, got.Offer.RecommendedAmount, got.Offer.MaxAmount)
								assert.LessOrEqual(t, got.Offer.RecommendedAmount, amount)
								assert.Equal(t, got, EvaluateEligibility(profile, finances, loan))
							}
						}
					}
				}
			}
		}
	}
}

func TestCalculateRateAndSchedule(t *testing.T) {
	quote := CalculateRateAndSchedule(10000, 12, domain.CreditScore{}, "personal")

	assert.Equal(t, "personal", quote.LoanType)
	assert.Equal(t, 12.5, quote.InterestRate)
	assert.Equal(t, 890.83, quote.MonthlyPayment)
	assert.Equal(t, 10689.96, quote.TotalRepayment)
	assert.Equal(t, 689.96, quote.TotalInterest)
	assert.Len(t, quote.Schedule, 12)

	long := CalculateRateAndSchedule(100000, 48, domain.ScoreOf(720), "vehicle")
	assert.Equal(t, 12.5, long.InterestRate)
	assert.Equal(t, 2658.0, long.MonthlyPayment)
	assert.Equal(t, 127584.0, long.TotalRepayment)
	assert.Equal(t, 27584.0, long.TotalInterest)
	assert.Len(t, long.Schedule, MaxScheduleEntries)
}
