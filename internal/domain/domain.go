package domain

import "strings"

type EmploymentStatus string

const (
	Employed     EmploymentStatus = "employed"
	SelfEmployed EmploymentStatus = "self_employed"
	Unemployed   EmploymentStatus = "unemployed"
	Retired      EmploymentStatus = "retired"
)

// DefaultCreditScore is assumed when an applicant does not report a score.
const DefaultCreditScore = 650

// CreditScore is an optional bureau score. The zero value means "not reported".
type CreditScore struct {
	value int
	set   bool
}

func ScoreOf(v int) CreditScore {
	return CreditScore{value: v, set: true}
}

// ScoreFromPtr maps an optional wire value to a CreditScore.
func ScoreFromPtr(v *int) CreditScore {
	if v == nil {
		return CreditScore{}
	}
	return ScoreOf(*v)
}

func (c CreditScore) Reported() bool {
	return c.set
}

// Effective resolves the score, falling back to DefaultCreditScore.
func (c CreditScore) Effective() int {
	if !c.set {
		return DefaultCreditScore
	}
	return c.value
}

type PersonalProfile struct {
	Age                      int
	EmploymentStatus         EmploymentStatus
	EmploymentDurationMonths int
}

type FinancialProfile struct {
	MonthlyIncome       float64
	MonthlyExpenses     float64
	ExistingMonthlyDebt float64
	CreditScore         CreditScore
}

type LoanRequest struct {
	RequestedAmount float64
	TermMonths      int
	Purpose         string
}

type ProductKind string

const (
	PersonalLoan ProductKind = "personal_loan"
	VehicleLoan  ProductKind = "vehicle_loan"
)

// KindForPurpose selects the vehicle product for any purpose mentioning
// "vehicle" and the personal product otherwise.
func KindForPurpose(purpose string) ProductKind {
	if strings.Contains(purpose, "vehicle") {
		return VehicleLoan
	}
	return PersonalLoan
}

type RiskCategory string

const (
	RiskLow    RiskCategory = "low"
	RiskMedium RiskCategory = "medium"
	RiskHigh   RiskCategory = "high"
)

type AffordabilityScore string

const (
	AffordabilityExcellent AffordabilityScore = "excellent"
	AffordabilityGood      AffordabilityScore = "good"
	AffordabilityFair      AffordabilityScore = "fair"
	AffordabilityPoor      AffordabilityScore = "poor"
)

// DecisionReason identifies one entry of the fixed rationale set.
type DecisionReason string

const (
	ReasonInsufficientDisposableIncome DecisionReason = "insufficient_disposable_income"
	ReasonDebtRatioExceeded            DecisionReason = "debt_ratio_exceeded"
	ReasonMinimumCriteriaNotMet        DecisionReason = "minimum_criteria_not_met"
	ReasonExcellentProfile             DecisionReason = "excellent_profile"
	ReasonStrongRatio                  DecisionReason = "strong_ratio"
	ReasonBasicRequirementsMet         DecisionReason = "basic_requirements_met"
)

var reasonMessages = map[DecisionReason]string{
	ReasonInsufficientDisposableIncome: "Insufficient disposable income to support loan repayment",
	ReasonDebtRatioExceeded:            "Debt-to-income ratio exceeds acceptable threshold",
	ReasonMinimumCriteriaNotMet:        "Does not meet minimum eligibility criteria",
	ReasonExcellentProfile:             "Excellent credit profile with strong income-to-expense ratio",
	ReasonStrongRatio:                  "Strong income-to-expense ratio and manageable existing debt",
	ReasonBasicRequirementsMet:         "Meets basic eligibility requirements with acceptable risk profile",
}

// Message is the applicant-facing wording of the reason.
func (r DecisionReason) Message() string {
	return reasonMessages[r]
}

type EligibilityVerdict struct {
	IsEligible         bool
	ApprovalLikelihood int
	RiskCategory       RiskCategory
	DecisionReason     DecisionReason
}

type LoanOffer struct {
	MaxAmount         float64
	RecommendedAmount float64
	InterestRate      float64
	MonthlyPayment    float64
	TotalRepayment    float64
}

type AffordabilityAnalysis struct {
	DisposableIncome   float64
	DebtToIncomeRatio  float64
	LoanToIncomeRatio  float64
	AffordabilityScore AffordabilityScore
}

type EligibilityResult struct {
	Verdict       EligibilityVerdict
	Offer         LoanOffer
	Affordability AffordabilityAnalysis
}

type PaymentScheduleEntry struct {
	Month            int
	Payment          float64
	PrincipalPortion float64
	InterestPortion  float64
	RemainingBalance float64
}

type RateQuote struct {
	LoanType       string
	InterestRate   float64
	MonthlyPayment float64
	TotalInterest  float64
	TotalRepayment float64
	Schedule       []PaymentScheduleEntry
}

type RateRange struct {
	Min float64
	Max float64
}

type LoanProduct struct {
	ID                string
	Name              string
	Description       string
	MinAmount         float64
	MaxAmount         float64
	MinTerm           int
	MaxTerm           int
	InterestRateRange RateRange
	Purposes          []string
}

// AllowsAmount reports whether amount lies within the product bounds.
func (p LoanProduct) AllowsAmount(amount float64) bool {
	return amount >= p.MinAmount && amount <= p.MaxAmount
}

func (p LoanProduct) AllowsTerm(months int) bool {
	return months >= p.MinTerm && months <= p.MaxTerm
}
