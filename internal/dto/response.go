package dto

import "github.com/fazamuttaqien/loan-eligibility/internal/domain"

type EligibilityResult struct {
	IsEligible         bool   `json:"isEligible"`
	ApprovalLikelihood int    `json:"approvalLikelihood"`
	RiskCategory       string `json:"riskCategory"`
	DecisionReason     string `json:"decisionReason"`
	DecisionCode       string `json:"decisionCode"`
}

type RecommendedLoan struct {
	MaxAmount         float64 `json:"maxAmount"`
	RecommendedAmount float64 `json:"recommendedAmount"`
	InterestRate      float64 `json:"interestRate"`
	MonthlyPayment    float64 `json:"monthlyPayment"`
	TotalRepayment    float64 `json:"totalRepayment"`
}

type AffordabilityAnalysis struct {
	DisposableIncome   float64 `json:"disposableIncome"`
	DebtToIncomeRatio  float64 `json:"debtToIncomeRatio"`
	LoanToIncomeRatio  float64 `json:"loanToIncomeRatio"`
	AffordabilityScore string  `json:"affordabilityScore"`
}

type EligibilityResponse struct {
	EligibilityResult     EligibilityResult     `json:"eligibilityResult"`
	RecommendedLoan       RecommendedLoan       `json:"recommendedLoan"`
	AffordabilityAnalysis AffordabilityAnalysis `json:"affordabilityAnalysis"`
}

type PaymentScheduleItem struct {
	Month     int     `json:"month"`
	Payment   float64 `json:"payment"`
	Principal float64 `json:"principal"`
	Interest  float64 `json:"interest"`
	Balance   float64 `json:"balance"`
}

type RateCalculationResponse struct {
	LoanType        string                `json:"loanType"`
	InterestRate    float64               `json:"interestRate"`
	MonthlyPayment  float64               `json:"monthlyPayment"`
	TotalInterest   float64               `json:"totalInterest"`
	TotalRepayment  float64               `json:"totalRepayment"`
	PaymentSchedule []PaymentScheduleItem `json:"paymentSchedule"`
}

type InterestRateRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type ProductResponse struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	MinAmount         float64           `json:"minAmount"`
	MaxAmount         float64           `json:"maxAmount"`
	MinTerm           int               `json:"minTerm"`
	MaxTerm           int               `json:"maxTerm"`
	InterestRateRange InterestRateRange `json:"interestRateRange"`
	Purposes          []string          `json:"purposes"`
}

type ProductsResponse struct {
	Products []ProductResponse `json:"products"`
}

// --- Mapping --- //

func EligibilityResponseFrom(r domain.EligibilityResult) *EligibilityResponse {
	return &EligibilityResponse{
		EligibilityResult: EligibilityResult{
			IsEligible:         r.Verdict.IsEligible,
			ApprovalLikelihood: r.Verdict.ApprovalLikelihood,
			RiskCategory:       string(r.Verdict.RiskCategory),
			DecisionReason:     r.Verdict.DecisionReason.Message(),
			DecisionCode:       string(r.Verdict.DecisionReason),
		},
		RecommendedLoan: RecommendedLoan{
			MaxAmount:         r.Offer.MaxAmount,
			RecommendedAmount: r.Offer.RecommendedAmount,
			InterestRate:      r.Offer.InterestRate,
			MonthlyPayment:    r.Offer.MonthlyPayment,
			TotalRepayment:    r.Offer.TotalRepayment,
		},
		AffordabilityAnalysis: AffordabilityAnalysis{
			DisposableIncome:   r.Affordability.DisposableIncome,
			DebtToIncomeRatio:  r.Affordability.DebtToIncomeRatio,
			LoanToIncomeRatio:  r.Affordability.LoanToIncomeRatio,
			AffordabilityScore: string(r.Affordability.AffordabilityScore),
		},
	}
}

func RateCalculationResponseFrom(q domain.RateQuote) *RateCalculationResponse {
	schedule := make([]PaymentScheduleItem, 0, len(q.Schedule))
	for _, e := range q.Schedule {
		schedule = append(schedule, PaymentScheduleItem{
			Month:     e.Month,
			Payment:   e.Payment,
			Principal: e.PrincipalPortion,
			Interest:  e.InterestPortion,
			Balance:   e.RemainingBalance,
		})
	}

	return &RateCalculationResponse{
		LoanType:        q.LoanType,
		InterestRate:    q.InterestRate,
		MonthlyPayment:  q.MonthlyPayment,
		TotalInterest:   q.TotalInterest,
		TotalRepayment:  q.TotalRepayment,
		PaymentSchedule: schedule,
	}
}

func ProductResponseFrom(p domain.LoanProduct) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		MinAmount:   p.MinAmount,
		MaxAmount:   p.MaxAmount,
		MinTerm:     p.MinTerm,
		MaxTerm:     p.MaxTerm,
		InterestRateRange: InterestRateRange{
			Min: p.InterestRateRange.Min,
			Max: p.InterestRateRange.Max,
		},
		Purposes: p.Purposes,
	}
}

func ProductsResponseFrom(products []domain.LoanProduct) *ProductsResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, ProductResponseFrom(p))
	}
	return &ProductsResponse{Products: out}
}
