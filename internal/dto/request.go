package dto

import "github.com/fazamuttaqien/loan-eligibility/internal/domain"

type PersonalInfo struct {
	Age                int    `json:"age" validate:"required,gte=18,lte=65"`
	EmploymentStatus   string `json:"employmentStatus" validate:"required,oneof=employed self_employed unemployed retired"`
	EmploymentDuration *int   `json:"employmentDuration" validate:"required,gte=3"`
}

type FinancialInfo struct {
	MonthlyIncome   float64  `json:"monthlyIncome" validate:"required,gte=5000"`
	MonthlyExpenses *float64 `json:"monthlyExpenses" validate:"required,gte=0"`
	ExistingDebt    *float64 `json:"existingDebt" validate:"required,gte=0"`
	CreditScore     *int     `json:"creditScore,omitempty" validate:"omitempty,gte=300,lte=850"`
}

// LoanDetails is additionally checked against the bounds of the product
// its purpose falls under.
type LoanDetails struct {
	RequestedAmount float64 `json:"requestedAmount" validate:"required,gt=0"`
	LoanTerm        int     `json:"loanTerm" validate:"required,gt=0"`
	LoanPurpose     string  `json:"loanPurpose" validate:"required"`
}

type EligibilityRequest struct {
	PersonalInfo  PersonalInfo  `json:"personalInfo"`
	FinancialInfo FinancialInfo `json:"financialInfo"`
	LoanDetails   LoanDetails   `json:"loanDetails"`
}

type RateCalculationRequest struct {
	LoanAmount  float64 `json:"loanAmount" validate:"required,gte=5000,lte=1500000"`
	LoanTerm    int     `json:"loanTerm" validate:"required,gte=6,lte=72"`
	CreditScore *int    `json:"creditScore,omitempty" validate:"omitempty,gte=300,lte=850"`
	LoanType    string  `json:"loanType" validate:"required"`
}

// --- Mapping --- //

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}

func (r EligibilityRequest) ToDomain() (domain.PersonalProfile, domain.FinancialProfile, domain.LoanRequest) {
	return domain.PersonalProfile{
			Age:                      r.PersonalInfo.Age,
			EmploymentStatus:         domain.EmploymentStatus(r.PersonalInfo.EmploymentStatus),
			EmploymentDurationMonths: deref(r.PersonalInfo.EmploymentDuration),
		}, domain.FinancialProfile{
			MonthlyIncome:       r.FinancialInfo.MonthlyIncome,
			MonthlyExpenses:     deref(r.FinancialInfo.MonthlyExpenses),
			ExistingMonthlyDebt: deref(r.FinancialInfo.ExistingDebt),
			CreditScore:         domain.ScoreFromPtr(r.FinancialInfo.CreditScore),
		}, domain.LoanRequest{
			RequestedAmount: r.LoanDetails.RequestedAmount,
			TermMonths:      r.LoanDetails.LoanTerm,
			Purpose:         r.LoanDetails.LoanPurpose,
		}
}

func (r RateCalculationRequest) Score() domain.CreditScore {
	return domain.ScoreFromPtr(r.CreditScore)
}
