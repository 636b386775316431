package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fazamuttaqien/loan-eligibility/internal/catalog"
	"github.com/fazamuttaqien/loan-eligibility/internal/domain"
)

func TestLoad_DefaultCatalog(t *testing.T) {
	cat, err := catalog.Load()
	require.NoError(t, err)

	products := cat.Products()
	require.Len(t, products, 2)

	personal, err := cat.Product("personal_loan")
	require.NoError(t, err)
	assert.Equal(t, "Personal Loan", personal.Name)
	assert.Equal(t, 5000.0, personal.MinAmount)
	assert.Equal(t, 300000.0, personal.MaxAmount)
	assert.Equal(t, 6, personal.MinTerm)
	assert.Equal(t, 60, personal.MaxTerm)
	assert.Equal(t, domain.RateRange{Min: 10.5, Max: 18.5}, personal.InterestRateRange)
	assert.Contains(t, personal.Purposes, "home_improvement")

	vehicle, err := cat.Product("vehicle_loan")
	require.NoError(t, err)
	assert.Equal(t, 50000.0, vehicle.MinAmount)
	assert.Equal(t, 1500000.0, vehicle.MaxAmount)
	assert.Equal(t, 12, vehicle.MinTerm)
	assert.Equal(t, 72, vehicle.MaxTerm)
	assert.ElementsMatch(t, []string{"new_vehicle", "used_vehicle"}, vehicle.Purposes)
}

func TestProduct_NotFound(t *testing.T) {
	cat, err := catalog.Load()
	require.NoError(t, err)

	_, err = cat.Product("mortgage")
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestProductForPurpose(t *testing.T) {
	cat, err := catalog.Load()
	require.NoError(t, err)

	assert.Equal(t, "vehicle_loan", cat.ProductForPurpose("new_vehicle").ID)
	assert.Equal(t, "vehicle_loan", cat.ProductForPurpose("commercial_vehicle_fleet").ID)
	assert.Equal(t, "personal_loan", cat.ProductForPurpose("education").ID)
	assert.Equal(t, "personal_loan", cat.ProductForPurpose("").ID)

	amount, term := cat.BoundMessages("used_vehicle")
	assert.Contains(t, amount, "R50,000")
	assert.Contains(t, term, "12 and 72")
}

func TestValidationRules(t *testing.T) {
	cat, err := catalog.Load()
	require.NoError(t, err)

	rules := cat.ValidationRules()
	require.Contains(t, rules, "personalInfo")
	require.Contains(t, rules, "financialInfo")
	require.Contains(t, rules, "loanDetails")

	age := rules["personalInfo"]["age"]
	require.NotNil(t, age.Min)
	assert.Equal(t, 18.0, *age.Min)
	assert.Equal(t, 65.0, *age.Max)
	assert.True(t, age.Required)

	expenses := rules["financialInfo"]["monthlyExpenses"]
	require.NotNil(t, expenses.Min)
	assert.Equal(t, 0.0, *expenses.Min)
	assert.Nil(t, expenses.Max)

	assert.False(t, rules["financialInfo"]["creditScore"].Required)
	assert.Len(t, rules["personalInfo"]["employmentStatus"].Options, 4)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed yaml", "products: [:"},
		{"missing vehicle product", `
products:
  - id: personal_loan
    min_amount: 1
    max_amount: 2
    min_term: 1
    max_term: 2
`},
		{"duplicate id", `
products:
  - id: personal_loan
  - id: personal_loan
  - id: vehicle_loan
`},
		{"inverted bounds", `
products:
  - id: personal_loan
    min_amount: 10
    max_amount: 1
  - id: vehicle_loan
`},
		{"empty id", `
products:
  - name: nameless
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}
