// Package catalog holds the read-only reference data served next to the
// decision engine: the loan products and the form validation rules.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/fazamuttaqien/loan-eligibility/internal/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var ErrProductNotFound = errors.New("loan product not found")

// FieldRule describes how one form field is validated.
type FieldRule struct {
	Min          *float64 `yaml:"min" json:"min,omitempty"`
	Max          *float64 `yaml:"max" json:"max,omitempty"`
	Required     bool     `yaml:"required" json:"required"`
	Options      []string `yaml:"options" json:"options,omitempty"`
	ErrorMessage string   `yaml:"errorMessage" json:"errorMessage"`
}

// ValidationRules is keyed by form section, then by field.
type ValidationRules map[string]map[string]FieldRule

type productEntry struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	MinAmount   float64 `yaml:"min_amount"`
	MaxAmount   float64 `yaml:"max_amount"`
	MinTerm     int     `yaml:"min_term"`
	MaxTerm     int     `yaml:"max_term"`
	RateRange   struct {
		Min float64 `yaml:"min"`
		Max float64 `yaml:"max"`
	} `yaml:"interest_rate_range"`
	Purposes      []string `yaml:"purposes"`
	AmountMessage string   `yaml:"amount_message"`
	TermMessage   string   `yaml:"term_message"`
}

func (e productEntry) toDomain() domain.LoanProduct {
	return domain.LoanProduct{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		MinAmount:   e.MinAmount,
		MaxAmount:   e.MaxAmount,
		MinTerm:     e.MinTerm,
		MaxTerm:     e.MaxTerm,
		InterestRateRange: domain.RateRange{
			Min: e.RateRange.Min,
			Max: e.RateRange.Max,
		},
		Purposes: append([]string(nil), e.Purposes...),
	}
}

type document struct {
	Products        []productEntry  `yaml:"products"`
	ValidationRules ValidationRules `yaml:"validation_rules"`
}

type Catalog struct {
	products []productEntry
	byID     map[string]int
	rules    ValidationRules
}

// Load parses the catalog compiled into the binary.
func Load() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Parse decodes a catalog document. Every product kind the engine can
// select must be present and every product must have coherent bounds.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{
		products: doc.Products,
		byID:     make(map[string]int, len(doc.Products)),
		rules:    doc.ValidationRules,
	}
	for i, p := range doc.Products {
		if p.ID == "" {
			return nil, fmt.Errorf("catalog product %d has no id", i)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog product %q", p.ID)
		}
		if p.MinAmount > p.MaxAmount || p.MinTerm > p.MaxTerm {
			return nil, fmt.Errorf("catalog product %q has inverted bounds", p.ID)
		}
		c.byID[p.ID] = i
	}
	for _, kind := range []domain.ProductKind{domain.PersonalLoan, domain.VehicleLoan} {
		if _, ok := c.byID[string(kind)]; !ok {
			return nil, fmt.Errorf("catalog is missing product %q", kind)
		}
	}

	return c, nil
}

func (c *Catalog) Products() []domain.LoanProduct {
	out := make([]domain.LoanProduct, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p.toDomain())
	}
	return out
}

func (c *Catalog) Product(id string) (domain.LoanProduct, error) {
	i, ok := c.byID[id]
	if !ok {
		return domain.LoanProduct{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return c.products[i].toDomain(), nil
}

// ProductForPurpose returns the product a loan purpose falls under.
func (c *Catalog) ProductForPurpose(purpose string) domain.LoanProduct {
	return c.products[c.byID[string(domain.KindForPurpose(purpose))]].toDomain()
}

// BoundMessages returns the applicant-facing messages for amount and term
// violations of the product a purpose falls under.
func (c *Catalog) BoundMessages(purpose string) (amount, term string) {
	e := c.products[c.byID[string(domain.KindForPurpose(purpose))]]
	return e.AmountMessage, e.TermMessage
}

func (c *Catalog) ValidationRules() ValidationRules {
	return c.rules
}
