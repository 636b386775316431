// Package validation checks inbound requests before they reach the
// decision engine and turns failures into per-field messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/fazamuttaqien/loan-eligibility/internal/catalog"
	"github.com/fazamuttaqien/loan-eligibility/internal/dto"
)

const (
	tagProductAmount = "product_amount"
	tagProductTerm   = "product_term"
)

// Error maps a dotted field path (e.g. "personalInfo.age") to a message.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
	catalog  *catalog.Catalog
}

func New(cat *catalog.Catalog) *Validator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	english := en.New()
	trans, _ := ut.New(english, english).GetTranslator("en")
	if err := entranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		panic(fmt.Sprintf("register validator translations: %v", err))
	}

	v := &Validator{
		validate: validate,
		trans:    trans,
		catalog:  cat,
	}
	validate.RegisterStructValidation(v.productBounds, dto.LoanDetails{})

	return v
}

// productBounds applies the amount and term limits of the product the
// purpose belongs to. Non-positive values are left to the field rules.
func (v *Validator) productBounds(sl validator.StructLevel) {
	d, ok := sl.Current().Interface().(dto.LoanDetails)
	if !ok || d.LoanPurpose == "" {
		return
	}

	p := v.catalog.ProductForPurpose(d.LoanPurpose)
	if d.RequestedAmount > 0 && !p.AllowsAmount(d.RequestedAmount) {
		sl.ReportError(d.RequestedAmount, "requestedAmount", "RequestedAmount", tagProductAmount, d.LoanPurpose)
	}
	if d.LoanTerm > 0 && !p.AllowsTerm(d.LoanTerm) {
		sl.ReportError(d.LoanTerm, "loanTerm", "LoanTerm", tagProductTerm, d.LoanPurpose)
	}
}

// Struct validates s and returns *Error for rule violations. Any other
// error means s could not be validated at all.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := &Error{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		path := fieldPath(fe.Namespace())
		if _, seen := out.Fields[path]; seen {
			continue
		}
		out.Fields[path] = v.message(path, fe)
	}
	return out
}

func (v *Validator) message(path string, fe validator.FieldError) string {
	switch fe.Tag() {
	case tagProductAmount:
		amount, _ := v.catalog.BoundMessages(fe.Param())
		return amount
	case tagProductTerm:
		_, term := v.catalog.BoundMessages(fe.Param())
		return term
	}

	if section, field, ok := strings.Cut(path, "."); ok {
		if rule, ok := v.catalog.ValidationRules()[section][field]; ok && rule.ErrorMessage != "" {
			return rule.ErrorMessage
		}
	}
	return fe.Translate(v.trans)
}

// fieldPath drops the top-level struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
