package validation

import (
	"fmt"
	"regexp"
	"strings"

	errors "github.com/frahmantamala/group-expenses/internal"
	"github.com/shopspring/decimal"
)

// ValidatorFunc returns the failure message for a value, or "" when it passes.
type ValidatorFunc func(interface{}) string

type FieldValidator struct {
	FieldName  string
	Value      interface{}
	Validators []ValidatorFunc
}

type ValidationBuilder struct {
	fields []*FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{
		fields: make([]*FieldValidator, 0),
	}
}

func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := &FieldValidator{
		FieldName:  name,
		Value:      value,
		Validators: make([]ValidatorFunc, 0),
	}
	v.fields = append(v.fields, fv)
	return fv
}

func (fv *FieldValidator) Required() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) string {
		message := fmt.Sprintf("%s is required", fv.FieldName)
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) == "" {
				return message
			}
		case *string:
			if v == nil || strings.TrimSpace(*v) == "" {
				return message
			}
		case *int64:
			if v == nil {
				return message
			}
		case nil:
			return message
		}
		return ""
	})
	return fv
}

// MinInt mirrors the wording callers already rely on: "Validation min failed".
func (fv *FieldValidator) MinInt(min int64) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) string {
		if v, ok := value.(int64); ok && v < min {
			return "Validation min failed"
		}
		return ""
	})
	return fv
}

func (fv *FieldValidator) PositiveDecimal() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) string {
		if v, ok := value.(decimal.Decimal); ok && !v.IsPositive() {
			return "Validation min failed"
		}
		return ""
	})
	return fv
}

func (fv *FieldValidator) MaxLength(max int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) string {
		if v, ok := value.(string); ok && len(v) > max {
			return fmt.Sprintf("%s must not exceed %d characters", fv.FieldName, max)
		}
		return ""
	})
	return fv
}

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

func (fv *FieldValidator) CurrencyCode() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) string {
		if v, ok := value.(string); ok && v != "" && !currencyCode.MatchString(v) {
			return fmt.Sprintf("%s must be a 3 letter ISO currency code", fv.FieldName)
		}
		return ""
	})
	return fv
}

// OneOf fails with message unless the value is one of allowed.
func (fv *FieldValidator) OneOf(message string, allowed ...string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) string {
		v, ok := value.(string)
		if !ok {
			return ""
		}
		for _, a := range allowed {
			if v == a {
				return ""
			}
		}
		return message
	})
	return fv
}

func (fv *FieldValidator) Custom(validator ValidatorFunc) *FieldValidator {
	fv.Validators = append(fv.Validators, validator)
	return fv
}

// Validate runs every field and reports all failures at once. A field stops at its first failing rule.
func (v *ValidationBuilder) Validate() *errors.AppError {
	var validationErrors []errors.ValidationError

	for _, field := range v.fields {
		for _, validator := range field.Validators {
			if message := validator(field.Value); message != "" {
				validationErrors = append(validationErrors, errors.ValidationError{
					Field:   field.FieldName,
					Message: message,
				})
				break
			}
		}
	}

	if len(validationErrors) > 0 {
		return errors.NewValidationError(validationErrors...)
	}

	return nil
}
