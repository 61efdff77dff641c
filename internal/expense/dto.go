package expense

import (
	"fmt"

	"github.com/frahmantamala/group-expenses/internal"
	"github.com/frahmantamala/group-expenses/internal/core/common/validation"
	"github.com/frahmantamala/group-expenses/internal/payment"
)

// ExpenseRequest is the body of create and update calls.
type ExpenseRequest struct {
	Expense *ExpenseDTO `json:"expense"`
}

// ExpenseDTO fields are optional so that updates can be partial. Amount is
// in minor units.
type ExpenseDTO struct {
	Title        *string `json:"title"`
	Notes        *string `json:"notes"`
	Category     *string `json:"category"`
	Amount       *int64  `json:"amount"`
	Currency     *string `json:"currency"`
	PayoutMethod *string `json:"payoutMethod"`
}

func (r ExpenseRequest) Validate() *internal.AppError {
	if r.Expense == nil {
		return internal.NewMissingRequiredError("expense")
	}
	return nil
}

func (d ExpenseDTO) apply(e *Expense) {
	if d.Title != nil {
		e.Title = *d.Title
	}
	if d.Notes != nil {
		e.Notes = *d.Notes
	}
	if d.Category != nil {
		e.Category = *d.Category
	}
	if d.Amount != nil {
		e.Amount = *d.Amount
	}
	if d.Currency != nil {
		e.Currency = *d.Currency
	}
	if d.PayoutMethod != nil {
		e.PayoutMethod = payment.Method(*d.PayoutMethod)
	}
}

// validate checks a complete expense, so create and update share the rules.
// The currency must have a rate, otherwise the payout could never be booked
// in the group currency.
func validate(e *Expense, currencies Currencies) *internal.AppError {
	v := validation.NewValidator()
	v.Field("title", e.Title).Required().MaxLength(255)
	v.Field("amount", e.Amount).MinInt(1)
	v.Field("currency", e.Currency).Required().CurrencyCode().Custom(func(value interface{}) string {
		if code, _ := value.(string); !currencies.Supports(code) {
			return fmt.Sprintf("Unsupported currency %s", code)
		}
		return ""
	})
	v.Field("payoutMethod", string(e.PayoutMethod)).OneOf("Must be paypal, manual or other", payment.Methods...)
	v.Field("category", e.Category).MaxLength(255)
	return v.Validate()
}

type ApproveRequest struct {
	Approved *bool `json:"approved"`
}

func (r ApproveRequest) Validate() *internal.AppError {
	if r.Approved == nil {
		return internal.NewMissingRequiredError("approved")
	}
	return nil
}
