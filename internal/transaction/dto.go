package transaction

import (
	"github.com/frahmantamala/group-expenses/internal"
	"github.com/frahmantamala/group-expenses/internal/core/common/validation"
	"github.com/shopspring/decimal"
)

type FundRequest struct {
	Transaction *FundDTO `json:"transaction"`
}

// FundDTO amounts are in major units; Currency defaults to the group currency.
type FundDTO struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
}

func (r FundRequest) Validate() *internal.AppError {
	if r.Transaction == nil {
		return internal.NewMissingRequiredError("transaction")
	}

	v := validation.NewValidator()
	v.Field("amount", r.Transaction.Amount).PositiveDecimal()
	v.Field("currency", r.Transaction.Currency).CurrencyCode()
	v.Field("description", r.Transaction.Description).MaxLength(255)
	return v.Validate()
}

// PayoutEntry describes the ledger side of paying an expense. Amount is in
// minor units of Currency.
type PayoutEntry struct {
	GroupID         int64
	GroupCurrency   string
	PayeeID         *int64
	ExpenseID       int64
	PaymentMethodID *int64
	Amount          int64
	Currency        string
	Description     string
}
