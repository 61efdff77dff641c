package transaction

import (
	"context"
	"time"

	"github.com/frahmantamala/group-expenses/internal"
	transactionDatamodel "github.com/frahmantamala/group-expenses/internal/core/datamodel/transaction"
	"github.com/frahmantamala/group-expenses/internal/pagination"
	"github.com/shopspring/decimal"
)

const (
	StatusReimbursed = "REIMBURSED"
	StatusFunded     = "FUNDED"
)

// Transaction is a ledger entry of a group. Amount is in major units of
// Currency and negative for payouts; NetAmountInGroupCurrency is in minor
// units of the group currency and carries the same sign.
type Transaction struct {
	ID                       int64           `json:"id"`
	GroupID                  int64           `json:"GroupId"`
	UserID                   *int64          `json:"UserId"`
	ExpenseID                *int64          `json:"ExpenseId"`
	PaymentMethodID          *int64          `json:"PaymentMethodId"`
	Amount                   decimal.Decimal `json:"amount"`
	Currency                 string          `json:"currency"`
	NetAmountInGroupCurrency int64           `json:"netAmountInGroupCurrency"`
	Status                   string          `json:"status"`
	Description              string          `json:"description"`
	CreatedAt                time.Time       `json:"createdAt"`
}

func (t *Transaction) OwningGroupID() int64 {
	return t.GroupID
}

var ErrAlreadyPaid = internal.NewBadRequestError("This expense has already been paid.")

type Repository interface {
	Create(ctx context.Context, t *Transaction) error
	ListByGroup(ctx context.Context, groupID int64, p pagination.Params) ([]*Transaction, int64, error)
	// SumNetByGroup is the group balance in minor units of the group currency.
	SumNetByGroup(ctx context.Context, groupID int64) (int64, error)
}

func ToDataModel(t *Transaction) *transactionDatamodel.Transaction {
	return &transactionDatamodel.Transaction{
		ID:                       t.ID,
		GroupID:                  t.GroupID,
		UserID:                   t.UserID,
		ExpenseID:                t.ExpenseID,
		PaymentMethodID:          t.PaymentMethodID,
		Amount:                   t.Amount,
		Currency:                 t.Currency,
		NetAmountInGroupCurrency: t.NetAmountInGroupCurrency,
		Status:                   t.Status,
		Description:              t.Description,
		CreatedAt:                t.CreatedAt,
	}
}

func FromDataModel(t *transactionDatamodel.Transaction) *Transaction {
	return &Transaction{
		ID:                       t.ID,
		GroupID:                  t.GroupID,
		UserID:                   t.UserID,
		ExpenseID:                t.ExpenseID,
		PaymentMethodID:          t.PaymentMethodID,
		Amount:                   t.Amount,
		Currency:                 t.Currency,
		NetAmountInGroupCurrency: t.NetAmountInGroupCurrency,
		Status:                   t.Status,
		Description:              t.Description,
		CreatedAt:                t.CreatedAt,
	}
}
