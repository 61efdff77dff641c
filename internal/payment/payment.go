// Package payment decides whether an expense may be approved against the
// host's PayPal preapproval and carries out the payout once it is.
package payment

import (
	"context"
	"errors"

	"github.com/frahmantamala/group-expenses/internal"
	"github.com/frahmantamala/group-expenses/internal/paymentgateway"
	"github.com/frahmantamala/group-expenses/internal/paymentmethod"
	"github.com/frahmantamala/group-expenses/internal/transaction"
)

type Method string

const (
	MethodPaypal Method = "paypal"
	MethodManual Method = "manual"
	MethodOther  Method = "other"
)

var Methods = []string{string(MethodPaypal), string(MethodManual), string(MethodOther)}

// IsExternal reports whether paying with m moves money through a gateway.
func (m Method) IsExternal() bool {
	return m == MethodPaypal
}

type Gateway interface {
	PreapprovalDetails(ctx context.Context, preapprovalKey string) (*paymentgateway.PreapprovalDetails, error)
	Pay(ctx context.Context, req *paymentgateway.PayRequest) (*paymentgateway.PayResponse, error)
}

type PaymentMethods interface {
	LatestForUser(ctx context.Context, userID int64, service string, confirmedOnly bool) (*paymentmethod.PaymentMethod, error)
}

type Ledger interface {
	PreparePayout(entry transaction.PayoutEntry) (*transaction.Transaction, error)
	SavePayout(ctx context.Context, t *transaction.Transaction) error
	Balance(ctx context.Context, groupID int64) (int64, error)
}

var (
	ErrNoPayeeMethod     = internal.NewBadRequestError("This user has no confirmed paymentMethod linked with this service.")
	ErrNoHostPreapproval = internal.NewBadRequestError("The group host has no paypal preapproval to fund this payout.")
)

// gatewayError turns a gateway failure into the error returned to the caller.
// PayPal rejections are the caller's problem; transport failures are ours.
func gatewayError(err error) error {
	var gwErr *paymentgateway.Error
	if errors.As(err, &gwErr) {
		return internal.NewBadRequestError(gwErr.Message).WithCause(err)
	}
	return internal.NewInternalError("Payment service unavailable", err)
}
