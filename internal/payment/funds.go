package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/group-expenses/internal"
	"github.com/frahmantamala/group-expenses/internal/currency"
	"github.com/frahmantamala/group-expenses/internal/paymentmethod"
)

// ApprovalCheck describes an expense about to be approved. Amount is in minor units of Currency.
type ApprovalCheck struct {
	HostID       int64
	PayoutMethod Method
	Amount       int64
	Currency     string
}

// FundsChecker verifies that the host's preapproval can still cover an expense.
type FundsChecker struct {
	gateway   Gateway
	methods   PaymentMethods
	converter *currency.Converter
	logger    *slog.Logger
}

func NewFundsChecker(gateway Gateway, methods PaymentMethods, converter *currency.Converter, logger *slog.Logger) *FundsChecker {
	return &FundsChecker{
		gateway:   gateway,
		methods:   methods,
		converter: converter,
		logger:    logger,
	}
}

// CheckApproval only applies to PayPal payouts, which a host without a PayPal
// preapproval can never fund.
func (f *FundsChecker) CheckApproval(ctx context.Context, check ApprovalCheck) error {
	if !check.PayoutMethod.IsExternal() {
		return nil
	}

	hostMethod, err := f.methods.LatestForUser(ctx, check.HostID, paymentmethod.ServicePaypal, false)
	if err != nil {
		if errors.Is(err, paymentmethod.ErrPaymentMethodNotFound) {
			f.logger.Info("funds check failed: host has no paypal payment method", "host_id", check.HostID)
			return ErrNoHostPreapproval
		}
		return err
	}

	details, err := f.gateway.PreapprovalDetails(ctx, hostMethod.Token)
	if err != nil {
		return gatewayError(err)
	}

	remaining, err := details.RemainingFunds()
	if err != nil {
		return internal.NewInternalError("Unreadable preapproval details", err)
	}

	fundsCurrency := details.CurrencyCode
	if fundsCurrency == "" {
		fundsCurrency = check.Currency
	}
	needed, err := f.converter.Convert(currency.FromMinor(check.Amount), check.Currency, fundsCurrency)
	if err != nil {
		return internal.NewBadRequestError(fmt.Sprintf("Cannot convert %s to %s.", check.Currency, fundsCurrency)).WithCause(err)
	}

	if remaining.LessThan(needed) {
		f.logger.Info("funds check failed",
			"host_id", check.HostID,
			"remaining", remaining.String(),
			"needed", needed.String(),
			"currency", fundsCurrency)
		return internal.NewBadRequestError(fmt.Sprintf("Not enough funds (%s %s left) to approve transaction.", remaining.String(), fundsCurrency))
	}
	return nil
}
