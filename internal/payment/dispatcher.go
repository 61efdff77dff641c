package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/group-expenses/internal"
	"github.com/frahmantamala/group-expenses/internal/core/metrics"
	"github.com/frahmantamala/group-expenses/internal/currency"
	"github.com/frahmantamala/group-expenses/internal/paymentgateway"
	"github.com/frahmantamala/group-expenses/internal/paymentmethod"
	"github.com/frahmantamala/group-expenses/internal/transaction"
)

// Payout is an approved expense about to be paid. Amount is in minor units of Currency.
type Payout struct {
	ExpenseID     int64
	Title         string
	GroupID       int64
	GroupCurrency string
	HostID        int64
	PayeeID       *int64
	Amount        int64
	Currency      string
	Method        Method
}

// Receipt is the outcome of a payout. GatewayResponse is empty for manual payouts.
type Receipt struct {
	Transaction     *transaction.Transaction
	GatewayResponse json.RawMessage
}

type DispatcherConfig struct {
	// EnforceManualBalance rejects manual payouts the group balance cannot cover.
	EnforceManualBalance bool
}

type Dispatcher struct {
	gateway Gateway
	methods PaymentMethods
	ledger  Ledger
	config  DispatcherConfig
	logger  *slog.Logger
}

func NewDispatcher(gateway Gateway, methods PaymentMethods, ledger Ledger, config DispatcherConfig, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		gateway: gateway,
		methods: methods,
		ledger:  ledger,
		config:  config,
		logger:  logger,
	}
}

// Pay moves the money for p and records it in the ledger. It must run inside
// the unit of work that marks the expense PAID: a failure here rolls that back.
// Every local check runs before the gateway is called, so once PayPal has
// been paid only a storage failure can undo the payout.
func (d *Dispatcher) Pay(ctx context.Context, p Payout) (*Receipt, error) {
	receipt, err := d.pay(ctx, p)
	if err != nil {
		metrics.Payouts.WithLabelValues(string(p.Method), "failed").Inc()
		return nil, err
	}
	metrics.Payouts.WithLabelValues(string(p.Method), "paid").Inc()
	return receipt, nil
}

func (d *Dispatcher) pay(ctx context.Context, p Payout) (*Receipt, error) {
	t, err := d.ledger.PreparePayout(transaction.PayoutEntry{
		GroupID:       p.GroupID,
		GroupCurrency: p.GroupCurrency,
		PayeeID:       p.PayeeID,
		ExpenseID:     p.ExpenseID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Description:   p.Title,
	})
	if err != nil {
		return nil, err
	}

	var receipt Receipt
	if p.Method == MethodPaypal {
		t.PaymentMethodID, receipt.GatewayResponse, err = d.payWithPaypal(ctx, p)
	} else {
		err = d.checkManualBalance(ctx, p, -t.NetAmountInGroupCurrency)
	}
	if err != nil {
		return nil, err
	}

	if err := d.ledger.SavePayout(ctx, t); err != nil {
		if len(receipt.GatewayResponse) > 0 {
			d.logger.Error("paypal payout sent but not recorded",
				"expense_id", p.ExpenseID,
				"gateway_response", string(receipt.GatewayResponse),
				"error", err)
		}
		return nil, err
	}

	receipt.Transaction = t
	return &receipt, nil
}

// payWithPaypal resolves both payment methods before calling the gateway.
func (d *Dispatcher) payWithPaypal(ctx context.Context, p Payout) (*int64, json.RawMessage, error) {
	if p.PayeeID == nil {
		return nil, nil, ErrNoPayeeMethod
	}

	payeeMethod, err := d.methods.LatestForUser(ctx, *p.PayeeID, paymentmethod.ServicePaypal, true)
	if err != nil {
		if errors.Is(err, paymentmethod.ErrPaymentMethodNotFound) {
			return nil, nil, ErrNoPayeeMethod
		}
		return nil, nil, err
	}

	hostMethod, err := d.methods.LatestForUser(ctx, p.HostID, paymentmethod.ServicePaypal, false)
	if err != nil {
		if errors.Is(err, paymentmethod.ErrPaymentMethodNotFound) {
			return nil, nil, ErrNoHostPreapproval
		}
		return nil, nil, err
	}

	resp, err := d.gateway.Pay(ctx, &paymentgateway.PayRequest{
		ReceiverEmail:  payeeMethod.Token,
		Amount:         currency.FromMinor(p.Amount).StringFixed(2),
		CurrencyCode:   p.Currency,
		PreapprovalKey: hostMethod.Token,
		Memo:           "Reimbursement: " + p.Title,
		TrackingID:     fmt.Sprintf("expense-%d", p.ExpenseID),
	})
	if err != nil {
		d.logger.Warn("paypal payout failed", "expense_id", p.ExpenseID, "error", err)
		return nil, nil, gatewayError(err)
	}

	d.logger.Info("paypal payout sent", "expense_id", p.ExpenseID, "pay_key", resp.PayKey)
	return &payeeMethod.ID, resp.Raw, nil
}

// checkManualBalance compares needed, already in minor units of the group
// currency, with the group balance.
func (d *Dispatcher) checkManualBalance(ctx context.Context, p Payout, needed int64) error {
	if !d.config.EnforceManualBalance {
		return nil
	}

	balance, err := d.ledger.Balance(ctx, p.GroupID)
	if err != nil {
		return err
	}
	if balance < needed {
		return internal.NewBadRequestError(fmt.Sprintf("Not enough funds (%s %s left) to pay expense.",
			currency.FromMinor(balance).String(), p.GroupCurrency))
	}
	return nil
}
