package transaction

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/group-expenses/internal"
	"github.com/frahmantamala/group-expenses/internal/activity"
	"github.com/frahmantamala/group-expenses/internal/auth"
	"github.com/frahmantamala/group-expenses/internal/currency"
	"github.com/frahmantamala/group-expenses/internal/group"
	"github.com/frahmantamala/group-expenses/internal/pagination"
	"github.com/shopspring/decimal"
)

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type ActivityRecorder interface {
	Record(ctx context.Context, entry activity.Entry) (*activity.Activity, error)
}

// Ledger keeps the money side of a group: payouts, fundings and the balance.
type Ledger struct {
	repo       Repository
	converter  *currency.Converter
	transactor Transactor
	activities ActivityRecorder
	logger     *slog.Logger
}

func NewLedger(repo Repository, converter *currency.Converter, transactor Transactor, activities ActivityRecorder, logger *slog.Logger) *Ledger {
	return &Ledger{
		repo:       repo,
		converter:  converter,
		transactor: transactor,
		activities: activities,
		logger:     logger,
	}
}

// PreparePayout builds the REIMBURSED transaction of a paid expense without
// storing it. Every check that can refuse a payout happens here, so callers
// can run it before any money moves.
func (l *Ledger) PreparePayout(entry PayoutEntry) (*Transaction, error) {
	net, err := l.converter.ConvertMinor(entry.Amount, entry.Currency, entry.GroupCurrency)
	if err != nil {
		return nil, internal.NewBadRequestError("Cannot convert " + entry.Currency + " to " + entry.GroupCurrency + ".").WithCause(err)
	}

	expenseID := entry.ExpenseID
	return &Transaction{
		GroupID:                  entry.GroupID,
		UserID:                   entry.PayeeID,
		ExpenseID:                &expenseID,
		PaymentMethodID:          entry.PaymentMethodID,
		Amount:                   decimal.New(-entry.Amount, -2),
		Currency:                 entry.Currency,
		NetAmountInGroupCurrency: -net,
		Status:                   StatusReimbursed,
		Description:              entry.Description,
	}, nil
}

// SavePayout stores a transaction built by PreparePayout. It runs in the
// caller's unit of work.
func (l *Ledger) SavePayout(ctx context.Context, t *Transaction) error {
	if err := l.repo.Create(ctx, t); err != nil {
		return err
	}

	l.logger.Info("payout recorded",
		"transaction_id", t.ID,
		"group_id", t.GroupID,
		"expense_id", t.ExpenseID,
		"net_amount", t.NetAmountInGroupCurrency)
	return nil
}

// Balance is the sum of all net amounts of the group, in minor units.
func (l *Ledger) Balance(ctx context.Context, groupID int64) (int64, error) {
	return l.repo.SumNetByGroup(ctx, groupID)
}

func (l *Ledger) List(ctx context.Context, groupID int64, p pagination.Params) ([]*Transaction, int64, error) {
	return l.repo.ListByGroup(ctx, groupID, p)
}

// Fund adds money to the group's balance. Only the host may fund.
func (l *Ledger) Fund(ctx context.Context, actor auth.Actor, g *group.Group, req FundRequest) (*Transaction, error) {
	if !actor.Authenticated() {
		return nil, internal.ErrUnauthorized
	}
	if !auth.Can(auth.ActionFund, actor, g) {
		return nil, internal.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cur := req.Transaction.Currency
	if cur == "" {
		cur = g.Currency
	}
	amount := req.Transaction.Amount.Round(2)
	net, err := l.converter.ConvertMinor(currency.ToMinor(amount), cur, g.Currency)
	if err != nil {
		if errors.Is(err, currency.ErrUnknownCurrency) {
			return nil, internal.NewValidationFieldError("currency", "Unsupported currency "+cur)
		}
		return nil, err
	}

	t := &Transaction{
		GroupID:                  g.ID,
		UserID:                   actor.UserID(),
		Amount:                   amount,
		Currency:                 cur,
		NetAmountInGroupCurrency: net,
		Status:                   StatusFunded,
		Description:              req.Transaction.Description,
	}

	err = l.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := l.repo.Create(ctx, t); err != nil {
			return err
		}
		_, err := l.activities.Record(ctx, activity.Entry{
			Type:          activity.TypeTransactionCreated,
			UserID:        actor.UserID(),
			GroupID:       &g.ID,
			TransactionID: &t.ID,
			Data: map[string]interface{}{
				"user":        activity.UserData(actor.User),
				"group":       g,
				"transaction": t,
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("group funded", "transaction_id", t.ID, "group_id", g.ID, "net_amount", net)
	return t, nil
}
