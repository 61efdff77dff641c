package expense

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/group-expenses/internal"
	"github.com/frahmantamala/group-expenses/internal/activity"
	"github.com/frahmantamala/group-expenses/internal/auth"
	"github.com/frahmantamala/group-expenses/internal/core/metrics"
	"github.com/frahmantamala/group-expenses/internal/group"
	"github.com/frahmantamala/group-expenses/internal/pagination"
	"github.com/frahmantamala/group-expenses/internal/payment"
	"github.com/frahmantamala/group-expenses/internal/transaction"
	"github.com/frahmantamala/group-expenses/internal/user"
)

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type ActivityRecorder interface {
	Record(ctx context.Context, entry activity.Entry) (*activity.Activity, error)
}

// GroupHosts resolves the host whose preapproval backs a group's paypal payouts.
type GroupHosts interface {
	HostID(ctx context.Context, groupID int64) (int64, error)
}

type Users interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// FundsChecker is satisfied by *payment.FundsChecker.
type FundsChecker interface {
	CheckApproval(ctx context.Context, check payment.ApprovalCheck) error
}

// Payer is satisfied by *payment.Dispatcher.
type Payer interface {
	Pay(ctx context.Context, p payment.Payout) (*payment.Receipt, error)
}

// Currencies is satisfied by *currency.Converter.
type Currencies interface {
	Supports(code string) bool
}

var ErrConcurrentChange = internal.NewBadRequestError("Expense was changed by another request, please retry.")

// Service runs the expense lifecycle. Every mutation reads the expense,
// checks its preconditions and writes it back with a version guard, so two
// requests racing on one expense cannot both succeed.
type Service struct {
	repo       Repository
	groups     GroupHosts
	users      Users
	transactor Transactor
	funds      FundsChecker
	payer      Payer
	currencies Currencies
	activities ActivityRecorder
	logger     *slog.Logger
}

func NewService(repo Repository, groups GroupHosts, users Users, transactor Transactor, funds FundsChecker, payer Payer, currencies Currencies, activities ActivityRecorder, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		groups:     groups,
		users:      users,
		transactor: transactor,
		funds:      funds,
		payer:      payer,
		currencies: currencies,
		activities: activities,
		logger:     logger,
	}
}

// Create submits a PENDING expense. Anonymous callers may submit.
func (s *Service) Create(ctx context.Context, actor auth.Actor, g *group.Group, req ExpenseRequest) (*Expense, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	e := NewExpense(g.ID, actor.UserID(), *req.Expense)
	if err := validate(e, s.currencies); err != nil {
		return nil, err
	}

	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, e); err != nil {
			return err
		}
		return s.record(ctx, activity.TypeExpenseCreated, g, e, activity.UserData(actor.User))
	})
	if err != nil {
		s.logger.Error("failed to create expense", "error", err, "group_id", g.ID)
		return nil, err
	}

	metrics.ExpenseTransitions.WithLabelValues(string(StatusPending)).Inc()
	s.logger.Info("expense created",
		"expense_id", e.ID,
		"group_id", g.ID,
		"amount", e.Amount,
		"currency", e.Currency,
		"payout_method", e.PayoutMethod)
	return e, nil
}

func (s *Service) Get(ctx context.Context, g *group.Group, id int64) (*Expense, error) {
	return s.load(ctx, g, id)
}

func (s *Service) List(ctx context.Context, g *group.Group, p pagination.Params) ([]*Expense, int64, error) {
	return s.repo.ListByGroup(ctx, g.ID, p)
}

// Update applies a partial patch. Paid expenses are frozen, and an approved
// expense whose amount, currency or payout method changes goes back to PENDING.
func (s *Service) Update(ctx context.Context, actor auth.Actor, g *group.Group, id int64, req ExpenseRequest) (*Expense, error) {
	if !actor.Authenticated() {
		return nil, internal.ErrUnauthorized
	}
	e, err := s.load(ctx, g, id)
	if err != nil {
		return nil, err
	}
	if !auth.Can(auth.ActionUpdate, actor, e) {
		return nil, internal.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if e.IsPaid() {
		return nil, ErrExpensePaid
	}

	before := *e
	req.Expense.apply(e)
	if err := validate(e, s.currencies); err != nil {
		return nil, err
	}
	e.LastEditedByID = actor.UserID()

	// An approval covers one amount paid one way; changing either needs a new review.
	reset := e.Status == StatusApproved &&
		(e.Amount != before.Amount || e.Currency != before.Currency || e.PayoutMethod != before.PayoutMethod)
	if reset {
		e.Status = StatusPending
	}

	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, e); err != nil {
			return conflictAs(err, ErrConcurrentChange)
		}
		return s.recordWithSubmitter(ctx, activity.TypeExpenseUpdated, g, e)
	})
	if err != nil {
		return nil, err
	}

	if reset {
		metrics.ExpenseTransitions.WithLabelValues(string(StatusPending)).Inc()
	}
	s.logger.Info("expense updated", "expense_id", e.ID, "group_id", g.ID, "editor_id", actor.User.ID, "status", e.Status)
	return e, nil
}

// Delete removes an unpaid expense. An expense of another group is
// forbidden rather than missing, matching the host-only policy.
func (s *Service) Delete(ctx context.Context, actor auth.Actor, g *group.Group, id int64) error {
	if !actor.Authenticated() {
		return internal.ErrUnauthorized
	}
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !auth.Can(auth.ActionDelete, actor, e) {
		return internal.ErrForbidden
	}
	if e.IsPaid() {
		return ErrExpensePaid
	}

	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, e); err != nil {
			return conflictAs(err, ErrConcurrentChange)
		}
		return s.recordWithSubmitter(ctx, activity.TypeExpenseDeleted, g, e)
	})
	if err != nil {
		return err
	}

	s.logger.Info("expense deleted", "expense_id", e.ID, "group_id", g.ID, "host_id", actor.User.ID)
	return nil
}

// Approve moves a PENDING expense to APPROVED or REJECTED. Approving a
// paypal expense first checks the host's preapproval can cover it.
func (s *Service) Approve(ctx context.Context, actor auth.Actor, g *group.Group, id int64, req ApproveRequest) (*Expense, error) {
	if !actor.Authenticated() {
		return nil, internal.ErrUnauthorized
	}
	e, err := s.load(ctx, g, id)
	if err != nil {
		return nil, err
	}
	if !auth.Can(auth.ActionApprove, actor, e) {
		return nil, internal.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	target := StatusRejected
	if *req.Approved {
		target = StatusApproved
	}
	if !CanTransition(e.Status, target) {
		return nil, ErrStatusShouldBe(e.ID, StatusPending)
	}

	if target == StatusApproved && e.PayoutMethod.IsExternal() {
		if err := s.checkFunds(ctx, g, e); err != nil {
			return nil, err
		}
	}

	e.Status = target
	e.LastEditedByID = actor.UserID()

	activityType := activity.TypeExpenseRejected
	if target == StatusApproved {
		activityType = activity.TypeExpenseApproved
	}

	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, e); err != nil {
			return conflictAs(err, ErrStatusShouldBe(e.ID, StatusPending))
		}
		return s.recordWithSubmitter(ctx, activityType, g, e)
	})
	if err != nil {
		return nil, err
	}

	metrics.ExpenseTransitions.WithLabelValues(string(target)).Inc()
	s.logger.Info("expense reviewed",
		"expense_id", e.ID,
		"group_id", g.ID,
		"status", target,
		"reviewer_id", actor.User.ID)
	return e, nil
}

// Pay settles an APPROVED expense. Marking it PAID, moving the money and
// writing the ledger entry and activity happen in one unit of work: a
// gateway failure leaves nothing behind, and a second call finds the
// expense already PAID.
func (s *Service) Pay(ctx context.Context, actor auth.Actor, g *group.Group, id int64) (*transaction.Transaction, error) {
	if !actor.Authenticated() {
		return nil, internal.ErrUnauthorized
	}

	var (
		e       *Expense
		receipt *payment.Receipt
	)
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		e, err = s.load(ctx, g, id)
		if err != nil {
			return err
		}
		if !auth.Can(auth.ActionPay, actor, e) {
			return internal.ErrForbidden
		}
		if !CanTransition(e.Status, StatusPaid) {
			return ErrStatusShouldBe(e.ID, StatusApproved)
		}

		e.Status = StatusPaid
		e.LastEditedByID = actor.UserID()
		if err := s.repo.Update(ctx, e); err != nil {
			return conflictAs(err, ErrStatusShouldBe(e.ID, StatusApproved))
		}

		// The paying host's preapproval funds the payout.
		receipt, err = s.payer.Pay(ctx, payment.Payout{
			ExpenseID:     e.ID,
			Title:         e.Title,
			GroupID:       g.ID,
			GroupCurrency: g.Currency,
			HostID:        actor.User.ID,
			PayeeID:       e.UserID,
			Amount:        e.Amount,
			Currency:      e.Currency,
			Method:        e.PayoutMethod,
		})
		if err != nil {
			return err
		}

		data := map[string]interface{}{
			"user":        activity.UserData(actor.User),
			"group":       g,
			"transaction": receipt.Transaction,
		}
		if len(receipt.GatewayResponse) > 0 {
			data["paymentResponse"] = receipt.GatewayResponse
		}
		_, err = s.activities.Record(ctx, activity.Entry{
			Type:          activity.TypeTransactionPaid,
			UserID:        actor.UserID(),
			GroupID:       &g.ID,
			ExpenseID:     &e.ID,
			TransactionID: &receipt.Transaction.ID,
			Data:          data,
		})
		return err
	})
	if err != nil {
		s.logger.Warn("expense payment failed", "expense_id", id, "group_id", g.ID, "error", err)
		return nil, err
	}

	metrics.ExpenseTransitions.WithLabelValues(string(StatusPaid)).Inc()
	s.logger.Info("expense paid",
		"expense_id", e.ID,
		"group_id", g.ID,
		"transaction_id", receipt.Transaction.ID,
		"payout_method", e.PayoutMethod)
	return receipt.Transaction, nil
}

// load returns the expense only when it belongs to g.
func (s *Service) load(ctx context.Context, g *group.Group, id int64) (*Expense, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.GroupID != g.ID {
		return nil, ErrExpenseNotFound
	}
	return e, nil
}

func (s *Service) checkFunds(ctx context.Context, g *group.Group, e *Expense) error {
	hostID, err := s.groups.HostID(ctx, g.ID)
	if err != nil {
		if errors.Is(err, group.ErrNoHost) {
			s.logger.Warn("funds check skipped: group has no host", "group_id", g.ID)
			return nil
		}
		return fmt.Errorf("resolve host of group %d: %w", g.ID, err)
	}

	return s.funds.CheckApproval(ctx, payment.ApprovalCheck{
		HostID:       hostID,
		PayoutMethod: e.PayoutMethod,
		Amount:       e.Amount,
		Currency:     e.Currency,
	})
}

// recordWithSubmitter snapshots the submitter into the activity. A submitter
// that no longer exists is left out.
func (s *Service) recordWithSubmitter(ctx context.Context, activityType string, g *group.Group, e *Expense) error {
	var submitter map[string]interface{}
	if e.UserID != nil {
		u, err := s.users.GetByID(ctx, *e.UserID)
		switch {
		case err == nil:
			submitter = u.Snapshot()
		case !errors.Is(err, user.ErrUserNotFound):
			return err
		}
	}
	return s.record(ctx, activityType, g, e, submitter)
}

func (s *Service) record(ctx context.Context, activityType string, g *group.Group, e *Expense, submitter map[string]interface{}) error {
	data := map[string]interface{}{
		"group":   g,
		"expense": e,
	}
	if submitter != nil {
		data["user"] = submitter
	}

	_, err := s.activities.Record(ctx, activity.Entry{
		Type:      activityType,
		UserID:    e.UserID,
		GroupID:   &g.ID,
		ExpenseID: &e.ID,
		Data:      data,
	})
	return err
}

func conflictAs(err error, appErr *internal.AppError) error {
	if errors.Is(err, ErrVersionConflict) {
		return appErr.WithCause(err)
	}
	return err
}
