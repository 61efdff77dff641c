package paymentmethod

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/group-expenses/internal"
	"github.com/frahmantamala/group-expenses/internal/paymentgateway"
)

// PreapprovalChecker is the part of the payment gateway used to confirm methods.
type PreapprovalChecker interface {
	PreapprovalDetails(ctx context.Context, preapprovalKey string) (*paymentgateway.PreapprovalDetails, error)
}

type Service struct {
	repo    Repository
	gateway PreapprovalChecker
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo Repository, gateway PreapprovalChecker, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		gateway: gateway,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Service) List(ctx context.Context, userID int64) ([]*PaymentMethod, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Create stores a new, unconfirmed payment method for userID.
func (s *Service) Create(ctx context.Context, userID int64, req CreatePaymentMethodRequest) (*PaymentMethod, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	pm := &PaymentMethod{
		UserID:  userID,
		Service: req.PaymentMethod.Service,
		Token:   req.PaymentMethod.Token,
	}
	if err := s.repo.Create(ctx, pm); err != nil {
		return nil, err
	}

	s.logger.Info("payment method created", "payment_method_id", pm.ID, "user_id", userID, "service", pm.Service)
	return pm, nil
}

// Confirm asks the service whether the method's preapproval was granted and
// marks it confirmed when it was. Confirming twice is a no-op.
func (s *Service) Confirm(ctx context.Context, userID, id int64) (*PaymentMethod, error) {
	pm, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if pm.UserID != userID {
		return nil, ErrPaymentMethodNotFound
	}
	if pm.IsConfirmed() {
		return pm, nil
	}

	details, err := s.gateway.PreapprovalDetails(ctx, pm.Token)
	if err != nil {
		var gwErr *paymentgateway.Error
		if errors.As(err, &gwErr) {
			return nil, internal.NewBadRequestError(gwErr.Message).WithCause(err)
		}
		return nil, internal.NewInternalError("Could not reach the payment service", err)
	}
	if !details.IsApproved() {
		s.logger.Warn("payment method not approved", "payment_method_id", pm.ID, "status", details.Status)
		return nil, ErrNotApproved
	}

	at := s.now()
	if err := s.repo.MarkConfirmed(ctx, pm.ID, at); err != nil {
		return nil, err
	}
	pm.ConfirmedAt = &at

	s.logger.Info("payment method confirmed", "payment_method_id", pm.ID, "user_id", userID)
	return pm, nil
}
